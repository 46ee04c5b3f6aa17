package ledger_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/masroofy/internal/fixtures"
	"github.com/amirasaad/masroofy/pkg/commands"
	"github.com/amirasaad/masroofy/pkg/config"
	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/amirasaad/masroofy/pkg/domain/account"
	ledgerdomain "github.com/amirasaad/masroofy/pkg/domain/ledger"
	"github.com/amirasaad/masroofy/pkg/dto"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/amirasaad/masroofy/pkg/service/directory"
	"github.com/amirasaad/masroofy/pkg/service/ledger"
	"github.com/amirasaad/masroofy/pkg/service/wallet"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock advances one minute per reading so entries never share a timestamp.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(time.Minute)
	return t
}

type mapCache struct {
	mu      sync.Mutex
	values  map[string]string
	deletes int
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	c.deletes++
	return nil
}

type env struct {
	store   *fixtures.Store
	wallet  *wallet.Service
	query   *ledger.Service
	dir     *directory.Service
	cache   *mapCache
	guard   *account.Account
	child   *account.Account
	writeAt *steppingClock
}

func newEnv(t *testing.T, now time.Time) *env {
	t.Helper()
	store := fixtures.NewStore(t)
	logger := slog.Default()
	clock := &steppingClock{now: now.Add(-time.Hour)}
	c := &mapCache{values: map[string]string{}}
	e := &env{
		store:   store,
		wallet:  wallet.New(store.UoW, nil, logger, wallet.WithClock(clock.Now)),
		dir:     directory.New(store.UoW, nil, logger),
		cache:   c,
		writeAt: clock,
		query: ledger.New(
			store.UoW,
			ledger.NewNameResolver(c, time.Minute, logger),
			&config.Ledger{HistoryLimit: 100, Timezone: "UTC"},
			&config.Budget{WarnPercent: 50, AlertPercent: 80},
			logger,
			ledger.WithClock(func() time.Time { return now }),
		),
	}
	e.guard = store.SeedGuardian(t, "mona", 0)
	e.child = store.SeedDependent(t, e.guard.ID, "omar", 0)
	return e
}

func (e *env) deposit(t *testing.T, amt money.Amount) {
	t.Helper()
	_, err := e.wallet.Deposit(context.Background(), commands.Deposit{ActorID: e.guard.ID, Amount: amt})
	require.NoError(t, err)
}

func (e *env) transfer(t *testing.T, to uuid.UUID, amt money.Amount) {
	t.Helper()
	_, err := e.wallet.Transfer(context.Background(), commands.Transfer{ActorID: e.guard.ID, DependentID: to, Amount: amt})
	require.NoError(t, err)
}

func (e *env) expense(t *testing.T, by uuid.UUID, amt money.Amount, what string) {
	t.Helper()
	_, err := e.wallet.Expense(context.Background(), commands.Expense{ActorID: by, Amount: amt, Description: what})
	require.NoError(t, err)
}

var midMarch = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func TestAllowanceScenario(t *testing.T) {
	e := newEnv(t, midMarch)
	ctx := context.Background()

	e.deposit(t, 50000)
	assert.Equal(t, money.Amount(50000), e.store.Balance(t, e.guard.ID))
	e.transfer(t, e.child.ID, 20000)
	assert.Equal(t, money.Amount(30000), e.store.Balance(t, e.guard.ID))
	assert.Equal(t, money.Amount(20000), e.store.Balance(t, e.child.ID))
	e.expense(t, e.child.ID, 5000, "lunch")
	assert.Equal(t, money.Amount(15000), e.store.Balance(t, e.child.ID))

	items, err := e.query.History(ctx, e.child.ID, ledgerdomain.FilterNone)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, ledgerdomain.KindExpense, items[0].Kind)
	assert.Equal(t, ledgerdomain.DirectionOutgoing, items[0].Direction)
	assert.Equal(t, "lunch", items[0].Description)
	assert.Equal(t, dto.UnknownParty, items[0].Counterpart)
	assert.Equal(t, ledgerdomain.KindTransfer, items[1].Kind)
	assert.Equal(t, ledgerdomain.DirectionIncoming, items[1].Direction)
	assert.Equal(t, "mona", items[1].Counterpart)
	assert.True(t, items[0].CreatedAt.After(items[1].CreatedAt))

	budget, err := e.query.BudgetStatus(ctx, e.child.ID, e.child.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(20000), budget.TotalBudget)
	assert.Equal(t, money.Amount(5000), budget.Spent)
	assert.Equal(t, money.Amount(15000), budget.Remaining)
	assert.InDelta(t, 25.00, budget.Percentage, 0.0001)
	assert.Equal(t, dto.BudgetGreen, budget.Status)
}

func TestHistoryScopeAndFilters(t *testing.T) {
	e := newEnv(t, midMarch)
	ctx := context.Background()
	sibling := e.store.SeedDependent(t, e.guard.ID, "laila", 0)
	other := e.store.SeedGuardian(t, "karim", 0)

	e.deposit(t, 10000)
	e.transfer(t, e.child.ID, 3000)
	e.transfer(t, sibling.ID, 2000)
	e.expense(t, e.child.ID, 500, "cinema")
	e.expense(t, e.guard.ID, 1000, "fuel")

	t.Run("guardian sees own and dependents' entries", func(t *testing.T) {
		items, err := e.query.History(ctx, e.guard.ID, ledgerdomain.FilterNone)
		require.NoError(t, err)
		assert.Len(t, items, 5)
		for i := 1; i < len(items); i++ {
			assert.False(t, items[i].CreatedAt.After(items[i-1].CreatedAt))
		}
	})
	t.Run("dependent sees only its own", func(t *testing.T) {
		items, err := e.query.History(ctx, sibling.ID, ledgerdomain.FilterNone)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "laila", items[0].ReceiverName)
	})
	t.Run("income keeps entries received by the actor", func(t *testing.T) {
		items, err := e.query.History(ctx, e.guard.ID, ledgerdomain.FilterIncome)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, ledgerdomain.KindDeposit, items[0].Kind)
		assert.Equal(t, dto.ExternalParty, items[0].SenderName)
		assert.Equal(t, dto.ExternalParty, items[0].Counterpart)
	})
	t.Run("expense keeps entries sent by the actor", func(t *testing.T) {
		items, err := e.query.History(ctx, e.guard.ID, ledgerdomain.FilterExpense)
		require.NoError(t, err)
		assert.Len(t, items, 3)
		for _, it := range items {
			assert.Equal(t, ledgerdomain.DirectionOutgoing, it.Direction)
		}
	})
	t.Run("unrelated guardian sees nothing", func(t *testing.T) {
		items, err := e.query.History(ctx, other.ID, ledgerdomain.FilterNone)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
	t.Run("unknown filter", func(t *testing.T) {
		_, err := e.query.History(ctx, e.guard.ID, ledgerdomain.Filter("gifts"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestHistoryIsCapped(t *testing.T) {
	store := fixtures.NewStore(t)
	logger := slog.Default()
	clock := &steppingClock{now: midMarch.Add(-time.Hour)}
	w := wallet.New(store.UoW, nil, logger, wallet.WithClock(clock.Now))
	q := ledger.New(store.UoW, nil, &config.Ledger{HistoryLimit: 3, Timezone: "UTC"}, nil, logger)
	g := store.SeedGuardian(t, "mona", 0)
	for i := 0; i < 5; i++ {
		_, err := w.Deposit(context.Background(), commands.Deposit{ActorID: g.ID, Amount: money.Amount(100 + i)})
		require.NoError(t, err)
	}

	items, err := q.History(context.Background(), g.ID, ledgerdomain.FilterNone)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, money.Amount(104), items[0].Amount)
}

func TestHistoryKeepsDeletedDependentNames(t *testing.T) {
	e := newEnv(t, midMarch)
	ctx := context.Background()
	e.deposit(t, 1000)
	e.transfer(t, e.child.ID, 400)
	require.NoError(t, e.dir.DeleteDependent(ctx, e.guard.ID, e.child.ID))

	items, err := e.query.History(ctx, e.guard.ID, ledgerdomain.FilterExpense)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "omar", items[0].Counterpart)
}

func TestNamesAreCached(t *testing.T) {
	e := newEnv(t, midMarch)
	ctx := context.Background()
	e.deposit(t, 1000)
	e.transfer(t, e.child.ID, 400)

	_, err := e.query.History(ctx, e.child.ID, ledgerdomain.FilterNone)
	require.NoError(t, err)
	assert.Equal(t, "omar", e.cache.values[ledger.NameKey(e.child.ID)])

	// a stale cached name is served until invalidated
	e.cache.values[ledger.NameKey(e.guard.ID)] = "mum"
	items, err := e.query.History(ctx, e.child.ID, ledgerdomain.FilterNone)
	require.NoError(t, err)
	assert.Equal(t, "mum", items[0].Counterpart)

	resolver := ledger.NewNameResolver(e.cache, time.Minute, slog.Default())
	require.NoError(t, resolver.Invalidate(ctx, e.guard.ID))
	items, err = e.query.History(ctx, e.child.ID, ledgerdomain.FilterNone)
	require.NoError(t, err)
	assert.Equal(t, "mona", items[0].Counterpart)
}

func TestGetTransaction(t *testing.T) {
	e := newEnv(t, midMarch)
	ctx := context.Background()
	other := e.store.SeedGuardian(t, "karim", 0)
	e.deposit(t, 1000)
	e.transfer(t, e.child.ID, 400)
	items, err := e.query.History(ctx, e.child.ID, ledgerdomain.FilterNone)
	require.NoError(t, err)
	id := items[0].ID

	got, err := e.query.Get(ctx, e.guard.ID, id)
	require.NoError(t, err)
	assert.Equal(t, ledgerdomain.DirectionOutgoing, got.Direction)
	assert.Equal(t, "omar", got.Counterpart)

	_, err = e.query.Get(ctx, other.ID, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.query.Get(ctx, e.guard.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBudgetStatus(t *testing.T) {
	tests := []struct {
		name    string
		spend   money.Amount
		pct     float64
		status  string
		balance money.Amount
	}{
		{"nothing spent", 0, 0, dto.BudgetGreen, 10000},
		{"exactly half", 5000, 50, dto.BudgetGreen, 5000},
		{"just over half", 5001, 50.01, dto.BudgetOrange, 4999},
		{"eighty percent", 8000, 80, dto.BudgetOrange, 2000},
		{"over eighty", 8001, 80.01, dto.BudgetRed, 1999},
		{"all of it", 10000, 100, dto.BudgetRed, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, midMarch)
			e.deposit(t, 10000)
			e.transfer(t, e.child.ID, 10000)
			if tt.spend > 0 {
				e.expense(t, e.child.ID, tt.spend, "stuff")
			}
			b, err := e.query.BudgetStatus(context.Background(), e.guard.ID, e.child.ID)
			require.NoError(t, err)
			assert.Equal(t, money.Amount(10000), b.TotalBudget)
			assert.Equal(t, tt.spend, b.Spent)
			assert.Equal(t, tt.balance, b.Remaining)
			assert.InDelta(t, tt.pct, b.Percentage, 0.0001)
			assert.Equal(t, tt.status, b.Status)
		})
	}
}

func TestBudgetStatusEdges(t *testing.T) {
	ctx := context.Background()

	t.Run("no transfers this month", func(t *testing.T) {
		e := newEnv(t, midMarch)
		b, err := e.query.BudgetStatus(ctx, e.child.ID, e.child.ID)
		require.NoError(t, err)
		assert.Equal(t, money.Zero, b.TotalBudget)
		assert.Zero(t, b.Percentage)
		assert.Equal(t, dto.BudgetGreen, b.Status)
	})
	t.Run("last month's transfers are outside the window", func(t *testing.T) {
		e := newEnv(t, time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC))
		e.writeAt.now = time.Date(2024, 3, 30, 12, 0, 0, 0, time.UTC)
		e.deposit(t, 5000)
		e.transfer(t, e.child.ID, 5000)
		b, err := e.query.BudgetStatus(ctx, e.child.ID, e.child.ID)
		require.NoError(t, err)
		assert.Equal(t, money.Zero, b.TotalBudget)
		// carried over balance makes spent negative
		assert.Equal(t, money.FromCents(-5000), b.Spent)
		assert.Equal(t, money.FromCents(5000), b.Remaining)
		assert.True(t, b.PeriodStart.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
		assert.True(t, b.PeriodEnd.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	})
	t.Run("access", func(t *testing.T) {
		e := newEnv(t, midMarch)
		sibling := e.store.SeedDependent(t, e.guard.ID, "laila", 0)
		other := e.store.SeedGuardian(t, "karim", 0)

		_, err := e.query.BudgetStatus(ctx, e.guard.ID, e.guard.ID)
		assert.NoError(t, err)
		_, err = e.query.BudgetStatus(ctx, sibling.ID, e.child.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		_, err = e.query.BudgetStatus(ctx, other.ID, e.child.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		_, err = e.query.BudgetStatus(ctx, e.guard.ID, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDailyForecast(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		balance money.Amount
		days    int
		safe    money.Amount
	}{
		{"last day of month", time.Date(2024, 3, 31, 15, 30, 0, 0, time.UTC), 12345, 0, 12345},
		{"last day at midnight", time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), 700, 0, 700},
		{"day before last", time.Date(2024, 3, 30, 10, 0, 0, 0, time.UTC), 1000, 1, 1000},
		{"mid month", midMarch, 16000, 16, 1000},
		{"rounded to the cent", midMarch, 1000, 16, 63},
		{"leap february", time.Date(2024, 2, 28, 8, 0, 0, 0, time.UTC), 500, 1, 500},
		{"empty wallet", midMarch, 0, 16, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := fixtures.NewStore(t)
			q := ledger.New(store.UoW, nil, &config.Ledger{Timezone: "UTC"}, nil, slog.Default(),
				ledger.WithClock(func() time.Time { return tt.now }))
			g := store.SeedGuardian(t, "mona", tt.balance)

			f, err := q.DailyForecast(context.Background(), g.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.balance, f.CurrentBalance)
			assert.Equal(t, tt.days, f.DaysRemaining)
			assert.Equal(t, tt.safe, f.SafeDailySpend)
		})
	}
}

func TestMonthlyBreakdown(t *testing.T) {
	e := newEnv(t, midMarch)
	e.deposit(t, 10000)
	e.deposit(t, 5000)
	e.transfer(t, e.child.ID, 4000)
	e.expense(t, e.guard.ID, 1500, "fuel")

	b, err := e.query.MonthlyBreakdown(context.Background(), e.guard.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03", b.Month)
	assert.Equal(t, dto.KindTotals{Count: 2, Total: 15000}, b.Deposits)
	assert.Equal(t, dto.KindTotals{Count: 1, Total: 4000}, b.TransfersOut)
	assert.Equal(t, dto.KindTotals{Count: 1, Total: 1500}, b.Expenses)
	assert.Equal(t, dto.KindTotals{}, b.TransfersIn)
	assert.Equal(t, money.Amount(15000), b.TotalIncome)
	assert.Equal(t, money.Amount(5500), b.TotalOutflow)
	assert.Equal(t, money.Amount(9500), b.Net)

	child, err := e.query.MonthlyBreakdown(context.Background(), e.child.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.KindTotals{Count: 1, Total: 4000}, child.TransfersIn)
}

func TestSpendingAnalysis(t *testing.T) {
	ctx := context.Background()

	t.Run("on track", func(t *testing.T) {
		e := newEnv(t, midMarch)
		e.deposit(t, 20000)
		e.transfer(t, e.child.ID, 20000)
		e.expense(t, e.child.ID, 1500, "snacks")

		a, err := e.query.SpendingAnalysis(ctx, e.child.ID)
		require.NoError(t, err)
		assert.Equal(t, 15, a.DaysElapsed)
		assert.Equal(t, 16, a.DaysRemaining)
		assert.Equal(t, money.Amount(1500), a.TotalSpent)
		assert.Equal(t, int64(1), a.ExpenseCount)
		assert.Equal(t, money.Amount(100), a.AverageDailySpend)
		assert.Equal(t, money.Amount(1500), a.AveragePerExpense)
		assert.Equal(t, money.Amount(18500-1600), a.ProjectedBalance)
		assert.Equal(t, dto.RiskLow, a.RiskLevel)
	})
	t.Run("running out", func(t *testing.T) {
		e := newEnv(t, midMarch)
		e.deposit(t, 20000)
		e.transfer(t, e.child.ID, 20000)
		e.expense(t, e.child.ID, 15000, "phone")

		a, err := e.query.SpendingAnalysis(ctx, e.child.ID)
		require.NoError(t, err)
		assert.Equal(t, money.Amount(1000), a.AverageDailySpend)
		assert.Less(t, a.ProjectedBalance, money.Zero)
		assert.Equal(t, dto.RiskHigh, a.RiskLevel)
		assert.NotEmpty(t, a.Advice)
	})
	t.Run("tight", func(t *testing.T) {
		e := newEnv(t, midMarch)
		e.deposit(t, 20000)
		e.transfer(t, e.child.ID, 20000)
		e.expense(t, e.child.ID, 7500, "shoes")

		a, err := e.query.SpendingAnalysis(ctx, e.child.ID)
		require.NoError(t, err)
		// 12500 left, 500 a day for 16 days leaves 4500
		assert.Equal(t, money.Amount(4500), a.ProjectedBalance)
		assert.Equal(t, dto.RiskLow, a.RiskLevel)

		e.expense(t, e.child.ID, 1500, "gift")
		a, err = e.query.SpendingAnalysis(ctx, e.child.ID)
		require.NoError(t, err)
		// 11000 left, 600 a day for 16 days leaves 1400, under a fifth
		assert.Equal(t, money.Amount(1400), a.ProjectedBalance)
		assert.Equal(t, dto.RiskMedium, a.RiskLevel)
	})
}

func TestWeeklySummary(t *testing.T) {
	e := newEnv(t, midMarch)
	e.writeAt.now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	e.deposit(t, 50000)
	e.expense(t, e.guard.ID, 999, "too old")
	e.writeAt.now = time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)
	e.expense(t, e.guard.ID, 100, "bread")
	e.expense(t, e.guard.ID, 200, "milk")
	e.writeAt.now = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	e.expense(t, e.guard.ID, 300, "cake")

	w, err := e.query.WeeklySummary(context.Background(), e.guard.ID)
	require.NoError(t, err)
	require.Len(t, w.Days, 7)
	assert.Equal(t, "2024-03-09", w.Days[0].Date)
	assert.Equal(t, "2024-03-15", w.Days[6].Date)
	assert.Equal(t, dto.DaySpending{Date: "2024-03-09", Count: 2, Total: 300}, w.Days[0])
	assert.Equal(t, dto.DaySpending{Date: "2024-03-12", Count: 0, Total: 0}, w.Days[3])
	assert.Equal(t, dto.DaySpending{Date: "2024-03-15", Count: 1, Total: 300}, w.Days[6])
	assert.Equal(t, money.Amount(600), w.TotalSpent)
	assert.Equal(t, int64(3), w.ExpenseCount)
}
