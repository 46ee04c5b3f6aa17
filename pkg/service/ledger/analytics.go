package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	ledgerdomain "github.com/amirasaad/masroofy/pkg/domain/ledger"
	"github.com/amirasaad/masroofy/pkg/dto"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/amirasaad/masroofy/pkg/repository"
	"github.com/amirasaad/masroofy/pkg/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// BudgetStatus reports this month's allowance use of accountID. A dependent
// may only view itself; a guardian may view itself or its own dependents.
//
// Spent is derived as TotalBudget minus the current balance. That holds only
// when the month started at zero and the account received nothing but
// transfers; carried-over money makes Spent negative.
func (s *Service) BudgetStatus(ctx context.Context, actorID, accountID uuid.UUID) (*dto.BudgetStatus, error) {
	log := s.logger.With("operation", "BudgetStatus", "actor_id", actorID, "account_id", accountID)
	accounts, txs, err := s.repos()
	if err != nil {
		return nil, err
	}
	target, err := s.viewable(ctx, accounts, actorID, accountID)
	if err != nil {
		return nil, service.LogFailure(log, "Budget rejected", err)
	}

	start, end := s.monthWindow()
	received, err := txs.Sum(ctx, repository.TransactionFilter{
		ReceiverID: &target.ID,
		Kind:       ledgerdomain.KindTransfer,
		From:       start,
		To:         end,
	})
	if err != nil {
		return nil, service.LogFailure(log, "Budget failed", err)
	}

	total := received.Amount
	spent := total - target.Balance
	pct := 0.0
	if total > 0 {
		pct = decimal.NewFromInt(spent.Cents()).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(total.Cents())).
			Round(2).
			InexactFloat64()
	}
	return &dto.BudgetStatus{
		AccountID:   target.ID,
		TotalBudget: total,
		Spent:       spent,
		Remaining:   total - spent,
		Percentage:  pct,
		Status:      s.budgetColour(pct),
		PeriodStart: start,
		PeriodEnd:   end,
	}, nil
}

func (s *Service) budgetColour(pct float64) string {
	switch {
	case pct <= s.warnPercent:
		return dto.BudgetGreen
	case pct <= s.alertPercent:
		return dto.BudgetOrange
	default:
		return dto.BudgetRed
	}
}

// DailyForecast spreads the balance of accountID over the days left in the
// month. With no days left the whole balance is safe to spend today.
func (s *Service) DailyForecast(ctx context.Context, accountID uuid.UUID) (*dto.DailyForecast, error) {
	log := s.logger.With("operation", "DailyForecast", "account_id", accountID)
	accounts, _, err := s.repos()
	if err != nil {
		return nil, err
	}
	a, err := accounts.Get(ctx, accountID)
	if err != nil {
		return nil, service.LogFailure(log, "Forecast failed", err)
	}
	days := s.daysRemaining()
	return &dto.DailyForecast{
		AccountID:      a.ID,
		CurrentBalance: a.Balance,
		DaysRemaining:  days,
		SafeDailySpend: safeDaily(a.Balance, days),
	}, nil
}

// MonthlyBreakdown groups this month's entries of accountID by kind and
// direction.
func (s *Service) MonthlyBreakdown(ctx context.Context, accountID uuid.UUID) (*dto.MonthlyBreakdown, error) {
	log := s.logger.With("operation", "MonthlyBreakdown", "account_id", accountID)
	accounts, txs, err := s.repos()
	if err != nil {
		return nil, err
	}
	a, err := accounts.Get(ctx, accountID)
	if err != nil {
		return nil, service.LogFailure(log, "Breakdown failed", err)
	}
	start, end := s.monthWindow()

	groups := []struct {
		out      *dto.KindTotals
		kind     ledgerdomain.Kind
		incoming bool
	}{
		{kind: ledgerdomain.KindDeposit, incoming: true},
		{kind: ledgerdomain.KindTransfer, incoming: true},
		{kind: ledgerdomain.KindTransfer},
		{kind: ledgerdomain.KindExpense},
	}
	b := &dto.MonthlyBreakdown{AccountID: a.ID, Month: start.Format("2006-01")}
	groups[0].out, groups[1].out, groups[2].out, groups[3].out = &b.Deposits, &b.TransfersIn, &b.TransfersOut, &b.Expenses

	for _, g := range groups {
		f := repository.TransactionFilter{Kind: g.kind, From: start, To: end}
		if g.incoming {
			f.ReceiverID = &a.ID
		} else {
			f.SenderID = &a.ID
		}
		totals, err := txs.Sum(ctx, f)
		if err != nil {
			return nil, service.LogFailure(log, "Breakdown failed", err)
		}
		*g.out = dto.KindTotals{Count: totals.Count, Total: totals.Amount}
	}
	b.TotalIncome = b.Deposits.Total + b.TransfersIn.Total
	b.TotalOutflow = b.TransfersOut.Total + b.Expenses.Total
	b.Net = b.TotalIncome - b.TotalOutflow
	return b, nil
}

// SpendingAnalysis projects this month's expense pace of accountID to the
// end of the month and rates the risk of running out.
func (s *Service) SpendingAnalysis(ctx context.Context, accountID uuid.UUID) (*dto.SpendingAnalysis, error) {
	log := s.logger.With("operation", "SpendingAnalysis", "account_id", accountID)
	accounts, txs, err := s.repos()
	if err != nil {
		return nil, err
	}
	a, err := accounts.Get(ctx, accountID)
	if err != nil {
		return nil, service.LogFailure(log, "Analysis failed", err)
	}
	start, end := s.monthWindow()
	spent, err := txs.Sum(ctx, repository.TransactionFilter{
		SenderID: &a.ID,
		Kind:     ledgerdomain.KindExpense,
		From:     start,
		To:       end,
	})
	if err != nil {
		return nil, service.LogFailure(log, "Analysis failed", err)
	}

	elapsed := s.now().In(s.loc).Day()
	remaining := s.daysRemaining()
	avgDaily := divide(spent.Amount, int64(elapsed))
	projected := a.Balance - avgDaily*money.Amount(remaining)
	safe := safeDaily(a.Balance, remaining)

	r := &dto.SpendingAnalysis{
		AccountID:         a.ID,
		CurrentBalance:    a.Balance,
		DaysElapsed:       elapsed,
		DaysRemaining:     remaining,
		TotalSpent:        spent.Amount,
		ExpenseCount:      spent.Count,
		AverageDailySpend: avgDaily,
		AveragePerExpense: divide(spent.Amount, spent.Count),
		ProjectedBalance:  projected,
		SafeDailySpend:    safe,
	}
	switch {
	case projected < 0:
		r.RiskLevel = dto.RiskHigh
		r.Advice = fmt.Sprintf("At this pace the balance runs out before the month ends. Keep daily spending under %s.", safe)
	case projected*5 < a.Balance:
		r.RiskLevel = dto.RiskMedium
		r.Advice = fmt.Sprintf("Most of the balance will be gone by the end of the month. Try to stay under %s a day.", safe)
	default:
		r.RiskLevel = dto.RiskLow
		r.Advice = "Spending is well within the balance."
	}
	return r, nil
}

// WeeklySummary lists the expenses of accountID over the last seven
// calendar days, today included, oldest first. Days without expenses are
// reported with zero totals.
func (s *Service) WeeklySummary(ctx context.Context, accountID uuid.UUID) (*dto.WeeklySummary, error) {
	log := s.logger.With("operation", "WeeklySummary", "account_id", accountID)
	accounts, txs, err := s.repos()
	if err != nil {
		return nil, err
	}
	a, err := accounts.Get(ctx, accountID)
	if err != nil {
		return nil, service.LogFailure(log, "Summary failed", err)
	}

	today := startOfDay(s.now().In(s.loc))
	from := today.AddDate(0, 0, -6)
	entries, err := txs.List(ctx, repository.TransactionFilter{
		SenderID: &a.ID,
		Kind:     ledgerdomain.KindExpense,
		From:     from,
		To:       today.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, service.LogFailure(log, "Summary failed", err)
	}

	summary := &dto.WeeklySummary{AccountID: a.ID, Days: make([]dto.DaySpending, 7)}
	index := make(map[string]int, 7)
	for i := range summary.Days {
		date := from.AddDate(0, 0, i).Format(time.DateOnly)
		summary.Days[i].Date = date
		index[date] = i
	}
	for _, tx := range entries {
		i, ok := index[tx.CreatedAt.In(s.loc).Format(time.DateOnly)]
		if !ok {
			continue
		}
		summary.Days[i].Count++
		summary.Days[i].Total += tx.Amount
		summary.ExpenseCount++
		summary.TotalSpent += tx.Amount
	}
	return summary, nil
}

// monthWindow returns [first of month 00:00, first of next month 00:00).
func (s *Service) monthWindow() (time.Time, time.Time) {
	now := s.now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 1, 0)
}

// daysRemaining is ceil((last day of month 00:00 - now) / 24h), floored at 0.
func (s *Service) daysRemaining() int {
	now := s.now().In(s.loc)
	lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, s.loc)
	left := lastDay.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(float64(left) / float64(day)))
}

func safeDaily(balance money.Amount, days int) money.Amount {
	if days <= 0 {
		return balance
	}
	return divide(balance, int64(days))
}

// divide splits a by n, rounded to the cent. Zero when n is not positive.
func divide(a money.Amount, n int64) money.Amount {
	if n <= 0 {
		return 0
	}
	q := decimal.NewFromInt(a.Cents()).Div(decimal.NewFromInt(n)).Round(0)
	return money.FromCents(q.IntPart())
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
