package analytics

import (
	"time"

	"github.com/amirasaad/masroofy/pkg/dto"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/google/uuid"
)

//revive:disable

type BudgetStatusDTO struct {
	AccountID   uuid.UUID    `json:"account_id"`
	TotalBudget money.Amount `json:"total_budget"`
	Spent       money.Amount `json:"spent"`
	Remaining   money.Amount `json:"remaining"`
	Percentage  float64      `json:"percentage"`
	Status      string       `json:"status"`
	PeriodStart time.Time    `json:"period_start"`
	PeriodEnd   time.Time    `json:"period_end"`
}

type DailyForecastDTO struct {
	AccountID      uuid.UUID    `json:"account_id"`
	CurrentBalance money.Amount `json:"current_balance"`
	DaysRemaining  int          `json:"days_remaining"`
	SafeDailySpend money.Amount `json:"safe_daily_spend"`
}

type KindTotalsDTO struct {
	Count int64        `json:"count"`
	Total money.Amount `json:"total"`
}

type MonthlyBreakdownDTO struct {
	AccountID    uuid.UUID     `json:"account_id"`
	Month        string        `json:"month"`
	Deposits     KindTotalsDTO `json:"deposits"`
	TransfersIn  KindTotalsDTO `json:"transfers_in"`
	TransfersOut KindTotalsDTO `json:"transfers_out"`
	Expenses     KindTotalsDTO `json:"expenses"`
	TotalIncome  money.Amount  `json:"total_income"`
	TotalOutflow money.Amount  `json:"total_outflow"`
	Net          money.Amount  `json:"net"`
}

type SpendingAnalysisDTO struct {
	AccountID         uuid.UUID    `json:"account_id"`
	CurrentBalance    money.Amount `json:"current_balance"`
	DaysElapsed       int          `json:"days_elapsed"`
	DaysRemaining     int          `json:"days_remaining"`
	TotalSpent        money.Amount `json:"total_spent"`
	ExpenseCount      int64        `json:"expense_count"`
	AverageDailySpend money.Amount `json:"average_daily_spend"`
	AveragePerExpense money.Amount `json:"average_per_expense"`
	ProjectedBalance  money.Amount `json:"projected_balance"`
	SafeDailySpend    money.Amount `json:"safe_daily_spend"`
	RiskLevel         string       `json:"risk_level"`
	Advice            string       `json:"advice"`
}

type DaySpendingDTO struct {
	Date  string       `json:"date"`
	Count int64        `json:"count"`
	Total money.Amount `json:"total"`
}

type WeeklySummaryDTO struct {
	AccountID    uuid.UUID        `json:"account_id"`
	Days         []DaySpendingDTO `json:"days"`
	TotalSpent   money.Amount     `json:"total_spent"`
	ExpenseCount int64            `json:"expense_count"`
}

func toBudgetStatusDTO(b *dto.BudgetStatus) BudgetStatusDTO {
	return BudgetStatusDTO{
		AccountID:   b.AccountID,
		TotalBudget: b.TotalBudget,
		Spent:       b.Spent,
		Remaining:   b.Remaining,
		Percentage:  b.Percentage,
		Status:      b.Status,
		PeriodStart: b.PeriodStart,
		PeriodEnd:   b.PeriodEnd,
	}
}

func toDailyForecastDTO(f *dto.DailyForecast) DailyForecastDTO {
	return DailyForecastDTO{
		AccountID:      f.AccountID,
		CurrentBalance: f.CurrentBalance,
		DaysRemaining:  f.DaysRemaining,
		SafeDailySpend: f.SafeDailySpend,
	}
}

func toKindTotalsDTO(k dto.KindTotals) KindTotalsDTO {
	return KindTotalsDTO{Count: k.Count, Total: k.Total}
}

func toMonthlyBreakdownDTO(m *dto.MonthlyBreakdown) MonthlyBreakdownDTO {
	return MonthlyBreakdownDTO{
		AccountID:    m.AccountID,
		Month:        m.Month,
		Deposits:     toKindTotalsDTO(m.Deposits),
		TransfersIn:  toKindTotalsDTO(m.TransfersIn),
		TransfersOut: toKindTotalsDTO(m.TransfersOut),
		Expenses:     toKindTotalsDTO(m.Expenses),
		TotalIncome:  m.TotalIncome,
		TotalOutflow: m.TotalOutflow,
		Net:          m.Net,
	}
}

func toSpendingAnalysisDTO(s *dto.SpendingAnalysis) SpendingAnalysisDTO {
	return SpendingAnalysisDTO{
		AccountID:         s.AccountID,
		CurrentBalance:    s.CurrentBalance,
		DaysElapsed:       s.DaysElapsed,
		DaysRemaining:     s.DaysRemaining,
		TotalSpent:        s.TotalSpent,
		ExpenseCount:      s.ExpenseCount,
		AverageDailySpend: s.AverageDailySpend,
		AveragePerExpense: s.AveragePerExpense,
		ProjectedBalance:  s.ProjectedBalance,
		SafeDailySpend:    s.SafeDailySpend,
		RiskLevel:         s.RiskLevel,
		Advice:            s.Advice,
	}
}

func toWeeklySummaryDTO(w *dto.WeeklySummary) WeeklySummaryDTO {
	days := make([]DaySpendingDTO, 0, len(w.Days))
	for _, d := range w.Days {
		days = append(days, DaySpendingDTO{Date: d.Date, Count: d.Count, Total: d.Total})
	}
	return WeeklySummaryDTO{
		AccountID:    w.AccountID,
		Days:         days,
		TotalSpent:   w.TotalSpent,
		ExpenseCount: w.ExpenseCount,
	}
}
