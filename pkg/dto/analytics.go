// Package dto holds read models returned by the query services.
package dto

import (
	"time"

	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/google/uuid"
)

// Budget status colours.
const (
	BudgetGreen  = "green"
	BudgetOrange = "orange"
	BudgetRed    = "red"
)

// Spending risk levels.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// BudgetStatus summarises this month's allowance for one account.
// Spent is TotalBudget minus the current balance and can be negative when
// the account carried money over from earlier months.
type BudgetStatus struct {
	AccountID   uuid.UUID
	TotalBudget money.Amount
	Spent       money.Amount
	Remaining   money.Amount
	Percentage  float64 // two decimals, 0 when TotalBudget is 0
	Status      string
	PeriodStart time.Time
	PeriodEnd   time.Time // exclusive
}

// DailyForecast spreads the current balance over the rest of the month.
type DailyForecast struct {
	AccountID      uuid.UUID
	CurrentBalance money.Amount
	DaysRemaining  int
	SafeDailySpend money.Amount
}

// KindTotals counts and sums one group of entries.
type KindTotals struct {
	Count int64
	Total money.Amount
}

// MonthlyBreakdown groups this month's entries of an account.
type MonthlyBreakdown struct {
	AccountID    uuid.UUID
	Month        string // YYYY-MM
	Deposits     KindTotals
	TransfersIn  KindTotals
	TransfersOut KindTotals
	Expenses     KindTotals
	TotalIncome  money.Amount
	TotalOutflow money.Amount
	Net          money.Amount // may be negative
}

// SpendingAnalysis projects this month's spending to its end.
type SpendingAnalysis struct {
	AccountID         uuid.UUID
	CurrentBalance    money.Amount
	DaysElapsed       int
	DaysRemaining     int
	TotalSpent        money.Amount
	ExpenseCount      int64
	AverageDailySpend money.Amount
	AveragePerExpense money.Amount
	ProjectedBalance  money.Amount // may be negative
	SafeDailySpend    money.Amount
	RiskLevel         string
	Advice            string
}

// DaySpending is the expense total of one calendar day.
type DaySpending struct {
	Date  string // YYYY-MM-DD
	Count int64
	Total money.Amount
}

// WeeklySummary lists the last seven days of expenses, oldest first.
type WeeklySummary struct {
	AccountID    uuid.UUID
	Days         []DaySpending
	TotalSpent   money.Amount
	ExpenseCount int64
}
