package analytics

import (
	"context"

	"github.com/amirasaad/masroofy/pkg/config"
	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/amirasaad/masroofy/pkg/middleware"
	authsvc "github.com/amirasaad/masroofy/pkg/service/auth"
	"github.com/amirasaad/masroofy/pkg/service/directory"
	"github.com/amirasaad/masroofy/pkg/service/ledger"
	"github.com/amirasaad/masroofy/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Routes registers the analytics endpoints. Each accepts an optional
// accountId query parameter naming one of the caller's dependents.
func Routes(
	app *fiber.App,
	ledgerSvc *ledger.Service,
	dirSvc *directory.Service,
	authSvc *authsvc.Service,
	cfg *config.App,
) {
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	app.Get("/analytics/budget", protected, Budget(ledgerSvc, authSvc))
	app.Get("/analytics/forecast", protected, report(ledgerSvc.DailyForecast, toDailyForecastDTO, "Forecast fetched", dirSvc, authSvc))
	app.Get("/analytics/monthly-breakdown", protected, report(ledgerSvc.MonthlyBreakdown, toMonthlyBreakdownDTO, "Monthly breakdown fetched", dirSvc, authSvc))
	app.Get("/analytics/spending-analysis", protected, report(ledgerSvc.SpendingAnalysis, toSpendingAnalysisDTO, "Spending analysis fetched", dirSvc, authSvc))
	app.Get("/analytics/weekly-summary", protected, report(ledgerSvc.WeeklySummary, toWeeklySummaryDTO, "Weekly summary fetched", dirSvc, authSvc))
}

// Budget reports this month's allowance usage.
// @Summary Budget status
// @Tags analytics
// @Produce json
// @Param accountId query string false "Dependent account ID"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /analytics/budget [get]
// @Security Bearer
func Budget(ledgerSvc *ledger.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := common.CurrentAccountID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		accountID, err := targetAccount(c, actorID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid account ID", err)
		}
		status, err := ledgerSvc.BudgetStatus(c.Context(), actorID, accountID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to compute budget", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Budget fetched", toBudgetStatusDTO(status))
	}
}

// report serves the per-account reports (forecast, monthly-breakdown,
// spending-analysis, weekly-summary) after checking the caller may view
// the account.
// @Summary Per-account reports
// @Tags analytics
// @Produce json
// @Param accountId query string false "Dependent account ID"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Router /analytics/forecast [get]
// @Router /analytics/monthly-breakdown [get]
// @Router /analytics/spending-analysis [get]
// @Router /analytics/weekly-summary [get]
// @Security Bearer
func report[T, D any](
	load func(context.Context, uuid.UUID) (*T, error),
	render func(*T) D,
	message string,
	dirSvc *directory.Service,
	authSvc *authsvc.Service,
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := common.CurrentAccountID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		accountID, err := targetAccount(c, actorID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid account ID", err)
		}
		if accountID != actorID {
			if _, err := dirSvc.GetDependent(c.Context(), actorID, accountID); err != nil {
				return common.ProblemDetailsJSON(c, "Access denied", err)
			}
		}
		out, err := load(c.Context(), accountID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to compute report", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, message, render(out))
	}
}

func targetAccount(c *fiber.Ctx, actorID uuid.UUID) (uuid.UUID, error) {
	raw := c.Query("accountId")
	if raw == "" {
		return actorID, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.Errorf(domain.ErrInvalidInput, "accountId must be a valid UUID")
	}
	return id, nil
}
