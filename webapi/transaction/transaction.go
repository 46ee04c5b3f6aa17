package transaction

import (
	"github.com/amirasaad/masroofy/pkg/commands"
	"github.com/amirasaad/masroofy/pkg/config"
	ledgerdomain "github.com/amirasaad/masroofy/pkg/domain/ledger"
	"github.com/amirasaad/masroofy/pkg/middleware"
	authsvc "github.com/amirasaad/masroofy/pkg/service/auth"
	"github.com/amirasaad/masroofy/pkg/service/ledger"
	"github.com/amirasaad/masroofy/pkg/service/wallet"
	"github.com/amirasaad/masroofy/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the ledger endpoints:
//   - GET   /transactions?type=income|expense
//   - POST  /transactions/expense
//   - GET   /transactions/:id
//   - PATCH /transactions/:id
func Routes(
	app *fiber.App,
	walletSvc *wallet.Service,
	ledgerSvc *ledger.Service,
	authSvc *authsvc.Service,
	cfg *config.App,
) {
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	app.Get("/transactions", protected, History(ledgerSvc, authSvc))
	app.Post("/transactions/expense", protected, Expense(walletSvc, authSvc))
	app.Get("/transactions/:id", protected, GetTransaction(ledgerSvc, authSvc))
	app.Patch("/transactions/:id", protected, UpdateDescription(walletSvc, ledgerSvc, authSvc))
}

// History lists the entries visible to the caller, newest first.
// @Summary Transaction history
// @Tags transactions
// @Produce json
// @Param type query string false "income or expense"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Router /transactions [get]
// @Security Bearer
func History(ledgerSvc *ledger.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := common.CurrentAccountID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		filter, err := ledgerdomain.ParseFilter(c.Query("type"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid filter", err)
		}
		items, err := ledgerSvc.History(c.Context(), actorID, filter)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load history", err)
		}
		out := make([]HistoryItemDTO, 0, len(items))
		for _, item := range items {
			out = append(out, ToHistoryItemDTO(item))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions fetched", out)
	}
}

// Expense records spending from the caller's wallet.
// @Summary Record an expense
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body ExpenseRequest true "Expense"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Router /transactions/expense [post]
// @Security Bearer
func Expense(walletSvc *wallet.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := common.CurrentAccountID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[ExpenseRequest](c)
		if input == nil {
			return err
		}
		res, err := walletSvc.Expense(c.Context(), commands.Expense{
			ActorID:     actorID,
			Amount:      input.Amount,
			Description: input.Description,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to record expense", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Expense recorded", fiber.Map{
			"balance":     res.Balance,
			"transaction": ToTransactionDTO(res.Transaction),
		})
	}
}

// GetTransaction returns one entry visible to the caller.
// @Summary Get a transaction
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /transactions/{id} [get]
// @Security Bearer
func GetTransaction(ledgerSvc *ledger.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := common.CurrentAccountID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		txID, err := common.ParseID(c, "id")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid transaction ID", err)
		}
		item, err := ledgerSvc.Get(c.Context(), actorID, txID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load transaction", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction fetched", ToHistoryItemDTO(*item))
	}
}

// UpdateDescription edits the description of an entry visible to the caller.
// @Summary Edit a transaction description
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param request body UpdateDescriptionRequest true "New description"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /transactions/{id} [patch]
// @Security Bearer
func UpdateDescription(walletSvc *wallet.Service, ledgerSvc *ledger.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := common.CurrentAccountID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		txID, err := common.ParseID(c, "id")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid transaction ID", err)
		}
		input, err := common.BindAndValidate[UpdateDescriptionRequest](c)
		if input == nil {
			return err
		}
		if _, err := walletSvc.UpdateDescription(c.Context(), commands.UpdateDescription{
			ActorID:       actorID,
			TransactionID: txID,
			Description:   input.Description,
		}); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update transaction", err)
		}
		item, err := ledgerSvc.Get(c.Context(), actorID, txID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load transaction", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction updated", ToHistoryItemDTO(*item))
	}
}
