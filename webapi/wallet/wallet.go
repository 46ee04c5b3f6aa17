package wallet

import (
	"github.com/amirasaad/masroofy/pkg/commands"
	"github.com/amirasaad/masroofy/pkg/config"
	"github.com/amirasaad/masroofy/pkg/middleware"
	authsvc "github.com/amirasaad/masroofy/pkg/service/auth"
	"github.com/amirasaad/masroofy/pkg/service/directory"
	walletsvc "github.com/amirasaad/masroofy/pkg/service/wallet"
	"github.com/amirasaad/masroofy/webapi/common"
	"github.com/amirasaad/masroofy/webapi/transaction"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Routes registers the wallet endpoints. All of them require a JWT.
func Routes(
	app *fiber.App,
	walletSvc *walletsvc.Service,
	dirSvc *directory.Service,
	authSvc *authsvc.Service,
	cfg *config.App,
) {
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	app.Get("/wallet/balance", protected, Balance(dirSvc, authSvc))
	app.Post("/wallet/deposit", protected, Deposit(walletSvc, authSvc))
	app.Post("/wallet/transfer", protected, Transfer(walletSvc, authSvc))
}

// Balance returns the caller's balance.
// @Summary Wallet balance
// @Tags wallet
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /wallet/balance [get]
// @Security Bearer
func Balance(dirSvc *directory.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := common.CurrentAccountID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		balance, err := dirSvc.Balance(c.Context(), actorID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to fetch balance", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance fetched",
			BalanceDTO{AccountID: actorID, Balance: balance})
	}
}

// Deposit tops up the guardian's wallet.
// @Summary Deposit
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body DepositRequest true "Deposit"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Router /wallet/deposit [post]
// @Security Bearer
func Deposit(walletSvc *walletsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := common.CurrentAccountID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[DepositRequest](c)
		if input == nil {
			return err
		}
		res, err := walletSvc.Deposit(c.Context(), commands.Deposit{ActorID: actorID, Amount: input.Amount})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to deposit", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Deposit successful", fiber.Map{
			"balance":     res.Balance,
			"transaction": transaction.ToTransactionDTO(res.Transaction),
		})
	}
}

// Transfer moves allowance to one of the guardian's dependents.
// @Summary Transfer allowance
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body TransferRequest true "Transfer"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Router /wallet/transfer [post]
// @Security Bearer
func Transfer(walletSvc *walletsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := common.CurrentAccountID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[TransferRequest](c)
		if input == nil {
			return err
		}
		dependentID, err := uuid.Parse(input.DependentID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid dependent ID", err, "dependent_id must be a valid UUID", fiber.StatusBadRequest)
		}
		res, err := walletSvc.Transfer(c.Context(), commands.Transfer{
			ActorID:     actorID,
			DependentID: dependentID,
			Amount:      input.Amount,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to transfer", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transfer successful", fiber.Map{
			"guardian_balance":  res.GuardianBalance,
			"dependent_balance": res.DependentBalance,
			"transaction":       transaction.ToTransactionDTO(res.Transaction),
		})
	}
}
