package auth

import (
	"github.com/amirasaad/masroofy/pkg/commands"
	"github.com/amirasaad/masroofy/pkg/config"
	"github.com/amirasaad/masroofy/pkg/middleware"
	authsvc "github.com/amirasaad/masroofy/pkg/service/auth"
	"github.com/amirasaad/masroofy/pkg/service/directory"
	"github.com/amirasaad/masroofy/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the authentication endpoints. Only the profile needs a JWT.
func Routes(app *fiber.App, authSvc *authsvc.Service, dirSvc *directory.Service, cfg *config.App) {
	app.Post("/auth/register", Register(authSvc, dirSvc))
	app.Post("/auth/login", Login(authSvc))
	app.Get("/auth/profile", middleware.JwtProtected(cfg.Auth.Jwt), Profile(authSvc, dirSvc))
}

// Register signs up a guardian and returns a token.
// @Summary Register a guardian
// @Description Creates a guardian account with a unique username and e-mail and returns a JWT.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterInput true "Guardian details"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Failure 503 {object} common.ProblemDetails
// @Router /auth/register [post]
func Register(authSvc *authsvc.Service, dirSvc *directory.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[RegisterInput](c)
		if input == nil {
			return err
		}
		g, err := dirSvc.RegisterGuardian(c.Context(), commands.RegisterGuardian{
			Username: input.Username,
			Email:    input.Email,
			Password: input.Password,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Registration failed", err)
		}
		token, err := authSvc.GenerateToken(c.Context(), g)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Guardian registered",
			TokenDTO{Token: token, Account: ToAccountDTO(g)})
	}
}

// Login handles user authentication and returns a JWT token.
// @Summary Login
// @Description Authenticate with identity (username or e-mail) and password.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginInput true "Login credentials"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Router /auth/login [post]
func Login(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[LoginInput](c)
		if input == nil {
			return err
		}
		a, err := authSvc.Login(c.Context(), input.Identity, input.Password)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid identity or password", err)
		}
		token, err := authSvc.GenerateToken(c.Context(), a)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Success login",
			TokenDTO{Token: token, Account: ToAccountDTO(a)})
	}
}

// Profile returns the caller's account. Guardians also get their dependents
// with balances.
// @Summary Profile
// @Tags auth
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /auth/profile [get]
// @Security Bearer
func Profile(authSvc *authsvc.Service, dirSvc *directory.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := common.CurrentAccountID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		a, err := dirSvc.GetAccount(c.Context(), actorID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to fetch profile", err)
		}
		profile := ProfileDTO{AccountDTO: ToAccountDTO(a), Balance: a.Balance}
		if a.IsGuardian() {
			deps, err := dirSvc.ListDependents(c.Context(), a.ID)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Failed to fetch profile", err)
			}
			profile.Dependents = make([]DependentSummaryDTO, 0, len(deps))
			for _, d := range deps {
				profile.Dependents = append(profile.Dependents,
					DependentSummaryDTO{ID: d.ID, Username: d.Username, Balance: d.Balance})
			}
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Profile fetched", profile)
	}
}
