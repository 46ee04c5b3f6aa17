package dependent

import (
	"github.com/amirasaad/masroofy/pkg/commands"
	"github.com/amirasaad/masroofy/pkg/config"
	"github.com/amirasaad/masroofy/pkg/middleware"
	authsvc "github.com/amirasaad/masroofy/pkg/service/auth"
	"github.com/amirasaad/masroofy/pkg/service/directory"
	"github.com/amirasaad/masroofy/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the dependent management endpoints for guardians.
func Routes(app *fiber.App, dirSvc *directory.Service, authSvc *authsvc.Service, cfg *config.App) {
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	app.Get("/dependents", protected, List(dirSvc, authSvc))
	app.Post("/dependents", protected, Create(dirSvc, authSvc))
	app.Get("/dependents/:id", protected, Get(dirSvc, authSvc))
	app.Patch("/dependents/:id", protected, Update(dirSvc, authSvc))
	app.Delete("/dependents/:id", protected, Delete(dirSvc, authSvc))
}

// List returns the caller's dependents.
// @Summary List dependents
// @Tags dependents
// @Produce json
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Router /dependents [get]
// @Security Bearer
func List(dirSvc *directory.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := common.CurrentAccountID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		deps, err := dirSvc.ListDependents(c.Context(), actorID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list dependents", err)
		}
		out := make([]DependentDTO, 0, len(deps))
		for _, d := range deps {
			out = append(out, ToDependentDTO(d))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Dependents fetched", out)
	}
}

// Create adds a dependent with a zero balance.
// @Summary Create a dependent
// @Tags dependents
// @Accept json
// @Produce json
// @Param request body CreateDependentRequest true "Dependent"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /dependents [post]
// @Security Bearer
func Create(dirSvc *directory.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := common.CurrentAccountID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[CreateDependentRequest](c)
		if input == nil {
			return err
		}
		d, err := dirSvc.CreateDependent(c.Context(), commands.CreateDependent{
			ActorID:  actorID,
			Username: input.Username,
			Password: input.Password,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create dependent", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Dependent created", ToDependentDTO(d))
	}
}

// Get returns one of the caller's dependents.
// @Summary Get a dependent
// @Tags dependents
// @Produce json
// @Param id path string true "Dependent ID"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /dependents/{id} [get]
// @Security Bearer
func Get(dirSvc *directory.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := common.CurrentAccountID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid dependent ID", err)
		}
		d, err := dirSvc.GetDependent(c.Context(), actorID, id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to fetch dependent", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Dependent fetched", ToDependentDTO(d))
	}
}

// Update renames a dependent and/or resets its password.
// @Summary Update a dependent
// @Tags dependents
// @Accept json
// @Produce json
// @Param id path string true "Dependent ID"
// @Param request body UpdateDependentRequest true "Changes"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /dependents/{id} [patch]
// @Security Bearer
func Update(dirSvc *directory.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := common.CurrentAccountID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid dependent ID", err)
		}
		input, err := common.BindAndValidate[UpdateDependentRequest](c)
		if input == nil {
			return err
		}
		d, err := dirSvc.UpdateDependent(c.Context(), commands.UpdateDependent{
			ActorID:     actorID,
			DependentID: id,
			Username:    input.Username,
			Password:    input.Password,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update dependent", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Dependent updated", ToDependentDTO(d))
	}
}

// Delete removes a dependent. Its history is kept.
// @Summary Delete a dependent
// @Tags dependents
// @Param id path string true "Dependent ID"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /dependents/{id} [delete]
// @Security Bearer
func Delete(dirSvc *directory.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, err := common.CurrentAccountID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid dependent ID", err)
		}
		if err := dirSvc.DeleteDependent(c.Context(), actorID, id); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to delete dependent", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Dependent deleted", nil)
	}
}
