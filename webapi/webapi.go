// Package webapi wires the HTTP transport. Routes live in sub-packages:
//   - auth: registration and login
//   - wallet: balance, deposit and transfer
//   - transaction: history, expenses and description edits
//   - analytics: budget, forecast and spending reports
//   - dependent: dependent management for guardians
package webapi

import (
	"errors"
	"strings"

	"github.com/amirasaad/masroofy/pkg/app"
	"github.com/amirasaad/masroofy/webapi/analytics"
	authweb "github.com/amirasaad/masroofy/webapi/auth"
	"github.com/amirasaad/masroofy/webapi/common"
	"github.com/amirasaad/masroofy/webapi/dependent"
	"github.com/amirasaad/masroofy/webapi/transaction"
	"github.com/amirasaad/masroofy/webapi/wallet"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

// SetupApp builds the fiber app with middleware and every route.
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		AppName: "Masroofy",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})
	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled:      true,
		PersistAuthorization: true,
	}))

	if a.Config.RateLimit != nil && a.Config.RateLimit.MaxRequests > 0 {
		fiberApp.Use(limiter.New(limiter.Config{
			Max:          a.Config.RateLimit.MaxRequests,
			Expiration:   a.Config.RateLimit.Window,
			KeyGenerator: clientIP,
			LimitReached: func(c *fiber.Ctx) error {
				return common.ProblemDetailsJSON(
					c,
					"Too Many Requests",
					errors.New("rate limit exceeded"),
					"Rate limit exceeded",
					fiber.StatusTooManyRequests,
				)
			},
		}))
	}
	fiberApp.Use(recover.New())
	fiberApp.Use(cors.New())
	if a.Config.Env != "test" {
		fiberApp.Use(logger.New())
	}

	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Masroofy API is running")
	})

	authweb.Routes(fiberApp, a.AuthService, a.DirectoryService, a.Config)
	wallet.Routes(fiberApp, a.WalletService, a.DirectoryService, a.AuthService, a.Config)
	transaction.Routes(fiberApp, a.WalletService, a.LedgerService, a.AuthService, a.Config)
	analytics.Routes(fiberApp, a.LedgerService, a.DirectoryService, a.AuthService, a.Config)
	dependent.Routes(fiberApp, a.DirectoryService, a.AuthService, a.Config)
	return fiberApp
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP.
func clientIP(c *fiber.Ctx) string {
	if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
		if i := strings.Index(forwardedFor, ","); i != -1 {
			return strings.TrimSpace(forwardedFor[:i])
		}
		return strings.TrimSpace(forwardedFor)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}
