package main

import (
	"fmt"
	"log/slog"

	_ "github.com/amirasaad/masroofy/docs"
	"github.com/amirasaad/masroofy/infra/initializer"
	"github.com/amirasaad/masroofy/pkg/app"
	"github.com/amirasaad/masroofy/pkg/config"
	"github.com/amirasaad/masroofy/webapi"
	log "github.com/charmbracelet/log"
)

// @title Masroofy API
// @version 1.0.0
// @description Family allowance wallets: guardians fund dependents, dependents record expenses.
// @host localhost:3000
// @BasePath /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description "Enter your Bearer token in the format: `Bearer {token}`"
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if cerr := deps.Close(); cerr != nil {
			slog.Warn("closing dependencies", "error", cerr)
		}
	}()

	fiberApp := webapi.SetupApp(app.New(deps, cfg))

	addr := listenAddr(cfg.Server)
	deps.Logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
	)
	return fiberApp.Listen(addr)
}

func listenAddr(s *config.Server) string {
	if s == nil {
		return "localhost:3000"
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
