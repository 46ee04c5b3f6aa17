// Package app assembles the services on top of initialized dependencies.
package app

import (
	"errors"
	"io"
	"log/slog"

	"github.com/amirasaad/masroofy/pkg/cache"
	"github.com/amirasaad/masroofy/pkg/config"
	"github.com/amirasaad/masroofy/pkg/eventbus"
	"github.com/amirasaad/masroofy/pkg/handler"
	"github.com/amirasaad/masroofy/pkg/repository"
	"github.com/amirasaad/masroofy/pkg/service/auth"
	"github.com/amirasaad/masroofy/pkg/service/directory"
	"github.com/amirasaad/masroofy/pkg/service/ledger"
	"github.com/amirasaad/masroofy/pkg/service/wallet"
)

// Deps holds the infrastructure the services are built on. Cache and DB may
// be nil.
type Deps struct {
	Uow      repository.UnitOfWork
	EventBus eventbus.Bus
	Cache    cache.Cache
	DB       io.Closer
	Logger   *slog.Logger
}

// Close releases the bus, the cache and the database pool. The pool goes
// last so handlers still draining the bus can finish their writes.
func (d *Deps) Close() error {
	var errs []error
	for _, c := range []any{d.EventBus, d.Cache, d.DB} {
		if closer, ok := c.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}

type App struct {
	Deps             *Deps
	Config           *config.App
	AuthService      *auth.Service
	DirectoryService *directory.Service
	WalletService    *wallet.Service
	LedgerService    *ledger.Service
	Names            *ledger.NameResolver
}

// New builds the services and registers the event handlers on the bus.
func New(deps *Deps, cfg *config.App) *App {
	app := &App{
		Deps:   deps,
		Config: cfg,
	}

	ttl := ledger.DefaultNameTTL
	if cfg.Cache != nil {
		ttl = cfg.Cache.TTL
	}
	app.Names = ledger.NewNameResolver(deps.Cache, ttl, deps.Logger)

	authMap := map[string]func() *auth.Service{
		"jwt": func() *auth.Service {
			return auth.NewWithJWT(deps.Uow, cfg.Auth.Jwt, deps.Logger)
		},
	}
	if authFactory, ok := authMap[authStrategy(cfg)]; ok {
		app.AuthService = authFactory()
	} else {
		app.AuthService = auth.NewWithBasic(deps.Uow, deps.Logger)
	}

	app.DirectoryService = directory.New(deps.Uow, deps.EventBus, deps.Logger)
	app.WalletService = wallet.New(deps.Uow, deps.EventBus, deps.Logger)
	app.LedgerService = ledger.New(deps.Uow, app.Names, cfg.Ledger, cfg.Budget, deps.Logger)

	if deps.EventBus != nil {
		handler.Register(deps.EventBus, app.Names, deps.Logger)
	}
	return app
}

func authStrategy(cfg *config.App) string {
	if cfg.Auth == nil {
		return "basic"
	}
	return cfg.Auth.Strategy
}
