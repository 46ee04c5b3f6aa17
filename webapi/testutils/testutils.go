// Package testutils builds a fully wired fiber app over in-memory SQLite
// for transport tests.
package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/masroofy/infra/eventbus"
	"github.com/amirasaad/masroofy/internal/fixtures"
	"github.com/amirasaad/masroofy/pkg/app"
	"github.com/amirasaad/masroofy/pkg/config"
	"github.com/amirasaad/masroofy/pkg/domain/account"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/amirasaad/masroofy/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// TestSecret signs the tokens of the test app.
const TestSecret = "test-secret-key"

// Env is a running test app and its store.
type Env struct {
	App   *fiber.App
	Store *fixtures.Store
	Bus   *eventbus.MemoryEventBus
	Deps  *app.App
}

// Config returns the configuration used by New.
func Config() *config.App {
	return &config.App{
		Env:       "test",
		Auth:      &config.Auth{Strategy: "jwt", Jwt: &config.Jwt{Secret: TestSecret, Expiry: time.Hour}},
		Cache:     &config.Cache{Backend: "none", TTL: time.Minute},
		RateLimit: &config.RateLimit{},
		Ledger:    &config.Ledger{HistoryLimit: 100, Timezone: "UTC"},
		Budget:    &config.Budget{WarnPercent: 50, AlertPercent: 80},
	}
}

// New builds the app with cfg, or Config() when cfg is nil.
func New(t *testing.T, cfg *config.App) *Env {
	t.Helper()
	if cfg == nil {
		cfg = Config()
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := fixtures.NewStore(t)
	bus := eventbus.NewWithMemory(logger)
	a := app.New(&app.Deps{Uow: store.UoW, EventBus: bus, Logger: logger}, cfg)
	return &Env{App: webapi.SetupApp(a), Store: store, Bus: bus, Deps: a}
}

// Request performs an in-process request. body is JSON encoded when not nil.
func (e *Env) Request(t *testing.T, method, path string, body any, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			reader = bytes.NewBufferString(s)
		} else {
			raw, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// Decode reads a JSON body into a generic map.
func Decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// Data returns the "data" object of a success envelope.
func Data(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	body := Decode(t, resp)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", body)
	return data
}

// Token logs in with the default fixture password and returns the JWT.
func (e *Env) Token(t *testing.T, username string) string {
	t.Helper()
	resp := e.Request(t, http.MethodPost, "/auth/login", map[string]string{
		"identity": username,
		"password": fixtures.DefaultPassword,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, ok := Data(t, resp)["token"].(string)
	require.True(t, ok)
	return token
}

// Family seeds a guardian with balance and one dependent with zero balance.
func (e *Env) Family(t *testing.T, guardian, dependent string, balance money.Amount) (*account.Account, *account.Account) {
	t.Helper()
	g := e.Store.SeedGuardian(t, guardian, balance)
	d := e.Store.SeedDependent(t, g.ID, dependent, 0)
	return g, d
}
