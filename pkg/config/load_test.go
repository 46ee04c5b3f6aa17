package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "super-secret-value")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "jwt", cfg.Auth.Strategy)
	assert.Equal(t, 24*time.Hour, cfg.Auth.Jwt.Expiry)
	assert.Equal(t, 100, cfg.Ledger.HistoryLimit)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "memory", cfg.EventBus.Backend)
	assert.Equal(t, "masroofy.events", cfg.EventBus.Kafka.Topic)
	assert.InDelta(t, 80.0, cfg.Budget.AlertPercent, 0)
}

func TestLoad_RequiresJwtSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "placeholder")
	require.NoError(t, os.Unsetenv("AUTH_JWT_SECRET"))
	_, err := Load("does-not-exist.env")
	assert.Error(t, err)
}

func TestLoad_FromEnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env.cfgtest")
	content := "AUTH_JWT_SECRET=from-file-secret\nLEDGER_HISTORY_LIMIT=25\nLEDGER_TIMEZONE=Africa/Cairo\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	t.Chdir(dir)
	t.Cleanup(func() {
		os.Unsetenv("AUTH_JWT_SECRET")      //nolint:errcheck
		os.Unsetenv("LEDGER_HISTORY_LIMIT") //nolint:errcheck
		os.Unsetenv("LEDGER_TIMEZONE")      //nolint:errcheck
	})

	cfg, err := Load(".env.cfgtest")
	require.NoError(t, err)
	assert.Equal(t, "from-file-secret", cfg.Auth.Jwt.Secret)
	assert.Equal(t, 25, cfg.Ledger.HistoryLimit)
	assert.Equal(t, "Africa/Cairo", cfg.Ledger.Location().String())
}

func TestLedgerLocation_Fallback(t *testing.T) {
	assert.Equal(t, time.Local, (&Ledger{Timezone: "Nowhere/Invalid"}).Location())
	assert.Equal(t, time.Local, (*Ledger)(nil).Location())
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "****", maskValue("abc"))
	assert.Equal(t, "po****able", maskValue("postgres://u:p@h/db?sslmode=disable"))
}

func TestFindEnvFile_SearchesParents(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env.walk"), []byte("X=1\n"), 0o600))
	t.Chdir(nested)

	found, err := FindEnvFile(".env.walk")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".env.walk"), found)

	_, err = FindEnvFile(".env.missing-everywhere")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
