package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionLifetime)
	assert.Equal(t, 5*time.Minute, cfg.Auth.TwoFactorTTL)
	assert.Equal(t, 6, cfg.Auth.TwoFactorDigits)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Empty(t, cfg.Ledger.OverdraftKinds)
	assert.Equal(t, "./uploads", cfg.Storage.UploadsPath)
	assert.Equal(t, int64(5<<20), cfg.Storage.MaxFileSize)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	content := "LEDGER_OVERDRAFT_KINDS=bancaria,efectivo\nAUTH_SESSION_LIFETIME=30m\nAPP_ENV=production\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte(content), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"LEDGER_OVERDRAFT_KINDS", "AUTH_SESSION_LIFETIME", "APP_ENV"} {
			_ = os.Unsetenv(k)
		}
	})

	cfg, err := Load(".env.missing", ".env.test")
	require.NoError(t, err)
	assert.Equal(t, []string{"bancaria", "efectivo"}, cfg.Ledger.OverdraftKinds)
	assert.Equal(t, 30*time.Minute, cfg.Auth.SessionLifetime)
	assert.True(t, cfg.IsProduction())
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "****", maskValue("short"))
	assert.Equal(t, "po****able", maskValue("postgres://u:p@h/db?sslmode=disable"))
}

func TestFindEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), nil, 0o600))
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	found, err := FindEnvFile("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".env"), found)

	_, err = FindEnvFile(".env.does-not-exist-anywhere")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
