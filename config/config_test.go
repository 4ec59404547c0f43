package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, int64(100), cfg.RateLimit.IPLimit)
	assert.True(t, cfg.Audit.Enabled)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	// every key the file sets is also registered with t.Setenv so the
	// values written by the loader are restored after the test
	t.Setenv("HTTP_PORT", "")
	t.Setenv("AUTH_SERVICE_TOKENS", "")
	os.Unsetenv("HTTP_PORT")
	os.Unsetenv("AUTH_SERVICE_TOKENS")
	t.Setenv("DATABASE_HOST", "env-db")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 9090
database:
  host: yaml-db
auth:
  service-tokens:
    - gateway
    - billing
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, "env-db", cfg.Database.Host, "environment wins over the file")
	assert.Equal(t, []string{"gateway", "billing"}, cfg.Auth.ServiceTokens)
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "auth", Password: "p@ss", Database: "authhub", SSLMode: "disable"}
	assert.Equal(t, "postgres://auth:p%40ss@db:5432/authhub?sslmode=disable", c.GetDSN())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"api without key", Config{Mode: types.APIMode}, true},
		{"api short secret", Config{Mode: types.APIMode, Auth: AuthConfig{JWTSecret: "short"}}, true},
		{"api with secret", Config{Mode: types.APIMode, Auth: AuthConfig{JWTSecret: "0123456789abcdef0123456789abcdef"}}, false},
		{"api with rsa key", Config{Mode: types.APIMode, Auth: AuthConfig{RSAPrivateKeyPath: "/keys/jwt.pem"}}, false},
		{"worker needs no key", Config{Mode: types.WorkerMode}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, 1024, tt.cfg.Audit.BufferSize)
			assert.Equal(t, time.Hour, tt.cfg.Auth.BlacklistCleanupInterval)
		})
	}
}
