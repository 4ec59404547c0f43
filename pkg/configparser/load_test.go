package configparser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
database:
  host: db.internal
  port: 5432
auth:
  access-token-ttl: 15m
  service-tokens:
    - gateway
    - billing
redis:
  password: ${AUTHHUB_TEST_REDIS_PASS:-fallback}
`

func TestFlatten(t *testing.T) {
	vars, err := Flatten([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", vars["DATABASE_HOST"])
	assert.Equal(t, "5432", vars["DATABASE_PORT"])
	assert.Equal(t, "15m", vars["AUTH_ACCESS_TOKEN_TTL"])
	assert.Equal(t, "gateway,billing", vars["AUTH_SERVICE_TOKENS"])
	assert.Equal(t, "fallback", vars["REDIS_PASSWORD"])
}

func TestFlatten_Substitution(t *testing.T) {
	t.Setenv("AUTHHUB_TEST_REDIS_PASS", "from-env")

	vars, err := Flatten([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "from-env", vars["REDIS_PASSWORD"])
}

func TestLoadAndParse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("testcfg:\n  host: from-file\n  ttl: 2m\n  port: 1\n"), 0o600))

	t.Setenv("TESTCFG_PORT", "9000")
	t.Cleanup(func() {
		os.Unsetenv("TESTCFG_HOST")
		os.Unsetenv("TESTCFG_TTL")
	})

	var cfg struct {
		Host string        `env:"TESTCFG_HOST"`
		TTL  time.Duration `env:"TESTCFG_TTL"`
		Port int           `env:"TESTCFG_PORT"`
		Mode string        `env:"TESTCFG_MODE" envDefault:"api"`
	}
	require.NoError(t, LoadAndParse(path, &cfg))

	assert.Equal(t, "from-file", cfg.Host)
	assert.Equal(t, 2*time.Minute, cfg.TTL)
	assert.Equal(t, 9000, cfg.Port, "environment wins over the file")
	assert.Equal(t, "api", cfg.Mode)
}

func TestLoadAndParse_MissingFile(t *testing.T) {
	var cfg struct {
		Mode string `env:"TESTCFG_MISSING_MODE" envDefault:"worker"`
	}
	require.NoError(t, LoadAndParse(filepath.Join(t.TempDir(), "nope.yaml"), &cfg))
	assert.Equal(t, "worker", cfg.Mode)
}

func TestLoadYamlFile_NoPath(t *testing.T) {
	assert.ErrorIs(t, LoadYamlFile(""), ErrNoFilePath)
}
