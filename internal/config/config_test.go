package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "DATABASE_SCHEMA"} {
		t.Setenv(k, "")
	}
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.True(t, cfg.InMemory())
	assert.Equal(t, "public", cfg.DBSchema)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Zero(t, cfg.RateLimitRPS)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobsapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"port: \"4000\"\ndb_schema: salesforce\nlog_level: debug\ncors_origins: [\"https://a.example\"]\n"), 0o644))

	t.Setenv("DATABASE_URL", "postgres://legacy")
	t.Setenv("JOBSAPI_LOG_LEVEL", "warn")
	t.Setenv("JOBSAPI_RATE_LIMIT_RPS", "5")

	cfg, err := Load(newFlags(t, "--config", path, "--port", "5000"))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port, "flag beats file")
	assert.Equal(t, "salesforce", cfg.DBSchema, "file beats default")
	assert.Equal(t, "warn", cfg.LogLevel, "env beats file")
	assert.Equal(t, "postgres://legacy", cfg.DBURL)
	assert.False(t, cfg.InMemory())
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Equal(t, []string{"https://a.example"}, cfg.CORSOrigins)
}

func TestPrefixedEnvBeatsLegacy(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("JOBSAPI_PORT", "8082")
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "8082", cfg.Port)
}

func TestUnsetFlagsDoNotOverride(t *testing.T) {
	t.Setenv("JOBSAPI_AUTO_MIGRATE", "false")
	cfg, err := Load(newFlags(t))
	require.NoError(t, err)
	assert.False(t, cfg.AutoMigrate)
}

func TestCORSFromEnvList(t *testing.T) {
	t.Setenv("JOBSAPI_CORS_ORIGINS", "https://a.example, https://b.example")
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"format", map[string]string{"JOBSAPI_LOG_FORMAT": "xml"}},
		{"negative rps", map[string]string{"JOBSAPI_RATE_LIMIT_RPS": "-1"}},
		{"zero burst", map[string]string{"JOBSAPI_RATE_LIMIT_RPS": "1", "JOBSAPI_RATE_LIMIT_BURST": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(nil)
			assert.Error(t, err)
		})
	}
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}
