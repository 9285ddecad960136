package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "GIN_MODE", "APP_ENV", "DATABASE_URL", "DATA_PATH", "JWT_SECRET",
		"API_MASTER_SECRET", "ADMIN_USERNAME", "ADMIN_PASSWORD", "ADMIN_ORG_ID", "TIMEZONE",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "workforce.db", cfg.DataPath)
	assert.Equal(t, devSecret, cfg.JWTSecret)
	assert.Equal(t, devKeySecret, cfg.APIMasterSecret)
	assert.Equal(t, []string{"JWT_SECRET", "API_MASTER_SECRET"}, cfg.DevSecrets())
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, "default", cfg.AdminOrgID)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestFromEnv_Timezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEZONE", "Europe/Berlin")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}},
		{"bad port", map[string]string{"PORT": "eighty"}},
		{"bad env", map[string]string{"APP_ENV": "staging"}},
		{"production without secrets", map[string]string{"APP_ENV": "production"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_Production(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("API_MASTER_SECRET", "m")
	t.Setenv("ADMIN_PASSWORD", "p")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "m", cfg.APIMasterSecret)
	assert.Empty(t, cfg.DevSecrets())
}

func TestFromEnv_KeySecretSet(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_MASTER_SECRET", "m")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "m", cfg.APIMasterSecret)
	assert.Equal(t, []string{"JWT_SECRET"}, cfg.DevSecrets())
}
