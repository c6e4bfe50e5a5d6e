package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, 8, cfg.JWTExpirationHours)
	assert.Equal(t, 30, cfg.ResetTokenMinutes)
	assert.Equal(t, "SOSStock", cfg.CompanyName)
}
