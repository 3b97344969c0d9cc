package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "http://localhost:3000", cfg.BackendBaseURL)
	assert.Equal(t, ProviderMemory, cfg.IdentityProvider)
	assert.False(t, cfg.BlockSignUpOnMismatch)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef")
	t.Setenv("APP_ADDR", "127.0.0.1:9000")
	t.Setenv("BACKEND_BASE_URL", "http://api.internal:3000")
	t.Setenv("SIGNUP_BLOCK_ON_MISMATCH", "true")
	t.Setenv("MEMORY_INIT_DELAY", "250ms")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "http://api.internal:3000", cfg.BackendBaseURL)
	assert.True(t, cfg.BlockSignUpOnMismatch)
	assert.Equal(t, 250*time.Millisecond, cfg.MemoryInitDelay)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing session secret", map[string]string{}},
		{"short session secret", map[string]string{"SESSION_SECRET": "short"}},
		{"unknown provider", map[string]string{"SESSION_SECRET": "0123456789abcdef", "IDENTITY_PROVIDER": "ldap"}},
		{"firebase without key", map[string]string{"SESSION_SECRET": "0123456789abcdef", "IDENTITY_PROVIDER": "firebase"}},
		{"bad backend url", map[string]string{"SESSION_SECRET": "0123456789abcdef", "BACKEND_BASE_URL": "not a url"}},
		{"bad log format", map[string]string{"SESSION_SECRET": "0123456789abcdef", "LOG_FORMAT": "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SESSION_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestFromEnv_FirebaseWithKey(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef")
	t.Setenv("IDENTITY_PROVIDER", "firebase")
	t.Setenv("FIREBASE_API_KEY", "key")
	t.Setenv("FIREBASE_AUTH_EMULATOR_HOST", "127.0.0.1:9099")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ProviderFirebase, cfg.IdentityProvider)
}
