package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchFromEnv(t *testing.T) {
	tests := []struct {
		value    string
		expected Architecture
	}{
		{"arm", ArchARM64},
		{"", ArchX86_64},
		{"x86", ArchX86_64},
		{"arm64", ArchX86_64},
		{"ARM", ArchX86_64},
	}

	for _, tt := range tests {
		t.Run("ARCH="+tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, ArchFromEnv(tt.value))
		})
	}
}

func TestLoadStack_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{EnvArch, EnvAPIName, EnvStage, EnvCallbackURL, EnvUserPoolName, EnvTokenMinutes, EnvRefreshDays} {
		t.Setenv(k, "")
	}

	assert.Equal(t, Default(), LoadStack())
}

func TestLoadStack_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvArch, "arm")
	t.Setenv(EnvAPIName, "orders")
	t.Setenv(EnvStage, "dev")
	t.Setenv(EnvCallbackURL, "https://app.example.com/callback")
	t.Setenv(EnvTokenMinutes, "15")
	t.Setenv(EnvRefreshDays, "not-a-number")

	cfg := LoadStack()
	assert.Equal(t, ArchARM64, cfg.Arch)
	assert.Equal(t, "orders", cfg.APIName)
	assert.Equal(t, "dev", cfg.Stage)
	assert.Equal(t, "https://app.example.com/callback", cfg.CallbackURL)
	assert.Equal(t, 15, cfg.TokenValidityMinutes)
	assert.Equal(t, 30, cfg.RefreshTokenValidityDays)
}

func TestLoadStack_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ARCH=arm\nJWT_GATEWAY_API_NAME=from-dotenv\n"), 0o644))
	t.Chdir(dir)
	// godotenv does not override variables that are already set.
	for _, k := range []string{EnvArch, EnvAPIName} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg := LoadStack()
	assert.Equal(t, ArchARM64, cfg.Arch)
	assert.Equal(t, "from-dotenv", cfg.APIName)
}

func TestStack_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Stack)
		wantErr string
	}{
		{"default", func(*Stack) {}, ""},
		{"empty api name", func(s *Stack) { s.APIName = " " }, "api name is empty"},
		{"empty pool name", func(s *Stack) { s.UserPoolName = "" }, "user pool name is empty"},
		{"empty stage", func(s *Stack) { s.Stage = "" }, "stage is empty"},
		{"http callback", func(s *Stack) { s.CallbackURL = "http://example.com" }, "must be an absolute https url"},
		{"relative callback", func(s *Stack) { s.CallbackURL = "/callback" }, "must be an absolute https url"},
		{"bad arch", func(s *Stack) { s.Arch = "mips" }, `unknown architecture "mips"`},
		{"short tokens", func(s *Stack) { s.TokenValidityMinutes = 1 }, "token validity 1 minutes"},
		{"no refresh", func(s *Stack) { s.RefreshTokenValidityDays = 0 }, "refresh token validity 0 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
