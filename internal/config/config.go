// Package config loads stack settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Architecture of the authorizer container.
type Architecture string

const (
	ArchX86_64 Architecture = "x86_64"
	ArchARM64  Architecture = "arm64"
)

// Environment variable names.
const (
	EnvArch         = "ARCH"
	EnvAPIName      = "JWT_GATEWAY_API_NAME"
	EnvStage        = "JWT_GATEWAY_STAGE"
	EnvCallbackURL  = "JWT_GATEWAY_CALLBACK_URL"
	EnvUserPoolName = "JWT_GATEWAY_USER_POOL_NAME"
	EnvTokenMinutes = "JWT_GATEWAY_TOKEN_MINUTES"
	EnvRefreshDays  = "JWT_GATEWAY_REFRESH_DAYS"
)

// Stack holds the settings the stack constructor reads.
type Stack struct {
	// Arch selects the authorizer architecture.
	Arch Architecture
	// APIName is the RestApi name.
	APIName string
	// UserPoolName is the Cognito user pool name.
	UserPoolName string
	// Stage is the deployment stage of the API.
	Stage string
	// CallbackURL is the OAuth callback of the app client.
	CallbackURL string
	// TokenValidityMinutes applies to both access and id tokens.
	TokenValidityMinutes int
	// RefreshTokenValidityDays is the refresh token lifetime.
	RefreshTokenValidityDays int
}

// Default returns the settings used when nothing is configured.
func Default() Stack {
	return Stack{
		Arch:                     ArchX86_64,
		APIName:                  "jwt-gateway",
		UserPoolName:             "jwt-gateway-users",
		Stage:                    "prod",
		CallbackURL:              "https://example.com",
		TokenValidityMinutes:     60,
		RefreshTokenValidityDays: 30,
	}
}

// LoadStack loads an optional .env file and reads the stack settings from
// the environment, falling back to Default.
func LoadStack() Stack {
	_ = godotenv.Load()
	def := Default()
	return Stack{
		Arch:                     ArchFromEnv(os.Getenv(EnvArch)),
		APIName:                  env(EnvAPIName, def.APIName),
		UserPoolName:             env(EnvUserPoolName, def.UserPoolName),
		Stage:                    env(EnvStage, def.Stage),
		CallbackURL:              env(EnvCallbackURL, def.CallbackURL),
		TokenValidityMinutes:     envInt(EnvTokenMinutes, def.TokenValidityMinutes),
		RefreshTokenValidityDays: envInt(EnvRefreshDays, def.RefreshTokenValidityDays),
	}
}

// ArchFromEnv maps the ARCH value to an architecture: exactly "arm" selects
// arm64, anything else (including unset) selects x86_64.
func ArchFromEnv(v string) Architecture {
	if v == "arm" {
		return ArchARM64
	}
	return ArchX86_64
}

// Validate reports every invalid setting.
func (s Stack) Validate() error {
	var problems []string
	if s.Arch != ArchX86_64 && s.Arch != ArchARM64 {
		problems = append(problems, fmt.Sprintf("unknown architecture %q", s.Arch))
	}
	if strings.TrimSpace(s.APIName) == "" {
		problems = append(problems, "api name is empty")
	}
	if strings.TrimSpace(s.UserPoolName) == "" {
		problems = append(problems, "user pool name is empty")
	}
	if strings.TrimSpace(s.Stage) == "" {
		problems = append(problems, "stage is empty")
	}
	if u, err := url.Parse(s.CallbackURL); err != nil || u.Scheme != "https" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("callback url %q must be an absolute https url", s.CallbackURL))
	}
	if s.TokenValidityMinutes < 5 || s.TokenValidityMinutes > 1440 {
		problems = append(problems, fmt.Sprintf("token validity %d minutes out of range 5-1440", s.TokenValidityMinutes))
	}
	if s.RefreshTokenValidityDays < 1 || s.RefreshTokenValidityDays > 3650 {
		problems = append(problems, fmt.Sprintf("refresh token validity %d days out of range 1-3650", s.RefreshTokenValidityDays))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid stack config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
