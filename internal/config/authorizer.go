package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables set on the authorizer function.
const (
	EnvAPIID              = "API_ID"
	EnvAPIRegion          = "API_REGION"
	EnvAccountID          = "ACCOUNT_ID"
	EnvCognitoUserPoolID  = "COGNITO_USER_POOL_ID"
	EnvCognitoAppClientID = "COGNITO_APP_CLIENT_ID"
	EnvVerbose            = "VERBOSE"
	EnvJWKSCacheTTL       = "JWKS_CACHE_TTL"
)

// DefaultJWKSCacheTTL is how long fetched signing keys are reused.
const DefaultJWKSCacheTTL = time.Hour

// Authorizer is the runtime configuration of the JWT authorizer function.
type Authorizer struct {
	Region      string
	AccountID   string
	APIID       string
	UserPoolID  string
	AppClientID string
	Verbose     bool
	JWKSTTL     time.Duration
}

// LoadAuthorizer loads an optional .env file and reads the authorizer
// settings. Every identifier is required.
func LoadAuthorizer() (Authorizer, error) {
	_ = godotenv.Load()

	cfg := Authorizer{
		Region:      os.Getenv(EnvAPIRegion),
		AccountID:   os.Getenv(EnvAccountID),
		APIID:       os.Getenv(EnvAPIID),
		UserPoolID:  os.Getenv(EnvCognitoUserPoolID),
		AppClientID: os.Getenv(EnvCognitoAppClientID),
		Verbose:     envBool(EnvVerbose),
		JWKSTTL:     envDuration(EnvJWKSCacheTTL, DefaultJWKSCacheTTL),
	}
	return cfg, cfg.Validate()
}

// Validate reports missing identifiers.
func (a Authorizer) Validate() error {
	var missing []string
	for _, kv := range []struct{ key, value string }{
		{EnvAPIRegion, a.Region},
		{EnvAccountID, a.AccountID},
		{EnvAPIID, a.APIID},
		{EnvCognitoUserPoolID, a.UserPoolID},
		{EnvCognitoAppClientID, a.AppClientID},
	} {
		if strings.TrimSpace(kv.value) == "" {
			missing = append(missing, kv.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing authorizer environment: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Issuer is the Cognito issuer URL of the user pool.
func (a Authorizer) Issuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", a.Region, a.UserPoolID)
}

// JWKSURL is where the user pool publishes its signing keys.
func (a Authorizer) JWKSURL() string {
	return a.Issuer() + "/.well-known/jwks.json"
}

// InvokeResource is the execute-api ARN covering every method of the API.
func (a Authorizer) InvokeResource() string {
	return fmt.Sprintf("arn:aws:execute-api:%s:%s:%s/*", a.Region, a.AccountID, a.APIID)
}

// Verbose reports whether VERBOSE enables debug logging. Both Lambda
// functions use it.
func Verbose() bool {
	return envBool(EnvVerbose)
}

// envBool treats any non-empty value other than a false literal as true.
func envBool(k string) bool {
	v := os.Getenv(k)
	if v == "" {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return true
}

func envDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
