package optimizer

import (
	"encoding/json"
	"strings"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
)

var rulesByType = map[string][]Rule{
	"AWS::Lambda::Function":        lambdaFunctionRules,
	"AWS::IAM::Role":               iamRoleRules,
	"AWS::Cognito::UserPool":       userPoolRules,
	"AWS::Cognito::UserPoolClient": userPoolClientRules,
	"AWS::ApiGateway::Authorizer":  authorizerRules,
	"AWS::ApiGateway::Method":      methodRules,
}

// lambdaFunctionRules contains optimization rules for Lambda functions.
var lambdaFunctionRules = []Rule{
	{
		ID:          "OPT-LAM-001",
		Category:    "cost",
		Severity:    "low",
		Title:       "Consider the arm64 architecture",
		Description: "Graviton-based Lambda functions cost less per GB-second than x86_64 for the same workload.",
		Suggestion:  "Build the function for arm64 and set Architectures to [arm64] (ARCH=arm for the authorizer).",
		Check: func(def jwtgateway.ResourceDef) bool {
			archs, _ := def.Properties["Architectures"].([]any)
			for _, a := range archs {
				if a == "arm64" {
					return false
				}
			}
			return true
		},
	},
	{
		ID:          "OPT-LAM-002",
		Category:    "reliability",
		Severity:    "medium",
		Title:       "Set an explicit timeout",
		Description: "Without Timeout the function stops after the 3 second default, which a cold JWKS fetch can exceed.",
		Suggestion:  "Set Timeout to the longest expected invocation plus headroom.",
		Check: func(def jwtgateway.ResourceDef) bool {
			_, ok := def.Properties["Timeout"]
			return !ok
		},
	},
	{
		ID:          "OPT-LAM-003",
		Category:    "performance",
		Severity:    "low",
		Title:       "Review memory size",
		Description: "Lambda allocates CPU in proportion to memory; 128 MB functions see slower cold starts.",
		Suggestion:  "Measure with AWS Lambda Power Tuning and raise MemorySize if latency matters.",
		Check: func(def jwtgateway.ResourceDef) bool {
			mem, ok := number(def.Properties["MemorySize"])
			return !ok || mem <= 128
		},
	},
}

// iamRoleRules contains optimization rules for IAM roles.
var iamRoleRules = []Rule{
	{
		ID:          "OPT-IAM-001",
		Category:    "security",
		Severity:    "high",
		Title:       "Avoid wildcard actions in inline policies",
		Description: "Inline policies granting \"*\" actions give the role far more access than it needs.",
		Suggestion:  "List the specific actions the function calls.",
		Check: func(def jwtgateway.ResourceDef) bool {
			policies, _ := def.Properties["Policies"].([]any)
			for _, p := range policies {
				data, err := json.Marshal(p)
				if err != nil {
					continue
				}
				if strings.Contains(string(data), `"Action":"*"`) || strings.Contains(string(data), `"Action":["*"]`) {
					return true
				}
			}
			return false
		},
	},
}

// userPoolRules contains optimization rules for Cognito user pools.
var userPoolRules = []Rule{
	{
		ID:          "OPT-COG-001",
		Category:    "security",
		Severity:    "medium",
		Title:       "Enable multi-factor authentication",
		Description: "The user pool does not require or offer MFA.",
		Suggestion:  "Set MfaConfiguration to OPTIONAL or ON with software token MFA.",
		Check: func(def jwtgateway.ResourceDef) bool {
			mfa, _ := def.Properties["MfaConfiguration"].(string)
			return mfa == "" || mfa == "OFF"
		},
	},
	{
		ID:          "OPT-COG-002",
		Category:    "reliability",
		Severity:    "high",
		Title:       "User pool is deleted with the stack",
		Description: "DeletionPolicy Delete removes every user account when the stack is deleted or the pool is replaced.",
		Suggestion:  "Use DeletionPolicy Retain for production user pools.",
		Check: func(def jwtgateway.ResourceDef) bool {
			return def.DeletionPolicy == "" || def.DeletionPolicy == "Delete"
		},
	},
}

// userPoolClientRules contains optimization rules for Cognito app clients.
var userPoolClientRules = []Rule{
	{
		ID:          "OPT-COG-101",
		Category:    "security",
		Severity:    "medium",
		Title:       "Enable token revocation",
		Description: "Without token revocation, refresh tokens stay valid after sign-out.",
		Suggestion:  "Set EnableTokenRevocation to true.",
		Check: func(def jwtgateway.ResourceDef) bool {
			v, ok := def.Properties["EnableTokenRevocation"].(bool)
			return !ok || !v
		},
	},
	{
		ID:          "OPT-COG-102",
		Category:    "security",
		Severity:    "low",
		Title:       "Prevent user existence errors",
		Description: "Sign-in errors reveal whether an account exists.",
		Suggestion:  "Set PreventUserExistenceErrors to ENABLED.",
		Check: func(def jwtgateway.ResourceDef) bool {
			v, _ := def.Properties["PreventUserExistenceErrors"].(string)
			return v != "ENABLED"
		},
	},
}

// authorizerRules contains optimization rules for API Gateway authorizers.
var authorizerRules = []Rule{
	{
		ID:          "OPT-APG-001",
		Category:    "performance",
		Severity:    "medium",
		Title:       "Cache authorizer results",
		Description: "With a TTL of 0 every request invokes the authorizer function.",
		Suggestion:  "Set AuthorizerResultTtlInSeconds to a few minutes.",
		Check: func(def jwtgateway.ResourceDef) bool {
			ttl, ok := number(def.Properties["AuthorizerResultTtlInSeconds"])
			return ok && ttl == 0
		},
	},
	{
		ID:          "OPT-APG-002",
		Category:    "cost",
		Severity:    "medium",
		Title:       "Filter tokens before invoking the authorizer",
		Description: "Without IdentityValidationExpression malformed tokens still invoke the authorizer function.",
		Suggestion:  "Set IdentityValidationExpression to a pattern matching the bearer token format.",
		Check: func(def jwtgateway.ResourceDef) bool {
			if t, _ := def.Properties["Type"].(string); t != "TOKEN" {
				return false
			}
			expr, _ := def.Properties["IdentityValidationExpression"].(string)
			return expr == ""
		},
	},
}

// methodRules contains optimization rules for API Gateway methods.
var methodRules = []Rule{
	{
		ID:          "OPT-APG-101",
		Category:    "security",
		Severity:    "high",
		Title:       "Method has no authorization",
		Description: "AuthorizationType NONE exposes the backend to anonymous callers.",
		Suggestion:  "Attach the JWT authorizer with AuthorizationType CUSTOM.",
		Check: func(def jwtgateway.ResourceDef) bool {
			v, _ := def.Properties["AuthorizationType"].(string)
			return v == "" || v == "NONE"
		},
	},
}

// number reads a template number whether it came from the builder (int64)
// or from a decoded JSON file (float64).
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
