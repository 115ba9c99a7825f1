package schema

import (
	"fmt"
	"regexp"
	"sort"
)

var (
	str     = PropertySchema{Kind: KindString}
	arn     = PropertySchema{Kind: KindArn}
	boolean = PropertySchema{Kind: KindBoolean}
	list    = PropertySchema{Kind: KindList}
	object  = PropertySchema{Kind: KindObject}
	policy  = PropertySchema{Kind: KindPolicy}
)

func oneOf(values ...string) PropertySchema {
	return PropertySchema{Kind: KindString, Allowed: values}
}

func between(lo, hi int) PropertySchema {
	return PropertySchema{Kind: KindInteger, Bounded: true, Min: lo, Max: hi}
}

// Lambda limits.
const (
	minMemoryMB = 128
	maxMemoryMB = 10240
	maxTimeout  = 900
)

// resourceSchemas covers the resource types used by the stack.
var resourceSchemas = map[string]ResourceSchema{
	"AWS::Cognito::UserPool": {
		Properties: map[string]PropertySchema{
			"UserPoolName":                str,
			"UsernameAttributes":          {Kind: KindList, Allowed: []string{"email", "phone_number"}},
			"AutoVerifiedAttributes":      {Kind: KindList, Allowed: []string{"email", "phone_number"}},
			"Policies":                    object,
			"AccountRecoverySetting":      object,
			"AdminCreateUserConfig":       object,
			"MfaConfiguration":            oneOf("OFF", "ON", "OPTIONAL"),
			"DeletionProtection":          oneOf("ACTIVE", "INACTIVE"),
			"Schema":                      list,
			"UserPoolTags":                object,
			"VerificationMessageTemplate": object,
		},
	},
	"AWS::Cognito::UserPoolClient": {
		Required: []string{"UserPoolId"},
		Properties: map[string]PropertySchema{
			"UserPoolId":                      str,
			"ClientName":                      str,
			"GenerateSecret":                  boolean,
			"ExplicitAuthFlows":               list,
			"AllowedOAuthFlows":               {Kind: KindList, Allowed: []string{"code", "implicit", "client_credentials"}},
			"AllowedOAuthFlowsUserPoolClient": boolean,
			"AllowedOAuthScopes":              list,
			"CallbackURLs":                    list,
			"LogoutURLs":                      list,
			"SupportedIdentityProviders":      list,
			"AccessTokenValidity":             {Kind: KindInteger},
			"IdTokenValidity":                 {Kind: KindInteger},
			"RefreshTokenValidity":            {Kind: KindInteger},
			"TokenValidityUnits":              object,
			"PreventUserExistenceErrors":      oneOf("ENABLED", "LEGACY"),
			"EnableTokenRevocation":           boolean,
		},
		Rules: []Rule{oauthNeedsCallbacks, tokenValidityInRange},
	},
	"AWS::IAM::Role": {
		Required: []string{"AssumeRolePolicyDocument"},
		Properties: map[string]PropertySchema{
			"RoleName":                 str,
			"Description":              str,
			"AssumeRolePolicyDocument": policy,
			"ManagedPolicyArns":        {Kind: KindList},
			"Policies":                 list,
			"Path":                     {Kind: KindString, Prefix: "/"},
			"Tags":                     list,
		},
	},
	"AWS::Lambda::Function": {
		Required: []string{"Code", "Role"},
		Properties: map[string]PropertySchema{
			"FunctionName":  str,
			"Description":   str,
			"Role":          arn,
			"Code":          object,
			"PackageType":   oneOf("Zip", "Image"),
			"ImageConfig":   object,
			"Runtime":       str,
			"Handler":       str,
			"Architectures": {Kind: KindList, Allowed: []string{"x86_64", "arm64"}, MaxItems: 1},
			"MemorySize":    between(minMemoryMB, maxMemoryMB),
			"Timeout":       between(1, maxTimeout),
			"Environment":   object,
			"LoggingConfig": object,
			"Tags":          list,
		},
		Rules: []Rule{packageMatchesCode, environmentNames},
	},
	"AWS::Lambda::Permission": {
		Required: []string{"Action", "FunctionName", "Principal"},
		Properties: map[string]PropertySchema{
			"Action":        {Kind: KindString, Prefix: "lambda:"},
			"FunctionName":  str,
			"Principal":     str,
			"SourceArn":     arn,
			"SourceAccount": str,
		},
	},
	"AWS::ApiGateway::RestApi": {
		Properties: map[string]PropertySchema{
			"Name":                  str,
			"Description":           str,
			"EndpointConfiguration": object,
			"Tags":                  list,
		},
	},
	"AWS::ApiGateway::Resource": {
		Required: []string{"ParentId", "PathPart", "RestApiId"},
		Properties: map[string]PropertySchema{
			"ParentId":  str,
			"PathPart":  str,
			"RestApiId": str,
		},
		Rules: []Rule{pathPartSegment},
	},
	"AWS::ApiGateway::Method": {
		Required: []string{"HttpMethod", "ResourceId", "RestApiId"},
		Properties: map[string]PropertySchema{
			"RestApiId":         str,
			"ResourceId":        str,
			"HttpMethod":        oneOf("GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS", "ANY"),
			"AuthorizationType": oneOf("NONE", "AWS_IAM", "CUSTOM", "COGNITO_USER_POOLS"),
			"AuthorizerId":      str,
			"Integration":       object,
			"MethodResponses":   list,
		},
		Rules: []Rule{customAuthNeedsAuthorizer},
	},
	"AWS::ApiGateway::Authorizer": {
		Required: []string{"Name", "RestApiId", "Type"},
		Properties: map[string]PropertySchema{
			"RestApiId":                    str,
			"Name":                         str,
			"Type":                         oneOf("TOKEN", "REQUEST", "COGNITO_USER_POOLS"),
			"AuthorizerUri":                arn,
			"IdentitySource":               {Kind: KindString, Prefix: "method.request."},
			"IdentityValidationExpression": {Kind: KindString, Regexp: true},
			"AuthorizerResultTtlInSeconds": between(0, 3600),
		},
		Rules: []Rule{lambdaAuthorizerWiring},
	},
	"AWS::ApiGateway::Deployment": {
		Required: []string{"RestApiId"},
		Properties: map[string]PropertySchema{
			"RestApiId":   str,
			"Description": str,
			"StageName":   str,
		},
	},
}

// literal returns a string property that is set and not an intrinsic.
func literal(props map[string]any, key string) (string, bool) {
	s, ok := props[key].(string)
	return s, ok
}

func has(props map[string]any, key string) bool {
	_, ok := props[key]
	return ok
}

// packageMatchesCode checks that image functions carry an image and zip
// functions carry a bundle with a runtime and handler.
func packageMatchesCode(props map[string]any) []Finding {
	if IsIntrinsic(props["Code"]) || IsIntrinsic(props["PackageType"]) {
		return nil
	}
	code, _ := props["Code"].(map[string]any)
	pkg, _ := literal(props, "PackageType")

	if pkg == "Image" {
		var out []Finding
		if code != nil && !has(code, "ImageUri") {
			out = append(out, Finding{"Code", "image functions need Code.ImageUri"})
		}
		for _, key := range []string{"Runtime", "Handler"} {
			if has(props, key) {
				out = append(out, Finding{key, fmt.Sprintf("%s is not allowed for image functions", key)})
			}
		}
		return out
	}

	var out []Finding
	if code != nil && !has(code, "ZipFile") && !(has(code, "S3Bucket") && has(code, "S3Key")) {
		out = append(out, Finding{"Code", "zip functions need Code.S3Bucket and Code.S3Key, or Code.ZipFile"})
	}
	for _, key := range []string{"Runtime", "Handler"} {
		if !has(props, key) {
			out = append(out, Finding{key, fmt.Sprintf("zip functions need %s", key)})
		}
	}
	return out
}

var envNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]+$`)

// environmentNames checks Lambda environment variable names.
func environmentNames(props map[string]any) []Finding {
	env, _ := props["Environment"].(map[string]any)
	vars, _ := env["Variables"].(map[string]any)
	var out []Finding
	for _, name := range sortedKeys(vars) {
		if !envNamePattern.MatchString(name) {
			out = append(out, Finding{"Environment", fmt.Sprintf("invalid environment variable name %q", name)})
		}
	}
	return out
}

var pathPartPattern = regexp.MustCompile(`^([A-Za-z0-9._~:@!$&'()*+,;=-]+|\{[A-Za-z0-9_]+\+?\})$`)

// pathPartSegment checks that PathPart is one URL path segment or a
// {param} / {proxy+} placeholder.
func pathPartSegment(props map[string]any) []Finding {
	part, ok := literal(props, "PathPart")
	if ok && !pathPartPattern.MatchString(part) {
		return []Finding{{"PathPart", fmt.Sprintf("invalid path segment %q", part)}}
	}
	return nil
}

func customAuthNeedsAuthorizer(props map[string]any) []Finding {
	auth, _ := literal(props, "AuthorizationType")
	if (auth == "CUSTOM" || auth == "COGNITO_USER_POOLS") && !has(props, "AuthorizerId") {
		return []Finding{{"AuthorizerId", fmt.Sprintf("AuthorizationType %s needs AuthorizerId", auth)}}
	}
	return nil
}

// lambdaAuthorizerWiring checks the properties TOKEN and REQUEST
// authorizers need to reach their function.
func lambdaAuthorizerWiring(props map[string]any) []Finding {
	typ, _ := literal(props, "Type")
	if typ != "TOKEN" && typ != "REQUEST" {
		return nil
	}
	var out []Finding
	if !has(props, "AuthorizerUri") {
		out = append(out, Finding{"AuthorizerUri", fmt.Sprintf("%s authorizers need AuthorizerUri", typ)})
	}
	if typ == "TOKEN" && !has(props, "IdentitySource") {
		out = append(out, Finding{"IdentitySource", "TOKEN authorizers need IdentitySource"})
	}
	if typ == "REQUEST" && has(props, "IdentityValidationExpression") {
		out = append(out, Finding{"IdentityValidationExpression", "only TOKEN authorizers support IdentityValidationExpression"})
	}
	return out
}

func oauthNeedsCallbacks(props map[string]any) []Finding {
	if enabled, _ := props["AllowedOAuthFlowsUserPoolClient"].(bool); enabled && !has(props, "CallbackURLs") {
		return []Finding{{"CallbackURLs", "OAuth flows need CallbackURLs"}}
	}
	return nil
}

// Cognito token lifetimes, per unit.
var tokenBounds = map[string]map[string][2]int{
	"AccessToken":  {"seconds": {300, 86400}, "minutes": {5, 1440}, "hours": {1, 24}, "days": {1, 1}},
	"IdToken":      {"seconds": {300, 86400}, "minutes": {5, 1440}, "hours": {1, 24}, "days": {1, 1}},
	"RefreshToken": {"seconds": {3600, 315360000}, "minutes": {60, 5256000}, "hours": {1, 87600}, "days": {1, 3650}},
}

// Units Cognito assumes when TokenValidityUnits leaves one out.
var defaultTokenUnits = map[string]string{
	"AccessToken":  "hours",
	"IdToken":      "hours",
	"RefreshToken": "days",
}

// tokenValidityInRange checks token lifetimes against the bounds of the
// unit each one is expressed in.
func tokenValidityInRange(props map[string]any) []Finding {
	units, _ := props["TokenValidityUnits"].(map[string]any)
	var out []Finding
	for _, token := range []string{"AccessToken", "IdToken", "RefreshToken"} {
		prop := token + "Validity"
		n, ok := toInt(props[prop])
		if !ok {
			continue
		}
		unit := defaultTokenUnits[token]
		if u, ok := units[token].(string); ok {
			unit = u
		}
		b, ok := tokenBounds[token][unit]
		if !ok {
			out = append(out, Finding{"TokenValidityUnits", fmt.Sprintf("unknown unit %q for %s", unit, token)})
			continue
		}
		if n < b[0] || n > b[1] {
			out = append(out, Finding{prop, fmt.Sprintf("value %d %s out of range [%d, %d]", n, unit, b[0], b[1])})
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
