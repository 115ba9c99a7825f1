package infra

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
	"github.com/lex00/wetwire-jwt-gateway/internal/config"
	"github.com/lex00/wetwire-jwt-gateway/internal/differ"
	"github.com/lex00/wetwire-jwt-gateway/internal/template"
)

func synth(t *testing.T, cfg config.Stack) *jwtgateway.Template {
	t.Helper()
	tmpl, err := New(cfg).Synth()
	require.NoError(t, err)
	return tmpl
}

func resourcesOfType(tmpl *jwtgateway.Template, typ string) map[string]jwtgateway.ResourceDef {
	out := make(map[string]jwtgateway.ResourceDef)
	for name, def := range tmpl.Resources {
		if def.Type == typ {
			out[name] = def
		}
	}
	return out
}

func TestSynth_ResourceInventory(t *testing.T) {
	tmpl := synth(t, config.Default())

	assert.Equal(t, Description, tmpl.Description)
	expected := map[string]string{
		UserPoolName:               "AWS::Cognito::UserPool",
		UserPoolClientName:         "AWS::Cognito::UserPoolClient",
		HelloFunctionRoleName:      "AWS::IAM::Role",
		HelloFunctionName:          "AWS::Lambda::Function",
		RestAPIName:                "AWS::ApiGateway::RestApi",
		AuthorizerFunctionRoleName: "AWS::IAM::Role",
		AuthorizerFunctionName:     "AWS::Lambda::Function",
		AuthorizerName:             "AWS::ApiGateway::Authorizer",
		AuthorizerPermissionName:   "AWS::Lambda::Permission",
		HelloResourceName:          "AWS::ApiGateway::Resource",
		HelloMethodName:            "AWS::ApiGateway::Method",
		HelloPermissionName:        "AWS::Lambda::Permission",
		DeploymentName:             "AWS::ApiGateway::Deployment",
	}
	require.Len(t, tmpl.Resources, len(expected))
	for name, typ := range expected {
		assert.Equal(t, typ, tmpl.Resources[name].Type, name)
	}

	assert.ElementsMatch(t, []string{HelloCodeBucketParam, HelloCodeKeyParam, AuthorizerImageUriParam}, keys(tmpl.Parameters))
	assert.ElementsMatch(t, []string{ApiUrlOutput, UserPoolIdOutput, UserPoolClientIdOutput, AuthorizerFunctionArnOutput}, keys(tmpl.Outputs))
}

func TestAuthorizerEnvironment_ExactlyFiveReferences(t *testing.T) {
	tmpl := synth(t, config.Default())

	fn := tmpl.Resources[AuthorizerFunctionName]
	vars := fn.Properties["Environment"].(map[string]any)["Variables"].(map[string]any)

	assert.Equal(t, map[string]any{
		"API_ID":                map[string]any{"Ref": RestAPIName},
		"API_REGION":            map[string]any{"Ref": "AWS::Region"},
		"ACCOUNT_ID":            map[string]any{"Ref": "AWS::AccountId"},
		"COGNITO_USER_POOL_ID":  map[string]any{"Ref": UserPoolName},
		"COGNITO_APP_CLIENT_ID": map[string]any{"Ref": UserPoolClientName},
	}, vars)

	for name, v := range vars {
		_, isString := v.(string)
		assert.False(t, isString, "%s must be a reference, not a literal", name)
	}
}

func TestAuthorizerFunction_Packaging(t *testing.T) {
	tmpl := synth(t, config.Default())
	fn := tmpl.Resources[AuthorizerFunctionName].Properties

	assert.Equal(t, "Image", fn["PackageType"])
	assert.Equal(t, map[string]any{"ImageUri": map[string]any{"Ref": AuthorizerImageUriParam}}, fn["Code"])
	assert.EqualValues(t, AuthorizerMemorySize, fn["MemorySize"])
	assert.EqualValues(t, AuthorizerTimeout, fn["Timeout"])
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{AuthorizerFunctionRoleName, "Arn"}}, fn["Role"])
	assert.NotContains(t, fn, "Runtime")
	assert.NotContains(t, fn, "Handler")
}

func TestHelloFunction_Packaging(t *testing.T) {
	tmpl := synth(t, config.Default())
	fn := tmpl.Resources[HelloFunctionName].Properties

	assert.Equal(t, HelloRuntime, fn["Runtime"])
	assert.Equal(t, HelloHandler, fn["Handler"])
	assert.EqualValues(t, HelloTimeout, fn["Timeout"])
	assert.Equal(t, map[string]any{
		"S3Bucket": map[string]any{"Ref": HelloCodeBucketParam},
		"S3Key":    map[string]any{"Ref": HelloCodeKeyParam},
	}, fn["Code"])
}

func TestValidationPattern_ThreeSegments(t *testing.T) {
	tmpl := synth(t, config.Default())
	authorizers := resourcesOfType(tmpl, "AWS::ApiGateway::Authorizer")
	require.Len(t, authorizers, 1)

	props := authorizers[AuthorizerName].Properties
	pattern := props["IdentityValidationExpression"].(string)
	assert.Equal(t, ValidationPattern, pattern)
	assert.Equal(t, "TOKEN", props["Type"])
	assert.Equal(t, "method.request.header.Authorization", props["IdentitySource"])

	require.True(t, strings.HasPrefix(pattern, "^Bearer "))
	require.True(t, strings.HasSuffix(pattern, "$"))
	segments := strings.Split(strings.TrimSuffix(strings.TrimPrefix(pattern, "^Bearer "), "$"), `\.`)
	require.Len(t, segments, 3)
	for _, seg := range segments {
		assert.Equal(t, "[A-Za-z0-9_-]+", seg)
	}
}

func TestValidationPattern_Matches(t *testing.T) {
	re := regexp.MustCompile(ValidationPattern)

	tests := []struct {
		header string
		match  bool
	}{
		{"Bearer a.b.c", true},
		{"Bearer eyJhbGciOiJSUzI1NiJ9.eyJzdWIiOiIxMjMifQ.c2ln-_", true},
		{"Bearer a.b", false},
		{"Bearer a.b.c.d", false},
		{"bearer a.b.c", false},
		{"Basic a.b.c", false},
		{"Bearer a+b.c.d", false},
		{"Bearer a.b.c ", false},
		{"Bearer  a.b.c", false},
		{"Bearer a..c", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.match, re.MatchString(tt.header))
		})
	}
}

func TestRoute_SingleIntegrationAndAuthorizer(t *testing.T) {
	tmpl := synth(t, config.Default())

	resources := resourcesOfType(tmpl, "AWS::ApiGateway::Resource")
	methods := resourcesOfType(tmpl, "AWS::ApiGateway::Method")
	authorizers := resourcesOfType(tmpl, "AWS::ApiGateway::Authorizer")
	require.Len(t, resources, 1)
	require.Len(t, methods, 1)
	require.Len(t, authorizers, 1)

	res := resources[HelloResourceName].Properties
	assert.Equal(t, "hello", res["PathPart"])
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{RestAPIName, "RootResourceId"}}, res["ParentId"])

	method := methods[HelloMethodName].Properties
	assert.Equal(t, "GET", method["HttpMethod"])
	assert.Equal(t, "CUSTOM", method["AuthorizationType"])
	assert.Equal(t, map[string]any{"Ref": AuthorizerName}, method["AuthorizerId"])
	assert.Equal(t, map[string]any{"Ref": HelloResourceName}, method["ResourceId"])

	integration := method["Integration"].(map[string]any)
	assert.Equal(t, "AWS_PROXY", integration["Type"])
	assert.Equal(t, "POST", integration["IntegrationHttpMethod"])
	join := integration["Uri"].(map[string]any)["Fn::Join"].([]any)
	assert.Contains(t, join[1], map[string]any{"Fn::GetAtt": []any{HelloFunctionName, "Arn"}})
}

func TestDeployment_DependsOnMethod(t *testing.T) {
	tmpl := synth(t, config.Default())

	dep := tmpl.Resources[DeploymentName]
	assert.Equal(t, []string{HelloMethodName}, dep.DependsOn)
	assert.Equal(t, "prod", dep.Properties["StageName"])
}

func TestUserPool_RemovalPolicy(t *testing.T) {
	tmpl := synth(t, config.Default())

	pool := tmpl.Resources[UserPoolName]
	assert.Equal(t, "Delete", pool.DeletionPolicy)
	assert.Equal(t, "Delete", pool.UpdateReplacePolicy)
}

func TestUserPoolClient_Configuration(t *testing.T) {
	cfg := config.Default()
	cfg.TokenValidityMinutes = 30
	tmpl := synth(t, cfg)
	client := tmpl.Resources[UserPoolClientName].Properties

	assert.Equal(t, map[string]any{"Ref": UserPoolName}, client["UserPoolId"])
	assert.Equal(t, false, client["GenerateSecret"])
	assert.EqualValues(t, 30, client["AccessTokenValidity"])
	assert.EqualValues(t, 30, client["IdTokenValidity"])
	assert.EqualValues(t, 30, client["RefreshTokenValidity"])
	assert.Equal(t, []any{"COGNITO"}, client["SupportedIdentityProviders"])
	assert.Equal(t, []any{"code", "implicit"}, client["AllowedOAuthFlows"])
	assert.Equal(t, []any{"openid", "email", "profile"}, client["AllowedOAuthScopes"])
	assert.Equal(t, []any{"https://example.com"}, client["CallbackURLs"])
	assert.Contains(t, client["ExplicitAuthFlows"], "ALLOW_REFRESH_TOKEN_AUTH")
}

func TestArchitectureSelection(t *testing.T) {
	tests := []struct {
		arch     string
		expected string
	}{
		{"arm", "arm64"},
		{"", "x86_64"},
		{"x86_64", "x86_64"},
		{"arm64", "x86_64"},
		{"ARM", "x86_64"},
		{" arm", "x86_64"},
	}

	for _, tt := range tests {
		t.Run("ARCH="+tt.arch, func(t *testing.T) {
			cfg := config.Default()
			cfg.Arch = config.ArchFromEnv(tt.arch)

			tmpl := synth(t, cfg)
			assert.Equal(t, []any{tt.expected}, tmpl.Resources[AuthorizerFunctionName].Properties["Architectures"])
		})
	}
}

func TestArchitecture_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv(config.EnvArch, "arm")
	tmpl := synth(t, config.LoadStack())
	assert.Equal(t, []any{"arm64"}, tmpl.Resources[AuthorizerFunctionName].Properties["Architectures"])

	t.Setenv(config.EnvArch, "")
	tmpl = synth(t, config.LoadStack())
	assert.Equal(t, []any{"x86_64"}, tmpl.Resources[AuthorizerFunctionName].Properties["Architectures"])
}

func TestArchitecture_OnlyDifference(t *testing.T) {
	def := config.Default()
	arm := config.Default()
	arm.Arch = config.ArchARM64

	t1 := synth(t, def)
	t2 := synth(t, arm)

	result, err := differ.Compare(t1, t2, differ.Options{})
	require.NoError(t, err)

	assert.Empty(t, result.Diff.Added)
	assert.Empty(t, result.Diff.Removed)
	require.Len(t, result.Diff.Modified, 1)
	assert.Equal(t, AuthorizerFunctionName, result.Diff.Modified[0].Resource)
	assert.Equal(t, []string{"Architectures modified"}, result.Diff.Modified[0].Changes)
	assert.Empty(t, result.Diff.Parameters)
	assert.Empty(t, result.Diff.Outputs)
	assert.Equal(t, 1, result.Summary.Total)
}

func TestDependencies(t *testing.T) {
	res, err := New(config.Default()).Resources()
	require.NoError(t, err)

	assert.Equal(t, []string{AuthorizerFunctionRoleName, RestAPIName, UserPoolName, UserPoolClientName},
		res[AuthorizerFunctionName].Dependencies)
	assert.Equal(t, []string{AuthorizerFunctionName, RestAPIName}, res[AuthorizerName].Dependencies)
	assert.Equal(t, []string{HelloFunctionName, HelloResourceName, AuthorizerName, RestAPIName}, res[HelloMethodName].Dependencies)
	assert.Equal(t, []string{HelloFunctionName}, res[HelloMethodName].AttrDependencies)
	assert.Equal(t, []string{UserPoolName}, res[UserPoolClientName].Dependencies)
	assert.Empty(t, res[UserPoolName].Dependencies)
}

func TestSynth_Deterministic(t *testing.T) {
	a, err := template.ToJSON(synth(t, config.Default()))
	require.NoError(t, err)
	b, err := template.ToJSON(synth(t, config.Default()))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestOutputs(t *testing.T) {
	cfg := config.Default()
	cfg.Stage = "dev"
	tmpl := synth(t, cfg)

	assert.Equal(t,
		map[string]any{"Fn::Sub": "https://${RestAPI}.execute-api.${AWS::Region}.${AWS::URLSuffix}/dev/hello"},
		tmpl.Outputs[ApiUrlOutput].Value)
	assert.Equal(t, map[string]any{"Ref": UserPoolClientName}, tmpl.Outputs[UserPoolClientIdOutput].Value)
	assert.Equal(t, "dev", tmpl.Resources[DeploymentName].Properties["StageName"])
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
