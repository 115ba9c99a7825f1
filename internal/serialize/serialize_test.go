package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
	"github.com/lex00/wetwire-jwt-gateway/intrinsics"
	"github.com/lex00/wetwire-jwt-gateway/resources/apigateway"
	"github.com/lex00/wetwire-jwt-gateway/resources/cognito"
	"github.com/lex00/wetwire-jwt-gateway/resources/lambda"
)

func TestResource_SimpleStruct(t *testing.T) {
	pool := cognito.UserPool{UserPoolName: "users"}

	props, err := Resource(pool)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"UserPoolName": "users"}, props)
}

func TestResource_WithPointer(t *testing.T) {
	props, err := Resource(&cognito.UserPool{UserPoolName: "users"})
	require.NoError(t, err)
	assert.Equal(t, "users", props["UserPoolName"])
}

func TestResource_NotAStruct(t *testing.T) {
	_, err := Resource("users")
	assert.Error(t, err)
}

func TestResource_OmitsZeroValues(t *testing.T) {
	props, err := Resource(lambda.Function{})
	require.NoError(t, err)
	assert.Empty(t, props)
}

func TestResource_KeepsExplicitFalse(t *testing.T) {
	client := cognito.UserPoolClient{GenerateSecret: false}

	props, err := Resource(client)
	require.NoError(t, err)

	assert.Equal(t, false, props["GenerateSecret"])
}

func TestResource_WithNestedStruct(t *testing.T) {
	fn := lambda.Function{
		Code: &lambda.Function_Code{S3Bucket: "artifacts", S3Key: "hello.zip"},
	}

	props, err := Resource(fn)
	require.NoError(t, err)

	code := props["Code"].(map[string]any)
	assert.Equal(t, "artifacts", code["S3Bucket"])
	assert.Equal(t, "hello.zip", code["S3Key"])
	assert.NotContains(t, code, "ImageUri")
}

func TestResource_ReservedFieldName(t *testing.T) {
	props, err := Resource(apigateway.Authorizer{Type_: apigateway.AuthorizerToken})
	require.NoError(t, err)

	assert.Equal(t, "TOKEN", props["Type"])
	assert.NotContains(t, props, "Type_")
}

func TestResource_WithIntrinsics(t *testing.T) {
	fn := lambda.Function{
		Role: jwtgateway.AttrRef{Resource: "HelloRole", Attribute: "Arn"},
		Environment: &lambda.Function_Environment{
			Variables: map[string]any{
				"API_REGION": intrinsics.AWS_REGION,
				"API_ID":     intrinsics.Ref{LogicalName: "RestAPI"},
			},
		},
		Architectures: []any{lambda.ArchitectureARM64},
		MemorySize:    256,
	}

	props, err := Resource(fn)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"HelloRole", "Arn"}}, props["Role"])
	vars := props["Environment"].(map[string]any)["Variables"].(map[string]any)
	assert.Equal(t, map[string]any{"Ref": "AWS::Region"}, vars["API_REGION"])
	assert.Equal(t, map[string]any{"Ref": "RestAPI"}, vars["API_ID"])
	assert.Equal(t, []any{"arm64"}, props["Architectures"])
	assert.EqualValues(t, 256, props["MemorySize"])
}

func TestValue(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected any
	}{
		{"string", "hello", "hello"},
		{"nil", nil, nil},
		{"ref", intrinsics.Ref{LogicalName: "UserPool"}, map[string]any{"Ref": "UserPool"}},
		{"sub", intrinsics.Sub{String: "https://${RestAPI}.execute-api.${AWS::Region}.${AWS::URLSuffix}/prod/"},
			map[string]any{"Fn::Sub": "https://${RestAPI}.execute-api.${AWS::Region}.${AWS::URLSuffix}/prod/"}},
		{"slice", []string{"a", "b"}, []any{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Value(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
