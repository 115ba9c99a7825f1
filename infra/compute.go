package infra

import (
	"github.com/lex00/wetwire-jwt-gateway/internal/config"
	. "github.com/lex00/wetwire-jwt-gateway/intrinsics"
	"github.com/lex00/wetwire-jwt-gateway/resources/iam"
	"github.com/lex00/wetwire-jwt-gateway/resources/lambda"
)

// Runtime settings of the two functions.
const (
	HelloRuntime         = "provided.al2023"
	HelloHandler         = "bootstrap"
	HelloTimeout         = 10
	HelloMemorySize      = 128
	AuthorizerTimeout    = 10
	AuthorizerMemorySize = 256
)

// Authorizer environment variable names, read by cmd/jwt-authorizer.
const (
	EnvAPIID              = config.EnvAPIID
	EnvAPIRegion          = config.EnvAPIRegion
	EnvAccountID          = config.EnvAccountID
	EnvCognitoUserPoolID  = config.EnvCognitoUserPoolID
	EnvCognitoAppClientID = config.EnvCognitoAppClientID
)

// ----------------------------------------------------------------------------
// Hello Function
// ----------------------------------------------------------------------------

func (s *Stack) addBackend() {
	s.HelloFunctionRole = s.Builder.Add(HelloFunctionRoleName,
		executionRole("Execution role of the hello function"))

	s.HelloFunction = s.Builder.Add(HelloFunctionName, &lambda.Function{
		Description: "Returns a hello message to authorized callers",
		Runtime:     HelloRuntime,
		Handler:     HelloHandler,
		Code: &lambda.Function_Code{
			S3Bucket: s.HelloCodeBucket,
			S3Key:    s.HelloCodeKey,
		},
		Role:       s.HelloFunctionRole.GetAtt(iam.AttrArn),
		Timeout:    HelloTimeout,
		MemorySize: HelloMemorySize,
	})
}

// ----------------------------------------------------------------------------
// Authorizer Function
// ----------------------------------------------------------------------------

func (s *Stack) addAuthorizerFunction() {
	s.AuthorizerRole = s.Builder.Add(AuthorizerFunctionRoleName,
		executionRole("Execution role of the JWT authorizer function"))

	s.AuthorizerFunction = s.Builder.Add(AuthorizerFunctionName, &lambda.Function{
		Description: "Validates Cognito id tokens for API Gateway",
		PackageType: lambda.PackageTypeImage,
		Code: &lambda.Function_Code{
			ImageUri: s.AuthorizerImageUri,
		},
		Role:          s.AuthorizerRole.GetAtt(iam.AttrArn),
		MemorySize:    AuthorizerMemorySize,
		Timeout:       AuthorizerTimeout,
		Architectures: Any(lambdaArchitecture(s.Config.Arch)),
		Environment: &lambda.Function_Environment{
			Variables: s.authorizerEnvironment(),
		},
	})
}

// authorizerEnvironment returns the five identifiers the authorizer needs.
// Every value is resolved by CloudFormation.
func (s *Stack) authorizerEnvironment() map[string]any {
	return map[string]any{
		EnvAPIID:              s.RestAPI.Ref(),
		EnvAPIRegion:          AWS_REGION,
		EnvAccountID:          AWS_ACCOUNT_ID,
		EnvCognitoUserPoolID:  s.UserPool.Ref(),
		EnvCognitoAppClientID: s.UserPoolClient.Ref(),
	}
}
