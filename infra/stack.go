// Package infra declares the JWT-protected API stack: a Cognito user pool
// and app client, a REST API with a single GET /hello route, the hello
// backend function and a container-image authorizer function bound to the
// route through a TOKEN authorizer.
//
// Resources are registered in dependency order. Every cross-resource value
// is a Ref or Fn::GetAtt resolved by CloudFormation at deploy time.
package infra

import (
	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
	"github.com/lex00/wetwire-jwt-gateway/intrinsics"
	"github.com/lex00/wetwire-jwt-gateway/internal/config"
	"github.com/lex00/wetwire-jwt-gateway/internal/template"
)

// Description is the template description.
const Description = "Cognito user pool and API Gateway REST API guarded by a container-image JWT authorizer"

// Logical ids of the stack's resources, parameters and outputs.
const (
	UserPoolName               = "UserPool"
	UserPoolClientName         = "UserPoolClient"
	HelloFunctionRoleName      = "HelloFunctionRole"
	HelloFunctionName          = "HelloFunction"
	RestAPIName                = "RestAPI"
	AuthorizerFunctionRoleName = "AuthorizerFunctionRole"
	AuthorizerFunctionName     = "AuthorizerFunction"
	AuthorizerName             = "JwtAuthorizer"
	AuthorizerPermissionName   = "AuthorizerInvokePermission"
	HelloResourceName          = "HelloResource"
	HelloMethodName            = "HelloMethod"
	HelloPermissionName        = "HelloInvokePermission"
	DeploymentName             = "ApiDeployment"

	HelloCodeBucketParam    = "HelloCodeBucket"
	HelloCodeKeyParam       = "HelloCodeKey"
	AuthorizerImageUriParam = "AuthorizerImageUri"

	ApiUrlOutput                = "ApiUrl"
	UserPoolIdOutput            = "UserPoolId"
	UserPoolClientIdOutput      = "UserPoolClientId"
	AuthorizerFunctionArnOutput = "AuthorizerFunctionArn"
)

// Stack holds the builder and the handles of every registered resource.
type Stack struct {
	Config  config.Stack
	Builder *template.Builder

	HelloCodeBucket    intrinsics.Parameter
	HelloCodeKey       intrinsics.Parameter
	AuthorizerImageUri intrinsics.Parameter

	UserPool             template.Handle
	UserPoolClient       template.Handle
	HelloFunctionRole    template.Handle
	HelloFunction        template.Handle
	RestAPI              template.Handle
	AuthorizerRole       template.Handle
	AuthorizerFunction   template.Handle
	Authorizer           template.Handle
	AuthorizerPermission template.Handle
	HelloResource        template.Handle
	HelloMethod          template.Handle
	HelloPermission      template.Handle
	Deployment           template.Handle
}

// New assembles the stack. Each step consumes the handles produced by the
// steps before it; nothing is changed after New returns.
func New(cfg config.Stack) *Stack {
	s := &Stack{
		Config:  cfg,
		Builder: template.NewBuilder(Description),
	}

	s.addParameters()
	s.addIdentity()
	s.addBackend()
	s.addGateway()
	s.addAuthorizerFunction()
	s.addAuthorizerBinding()
	s.addRoute()
	s.addOutputs()

	return s
}

// Synth renders the CloudFormation template.
func (s *Stack) Synth() (*jwtgateway.Template, error) {
	return s.Builder.Build()
}

// Resources returns the registered resources with their dependencies.
func (s *Stack) Resources() (map[string]jwtgateway.RegisteredResource, error) {
	return s.Builder.Resources()
}

func (s *Stack) addParameters() {
	s.HelloCodeBucket = s.Builder.AddParameter(HelloCodeBucketParam, intrinsics.Parameter{
		Description: "S3 bucket holding the hello function bundle",
		MinLength:   intrinsics.IntPtr(3),
	})
	s.HelloCodeKey = s.Builder.AddParameter(HelloCodeKeyParam, intrinsics.Parameter{
		Description: "S3 key of the hello function bundle (zip with a bootstrap binary)",
		MinLength:   intrinsics.IntPtr(1),
	})
	s.AuthorizerImageUri = s.Builder.AddParameter(AuthorizerImageUriParam, intrinsics.Parameter{
		Description:           "ECR image URI of the authorizer function",
		AllowedPattern:        `^\d{12}\.dkr\.ecr\.[a-z0-9-]+\.amazonaws\.com(\.cn)?/.+$`,
		ConstraintDescription: "must be an ECR image URI",
	})
}

func (s *Stack) addOutputs() {
	s.Builder.AddOutput(ApiUrlOutput, "Invoke URL of GET /hello",
		intrinsics.Sub{String: "https://${" + RestAPIName + "}.execute-api.${AWS::Region}.${AWS::URLSuffix}/" + s.Config.Stage + "/hello"})
	s.Builder.AddOutput(UserPoolIdOutput, "Cognito user pool id", s.UserPool.Ref())
	s.Builder.AddOutput(UserPoolClientIdOutput, "Cognito app client id", s.UserPoolClient.Ref())
	s.Builder.AddOutput(AuthorizerFunctionArnOutput, "ARN of the authorizer function", s.AuthorizerFunction.GetAtt("Arn"))
}
