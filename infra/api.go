package infra

import (
	. "github.com/lex00/wetwire-jwt-gateway/intrinsics"
	"github.com/lex00/wetwire-jwt-gateway/internal/config"
	"github.com/lex00/wetwire-jwt-gateway/internal/template"
	"github.com/lex00/wetwire-jwt-gateway/resources/apigateway"
	"github.com/lex00/wetwire-jwt-gateway/resources/lambda"
)

// ValidationPattern is checked by API Gateway against the Authorization
// header before the authorizer function is invoked.
const ValidationPattern = `^Bearer [A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`

// IdentitySource is the request header carrying the bearer token.
const IdentitySource = "method.request.header.Authorization"

// AuthorizerResultTTL is how long API Gateway caches a policy, in seconds.
const AuthorizerResultTTL = 300

// ----------------------------------------------------------------------------
// REST API
// ----------------------------------------------------------------------------

func (s *Stack) addGateway() {
	s.RestAPI = s.Builder.Add(RestAPIName, &apigateway.RestApi{
		Name:        s.Config.APIName,
		Description: "JWT protected hello API",
		EndpointConfiguration: &apigateway.RestApi_EndpointConfiguration{
			Types: Any("REGIONAL"),
		},
	})
}

// ----------------------------------------------------------------------------
// Token Authorizer
// ----------------------------------------------------------------------------

func (s *Stack) addAuthorizerBinding() {
	s.Authorizer = s.Builder.Add(AuthorizerName, &apigateway.Authorizer{
		RestApiId:                    s.RestAPI.Ref(),
		Name:                         AuthorizerName,
		Type_:                        apigateway.AuthorizerToken,
		AuthorizerUri:                invocationURI(s.AuthorizerFunction),
		IdentitySource:               IdentitySource,
		IdentityValidationExpression: ValidationPattern,
		AuthorizerResultTtlInSeconds: AuthorizerResultTTL,
	})

	s.AuthorizerPermission = s.Builder.Add(AuthorizerPermissionName, &lambda.Permission{
		FunctionName: s.AuthorizerFunction.GetAtt(lambda.AttrArn),
		Action:       "lambda:InvokeFunction",
		Principal:    "apigateway.amazonaws.com",
		SourceArn: Join{
			Delimiter: "",
			Values: []any{
				"arn:", AWS_PARTITION, ":execute-api:", AWS_REGION, ":", AWS_ACCOUNT_ID, ":",
				s.RestAPI.Ref(), "/authorizers/", s.Authorizer.Ref(),
			},
		},
	})
}

// ----------------------------------------------------------------------------
// GET /hello
// ----------------------------------------------------------------------------

func (s *Stack) addRoute() {
	s.HelloResource = s.Builder.Add(HelloResourceName, &apigateway.Resource{
		RestApiId: s.RestAPI.Ref(),
		ParentId:  s.RestAPI.GetAtt(apigateway.AttrRootResourceId),
		PathPart:  "hello",
	})

	s.HelloMethod = s.Builder.Add(HelloMethodName, &apigateway.Method{
		RestApiId:         s.RestAPI.Ref(),
		ResourceId:        s.HelloResource.Ref(),
		HttpMethod:        "GET",
		AuthorizationType: apigateway.AuthorizationCustom,
		AuthorizerId:      s.Authorizer.Ref(),
		Integration: &apigateway.Method_Integration{
			Type_:                 "AWS_PROXY",
			IntegrationHttpMethod: "POST",
			Uri:                   invocationURI(s.HelloFunction),
		},
	})

	s.HelloPermission = s.Builder.Add(HelloPermissionName, &lambda.Permission{
		FunctionName: s.HelloFunction.GetAtt(lambda.AttrArn),
		Action:       "lambda:InvokeFunction",
		Principal:    "apigateway.amazonaws.com",
		SourceArn: Sub{
			String: "arn:${AWS::Partition}:execute-api:${AWS::Region}:${AWS::AccountId}:${" + RestAPIName + "}/*/GET/hello",
		},
	})

	// A deployment snapshots the methods that exist when it is created.
	s.Deployment = s.Builder.Add(DeploymentName, &apigateway.Deployment{
		RestApiId:   s.RestAPI.Ref(),
		StageName:   s.Config.Stage,
		Description: "GET /hello",
	}, template.DependsOn(s.HelloMethod))
}

// invocationURI is the API Gateway integration URI of a Lambda function.
func invocationURI(fn template.Handle) Join {
	return Join{
		Delimiter: "",
		Values: []any{
			"arn:", AWS_PARTITION, ":apigateway:", AWS_REGION,
			":lambda:path/2015-03-31/functions/", fn.GetAtt(lambda.AttrArn), "/invocations",
		},
	}
}

// lambdaArchitecture maps the configured architecture to the Lambda value.
func lambdaArchitecture(arch config.Architecture) string {
	if arch == config.ArchARM64 {
		return lambda.ArchitectureARM64
	}
	return lambda.ArchitectureX86_64
}
