// Package apigateway contains CloudFormation resource types for Amazon API Gateway REST APIs.
package apigateway

// Attribute names usable with Handle.GetAtt.
const (
	AttrRootResourceId = "RootResourceId"
	AttrRestApiId      = "RestApiId"
	AttrAuthorizerId   = "AuthorizerId"
	AttrResourceId     = "ResourceId"
)

// Authorization types accepted by Method.AuthorizationType.
const (
	AuthorizationNone    = "NONE"
	AuthorizationCustom  = "CUSTOM"
	AuthorizationIAM     = "AWS_IAM"
	AuthorizationCognito = "COGNITO_USER_POOLS"
)

// Authorizer types accepted by Authorizer.Type_.
const (
	AuthorizerToken   = "TOKEN"
	AuthorizerRequest = "REQUEST"
)

// RestApi represents AWS::ApiGateway::RestApi.
type RestApi struct {
	Name                  any                            `json:"Name,omitempty"`
	Description           any                            `json:"Description,omitempty"`
	EndpointConfiguration *RestApi_EndpointConfiguration `json:"EndpointConfiguration,omitempty"`
	Tags                  []any                          `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r RestApi) ResourceType() string {
	return "AWS::ApiGateway::RestApi"
}

// RestApi_EndpointConfiguration selects the endpoint types of the API.
type RestApi_EndpointConfiguration struct {
	Types []any `json:"Types,omitempty"`
}

// Resource represents AWS::ApiGateway::Resource (a path segment).
type Resource struct {
	RestApiId any `json:"RestApiId,omitempty"`
	ParentId  any `json:"ParentId,omitempty"`
	PathPart  any `json:"PathPart,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Resource) ResourceType() string {
	return "AWS::ApiGateway::Resource"
}

// Method represents AWS::ApiGateway::Method.
type Method struct {
	RestApiId         any                 `json:"RestApiId,omitempty"`
	ResourceId        any                 `json:"ResourceId,omitempty"`
	HttpMethod        any                 `json:"HttpMethod,omitempty"`
	AuthorizationType any                 `json:"AuthorizationType,omitempty"`
	AuthorizerId      any                 `json:"AuthorizerId,omitempty"`
	Integration       *Method_Integration `json:"Integration,omitempty"`
	MethodResponses   []any               `json:"MethodResponses,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Method) ResourceType() string {
	return "AWS::ApiGateway::Method"
}

// Method_Integration configures the backend of a method.
type Method_Integration struct {
	Type_                 any   `json:"Type,omitempty"`
	IntegrationHttpMethod any   `json:"IntegrationHttpMethod,omitempty"`
	Uri                   any   `json:"Uri,omitempty"`
	IntegrationResponses  []any `json:"IntegrationResponses,omitempty"`
}

// Method_IntegrationResponse maps a backend response to a method response.
type Method_IntegrationResponse struct {
	StatusCode any `json:"StatusCode,omitempty"`
}

// Method_MethodResponse declares a response status of a method.
type Method_MethodResponse struct {
	StatusCode any `json:"StatusCode,omitempty"`
}

// Authorizer represents AWS::ApiGateway::Authorizer.
type Authorizer struct {
	RestApiId                    any `json:"RestApiId,omitempty"`
	Name                         any `json:"Name,omitempty"`
	Type_                        any `json:"Type,omitempty"`
	AuthorizerUri                any `json:"AuthorizerUri,omitempty"`
	IdentitySource               any `json:"IdentitySource,omitempty"`
	IdentityValidationExpression any `json:"IdentityValidationExpression,omitempty"`
	AuthorizerResultTtlInSeconds any `json:"AuthorizerResultTtlInSeconds,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Authorizer) ResourceType() string {
	return "AWS::ApiGateway::Authorizer"
}

// Deployment represents AWS::ApiGateway::Deployment.
type Deployment struct {
	RestApiId   any `json:"RestApiId,omitempty"`
	Description any `json:"Description,omitempty"`
	StageName   any `json:"StageName,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Deployment) ResourceType() string {
	return "AWS::ApiGateway::Deployment"
}
