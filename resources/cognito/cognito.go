// Package cognito contains CloudFormation resource types for Amazon Cognito user pools.
package cognito

// Attribute names usable with Handle.GetAtt.
const (
	AttrArn          = "Arn"
	AttrProviderName = "ProviderName"
	AttrProviderURL  = "ProviderURL"
	AttrUserPoolId   = "UserPoolId"
	AttrClientId     = "ClientId"
)

// Explicit authentication flows accepted by UserPoolClient.ExplicitAuthFlows.
const (
	FlowAdminUserPassword = "ALLOW_ADMIN_USER_PASSWORD_AUTH"
	FlowCustomAuth        = "ALLOW_CUSTOM_AUTH"
	FlowUserPassword      = "ALLOW_USER_PASSWORD_AUTH"
	FlowUserSRP           = "ALLOW_USER_SRP_AUTH"
	FlowRefreshToken      = "ALLOW_REFRESH_TOKEN_AUTH"
)

// IdentityProviderCognito is the built-in user pool identity provider.
const IdentityProviderCognito = "COGNITO"

// UserPool represents AWS::Cognito::UserPool.
type UserPool struct {
	UserPoolName                any                                   `json:"UserPoolName,omitempty"`
	UsernameAttributes          []any                                 `json:"UsernameAttributes,omitempty"`
	AutoVerifiedAttributes      []any                                 `json:"AutoVerifiedAttributes,omitempty"`
	AdminCreateUserConfig       *UserPool_AdminCreateUserConfig       `json:"AdminCreateUserConfig,omitempty"`
	AccountRecoverySetting      *UserPool_AccountRecoverySetting      `json:"AccountRecoverySetting,omitempty"`
	Policies                    *UserPool_Policies                    `json:"Policies,omitempty"`
	VerificationMessageTemplate *UserPool_VerificationMessageTemplate `json:"VerificationMessageTemplate,omitempty"`
	UserPoolTags                map[string]any                        `json:"UserPoolTags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r UserPool) ResourceType() string {
	return "AWS::Cognito::UserPool"
}

// UserPool_AdminCreateUserConfig controls self sign-up.
type UserPool_AdminCreateUserConfig struct {
	AllowAdminCreateUserOnly any `json:"AllowAdminCreateUserOnly,omitempty"`
}

// UserPool_AccountRecoverySetting lists the recovery mechanisms in priority order.
type UserPool_AccountRecoverySetting struct {
	RecoveryMechanisms []any `json:"RecoveryMechanisms,omitempty"`
}

// UserPool_RecoveryOption is one entry of AccountRecoverySetting.
type UserPool_RecoveryOption struct {
	Name     any `json:"Name,omitempty"`
	Priority any `json:"Priority,omitempty"`
}

// UserPool_Policies wraps the password policy.
type UserPool_Policies struct {
	PasswordPolicy *UserPool_PasswordPolicy `json:"PasswordPolicy,omitempty"`
}

// UserPool_PasswordPolicy constrains user passwords.
type UserPool_PasswordPolicy struct {
	MinimumLength                 any `json:"MinimumLength,omitempty"`
	RequireLowercase              any `json:"RequireLowercase,omitempty"`
	RequireUppercase              any `json:"RequireUppercase,omitempty"`
	RequireNumbers                any `json:"RequireNumbers,omitempty"`
	RequireSymbols                any `json:"RequireSymbols,omitempty"`
	TemporaryPasswordValidityDays any `json:"TemporaryPasswordValidityDays,omitempty"`
}

// UserPool_VerificationMessageTemplate customizes verification messages.
type UserPool_VerificationMessageTemplate struct {
	DefaultEmailOption any `json:"DefaultEmailOption,omitempty"`
	EmailSubject       any `json:"EmailSubject,omitempty"`
	EmailMessage       any `json:"EmailMessage,omitempty"`
}

// UserPoolClient represents AWS::Cognito::UserPoolClient.
type UserPoolClient struct {
	UserPoolId                      any                                `json:"UserPoolId,omitempty"`
	ClientName                      any                                `json:"ClientName,omitempty"`
	GenerateSecret                  any                                `json:"GenerateSecret,omitempty"`
	AccessTokenValidity             any                                `json:"AccessTokenValidity,omitempty"`
	IdTokenValidity                 any                                `json:"IdTokenValidity,omitempty"`
	RefreshTokenValidity            any                                `json:"RefreshTokenValidity,omitempty"`
	TokenValidityUnits              *UserPoolClient_TokenValidityUnits `json:"TokenValidityUnits,omitempty"`
	ExplicitAuthFlows               []any                              `json:"ExplicitAuthFlows,omitempty"`
	AllowedOAuthFlowsUserPoolClient any                                `json:"AllowedOAuthFlowsUserPoolClient,omitempty"`
	AllowedOAuthFlows               []any                              `json:"AllowedOAuthFlows,omitempty"`
	AllowedOAuthScopes              []any                              `json:"AllowedOAuthScopes,omitempty"`
	CallbackURLs                    []any                              `json:"CallbackURLs,omitempty"`
	LogoutURLs                      []any                              `json:"LogoutURLs,omitempty"`
	SupportedIdentityProviders      []any                              `json:"SupportedIdentityProviders,omitempty"`
	PreventUserExistenceErrors      any                                `json:"PreventUserExistenceErrors,omitempty"`
	EnableTokenRevocation           any                                `json:"EnableTokenRevocation,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r UserPoolClient) ResourceType() string {
	return "AWS::Cognito::UserPoolClient"
}

// UserPoolClient_TokenValidityUnits sets the unit of each token validity field.
type UserPoolClient_TokenValidityUnits struct {
	AccessToken  any `json:"AccessToken,omitempty"`
	IdToken      any `json:"IdToken,omitempty"`
	RefreshToken any `json:"RefreshToken,omitempty"`
}
