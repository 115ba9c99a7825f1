package infra

import (
	. "github.com/lex00/wetwire-jwt-gateway/intrinsics"
	"github.com/lex00/wetwire-jwt-gateway/internal/template"
	"github.com/lex00/wetwire-jwt-gateway/resources/cognito"
)

// ----------------------------------------------------------------------------
// User Pool
// ----------------------------------------------------------------------------

func (s *Stack) addIdentity() {
	s.UserPool = s.Builder.Add(UserPoolName, &cognito.UserPool{
		UserPoolName:           s.Config.UserPoolName,
		UsernameAttributes:     Any("email"),
		AutoVerifiedAttributes: Any("email"),
		AdminCreateUserConfig: &cognito.UserPool_AdminCreateUserConfig{
			AllowAdminCreateUserOnly: false,
		},
		AccountRecoverySetting: &cognito.UserPool_AccountRecoverySetting{
			RecoveryMechanisms: Any(cognito.UserPool_RecoveryOption{Name: "verified_email", Priority: 1}),
		},
	}, template.RemovalPolicy(template.Delete))

	// ------------------------------------------------------------------------
	// App Client
	// ------------------------------------------------------------------------

	s.UserPoolClient = s.Builder.Add(UserPoolClientName, &cognito.UserPoolClient{
		UserPoolId:           s.UserPool.Ref(),
		ClientName:           Sub{String: "${AWS::StackName}-client"},
		GenerateSecret:       false,
		AccessTokenValidity:  s.Config.TokenValidityMinutes,
		IdTokenValidity:      s.Config.TokenValidityMinutes,
		RefreshTokenValidity: s.Config.RefreshTokenValidityDays,
		TokenValidityUnits: &cognito.UserPoolClient_TokenValidityUnits{
			AccessToken:  "minutes",
			IdToken:      "minutes",
			RefreshToken: "days",
		},
		ExplicitAuthFlows: Any(
			cognito.FlowUserPassword,
			cognito.FlowAdminUserPassword,
			cognito.FlowUserSRP,
			cognito.FlowRefreshToken,
		),
		AllowedOAuthFlowsUserPoolClient: true,
		AllowedOAuthFlows:               Any("code", "implicit"),
		AllowedOAuthScopes:              Any("openid", "email", "profile"),
		CallbackURLs:                    Any(s.Config.CallbackURL),
		SupportedIdentityProviders:      Any(cognito.IdentityProviderCognito),
		PreventUserExistenceErrors:      "ENABLED",
	})
}
