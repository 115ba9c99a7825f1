package infra

import (
	. "github.com/lex00/wetwire-jwt-gateway/intrinsics"
	"github.com/lex00/wetwire-jwt-gateway/resources/iam"
)

// ----------------------------------------------------------------------------
// Lambda Execution Roles
// ----------------------------------------------------------------------------

// LambdaAssumeRoleStatement allows the Lambda service to assume a role.
var LambdaAssumeRoleStatement = PolicyStatement{
	Effect:    "Allow",
	Principal: ServicePrincipal{"lambda.amazonaws.com"},
	Action:    "sts:AssumeRole",
}

// executionRole is a role limited to writing CloudWatch logs.
func executionRole(description string) *iam.Role {
	return &iam.Role{
		Description:              description,
		AssumeRolePolicyDocument: NewPolicyDocument(LambdaAssumeRoleStatement),
		ManagedPolicyArns:        Any(ManagedPolicyArn("service-role/AWSLambdaBasicExecutionRole")),
	}
}
