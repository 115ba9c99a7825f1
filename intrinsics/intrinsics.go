// Package intrinsics provides CloudFormation intrinsic functions.
//
// This package re-exports the core intrinsic types from cloudformation-schema-go
// and adds template parameters and IAM policy-specific types.
//
// Core intrinsic functions:
//
//	Ref{LogicalName: "RestAPI"} → {"Ref": "RestAPI"}
//	Sub{String: "${AWS::StackName}-api"} → {"Fn::Sub": "${AWS::StackName}-api"}
//	Join{Delimiter: "", Values: []any{"a", "b"}} → {"Fn::Join": ["", ["a", "b"]]}
//
// Pseudo-parameters:
//
//	AWS_REGION, AWS_ACCOUNT_ID, AWS_STACK_NAME, etc.
package intrinsics

import (
	"encoding/json"

	"github.com/lex00/cloudformation-schema-go/intrinsics"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// SubWithMap is Fn::Sub with a variable map.
	SubWithMap = intrinsics.SubWithMap

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join

	// Select represents a CloudFormation Fn::Select intrinsic function.
	Select = intrinsics.Select

	// Split represents a CloudFormation Fn::Split intrinsic function.
	Split = intrinsics.Split
)

// Parameter defines a CloudFormation template parameter.
// When used as a value in resource properties, it serializes to {"Ref": "ParameterName"}.
//
// Example:
//
//	image := b.AddParameter("AuthorizerImageUri", Parameter{
//	    Type:        "String",
//	    Description: "ECR image URI of the authorizer function",
//	})
//
//	fn := &lambda.Function{
//	    Code: &lambda.Function_Code{ImageUri: image},  // {"Ref": "AuthorizerImageUri"}
//	}
type Parameter struct {
	// Type is the CloudFormation parameter type (String, Number, etc.)
	Type string
	// Description is optional documentation for the parameter
	Description string
	// Default is the default value if none is provided
	Default any
	// AllowedValues restricts the parameter to specific values
	AllowedValues []any
	// AllowedPattern is a regex pattern for String type validation
	AllowedPattern string
	// ConstraintDescription explains validation failures
	ConstraintDescription string
	// MinLength is minimum string length (for String type)
	MinLength *int
	// MaxLength is maximum string length (for String type)
	MaxLength *int
	// NoEcho masks the parameter value in console/logs
	NoEcho bool

	// name is set on registration to enable Ref serialization
	name string
}

// SetName sets the parameter name for Ref serialization.
// This is called by the template builder on registration.
func (p *Parameter) SetName(name string) {
	p.name = name
}

// Name returns the parameter name.
func (p Parameter) Name() string {
	return p.name
}

// MarshalJSON serializes Parameter as a CloudFormation Ref when used as a value.
func (p Parameter) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"Ref": p.name})
}

// ToDefinition returns the parameter as it appears in the Parameters section.
func (p Parameter) ToDefinition() jwtgateway.Parameter {
	typ := p.Type
	if typ == "" {
		typ = "String"
	}
	return jwtgateway.Parameter{
		Type:                  typ,
		Description:           p.Description,
		Default:               p.Default,
		AllowedValues:         p.AllowedValues,
		AllowedPattern:        p.AllowedPattern,
		ConstraintDescription: p.ConstraintDescription,
		MinLength:             p.MinLength,
		MaxLength:             p.MaxLength,
		NoEcho:                p.NoEcho,
	}
}

// IntPtr returns a pointer to the given int value.
func IntPtr(i int) *int {
	return &i
}
