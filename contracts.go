// Package jwtgateway declares a Cognito-protected API Gateway stack in Go and
// synthesizes it into a CloudFormation template.
//
// Resources are plain Go structs registered with a template builder:
//
//	b := template.NewBuilder("hello api")
//	pool := b.Add("UserPool", &cognito.UserPool{UserPoolName: "users"})
//	b.Add("UserPoolClient", &cognito.UserPoolClient{
//	    UserPoolId: pool.Ref(),  // {"Ref": "UserPool"}
//	})
//
// The jwt-gateway CLI runs the stack constructor in package infra and emits
// the template as JSON or YAML.
package jwtgateway

import (
	"encoding/json"
)

// Resource represents a CloudFormation resource.
// All resource types (cognito.UserPool, lambda.Function, etc.) implement this interface.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::Lambda::Function")
	ResourceType() string
}

// AttrRef represents a GetAtt reference to a resource attribute.
//
// Example:
//
//	fn := b.Add("HelloFunction", &lambda.Function{...})
//	arn := fn.GetAtt(lambda.AttrArn)  // AttrRef{"HelloFunction", "Arn"}
//
// When serialized to CloudFormation JSON, AttrRef becomes:
//
//	{"Fn::GetAtt": ["HelloFunction", "Arn"]}
type AttrRef struct {
	// Resource is the logical name of the referenced resource
	Resource string
	// Attribute is the attribute name (e.g., "Arn", "RootResourceId")
	Attribute string
}

// MarshalJSON serializes AttrRef to CloudFormation GetAtt syntax.
func (a AttrRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]string{
		"Fn::GetAtt": {a.Resource, a.Attribute},
	})
}

// IsZero returns true if the AttrRef has not been populated.
func (a AttrRef) IsZero() bool {
	return a.Resource == "" && a.Attribute == ""
}

// RegisteredResource describes a resource after the builder has resolved
// its references.
type RegisteredResource struct {
	// Name is the logical ID in the template
	Name string `json:"name"`
	// Type is the CloudFormation type (e.g., "AWS::Cognito::UserPool")
	Type string `json:"type"`
	// Dependencies are logical names of referenced resources, sorted
	Dependencies []string `json:"dependencies,omitempty"`
	// AttrDependencies is the subset of Dependencies reached through Fn::GetAtt
	AttrDependencies []string `json:"attr_dependencies,omitempty"`
	// Parameters are the template parameters the resource references, sorted
	Parameters []string `json:"parameters,omitempty"`
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type                string         `json:"Type" yaml:"Type"`
	Properties          map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn           []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
	DeletionPolicy      string         `json:"DeletionPolicy,omitempty" yaml:"DeletionPolicy,omitempty"`
	UpdateReplacePolicy string         `json:"UpdateReplacePolicy,omitempty" yaml:"UpdateReplacePolicy,omitempty"`
}

// Parameter is a CloudFormation template parameter.
type Parameter struct {
	Type                  string `json:"Type" yaml:"Type"`
	Description           string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default               any    `json:"Default,omitempty" yaml:"Default,omitempty"`
	AllowedValues         []any  `json:"AllowedValues,omitempty" yaml:"AllowedValues,omitempty"`
	AllowedPattern        string `json:"AllowedPattern,omitempty" yaml:"AllowedPattern,omitempty"`
	ConstraintDescription string `json:"ConstraintDescription,omitempty" yaml:"ConstraintDescription,omitempty"`
	MinLength             *int   `json:"MinLength,omitempty" yaml:"MinLength,omitempty"`
	MaxLength             *int   `json:"MaxLength,omitempty" yaml:"MaxLength,omitempty"`
	NoEcho                bool   `json:"NoEcho,omitempty" yaml:"NoEcho,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string        `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any           `json:"Value" yaml:"Value"`
	Export      *OutputExport `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// OutputExport names a cross-stack export.
type OutputExport struct {
	Name any `json:"Name" yaml:"Name"`
}

// BuildResult is the JSON output from `jwt-gateway synth`.
type BuildResult struct {
	Success   bool     `json:"success"`
	Template  Template `json:"template,omitempty"`
	Resources []string `json:"resources,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// ValidateResult is the JSON output from `jwt-gateway validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `jwt-gateway list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single resource in the list output.
type ListResource struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// DiffEntry is a single added, removed or modified resource.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// TemplateDiff groups the differences between two templates. Parameter
// and output entries carry the change ("added", "removed", "modified") in
// Changes and the section name in Type.
type TemplateDiff struct {
	Added      []DiffEntry `json:"added,omitempty"`
	Removed    []DiffEntry `json:"removed,omitempty"`
	Modified   []DiffEntry `json:"modified,omitempty"`
	Parameters []DiffEntry `json:"parameters,omitempty"`
	Outputs    []DiffEntry `json:"outputs,omitempty"`
}

// DiffSummary counts the entries of a TemplateDiff.
type DiffSummary struct {
	Added      int `json:"added"`
	Removed    int `json:"removed"`
	Modified   int `json:"modified"`
	Parameters int `json:"parameters"`
	Outputs    int `json:"outputs"`
	Total      int `json:"total"`
}

// OptimizeSuggestion is a single improvement proposed by `jwt-gateway optimize`.
type OptimizeSuggestion struct {
	Rule        string `json:"rule"`
	Resource    string `json:"resource"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// OptimizeSummary counts suggestions per category.
type OptimizeSummary struct {
	Security    int `json:"security"`
	Cost        int `json:"cost"`
	Performance int `json:"performance"`
	Reliability int `json:"reliability"`
	Total       int `json:"total"`
}

// OptimizeResult is the JSON output from `jwt-gateway optimize`.
type OptimizeResult struct {
	Success       bool                 `json:"success"`
	Suggestions   []OptimizeSuggestion `json:"suggestions,omitempty"`
	ResourceCount int                  `json:"resource_count"`
	Summary       OptimizeSummary      `json:"summary"`
}

// SchemaError is a property that does not match the resource schema.
type SchemaError struct {
	Resource string `json:"resource"`
	Property string `json:"property"`
	Message  string `json:"message"`
}

func (e SchemaError) String() string {
	return e.Resource + "." + e.Property + ": " + e.Message
}
