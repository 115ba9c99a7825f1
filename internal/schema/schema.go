// Package schema checks template resources against the required
// properties, value shapes and cross-property rules of the resource types
// the stack uses. It runs offline, before cfn-lint.
package schema

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
)

// Options configures schema validation.
type Options struct {
	// Strict reports properties the schema does not know as warnings.
	Strict bool
}

// Result contains schema validation results.
type Result struct {
	Valid    bool
	Errors   []jwtgateway.SchemaError
	Warnings []jwtgateway.SchemaError
}

// Kind is the shape a literal property value must have. Intrinsic
// functions are accepted for every kind and resolve at deploy time.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInteger
	KindBoolean
	KindList
	KindObject
	// KindPolicy is an IAM policy document with a non-empty Statement list.
	KindPolicy
	// KindArn is a string starting with "arn:".
	KindArn
)

var kindNames = map[Kind]string{
	KindAny:     "Any",
	KindString:  "String",
	KindInteger: "Integer",
	KindBoolean: "Boolean",
	KindList:    "List",
	KindObject:  "Map",
	KindPolicy:  "PolicyDocument",
	KindArn:     "Arn",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// PropertySchema describes one property.
type PropertySchema struct {
	Kind Kind
	// Allowed restricts string values, or list items for KindList.
	Allowed []string
	// Bounded enables the inclusive Min..Max range of an integer.
	Bounded  bool
	Min, Max int
	// MaxItems limits list length when positive.
	MaxItems int
	// Regexp requires the value to compile as a regular expression.
	Regexp bool
	// Prefix is required at the start of literal string values.
	Prefix string
}

// Rule is a cross-property check over a resource's properties.
type Rule func(props map[string]any) []Finding

// Finding is a single rule result.
type Finding struct {
	Property string
	Message  string
}

// ResourceSchema defines the schema for a resource type.
type ResourceSchema struct {
	Required   []string
	Properties map[string]PropertySchema
	Rules      []Rule
}

var resourceTypePattern = regexp.MustCompile(`^AWS::[A-Za-z0-9]+::[A-Za-z0-9]+$`)

// ValidateTemplate validates a template against the known resource schemas.
// Findings are ordered by resource name.
func ValidateTemplate(template *jwtgateway.Template, opts Options) (*Result, error) {
	if template == nil {
		return nil, fmt.Errorf("template is nil")
	}
	result := &Result{Valid: true}

	names := make([]string, 0, len(template.Resources))
	for name := range template.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		errs, warnings := validateResource(name, template.Resources[name], opts)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warnings...)
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}

func validateResource(name string, resource jwtgateway.ResourceDef, opts Options) (errs, warnings []jwtgateway.SchemaError) {
	report := func(list *[]jwtgateway.SchemaError, property, format string, args ...any) {
		*list = append(*list, jwtgateway.SchemaError{Resource: name, Property: property, Message: fmt.Sprintf(format, args...)})
	}

	if !validResourceType(resource.Type) {
		report(&errs, "Type", "invalid resource type format: %s", resource.Type)
	}

	schema, ok := resourceSchemas[resource.Type]
	if !ok {
		report(&warnings, "Type", "unknown resource type: %s (schema not available for validation)", resource.Type)
		return errs, warnings
	}

	for _, required := range schema.Required {
		if _, exists := resource.Properties[required]; !exists {
			report(&errs, required, "missing required property: %s", required)
		}
	}

	props := make([]string, 0, len(resource.Properties))
	for prop := range resource.Properties {
		props = append(props, prop)
	}
	sort.Strings(props)

	for _, prop := range props {
		ps, ok := schema.Properties[prop]
		if !ok {
			if opts.Strict {
				report(&warnings, prop, "unknown property: %s", prop)
			}
			continue
		}
		for _, msg := range checkProperty(resource.Properties[prop], ps) {
			report(&errs, prop, "%s", msg)
		}
	}

	for _, rule := range schema.Rules {
		for _, f := range rule(resource.Properties) {
			report(&errs, f.Property, "%s", f.Message)
		}
	}
	return errs, warnings
}

func validResourceType(t string) bool {
	if strings.HasPrefix(t, "Custom::") {
		return len(t) > len("Custom::")
	}
	return resourceTypePattern.MatchString(t)
}

// checkProperty returns the problems of one value. Intrinsics are opaque.
func checkProperty(value any, ps PropertySchema) []string {
	if IsIntrinsic(value) {
		return nil
	}

	switch ps.Kind {
	case KindString, KindArn:
		s, ok := value.(string)
		if !ok {
			return []string{fmt.Sprintf("expected type %s", ps.Kind)}
		}
		return checkString(s, ps)

	case KindInteger:
		n, ok := toInt(value)
		if !ok {
			return []string{fmt.Sprintf("expected type %s", ps.Kind)}
		}
		if ps.Bounded && (n < ps.Min || n > ps.Max) {
			return []string{fmt.Sprintf("value %d out of range [%d, %d]", n, ps.Min, ps.Max)}
		}

	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return []string{fmt.Sprintf("expected type %s", ps.Kind)}
		}

	case KindList:
		items, ok := value.([]any)
		if !ok {
			return []string{fmt.Sprintf("expected type %s", ps.Kind)}
		}
		return checkList(items, ps)

	case KindObject:
		if _, ok := value.(map[string]any); !ok {
			return []string{fmt.Sprintf("expected type %s", ps.Kind)}
		}

	case KindPolicy:
		return checkPolicy(value)
	}
	return nil
}

func checkString(s string, ps PropertySchema) []string {
	var problems []string
	if len(ps.Allowed) > 0 && !contains(ps.Allowed, s) {
		problems = append(problems, fmt.Sprintf("value %q not in allowed values: %v", s, ps.Allowed))
	}
	if ps.Kind == KindArn && !strings.HasPrefix(s, "arn:") {
		problems = append(problems, fmt.Sprintf("value %q is not an ARN", s))
	}
	if ps.Prefix != "" && !strings.HasPrefix(s, ps.Prefix) {
		problems = append(problems, fmt.Sprintf("value %q must start with %q", s, ps.Prefix))
	}
	if ps.Regexp {
		if _, err := regexp.Compile(s); err != nil {
			problems = append(problems, fmt.Sprintf("invalid regular expression: %v", err))
		}
	}
	return problems
}

func checkList(items []any, ps PropertySchema) []string {
	var problems []string
	if ps.MaxItems > 0 && len(items) > ps.MaxItems {
		problems = append(problems, fmt.Sprintf("expected at most %d item(s), got %d", ps.MaxItems, len(items)))
	}
	if len(ps.Allowed) == 0 {
		return problems
	}
	for _, item := range items {
		if IsIntrinsic(item) {
			continue
		}
		if s, ok := item.(string); !ok || !contains(ps.Allowed, s) {
			problems = append(problems, fmt.Sprintf("item %v not in allowed values: %v", item, ps.Allowed))
		}
	}
	return problems
}

func checkPolicy(value any) []string {
	doc, ok := value.(map[string]any)
	if !ok {
		return []string{fmt.Sprintf("expected type %s", KindPolicy)}
	}
	var problems []string
	if v, ok := doc["Version"]; ok {
		if s, _ := v.(string); s != "2012-10-17" && s != "2008-10-17" {
			problems = append(problems, fmt.Sprintf("unsupported policy version %v", v))
		}
	}
	stmts, ok := doc["Statement"].([]any)
	if !ok || len(stmts) == 0 {
		problems = append(problems, "policy document has no statements")
	}
	return problems
}

// IsIntrinsic reports whether v is a single intrinsic function call such
// as {"Ref": ...} or {"Fn::GetAtt": ...}.
func IsIntrinsic(v any) bool {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return false
	}
	for key := range m {
		return key == "Ref" || strings.HasPrefix(key, "Fn::")
	}
	return false
}

// toInt accepts the integer shapes produced by the serializer and by
// JSON or YAML decoding.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
