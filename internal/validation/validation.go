// Package validation checks a synthesized template: cfn-lint-go rules plus
// the structural guarantees of the JWT gateway stack.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
	"github.com/lex00/wetwire-jwt-gateway/internal/config"
	"github.com/lex00/wetwire-jwt-gateway/internal/template"
)

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// RunCfnLint runs cfn-lint-go on the given template file.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	for _, match := range matches {
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Warnings do not fail validation.
	result.Passed = len(result.Errors) == 0

	return result, nil
}

// LintTemplate writes the template to a temporary JSON file and lints it.
func LintTemplate(tmpl *jwtgateway.Template) (*CfnLintResult, error) {
	data, err := template.ToJSON(tmpl)
	if err != nil {
		return nil, fmt.Errorf("rendering template: %w", err)
	}

	dir, err := os.MkdirTemp("", "jwt-gateway-lint")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "template.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("writing template: %w", err)
	}

	return RunCfnLint(path)
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	pathStr := ""
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		pathStr = strings.Join(parts, "/")
	}

	if pathStr != "" {
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, pathStr)
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

// Authorizer environment keys every synthesized stack must set.
var requiredAuthorizerEnv = []string{
	config.EnvAccountID,
	config.EnvAPIID,
	config.EnvAPIRegion,
	config.EnvCognitoAppClientID,
	config.EnvCognitoUserPoolID,
}

// CheckStack verifies the shape of a synthesized JWT gateway template and
// returns one message per violation:
//   - exactly one API Gateway method, guarded by a CUSTOM authorizer;
//   - exactly one TOKEN authorizer with a validation expression;
//   - an image-packaged authorizer function whose environment holds the
//     five identifiers as references.
func CheckStack(tmpl *jwtgateway.Template) []string {
	var problems []string

	methods := ofType(tmpl, "AWS::ApiGateway::Method")
	authorizers := ofType(tmpl, "AWS::ApiGateway::Authorizer")

	if len(methods) != 1 {
		problems = append(problems, fmt.Sprintf("expected exactly one route, found %d", len(methods)))
	}
	if len(authorizers) != 1 {
		problems = append(problems, fmt.Sprintf("expected exactly one authorizer, found %d", len(authorizers)))
	}

	for _, name := range methods {
		props := tmpl.Resources[name].Properties
		if props["AuthorizationType"] != "CUSTOM" {
			problems = append(problems, fmt.Sprintf("%s: route is not guarded by the authorizer", name))
		}
		if _, ok := props["Integration"].(map[string]any); !ok {
			problems = append(problems, fmt.Sprintf("%s: route has no integration", name))
		}
	}

	for _, name := range authorizers {
		props := tmpl.Resources[name].Properties
		if props["Type"] != "TOKEN" {
			problems = append(problems, fmt.Sprintf("%s: authorizer type is %v, want TOKEN", name, props["Type"]))
		}
		if expr, _ := props["IdentityValidationExpression"].(string); expr == "" {
			problems = append(problems, fmt.Sprintf("%s: missing identity validation expression", name))
		}
	}

	found := false
	for _, name := range ofType(tmpl, "AWS::Lambda::Function") {
		props := tmpl.Resources[name].Properties
		if props["PackageType"] != "Image" {
			continue
		}
		found = true
		problems = append(problems, checkEnvironment(name, props)...)
	}
	if !found {
		problems = append(problems, "no container-image authorizer function")
	}

	return problems
}

func checkEnvironment(name string, props map[string]any) []string {
	env, _ := props["Environment"].(map[string]any)
	vars, _ := env["Variables"].(map[string]any)

	var problems []string
	if len(vars) != len(requiredAuthorizerEnv) {
		problems = append(problems, fmt.Sprintf("%s: environment has %d entries, want %d", name, len(vars), len(requiredAuthorizerEnv)))
	}
	for _, key := range requiredAuthorizerEnv {
		v, ok := vars[key]
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: environment is missing %s", name, key))
			continue
		}
		ref, isMap := v.(map[string]any)
		if _, hasRef := ref["Ref"]; !isMap || !hasRef {
			problems = append(problems, fmt.Sprintf("%s: %s must be a reference, got %v", name, key, v))
		}
	}
	return problems
}

func ofType(tmpl *jwtgateway.Template, typ string) []string {
	var names []string
	for name, def := range tmpl.Resources {
		if def.Type == typ {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
