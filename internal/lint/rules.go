package lint

import (
	"fmt"
	"go/ast"
	"go/token"
	"regexp"
	"strconv"
	"strings"
)

// AllRules returns all available lint rules.
func AllRules() []Rule {
	return []Rule{
		HardcodedPseudoParameter{},
		HardcodedRegion{},
		HardcodedAccountID{},
		HardcodedPartition{},
		AvoidExplicitRef{},
		AvoidExplicitGetAtt{},
		HardcodedPolicyVersion{},
		SecretPattern{},
	}
}

// stringLiterals calls fn for every string literal in file with its
// unquoted value.
func stringLiterals(file *ast.File, fn func(lit *ast.BasicLit, value string)) {
	ast.Inspect(file, func(n ast.Node) bool {
		lit, ok := n.(*ast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			return true
		}
		value, err := strconv.Unquote(lit.Value)
		if err != nil {
			return true
		}
		fn(lit, value)
		return true
	})
}

func issueAt(fset *token.FileSet, pos token.Pos, rule, msg, suggestion string, sev Severity) Issue {
	p := fset.Position(pos)
	return Issue{
		Rule:       rule,
		Message:    msg,
		Suggestion: suggestion,
		File:       p.Filename,
		Line:       p.Line,
		Column:     p.Column,
		Severity:   sev,
	}
}

// HardcodedPseudoParameter detects pseudo-parameter names written as strings.
//
//	// Bad
//	Ref{LogicalName: "AWS::Region"}
//
//	// Good
//	AWS_REGION
type HardcodedPseudoParameter struct{}

func (r HardcodedPseudoParameter) ID() string { return "JWG001" }
func (r HardcodedPseudoParameter) Description() string {
	return "Use pseudo-parameter variables instead of hardcoded strings"
}

var pseudoParams = map[string]string{
	"AWS::Region":    "AWS_REGION",
	"AWS::AccountId": "AWS_ACCOUNT_ID",
	"AWS::StackName": "AWS_STACK_NAME",
	"AWS::Partition": "AWS_PARTITION",
	"AWS::URLSuffix": "AWS_URL_SUFFIX",
}

func (r HardcodedPseudoParameter) Check(file *ast.File, fset *token.FileSet) []Issue {
	var issues []Issue
	stringLiterals(file, func(lit *ast.BasicLit, value string) {
		if constant, found := pseudoParams[value]; found {
			issues = append(issues, issueAt(fset, lit.Pos(), r.ID(),
				"Use "+constant+" instead of \""+value+"\"", constant, SeverityWarning))
		}
	})
	return issues
}

// HardcodedRegion detects region names, which pin the stack to one region.
type HardcodedRegion struct{}

func (r HardcodedRegion) ID() string { return "JWG002" }
func (r HardcodedRegion) Description() string {
	return "Avoid hardcoded region names"
}

var regionPattern = regexp.MustCompile(`^(us|eu|ap|sa|ca|me|af|il|mx|cn)(-gov|-iso|-isob)?-(north|south|east|west|central|northeast|southeast|northwest|southwest)-\d$`)

func (r HardcodedRegion) Check(file *ast.File, fset *token.FileSet) []Issue {
	var issues []Issue
	stringLiterals(file, func(lit *ast.BasicLit, value string) {
		if regionPattern.MatchString(value) {
			issues = append(issues, issueAt(fset, lit.Pos(), r.ID(),
				fmt.Sprintf("Hardcoded region %q", value), "AWS_REGION", SeverityWarning))
		}
	})
	return issues
}

// HardcodedAccountID detects twelve-digit account ids.
type HardcodedAccountID struct{}

func (r HardcodedAccountID) ID() string { return "JWG003" }
func (r HardcodedAccountID) Description() string {
	return "Avoid hardcoded AWS account ids"
}

var accountPattern = regexp.MustCompile(`^\d{12}$`)

func (r HardcodedAccountID) Check(file *ast.File, fset *token.FileSet) []Issue {
	var issues []Issue
	stringLiterals(file, func(lit *ast.BasicLit, value string) {
		if accountPattern.MatchString(value) {
			issues = append(issues, issueAt(fset, lit.Pos(), r.ID(),
				fmt.Sprintf("Hardcoded account id %q", value), "AWS_ACCOUNT_ID", SeverityError))
		}
	})
	return issues
}

// HardcodedPartition detects ARNs fixed to the aws partition, which fail in
// aws-cn and aws-us-gov.
//
//	// Bad
//	"arn:aws:execute-api:..."
//
//	// Good
//	Join{Values: []any{"arn:", AWS_PARTITION, ":execute-api:", ...}}
type HardcodedPartition struct{}

func (r HardcodedPartition) ID() string { return "JWG004" }
func (r HardcodedPartition) Description() string {
	return "Build ARNs with AWS_PARTITION instead of arn:aws:"
}

func (r HardcodedPartition) Check(file *ast.File, fset *token.FileSet) []Issue {
	var issues []Issue
	stringLiterals(file, func(lit *ast.BasicLit, value string) {
		if strings.HasPrefix(value, "arn:aws:") {
			issues = append(issues, issueAt(fset, lit.Pos(), r.ID(),
				"ARN hardcodes the aws partition",
				"Use Sub with ${AWS::Partition} or Join with AWS_PARTITION", SeverityWarning))
		}
	})
	return issues
}

// compositeName returns the type name of a composite literal, with or
// without a package qualifier.
func compositeName(comp *ast.CompositeLit) string {
	switch t := comp.Type.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return t.Sel.Name
	}
	return ""
}

// AvoidExplicitRef detects Ref{} literals naming a resource. A Handle's
// Ref() keeps the reference tied to a registered resource.
//
//	// Bad
//	RestApiId: Ref{LogicalName: "RestAPI"},
//
//	// Good
//	RestApiId: s.RestAPI.Ref(),
type AvoidExplicitRef struct{}

func (r AvoidExplicitRef) ID() string { return "JWG005" }
func (r AvoidExplicitRef) Description() string {
	return "Avoid explicit Ref{} - use the resource handle's Ref()"
}

func (r AvoidExplicitRef) Check(file *ast.File, fset *token.FileSet) []Issue {
	var issues []Issue
	ast.Inspect(file, func(n ast.Node) bool {
		comp, ok := n.(*ast.CompositeLit)
		if !ok || compositeName(comp) != "Ref" {
			return true
		}
		issues = append(issues, issueAt(fset, comp.Pos(), r.ID(),
			"Avoid Ref{} - use the handle returned by Builder.Add",
			"handle.Ref() for resources, the value returned by AddParameter for parameters", SeverityWarning))
		return true
	})
	return issues
}

// AvoidExplicitGetAtt detects GetAtt{} literals.
type AvoidExplicitGetAtt struct{}

func (r AvoidExplicitGetAtt) ID() string { return "JWG006" }
func (r AvoidExplicitGetAtt) Description() string {
	return "Avoid explicit GetAtt{} - use the resource handle's GetAtt()"
}

func (r AvoidExplicitGetAtt) Check(file *ast.File, fset *token.FileSet) []Issue {
	var issues []Issue
	ast.Inspect(file, func(n ast.Node) bool {
		comp, ok := n.(*ast.CompositeLit)
		if !ok || compositeName(comp) != "GetAtt" {
			return true
		}
		issues = append(issues, issueAt(fset, comp.Pos(), r.ID(),
			"Avoid GetAtt{} - use the handle returned by Builder.Add",
			"handle.GetAtt(pkg.AttrX)", SeverityWarning))
		return true
	})
	return issues
}

// HardcodedPolicyVersion detects the policy language version written out.
type HardcodedPolicyVersion struct{}

func (r HardcodedPolicyVersion) ID() string { return "JWG007" }
func (r HardcodedPolicyVersion) Description() string {
	return "Use NewPolicyDocument instead of a literal policy version"
}

func (r HardcodedPolicyVersion) Check(file *ast.File, fset *token.FileSet) []Issue {
	var issues []Issue
	stringLiterals(file, func(lit *ast.BasicLit, value string) {
		if value == "2012-10-17" {
			issues = append(issues, issueAt(fset, lit.Pos(), r.ID(),
				"Hardcoded policy version", "NewPolicyDocument(statements...)", SeverityInfo))
		}
	})
	return issues
}

// SecretPattern detects hardcoded credentials and keys.
type SecretPattern struct{}

func (r SecretPattern) ID() string { return "JWG008" }
func (r SecretPattern) Description() string {
	return "Detect hardcoded secrets, API keys, and private keys"
}

type secretPatternDef struct {
	name    string
	pattern *regexp.Regexp
}

var secretPatterns = []secretPatternDef{
	{"AWS access key", regexp.MustCompile(`^(A3T[A-Z0-9]|AKIA|ABIA|ACCA|ASIA)[A-Z0-9]{16}$`)},
	{"private key", regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|DSA\s+|OPENSSH\s+)?PRIVATE\s+KEY-----`)},
	{"GitHub token", regexp.MustCompile(`^(gh[pousr]_[A-Za-z0-9_]{36,}|github_pat_[A-Za-z0-9_]{22,})$`)},
	{"Slack token", regexp.MustCompile(`^xox[baprs]-[0-9]{10,}-[0-9]{10,}-[a-zA-Z0-9]{24,}$`)},
	{"JWT", regexp.MustCompile(`^eyJ[A-Za-z0-9_-]{8,}\.eyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{16,}$`)},
}

// sensitiveFieldNames are keys that commonly hold secrets.
var sensitiveFieldNames = map[string]bool{
	"password":      true,
	"secret":        true,
	"client_secret": true,
	"clientsecret":  true,
	"api_key":       true,
	"apikey":        true,
	"private_key":   true,
	"privatekey":    true,
	"token":         true,
	"bearer_token":  true,
}

func (r SecretPattern) Check(file *ast.File, fset *token.FileSet) []Issue {
	var issues []Issue

	stringLiterals(file, func(lit *ast.BasicLit, value string) {
		for _, sp := range secretPatterns {
			if sp.pattern.MatchString(value) {
				issues = append(issues, issueAt(fset, lit.Pos(), r.ID(),
					fmt.Sprintf("Potential %s detected - avoid hardcoding secrets", sp.name),
					"Pass the value as a NoEcho parameter or read it from Secrets Manager", SeverityError))
				return
			}
		}
	})

	ast.Inspect(file, func(n ast.Node) bool {
		kv, ok := n.(*ast.KeyValueExpr)
		if !ok {
			return true
		}

		var keyName string
		switch key := kv.Key.(type) {
		case *ast.Ident:
			keyName = strings.ToLower(key.Name)
		case *ast.BasicLit:
			if s, err := strconv.Unquote(key.Value); err == nil {
				keyName = strings.ToLower(s)
			}
		}
		if !sensitiveFieldNames[keyName] {
			return true
		}

		lit, ok := kv.Value.(*ast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			return true
		}
		value, err := strconv.Unquote(lit.Value)
		if err != nil || len(value) < 8 || isPlaceholder(value) {
			return true
		}

		issues = append(issues, issueAt(fset, lit.Pos(), r.ID(),
			fmt.Sprintf("Hardcoded value in sensitive field '%s'", keyName),
			"Pass the value as a NoEcho parameter or read it from Secrets Manager", SeverityError))
		return true
	})

	return issues
}

// isPlaceholder checks if a string looks like a placeholder
func isPlaceholder(s string) bool {
	s = strings.ToLower(s)
	for _, p := range []string{"changeme", "placeholder", "example", "your-", "<", "xxx", "dummy"} {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
