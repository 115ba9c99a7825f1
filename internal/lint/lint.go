// Package lint checks the Go source of stack definitions for patterns that
// make templates less portable or leak secrets.
package lint

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	corelint "github.com/lex00/wetwire-core-go/lint"
)

// Shared lint types from the core lint package.
type (
	Issue    = corelint.Issue
	Severity = corelint.Severity
	Rule     = corelint.Rule
)

const (
	SeverityError   = corelint.SeverityError
	SeverityWarning = corelint.SeverityWarning
	SeverityInfo    = corelint.SeverityInfo
)

// Format renders an issue as file:line:col: severity rule: message.
func Format(i Issue) string {
	return fmt.Sprintf("%s:%d:%d: %v %s: %s", i.File, i.Line, i.Column, i.Severity, i.Rule, i.Message)
}

// Result contains the outcome of linting.
type Result struct {
	Success bool    `json:"success"`
	Issues  []Issue `json:"issues,omitempty"`
}

// Options configures the linter.
type Options struct {
	// Rules to enable. If empty, all rules are enabled.
	EnabledRules []string
}

// LintFile lints a single Go file.
func LintFile(path string, opts Options) (Result, error) {
	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return Result{}, err
	}

	issues := checkFile(file, fset, getRules(opts))
	return Result{Success: !hasErrors(issues), Issues: issues}, nil
}

// LintSource lints Go source held in memory.
func LintSource(filename string, src []byte, opts Options) (Result, error) {
	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return Result{}, err
	}

	issues := checkFile(file, fset, getRules(opts))
	return Result{Success: !hasErrors(issues), Issues: issues}, nil
}

// LintDir lints the non-test Go files of a directory. A trailing "/..."
// descends into subdirectories.
func LintDir(dir string, opts Options) (Result, error) {
	recursive := false
	if strings.HasSuffix(dir, "...") {
		recursive = true
		dir = strings.TrimSuffix(strings.TrimSuffix(dir, "..."), "/")
		if dir == "" {
			dir = "."
		}
	}

	rules := getRules(opts)
	var issues []Issue

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			name := d.Name()
			if !recursive || name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		issues = append(issues, checkFile(file, fset, rules)...)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].File != issues[j].File {
			return issues[i].File < issues[j].File
		}
		return issues[i].Line < issues[j].Line
	})

	return Result{Success: !hasErrors(issues), Issues: issues}, nil
}

func checkFile(file *ast.File, fset *token.FileSet, rules []Rule) []Issue {
	var issues []Issue
	for _, rule := range rules {
		issues = append(issues, rule.Check(file, fset)...)
	}
	return issues
}

func hasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// getRules returns the rules to use based on options.
func getRules(opts Options) []Rule {
	all := AllRules()

	if len(opts.EnabledRules) == 0 {
		return all
	}

	enabled := make(map[string]bool)
	for _, id := range opts.EnabledRules {
		enabled[id] = true
	}

	var filtered []Rule
	for _, r := range all {
		if enabled[r.ID()] {
			filtered = append(filtered, r)
		}
	}

	return filtered
}
