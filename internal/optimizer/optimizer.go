// Package optimizer provides CloudFormation optimization suggestions.
// It inspects the properties of a synthesized template for security, cost,
// performance, and reliability improvements.
package optimizer

import (
	"fmt"
	"sort"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
)

// Categories in report order.
var Categories = []string{"security", "cost", "performance", "reliability"}

// Options configures the optimizer.
type Options struct {
	// Category filters suggestions: "all", "security", "cost", "performance", "reliability"
	Category string
}

// Result contains optimization suggestions.
type Result struct {
	Suggestions []jwtgateway.OptimizeSuggestion
	Summary     jwtgateway.OptimizeSummary
}

// ValidCategory reports whether category is "all" or one of Categories.
func ValidCategory(category string) bool {
	if category == "all" || category == "" {
		return true
	}
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Optimize analyzes the resources of tmpl and returns optimization suggestions
// ordered by resource name and rule id.
func Optimize(tmpl *jwtgateway.Template, opts Options) (*Result, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("template is nil")
	}
	if !ValidCategory(opts.Category) {
		return nil, fmt.Errorf("invalid category: %s", opts.Category)
	}

	names := make([]string, 0, len(tmpl.Resources))
	for name := range tmpl.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &Result{}
	for _, name := range names {
		result.Suggestions = append(result.Suggestions, analyzeResource(name, tmpl.Resources[name], opts.Category)...)
	}

	result.Summary = calculateSummary(result.Suggestions)

	return result, nil
}

// analyzeResource applies optimization rules to a single resource.
func analyzeResource(name string, def jwtgateway.ResourceDef, category string) []jwtgateway.OptimizeSuggestion {
	var suggestions []jwtgateway.OptimizeSuggestion

	for _, rule := range rulesByType[def.Type] {
		if category != "" && category != "all" && rule.Category != category {
			continue
		}
		if !rule.Check(def) {
			continue
		}
		suggestions = append(suggestions, jwtgateway.OptimizeSuggestion{
			Rule:        rule.ID,
			Resource:    name,
			Category:    rule.Category,
			Severity:    rule.Severity,
			Title:       rule.Title,
			Description: rule.Description,
			Suggestion:  rule.Suggestion,
		})
	}

	return suggestions
}

// calculateSummary tallies suggestions by category.
func calculateSummary(suggestions []jwtgateway.OptimizeSuggestion) jwtgateway.OptimizeSummary {
	summary := jwtgateway.OptimizeSummary{}
	for _, s := range suggestions {
		switch s.Category {
		case "security":
			summary.Security++
		case "cost":
			summary.Cost++
		case "performance":
			summary.Performance++
		case "reliability":
			summary.Reliability++
		}
		summary.Total++
	}
	return summary
}

// Rule is an optimization rule. Check returns true when the suggestion
// applies to the resource.
type Rule struct {
	ID          string
	Category    string
	Severity    string
	Title       string
	Description string
	Suggestion  string
	Check       func(def jwtgateway.ResourceDef) bool
}
