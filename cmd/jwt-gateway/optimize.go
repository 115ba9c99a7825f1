package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
	"github.com/lex00/wetwire-jwt-gateway/internal/optimizer"
)

// newOptimizeCmd creates the "optimize" subcommand for suggesting improvements.
func newOptimizeCmd() *cobra.Command {
	var (
		flags        stackFlags
		outputFormat string
		category     string
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Suggest CloudFormation optimizations",
		Long: `Optimize inspects the synthesized template and suggests improvements
for security, cost, performance, and reliability.

Examples:
    jwt-gateway optimize
    jwt-gateway optimize --category security
    ARCH=arm jwt-gateway optimize -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !optimizer.ValidCategory(category) {
				return fmt.Errorf("invalid category: %s (valid: all, security, cost, performance, reliability)", category)
			}
			return runOptimize(cmd, flags, outputFormat, category)
		},
	}

	addStackFlags(cmd, &flags)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&category, "category", "all", "Category: all, security, cost, performance, or reliability")

	return cmd
}

func runOptimize(cmd *cobra.Command, flags stackFlags, format, category string) error {
	stack, err := flags.stack(cmd)
	if err != nil {
		return err
	}

	tmpl, err := stack.Synth()
	if err != nil {
		return fmt.Errorf("optimize failed: %w", err)
	}

	optResult, err := optimizer.Optimize(tmpl, optimizer.Options{Category: category})
	if err != nil {
		return fmt.Errorf("optimize failed: %w", err)
	}

	return outputOptimizeResult(jwtgateway.OptimizeResult{
		Success:       true,
		Suggestions:   optResult.Suggestions,
		ResourceCount: len(tmpl.Resources),
		Summary:       optResult.Summary,
	}, format)
}

func outputOptimizeResult(result jwtgateway.OptimizeResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))

	case "text":
		if len(result.Suggestions) == 0 {
			fmt.Printf("Analyzed %d resources. No optimization suggestions.\n", result.ResourceCount)
			return nil
		}

		fmt.Printf("Analyzed %d resources. Found %d suggestions:\n\n", result.ResourceCount, result.Summary.Total)

		byCat := map[string][]jwtgateway.OptimizeSuggestion{}
		for _, s := range result.Suggestions {
			byCat[s.Category] = append(byCat[s.Category], s)
		}

		for _, cat := range optimizer.Categories {
			suggestions := byCat[cat]
			if len(suggestions) == 0 {
				continue
			}

			fmt.Printf("=== %s (%d) ===\n", capitalize(cat), len(suggestions))
			for _, s := range suggestions {
				fmt.Printf("\n[%s] %s (%s)\n", s.Severity, s.Title, s.Rule)
				fmt.Printf("  Resource: %s\n", s.Resource)
				fmt.Printf("  %s\n", s.Description)
				fmt.Printf("  Suggestion: %s\n", s.Suggestion)
			}
			fmt.Println()
		}

		fmt.Printf("Summary: %d security, %d cost, %d performance, %d reliability\n",
			result.Summary.Security, result.Summary.Cost,
			result.Summary.Performance, result.Summary.Reliability)

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return string(s[0]-32) + s[1:]
}
