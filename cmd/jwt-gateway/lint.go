package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-jwt-gateway/internal/lint"
)

func newLintCmd() *cobra.Command {
	var (
		outputFormat string
		rules        []string
	)

	cmd := &cobra.Command{
		Use:   "lint [dirs...]",
		Short: "Check stack definitions for hardcoded values and secrets",
		Long: `Lint parses the Go source of the stack definitions and reports hardcoded
regions, account ids, partitions, explicit Ref{}/GetAtt{} literals and
secrets. Defaults to ./infra.

Examples:
    jwt-gateway lint
    jwt-gateway lint ./infra/...
    jwt-gateway lint --rule JWG008 -f json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"./infra"}
			}
			return runLint(args, outputFormat, rules)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringSliceVar(&rules, "rule", nil, "Only run these rule ids")

	return cmd
}

func runLint(dirs []string, format string, rules []string) error {
	combined := lint.Result{Success: true}
	for _, dir := range dirs {
		result, err := lint.LintDir(dir, lint.Options{EnabledRules: rules})
		if err != nil {
			return fmt.Errorf("lint failed: %w", err)
		}
		combined.Issues = append(combined.Issues, result.Issues...)
		combined.Success = combined.Success && result.Success
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(combined, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))

	case "text":
		if len(combined.Issues) == 0 {
			fmt.Println("No issues found.")
			return nil
		}
		for _, issue := range combined.Issues {
			fmt.Println(lint.Format(issue))
			if issue.Suggestion != "" {
				fmt.Printf("    suggestion: %s\n", issue.Suggestion)
			}
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !combined.Success {
		os.Exit(1)
	}

	return nil
}
