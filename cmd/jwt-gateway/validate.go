package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
	"github.com/lex00/wetwire-jwt-gateway/internal/schema"
	"github.com/lex00/wetwire-jwt-gateway/internal/validation"
)

// newValidateCmd creates the "validate" subcommand.
func newValidateCmd() *cobra.Command {
	var (
		flags        stackFlags
		outputFormat string
		skipLint     bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the synthesized template",
		Long: `Validate builds the stack and checks the resulting template.

Checks performed:
  - Build: references resolve and the dependency graph is acyclic
  - Shape: one authorized route, one TOKEN authorizer, authorizer environment
  - Schema: required properties, value types and allowed values
  - cfn-lint: CloudFormation schema and best-practice rules

Examples:
    jwt-gateway validate
    ARCH=arm jwt-gateway validate --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, flags, outputFormat, skipLint)
		},
	}

	addStackFlags(cmd, &flags)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&skipLint, "skip-lint", false, "Skip cfn-lint")

	return cmd
}

func runValidate(cmd *cobra.Command, flags stackFlags, format string, skipLint bool) error {
	stack, err := flags.stack(cmd)
	if err != nil {
		return err
	}

	result := validateStack(stack.Synth, skipLint)
	result.Resources = len(stack.Builder.Names())
	return outputValidateResult(result, format)
}

func validateStack(synth func() (*jwtgateway.Template, error), skipLint bool) jwtgateway.ValidateResult {
	tmpl, err := synth()
	if err != nil {
		return jwtgateway.ValidateResult{Errors: []string{err.Error()}}
	}

	result := jwtgateway.ValidateResult{
		Errors: validation.CheckStack(tmpl),
	}

	schemaResult, err := schema.ValidateTemplate(tmpl, schema.Options{})
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	} else {
		for _, e := range schemaResult.Errors {
			result.Errors = append(result.Errors, e.String())
		}
		for _, w := range schemaResult.Warnings {
			result.Warnings = append(result.Warnings, w.String())
		}
	}

	if !skipLint {
		lint, err := validation.LintTemplate(tmpl)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("cfn-lint: %v", err))
		} else {
			result.Errors = append(result.Errors, lint.Errors...)
			result.Warnings = append(result.Warnings, lint.Warnings...)
		}
	}

	result.Success = len(result.Errors) == 0
	return result
}

func outputValidateResult(result jwtgateway.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))

	case "text":
		if result.Success {
			fmt.Printf("Validation passed: %d resources OK\n", result.Resources)
			for _, warnMsg := range result.Warnings {
				fmt.Printf("  WARNING: %s\n", warnMsg)
			}
			return nil
		}

		fmt.Println("Validation FAILED:")
		for _, errMsg := range result.Errors {
			fmt.Printf("  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Printf("  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		os.Exit(1)
	}

	return nil
}
