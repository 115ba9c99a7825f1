package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
	"github.com/lex00/wetwire-jwt-gateway/internal/differ"
)

func newDiffCmd() *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <template1> <template2>",
		Short: "Compare two CloudFormation templates",
		Long:  `Diff compares two JSON or YAML templates semantically: resources,
properties, dependencies, parameters and outputs.

Examples:
    ARCH=arm jwt-gateway synth -o arm.json
    jwt-gateway synth -o x86.json
    jwt-gateway diff x86.json arm.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args[0], args[1], outputFormat, ignoreOrder)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore array element order")

	return cmd
}

func runDiff(file1, file2, format string, ignoreOrder bool) error {
	result, err := differ.CompareFiles(file1, file2, differ.Options{IgnoreOrder: ignoreOrder})
	if err != nil {
		return err
	}
	return outputDiffResult(result, format)
}

func outputDiffResult(result *differ.Result, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))

	case "text":
		if result.Empty() {
			fmt.Println("Templates are identical.")
			return nil
		}

		d := result.Diff
		for _, e := range d.Added {
			fmt.Printf("+ %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range d.Removed {
			fmt.Printf("- %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range d.Modified {
			fmt.Printf("~ %s (%s)\n", e.Resource, e.Type)
			for _, c := range e.Changes {
				fmt.Printf("    %s\n", c)
			}
		}
		for _, section := range [][]jwtgateway.DiffEntry{d.Parameters, d.Outputs} {
			for _, e := range section {
				fmt.Printf("~ %s %s: %s\n", e.Type, e.Resource, strings.Join(e.Changes, ", "))
			}
		}

		s := result.Summary
		fmt.Printf("\n%d added, %d removed, %d modified, %d parameter and %d output changes\n",
			s.Added, s.Removed, s.Modified, s.Parameters, s.Outputs)

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
