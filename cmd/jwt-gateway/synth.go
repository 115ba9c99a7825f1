package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
	"github.com/lex00/wetwire-jwt-gateway/internal/template"
)

func newSynthCmd() *cobra.Command {
	var (
		flags        stackFlags
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate the CloudFormation template",
		Long: `Synth builds the stack and prints its CloudFormation template.

Examples:
    jwt-gateway synth
    jwt-gateway synth -o template.json
    ARCH=arm jwt-gateway synth --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(cmd, flags, outputFormat, outputFile)
		},
	}

	addStackFlags(cmd, &flags)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runSynth(cmd *cobra.Command, flags stackFlags, format, outputFile string) error {
	stack, err := flags.stack(cmd)
	if err != nil {
		return err
	}

	tmpl, err := stack.Synth()
	if err != nil {
		return outputResult(jwtgateway.BuildResult{
			Success: false,
			Errors:  []string{err.Error()},
		}, format, outputFile)
	}

	return outputResult(jwtgateway.BuildResult{
		Success:   true,
		Template:  *tmpl,
		Resources: stack.Builder.Names(),
	}, format, outputFile)
}

func renderTemplate(tmpl *jwtgateway.Template, format string) ([]byte, error) {
	switch format {
	case "json":
		return template.ToJSON(tmpl)
	case "yaml":
		return template.ToYAML(tmpl)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

func outputResult(result jwtgateway.BuildResult, format, outputFile string) error {
	if !result.Success {
		for _, e := range result.Errors {
			fmt.Fprintln(os.Stderr, e)
		}
		return fmt.Errorf("synth failed")
	}

	data, err := renderTemplate(&result.Template, format)
	if err != nil {
		return err
	}

	if outputFile == "" {
		fmt.Println(string(data))
		return nil
	}

	return os.WriteFile(outputFile, data, 0644)
}
