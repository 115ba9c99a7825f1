package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-jwt-gateway/internal/deploy"
	"github.com/lex00/wetwire-jwt-gateway/internal/logging"
)

func newDeployCmd() *cobra.Command {
	var (
		flags        stackFlags
		stackName    string
		region       string
		params       []string
		tags         []string
		timeout      time.Duration
		outputFormat string
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Create or update the CloudFormation stack",
		Long: `Deploy synthesizes the template and creates the stack, or updates it when it
already exists. Credentials and region come from the standard AWS
configuration chain.

Examples:
    jwt-gateway deploy \
        --param HelloCodeBucket=my-artifacts \
        --param HelloCodeKey=hello/bootstrap.zip \
        --param AuthorizerImageUri=123456789012.dkr.ecr.us-east-1.amazonaws.com/jwt-authorizer:latest`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, err := flags.stack(cmd)
			if err != nil {
				return err
			}
			tmpl, err := stack.Synth()
			if err != nil {
				return fmt.Errorf("synth failed: %w", err)
			}

			paramValues, err := deploy.ParseParameters(params)
			if err != nil {
				return err
			}
			tagValues, err := deploy.ParseParameters(tags)
			if err != nil {
				return fmt.Errorf("invalid tag: %w", err)
			}

			log := logging.New(verbose)
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			d, err := deploy.NewFromConfig(ctx, region, log, deploy.WithTimeout(timeout))
			if err != nil {
				return err
			}

			result, err := d.Deploy(ctx, deploy.Input{
				StackName:  stackName,
				Template:   tmpl,
				Parameters: paramValues,
				Tags:       tagValues,
			})
			if err != nil {
				return err
			}
			return outputDeployResult(result, outputFormat)
		},
	}

	addStackFlags(cmd, &flags)
	cmd.Flags().StringVarP(&stackName, "stack-name", "s", "jwt-gateway", "CloudFormation stack name")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (default: from AWS config)")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Template parameter as KEY=VALUE (repeatable)")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Stack tag as KEY=VALUE (repeatable)")
	cmd.Flags().DurationVar(&timeout, "timeout", deploy.DefaultTimeout, "Maximum time to wait for the stack")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	return cmd
}

func outputDeployResult(result *deploy.Result, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))

	case "text":
		if result.Operation == deploy.OperationNone {
			fmt.Printf("Stack %s is up to date\n", result.StackName)
		} else {
			fmt.Printf("Stack %s: %s finished with %s\n", result.StackName, result.Operation, result.Status)
		}

		keys := make([]string, 0, len(result.Outputs))
		for k := range result.Outputs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", k, result.Outputs[k])
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
