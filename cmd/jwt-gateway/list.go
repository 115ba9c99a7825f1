package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
)

func newListCmd() *cobra.Command {
	var (
		flags        stackFlags
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered resources",
		Long: `List displays every resource of the stack with its type and dependencies.

Examples:
    jwt-gateway list
    jwt-gateway list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, flags, outputFormat)
		},
	}

	addStackFlags(cmd, &flags)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func runList(cmd *cobra.Command, flags stackFlags, format string) error {
	stack, err := flags.stack(cmd)
	if err != nil {
		return err
	}

	resources, err := stack.Resources()
	if err != nil {
		return err
	}

	listResult := jwtgateway.ListResult{
		Resources: make([]jwtgateway.ListResource, 0, len(resources)),
	}
	for name, res := range resources {
		listResult.Resources = append(listResult.Resources, jwtgateway.ListResource{
			Name:         name,
			Type:         res.Type,
			Dependencies: res.Dependencies,
		})
	}

	sort.Slice(listResult.Resources, func(i, j int) bool {
		return listResult.Resources[i].Name < listResult.Resources[j].Name
	})

	return outputListResult(listResult, format)
}

func outputListResult(result jwtgateway.ListResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))

	case "text":
		if len(result.Resources) == 0 {
			fmt.Println("No resources found.")
			return nil
		}

		fmt.Printf("Registered resources (%d):\n\n", len(result.Resources))
		for _, res := range result.Resources {
			fmt.Printf("  %s: %s\n", res.Name, res.Type)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
