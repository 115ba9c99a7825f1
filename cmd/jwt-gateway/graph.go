package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-jwt-gateway/internal/graph"
)

func newGraphCmd() *cobra.Command {
	var (
		flags             stackFlags
		outputFormat      string
		includeParameters bool
		clusterByType     bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate a graph of resource dependencies",
		Long: `Generate a DOT or Mermaid graph of the stack's resource dependencies.

The output can be rendered with Graphviz:
    jwt-gateway graph | dot -Tpng -o deps.png

Examples:
    jwt-gateway graph
    jwt-gateway graph -p              # include parameters
    jwt-gateway graph -c              # cluster by service
    jwt-gateway graph -f mermaid      # mermaid format`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, flags, outputFormat, includeParameters, clusterByType)
		},
	}

	addStackFlags(cmd, &flags)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&includeParameters, "include-parameters", "p", false, "Include parameter nodes in the graph")
	cmd.Flags().BoolVarP(&clusterByType, "cluster", "c", false, "Cluster resources by AWS service type")

	return cmd
}

func runGraph(cmd *cobra.Command, flags stackFlags, format string, includeParams, cluster bool) error {
	var graphFormat graph.Format
	switch format {
	case "dot":
		graphFormat = graph.FormatDOT
	case "mermaid":
		graphFormat = graph.FormatMermaid
	default:
		return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", format)
	}

	stack, err := flags.stack(cmd)
	if err != nil {
		return err
	}

	resources, err := stack.Resources()
	if err != nil {
		return err
	}

	gen := &graph.Generator{
		Format:            graphFormat,
		IncludeParameters: includeParams,
		ClusterByType:     cluster,
	}

	return gen.Generate(resources, os.Stdout)
}
