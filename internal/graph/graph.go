// Package graph renders the resource dependency graph as DOT or Mermaid.
package graph

import (
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates dependency graphs from registered resources.
type Generator struct {
	// IncludeParameters adds template parameters as dashed nodes.
	IncludeParameters bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByType groups resources by AWS service.
	ClusterByType bool
}

// Generate creates a dependency graph and writes it to w. Edges point from
// a resource to what it references; Fn::GetAtt edges are blue.
func (g *Generator) Generate(resources map[string]jwtgateway.RegisteredResource, w io.Writer) error {
	graph := g.buildGraph(resources)

	var output string
	if g.Format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString returns the graph as a string.
func (g *Generator) GenerateString(resources map[string]jwtgateway.RegisteredResource) (string, error) {
	var sb strings.Builder
	if err := g.Generate(resources, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (g *Generator) buildGraph(resources map[string]jwtgateway.RegisteredResource) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	names := sortedNames(resources)

	if g.ClusterByType {
		g.addClusteredNodes(graph, names, resources)
	} else {
		for _, name := range names {
			graph.Node(name).Label(nodeLabel(name, resources[name].Type))
		}
	}

	if g.IncludeParameters {
		for _, param := range parameterNames(resources) {
			n := graph.Node(param)
			n.Attr("shape", "ellipse")
			n.Attr("style", "dashed")
			n.Label(param)
		}
	}

	for _, name := range names {
		res := resources[name]
		attr := make(map[string]bool, len(res.AttrDependencies))
		for _, dep := range res.AttrDependencies {
			attr[dep] = true
		}

		for _, dep := range res.Dependencies {
			if _, ok := resources[dep]; !ok {
				continue
			}
			e := graph.Edge(graph.Node(name), graph.Node(dep))
			if attr[dep] {
				e.Attr("color", "blue")
			}
		}

		if g.IncludeParameters {
			for _, param := range res.Parameters {
				graph.Edge(graph.Node(name), graph.Node(param)).Attr("style", "dashed")
			}
		}
	}

	return graph
}

// addClusteredNodes groups nodes of services with more than one resource
// into a subgraph.
func (g *Generator) addClusteredNodes(graph *dot.Graph, names []string, resources map[string]jwtgateway.RegisteredResource) {
	byService := make(map[string][]string)
	for _, name := range names {
		service := Service(resources[name].Type)
		byService[service] = append(byService[service], name)
	}

	services := make([]string, 0, len(byService))
	for service := range byService {
		services = append(services, service)
	}
	sort.Strings(services)

	for _, service := range services {
		members := byService[service]
		if len(members) == 1 {
			graph.Node(members[0]).Label(nodeLabel(members[0], resources[members[0]].Type))
			continue
		}

		cluster := graph.Subgraph("cluster_"+service, dot.ClusterOption{})
		cluster.Attr("label", service)
		cluster.Attr("style", "rounded")
		cluster.Attr("bgcolor", "lightyellow")
		for _, name := range members {
			cluster.Node(name).Label(nodeLabel(name, resources[name].Type))
		}
	}
}

// Service extracts the service from a CloudFormation type,
// e.g. "AWS::Lambda::Function" -> "Lambda".
func Service(cfType string) string {
	parts := strings.Split(cfType, "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}

func nodeLabel(name, cfType string) string {
	return name + "\\n[" + cfType + "]"
}

func parameterNames(resources map[string]jwtgateway.RegisteredResource) []string {
	seen := make(map[string]bool)
	var out []string
	for _, res := range resources {
		for _, p := range res.Parameters {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

func sortedNames(resources map[string]jwtgateway.RegisteredResource) []string {
	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
