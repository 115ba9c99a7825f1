package graph

import (
	"strings"
	"testing"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
)

func sampleResources() map[string]jwtgateway.RegisteredResource {
	return map[string]jwtgateway.RegisteredResource{
		"UserPool": {
			Name: "UserPool",
			Type: "AWS::Cognito::UserPool",
		},
		"UserPoolClient": {
			Name:         "UserPoolClient",
			Type:         "AWS::Cognito::UserPoolClient",
			Dependencies: []string{"UserPool"},
		},
		"HelloRole": {
			Name: "HelloRole",
			Type: "AWS::IAM::Role",
		},
		"HelloFunction": {
			Name:             "HelloFunction",
			Type:             "AWS::Lambda::Function",
			Dependencies:     []string{"HelloRole"},
			AttrDependencies: []string{"HelloRole"},
			Parameters:       []string{"HelloCodeBucket"},
		},
	}
}

func TestGenerator_Generate_SimpleGraph(t *testing.T) {
	gen := &Generator{}
	var sb strings.Builder
	if err := gen.Generate(sampleResources(), &sb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := sb.String()

	if !strings.Contains(output, "digraph") {
		t.Error("expected digraph declaration")
	}
	for _, name := range []string{"UserPool", "UserPoolClient", "HelloRole", "HelloFunction"} {
		if !strings.Contains(output, name) {
			t.Errorf("expected %s node", name)
		}
	}
	if !strings.Contains(output, "[AWS::Cognito::UserPoolClient]") {
		t.Error("expected CloudFormation type in node label")
	}
	if !strings.Contains(output, "->") {
		t.Error("expected at least one edge")
	}
	if strings.Contains(output, "HelloCodeBucket") {
		t.Error("parameters should be hidden by default")
	}
}

func TestGenerator_Generate_WithGetAtt(t *testing.T) {
	gen := &Generator{}
	output, err := gen.GenerateString(sampleResources())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "blue") {
		t.Error("expected blue color for GetAtt edge")
	}
}

func TestGenerator_Generate_RefOnlyIsNotBlue(t *testing.T) {
	resources := map[string]jwtgateway.RegisteredResource{
		"UserPool":       {Name: "UserPool", Type: "AWS::Cognito::UserPool"},
		"UserPoolClient": {Name: "UserPoolClient", Type: "AWS::Cognito::UserPoolClient", Dependencies: []string{"UserPool"}},
	}

	output, err := (&Generator{}).GenerateString(resources)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(output, "blue") {
		t.Error("Ref edges should use the default color")
	}
}

func TestGenerator_Generate_WithParameters(t *testing.T) {
	gen := &Generator{IncludeParameters: true}
	output, err := gen.GenerateString(sampleResources())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "HelloCodeBucket") {
		t.Error("expected HelloCodeBucket parameter node")
	}
	if !strings.Contains(output, "ellipse") {
		t.Error("expected ellipse shape for parameter")
	}
}

func TestGenerator_Generate_ClusterByType(t *testing.T) {
	gen := &Generator{ClusterByType: true}
	output, err := gen.GenerateString(sampleResources())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "cluster_Cognito") {
		t.Error("expected Cognito cluster subgraph")
	}
	if strings.Contains(output, "cluster_IAM") {
		t.Error("single-resource services should not be clustered")
	}
}

func TestGenerator_Generate_MermaidFormat(t *testing.T) {
	gen := &Generator{Format: FormatMermaid}
	output, err := gen.GenerateString(sampleResources())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "graph") && !strings.Contains(output, "flowchart") {
		t.Errorf("expected mermaid graph/flowchart, got:\n%s", output)
	}
	if strings.Contains(output, "digraph") {
		t.Error("expected mermaid format, not DOT")
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	gen := &Generator{ClusterByType: true, IncludeParameters: true}
	first, err := gen.GenerateString(sampleResources())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := gen.GenerateString(sampleResources())
		if again != first {
			t.Fatal("graph output should not depend on map iteration order")
		}
	}
}

func TestService(t *testing.T) {
	tests := map[string]string{
		"AWS::Lambda::Function":       "Lambda",
		"AWS::ApiGateway::Authorizer": "ApiGateway",
		"Custom":                      "Other",
	}
	for in, want := range tests {
		if got := Service(in); got != want {
			t.Errorf("Service(%q) = %q, want %q", in, got, want)
		}
	}
}
