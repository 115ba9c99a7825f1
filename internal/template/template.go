// Package template builds CloudFormation templates from registered resources.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
	"github.com/lex00/wetwire-jwt-gateway/intrinsics"
	"github.com/lex00/wetwire-jwt-gateway/internal/serialize"
)

// FormatVersion is the only CloudFormation template format version.
const FormatVersion = "2010-09-09"

// Policy is a CloudFormation deletion / update-replace policy.
type Policy string

const (
	Delete   Policy = "Delete"
	Retain   Policy = "Retain"
	Snapshot Policy = "Snapshot"
)

// Handle identifies a registered resource and produces references to it.
type Handle struct {
	name string
}

// Name returns the logical id of the resource.
func (h Handle) Name() string {
	return h.name
}

// Ref returns {"Ref": name}.
func (h Handle) Ref() intrinsics.Ref {
	return intrinsics.Ref{LogicalName: h.name}
}

// GetAtt returns {"Fn::GetAtt": [name, attr]}.
func (h Handle) GetAtt(attr string) jwtgateway.AttrRef {
	return jwtgateway.AttrRef{Resource: h.name, Attribute: attr}
}

// ResourceOption customizes a resource at registration.
type ResourceOption func(*entry)

// DependsOn adds explicit DependsOn entries.
func DependsOn(handles ...Handle) ResourceOption {
	return func(e *entry) {
		for _, h := range handles {
			e.dependsOn = append(e.dependsOn, h.name)
		}
	}
}

// RemovalPolicy sets both DeletionPolicy and UpdateReplacePolicy.
func RemovalPolicy(p Policy) ResourceOption {
	return func(e *entry) {
		e.policy = p
	}
}

type entry struct {
	resource  jwtgateway.Resource
	dependsOn []string
	policy    Policy
}

type output struct {
	description string
	value       any
}

// resolved is a serialized resource with its dependencies extracted.
type resolved struct {
	props    map[string]any
	deps     []string
	attrDeps []string
	params   []string
}

// Builder collects resources, parameters and outputs and renders them as
// a CloudFormation template. The zero value is not usable; call NewBuilder.
type Builder struct {
	description string
	entries     map[string]*entry
	parameters  map[string]intrinsics.Parameter
	outputs     map[string]output
	errs        []error
}

// NewBuilder creates an empty builder. The description becomes the
// template Description.
func NewBuilder(description string) *Builder {
	return &Builder{
		description: description,
		entries:     make(map[string]*entry),
		parameters:  make(map[string]intrinsics.Parameter),
		outputs:     make(map[string]output),
	}
}

// Add registers a resource under a logical id.
func (b *Builder) Add(name string, r jwtgateway.Resource, opts ...ResourceOption) Handle {
	if _, exists := b.entries[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("duplicate resource %q", name))
		return Handle{name: name}
	}
	if _, exists := b.parameters[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("resource %q collides with a parameter", name))
		return Handle{name: name}
	}

	e := &entry{resource: r}
	for _, opt := range opts {
		opt(e)
	}
	b.entries[name] = e
	return Handle{name: name}
}

// AddParameter registers a template parameter and returns it named, so it
// serializes as {"Ref": name} wherever it is used as a value.
func (b *Builder) AddParameter(name string, p intrinsics.Parameter) intrinsics.Parameter {
	p.SetName(name)
	if _, exists := b.parameters[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("duplicate parameter %q", name))
		return p
	}
	if _, exists := b.entries[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("parameter %q collides with a resource", name))
		return p
	}
	b.parameters[name] = p
	return p
}

// AddOutput registers a stack output.
func (b *Builder) AddOutput(name, description string, value any) {
	if _, exists := b.outputs[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("duplicate output %q", name))
		return
	}
	b.outputs[name] = output{description: description, value: value}
}

// Names returns the registered logical ids, sorted.
func (b *Builder) Names() []string {
	names := make([]string, 0, len(b.entries))
	for name := range b.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resources returns the registry with resolved dependencies.
func (b *Builder) Resources() (map[string]jwtgateway.RegisteredResource, error) {
	res, err := b.resolve()
	if err != nil {
		return nil, err
	}

	out := make(map[string]jwtgateway.RegisteredResource, len(res))
	for name, r := range res {
		out[name] = jwtgateway.RegisteredResource{
			Name:             name,
			Type:             b.entries[name].resource.ResourceType(),
			Dependencies:     r.deps,
			AttrDependencies: r.attrDeps,
			Parameters:       r.params,
		}
	}
	return out, nil
}

// Build constructs the CloudFormation template.
func (b *Builder) Build() (*jwtgateway.Template, error) {
	res, err := b.resolve()
	if err != nil {
		return nil, err
	}

	order, err := topologicalSort(res)
	if err != nil {
		return nil, err
	}

	tmpl := &jwtgateway.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              b.description,
		Resources:                make(map[string]jwtgateway.ResourceDef, len(order)),
	}

	if len(b.parameters) > 0 {
		tmpl.Parameters = make(map[string]jwtgateway.Parameter, len(b.parameters))
		for name, p := range b.parameters {
			tmpl.Parameters[name] = p.ToDefinition()
		}
	}

	for _, name := range order {
		e := b.entries[name]
		tmpl.Resources[name] = jwtgateway.ResourceDef{
			Type:                e.resource.ResourceType(),
			Properties:          res[name].props,
			DependsOn:           sortedUnique(e.dependsOn),
			DeletionPolicy:      string(e.policy),
			UpdateReplacePolicy: string(e.policy),
		}
	}

	if len(b.outputs) > 0 {
		tmpl.Outputs = make(map[string]jwtgateway.Output, len(b.outputs))
		var errs []error
		for _, name := range sortedKeys(b.outputs) {
			o := b.outputs[name]
			value, err := serialize.Value(o.value)
			if err != nil {
				errs = append(errs, fmt.Errorf("output %s: %w", name, err))
				continue
			}
			refs, _ := collectRefs(value)
			for _, ref := range refs {
				if !b.known(ref) {
					errs = append(errs, fmt.Errorf("output %s references unknown resource %q", name, ref))
				}
			}
			tmpl.Outputs[name] = jwtgateway.Output{Description: o.description, Value: value}
		}
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
	}

	return tmpl, nil
}

// resolve serializes every resource and checks its references.
func (b *Builder) resolve() (map[string]resolved, error) {
	errs := append([]error(nil), b.errs...)
	out := make(map[string]resolved, len(b.entries))

	for _, name := range b.Names() {
		e := b.entries[name]
		if e.resource == nil {
			errs = append(errs, fmt.Errorf("resource %q is nil", name))
			continue
		}

		props, err := serialize.Resource(e.resource)
		if err != nil {
			errs = append(errs, fmt.Errorf("serializing %s: %w", name, err))
			continue
		}

		refs, attrRefs := collectRefs(props)
		refs = append(refs, e.dependsOn...)

		var deps, params []string
		for _, ref := range refs {
			switch {
			case ref == name:
				errs = append(errs, fmt.Errorf("resource %s references itself", name))
			case b.entries[ref] != nil:
				deps = append(deps, ref)
			case b.isParameter(ref):
				params = append(params, ref)
			case strings.HasPrefix(ref, "AWS::"):
			default:
				errs = append(errs, fmt.Errorf("resource %s references unknown resource %q", name, ref))
			}
		}

		var attrDeps []string
		for _, ref := range attrRefs {
			if b.entries[ref] != nil && ref != name {
				attrDeps = append(attrDeps, ref)
			}
		}

		out[name] = resolved{
			props:    props,
			deps:     sortedUnique(deps),
			attrDeps: sortedUnique(attrDeps),
			params:   sortedUnique(params),
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// known reports whether a name resolves inside the template.
func (b *Builder) known(name string) bool {
	if strings.HasPrefix(name, "AWS::") {
		return true
	}
	if _, ok := b.parameters[name]; ok {
		return true
	}
	_, ok := b.entries[name]
	return ok
}

func (b *Builder) isParameter(name string) bool {
	_, ok := b.parameters[name]
	return ok
}

// subVariable matches ${Name} and ${Name.Attr}; ${!Literal} is an escape.
var subVariable = regexp.MustCompile(`\$\{([^!}][^}]*)\}`)

// collectRefs walks serialized properties and returns the logical names
// reached through Ref, Fn::GetAtt and Fn::Sub. The second result holds
// names reached through attributes (GetAtt or ${Name.Attr}).
func collectRefs(v any) (refs, attrRefs []string) {
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case map[string]any:
			if len(val) == 1 {
				if ref, ok := val["Ref"].(string); ok {
					refs = append(refs, ref)
					return
				}
				if getAtt, ok := val["Fn::GetAtt"]; ok {
					if name := getAttTarget(getAtt); name != "" {
						refs = append(refs, name)
						attrRefs = append(attrRefs, name)
					}
					return
				}
				if sub, ok := val["Fn::Sub"]; ok {
					s, r, a := subTargets(sub)
					refs = append(refs, r...)
					attrRefs = append(attrRefs, a...)
					if s != nil {
						walk(s)
					}
					return
				}
			}
			for _, k := range sortedKeys(val) {
				walk(val[k])
			}
		case []any:
			for _, elem := range val {
				walk(elem)
			}
		}
	}
	walk(v)
	return refs, attrRefs
}

func getAttTarget(v any) string {
	switch val := v.(type) {
	case []any:
		if len(val) == 2 {
			name, _ := val[0].(string)
			return name
		}
	case []string:
		if len(val) == 2 {
			return val[0]
		}
	case string:
		name, _, _ := strings.Cut(val, ".")
		return name
	}
	return ""
}

// subTargets extracts references from an Fn::Sub body. Variables defined
// in the long form's map are local and skipped; the map values are
// returned for further walking.
func subTargets(v any) (rest any, refs, attrRefs []string) {
	var body string
	local := map[string]any{}

	switch val := v.(type) {
	case string:
		body = val
	case []any:
		if len(val) > 0 {
			body, _ = val[0].(string)
		}
		if len(val) > 1 {
			if m, ok := val[1].(map[string]any); ok {
				local = m
				rest = m
			}
		}
	}

	for _, match := range subVariable.FindAllStringSubmatch(body, -1) {
		name, attr, hasAttr := strings.Cut(match[1], ".")
		if _, ok := local[name]; ok {
			continue
		}
		if strings.HasPrefix(match[1], "AWS::") {
			continue
		}
		refs = append(refs, name)
		if hasAttr && attr != "" {
			attrRefs = append(attrRefs, name)
		}
	}
	return rest, refs, attrRefs
}

// topologicalSort returns resources in dependency order using Kahn's
// algorithm with a sorted queue.
func topologicalSort(res map[string]resolved) ([]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range res {
		graph[name] = nil
		inDegree[name] = 0
	}

	for name, r := range res {
		for _, dep := range r.deps {
			graph[dep] = append(graph[dep], name)
			inDegree[name]++
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(res) {
		return nil, detectCycle(res)
	}

	return result, nil
}

// detectCycle finds and reports a cycle in the dependency graph.
func detectCycle(res map[string]resolved) error {
	visited := make(map[string]bool)
	onPath := make(map[string]bool)
	var stack []string
	var cycle []string

	var visit func(node string) bool
	visit = func(node string) bool {
		visited[node] = true
		onPath[node] = true
		stack = append(stack, node)

		for _, dep := range res[node].deps {
			if onPath[dep] {
				for i, n := range stack {
					if n == dep {
						cycle = append(append([]string(nil), stack[i:]...), dep)
						break
					}
				}
				return true
			}
			if !visited[dep] && visit(dep) {
				return true
			}
		}

		stack = stack[:len(stack)-1]
		onPath[node] = false
		return false
	}

	for _, name := range sortedKeys(res) {
		if !visited[name] && visit(name) {
			break
		}
	}

	if len(cycle) > 0 {
		return fmt.Errorf("circular dependency detected: %s", strings.Join(cycle, " -> "))
	}
	return errors.New("circular dependency detected")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// ToJSON serializes the template to indented JSON.
func ToJSON(t *jwtgateway.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *jwtgateway.Template) ([]byte, error) {
	return yaml.Marshal(t)
}
