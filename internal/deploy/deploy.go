// Package deploy creates or updates the CloudFormation stack from a
// synthesized template.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
	"github.com/lex00/wetwire-jwt-gateway/internal/logging"
	"github.com/lex00/wetwire-jwt-gateway/internal/template"
)

// CloudFormationAPI is the subset of the CloudFormation client used here.
type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
}

// Operation is what Deploy did to the stack.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationNone   Operation = "none"
)

// WaitFunc blocks until the create or update of a stack completes.
type WaitFunc func(ctx context.Context, client CloudFormationAPI, stackName string, op Operation, timeout time.Duration) error

// DefaultTimeout bounds how long Deploy waits for a stack operation.
const DefaultTimeout = 30 * time.Minute

// Input describes one deployment.
type Input struct {
	StackName  string
	Template   *jwtgateway.Template
	Parameters map[string]string
	Tags       map[string]string
}

// Result describes the deployed stack.
type Result struct {
	StackName string            `json:"stack_name"`
	StackID   string            `json:"stack_id,omitempty"`
	Operation Operation         `json:"operation"`
	Status    string            `json:"status,omitempty"`
	Outputs   map[string]string `json:"outputs,omitempty"`
}

// Deployer drives CloudFormation.
type Deployer struct {
	client  CloudFormationAPI
	log     logging.Sugared
	wait    WaitFunc
	timeout time.Duration
}

// Option customizes a Deployer.
type Option func(*Deployer)

// WithWait replaces the CloudFormation waiters.
func WithWait(wait WaitFunc) Option {
	return func(d *Deployer) { d.wait = wait }
}

// WithTimeout sets the maximum wait for a stack operation.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Deployer) { d.timeout = timeout }
}

// New returns a Deployer using the given client.
func New(client CloudFormationAPI, log logging.Sugared, opts ...Option) *Deployer {
	if log == nil {
		log = logging.Nop()
	}
	d := &Deployer{
		client:  client,
		log:     log,
		wait:    waitForStack,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewFromConfig loads the default AWS configuration (environment, shared
// config, SSO, IMDS) and returns a Deployer for it. An empty region keeps
// the region from the configuration chain.
func NewFromConfig(ctx context.Context, region string, log logging.Sugared, opts ...Option) (*Deployer, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return New(cloudformation.NewFromConfig(cfg), log, opts...), nil
}

// Deploy creates the stack when it does not exist and updates it
// otherwise. An update without changes is not an error.
func (d *Deployer) Deploy(ctx context.Context, in Input) (*Result, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	body, err := template.ToJSON(in.Template)
	if err != nil {
		return nil, fmt.Errorf("rendering template: %w", err)
	}

	existing, err := d.describe(ctx, in.StackName)
	if err != nil {
		return nil, err
	}

	params := toParameters(in.Parameters)
	tags := toTags(in.Tags)
	caps := []types.Capability{types.CapabilityCapabilityIam}

	result := &Result{StackName: in.StackName}

	if existing == nil {
		d.log.Infow("creating stack", "stack", in.StackName, "parameters", len(params))
		out, err := d.client.CreateStack(ctx, &cloudformation.CreateStackInput{
			StackName:    aws.String(in.StackName),
			TemplateBody: aws.String(string(body)),
			Parameters:   params,
			Capabilities: caps,
			Tags:         tags,
		})
		if err != nil {
			return nil, fmt.Errorf("creating stack %s: %w", in.StackName, err)
		}
		result.Operation = OperationCreate
		result.StackID = aws.ToString(out.StackId)
	} else {
		status := existing.StackStatus
		if status == types.StackStatusRollbackComplete || status == types.StackStatusRollbackFailed {
			return nil, fmt.Errorf("stack %s is in %s and must be deleted before it can be deployed again", in.StackName, status)
		}
		if strings.HasSuffix(string(status), "_IN_PROGRESS") {
			return nil, fmt.Errorf("stack %s has an operation in progress (%s)", in.StackName, status)
		}

		d.log.Infow("updating stack", "stack", in.StackName, "status", string(status))
		out, err := d.client.UpdateStack(ctx, &cloudformation.UpdateStackInput{
			StackName:    aws.String(in.StackName),
			TemplateBody: aws.String(string(body)),
			Parameters:   params,
			Capabilities: caps,
			Tags:         tags,
		})
		switch {
		case isNoUpdates(err):
			d.log.Infow("stack is up to date", "stack", in.StackName)
			result.Operation = OperationNone
			result.StackID = aws.ToString(existing.StackId)
			result.Status = string(status)
			result.Outputs = outputs(existing)
			return result, nil
		case err != nil:
			return nil, fmt.Errorf("updating stack %s: %w", in.StackName, err)
		}
		result.Operation = OperationUpdate
		result.StackID = aws.ToString(out.StackId)
	}

	if err := d.wait(ctx, d.client, in.StackName, result.Operation, d.timeout); err != nil {
		return nil, fmt.Errorf("waiting for %s of %s: %w", result.Operation, in.StackName, err)
	}

	final, err := d.describe(ctx, in.StackName)
	if err != nil {
		return nil, err
	}
	if final != nil {
		result.Status = string(final.StackStatus)
		result.Outputs = outputs(final)
	}

	d.log.Infow("stack deployed", "stack", in.StackName, "operation", string(result.Operation), "status", result.Status)
	return result, nil
}

// describe returns the stack, or nil when it does not exist.
func (d *Deployer) describe(ctx context.Context, name string) (*types.Stack, error) {
	out, err := d.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("describing stack %s: %w", name, err)
	}
	if len(out.Stacks) == 0 {
		return nil, nil
	}
	return &out.Stacks[0], nil
}

func (in Input) validate() error {
	var errs []error
	if strings.TrimSpace(in.StackName) == "" {
		errs = append(errs, errors.New("stack name is required"))
	}
	if in.Template == nil {
		errs = append(errs, errors.New("template is required"))
		return errors.Join(errs...)
	}

	for _, name := range sortedKeys(in.Template.Parameters) {
		p := in.Template.Parameters[name]
		if _, ok := in.Parameters[name]; !ok && p.Default == nil {
			errs = append(errs, fmt.Errorf("missing value for parameter %s", name))
		}
	}
	for _, name := range sortedKeys(in.Parameters) {
		if _, ok := in.Template.Parameters[name]; !ok {
			errs = append(errs, fmt.Errorf("unknown parameter %s", name))
		}
	}
	return errors.Join(errs...)
}

// ParseParameters parses KEY=VALUE pairs.
func ParseParameters(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, want KEY=VALUE", pair)
		}
		out[key] = value
	}
	return out, nil
}

func waitForStack(ctx context.Context, client CloudFormationAPI, stackName string, op Operation, timeout time.Duration) error {
	input := &cloudformation.DescribeStacksInput{StackName: aws.String(stackName)}
	switch op {
	case OperationCreate:
		return cloudformation.NewStackCreateCompleteWaiter(client).Wait(ctx, input, timeout)
	case OperationUpdate:
		return cloudformation.NewStackUpdateCompleteWaiter(client).Wait(ctx, input, timeout)
	default:
		return nil
	}
}

func isNoUpdates(err error) bool {
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ValidationError" &&
		strings.Contains(ae.ErrorMessage(), "No updates are to be performed")
}

func isNotFound(err error) bool {
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ValidationError" &&
		strings.Contains(ae.ErrorMessage(), "does not exist")
}

func toParameters(values map[string]string) []types.Parameter {
	var params []types.Parameter
	for _, key := range sortedKeys(values) {
		params = append(params, types.Parameter{
			ParameterKey:   aws.String(key),
			ParameterValue: aws.String(values[key]),
		})
	}
	return params
}

func toTags(values map[string]string) []types.Tag {
	var tags []types.Tag
	for _, key := range sortedKeys(values) {
		tags = append(tags, types.Tag{Key: aws.String(key), Value: aws.String(values[key])})
	}
	return tags
}

func outputs(stack *types.Stack) map[string]string {
	if len(stack.Outputs) == 0 {
		return nil
	}
	out := make(map[string]string, len(stack.Outputs))
	for _, o := range stack.Outputs {
		out[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
