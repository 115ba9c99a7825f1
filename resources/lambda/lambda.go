// Package lambda contains CloudFormation resource types for AWS Lambda.
package lambda

// Attribute names usable with Handle.GetAtt.
const (
	AttrArn = "Arn"
)

// Instruction set architectures accepted by Function.Architectures.
const (
	ArchitectureX86_64 = "x86_64"
	ArchitectureARM64  = "arm64"
)

// Package types accepted by Function.PackageType.
const (
	PackageTypeZip   = "Zip"
	PackageTypeImage = "Image"
)

// Function represents AWS::Lambda::Function.
type Function struct {
	FunctionName  any                     `json:"FunctionName,omitempty"`
	Description   any                     `json:"Description,omitempty"`
	Role          any                     `json:"Role,omitempty"`
	PackageType   any                     `json:"PackageType,omitempty"`
	Code          *Function_Code          `json:"Code,omitempty"`
	ImageConfig   *Function_ImageConfig   `json:"ImageConfig,omitempty"`
	Runtime       any                     `json:"Runtime,omitempty"`
	Handler       any                     `json:"Handler,omitempty"`
	Architectures []any                   `json:"Architectures,omitempty"`
	MemorySize    any                     `json:"MemorySize,omitempty"`
	Timeout       any                     `json:"Timeout,omitempty"`
	Environment   *Function_Environment   `json:"Environment,omitempty"`
	LoggingConfig *Function_LoggingConfig `json:"LoggingConfig,omitempty"`
	Tags          []any                   `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Function) ResourceType() string {
	return "AWS::Lambda::Function"
}

// Function_Code locates the deployment package: an S3 object for zip
// packages or an ECR image for container packages.
type Function_Code struct {
	S3Bucket        any `json:"S3Bucket,omitempty"`
	S3Key           any `json:"S3Key,omitempty"`
	S3ObjectVersion any `json:"S3ObjectVersion,omitempty"`
	ImageUri        any `json:"ImageUri,omitempty"`
	ZipFile         any `json:"ZipFile,omitempty"`
}

// Function_ImageConfig overrides container image settings.
type Function_ImageConfig struct {
	Command          []any `json:"Command,omitempty"`
	EntryPoint       []any `json:"EntryPoint,omitempty"`
	WorkingDirectory any   `json:"WorkingDirectory,omitempty"`
}

// Function_Environment holds the function's environment variables.
type Function_Environment struct {
	Variables map[string]any `json:"Variables,omitempty"`
}

// Function_LoggingConfig selects the log format and levels.
type Function_LoggingConfig struct {
	LogFormat           any `json:"LogFormat,omitempty"`
	ApplicationLogLevel any `json:"ApplicationLogLevel,omitempty"`
	SystemLogLevel      any `json:"SystemLogLevel,omitempty"`
	LogGroup            any `json:"LogGroup,omitempty"`
}

// Permission represents AWS::Lambda::Permission.
type Permission struct {
	FunctionName  any `json:"FunctionName,omitempty"`
	Action        any `json:"Action,omitempty"`
	Principal     any `json:"Principal,omitempty"`
	SourceArn     any `json:"SourceArn,omitempty"`
	SourceAccount any `json:"SourceAccount,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Permission) ResourceType() string {
	return "AWS::Lambda::Permission"
}
