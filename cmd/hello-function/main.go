// Command hello-function is the Lambda backend of GET /hello.
package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/lex00/wetwire-jwt-gateway/internal/config"
	"github.com/lex00/wetwire-jwt-gateway/internal/hello"
	"github.com/lex00/wetwire-jwt-gateway/internal/logging"
)

func main() {
	log := logging.NewLambda(config.Verbose())
	defer func() { _ = log.Sync() }()

	lambda.Start(hello.New(log).Handle)
}
