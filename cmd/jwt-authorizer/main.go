// Command jwt-authorizer is the API Gateway TOKEN authorizer. It is shipped
// as a container image; see the Dockerfile next to this file.
package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/lex00/wetwire-jwt-gateway/internal/authorizer"
	"github.com/lex00/wetwire-jwt-gateway/internal/config"
	"github.com/lex00/wetwire-jwt-gateway/internal/logging"
)

func main() {
	cfg, err := config.LoadAuthorizer()
	log := logging.NewLambda(cfg.Verbose)
	defer func() { _ = log.Sync() }()

	if err != nil {
		log.Errorw("invalid configuration", "error", err)
		_ = log.Sync()
		os.Exit(1)
	}

	log.Infow("starting authorizer", "issuer", cfg.Issuer(), "client", cfg.AppClientID)
	lambda.Start(authorizer.New(cfg, log).Handle)
}
