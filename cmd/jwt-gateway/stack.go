package main

import (
	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-jwt-gateway/infra"
	"github.com/lex00/wetwire-jwt-gateway/internal/config"
)

// stackFlags override the environment-derived stack settings.
type stackFlags struct {
	arch    string
	apiName string
	stage   string
}

func addStackFlags(cmd *cobra.Command, f *stackFlags) {
	cmd.Flags().StringVar(&f.arch, "arch", "", "Authorizer architecture: arm selects arm64, anything else x86_64 (default: $ARCH)")
	cmd.Flags().StringVar(&f.apiName, "api-name", "", "REST API name (default: $"+config.EnvAPIName+")")
	cmd.Flags().StringVar(&f.stage, "stage", "", "Deployment stage (default: $"+config.EnvStage+")")
}

func (f stackFlags) config(cmd *cobra.Command) (config.Stack, error) {
	cfg := config.LoadStack()
	if cmd.Flags().Changed("arch") {
		cfg.Arch = config.ArchFromEnv(f.arch)
	}
	if f.apiName != "" {
		cfg.APIName = f.apiName
	}
	if f.stage != "" {
		cfg.Stage = f.stage
	}
	return cfg, cfg.Validate()
}

func (f stackFlags) stack(cmd *cobra.Command) (*infra.Stack, error) {
	cfg, err := f.config(cmd)
	if err != nil {
		return nil, err
	}
	return infra.New(cfg), nil
}
