// Command jwt-gateway synthesizes and deploys the JWT-protected API stack.
//
// Usage:
//
//	jwt-gateway synth                 Generate CloudFormation template
//	jwt-gateway validate              Check the template
//	jwt-gateway deploy --param K=V    Create or update the stack
//	jwt-gateway version               Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "jwt-gateway",
		Short: "Cognito-protected API Gateway stack with a JWT authorizer",
		Long: `jwt-gateway builds a CloudFormation stack with a Cognito user pool, a REST API
whose GET /hello route is guarded by a container-image JWT authorizer, and
the hello backend function.

The authorizer architecture follows the ARCH environment variable:

    ARCH=arm jwt-gateway synth     # arm64
    jwt-gateway synth              # x86_64`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newSynthCmd(),
		newListCmd(),
		newGraphCmd(),
		newValidateCmd(),
		newOptimizeCmd(),
		newLintCmd(),
		newDiffCmd(),
		newDeployCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("jwt-gateway %s\n", getVersion())
		},
	}
}
