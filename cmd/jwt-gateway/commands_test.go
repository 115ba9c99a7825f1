package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	jwtgateway "github.com/lex00/wetwire-jwt-gateway"
	"github.com/lex00/wetwire-jwt-gateway/infra"
	"github.com/lex00/wetwire-jwt-gateway/internal/config"
)

func TestNewDiffCmd(t *testing.T) {
	cmd := newDiffCmd()

	if cmd.Use != "diff <template1> <template2>" {
		t.Errorf("Use = %q, want 'diff <template1> <template2>'", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	if cmd.Flags().Lookup("format") == nil {
		t.Error("missing --format flag")
	}

	if cmd.Flags().Lookup("ignore-order") == nil {
		t.Error("missing --ignore-order flag")
	}
}

func TestStackCommandsHaveStackFlags(t *testing.T) {
	for _, cmd := range []*cobra.Command{newSynthCmd(), newListCmd(), newGraphCmd(), newValidateCmd(), newOptimizeCmd(), newDeployCmd()} {
		for _, name := range []string{"arch", "api-name", "stage"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("%s: missing --%s flag", cmd.Name(), name)
			}
		}
	}
}

func TestNewDeployCmd(t *testing.T) {
	cmd := newDeployCmd()

	for _, name := range []string{"stack-name", "region", "param", "tag", "timeout"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing --%s flag", name)
		}
	}

	if got := cmd.Flags().Lookup("stack-name").DefValue; got != "jwt-gateway" {
		t.Errorf("stack-name default = %q, want jwt-gateway", got)
	}
}

func TestStackFlags_ArchOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvArch, "arm")

	tests := []struct {
		args []string
		want config.Architecture
	}{
		{nil, config.ArchARM64},
		{[]string{"--arch", "x86"}, config.ArchX86_64},
		{[]string{"--arch", "arm"}, config.ArchARM64},
	}

	for _, tt := range tests {
		var flags stackFlags
		cmd := &cobra.Command{Use: "test"}
		addStackFlags(cmd, &flags)
		if err := cmd.ParseFlags(tt.args); err != nil {
			t.Fatalf("ParseFlags(%v): %v", tt.args, err)
		}

		cfg, err := flags.config(cmd)
		if err != nil {
			t.Fatalf("config(): %v", err)
		}
		if cfg.Arch != tt.want {
			t.Errorf("args %v: Arch = %s, want %s", tt.args, cfg.Arch, tt.want)
		}
	}
}

func TestStackFlags_InvalidCallback(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvCallbackURL, "http://insecure.example.com")

	var flags stackFlags
	cmd := &cobra.Command{Use: "test"}
	addStackFlags(cmd, &flags)

	if _, err := flags.stack(cmd); err == nil {
		t.Error("expected error for non-https callback url")
	}
}

func TestOutputResult_WritesFile(t *testing.T) {
	tmpl, err := infra.New(config.Default()).Synth()
	if err != nil {
		t.Fatalf("Synth(): %v", err)
	}

	for _, format := range []string{"json", "yaml"} {
		path := filepath.Join(t.TempDir(), "template."+format)
		err := outputResult(jwtgateway.BuildResult{Success: true, Template: *tmpl}, format, path)
		if err != nil {
			t.Fatalf("outputResult(%s): %v", format, err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if len(data) == 0 {
			t.Errorf("%s output is empty", format)
		}
	}

	if err := outputResult(jwtgateway.BuildResult{Success: true, Template: *tmpl}, "xml", ""); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestValidateStack(t *testing.T) {
	result := validateStack(infra.New(config.Default()).Synth, true)
	if !result.Success {
		t.Errorf("validateStack() errors = %v", result.Errors)
	}

	result = validateStack(func() (*jwtgateway.Template, error) {
		return nil, errors.New("resource HelloMethod references unknown resource \"Missing\"")
	}, true)
	if result.Success {
		t.Error("expected failure when synth fails")
	}
	if len(result.Errors) != 1 {
		t.Errorf("Errors = %v, want one entry", result.Errors)
	}

	result = validateStack(func() (*jwtgateway.Template, error) {
		return &jwtgateway.Template{Resources: map[string]jwtgateway.ResourceDef{}}, nil
	}, true)
	if result.Success {
		t.Error("expected failure for an empty template")
	}
}

func TestNewOptimizeCmd(t *testing.T) {
	cmd := newOptimizeCmd()

	if cmd.Use != "optimize" {
		t.Errorf("Use = %q, want 'optimize'", cmd.Use)
	}

	if cmd.Flags().Lookup("category") == nil {
		t.Error("missing --category flag")
	}

	if got := capitalize("security"); got != "Security" {
		t.Errorf("capitalize() = %q, want Security", got)
	}
}

func TestNewLintCmd(t *testing.T) {
	cmd := newLintCmd()

	if cmd.Flags().Lookup("rule") == nil {
		t.Error("missing --rule flag")
	}

	if err := runLint([]string{"../../infra"}, "text", nil); err != nil {
		t.Errorf("runLint() error = %v", err)
	}
}
