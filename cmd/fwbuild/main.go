// Package main provides the fwbuild CLI for building EDK2 firmware packages.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ochairo/fwbuild/internal/domain/entities"
)

var version = "dev"

// CLI is the fwbuild command line
type CLI struct {
	Build   bool             `help:"Run the firmware build"`
	Clean   bool             `help:"Remove the build output directory and exit"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Arch      string `default:"X64" help:"Target architecture"`
	BuildType string `name:"build-type" default:"release" env:"TARGET" help:"Build type (release, debug or noopt)"`
	Toolchain string `help:"Toolchain tag override (defaults to TOOL_CHAIN_TAG, then auto-detection)"`

	Workspace    string `type:"path" help:"EDK2 workspace root (defaults to WORKSPACE, then the settings candidates)"`
	Settings     string `help:"Settings name or YAML file (defaults to the built-in ACPIPatcher settings)"`
	SettingsDir  string `name:"settings-dir" type:"path" default:"settings" help:"Directory holding named settings files"`
	ListSettings bool   `name:"list-settings" help:"List available settings and exit"`
	EnvFile      string `name:"env-file" default:".env" help:"Optional .env file applied to child processes"`

	OutputDir   string `name:"output-dir" type:"path" default:"." help:"Directory collected artifacts are copied to"`
	Threads     int    `default:"0" help:"Parallel build threads (0 uses every CPU)"`
	BuildLog    string `name:"build-log" type:"path" help:"Write build output to an xz-compressed log file"`
	MetricsFile string `name:"metrics-file" type:"path" help:"Write Prometheus metrics to a textfile after the run"`
	SignKey     string `name:"sign-key" type:"path" help:"OpenPGP private key used to sign collected artifacts (passphrase from FWBUILD_SIGN_PASSPHRASE)"`
	VerifyKey   string `name:"verify-key" type:"path" help:"OpenPGP public key every new signature must verify against (defaults to the signing key)"`
	Bundle      bool   `help:"Pack collected artifacts into a tar.gz bundle"`
}

const (
	defaultEnvFile    = ".env"
	envSignPassphrase = "FWBUILD_SIGN_PASSPHRASE"
)

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("fwbuild"),
		kong.Description("Build the ACPIPatcher EDK2 package: probe the host, repair BaseTools, build and collect artifacts."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, &cli, func() { _ = kctx.PrintUsage(false) })
	stop()
	os.Exit(code)
}

// parseBuildType maps a case-insensitive build type to an EDK2 target
func parseBuildType(s string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case entities.VariantRelease:
		return entities.VariantRelease, nil
	case entities.VariantDebug:
		return entities.VariantDebug, nil
	case entities.VariantNoOpt:
		return entities.VariantNoOpt, nil
	default:
		return "", entities.NewPipelineError(entities.ErrInvalidConfiguration, "cli",
			fmt.Errorf("unknown build type %q (want release, debug or noopt)", s))
	}
}

// toolchainOverride returns the explicit flag, else TOOL_CHAIN_TAG from the
// overlay, else from the process environment.
func toolchainOverride(flag string, env entities.Environment, lookupEnv func(string) (string, bool)) string {
	if flag != "" {
		return flag
	}
	if v, ok := env.Get(entities.EnvToolChainTag); ok && v != "" {
		return v
	}
	if v, ok := lookupEnv(entities.EnvToolChainTag); ok {
		return v
	}
	return ""
}

// signPassphrase prefers the overlay so a .env file can carry it
func signPassphrase(env entities.Environment, lookupEnv func(string) (string, bool)) []byte {
	if v, ok := env.Get(envSignPassphrase); ok && v != "" {
		return []byte(v)
	}
	if v, ok := lookupEnv(envSignPassphrase); ok && v != "" {
		return []byte(v)
	}
	return nil
}
