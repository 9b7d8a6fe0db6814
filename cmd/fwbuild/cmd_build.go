package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ochairo/fwbuild/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/fwbuild/internal/domain-orchestrators"
	"github.com/ochairo/fwbuild/internal/domain/entities"
	"github.com/ochairo/fwbuild/internal/domain/interfaces"
	ifgateways "github.com/ochairo/fwbuild/internal/domain/interfaces/gateways"
	"github.com/ochairo/fwbuild/internal/external-adapters/dotenv"
	"github.com/ochairo/fwbuild/internal/external-adapters/gpg"
	"github.com/ochairo/fwbuild/internal/external-adapters/logging"
	"github.com/ochairo/fwbuild/internal/external-adapters/metrics"
	"github.com/ochairo/fwbuild/internal/external-adapters/yaml"
)

// run executes the selected action and returns the process exit code
func run(ctx context.Context, cli *CLI, usage func()) int {
	logger, err := logging.New(logging.Config{Verbose: cli.Verbose})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	if cli.ListSettings {
		if err := listSettings(ctx, cli.SettingsDir, os.Stdout); err != nil {
			logger.Error("Failed to list settings", interfaces.F("error", err))
			return 1
		}
		return 0
	}

	if !cli.Build && !cli.Clean {
		usage()
		return 0
	}

	if err := execute(ctx, cli, logger); err != nil {
		logFailure(logger, err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, cli *CLI, logger *logging.ZapLogger) error {
	env, applied, err := dotenv.NewLoader().Load(cli.EnvFile, cli.EnvFile != defaultEnvFile, entities.NewEnvironment())
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		logger.Debug("Loaded env file", interfaces.F("path", cli.EnvFile), interfaces.F("keys", strings.Join(applied, ",")))
	}

	settings, err := yaml.NewSettingsRepository(cli.SettingsDir).GetSettings(ctx, cli.Settings)
	if err != nil {
		return entities.NewPipelineError(entities.ErrInvalidConfiguration, "settings", err)
	}

	projectDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	recorder := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	if cli.MetricsFile != "" {
		defer func() {
			if err := recorder.WriteTextfile(cli.MetricsFile); err != nil {
				logger.Warn("Failed to write metrics", interfaces.F("path", cli.MetricsFile), interfaces.F("error", err))
			}
		}()
	}

	var output io.Writer = os.Stdout
	if cli.BuildLog != "" {
		buildLog, err := gateways.OpenBuildLog(cli.BuildLog)
		if err != nil {
			return err
		}
		defer func() {
			if err := buildLog.Close(); err != nil {
				logger.Warn("Failed to close build log", interfaces.F("path", buildLog.Path()), interfaces.F("error", err))
			}
		}()
		output = io.MultiWriter(os.Stdout, buildLog)
	}

	runner := gateways.NewCommandRunner()
	threads := cli.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	config := orchestrators.BuildOrchestratorConfig{
		Bundler: gateways.NewBundler(),
		Logger:  logger,
		Metrics: recorder,
	}
	if cli.Build && cli.SignKey != "" {
		signer, err := loadSigner(cli.SignKey, cli.VerifyKey, signPassphrase(env, os.LookupEnv), logger)
		if err != nil {
			return err
		}
		config.Signer = signer
	}

	tools := func(cfg entities.BuildConfiguration, env entities.Environment) (ifgateways.ToolLocator, ifgateways.ToolBuilder) {
		layout := gateways.NewBaseToolsLayout(cfg.WorkspaceRoot, cfg.Host)
		return gateways.NewToolScannerFromEnv(layout, env),
			gateways.NewBaseToolsBuilder(runner, gateways.BaseToolsBuilderConfig{
				Layout: layout,
				Env:    env,
				Jobs:   threads,
				Output: output,
			})
	}

	orchestrator := orchestrators.NewBuildOrchestrator(
		settings,
		gateways.NewWorkspacePreparer(gateways.WorkspaceConfig{
			Settings:   settings,
			Env:        env,
			ProjectDir: projectDir,
			Logger:     logger,
		}),
		gateways.NewEnvironmentProbe(runner, env, gateways.DefaultProbeTimeout, logger),
		nil,
		tools,
		gateways.NewBuildInvoker(runner, output),
		gateways.NewArtifactCollector(),
		config,
	)

	if cli.Clean {
		removed, err := orchestrator.Clean(ctx, cli.Workspace)
		if err != nil {
			return err
		}
		if !removed {
			logger.Info("Nothing to clean")
		}
		return nil
	}

	variant, err := parseBuildType(cli.BuildType)
	if err != nil {
		return err
	}

	logger.Info("Starting firmware build",
		interfaces.F("settings", settings.GetName()),
		interfaces.F("arch", cli.Arch),
		interfaces.F("target", variant),
		interfaces.F("host", runtime.GOOS),
		interfaces.F("version", version))

	report, err := orchestrator.Build(ctx, orchestrators.BuildRequest{
		Workspace: cli.Workspace,
		Arch:      strings.ToUpper(cli.Arch),
		Variant:   variant,
		Toolchain: toolchainOverride(cli.Toolchain, env, os.LookupEnv),
		Host:      runtime.GOOS,
		Threads:   threads,
		OutputDir: cli.OutputDir,
		Bundle:    cli.Bundle,
		Env:       env,
	})
	if err != nil {
		return err
	}

	logger.Info("Build completed",
		interfaces.F("toolchain", report.Configuration.ToolchainTag),
		interfaces.F("copied", len(report.Result.Copied())),
		interfaces.F("missing", len(report.Result.Missing())),
		interfaces.F("repair_invocations", report.Repair.Invocations),
		interfaces.F("duration", report.Duration.Round(time.Millisecond).String()))
	if report.Result.Bundle != "" {
		logger.Info("Bundle", interfaces.F("path", report.Result.Bundle))
	}
	return nil
}

// loadSigner unlocks the signing key. With a verify key, signatures are
// only accepted when they check out against that key.
func loadSigner(keyPath, verifyKey string, passphrase []byte, logger interfaces.Logger) (*gpg.Signer, error) {
	signer, err := gpg.LoadSigner(keyPath, passphrase)
	if err != nil {
		return nil, entities.NewPipelineError(entities.ErrInvalidConfiguration, "sign", err)
	}
	fields := []interfaces.Field{interfaces.F("key", signer.Fingerprint())}
	if verifyKey != "" {
		n, err := signer.TrustKeyFile(verifyKey)
		if err != nil {
			return nil, entities.NewPipelineError(entities.ErrInvalidConfiguration, "sign", err)
		}
		fields = append(fields, interfaces.F("verify_key", verifyKey), interfaces.F("trusted_keys", n))
	}
	logger.Info("Signing artifacts", fields...)
	return signer, nil
}

// logFailure logs what a fatal error carries: exit code or missing tools
func logFailure(logger interfaces.Logger, err error) {
	var pe *entities.PipelineError
	if !errors.As(err, &pe) {
		logger.Error("Failed", interfaces.F("error", err))
		return
	}
	fields := []interfaces.Field{
		interfaces.F("kind", string(pe.Kind)),
		interfaces.F("stage", pe.Stage),
		interfaces.F("error", pe.Err),
	}
	switch pe.Kind {
	case entities.ErrBuildInvocationFailure:
		fields = append(fields, interfaces.F("exit_code", pe.ExitCode))
	case entities.ErrToolRepairFailure:
		fields = append(fields, interfaces.F("missing_tools", strings.Join(pe.Tools, ",")))
	}
	logger.Error("Failed", fields...)
}

func listSettings(ctx context.Context, dir string, w io.Writer) error {
	names, err := yaml.NewSettingsRepository(dir).ListSettings(ctx)
	if err != nil {
		return err
	}
	def := entities.DefaultPlatformSettings()
	_, _ = fmt.Fprintf(w, "Available settings (%d total):\n\n", len(names)+1)
	_, _ = fmt.Fprintf(w, "  %-20s %s (built-in)\n", "(default)", def.GetName())
	for _, n := range names {
		_, _ = fmt.Fprintf(w, "  %s\n", n)
	}
	return nil
}
