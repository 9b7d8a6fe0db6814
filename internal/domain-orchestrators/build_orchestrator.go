// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ochairo/fwbuild/internal/domain/entities"
	"github.com/ochairo/fwbuild/internal/domain/interfaces"
	"github.com/ochairo/fwbuild/internal/domain/interfaces/gateways"
	"github.com/ochairo/fwbuild/internal/domain/services"
)

// ToolsFactory binds the helper-tool locator and builder to a workspace once
// the build configuration is known
type ToolsFactory func(cfg entities.BuildConfiguration, env entities.Environment) (gateways.ToolLocator, gateways.ToolBuilder)

// BuildOrchestratorConfig holds the optional collaborators of the orchestrator
type BuildOrchestratorConfig struct {
	Signer  gateways.ArtifactSigner
	Bundler gateways.ArtifactBundler
	Logger  interfaces.Logger
	Metrics interfaces.MetricsRecorder
}

// BuildOrchestrator runs the firmware build pipeline: workspace preparation,
// capability probing, toolchain resolution, helper-tool repair, the external
// build and artifact collection.
type BuildOrchestrator struct {
	settings  interfaces.PlatformSettings
	workspace gateways.WorkspacePreparer
	prober    gateways.CapabilityProber
	resolver  *services.ToolchainResolver
	tools     ToolsFactory
	invoker   gateways.BuildRunner
	collector gateways.ArtifactCollector
	signer    gateways.ArtifactSigner
	bundler   gateways.ArtifactBundler
	logger    interfaces.Logger
	metrics   interfaces.MetricsRecorder
}

// NewBuildOrchestrator creates a new build orchestrator
func NewBuildOrchestrator(
	settings interfaces.PlatformSettings,
	workspace gateways.WorkspacePreparer,
	prober gateways.CapabilityProber,
	resolver *services.ToolchainResolver,
	tools ToolsFactory,
	invoker gateways.BuildRunner,
	collector gateways.ArtifactCollector,
	config BuildOrchestratorConfig,
) *BuildOrchestrator {
	if resolver == nil {
		resolver = services.NewToolchainResolver(nil)
	}
	logger := config.Logger
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = interfaces.NoOpMetrics{}
	}

	return &BuildOrchestrator{
		settings:  settings,
		workspace: workspace,
		prober:    prober,
		resolver:  resolver,
		tools:     tools,
		invoker:   invoker,
		collector: collector,
		signer:    config.Signer,
		bundler:   config.Bundler,
		logger:    logger,
		metrics:   metrics,
	}
}

// BuildRequest is what the caller asks for
type BuildRequest struct {
	Workspace    string // explicit workspace root; empty searches WORKSPACE and the candidates
	Arch         string
	Variant      string
	Toolchain    string // override; empty resolves from capabilities
	Host         string
	Threads      int
	ExtraOptions []string
	OutputDir    string // where collected artifacts are copied
	Bundle       bool
	Env          entities.Environment
}

// BuildReport records everything the pipeline decided and produced
type BuildReport struct {
	Workspace     gateways.Workspace
	Capabilities  entities.CapabilitySet
	Resolution    services.Resolution
	Configuration entities.BuildConfiguration
	Repair        entities.RepairReport
	Result        entities.BuildResult
	Inventory     []string
	Duration      time.Duration
}

// Build executes the full pipeline. Any returned error is fatal; missing
// artifacts and an ambiguous toolchain are only logged.
func (o *BuildOrchestrator) Build(ctx context.Context, req BuildRequest) (*BuildReport, error) {
	start := time.Now()
	report := &BuildReport{}

	err := o.build(ctx, req, report)
	report.Duration = time.Since(start)
	o.metrics.ObserveBuildDuration(report.Duration)

	switch {
	case err == nil:
		o.metrics.IncBuildOutcome("success")
	case ctx.Err() != nil:
		o.metrics.IncBuildOutcome("canceled")
	default:
		o.metrics.IncBuildOutcome("failed")
		if report.Result.ExitCode == 0 {
			report.Result.ExitCode = 1
		}
	}
	return report, err
}

func (o *BuildOrchestrator) build(ctx context.Context, req BuildRequest, report *BuildReport) error {
	err := o.stage(ctx, "validate", func() error {
		if err := o.settings.ValidateArchitecture(req.Arch); err != nil {
			return err
		}
		return o.settings.ValidateTarget(req.Variant)
	})
	if err != nil {
		return err
	}

	err = o.stage(ctx, "workspace", func() error {
		root, err := o.workspace.Resolve(req.Workspace)
		if err != nil {
			return err
		}
		ws, err := o.workspace.Prepare(root)
		report.Workspace = ws
		if err != nil {
			return err
		}
		o.logger.Info("Workspace ready",
			interfaces.F("workspace", ws.Root),
			interfaces.F("package_copied", ws.PackageCopied),
			interfaces.F("conf_created", strings.Join(ws.ConfCreated, ",")))
		return nil
	})
	if err != nil {
		return err
	}

	// Probing never fails on its own; a canceled context is reported by the next stage.
	err = o.stage(ctx, "probe", func() error {
		report.Capabilities = o.prober.Probe(ctx, o.settings.GetProbes())
		names := make([]string, 0, report.Capabilities.Len())
		for _, n := range report.Capabilities.Names() {
			names = append(names, string(n))
		}
		o.logger.Info("Host capabilities detected", interfaces.F("capabilities", strings.Join(names, ",")))
		return ctx.Err()
	})
	if err != nil {
		o.logger.Warn("Capability probe interrupted", interfaces.F("error", err))
	}

	err = o.stage(ctx, "resolve", func() error {
		report.Resolution = o.resolver.Resolve(report.Capabilities, req.Host, req.Toolchain)
		if report.Resolution.Ambiguous {
			amb := entities.NewPipelineError(entities.ErrToolchainAmbiguous, "resolve",
				fmt.Errorf("no toolchain profile matches host %s, defaulting to %s", req.Host, report.Resolution.Tag))
			var candidates []string
			for _, p := range o.resolver.ProfilesFor(req.Host) {
				candidates = append(candidates, p.Tag)
			}
			o.logger.Warn("Toolchain ambiguous",
				interfaces.F("tag", report.Resolution.Tag),
				interfaces.F("candidates", strings.Join(candidates, ",")),
				interfaces.F("error", amb))
			return amb
		}
		o.logger.Info("Toolchain resolved",
			interfaces.F("tag", report.Resolution.Tag),
			interfaces.F("override", report.Resolution.Override))
		return nil
	})
	if err != nil && isFatal(err) {
		return err
	}

	cfg := entities.BuildConfiguration{
		Arch:          req.Arch,
		Variant:       req.Variant,
		ToolchainTag:  report.Resolution.Tag,
		WorkspaceRoot: report.Workspace.Root,
		PackageName:   o.settings.GetPackageName(),
		DSCPath:       o.settings.GetDSC(),
		OutputDir:     o.settings.GetOutputDir(),
		Host:          req.Host,
		Threads:       req.Threads,
		ExtraOptions:  req.ExtraOptions,
		Assembler:     report.Capabilities.Executable(entities.CapabilityNASM),
	}
	report.Configuration = cfg

	env := req.Env
	if _, set := env.Get(entities.EnvPythonCommand); !set {
		if py := report.Capabilities.Executable(entities.CapabilityPython); py != "" {
			env = env.With(entities.EnvPythonCommand, py)
		}
	}

	err = o.stage(ctx, "repair", func() error {
		locator, builder := o.tools(cfg, env)
		engine := services.NewToolRepairEngine(locator, builder, o.logger)
		rep, err := engine.Repair(ctx, o.settings.GetTools())
		report.Repair = rep
		o.metrics.SetRepairInvocations(rep.Invocations)
		if err != nil {
			return err
		}
		o.logger.Info("Helper tools verified",
			interfaces.F("invocations", rep.Invocations),
			interfaces.F("search_path", strings.Join(rep.SearchPath, string(os.PathListSeparator))))
		return nil
	})
	if err != nil {
		return err
	}
	env = env.WithSearchPath(report.Repair.SearchPath...)

	err = o.stage(ctx, "build", func() error {
		o.logger.Info("Starting build",
			interfaces.F("dsc", cfg.DSCPath),
			interfaces.F("arch", cfg.Arch),
			interfaces.F("target", cfg.Variant),
			interfaces.F("toolchain", cfg.ToolchainTag))
		code, err := o.invoker.Invoke(ctx, cfg, env)
		report.Result.ExitCode = code
		if err != nil {
			o.logger.Error("Build failed", interfaces.F("exit_code", code), interfaces.F("error", err))
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = o.stage(ctx, "collect", func() error {
		outcomes, err := o.collector.Collect(cfg.OutputRoot(), cfg, o.settings.GetArtifacts(), req.OutputDir)
		report.Result.Artifacts = outcomes
		if err != nil {
			return err
		}
		o.metrics.SetArtifacts(len(report.Result.Copied()), len(report.Result.Missing()))

		for _, a := range outcomes {
			if a.Status == entities.ArtifactCopied {
				o.logger.Info("Artifact collected",
					interfaces.F("artifact", a.Name),
					interfaces.F("size", a.Size),
					interfaces.F("sha256", a.SHA256))
			}
		}

		inv, err := o.collector.Inventory(cfg.OutputRoot(), ".efi")
		if err != nil {
			o.logger.Debug("Build output inventory unavailable", interfaces.F("error", err))
		}
		report.Inventory = inv
		for _, p := range inv {
			o.logger.Debug("Build output", interfaces.F("path", p))
		}

		if missing := report.Result.Missing(); len(missing) > 0 {
			warn := entities.NewPipelineError(entities.ErrArtifactMissing, "collect",
				fmt.Errorf("expected artifacts not produced: %s", strings.Join(missing, ", ")))
			o.logger.Warn("Artifacts missing", interfaces.F("artifacts", strings.Join(missing, ",")), interfaces.F("error", warn))
			return warn
		}
		return nil
	})
	if err != nil && isFatal(err) {
		return err
	}

	if o.signer != nil {
		err = o.stage(ctx, "sign", func() error {
			for i, a := range report.Result.Artifacts {
				if a.Status != entities.ArtifactCopied {
					continue
				}
				sig, err := o.signer.SignFile(a.Destination)
				if err != nil {
					return fmt.Errorf("failed to sign %s: %w", a.Name, err)
				}
				if err := o.signer.VerifyFile(a.Destination, sig); err != nil {
					return fmt.Errorf("failed to verify signature of %s: %w", a.Name, err)
				}
				report.Result.Artifacts[i].Signature = sig
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if req.Bundle && o.bundler != nil && len(report.Result.Copied()) > 0 {
		err = o.stage(ctx, "bundle", func() error {
			path, err := o.bundler.Bundle(req.OutputDir, cfg, report.Result.Artifacts)
			if err != nil {
				return err
			}
			report.Result.Bundle = path
			o.logger.Info("Bundle written", interfaces.F("path", path))
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Clean removes the build output directory of the resolved workspace
func (o *BuildOrchestrator) Clean(ctx context.Context, explicitWorkspace string) (bool, error) {
	var removed bool
	err := o.stage(ctx, "clean", func() error {
		root, err := o.workspace.Resolve(explicitWorkspace)
		if err != nil {
			return err
		}
		removed, err = o.workspace.Clean(root)
		return err
	})
	return removed, err
}

// stage times fn and records its result. Non-fatal pipeline errors count as warnings.
func (o *BuildOrchestrator) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		o.metrics.IncStageResult(name, interfaces.ResultCanceled)
		return fmt.Errorf("%s aborted: %w", name, err)
	}

	start := time.Now()
	err := fn()
	o.metrics.ObserveStageDuration(name, time.Since(start))

	switch {
	case err == nil:
		o.metrics.IncStageResult(name, interfaces.ResultSuccess)
	case ctx.Err() != nil:
		o.metrics.IncStageResult(name, interfaces.ResultCanceled)
	case !isFatal(err):
		o.metrics.IncStageResult(name, interfaces.ResultWarning)
	default:
		o.metrics.IncStageResult(name, interfaces.ResultFatal)
	}
	return err
}

func isFatal(err error) bool {
	var pe *entities.PipelineError
	if errors.As(err, &pe) {
		return pe.Kind.Fatal()
	}
	return err != nil
}
