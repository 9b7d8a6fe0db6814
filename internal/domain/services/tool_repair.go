package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ochairo/fwbuild/internal/domain/entities"
	"github.com/ochairo/fwbuild/internal/domain/interfaces"
	"github.com/ochairo/fwbuild/internal/domain/interfaces/gateways"
)

// ToolRepairEngine makes sure the helper tools the external build needs are
// present, escalating bulk build -> per-tool build -> clean rebuild.
type ToolRepairEngine struct {
	locator gateways.ToolLocator
	builder gateways.ToolBuilder
	logger  interfaces.Logger
}

// NewToolRepairEngine creates a repair engine
func NewToolRepairEngine(locator gateways.ToolLocator, builder gateways.ToolBuilder, logger interfaces.Logger) *ToolRepairEngine {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ToolRepairEngine{locator: locator, builder: builder, logger: logger}
}

// repairStep is one escalation stage: a function from tool statuses to new
// statuses plus what it did. built collects directories of tools built in isolation.
type repairStep struct {
	stage     entities.RepairStage
	attempted entities.RepairState
	unmet     entities.RepairState
	run       func(ctx context.Context, tools []entities.ToolStatus, built *[]string) ([]entities.ToolStatus, entities.StageOutcome)
}

func (e *ToolRepairEngine) steps() []repairStep {
	return []repairStep{
		{entities.StageBulkBuild, entities.RepairBulkBuildAttempted, entities.RepairPartiallyMissing, e.BulkBuild},
		{entities.StagePerToolBuild, entities.RepairPerToolRepairAttempted, entities.RepairStillMissing, e.PerToolBuild},
		{entities.StageGlobalRebuild, entities.RepairGlobalRebuildAttempted, entities.RepairFailed, e.GlobalRebuild},
	}
}

// Repair runs the cascade for specs. It performs zero builds when every
// required tool is already present and never runs more than three stages.
func (e *ToolRepairEngine) Repair(ctx context.Context, specs []entities.ToolSpec) (entities.RepairReport, error) {
	report := entities.RepairReport{State: entities.RepairUnverified}

	tools := e.Scan(entities.NewToolStatuses(specs), false)
	if allRequiredFound(tools) {
		report.State = entities.RepairVerified
		report.Tools = tools
		report.SearchPath = e.searchPath(tools, nil)
		e.logger.Debug("All helper tools present", interfaces.F("tools", len(tools)))
		return report, nil
	}

	e.logger.Info("Helper tools missing, starting repair",
		interfaces.F("missing", strings.Join(missingNames(tools), ",")))

	var built []string
	steps := e.steps()
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			report.Tools = tools
			return report, fmt.Errorf("tool repair interrupted before %s: %w", step.stage, err)
		}

		var outcome entities.StageOutcome
		tools, outcome = step.run(ctx, tools, &built)
		report.State = step.attempted

		tools = e.Scan(tools, i == len(steps)-1)
		outcome.Remaining = missingNames(tools)
		report.Stages = append(report.Stages, outcome)
		report.Invocations += outcome.Invocations

		for _, err := range outcome.Errors {
			e.logger.Warn("Helper tool build step failed",
				interfaces.F("stage", string(step.stage)), interfaces.F("error", err))
		}

		if allRequiredFound(tools) {
			report.State = entities.RepairVerified
			break
		}
		report.State = step.unmet
		e.logger.Info("Helper tools still missing",
			interfaces.F("stage", string(step.stage)),
			interfaces.F("missing", strings.Join(outcome.Remaining, ",")))
	}

	report.Tools = tools
	report.SearchPath = e.searchPath(tools, built)

	if report.State != entities.RepairVerified {
		// every stage ran and required tools are still absent
		report.State = entities.RepairFailed
		missing := report.MissingRequired()
		e.logger.Error("Helper tool repair exhausted",
			interfaces.F("missing", strings.Join(missing, ",")),
			interfaces.F("invocations", report.Invocations))
		return report, &entities.PipelineError{
			Kind:  entities.ErrToolRepairFailure,
			Stage: "repair",
			Tools: missing,
			Err:   fmt.Errorf("required helper tools unavailable after repair: %s", strings.Join(missing, ", ")),
		}
	}

	if opt := report.MissingOptional(); len(opt) > 0 {
		e.logger.Warn("Optional helper tools unavailable", interfaces.F("tools", strings.Join(opt, ",")))
	}
	return report, nil
}

// Scan locates every tool. Tools not found become Missing, or StillMissing
// when final is set or their attempts are exhausted.
func (e *ToolRepairEngine) Scan(tools []entities.ToolStatus, final bool) []entities.ToolStatus {
	out := make([]entities.ToolStatus, len(tools))
	for i, t := range tools {
		if p, ok := e.locator.Locate(t.Name); ok {
			t.Path = p
			t.State = entities.ToolFound
		} else {
			t.Path = ""
			switch {
			case t.State == entities.ToolStillMissing:
			case t.Attempts > 0 && (final || t.Attempts >= entities.MaxToolAttempts):
				t.State = entities.ToolStillMissing
			default:
				t.State = entities.ToolMissing
			}
		}
		out[i] = t
	}
	return out
}

// BulkBuild builds the whole helper-tool tree once
func (e *ToolRepairEngine) BulkBuild(ctx context.Context, tools []entities.ToolStatus, _ *[]string) ([]entities.ToolStatus, entities.StageOutcome) {
	outcome := entities.StageOutcome{Stage: entities.StageBulkBuild, Invocations: 1}
	e.logger.Info("Building helper tools")
	if err := e.builder.BuildAll(ctx); err != nil {
		outcome.Errors = append(outcome.Errors, err)
	}
	return markAttempted(tools, nil), outcome
}

// PerToolBuild builds each missing tool in isolation
func (e *ToolRepairEngine) PerToolBuild(ctx context.Context, tools []entities.ToolStatus, built *[]string) ([]entities.ToolStatus, entities.StageOutcome) {
	outcome := entities.StageOutcome{Stage: entities.StagePerToolBuild}
	attempted := map[string]bool{}
	for _, t := range tools {
		if t.Found() || t.Exhausted() {
			continue
		}
		e.logger.Info("Building helper tool", interfaces.F("tool", t.Name))
		outcome.Invocations++
		attempted[t.Name] = true
		produced, err := e.builder.BuildTool(ctx, t.Name)
		if err != nil {
			outcome.Errors = append(outcome.Errors, fmt.Errorf("%s: %w", t.Name, err))
			continue
		}
		if built != nil && produced != "" {
			*built = append(*built, filepath.Dir(produced))
		}
	}
	return markAttempted(tools, attempted), outcome
}

// GlobalRebuild cleans and rebuilds the whole helper-tool tree
func (e *ToolRepairEngine) GlobalRebuild(ctx context.Context, tools []entities.ToolStatus, _ *[]string) ([]entities.ToolStatus, entities.StageOutcome) {
	outcome := entities.StageOutcome{Stage: entities.StageGlobalRebuild, Invocations: 1}
	e.logger.Info("Clean rebuild of helper tools")
	if err := e.builder.CleanRebuild(ctx); err != nil {
		outcome.Errors = append(outcome.Errors, err)
	}
	return markAttempted(tools, nil), outcome
}

// searchPath orders the directories holding required tools: canonical
// directories first, then other discovered directories, then directories
// of tools built in isolation.
func (e *ToolRepairEngine) searchPath(tools []entities.ToolStatus, built []string) []string {
	holding := map[string]bool{}
	for _, t := range tools {
		if t.Required && t.Found() {
			holding[filepath.Dir(t.Path)] = true
		}
	}

	seen := map[string]bool{}
	var dirs []string
	add := func(d string) {
		if d == "" || seen[d] {
			return
		}
		seen[d] = true
		dirs = append(dirs, d)
	}

	isBuilt := map[string]bool{}
	for _, d := range built {
		isBuilt[d] = true
	}

	for _, d := range e.locator.CanonicalDirs() {
		if holding[d] {
			add(d)
		}
	}
	for _, t := range tools {
		if t.Required && t.Found() && !isBuilt[filepath.Dir(t.Path)] {
			add(filepath.Dir(t.Path))
		}
	}
	for _, d := range built {
		add(d)
	}
	return dirs
}

// markAttempted records a build attempt for every missing tool, or only for
// those in only when it is non-nil.
func markAttempted(tools []entities.ToolStatus, only map[string]bool) []entities.ToolStatus {
	out := make([]entities.ToolStatus, len(tools))
	for i, t := range tools {
		if !t.Found() && !t.Exhausted() && (only == nil || only[t.Name]) {
			t.Attempts++
			t.State = entities.ToolBuildAttempted
		}
		out[i] = t
	}
	return out
}

func allRequiredFound(tools []entities.ToolStatus) bool {
	for _, t := range tools {
		if t.Required && !t.Found() {
			return false
		}
	}
	return true
}

func missingNames(tools []entities.ToolStatus) []string {
	var out []string
	for _, t := range tools {
		if !t.Found() {
			out = append(out, t.Name)
		}
	}
	return out
}
