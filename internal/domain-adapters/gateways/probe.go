package gateways

import (
	"context"
	"regexp"
	"time"

	"github.com/ochairo/fwbuild/internal/domain/entities"
	"github.com/ochairo/fwbuild/internal/domain/interfaces"
	"github.com/ochairo/fwbuild/internal/domain/interfaces/gateways"
)

// DefaultProbeTimeout bounds each version query
const DefaultProbeTimeout = 5 * time.Second

// EnvironmentProbe detects host executables by running version queries
type EnvironmentProbe struct {
	runner  gateways.CommandRunner
	env     entities.Environment
	timeout time.Duration
	logger  interfaces.Logger
}

// NewEnvironmentProbe creates a probe. env is the overlay candidates are
// resolved against (so tools on a prepended search path are seen).
func NewEnvironmentProbe(runner gateways.CommandRunner, env entities.Environment, timeout time.Duration, logger interfaces.Logger) *EnvironmentProbe {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &EnvironmentProbe{runner: runner, env: env, timeout: timeout, logger: logger}
}

var _ gateways.CapabilityProber = (*EnvironmentProbe)(nil)

// Probe tries each spec's candidates in order; the first that answers and
// matches the signature is recorded. Absent capabilities are simply left out.
func (p *EnvironmentProbe) Probe(ctx context.Context, specs []entities.ProbeSpec) entities.CapabilitySet {
	var found []entities.Capability
	for _, spec := range specs {
		if c, ok := p.probeOne(ctx, spec); ok {
			p.logger.Debug("Detected capability",
				interfaces.F("capability", string(c.Name)),
				interfaces.F("executable", c.Executable),
				interfaces.F("version", c.Version))
			found = append(found, c)
			continue
		}
		p.logger.Debug("Capability not detected", interfaces.F("capability", string(spec.Capability)))
	}
	return entities.NewCapabilitySet(found...)
}

func (p *EnvironmentProbe) probeOne(ctx context.Context, spec entities.ProbeSpec) (entities.Capability, bool) {
	sig, err := regexp.Compile(spec.Signature)
	if err != nil {
		p.logger.Warn("Invalid probe signature", interfaces.F("capability", string(spec.Capability)), interfaces.F("error", err))
		return entities.Capability{}, false
	}
	var versionRE *regexp.Regexp
	if spec.VersionRE != "" {
		versionRE, err = regexp.Compile(spec.VersionRE)
		if err != nil {
			p.logger.Warn("Invalid probe version pattern", interfaces.F("capability", string(spec.Capability)), interfaces.F("error", err))
		}
	}

	for _, candidate := range spec.Candidates {
		res := p.runner.Run(ctx, gateways.Command{
			Name:    candidate,
			Args:    spec.Args,
			Env:     p.env,
			Timeout: p.timeout,
		})
		if res.Error != nil {
			continue
		}
		if res.ExitCode != 0 && !spec.AcceptNonZero {
			continue
		}
		output := res.Stdout + res.Stderr
		if !sig.MatchString(output) {
			continue
		}
		c := entities.Capability{Name: spec.Capability, Executable: candidate}
		if versionRE != nil {
			if m := versionRE.FindStringSubmatch(output); len(m) > 1 {
				c.Version = m[1]
			}
		}
		return c, true
	}
	return entities.Capability{}, false
}
