// Package metrics records build pipeline metrics with Prometheus and writes
// them as a node-exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/ochairo/fwbuild/internal/domain/interfaces"
)

const namespace = "fwbuild"

// PrometheusRecorder implements interfaces.MetricsRecorder using Prometheus metrics
type PrometheusRecorder struct {
	reg               *prom.Registry
	stageDuration     *prom.HistogramVec
	buildDuration     prom.Histogram
	stageResults      *prom.CounterVec
	buildOutcome      *prom.CounterVec
	repairInvocations prom.Gauge
	artifacts         *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers the pipeline metrics on reg
// (a fresh registry when nil)
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 1800},
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total pipeline duration",
			Buckets:   []float64{1, 10, 60, 300, 900, 1800, 3600},
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		repairInvocations: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "tool_repair_invocations",
			Help:      "Helper-tool build invocations made by the last repair",
		}),
		artifacts: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "artifacts",
			Help:      "Expected artifacts of the last build by status",
		}, []string{"status"}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome, pr.repairInvocations, pr.artifacts)
	return pr
}

var _ interfaces.MetricsRecorder = (*PrometheusRecorder)(nil)

// Registry returns the registry the metrics live in
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.reg
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result interfaces.ResultLabel) {
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetRepairInvocations(n int) {
	p.repairInvocations.Set(float64(n))
}

func (p *PrometheusRecorder) SetArtifacts(copied, missing int) {
	p.artifacts.WithLabelValues("copied").Set(float64(copied))
	p.artifacts.WithLabelValues("missing").Set(float64(missing))
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, atomically
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
