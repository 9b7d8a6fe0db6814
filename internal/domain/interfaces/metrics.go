package interfaces

import "time"

// ResultLabel enumerates stage result categories for counters
type ResultLabel string

// Stage results
const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// MetricsRecorder receives observability hooks from the build pipeline
type MetricsRecorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // success|failed|canceled
	SetRepairInvocations(n int)
	SetArtifacts(copied, missing int)
}

// NoOpMetrics is a MetricsRecorder that does nothing (default when metrics are not configured)
type NoOpMetrics struct{}

func (NoOpMetrics) ObserveStageDuration(string, time.Duration) {}
func (NoOpMetrics) ObserveBuildDuration(time.Duration)         {}
func (NoOpMetrics) IncStageResult(string, ResultLabel)         {}
func (NoOpMetrics) IncBuildOutcome(string)                     {}
func (NoOpMetrics) SetRepairInvocations(int)                   {}
func (NoOpMetrics) SetArtifacts(int, int)                      {}
