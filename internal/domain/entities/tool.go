package entities

// MaxToolAttempts caps build attempts per tool across the repair cascade
const MaxToolAttempts = 3

// ToolState is the lifecycle state of a single helper tool
type ToolState string

// Tool states
const (
	ToolUnverified     ToolState = "unverified"
	ToolFound          ToolState = "found"
	ToolMissing        ToolState = "missing"
	ToolBuildAttempted ToolState = "build_attempted"
	ToolStillMissing   ToolState = "still_missing"
)

// ToolSpec names a helper tool the external build needs
type ToolSpec struct {
	Name     string
	Required bool
}

// ToolStatus tracks one helper tool through the repair cascade
type ToolStatus struct {
	Name     string
	Required bool
	Path     string // discovered executable, empty until found
	Attempts int
	State    ToolState
}

// NewToolStatuses creates Unverified statuses for specs
func NewToolStatuses(specs []ToolSpec) []ToolStatus {
	out := make([]ToolStatus, len(specs))
	for i, s := range specs {
		out[i] = ToolStatus{Name: s.Name, Required: s.Required, State: ToolUnverified}
	}
	return out
}

// Found reports whether the tool has been located
func (t ToolStatus) Found() bool {
	return t.State == ToolFound
}

// Exhausted reports whether the tool can no longer be retried
func (t ToolStatus) Exhausted() bool {
	return t.State == ToolStillMissing || t.Attempts >= MaxToolAttempts
}

// RepairState is the state of the repair engine as a whole
type RepairState string

// Repair engine states
const (
	RepairUnverified             RepairState = "unverified"
	RepairBulkBuildAttempted     RepairState = "bulk_build_attempted"
	RepairPartiallyMissing       RepairState = "partially_missing"
	RepairPerToolRepairAttempted RepairState = "per_tool_repair_attempted"
	RepairStillMissing           RepairState = "still_missing"
	RepairGlobalRebuildAttempted RepairState = "global_rebuild_attempted"
	RepairVerified               RepairState = "verified"
	RepairFailed                 RepairState = "failed"
)

// Terminal reports whether no further transition is possible
func (s RepairState) Terminal() bool {
	return s == RepairVerified || s == RepairFailed
}

// RepairStage names one escalation step
type RepairStage string

// Escalation stages
const (
	StageBulkBuild     RepairStage = "bulk_build"
	StagePerToolBuild  RepairStage = "per_tool_build"
	StageGlobalRebuild RepairStage = "global_rebuild"
)

// StageOutcome summarises one escalation step
type StageOutcome struct {
	Stage       RepairStage
	Invocations int
	Errors      []error
	Remaining   []string // required or optional tools still missing after the stage
}

// RepairReport is the result of running the repair engine
type RepairReport struct {
	State       RepairState
	Tools       []ToolStatus
	Stages      []StageOutcome
	Invocations int
	SearchPath  []string
}

// MissingRequired returns required tools that were never found
func (r RepairReport) MissingRequired() []string {
	var out []string
	for _, t := range r.Tools {
		if t.Required && !t.Found() {
			out = append(out, t.Name)
		}
	}
	return out
}

// MissingOptional returns optional tools that were never found
func (r RepairReport) MissingOptional() []string {
	var out []string
	for _, t := range r.Tools {
		if !t.Required && !t.Found() {
			out = append(out, t.Name)
		}
	}
	return out
}
