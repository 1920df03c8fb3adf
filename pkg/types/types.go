// Package types holds the shared data model (spec §3) used across every
// pipeline stage: ComplexityResult, Intent, TaskStep, ExecutionPlan,
// OptimizationResult, SafetyCheck, ToolRoute, RoutingDecision,
// FormattedOutput, ToolCapability, PeerInfo, and AuditLogEntry. Keeping
// these in one leaf package avoids import cycles between the stage
// packages that all need to read and write them.
package types

import "time"

// ComplexityLevel is the closed set of complexity tiers (spec §4.1).
type ComplexityLevel string

const (
	ComplexitySimple   ComplexityLevel = "simple"
	ComplexityModerate ComplexityLevel = "moderate"
	ComplexityComplex  ComplexityLevel = "complex"
)

// ComplexityResult is C1's output.
type ComplexityResult struct {
	Level             ComplexityLevel
	Score             float64
	Reasoning         string
	ShouldUsePipeline bool
	EstimatedSteps    int
}

// IntentCategory is the closed set from the Glossary.
type IntentCategory string

const (
	IntentFileRead        IntentCategory = "file_read"
	IntentFileWrite       IntentCategory = "file_write"
	IntentFileSearch      IntentCategory = "file_search"
	IntentShellCommand    IntentCategory = "shell_command"
	IntentNetworkRequest  IntentCategory = "network_request"
	IntentGithubQuery     IntentCategory = "github_query"
	IntentAutomation      IntentCategory = "automation"
	IntentQueryKnowledge  IntentCategory = "query_knowledge"
	IntentMultiPC         IntentCategory = "multi_pc"
	IntentMemoryRecall    IntentCategory = "memory_recall"
	IntentCodeAnalysis    IntentCategory = "code_analysis"
	IntentPlanning        IntentCategory = "planning"
	IntentUnknown         IntentCategory = "unknown"
)

// Intent is C2's output. SubIntents are exactly one level deep (spec §9
// Open Question: sub-intent depth is fixed at one).
type Intent struct {
	Category    IntentCategory
	Confidence  float64
	Entities    map[string][]string
	MultiIntent bool
	SubIntents  []SubIntent
}

// SubIntent is the same shape as Intent minus further nesting.
type SubIntent struct {
	Category   IntentCategory
	Confidence float64
	Entities   map[string][]string
}

// ToolType is the closed set of tool kinds (Glossary).
type ToolType string

const (
	ToolFS         ToolType = "fs"
	ToolShell      ToolType = "shell"
	ToolNetworking ToolType = "networking"
	ToolGithub     ToolType = "github"
	ToolMCP        ToolType = "mcp"
	ToolAI         ToolType = "ai"
	ToolMemory     ToolType = "memory"
	ToolSDB        ToolType = "sdb"
	ToolAutomation ToolType = "automation"
	ToolPeer       ToolType = "peer"
)

// TaskStep is one node of an ExecutionPlan's dependency DAG.
type TaskStep struct {
	ID                string
	Description       string
	Tool              ToolType
	Parameters        map[string]interface{}
	Dependencies      []string
	EstimatedDuration time.Duration
	CanParallelize    bool
	Priority          int
	UseCache          bool
}

// ParallelGroup is a set of step ids sharing a dependency level, all
// parallelizable, that may execute concurrently.
type ParallelGroup struct {
	Level int
	Steps []string
}

// ExecutionPlan is C3/C4's artifact: an ordered, acyclic dependency graph
// of TaskSteps.
type ExecutionPlan struct {
	ID                string
	Steps             []TaskStep
	TotalDuration     time.Duration
	ParallelGroups    []ParallelGroup
}

// OptimizationResult is C4's output.
type OptimizationResult struct {
	Original            *ExecutionPlan
	Optimized           *ExecutionPlan
	Transformations     []string
	ImprovementPercent  float64
}

// RiskLevel is the closed, ordered set safe < low < medium < high < critical.
type RiskLevel int

const (
	RiskSafe RiskLevel = iota
	RiskLow
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskSafe:
		return "safe"
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseRiskLevel maps a risk-level name back to its RiskLevel, defaulting
// to RiskMedium for an unrecognized value (the same default used for
// RequireConfirmationThreshold).
func ParseRiskLevel(s string) RiskLevel {
	switch s {
	case "safe":
		return RiskSafe
	case "low":
		return RiskLow
	case "medium":
		return RiskMedium
	case "high":
		return RiskHigh
	case "critical":
		return RiskCritical
	default:
		return RiskMedium
	}
}

// SafetyCheck is C5's output, either per-step or aggregated at plan level.
type SafetyCheck struct {
	Allowed              bool
	RiskLevel            RiskLevel
	Risks                []string
	RequiresConfirmation bool
	ConfirmationMessage  string
	BlockedReasons       []string
}

// ToolRoute binds one TaskStep to a concrete tool method, with one
// optional level of fallback (Glossary: fallback depth is exactly one).
type ToolRoute struct {
	StepID     string
	Tool       ToolType
	Method     string
	Parameters map[string]interface{}
	Fallback   *ToolRoute
	Timeout    time.Duration
	Retries    int
	Error      string
}

// ExecutionMode is the closed set sequential/parallel/conditional.
type ExecutionMode string

const (
	ModeSequential  ExecutionMode = "sequential"
	ModeParallel    ExecutionMode = "parallel"
	ModeConditional ExecutionMode = "conditional"
)

// RoutingDecision is C7's output.
type RoutingDecision struct {
	Routes            []ToolRoute
	ExecutionMode     ExecutionMode
	StreamingEnabled  bool
}

// Format is the closed set of output format tags (spec §4.11).
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatCode     Format = "code"
	FormatPlain    Format = "plain"
)

// FormattedOutput is C11's output.
type FormattedOutput struct {
	Format       Format
	Content      string
	Metadata     map[string]interface{}
	Error        bool
	ErrorMessage string
}

// ToolCapability is the registry's record for one registered tool type.
type ToolCapability struct {
	Name              string
	Type              ToolType
	Version           string
	Description       string
	Operations        []string
	Available         bool
	SupportsStreaming bool
	DefaultTimeout    time.Duration
	DefaultRetries    int
	Priority          int
	Dependencies      []ToolType
	Metadata          map[string]interface{}
	Aliases           []string
}

// PeerStatus is the closed set online/offline/busy.
type PeerStatus string

const (
	PeerOnline  PeerStatus = "online"
	PeerOffline PeerStatus = "offline"
	PeerBusy    PeerStatus = "busy"
)

// PeerInfo describes one remote peer known to the Broker.
type PeerInfo struct {
	ID           string
	Name         string
	Host         string
	Port         int
	Capabilities []string
	Tools        []string
	Status       PeerStatus
	LastSeen     time.Time
	Load         int
}

// MemoryItem is one recalled fact from the Memory collaborator (spec §6).
type MemoryItem struct {
	Content   string
	Relevance float64
	Source    string
}

// Entity keys populated by the Intent Classifier's entity extraction.
const (
	EntityFilePaths      = "filePaths"
	EntityURLs           = "urls"
	EntityGithubUsers    = "githubUsers"
	EntityFileExtensions = "fileExtensions"
	EntityPackages       = "packages"
)
