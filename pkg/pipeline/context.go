// Package pipeline implements the Pipeline Orchestrator (spec §4.12):
// the single `Process` entry point that runs the eight stages in
// order, owns the per-request PipelineContext, and emits start/
// complete/error events for each. Grounded on the teacher's
// orchestration.AIOrchestrator.ProcessRequest — same shape (span per
// request, structured log per stage, abort-on-error, metrics/history
// bookkeeping) — generalized from "plan via LLM, execute via agent
// discovery" to "plan via the local Planner, execute via the local
// Router/Executor" (the pipeline uses no broker).
package pipeline

import (
	"time"

	"github.com/cogpipe/core/pkg/types"
)

// Context accumulates one request's state as each stage completes.
// Fields are write-once: a stage sets its own slot and later stages
// only read earlier ones, mirroring the teacher's context.With*
// helpers but as plain struct fields since a single in-process
// pipeline run has no need for context.Context propagation between
// stages (only within a stage, for cancellation).
type Context struct {
	RequestID string
	Input     string
	StartedAt time.Time

	Complexity  types.ComplexityResult
	Intent      types.Intent
	Memory      []types.MemoryItem
	Plan        *types.ExecutionPlan
	Optimized   types.OptimizationResult
	Safety      types.SafetyCheck
	Routing     types.RoutingDecision
	StepResults []StepOutcome

	Output types.FormattedOutput
}

// StepOutcome pairs one routed step with its executor result.
type StepOutcome struct {
	StepID  string
	Tool    types.ToolType
	Success bool
	Data    interface{}
	Error   string
}

// EffectivePlan returns the optimized plan when reasoning optimization
// ran, else the raw plan.
func (c *Context) EffectivePlan() *types.ExecutionPlan {
	if c.Optimized.Optimized != nil {
		return c.Optimized.Optimized
	}
	return c.Plan
}
