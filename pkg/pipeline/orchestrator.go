package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cogpipe/core/pkg/command"
	"github.com/cogpipe/core/pkg/complexity"
	"github.com/cogpipe/core/pkg/errs"
	"github.com/cogpipe/core/pkg/events"
	"github.com/cogpipe/core/pkg/executor"
	"github.com/cogpipe/core/pkg/intent"
	"github.com/cogpipe/core/pkg/logger"
	"github.com/cogpipe/core/pkg/memory"
	"github.com/cogpipe/core/pkg/output"
	"github.com/cogpipe/core/pkg/planning"
	"github.com/cogpipe/core/pkg/safety"
	"github.com/cogpipe/core/pkg/telemetry"
	"github.com/cogpipe/core/pkg/tools"
	"github.com/cogpipe/core/pkg/types"
)

// Config toggles optional stages and bounds step execution.
type Config struct {
	MemoryEnabled bool
	UserID        string
	SessionID     string
	Permissions   command.PermissionSet
	StepOptions   executor.Options
}

// Pipeline wires every component into the §4.12 process(input) flow.
// Bus, Log, Memory, Command, and Telemetry may be nil; every other field
// is required. A nil Memory, Command, or Telemetry disables the
// stages/instrumentation it backs.
type Pipeline struct {
	Complexity *complexity.Detector
	Intent     *intent.Classifier
	Planner    *planning.Planner
	Optimizer  *planning.Optimizer
	Safety     *safety.Engine
	Registry   *tools.Registry
	Router     *tools.Router
	Executor   *executor.Executor
	Memory     memory.Store
	Command    *command.Validator
	Bus        *events.Bus
	Log        logger.Logger
	Telemetry  *telemetry.Provider

	Config Config
}

// Result is C12's process(input) output.
type Result struct {
	Success       bool
	Output        types.FormattedOutput
	Context       *Context
	ExecutionTime time.Duration
	StepsExecuted []string
	Error         string
}

func (p *Pipeline) log() logger.Logger {
	if p.Log != nil {
		return p.Log
	}
	return logger.NoOpLogger{}
}

func (p *Pipeline) span(ctx context.Context, stage string) (context.Context, func()) {
	if p.Telemetry == nil {
		return ctx, func() {}
	}
	spanCtx, span := p.Telemetry.StageSpan(ctx, stage)
	return spanCtx, func() { span.End() }
}

func (p *Pipeline) start(stage string, data interface{}) {
	if p.Bus != nil {
		p.Bus.Start(stage, data)
	}
}

func (p *Pipeline) complete(stage string, data interface{}) {
	if p.Bus != nil {
		p.Bus.Complete(stage, data)
	}
}

func (p *Pipeline) fail(stage string, data interface{}) {
	if p.Bus != nil {
		p.Bus.Fail(stage, data)
	}
}

// skipStage emits a start/complete pair with no data, preserving the
// event bus's "every stage emits start and exactly one of
// complete/error" contract (spec §4.13) for stages a fast-path run
// never actually performs.
func (p *Pipeline) skipStage(stage string) {
	p.start(stage, nil)
	p.complete(stage, map[string]interface{}{"skipped": true})
}

// Process runs one request through every stage of spec §4.12's
// pipeline, aborting at the first stage that fails.
func (p *Pipeline) Process(ctx context.Context, input string) Result {
	start := time.Now()
	pctx := &Context{RequestID: uuid.NewString(), Input: input, StartedAt: start}

	if p.Bus != nil {
		p.Bus.Publish(events.Event{Stage: events.EventProcessingStarted, Status: events.StatusStart, Data: input})
	}
	p.log().Info("pipeline started", "request_id", pctx.RequestID, "input_length", len(input))

	ctx, end := p.span(ctx, events.StageComplexityCheck)
	p.start(events.StageComplexityCheck, nil)
	pctx.Complexity = p.Complexity.Detect(input)
	p.complete(events.StageComplexityCheck, pctx.Complexity)
	end()

	if !pctx.Complexity.ShouldUsePipeline {
		return p.fastPath(ctx, pctx, start)
	}

	ctx, end = p.span(ctx, events.StageIntentDetection)
	p.start(events.StageIntentDetection, nil)
	pctx.Intent = p.Intent.Detect(input)
	p.complete(events.StageIntentDetection, pctx.Intent)
	end()

	if p.Config.MemoryEnabled && p.Memory != nil {
		ctx, end = p.span(ctx, events.StageMemoryRetrieval)
		p.start(events.StageMemoryRetrieval, nil)
		items, err := p.Memory.Recall(ctx, input)
		if err != nil {
			p.log().Warn("memory recall failed", "request_id", pctx.RequestID, "error", err.Error())
		} else {
			pctx.Memory = items
		}
		p.complete(events.StageMemoryRetrieval, len(pctx.Memory))
		end()
	} else {
		p.skipStage(events.StageMemoryRetrieval)
	}

	_, end = p.span(ctx, events.StagePlanGeneration)
	p.start(events.StagePlanGeneration, nil)
	pctx.Plan = p.Planner.Plan(planning.Input{Intent: pctx.Intent, OriginalInput: input, MemoryContext: pctx.Memory})
	p.complete(events.StagePlanGeneration, len(pctx.Plan.Steps))
	end()

	_, end = p.span(ctx, events.StageReasoningOptimization)
	p.start(events.StageReasoningOptimization, nil)
	pctx.Optimized = p.Optimizer.Optimize(planning.OptimizeInput{Plan: pctx.Plan, MemoryContext: pctx.Memory})
	p.complete(events.StageReasoningOptimization, pctx.Optimized.ImprovementPercent)
	end()

	_, end = p.span(ctx, events.StageSafetyCheck)
	p.start(events.StageSafetyCheck, nil)
	pctx.Safety = p.Safety.CheckPlan(pctx.EffectivePlan())
	if !pctx.Safety.Allowed {
		p.fail(events.StageSafetyCheck, pctx.Safety)
		end()
		pctx.Output = output.Format(output.Input{
			Error:        true,
			ErrorMessage: blockedMessage(pctx.Safety),
			Metadata: map[string]interface{}{
				"confirmationMessage": pctx.Safety.ConfirmationMessage,
				"blockedReasons":      pctx.Safety.BlockedReasons,
			},
		})
		return p.abort(pctx, start, pctx.Output.ErrorMessage)
	}
	p.complete(events.StageSafetyCheck, pctx.Safety)
	end()

	_, end = p.span(ctx, events.StageToolRouting)
	p.start(events.StageToolRouting, nil)
	pctx.Routing = p.Router.Route(pctx.EffectivePlan())
	p.complete(events.StageToolRouting, len(pctx.Routing.Routes))
	end()

	stepCtx, end := p.span(ctx, events.StageStepExecution)
	p.start(events.StageStepExecution, nil)
	pctx.StepResults = p.executeSteps(stepCtx, pctx.Routing)
	p.complete(events.StageStepExecution, len(pctx.StepResults))
	end()

	_, end = p.span(ctx, events.StageOutputAggregation)
	p.start(events.StageOutputAggregation, nil)
	pctx.Output = output.Format(output.Input{Content: aggregate(pctx.StepResults)})
	p.complete(events.StageOutputAggregation, nil)
	end()

	if p.Config.MemoryEnabled && p.Memory != nil {
		_, end = p.span(ctx, events.StageMemoryUpdate)
		p.start(events.StageMemoryUpdate, nil)
		record := memory.TaskRecord{
			ID:            pctx.RequestID,
			Input:         input,
			Output:        pctx.Output.Content,
			Success:       allSucceeded(pctx.StepResults),
			Steps:         len(pctx.StepResults),
			ExecutionTime: time.Since(start),
			UserID:        p.Config.UserID,
			SessionID:     p.Config.SessionID,
		}
		if err := p.Memory.SaveTask(ctx, record); err != nil {
			p.log().Warn("memory save failed", "request_id", pctx.RequestID, "error", err.Error())
		}
		p.complete(events.StageMemoryUpdate, nil)
		end()
	} else {
		p.skipStage(events.StageMemoryUpdate)
	}

	result := Result{
		Success:       allSucceeded(pctx.StepResults),
		Output:        pctx.Output,
		Context:       pctx,
		ExecutionTime: time.Since(start),
		StepsExecuted: stepIDs(pctx.StepResults),
	}

	if p.Bus != nil {
		p.Bus.Publish(events.Event{Stage: events.EventProcessingCompleted, Status: events.StatusComplete, Data: result})
	}
	return result
}

func (p *Pipeline) abort(pctx *Context, start time.Time, reason string) Result {
	result := Result{
		Success:       false,
		Output:        pctx.Output,
		Context:       pctx,
		ExecutionTime: time.Since(start),
		Error:         reason,
	}
	if p.Bus != nil {
		p.Bus.Publish(events.Event{Stage: events.EventProcessingError, Status: events.StatusError, Data: result})
	}
	return result
}

func blockedMessage(check types.SafetyCheck) string {
	reason := "execution blocked by safety policy"
	if len(check.BlockedReasons) > 0 {
		reason = check.BlockedReasons[0]
	}
	policyErr := &errs.PolicyError{Code: errs.CodePolicyBlocked, Message: reason, Risks: check.Risks}
	return policyErr.Error()
}

func allSucceeded(results []StepOutcome) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}

func stepIDs(results []StepOutcome) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.StepID
	}
	return ids
}

func aggregate(results []StepOutcome) interface{} {
	if len(results) == 1 {
		return results[0].Data
	}
	out := make([]interface{}, len(results))
	for i, r := range results {
		out[i] = r.Data
	}
	return out
}
