package pipeline

import (
	"context"
	"time"

	"github.com/cogpipe/core/pkg/events"
	"github.com/cogpipe/core/pkg/memory"
	"github.com/cogpipe/core/pkg/output"
	"github.com/cogpipe/core/pkg/types"
)

// skippedStages lists every stage a fast-path run never performs, in
// execution order, so each still gets the start/complete pair the
// event bus contract requires (spec §4.12 step 2, §4.13).
var skippedStages = []string{
	events.StageIntentDetection,
	events.StageMemoryRetrieval,
	events.StagePlanGeneration,
	events.StageReasoningOptimization,
	events.StageSafetyCheck,
	events.StageToolRouting,
}

// fastPath handles the C1 short-circuit: low-complexity input skips
// planning entirely and goes straight to an AI-generate call through
// the tool registry.
func (p *Pipeline) fastPath(ctx context.Context, pctx *Context, start time.Time) Result {
	for _, stage := range skippedStages {
		p.skipStage(stage)
	}

	route := types.ToolRoute{
		StepID: pctx.RequestID,
		Tool:   types.ToolAI,
		Method: "generate",
		Parameters: map[string]interface{}{
			"prompt": pctx.Input,
		},
	}

	_, end := p.span(ctx, events.StageStepExecution)
	p.start(events.StageStepExecution, nil)
	result := p.Executor.Execute(ctx, route, p.Config.StepOptions)
	p.complete(events.StageStepExecution, result.Success)
	end()

	outcome := StepOutcome{StepID: route.StepID, Tool: route.Tool, Success: result.Success, Data: result.Data, Error: result.Error}
	pctx.StepResults = []StepOutcome{outcome}

	_, end = p.span(ctx, events.StageOutputAggregation)
	p.start(events.StageOutputAggregation, nil)
	if result.Success {
		pctx.Output = output.Format(output.Input{Content: result.Data})
	} else {
		pctx.Output = output.Format(output.Input{Error: true, ErrorMessage: result.Error})
	}
	p.complete(events.StageOutputAggregation, nil)
	end()

	if p.Config.MemoryEnabled && p.Memory != nil {
		_, end = p.span(ctx, events.StageMemoryUpdate)
		p.start(events.StageMemoryUpdate, nil)
		record := memory.TaskRecord{
			ID:            pctx.RequestID,
			Input:         pctx.Input,
			Output:        pctx.Output.Content,
			Success:       result.Success,
			Steps:         1,
			ExecutionTime: time.Since(start),
			UserID:        p.Config.UserID,
			SessionID:     p.Config.SessionID,
		}
		_ = p.Memory.SaveTask(ctx, record)
		p.complete(events.StageMemoryUpdate, nil)
		end()
	} else {
		p.skipStage(events.StageMemoryUpdate)
	}

	out := Result{
		Success:       result.Success,
		Output:        pctx.Output,
		Context:       pctx,
		ExecutionTime: time.Since(start),
		StepsExecuted: []string{route.StepID},
	}
	if !result.Success {
		out.Error = result.Error
	}

	if p.Bus != nil {
		status := events.StatusComplete
		stage := events.EventProcessingCompleted
		if !result.Success {
			status = events.StatusError
			stage = events.EventProcessingError
		}
		p.Bus.Publish(events.Event{Stage: stage, Status: status, Data: out})
	}
	return out
}
