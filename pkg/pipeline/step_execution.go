package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/cogpipe/core/pkg/command"
	"github.com/cogpipe/core/pkg/events"
	"github.com/cogpipe/core/pkg/types"
)

// executeSteps runs a RoutingDecision's routes via the tool executor,
// parallel or sequential per its ExecutionMode, emitting a progress
// event per step at start/complete/failure (spec §4.12 step 9).
// ModeConditional is executed sequentially: nothing about per-step
// branching is specified, so it gets the same ordering guarantee as
// ModeSequential.
func (p *Pipeline) executeSteps(ctx context.Context, routing types.RoutingDecision) []StepOutcome {
	total := len(routing.Routes)
	if total == 0 {
		return nil
	}

	if routing.ExecutionMode == types.ModeParallel {
		outcomes := make([]StepOutcome, total)
		var wg sync.WaitGroup
		for i, route := range routing.Routes {
			wg.Add(1)
			go func(i int, route types.ToolRoute) {
				defer wg.Done()
				outcomes[i] = p.executeStep(ctx, route, i, total)
			}(i, route)
		}
		wg.Wait()
		return outcomes
	}

	outcomes := make([]StepOutcome, 0, total)
	for i, route := range routing.Routes {
		outcome := p.executeStep(ctx, route, i, total)
		outcomes = append(outcomes, outcome)
		if !outcome.Success && !p.Config.StepOptions.ContinueOnError {
			break
		}
	}
	return outcomes
}

func (p *Pipeline) executeStep(ctx context.Context, route types.ToolRoute, index, total int) StepOutcome {
	progress := float64(index+1) / float64(total)
	p.stepEvent(route.StepID, index, total, "start", progress)

	var auditID string
	if route.Tool == types.ToolShell && p.Command != nil {
		cmd, _ := route.Parameters["command"].(string)
		validation := p.Command.ValidateForExecution(cmd, p.Config.UserID, p.Config.Permissions)
		auditID = validation.AuditID
		if !validation.Allowed {
			outcome := StepOutcome{StepID: route.StepID, Tool: route.Tool, Success: false, Error: validation.Reason}
			p.stepEvent(route.StepID, index, total, "failure", progress)
			return outcome
		}
	}

	callStart := time.Now()
	result := p.Executor.Execute(ctx, route, p.Config.StepOptions)

	if auditID != "" {
		_ = p.Command.RecordExecution(auditID, command.ExecutionRecord{
			Success:  result.Success,
			Error:    result.Error,
			Duration: time.Since(callStart),
		})
	}

	status := "complete"
	if !result.Success {
		status = "failure"
	}
	p.stepEvent(route.StepID, index, total, status, progress)

	return StepOutcome{
		StepID:  route.StepID,
		Tool:    route.Tool,
		Success: result.Success,
		Data:    result.Data,
		Error:   result.Error,
	}
}

func (p *Pipeline) stepEvent(stepID string, index, total int, status string, progress float64) {
	if p.Bus == nil {
		return
	}
	p.Bus.Progress(events.StageStepExecution, map[string]interface{}{
		"stepId":     stepID,
		"stepIndex":  index,
		"totalSteps": total,
		"status":     status,
		"progress":   progress,
	})
}
