// Package planning implements the Planner (spec §4.3) and the Reasoning
// Optimizer (spec §4.4). Step generation and duration estimation follow
// the teacher's WorkflowRouter.generatePlanFromWorkflow (step-name→order
// bookkeeping, per-step RetryPolicy-style defaults, and the
// max-of-parallel-plus-sum-of-sequential duration estimate); the
// dependency-level/parallel-group computation follows
// pkg/orchestration/executor.go's groupStepsByOrder and
// canExecuteInParallel.
package planning

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cogpipe/core/pkg/types"
)

// Input is what the Planner needs to build a plan (spec §4.3).
type Input struct {
	Intent        types.Intent
	OriginalInput string
	MemoryContext []types.MemoryItem
}

const defaultStepDuration = 500 * time.Millisecond

// Planner builds an ExecutionPlan from a classified Intent.
type Planner struct{}

// NewPlanner builds a Planner. It carries no configuration: the
// per-category templates are the fixed rules of spec §4.3.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan builds a deterministic ExecutionPlan for in.Intent, appending the
// steps for any sub-intents (fixed at one level deep, spec §9).
func (p *Planner) Plan(in Input) *types.ExecutionPlan {
	plan := &types.ExecutionPlan{ID: uuid.New().String()}

	plan.Steps = append(plan.Steps, stepsForCategory(in.Intent.Category, in.Intent.Entities, in.OriginalInput)...)
	for _, sub := range in.Intent.SubIntents {
		if sub.Category == in.Intent.Category {
			continue
		}
		plan.Steps = append(plan.Steps, stepsForCategory(sub.Category, sub.Entities, in.OriginalInput)...)
	}

	if len(plan.Steps) == 0 {
		plan.Steps = defaultGenerateStep(in.OriginalInput)
	}

	plan.ParallelGroups = computeParallelGroups(plan.Steps)
	plan.TotalDuration = estimateDuration(plan.Steps, plan.ParallelGroups)

	return plan
}

// stepsForCategory emits the template steps for one intent category
// (spec §4.3's per-category table).
func stepsForCategory(category types.IntentCategory, entities map[string][]string, input string) []types.TaskStep {
	switch category {
	case types.IntentFileRead:
		paths := entities[types.EntityFilePaths]
		steps := make([]types.TaskStep, 0, len(paths))
		for _, path := range paths {
			steps = append(steps, types.TaskStep{
				ID:                newStepID(),
				Description:       fmt.Sprintf("Read %s", path),
				Tool:              types.ToolFS,
				Parameters:        map[string]interface{}{"operation": "read", "path": path},
				CanParallelize:    true,
				Priority:          5,
				EstimatedDuration: defaultStepDuration,
			})
		}
		return steps

	case types.IntentFileWrite:
		target := firstOr(entities[types.EntityFilePaths], "output.txt")
		return []types.TaskStep{{
			ID:                newStepID(),
			Description:       fmt.Sprintf("Write %s", target),
			Tool:              types.ToolFS,
			Parameters:        map[string]interface{}{"operation": "write", "path": target},
			CanParallelize:    false,
			Priority:          5,
			EstimatedDuration: defaultStepDuration,
		}}

	case types.IntentFileSearch:
		return []types.TaskStep{{
			ID:                newStepID(),
			Description:       "Search files",
			Tool:              types.ToolFS,
			Parameters:        map[string]interface{}{"operation": "search", "query": input, "extensions": entities[types.EntityFileExtensions]},
			CanParallelize:    false,
			Priority:          5,
			EstimatedDuration: defaultStepDuration,
		}}

	case types.IntentShellCommand:
		return []types.TaskStep{{
			ID:                newStepID(),
			Description:       "Execute shell command",
			Tool:              types.ToolShell,
			Parameters:        map[string]interface{}{"command": input},
			CanParallelize:    false,
			Priority:          6,
			EstimatedDuration: defaultStepDuration,
		}}

	case types.IntentNetworkRequest:
		urls := entities[types.EntityURLs]
		steps := make([]types.TaskStep, 0, len(urls))
		for _, url := range urls {
			steps = append(steps, types.TaskStep{
				ID:                newStepID(),
				Description:       fmt.Sprintf("GET %s", url),
				Tool:              types.ToolNetworking,
				Parameters:        map[string]interface{}{"method": "GET", "url": url},
				CanParallelize:    true,
				Priority:          4,
				EstimatedDuration: defaultStepDuration,
			})
		}
		return steps

	case types.IntentGithubQuery:
		handles := entities[types.EntityGithubUsers]
		steps := make([]types.TaskStep, 0, len(handles))
		for _, handle := range handles {
			steps = append(steps, types.TaskStep{
				ID:                newStepID(),
				Description:       fmt.Sprintf("Query github for %s", handle),
				Tool:              types.ToolNetworking,
				Parameters:        map[string]interface{}{"service": "github", "handle": handle},
				CanParallelize:    true,
				Priority:          4,
				EstimatedDuration: defaultStepDuration,
			})
		}
		return steps

	case types.IntentCodeAnalysis:
		search := types.TaskStep{
			ID:                newStepID(),
			Description:       "Search source files",
			Tool:              types.ToolFS,
			Parameters:        map[string]interface{}{"operation": "search", "query": input},
			CanParallelize:    false,
			Priority:          5,
			EstimatedDuration: defaultStepDuration,
		}
		analyze := types.TaskStep{
			ID:                newStepID(),
			Description:       "Analyze code",
			Tool:              types.ToolAI,
			Parameters:        map[string]interface{}{"mode": "code_analysis", "query": input},
			Dependencies:      []string{search.ID},
			CanParallelize:    false,
			Priority:          5,
			EstimatedDuration: defaultStepDuration * 2,
		}
		return []types.TaskStep{search, analyze}

	case types.IntentMemoryRecall:
		return []types.TaskStep{{
			ID:                newStepID(),
			Description:       "Recall relevant memory",
			Tool:              types.ToolMemory,
			Parameters:        map[string]interface{}{"operation": "recall", "query": input},
			CanParallelize:    false,
			Priority:          3,
			EstimatedDuration: defaultStepDuration,
		}}

	case types.IntentMultiPC:
		return []types.TaskStep{{
			ID:                newStepID(),
			Description:       "Execute on remote peer",
			Tool:              types.ToolPeer,
			Parameters:        map[string]interface{}{"command": input},
			CanParallelize:    false,
			Priority:          7,
			EstimatedDuration: defaultStepDuration * 2,
		}}

	default:
		return defaultGenerateStep(input)
	}
}

func defaultGenerateStep(input string) []types.TaskStep {
	return []types.TaskStep{{
		ID:                newStepID(),
		Description:       "Generate response",
		Tool:              types.ToolAI,
		Parameters:        map[string]interface{}{"mode": "generate", "query": input},
		CanParallelize:    false,
		Priority:          3,
		EstimatedDuration: defaultStepDuration,
	}}
}

func newStepID() string {
	return uuid.New().String()
}

func firstOr(items []string, fallback string) string {
	if len(items) > 0 {
		return items[0]
	}
	return fallback
}

// DependencyLevels computes, for each step id, 0 if it has no
// dependencies, else 1 + the max level of its dependencies (Glossary).
func DependencyLevels(steps []types.TaskStep) map[string]int {
	byID := make(map[string]types.TaskStep, len(steps))
	for _, s := range steps {
		byID[s.ID] = s
	}
	levels := make(map[string]int, len(steps))
	var resolve func(id string, visiting map[string]bool) int
	resolve = func(id string, visiting map[string]bool) int {
		if lvl, ok := levels[id]; ok {
			return lvl
		}
		if visiting[id] {
			// Cycle guard: treat as level 0 rather than recursing forever.
			// The planner never produces cycles (spec §4.3 invariant); this
			// only protects against a malformed plan reaching here.
			return 0
		}
		visiting[id] = true
		step, ok := byID[id]
		if !ok || len(step.Dependencies) == 0 {
			levels[id] = 0
			return 0
		}
		max := -1
		for _, dep := range step.Dependencies {
			if lvl := resolve(dep, visiting); lvl > max {
				max = lvl
			}
		}
		levels[id] = max + 1
		return levels[id]
	}

	for _, s := range steps {
		resolve(s.ID, map[string]bool{})
	}
	return levels
}

// computeParallelGroups groups steps sharing a dependency level that are
// all marked parallelizable; groups of size <= 1 are dropped (spec §4.3).
func computeParallelGroups(steps []types.TaskStep) []types.ParallelGroup {
	levels := DependencyLevels(steps)
	byLevel := map[int][]string{}
	for _, s := range steps {
		if !s.CanParallelize {
			continue
		}
		lvl := levels[s.ID]
		byLevel[lvl] = append(byLevel[lvl], s.ID)
	}

	var groups []types.ParallelGroup
	for lvl, ids := range byLevel {
		if len(ids) > 1 {
			groups = append(groups, types.ParallelGroup{Level: lvl, Steps: ids})
		}
	}
	return groups
}

// estimateDuration sums sequential steps and, for each parallel group,
// takes the max duration of its members (spec §4.3).
func estimateDuration(steps []types.TaskStep, groups []types.ParallelGroup) time.Duration {
	grouped := map[string]bool{}
	for _, g := range groups {
		for _, id := range g.Steps {
			grouped[id] = true
		}
	}

	byID := make(map[string]types.TaskStep, len(steps))
	for _, s := range steps {
		byID[s.ID] = s
	}

	var total time.Duration
	for _, s := range steps {
		if !grouped[s.ID] {
			total += s.EstimatedDuration
		}
	}
	for _, g := range groups {
		var max time.Duration
		for _, id := range g.Steps {
			if d := byID[id].EstimatedDuration; d > max {
				max = d
			}
		}
		total += max
	}
	return total
}

// canonicalKey is the deduplication key used by the Optimizer: tool,
// description, and the JSON encoding of parameters.
func canonicalKey(s types.TaskStep) string {
	params, _ := json.Marshal(s.Parameters)
	return fmt.Sprintf("%s|%s|%s", s.Tool, s.Description, string(params))
}
