package planning

import (
	"fmt"
	"strings"

	"github.com/cogpipe/core/pkg/types"
)

// OptimizeInput is what the Reasoning Optimizer needs (spec §4.4).
type OptimizeInput struct {
	Plan          *types.ExecutionPlan
	MemoryContext []types.MemoryItem
}

// Optimizer applies the five ordered, idempotent transforms from spec §4.4.
type Optimizer struct{}

// NewOptimizer builds an Optimizer.
func NewOptimizer() *Optimizer {
	return &Optimizer{}
}

// Optimize deduplicates, merges, reorders, recomputes parallel groups, and
// applies memory-informed caching, in that order. Applying it twice to the
// same plan yields the same result as applying it once (spec §8).
func (o *Optimizer) Optimize(in OptimizeInput) types.OptimizationResult {
	original := in.Plan
	steps := cloneSteps(original.Steps)
	var transformations []string

	steps, deduped := deduplicate(steps)
	if deduped > 0 {
		transformations = append(transformations, fmt.Sprintf("deduplicated %d step(s)", deduped))
	}

	steps, merged := merge(steps)
	if merged > 0 {
		transformations = append(transformations, fmt.Sprintf("merged %d step(s) into batches", merged))
	}

	steps, reordered := reorderByPriority(steps)
	if reordered {
		transformations = append(transformations, "reordered by priority")
	}

	groups := computeParallelGroups(steps)

	cached := applyMemoryCache(steps, in.MemoryContext)
	if cached > 0 {
		transformations = append(transformations, fmt.Sprintf("cache-informed %d step(s) from memory", cached))
	}

	optimized := &types.ExecutionPlan{
		ID:             original.ID,
		Steps:          steps,
		ParallelGroups: groups,
		TotalDuration:  estimateDuration(steps, groups),
	}

	var improvement float64
	if original.TotalDuration > 0 {
		diff := float64(original.TotalDuration - optimized.TotalDuration)
		if diff > 0 {
			improvement = diff / float64(original.TotalDuration) * 100
		}
	}

	return types.OptimizationResult{
		Original:           original,
		Optimized:          optimized,
		Transformations:    transformations,
		ImprovementPercent: improvement,
	}
}

func cloneSteps(steps []types.TaskStep) []types.TaskStep {
	out := make([]types.TaskStep, len(steps))
	for i, s := range steps {
		cp := s
		cp.Parameters = cloneParams(s.Parameters)
		cp.Dependencies = append([]string(nil), s.Dependencies...)
		out[i] = cp
	}
	return out
}

func cloneParams(params map[string]interface{}) map[string]interface{} {
	if params == nil {
		return nil
	}
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

// deduplicate drops steps with an identical canonical key, rewriting any
// dependency on the removed id to the first occurrence (spec §4.4 step 1).
func deduplicate(steps []types.TaskStep) ([]types.TaskStep, int) {
	firstByKey := map[string]string{}
	replacement := map[string]string{}
	kept := make([]types.TaskStep, 0, len(steps))
	removed := 0

	for _, s := range steps {
		key := canonicalKey(s)
		if firstID, exists := firstByKey[key]; exists {
			replacement[s.ID] = firstID
			removed++
			continue
		}
		firstByKey[key] = s.ID
		kept = append(kept, s)
	}

	for i := range kept {
		kept[i].Dependencies = rewriteDeps(kept[i].Dependencies, replacement)
	}
	return kept, removed
}

func rewriteDeps(deps []string, replacement map[string]string) []string {
	if len(replacement) == 0 {
		return deps
	}
	out := make([]string, len(deps))
	for i, d := range deps {
		if r, ok := replacement[d]; ok {
			out[i] = r
		} else {
			out[i] = d
		}
	}
	return out
}

// merge fuses every maximal run of consecutive independent steps sharing a
// tool, both parallelizable and dependency-free, into one batched step
// (spec §4.4 step 2). A whole run is fused in a single pass rather than
// pairwise, so a freshly batched step is never re-merged with its own
// neighbor on a later call — required for the transform to be idempotent
// (spec §8): three adjacent eligible steps must batch straight to one
// step, not to two and then, on a second call, to one.
func merge(steps []types.TaskStep) ([]types.TaskStep, int) {
	out := make([]types.TaskStep, 0, len(steps))
	merged := 0

	i := 0
	for i < len(steps) {
		runEnd := i + 1
		for runEnd < len(steps) && canMergePair(steps[i], steps[runEnd]) {
			runEnd++
		}
		if runEnd-i == 1 {
			out = append(out, steps[i])
			i++
			continue
		}

		run := steps[i:runEnd]
		descs := make([]string, len(run))
		params := make([]map[string]interface{}, len(run))
		batched := run[0]
		for k, s := range run {
			descs[k] = s.Description
			params[k] = s.Parameters
			if s.EstimatedDuration > batched.EstimatedDuration {
				batched.EstimatedDuration = s.EstimatedDuration
			}
		}
		batched.Description = fmt.Sprintf("Batch: %s", strings.Join(descs, " + "))
		batched.Parameters = map[string]interface{}{"batch": params}

		out = append(out, batched)
		merged += len(run) - 1
		i = runEnd
	}
	return out, merged
}

func canMergePair(a, b types.TaskStep) bool {
	return a.Tool == b.Tool &&
		a.CanParallelize && b.CanParallelize &&
		len(a.Dependencies) == 0 && len(b.Dependencies) == 0
}

// reorderByPriority applies a stable bubble sort: swap adjacent steps
// (i, i+1) when i+1 has higher priority than i and i+1 does not
// transitively depend on i, repeating until no swap applies (spec §4.4
// step 3).
func reorderByPriority(steps []types.TaskStep) ([]types.TaskStep, bool) {
	out := append([]types.TaskStep(nil), steps...)
	changed := false

	for swapped := true; swapped; {
		swapped = false
		for i := 0; i+1 < len(out); i++ {
			if out[i+1].Priority > out[i].Priority && !dependsOn(out, out[i+1].ID, out[i].ID) {
				out[i], out[i+1] = out[i+1], out[i]
				swapped = true
				changed = true
			}
		}
	}
	return out, changed
}

func dependsOn(steps []types.TaskStep, fromID, targetID string) bool {
	byID := make(map[string]types.TaskStep, len(steps))
	for _, s := range steps {
		byID[s.ID] = s
	}
	visited := map[string]bool{}
	var walk func(id string) bool
	walk = func(id string) bool {
		if visited[id] {
			return false
		}
		visited[id] = true
		step, ok := byID[id]
		if !ok {
			return false
		}
		for _, dep := range step.Dependencies {
			if dep == targetID || walk(dep) {
				return true
			}
		}
		return false
	}
	return walk(fromID)
}

// applyMemoryCache sets UseCache and shrinks duration for fs steps whose
// description equals the content of a memory item (spec §4.4 step 5).
func applyMemoryCache(steps []types.TaskStep, memoryContext []types.MemoryItem) int {
	if len(memoryContext) == 0 {
		return 0
	}
	cached := 0
	for i := range steps {
		if steps[i].Tool != types.ToolFS {
			continue
		}
		for _, item := range memoryContext {
			if item.Content == steps[i].Description {
				steps[i].UseCache = true
				steps[i].EstimatedDuration = steps[i].EstimatedDuration / 10
				cached++
				break
			}
		}
	}
	return cached
}
