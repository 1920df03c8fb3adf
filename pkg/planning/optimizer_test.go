package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cogpipe/core/pkg/types"
)

func TestOptimize_DeduplicatesAndRewritesDependents(t *testing.T) {
	dupParams := map[string]interface{}{"operation": "read", "path": "a.txt"}
	steps := []types.TaskStep{
		{ID: "s1", Tool: types.ToolFS, Description: "Read a.txt", Parameters: dupParams},
		{ID: "s2", Tool: types.ToolFS, Description: "Read a.txt", Parameters: dupParams},
		{ID: "s3", Tool: types.ToolAI, Description: "Analyze", Dependencies: []string{"s2"}},
	}
	plan := &types.ExecutionPlan{ID: "p1", Steps: steps, TotalDuration: 100}

	result := NewOptimizer().Optimize(OptimizeInput{Plan: plan})

	assert.Len(t, result.Optimized.Steps, 2)
	var analyze *types.TaskStep
	for i := range result.Optimized.Steps {
		if result.Optimized.Steps[i].Description == "Analyze" {
			analyze = &result.Optimized.Steps[i]
		}
	}
	if assert.NotNil(t, analyze) {
		assert.Equal(t, []string{"s1"}, analyze.Dependencies)
	}
	assert.Contains(t, result.Transformations, "deduplicated 1 step(s)")
}

func TestOptimize_MergesConsecutiveIndependentSameToolSteps(t *testing.T) {
	steps := []types.TaskStep{
		{ID: "s1", Tool: types.ToolNetworking, Description: "GET a", CanParallelize: true, EstimatedDuration: 100 * time.Millisecond},
		{ID: "s2", Tool: types.ToolNetworking, Description: "GET b", CanParallelize: true, EstimatedDuration: 200 * time.Millisecond},
	}
	plan := &types.ExecutionPlan{ID: "p1", Steps: steps, TotalDuration: 300 * time.Millisecond}

	result := NewOptimizer().Optimize(OptimizeInput{Plan: plan})

	assert.Len(t, result.Optimized.Steps, 1)
	assert.Equal(t, 200*time.Millisecond, result.Optimized.Steps[0].EstimatedDuration)
}

func TestOptimize_ReordersWithoutViolatingDependencies(t *testing.T) {
	steps := []types.TaskStep{
		{ID: "low", Priority: 1},
		{ID: "high", Priority: 9, Dependencies: []string{"low"}},
	}
	plan := &types.ExecutionPlan{ID: "p1", Steps: steps}

	result := NewOptimizer().Optimize(OptimizeInput{Plan: plan})

	// "high" depends on "low" so it cannot be swapped ahead of it even
	// though it has a higher priority.
	assert.Equal(t, "low", result.Optimized.Steps[0].ID)
	assert.Equal(t, "high", result.Optimized.Steps[1].ID)
}

func TestOptimize_ReordersIndependentStepsByPriority(t *testing.T) {
	steps := []types.TaskStep{
		{ID: "low", Priority: 1},
		{ID: "high", Priority: 9},
	}
	plan := &types.ExecutionPlan{ID: "p1", Steps: steps}

	result := NewOptimizer().Optimize(OptimizeInput{Plan: plan})

	assert.Equal(t, "high", result.Optimized.Steps[0].ID)
	assert.Contains(t, result.Transformations, "reordered by priority")
}

func TestOptimize_MemoryCacheShrinksMatchingFSStep(t *testing.T) {
	steps := []types.TaskStep{
		{ID: "s1", Tool: types.ToolFS, Description: "Read a.txt", EstimatedDuration: 500 * time.Millisecond},
	}
	plan := &types.ExecutionPlan{ID: "p1", Steps: steps, TotalDuration: 500 * time.Millisecond}
	memory := []types.MemoryItem{{Content: "Read a.txt", Relevance: 0.9}}

	result := NewOptimizer().Optimize(OptimizeInput{Plan: plan, MemoryContext: memory})

	assert.True(t, result.Optimized.Steps[0].UseCache)
	assert.Equal(t, 50*time.Millisecond, result.Optimized.Steps[0].EstimatedDuration)
	assert.Greater(t, result.ImprovementPercent, 0.0)
}

func TestOptimize_MergeOfThreeConsecutiveStepsIsIdempotent(t *testing.T) {
	steps := []types.TaskStep{
		{ID: "s1", Tool: types.ToolNetworking, Description: "GET a", CanParallelize: true, EstimatedDuration: 100 * time.Millisecond},
		{ID: "s2", Tool: types.ToolNetworking, Description: "GET b", CanParallelize: true, EstimatedDuration: 200 * time.Millisecond},
		{ID: "s3", Tool: types.ToolNetworking, Description: "GET c", CanParallelize: true, EstimatedDuration: 50 * time.Millisecond},
	}
	plan := &types.ExecutionPlan{ID: "p1", Steps: steps, TotalDuration: 350 * time.Millisecond}

	once := NewOptimizer().Optimize(OptimizeInput{Plan: plan})
	assert.Len(t, once.Optimized.Steps, 1, "a single pass should fuse the whole run, not just the first pair")

	twice := NewOptimizer().Optimize(OptimizeInput{Plan: once.Optimized})
	assert.Equal(t, once.Optimized.Steps, twice.Optimized.Steps)
}

func TestOptimize_IsIdempotent(t *testing.T) {
	dupParams := map[string]interface{}{"path": "a.txt"}
	steps := []types.TaskStep{
		{ID: "s1", Tool: types.ToolFS, Description: "Read a.txt", Parameters: dupParams, EstimatedDuration: 100},
		{ID: "s2", Tool: types.ToolFS, Description: "Read a.txt", Parameters: dupParams, EstimatedDuration: 100},
		{ID: "s3", Tool: types.ToolNetworking, Description: "GET x", CanParallelize: true, Priority: 2},
		{ID: "s4", Tool: types.ToolNetworking, Description: "GET y", CanParallelize: true, Priority: 7},
	}
	plan := &types.ExecutionPlan{ID: "p1", Steps: steps, TotalDuration: 400}

	once := NewOptimizer().Optimize(OptimizeInput{Plan: plan})
	twice := NewOptimizer().Optimize(OptimizeInput{Plan: once.Optimized})

	assert.Equal(t, len(once.Optimized.Steps), len(twice.Optimized.Steps))
	assert.Equal(t, once.Optimized.TotalDuration, twice.Optimized.TotalDuration)
	for i := range once.Optimized.Steps {
		assert.Equal(t, once.Optimized.Steps[i].Description, twice.Optimized.Steps[i].Description)
	}
}
