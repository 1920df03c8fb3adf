package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogpipe/core/pkg/command"
	"github.com/cogpipe/core/pkg/complexity"
	"github.com/cogpipe/core/pkg/events"
	"github.com/cogpipe/core/pkg/executor"
	"github.com/cogpipe/core/pkg/intent"
	"github.com/cogpipe/core/pkg/planning"
	"github.com/cogpipe/core/pkg/safety"
	"github.com/cogpipe/core/pkg/tools"
	"github.com/cogpipe/core/pkg/types"
)

// newTestPipeline wires every component with stub fs/shell/ai tools, the
// default safety policy, and a command validator with empty policy lists
// and no granted permissions, mirroring the
// kind of end-to-end harness spec.md §8's scenarios describe.
func newTestPipeline(t *testing.T) (*Pipeline, *tools.Registry) {
	t.Helper()

	registry := tools.NewRegistry()

	require.NoError(t, registry.Register(types.ToolCapability{
		Type: types.ToolFS, Name: "fs", Available: true, DefaultTimeout: 0, DefaultRetries: 0,
	}, func(method string, params map[string]interface{}) (interface{}, error) {
		path, _ := params["path"].(string)
		return fmt.Sprintf("contents of %s", path), nil
	}))

	require.NoError(t, registry.Register(types.ToolCapability{
		Type: types.ToolShell, Name: "shell", Available: true,
	}, func(method string, params map[string]interface{}) (interface{}, error) {
		return "shell output", nil
	}))

	require.NoError(t, registry.Register(types.ToolCapability{
		Type: types.ToolAI, Name: "ai", Available: true,
	}, func(method string, params map[string]interface{}) (interface{}, error) {
		return "# Hello\n\nGenerated response.", nil
	}))

	validator, err := command.NewValidator(command.PolicyLists{}, nil)
	require.NoError(t, err)

	bus := events.New()
	exec := executor.New(registry, nil, bus)

	p := &Pipeline{
		Complexity: complexity.NewDetector(),
		Intent:     intent.NewClassifier(),
		Planner:    planning.NewPlanner(),
		Optimizer:  planning.NewOptimizer(),
		Safety:     safety.NewEngine(safety.DefaultPolicy()),
		Registry:   registry,
		Router:     tools.NewRouter(registry),
		Executor:   exec,
		Command:    validator,
		Bus:        bus,
		Config:     Config{Permissions: command.PermissionSet{}},
	}
	return p, registry
}

// E1: a greeting is simple enough to skip the full pipeline entirely.
func TestProcess_E1_SimpleGreetingTakesFastPath(t *testing.T) {
	p, _ := newTestPipeline(t)

	result := p.Process(context.Background(), "Hello")

	require.True(t, result.Success)
	assert.False(t, result.Context.Complexity.ShouldUsePipeline)
	assert.NotEmpty(t, result.Output.Content)
	assert.Empty(t, result.Context.Intent.Category, "fast path never runs intent detection")
	for _, outcome := range result.Context.StepResults {
		assert.NotEqual(t, types.ToolFS, outcome.Tool)
		assert.NotEqual(t, types.ToolShell, outcome.Tool)
	}
}

// E2: a single-file read goes through the full pipeline as one sequential
// fs.read step with a safe/low risk rating.
func TestProcess_E2_SingleFileReadRunsSequentially(t *testing.T) {
	p, _ := newTestPipeline(t)

	result := p.Process(context.Background(), "Read /tmp/a.txt")

	require.True(t, result.Success)
	assert.Equal(t, types.IntentFileRead, result.Context.Intent.Category)
	require.Len(t, result.Context.StepResults, 1)
	assert.Equal(t, types.ToolFS, result.Context.StepResults[0].Tool)
	assert.Equal(t, types.ModeSequential, result.Context.Routing.ExecutionMode)
	assert.True(t, result.Context.Safety.Allowed)
	assert.LessOrEqual(t, result.Context.Safety.RiskLevel, types.RiskLow)
}

// E3: a destructive shell command is blocked by the safety engine before
// any execution happens.
func TestProcess_E3_DestructiveShellCommandIsBlocked(t *testing.T) {
	p, _ := newTestPipeline(t)

	result := p.Process(context.Background(), "Run rm -rf / on the system")

	require.False(t, result.Success)
	assert.False(t, result.Context.Safety.Allowed)
	assert.Equal(t, types.RiskCritical, result.Context.Safety.RiskLevel)
	assert.Empty(t, result.Context.StepResults, "a blocked plan never reaches step execution")
	assert.True(t, result.Output.Error)
	assert.Contains(t, result.Error, "POLICY_BLOCKED")
}

// E4: reading two files "at the same time" produces two fs.read steps in
// one parallel group and runs them concurrently.
func TestProcess_E4_TwoFileReadsRunInParallel(t *testing.T) {
	p, _ := newTestPipeline(t)

	result := p.Process(context.Background(), "Read file1.txt and file2.txt at the same time")

	require.True(t, result.Success)
	require.Len(t, result.Context.StepResults, 2)
	for _, outcome := range result.Context.StepResults {
		assert.Equal(t, types.ToolFS, outcome.Tool)
		assert.True(t, outcome.Success)
	}
	require.Len(t, result.Context.Plan.ParallelGroups, 1)
	assert.Len(t, result.Context.Plan.ParallelGroups[0].Steps, 2)
	assert.Equal(t, types.ModeParallel, result.Context.Routing.ExecutionMode)
}

func TestProcess_UnrecognizedInputFallsBackToGenerate(t *testing.T) {
	p, _ := newTestPipeline(t)

	result := p.Process(context.Background(), "xyzzy plugh quux")

	require.True(t, result.Success)
	require.Len(t, result.Context.StepResults, 1)
	assert.Equal(t, types.ToolAI, result.Context.StepResults[0].Tool)
}

func TestProcess_EmitsProcessingStartedAndCompletedEvents(t *testing.T) {
	p, _ := newTestPipeline(t)

	var started, completed bool
	p.Bus.On(events.EventProcessingStarted, func(evt events.Event) { started = true })
	p.Bus.On(events.EventProcessingCompleted, func(evt events.Event) { completed = true })

	p.Process(context.Background(), "Hello")

	assert.True(t, started)
	assert.True(t, completed)
}
