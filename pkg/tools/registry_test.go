package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogpipe/core/pkg/types"
)

func noopExecutor(method string, parameters map[string]interface{}) (interface{}, error) {
	return nil, nil
}

func TestRegister_RejectsDuplicateType(t *testing.T) {
	r := NewRegistry()
	capability := types.ToolCapability{Type: types.ToolFS, Priority: 1}
	require.NoError(t, r.Register(capability, noopExecutor))

	err := r.Register(capability, noopExecutor)
	assert.Error(t, err)
}

func TestRegister_RejectsConflictingAlias(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(types.ToolCapability{Type: types.ToolFS, Aliases: []string{"files"}}, noopExecutor))

	err := r.Register(types.ToolCapability{Type: types.ToolShell, Aliases: []string{"files"}}, noopExecutor)
	assert.Error(t, err)
}

func TestGetByAlias_ResolvesRegisteredType(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(types.ToolCapability{Type: types.ToolFS, Aliases: []string{"files"}}, noopExecutor))

	cap, _, ok := r.GetByAlias("files")
	require.True(t, ok)
	assert.Equal(t, types.ToolFS, cap.Type)
}

func TestGetAvailableTools_SortedByPriorityDescending(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(types.ToolCapability{Type: types.ToolFS, Priority: 1}, noopExecutor))
	require.NoError(t, r.Register(types.ToolCapability{Type: types.ToolShell, Priority: 5}, noopExecutor))
	require.NoError(t, r.Register(types.ToolCapability{Type: types.ToolAI, Priority: 3}, noopExecutor))

	tools := r.GetAvailableTools()
	require.Len(t, tools, 3)
	assert.Equal(t, types.ToolShell, tools[0].Type)
	assert.Equal(t, types.ToolAI, tools[1].Type)
	assert.Equal(t, types.ToolFS, tools[2].Type)
}

func TestSetAvailability_ExcludesFromAvailableTools(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(types.ToolCapability{Type: types.ToolFS, Priority: 1}, noopExecutor))

	r.SetAvailability(types.ToolFS, false)
	assert.False(t, r.IsAvailable(types.ToolFS))
	assert.Empty(t, r.GetAvailableTools())
}

func TestValidateDependencies_ReportsMissing(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(types.ToolCapability{Type: types.ToolAI, Dependencies: []types.ToolType{types.ToolMemory}}, noopExecutor))

	result := r.ValidateDependencies(types.ToolAI)
	assert.False(t, result.Valid)
	assert.Equal(t, []types.ToolType{types.ToolMemory}, result.Missing)
}

func TestGetStats_CountsAvailableAndStreaming(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(types.ToolCapability{Type: types.ToolFS, SupportsStreaming: true}, noopExecutor))
	require.NoError(t, r.Register(types.ToolCapability{Type: types.ToolShell}, noopExecutor))
	r.SetAvailability(types.ToolShell, false)

	stats := r.GetStats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Available)
	assert.Equal(t, 1, stats.Unavailable)
	assert.Equal(t, 1, stats.Streaming)
}
