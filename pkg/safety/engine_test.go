package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cogpipe/core/pkg/types"
)

func TestCheckStep_BlockedToolIsCritical(t *testing.T) {
	e := NewEngine(Policy{BlockedTools: []types.ToolType{types.ToolShell}})
	check := e.CheckStep(types.TaskStep{Tool: types.ToolShell, Parameters: map[string]interface{}{"command": "ls"}})
	assert.False(t, check.Allowed)
	assert.Equal(t, types.RiskCritical, check.RiskLevel)
}

func TestCheckStep_FSBlockedPath(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	check := e.CheckStep(types.TaskStep{
		Tool:       types.ToolFS,
		Parameters: map[string]interface{}{"operation": "read", "path": "/bin/ls"},
	})
	assert.False(t, check.Allowed)
	assert.Equal(t, types.RiskCritical, check.RiskLevel)
}

func TestCheckStep_FSDeleteBlockedWithoutDestructiveOps(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	check := e.CheckStep(types.TaskStep{
		Tool:       types.ToolFS,
		Parameters: map[string]interface{}{"operation": "delete", "path": "/tmp/a.txt"},
	})
	assert.False(t, check.Allowed)
	assert.Equal(t, types.RiskHigh, check.RiskLevel)
}

func TestCheckStep_FSDeleteAllowedWithDestructiveOps(t *testing.T) {
	policy := DefaultPolicy()
	policy.AllowDestructiveOps = true
	e := NewEngine(policy)
	check := e.CheckStep(types.TaskStep{
		Tool:       types.ToolFS,
		Parameters: map[string]interface{}{"operation": "delete", "path": "/tmp/a.txt"},
	})
	assert.True(t, check.Allowed)
	assert.Equal(t, types.RiskMedium, check.RiskLevel)
}

func TestCheckStep_ShellCriticalPatternBlocked(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	check := e.CheckStep(types.TaskStep{
		Tool:       types.ToolShell,
		Parameters: map[string]interface{}{"command": "rm -rf /"},
	})
	assert.False(t, check.Allowed)
	assert.Equal(t, types.RiskCritical, check.RiskLevel)
}

func TestCheckStep_ShellSudoIsHighRisk(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	check := e.CheckStep(types.TaskStep{
		Tool:       types.ToolShell,
		Parameters: map[string]interface{}{"command": "sudo apt install curl"},
	})
	assert.True(t, check.Allowed)
	assert.Equal(t, types.RiskHigh, check.RiskLevel)
	assert.True(t, check.RequiresConfirmation)
}

func TestCheckStep_PeerAlwaysHighRiskConfirmation(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	check := e.CheckStep(types.TaskStep{Tool: types.ToolPeer})
	assert.Equal(t, types.RiskHigh, check.RiskLevel)
	assert.True(t, check.RequiresConfirmation)
}

func TestCheckPlan_AggregatesMaxRiskAndBlocksIfAnyStepBlocked(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	plan := &types.ExecutionPlan{
		Steps: []types.TaskStep{
			{ID: "s1", Tool: types.ToolFS, Description: "read", Parameters: map[string]interface{}{"operation": "read", "path": "/tmp/a"}},
			{ID: "s2", Tool: types.ToolShell, Description: "dangerous", Parameters: map[string]interface{}{"command": "rm -rf /"}},
		},
	}
	check := e.CheckPlan(plan)
	assert.False(t, check.Allowed)
	assert.Equal(t, types.RiskCritical, check.RiskLevel)
	assert.NotEmpty(t, check.ConfirmationMessage)
}

func TestCheckPlan_ConfirmationRequiredAtThresholdEvenIfAllowed(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	plan := &types.ExecutionPlan{
		Steps: []types.TaskStep{
			{ID: "s1", Tool: types.ToolFS, Description: "write", Parameters: map[string]interface{}{"operation": "write", "path": "/tmp/a"}},
		},
	}
	check := e.CheckPlan(plan)
	assert.True(t, check.Allowed)
	assert.True(t, check.RequiresConfirmation)
}
