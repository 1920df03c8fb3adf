package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateForExecution_DangerousAlwaysRejected(t *testing.T) {
	v, err := NewValidator(PolicyLists{}, nil)
	require.NoError(t, err)

	perms := PermissionSet{PermSystemAdmin: true, PermShellExecute: true}
	result := v.ValidateForExecution("rm -rf /", "user-1", perms)

	assert.False(t, result.Allowed)
	assert.NotEmpty(t, result.AuditID)
}

func TestValidateForExecution_MissingPermissionRejected(t *testing.T) {
	v, err := NewValidator(PolicyLists{}, nil)
	require.NoError(t, err)

	result := v.ValidateForExecution("cat file.txt", "user-1", PermissionSet{})
	assert.False(t, result.Allowed)
	assert.Contains(t, result.Reason, PermShellRead)
}

func TestValidateForExecution_AllowedWithPermission(t *testing.T) {
	v, err := NewValidator(PolicyLists{}, nil)
	require.NoError(t, err)

	perms := PermissionSet{PermShellRead: true}
	result := v.ValidateForExecution("cat file.txt", "user-1", perms)
	assert.True(t, result.Allowed)
}

func TestValidateForExecution_BlacklistWins(t *testing.T) {
	v, err := NewValidator(PolicyLists{Blacklist: []string{`^cat\s`}}, nil)
	require.NoError(t, err)

	perms := PermissionSet{PermShellRead: true}
	result := v.ValidateForExecution("cat file.txt", "user-1", perms)
	assert.False(t, result.Allowed)
}

func TestValidateForExecution_WhitelistMustMatch(t *testing.T) {
	v, err := NewValidator(PolicyLists{Whitelist: []string{`^ls\b`}}, nil)
	require.NoError(t, err)

	perms := PermissionSet{PermShellRead: true}
	allowed := v.ValidateForExecution("ls -la", "user-1", perms)
	assert.True(t, allowed.Allowed)

	blocked := v.ValidateForExecution("cat file.txt", "user-1", perms)
	assert.False(t, blocked.Allowed)
}

func TestRecordExecution_AttachesOutcomeOnce(t *testing.T) {
	v, err := NewValidator(PolicyLists{}, nil)
	require.NoError(t, err)

	perms := PermissionSet{PermShellRead: true}
	result := v.ValidateForExecution("cat file.txt", "user-1", perms)
	require.True(t, result.Allowed)

	err = v.RecordExecution(result.AuditID, ExecutionRecord{Success: true, Output: "ok"})
	require.NoError(t, err)

	log := v.AuditLog()
	require.Len(t, log, 1)
	assert.True(t, log[0].Executed)
	assert.Equal(t, "ok", log[0].Result.Output)
}

func TestRecordExecution_UnknownIDFails(t *testing.T) {
	v, err := NewValidator(PolicyLists{}, nil)
	require.NoError(t, err)

	err = v.RecordExecution("does-not-exist", ExecutionRecord{Success: true})
	assert.Error(t, err)
}
