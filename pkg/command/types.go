package command

import (
	"time"

	"github.com/cogpipe/core/pkg/types"
)

// Type is the closed set of shell command classifications (Glossary).
type Type string

const (
	TypeRead    Type = "READ"
	TypeWrite   Type = "WRITE"
	TypeExecute Type = "EXECUTE"
	TypeSystem  Type = "SYSTEM"
	TypeNetwork Type = "NETWORK"
)

// Permission names required to run a given Type (spec §4.6).
const (
	PermShellRead     = "shell:read"
	PermShellExecute  = "shell:execute"
	PermSystemAdmin   = "system:admin"
	PermNetworkExecute = "network:execute"
)

// RequiredPermission maps a command Type to the single permission it needs.
func RequiredPermission(t Type) string {
	switch t {
	case TypeRead:
		return PermShellRead
	case TypeWrite, TypeExecute:
		return PermShellExecute
	case TypeSystem:
		return PermSystemAdmin
	case TypeNetwork:
		return PermNetworkExecute
	default:
		return PermShellExecute
	}
}

// Classification is the result of classifying a shell command.
type Classification struct {
	Type                 Type
	Risk                 types.RiskLevel
	Dangerous            bool
	RequiresConfirmation bool
	MatchedPattern       string
}

// Result of a ValidateForExecution call.
type ValidationResult struct {
	Allowed        bool
	Reason         string
	Classification Classification
	AuditID        string
}

// ExecutionRecord is attached to an existing AuditLogEntry once the
// command has actually run.
type ExecutionRecord struct {
	Success  bool
	Output   string
	Error    string
	Duration time.Duration
}

// AuditLogEntry records one classification decision. Entries are appended
// monotonically and never mutated except to attach a Result for an
// already-created entry (spec §3 Lifecycles).
type AuditLogEntry struct {
	ID             string
	Timestamp      time.Time
	UserID         string
	Command        string
	Classification Classification
	Allowed        bool
	Executed       bool
	Result         *ExecutionRecord
}
