package command

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cogpipe/core/pkg/logger"
)

// PolicyLists holds the optional allow/deny regex lists (spec §4.6,
// loadable from YAML the same way the teacher loads workflow definitions).
type PolicyLists struct {
	Whitelist []string `yaml:"whitelist,omitempty"`
	Blacklist []string `yaml:"blacklist,omitempty"`
}

// compiledLists is PolicyLists with its patterns pre-compiled.
type compiledLists struct {
	whitelist []*regexp.Regexp
	blacklist []*regexp.Regexp
}

func compileLists(lists PolicyLists) (compiledLists, error) {
	var cl compiledLists
	for _, p := range lists.Whitelist {
		re, err := regexp.Compile(p)
		if err != nil {
			return cl, fmt.Errorf("invalid whitelist pattern %q: %w", p, err)
		}
		cl.whitelist = append(cl.whitelist, re)
	}
	for _, p := range lists.Blacklist {
		re, err := regexp.Compile(p)
		if err != nil {
			return cl, fmt.Errorf("invalid blacklist pattern %q: %w", p, err)
		}
		cl.blacklist = append(cl.blacklist, re)
	}
	return cl, nil
}

// PermissionSet is the caller's granted permission names.
type PermissionSet map[string]bool

// Has reports whether the set contains the named permission.
func (p PermissionSet) Has(name string) bool { return p[name] }

// Validator classifies and validates shell commands for execution,
// enforcing allow/deny lists and caller permissions, and maintains the
// append-only audit log.
type Validator struct {
	classifier *Classifier
	lists      compiledLists
	logger     logger.Logger

	mu  sync.Mutex
	log []AuditLogEntry
}

// NewValidator builds a Validator with optional allow/deny lists.
func NewValidator(lists PolicyLists, log logger.Logger) (*Validator, error) {
	cl, err := compileLists(lists)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NoOpLogger{}
	}
	return &Validator{classifier: NewClassifier(), lists: cl, logger: log}, nil
}

// IsAllowed applies the blacklist/whitelist policy independent of
// permissions: blacklist match denies; a configured whitelist must match
// one entry; otherwise the command is allowed iff it is not dangerous.
func (v *Validator) IsAllowed(cmd string, class Classification) (bool, string) {
	for _, re := range v.lists.blacklist {
		if re.MatchString(cmd) {
			return false, "command matches blacklist pattern"
		}
	}
	if len(v.lists.whitelist) > 0 {
		for _, re := range v.lists.whitelist {
			if re.MatchString(cmd) {
				return true, ""
			}
		}
		return false, "command does not match any whitelist pattern"
	}
	if class.Dangerous {
		return false, "command is classified as dangerous"
	}
	return true, ""
}

// ValidateForExecution classifies cmd, enforces the allow/deny policy,
// rejects dangerous commands, and checks the required permission against
// perms. Every call appends an AuditLogEntry, whether or not it is
// ultimately allowed.
func (v *Validator) ValidateForExecution(cmd, userID string, perms PermissionSet) ValidationResult {
	class := v.classifier.Classify(cmd)

	result := ValidationResult{Classification: class}

	if class.Dangerous {
		result.Allowed = false
		result.Reason = "command is classified as dangerous"
	} else if allowed, reason := v.IsAllowed(cmd, class); !allowed {
		result.Allowed = false
		result.Reason = reason
	} else {
		required := RequiredPermission(class.Type)
		if !perms.Has(required) {
			result.Allowed = false
			result.Reason = fmt.Sprintf("missing required permission %q", required)
		} else {
			result.Allowed = true
		}
	}

	result.AuditID = v.appendAudit(userID, cmd, class, result.Allowed)

	v.logger.Info("command validated", "command", cmd, "type", class.Type, "risk", class.Risk.String(), "allowed", result.Allowed)

	return result
}

// appendAudit records a new, immutable AuditLogEntry and returns its id.
func (v *Validator) appendAudit(userID, cmd string, class Classification, allowed bool) string {
	v.mu.Lock()
	defer v.mu.Unlock()

	entry := AuditLogEntry{
		ID:             uuid.New().String(),
		Timestamp:      time.Now(),
		UserID:         userID,
		Command:        cmd,
		Classification: class,
		Allowed:        allowed,
	}
	v.log = append(v.log, entry)
	return entry.ID
}

// RecordExecution attaches the outcome of an already-validated command to
// its existing audit entry. It is the only permitted mutation of an
// AuditLogEntry once created.
func (v *Validator) RecordExecution(auditID string, outcome ExecutionRecord) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range v.log {
		if v.log[i].ID == auditID {
			v.log[i].Executed = true
			v.log[i].Result = &outcome
			return nil
		}
	}
	return fmt.Errorf("audit entry %q not found", auditID)
}

// AuditLog returns a copy of the audit trail recorded so far.
func (v *Validator) AuditLog() []AuditLogEntry {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]AuditLogEntry, len(v.log))
	copy(out, v.log)
	return out
}
