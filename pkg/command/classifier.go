// Package command classifies shell commands by read/write/system/network
// and by risk, then gates execution on caller permissions, appending an
// append-only audit trail (spec §4.6). Pattern matching follows the same
// ordered, first-match-wins style the teacher's WorkflowRouter uses for
// trigger patterns, applied here to command classification instead of
// workflow selection.
package command

import (
	"regexp"

	"github.com/cogpipe/core/pkg/types"
)

// patternSet is one classification rule: if any Pattern matches, the
// command gets this Type.
type patternSet struct {
	typ      Type
	patterns []*regexp.Regexp
}

// criticalPatterns are dangerous-command signatures that always block,
// regardless of which Type the command would otherwise classify as.
var criticalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`rm\s+-rf`),
	regexp.MustCompile(`\bdd\s+if=`),
	regexp.MustCompile(`\bmkfs\b`),
	regexp.MustCompile(`\bformat\b`),
	regexp.MustCompile(`:\(\)\s*\{\s*:\|\s*:\s*&\s*\}\s*;\s*:`), // fork bomb
	regexp.MustCompile(`chmod\s+777`),
}

// orderedPatternSets is matched in order; the first Type whose pattern
// set matches wins (spec §4.6: READ, WRITE, SYSTEM, NETWORK in order).
var orderedPatternSets = []patternSet{
	{
		typ: TypeRead,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(cat|less|more|head|tail|ls|find|grep|file|stat|wc|diff)\b`),
			regexp.MustCompile(`^\s*(pwd|whoami|echo)\b`),
		},
	},
	{
		typ: TypeWrite,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(touch|mkdir|cp|mv|rm|truncate|tee)\b`),
			regexp.MustCompile(`>>?\s*\S+`),
		},
	},
	{
		typ: TypeSystem,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(sudo|su)\s`),
			regexp.MustCompile(`^\s*(systemctl|service|shutdown|reboot|kill|killall|pkill)\b`),
			regexp.MustCompile(`^\s*(apt(-get)?|yum|dnf|brew)\s+install\b`),
			regexp.MustCompile(`\bnpm\s+install\s+-g\b`),
			regexp.MustCompile(`\bpip3?\s+install\b`),
			regexp.MustCompile(`^\s*chmod\b`),
			regexp.MustCompile(`^\s*chown\b`),
		},
	},
	{
		typ: TypeNetwork,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(curl|wget|nc|netcat|ssh|scp|rsync|ping)\b`),
			regexp.MustCompile(`https?://`),
		},
	},
}

// riskFor maps a Type to its base risk level (spec §4.6).
func riskFor(t Type) types.RiskLevel {
	switch t {
	case TypeRead:
		return types.RiskSafe
	case TypeWrite:
		return types.RiskLow
	case TypeNetwork:
		return types.RiskMedium
	case TypeSystem:
		return types.RiskHigh
	default: // EXECUTE / unclassified
		return types.RiskMedium
	}
}

// Classifier classifies raw shell command strings.
type Classifier struct{}

// NewClassifier builds a Classifier with the built-in pattern sets.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns the command's Classification. The critical blacklist
// is tested first and, on a match, short-circuits to a dangerous SYSTEM
// classification regardless of which ordered pattern would otherwise win.
func (c *Classifier) Classify(cmd string) Classification {
	for _, pattern := range criticalPatterns {
		if pattern.MatchString(cmd) {
			return Classification{
				Type:                 TypeSystem,
				Risk:                 types.RiskCritical,
				Dangerous:            true,
				RequiresConfirmation: true,
				MatchedPattern:       pattern.String(),
			}
		}
	}

	for _, set := range orderedPatternSets {
		for _, pattern := range set.patterns {
			if pattern.MatchString(cmd) {
				risk := riskFor(set.typ)
				return Classification{
					Type:                 set.typ,
					Risk:                 risk,
					Dangerous:            false,
					RequiresConfirmation: risk == types.RiskHigh,
					MatchedPattern:       pattern.String(),
				}
			}
		}
	}

	// Default: EXECUTE, medium risk, no confirmation required.
	return Classification{
		Type:                 TypeExecute,
		Risk:                 types.RiskMedium,
		Dangerous:            false,
		RequiresConfirmation: false,
	}
}
