// Package safety implements the Safety Engine (spec §4.5): per-step risk
// validation against a configurable policy, plan-level aggregation, and
// deterministic confirmation-message generation. The policy-knob shape
// (defaults plus yaml-loadable overrides) follows the same pattern as
// pkg/command's PolicyLists; the destructive-command pattern set for
// shell steps is a separate copy of pkg/command's critical-blacklist
// regexes, whose fork-bomb pattern accepts fewer whitespace variants.
package safety

import (
	"strings"

	"github.com/cogpipe/core/pkg/types"
)

// defaultBlockedPaths are the system directories blocked unless a policy
// overrides them (spec §4.5).
var defaultBlockedPaths = []string{
	"/System", "/usr/bin", "/bin", "/sbin",
	`C:\Windows\System32`, `C:\Windows\SysWOW64`,
}

// Policy holds the Safety Engine's configuration knobs (spec §4.5).
type Policy struct {
	AllowDestructiveOps          bool             `yaml:"allowDestructiveOps"`
	RequireConfirmationThreshold types.RiskLevel   `yaml:"-"`
	RequireConfirmationThresholdName string       `yaml:"requireConfirmationThreshold"`
	BlockedTools                 []types.ToolType `yaml:"blockedTools"`
	BlockedPaths                 []string         `yaml:"blockedPaths"`
}

// DefaultPolicy returns the spec's default knob values.
func DefaultPolicy() Policy {
	return Policy{
		AllowDestructiveOps:          false,
		RequireConfirmationThreshold: types.RiskMedium,
		BlockedTools:                 nil,
		BlockedPaths:                 append([]string(nil), defaultBlockedPaths...),
	}
}

// resolveThreshold lets a policy loaded from YAML (which only knows the
// string name) resolve to its RiskLevel, defaulting to RiskMedium.
func (p Policy) resolveThreshold() types.RiskLevel {
	if p.RequireConfirmationThresholdName != "" {
		return types.ParseRiskLevel(p.RequireConfirmationThresholdName)
	}
	if p.RequireConfirmationThreshold == 0 && p.RequireConfirmationThresholdName == "" {
		return types.RiskMedium
	}
	return p.RequireConfirmationThreshold
}

func (p Policy) isBlockedTool(tool types.ToolType) bool {
	for _, t := range p.BlockedTools {
		if t == tool {
			return true
		}
	}
	return false
}

func (p Policy) isBlockedPath(path string) bool {
	for _, blocked := range p.BlockedPaths {
		if path == blocked || strings.HasPrefix(path, blocked) {
			return true
		}
	}
	return false
}
