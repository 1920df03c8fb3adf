package safety

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/cogpipe/core/pkg/types"
)

// criticalShellPatterns mirrors pkg/command's critical blacklist: a shell
// step matching any of these is blocked outright regardless of policy.
var criticalShellPatterns = []*regexp.Regexp{
	regexp.MustCompile(`rm\s+-rf`),
	regexp.MustCompile(`\bdd\s+if=`),
	regexp.MustCompile(`\bmkfs\b`),
	regexp.MustCompile(`\bformat\b`),
	regexp.MustCompile(`:\(\)\s*\{\s*:\|:&\s*\};:`),
	regexp.MustCompile(`chmod\s+777`),
}

var highRiskShellPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bsudo\s`),
	regexp.MustCompile(`\bsu\s`),
	regexp.MustCompile(`\bapt\s+install\b`),
	regexp.MustCompile(`\byum\s+install\b`),
	regexp.MustCompile(`\bbrew\s+install\b`),
	regexp.MustCompile(`\bnpm\s+install\s+-g\b`),
	regexp.MustCompile(`\bpip\s+install\b`),
}

// Engine validates TaskSteps and ExecutionPlans against a Policy.
type Engine struct {
	policy Policy
}

// NewEngine builds an Engine with the given policy.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// CheckStep validates one step in isolation (spec §4.5 per-step rules).
func (e *Engine) CheckStep(step types.TaskStep) types.SafetyCheck {
	if e.policy.isBlockedTool(step.Tool) {
		return types.SafetyCheck{
			Allowed:        false,
			RiskLevel:      types.RiskCritical,
			BlockedReasons: []string{fmt.Sprintf("tool %q is blocked by policy", step.Tool)},
		}
	}

	switch step.Tool {
	case types.ToolFS:
		return e.checkFS(step)
	case types.ToolShell:
		return e.checkShell(step)
	case types.ToolNetworking:
		return e.checkNetworking(step)
	case types.ToolPeer:
		return types.SafetyCheck{Allowed: true, RiskLevel: types.RiskHigh, RequiresConfirmation: true}
	case types.ToolAutomation:
		return types.SafetyCheck{Allowed: true, RiskLevel: types.RiskMedium, RequiresConfirmation: true}
	default:
		return types.SafetyCheck{Allowed: true, RiskLevel: types.RiskSafe}
	}
}

func (e *Engine) checkFS(step types.TaskStep) types.SafetyCheck {
	path, _ := step.Parameters["path"].(string)
	if path != "" && e.policy.isBlockedPath(path) {
		return types.SafetyCheck{
			Allowed:        false,
			RiskLevel:      types.RiskCritical,
			BlockedReasons: []string{fmt.Sprintf("path %q is blocked by policy", path)},
		}
	}

	operation, _ := step.Parameters["operation"].(string)
	check := types.SafetyCheck{Allowed: true, RiskLevel: types.RiskSafe}

	switch operation {
	case "write":
		check.RiskLevel = types.RiskMedium
	case "delete":
		if !e.policy.AllowDestructiveOps {
			return types.SafetyCheck{
				Allowed:        false,
				RiskLevel:      types.RiskHigh,
				BlockedReasons: []string{"destructive fs delete is disabled by policy"},
			}
		}
		check.RiskLevel = types.RiskMedium
	}

	if strings.ContainsAny(path, "*?") && check.RiskLevel < types.RiskHigh {
		check.RiskLevel = types.RiskHigh
	}

	return check
}

func (e *Engine) checkShell(step types.TaskStep) types.SafetyCheck {
	command, _ := step.Parameters["command"].(string)

	for _, re := range criticalShellPatterns {
		if re.MatchString(command) {
			return types.SafetyCheck{
				Allowed:              false,
				RiskLevel:            types.RiskCritical,
				RequiresConfirmation: true,
				BlockedReasons:       []string{fmt.Sprintf("command matches blocked pattern %q", re.String())},
			}
		}
	}

	risk := types.RiskMedium
	for _, re := range highRiskShellPatterns {
		if re.MatchString(command) {
			risk = types.RiskHigh
			break
		}
	}

	return types.SafetyCheck{
		Allowed:              true,
		RiskLevel:            risk,
		RequiresConfirmation: true,
	}
}

func (e *Engine) checkNetworking(step types.TaskStep) types.SafetyCheck {
	url, _ := step.Parameters["url"].(string)
	risk := types.RiskSafe
	if isInternalHost(url) || (strings.HasPrefix(url, "http://") && !strings.Contains(url, "localhost")) {
		risk = types.RiskMedium
	}
	return types.SafetyCheck{Allowed: true, RiskLevel: risk}
}

func isInternalHost(url string) bool {
	for _, host := range []string{"10.", "192.168.", "172.16.", "169.254."} {
		if strings.Contains(url, "://"+host) {
			return true
		}
	}
	return false
}

// CheckPlan validates every step and aggregates the results (spec §4.5).
func (e *Engine) CheckPlan(plan *types.ExecutionPlan) types.SafetyCheck {
	aggregate := types.SafetyCheck{Allowed: true, RiskLevel: types.RiskSafe}
	threshold := e.policy.resolveThreshold()

	var riskyDescriptions []string
	for _, step := range plan.Steps {
		check := e.CheckStep(step)
		if !check.Allowed {
			aggregate.Allowed = false
			aggregate.BlockedReasons = append(aggregate.BlockedReasons, check.BlockedReasons...)
		}
		if check.RequiresConfirmation {
			aggregate.RequiresConfirmation = true
		}
		if check.RiskLevel > aggregate.RiskLevel {
			aggregate.RiskLevel = check.RiskLevel
		}
		if check.RiskLevel > types.RiskSafe {
			riskyDescriptions = append(riskyDescriptions, fmt.Sprintf("%s (%s)", step.Description, check.RiskLevel))
			aggregate.Risks = append(aggregate.Risks, fmt.Sprintf("%s: %s", step.ID, check.RiskLevel))
		}
	}

	if aggregate.RiskLevel >= threshold {
		aggregate.RequiresConfirmation = true
	}

	if aggregate.RequiresConfirmation {
		sort.Strings(riskyDescriptions)
		aggregate.ConfirmationMessage = confirmationMessage(aggregate.RiskLevel, riskyDescriptions)
	}

	return aggregate
}

func confirmationMessage(risk types.RiskLevel, steps []string) string {
	if len(steps) == 0 {
		return fmt.Sprintf("This plan carries %s risk and requires confirmation.", risk)
	}
	return fmt.Sprintf("This plan carries %s risk and requires confirmation for: %s", risk, strings.Join(steps, "; "))
}
