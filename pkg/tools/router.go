package tools

import (
	"github.com/cogpipe/core/pkg/types"
)

// fallbackFor is the closed fallback map from spec §4.7: an unavailable
// tool type is retried against the mapped type before giving up.
var fallbackFor = map[types.ToolType]types.ToolType{
	types.ToolGithub: types.ToolNetworking,
	types.ToolMCP:    types.ToolNetworking,
	types.ToolSDB:    types.ToolMemory,
}

// Router binds an ExecutionPlan's steps to concrete tool methods using a
// Registry (spec §4.7).
type Router struct {
	registry *Registry
}

// NewRouter builds a Router over registry.
func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// Route produces a RoutingDecision for plan (spec §4.7).
func (router *Router) Route(plan *types.ExecutionPlan) types.RoutingDecision {
	routes := make([]types.ToolRoute, 0, len(plan.Steps))
	streaming := false

	for _, step := range plan.Steps {
		route := router.routeStep(step)
		if capability, _, ok := router.registry.Get(route.Tool); ok && capability.SupportsStreaming {
			streaming = true
		}
		routes = append(routes, route)
	}

	return types.RoutingDecision{
		Routes:           routes,
		ExecutionMode:    executionModeFor(plan, routes),
		StreamingEnabled: streaming,
	}
}

func (router *Router) routeStep(step types.TaskStep) types.ToolRoute {
	capability, _, ok := router.registry.Get(step.Tool)
	toolType := step.Tool

	if !ok || !capability.Available {
		fallback, hasFallback := fallbackFor[step.Tool]
		if !hasFallback {
			return types.ToolRoute{
				StepID:     step.ID,
				Tool:       step.Tool,
				Parameters: step.Parameters,
				Error:      "no capability registered and no fallback available",
			}
		}
		fallbackCapability, _, fallbackOK := router.registry.Get(fallback)
		if !fallbackOK || !fallbackCapability.Available {
			return types.ToolRoute{
				StepID:     step.ID,
				Tool:       step.Tool,
				Parameters: step.Parameters,
				Error:      "fallback tool unavailable",
			}
		}
		toolType = fallback
		capability = fallbackCapability
	}

	return types.ToolRoute{
		StepID:     step.ID,
		Tool:       toolType,
		Method:     methodFor(toolType, step),
		Parameters: step.Parameters,
		Timeout:    capability.DefaultTimeout,
		Retries:    capability.DefaultRetries,
	}
}

// methodFor implements the per-tool-type method-binding rule table
// (spec §4.7).
func methodFor(toolType types.ToolType, step types.TaskStep) string {
	switch toolType {
	case types.ToolFS:
		if op, ok := step.Parameters["operation"].(string); ok && op != "" {
			return op
		}
		return "read"
	case types.ToolShell:
		return "executeCommand"
	case types.ToolNetworking:
		if service, ok := step.Parameters["service"].(string); ok && service == "github" {
			return "queryGitHub"
		}
		return "request"
	case types.ToolAI:
		if mode, ok := step.Parameters["mode"].(string); ok && mode != "" {
			return mode
		}
		return "generate"
	case types.ToolPeer:
		return "executeRemote"
	case types.ToolMemory:
		if op, ok := step.Parameters["operation"].(string); ok && op != "" {
			return op
		}
		return "recall"
	case types.ToolAutomation:
		return "trigger"
	default:
		return "execute"
	}
}

// executionModeFor applies spec §4.7's execution-mode rule.
func executionModeFor(plan *types.ExecutionPlan, routes []types.ToolRoute) types.ExecutionMode {
	if len(plan.ParallelGroups) > 0 {
		return types.ModeParallel
	}

	if len(plan.Steps) > 1 && allZeroDependencies(plan.Steps) {
		return types.ModeParallel
	}

	if prioritiesDiffer(plan.Steps) {
		return types.ModeConditional
	}

	return types.ModeSequential
}

func allZeroDependencies(steps []types.TaskStep) bool {
	for _, s := range steps {
		if len(s.Dependencies) > 0 {
			return false
		}
	}
	return true
}

func prioritiesDiffer(steps []types.TaskStep) bool {
	if len(steps) < 2 {
		return false
	}
	first := steps[0].Priority
	for _, s := range steps[1:] {
		if s.Priority != first {
			return true
		}
	}
	return false
}
