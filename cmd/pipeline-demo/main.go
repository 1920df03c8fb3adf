// Command pipeline-demo wires every component the pipeline uses (all of
// Cognitive Pipeline Core except the broker) with in-process defaults
// and runs one input from argv through it,
// printing the formatted output to stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/cogpipe/core/pkg/command"
	"github.com/cogpipe/core/pkg/complexity"
	"github.com/cogpipe/core/pkg/config"
	"github.com/cogpipe/core/pkg/events"
	"github.com/cogpipe/core/pkg/executor"
	"github.com/cogpipe/core/pkg/intent"
	"github.com/cogpipe/core/pkg/logger"
	"github.com/cogpipe/core/pkg/memory"
	"github.com/cogpipe/core/pkg/model"
	"github.com/cogpipe/core/pkg/pipeline"
	"github.com/cogpipe/core/pkg/planning"
	"github.com/cogpipe/core/pkg/safety"
	"github.com/cogpipe/core/pkg/telemetry"
	"github.com/cogpipe/core/pkg/tools"
	"github.com/cogpipe/core/pkg/types"
)

func main() {
	input := strings.Join(os.Args[1:], " ")
	if input == "" {
		input = "Hello"
	}

	cfg, err := config.NewConfig(os.Getenv("PIPELINE_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	log := logger.NewSimpleLogger()
	log.SetLevel(cfg.Logging.Level)
	bus := events.New()
	bus.On("", func(evt events.Event) {
		log.Debug("event", "stage", evt.Stage, "status", string(evt.Status))
	})

	ctx := context.Background()
	telem, err := telemetry.NewProvider(ctx, cfg.ToTelemetryConfig())
	if err != nil {
		log.Error("telemetry init failed", "error", err.Error())
		os.Exit(1)
	}
	defer telem.Shutdown(ctx)

	registry := tools.NewRegistry()
	provider := model.NewStubProvider()

	mustRegister(registry, types.ToolCapability{
		Type: types.ToolFS, Name: "filesystem", Available: true,
		Operations: []string{"read", "write", "search"},
	}, fsExecutor)

	validator, err := command.NewValidator(cfg.Command, log)
	if err != nil {
		log.Error("command validator init failed", "error", err.Error())
		os.Exit(1)
	}

	mustRegister(registry, types.ToolCapability{
		Type: types.ToolShell, Name: "shell", Available: true,
		Operations: []string{"executeCommand"},
	}, shellExecutor)

	mustRegister(registry, types.ToolCapability{
		Type: types.ToolAI, Name: "ai", Available: true,
		Operations: []string{"generate", "code_analysis"},
	}, aiExecutor(ctx, provider))

	var cache executor.Cache
	if cfg.Executor.RedisCacheURL != "" {
		redisCache, err := executor.NewRedisCache(cfg.Executor.RedisCacheURL, "cogpipe:cache")
		if err != nil {
			log.Warn("redis cache unavailable, falling back to in-memory", "error", err.Error())
			cache = executor.NewInMemoryCache()
		} else {
			cache = redisCache
		}
	} else {
		cache = executor.NewInMemoryCache()
	}

	store := memory.NewInMemoryStore(cfg.MemoryTTL())

	p := &pipeline.Pipeline{
		Complexity: complexity.NewDetector(),
		Intent:     intent.NewClassifier(),
		Planner:    planning.NewPlanner(),
		Optimizer:  planning.NewOptimizer(),
		Safety:     safety.NewEngine(cfg.Safety),
		Registry:   registry,
		Router:     tools.NewRouter(registry),
		Executor:   executor.New(registry, cache, bus),
		Memory:     store,
		Command:    validator,
		Bus:        bus,
		Log:        log,
		Telemetry:  telem,
		Config: pipeline.Config{
			MemoryEnabled: cfg.Pipeline.MemoryEnabled,
			UserID:        "demo-user",
			SessionID:     "demo-session",
			Permissions:   command.PermissionSet{command.PermShellExecute: true},
			StepOptions:   cfg.ToExecutorOptions(),
		},
	}

	result := p.Process(ctx, input)

	fmt.Println(result.Output.Content)
	if result.Output.Error {
		os.Exit(1)
	}
}

func mustRegister(registry *tools.Registry, capability types.ToolCapability, exec tools.Executor) {
	if err := registry.Register(capability, exec); err != nil {
		panic(err)
	}
}

func fsExecutor(method string, params map[string]interface{}) (interface{}, error) {
	path, _ := params["path"].(string)
	switch method {
	case "write":
		content, _ := params["content"].(string)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, err
		}
		return fmt.Sprintf("wrote %d bytes to %s", len(content), path), nil
	case "search":
		query, _ := params["query"].(string)
		return fmt.Sprintf("search for %q is not implemented in the demo binary", query), nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	}
}

func shellExecutor(method string, params map[string]interface{}) (interface{}, error) {
	command, _ := params["command"].(string)
	cmd := exec.Command("sh", "-c", command)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, string(out))
	}
	return string(out), nil
}

func aiExecutor(ctx context.Context, provider model.Provider) tools.Executor {
	return func(method string, params map[string]interface{}) (interface{}, error) {
		prompt, _ := params["prompt"].(string)
		if prompt == "" {
			if query, ok := params["query"].(string); ok {
				prompt = query
			}
		}
		return provider.Generate(ctx, model.Request{Prompt: prompt, Mode: method})
	}
}
