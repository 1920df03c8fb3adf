package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cogpipe/core/pkg/errs"
	"github.com/cogpipe/core/pkg/events"
	"github.com/cogpipe/core/pkg/resilience"
	"github.com/cogpipe/core/pkg/tools"
	"github.com/cogpipe/core/pkg/types"
)

const (
	defaultMaxRetries    = 2
	maxBackoff           = 10 * time.Second
	baseBackoff          = 1 * time.Second
	defaultCacheDuration = 5 * time.Minute

	// breakerFailureThreshold/breakerSleepWindow/breakerHalfOpenMax tune
	// the per-tool circuit breaker that guards against hammering a tool
	// already failing every call, mirroring the teacher's orchestrator
	// breaker defaults.
	breakerFailureThreshold = 5
	breakerSleepWindow      = 30 * time.Second
	breakerHalfOpenMax      = 1
)

// Result is one call's outcome (spec §4.9).
type Result struct {
	Success       bool
	Data          interface{}
	ExecutionTime time.Duration
	FromCache     bool
	RetryCount    int
	Error         string
}

// Options configures one Execute call.
type Options struct {
	Timeout         time.Duration
	CacheEnabled    bool
	CacheDuration   time.Duration
	MaxRetries      int
	ContinueOnError bool
}

type inFlightCall struct {
	done chan struct{}
	res  Result
}

// Executor runs ToolRoutes against a Registry with caching, in-flight
// call deduplication, and retry-with-backoff (spec §4.9).
type Executor struct {
	registry *tools.Registry
	cache    Cache
	bus      *events.Bus

	mu       sync.Mutex
	inFlight map[string]*inFlightCall
	breakers map[types.ToolType]*resilience.CircuitBreaker
}

// New builds an Executor. cache may be nil, in which case caching is
// always skipped regardless of Options.CacheEnabled. bus may be nil.
func New(registry *tools.Registry, cache Cache, bus *events.Bus) *Executor {
	return &Executor{
		registry: registry,
		cache:    cache,
		bus:      bus,
		inFlight: make(map[string]*inFlightCall),
		breakers: make(map[types.ToolType]*resilience.CircuitBreaker),
	}
}

// breakerFor returns the per-tool circuit breaker, creating it on first
// use so each tool's failures are isolated from every other tool's.
func (e *Executor) breakerFor(tool types.ToolType) *resilience.CircuitBreaker {
	e.mu.Lock()
	defer e.mu.Unlock()
	cb, ok := e.breakers[tool]
	if !ok {
		cb = resilience.NewCircuitBreaker(breakerFailureThreshold, breakerSleepWindow, breakerHalfOpenMax)
		e.breakers[tool] = cb
	}
	return cb
}

func cacheKey(route types.ToolRoute) string {
	params, _ := json.Marshal(route.Parameters)
	return fmt.Sprintf("%s:%s:%s", route.Tool, route.Method, string(params))
}

// Execute runs a single route per spec §4.9's algorithm.
func (e *Executor) Execute(ctx context.Context, route types.ToolRoute, opts Options) Result {
	start := time.Now()
	key := cacheKey(route)

	if opts.CacheEnabled && e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return Result{Success: true, Data: cached, FromCache: true, ExecutionTime: time.Since(start)}
		}
	}

	e.mu.Lock()
	if existing, ok := e.inFlight[key]; ok {
		e.mu.Unlock()
		<-existing.done
		res := existing.res
		res.ExecutionTime = time.Since(start)
		return res
	}
	call := &inFlightCall{done: make(chan struct{})}
	e.inFlight[key] = call
	e.mu.Unlock()

	res := e.runWithRetry(ctx, route, opts)
	res.ExecutionTime = time.Since(start)

	if res.Success && opts.CacheEnabled && e.cache != nil {
		duration := opts.CacheDuration
		if duration <= 0 {
			duration = defaultCacheDuration
		}
		e.cache.Set(key, res.Data, duration)
	}

	if e.bus != nil {
		if res.Success {
			e.bus.Publish(events.Event{Stage: events.EventToolExecuted, Status: events.StatusComplete, Data: route})
		} else if res.RetryCount > 0 {
			e.bus.Publish(events.Event{Stage: events.EventToolRetry, Status: events.StatusError, Data: route})
		}
	}

	call.res = res
	close(call.done)

	e.mu.Lock()
	delete(e.inFlight, key)
	e.mu.Unlock()

	return res
}

func (e *Executor) runWithRetry(ctx context.Context, route types.ToolRoute, opts Options) Result {
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}

	capability, exec, ok := e.registry.Get(route.Tool)
	if !ok {
		return Result{Success: false, Error: errs.ErrToolNotFound.Error()}
	}
	if !capability.Available {
		return Result{Success: false, Error: errs.ErrToolUnavailable.Error()}
	}
	if deps := e.registry.ValidateDependencies(route.Tool); !deps.Valid {
		return Result{Success: false, Error: fmt.Sprintf("missing dependencies: %v", deps.Missing)}
	}

	breaker := e.breakerFor(route.Tool)
	if !breaker.CanExecute() {
		return Result{Success: false, Error: (&errs.ExecutionError{
			Code:    errs.CodeCircuitOpen,
			StepID:  route.StepID,
			Message: fmt.Sprintf("circuit open for tool %q", route.Tool),
		}).Error()}
	}

	timeout := effectiveTimeout(opts.Timeout, route.Timeout, capability.DefaultTimeout)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		data, err := e.callWithTimeout(ctx, exec, route, timeout)
		if err == nil {
			breaker.RecordSuccess()
			return Result{Success: true, Data: data, RetryCount: attempt}
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}

		delay := resilience.BoundedBackoff(baseBackoff, attempt, maxBackoff)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{Success: false, Error: ctx.Err().Error(), RetryCount: attempt}
		case <-timer.C:
		}
	}

	breaker.RecordFailure()
	return Result{Success: false, Error: lastErr.Error(), RetryCount: maxRetries}
}

func (e *Executor) callWithTimeout(ctx context.Context, exec tools.Executor, route types.ToolRoute, timeout time.Duration) (interface{}, error) {
	callCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type callResult struct {
		data interface{}
		err  error
	}
	resultCh := make(chan callResult, 1)

	go func() {
		data, err := exec(route.Method, route.Parameters)
		resultCh <- callResult{data: data, err: err}
	}()

	select {
	case <-callCtx.Done():
		return nil, errs.NewTimeoutError(route.StepID, timeout)
	case r := <-resultCh:
		return r.data, r.err
	}
}

// effectiveTimeout implements spec §4.9's
// `options.timeout ?? route.timeout ?? capability.timeout`.
func effectiveTimeout(optTimeout, routeTimeout, capabilityTimeout time.Duration) time.Duration {
	if optTimeout > 0 {
		return optTimeout
	}
	if routeTimeout > 0 {
		return routeTimeout
	}
	return capabilityTimeout
}

// ExecuteParallel runs every route concurrently and returns all results,
// indexed the same as routes (spec §4.9).
func (e *Executor) ExecuteParallel(ctx context.Context, routes []types.ToolRoute, opts Options) []Result {
	results := make([]Result, len(routes))
	var wg sync.WaitGroup
	for i, route := range routes {
		wg.Add(1)
		go func(i int, route types.ToolRoute) {
			defer wg.Done()
			results[i] = e.Execute(ctx, route, opts)
		}(i, route)
	}
	wg.Wait()
	return results
}

// ExecuteSequential runs routes in order, stopping at the first failure
// unless opts.ContinueOnError is set (spec §4.9).
func (e *Executor) ExecuteSequential(ctx context.Context, routes []types.ToolRoute, opts Options) []Result {
	results := make([]Result, 0, len(routes))
	for _, route := range routes {
		res := e.Execute(ctx, route, opts)
		results = append(results, res)
		if !res.Success && !opts.ContinueOnError {
			break
		}
	}
	return results
}

// CleanupCache removes expired cache entries and reports how many were
// removed.
func (e *Executor) CleanupCache() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.Cleanup()
}
