package dbhooks

import (
	"context"
	"fmt"
	"sync"
)

type modelOperation struct {
	model     string
	operation Operation
}

type globalHook struct {
	operation Operation
	handler   GlobalHookFunc
}

// HookRegistry stores argument-transforming hooks and applies them as an ordered pipeline.
type HookRegistry struct {
	mu     sync.RWMutex
	global []globalHook
	model  map[modelOperation][]HookFunc
	obs    *observer
}

// NewHookRegistry creates an empty HookRegistry.
func NewHookRegistry(options ...ComponentOption) *HookRegistry {
	return newHookRegistry(newObserver(options...))
}

func newHookRegistry(obs *observer) *HookRegistry {
	return &HookRegistry{
		model: make(map[modelOperation][]HookFunc),
		obs:   obs,
	}
}

// RegisterHook appends a hook for one model and one operation. Nil handlers are ignored.
// Unknown operations and the wildcard are rejected with a warning.
func (hr *HookRegistry) RegisterHook(model string, operation Operation, handler HookFunc) {
	if handler == nil {
		return
	}

	if err := validateRegistration(operation, false); err != nil {
		hr.obs.registrationRejected(model, operation, err)
		return
	}

	hr.mu.Lock()
	defer hr.mu.Unlock()

	mo := modelOperation{model: model, operation: operation}
	hr.model[mo] = append(hr.model[mo], handler)
}

// RegisterGlobalHook appends a hook for every model, for one operation or for AllOperations.
// Nil handlers are ignored, unknown operations are rejected with a warning.
func (hr *HookRegistry) RegisterGlobalHook(operation Operation, handler GlobalHookFunc) {
	if handler == nil {
		return
	}

	if err := validateRegistration(operation, true); err != nil {
		hr.obs.registrationRejected("", operation, err)
		return
	}

	hr.mu.Lock()
	defer hr.mu.Unlock()

	hr.global = append(hr.global, globalHook{operation: operation, handler: handler})
}

// ApplyAll runs the matching hooks as a left fold seeded with args and returns the final args.
//
// Global hooks registered for AllOperations or for operation run first, then the hooks registered
// for exactly (model, operation), each group in registration order. The ambient request is read
// once from ctx and handed to every hook. A hook that fails or panics leaves the args unchanged and
// the pipeline continues, so ApplyAll never fails.
func (hr *HookRegistry) ApplyAll(ctx context.Context, model string, operation Operation, args any) any {
	request := RequestFromContext(ctx)
	globals, models := hr.snapshot(model, operation)

	current := args

	for _, handler := range globals {
		current = hr.applyGlobal(ctx, handler, current, model, operation, request)
	}

	for _, handler := range models {
		current = hr.applyModel(ctx, handler, current, model, operation, request)
	}

	return current
}

func (hr *HookRegistry) snapshot(model string, operation Operation) ([]GlobalHookFunc, []HookFunc) {
	hr.mu.RLock()
	defer hr.mu.RUnlock()

	var globals []GlobalHookFunc
	for _, hook := range hr.global {
		if hook.operation == AllOperations || hook.operation == operation {
			globals = append(globals, hook.handler)
		}
	}

	models := append([]HookFunc(nil), hr.model[modelOperation{model: model, operation: operation}]...)

	return globals, models
}

func (hr *HookRegistry) applyGlobal(
	ctx context.Context,
	handler GlobalHookFunc,
	args any,
	model string,
	operation Operation,
	request any,
) (next any) {
	next = args

	defer func() {
		if r := recover(); r != nil {
			hr.obs.hookFailed(ctx, model, operation, hookScopeGlobal, fmt.Errorf("%w: %v", ErrHookPanicked, r))
			next = args
		}
	}()

	result, err := handler(ctx, args, model, operation, request)
	if err != nil {
		hr.obs.hookFailed(ctx, model, operation, hookScopeGlobal, err)
		return args
	}

	return result
}

func (hr *HookRegistry) applyModel(
	ctx context.Context,
	handler HookFunc,
	args any,
	model string,
	operation Operation,
	request any,
) (next any) {
	next = args

	defer func() {
		if r := recover(); r != nil {
			hr.obs.hookFailed(ctx, model, operation, hookScopeModel, fmt.Errorf("%w: %v", ErrHookPanicked, r))
			next = args
		}
	}()

	result, err := handler(ctx, args, request)
	if err != nil {
		hr.obs.hookFailed(ctx, model, operation, hookScopeModel, err)
		return args
	}

	return result
}
