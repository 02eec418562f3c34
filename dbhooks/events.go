package dbhooks

import (
	"context"
	"fmt"
	"sync"
)

// listenerClass identifies a global subscription: one phase, one operation or the wildcard.
type listenerClass struct {
	phase     Phase
	operation Operation
}

// EventController stores event listeners and fans payloads out to them.
//
// Delivery for one Publish call is synchronous and ordered:
//  1. global wildcard listeners of the phase
//  2. global listeners of the phase and the payload's operation
//  3. listeners of the exact key
//
// Each group is delivered in registration order. A failing or panicking listener is logged
// and delivery continues with the next one.
type EventController struct {
	mu     sync.RWMutex
	exact  map[string][]Listener
	global map[listenerClass][]Listener
	obs    *observer
}

// NewEventController creates an empty EventController.
func NewEventController(options ...ComponentOption) *EventController {
	return newEventController(newObserver(options...))
}

func newEventController(obs *observer) *EventController {
	return &EventController{
		exact:  make(map[string][]Listener),
		global: make(map[listenerClass][]Listener),
		obs:    obs,
	}
}

// Subscribe appends a listener for one exact key as built by Key.
// Nil listeners are ignored.
func (ec *EventController) Subscribe(key string, listener Listener) {
	if listener == nil {
		return
	}

	ec.mu.Lock()
	defer ec.mu.Unlock()

	ec.exact[key] = append(ec.exact[key], listener)
}

// SubscribeOperation appends a listener for one model, operation and phase.
// Nil listeners are ignored. Unknown operations, the wildcard and unknown phases are rejected with a warning.
func (ec *EventController) SubscribeOperation(model string, operation Operation, phase Phase, listener Listener) {
	if listener == nil {
		return
	}

	if err := validateSubscription(operation, phase, false); err != nil {
		ec.obs.registrationRejected(model, operation, err)
		return
	}

	ec.Subscribe(Key(model, operation, phase), listener)
}

// SubscribeGlobal appends a listener for every model, for one operation or for AllOperations, in one phase.
// Nil listeners are ignored, unknown operations and phases are rejected with a warning.
func (ec *EventController) SubscribeGlobal(operation Operation, phase Phase, listener Listener) {
	if listener == nil {
		return
	}

	if err := validateSubscription(operation, phase, true); err != nil {
		ec.obs.registrationRejected("", operation, err)
		return
	}

	ec.mu.Lock()
	defer ec.mu.Unlock()

	class := listenerClass{phase: phase, operation: operation}
	ec.global[class] = append(ec.global[class], listener)
}

// Publish delivers payload to all listeners matching key.
//
// The phase is derived from the key. Keys not built by Key only reach their exact-key listeners.
// Listeners may subscribe further listeners while being notified; those are only
// reached by later Publish calls.
func (ec *EventController) Publish(ctx context.Context, key string, payload Payload) {
	phase, hasPhase := PhaseOfKey(key)

	for _, listener := range ec.snapshot(key, phase, hasPhase, payload.Operation) {
		ec.notify(ctx, key, phase, payload, listener)
	}
}

func (ec *EventController) snapshot(key string, phase Phase, hasPhase bool, operation Operation) []Listener {
	ec.mu.RLock()
	defer ec.mu.RUnlock()

	var listeners []Listener

	if hasPhase {
		listeners = append(listeners, ec.global[listenerClass{phase: phase, operation: AllOperations}]...)

		if operation != AllOperations {
			listeners = append(listeners, ec.global[listenerClass{phase: phase, operation: operation}]...)
		}
	}

	return append(listeners, ec.exact[key]...)
}

func validateSubscription(operation Operation, phase Phase, wildcardAllowed bool) error {
	if !phase.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownPhase, phase)
	}

	return validateRegistration(operation, wildcardAllowed)
}

func (ec *EventController) notify(ctx context.Context, key string, phase Phase, payload Payload, listener Listener) {
	defer func() {
		if r := recover(); r != nil {
			ec.obs.listenerFailed(ctx, key, phase, payload, fmt.Errorf("%w: %v", ErrListenerPanicked, r))
		}
	}()

	if err := listener(ctx, payload); err != nil {
		ec.obs.listenerFailed(ctx, key, phase, payload, err)
	}
}
