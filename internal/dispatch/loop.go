// Package dispatch drains the ingestion queue on a single goroutine and fans each
// message out to the registered callbacks.
package dispatch

import (
	"fmt"
	"sync/atomic"

	"github.com/leandrodaf/midirx/internal/queue"
	"github.com/leandrodaf/midirx/sdk/contracts"
)

// State of a dispatch loop.
type State int32

const (
	Idle State = iota
	Running
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// DispatchError reports a callback that panicked while handling a message.
type DispatchError struct {
	Owner   string
	Message contracts.Message
	Cause   any
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s to %q: callback panicked: %v", e.Message, e.Owner, e.Cause)
}

// Unwrap exposes the panic value when it was an error.
func (e *DispatchError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

// Loop is the consumer side of the ingestion queue.
type Loop struct {
	consumer   *queue.Consumer[Event]
	registry   *Registry
	logger     contracts.Logger
	state      atomic.Int32
	dispatched atomic.Uint64
}

// NewLoop creates a loop that owns the queue's consumer token.
func NewLoop(q *queue.Queue[Event], registry *Registry, logger contracts.Logger) *Loop {
	return &Loop{
		consumer: q.NewConsumer(),
		registry: registry,
		logger:   logger,
	}
}

// Run dispatches until a terminate event arrives. It must be called from exactly one
// goroutine. A panicking callback stops the loop and is returned as *DispatchError.
func (l *Loop) Run() (err error) {
	if !l.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return fmt.Errorf("dispatch loop already %s", l.State())
	}
	defer l.state.Store(int32(Terminated))

	for {
		ev, ok := l.consumer.TryDequeue()
		if !ok {
			ev = l.consumer.WaitDequeue()
		}
		if ev.Kind == EventTerminate {
			l.logger.Debug("Dispatch loop terminated", l.logger.Field().Uint64("dispatched", l.dispatched.Load()))
			return nil
		}
		if err := l.dispatch(ev.Message); err != nil {
			l.logger.Error("Dispatch loop stopped by failing callback", l.logger.Field().Error("error", err))
			return err
		}
		l.dispatched.Add(1)
	}
}

func (l *Loop) dispatch(msg contracts.Message) (err error) {
	var current string
	defer func() {
		if r := recover(); r != nil {
			err = &DispatchError{Owner: current, Message: msg, Cause: r}
		}
	}()
	for _, e := range l.registry.snapshot() {
		current = e.owner
		e.fn(msg)
	}
	return nil
}

// State returns the loop's current state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Dispatched returns how many messages were fanned out.
func (l *Loop) Dispatched() uint64 {
	return l.dispatched.Load()
}
