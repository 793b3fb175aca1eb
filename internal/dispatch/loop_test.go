package dispatch

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/midirx/internal/logger"
	"github.com/leandrodaf/midirx/internal/queue"
	"github.com/leandrodaf/midirx/sdk/contracts"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	mu   sync.Mutex
	msgs []contracts.Message
}

func (r *recorder) record(m contracts.Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
}

func (r *recorder) all() []contracts.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]contracts.Message(nil), r.msgs...)
}

func newLoop(t *testing.T) (*Loop, *queue.Queue[Event], *Registry) {
	t.Helper()
	core, _ := observer.New(zapcore.DebugLevel)
	q := queue.New[Event]()
	reg := &Registry{}
	return NewLoop(q, reg, logger.NewZapLoggerWithCore(core)), q, reg
}

func runAsync(l *Loop) <-chan error {
	done := make(chan error, 1)
	go func() { done <- l.Run() }()
	return done
}

func TestCallbacksRunInRegistrationOrder(t *testing.T) {
	l, q, reg := newLoop(t)

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"profile", "status", "log"} {
		name := name
		reg.Subscribe(name, func(contracts.Message) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		})
	}

	done := runAsync(l)
	q.Enqueue(Data(contracts.Message{Type: contracts.NoteOn, Number: 60, Value: 1}))
	q.Enqueue(Terminate())

	require.NoError(t, <-done)
	require.Equal(t, []string{"profile", "status", "log"}, order)
	require.Equal(t, uint64(1), l.Dispatched())
	require.Equal(t, Terminated, l.State())
}

func TestTerminateUnblocksWaitingLoopWithoutDispatching(t *testing.T) {
	l, q, reg := newLoop(t)
	rec := &recorder{}
	reg.Subscribe("rec", rec.record)

	done := runAsync(l)
	require.Eventually(t, func() bool { return l.State() == Running }, time.Second, time.Millisecond)

	// let the loop park in WaitDequeue
	time.Sleep(20 * time.Millisecond)
	q.Enqueue(Terminate())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not observe terminate")
	}
	require.Empty(t, rec.all())
}

func TestMessagesAfterTerminateAreNotDispatched(t *testing.T) {
	l, q, reg := newLoop(t)
	rec := &recorder{}
	reg.Subscribe("rec", rec.record)

	p := q.NewProducer()
	first := contracts.Message{Type: contracts.ControllerChange, Number: 1, Value: 1}
	p.Enqueue(Data(first))
	p.Enqueue(Terminate())
	p.Enqueue(Data(contracts.Message{Type: contracts.ControllerChange, Number: 2, Value: 2}))

	require.NoError(t, <-runAsync(l))
	require.Equal(t, []contracts.Message{first}, rec.all())
}

func TestPanickingCallbackIsReturned(t *testing.T) {
	l, q, reg := newLoop(t)
	boom := errors.New("boom")
	reg.Subscribe("ok", func(contracts.Message) {})
	reg.Subscribe("broken", func(contracts.Message) { panic(boom) })

	msg := contracts.Message{Type: contracts.PitchBend, Channel: 1, Value: 8192}
	q.Enqueue(Data(msg))

	err := <-runAsync(l)
	var de *DispatchError
	require.ErrorAs(t, err, &de)
	require.Equal(t, "broken", de.Owner)
	require.Equal(t, msg, de.Message)
	require.ErrorIs(t, err, boom)
	require.Equal(t, Terminated, l.State())
}

func TestRunTwiceFails(t *testing.T) {
	l, q, _ := newLoop(t)
	q.Enqueue(Terminate())
	require.NoError(t, l.Run())
	require.Error(t, l.Run())
}

func TestNilCallbackIgnored(t *testing.T) {
	reg := &Registry{}
	reg.Subscribe("nil", nil)
	require.Zero(t, reg.Len())
}
