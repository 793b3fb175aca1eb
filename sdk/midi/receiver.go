package midi

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/leandrodaf/midirx/internal/decode"
	"github.com/leandrodaf/midirx/internal/device"
	"github.com/leandrodaf/midirx/internal/dispatch"
	"github.com/leandrodaf/midirx/internal/nrpn"
	"github.com/leandrodaf/midirx/internal/queue"
	"github.com/leandrodaf/midirx/sdk/contracts"
)

// ErrClosed is returned by operations on a receiver that has been torn down.
var ErrClosed = errors.New("receiver closed")

var _ contracts.Receiver = (*Receiver)(nil)

// Receiver owns the input devices, the ingestion queue, the NRPN state and the dispatch
// goroutine. Device callbacks only decode and enqueue; subscribers run on the dispatch
// goroutine.
//
// Messages from one device reach subscribers in the order the device sent them. A
// reassembled NRPN message is enqueued when its last piece arrives, so it can land after
// messages that arrived between its pieces.
type Receiver struct {
	logger     contracts.Logger
	fatal      contracts.FatalHandler
	driver     contracts.Driver
	ownsDriver bool

	queue    *queue.Queue[dispatch.Event]
	filter   *nrpn.Filter
	registry *dispatch.Registry
	loop     *dispatch.Loop
	devices  *device.Manager

	initOnce    sync.Once
	closeOnce   sync.Once
	started     atomic.Bool
	closed      atomic.Bool
	done        chan struct{}
	dispatchErr error
	closeErr    error
}

// NewReceiver creates a receiver with the specified options. Devices are not opened until
// Init.
//
// opts ...contracts.Option: A variadic list of option functions to customize the receiver.
//
// Returns:
//   - *Receiver: The receiver.
//   - error: An error, if any occurred while applying options or creating the driver.
func NewReceiver(opts ...contracts.Option) (*Receiver, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	ownsDriver := false
	if options.Driver == nil {
		options.Driver, err = NewDriver(&options)
		if err != nil {
			return nil, err
		}
		ownsDriver = true
	}

	log := options.Logger.Named("receiver")
	r := &Receiver{
		logger:     log,
		fatal:      options.FatalHandler,
		driver:     options.Driver,
		ownsDriver: ownsDriver,
		queue:      queue.New[dispatch.Event](),
		filter:     nrpn.NewFilter(),
		registry:   &dispatch.Registry{},
		done:       make(chan struct{}),
	}
	r.loop = dispatch.NewLoop(r.queue, r.registry, options.Logger.Named("dispatch"))

	r.devices, err = device.NewManager(options.Driver, r.bind, options.Logger.Named("devices"), options.RetryDelay)
	if err != nil {
		return nil, err
	}
	// partial NRPN sequences from devices that are gone must not merge into new ones
	r.devices.OnCleared(r.filter.ResetAll)
	return r, nil
}

// Init opens every input device and starts the dispatch goroutine. Later calls are no-ops.
func (r *Receiver) Init() error {
	if r.closed.Load() {
		return ErrClosed
	}
	r.initOnce.Do(func() {
		r.devices.OpenAll()
		r.started.Store(true)
		go r.runDispatch()
	})
	return nil
}

func (r *Receiver) runDispatch() {
	defer close(r.done)
	if err := r.loop.Run(); err != nil {
		r.dispatchErr = err
		if !r.closed.Load() {
			// nothing consumes the queue any more
			r.fatal("Dispatch loop failed", err)
		}
	}
}

// Subscribe appends a callback invoked on the dispatch goroutine for every message.
// Subscribe before Init; there is no way to unsubscribe.
func (r *Receiver) Subscribe(owner string, callback func(contracts.Message)) {
	r.registry.Subscribe(owner, callback)
}

// RescanDevices stops and releases every device, then reopens whatever is available.
func (r *Receiver) RescanDevices() error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.devices.Rescan(); err != nil {
		r.logger.Error("Errors while stopping devices for rescan", r.logger.Field().Error("error", err))
		return fmt.Errorf("rescan: %w", err)
	}
	return nil
}

// Devices returns the names of the open input devices.
func (r *Receiver) Devices() []string {
	return r.devices.Devices()
}

// Dispatched returns how many messages have been delivered to subscribers.
func (r *Receiver) Dispatched() uint64 {
	return r.loop.Dispatched()
}

// NewInput creates a producer entry point for one device. Each Input must be used by one
// callback thread at a time and closed once its device is stopped.
func (r *Receiver) NewInput(name string) *Input {
	return &Input{r: r, name: name, producer: r.queue.NewProducer()}
}

func (r *Receiver) bind(info contracts.DeviceInfo) device.Binding {
	in := r.NewInput(info.Name)
	return device.Binding{
		OnMessage: func(raw []byte) {
			// already logged; driver callbacks have nowhere to return it
			_ = in.OnRawMessage(raw)
		},
		Release: in.Close,
	}
}

// Close tears the receiver down: devices are stopped first so nothing else gets enqueued,
// stale messages are discarded, then a single terminate event stops the dispatch
// goroutine. A failure during teardown goes to the fatal handler. Close returns the error
// that stopped the dispatch loop, if any.
func (r *Receiver) Close() error {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		r.closeErr = r.teardown()
	})
	return r.closeErr
}

func (r *Receiver) teardown() (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.fatal("Teardown panicked", fmt.Errorf("%v", p))
		}
	}()

	if stopErr := r.devices.StopAndClearAll(); stopErr != nil {
		r.fatal("Failed to stop input devices during teardown", stopErr)
	}

	if n := r.queue.SizeApprox(); n > 0 {
		r.logger.Info("Discarding messages left in queue", r.logger.Field().Int("count", n))
	}
	r.queue.NewConsumer().Drain()
	r.queue.Enqueue(dispatch.Terminate())

	if r.started.Load() {
		<-r.done
	}

	if r.ownsDriver {
		if closeErr := r.driver.Close(); closeErr != nil {
			r.fatal("Failed to close MIDI driver during teardown", closeErr)
		}
	}
	r.logger.Info("Receiver closed", r.logger.Field().Uint64("dispatched", r.loop.Dispatched()))
	return r.dispatchErr
}

// Input is the producer side of one device.
type Input struct {
	r        *Receiver
	name     string
	producer *queue.Producer[dispatch.Event]
}

// OnRawMessage decodes one raw message and enqueues what subscribers should see.
//
// Controller changes go through NRPN reassembly: the four NRPN controllers (99, 98, 6,
// 38) are consumed and produce a single controller change carrying the 14-bit parameter
// number and value once the sequence completes. Note-on, pitch-bend and other controller
// changes are enqueued unchanged. Every other message type is dropped.
func (in *Input) OnRawMessage(raw []byte) error {
	msg, err := decode.Decode(raw)
	if err != nil {
		in.r.logger.Error("Failed to decode MIDI message",
			in.r.logger.Field().String("op", "OnRawMessage"),
			in.r.logger.Field().String("device", in.name),
			in.r.logger.Field().Error("error", err))
		return fmt.Errorf("%s: %w", in.name, err)
	}

	switch msg.Type {
	case contracts.ControllerChange:
		out := in.r.filter.ProcessPiece(msg.Channel, uint8(msg.Number), uint8(msg.Value))
		switch out.Kind {
		case nrpn.Complete:
			in.producer.Enqueue(dispatch.Data(contracts.Message{
				Type:    contracts.ControllerChange,
				Channel: msg.Channel,
				Number:  out.Parameter,
				Value:   out.Value,
			}))
			return nil
		case nrpn.Accumulating:
			return nil
		}
		fallthrough
	case contracts.NoteOn, contracts.PitchBend:
		in.producer.Enqueue(dispatch.Data(msg))
	}
	return nil
}

// Close retires the input's queue token.
func (in *Input) Close() {
	in.producer.Close()
}
