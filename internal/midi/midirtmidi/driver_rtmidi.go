//go:build cgo
// +build cgo

// Package midirtmidi opens MIDI inputs through RtMidi (ALSA, JACK, CoreMIDI or winmm,
// depending on how rtmidi was built).
package midirtmidi

import (
	"fmt"
	"sync"

	"github.com/leandrodaf/midirx/sdk/contracts"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Driver wraps an rtmididrv driver.
type Driver struct {
	logger contracts.Logger
	drv    *rtmididrv.Driver
}

// NewDriver initialises the rtmidi driver.
func NewDriver(options *contracts.ReceiverOptions) (contracts.Driver, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	options.Logger.Info("RtMidi driver created")
	return &Driver{logger: options.Logger, drv: drv}, nil
}

// ListDevices returns every rtmidi input port.
func (d *Driver) ListDevices() ([]contracts.DeviceInfo, error) {
	ins, err := d.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	devices := make([]contracts.DeviceInfo, len(ins))
	for i, in := range ins {
		devices[i] = contracts.DeviceInfo{
			Index:      in.Number(),
			Name:       in.String(),
			EntityName: in.String(),
		}
	}
	return devices, nil
}

// Open opens the input port. Listening starts with Start.
func (d *Driver) Open(device contracts.DeviceInfo, onMessage func(raw []byte)) (contracts.InputHandle, error) {
	ins, err := d.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	var found drivers.In
	for _, in := range ins {
		if in.Number() == device.Index && in.String() == device.Name {
			found = in
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("input %q not found", device.Name)
	}
	if err := found.Open(); err != nil {
		return nil, fmt.Errorf("open %q: %w", device.Name, err)
	}
	return &handle{in: found, logger: d.logger, onMessage: onMessage}, nil
}

// Close shuts the rtmidi driver down.
func (d *Driver) Close() error {
	return d.drv.Close()
}

type handle struct {
	in        drivers.In
	logger    contracts.Logger
	onMessage func(raw []byte)

	mu     sync.Mutex
	stopFn func()
}

func (h *handle) Name() string { return h.in.String() }

func (h *handle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopFn != nil {
		return nil
	}
	stop, err := gomidi.ListenTo(h.in, func(msg gomidi.Message, _ int32) {
		h.onMessage(msg)
	}, gomidi.HandleError(func(listenErr error) {
		h.logger.Warn("MIDI listener error",
			h.logger.Field().String("device", h.in.String()),
			h.logger.Field().Error("error", listenErr))
	}))
	if err != nil {
		return fmt.Errorf("listen %q: %w", h.in.String(), err)
	}
	h.stopFn = stop
	return nil
}

func (h *handle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopFn != nil {
		h.stopFn()
		h.stopFn = nil
	}
	return nil
}

func (h *handle) Close() error {
	return h.in.Close()
}
