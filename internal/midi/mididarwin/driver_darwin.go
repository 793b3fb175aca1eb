//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midirx/internal/decode"
	"github.com/leandrodaf/midirx/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for MIDI connection and handling issues.
var (
	ErrInvalidMIDIDevice   = errors.New("invalid MIDI device")
	ErrMIDIConnectionError = errors.New("error connecting to MIDI device")
	ErrCreateInputPort     = errors.New("error creating input port")
)

// portConnection is satisfied by the connection returned from InputPort.Connect.
type portConnection interface {
	Disconnect()
}

// Driver enumerates and opens CoreMIDI sources.
type Driver struct {
	logger contracts.Logger
	client coremidi.Client
}

// NewDriver creates the CoreMIDI client used for every input port.
func NewDriver(options *contracts.ReceiverOptions) (contracts.Driver, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("CoreMIDI client successfully created",
		options.Logger.Field().String("client", options.CoreMIDIConfig.ClientName))

	return &Driver{logger: options.Logger, client: client}, nil
}

// ListDevices returns every CoreMIDI source.
func (d *Driver) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}

	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		entity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			Index:        i,
			Name:         source.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		}
	}
	return devices, nil
}

// Open creates an input port for the source. The port is connected by Start.
func (d *Driver) Open(device contracts.DeviceInfo, onMessage func(raw []byte)) (contracts.InputHandle, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if device.Index < 0 || device.Index >= len(sources) || sources[device.Index].Name() != device.Name {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMIDIDevice, device.Name)
	}

	h := &handle{name: device.Name, source: sources[device.Index], onMessage: onMessage}
	h.port, err = coremidi.NewInputPort(d.client, device.Name, h.handlePacket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}
	return h, nil
}

// Close is a no-op; CoreMIDI clients live for the process lifetime.
func (d *Driver) Close() error {
	return nil
}

type handle struct {
	name      string
	source    coremidi.Source
	port      coremidi.InputPort
	onMessage func(raw []byte)

	mu   sync.Mutex
	conn portConnection
}

func (h *handle) Name() string { return h.name }

func (h *handle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn != nil {
		return nil
	}
	conn, err := h.port.Connect(h.source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}
	h.conn = conn
	return nil
}

func (h *handle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn != nil {
		h.conn.Disconnect()
		h.conn = nil
	}
	return nil
}

func (h *handle) Close() error {
	return nil
}

// handlePacket runs on the CoreMIDI thread. A packet may carry several messages.
func (h *handle) handlePacket(_ coremidi.Source, packet coremidi.Packet) {
	for _, raw := range decode.Split(packet.Data) {
		h.onMessage(raw)
	}
}
