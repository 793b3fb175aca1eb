// Package device owns the set of open MIDI input devices.
package device

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/midirx/sdk/contracts"
	"go.uber.org/multierr"
)

// ErrNoDriver is returned by NewManager when no driver is supplied.
var ErrNoDriver = errors.New("no MIDI driver")

// Binding connects one device to its consumer. OnMessage is invoked on the device's
// callback thread. Release runs after the device has been stopped.
type Binding struct {
	OnMessage func(raw []byte)
	Release   func()
}

// Binder creates the binding for a device that is about to be opened.
type Binder func(device contracts.DeviceInfo) Binding

type openDevice struct {
	handle  contracts.InputHandle
	binding Binding
}

// Manager opens every available input and keeps track of them.
type Manager struct {
	driver     contracts.Driver
	bind       Binder
	logger     contracts.Logger
	retryDelay time.Duration
	sleep      func(time.Duration)

	mu        sync.Mutex
	devices   []openDevice
	onCleared func()
}

// NewManager creates a manager. bind is called once per opened device.
func NewManager(driver contracts.Driver, bind Binder, logger contracts.Logger, retryDelay time.Duration) (*Manager, error) {
	if driver == nil {
		return nil, ErrNoDriver
	}
	if retryDelay <= 0 {
		retryDelay = contracts.DefaultRetryDelay
	}
	return &Manager{
		driver:     driver,
		bind:       bind,
		logger:     logger,
		retryDelay: retryDelay,
		sleep:      time.Sleep,
	}, nil
}

// OpenAll opens and starts every input. When nothing opens it waits for the retry delay
// and tries exactly once more, since enumeration is sometimes late on macOS. Ending with
// zero devices is not an error.
func (m *Manager) OpenAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Trying to open input devices")
	m.tryToOpen()
	if len(m.devices) == 0 {
		m.logger.Info("Retrying to open input devices", m.logger.Field().Duration("delay", m.retryDelay))
		start := time.Now()
		m.sleep(m.retryDelay)
		m.logger.Debug("Open input devices thread slept", m.logger.Field().Duration("elapsed", time.Since(start)))
		m.tryToOpen()
	}
	if len(m.devices) == 0 {
		m.logger.Warn("No MIDI input devices opened")
		return
	}
	m.logger.Info("MIDI input devices ready", m.logger.Field().Int("count", len(m.devices)))
}

func (m *Manager) tryToOpen() {
	infos, err := m.driver.ListDevices()
	if err != nil {
		m.logger.Warn("Failed to enumerate MIDI inputs", m.logger.Field().Error("error", err))
		return
	}
	for _, info := range infos {
		if err := m.open(info); err != nil {
			m.logger.Warn("Skipping input device",
				m.logger.Field().String("device", info.Name),
				m.logger.Field().Error("error", err))
		}
	}
}

func (m *Manager) open(info contracts.DeviceInfo) error {
	binding := Binding{OnMessage: func([]byte) {}, Release: func() {}}
	if m.bind != nil {
		binding = m.bind(info)
	}

	handle, err := m.driver.Open(info, binding.OnMessage)
	if err != nil {
		binding.Release()
		return fmt.Errorf("open %q: %w", info.Name, err)
	}
	if err := handle.Start(); err != nil {
		err = multierr.Append(fmt.Errorf("start %q: %w", info.Name, err), handle.Close())
		binding.Release()
		return err
	}

	m.devices = append(m.devices, openDevice{handle: handle, binding: binding})
	m.logger.Info("Opened input device", m.logger.Field().String("device", handle.Name()))
	return nil
}

// OnCleared registers fn to run at the end of StopAndClearAll, after every device has been
// released and before a rescan reopens anything.
func (m *Manager) OnCleared(fn func()) {
	m.mu.Lock()
	m.onCleared = fn
	m.mu.Unlock()
}

// StopAndClearAll stops every device, then releases them. No device is released while any
// device can still deliver callbacks.
func (m *Manager) StopAndClearAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	for _, dev := range m.devices {
		if stopErr := dev.handle.Stop(); stopErr != nil {
			err = multierr.Append(err, fmt.Errorf("stop %q: %w", dev.handle.Name(), stopErr))
			continue
		}
		m.logger.Info("Stopped input device", m.logger.Field().String("device", dev.handle.Name()))
	}
	for _, dev := range m.devices {
		if closeErr := dev.handle.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close %q: %w", dev.handle.Name(), closeErr))
		}
		dev.binding.Release()
	}
	m.devices = nil
	m.logger.Info("Cleared input devices")
	if m.onCleared != nil {
		m.onCleared()
	}
	return err
}

// Rescan stops and clears every device, then opens whatever is available now.
func (m *Manager) Rescan() error {
	err := m.StopAndClearAll()
	m.OpenAll()
	return err
}

// Devices returns the names of the open devices.
func (m *Manager) Devices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.devices))
	for i, dev := range m.devices {
		names[i] = dev.handle.Name()
	}
	return names
}

// Len returns the number of open devices.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.devices)
}
