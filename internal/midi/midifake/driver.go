// Package midifake is an in-memory MIDI driver. Devices are scripted per enumeration call
// and raw messages are injected with Send.
package midifake

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midirx/sdk/contracts"
)

// ErrNotStarted is returned by Send when the device is not delivering callbacks.
var ErrNotStarted = errors.New("device not started")

// Driver implements contracts.Driver.
type Driver struct {
	mu        sync.Mutex
	scans     [][]contracts.DeviceInfo
	fallback  []contracts.DeviceInfo
	listCalls int
	openFail  map[string]error
	handles   map[string]*Handle
	closed    bool
}

// New returns a driver that always enumerates the given device names.
func New(names ...string) *Driver {
	return &Driver{
		fallback: infos(names),
		openFail: make(map[string]error),
		handles:  make(map[string]*Handle),
	}
}

// Script makes successive ListDevices calls return the given name lists in order. Once the
// script runs out, the last entry repeats.
func (d *Driver) Script(scans ...[]string) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scans = d.scans[:0]
	for _, names := range scans {
		d.scans = append(d.scans, infos(names))
	}
	if len(scans) > 0 {
		d.fallback = infos(scans[len(scans)-1])
	}
	return d
}

// FailOpen makes Open fail for the named device.
func (d *Driver) FailOpen(name string, err error) {
	d.mu.Lock()
	d.openFail[name] = err
	d.mu.Unlock()
}

func infos(names []string) []contracts.DeviceInfo {
	out := make([]contracts.DeviceInfo, len(names))
	for i, n := range names {
		out[i] = contracts.DeviceInfo{Index: i, Name: n, EntityName: n, Manufacturer: "midifake"}
	}
	return out
}

// ListDevices implements contracts.Driver.
func (d *Driver) ListDevices() ([]contracts.DeviceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listCalls++
	if len(d.scans) > 0 {
		next := d.scans[0]
		d.scans = d.scans[1:]
		return next, nil
	}
	return d.fallback, nil
}

// ListCalls returns how many times ListDevices ran.
func (d *Driver) ListCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listCalls
}

// Open implements contracts.Driver.
func (d *Driver) Open(device contracts.DeviceInfo, onMessage func(raw []byte)) (contracts.InputHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.openFail[device.Name]; err != nil {
		return nil, err
	}
	h := &Handle{name: device.Name, onMessage: onMessage}
	d.handles[device.Name] = h
	return h, nil
}

// Device returns the most recently opened handle for name.
func (d *Driver) Device(name string) (*Handle, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.handles[name]
	return h, ok
}

// Close implements contracts.Driver.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Handle is a fake open device.
type Handle struct {
	name      string
	onMessage func(raw []byte)

	mu       sync.Mutex
	started  bool
	closed   bool
	stopErr  error
	delivery sync.Mutex
}

// Name implements contracts.InputHandle.
func (h *Handle) Name() string { return h.name }

// Start implements contracts.InputHandle.
func (h *Handle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("start %q: handle closed", h.name)
	}
	h.started = true
	return nil
}

// Stop implements contracts.InputHandle. It waits for an in-flight Send to return.
func (h *Handle) Stop() error {
	h.delivery.Lock()
	defer h.delivery.Unlock()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopErr != nil {
		return h.stopErr
	}
	h.started = false
	return nil
}

// FailStop makes Stop return err.
func (h *Handle) FailStop(err error) {
	h.mu.Lock()
	h.stopErr = err
	h.mu.Unlock()
}

// Close implements contracts.InputHandle.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Started reports whether the handle delivers callbacks.
func (h *Handle) Started() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started
}

// Closed reports whether the handle was released.
func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Send delivers raw bytes to the callback as the hardware would. Like a real driver,
// callbacks for one device never overlap.
func (h *Handle) Send(raw ...byte) error {
	h.delivery.Lock()
	defer h.delivery.Unlock()
	if !h.Started() {
		return ErrNotStarted
	}
	h.onMessage(raw)
	return nil
}
