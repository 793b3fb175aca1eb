//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/leandrodaf/midirx/internal/decode"
	"github.com/leandrodaf/midirx/sdk/contracts"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type HMIDIIN windows.Handle

// Constants for callback flags
const (
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI message types
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

// ErrNoMIDIDevices is returned by Open when the device index is out of range.
var ErrNoMIDIDevices = errors.New("no MIDI devices found")

// Struct representing MIDI device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// Load the winmm.dll library and required functions
var (
	winmm                = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen       = winmm.NewProc("midiInOpen")
	procMidiInStart      = winmm.NewProc("midiInStart")
	procMidiInStop       = winmm.NewProc("midiInStop")
	procMidiInReset      = winmm.NewProc("midiInReset")
	procMidiInClose      = winmm.NewProc("midiInClose")
)

// windows.NewCallback slots are limited and never freed, so one trampoline serves every
// handle. dwInstance carries a handle id rather than a Go pointer.
var (
	callbackOnce sync.Once
	callbackPtr  uintptr
	handles      sync.Map // uintptr id -> *handle
	nextID       atomic.Uintptr
)

func trampoline() uintptr {
	callbackOnce.Do(func() {
		callbackPtr = windows.NewCallback(midiInCallback)
	})
	return callbackPtr
}

// Driver opens winmm MIDI inputs.
type Driver struct {
	logger contracts.Logger
}

// NewDriver creates a MIDI driver for Windows
func NewDriver(options *contracts.ReceiverOptions) (contracts.Driver, error) {
	options.Logger.Info("MIDI driver created for Windows")
	return &Driver{logger: options.Logger}, nil
}

// ListDevices lists the available MIDI inputs
func (d *Driver) ListDevices() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	numDevices := uint32(r0)

	devices := make([]contracts.DeviceInfo, 0, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			d.logger.Warn("Failed to get information for MIDI device", d.logger.Field().Int("index", int(i)))
			continue
		}
		deviceName := windows.UTF16ToString(caps.szPname[:])
		devices = append(devices, contracts.DeviceInfo{
			Index:        int(i),
			Name:         deviceName,
			EntityName:   deviceName,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		})
	}
	return devices, nil
}

// Open opens the input without starting it
func (d *Driver) Open(device contracts.DeviceInfo, onMessage func(raw []byte)) (contracts.InputHandle, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	if device.Index < 0 || uint32(device.Index) >= uint32(r0) {
		return nil, fmt.Errorf("%w: index %d", ErrNoMIDIDevices, device.Index)
	}

	h := &handle{id: nextID.Add(1), name: device.Name, logger: d.logger, onMessage: onMessage}
	handles.Store(h.id, h)

	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&h.hmi)),
		uintptr(device.Index),
		trampoline(),
		h.id,
		uintptr(CALLBACK_FUNCTION|MIDI_IO_STATUS),
	)
	if r1 != 0 {
		handles.Delete(h.id)
		return nil, fmt.Errorf("failed to open MIDI device %d: %v", device.Index, err)
	}
	return h, nil
}

// Close is a no-op; winmm has no driver-level state.
func (d *Driver) Close() error {
	return nil
}

type handle struct {
	id        uintptr
	name      string
	hmi       HMIDIIN
	logger    contracts.Logger
	onMessage func(raw []byte)
	mu        sync.Mutex
	started   bool
}

func (h *handle) Name() string { return h.name }

func (h *handle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hmi == 0 {
		return fmt.Errorf("invalid MIDI device handle")
	}
	r1, _, err := procMidiInStart.Call(uintptr(h.hmi))
	if r1 != 0 {
		return fmt.Errorf("failed to start MIDI capture: %v", err)
	}
	h.started = true
	return nil
}

func (h *handle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started {
		return nil
	}
	r1, _, err := procMidiInStop.Call(uintptr(h.hmi))
	if r1 != 0 {
		return fmt.Errorf("failed to stop MIDI capture: %v", err)
	}
	// midiInReset returns once pending callbacks have completed
	procMidiInReset.Call(uintptr(h.hmi))
	h.started = false
	return nil
}

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hmi == 0 {
		return nil
	}
	r1, _, err := procMidiInClose.Call(uintptr(h.hmi))
	if r1 != 0 {
		return fmt.Errorf("failed to close MIDI device: %v", err)
	}
	h.hmi = 0
	handles.Delete(h.id)
	return nil
}

// midiInCallback processes incoming MIDI messages
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	v, ok := handles.Load(dwInstance)
	if !ok {
		return 0
	}
	h := v.(*handle)

	switch wMsg {
	case MIM_OPEN:
		h.logger.Debug("MIDI device opened", h.logger.Field().String("device", h.name))
	case MIM_CLOSE:
		h.logger.Debug("MIDI device closed", h.logger.Field().String("device", h.name))
	case MIM_DATA, MIM_MOREDATA:
		var raw [3]byte
		raw[0] = byte(dwParam1 & 0xFF)
		raw[1] = byte((dwParam1 >> 8) & 0xFF)
		raw[2] = byte((dwParam1 >> 16) & 0xFF)
		h.onMessage(raw[:decode.Length(raw[0])])
	case MIM_ERROR, MIM_LONGERROR:
		h.logger.Error("MIDI input error", h.logger.Field().String("device", h.name), h.logger.Field().Uint64("msg", uint64(wMsg)))
	default:
		h.logger.Warn("Unknown MIDI message", h.logger.Field().Uint64("msg", uint64(wMsg)))
	}

	return 0
}
