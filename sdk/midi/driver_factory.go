package midi

import (
	"runtime"

	"github.com/leandrodaf/midirx/internal/midi/mididarwin"
	"github.com/leandrodaf/midirx/internal/midi/midirtmidi"
	"github.com/leandrodaf/midirx/internal/midi/midiwindows"
	"github.com/leandrodaf/midirx/sdk/contracts"
)

// driverInitializers maps OS names to the native driver for that platform.
var driverInitializers = map[string]func(*contracts.ReceiverOptions) (contracts.Driver, error){
	"darwin":  mididarwin.NewDriver,  // macOS (Darwin) CoreMIDI driver.
	"windows": midiwindows.NewDriver, // Windows winmm driver.
}

// NewDriver returns the native driver for the current operating system, falling back to
// RtMidi everywhere else.
//
// opts *contracts.ReceiverOptions: Configuration options for the driver.
//
// Returns:
//   - contracts.Driver: The platform driver.
//   - error: An error if the driver could not be initialised.
func NewDriver(opts *contracts.ReceiverOptions) (contracts.Driver, error) {
	if initializer, exists := driverInitializers[runtime.GOOS]; exists {
		return initializer(opts)
	}
	return midirtmidi.NewDriver(opts)
}
