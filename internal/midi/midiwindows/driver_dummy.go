//go:build !windows
// +build !windows

package midiwindows

import (
	"fmt"

	"github.com/leandrodaf/midirx/sdk/contracts"
)

// NewDriver reports that winmm is unavailable on this platform.
func NewDriver(options *contracts.ReceiverOptions) (contracts.Driver, error) {
	options.Logger.Warn("winmm driver requested on non-Windows system")
	return nil, fmt.Errorf("winmm MIDI is not available on this platform")
}
