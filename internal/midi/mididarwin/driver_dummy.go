//go:build !darwin
// +build !darwin

package mididarwin

import (
	"fmt"

	"github.com/leandrodaf/midirx/sdk/contracts"
)

// NewDriver reports that CoreMIDI is unavailable on this platform.
func NewDriver(options *contracts.ReceiverOptions) (contracts.Driver, error) {
	options.Logger.Warn("CoreMIDI driver requested on non-macOS system")
	return nil, fmt.Errorf("CoreMIDI is not available on this platform")
}
