//go:build !cgo
// +build !cgo

package midirtmidi

import (
	"fmt"

	"github.com/leandrodaf/midirx/sdk/contracts"
)

// NewDriver reports that rtmidi needs cgo.
func NewDriver(options *contracts.ReceiverOptions) (contracts.Driver, error) {
	options.Logger.Warn("RtMidi driver requires cgo")
	return nil, fmt.Errorf("RtMidi is not available without cgo")
}
