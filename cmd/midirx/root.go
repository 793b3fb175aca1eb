package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/leandrodaf/midirx/internal/midi/midifake"
	"github.com/leandrodaf/midirx/sdk/contracts"
	"github.com/leandrodaf/midirx/sdk/midi"
	"github.com/spf13/cobra"
)

// fakeDeviceName is the single input exposed in --fake mode.
const fakeDeviceName = "midirx virtual input"

type rootOptions struct {
	logLevel   string
	retryDelay time.Duration
	fake       bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "midirx",
		Short:        "Receive MIDI input from every connected device",
		Long:         "midirx opens every MIDI input, reassembles NRPN controllers and prints the messages it dispatches.",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().DurationVar(&opts.retryDelay, "retry-delay", contracts.DefaultRetryDelay, "delay before retrying device enumeration")
	cmd.PersistentFlags().BoolVar(&opts.fake, "fake", false, "use an in-memory device instead of hardware")

	cmd.AddCommand(newDevicesCmd(opts), newListenCmd(opts))
	return cmd
}

// newReceiver builds a receiver from the command line flags. In fake mode the returned
// driver is the in-memory one backing the receiver.
func (o *rootOptions) newReceiver() (*midi.Receiver, *midifake.Driver, error) {
	level, ok := contracts.ParseLogLevel(strings.ToLower(o.logLevel))
	if !ok {
		return nil, nil, fmt.Errorf("unsupported log level %q", o.logLevel)
	}

	options := []contracts.Option{
		contracts.WithLogLevel(level),
		contracts.WithRetryDelay(o.retryDelay),
	}
	var fake *midifake.Driver
	if o.fake {
		fake = midifake.New(fakeDeviceName)
		options = append(options, contracts.WithDriver(fake))
	}

	r, err := midi.NewReceiver(options...)
	if err != nil {
		return nil, nil, fmt.Errorf("create receiver: %w", err)
	}
	return r, fake, nil
}
