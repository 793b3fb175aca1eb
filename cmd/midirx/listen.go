package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leandrodaf/midirx/internal/midi/midifake"
	"github.com/leandrodaf/midirx/sdk/contracts"
	"github.com/spf13/cobra"
)

func newListenCmd(opts *rootOptions) *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print every dispatched MIDI message",
		Long:  "Opens every MIDI input and prints dispatched messages until interrupted. SIGHUP rescans devices.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, fake, err := opts.newReceiver()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			r.Subscribe("cli", func(m contracts.Message) {
				fmt.Fprintln(out, m)
			})
			if err := r.Init(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			rescan := make(chan os.Signal, 1)
			if len(rescanSignals) > 0 {
				signal.Notify(rescan, rescanSignals...)
				defer signal.Stop(rescan)
			}

			if fake != nil {
				if err := playDemo(fake); err != nil {
					_ = r.Close()
					return err
				}
			}

			for {
				select {
				case <-ctx.Done():
					return r.Close()
				case <-rescan:
					if err := r.RescanDevices(); err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), err)
					}
				}
			}
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	return cmd
}

// playDemo feeds an NRPN sequence and a note through the fake input.
func playDemo(drv *midifake.Driver) error {
	h, ok := drv.Device(fakeDeviceName)
	if !ok {
		return fmt.Errorf("fake device %q not opened", fakeDeviceName)
	}
	for _, raw := range [][]byte{
		{0xB2, 99, 1},
		{0xB2, 98, 5},
		{0xB2, 6, 3},
		{0xB2, 38, 0},
		{0x90, 60, 100},
	} {
		if err := h.Send(raw...); err != nil {
			return err
		}
	}
	return nil
}
