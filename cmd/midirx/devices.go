package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDevicesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the MIDI inputs that can be opened",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, _, err := opts.newReceiver()
			if err != nil {
				return err
			}
			if err := r.Init(); err != nil {
				return err
			}

			names := r.Devices()
			if err := r.Close(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "no MIDI inputs found")
				return nil
			}
			for i, name := range names {
				fmt.Fprintf(out, "%d\t%s\n", i, name)
			}
			return nil
		},
	}
}
