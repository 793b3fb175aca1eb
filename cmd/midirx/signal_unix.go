//go:build !windows

package main

import (
	"os"
	"syscall"
)

var rescanSignals = []os.Signal{syscall.SIGHUP}
