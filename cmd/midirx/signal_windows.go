//go:build windows

package main

import "os"

var rescanSignals []os.Signal
