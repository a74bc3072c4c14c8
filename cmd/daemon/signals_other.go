//go:build !unix

package main

import "os"

// Only interrupt is delivered here, so reload and status never match
var (
	reloadSignal os.Signal
	statusSignal os.Signal

	notifySignals = []os.Signal{os.Interrupt}
)
