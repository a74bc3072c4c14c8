//go:build unix

package main

import (
	"os"
	"syscall"
)

var (
	reloadSignal os.Signal = syscall.SIGHUP
	statusSignal os.Signal = syscall.SIGUSR1

	notifySignals = []os.Signal{os.Interrupt, syscall.SIGTERM, reloadSignal, statusSignal}
)
