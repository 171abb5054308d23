package main

import "os"

// osInterruptSignals lists the OS signals that should trip a running
// graph's interrupter, matching run.SignalHandler's variadic signature.
func osInterruptSignals() []os.Signal {
	return []os.Signal{os.Interrupt, os.Kill}
}
