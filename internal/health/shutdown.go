package health

import "sync/atomic"

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady flips the readiness gate. Flipped off during graceful shutdown so
// load balancers drain the instance before connections are closed.
func SetReady(v bool) {
	ready.Store(v)
}

// Ready reports the current state of the readiness gate.
func Ready() bool {
	return ready.Load()
}
