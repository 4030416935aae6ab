package msh

import (
	"log"
	"os"
	"os/signal"
	"syscall"
)

// InterruptBridge forwards SIGINT from the shell to whichever stage the
// supervisor is currently awaiting. With no active child the interrupt is
// ignored, except after a failed launch where it is reported as an anomaly.
type InterruptBridge struct {
	sup *Supervisor
	sig chan os.Signal
}

func NewInterruptBridge(sup *Supervisor) *InterruptBridge {
	b := &InterruptBridge{
		sup: sup,
		sig: make(chan os.Signal, 1),
	}
	signal.Notify(b.sig, syscall.SIGINT)
	go b.run()
	return b
}

func (b *InterruptBridge) run() {
	for sig := range b.sig {
		b.deliver(sig)
	}
}

// deliver routes one signal. It reads the active-child cell exactly once;
// a pid that went stale between the read and the kill targets at worst an
// already-reaped process id, which the kernel rejects harmlessly.
func (b *InterruptBridge) deliver(sig os.Signal) {
	sys, ok := sig.(syscall.Signal)
	if !ok {
		sys = syscall.SIGINT
	}

	switch pid := b.sup.Active(); {
	case pid > 0:
		// The same signal, the tracked child, and no others.
		if err := syscall.Kill(pid, sys); err != nil {
			log.Printf("forwarding %v to pid %d: %v", sys, pid, err)
		}
	case pid == childLaunchFailed:
		log.Printf("interrupt received but the last launch failed; no child to signal")
	default:
		// Idle: nothing to forward.
	}
}

// Close detaches the bridge from signal delivery.
func (b *InterruptBridge) Close() {
	signal.Stop(b.sig)
	close(b.sig)
}
