package msh

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
)

// Distinct exit codes for the interpreter's failure taxonomy.
const (
	// exitStageFailure covers redirection failures and malformed lines.
	exitStageFailure = 2
	// exitResourceFailure covers pipe-creation failure, fatal to the shell.
	exitResourceFailure = 3
	// exitLaunchFailure reports a program that could not be started.
	exitLaunchFailure = 127
	// Death by signal is reported as 128+signal, the usual convention.
	exitSignalBase = 128
)

// Values of the active-child cell beyond a real pid.
const (
	childIdle         = 0
	childLaunchFailed = -1
)

// Supervisor owns stage launch, wait/reap, and exit-status reporting. It
// tracks the single process-wide active-child identity read asynchronously
// by the interrupt bridge; the cell is atomic and lock-free because the
// bridge may read it at any point relative to the bookkeeping here.
type Supervisor struct {
	active atomic.Int64
}

func NewSupervisor() *Supervisor {
	return &Supervisor{}
}

// Active returns the tracked foreground pid, childIdle when no stage is
// being awaited, or childLaunchFailed after a failed launch. Stale reads
// are harmless: the bridge treats any non-positive value as "no child".
func (s *Supervisor) Active() int {
	return int(s.active.Load())
}

func (s *Supervisor) markLaunchFailed() {
	s.active.Store(childLaunchFailed)
}

// Start launches one pipeline stage. The program path is used verbatim:
// there is no search-path resolution, callers must name the executable
// absolutely. The three bindings are inherited by the stage as its
// standard streams.
func (s *Supervisor) Start(args []string, stdin, stdout, stderr *os.File) (*exec.Cmd, error) {
	stage := &exec.Cmd{
		Path:   args[0],
		Args:   args,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}
	if err := stage.Start(); err != nil {
		return nil, err
	}
	return stage, nil
}

// Wait blocks until the stage terminates, tracking it as the active child
// for the duration so interrupts reach it. Exactly one Wait happens per
// input line, on the final stage of the pipeline. The observed status is
// reported to w and returned.
func (s *Supervisor) Wait(stage *exec.Cmd, w io.Writer) int {
	pid := stage.Process.Pid
	s.active.Store(int64(pid))
	defer s.active.Store(childIdle)

	status := exitStatus(stage.Wait())
	fmt.Fprintf(w, "child %d exited with status %d\n", pid, status)
	return status
}

// Reap waits on already-launched upstream stages so no zombies outlive the
// line. Their statuses are not reported; only the final stage's is.
func (s *Supervisor) Reap(stages []*exec.Cmd) {
	for _, stage := range stages {
		_ = stage.Wait()
	}
}

func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return exitSignalBase + int(ws.Signal())
		}
		return exitErr.ExitCode()
	}
	return exitLaunchFailure
}
