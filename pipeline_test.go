package msh

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

// binPath resolves a test helper binary without relying on PATH, since the
// interpreter itself never searches one.
func binPath(t *testing.T, name string) string {
	t.Helper()
	for _, p := range []string{"/bin/" + name, "/usr/bin/" + name} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	t.Skipf("%s not available", name)
	return ""
}

func testCommand(tokens ...string) (*Command, *bytes.Buffer) {
	var stderr bytes.Buffer
	cmd := NewCommand(tokens, NewSupervisor())
	cmd.Stderr = &stderr
	return cmd, &stderr
}

func TestRunRedirectsStdoutToFile(t *testing.T) {
	echo := binPath(t, "echo")
	out := filepath.Join(t.TempDir(), "out.txt")

	cmd, _ := testCommand(echo, "hello", ">", out)
	cmd.Run()

	if cmd.ReturnCode != 0 {
		t.Fatalf("ReturnCode = %d, want 0", cmd.ReturnCode)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading %s: %v", out, err)
	}
	if string(got) != "hello\n" {
		t.Errorf("content = %q, want %q", got, "hello\n")
	}
}

func TestRunTruncateIsIdempotentAppendIsNot(t *testing.T) {
	echo := binPath(t, "echo")
	out := filepath.Join(t.TempDir(), "out.txt")

	for i := 0; i < 2; i++ {
		cmd, _ := testCommand(echo, "once", ">", out)
		cmd.Run()
	}
	got, _ := os.ReadFile(out)
	if string(got) != "once\n" {
		t.Errorf("after two truncating runs content = %q, want %q", got, "once\n")
	}

	for i := 0; i < 2; i++ {
		cmd, _ := testCommand(echo, "more", ">>", out)
		cmd.Run()
	}
	got, _ = os.ReadFile(out)
	if string(got) != "once\nmore\nmore\n" {
		t.Errorf("after two appending runs content = %q, want %q", got, "once\nmore\nmore\n")
	}
}

func TestRunInputRedirect(t *testing.T) {
	cat := binPath(t, "cat")
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(in, []byte("payload\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cmd, _ := testCommand(cat, "<", in, ">", out)
	cmd.Run()

	got, _ := os.ReadFile(out)
	if string(got) != "payload\n" {
		t.Errorf("content = %q, want %q", got, "payload\n")
	}
}

func TestRunStderrRedirect(t *testing.T) {
	sh := binPath(t, "sh")
	dir := t.TempDir()
	errFile := filepath.Join(dir, "err.txt")

	cmd, _ := testCommand(sh, "-c", "echo oops 1>&2", "2>", errFile)
	cmd.Run()

	got, _ := os.ReadFile(errFile)
	if string(got) != "oops\n" {
		t.Errorf("stderr file = %q, want %q", got, "oops\n")
	}
}

func TestRunPipelineConnectsStages(t *testing.T) {
	echo := binPath(t, "echo")
	cat := binPath(t, "cat")
	out := filepath.Join(t.TempDir(), "out.txt")

	cmd, _ := testCommand(echo, "through", "|", cat, ">", out)
	cmd.Run()

	if cmd.ReturnCode != 0 {
		t.Fatalf("ReturnCode = %d, want 0", cmd.ReturnCode)
	}
	got, _ := os.ReadFile(out)
	if string(got) != "through\n" {
		t.Errorf("content = %q, want %q", got, "through\n")
	}
}

func TestRunPipelineThreeStages(t *testing.T) {
	echo := binPath(t, "echo")
	cat := binPath(t, "cat")
	out := filepath.Join(t.TempDir(), "out.txt")

	cmd, _ := testCommand(echo, "abc", "|", cat, "|", cat, ">", out)
	cmd.Run()

	got, _ := os.ReadFile(out)
	if string(got) != "abc\n" {
		t.Errorf("content = %q, want %q", got, "abc\n")
	}
}

func TestRunPipelineCountsLines(t *testing.T) {
	cat := binPath(t, "cat")
	wc := binPath(t, "wc")
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(in, []byte("a\nb\nc\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cmd, _ := testCommand(cat, in, "|", wc, "-l", ">", out)
	cmd.Run()

	got, _ := os.ReadFile(out)
	if strings.TrimSpace(string(got)) != "3" {
		t.Errorf("line count = %q, want 3", strings.TrimSpace(string(got)))
	}
}

func TestRunStageSeesEndOfInput(t *testing.T) {
	// The downstream stage must terminate once the upstream one exits;
	// a leaked write end would hang this test forever.
	echo := binPath(t, "echo")
	cat := binPath(t, "cat")
	out := filepath.Join(t.TempDir(), "out.txt")

	done := make(chan struct{})
	go func() {
		cmd, _ := testCommand(echo, "eof", "|", cat, ">", out)
		cmd.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("pipeline did not terminate; pipe write end leaked")
	}
}

func TestRunTrailingOperatorIsMalformed(t *testing.T) {
	echo := binPath(t, "echo")

	cmd, stderr := testCommand(echo, "hi", ">")
	cmd.Run()

	if cmd.ReturnCode != exitStageFailure {
		t.Errorf("ReturnCode = %d, want %d", cmd.ReturnCode, exitStageFailure)
	}
	if !strings.Contains(stderr.String(), "missing filename") {
		t.Errorf("stderr = %q, want missing-filename diagnostic", stderr.String())
	}
}

func TestRunOperatorAsFilenameIsMalformed(t *testing.T) {
	echo := binPath(t, "echo")

	cmd, _ := testCommand(echo, "hi", ">", "|", "x")
	cmd.Run()

	if cmd.ReturnCode != exitStageFailure {
		t.Errorf("ReturnCode = %d, want %d", cmd.ReturnCode, exitStageFailure)
	}
}

func TestRunPipeWithoutRightHandCommand(t *testing.T) {
	echo := binPath(t, "echo")

	cmd, stderr := testCommand(echo, "hi", "|")
	cmd.Run()

	if cmd.ReturnCode != exitStageFailure {
		t.Errorf("ReturnCode = %d, want %d", cmd.ReturnCode, exitStageFailure)
	}
	if stderr.Len() == 0 {
		t.Error("expected a diagnostic for a dangling pipe")
	}
}

func TestRunLaunchFailure(t *testing.T) {
	cmd, stderr := testCommand("/no/such/program")
	cmd.Run()

	if cmd.ReturnCode != exitLaunchFailure {
		t.Errorf("ReturnCode = %d, want %d", cmd.ReturnCode, exitLaunchFailure)
	}
	if cmd.Supervisor.Active() != childLaunchFailed {
		t.Errorf("Active() = %d, want %d", cmd.Supervisor.Active(), childLaunchFailed)
	}
	if stderr.Len() == 0 {
		t.Error("expected a diagnostic for the failed launch")
	}
}

func TestRunLaunchFailureInPipelineKeepsSiblings(t *testing.T) {
	// A dead left-hand stage must not take the rest of the line with it:
	// the next stage simply reads end-of-input.
	cat := binPath(t, "cat")
	out := filepath.Join(t.TempDir(), "out.txt")

	cmd, stderr := testCommand("/no/such/program", "|", cat, ">", out)
	cmd.Run()

	if cmd.ReturnCode != 0 {
		t.Errorf("ReturnCode = %d, want 0 (final stage succeeded)", cmd.ReturnCode)
	}
	if !strings.Contains(stderr.String(), "/no/such/program") {
		t.Errorf("stderr = %q, want launch diagnostic", stderr.String())
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("final stage never ran: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("content = %q, want empty", got)
	}
}

func TestRunReportsNonZeroStatus(t *testing.T) {
	sh := binPath(t, "sh")

	cmd, stderr := testCommand(sh, "-c", "exit 5")
	cmd.Run()

	if cmd.ReturnCode != 5 {
		t.Errorf("ReturnCode = %d, want 5", cmd.ReturnCode)
	}
	if !strings.Contains(stderr.String(), "status 5") {
		t.Errorf("stderr = %q, want a status report", stderr.String())
	}
}

func TestInterruptForwardedToActiveChild(t *testing.T) {
	sleep := binPath(t, "sleep")

	cmd, _ := testCommand(sleep, "30")
	sup := cmd.Supervisor
	bridge := &InterruptBridge{sup: sup}

	done := make(chan struct{})
	go func() {
		cmd.Run()
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for sup.Active() <= 0 {
		if time.Now().After(deadline) {
			t.Fatal("stage never became the active child")
		}
		time.Sleep(10 * time.Millisecond)
	}

	bridge.deliver(syscall.SIGINT)

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("child did not die after forwarded interrupt")
	}

	if want := exitSignalBase + int(syscall.SIGINT); cmd.ReturnCode != want {
		t.Errorf("ReturnCode = %d, want %d", cmd.ReturnCode, want)
	}
	if sup.Active() != childIdle {
		t.Errorf("Active() = %d, want idle after reap", sup.Active())
	}
}

func TestInterruptWithNoChildIsHarmless(t *testing.T) {
	bridge := &InterruptBridge{sup: NewSupervisor()}
	bridge.deliver(syscall.SIGINT) // must not panic or signal anything
}
