package msh

import (
	"fmt"
	"os"
	"os/exec"
)

// runPipeline walks the remaining tokens as an explicit state machine over
// (cursor, current argument vector, current stdio bindings). In the classic
// design each pipe forked the shell and the child kept parsing; here the
// binding set carries that role instead, restarting the walk after every
// stage launch, so no call stack crosses a process boundary.
//
// Redirect operators mutate the bindings and keep the same argument vector.
// A pipe launches the left-hand stage and rebinds the walk's input to the
// pipe's read end. End-of-line launches the final stage with whatever
// bindings accumulated and waits for it.
func (cmd *Command) runPipeline(args []string, cursor int) {
	// Stages launched before the final one. The shell never waits for them
	// in the foreground sense, but it must reap them once the line is done.
	// The reap must run after io.close has released the shell's pipe-end
	// copies, or an upstream writer could block forever.
	var upstream []*exec.Cmd
	defer func() { cmd.Supervisor.Reap(upstream) }()

	io := newStdio(stdioFile(cmd.Stdin, os.Stdin), stdioFile(cmd.Stdout, os.Stdout), stdioFile(cmd.Stderr, os.Stderr))
	defer io.close()

	for cursor < len(cmd.Tokens) {
		op, err := classify(cmd.Tokens[cursor])
		if err != nil {
			fmt.Fprintf(cmd.Stderr, "msh: %v\n", err)
			cmd.ReturnCode = exitStageFailure
			return
		}

		switch op {
		case OpPipe:
			cursor++
			pr, pw, err := os.Pipe()
			if err != nil {
				// No process exists yet to isolate this failure to.
				cmd.fatal = fmt.Errorf("%w: %v", ErrPipe, err)
				fmt.Fprintf(cmd.Stderr, "msh: %v\n", cmd.fatal)
				cmd.ReturnCode = exitResourceFailure
				return
			}

			stage, err := cmd.Supervisor.Start(args, io.in, pw, io.err)
			// The write end must not survive in the shell past the launch,
			// or the reader never sees end-of-data.
			pw.Close()
			if err != nil {
				// Matches the fork design, where a failed exec killed only
				// that stage: the walk continues and the next stage reads
				// end-of-input immediately.
				fmt.Fprintf(cmd.Stderr, "msh: %s: %v\n", args[0], err)
			} else {
				upstream = append(upstream, stage)
			}

			io.in = pr
			io.own(pr)

			args, err = cmd.collectArgs(&cursor)
			if err != nil {
				fmt.Fprintf(cmd.Stderr, "msh: %v\n", err)
				cmd.ReturnCode = exitStageFailure
				return
			}
			if len(args) == 0 {
				fmt.Fprintf(cmd.Stderr, "msh: %v: no command after |\n", errMalformed)
				cmd.ReturnCode = exitStageFailure
				return
			}

		default: // redirect operators
			cursor++
			if cursor >= len(cmd.Tokens) {
				fmt.Fprintf(cmd.Stderr, "msh: %v: missing filename after %s\n", errMalformed, op)
				cmd.ReturnCode = exitStageFailure
				return
			}
			filename := cmd.Tokens[cursor]
			if fileOp, ferr := classify(filename); ferr != nil || fileOp != OpNone {
				fmt.Fprintf(cmd.Stderr, "msh: %v: missing filename after %s\n", errMalformed, op)
				cmd.ReturnCode = exitStageFailure
				return
			}
			cursor++

			if err := io.redirect(op, filename); err != nil {
				fmt.Fprintf(cmd.Stderr, "msh: %v\n", err)
				cmd.ReturnCode = exitStageFailure
				return
			}
		}
	}

	// End of line: the final stage runs with the accumulated bindings and
	// is the one the shell supervises in the foreground.
	stage, err := cmd.Supervisor.Start(args, io.in, io.out, io.err)
	if err != nil {
		cmd.Supervisor.markLaunchFailed()
		fmt.Fprintf(cmd.Stderr, "msh: %s: %v\n", args[0], err)
		cmd.ReturnCode = exitLaunchFailure
		return
	}
	cmd.ReturnCode = cmd.Supervisor.Wait(stage, cmd.Stderr)
}

// stdioFile maps the command's I/O surface back to a real descriptor for
// stage bindings, falling back to the shell's own stream when a test or
// caller substituted something that is not a file.
func stdioFile(v interface{}, fallback *os.File) *os.File {
	if f, ok := v.(*os.File); ok {
		return f
	}
	return fallback
}
