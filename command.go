package msh

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/afero"
)

// DefaultMaxArgs bounds the argument vector of a single pipeline stage
// when no configuration overrides it.
const DefaultMaxArgs = 64

var (
	// errMalformed covers lines the interpreter refuses to run: a leading
	// operator, a missing filename after a redirect, an unknown operator.
	// The C heritage left these undefined; here they abort the line with
	// exitStageFailure and return control to the prompt.
	errMalformed = errors.New("malformed command line")

	errTooManyArgs = errors.New("too many arguments for one command")

	// ErrPipe reports an anonymous-pipe creation failure. No process has
	// been created yet to isolate the failure to, so it is fatal to the
	// whole shell rather than to the current line.
	ErrPipe = errors.New("cannot create pipe")
)

// Command is one tokenized input line plus everything needed to run it.
type Command struct {
	Tokens []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// FS backs the built-in commands; tests swap in a memory filesystem.
	FS         afero.Fs
	Supervisor *Supervisor
	History    *HistoryManager
	MaxArgs    int
	Color      bool

	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	ReturnCode int

	fatal error
}

// NewCommand wraps a token sequence produced by the parser. The token
// slice is borrowed for the duration of Run and never modified.
func NewCommand(tokens []string, sup *Supervisor) *Command {
	return &Command{
		Tokens:     tokens,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		FS:         afero.NewOsFs(),
		Supervisor: sup,
		MaxArgs:    DefaultMaxArgs,
	}
}

// Fatal returns a non-nil error when the failure must terminate the shell
// itself, not just the current line.
func (cmd *Command) Fatal() error {
	return cmd.fatal
}

// Run interprets the token sequence: built-in dispatch, or pipeline
// construction and supervision. It blocks until the whole foreground
// process tree of the line has finished.
func (cmd *Command) Run() {
	cmd.StartTime = time.Now()
	defer func() {
		cmd.EndTime = time.Now()
		cmd.Duration = cmd.EndTime.Sub(cmd.StartTime)
	}()

	cursor := 0
	args, err := cmd.collectArgs(&cursor)
	if err != nil {
		fmt.Fprintf(cmd.Stderr, "msh: %v\n", err)
		cmd.ReturnCode = exitStageFailure
		return
	}
	if len(args) == 0 {
		if cursor < len(cmd.Tokens) {
			// Line starts with an operator.
			fmt.Fprintf(cmd.Stderr, "msh: %v: %q has no command before it\n",
				errMalformed, cmd.Tokens[cursor])
			cmd.ReturnCode = exitStageFailure
		}
		return
	}

	// Built-ins short-circuit before any process or pipe exists. They get
	// the same argument-vector shape but no redirection or pipe support.
	if builtin, ok := builtins[args[0]]; ok {
		cmd.ReturnCode = builtin(cmd, args)
		return
	}

	cmd.runPipeline(args, cursor)
}

// collectArgs consumes a run of plain-argument tokens starting at the
// cursor, stopping at the first operator or at end-of-line. The cursor
// advances monotonically and is never rewound.
func (cmd *Command) collectArgs(cursor *int) ([]string, error) {
	max := cmd.MaxArgs
	if max <= 0 {
		max = DefaultMaxArgs
	}

	var args []string
	for ; *cursor < len(cmd.Tokens); *cursor++ {
		op, err := classify(cmd.Tokens[*cursor])
		if err != nil {
			return nil, err
		}
		if op != OpNone {
			break
		}
		if len(args) == max {
			return nil, fmt.Errorf("%w (limit %d)", errTooManyArgs, max)
		}
		args = append(args, cmd.Tokens[*cursor])
	}
	return args, nil
}
