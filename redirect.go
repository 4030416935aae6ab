package msh

import (
	"fmt"
	"os"
)

// Redirect targets are created owner-only.
const redirectFileMode = 0600

// stdio is the pending standard-stream binding set for the stage being
// assembled. It plays the role the current process's descriptors played in
// the classic fork-based design: redirections mutate it in place, a pipe
// boundary rebinds its input, and a stage launch snapshots it. Every file
// the walk opens is tracked here and released when the line finishes, so a
// failure partway through setup cannot leak descriptors.
type stdio struct {
	in, out, err *os.File
	owned        []*os.File
}

func newStdio(in, out, err *os.File) *stdio {
	return &stdio{in: in, out: out, err: err}
}

func (s *stdio) own(f *os.File) {
	s.owned = append(s.owned, f)
}

func (s *stdio) close() {
	for _, f := range s.owned {
		f.Close()
	}
	s.owned = nil
}

// redirect opens filename with the mode the operator calls for and rebinds
// the corresponding stream(s). Each rebinding is a point of no return for
// that stream within the rest of the walk. Failure aborts only the current
// stage; upstream stages already launched keep running.
func (s *stdio) redirect(op Op, filename string) error {
	open := func(flag int) (*os.File, error) {
		f, err := os.OpenFile(filename, flag, redirectFileMode)
		if err != nil {
			return nil, fmt.Errorf("cannot redirect %s: %v", op, err)
		}
		s.own(f)
		return f, nil
	}

	switch op {
	case OpStdout:
		f, err := open(os.O_WRONLY | os.O_CREATE | os.O_TRUNC)
		if err != nil {
			return err
		}
		s.out = f
	case OpAppend:
		f, err := open(os.O_RDWR | os.O_CREATE | os.O_APPEND)
		if err != nil {
			return err
		}
		s.out = f
	case OpStderr:
		f, err := open(os.O_WRONLY | os.O_CREATE | os.O_TRUNC)
		if err != nil {
			return err
		}
		s.err = f
	case OpStdoutStderr:
		// Both streams share the one open file.
		f, err := open(os.O_WRONLY | os.O_CREATE | os.O_TRUNC)
		if err != nil {
			return err
		}
		s.out = f
		s.err = f
	case OpStdin:
		// Input files must pre-exist.
		f, err := open(os.O_RDONLY)
		if err != nil {
			return err
		}
		s.in = f
	default:
		return fmt.Errorf("%w: %q is not a redirection", errMalformed, op)
	}
	return nil
}
