package msh

import (
	"fmt"
	"strings"
)

// Op identifies a redirection or pipe operator token.
type Op int

const (
	// OpNone marks a plain argument token.
	OpNone Op = iota
	// OpStdin rebinds standard input from a file ("<").
	OpStdin
	// OpStdout truncates a file and rebinds standard output to it (">").
	OpStdout
	// OpAppend rebinds standard output appending to a file (">>").
	OpAppend
	// OpStderr truncates a file and rebinds standard error to it ("2>").
	OpStderr
	// OpStdoutStderr rebinds both output streams to one file ("&>").
	OpStdoutStderr
	// OpPipe connects this stage's output to the next stage's input ("|").
	OpPipe
)

func (op Op) String() string {
	switch op {
	case OpStdin:
		return "<"
	case OpStdout:
		return ">"
	case OpAppend:
		return ">>"
	case OpStderr:
		return "2>"
	case OpStdoutStderr:
		return "&>"
	case OpPipe:
		return "|"
	}
	return "argument"
}

// isSpecial reports whether a token has operator shape: a single
// redirect/pipe character, or two characters ending in '>'.
func isSpecial(token string) bool {
	return (len(token) == 1 && strings.ContainsAny(token, "<>|")) ||
		(len(token) == 2 && token[1] == '>')
}

// classify maps a token to its operator kind. OpNone means the token is a
// plain argument. A token with operator shape but no defined operator
// (e.g. "x>") is a malformed line rather than an argument.
func classify(token string) (Op, error) {
	switch token {
	case "<":
		return OpStdin, nil
	case ">":
		return OpStdout, nil
	case ">>":
		return OpAppend, nil
	case "2>":
		return OpStderr, nil
	case "&>":
		return OpStdoutStderr, nil
	case "|":
		return OpPipe, nil
	}
	if isSpecial(token) {
		return OpNone, fmt.Errorf("%w: unknown operator %q", errMalformed, token)
	}
	return OpNone, nil
}
