// Package parser splits raw input lines into token sequences for the shell.
// Quoting and operator-splitting rules live here; the interpreter consumes
// only the resulting ordered slice of tokens.
package parser

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

var lineLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Redirect", Pattern: `&>|2>|>>|>|<`}, // longest forms first
	{Name: "Pipe", Pattern: `\|`},
	{Name: "Quote", Pattern: `'[^']*'|"[^"]*"`},
	{Name: "Word", Pattern: `[^\s|><&'"]+`},
})

var (
	whitespaceType = lineLexer.Symbols()["Whitespace"]
	quoteType      = lineLexer.Symbols()["Quote"]
)

// Tokenize splits a single input line into an ordered slice of tokens.
// Operators become their own tokens even when glued to a word, quoted
// strings become a single token with the quotes stripped, and whitespace
// is discarded. An empty slice represents a blank line.
func Tokenize(line string) ([]string, error) {
	lx, err := lineLexer.LexString("", line)
	if err != nil {
		return nil, fmt.Errorf("syntax error: %v", err)
	}

	var tokens []string
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, fmt.Errorf("syntax error: %v", err)
		}
		if tok.EOF() {
			return tokens, nil
		}
		switch tok.Type {
		case whitespaceType:
			// skip
		case quoteType:
			tokens = append(tokens, unquote(tok.Value))
		default:
			tokens = append(tokens, tok.Value)
		}
	}
}

func unquote(s string) string {
	if len(s) >= 2 {
		if strings.HasPrefix(s, `'`) && strings.HasSuffix(s, `'`) {
			return s[1 : len(s)-1]
		}
		if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
			return s[1 : len(s)-1]
		}
	}
	return s
}
