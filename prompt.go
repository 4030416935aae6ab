package msh

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var promptColor = color.New(color.FgCyan)

// expandPrompt fills in the prompt template. %p is the shell's own pid,
// matching the classic "(pid) $ " prompt.
func expandPrompt(template string) string {
	hostname, _ := os.Hostname()
	cwd, _ := os.Getwd()

	replacements := map[string]string{
		"%p": fmt.Sprintf("%d", os.Getpid()),
		"%u": os.Getenv("USER"),
		"%h": hostname,
		"%w": cwd,
	}
	for key, value := range replacements {
		template = strings.ReplaceAll(template, key, value)
	}
	return template
}

// colorizePrompt applies the prompt color only when stdout really is a
// terminal; redirected output stays clean.
func colorizePrompt(prompt string, enabled bool) string {
	if !enabled || !term.IsTerminal(int(os.Stdout.Fd())) {
		return prompt
	}
	return promptColor.Sprint(prompt)
}
