package msh

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/afero"

	"msh/parser"
)

// Shell owns the interactive read loop and the long-lived collaborators:
// supervisor, interrupt bridge, session identity and history store.
type Shell struct {
	config  *Config
	session *Session
	history *HistoryManager
	sup     *Supervisor
	bridge  *InterruptBridge
	rl      *readline.Instance
	fs      afero.Fs
}

func NewShell(cfg *Config) (*Shell, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	history, err := NewHistoryManager(cfg.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("opening history: %v", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          expandPrompt(cfg.Prompt),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		history.Close()
		return nil, err
	}

	sup := NewSupervisor()
	return &Shell{
		config:  cfg,
		session: NewSession(),
		history: history,
		sup:     sup,
		bridge:  NewInterruptBridge(sup),
		rl:      rl,
		fs:      afero.NewOsFs(),
	}, nil
}

func (s *Shell) Close() error {
	s.bridge.Close()
	s.rl.Close()
	return s.history.Close()
}

// Run reads lines until EOF or the exit keyword and returns the shell's
// exit status. Each line blocks until its whole process tree has finished.
func (s *Shell) Run() int {
	for {
		s.rl.SetPrompt(colorizePrompt(expandPrompt(s.config.Prompt), s.config.Color))
		line, err := s.rl.Readline()

		switch {
		case err == readline.ErrInterrupt:
			continue // interrupt at the prompt just redraws it
		case err == io.EOF:
			return 0
		case err != nil:
			log.Printf("readline: %v", err)
			return 1
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		tokens, err := parser.Tokenize(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "msh: %v\n", err)
			continue
		}
		if len(tokens) == 0 {
			continue
		}
		if tokens[0] == "exit" {
			return 0
		}

		cmd := NewCommand(tokens, s.sup)
		cmd.FS = s.fs
		cmd.History = s.history
		cmd.MaxArgs = s.config.MaxArgs
		cmd.Color = s.config.Color
		cmd.Run()

		if err := s.history.Insert(cmd, s.session.ID); err != nil {
			log.Printf("recording history: %v", err)
		}

		// Only pipe-creation failure escalates past the line.
		if cmd.Fatal() != nil {
			return cmd.ReturnCode
		}
	}
}
