package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"

	"msh"
)

func main() {
	cfg, err := msh.LoadConfig(afero.NewOsFs(), msh.DefaultConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "msh: %v\n", err)
		os.Exit(1)
	}

	shell, err := msh.NewShell(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "msh: %v\n", err)
		os.Exit(1)
	}

	code := shell.Run()
	shell.Close()
	os.Exit(code)
}
