package msh

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	getopt "github.com/pborman/getopt/v2"
	"github.com/spf13/afero"
)

// Built-ins run inside the shell: no process is created for them and they
// get no redirection or pipe support. Dispatch happens on the head of the
// first argument vector, before any pipeline machinery is touched.
type builtinFunc func(cmd *Command, args []string) int

var builtins map[string]builtinFunc

func init() {
	builtins = make(map[string]builtinFunc)
	builtins["ls"] = lsBuiltin
	builtins["rm"] = rmBuiltin
	builtins["history"] = historyBuiltin
}

var dirColor = color.New(color.FgBlue, color.Bold)

func lsBuiltin(cmd *Command, args []string) int {
	opts := getopt.New()
	listAll := opts.Bool('a', "don't ignore entries starting with .")
	longListing := opts.Bool('l', "use a long listing format")
	helpOpt := opts.BoolLong("help", '?', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		if err != nil {
			fmt.Fprintln(cmd.Stderr, err)
		}
		fmt.Fprintln(cmd.Stderr, "Usage: ls [OPTION]... [DIR]...")
		opts.PrintOptions(cmd.Stderr)
		return 1
	}

	dirs := opts.Args()
	if len(dirs) == 0 {
		dirs = append(dirs, ".")
	}
	sort.Strings(dirs)
	showNames := len(dirs) > 1

	exitCode := 0
	for i, dir := range dirs {
		infos, err := afero.ReadDir(cmd.FS, dir)
		if err != nil {
			fmt.Fprintf(cmd.Stderr, "ls: cannot open %q: no such directory\n", dir)
			exitCode = 1
			continue
		}

		if showNames {
			if i > 0 {
				fmt.Fprintln(cmd.Stdout)
			}
			fmt.Fprintf(cmd.Stdout, "%s:\n", dir)
		}

		tw := tabwriter.NewWriter(cmd.Stdout, 0, 8, 2, ' ', 0)
		for _, info := range infos {
			if !*listAll && strings.HasPrefix(info.Name(), ".") {
				continue
			}
			name := info.Name()
			if cmd.Color && info.IsDir() {
				name = dirColor.Sprint(name)
			}
			if *longListing {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
					info.Mode(), info.Size(),
					info.ModTime().Format("Jan _2 15:04"), name)
			} else {
				fmt.Fprintln(tw, name)
			}
		}
		tw.Flush()
	}
	return exitCode
}

func rmBuiltin(cmd *Command, args []string) int {
	opts := getopt.New()
	force := opts.BoolLong("force", 'f', "ignore missing files, never prompt")
	recursive := opts.BoolLong("recursive", 'r', "remove directories and their contents")

	if err := opts.Getopt(args, nil); err != nil {
		fmt.Fprintln(cmd.Stderr, err)
		fmt.Fprintln(cmd.Stderr, "Usage: rm [OPTION]... FILE...")
		opts.PrintOptions(cmd.Stderr)
		return 1
	}

	files := opts.Args()
	if len(files) == 0 {
		fmt.Fprintln(cmd.Stderr, "rm: missing operand")
		return 1
	}

	exitCode := 0
	for _, file := range files {
		info, statErr := cmd.FS.Stat(file)
		switch {
		case errors.Is(statErr, fs.ErrNotExist):
			if !*force {
				fmt.Fprintf(cmd.Stderr, "rm: cannot remove %q: no such file or directory\n", file)
				exitCode = 1
			}
		case statErr != nil:
			fmt.Fprintf(cmd.Stderr, "rm: cannot stat %q: %v\n", file, statErr)
			exitCode = 1
		case info.IsDir() && !*recursive:
			fmt.Fprintf(cmd.Stderr, "rm: cannot remove %q: is a directory\n", file)
			exitCode = 1
		case info.IsDir():
			if err := cmd.FS.RemoveAll(file); err != nil {
				fmt.Fprintf(cmd.Stderr, "rm: cannot remove %q: %v\n", file, err)
				exitCode = 1
			}
		default:
			if err := cmd.FS.Remove(file); err != nil {
				fmt.Fprintf(cmd.Stderr, "rm: cannot remove %q: %v\n", file, err)
				exitCode = 1
			}
		}
	}
	return exitCode
}

func historyBuiltin(cmd *Command, args []string) int {
	if cmd.History == nil {
		fmt.Fprintln(cmd.Stderr, "history: not recording")
		return 1
	}
	lines, err := cmd.History.Dump()
	if err != nil {
		fmt.Fprintf(cmd.Stderr, "history: %v\n", err)
		return 1
	}
	for i, line := range lines {
		fmt.Fprintf(cmd.Stdout, "%5d  %s\n", i+1, line)
	}
	return 0
}
