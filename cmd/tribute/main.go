package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"tribute/internal/config"
	"tribute/internal/sequence"
)

const (
	ExitSuccess = 0
	ExitError   = 2
)

const usage = `usage: tribute <command> [flags]

commands:
  play    run the tribute in this terminal
  serve   serve the tribute to browsers over a websocket
  check   validate a script and print its timeline
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return ExitError
	}

	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}

	switch args[0] {
	case "play":
		return runPlay(args[1:], settings, stdin, stdout, stderr)
	case "serve":
		return runServe(args[1:], settings, stderr)
	case "check":
		return runCheck(args[1:], settings, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return ExitSuccess
	default:
		fmt.Fprintf(stderr, "error: unknown command %q\n", args[0])
		fmt.Fprint(stderr, usage)
		return ExitError
	}
}

// loadSequence reads the script at path, or the built-in one, and
// validates it.
// scriptLabel names a script for traces: its file name, or "default" for
// the built-in tribute.
func scriptLabel(path string) string {
	if path == "" {
		return "default"
	}
	return filepath.Base(path)
}

func loadSequence(path string) (sequence.Config, error) {
	script, err := config.Load(path)
	if err != nil {
		return sequence.Config{}, err
	}
	return script.Sequence()
}
