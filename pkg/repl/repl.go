// Package repl implements slo's interactive read-eval-print loop: a
// liner-backed line editor with persistent history, sitting entirely
// outside the interpreter core (spec.md §6 — an external collaborator
// that consumes only pkg/compiler and pkg/vm's public entry points).
package repl

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ESloman/cslo/pkg/compiler"
	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/vm"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"
)

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cslo_history")
}

// Run starts the REPL loop, sharing one collector and VM across every
// line so definitions persist between inputs, the way a script's
// top-level scope would.
func Run(log *logrus.Logger) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histFile := historyPath()
	if histFile != "" {
		if f, err := os.Open(histFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	useColor := isatty.IsTerminal(os.Stdout.Fd())
	col := gc.New()
	interp := vm.New(col, log)
	c := compiler.New(col)

	fmt.Println("slo REPL — Ctrl-D to exit")
	for {
		text, err := line.Prompt("slo> ")
		if err == liner.ErrPromptAborted {
			continue
		}
		if err != nil {
			break
		}
		if text == "" {
			continue
		}
		line.AppendHistory(text)

		fn, cerr := c.Compile(text, "")
		if cerr != nil {
			reportError(cerr, useColor)
			continue
		}
		interp.SetSource(text)
		if rerr := interp.Interpret(fn); rerr != nil {
			reportError(rerr, useColor)
		}
	}

	if histFile != "" {
		if f, err := os.Create(histFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}
	fmt.Println()
	return nil
}

func reportError(err error, useColor bool) {
	if useColor {
		color.New(color.FgRed).Fprintln(os.Stderr, err.Error())
		return
	}
	fmt.Fprintln(os.Stderr, err.Error())
}
