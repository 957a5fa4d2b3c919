// Command slo is the front end for the interpreter: a REPL, a file
// runner, and a version command, all thin wrappers around pkg/compiler
// and pkg/vm (spec.md §6 — explicitly external collaborators of the
// core, consuming only its public entry points).
package main

import (
	"fmt"
	"os"

	"github.com/ESloman/cslo/pkg/compiler"
	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/repl"
	"github.com/ESloman/cslo/pkg/vm"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	if v := os.Getenv("SLO_LOG"); v != "" {
		if lvl, err := logrus.ParseLevel(v); err == nil {
			log.SetLevel(lvl)
		}
	}

	root := &cobra.Command{
		Use:           "slo [file]",
		Short:         "slo is a small dynamically-typed scripting language",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return repl.Run(log)
			}
			return runFile(args[0], log)
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "run <file>",
		Short: "compile and run a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0], log)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "repl",
		Short: "start the interactive REPL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return repl.Run(log)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print the interpreter version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("slo " + version)
		},
	})

	if err := root.Execute(); err != nil {
		reportFailure(err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a failure to slo's process exit codes (spec.md §6):
// 65 for a compile-time error, 70 for a runtime error, 1 otherwise.
func exitCodeFor(err error) int {
	switch err.(type) {
	case *compiler.CompileError:
		return 65
	case *vm.RuntimeError:
		return 70
	default:
		return 1
	}
}

func reportFailure(err error) {
	useColor := isatty.IsTerminal(os.Stderr.Fd())
	msg := err.Error()
	if useColor {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, msg)
		return
	}
	fmt.Fprintln(os.Stderr, msg)
}

func runFile(path string, log *logrus.Logger) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	col := gc.New()
	c := compiler.New(col)
	fn, err := c.Compile(string(source), path)
	if err != nil {
		return err
	}

	interp := vm.New(col, log)
	interp.SetSource(string(source))
	return interp.Interpret(fn)
}
