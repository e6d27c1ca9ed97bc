// Copyright 2024 The PocketLang Authors
// This file is part of the PocketLang runtime.
//
// The PocketLang runtime is free software: you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// The PocketLang runtime is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the PocketLang runtime. If not, see <http://www.gnu.org/licenses/>.

// Command pocketlang is a minimal host for the PocketLang runtime (§6 "CLI
// surface"): `pocketlang [script]` runs a file to completion, or, given no
// script, drops into a REPL that keeps appending lines across an
// UNEXPECTED_EOF. It exists to give the embedding API (§4.J) and the
// module system (§4.I) at least one concrete host wiring them together,
// the same role the teacher's own probec plays for its compiler.
package main

import (
	"bufio"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/pocketlang/pocketlang/lang/bytecode"
	"github.com/pocketlang/pocketlang/lang/value"
	"github.com/pocketlang/pocketlang/lang/vm"
)

const version = "0.1.0"

// Result mirrors §6's Interpret result enum as process exit codes.
type Result int

const (
	ResultSuccess Result = iota
	ResultUnexpectedEOF
	ResultCompileError
	ResultRuntimeError
)

// fileConfig is pocket.toml's shape (§9 "Global mutable state... are
// per-VM configuration", loaded here rather than hardcoded so a host
// doesn't need a rebuild to retune the collector or flip repl_mode).
type fileConfig struct {
	HeapGrowPercent int     `toml:",omitempty"`
	GCFloorBytes    int64   `toml:",omitempty"`
	ImportRateLimit float64 `toml:",omitempty"`
	Debug           bool    `toml:",omitempty"`
	ReplMode        bool    `toml:",omitempty"`
}

// tomlSettings keeps TOML keys matching Go struct field names, same
// normalization the teacher applies to its own node/eth config.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		fmt.Fprintf(os.Stderr, "warning: unknown config field %s.%s ignored\n", rt.String(), field)
		return nil
	},
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	app := cli.NewApp()
	app.Name = "pocketlang"
	app.Usage = "run or interactively evaluate a PocketLang script"
	app.Version = version
	app.ArgsUsage = "[script]"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Value: "pocket.toml", Usage: "TOML configuration file"},
		cli.BoolFlag{Name: "debug", Usage: "print a disassembly of each compiled function before running"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		if ec, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(ec.ExitCode())
		}
		os.Exit(int(ResultRuntimeError))
	}
}

// stderrOut is where colorized diagnostics go: go-isatty decides whether
// stderr is a real terminal, go-colorable wraps it so ANSI codes still
// render correctly on Windows consoles, and fatih/color falls back to
// plain text automatically once color.NoColor is set.
func stderrOut() *colorWriter {
	isTerm := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return &colorWriter{w: colorable.NewColorable(os.Stderr), color: isTerm}
}

type colorWriter struct {
	w     io.Writer
	color bool
}

func (cw *colorWriter) errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if cw.color {
		color.New(color.FgRed, color.Bold).Fprintln(cw.w, msg)
		return
	}
	fmt.Fprintln(cw.w, msg)
}

func (cw *colorWriter) frame(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if cw.color {
		color.New(color.FgYellow).Fprintln(cw.w, "  "+msg)
		return
	}
	fmt.Fprintln(cw.w, "  "+msg)
}

func run(c *cli.Context) error {
	fcfg, err := loadFileConfig(c.String("config"))
	if err != nil {
		return cli.NewExitError(err.Error(), int(ResultCompileError))
	}

	out := stderrOut()
	debug := c.Bool("debug") || fcfg.Debug

	cfg := vm.DefaultConfig()
	cfg.Debug = debug
	cfg.ReplMode = fcfg.ReplMode
	if fcfg.HeapGrowPercent > 0 {
		cfg.HeapGrowPercent = fcfg.HeapGrowPercent
	}
	cfg.GCFloor = fcfg.GCFloorBytes
	cfg.ImportRateLimit = fcfg.ImportRateLimit
	cfg.Error = func(kind vm.ErrorKind, path string, line int, msg string) {
		switch kind {
		case vm.ErrorCompile:
			out.errorf("%s:%d: compile error: %s", path, line, msg)
		case vm.ErrorRuntime:
			out.errorf("%s:%d: runtime error: %s", path, line, msg)
		case vm.ErrorStacktrace:
			out.frame("at %s:%d", path, line)
		}
	}

	scriptPath := c.Args().First()
	if scriptPath == "" {
		return runRepl(cfg)
	}
	return runFile(cfg, scriptPath, debug)
}

// runFile implements the non-REPL half of §6's CLI surface: compile the
// whole file once, run it to completion, exit SUCCESS/COMPILE_ERROR/
// RUNTIME_ERROR.
func runFile(cfg vm.Config, scriptPath string, debug bool) error {
	absPath, err := filepath.Abs(scriptPath)
	if err != nil {
		return cli.NewExitError(err.Error(), int(ResultCompileError))
	}
	scriptDir := filepath.Dir(absPath)

	cfg.ResolvePath = func(from, name string) (string, error) {
		base := scriptDir
		if from != "" {
			base = filepath.Dir(from)
		}
		if !strings.HasSuffix(name, ".pocket") {
			name += ".pocket"
		}
		return filepath.Join(base, name), nil
	}
	cfg.LoadScript = func(path string) (string, error) {
		b, err := ioutil.ReadFile(path)
		return string(b), err
	}

	src, err := ioutil.ReadFile(absPath)
	if err != nil {
		return cli.NewExitError(err.Error(), int(ResultCompileError))
	}

	m := vm.New(cfg)
	mod, err := m.Compile(absPath, string(src))
	if err != nil {
		reportCompileError(cfg, err)
		return cli.NewExitError(err.Error(), int(ResultCompileError))
	}
	if debug {
		for _, fn := range mod.Functions {
			bytecode.Disassemble(os.Stdout, fn.Name, fn.Opcodes)
		}
	}

	fiber := value.NewFiber(m.Heap, mod.Body, 256)
	if _, err := m.Run(fiber, nil); err != nil {
		reportRuntimeError(cfg, err)
		return cli.NewExitError(err.Error(), int(ResultRuntimeError))
	}
	return nil
}

// runRepl implements §6's "enters a REPL that compiles in repl_mode and
// keeps appending lines on UNEXPECTED_EOF": each failed compile whose
// CompileError.UnexpectedEOF is set folds the next line of input into the
// same buffer instead of reporting failure, so a dangling `if` or open
// brace simply waits for its continuation.
func runRepl(cfg vm.Config) error {
	cfg.ReplMode = true
	wd, _ := os.Getwd()
	cfg.ResolvePath = func(from, name string) (string, error) {
		base := wd
		if from != "" {
			base = filepath.Dir(from)
		}
		if !strings.HasSuffix(name, ".pocket") {
			name += ".pocket"
		}
		return filepath.Join(base, name), nil
	}
	cfg.LoadScript = func(path string) (string, error) {
		b, err := ioutil.ReadFile(path)
		return string(b), err
	}

	m := vm.New(cfg)
	scanner := bufio.NewScanner(os.Stdin)

	var buf strings.Builder
	for {
		if buf.Len() == 0 {
			fmt.Fprint(os.Stdout, "> ")
		} else {
			fmt.Fprint(os.Stdout, "... ")
		}
		if !scanner.Scan() {
			return nil
		}
		buf.WriteString(scanner.Text())
		buf.WriteString("\n")

		mod, err := m.Compile("<repl>", buf.String())
		if err != nil {
			if ce, ok := err.(*vm.CompileError); ok && ce.UnexpectedEOF {
				continue // wait for the rest of the statement
			}
			reportCompileError(cfg, err)
			buf.Reset()
			continue
		}
		buf.Reset()

		fiber := value.NewFiber(m.Heap, mod.Body, 256)
		result, err := m.Run(fiber, nil)
		if err != nil {
			reportRuntimeError(cfg, err)
			continue
		}
		if !result.IsNull() {
			fmt.Fprintln(os.Stdout, value.ToString(m.Heap, result, true))
		}
	}
}

func reportCompileError(cfg vm.Config, err error) {
	if cfg.Error == nil {
		return
	}
	if ce, ok := err.(*vm.CompileError); ok {
		cfg.Error(vm.ErrorCompile, ce.Path, ce.Line, ce.Message)
		return
	}
	cfg.Error(vm.ErrorCompile, "", 0, err.Error())
}

func reportRuntimeError(cfg vm.Config, err error) {
	if cfg.Error == nil {
		return
	}
	if re, ok := err.(*vm.RuntimeError); ok {
		cfg.Error(vm.ErrorRuntime, "", 0, re.Message)
		for _, fr := range re.Frames {
			cfg.Error(vm.ErrorStacktrace, fr.Path, fr.Line, fr.Func)
		}
		return
	}
	cfg.Error(vm.ErrorRuntime, "", 0, err.Error())
}
