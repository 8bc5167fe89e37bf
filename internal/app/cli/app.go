// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.

// Package cli is a thin wrapper over pflag giving cmd/coordctl's
// subcommands a uniform App.Start/ExitIfError shape.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
)

// App is the main structure of a command line application.
type App struct {
	name        string
	description string
	version     string
	flags       *pflag.FlagSet
	required    []string
}

// NewApp creates a new App named after the running executable.
func NewApp() (*App, error) {
	name := filepath.Base(os.Args[0])
	if ext := filepath.Ext(name); ext != "" {
		name = name[:len(name)-len(ext)]
	}
	return NewNamedApp(name)
}

// NewNamedApp creates a new App with the name specified.
func NewNamedApp(name string) (*App, error) {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	return &App{name: name, flags: flags}, nil
}

// ExitIfError writes err's message to Stderr and exits with code 1 if
// err is non-nil; it is a no-op otherwise.
func ExitIfError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}

// StringFlag registers a string flag with both a long and short name.
func (a *App) StringFlag(longName string, shorthand byte, value, usage string) *string {
	p := new(string)
	a.flags.StringVarP(p, longName, string(shorthand), value, usage)
	return p
}

// IntFlag registers an int flag with both a long and short name.
func (a *App) IntFlag(longName string, shorthand byte, value int, usage string) *int {
	p := new(int)
	a.flags.IntVarP(p, longName, string(shorthand), value, usage)
	return p
}

// BoolFlag registers a bool flag with both a long and short name.
func (a *App) BoolFlag(longName string, shorthand byte, value bool, usage string) *bool {
	p := new(bool)
	a.flags.BoolVarP(p, longName, string(shorthand), value, usage)
	return p
}

// Require marks longName as required: Start reports an error if its
// value is still the empty string after parsing. This catches an unset
// string flag; int and bool flags always have a non-empty value.
func (a *App) Require(longName string) {
	a.required = append(a.required, longName)
}

// SetVersion records a version string on the App. Start does not
// register or handle a "-v"/"--version" flag, so the string is not
// printed.
func (a *App) SetVersion(version string) {
	a.version = version
}

// SetDescription sets the one-line description printed above usage.
func (a *App) SetDescription(description string) {
	a.description = description
}

// Start parses os.Args[1:], prints usage on -h/--help or a parse
// error, checks required flags, recovers a panic from work into an
// error, and prints any resulting error to Stderr. work receives the
// positional arguments left after flag parsing.
func (a *App) Start(work func(args []string) error) {
	if err := a.flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		a.printUsage()
		return
	}

	if err := a.checkRequired(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		a.printUsage()
		return
	}

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if e, ok := r.(error); ok {
					err = e
				} else {
					err = fmt.Errorf("panic: %v", r)
				}
			}
		}()
		err = work(a.flags.Args())
	}()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func (a *App) checkRequired() error {
	for _, name := range a.required {
		f := a.flags.Lookup(name)
		if f == nil || f.Value.String() == "" {
			return fmt.Errorf("--%s is required", name)
		}
	}
	return nil
}

func (a *App) printUsage() {
	if a.description != "" {
		fmt.Fprintln(os.Stdout, a.description)
	}
	fmt.Fprintf(os.Stdout, "Usage of %s:\n", a.name)
	a.flags.PrintDefaults()
}
