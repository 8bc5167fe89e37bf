// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.

// Command coordctl operates a shared-memory coordination region: its
// "serve" subcommand maps (creating if needed) a counters file and
// exposes it over a small REST API, and its "dump" subcommand prints a
// counters file's contents to stdout.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	subcommand := os.Args[1]
	os.Args = append([]string{os.Args[0] + " " + subcommand}, os.Args[2:]...)

	switch subcommand {
	case "serve":
		runServe()
	case "dump":
		runDump()
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: coordctl <serve|dump> [flags]")
}
