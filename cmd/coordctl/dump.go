// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.
package main

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/relaygrid/corecoord/counters"
	"github.com/relaygrid/corecoord/internal/app/cli"
	"github.com/relaygrid/corecoord/internal/config"
	"github.com/relaygrid/corecoord/internal/mmap"
)

func runDump() {
	a, err := cli.NewNamedApp("coordctl dump")
	cli.ExitIfError(err)
	a.SetDescription("Prints the contents of a counters region to stdout.")

	fileArg := a.StringFlag("file", 'f', "", "path to a counters region created by 'coordctl serve'")
	a.Require("file")
	configArg := a.StringFlag("config", 'c', "", "path to a JSONC config file (same one 'serve' was started with)")

	a.Start(func(args []string) error {
		return dump(*fileArg, *configArg)
	})
}

func dump(file, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "dump")
	}

	region, closer, err := mmap.MapExistingFile(file, true)
	if err != nil {
		return errors.Wrapf(err, "dump: mapping %s", file)
	}
	defer closer.Close()

	layout, err := sliceRegions(region, cfg)
	if err != nil {
		return errors.Wrap(err, "dump: file does not match the configured layout")
	}

	reader := counters.NewReader(layout.metadata, layout.values)

	fmt.Printf("file: %s\n", file)
	fmt.Printf("max counter id: %d\n", reader.MaxCounterID())

	reader.ForEach(func(id, typeID int32, label string) bool {
		value, err := reader.CounterValue(id)
		if err != nil {
			return true
		}
		fmt.Printf("counter: %s[id=%d,type=%d]=%d\n", label, id, typeID, value)
		return true
	})

	return nil
}
