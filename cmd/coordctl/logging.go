// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.
package main

import "go.uber.org/zap"

func newLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		// zap.NewProduction only fails on a broken encoder config; it
		// never happens with the defaults, but fall back rather than
		// leave the process without any logging at all.
		logger = zap.NewNop()
	}
	return logger
}
