// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command grove runs every enabled instance once and exits. All backend
// and logging configuration is environmental — see internal/bootstrap and
// internal/log for the variables read.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tombee/grove/internal/bootstrap"
	"github.com/tombee/grove/internal/log"
)

// Version information, injected via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("grove %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	logger := log.New(log.FromEnv())
	slog.SetDefault(logger)

	env, err := bootstrap.Build(version, logger)
	if err != nil {
		logger.Error("failed to initialize backends", slog.Any("error", err))
		os.Exit(3)
	}

	anyFatal, err := env.Scheduler.RunOnce(context.Background())
	if err != nil {
		logger.Error("no instances loaded", slog.Any("error", err))
		os.Exit(2)
	}
	if anyFatal {
		os.Exit(1)
	}
}
