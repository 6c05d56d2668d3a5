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

// Command groved runs the scheduler as a long-lived daemon: an initial
// configuration load, then a periodic refresh and per-second dispatch tick,
// until SIGINT or SIGTERM requests a graceful shutdown. All backend and
// logging configuration is environmental — see internal/bootstrap and
// internal/log for the variables read.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tombee/grove/internal/bootstrap"
	"github.com/tombee/grove/internal/log"
	"github.com/tombee/grove/internal/metrics"
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
		fmt.Printf("groved %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	logger := log.New(log.FromEnv())
	slog.SetDefault(logger)

	env, err := bootstrap.Build(version, logger)
	if err != nil {
		logger.Error("failed to initialize backends", slog.Any("error", err))
		os.Exit(3)
	}

	if addr := os.Getenv("GROVE_METRICS_ADDR"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		defer srv.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- env.Scheduler.Run(ctx)
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", slog.String("signal", sig.String()))
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			logger.Error("scheduler exited with error", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
