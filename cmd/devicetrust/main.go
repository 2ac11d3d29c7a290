/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// devicetrust inspects and edits the device trust registry: the host
// identity, the records of known devices and the launch-on-login setting.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/carverauto/devicetrust/pkg/autostart"
	"github.com/carverauto/devicetrust/pkg/cli"
	"github.com/carverauto/devicetrust/pkg/config"
	"github.com/carverauto/devicetrust/pkg/keystore"
	"github.com/carverauto/devicetrust/pkg/kv"
	"github.com/carverauto/devicetrust/pkg/logger"
	"github.com/carverauto/devicetrust/pkg/notify"
	"github.com/carverauto/devicetrust/pkg/trust"
	"github.com/carverauto/devicetrust/pkg/version"
)

const (
	exitError = 1
	exitUsage = 2

	metricsFlushTimeout = 5 * time.Second
)

type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }
func (usageError) ExitCode() int   { return exitUsage }

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)

		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}

		os.Exit(exitError)
	}
}

func run() error {
	cmdCfg, err := cli.ParseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			cli.ShowHelp(os.Stdout)
			return nil
		}

		cli.ShowHelp(os.Stderr)

		return usageError{err}
	}

	if cmdCfg.Help {
		cli.ShowHelp(os.Stdout)
		return nil
	}

	if cmdCfg.Version {
		fmt.Println(version.String("devicetrust"))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, cmdCfg.ConfigFile, nil)
	if err != nil {
		return err
	}

	log, err := logger.Init(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	if _, err := logger.InitializeMetrics(ctx, cfg.Metrics); err == nil {
		defer flushMetrics(log)
	} else if !errors.Is(err, logger.ErrMetricsDisabled) {
		log.Warn().Err(err).Msg("metrics export unavailable")
	}

	reg, cleanup, err := openRegistry(ctx, cfg, log)
	defer cleanup()

	if err != nil {
		return err
	}

	if cmdCfg.SubCmd != "watch" {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, cfg.OperationTimeout.Std())
		defer cancel()
	}

	return cli.Run(ctx, &cli.Env{Registry: reg, Out: os.Stdout}, cmdCfg)
}

func flushMetrics(log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), metricsFlushTimeout)
	defer cancel()

	if err := logger.ShutdownMetrics(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to flush metrics")
	}
}

// openRegistry wires the configured backends into a Registry. cleanup releases
// them in reverse order and is safe to call when err is non-nil.
func openRegistry(ctx context.Context, cfg *config.Config, log logger.Logger) (*trust.Registry, func(), error) {
	var closers []func() error

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn().Err(err).Msg("shutdown failed")
			}
		}
	}

	store, err := kv.Open(ctx, &cfg.Store, log)
	if err != nil {
		return nil, cleanup, fmt.Errorf("opening store: %w", err)
	}

	closers = append(closers, store.Close)

	ks, err := keystore.Open(&cfg.Keystore, store, log)
	if err != nil {
		return nil, cleanup, fmt.Errorf("opening keystore: %w", err)
	}

	loginItems, err := autostart.Open(&cfg.Autostart)
	if err != nil {
		return nil, cleanup, fmt.Errorf("opening login items: %w", err)
	}

	notifier, closeNotifier, err := notify.Open(&cfg.Notifications, log)
	if err != nil {
		return nil, cleanup, fmt.Errorf("opening notifier: %w", err)
	}

	closers = append(closers, closeNotifier)

	reg, err := trust.NewRegistry(ctx, trust.Options{
		Store:      store,
		Keystore:   ks,
		Logger:     log,
		LoginItems: loginItems,
		Notifier:   notifier,
	})
	if err != nil {
		return nil, cleanup, err
	}

	return reg, cleanup, nil
}
