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

// Package cli implements the devicetrust command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"
)

type command struct {
	args  int // exact number of positional arguments, or -1 for zero or one
	flags func(fs *pflag.FlagSet, cfg *CmdConfig)
	run   func(ctx context.Context, env *Env, cfg *CmdConfig) error
}

//nolint:gochecknoglobals // static command table
var commands = map[string]command{
	"host":            {args: 0, run: runHost},
	"devices":         {args: 0, flags: devicesFlags, run: runDevices},
	"show":            {args: 1, run: runShow},
	"pair":            {args: 1, run: runPair(true)},
	"unpair":          {args: 1, run: runPair(false)},
	"rename":          {args: 2, run: runRename},
	"set-type":        {args: 2, run: runSetType},
	"add-hw":          {args: 2, run: runAddHw},
	"set-cert":        {args: 2, run: runSetCert},
	"verify":          {args: 2, run: runVerify},
	"clear-cert":      {args: 1, run: runClearCert},
	"launch-on-login": {args: -1, run: runLaunchOnLogin},
	"watch":           {args: 1, flags: watchFlags, run: runWatch},
}

func devicesFlags(fs *pflag.FlagSet, cfg *CmdConfig) {
	fs.BoolVar(&cfg.PairedOnly, "paired", false, "only list paired devices")
}

func watchFlags(fs *pflag.FlagSet, cfg *CmdConfig) {
	fs.DurationVar(&cfg.WatchFor, "for", 0, "stop watching after this long (default: until interrupted)")
}

// ParseFlags parses the global flags, the command name and the command's own
// flags and arguments. args excludes the program name.
func ParseFlags(args []string) (*CmdConfig, error) {
	cfg := &CmdConfig{}

	fs := pflag.NewFlagSet("devicetrust", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.StringVarP(&cfg.ConfigFile, "config", "c", "", "configuration file (JSON)")
	fs.BoolVar(&cfg.JSON, "json", false, "print JSON instead of text")
	fs.BoolVarP(&cfg.Help, "help", "h", false, "show help message")
	fs.BoolVar(&cfg.Version, "version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	if cfg.Help || cfg.Version {
		return cfg, nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return nil, errMissingCommand
	}

	cfg.SubCmd = rest[0]

	cmd, ok := commands[cfg.SubCmd]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownCommand, cfg.SubCmd)
	}

	sub := pflag.NewFlagSet(cfg.SubCmd, pflag.ContinueOnError)
	if cmd.flags != nil {
		cmd.flags(sub, cfg)
	}

	if err := sub.Parse(rest[1:]); err != nil {
		return nil, fmt.Errorf("parsing %s flags: %w", cfg.SubCmd, err)
	}

	cfg.Args = sub.Args()

	switch {
	case cmd.args >= 0 && len(cfg.Args) != cmd.args:
		return nil, fmt.Errorf("%w: %s takes %d, got %d", errWrongArgCount, cfg.SubCmd, cmd.args, len(cfg.Args))
	case cmd.args < 0 && len(cfg.Args) > 1:
		return nil, fmt.Errorf("%w: %s takes at most 1, got %d", errWrongArgCount, cfg.SubCmd, len(cfg.Args))
	}

	return cfg, nil
}

// Run executes the parsed command.
func Run(ctx context.Context, env *Env, cfg *CmdConfig) error {
	cmd, ok := commands[cfg.SubCmd]
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownCommand, cfg.SubCmd)
	}

	return cmd.run(ctx, env, cfg)
}
