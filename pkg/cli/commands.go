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

package cli

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/carverauto/devicetrust/pkg/hashutil"
	"github.com/carverauto/devicetrust/pkg/trust"
)

func writeJSON(env *Env, v any) error {
	enc := json.NewEncoder(env.Out)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func runHost(ctx context.Context, env *Env, cfg *CmdConfig) error {
	reg := env.Registry

	name, err := reg.HostName(ctx)
	if err != nil {
		return err
	}

	launch, err := reg.LaunchOnLogin(ctx)
	if err != nil {
		return err
	}

	info := hostInfo{
		DeviceID:        reg.HostDeviceID(),
		Name:            name,
		CertificateName: reg.HostCertificateName(),
		LaunchOnLogin:   launch,
	}

	if id := reg.HostIdentity(ctx); id != nil {
		info.IdentityAvailable = true
		info.CommonName = id.Certificate.Subject.CommonName
		info.NotAfter = id.Certificate.NotAfter
		info.Fingerprint = hashutil.FormatCertificate(id.Certificate)
	}

	if cfg.JSON {
		return writeJSON(env, info)
	}

	styles := newStyles(env.Out)
	rows := [][2]string{
		{"Device ID", info.DeviceID},
		{"Name", info.Name},
		{"Certificate", info.CertificateName},
		{"Launch on login", fmt.Sprint(info.LaunchOnLogin)},
	}

	if info.IdentityAvailable {
		rows = append(rows,
			[2]string{"Common name", info.CommonName},
			[2]string{"Expires", info.NotAfter.UTC().Format(time.RFC3339)},
			[2]string{"SHA-256", info.Fingerprint},
		)
	} else {
		rows = append(rows, [2]string{"Identity", styles.unpaired.Render("unavailable")})
	}

	fmt.Fprintln(env.Out, styles.header.Render("Host"))

	for _, row := range rows {
		fmt.Fprintf(env.Out, "  %s %s\n", styles.key.Render(fmt.Sprintf("%-16s", row[0]+":")), row[1])
	}

	return nil
}

func runDevices(ctx context.Context, env *Env, cfg *CmdConfig) error {
	configs, err := env.Registry.KnownDeviceConfigs(ctx)
	if err != nil {
		return err
	}

	devices := make([]trust.DeviceSnapshot, 0, len(configs))

	for _, c := range configs {
		snap := c.Snapshot()
		c.Close()

		if cfg.PairedOnly && !snap.IsPaired {
			continue
		}

		devices = append(devices, snap)
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].DeviceID < devices[j].DeviceID })

	if cfg.JSON {
		return writeJSON(env, devices)
	}

	styles := newStyles(env.Out)

	if len(devices) == 0 {
		fmt.Fprintln(env.Out, styles.muted.Render("no devices"))
		return nil
	}

	tw := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tPAIRED\tCERTIFICATE")

	for _, d := range devices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", d.DeviceID, d.Name, d.Type, d.IsPaired, d.CertificateName)
	}

	return tw.Flush()
}

// withDevice opens the record for id, runs fn and closes it.
func withDevice(ctx context.Context, env *Env, id string, fn func(*trust.DeviceConfig) error) error {
	c, err := env.Registry.DeviceConfig(ctx, id)
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(c)
}

func printDevice(ctx context.Context, env *Env, cfg *CmdConfig, c *trust.DeviceConfig) error {
	info := deviceInfo{DeviceSnapshot: c.Snapshot(), Fingerprint: hashutil.FormatCertificate(c.Certificate(ctx))}

	if cfg.JSON {
		return writeJSON(env, info)
	}

	styles := newStyles(env.Out)

	paired := styles.unpaired.Render("no")
	if info.IsPaired {
		paired = styles.paired.Render("yes")
	}

	fmt.Fprintln(env.Out, styles.header.Render(info.DeviceID))
	fmt.Fprintf(env.Out, "  %s %s\n", styles.key.Render("Name:       "), info.Name)
	fmt.Fprintf(env.Out, "  %s %s\n", styles.key.Render("Type:       "), info.Type)
	fmt.Fprintf(env.Out, "  %s %s\n", styles.key.Render("Paired:     "), paired)
	fmt.Fprintf(env.Out, "  %s %s\n", styles.key.Render("Addresses:  "), strings.Join(info.HwAddresses, ", "))
	fmt.Fprintf(env.Out, "  %s %s\n", styles.key.Render("Certificate:"), info.CertificateName)

	if info.Fingerprint != "" {
		fmt.Fprintf(env.Out, "  %s %s\n", styles.key.Render("SHA-256:    "), info.Fingerprint)
	}

	return nil
}

func runShow(ctx context.Context, env *Env, cfg *CmdConfig) error {
	return withDevice(ctx, env, cfg.Args[0], func(c *trust.DeviceConfig) error {
		return printDevice(ctx, env, cfg, c)
	})
}

func runPair(paired bool) func(context.Context, *Env, *CmdConfig) error {
	return func(ctx context.Context, env *Env, cfg *CmdConfig) error {
		return withDevice(ctx, env, cfg.Args[0], func(c *trust.DeviceConfig) error {
			return c.SetPaired(ctx, paired)
		})
	}
}

func runRename(ctx context.Context, env *Env, cfg *CmdConfig) error {
	return withDevice(ctx, env, cfg.Args[0], func(c *trust.DeviceConfig) error {
		return c.SetName(ctx, cfg.Args[1])
	})
}

func runSetType(ctx context.Context, env *Env, cfg *CmdConfig) error {
	deviceType := trust.ParseDeviceType(cfg.Args[1])
	if deviceType == trust.DeviceTypeUnknown && !strings.EqualFold(cfg.Args[1], string(trust.DeviceTypeUnknown)) {
		return fmt.Errorf("%w: %q", errInvalidDeviceType, cfg.Args[1])
	}

	return withDevice(ctx, env, cfg.Args[0], func(c *trust.DeviceConfig) error {
		return c.SetType(ctx, deviceType)
	})
}

func runAddHw(ctx context.Context, env *Env, cfg *CmdConfig) error {
	return withDevice(ctx, env, cfg.Args[0], func(c *trust.DeviceConfig) error {
		return c.AddHwAddress(ctx, cfg.Args[1])
	})
}

func runSetCert(ctx context.Context, env *Env, cfg *CmdConfig) error {
	data, err := os.ReadFile(cfg.Args[1])
	if err != nil {
		return err
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return fmt.Errorf("%w: %s", errNoCertificate, cfg.Args[1])
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", cfg.Args[1], err)
	}

	return withDevice(ctx, env, cfg.Args[0], func(c *trust.DeviceConfig) error {
		if err := c.SetCertificate(ctx, cert); err != nil {
			return err
		}

		return printDevice(ctx, env, cfg, c)
	})
}

func runVerify(ctx context.Context, env *Env, cfg *CmdConfig) error {
	return withDevice(ctx, env, cfg.Args[0], func(c *trust.DeviceConfig) error {
		cert := c.Certificate(ctx)
		if cert == nil {
			return fmt.Errorf("%w: %s", errNoDeviceCertificate, c.DeviceID())
		}

		if !hashutil.Matches(cfg.Args[1], cert) {
			return fmt.Errorf("%w: %s has %s", errFingerprintMismatch, c.DeviceID(), hashutil.FormatCertificate(cert))
		}

		if cfg.JSON {
			return writeJSON(env, map[string]any{"deviceId": c.DeviceID(), "match": true})
		}

		fmt.Fprintf(env.Out, "%s: certificate matches\n", c.DeviceID())

		return nil
	})
}

func runClearCert(ctx context.Context, env *Env, cfg *CmdConfig) error {
	return withDevice(ctx, env, cfg.Args[0], func(c *trust.DeviceConfig) error {
		return c.SetCertificate(ctx, nil)
	})
}

func runLaunchOnLogin(ctx context.Context, env *Env, cfg *CmdConfig) error {
	if len(cfg.Args) == 1 {
		var enabled bool

		switch strings.ToLower(cfg.Args[0]) {
		case "on", "true", "yes":
			enabled = true
		case "off", "false", "no":
		default:
			return fmt.Errorf("%w: %q", errInvalidSwitch, cfg.Args[0])
		}

		if err := env.Registry.SetLaunchOnLogin(ctx, enabled); err != nil {
			return err
		}
	}

	enabled, err := env.Registry.LaunchOnLogin(ctx)
	if err != nil {
		return err
	}

	if cfg.JSON {
		return writeJSON(env, map[string]bool{"launchOnLogin": enabled})
	}

	state := "off"
	if enabled {
		state = "on"
	}

	fmt.Fprintf(env.Out, "launch on login: %s\n", state)

	return nil
}

// runWatch prints the record once, then again after every change made by
// another writer, until ctx ends or --for elapses.
func runWatch(ctx context.Context, env *Env, cfg *CmdConfig) error {
	if cfg.WatchFor > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, cfg.WatchFor)
		defer cancel()
	}

	return withDevice(ctx, env, cfg.Args[0], func(c *trust.DeviceConfig) error {
		changes := make(chan struct{}, 1)

		c.OnChange(func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		})

		for {
			if err := printDevice(ctx, env, cfg, c); err != nil {
				return err
			}

			select {
			case <-ctx.Done():
				return nil
			case <-changes:
			}
		}
	})
}
