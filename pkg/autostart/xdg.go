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

package autostart

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	desktopEntrySection = "[Desktop Entry]"
	desktopFileMode     = 0o644
)

// XDGService manages a freedesktop autostart entry
// ($XDG_CONFIG_HOME/autostart/<name>.desktop).
type XDGService struct {
	dir     string
	name    string
	display string
	exec    string
}

// NewXDGService returns a service writing <name>.desktop into dir. An empty dir
// resolves to the user's autostart directory.
func NewXDGService(dir, name, displayName, execLine string) (*XDGService, error) {
	if dir == "" {
		resolved, err := DefaultDir()
		if err != nil {
			return nil, err
		}

		dir = resolved
	}

	if displayName == "" {
		displayName = name
	}

	return &XDGService{dir: dir, name: name, display: displayName, exec: execLine}, nil
}

// DefaultDir returns $XDG_CONFIG_HOME/autostart, falling back to
// ~/.config/autostart.
func DefaultDir() (string, error) {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "autostart"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving autostart directory: %w", err)
	}

	return filepath.Join(home, ".config", "autostart"), nil
}

// Path is the desktop entry managed by the service.
func (s *XDGService) Path() string {
	return filepath.Join(s.dir, s.name+".desktop")
}

func (s *XDGService) Register() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating autostart directory: %w", err)
	}

	var buf bytes.Buffer

	buf.WriteString(desktopEntrySection + "\n")
	buf.WriteString("Type=Application\n")
	fmt.Fprintf(&buf, "Name=%s\n", s.display)
	fmt.Fprintf(&buf, "Exec=%s\n", s.exec)
	buf.WriteString("Terminal=false\n")
	buf.WriteString("X-GNOME-Autostart-enabled=true\n")

	if err := os.WriteFile(s.Path(), buf.Bytes(), desktopFileMode); err != nil {
		return fmt.Errorf("writing autostart entry: %w", err)
	}

	return nil
}

func (s *XDGService) Unregister() error {
	err := os.Remove(s.Path())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing autostart entry: %w", err)
	}

	return nil
}

func (s *XDGService) Status() (Status, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return StatusNotRegistered, nil
	}

	if err != nil {
		return StatusNotFound, fmt.Errorf("reading autostart entry: %w", err)
	}

	entry := parseDesktopEntry(data)

	// Desktop sessions disable an entry in place instead of deleting it.
	if strings.EqualFold(entry["Hidden"], "true") ||
		strings.EqualFold(entry["X-GNOME-Autostart-enabled"], "false") {
		return StatusRequiresApproval, nil
	}

	return StatusEnabled, nil
}

// parseDesktopEntry returns the key/value pairs of the [Desktop Entry] group.
func parseDesktopEntry(data []byte) map[string]string {
	entry := make(map[string]string)
	inEntry := false

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "["):
			inEntry = line == desktopEntrySection
			continue
		case !inEntry:
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		entry[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return entry
}

var _ Service = (*XDGService)(nil)
