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
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Dracula theme colors.
const (
	draculaCyan    = "#8BE9FD"
	draculaGreen   = "#50FA7B"
	draculaRed     = "#FF5555"
	draculaComment = "#6272A4"
	draculaPurple  = "#BD93F9"
)

type outputStyles struct {
	header, key, paired, unpaired, muted lipgloss.Style
}

// newStyles binds styles to out so that color is only emitted to terminals.
func newStyles(out io.Writer) outputStyles {
	r := lipgloss.NewRenderer(out)

	return outputStyles{
		header:   r.NewStyle().Foreground(lipgloss.Color(draculaPurple)).Bold(true),
		key:      r.NewStyle().Foreground(lipgloss.Color(draculaCyan)),
		paired:   r.NewStyle().Foreground(lipgloss.Color(draculaGreen)),
		unpaired: r.NewStyle().Foreground(lipgloss.Color(draculaRed)),
		muted:    r.NewStyle().Foreground(lipgloss.Color(draculaComment)),
	}
}
