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

// Package notify delivers user-visible alerts raised by the trust registry.
package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/carverauto/devicetrust/pkg/logger"
)

// Notification is a fire-and-forget user alert.
type Notification struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound bool   `json:"sound,omitempty"`
}

// Notifier delivers notifications. Delivery failures are the notifier's
// problem; callers never wait on or inspect the outcome.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NewID returns a fresh notification identifier.
func NewID() string {
	return uuid.NewString()
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: logger.OrNop(log)}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	l.log.Warn().
		Str("notification_id", n.ID).
		Str("title", n.Title).
		Bool("sound", n.Sound).
		Msg(n.Body)
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, n Notification)

func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

var (
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = Func(nil)
)
