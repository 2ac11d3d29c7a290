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

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/carverauto/devicetrust/pkg/logger"
)

const (
	DefaultSubject = "devicetrust.notifications"

	eventSource = "devicetrust/registry"
	eventType   = "com.carverauto.devicetrust.notification"
)

// CloudEvent is the CloudEvents v1.0 envelope published for each notification.
type CloudEvent struct {
	SpecVersion     string       `json:"specversion"`
	ID              string       `json:"id"`
	Source          string       `json:"source"`
	Type            string       `json:"type"`
	DataContentType string       `json:"datacontenttype"`
	Subject         string       `json:"subject,omitempty"`
	Time            *time.Time   `json:"time,omitempty"`
	Data            Notification `json:"data"`
}

// NATSNotifier publishes notifications on a core NATS subject so desktop
// agents can surface them.
type NATSNotifier struct {
	nc      *nats.Conn
	subject string
	log     logger.Logger
	now     func() time.Time
}

// NewNATSNotifier publishes on nc. An empty subject uses DefaultSubject.
func NewNATSNotifier(nc *nats.Conn, subject string, log logger.Logger) *NATSNotifier {
	if subject == "" {
		subject = DefaultSubject
	}

	return &NATSNotifier{nc: nc, subject: subject, log: logger.OrNop(log), now: time.Now}
}

// ConnectNATSNotifier dials natsURL and returns a notifier owning the connection.
func ConnectNATSNotifier(natsURL, subject string, log logger.Logger, opts ...nats.Option) (*NATSNotifier, error) {
	log = logger.OrNop(log)

	opts = append([]nats.Option{
		nats.Name("devicetrust-notify"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS notifier disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS notifier reconnected")
		}),
	}, opts...)

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return NewNATSNotifier(nc, subject, log), nil
}

func (p *NATSNotifier) Notify(_ context.Context, n Notification) {
	if n.ID == "" {
		n.ID = NewID()
	}

	now := p.now()
	event := CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         p.subject,
		Time:            &now,
		Data:            n,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Str("notification_id", n.ID).Msg("failed to marshal notification")
		return
	}

	if err := p.nc.Publish(p.subject, payload); err != nil {
		p.log.Error().Err(err).Str("notification_id", n.ID).Msg("failed to publish notification")
		return
	}

	p.log.Debug().Str("notification_id", n.ID).Str("subject", p.subject).Msg("published notification")
}

// Close drains and closes the connection.
func (p *NATSNotifier) Close() error {
	return p.nc.Drain()
}

var _ Notifier = (*NATSNotifier)(nil)
