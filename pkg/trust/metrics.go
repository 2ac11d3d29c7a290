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

package trust

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName              = "devicetrust.trust"
	metricConfigSaveTotal  = "devicetrust_config_save_total"
	metricKeystoreFailures = "devicetrust_keystore_failure_total"
	metricConfigReloads    = "devicetrust_config_reload_total"

	outcomeSuccess = "success"
	outcomeError   = "error"

	triggerInitial = "initial"
	triggerWatch   = "watch"
	triggerManual  = "manual"
)

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	saveCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	keystoreFailureCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	reloadCounter metric.Int64Counter
)

func initMeter() {
	meter := otel.Meter(meterName)

	counter, err := meter.Int64Counter(
		metricConfigSaveTotal,
		metric.WithDescription("Total device config writes to the KV store"),
	)
	if err != nil {
		otel.Handle(err)
	}
	saveCounter = counter

	failures, err := meter.Int64Counter(
		metricKeystoreFailures,
		metric.WithDescription("Keystore operations that failed and were degraded to no certificate"),
	)
	if err != nil {
		otel.Handle(err)
	}
	keystoreFailureCounter = failures

	reloads, err := meter.Int64Counter(
		metricConfigReloads,
		metric.WithDescription("Device config loads that applied stored state"),
	)
	if err != nil {
		otel.Handle(err)
	}
	reloadCounter = reloads
}

func recordSave(ctx context.Context, outcome string) {
	meterOnce.Do(initMeter)
	if saveCounter == nil {
		return
	}

	saveCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func recordKeystoreFailure(ctx context.Context, operation string) {
	meterOnce.Do(initMeter)
	if keystoreFailureCounter == nil {
		return
	}

	keystoreFailureCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

func recordReload(ctx context.Context, trigger string) {
	meterOnce.Do(initMeter)
	if reloadCounter == nil {
		return
	}

	reloadCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", trigger)))
}
