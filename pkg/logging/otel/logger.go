//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package otel

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"

	otelCfg "junosi/pkg/logging/otel/config"
	"junosi/pkg/version"
)

var (
	mtx           sync.RWMutex
	meterProvider *sdkmetric.MeterProvider

	connectHistogramOnce sync.Once
	connectHistogram     metric.Int64Histogram
)

// Initialize is registered with initmgr. args[0] must be *config.Config.
func Initialize(args ...interface{}) (err error) {
	if len(args) < 1 {
		err = fmt.Errorf("otel config argument not as expected")
		glog.Error(err)
		return
	}
	c, ok := args[0].(*otelCfg.Config)
	if !ok {
		err = fmt.Errorf("wrong argument type")
		glog.Error(err)
		return
	}
	if !c.Enabled {
		glog.Info("otel disabled")
		return
	}
	if err = c.Validate(); err != nil {
		return
	}
	c.Dump()
	return InitMetricProvider(context.Background(), c)
}

func Finalize() {
	mtx.Lock()
	mp := meterProvider
	meterProvider = nil
	mtx.Unlock()
	if mp != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mp.Shutdown(ctx); err != nil {
			glog.Warningf("otel shutdown: %s", err)
		}
	}
}

func InitMetricProvider(ctx context.Context, config *otelCfg.Config) error {
	mtx.Lock()
	defer mtx.Unlock()
	if meterProvider != nil {
		glog.Info("meter provider already initialized")
		return nil
	}
	exp, err := NewHTTPExporter(ctx, config)
	if err != nil {
		return err
	}
	reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(time.Duration(config.Resolution)*time.Second))
	meterProvider = NewMeterProvider(config, reader)
	return nil
}

// NewMeterProvider builds a provider with the histogram bucket views of
// config attached to reader.
func NewMeterProvider(config *otelCfg.Config, reader sdkmetric.Reader) *sdkmetric.MeterProvider {
	config.SetDefaultIfNotDefined()
	latencyView := sdkmetric.NewView(
		sdkmetric.Instrument{Name: PopulateMetricNamePrefix(MetricLatency)},
		sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
			Boundaries: config.HistogramBuckets.Latency,
		}},
	)
	connectView := sdkmetric.NewView(
		sdkmetric.Instrument{Name: PopulateMetricNamePrefix(MetricOutboundConnect)},
		sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
			Boundaries: config.HistogramBuckets.Connect,
		}},
	)
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(getResourceInfo(config)),
		sdkmetric.WithReader(reader),
		sdkmetric.WithView(latencyView, connectView),
	)
}

func NewHTTPExporter(ctx context.Context, config *otelCfg.Config) (sdkmetric.Exporter, error) {
	deltaTemporalitySelector := func(sdkmetric.InstrumentKind) metricdata.Temporality { return metricdata.DeltaTemporality }
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint()),
		otlpmetrichttp.WithURLPath(config.UrlPath),
		otlpmetrichttp.WithTimeout(7 * time.Second),
		otlpmetrichttp.WithCompression(otlpmetrichttp.NoCompression),
		otlpmetrichttp.WithTemporalitySelector(deltaTemporalitySelector),
		otlpmetrichttp.WithRetry(otlpmetrichttp.RetryConfig{
			Enabled:         true,
			InitialInterval: 1 * time.Second,
			MaxInterval:     10 * time.Second,
			MaxElapsedTime:  240 * time.Second,
		}),
	}
	if !config.UseTls {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(ctx, opts...)
}

func getResourceInfo(config *otelCfg.Config) *resource.Resource {
	hostname, _ := os.Hostname()
	return resource.NewSchemaless(
		attribute.String("service.name", config.Poolname),
		attribute.String("service.version", version.OnelineVersionString()),
		attribute.String("host.name", hostname),
		attribute.String("application", config.Poolname),
		attribute.String("environment", config.Environment),
	)
}

func IsEnabled() bool {
	mtx.RLock()
	defer mtx.RUnlock()
	return meterProvider != nil
}

// GetMeterProvider returns the process wide provider, or a no-op provider
// when metrics are disabled.
func GetMeterProvider() metric.MeterProvider {
	mtx.RLock()
	defer mtx.RUnlock()
	if meterProvider == nil {
		return noop.NewMeterProvider()
	}
	return meterProvider
}

func RecordOutboundConnection(endpoint string, status string, latency time.Duration) {
	if !IsEnabled() {
		return
	}
	connectHistogramOnce.Do(func() {
		var err error
		meter := GetMeterProvider().Meter(MeterName)
		if connectHistogram, err = meter.Int64Histogram(
			PopulateMetricNamePrefix(MetricOutboundConnect),
			metric.WithDescription("Histogram for outbound connections"),
			metric.WithUnit("ms"),
		); err != nil {
			glog.Error(err)
		}
	})
	if connectHistogram != nil {
		connectHistogram.Record(context.Background(), latency.Milliseconds(),
			metric.WithAttributes(attribute.String(Endpoint, endpoint), attribute.String(Status, status)))
	}
}
