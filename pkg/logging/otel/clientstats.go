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
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ClientStats records the request correlation metrics of one client.
type ClientStats struct {
	dispatch   metric.Int64Counter
	completion metric.Int64Counter
	drop       metric.Int64Counter
	latency    metric.Float64Histogram
	pending    metric.Int64ObservableGauge
}

// NewClientStats creates the instruments on mp. pending, if not nil, is
// polled at collection time and reports the number of entries per table.
func NewClientStats(mp metric.MeterProvider, pending func() map[string]int) (s *ClientStats, err error) {
	meter := mp.Meter(MeterName)
	s = &ClientStats{}
	if s.dispatch, err = meter.Int64Counter(
		PopulateMetricNamePrefix(MetricDispatch),
		metric.WithDescription("Requests handed to the transport"),
	); err != nil {
		return nil, err
	}
	if s.completion, err = meter.Int64Counter(
		PopulateMetricNamePrefix(MetricCompletion),
		metric.WithDescription("Logical operations completed, by outcome"),
	); err != nil {
		return nil, err
	}
	if s.drop, err = meter.Int64Counter(
		PopulateMetricNamePrefix(MetricDrop),
		metric.WithDescription("Inbound replies dropped, by reason"),
	); err != nil {
		return nil, err
	}
	if s.latency, err = meter.Float64Histogram(
		PopulateMetricNamePrefix(MetricLatency),
		metric.WithDescription("Time from dispatch to completion"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if pending != nil {
		if s.pending, err = meter.Int64ObservableGauge(
			PopulateMetricNamePrefix(MetricPending),
			metric.WithDescription("Entries waiting in the pending tables"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				for table, n := range pending() {
					o.Observe(int64(n), metric.WithAttributes(attribute.String(Table, table)))
				}
				return nil
			}),
		); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *ClientStats) OnDispatch(op string) {
	s.dispatch.Add(context.Background(), 1, metric.WithAttributes(attribute.String(Operation, op)))
}

func (s *ClientStats) OnComplete(op string, status string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String(Operation, op), attribute.String(Status, status))
	s.completion.Add(context.Background(), 1, attrs)
	s.latency.Record(context.Background(), float64(elapsed.Microseconds())/1000, attrs)
}

func (s *ClientStats) OnDrop(op string, reason string) {
	s.drop.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(Operation, op), attribute.String(Reason, reason)))
}
