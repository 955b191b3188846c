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

package client

import (
	"go.opentelemetry.io/otel/metric"

	"junosi/pkg/io"
	"junosi/pkg/naming"
	"junosi/pkg/util"
)

type optionData struct {
	transport     io.Transport
	resolver      naming.Resolver
	selector      naming.Selector
	clock         util.Clock
	meterProvider metric.MeterProvider
}

type IOption func(data interface{})

// WithTransport replaces the TCP transport, e.g. with an io.MemTransport.
// The client does not close a transport it was given.
func WithTransport(t io.Transport) IOption {
	return func(i interface{}) {
		if data, ok := i.(*optionData); ok {
			data.transport = t
		}
	}
}

func WithResolver(r naming.Resolver) IOption {
	return func(i interface{}) {
		if data, ok := i.(*optionData); ok {
			data.resolver = r
		}
	}
}

func WithSelector(s naming.Selector) IOption {
	return func(i interface{}) {
		if data, ok := i.(*optionData); ok {
			data.selector = s
		}
	}
}

func WithClock(c util.Clock) IOption {
	return func(i interface{}) {
		if data, ok := i.(*optionData); ok {
			data.clock = c
		}
	}
}

// WithMeterProvider records client metrics with mp instead of the provider
// set up by otel.Initialize.
func WithMeterProvider(mp metric.MeterProvider) IOption {
	return func(i interface{}) {
		if data, ok := i.(*optionData); ok {
			data.meterProvider = mp
		}
	}
}

func newOptionData(opts ...IOption) *optionData {
	data := &optionData{}
	for _, op := range opts {
		op(data)
	}
	return data
}
