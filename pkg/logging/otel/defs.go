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

const (
	MetricPrefix = "junosi.client."
	MeterName    = "junosi-client-meter"
)

// metric names, without prefix
const (
	MetricDispatch        = "dispatch"
	MetricCompletion      = "completion"
	MetricDrop            = "drop"
	MetricLatency         = "latency"
	MetricPending         = "pending"
	MetricOutboundConnect = "outbound_connection"
)

// attribute names
const (
	Operation = string("operation")
	Status    = string("status")
	Reason    = string("reason")
	Table     = string("table")
	Endpoint  = string("target_ip_port")
)

const (
	StatusSuccess string = "SUCCESS"
	StatusTimeout string = "TIMEOUT"
	StatusAbort   string = "ABORT"
	StatusError   string = "ERROR"
)

const (
	DropUnknownCorrelation string = "unknown_correlation"
	DropMalformed          string = "malformed"
)

func PopulateMetricNamePrefix(metricName string) string {
	return MetricPrefix + metricName
}
