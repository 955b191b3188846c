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

package mock

import (
	"time"

	"junosi/pkg/lattice"
	"junosi/pkg/util"
)

type CMConfig struct {
	// answer every key of a request in its own reply
	SplitReplies bool
	// "inclusive" or "exclusive"
	SnapshotBoundary string
	// history older than this is compacted. 0 keeps everything.
	HistoryRetention util.Duration
	PollInterval     util.Duration
	LogLevel         string
}

var (
	DefaultCMConfig CMConfig = CMConfig{
		SplitReplies:     true,
		SnapshotBoundary: "inclusive",
		PollInterval:     util.Duration{Duration: time.Millisecond},
		LogLevel:         "warning",
	}
)

func (c *CMConfig) boundary() lattice.Boundary {
	if c.SnapshotBoundary == "exclusive" {
		return lattice.Exclusive
	}
	return lattice.Inclusive
}

func (c *CMConfig) SetDefaultIfNotDefined() {
	if c.SnapshotBoundary == "" {
		c.SnapshotBoundary = DefaultCMConfig.SnapshotBoundary
	}
	if c.PollInterval.Duration == 0 {
		c.PollInterval = DefaultCMConfig.PollInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultCMConfig.LogLevel
	}
}
