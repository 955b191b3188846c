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

package io

import (
	"time"

	"junosi/pkg/util"
)

var (
	DefaultConfig = Config{
		ConnectTimeout: util.Duration{Duration: 1 * time.Second},
		WriteTimeout:   util.Duration{Duration: 500 * time.Millisecond},
		IdleTimeout:    util.Duration{Duration: 120 * time.Second},
		RecvQueueSize:  10000,
		IOBufSize:      64 * 1024,
	}
)

type Config struct {
	ConnectTimeout util.Duration
	WriteTimeout   util.Duration
	IdleTimeout    util.Duration
	RecvQueueSize  int
	IOBufSize      int
}

func (c *Config) SetDefaultIfNotDefined() {
	if c.ConnectTimeout.Duration == 0 {
		c.ConnectTimeout = DefaultConfig.ConnectTimeout
	}
	if c.WriteTimeout.Duration == 0 {
		c.WriteTimeout = DefaultConfig.WriteTimeout
	}
	if c.IdleTimeout.Duration == 0 {
		c.IdleTimeout = DefaultConfig.IdleTimeout
	}
	if c.RecvQueueSize == 0 {
		c.RecvQueueSize = DefaultConfig.RecvQueueSize
	}
	if c.IOBufSize == 0 {
		c.IOBufSize = DefaultConfig.IOBufSize
	}
}
