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
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"junosi/pkg/etcd"
	"junosi/pkg/io"
	otelCfg "junosi/pkg/logging/otel/config"
	"junosi/pkg/naming"
	"junosi/pkg/util"
)

type Duration = util.Duration

// Config of one client thread. A client either lists its workers statically
// or discovers them through etcd.
//
//	ClientIp = "10.0.0.1"
//	ClientTid = 0
//	RequestTimeout = "500ms"
//	SelectionPolicy = "random"
//	Workers = ["10.0.0.2:0", "10.0.0.2:1"]
//
//	[Etcd]
//	  Endpoints = ["127.0.0.1:2379"]
type Config struct {
	// reply addresses are derived from ClientIp and ClientTid. The local IPv4
	// address is used when ClientIp is empty.
	ClientIp  string
	ClientTid uint32

	RequestTimeout  Duration
	SelectionPolicy string
	Workers         []string

	// cluster name under which workers register in etcd
	Cluster string

	// payloads of at least this many bytes are snappy compressed. 0 disables.
	CompressionThreshold int
	MaxDrainPerPoll      int
	LogLevel             string

	IO   io.Config
	Etcd etcd.Config
	Otel otelCfg.Config
}

var defaultConfig = Config{
	RequestTimeout:  Duration{Duration: 1000 * time.Millisecond},
	SelectionPolicy: naming.SelectRandom,
	Cluster:         "junosi",
	LogLevel:        "info",
}

func SetDefaultTimeout(request time.Duration) {
	defaultConfig.RequestTimeout.Duration = request
}

func (c *Config) SetDefault() {
	*c = defaultConfig
	c.IO = io.DefaultConfig
}

func (c *Config) SetDefaultIfNotDefined() {
	if c.RequestTimeout.Duration == 0 {
		c.RequestTimeout = defaultConfig.RequestTimeout
	}
	if c.SelectionPolicy == "" {
		c.SelectionPolicy = defaultConfig.SelectionPolicy
	}
	if c.Cluster == "" {
		c.Cluster = defaultConfig.Cluster
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultConfig.LogLevel
	}
	c.IO.SetDefaultIfNotDefined()
}

func (c *Config) validate() error {
	if c.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("Config.RequestTimeout must be positive")
	}
	if _, err := naming.NewSelector(c.SelectionPolicy, c.ClientIp, c.ClientTid); err != nil {
		return err
	}
	for _, w := range c.Workers {
		if _, err := naming.ParseWorker(w); err != nil {
			return err
		}
	}
	if c.CompressionThreshold < 0 {
		return fmt.Errorf("Config.CompressionThreshold must not be negative")
	}
	return c.Otel.Validate()
}

// LoadConfig reads a TOML file on top of the defaults.
func LoadConfig(filename string) (*Config, error) {
	c := &Config{}
	c.SetDefault()
	if _, err := toml.DecodeFile(filename, c); err != nil {
		return nil, err
	}
	c.SetDefaultIfNotDefined()
	return c, nil
}
