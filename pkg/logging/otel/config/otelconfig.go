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
package config

import (
	"fmt"

	"github.com/golang/glog"
)

type HistBuckets struct {
	Latency []float64
	Connect []float64
}

type Config struct {
	Host             string
	Port             uint32
	UrlPath          string
	Environment      string
	Poolname         string
	Enabled          bool
	Resolution       uint32
	UseTls           bool
	HistogramBuckets HistBuckets
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Poolname) == 0 {
		return fmt.Errorf("otel Poolname is required")
	}
	c.SetDefaultIfNotDefined()
	return nil
}

func (c *Config) SetDefaultIfNotDefined() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 4318
	}
	if c.Resolution == 0 {
		c.Resolution = 60
	}
	if c.UrlPath == "" {
		c.UrlPath = "v1/metrics"
	}
	if c.HistogramBuckets.Latency == nil {
		c.HistogramBuckets.Latency = []float64{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000}
	}
	if c.HistogramBuckets.Connect == nil {
		c.HistogramBuckets.Connect = []float64{1, 5, 10, 50, 100, 500, 1000, 5000}
	}
}

func (c *Config) Endpoint() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) Dump() {
	glog.Infof("Host : %s", c.Host)
	glog.Infof("Port: %d", c.Port)
	glog.Infof("Environment: %s", c.Environment)
	glog.Infof("Poolname: %s", c.Poolname)
	glog.Infof("Resolution: %d", c.Resolution)
	glog.Infof("UseTls: %t", c.UseTls)
	glog.Infof("UrlPath: %s", c.UrlPath)
	glog.Info("Latency Bucket: ", c.HistogramBuckets.Latency)
	glog.Info("Connect Bucket: ", c.HistogramBuckets.Connect)
}
