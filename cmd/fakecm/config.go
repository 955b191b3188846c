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

package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"

	"junosi/pkg/etcd"
	"junosi/pkg/io"
	"junosi/test/testutil/mock"
)

var Conf = Config{
	Ip:         "127.0.0.1",
	NumThreads: 1,
	Cluster:    "junosi",
	CM:         mock.DefaultCMConfig,
	IO:         io.DefaultConfig,
	Etcd:       etcd.DefaultConfig(),
	LogLevel:   "info",
}

type Config struct {
	// threads are numbered 0 .. NumThreads-1 and all serve one store
	Ip         string
	NumThreads uint32
	Cluster    string
	CM         mock.CMConfig
	IO         io.Config
	Etcd       etcd.Config
	LogLevel   string
}

func (c *Config) validate() error {
	if c.Ip == "" {
		return fmt.Errorf("Ip not specified")
	}
	if c.NumThreads == 0 {
		return fmt.Errorf("NumThreads must be positive")
	}
	return nil
}

func (c *Config) Dump() {
	glog.Infof("ip=%s threads=%d cluster=%s split_replies=%v boundary=%s retention=%s",
		c.Ip, c.NumThreads, c.Cluster, c.CM.SplitReplies, c.CM.SnapshotBoundary, c.CM.HistoryRetention)
	if len(c.Etcd.Endpoints) != 0 {
		glog.Infof("etcd endpoints=%v prefix=%s", c.Etcd.Endpoints, c.Etcd.EtcdKeyPrefix)
	}
}

func LoadConfig(file string) error {
	if _, err := toml.DecodeFile(file, &Conf); err != nil {
		return err
	}
	Conf.CM.SetDefaultIfNotDefined()
	Conf.IO.SetDefaultIfNotDefined()
	return Conf.validate()
}
