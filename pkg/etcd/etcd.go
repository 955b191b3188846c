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

package etcd

import (
	"errors"
	"sync"

	"github.com/golang/glog"
)

var (
	cli  *EtcdClient
	once sync.Once
)

// Connect sets up the process wide client.
func Connect(cfg *Config, clsName string) (err error) {
	glog.Infof("Setting up etcd.")
	once.Do(func() {
		cli = NewEtcdClient(cfg, clsName)
	})

	if cli == nil {
		return errors.New("Failed to initialize etcd")
	}

	return nil
}

// Initialize is the initmgr hook. args: *Config, cluster name.
func Initialize(args ...interface{}) (err error) {
	if len(args) < 2 {
		return errors.New("etcd.Initialize: expect *Config and cluster name")
	}
	cfg, ok := args[0].(*Config)
	if !ok {
		return errors.New("etcd.Initialize: first argument must be *Config")
	}
	clsName, ok := args[1].(string)
	if !ok {
		return errors.New("etcd.Initialize: second argument must be a string")
	}
	return Connect(cfg, clsName)
}

func Finalize() {
	Close()
}

func Close() {
	glog.Infof("Closing etcd.")
	if cli != nil {
		cli.Close()
	}
}

func GetEtcdCli() *EtcdClient {
	return cli
}
