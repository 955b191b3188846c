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

// fakecm runs in-memory conflict manager workers for client testing.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/golang/glog"

	"junosi/pkg/etcd"
	"junosi/pkg/initmgr"
	"junosi/pkg/io"
	"junosi/pkg/logging"
	"junosi/pkg/naming"
	"junosi/pkg/net/netutil"
	"junosi/pkg/version"
	"junosi/test/testutil/mock"
)

type workersT struct {
	transport  *io.TCPTransport
	workers    []*mock.Worker
	deregister []func()
	cancel     context.CancelFunc
}

var running workersT

func startWorkers(args ...interface{}) (err error) {
	running.transport = io.NewTCPTransport(Conf.IO)
	handler := mock.NewRequestHandler(&Conf.CM, nil)
	var ctx context.Context
	ctx, running.cancel = context.WithCancel(context.Background())

	for tid := uint32(0); tid < Conf.NumThreads; tid++ {
		self := naming.ConflictManagerThread{Ip: Conf.Ip, Tid: tid}
		var w *mock.Worker
		if w, err = mock.NewWorker(self, running.transport, handler); err != nil {
			return
		}
		running.workers = append(running.workers, w)
		go w.Run(ctx)

		if etcdcli := etcd.GetEtcdCli(); etcdcli != nil {
			var deregister func()
			if deregister, err = etcd.RegisterWorker(ctx, etcdcli, self); err != nil {
				return
			}
			running.deregister = append(running.deregister, deregister)
		}
	}
	return
}

func stopWorkers() {
	for _, deregister := range running.deregister {
		deregister()
	}
	if running.cancel != nil {
		running.cancel()
	}
	for _, w := range running.workers {
		w.Close()
	}
	if running.transport != nil {
		running.transport.Close()
	}
	logging.LogManagerExit("fakecm")
}

func main() {
	var configFlag = flag.String("config", "", "configfile")
	var ipFlag = flag.String("ip", "", "ip the workers announce")
	var threadsFlag = flag.Uint("threads", 0, "number of worker threads")
	var versionFlag = flag.Bool("version", false, "display version info.")
	flag.Parse()

	if *versionFlag {
		version.PrintVersionInfo()
		return
	}
	if *configFlag != "" {
		if err := LoadConfig(*configFlag); err != nil {
			glog.Exitf("Failed to load %s. %s", *configFlag, err)
		}
	}
	if *ipFlag != "" {
		Conf.Ip = *ipFlag
	}
	if *threadsFlag != 0 {
		Conf.NumThreads = uint32(*threadsFlag)
	}
	if err := logging.InitLogging(Conf.LogLevel, "fakecm"); err != nil {
		glog.Exit(err)
	}
	if !netutil.IsLocalAddress(Conf.Ip) {
		glog.Warningf("%s is not a local address. clients may not reach the workers", Conf.Ip)
	}
	glog.Infof("fakecm %s starting", version.OnelineVersionString())
	Conf.Dump()

	if len(Conf.Etcd.Endpoints) != 0 {
		initmgr.RegisterWithFuncs(etcd.Initialize, etcd.Finalize, &Conf.Etcd, Conf.Cluster)
	}
	initmgr.RegisterWithFuncs(startWorkers, stopWorkers)
	if err := initmgr.Init(); err != nil {
		glog.Errorf("fakecm failed to start. %s", err)
		glog.Flush()
		os.Exit(1)
	}
	logging.LogManagerStart("fakecm")
	initmgr.HandleSignals()
	select {}
}
