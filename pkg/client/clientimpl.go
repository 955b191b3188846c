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
	"context"
	"errors"
	"sync/atomic"

	"github.com/golang/glog"

	"junosi/internal/cli"
	"junosi/pkg/etcd"
	"junosi/pkg/io"
	"junosi/pkg/lattice"
	"junosi/pkg/logging/otel"
	"junosi/pkg/naming"
	"junosi/pkg/net/netutil"
	"junosi/pkg/proto"
)

type clientImplT struct {
	config     Config
	self       naming.ClientThread
	transport  io.Transport
	ownsTransp bool
	receivers  []io.Receiver
	resolver   *etcd.Resolver
	etcdcli    *etcd.EtcdClient
	tables     *cli.Tables
	dispatcher *cli.Dispatcher
	ingestor   *cli.Ingestor
	closed     atomic.Bool
}

// New binds the reply addresses of the client thread and returns a client
// ready to dispatch.
func New(conf Config, opts ...IOption) (IClient, error) {
	conf.SetDefaultIfNotDefined()
	if err := conf.validate(); err != nil {
		return nil, err
	}
	glog.V(2).Infof("client cfg=%+v", conf)
	options := newOptionData(opts...)

	c := &clientImplT{
		config: conf,
		self:   naming.ClientThread{Ip: conf.ClientIp, Tid: conf.ClientTid},
		tables: cli.NewTables(conf.RequestTimeout.Duration),
	}
	var identity string
	if conf.ClientIp != "" {
		identity = proto.ClientIdentity(conf.ClientIp, conf.ClientTid)
	} else {
		c.self.Ip = netutil.GetLocalIPv4Address().String()
	}

	c.transport = options.transport
	if c.transport == nil {
		c.transport = io.NewTCPTransport(conf.IO)
		c.ownsTransp = true
	}
	resolver, err := c.newResolver(options.resolver)
	if err != nil {
		c.shutdown()
		return nil, err
	}
	selector := options.selector
	if selector == nil {
		if selector, err = naming.NewSelector(conf.SelectionPolicy, c.self.Ip, c.self.Tid); err != nil {
			c.shutdown()
			return nil, err
		}
	}

	var getRecv, getVerRecv, commitRecv io.Receiver
	for _, b := range []struct {
		addr string
		recv *io.Receiver
	}{
		{c.self.KeyGetResponseBindAddress(), &getRecv},
		{c.self.KeyGetVersionResponseBindAddress(), &getVerRecv},
		{c.self.CommitResponseBindAddress(), &commitRecv},
	} {
		if *b.recv, err = c.transport.Bind(b.addr); err != nil {
			glog.Errorf("client: fail to bind %s: %s", b.addr, err)
			c.shutdown()
			return nil, err
		}
		c.receivers = append(c.receivers, *b.recv)
	}

	mp := options.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	var stats cli.StatsRecorder
	if s, err := otel.NewClientStats(mp, c.tables.Pending); err == nil {
		stats = s
	} else {
		glog.Warningf("client: metrics disabled. %s", err)
	}

	c.dispatcher = cli.NewDispatcher(cli.DispatcherConfig{
		Self:                 c.self,
		Sender:               c.transport,
		Resolver:             resolver,
		Selector:             selector,
		IdGen:                proto.NewRequestIdGenerator(identity),
		Clock:                options.clock,
		Stats:                stats,
		CompressionThreshold: conf.CompressionThreshold,
	}, c.tables)
	c.ingestor = cli.NewIngestor(cli.IngestorConfig{
		GetReceiver:        getRecv,
		GetVersionReceiver: getVerRecv,
		CommitReceiver:     commitRecv,
		Clock:              options.clock,
		Stats:              stats,
		MaxDrainPerPoll:    conf.MaxDrainPerPoll,
	}, c.tables)

	glog.Infof("client %s started. request_timeout=%s policy=%s", c.self, conf.RequestTimeout, conf.SelectionPolicy)
	return c, nil
}

func (c *clientImplT) newResolver(r naming.Resolver) (naming.Resolver, error) {
	if r != nil {
		return r, nil
	}
	if len(c.config.Workers) != 0 {
		return naming.NewStaticResolverFromStrings(c.config.Workers)
	}
	if len(c.config.Etcd.Endpoints) == 0 {
		return nil, errors.New("neither Workers nor Etcd.Endpoints configured")
	}
	if c.etcdcli = etcd.NewEtcdClient(&c.config.Etcd, c.config.Cluster); c.etcdcli == nil {
		return nil, errors.New("fail to connect to etcd")
	}
	c.resolver = etcd.NewResolver(c.etcdcli)
	if err := c.resolver.Start(); err != nil {
		return nil, err
	}
	return c.resolver, nil
}

func (c *clientImplT) GetKeyAsync(ctx context.Context, key string, snapshot uint64) (string, error) {
	return c.GetKeysAsync(ctx, []string{key}, snapshot)
}

func (c *clientImplT) GetKeysAsync(ctx context.Context, keys []string, snapshot uint64) (string, error) {
	if c.closed.Load() {
		return "", ErrClosed
	}
	return c.dispatcher.DispatchGet(ctx, keys, snapshot, proto.RequestTypeGet)
}

func (c *clientImplT) GetKeyVersionAsync(ctx context.Context, key string, snapshot uint64) (string, error) {
	return c.GetKeyVersionsAsync(ctx, []string{key}, snapshot)
}

func (c *clientImplT) GetKeyVersionsAsync(ctx context.Context, keys []string, snapshot uint64) (string, error) {
	if c.closed.Load() {
		return "", ErrClosed
	}
	return c.dispatcher.DispatchGet(ctx, keys, snapshot, proto.RequestTypeGetVersion)
}

// CommitAsync wraps every value in a single version chain at the snapshot.
// The coordinator replaces the timestamp with the commit timestamp.
func (c *clientImplT) CommitAsync(ctx context.Context, keys []string, values [][]byte, snapshot uint64) (string, error) {
	if c.closed.Load() {
		return "", ErrClosed
	}
	payloads := make([][]byte, len(values))
	for i, v := range values {
		payloads[i] = lattice.EncodeChain(lattice.NewVersionChain(lattice.Timestamp(snapshot), lattice.Bytes(v)))
	}
	return c.dispatcher.DispatchCommit(ctx, keys, payloads, proto.LatticeTypeSnapshotIsolation, snapshot)
}

func (c *clientImplT) ReceiveAsync() []*GetResult {
	if c.closed.Load() {
		return nil
	}
	return c.ingestor.PollKeys()
}

func (c *clientImplT) ReceiveCommitAsync() []*CommitResult {
	if c.closed.Load() {
		return nil
	}
	return c.ingestor.PollCommits()
}

func (c *clientImplT) Pending() map[string]int {
	return c.tables.Pending()
}

// Close releases the reply addresses. Outstanding operations are dropped
// without a result.
func (c *clientImplT) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.shutdown()
	glog.Infof("client %s closed", c.self)
	return nil
}

func (c *clientImplT) shutdown() {
	for _, r := range c.receivers {
		r.Close()
	}
	c.receivers = nil
	if c.resolver != nil {
		c.resolver.Stop()
	}
	if c.etcdcli != nil {
		c.etcdcli.Close()
	}
	if c.ownsTransp && c.transport != nil {
		c.transport.Close()
	}
}
