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
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/namespace"

	"github.com/golang/glog"
)

var (
	errNotInitialized = errors.New("etcd client not initialized")
	noProxyOnce       sync.Once
)

// EtcdClient is a clientv3 client whose KV and Watcher are scoped to one
// cluster's key prefix.
type EtcdClient struct {
	config    Config
	keyPrefix string
	client    *clientv3.Client
	doneCh    chan struct{}
	wg        sync.WaitGroup
}

// NewEtcdClient connects to cfg.Endpoints, retrying with a growing back-off.
// It returns nil when no endpoint is configured or every attempt failed.
func NewEtcdClient(cfg *Config, clusterName string) *EtcdClient {
	if len(cfg.Endpoints) == 0 {
		glog.Warningf("etcd: no endpoints configured.")
		return nil
	}
	cfg.SetDefaultIfNotDefined()
	rotateEndpoints(cfg.Endpoints, time.Now().Second())
	bypassProxy(cfg.Endpoints)

	client, err := connect(cfg)
	if err != nil {
		glog.Warningf("etcd: %v.", err)
		return nil
	}
	etcdcli := &EtcdClient{
		client:    client,
		config:    *cfg,
		keyPrefix: cfg.EtcdKeyPrefix + clusterName + TagCompDelimiter,
		doneCh:    make(chan struct{}),
	}
	client.KV = namespace.NewKV(client.KV, etcdcli.keyPrefix)
	client.Watcher = namespace.NewWatcher(client.Watcher, etcdcli.keyPrefix)
	return etcdcli
}

// rotateEndpoints spreads processes started together over the endpoints.
func rotateEndpoints(endpoints []string, seed int) {
	m := seed % len(endpoints)
	if m == 0 {
		return
	}
	rotated := append(append([]string{}, endpoints[m:]...), endpoints[:m]...)
	copy(endpoints, rotated)
}

// bypassProxy keeps http_proxy settings away from the etcd endpoints.
func bypassProxy(endpoints []string) {
	noProxyOnce.Do(func() {
		val := strings.Join(endpoints, ",")
		curr := os.Getenv("NO_PROXY")
		if strings.Contains(curr, val) {
			return
		}
		if len(curr) > 0 {
			val += "," + curr
		}
		os.Setenv("NO_PROXY", val)
		os.Setenv("no_proxy", val)
	})
}

func connect(cfg *Config) (client *clientv3.Client, err error) {
	for i := 0; i < cfg.MaxConnectAttempts; i++ {
		if client, err = clientv3.New(cfg.Config); err == nil {
			return
		}
		if client != nil {
			client.Close()
		}
		if i == cfg.MaxConnectAttempts-1 {
			break
		}
		glog.Warningf("etcd: %v. Retry ...", err)
		backoff := (i + 1) * 2
		if backoff > cfg.MaxConnectBackoff {
			backoff = cfg.MaxConnectBackoff
		}
		time.Sleep(time.Duration(backoff) * time.Second)
	}
	return nil, err
}

func (e *EtcdClient) Close() {
	close(e.doneCh)

	if e.client != nil {
		e.client.Close()
	}
	e.wg.Wait()
}

// IWatchHandler receives the events of a watch started by EtcdClient.Watch.
type IWatchHandler interface {
	OnEvent(e ...*clientv3.Event)
}

func (e *EtcdClient) Watch(key string, handler IWatchHandler, opts ...clientv3.OpOption) (cancel context.CancelFunc, err error) {
	if e.client == nil {
		err = errNotInitialized
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	ch := e.client.Watch(ctx, key, opts...)
	e.wg.Add(1)
	go func() {
		glog.Infof("start watcher go routine. key=%s%s", e.keyPrefix, key)
		defer e.wg.Done()
		for {
			select {
			case r, ok := <-ch:
				if !ok {
					glog.Infof("watch channel closed. key=%s%s", e.keyPrefix, key)
					return
				}
				if err := r.Err(); err != nil {
					glog.Warningf("etcd watch: %v", err)
					continue
				}
				handler.OnEvent(r.Events...)
			case <-ctx.Done():
				glog.Info("Cancel")
				return
			case <-e.doneCh:
				return
			}
		}
	}()
	return cancel, nil
}

// getWithPrefix returns the keys under prefix in ascending order. One failed
// attempt is retried after a second.
func (e *EtcdClient) getWithPrefix(prefix string) (resp *clientv3.GetResponse, err error) {
	if e.client == nil {
		err = errNotInitialized
		return
	}
	for i := 0; i < 2; i++ {
		if i != 0 {
			glog.Warningf("etcd get: %v. Retry ...", err)
			time.Sleep(time.Second)
		}
		ctx, cancel := context.WithTimeout(context.Background(), e.config.RequestTimeout.Duration)
		resp, err = e.client.KV.Get(ctx, prefix, clientv3.WithPrefix(),
			clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
		cancel()
		if err == nil {
			return
		}
	}
	glog.Errorf("[ERROR]: etcd get: key=%s%s err=%v", e.keyPrefix, prefix, err)
	return
}

// PutWithLease writes key under a new lease of ttl seconds and keeps the lease
// alive until ctx is done or the client is closed. The key disappears once
// the keep-alive stops.
func (e *EtcdClient) PutWithLease(ctx context.Context, key string, val string, ttl int64) (leaseId clientv3.LeaseID, err error) {
	if e.client == nil {
		err = errNotInitialized
		return
	}
	gctx, cancel := context.WithTimeout(ctx, e.config.RequestTimeout.Duration)
	var lease *clientv3.LeaseGrantResponse
	lease, err = e.client.Grant(gctx, ttl)
	cancel()
	if err != nil {
		glog.Errorf("[ERROR]: etcd grant: %v", err)
		return
	}
	leaseId = lease.ID

	pctx, cancel := context.WithTimeout(ctx, e.config.RequestTimeout.Duration)
	_, err = e.client.Put(pctx, key, val, clientv3.WithLease(leaseId))
	cancel()
	if err != nil {
		glog.Errorf("[ERROR]: etcd put: key=%s%s err=%v", e.keyPrefix, key, err)
		return
	}

	var ch <-chan *clientv3.LeaseKeepAliveResponse
	if ch, err = e.client.KeepAlive(ctx, leaseId); err != nil {
		glog.Errorf("[ERROR]: etcd keepalive: %v", err)
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					glog.Warningf("etcd keepalive stopped. key=%s%s", e.keyPrefix, key)
					return
				}
			case <-e.doneCh:
				return
			}
		}
	}()
	glog.Infof("etcd put: key=%s%s lease=%x ttl=%ds", e.keyPrefix, key, leaseId, ttl)
	return
}

// Revoke drops a lease and every key attached to it.
func (e *EtcdClient) Revoke(leaseId clientv3.LeaseID) (err error) {
	if e.client == nil {
		return errNotInitialized
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.config.RequestTimeout.Duration)
	_, err = e.client.Revoke(ctx, leaseId)
	cancel()
	if err != nil {
		glog.Warningf("etcd revoke: %v", err)
	}
	return
}
