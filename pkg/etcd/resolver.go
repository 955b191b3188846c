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
	"sort"
	"sync"

	"github.com/golang/glog"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"

	"junosi/pkg/naming"
)

// Resolver serves the worker list registered under the cluster's
// "cm_worker_" keys. The list is read once and then kept current by a watch.
type Resolver struct {
	etcdcli *EtcdClient

	mtx     sync.RWMutex
	workers map[string]naming.ConflictManagerThread
	sorted  []naming.ConflictManagerThread
	cancel  context.CancelFunc
}

func NewResolver(etcdcli *EtcdClient) *Resolver {
	return &Resolver{
		etcdcli: etcdcli,
		workers: make(map[string]naming.ConflictManagerThread),
	}
}

// Start loads the current workers and begins watching for changes.
func (r *Resolver) Start() (err error) {
	if err = r.Refresh(); err != nil {
		return
	}
	r.cancel, err = r.etcdcli.Watch(KeyPrefixWorkers(), r, clientv3.WithPrefix())
	return
}

func (r *Resolver) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Refresh replaces the cache with what etcd holds now.
func (r *Resolver) Refresh() error {
	resp, err := r.etcdcli.getWithPrefix(KeyPrefixWorkers())
	if err != nil {
		return err
	}
	r.load(resp.Kvs)
	return nil
}

func (r *Resolver) load(kvs []*mvccpb.KeyValue) {
	workers := make(map[string]naming.ConflictManagerThread, len(kvs))
	for _, kv := range kvs {
		if w, err := ParseWorkerKey(string(kv.Key)); err == nil {
			workers[string(kv.Key)] = w
		} else {
			glog.Warningf("etcd: skip %s", err)
		}
	}
	r.mtx.Lock()
	r.workers = workers
	r.sortLocked()
	r.mtx.Unlock()
	glog.Infof("etcd: %d conflict manager workers", len(workers))
}

// OnEvent applies worker registrations and removals.
func (r *Resolver) OnEvent(events ...*clientv3.Event) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	for _, ev := range events {
		key := string(ev.Kv.Key)
		switch ev.Type {
		case clientv3.EventTypeDelete:
			delete(r.workers, key)
			glog.Infof("etcd watch: worker removed. key=%s", key)
		case clientv3.EventTypePut:
			w, err := ParseWorkerKey(key)
			if err != nil {
				glog.Warningf("etcd watch: skip %s", err)
				continue
			}
			r.workers[key] = w
			glog.Infof("etcd watch: worker added. key=%s", key)
		}
	}
	r.sortLocked()
}

func (r *Resolver) sortLocked() {
	list := make([]naming.ConflictManagerThread, 0, len(r.workers))
	for _, w := range r.workers {
		list = append(list, w)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Ip != list[j].Ip {
			return list[i].Ip < list[j].Ip
		}
		return list[i].Tid < list[j].Tid
	})
	r.sorted = list
}

func (r *Resolver) Workers(context.Context) ([]naming.ConflictManagerThread, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if len(r.sorted) == 0 {
		return nil, naming.ErrNoWorker
	}
	return r.sorted, nil
}

// RegisterWorker announces w under a lease that lives as long as ctx. The
// returned function deregisters it.
func RegisterWorker(ctx context.Context, etcdcli *EtcdClient, w naming.ConflictManagerThread) (deregister func(), err error) {
	var leaseId clientv3.LeaseID
	if leaseId, err = etcdcli.PutWithLease(ctx, KeyWorker(w), w.String(), etcdcli.config.WorkerLeaseTTL); err != nil {
		return
	}
	deregister = func() {
		etcdcli.Revoke(leaseId)
	}
	return
}
