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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"

	"junosi/pkg/naming"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "version", Key(TagVersion))
	assert.Equal(t, "node_01_002_00003", Key("node", 1, 2, 3))
}

func TestWorkerKey(t *testing.T) {
	w := naming.ConflictManagerThread{Ip: "10.1.2.3", Tid: 4}
	key := KeyWorker(w)
	assert.Equal(t, "cm_worker_10.1.2.3:4", key)

	got, err := ParseWorkerKey(key)
	require.NoError(t, err)
	assert.Equal(t, w, got)

	_, err = ParseWorkerKey("version")
	assert.Error(t, err)
	_, err = ParseWorkerKey("cm_worker_10.1.2.3")
	assert.Error(t, err)
}

func kv(key string) *mvccpb.KeyValue {
	return &mvccpb.KeyValue{Key: []byte(key), Value: []byte(key)}
}

func TestResolverCache(t *testing.T) {
	r := NewResolver(nil)
	_, err := r.Workers(context.Background())
	assert.ErrorIs(t, err, naming.ErrNoWorker)

	r.load([]*mvccpb.KeyValue{
		kv("cm_worker_10.0.0.2:1"),
		kv("cm_worker_10.0.0.1:3"),
		kv("cm_worker_garbage"),
		kv("cm_worker_10.0.0.1:0"),
	})
	workers, err := r.Workers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []naming.ConflictManagerThread{
		{Ip: "10.0.0.1", Tid: 0},
		{Ip: "10.0.0.1", Tid: 3},
		{Ip: "10.0.0.2", Tid: 1},
	}, workers)

	r.OnEvent(
		&clientv3.Event{Type: clientv3.EventTypeDelete, Kv: kv("cm_worker_10.0.0.1:3")},
		&clientv3.Event{Type: clientv3.EventTypePut, Kv: kv("cm_worker_10.0.0.9:0")},
	)
	workers, err = r.Workers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []naming.ConflictManagerThread{
		{Ip: "10.0.0.1", Tid: 0},
		{Ip: "10.0.0.2", Tid: 1},
		{Ip: "10.0.0.9", Tid: 0},
	}, workers)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaultIfNotDefined()
	assert.Equal(t, DefaultConfig().RequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, "junosi.", cfg.EtcdKeyPrefix)
	assert.Equal(t, int64(10), cfg.WorkerLeaseTTL)

	assert.Nil(t, NewEtcdClient(&Config{}, "cluster"), "no endpoints")
}

func TestRotateEndpoints(t *testing.T) {
	eps := []string{"a:2379", "b:2379", "c:2379"}
	rotateEndpoints(eps, 4)
	assert.Equal(t, []string{"b:2379", "c:2379", "a:2379"}, eps)
	rotateEndpoints(eps, 3)
	assert.Equal(t, []string{"b:2379", "c:2379", "a:2379"}, eps)
}
