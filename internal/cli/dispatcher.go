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

package cli

import (
	"context"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"junosi/pkg/io"
	"junosi/pkg/logging"
	"junosi/pkg/naming"
	"junosi/pkg/proto"
	"junosi/pkg/util"
)

type DispatcherConfig struct {
	Self                 naming.ClientThread
	Sender               io.Sender
	Resolver             naming.Resolver
	Selector             naming.Selector
	IdGen                *proto.RequestIdGenerator
	Clock                util.Clock
	Stats                StatsRecorder
	CompressionThreshold int
}

// Dispatcher registers an operation in its pending table and then hands the
// encoded request to the transport. A request that cannot be sent is removed
// from the table again.
type Dispatcher struct {
	DispatcherConfig
	tables *Tables
}

func NewDispatcher(cfg DispatcherConfig, tables *Tables) *Dispatcher {
	if cfg.IdGen == nil {
		var identity string
		if cfg.Self.Ip != "" {
			identity = proto.ClientIdentity(cfg.Self.Ip, cfg.Self.Tid)
		}
		cfg.IdGen = proto.NewRequestIdGenerator(identity)
	}
	if cfg.Selector == nil {
		cfg.Selector = naming.NewRandomSelector(cfg.Self.Ip, cfg.Self.Tid)
	}
	if cfg.Clock == nil {
		cfg.Clock = util.SystemClock{}
	}
	if cfg.Stats == nil {
		cfg.Stats = nilStats{}
	}
	return &Dispatcher{DispatcherConfig: cfg, tables: tables}
}

func (d *Dispatcher) selectWorker(ctx context.Context, keys []string) (worker naming.ConflictManagerThread, err error) {
	var workers []naming.ConflictManagerThread
	if workers, err = d.Resolver.Workers(ctx); err != nil {
		err = errors.Wrap(ErrNoWorker, err.Error())
		return
	}
	if worker, err = d.Selector.Select(workers, keys); err != nil {
		err = ErrNoWorker
	}
	return
}

// DispatchGet sends one GET or GET_VERSION over keys and returns its request
// id. Duplicate keys are requested once.
func (d *Dispatcher) DispatchGet(ctx context.Context, keys []string, snapshot uint64, kind proto.RequestType) (rid string, err error) {
	if kind != proto.RequestTypeGet && kind != proto.RequestTypeGetVersion {
		return "", ErrBadParam
	}
	keys = uniqueKeys(keys)
	if len(keys) == 0 {
		return "", ErrNoKeys
	}
	var worker naming.ConflictManagerThread
	if worker, err = d.selectWorker(ctx, keys); err != nil {
		return
	}

	req := &proto.KeyRequest{
		Type:     kind,
		Snapshot: snapshot,
		Tuples:   make([]proto.KeyTuple, len(keys)),
	}
	for i, k := range keys {
		req.Tuples[i].Key = k
	}
	var target string
	if kind == proto.RequestTypeGetVersion {
		req.ResponseAddress = d.Self.KeyGetVersionResponseConnectAddress()
		target = worker.KeyVersionRequestConnectAddress()
	} else {
		req.ResponseAddress = d.Self.KeyGetResponseConnectAddress()
		target = worker.KeyRequestConnectAddress()
	}
	rid = d.IdGen.Next()
	req.RequestId = rid

	table := d.tables.table(kind)
	if err = table.Register(rid, keys, snapshot, d.Clock.Now()); err != nil {
		return "", err
	}
	if err = d.Sender.Send(target, proto.Encode(req)); err != nil {
		table.Cancel(rid)
		d.logSendFailure(opName(kind), rid, target, err)
		return "", errors.Wrap(ErrSendFailed, err.Error())
	}
	d.Stats.OnDispatch(opName(kind))
	if glog.V(2) {
		b := logging.NewKVBufferForLog()
		b.AddOp(opName(kind)).AddReqIdString(rid).AddSnapshot(snapshot).AddWorker(worker.String()).AddKeys(keys)
		glog.Infof("dispatch: %s", b)
	}
	return rid, nil
}

// DispatchCommit embeds a PUT over keys and payloads in a commit begin and
// sends it to the chosen coordinator. payloads[i] is the value of keys[i].
func (d *Dispatcher) DispatchCommit(ctx context.Context, keys []string, payloads [][]byte,
	latticeType proto.LatticeType, snapshot uint64) (rid string, err error) {

	if len(keys) == 0 {
		return "", ErrNoKeys
	}
	if len(keys) != len(payloads) {
		return "", errors.Wrapf(ErrBadParam, "%d keys, %d payloads", len(keys), len(payloads))
	}
	if len(uniqueKeys(keys)) != len(keys) {
		return "", errors.Wrap(ErrBadParam, "duplicate key in commit")
	}
	var worker naming.ConflictManagerThread
	if worker, err = d.selectWorker(ctx, keys); err != nil {
		return
	}

	rid = d.IdGen.Next()
	put := &proto.KeyRequest{
		Type:      proto.RequestTypePut,
		RequestId: rid,
		Snapshot:  snapshot,
		Tuples:    make([]proto.KeyTuple, len(keys)),
	}
	for i, k := range keys {
		put.Tuples[i].Key = k
		put.Tuples[i].LatticeType = latticeType
		put.Tuples[i].SetPayload(payloads[i], d.CompressionThreshold)
	}
	coordinator := worker.CommitConnectAddress()
	req := &proto.CommitRequest{
		CommitType:         proto.CommitTypeBegin,
		RequestId:          rid,
		CoordinatorAddress: coordinator,
		ClientAddress:      d.Self.CommitResponseConnectAddress(),
		KeyRequest:         put.Marshal(),
		Snapshot:           snapshot,
	}

	if err = d.tables.Commit.Register(rid, keys, d.Clock.Now()); err != nil {
		return "", err
	}
	if err = d.Sender.Send(coordinator, proto.Encode(req)); err != nil {
		d.tables.Commit.Cancel(rid)
		d.logSendFailure(OpCommit, rid, coordinator, err)
		return "", errors.Wrap(ErrSendFailed, err.Error())
	}
	d.Stats.OnDispatch(OpCommit)
	if glog.V(2) {
		b := logging.NewKVBufferForLog()
		b.AddOp(OpCommit).AddReqIdString(rid).AddSnapshot(snapshot).AddWorker(worker.String()).AddKeys(keys)
		glog.Infof("dispatch: %s", b)
	}
	return rid, nil
}

func (d *Dispatcher) logSendFailure(op string, rid string, target string, err error) {
	b := logging.NewKVBufferForLog()
	b.AddOp(op).AddReqIdString(rid).Add([]byte("target"), target).AddError(err)
	glog.Warningf("send failed: %s", b)
}

func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	unique := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, found := seen[k]; found {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, k)
	}
	return unique
}
