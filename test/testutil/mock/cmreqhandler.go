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

package mock

import (
	"sync"
	"time"

	"github.com/golang/glog"

	"junosi/pkg/lattice"
	"junosi/pkg/logging"
	"junosi/pkg/proto"
	"junosi/pkg/util"
)

// RequestHandler is an in-memory conflict manager. A commit is applied in one
// step under first-committer-wins: it aborts with CONFLICT when any of its
// keys has a version newer than the transaction snapshot.
type RequestHandler struct {
	conf  CMConfig
	clock util.Clock

	mtx        sync.Mutex
	store      *lattice.VersionedMap[string, lattice.Bytes]
	lastCommit uint64
	noResponse map[string]bool
}

func NewRequestHandler(conf *CMConfig, clock util.Clock) *RequestHandler {
	if clock == nil {
		clock = util.SystemClock{}
	}
	conf.SetDefaultIfNotDefined()
	return &RequestHandler{
		conf:       *conf,
		clock:      clock,
		store:      lattice.NewVersionedMap[string, lattice.Bytes](lattice.WithSnapshotBoundary(conf.boundary())),
		noResponse: make(map[string]bool),
	}
}

// SetNoResponse makes the handler silently skip key in GET and GET_VERSION
// replies.
func (rh *RequestHandler) SetNoResponse(key string, on bool) {
	rh.mtx.Lock()
	defer rh.mtx.Unlock()
	if on {
		rh.noResponse[key] = true
	} else {
		delete(rh.noResponse, key)
	}
}

// Load stores value for key at ts, bypassing conflict detection.
func (rh *RequestHandler) Load(key string, ts uint64, value []byte) {
	rh.mtx.Lock()
	defer rh.mtx.Unlock()
	rh.store.Put(key, lattice.Timestamp(ts), lattice.Bytes(value))
	if ts > rh.lastCommit {
		rh.lastCommit = ts
	}
}

// LastCommitTimestamp is a snapshot that sees every committed write.
func (rh *RequestHandler) LastCommitTimestamp() uint64 {
	rh.mtx.Lock()
	defer rh.mtx.Unlock()
	return rh.lastCommit
}

func (rh *RequestHandler) ReadAt(key string, snapshot uint64) (lattice.Version[lattice.Bytes], bool) {
	rh.mtx.Lock()
	defer rh.mtx.Unlock()
	return rh.store.ReadAt(key, lattice.Timestamp(snapshot))
}

// ProcessKeyRequest answers a GET or GET_VERSION. It returns no reply for a
// request whose keys are all muted.
func (rh *RequestHandler) ProcessKeyRequest(req *proto.KeyRequest) (replies []*proto.KeyResponse) {
	if req.Type != proto.RequestTypeGet && req.Type != proto.RequestTypeGetVersion {
		glog.Warningf("fakecm: unexpected %s on key channel", req.Type)
		return nil
	}
	rh.mtx.Lock()
	tuples := make([]proto.KeyTuple, 0, len(req.Tuples))
	for _, t := range req.Tuples {
		if rh.noResponse[t.Key] {
			continue
		}
		tuples = append(tuples, rh.readTuple(req.Type, t.Key, req.Snapshot))
	}
	rh.mtx.Unlock()

	if glog.V(2) {
		b := logging.NewKVBufferForLog()
		b.AddOp(req.Type.String()).AddReqIdString(req.RequestId).AddSnapshot(req.Snapshot).AddKeys(req.Keys())
		glog.Infof("fakecm: %s", b)
	}
	newReply := func(tuples []proto.KeyTuple) *proto.KeyResponse {
		return &proto.KeyResponse{
			Type:       req.Type,
			ResponseId: req.RequestId,
			Snapshot:   req.Snapshot,
			Tuples:     tuples,
		}
	}
	if len(tuples) == 0 {
		return nil
	}
	if !rh.conf.SplitReplies {
		return []*proto.KeyResponse{newReply(tuples)}
	}
	for i := range tuples {
		replies = append(replies, newReply(tuples[i:i+1]))
	}
	return
}

func (rh *RequestHandler) readTuple(kind proto.RequestType, key string, snapshot uint64) proto.KeyTuple {
	t := proto.KeyTuple{Key: key}
	v, found := rh.store.ReadAt(key, lattice.Timestamp(snapshot))
	if !found {
		t.Error = proto.KeyErrorKeyDNE
		return t
	}
	if kind == proto.RequestTypeGetVersion {
		t.Payload = lattice.EncodeChain(lattice.NewVersionChain(v.Timestamp, lattice.Bytes(nil)))
		return t
	}
	t.LatticeType = proto.LatticeTypeSnapshotIsolation
	t.Payload = lattice.EncodeChain(lattice.NewVersionChain(v.Timestamp, v.Value))
	return t
}

// ProcessCommit applies a commit begin and returns the replies for the
// client: a single abort, or one acknowledgement per key.
func (rh *RequestHandler) ProcessCommit(req *proto.CommitRequest) []*proto.CommitResponse {
	abort := func(flag proto.CommitError) []*proto.CommitResponse {
		glog.Infof("fakecm: abort rid=%s %s", req.RequestId, flag)
		return []*proto.CommitResponse{{CommitType: proto.CommitTypeAbort, ResponseId: req.RequestId, Error: flag}}
	}
	if req.CommitType != proto.CommitTypeBegin {
		glog.Warningf("fakecm: unexpected %s", req.CommitType)
		return nil
	}
	put, err := req.EmbeddedRequest()
	if err != nil || put.Type != proto.RequestTypePut || len(put.Tuples) == 0 {
		glog.Warningf("fakecm: bad commit rid=%s err=%v", req.RequestId, err)
		return abort(proto.CommitErrorParticipantFailure)
	}
	values := make([]lattice.Bytes, len(put.Tuples))
	for i := range put.Tuples {
		var payload []byte
		var chain *lattice.VersionChain[lattice.Bytes]
		if payload, err = put.Tuples[i].ClearPayload(); err == nil {
			chain, err = lattice.DecodeChain(payload)
		}
		if err != nil {
			glog.Warningf("fakecm: bad payload rid=%s key=%s err=%s", req.RequestId, put.Tuples[i].Key, err)
			return abort(proto.CommitErrorParticipantFailure)
		}
		values[i] = chain.Value()
	}

	rh.mtx.Lock()
	for _, t := range put.Tuples {
		if chain, ok := rh.store.Get(t.Key); ok && rh.newerThanSnapshot(uint64(chain.Timestamp()), req.Snapshot) {
			rh.mtx.Unlock()
			return abort(proto.CommitErrorConflict)
		}
	}
	ts := rh.nextTimestamp()
	for i, t := range put.Tuples {
		rh.store.Put(t.Key, lattice.Timestamp(ts), values[i])
	}
	rh.mtx.Unlock()

	replies := make([]*proto.CommitResponse, len(put.Tuples))
	for i, t := range put.Tuples {
		replies[i] = &proto.CommitResponse{
			CommitType:      proto.CommitTypeCommit,
			ResponseId:      req.RequestId,
			Keys:            []string{t.Key},
			CommitTimestamp: ts,
		}
	}
	if glog.V(2) {
		b := logging.NewKVBufferForLog()
		b.AddOp("COMMIT").AddReqIdString(req.RequestId).AddSnapshot(req.Snapshot).AddCommitTimestamp(ts).AddKeys(put.Keys())
		glog.Infof("fakecm: %s", b)
	}
	return replies
}

// newerThanSnapshot reports whether a version at ts is invisible to a reader
// at snapshot.
func (rh *RequestHandler) newerThanSnapshot(ts uint64, snapshot uint64) bool {
	if rh.store.Boundary() == lattice.Exclusive {
		return ts >= snapshot
	}
	return ts > snapshot
}

// nextTimestamp is strictly increasing and follows the clock in microseconds.
func (rh *RequestHandler) nextTimestamp() uint64 {
	ts := uint64(rh.clock.Now().UnixMicro())
	if ts <= rh.lastCommit {
		ts = rh.lastCommit + 1
	}
	rh.lastCommit = ts
	return ts
}

// Compact drops the history no reader within the retention can observe.
func (rh *RequestHandler) Compact() int {
	if rh.conf.HistoryRetention.Duration <= 0 {
		return 0
	}
	watermark := rh.clock.Now().Add(-rh.conf.HistoryRetention.Duration).UnixMicro()
	if watermark <= 0 {
		return 0
	}
	rh.mtx.Lock()
	n := rh.store.Compact(lattice.Timestamp(watermark))
	rh.mtx.Unlock()
	if n != 0 {
		glog.V(2).Infof("fakecm: compacted %d versions below %s", n, time.UnixMicro(watermark))
	}
	return n
}
