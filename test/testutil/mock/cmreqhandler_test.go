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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"junosi/pkg/lattice"
	"junosi/pkg/proto"
	"junosi/pkg/util"
)

var t0 = time.Unix(1700000000, 0)

func newHandler(split bool) (*RequestHandler, *util.ManualClock) {
	clock := util.NewManualClock(t0)
	conf := DefaultCMConfig
	conf.SplitReplies = split
	return NewRequestHandler(&conf, clock), clock
}

func commitBegin(rid string, snapshot uint64, kv ...string) *proto.CommitRequest {
	put := &proto.KeyRequest{Type: proto.RequestTypePut, RequestId: rid, Snapshot: snapshot}
	for i := 0; i+1 < len(kv); i += 2 {
		t := proto.KeyTuple{Key: kv[i], LatticeType: proto.LatticeTypeSnapshotIsolation}
		t.SetPayload(lattice.EncodeChain(lattice.NewVersionChain(lattice.Timestamp(snapshot), lattice.Bytes(kv[i+1]))), 0)
		put.Tuples = append(put.Tuples, t)
	}
	return &proto.CommitRequest{CommitType: proto.CommitTypeBegin, RequestId: rid, Snapshot: snapshot, KeyRequest: put.Marshal()}
}

func TestGetSnapshotRead(t *testing.T) {
	rh, _ := newHandler(false)
	rh.Load("k", 10, []byte("v10"))
	rh.Load("k", 20, []byte("v20"))

	req := &proto.KeyRequest{Type: proto.RequestTypeGet, RequestId: "1_c", Snapshot: 15,
		Tuples: []proto.KeyTuple{{Key: "k"}, {Key: "missing"}}}
	replies := rh.ProcessKeyRequest(req)
	require.Len(t, replies, 1)
	require.Len(t, replies[0].Tuples, 2)

	chain, err := lattice.DecodeChain(replies[0].Tuples[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, lattice.Timestamp(10), chain.Timestamp())
	assert.Equal(t, "v10", chain.Value().String())
	assert.Equal(t, proto.KeyErrorKeyDNE, replies[0].Tuples[1].Error)

	req.Snapshot = 20
	chain, err = lattice.DecodeChain(rh.ProcessKeyRequest(req)[0].Tuples[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, lattice.Timestamp(20), chain.Timestamp(), "a version at the snapshot is visible")
}

func TestGetVersionAndSplitReplies(t *testing.T) {
	rh, _ := newHandler(true)
	rh.Load("a", 5, []byte("x"))
	rh.Load("b", 6, []byte("y"))
	rh.SetNoResponse("c", true)

	replies := rh.ProcessKeyRequest(&proto.KeyRequest{Type: proto.RequestTypeGetVersion, RequestId: "2_c", Snapshot: 100,
		Tuples: []proto.KeyTuple{{Key: "a"}, {Key: "b"}, {Key: "c"}}})
	require.Len(t, replies, 2, "one reply per key, muted keys skipped")
	for i, key := range []string{"a", "b"} {
		require.Len(t, replies[i].Tuples, 1)
		tuple := replies[i].Tuples[0]
		assert.Equal(t, key, tuple.Key)
		assert.Equal(t, proto.LatticeTypeNone, tuple.LatticeType)
		chain, err := lattice.DecodeChain(tuple.Payload)
		require.NoError(t, err)
		assert.Empty(t, chain.Value())
	}

	assert.Nil(t, rh.ProcessKeyRequest(&proto.KeyRequest{Type: proto.RequestTypeGet, RequestId: "3_c",
		Tuples: []proto.KeyTuple{{Key: "c"}}}))
	assert.Nil(t, rh.ProcessKeyRequest(&proto.KeyRequest{Type: proto.RequestTypePut, RequestId: "4_c"}))
}

func TestCommitFirstCommitterWins(t *testing.T) {
	rh, clock := newHandler(true)

	replies := rh.ProcessCommit(commitBegin("1_c", 0, "k1", "a", "k2", "b"))
	require.Len(t, replies, 2)
	ts := replies[0].CommitTimestamp
	assert.Equal(t, uint64(t0.UnixMicro()), ts)
	for i, key := range []string{"k1", "k2"} {
		assert.Equal(t, proto.CommitTypeCommit, replies[i].CommitType)
		assert.Equal(t, []string{key}, replies[i].Keys)
		assert.Equal(t, ts, replies[i].CommitTimestamp)
	}
	v, ok := rh.ReadAt("k1", ts)
	require.True(t, ok)
	assert.Equal(t, "a", v.Value.String())

	// a transaction that read before the commit conflicts
	replies = rh.ProcessCommit(commitBegin("2_c", ts-1, "k2", "c"))
	require.Len(t, replies, 1)
	assert.Equal(t, proto.CommitTypeAbort, replies[0].CommitType)
	assert.Equal(t, proto.CommitErrorConflict, replies[0].Error)

	// same clock reading still yields a newer timestamp
	replies = rh.ProcessCommit(commitBegin("3_c", ts, "k2", "c"))
	require.Len(t, replies, 1)
	assert.Equal(t, ts+1, replies[0].CommitTimestamp)
	assert.Equal(t, ts+1, rh.LastCommitTimestamp())

	clock.Advance(time.Second)
	replies = rh.ProcessCommit(commitBegin("4_c", ts+1, "k3", "d"))
	assert.Equal(t, uint64(t0.Add(time.Second).UnixMicro()), replies[0].CommitTimestamp)
}

func TestCommitBadRequest(t *testing.T) {
	rh, _ := newHandler(true)
	replies := rh.ProcessCommit(&proto.CommitRequest{CommitType: proto.CommitTypeBegin, RequestId: "1_c", KeyRequest: []byte{0xff}})
	require.Len(t, replies, 1)
	assert.Equal(t, proto.CommitErrorParticipantFailure, replies[0].Error)

	assert.Nil(t, rh.ProcessCommit(&proto.CommitRequest{CommitType: proto.CommitTypePrepare, RequestId: "2_c"}))
}

func TestCompact(t *testing.T) {
	clock := util.NewManualClock(t0)
	conf := DefaultCMConfig
	conf.HistoryRetention = util.Duration{Duration: 1500 * time.Millisecond}
	rh := NewRequestHandler(&conf, clock)

	for i := 1; i <= 3; i++ {
		rh.ProcessCommit(commitBegin("c", rh.LastCommitTimestamp(), "k", "v"))
		clock.Advance(time.Second)
	}
	assert.Equal(t, 1, rh.Compact(), "only the newest version below the watermark survives")
	_, ok := rh.ReadAt("k", uint64(t0.UnixMicro()))
	assert.False(t, ok)
}
