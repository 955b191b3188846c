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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"junosi/pkg/proto"
)

var t0 = time.Unix(1700000000, 0)

func reply(rid string, keys ...string) *proto.KeyResponse {
	resp := &proto.KeyResponse{Type: proto.RequestTypeGet, ResponseId: rid}
	for _, k := range keys {
		resp.Tuples = append(resp.Tuples, proto.KeyTuple{
			Key:         k,
			LatticeType: proto.LatticeTypeSnapshotIsolation,
			Payload:     []byte("v-" + k),
		})
	}
	return resp
}

func tupleKeys(r *GetResult) []string {
	keys := make([]string, len(r.Tuples))
	for i := range r.Tuples {
		keys[i] = r.Tuples[i].Key
	}
	return keys
}

func TestGetCompletesOnceInAnyOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := []string{"k1", "k2", "k3"}
		order := rapid.Permutation(keys).Draw(t, "order")

		table := NewPendingOperationTable(proto.RequestTypeGet, time.Second)
		require.NoError(t, table.Register("1_c", keys, 7, t0))

		var completed []*GetResult
		for _, k := range order {
			r, err := table.OnResponse(reply("1_c", k), t0)
			require.NoError(t, err)
			if r != nil {
				completed = append(completed, r)
			}
		}
		require.Len(t, completed, 1)
		assert.ElementsMatch(t, keys, tupleKeys(completed[0]))
		assert.Equal(t, "1_c", completed[0].ResponseId)
		assert.Equal(t, uint64(7), completed[0].Snapshot)
		assert.NoError(t, completed[0].Err())
		assert.False(t, table.Contains("1_c"))
		assert.Equal(t, 0, table.Len())

		_, err := table.OnResponse(reply("1_c", "k1"), t0)
		assert.ErrorIs(t, err, ErrUnknownCorrelation, "a late reply after completion is unknown")
	})
}

func TestGetMultiKeyReply(t *testing.T) {
	table := NewPendingOperationTable(proto.RequestTypeGet, time.Second)
	require.NoError(t, table.Register("1_c", []string{"a", "b", "a"}, 1, t0))

	r, err := table.OnResponse(reply("1_c", "a", "a"), t0)
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = table.OnResponse(reply("1_c", "b", "zzz"), t0.Add(time.Millisecond))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, []string{"a", "b"}, tupleKeys(r), "one tuple per requested key")
	assert.Equal(t, time.Millisecond, r.Elapsed)

	payload, err := r.Payload("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("v-a"), payload)
	_, err = r.Payload("zzz")
	assert.Error(t, err)
}

func TestGetVersionDropsLatticeType(t *testing.T) {
	table := NewPendingOperationTable(proto.RequestTypeGetVersion, time.Second)
	require.NoError(t, table.Register("1_c", []string{"a"}, 1, t0))
	r, err := table.OnResponse(reply("1_c", "a"), t0)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, proto.RequestTypeGetVersion, r.Type)
	assert.Equal(t, proto.LatticeTypeNone, r.Tuples[0].LatticeType)
}

func TestRegisterRejects(t *testing.T) {
	table := NewPendingOperationTable(proto.RequestTypeGet, time.Second)
	assert.ErrorIs(t, table.Register("1_c", nil, 1, t0), ErrNoKeys)
	require.NoError(t, table.Register("1_c", []string{"a"}, 1, t0))
	assert.ErrorIs(t, table.Register("1_c", []string{"b"}, 1, t0), ErrDuplicateRequest)

	commits := NewPendingCommitTable(time.Second)
	assert.ErrorIs(t, commits.Register("1_c", []string{}, t0), ErrNoKeys)
	require.NoError(t, commits.Register("1_c", []string{"a"}, t0))
	assert.ErrorIs(t, commits.Register("1_c", []string{"a"}, t0), ErrDuplicateRequest)
}

func TestGetTimeout(t *testing.T) {
	const timeout = 500 * time.Millisecond
	table := NewPendingOperationTable(proto.RequestTypeGet, timeout)
	require.NoError(t, table.Register("1_c", []string{"k1", "k2", "k3"}, 3, t0))
	require.NoError(t, table.Register("2_c", []string{"k1"}, 3, t0.Add(100*time.Millisecond)))

	r, err := table.OnResponse(reply("1_c", "k2"), t0)
	require.NoError(t, err)
	require.Nil(t, r)

	assert.Empty(t, table.Expire(t0.Add(timeout-time.Nanosecond)), "never before issued_at+timeout")
	assert.True(t, table.Contains("1_c"))

	expired := table.Expire(t0.Add(timeout))
	require.Len(t, expired, 1)
	got := expired[0]
	assert.True(t, got.TimedOut())
	assert.ErrorIs(t, got.Err(), ErrTimeout)
	assert.Equal(t, "1_c", got.ResponseId)
	assert.Equal(t, timeout, got.Elapsed)
	require.Len(t, got.Tuples, 3)
	assert.Equal(t, "k2", got.Tuples[0].Key)
	assert.Equal(t, proto.KeyErrorNone, got.Tuples[0].Error)
	assert.Equal(t, proto.KeyTuple{Key: "k1", Error: proto.KeyErrorTimeout}, got.Tuples[1])
	assert.Equal(t, proto.KeyTuple{Key: "k3", Error: proto.KeyErrorTimeout}, got.Tuples[2])

	assert.False(t, table.Contains("1_c"))
	assert.True(t, table.Contains("2_c"))
	assert.Empty(t, table.Expire(t0.Add(timeout)), "expired only once")

	_, err = table.OnResponse(reply("1_c", "k1"), t0.Add(time.Second))
	assert.ErrorIs(t, err, ErrUnknownCorrelation)

	expired = table.Expire(t0.Add(time.Hour))
	require.Len(t, expired, 1)
	assert.Equal(t, "2_c", expired[0].ResponseId)
	assert.Equal(t, 0, table.Len())
}

func TestCompletedOrCancelledNeverExpire(t *testing.T) {
	table := NewPendingOperationTable(proto.RequestTypeGet, time.Second)
	require.NoError(t, table.Register("1_c", []string{"a"}, 1, t0))
	require.NoError(t, table.Register("2_c", []string{"a"}, 1, t0))
	r, err := table.OnResponse(reply("1_c", "a"), t0)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.True(t, table.Cancel("2_c"))
	assert.False(t, table.Cancel("2_c"))

	assert.Empty(t, table.Expire(t0.Add(time.Hour)))
}

func TestUnknownCorrelationNeverCreatesEntry(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		table := NewPendingOperationTable(proto.RequestTypeGet, time.Second)
		commits := NewPendingCommitTable(time.Second)
		require.NoError(t, table.Register("1_c", []string{"a"}, 1, t0))
		require.NoError(t, commits.Register("1_c", []string{"a"}, t0))

		rid := rapid.StringMatching(`[0-9]{1,4}_[a-z]{1,3}`).Filter(func(s string) bool { return s != "1_c" }).Draw(t, "rid")
		r, err := table.OnResponse(reply(rid, "a"), t0)
		assert.Nil(t, r)
		assert.ErrorIs(t, err, ErrUnknownCorrelation)
		cr, err := commits.OnResponse(&proto.CommitResponse{ResponseId: rid, Keys: []string{"a"}, CommitTimestamp: 5}, t0)
		assert.Nil(t, cr)
		assert.ErrorIs(t, err, ErrUnknownCorrelation)

		assert.Equal(t, 1, table.Len())
		assert.False(t, table.Contains(rid))
		assert.Equal(t, 1, commits.Len())
		assert.False(t, commits.Contains(rid))
		for _, e := range table.Expire(t0.Add(time.Hour)) {
			assert.NotEqual(t, rid, e.ResponseId)
		}
	})
}

func TestCommitAbortBeforeAcks(t *testing.T) {
	commits := NewPendingCommitTable(time.Second)
	require.NoError(t, commits.Register("1_c", []string{"k1", "k2"}, t0))

	r, err := commits.OnResponse(&proto.CommitResponse{
		CommitType: proto.CommitTypeAbort,
		ResponseId: "1_c",
		Error:      proto.CommitErrorConflict,
	}, t0)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.True(t, r.Aborted())
	assert.Equal(t, proto.CommitErrorConflict, r.Error)
	assert.Equal(t, uint64(0), r.CommitTimestamp)
	assert.ErrorIs(t, r.Err(), ErrRemoteAbort)
	assert.False(t, commits.Contains("1_c"))
	assert.Empty(t, commits.Expire(t0.Add(time.Hour)))
}

func TestCommitAbortAfterPartialAck(t *testing.T) {
	commits := NewPendingCommitTable(time.Second)
	require.NoError(t, commits.Register("1_c", []string{"k1", "k2"}, t0))

	r, err := commits.OnResponse(&proto.CommitResponse{ResponseId: "1_c", Keys: []string{"k1"}, CommitTimestamp: 42}, t0)
	require.NoError(t, err)
	require.Nil(t, r)

	r, err = commits.OnResponse(&proto.CommitResponse{ResponseId: "1_c", Error: proto.CommitErrorParticipantFailure}, t0)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, proto.CommitErrorParticipantFailure, r.Error)
	assert.Equal(t, uint64(0), r.CommitTimestamp, "an aborted commit has no timestamp")
}

func TestCommitTwoAcks(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		order := rapid.Permutation([]string{"k1", "k2"}).Draw(t, "order")
		commits := NewPendingCommitTable(time.Second)
		require.NoError(t, commits.Register("9_c", []string{"k1", "k2"}, t0))

		var completed []*CommitResult
		for _, k := range order {
			r, err := commits.OnResponse(&proto.CommitResponse{
				CommitType:      proto.CommitTypeCommit,
				ResponseId:      "9_c",
				Keys:            []string{k},
				CommitTimestamp: 42,
			}, t0)
			require.NoError(t, err)
			if r != nil {
				completed = append(completed, r)
			}
		}
		require.Len(t, completed, 1)
		assert.False(t, completed[0].Aborted())
		assert.Equal(t, proto.CommitErrorNone, completed[0].Error)
		assert.Equal(t, uint64(42), completed[0].CommitTimestamp)
		assert.NoError(t, completed[0].Err())
		assert.Equal(t, []string{"k1", "k2"}, completed[0].Keys)
		assert.Equal(t, 0, commits.Len())
	})
}

func TestCommitTimeout(t *testing.T) {
	commits := NewPendingCommitTable(time.Second)
	require.NoError(t, commits.Register("1_c", []string{"k1", "k2"}, t0))
	_, err := commits.OnResponse(&proto.CommitResponse{ResponseId: "1_c", Keys: []string{"k1"}, CommitTimestamp: 42}, t0)
	require.NoError(t, err)

	assert.Empty(t, commits.Expire(t0.Add(999*time.Millisecond)))
	expired := commits.Expire(t0.Add(time.Second))
	require.Len(t, expired, 1)
	assert.Equal(t, proto.CommitErrorTimeout, expired[0].Error)
	assert.Equal(t, uint64(0), expired[0].CommitTimestamp)
	assert.ErrorIs(t, expired[0].Err(), ErrTimeout)
	assert.True(t, IsRetryable(expired[0].Err()))
	assert.Equal(t, 0, commits.Len())
}
