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

package proto

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestCommitBeginCarriesPutRequest(t *testing.T) {
	put := &KeyRequest{
		Type:      RequestTypePut,
		RequestId: "7_10.0.0.1:0",
		Snapshot:  12,
		Tuples: []KeyTuple{
			{Key: "k1", LatticeType: LatticeTypeSnapshotIsolation, Payload: []byte("v1")},
			{Key: "k2", LatticeType: LatticeTypeSnapshotIsolation, Payload: []byte("v2")},
		},
	}
	begin := &CommitRequest{
		CommitType:         CommitTypeBegin,
		RequestId:          put.RequestId,
		CoordinatorAddress: "tcp://10.0.0.2:7250",
		ClientAddress:      "tcp://10.0.0.1:7550",
		KeyRequest:         put.Marshal(),
		Snapshot:           12,
	}

	var buf bytes.Buffer
	_, err := Encode(begin).Write(&buf)
	require.NoError(t, err)

	var raw RawMessage
	_, err = raw.Read(&buf)
	require.NoError(t, err)
	msg, err := Decode(&raw)
	require.NoError(t, err)

	got, ok := msg.(*CommitRequest)
	require.True(t, ok)
	assert.Equal(t, begin, got)

	embedded, err := got.EmbeddedRequest()
	require.NoError(t, err)
	assert.Equal(t, put, embedded)
	assert.Equal(t, []string{"k1", "k2"}, embedded.Keys())
}

func TestKeyResponseFieldsFollowKeyValueSchema(t *testing.T) {
	resp := &KeyResponse{
		Type:       RequestTypeGet,
		ResponseId: "1_c",
		Tuples:     []KeyTuple{{Key: "a", LatticeType: LatticeTypeSnapshotIsolation, Payload: []byte("x")}},
	}
	b := resp.Marshal()

	num, typ, n := protowire.ConsumeTag(b)
	require.True(t, n > 0)
	assert.Equal(t, protowire.Number(1), num)
	assert.Equal(t, protowire.VarintType, typ)

	var out KeyResponse
	require.NoError(t, out.Unmarshal(b))
	assert.Equal(t, resp, &out)
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	b := (&CommitResponse{ResponseId: "3_c", Keys: []string{"k"}, CommitTimestamp: 42}).Marshal()
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("ignored"))
	b = protowire.AppendTag(b, 98, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, 1)

	var out CommitResponse
	require.NoError(t, out.Unmarshal(b))
	assert.Equal(t, "3_c", out.ResponseId)
	assert.Equal(t, []string{"k"}, out.Keys)
	assert.Equal(t, uint64(42), out.CommitTimestamp)
}

func TestDecodeMalformed(t *testing.T) {
	b := (&KeyResponse{ResponseId: "1_c"}).Marshal()
	truncated := b[:len(b)-1]

	var out KeyResponse
	err := out.Unmarshal(truncated)
	require.Error(t, err)
	assert.Equal(t, ErrMalformedMessage, errors.Cause(err))

	raw := NewRawMessage(MsgTypeKeyResponse, []byte{0x12, 0x05, 0x0a})
	_, err = Decode(raw)
	assert.Error(t, err)

	_, err = Decode(NewRawMessage(MessageType(77), nil))
	assert.Equal(t, ErrUnsupportedMessage, errors.Cause(err))
}

func TestRawMessageRejectsBadHeader(t *testing.T) {
	var buf bytes.Buffer
	_, err := Encode(&KeyRequest{RequestId: "1_c"}).Write(&buf)
	require.NoError(t, err)
	frame := buf.Bytes()
	frame[0] ^= 0xff

	var raw RawMessage
	_, err = raw.Read(bytes.NewReader(frame))
	assert.Equal(t, ErrInvalidMessageHeader, errors.Cause(err))
}

func TestRawMessageSequence(t *testing.T) {
	var buf bytes.Buffer
	for _, rid := range []string{"1_c", "2_c", "3_c"} {
		_, err := Encode(&KeyRequest{Type: RequestTypeGetVersion, RequestId: rid}).Write(&buf)
		require.NoError(t, err)
	}
	for _, rid := range []string{"1_c", "2_c", "3_c"} {
		var raw RawMessage
		_, err := raw.Read(&buf)
		require.NoError(t, err)
		msg, err := Decode(&raw)
		require.NoError(t, err)
		assert.Equal(t, rid, msg.(*KeyRequest).RequestId)
	}
}

func TestPayloadCompression(t *testing.T) {
	value := []byte(strings.Repeat("snapshot", 64))

	var tuple KeyTuple
	tuple.SetPayload(value, 128)
	assert.True(t, tuple.IsCompressed())
	assert.Less(t, len(tuple.Payload), len(value))

	clear, err := tuple.ClearPayload()
	require.NoError(t, err)
	assert.Equal(t, value, clear)

	tuple.SetPayload([]byte("short"), 128)
	assert.False(t, tuple.IsCompressed())

	tuple.SetPayload(value, 0)
	assert.False(t, tuple.IsCompressed())

	tuple.PayloadEncoding = "zstd"
	_, err = tuple.ClearPayload()
	assert.Equal(t, ErrUnsupportedCompressionType, errors.Cause(err))
}

func TestRequestIdGenerator(t *testing.T) {
	g := NewRequestIdGenerator(ClientIdentity("10.0.0.1", 3))
	assert.Equal(t, "1_10.0.0.1:3", g.Next())
	assert.Equal(t, "2_10.0.0.1:3", g.Next())

	seq, id, err := ParseRequestId("17_10.0.0.1:3")
	require.NoError(t, err)
	assert.Equal(t, uint64(17), seq)
	assert.Equal(t, "10.0.0.1:3", id)

	_, _, err = ParseRequestId("nope")
	assert.Error(t, err)

	anon := NewRequestIdGenerator("")
	assert.NotEmpty(t, anon.Identity())
}

func TestRequestIdGeneratorUnique(t *testing.T) {
	g := NewRequestIdGenerator("c")
	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				rid := g.Next()
				mu.Lock()
				seen[rid] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 4000)
}
