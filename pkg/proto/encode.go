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
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fTupleKey             protowire.Number = 1
	fTupleLatticeType     protowire.Number = 2
	fTupleError           protowire.Number = 3
	fTuplePayload         protowire.Number = 4
	fTuplePayloadEncoding protowire.Number = 7

	fKeyType     protowire.Number = 1
	fKeyTuples   protowire.Number = 2
	fKeyAddrOrId protowire.Number = 3 // response_address / response_id
	fKeyIdOrErr  protowire.Number = 4 // request_id / error
	fKeySnapshot protowire.Number = 5

	fCommitType        protowire.Number = 1
	fCommitId          protowire.Number = 2
	fCommitCoordinator protowire.Number = 3
	fCommitClient      protowire.Number = 4
	fCommitKeyRequest  protowire.Number = 5
	fCommitSnapshot    protowire.Number = 6

	fCommitRespError     protowire.Number = 3
	fCommitRespKeys      protowire.Number = 4
	fCommitRespTimestamp protowire.Number = 5
)

func appendString(b []byte, num protowire.Number, s string) []byte {
	if len(s) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendEnum(b []byte, num protowire.Number, v int32) []byte {
	return appendVarint(b, num, uint64(int64(v)))
}

func (t *KeyTuple) Marshal() []byte {
	var b []byte
	b = appendString(b, fTupleKey, t.Key)
	b = appendEnum(b, fTupleLatticeType, int32(t.LatticeType))
	b = appendEnum(b, fTupleError, int32(t.Error))
	b = appendBytes(b, fTuplePayload, t.Payload)
	b = appendString(b, fTuplePayloadEncoding, t.PayloadEncoding)
	return b
}

func appendTuples(b []byte, tuples []KeyTuple) []byte {
	for i := range tuples {
		b = protowire.AppendTag(b, fKeyTuples, protowire.BytesType)
		b = protowire.AppendBytes(b, tuples[i].Marshal())
	}
	return b
}

func (r *KeyRequest) Marshal() []byte {
	var b []byte
	b = appendEnum(b, fKeyType, int32(r.Type))
	b = appendTuples(b, r.Tuples)
	b = appendString(b, fKeyAddrOrId, r.ResponseAddress)
	b = appendString(b, fKeyIdOrErr, r.RequestId)
	b = appendVarint(b, fKeySnapshot, r.Snapshot)
	return b
}

func (r *KeyResponse) Marshal() []byte {
	var b []byte
	b = appendEnum(b, fKeyType, int32(r.Type))
	b = appendTuples(b, r.Tuples)
	b = appendString(b, fKeyAddrOrId, r.ResponseId)
	b = appendEnum(b, fKeyIdOrErr, int32(r.Error))
	b = appendVarint(b, fKeySnapshot, r.Snapshot)
	return b
}

func (r *CommitRequest) Marshal() []byte {
	var b []byte
	b = appendEnum(b, fCommitType, int32(r.CommitType))
	b = appendString(b, fCommitId, r.RequestId)
	b = appendString(b, fCommitCoordinator, r.CoordinatorAddress)
	b = appendString(b, fCommitClient, r.ClientAddress)
	b = appendBytes(b, fCommitKeyRequest, r.KeyRequest)
	b = appendVarint(b, fCommitSnapshot, r.Snapshot)
	return b
}

func (r *CommitResponse) Marshal() []byte {
	var b []byte
	b = appendEnum(b, fCommitType, int32(r.CommitType))
	b = appendString(b, fCommitId, r.ResponseId)
	b = appendEnum(b, fCommitRespError, int32(r.Error))
	for _, k := range r.Keys {
		b = protowire.AppendTag(b, fCommitRespKeys, protowire.BytesType)
		b = protowire.AppendString(b, k)
	}
	b = appendVarint(b, fCommitRespTimestamp, r.CommitTimestamp)
	return b
}
