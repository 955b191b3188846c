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
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// fieldDecoder consumes the value of one field and returns the number of
// bytes used, or a negative protowire error code. handled reports whether
// the field was recognized.
type fieldDecoder func(num protowire.Number, typ protowire.Type, raw []byte) (n int, handled bool, err error)

func walkFields(raw []byte, msg string, fn fieldDecoder) error {
	for len(raw) > 0 {
		num, typ, n := protowire.ConsumeTag(raw)
		if n < 0 {
			return errors.Wrapf(ErrMalformedMessage, "%s: %v", msg, protowire.ParseError(n))
		}
		raw = raw[n:]
		m, handled, err := fn(num, typ, raw)
		if err != nil {
			return err
		}
		if !handled {
			m = protowire.ConsumeFieldValue(num, typ, raw)
		}
		if m < 0 {
			return errors.Wrapf(ErrMalformedMessage, "%s field %d: %v", msg, num, protowire.ParseError(m))
		}
		raw = raw[m:]
	}
	return nil
}

func consumeVarint(typ protowire.Type, raw []byte, out *uint64) (int, bool) {
	if typ != protowire.VarintType {
		return 0, false
	}
	v, n := protowire.ConsumeVarint(raw)
	if n >= 0 {
		*out = v
	}
	return n, true
}

func consumeEnum(typ protowire.Type, raw []byte, out *int32) (int, bool) {
	var v uint64
	n, ok := consumeVarint(typ, raw, &v)
	if ok && n >= 0 {
		*out = int32(v)
	}
	return n, ok
}

func consumeString(typ protowire.Type, raw []byte, out *string) (int, bool) {
	if typ != protowire.BytesType {
		return 0, false
	}
	v, n := protowire.ConsumeString(raw)
	if n >= 0 {
		*out = v
	}
	return n, true
}

func consumeBytes(typ protowire.Type, raw []byte, out *[]byte) (int, bool) {
	if typ != protowire.BytesType {
		return 0, false
	}
	v, n := protowire.ConsumeBytes(raw)
	if n >= 0 {
		*out = append([]byte(nil), v...)
	}
	return n, true
}

func (t *KeyTuple) Unmarshal(b []byte) error {
	*t = KeyTuple{}
	return walkFields(b, "KeyTuple", func(num protowire.Number, typ protowire.Type, raw []byte) (n int, ok bool, err error) {
		switch num {
		case fTupleKey:
			n, ok = consumeString(typ, raw, &t.Key)
		case fTupleLatticeType:
			n, ok = consumeEnum(typ, raw, (*int32)(&t.LatticeType))
		case fTupleError:
			n, ok = consumeEnum(typ, raw, (*int32)(&t.Error))
		case fTuplePayload:
			n, ok = consumeBytes(typ, raw, &t.Payload)
		case fTuplePayloadEncoding:
			n, ok = consumeString(typ, raw, &t.PayloadEncoding)
		}
		return
	})
}

func consumeTuple(typ protowire.Type, raw []byte, tuples *[]KeyTuple) (n int, ok bool, err error) {
	if typ != protowire.BytesType {
		return
	}
	ok = true
	var v []byte
	if v, n = protowire.ConsumeBytes(raw); n < 0 {
		return
	}
	var t KeyTuple
	if err = t.Unmarshal(v); err == nil {
		*tuples = append(*tuples, t)
	}
	return
}

func (r *KeyRequest) Unmarshal(b []byte) error {
	*r = KeyRequest{}
	return walkFields(b, "KeyRequest", func(num protowire.Number, typ protowire.Type, raw []byte) (n int, ok bool, err error) {
		switch num {
		case fKeyType:
			n, ok = consumeEnum(typ, raw, (*int32)(&r.Type))
		case fKeyTuples:
			n, ok, err = consumeTuple(typ, raw, &r.Tuples)
		case fKeyAddrOrId:
			n, ok = consumeString(typ, raw, &r.ResponseAddress)
		case fKeyIdOrErr:
			n, ok = consumeString(typ, raw, &r.RequestId)
		case fKeySnapshot:
			n, ok = consumeVarint(typ, raw, &r.Snapshot)
		}
		return
	})
}

func (r *KeyResponse) Unmarshal(b []byte) error {
	*r = KeyResponse{}
	return walkFields(b, "KeyResponse", func(num protowire.Number, typ protowire.Type, raw []byte) (n int, ok bool, err error) {
		switch num {
		case fKeyType:
			n, ok = consumeEnum(typ, raw, (*int32)(&r.Type))
		case fKeyTuples:
			n, ok, err = consumeTuple(typ, raw, &r.Tuples)
		case fKeyAddrOrId:
			n, ok = consumeString(typ, raw, &r.ResponseId)
		case fKeyIdOrErr:
			n, ok = consumeEnum(typ, raw, (*int32)(&r.Error))
		case fKeySnapshot:
			n, ok = consumeVarint(typ, raw, &r.Snapshot)
		}
		return
	})
}

func (r *CommitRequest) Unmarshal(b []byte) error {
	*r = CommitRequest{}
	return walkFields(b, "CommitRequest", func(num protowire.Number, typ protowire.Type, raw []byte) (n int, ok bool, err error) {
		switch num {
		case fCommitType:
			n, ok = consumeEnum(typ, raw, (*int32)(&r.CommitType))
		case fCommitId:
			n, ok = consumeString(typ, raw, &r.RequestId)
		case fCommitCoordinator:
			n, ok = consumeString(typ, raw, &r.CoordinatorAddress)
		case fCommitClient:
			n, ok = consumeString(typ, raw, &r.ClientAddress)
		case fCommitKeyRequest:
			n, ok = consumeBytes(typ, raw, &r.KeyRequest)
		case fCommitSnapshot:
			n, ok = consumeVarint(typ, raw, &r.Snapshot)
		}
		return
	})
}

func (r *CommitResponse) Unmarshal(b []byte) error {
	*r = CommitResponse{}
	return walkFields(b, "CommitResponse", func(num protowire.Number, typ protowire.Type, raw []byte) (n int, ok bool, err error) {
		switch num {
		case fCommitType:
			n, ok = consumeEnum(typ, raw, (*int32)(&r.CommitType))
		case fCommitId:
			n, ok = consumeString(typ, raw, &r.ResponseId)
		case fCommitRespError:
			n, ok = consumeEnum(typ, raw, (*int32)(&r.Error))
		case fCommitRespKeys:
			var k string
			if n, ok = consumeString(typ, raw, &k); ok && n >= 0 {
				r.Keys = append(r.Keys, k)
			}
		case fCommitRespTimestamp:
			n, ok = consumeVarint(typ, raw, &r.CommitTimestamp)
		}
		return
	})
}
