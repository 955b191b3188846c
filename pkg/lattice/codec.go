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

package lattice

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Wire layout of a Bytes chain, compatible with the protobuf message
//
//	message SnapshotIsolationValue {
//	  uint64 snapshot = 1;
//	  bytes value = 2;
//	  repeated Version previous_versions = 3; // Version{uint64 snapshot = 1; bytes value = 2;}
//	}
const (
	fieldSnapshot         protowire.Number = 1
	fieldValue            protowire.Number = 2
	fieldPreviousVersions protowire.Number = 3
)

var ErrMalformedChain = errors.New("malformed version chain")

func appendVersion(b []byte, ts Timestamp, value Bytes) []byte {
	if ts != MinTimestamp {
		b = protowire.AppendTag(b, fieldSnapshot, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(ts))
	}
	if len(value) != 0 {
		b = protowire.AppendTag(b, fieldValue, protowire.BytesType)
		b = protowire.AppendBytes(b, value)
	}
	return b
}

func EncodeChain(c *VersionChain[Bytes]) []byte {
	b := appendVersion(nil, c.current.Timestamp, c.current.Value)
	c.history.Ascend(func(v Version[Bytes]) bool {
		b = protowire.AppendTag(b, fieldPreviousVersions, protowire.BytesType)
		b = protowire.AppendBytes(b, appendVersion(nil, v.Timestamp, v.Value))
		return true
	})
	return b
}

// DecodeChain parses a chain and normalizes it, so a payload that lists a
// history version newer than its current one still yields a valid chain.
// The current value is kept even at MinTimestamp.
func DecodeChain(raw []byte) (*VersionChain[Bytes], error) {
	cur, prev, err := decodeVersion(raw, true)
	if err != nil {
		return nil, err
	}
	c := NewVersionChain(cur.Timestamp, cur.Value)
	c.Merge(ChainFromVersions(prev...))
	return c, nil
}

func decodeVersion(raw []byte, withHistory bool) (cur Version[Bytes], prev []Version[Bytes], err error) {
	for len(raw) > 0 {
		num, typ, n := protowire.ConsumeTag(raw)
		if n < 0 {
			err = errors.Wrapf(ErrMalformedChain, "tag: %v", protowire.ParseError(n))
			return
		}
		raw = raw[n:]
		switch {
		case num == fieldSnapshot && typ == protowire.VarintType:
			var v uint64
			if v, n = protowire.ConsumeVarint(raw); n >= 0 {
				cur.Timestamp = Timestamp(v)
			}
		case num == fieldValue && typ == protowire.BytesType:
			var v []byte
			if v, n = protowire.ConsumeBytes(raw); n >= 0 {
				cur.Value = append(Bytes(nil), v...)
			}
		case num == fieldPreviousVersions && typ == protowire.BytesType && withHistory:
			var v []byte
			if v, n = protowire.ConsumeBytes(raw); n >= 0 {
				var p Version[Bytes]
				if p, _, err = decodeVersion(v, false); err != nil {
					return
				}
				prev = append(prev, p)
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, raw)
		}
		if n < 0 {
			err = errors.Wrapf(ErrMalformedChain, "field %d: %v", num, protowire.ParseError(n))
			return
		}
		raw = raw[n:]
	}
	return
}
