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
	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

const (
	SnappyCompression string = "Snappy"
)

var ErrUnsupportedCompressionType = errors.New("unsupported compression type")

// SetPayload stores value, compressing it with snappy when it is at least
// threshold bytes long and compression actually saves space. A threshold of
// zero or less disables compression.
func (t *KeyTuple) SetPayload(value []byte, threshold int) {
	t.Payload = value
	t.PayloadEncoding = ""
	if threshold <= 0 || len(value) < threshold {
		return
	}
	compressed := snappy.Encode(nil, value)
	if len(compressed) < len(value) {
		t.Payload = compressed
		t.PayloadEncoding = SnappyCompression
	}
}

// ClearPayload returns the uncompressed payload.
func (t *KeyTuple) ClearPayload() ([]byte, error) {
	switch t.PayloadEncoding {
	case "":
		return t.Payload, nil
	case SnappyCompression:
		value, err := snappy.Decode(nil, t.Payload)
		if err != nil {
			return nil, errors.Wrapf(err, "uncompress payload of %s", t.Key)
		}
		return value, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedCompressionType, "%q", t.PayloadEncoding)
	}
}

func (t *KeyTuple) IsCompressed() bool {
	return t.PayloadEncoding != ""
}
