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
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	uuid "github.com/satori/go.uuid"
)

// RequestIdGenerator produces correlation ids of the form
// "<sequence>_<identity>". The snapshot is not part of the id, so two
// operations on the same snapshot never share an id.
type RequestIdGenerator struct {
	identity string
	seq      atomic.Uint64
}

// NewRequestIdGenerator uses identity, or a random uuid when identity is
// empty.
func NewRequestIdGenerator(identity string) *RequestIdGenerator {
	if identity == "" {
		identity = uuid.NewV4().String()
	}
	return &RequestIdGenerator{identity: identity}
}

// ClientIdentity is the identity of a client thread.
func ClientIdentity(ip string, tid uint32) string {
	return fmt.Sprintf("%s:%d", ip, tid)
}

func (g *RequestIdGenerator) Identity() string {
	return g.identity
}

func (g *RequestIdGenerator) Next() string {
	return strconv.FormatUint(g.seq.Add(1), 10) + "_" + g.identity
}

// ParseRequestId splits an id produced by a RequestIdGenerator.
func ParseRequestId(rid string) (seq uint64, identity string, err error) {
	i := strings.IndexByte(rid, '_')
	if i <= 0 {
		err = fmt.Errorf("not valid request id: %q", rid)
		return
	}
	if seq, err = strconv.ParseUint(rid[:i], 10, 64); err != nil {
		err = fmt.Errorf("not valid request id: %q", rid)
		return
	}
	identity = rid[i+1:]
	return
}
