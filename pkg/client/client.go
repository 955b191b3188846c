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

/*
package client implements the snapshot-isolation client of the conflict
manager.

Every call is asynchronous. A dispatch call returns the request id of the
logical operation, and the completed operation is later returned by one of
the Receive calls, which the host polls.

	GetKeysAsync / GetKeyVersionsAsync
	  * dispatch errors: ErrNoKeys, ErrNoWorker, ErrSendFailed, ErrClosed
	  * result errors  : nil, ErrTimeout, ErrNoWorker

	CommitAsync
	  * dispatch errors: ErrNoKeys, ErrBadParam, ErrNoWorker, ErrSendFailed, ErrClosed
	  * result errors  : nil, ErrTimeout, ErrRemoteAbort

A GET that times out still returns the tuples that arrived. The keys that
did not arrive carry proto.KeyErrorTimeout.
*/
package client

import (
	"context"

	"junosi/internal/cli"
	"junosi/pkg/lattice"
	"junosi/pkg/proto"
)

type (
	GetResult    = cli.GetResult
	CommitResult = cli.CommitResult
)

type IClient interface {
	GetKeyAsync(ctx context.Context, key string, snapshot uint64) (rid string, err error)
	GetKeysAsync(ctx context.Context, keys []string, snapshot uint64) (rid string, err error)
	GetKeyVersionAsync(ctx context.Context, key string, snapshot uint64) (rid string, err error)
	GetKeyVersionsAsync(ctx context.Context, keys []string, snapshot uint64) (rid string, err error)

	// CommitAsync writes values[i] to keys[i] in one transaction read at
	// snapshot.
	CommitAsync(ctx context.Context, keys []string, values [][]byte, snapshot uint64) (rid string, err error)

	// ReceiveAsync returns the GET and GET_VERSION operations completed or
	// timed out since the last call. It never blocks.
	ReceiveAsync() []*GetResult
	ReceiveCommitAsync() []*CommitResult

	// Pending reports the number of outstanding operations per kind.
	Pending() map[string]int
	Close() error
}

// Value decodes the version of key a GET returned. ok is false when the key
// has no version visible at the snapshot.
func Value(r *GetResult, key string) (v lattice.Version[lattice.Bytes], ok bool, err error) {
	if t := r.Tuple(key); t != nil && t.Error == proto.KeyErrorKeyDNE {
		return
	}
	var payload []byte
	if payload, err = r.Payload(key); err != nil || len(payload) == 0 {
		return
	}
	var chain *lattice.VersionChain[lattice.Bytes]
	if chain, err = lattice.DecodeChain(payload); err != nil {
		return
	}
	v = chain.Current()
	ok = !v.IsSentinel() || len(v.Value) != 0
	return
}

// Timestamp returns the version timestamp a GET_VERSION returned for key.
func Timestamp(r *GetResult, key string) (ts uint64, ok bool, err error) {
	var v lattice.Version[lattice.Bytes]
	if v, ok, err = Value(r, key); ok {
		ts = uint64(v.Timestamp)
	}
	return
}
