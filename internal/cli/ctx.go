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
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"junosi/pkg/logging/otel"
	"junosi/pkg/proto"
)

const (
	OpGet        = "GET"
	OpGetVersion = "GET_VERSION"
	OpCommit     = "COMMIT"
)

func opName(t proto.RequestType) string {
	if t == proto.RequestTypeGetVersion {
		return OpGetVersion
	}
	return OpGet
}

// GetResult is a completed GET or GET_VERSION. Tuples hold exactly one entry
// per requested key unless the operation timed out before some replies came
// in, in which case the missing keys carry KeyErrorTimeout.
type GetResult struct {
	*proto.KeyResponse
	Elapsed time.Duration
}

func (r *GetResult) TimedOut() bool {
	return r.Error == proto.ResponseErrorTimeout
}

// Err maps the whole-response status onto the client error taxonomy.
func (r *GetResult) Err() error {
	switch r.Error {
	case proto.ResponseErrorNone:
		return nil
	case proto.ResponseErrorTimeout:
		return ErrTimeout
	case proto.ResponseErrorNoServers:
		return ErrNoWorker
	default:
		return NewErrorWithString(r.Error.String())
	}
}

// Tuple returns the tuple of key, or nil.
func (r *GetResult) Tuple(key string) *proto.KeyTuple {
	for i := range r.Tuples {
		if r.Tuples[i].Key == key {
			return &r.Tuples[i]
		}
	}
	return nil
}

// Payload returns the uncompressed payload of key.
func (r *GetResult) Payload(key string) ([]byte, error) {
	t := r.Tuple(key)
	if t == nil {
		return nil, errors.Errorf("key %q not in response %s", key, r.ResponseId)
	}
	if t.Error != proto.KeyErrorNone {
		return nil, errors.Errorf("key %q: %s", key, t.Error)
	}
	return t.ClearPayload()
}

func (r *GetResult) status() string {
	if r.TimedOut() {
		return otel.StatusTimeout
	}
	if r.Error != proto.ResponseErrorNone {
		return otel.StatusError
	}
	return otel.StatusSuccess
}

// CommitResult is a completed commit. CommitTimestamp is 0 when the commit
// was aborted.
type CommitResult struct {
	RequestId       string
	Keys            []string
	Error           proto.CommitError
	CommitTimestamp uint64
	Elapsed         time.Duration
}

func (r *CommitResult) Aborted() bool {
	return r.Error.IsAbort()
}

func (r *CommitResult) Err() error {
	switch r.Error {
	case proto.CommitErrorNone:
		return nil
	case proto.CommitErrorTimeout:
		return ErrTimeout
	default:
		return errors.Wrap(ErrRemoteAbort, r.Error.String())
	}
}

func (r *CommitResult) String() string {
	return fmt.Sprintf("{rid=%s,error=%s,ts=%d,keys=[%s]}",
		r.RequestId, r.Error, r.CommitTimestamp, strings.Join(r.Keys, " "))
}

func (r *CommitResult) status() string {
	switch r.Error {
	case proto.CommitErrorNone:
		return otel.StatusSuccess
	case proto.CommitErrorTimeout:
		return otel.StatusTimeout
	default:
		return otel.StatusAbort
	}
}
