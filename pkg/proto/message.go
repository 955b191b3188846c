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
	"strings"

	"github.com/pkg/errors"
)

type Message interface {
	MsgType() MessageType
	Marshal() []byte
	Unmarshal(b []byte) error
}

type KeyTuple struct {
	Key             string
	LatticeType     LatticeType
	Error           KeyError
	Payload         []byte
	PayloadEncoding string
}

type KeyRequest struct {
	Type            RequestType
	Tuples          []KeyTuple
	ResponseAddress string
	RequestId       string
	Snapshot        uint64
}

type KeyResponse struct {
	Type       RequestType
	Tuples     []KeyTuple
	ResponseId string
	Error      ResponseError
	Snapshot   uint64
}

type CommitRequest struct {
	CommitType         CommitType
	RequestId          string
	CoordinatorAddress string
	ClientAddress      string
	KeyRequest         []byte
	Snapshot           uint64
}

type CommitResponse struct {
	CommitType      CommitType
	ResponseId      string
	Error           CommitError
	Keys            []string
	CommitTimestamp uint64
}

func (*KeyRequest) MsgType() MessageType     { return MsgTypeKeyRequest }
func (*KeyResponse) MsgType() MessageType    { return MsgTypeKeyResponse }
func (*CommitRequest) MsgType() MessageType  { return MsgTypeCommitRequest }
func (*CommitResponse) MsgType() MessageType { return MsgTypeCommitResponse }

func (r *KeyRequest) Keys() []string {
	keys := make([]string, len(r.Tuples))
	for i := range r.Tuples {
		keys[i] = r.Tuples[i].Key
	}
	return keys
}

func (r *KeyResponse) Keys() []string {
	keys := make([]string, len(r.Tuples))
	for i := range r.Tuples {
		keys[i] = r.Tuples[i].Key
	}
	return keys
}

// EmbeddedRequest decodes the PUT request carried by a commit begin.
func (r *CommitRequest) EmbeddedRequest() (*KeyRequest, error) {
	req := &KeyRequest{}
	if err := req.Unmarshal(r.KeyRequest); err != nil {
		return nil, errors.Wrap(err, "embedded key request")
	}
	return req, nil
}

func (r *KeyRequest) String() string {
	return fmt.Sprintf("{type=%s,rid=%s,snapshot=%d,keys=[%s]}", r.Type, r.RequestId, r.Snapshot, strings.Join(r.Keys(), " "))
}

func (r *KeyResponse) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "{type=%s,rid=%s,snapshot=%d,error=%s,tuples=[", r.Type, r.ResponseId, r.Snapshot, r.Error)
	for i := range r.Tuples {
		if i != 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s:%s", r.Tuples[i].Key, r.Tuples[i].Error)
	}
	b.WriteString("]}")
	return b.String()
}

func (r *CommitRequest) String() string {
	return fmt.Sprintf("{type=%s,rid=%s,coordinator=%s,client=%s,snapshot=%d}",
		r.CommitType, r.RequestId, r.CoordinatorAddress, r.ClientAddress, r.Snapshot)
}

func (r *CommitResponse) String() string {
	return fmt.Sprintf("{type=%s,rid=%s,error=%s,ts=%d,keys=[%s]}",
		r.CommitType, r.ResponseId, r.Error, r.CommitTimestamp, strings.Join(r.Keys, " "))
}

// Encode frames msg into a raw message.
func Encode(msg Message) *RawMessage {
	return NewRawMessage(msg.MsgType(), msg.Marshal())
}

// Decode returns the typed message carried by raw.
func Decode(raw *RawMessage) (Message, error) {
	var msg Message
	switch raw.GetMsgType() {
	case MsgTypeKeyRequest:
		msg = &KeyRequest{}
	case MsgTypeKeyResponse:
		msg = &KeyResponse{}
	case MsgTypeCommitRequest:
		msg = &CommitRequest{}
	case MsgTypeCommitResponse:
		msg = &CommitResponse{}
	default:
		return nil, errors.Wrapf(ErrUnsupportedMessage, "type=%s", raw.GetMsgType())
	}
	if err := msg.Unmarshal(raw.GetBody()); err != nil {
		return nil, err
	}
	return msg, nil
}
