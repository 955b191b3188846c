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
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

const (
	kMessageMagic      uint16 = 0x5349
	kCurrentVersion    uint8  = 1
	kMessageHeaderSize        = 12

	// MaxMessageSize bounds the body a reader is willing to allocate.
	MaxMessageSize = 64 << 20
)

var EncByteOrder = binary.BigEndian

type MessageType uint8

const (
	MsgTypeKeyRequest MessageType = iota + 1
	MsgTypeKeyResponse
	MsgTypeCommitRequest
	MsgTypeCommitResponse
)

var msgTypeNames = map[MessageType]string{
	MsgTypeKeyRequest:     "KeyRequest",
	MsgTypeKeyResponse:    "KeyResponse",
	MsgTypeCommitRequest:  "CommitRequest",
	MsgTypeCommitResponse: "CommitResponse",
}

func (t MessageType) String() string {
	if s, ok := msgTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("MessageType(%d)", uint8(t))
}

type RequestType int32

const (
	RequestTypeUnspecified RequestType = iota
	RequestTypeGet
	RequestTypePut
	RequestTypeGetVersion
)

func (t RequestType) String() string {
	switch t {
	case RequestTypeGet:
		return "GET"
	case RequestTypePut:
		return "PUT"
	case RequestTypeGetVersion:
		return "GET_VERSION"
	default:
		return fmt.Sprintf("RequestType(%d)", int32(t))
	}
}

type LatticeType int32

const (
	LatticeTypeNone LatticeType = iota
	LatticeTypeLWW
	LatticeTypeSet
	LatticeTypeOrderedSet
	LatticeTypeSingleCausal
	LatticeTypeMultiCausal
	LatticeTypePriority
	LatticeTypeSnapshotIsolation
)

func (t LatticeType) String() string {
	switch t {
	case LatticeTypeNone:
		return "NONE"
	case LatticeTypeLWW:
		return "LWW"
	case LatticeTypeSet:
		return "SET"
	case LatticeTypeOrderedSet:
		return "ORDERED_SET"
	case LatticeTypeSingleCausal:
		return "SINGLE_CAUSAL"
	case LatticeTypeMultiCausal:
		return "MULTI_CAUSAL"
	case LatticeTypePriority:
		return "PRIORITY"
	case LatticeTypeSnapshotIsolation:
		return "SNAPSHOT_ISOLATION"
	default:
		return fmt.Sprintf("LatticeType(%d)", int32(t))
	}
}

// KeyError is the per tuple status of a key response.
type KeyError int32

const (
	KeyErrorNone KeyError = iota
	KeyErrorKeyDNE
	KeyErrorWrongThread
	KeyErrorTimeout
	KeyErrorLattice
	KeyErrorNoServers
)

func (e KeyError) String() string {
	switch e {
	case KeyErrorNone:
		return "NO_ERROR"
	case KeyErrorKeyDNE:
		return "KEY_DNE"
	case KeyErrorWrongThread:
		return "WRONG_THREAD"
	case KeyErrorTimeout:
		return "TIMEOUT"
	case KeyErrorLattice:
		return "LATTICE"
	case KeyErrorNoServers:
		return "NO_SERVERS"
	default:
		return fmt.Sprintf("KeyError(%d)", int32(e))
	}
}

// ResponseError is the whole-response status of a key response.
type ResponseError int32

const (
	ResponseErrorNone ResponseError = iota
	ResponseErrorNoServers
	ResponseErrorTimeout
)

func (e ResponseError) String() string {
	switch e {
	case ResponseErrorNone:
		return "NO_ERROR"
	case ResponseErrorNoServers:
		return "NO_SERVERS"
	case ResponseErrorTimeout:
		return "TIMEOUT"
	default:
		return fmt.Sprintf("ResponseError(%d)", int32(e))
	}
}

type CommitType int32

const (
	CommitTypeBegin CommitType = iota
	CommitTypePrepare
	CommitTypeCommit
	CommitTypeAbort
)

func (t CommitType) String() string {
	switch t {
	case CommitTypeBegin:
		return "C_BEGIN"
	case CommitTypePrepare:
		return "C_PREPARE"
	case CommitTypeCommit:
		return "C_COMMIT"
	case CommitTypeAbort:
		return "C_ABORT"
	default:
		return fmt.Sprintf("CommitType(%d)", int32(t))
	}
}

// CommitError is the abort flag of a commit response.
type CommitError int32

const (
	CommitErrorNone CommitError = iota
	CommitErrorTimeout
	CommitErrorConflict
	CommitErrorParticipantFailure
)

func (e CommitError) String() string {
	switch e {
	case CommitErrorNone:
		return "NO_ERROR"
	case CommitErrorTimeout:
		return "TIMEOUT"
	case CommitErrorConflict:
		return "CONFLICT"
	case CommitErrorParticipantFailure:
		return "PARTICIPANT_FAILURE"
	default:
		return fmt.Sprintf("CommitError(%d)", int32(e))
	}
}

func (e CommitError) IsAbort() bool {
	return e != CommitErrorNone
}

var (
	ErrInvalidMessageHeader = errors.New("invalid message header")
	ErrUnsupportedMessage   = errors.New("unsupported message")
	ErrMessageTooLarge      = errors.New("message too large")
	ErrMalformedMessage     = errors.New("malformed message")
)
