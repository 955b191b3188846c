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
	"io"
)

type messageHeaderT struct {
	magic   uint16
	version uint8
	msgType MessageType
	msgSize uint32
	opaque  uint32
}

func (h *messageHeaderT) reset() {
	h.magic = kMessageMagic
	h.version = kCurrentVersion
	h.msgType = 0
	h.msgSize = 0
	h.opaque = 0
}

func (h *messageHeaderT) IsSupported() bool {
	if h.magic != kMessageMagic || h.version != kCurrentVersion {
		return false
	}
	_, ok := msgTypeNames[h.msgType]
	return ok
}

func (h *messageHeaderT) GetMsgType() MessageType {
	return h.msgType
}

func (h *messageHeaderT) GetMsgSize() uint32 {
	return h.msgSize
}

func (h *messageHeaderT) GetOpaque() uint32 {
	return h.opaque
}

func (h *messageHeaderT) SetOpaque(opaque uint32) {
	h.opaque = opaque
}

func (h *messageHeaderT) encode(buf []byte) error {
	if len(buf) != kMessageHeaderSize {
		return ErrInvalidMessageHeader
	}
	EncByteOrder.PutUint16(buf[0:2], h.magic)
	buf[2] = h.version
	buf[3] = byte(h.msgType)
	EncByteOrder.PutUint32(buf[4:8], h.msgSize)
	EncByteOrder.PutUint32(buf[8:12], h.opaque)
	return nil
}

func (h *messageHeaderT) decode(raw []byte) error {
	if len(raw) != kMessageHeaderSize {
		return ErrInvalidMessageHeader
	}
	h.magic = EncByteOrder.Uint16(raw[0:2])
	h.version = raw[2]
	h.msgType = MessageType(raw[3])
	h.msgSize = EncByteOrder.Uint32(raw[4:8])
	h.opaque = EncByteOrder.Uint32(raw[8:12])
	return nil
}

func (h *messageHeaderT) PrettyPrint(w io.Writer) {
	fmt.Fprintln(w, "\nHeader:")
	fmt.Fprintf(w, "  Magic\t\t:%#X\n", h.magic)
	fmt.Fprintf(w, "  Version\t:%d\n", h.version)
	fmt.Fprintf(w, "  MessageType\t:%s\n", h.msgType)
	fmt.Fprintf(w, "  MessageSize\t:%d\n", h.msgSize)
	fmt.Fprintf(w, "  OPaque\t:%#X\n", h.opaque)
}
