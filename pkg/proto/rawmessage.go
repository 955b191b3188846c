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
	"io"

	"github.com/pkg/errors"
)

// RawMessage is a framed message whose body has not been decoded yet.
type RawMessage struct {
	messageHeaderT
	body []byte
}

func NewRawMessage(msgType MessageType, body []byte) *RawMessage {
	m := &RawMessage{}
	m.messageHeaderT.reset()
	m.msgType = msgType
	m.body = body
	m.msgSize = uint32(kMessageHeaderSize + len(body))
	return m
}

func (m *RawMessage) Reset() {
	m.messageHeaderT.reset()
	m.body = nil
}

func (m *RawMessage) GetBody() []byte {
	return m.body
}

// Note: read timeout is set at conn level
func (m *RawMessage) Read(r io.Reader) (n int, err error) {
	var hBuffer [kMessageHeaderSize]byte
	header := hBuffer[:]

	if n, err = io.ReadFull(r, header); err != nil {
		return
	}
	var nbody int
	if nbody, err = m.ReadWithHeader(header, r); err == nil {
		n += nbody
	}
	return
}

func (m *RawMessage) ReadWithHeader(header []byte, r io.Reader) (n int, err error) {
	if err = m.messageHeaderT.decode(header); err != nil {
		m.Reset()
		return
	}
	if !m.IsSupported() {
		err = errors.Wrapf(ErrInvalidMessageHeader, "magic=%#x,version=%d,type=%d", m.magic, m.version, m.msgType)
		m.Reset()
		return
	}
	if m.msgSize < kMessageHeaderSize || m.msgSize-kMessageHeaderSize > MaxMessageSize {
		err = errors.Wrapf(ErrMessageTooLarge, "size=%d", m.msgSize)
		m.Reset()
		return
	}
	body := make([]byte, m.msgSize-kMessageHeaderSize)
	if n, err = io.ReadFull(r, body); err != nil {
		m.Reset()
		return
	}
	m.body = body
	return
}

// Write is not safe for concurrent use on the same writer.
func (m *RawMessage) Write(w io.Writer) (n int, err error) {
	var mheader [kMessageHeaderSize]byte
	raw := mheader[:]
	m.msgSize = uint32(kMessageHeaderSize + len(m.body))
	m.messageHeaderT.encode(raw)

	// one write per frame so that frames of concurrent writers on a
	// synchronized writer never interleave
	frame := make([]byte, 0, int(m.msgSize))
	frame = append(frame, raw...)
	frame = append(frame, m.body...)
	return w.Write(frame)
}
