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
Package io moves framed messages between conflict manager clients and
workers.

Endpoints follow PUSH/PULL semantics: a sender pushes a message to an
address and never waits for an answer, a bound address pulls whatever has
been pushed to it. Receiving never blocks, which lets the client poll all of
its inbound addresses in one cycle.
*/
package io

import (
	"errors"

	"junosi/pkg/proto"
)

var (
	ErrNoRoute     = errors.New("no endpoint bound at address")
	ErrQueueFull   = errors.New("inbound queue full")
	ErrClosed      = errors.New("transport closed")
	ErrAddrInUse   = errors.New("address already bound")
	ErrUnsupported = errors.New("unsupported address")
)

type Sender interface {
	Send(addr string, msg *proto.RawMessage) error
}

// Receiver is the pulling end of a bound address.
type Receiver interface {
	// TryRecv returns the next queued message, or false when the queue is
	// empty. It never blocks.
	TryRecv() (*proto.RawMessage, bool)
	Addr() string
	Close() error
}

type Transport interface {
	Sender
	Bind(addr string) (Receiver, error)
	Close() error
}

// queue is the bounded inbound buffer shared by the transports.
type queue struct {
	addr string
	ch   chan *proto.RawMessage
}

func newQueue(addr string, size int) *queue {
	return &queue{addr: addr, ch: make(chan *proto.RawMessage, size)}
}

func (q *queue) offer(msg *proto.RawMessage) bool {
	select {
	case q.ch <- msg:
		return true
	default:
		return false
	}
}

func (q *queue) TryRecv() (*proto.RawMessage, bool) {
	select {
	case msg := <-q.ch:
		return msg, true
	default:
		return nil, false
	}
}

func (q *queue) Addr() string {
	return q.addr
}
