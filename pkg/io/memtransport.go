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

package io

import (
	"net"
	"strings"
	"sync"

	"github.com/golang/glog"

	"junosi/pkg/proto"
)

// MemTransport delivers messages between endpoints of the same process.
// Addresses are arbitrary strings. A "tcp://*:port" binding receives what is
// sent to any host on that port, like a wildcard TCP listener.
type MemTransport struct {
	mtx       sync.RWMutex
	endpoints map[string]*memReceiver
	queueSize int
	closed    bool
}

type memReceiver struct {
	*queue
	owner *MemTransport
}

func NewMemTransport(queueSize int) *MemTransport {
	if queueSize <= 0 {
		queueSize = DefaultConfig.RecvQueueSize
	}
	return &MemTransport{
		endpoints: make(map[string]*memReceiver),
		queueSize: queueSize,
	}
}

func (t *MemTransport) Bind(addr string) (Receiver, error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.closed {
		return nil, ErrClosed
	}
	if _, found := t.endpoints[addr]; found {
		return nil, ErrAddrInUse
	}
	r := &memReceiver{queue: newQueue(addr, t.queueSize), owner: t}
	t.endpoints[addr] = r
	return r, nil
}

func (t *MemTransport) Send(addr string, msg *proto.RawMessage) error {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	if t.closed {
		return ErrClosed
	}
	r, found := t.endpoints[addr]
	if !found {
		if r, found = t.endpoints[wildcard(addr)]; !found {
			return ErrNoRoute
		}
	}
	if !r.offer(msg) {
		glog.Warningf("drop message to %s. Likely queue full", addr)
		return ErrQueueFull
	}
	return nil
}

func (t *MemTransport) Close() error {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.closed = true
	t.endpoints = make(map[string]*memReceiver)
	return nil
}

func (r *memReceiver) Close() error {
	r.owner.mtx.Lock()
	defer r.owner.mtx.Unlock()
	if cur, found := r.owner.endpoints[r.addr]; found && cur == r {
		delete(r.owner.endpoints, r.addr)
	}
	return nil
}

func wildcard(addr string) string {
	const scheme = "tcp://"
	if !strings.HasPrefix(addr, scheme) {
		return addr
	}
	_, port, err := net.SplitHostPort(strings.TrimPrefix(addr, scheme))
	if err != nil {
		return addr
	}
	return scheme + "*:" + port
}
