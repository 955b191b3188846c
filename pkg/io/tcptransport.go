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
	"sync"
	"time"

	"github.com/golang/glog"

	"junosi/pkg/proto"
)

type outboundConn struct {
	mtx  sync.Mutex
	conn net.Conn
}

// TCPTransport pushes frames over lazily established connections, one per
// destination address, and pulls through Listeners.
type TCPTransport struct {
	config    Config
	mtx       sync.Mutex
	outbound  map[string]*outboundConn
	listeners map[string]*Listener
	closed    bool
}

func NewTCPTransport(cfg Config) *TCPTransport {
	cfg.SetDefaultIfNotDefined()
	return &TCPTransport{
		config:    cfg,
		outbound:  make(map[string]*outboundConn),
		listeners: make(map[string]*Listener),
	}
}

func (t *TCPTransport) Bind(addr string) (Receiver, error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.closed {
		return nil, ErrClosed
	}
	if _, found := t.listeners[addr]; found {
		return nil, ErrAddrInUse
	}
	l, err := NewListener(addr, t.config)
	if err != nil {
		return nil, err
	}
	l.onClose = func() {
		t.mtx.Lock()
		if cur, found := t.listeners[addr]; found && cur == l {
			delete(t.listeners, addr)
		}
		t.mtx.Unlock()
	}
	t.listeners[addr] = l
	glog.Infof("bound %s", addr)
	return l, nil
}

func (t *TCPTransport) getOutbound(addr string) (*outboundConn, error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.closed {
		return nil, ErrClosed
	}
	oc, found := t.outbound[addr]
	if !found {
		oc = &outboundConn{}
		t.outbound[addr] = oc
	}
	return oc, nil
}

// Send writes one frame. A failed write drops the cached connection so the
// next Send reconnects. Send never retries.
func (t *TCPTransport) Send(addr string, msg *proto.RawMessage) (err error) {
	var oc *outboundConn
	if oc, err = t.getOutbound(addr); err != nil {
		return
	}
	oc.mtx.Lock()
	defer oc.mtx.Unlock()

	if oc.conn == nil {
		if oc.conn, err = Connect(addr, t.config.ConnectTimeout.Duration); err != nil {
			oc.conn = nil
			return
		}
	}
	if t.config.WriteTimeout.Duration > 0 {
		oc.conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout.Duration))
	}
	if _, err = msg.Write(oc.conn); err != nil {
		glog.Warningf("write to %s failed: %s", addr, err)
		oc.conn.Close()
		oc.conn = nil
	}
	return
}

func (t *TCPTransport) Close() error {
	t.mtx.Lock()
	t.closed = true
	outbound := t.outbound
	listeners := make([]*Listener, 0, len(t.listeners))
	for _, l := range t.listeners {
		listeners = append(listeners, l)
	}
	t.outbound = make(map[string]*outboundConn)
	t.mtx.Unlock()

	for _, oc := range outbound {
		oc.mtx.Lock()
		if oc.conn != nil {
			oc.conn.Close()
			oc.conn = nil
		}
		oc.mtx.Unlock()
	}
	for _, l := range listeners {
		l.Close()
		l.WaitForShutdownToComplete(time.Second)
	}
	return nil
}
