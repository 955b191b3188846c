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
	"bufio"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/golang/glog"

	"junosi/pkg/logging"
	"junosi/pkg/naming"
	"junosi/pkg/proto"
)

// Listener is the pulling end of a TCP address. Every accepted connection
// gets its own reader goroutine feeding one bounded queue.
type Listener struct {
	*queue
	config      Config
	netListener net.Listener
	mtx         sync.Mutex
	activeConns map[net.Conn]struct{}
	wg          sync.WaitGroup
	closeOnce   sync.Once
	chStop      chan struct{}
	onClose     func()
}

func NewListener(addr string, cfg Config) (l *Listener, err error) {
	cfg.SetDefaultIfNotDefined()
	var hostport string
	if hostport, err = naming.HostPort(addr); err != nil {
		return
	}
	var ln net.Listener
	if ln, err = net.Listen("tcp", hostport); err != nil {
		return
	}
	l = &Listener{
		queue:       newQueue(addr, cfg.RecvQueueSize),
		config:      cfg,
		netListener: ln,
		activeConns: make(map[net.Conn]struct{}),
		chStop:      make(chan struct{}),
	}
	l.wg.Add(1)
	go l.acceptLoop()
	return
}

// ListenAddr is the address the listener actually bound, useful when the
// configured port is 0.
func (l *Listener) ListenAddr() net.Addr {
	return l.netListener.Addr()
}

func (l *Listener) NumActiveConnections() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return len(l.activeConns)
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()
	for {
		conn, err := l.netListener.Accept()
		if err != nil {
			select {
			case <-l.chStop:
				return
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			glog.Errorf("accept on %s: %s", l.addr, err)
			return
		}
		if glog.V(2) {
			b := logging.NewKVBufferForLog()
			b.Add([]byte("raddr"), conn.RemoteAddr().String()).Add([]byte("laddr"), conn.LocalAddr().String())
			glog.Infof("accepted %s", b)
		}
		l.mtx.Lock()
		l.activeConns[conn] = struct{}{}
		l.mtx.Unlock()
		l.wg.Add(1)
		go l.serve(conn)
	}
}

func (l *Listener) serve(conn net.Conn) {
	defer l.wg.Done()
	defer func() {
		conn.Close()
		l.mtx.Lock()
		delete(l.activeConns, conn)
		l.mtx.Unlock()
	}()
	reader := bufio.NewReaderSize(conn, l.config.IOBufSize)
	for {
		if l.config.IdleTimeout.Duration > 0 {
			conn.SetReadDeadline(time.Now().Add(l.config.IdleTimeout.Duration))
		}
		msg := &proto.RawMessage{}
		if _, err := msg.Read(reader); err != nil {
			select {
			case <-l.chStop:
			default:
				if errors.Is(err, proto.ErrInvalidMessageHeader) || errors.Is(err, proto.ErrMessageTooLarge) {
					glog.Warningf("bad frame from %s on %s: %s", conn.RemoteAddr(), l.addr, err)
				} else if glog.V(2) {
					glog.Infof("connection from %s on %s closed: %s", conn.RemoteAddr(), l.addr, err)
				}
			}
			return
		}
		if !l.offer(msg) {
			glog.Warningf("drop %s on %s. Likely queue full", msg.GetMsgType(), l.addr)
		}
	}
}

func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.chStop)
		err = l.netListener.Close()
		l.mtx.Lock()
		for c := range l.activeConns {
			c.Close()
		}
		l.mtx.Unlock()
		if l.onClose != nil {
			l.onClose()
		}
	})
	return err
}

// WaitForShutdownToComplete waits for the reader goroutines after Close.
func (l *Listener) WaitForShutdownToComplete(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		glog.Warningf("listener %s: shutdown timed out", l.addr)
		return false
	}
}
