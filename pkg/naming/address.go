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
Package naming derives the endpoint addresses of conflict manager workers
and clients, and picks the worker a request is sent to.

Every role listens on a well known port offset by its thread id, so the
address of a thread is a pure function of (ip, tid, role):

	connect: tcp://<ip>:<port+tid>
	bind:    tcp://*:<port+tid>
*/
package naming

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

const (
	CommitPreparePort        = 7200
	CommitPort               = 7250
	CommitBeginPort          = 7300
	KeyVersionRequestPort    = 7350
	KeyRequestPort           = 7400
	ClientKeyGetPort         = 7450
	ClientKeyVersionGetPort  = 7500
	ClientCommitResponsePort = 7550

	kTCPScheme = "tcp://"
	kBindBase  = kTCPScheme + "*:"
)

func connectAddress(ip string, tid uint32, port uint32) string {
	return kTCPScheme + net.JoinHostPort(ip, strconv.FormatUint(uint64(tid+port), 10))
}

func bindAddress(tid uint32, port uint32) string {
	return kBindBase + strconv.FormatUint(uint64(tid+port), 10)
}

// ConflictManagerThread identifies one worker thread of a conflict manager.
type ConflictManagerThread struct {
	Ip  string
	Tid uint32
}

func (t ConflictManagerThread) String() string {
	return fmt.Sprintf("%s:%d", t.Ip, t.Tid)
}

func (t ConflictManagerThread) CommitPrepareConnectAddress() string {
	return connectAddress(t.Ip, t.Tid, CommitPreparePort)
}

func (t ConflictManagerThread) CommitPrepareBindAddress() string {
	return bindAddress(t.Tid, CommitPreparePort)
}

func (t ConflictManagerThread) CommitConnectAddress() string {
	return connectAddress(t.Ip, t.Tid, CommitPort)
}

func (t ConflictManagerThread) CommitBindAddress() string {
	return bindAddress(t.Tid, CommitPort)
}

func (t ConflictManagerThread) CommitBeginConnectAddress() string {
	return connectAddress(t.Ip, t.Tid, CommitBeginPort)
}

func (t ConflictManagerThread) CommitBeginBindAddress() string {
	return bindAddress(t.Tid, CommitBeginPort)
}

func (t ConflictManagerThread) KeyVersionRequestConnectAddress() string {
	return connectAddress(t.Ip, t.Tid, KeyVersionRequestPort)
}

func (t ConflictManagerThread) KeyVersionRequestBindAddress() string {
	return bindAddress(t.Tid, KeyVersionRequestPort)
}

func (t ConflictManagerThread) KeyRequestConnectAddress() string {
	return connectAddress(t.Ip, t.Tid, KeyRequestPort)
}

func (t ConflictManagerThread) KeyRequestBindAddress() string {
	return bindAddress(t.Tid, KeyRequestPort)
}

// ClientThread identifies the reply endpoints of one client thread.
type ClientThread struct {
	Ip  string
	Tid uint32
}

func (t ClientThread) String() string {
	return fmt.Sprintf("%s:%d", t.Ip, t.Tid)
}

func (t ClientThread) KeyGetResponseConnectAddress() string {
	return connectAddress(t.Ip, t.Tid, ClientKeyGetPort)
}

func (t ClientThread) KeyGetResponseBindAddress() string {
	return bindAddress(t.Tid, ClientKeyGetPort)
}

func (t ClientThread) KeyGetVersionResponseConnectAddress() string {
	return connectAddress(t.Ip, t.Tid, ClientKeyVersionGetPort)
}

func (t ClientThread) KeyGetVersionResponseBindAddress() string {
	return bindAddress(t.Tid, ClientKeyVersionGetPort)
}

func (t ClientThread) CommitResponseConnectAddress() string {
	return connectAddress(t.Ip, t.Tid, ClientCommitResponsePort)
}

func (t ClientThread) CommitResponseBindAddress() string {
	return bindAddress(t.Tid, ClientCommitResponsePort)
}

// HostPort strips the scheme of a tcp address. A "*" host becomes the
// wildcard address.
func HostPort(addr string) (string, error) {
	if !strings.HasPrefix(addr, kTCPScheme) {
		return "", fmt.Errorf("unsupported address %q", addr)
	}
	hostport := strings.TrimPrefix(addr, kTCPScheme)
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return "", fmt.Errorf("bad address %q: %w", addr, err)
	}
	if host == "*" {
		host = ""
	}
	return net.JoinHostPort(host, port), nil
}

// ParseWorker parses "ip:tid".
func ParseWorker(s string) (ConflictManagerThread, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return ConflictManagerThread{}, fmt.Errorf("worker %q: expected ip:tid", s)
	}
	tid, err := strconv.ParseUint(s[i+1:], 10, 32)
	if err != nil {
		return ConflictManagerThread{}, fmt.Errorf("worker %q: bad thread id", s)
	}
	return ConflictManagerThread{Ip: s[:i], Tid: uint32(tid)}, nil
}
