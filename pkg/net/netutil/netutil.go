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

package netutil

import (
	"net"
	"sync"

	"github.com/golang/glog"
)

type localAddrsT struct {
	once sync.Once
	ips  map[string]bool
	ipv4 net.IP
}

var local localAddrsT

func (l *localAddrsT) load() {
	l.once.Do(func() {
		l.ips = make(map[string]bool)
		addrs, err := net.InterfaceAddrs()
		if err != nil {
			glog.Warningf("netutil: cannot list interface addresses: %s", err)
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			l.ips[ipnet.IP.String()] = true
			if l.ipv4 == nil && !ipnet.IP.IsLoopback() {
				l.ipv4 = ipnet.IP.To4()
			}
		}
		if l.ipv4 == nil {
			l.ipv4 = net.IPv4(127, 0, 0, 1).To4()
		}
	})
}

// IsLocalAddress reports whether addr, an IP or a host name, is one of this
// host's interface addresses. The wildcard addresses count as local.
func IsLocalAddress(addr string) bool {
	switch addr {
	case "*", "0.0.0.0", "::":
		return true
	}
	local.load()
	if net.ParseIP(addr) != nil {
		return local.ips[addr]
	}
	ips, err := net.LookupIP(addr)
	if err != nil {
		return false
	}
	for _, ip := range ips {
		if local.ips[ip.String()] {
			return true
		}
	}
	return false
}

// GetLocalIPv4Address returns the first non-loopback IPv4 address, or
// 127.0.0.1 when there is none. A client advertises it in its response
// addresses when no ip is configured.
func GetLocalIPv4Address() net.IP {
	local.load()
	return local.ipv4
}
