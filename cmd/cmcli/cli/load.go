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

package cli

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/golang/glog"

	"junosi/pkg/client"
)

type (
	cmdLoadT struct {
		clientCommandT

		optNumRequests uint
		optNumKeys     uint
		optValueLen    uint
		optGetRatio    uint
		optWindow      uint
	}

	outstandingT struct {
		typ   requestTypeT
		start time.Time
	}
)

func (c *cmdLoadT) Init(name string, desc string) {
	c.clientCommandT.Init(name, desc)
	c.UintOption(&c.optNumRequests, "n|num-requests", 10000, "specify the number of requests")
	c.UintOption(&c.optNumKeys, "k|num-keys", 1000, "specify the size of the key space")
	c.UintOption(&c.optValueLen, "l|value-len", 64, "specify the value length")
	c.UintOption(&c.optGetRatio, "r|get-ratio", 80, "specify the percentage of GET requests, the rest are commits")
	c.UintOption(&c.optWindow, "window", 100, "specify the maximum number of outstanding requests")
	c.SetSynopsis("[option]")
}

func (c *cmdLoadT) Parse(args []string) (err error) {
	if err = c.clientCommandT.Parse(args); err != nil {
		return
	}
	if c.optNumKeys == 0 || c.optWindow == 0 {
		err = fmt.Errorf("num-keys and window must be positive")
	}
	if c.optGetRatio > 100 {
		err = fmt.Errorf("get-ratio must be within [0, 100]")
	}
	return
}

func (c *cmdLoadT) Exec() {
	c.Validate()
	cli := c.newClient()
	defer cli.Close()

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	value := make([]byte, c.optValueLen)
	rnd.Read(value)

	stats := newStatistics()
	outstanding := make(map[string]outstandingT, c.optWindow)
	ctx := context.Background()
	var sent uint

	for sent < c.optNumRequests || len(outstanding) != 0 {
		for sent < c.optNumRequests && uint(len(outstanding)) < c.optWindow {
			sent++
			key := fmt.Sprintf("key_%06d", rnd.Intn(int(c.optNumKeys)))
			snapshot := uint64(time.Now().UnixMicro())
			typ := kRequestTypeCommit
			var rid string
			var err error
			if uint(rnd.Intn(100)) < c.optGetRatio {
				typ = kRequestTypeGet
				rid, err = cli.GetKeyAsync(ctx, key, snapshot)
			} else {
				rid, err = cli.CommitAsync(ctx, []string{key}, [][]byte{value}, snapshot)
			}
			if err != nil {
				glog.Warningf("dispatch %s: %s", typ, err)
				stats.put(typ, 0, err, false)
				continue
			}
			outstanding[rid] = outstandingT{typ: typ, start: time.Now()}
		}

		progressed := false
		for _, r := range cli.ReceiveAsync() {
			if o, ok := outstanding[r.ResponseId]; ok {
				delete(outstanding, r.ResponseId)
				stats.put(o.typ, time.Since(o.start), r.Err(), false)
				progressed = true
			}
		}
		for _, r := range cli.ReceiveCommitAsync() {
			if o, ok := outstanding[r.RequestId]; ok {
				delete(outstanding, r.RequestId)
				stats.put(o.typ, time.Since(o.start), r.Err(), r.Aborted() && r.Err() != client.ErrTimeout)
				progressed = true
			}
		}
		if !progressed {
			time.Sleep(kPollInterval)
		}
	}
	stats.prettyPrint(os.Stdout)
}
