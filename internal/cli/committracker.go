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
	"sync"
	"time"

	"github.com/golang/glog"

	"junosi/pkg/logging"
	"junosi/pkg/proto"
)

type pendingCommit struct {
	*pendingEntry
	commitTs uint64
}

func (c *pendingCommit) result(flag proto.CommitError, now time.Time) *CommitResult {
	r := &CommitResult{
		RequestId: c.requestId,
		Keys:      c.keys,
		Error:     flag,
		Elapsed:   now.Sub(c.timeSent),
	}
	if !flag.IsAbort() {
		r.CommitTimestamp = c.commitTs
	}
	return r
}

// PendingCommitTable tracks commits awaiting per-key acknowledgements. An
// abort completes a commit regardless of how many keys were acknowledged.
type PendingCommitTable struct {
	timeout time.Duration

	mtx          sync.Mutex
	requestsSent map[string]*pendingCommit
	pendingQueue expiryQueue
}

func NewPendingCommitTable(timeout time.Duration) *PendingCommitTable {
	return &PendingCommitTable{
		timeout:      timeout,
		requestsSent: make(map[string]*pendingCommit),
	}
}

func (p *PendingCommitTable) Register(rid string, keys []string, now time.Time) error {
	entry, err := newPendingEntry(rid, keys, now, p.timeout)
	if err != nil {
		return err
	}
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if _, found := p.requestsSent[rid]; found {
		return ErrDuplicateRequest
	}
	p.requestsSent[rid] = &pendingCommit{pendingEntry: entry}
	p.pendingQueue = append(p.pendingQueue, entry)
	return nil
}

func (p *PendingCommitTable) Cancel(rid string) bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if _, found := p.requestsSent[rid]; found {
		delete(p.requestsSent, rid)
		return true
	}
	return false
}

func (p *PendingCommitTable) OnResponse(resp *proto.CommitResponse, now time.Time) (*CommitResult, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	c, found := p.requestsSent[resp.ResponseId]
	if !found {
		return nil, ErrUnknownCorrelation
	}
	if resp.Error.IsAbort() {
		delete(p.requestsSent, c.requestId)
		b := logging.NewKVBufferForLog()
		b.AddReqIdString(c.requestId).AddStatus(resp.Error.String()).AddInt([]byte("outstanding"), len(c.outstanding))
		glog.Infof("commit aborted: %s", b)
		return c.result(resp.Error, now), nil
	}
	for _, k := range resp.Keys {
		if c.ack(k) {
			c.commitTs = resp.CommitTimestamp
		} else if glog.V(2) {
			glog.Infof("ignore ack for key not outstanding. rid=%s,key=%s", c.requestId, k)
		}
	}
	if !c.done() {
		return nil, nil
	}
	delete(p.requestsSent, c.requestId)
	return c.result(proto.CommitErrorNone, now), nil
}

// Expire aborts every commit whose deadline is not after now with
// CommitErrorTimeout.
func (p *PendingCommitTable) Expire(now time.Time) (results []*CommitResult) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	for _, entry := range p.pendingQueue.popExpired(now) {
		c, found := p.requestsSent[entry.requestId]
		if !found || c.pendingEntry != entry {
			continue
		}
		delete(p.requestsSent, entry.requestId)
		b := logging.NewKVBufferForLog()
		b.AddOp(OpCommit).AddReqIdString(entry.requestId).
			AddElapsed(now.Sub(entry.timeSent)).AddInt([]byte("outstanding"), len(entry.outstanding))
		glog.Warningf("Timeout <- coordinator: %s", b)
		results = append(results, c.result(proto.CommitErrorTimeout, now))
	}
	return
}

func (p *PendingCommitTable) Contains(rid string) bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	_, found := p.requestsSent[rid]
	return found
}

func (p *PendingCommitTable) Len() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return len(p.requestsSent)
}
