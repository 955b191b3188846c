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

// pendingEntry is what both tables keep per request id.
type pendingEntry struct {
	requestId    string
	keys         []string
	outstanding  map[string]struct{}
	timeSent     time.Time
	timeToExpire time.Time
}

func newPendingEntry(rid string, keys []string, now time.Time, timeout time.Duration) (*pendingEntry, error) {
	e := &pendingEntry{
		requestId:    rid,
		keys:         make([]string, 0, len(keys)),
		outstanding:  make(map[string]struct{}, len(keys)),
		timeSent:     now,
		timeToExpire: now.Add(timeout),
	}
	for _, k := range keys {
		if _, dup := e.outstanding[k]; dup {
			continue
		}
		e.outstanding[k] = struct{}{}
		e.keys = append(e.keys, k)
	}
	if len(e.keys) == 0 {
		return nil, ErrNoKeys
	}
	return e, nil
}

// ack removes key from the outstanding set and reports whether it was there.
func (e *pendingEntry) ack(key string) bool {
	if _, found := e.outstanding[key]; found {
		delete(e.outstanding, key)
		return true
	}
	return false
}

func (e *pendingEntry) done() bool {
	return len(e.outstanding) == 0
}

// expiryQueue orders entries by expiry. With a single timeout per table the
// registration order is the expiry order.
type expiryQueue []*pendingEntry

// popExpired pops the leading entries whose deadline is not after now.
func (q *expiryQueue) popExpired(now time.Time) []*pendingEntry {
	queue := *q
	var i int
	for i = 0; i < len(queue); i++ {
		if queue[i].timeToExpire.After(now) {
			break
		}
	}
	if i == 0 {
		return nil
	}
	expired := queue[:i:i]
	*q = queue[i:]
	return expired
}

type pendingOperation struct {
	*pendingEntry
	response *proto.KeyResponse
}

// PendingOperationTable tracks scatter-gather GET or GET_VERSION requests.
// All methods are safe for concurrent use.
type PendingOperationTable struct {
	kind    proto.RequestType
	timeout time.Duration

	mtx          sync.Mutex
	requestsSent map[string]*pendingOperation
	pendingQueue expiryQueue
}

func NewPendingOperationTable(kind proto.RequestType, timeout time.Duration) *PendingOperationTable {
	return &PendingOperationTable{
		kind:         kind,
		timeout:      timeout,
		requestsSent: make(map[string]*pendingOperation),
	}
}

func (p *PendingOperationTable) Kind() proto.RequestType {
	return p.kind
}

// Register records a request before it is sent. keys are deduplicated.
func (p *PendingOperationTable) Register(rid string, keys []string, snapshot uint64, now time.Time) error {
	entry, err := newPendingEntry(rid, keys, now, p.timeout)
	if err != nil {
		return err
	}
	op := &pendingOperation{
		pendingEntry: entry,
		response: &proto.KeyResponse{
			Type:       p.kind,
			ResponseId: rid,
			Snapshot:   snapshot,
			Tuples:     make([]proto.KeyTuple, 0, len(entry.keys)),
		},
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()
	if _, found := p.requestsSent[rid]; found {
		return ErrDuplicateRequest
	}
	p.requestsSent[rid] = op
	p.pendingQueue = append(p.pendingQueue, op.pendingEntry)
	return nil
}

// Cancel forgets rid. Used when the request could not be sent.
func (p *PendingOperationTable) Cancel(rid string) bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if _, found := p.requestsSent[rid]; found {
		delete(p.requestsSent, rid)
		return true
	}
	return false
}

// OnResponse folds one partial reply into its pending operation. It returns
// the completed result when the last outstanding key was answered, nil while
// keys are still outstanding, and ErrUnknownCorrelation for a reply that
// matches no pending operation.
func (p *PendingOperationTable) OnResponse(resp *proto.KeyResponse, now time.Time) (*GetResult, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	op, found := p.requestsSent[resp.ResponseId]
	if !found {
		return nil, ErrUnknownCorrelation
	}
	for i := range resp.Tuples {
		tuple := resp.Tuples[i]
		if !op.ack(tuple.Key) {
			if glog.V(2) {
				glog.Infof("ignore tuple for key not outstanding. rid=%s,key=%s", op.requestId, tuple.Key)
			}
			continue
		}
		if p.kind == proto.RequestTypeGetVersion {
			tuple.LatticeType = proto.LatticeTypeNone
		}
		op.response.Tuples = append(op.response.Tuples, tuple)
	}
	if resp.Error != proto.ResponseErrorNone && op.response.Error == proto.ResponseErrorNone {
		op.response.Error = resp.Error
	}
	if !op.done() {
		return nil, nil
	}
	delete(p.requestsSent, op.requestId)
	return &GetResult{KeyResponse: op.response, Elapsed: now.Sub(op.timeSent)}, nil
}

// Expire finalizes every operation whose deadline is not after now. Keys
// without a reply get a KeyErrorTimeout tuple. Expired entries are removed.
func (p *PendingOperationTable) Expire(now time.Time) (results []*GetResult) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	for _, entry := range p.pendingQueue.popExpired(now) {
		op, found := p.requestsSent[entry.requestId]
		if !found || op.pendingEntry != entry {
			continue
		}
		delete(p.requestsSent, entry.requestId)
		for _, k := range entry.keys {
			if _, outstanding := entry.outstanding[k]; outstanding {
				op.response.Tuples = append(op.response.Tuples, proto.KeyTuple{Key: k, Error: proto.KeyErrorTimeout})
			}
		}
		op.response.Error = proto.ResponseErrorTimeout
		b := logging.NewKVBufferForLog()
		b.AddOp(opName(p.kind)).AddReqIdString(entry.requestId).
			AddElapsed(now.Sub(entry.timeSent)).AddInt([]byte("outstanding"), len(entry.outstanding))
		glog.Warningf("Timeout <- worker: %s", b)
		results = append(results, &GetResult{KeyResponse: op.response, Elapsed: now.Sub(entry.timeSent)})
	}
	return
}

func (p *PendingOperationTable) Contains(rid string) bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	_, found := p.requestsSent[rid]
	return found
}

func (p *PendingOperationTable) Len() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return len(p.requestsSent)
}
