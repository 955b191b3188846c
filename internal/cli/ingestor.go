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
	"github.com/golang/glog"

	"junosi/pkg/io"
	"junosi/pkg/logging"
	"junosi/pkg/logging/otel"
	"junosi/pkg/proto"
	"junosi/pkg/util"
)

const DefaultMaxDrainPerPoll = 1024

type IngestorConfig struct {
	GetReceiver        io.Receiver
	GetVersionReceiver io.Receiver
	CommitReceiver     io.Receiver
	Clock              util.Clock
	Stats              StatsRecorder
	MaxDrainPerPoll    int
}

// Ingestor turns inbound replies into completed results. Each poll drains the
// inbound queues without blocking, then runs the timeout sweep.
type Ingestor struct {
	IngestorConfig
	tables *Tables
}

func NewIngestor(cfg IngestorConfig, tables *Tables) *Ingestor {
	if cfg.Clock == nil {
		cfg.Clock = util.SystemClock{}
	}
	if cfg.Stats == nil {
		cfg.Stats = nilStats{}
	}
	if cfg.MaxDrainPerPoll <= 0 {
		cfg.MaxDrainPerPoll = DefaultMaxDrainPerPoll
	}
	return &Ingestor{IngestorConfig: cfg, tables: tables}
}

// PollKeys returns the GET and GET_VERSION operations completed or timed out
// in this cycle.
func (g *Ingestor) PollKeys() (results []*GetResult) {
	results = g.drainKeys(g.GetReceiver, g.tables.Get, results)
	results = g.drainKeys(g.GetVersionReceiver, g.tables.GetVersion, results)

	now := g.Clock.Now()
	for _, table := range []*PendingOperationTable{g.tables.Get, g.tables.GetVersion} {
		for _, r := range table.Expire(now) {
			g.Stats.OnComplete(opName(table.Kind()), otel.StatusTimeout, r.Elapsed)
			results = append(results, r)
		}
	}
	return
}

// PollCommits returns the commits completed, aborted or timed out in this
// cycle.
func (g *Ingestor) PollCommits() (results []*CommitResult) {
	if g.CommitReceiver != nil {
		for i := 0; i < g.MaxDrainPerPoll; i++ {
			raw, ok := g.CommitReceiver.TryRecv()
			if !ok {
				break
			}
			resp, ok := g.decode(raw, OpCommit).(*proto.CommitResponse)
			if !ok {
				continue
			}
			r, err := g.tables.Commit.OnResponse(resp, g.Clock.Now())
			if err != nil {
				g.onUnknown(OpCommit, resp.ResponseId)
				continue
			}
			if r != nil {
				g.Stats.OnComplete(OpCommit, r.status(), r.Elapsed)
				results = append(results, r)
			}
		}
	}
	for _, r := range g.tables.Commit.Expire(g.Clock.Now()) {
		g.Stats.OnComplete(OpCommit, otel.StatusTimeout, r.Elapsed)
		results = append(results, r)
	}
	return
}

func (g *Ingestor) drainKeys(recv io.Receiver, table *PendingOperationTable, results []*GetResult) []*GetResult {
	if recv == nil {
		return results
	}
	op := opName(table.Kind())
	for i := 0; i < g.MaxDrainPerPoll; i++ {
		raw, ok := recv.TryRecv()
		if !ok {
			break
		}
		resp, ok := g.decode(raw, op).(*proto.KeyResponse)
		if !ok {
			continue
		}
		r, err := table.OnResponse(resp, g.Clock.Now())
		if err != nil {
			g.onUnknown(op, resp.ResponseId)
			continue
		}
		if r != nil {
			g.Stats.OnComplete(op, r.status(), r.Elapsed)
			results = append(results, r)
		}
	}
	return results
}

// decode returns nil for a message that cannot be decoded or that has the
// wrong type for the channel it came in on.
func (g *Ingestor) decode(raw *proto.RawMessage, op string) proto.Message {
	msg, err := proto.Decode(raw)
	if err == nil {
		switch msg.(type) {
		case *proto.KeyResponse:
			if op != OpCommit {
				return msg
			}
		case *proto.CommitResponse:
			if op == OpCommit {
				return msg
			}
		}
		err = ErrMalformedMessage
	}
	b := logging.NewKVBufferForLog()
	b.AddOp(op).Add([]byte("type"), raw.GetMsgType().String()).AddError(err)
	glog.Warningf("drop malformed reply: %s", b)
	g.Stats.OnDrop(op, otel.DropMalformed)
	return nil
}

func (g *Ingestor) onUnknown(op string, rid string) {
	b := logging.NewKVBufferForLog()
	b.AddOp(op).AddReqIdString(rid).AddDropReason(otel.DropUnknownCorrelation)
	glog.Warningf("Request does not exist: %s", b)
	g.Stats.OnDrop(op, otel.DropUnknownCorrelation)
}
