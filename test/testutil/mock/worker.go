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

package mock

import (
	"context"
	"time"

	"github.com/golang/glog"

	"junosi/pkg/io"
	"junosi/pkg/naming"
	"junosi/pkg/proto"
)

// Worker serves one conflict manager thread over a transport.
type Worker struct {
	Handler *RequestHandler

	self      naming.ConflictManagerThread
	transport io.Transport
	keyRecv   io.Receiver
	verRecv   io.Receiver
	commitRec io.Receiver
	interval  time.Duration
}

// NewWorker binds the key, key version and commit addresses of self.
func NewWorker(self naming.ConflictManagerThread, transport io.Transport, handler *RequestHandler) (w *Worker, err error) {
	w = &Worker{
		Handler:   handler,
		self:      self,
		transport: transport,
		interval:  handler.conf.PollInterval.Duration,
	}
	if w.keyRecv, err = transport.Bind(self.KeyRequestBindAddress()); err != nil {
		return nil, err
	}
	if w.verRecv, err = transport.Bind(self.KeyVersionRequestBindAddress()); err != nil {
		w.Close()
		return nil, err
	}
	if w.commitRec, err = transport.Bind(self.CommitBindAddress()); err != nil {
		w.Close()
		return nil, err
	}
	glog.Infof("fakecm worker %s listening", self)
	return w, nil
}

func (w *Worker) Self() naming.ConflictManagerThread {
	return w.self
}

// Poll serves everything queued and returns the number of requests handled.
func (w *Worker) Poll() (n int) {
	for _, recv := range []io.Receiver{w.keyRecv, w.verRecv} {
		for {
			raw, ok := recv.TryRecv()
			if !ok {
				break
			}
			n++
			msg, err := proto.Decode(raw)
			if err != nil {
				glog.Warningf("fakecm: drop malformed request. %s", err)
				continue
			}
			req, ok := msg.(*proto.KeyRequest)
			if !ok {
				glog.Warningf("fakecm: drop %s on %s", raw.GetMsgType(), recv.Addr())
				continue
			}
			for _, resp := range w.Handler.ProcessKeyRequest(req) {
				w.reply(req.ResponseAddress, resp)
			}
		}
	}
	for {
		raw, ok := w.commitRec.TryRecv()
		if !ok {
			break
		}
		n++
		msg, err := proto.Decode(raw)
		if err != nil {
			glog.Warningf("fakecm: drop malformed commit. %s", err)
			continue
		}
		req, ok := msg.(*proto.CommitRequest)
		if !ok {
			glog.Warningf("fakecm: drop %s on %s", raw.GetMsgType(), w.commitRec.Addr())
			continue
		}
		for _, resp := range w.Handler.ProcessCommit(req) {
			w.reply(req.ClientAddress, resp)
		}
	}
	return
}

func (w *Worker) reply(addr string, msg proto.Message) {
	if err := w.transport.Send(addr, proto.Encode(msg)); err != nil {
		glog.Warningf("fakecm: fail to reply to %s. %s", addr, err)
	}
}

// Run polls until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	compactTicker := time.NewTicker(time.Minute)
	defer compactTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Poll()
		case <-compactTicker.C:
			w.Handler.Compact()
		}
	}
}

func (w *Worker) Close() {
	for _, r := range []io.Receiver{w.keyRecv, w.verRecv, w.commitRec} {
		if r != nil {
			r.Close()
		}
	}
}
