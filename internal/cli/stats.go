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
	"time"

	"junosi/pkg/proto"
)

// StatsRecorder receives the correlation events of a client. It is
// implemented by otel.ClientStats.
type StatsRecorder interface {
	OnDispatch(op string)
	OnComplete(op string, status string, elapsed time.Duration)
	OnDrop(op string, reason string)
}

type nilStats struct{}

func (nilStats) OnDispatch(string)                        {}
func (nilStats) OnComplete(string, string, time.Duration) {}
func (nilStats) OnDrop(string, string)                    {}

// Tables groups the pending tables of one client.
type Tables struct {
	Get        *PendingOperationTable
	GetVersion *PendingOperationTable
	Commit     *PendingCommitTable
}

func NewTables(requestTimeout time.Duration) *Tables {
	return &Tables{
		Get:        NewPendingOperationTable(proto.RequestTypeGet, requestTimeout),
		GetVersion: NewPendingOperationTable(proto.RequestTypeGetVersion, requestTimeout),
		Commit:     NewPendingCommitTable(requestTimeout),
	}
}

func (t *Tables) table(kind proto.RequestType) *PendingOperationTable {
	if kind == proto.RequestTypeGetVersion {
		return t.GetVersion
	}
	return t.Get
}

// Pending reports the number of entries per table.
func (t *Tables) Pending() map[string]int {
	return map[string]int{
		OpGet:        t.Get.Len(),
		OpGetVersion: t.GetVersion.Len(),
		OpCommit:     t.Commit.Len(),
	}
}
