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
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	kRequestTypeGet requestTypeT = iota
	kRequestTypeGetVersion
	kRequestTypeCommit
	kNumRequestTypes
)

type (
	requestTypeT uint8

	requestStatT struct {
		mtx       sync.Mutex
		hist      *hdrhistogram.Histogram
		numErrors int64
		numAborts int64
	}

	statisticsT struct {
		all      requestStatT
		requests [kNumRequestTypes]requestStatT
		tmStart  time.Time
	}

	statsDataT struct {
		minLatency  time.Duration
		maxLatency  time.Duration
		avgLatency  time.Duration
		p50Latency  time.Duration
		p95Latency  time.Duration
		p99Latency  time.Duration
		numRequests int64
	}
)

func (t requestTypeT) String() string {
	switch t {
	case kRequestTypeGet:
		return "GET"
	case kRequestTypeGetVersion:
		return "GET_VERSION"
	case kRequestTypeCommit:
		return "COMMIT"
	default:
		return "UNKNOWN"
	}
}

func (s *requestStatT) init() {
	s.mtx.Lock()
	if s.hist == nil {
		s.hist = hdrhistogram.New(1, int64(3600*time.Second), 3)
	}
	s.mtx.Unlock()
}

// put records a completed request. aborted commits count separately from
// errors.
func (s *requestStatT) put(tm time.Duration, err error, aborted bool) {
	s.init()
	s.mtx.Lock()
	s.hist.RecordValue(int64(tm))
	if aborted {
		s.numAborts++
	} else if err != nil {
		s.numErrors++
	}
	s.mtx.Unlock()
}

func (s *requestStatT) getStats() (stat statsDataT) {
	s.init()
	s.mtx.Lock()
	defer s.mtx.Unlock()
	stat.numRequests = s.hist.TotalCount()
	stat.minLatency = time.Duration(s.hist.Min())
	stat.maxLatency = time.Duration(s.hist.Max())
	stat.avgLatency = time.Duration(s.hist.Mean())
	stat.p50Latency = time.Duration(s.hist.ValueAtQuantile(50.))
	stat.p95Latency = time.Duration(s.hist.ValueAtQuantile(95.))
	stat.p99Latency = time.Duration(s.hist.ValueAtQuantile(99.))
	return
}

func newStatistics() *statisticsT {
	s := &statisticsT{tmStart: time.Now()}
	s.all.init()
	for i := range s.requests {
		s.requests[i].init()
	}
	return s
}

func (s *statisticsT) put(typ requestTypeT, tm time.Duration, err error, aborted bool) {
	s.all.put(tm, err, aborted)
	s.requests[typ].put(tm, err, aborted)
}

func (s *statisticsT) numRequests() int64 {
	return s.all.getStats().numRequests
}

func (s *statisticsT) prettyPrint(w io.Writer) {
	round := func(d time.Duration) time.Duration {
		return d.Round(time.Microsecond)
	}
	elapsed := time.Since(s.tmStart)

	fmt.Fprintln(w, `
                          request latency                                 |  number of |  number of |  number of |
   average |        min |        max |        50% |        95% |        99% |   requests |     errors |     aborts | request type
-----------+------------+------------+------------+------------+------------+------------+------------+------------+-------------`)
	line := func(stat *statsDataT, rs *requestStatT, reqType string) {
		fmt.Fprintf(w, "%10s %12s %12s %12s %12s %12s %12d %12d %12d   %s\n",
			round(stat.avgLatency), round(stat.minLatency), round(stat.maxLatency),
			round(stat.p50Latency), round(stat.p95Latency), round(stat.p99Latency),
			stat.numRequests, rs.numErrors, rs.numAborts, reqType)
	}
	for i := range s.requests {
		stat := s.requests[i].getStats()
		if stat.numRequests != 0 {
			line(&stat, &s.requests[i], requestTypeT(i).String())
		}
	}
	all := s.all.getStats()
	fmt.Fprintln(w, "-----------+------------+------------+------------+------------+------------+------------+------------+------------+-------------")
	line(&all, &s.all, "All")
	if elapsed > 0 {
		fmt.Fprintf(w, "\n%.2f request/s over %s\n", float64(all.numRequests)/elapsed.Seconds(), round(elapsed))
	}
}
