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

package naming

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"junosi/pkg/util"
)

const (
	SelectRandom     = "random"
	SelectRoundRobin = "roundrobin"
	SelectHash       = "hash"
	SelectFirst      = "first"
)

// Selector picks the worker a request goes to. keys are the keys of the
// request, in request order.
type Selector interface {
	Select(workers []ConflictManagerThread, keys []string) (ConflictManagerThread, error)
}

// NewSelector returns the selector registered under policy. ip and tid seed
// the random policy so that threads of one host spread their load.
func NewSelector(policy string, ip string, tid uint32) (Selector, error) {
	switch strings.ToLower(policy) {
	case "", SelectRandom:
		return NewRandomSelector(ip, tid), nil
	case SelectRoundRobin:
		return &RoundRobinSelector{}, nil
	case SelectHash:
		return HashSelector{}, nil
	case SelectFirst:
		return FirstSelector{}, nil
	default:
		return nil, fmt.Errorf("unknown selection policy %q", policy)
	}
}

type RandomSelector struct {
	mtx sync.Mutex
	rnd *rand.Rand
}

func NewRandomSelector(ip string, tid uint32) *RandomSelector {
	seed := time.Now().UnixNano() + int64(util.Murmur3Hash([]byte(ip))) + int64(tid)
	return &RandomSelector{rnd: rand.New(rand.NewSource(seed))}
}

func (s *RandomSelector) Select(workers []ConflictManagerThread, _ []string) (ConflictManagerThread, error) {
	if len(workers) == 0 {
		return ConflictManagerThread{}, ErrNoWorker
	}
	s.mtx.Lock()
	i := s.rnd.Intn(len(workers))
	s.mtx.Unlock()
	return workers[i], nil
}

type RoundRobinSelector struct {
	next atomic.Uint64
}

func (s *RoundRobinSelector) Select(workers []ConflictManagerThread, _ []string) (ConflictManagerThread, error) {
	if len(workers) == 0 {
		return ConflictManagerThread{}, ErrNoWorker
	}
	i := (s.next.Add(1) - 1) % uint64(len(workers))
	return workers[i], nil
}

// HashSelector routes by the murmur3 hash of the first key, so requests
// touching the same leading key land on the same worker while the worker
// list is stable.
type HashSelector struct{}

func (HashSelector) Select(workers []ConflictManagerThread, keys []string) (ConflictManagerThread, error) {
	if len(workers) == 0 {
		return ConflictManagerThread{}, ErrNoWorker
	}
	if len(keys) == 0 {
		return workers[0], nil
	}
	return workers[util.Murmur3Hash([]byte(keys[0]))%uint32(len(workers))], nil
}

// FirstSelector always picks the first worker.
type FirstSelector struct{}

func (FirstSelector) Select(workers []ConflictManagerThread, _ []string) (ConflictManagerThread, error) {
	if len(workers) == 0 {
		return ConflictManagerThread{}, ErrNoWorker
	}
	return workers[0], nil
}
