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
	"context"
	"errors"
	"sync"
)

var ErrNoWorker = errors.New("no conflict manager worker available")

// Resolver returns the conflict manager workers currently able to serve
// requests.
type Resolver interface {
	Workers(ctx context.Context) ([]ConflictManagerThread, error)
}

type StaticResolver struct {
	mtx     sync.RWMutex
	workers []ConflictManagerThread
}

func NewStaticResolver(workers ...ConflictManagerThread) *StaticResolver {
	r := &StaticResolver{}
	r.Update(workers)
	return r
}

// NewStaticResolverFromStrings parses "ip:tid" entries.
func NewStaticResolverFromStrings(list []string) (*StaticResolver, error) {
	workers := make([]ConflictManagerThread, 0, len(list))
	for _, s := range list {
		w, err := ParseWorker(s)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return NewStaticResolver(workers...), nil
}

func (r *StaticResolver) Workers(context.Context) ([]ConflictManagerThread, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if len(r.workers) == 0 {
		return nil, ErrNoWorker
	}
	return r.workers, nil
}

// Update replaces the worker list. The slice is copied.
func (r *StaticResolver) Update(workers []ConflictManagerThread) {
	list := make([]ConflictManagerThread, len(workers))
	copy(list, workers)
	r.mtx.Lock()
	r.workers = list
	r.mtx.Unlock()
}
