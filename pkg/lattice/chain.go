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

/*
Package lattice implements the snapshot isolation version chain and the
versioned map built on top of it.

A VersionChain holds the current version of a value and the history of
older versions, newest first. Merging two chains keeps the version with the
highest timestamp as current and the union of every other version as
history, so merge is commutative, associative and idempotent as long as a
timestamp identifies exactly one value.
*/
package lattice

import (
	"fmt"
	"strings"

	"github.com/google/btree"
)

type Timestamp uint64

// MinTimestamp marks a chain that holds no version. It is never stored in
// history.
const MinTimestamp Timestamp = 0

const (
	kBTreeDegree  = 8
	kTimestampLen = 8
)

type Sizer interface {
	Size() int
}

// Bytes is the opaque payload carried by the conflict manager.
type Bytes []byte

func (b Bytes) Size() int { return len(b) }

func (b Bytes) String() string { return string(b) }

type Version[V any] struct {
	Timestamp Timestamp
	Value     V
}

func (v Version[V]) IsSentinel() bool {
	return v.Timestamp == MinTimestamp
}

// Boundary selects whether a snapshot read at S may return a version
// written exactly at S.
type Boundary uint8

const (
	Inclusive Boundary = iota // newest version with ts <= S
	Exclusive                 // newest version with ts < S
)

func (b Boundary) String() string {
	if b == Exclusive {
		return "exclusive"
	}
	return "inclusive"
}

func (b Boundary) admits(ts Timestamp, snapshot Timestamp) bool {
	if b == Exclusive {
		return ts < snapshot
	}
	return ts <= snapshot
}

type VersionChain[V any] struct {
	current Version[V]
	history *btree.BTreeG[Version[V]]
}

func newestFirst[V any](a, b Version[V]) bool {
	return a.Timestamp > b.Timestamp
}

// NewEmptyChain returns a chain holding only the sentinel version.
func NewEmptyChain[V any]() *VersionChain[V] {
	return &VersionChain[V]{
		history: btree.NewG[Version[V]](kBTreeDegree, newestFirst[V]),
	}
}

func NewVersionChain[V any](ts Timestamp, value V) *VersionChain[V] {
	c := NewEmptyChain[V]()
	c.current = Version[V]{Timestamp: ts, Value: value}
	return c
}

// ChainFromVersions builds a chain by merging one single-version chain per
// argument. Sentinel versions are ignored.
func ChainFromVersions[V any](versions ...Version[V]) *VersionChain[V] {
	c := NewEmptyChain[V]()
	for _, v := range versions {
		if v.IsSentinel() {
			continue
		}
		c.Merge(NewVersionChain(v.Timestamp, v.Value))
	}
	return c
}

func (c *VersionChain[V]) Current() Version[V] {
	return c.current
}

func (c *VersionChain[V]) Timestamp() Timestamp {
	return c.current.Timestamp
}

func (c *VersionChain[V]) Value() V {
	return c.current.Value
}

func (c *VersionChain[V]) IsEmpty() bool {
	return c.current.IsSentinel()
}

func (c *VersionChain[V]) HistoryLen() int {
	return c.history.Len()
}

// History returns the older versions, newest first.
func (c *VersionChain[V]) History() []Version[V] {
	out := make([]Version[V], 0, c.history.Len())
	c.history.Ascend(func(v Version[V]) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Versions returns every non-sentinel version, newest first.
func (c *VersionChain[V]) Versions() []Version[V] {
	out := make([]Version[V], 0, c.history.Len()+1)
	if !c.current.IsSentinel() {
		out = append(out, c.current)
	}
	return append(out, c.History()...)
}

// Merge folds incoming into c. incoming is not modified.
func (c *VersionChain[V]) Merge(incoming *VersionChain[V]) {
	if incoming == nil || incoming == c {
		return
	}
	if c.current.Timestamp >= incoming.current.Timestamp {
		c.absorbHistory(incoming)
		c.addHistory(incoming.current)
		return
	}
	demoted := c.current
	c.current = incoming.current
	c.addHistory(demoted)
	c.absorbHistory(incoming)
}

func (c *VersionChain[V]) absorbHistory(from *VersionChain[V]) {
	from.history.Ascend(func(v Version[V]) bool {
		c.addHistory(v)
		return true
	})
}

// addHistory stores v unless it is the sentinel or the current version.
func (c *VersionChain[V]) addHistory(v Version[V]) {
	if v.IsSentinel() || v.Timestamp >= c.current.Timestamp {
		return
	}
	c.history.ReplaceOrInsert(v)
}

func (c *VersionChain[V]) Clone() *VersionChain[V] {
	return &VersionChain[V]{
		current: c.current,
		history: c.history.Clone(),
	}
}

// VersionAt returns the newest version visible to a reader at snapshot.
func (c *VersionChain[V]) VersionAt(snapshot Timestamp, b Boundary) (v Version[V], ok bool) {
	if c.current.IsSentinel() {
		return
	}
	if b.admits(c.current.Timestamp, snapshot) {
		return c.current, true
	}
	c.history.AscendGreaterOrEqual(Version[V]{Timestamp: snapshot}, func(item Version[V]) bool {
		if b.admits(item.Timestamp, snapshot) {
			v, ok = item, true
			return false
		}
		return true
	})
	return
}

// Compact drops history versions no reader at or after watermark can
// observe. The newest version at or below watermark is kept. It returns the
// number of versions removed.
func (c *VersionChain[V]) Compact(watermark Timestamp) int {
	if c.current.Timestamp <= watermark {
		n := c.history.Len()
		c.history.Clear(false)
		return n
	}
	var (
		keptFloor bool
		stale     []Version[V]
	)
	c.history.AscendGreaterOrEqual(Version[V]{Timestamp: watermark}, func(item Version[V]) bool {
		if !keptFloor {
			keptFloor = true
			return true
		}
		stale = append(stale, item)
		return true
	})
	for _, v := range stale {
		c.history.Delete(v)
	}
	return len(stale)
}

func valueSize(v any) int {
	if s, ok := v.(Sizer); ok {
		return s.Size()
	}
	return 0
}

// Size is a storage cost estimate, not an exact byte count.
func (c *VersionChain[V]) Size() int {
	sz := kTimestampLen + valueSize(c.current.Value)
	c.history.Ascend(func(v Version[V]) bool {
		sz += kTimestampLen + valueSize(v.Value)
		return true
	})
	return sz
}

func (c *VersionChain[V]) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "{ts=%d,value=%v", c.current.Timestamp, c.current.Value)
	if c.history.Len() != 0 {
		b.WriteString(",history=[")
		first := true
		c.history.Ascend(func(v Version[V]) bool {
			if !first {
				b.WriteByte(' ')
			}
			first = false
			fmt.Fprintf(&b, "%d:%v", v.Timestamp, v.Value)
			return true
		})
		b.WriteByte(']')
	}
	b.WriteByte('}')
	return b.String()
}
