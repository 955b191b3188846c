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

package lattice

import (
	"cmp"

	"github.com/google/btree"
)

type entry[K cmp.Ordered, V any] struct {
	key   K
	chain *VersionChain[V]
}

func keyDescending[K cmp.Ordered, V any](a, b entry[K, V]) bool {
	return a.key > b.key
}

// VersionedMap maps keys, kept in descending order, to version chains.
// It is not safe for concurrent use.
type VersionedMap[K cmp.Ordered, V any] struct {
	tree     *btree.BTreeG[entry[K, V]]
	boundary Boundary
}

type MapOption func(*mapOptions)

type mapOptions struct {
	boundary Boundary
}

// WithSnapshotBoundary sets the boundary used by Lookup and ReadAt.
// The default is Inclusive.
func WithSnapshotBoundary(b Boundary) MapOption {
	return func(o *mapOptions) {
		o.boundary = b
	}
}

func NewVersionedMap[K cmp.Ordered, V any](opts ...MapOption) *VersionedMap[K, V] {
	o := mapOptions{boundary: Inclusive}
	for _, opt := range opts {
		opt(&o)
	}
	return &VersionedMap[K, V]{
		tree:     btree.NewG[entry[K, V]](kBTreeDegree, keyDescending[K, V]),
		boundary: o.boundary,
	}
}

func (m *VersionedMap[K, V]) Boundary() Boundary {
	return m.boundary
}

func (m *VersionedMap[K, V]) Len() int {
	return m.tree.Len()
}

// Size sums the chain size estimates.
func (m *VersionedMap[K, V]) Size() int {
	sz := 0
	m.tree.Ascend(func(e entry[K, V]) bool {
		sz += e.chain.Size()
		return true
	})
	return sz
}

// Get returns the chain stored at k. The chain is owned by the map.
func (m *VersionedMap[K, V]) Get(k K) (*VersionChain[V], bool) {
	e, ok := m.tree.Get(entry[K, V]{key: k})
	if !ok {
		return nil, false
	}
	return e.chain, true
}

func (m *VersionedMap[K, V]) Contains(k K) bool {
	return m.tree.Has(entry[K, V]{key: k})
}

// KeySet returns the keys in descending order.
func (m *VersionedMap[K, V]) KeySet() []K {
	keys := make([]K, 0, m.tree.Len())
	m.tree.Ascend(func(e entry[K, V]) bool {
		keys = append(keys, e.key)
		return true
	})
	return keys
}

// Insert merges chain into the entry at k. The map keeps its own copy.
func (m *VersionedMap[K, V]) Insert(k K, chain *VersionChain[V]) {
	if chain == nil {
		return
	}
	if e, ok := m.tree.Get(entry[K, V]{key: k}); ok {
		e.chain.Merge(chain)
		return
	}
	m.tree.ReplaceOrInsert(entry[K, V]{key: k, chain: chain.Clone()})
}

// Put is shorthand for inserting a single-version chain.
func (m *VersionedMap[K, V]) Put(k K, ts Timestamp, value V) {
	m.Insert(k, NewVersionChain(ts, value))
}

func (m *VersionedMap[K, V]) Remove(k K) bool {
	_, ok := m.tree.Delete(entry[K, V]{key: k})
	return ok
}

// Merge folds every entry of other into m. other is left untouched.
func (m *VersionedMap[K, V]) Merge(other *VersionedMap[K, V]) {
	if other == nil || other == m {
		return
	}
	other.tree.Ascend(func(e entry[K, V]) bool {
		m.Insert(e.key, e.chain)
		return true
	})
}

func (m *VersionedMap[K, V]) Clone() *VersionedMap[K, V] {
	out := &VersionedMap[K, V]{
		tree:     btree.NewG[entry[K, V]](kBTreeDegree, keyDescending[K, V]),
		boundary: m.boundary,
	}
	m.tree.Ascend(func(e entry[K, V]) bool {
		out.tree.ReplaceOrInsert(entry[K, V]{key: e.key, chain: e.chain.Clone()})
		return true
	})
	return out
}

// LookupBefore returns the entry with the greatest key strictly less than
// probe.
func (m *VersionedMap[K, V]) LookupBefore(probe K) (K, *VersionChain[V], bool) {
	return m.lookup(probe, Exclusive)
}

// LookupAtOrBefore returns the entry with the greatest key less than or equal
// to probe.
func (m *VersionedMap[K, V]) LookupAtOrBefore(probe K) (K, *VersionChain[V], bool) {
	return m.lookup(probe, Inclusive)
}

// Lookup applies the boundary configured on the map.
func (m *VersionedMap[K, V]) Lookup(probe K) (K, *VersionChain[V], bool) {
	return m.lookup(probe, m.boundary)
}

func (m *VersionedMap[K, V]) lookup(probe K, b Boundary) (key K, chain *VersionChain[V], found bool) {
	m.tree.AscendGreaterOrEqual(entry[K, V]{key: probe}, func(e entry[K, V]) bool {
		if b == Exclusive && e.key == probe {
			return true
		}
		key, chain, found = e.key, e.chain, true
		return false
	})
	return
}

// ReadAt returns the version of k visible to a reader at snapshot.
func (m *VersionedMap[K, V]) ReadAt(k K, snapshot Timestamp) (Version[V], bool) {
	chain, ok := m.Get(k)
	if !ok {
		return Version[V]{}, false
	}
	return chain.VersionAt(snapshot, m.boundary)
}

// Intersect returns a new map holding, for every key present in both maps,
// the merge of the two chains.
func (m *VersionedMap[K, V]) Intersect(other *VersionedMap[K, V]) *VersionedMap[K, V] {
	out := &VersionedMap[K, V]{
		tree:     btree.NewG[entry[K, V]](kBTreeDegree, keyDescending[K, V]),
		boundary: m.boundary,
	}
	if other == nil {
		return out
	}
	m.tree.Ascend(func(e entry[K, V]) bool {
		if o, ok := other.tree.Get(entry[K, V]{key: e.key}); ok {
			merged := e.chain.Clone()
			merged.Merge(o.chain)
			out.tree.ReplaceOrInsert(entry[K, V]{key: e.key, chain: merged})
		}
		return true
	})
	return out
}

// Project returns a new map with the entries whose current value satisfies
// pred.
func (m *VersionedMap[K, V]) Project(pred func(V) bool) *VersionedMap[K, V] {
	out := &VersionedMap[K, V]{
		tree:     btree.NewG[entry[K, V]](kBTreeDegree, keyDescending[K, V]),
		boundary: m.boundary,
	}
	m.tree.Ascend(func(e entry[K, V]) bool {
		if pred(e.chain.Value()) {
			out.tree.ReplaceOrInsert(entry[K, V]{key: e.key, chain: e.chain.Clone()})
		}
		return true
	})
	return out
}

// Compact applies VersionChain.Compact to every entry and returns the total
// number of versions removed.
func (m *VersionedMap[K, V]) Compact(watermark Timestamp) int {
	n := 0
	m.tree.Ascend(func(e entry[K, V]) bool {
		n += e.chain.Compact(watermark)
		return true
	})
	return n
}

// Range calls fn for every entry in descending key order until fn returns
// false.
func (m *VersionedMap[K, V]) Range(fn func(k K, chain *VersionChain[V]) bool) {
	m.tree.Ascend(func(e entry[K, V]) bool {
		return fn(e.key, e.chain)
	})
}
