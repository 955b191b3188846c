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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMapKeysDescending(t *testing.T) {
	m := NewVersionedMap[string, Bytes]()
	for _, k := range []string{"b", "d", "a", "c"} {
		m.Put(k, 1, Bytes(k))
	}
	assert.Equal(t, []string{"d", "c", "b", "a"}, m.KeySet())
	assert.True(t, m.Contains("c"))
	assert.False(t, m.Contains("e"))
	assert.Equal(t, 4, m.Len())
}

func TestMapInsertMergesChains(t *testing.T) {
	m := NewVersionedMap[string, Bytes]()
	m.Put("k", 5, Bytes("a"))
	m.Put("k", 9, Bytes("b"))
	m.Put("k", 7, Bytes("c"))

	c, ok := m.Get("k")
	require.True(t, ok)
	assert.Equal(t, Timestamp(9), c.Timestamp())
	assert.Equal(t, []Version[Bytes]{{7, Bytes("c")}, {5, Bytes("a")}}, c.History())
}

func TestMapInsertCopies(t *testing.T) {
	m := NewVersionedMap[string, Bytes]()
	src := NewVersionChain(1, Bytes("x"))
	m.Insert("k", src)
	src.Merge(NewVersionChain(2, Bytes("y")))

	c, _ := m.Get("k")
	assert.Equal(t, Timestamp(1), c.Timestamp())
}

func TestMapMerge(t *testing.T) {
	a := NewVersionedMap[string, Bytes]()
	a.Put("x", 1, Bytes("x1"))
	a.Put("y", 4, Bytes("y4"))
	b := NewVersionedMap[string, Bytes]()
	b.Put("y", 6, Bytes("y6"))
	b.Put("z", 2, Bytes("z2"))

	a.Merge(b)
	assert.Equal(t, []string{"z", "y", "x"}, a.KeySet())
	y, _ := a.Get("y")
	assert.Equal(t, Timestamp(6), y.Timestamp())
	assert.Equal(t, 1, y.HistoryLen())

	// b must not observe changes made through a.
	z, _ := a.Get("z")
	z.Merge(NewVersionChain(3, Bytes("z3")))
	bz, _ := b.Get("z")
	assert.Equal(t, Timestamp(2), bz.Timestamp())
}

func TestMapRemove(t *testing.T) {
	m := NewVersionedMap[string, Bytes]()
	m.Put("k", 1, Bytes("v"))
	assert.True(t, m.Remove("k"))
	assert.False(t, m.Remove("k"))
	assert.False(t, m.Contains("k"))
}

func TestLookupBoundaries(t *testing.T) {
	m := NewVersionedMap[Timestamp, Bytes]()
	for _, ts := range []Timestamp{10, 20, 30} {
		m.Put(ts, ts, val(ts))
	}

	k, _, ok := m.LookupBefore(20)
	require.True(t, ok)
	assert.Equal(t, Timestamp(10), k)

	k, _, ok = m.LookupAtOrBefore(20)
	require.True(t, ok)
	assert.Equal(t, Timestamp(20), k)

	k, _, ok = m.LookupBefore(25)
	require.True(t, ok)
	assert.Equal(t, Timestamp(20), k)

	_, _, ok = m.LookupBefore(10)
	assert.False(t, ok)
	_, _, ok = m.LookupAtOrBefore(9)
	assert.False(t, ok)

	k, _, ok = m.Lookup(20)
	require.True(t, ok)
	assert.Equal(t, Timestamp(20), k, "default boundary is inclusive")

	strict := NewVersionedMap[Timestamp, Bytes](WithSnapshotBoundary(Exclusive))
	strict.Merge(m)
	k, _, ok = strict.Lookup(20)
	require.True(t, ok)
	assert.Equal(t, Timestamp(10), k)
}

func TestLookupBeforeNeverReachesProbe(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := rapid.SliceOf(rapid.Uint64Range(0, 100)).Draw(t, "keys")
		probe := rapid.Uint64Range(0, 110).Draw(t, "probe")

		m := NewVersionedMap[uint64, Bytes]()
		var best uint64
		var exists bool
		for _, k := range keys {
			m.Put(k, 1, Bytes("v"))
			if k < probe && (!exists || k > best) {
				best, exists = k, true
			}
		}
		k, _, ok := m.LookupBefore(probe)
		if ok != exists {
			t.Fatalf("found=%v want %v", ok, exists)
		}
		if ok && (k >= probe || k != best) {
			t.Fatalf("LookupBefore(%d) = %d, want %d", probe, k, best)
		}
	})
}

func TestReadAt(t *testing.T) {
	m := NewVersionedMap[string, Bytes]()
	m.Put("k", 10, Bytes("a"))
	m.Put("k", 20, Bytes("b"))

	v, ok := m.ReadAt("k", 20)
	require.True(t, ok)
	assert.Equal(t, Bytes("b"), v.Value)

	v, ok = m.ReadAt("k", 15)
	require.True(t, ok)
	assert.Equal(t, Bytes("a"), v.Value)

	_, ok = m.ReadAt("k", 5)
	assert.False(t, ok)
	_, ok = m.ReadAt("missing", 100)
	assert.False(t, ok)
}

func TestIntersect(t *testing.T) {
	a := NewVersionedMap[string, Bytes]()
	a.Put("x", 1, Bytes("x1"))
	a.Put("y", 2, Bytes("y2"))
	b := NewVersionedMap[string, Bytes]()
	b.Put("y", 3, Bytes("y3"))
	b.Put("z", 1, Bytes("z1"))

	out := a.Intersect(b)
	assert.Equal(t, []string{"y"}, out.KeySet())
	y, _ := out.Get("y")
	assert.Equal(t, Timestamp(3), y.Timestamp())
	assert.Equal(t, 1, y.HistoryLen())

	ay, _ := a.Get("y")
	assert.Equal(t, Timestamp(2), ay.Timestamp(), "intersect is non destructive")
	assert.Equal(t, 0, ay.HistoryLen())
}

func TestProject(t *testing.T) {
	m := NewVersionedMap[string, Bytes]()
	m.Put("a", 1, Bytes("keep"))
	m.Put("b", 1, Bytes("drop"))
	m.Put("c", 1, Bytes("drop"))
	m.Put("c", 2, Bytes("keep"))

	out := m.Project(func(v Bytes) bool { return bytes.Equal(v, []byte("keep")) })
	assert.Equal(t, []string{"c", "a"}, out.KeySet())
	assert.Equal(t, 3, m.Len())
}

func TestMapCompact(t *testing.T) {
	m := NewVersionedMap[string, Bytes]()
	for _, ts := range []Timestamp{1, 2, 3} {
		m.Put("a", ts, val(ts))
		m.Put("b", ts+10, val(ts+10))
	}
	assert.Equal(t, 2, m.Compact(5))
	a, _ := m.Get("a")
	assert.Equal(t, 0, a.HistoryLen())
	b, _ := m.Get("b")
	assert.Equal(t, 2, b.HistoryLen())
}

func TestMapMergeLaws(t *testing.T) {
	genMap := rapid.Custom(func(t *rapid.T) *VersionedMap[string, Bytes] {
		m := NewVersionedMap[string, Bytes]()
		n := rapid.IntRange(0, 6).Draw(t, "n")
		for i := 0; i < n; i++ {
			k := rapid.SampledFrom([]string{"a", "b", "c", "d"}).Draw(t, "k")
			ts := Timestamp(rapid.Uint64Range(1, 12).Draw(t, "ts"))
			m.Put(k, ts, val(ts))
		}
		return m
	})
	dump := func(m *VersionedMap[string, Bytes]) map[string]chainState {
		out := make(map[string]chainState)
		m.Range(func(k string, c *VersionChain[Bytes]) bool {
			out[k] = stateOf(c)
			return true
		})
		return out
	}
	rapid.Check(t, func(t *rapid.T) {
		a := genMap.Draw(t, "a")
		b := genMap.Draw(t, "b")

		ab := a.Clone()
		ab.Merge(b)
		ba := b.Clone()
		ba.Merge(a)
		if !assert.Equal(t, dump(ab), dump(ba)) {
			t.FailNow()
		}
		aa := a.Clone()
		aa.Merge(a.Clone())
		if !assert.Equal(t, dump(a), dump(aa)) {
			t.FailNow()
		}
	})
}
