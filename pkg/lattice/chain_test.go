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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type chainState struct {
	Current Version[Bytes]
	History []Version[Bytes]
}

func stateOf(c *VersionChain[Bytes]) chainState {
	return chainState{Current: c.Current(), History: c.History()}
}

func val(ts Timestamp) Bytes {
	return Bytes(fmt.Sprintf("v%d", ts))
}

func chainOf(ts ...Timestamp) *VersionChain[Bytes] {
	versions := make([]Version[Bytes], 0, len(ts))
	for _, t := range ts {
		versions = append(versions, Version[Bytes]{Timestamp: t, Value: val(t)})
	}
	return ChainFromVersions(versions...)
}

func merged(a, b *VersionChain[Bytes]) *VersionChain[Bytes] {
	out := a.Clone()
	out.Merge(b)
	return out
}

// a timestamp always carries the same value, so chains drawn here never
// collide on a timestamp with different payloads.
func genChain() *rapid.Generator[*VersionChain[Bytes]] {
	return rapid.Custom(func(t *rapid.T) *VersionChain[Bytes] {
		ts := rapid.SliceOfN(rapid.Uint64Range(0, 24), 0, 8).Draw(t, "ts")
		stamps := make([]Timestamp, len(ts))
		for i, v := range ts {
			stamps[i] = Timestamp(v)
		}
		return chainOf(stamps...)
	})
}

func TestMergeNewerWins(t *testing.T) {
	a := NewVersionChain(5, Bytes("a"))
	a.Merge(NewVersionChain(9, Bytes("b")))

	assert.Equal(t, Version[Bytes]{Timestamp: 9, Value: Bytes("b")}, a.Current())
	assert.Equal(t, []Version[Bytes]{{Timestamp: 5, Value: Bytes("a")}}, a.History())
}

func TestMergeOlderGoesToHistory(t *testing.T) {
	a := NewVersionChain(9, Bytes("b"))
	a.Merge(NewVersionChain(5, Bytes("a")))

	assert.Equal(t, Timestamp(9), a.Timestamp())
	assert.Equal(t, []Version[Bytes]{{Timestamp: 5, Value: Bytes("a")}}, a.History())
}

func TestMergeSentinelNeverInHistory(t *testing.T) {
	empty := NewEmptyChain[Bytes]()
	empty.Merge(NewVersionChain(3, Bytes("x")))
	assert.Equal(t, 0, empty.HistoryLen())

	c := NewVersionChain(3, Bytes("x"))
	c.Merge(NewEmptyChain[Bytes]())
	assert.Equal(t, 0, c.HistoryLen())
	assert.False(t, c.IsEmpty())
}

func TestMergeKeepsHistoryDescending(t *testing.T) {
	c := chainOf(4, 1, 9, 7, 2)
	var ts []Timestamp
	for _, v := range c.Versions() {
		ts = append(ts, v.Timestamp)
	}
	assert.Equal(t, []Timestamp{9, 7, 4, 2, 1}, ts)
}

func TestMergeLaws(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genChain().Draw(t, "a")
		b := genChain().Draw(t, "b")
		c := genChain().Draw(t, "c")

		if !assert.Equal(t, stateOf(merged(a, b)), stateOf(merged(b, a)), "commutative") {
			t.FailNow()
		}
		if !assert.Equal(t, stateOf(merged(merged(a, b), c)), stateOf(merged(a, merged(b, c))), "associative") {
			t.FailNow()
		}
		if !assert.Equal(t, stateOf(a), stateOf(merged(a, a)), "idempotent") {
			t.FailNow()
		}
	})
}

func TestMergeInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := merged(genChain().Draw(t, "a"), genChain().Draw(t, "b"))
		prev := c.Timestamp()
		for _, v := range c.History() {
			if v.IsSentinel() {
				t.Fatalf("sentinel in history: %s", c)
			}
			if v.Timestamp >= prev {
				t.Fatalf("history not strictly descending below current: %s", c)
			}
			prev = v.Timestamp
		}
	})
}

func TestMergeDoesNotTouchIncoming(t *testing.T) {
	a := chainOf(1, 2)
	b := chainOf(5, 3)
	before := stateOf(b)
	a.Merge(b)
	assert.Equal(t, before, stateOf(b))
}

func TestVersionAt(t *testing.T) {
	c := chainOf(10, 20, 30)
	tests := []struct {
		snapshot Timestamp
		boundary Boundary
		want     Timestamp
		found    bool
	}{
		{35, Inclusive, 30, true},
		{30, Inclusive, 30, true},
		{30, Exclusive, 20, true},
		{25, Exclusive, 20, true},
		{20, Inclusive, 20, true},
		{10, Exclusive, 0, false},
		{10, Inclusive, 10, true},
		{5, Inclusive, 0, false},
	}
	for _, tc := range tests {
		v, ok := c.VersionAt(tc.snapshot, tc.boundary)
		require.Equal(t, tc.found, ok, "snapshot=%d boundary=%s", tc.snapshot, tc.boundary)
		if ok {
			assert.Equal(t, tc.want, v.Timestamp)
			assert.Equal(t, val(tc.want), v.Value)
		}
	}

	_, ok := NewEmptyChain[Bytes]().VersionAt(100, Inclusive)
	assert.False(t, ok)
}

func TestCompact(t *testing.T) {
	c := chainOf(10, 20, 30, 40)
	removed := c.Compact(25)
	assert.Equal(t, 1, removed)

	var ts []Timestamp
	for _, v := range c.Versions() {
		ts = append(ts, v.Timestamp)
	}
	assert.Equal(t, []Timestamp{40, 30, 20}, ts)

	v, ok := c.VersionAt(25, Inclusive)
	require.True(t, ok)
	assert.Equal(t, Timestamp(20), v.Timestamp)

	assert.Equal(t, 2, c.Compact(100))
	assert.Equal(t, 0, c.HistoryLen())
	assert.Equal(t, Timestamp(40), c.Timestamp())
}

func TestCompactPreservesReadsAtOrAfterWatermark(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := genChain().Draw(t, "c")
		watermark := Timestamp(rapid.Uint64Range(0, 24).Draw(t, "watermark"))
		snapshot := watermark + Timestamp(rapid.Uint64Range(0, 10).Draw(t, "delta"))

		before, okBefore := c.VersionAt(snapshot, Inclusive)
		compacted := c.Clone()
		compacted.Compact(watermark)
		after, okAfter := compacted.VersionAt(snapshot, Inclusive)

		if okBefore != okAfter || before.Timestamp != after.Timestamp {
			t.Fatalf("read at %d changed after compacting at %d: %v -> %v", snapshot, watermark, before, after)
		}
	})
}

func TestCloneIsIndependent(t *testing.T) {
	a := chainOf(1, 2)
	b := a.Clone()
	b.Merge(chainOf(3))
	assert.Equal(t, Timestamp(2), a.Timestamp())
	assert.Equal(t, 1, a.HistoryLen())
	assert.Equal(t, 2, b.HistoryLen())
}

func TestSize(t *testing.T) {
	c := NewVersionChain(2, Bytes("abcd"))
	assert.Equal(t, kTimestampLen+4, c.Size())
	c.Merge(NewVersionChain(1, Bytes("xy")))
	assert.Equal(t, 2*kTimestampLen+6, c.Size())
}
