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

package util

import (
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func TestDurationFromToml(t *testing.T) {
	var cfg struct {
		Timeout Duration
	}
	if _, err := toml.Decode(`Timeout = "750ms"`, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Timeout.Duration != 750*time.Millisecond {
		t.Errorf("expected 750ms, got %s", cfg.Timeout)
	}
	text, _ := cfg.Timeout.MarshalText()
	if string(text) != "750ms" {
		t.Errorf("unexpected text %q", text)
	}
	if _, err := toml.Decode(`Timeout = "soon"`, &cfg); err == nil {
		t.Error("expected parse error")
	}
}

func TestManualClock(t *testing.T) {
	start := time.Unix(1000, 0)
	c := NewManualClock(start)
	if !c.Now().Equal(start) {
		t.Fatal("clock moved on its own")
	}
	c.Advance(time.Second)
	if got := c.Now().Sub(start); got != time.Second {
		t.Errorf("expected 1s, got %s", got)
	}
}

func TestMurmur3HashStable(t *testing.T) {
	if Murmur3Hash([]byte("key")) != Murmur3Hash([]byte("key")) {
		t.Error("hash not deterministic")
	}
}

func TestStringListFlags(t *testing.T) {
	var l StringListFlags
	l.Set("10.0.0.1:0")
	l.Set("10.0.0.1:1, 10.0.0.2:0")
	l.Set("10.0.0.1:0")
	if got := l.String(); got != "10.0.0.1:0,10.0.0.1:1,10.0.0.2:0" {
		t.Errorf("unexpected list %q", got)
	}
}
