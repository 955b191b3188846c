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

package logging

import (
	"errors"
	"testing"
	"time"
)

func TestKeyValueBufferForLog(t *testing.T) {
	b := NewKVBufferForLog()
	b.AddOp("GET").AddReqIdString("3_10.0.0.1:0").AddSnapshot(42).AddKeys([]string{"a", "b"})
	expected := "op=GET,rid=3_10.0.0.1:0,snapshot=42,nkeys=2,keys=a|b"
	if s := b.String(); s != expected {
		t.Errorf("expected %q, got %q", expected, s)
	}
}

func TestKeyValueBuffer(t *testing.T) {
	b := NewKVBuffer()
	b.AddStatus("TIMEOUT").AddElapsed(1500 * time.Millisecond).AddError(nil).AddError(errors.New("boom"))
	expected := "st=TIMEOUT&elapsed=1.5s&err=boom"
	if s := b.String(); s != expected {
		t.Errorf("expected %q, got %q", expected, s)
	}
}

func TestAddKeysLongList(t *testing.T) {
	keys := make([]string, 20)
	for i := range keys {
		keys[i] = "k"
	}
	b := NewKVBufferForLog().AddKeys(keys)
	if s := b.String(); s != "nkeys=20" {
		t.Errorf("unexpected %q", s)
	}
}

func TestInitLogging(t *testing.T) {
	if err := InitLogging("debug", "test"); err != nil {
		t.Error(err)
	}
	if err := InitLogging("chatty", "test"); err == nil {
		t.Error("expected error for unknown level")
	}
}
