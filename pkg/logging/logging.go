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
	"bytes"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
)

type KeyValueBuffer struct {
	bytes.Buffer
	delimiter     byte
	pairDelimiter byte
}

func NewKVBufferForLog() *KeyValueBuffer {
	b := &KeyValueBuffer{
		delimiter:     '=',
		pairDelimiter: ',',
	}
	return b
}

func NewKVBuffer() *KeyValueBuffer {
	b := &KeyValueBuffer{
		pairDelimiter: '&',
		delimiter:     '=',
	}
	return b
}

var (
	logDataKeyOp       []byte = []byte("op")
	logDataKeyStatus   []byte = []byte("st")
	logDataKeyRid      []byte = []byte("rid")
	logDataKeySnapshot []byte = []byte("snapshot")
	logDataKeyKeys     []byte = []byte("keys")
	logDataKeyNumKeys  []byte = []byte("nkeys")
	logDataKeyWorker   []byte = []byte("worker")
	logDataKeyElapsed  []byte = []byte("elapsed")
	logDataKeyCommitTs []byte = []byte("cts")
	logDropReason      []byte = []byte("drop")
	logDataKeyErr      []byte = []byte("err")
)

func (b *KeyValueBuffer) AddBytes(key []byte, value []byte) *KeyValueBuffer {
	if b.Len() > 0 {
		b.WriteByte(b.pairDelimiter)
	}
	b.Write(key)
	b.WriteByte(b.delimiter)
	b.Write(value)
	return b
}

func (b *KeyValueBuffer) Add(key []byte, value string) *KeyValueBuffer {
	if b.Len() > 0 {
		b.WriteByte(b.pairDelimiter)
	}
	b.Write(key)
	b.WriteByte(b.delimiter)
	b.WriteString(value)
	return b
}

func (b *KeyValueBuffer) AddInt(key []byte, value int) *KeyValueBuffer {
	return b.Add(key, strconv.Itoa(value))
}

func (b *KeyValueBuffer) AddUInt64(key []byte, value uint64) *KeyValueBuffer {
	return b.Add(key, strconv.FormatUint(value, 10))
}

func (b *KeyValueBuffer) AddOp(op string) *KeyValueBuffer {
	return b.Add(logDataKeyOp, op)
}

func (b *KeyValueBuffer) AddStatus(st string) *KeyValueBuffer {
	return b.Add(logDataKeyStatus, st)
}

func (b *KeyValueBuffer) AddReqIdString(id string) *KeyValueBuffer {
	return b.Add(logDataKeyRid, id)
}

func (b *KeyValueBuffer) AddSnapshot(ts uint64) *KeyValueBuffer {
	return b.AddUInt64(logDataKeySnapshot, ts)
}

func (b *KeyValueBuffer) AddCommitTimestamp(ts uint64) *KeyValueBuffer {
	return b.AddUInt64(logDataKeyCommitTs, ts)
}

func (b *KeyValueBuffer) AddWorker(worker string) *KeyValueBuffer {
	return b.Add(logDataKeyWorker, worker)
}

func (b *KeyValueBuffer) AddElapsed(d time.Duration) *KeyValueBuffer {
	return b.Add(logDataKeyElapsed, d.String())
}

func (b *KeyValueBuffer) AddDropReason(reason string) *KeyValueBuffer {
	return b.Add(logDropReason, reason)
}

func (b *KeyValueBuffer) AddError(err error) *KeyValueBuffer {
	if err == nil {
		return b
	}
	return b.Add(logDataKeyErr, err.Error())
}

// AddKeys logs the key count and, for short lists, the keys themselves.
func (b *KeyValueBuffer) AddKeys(keys []string) *KeyValueBuffer {
	b.AddInt(logDataKeyNumKeys, len(keys))
	if len(keys) != 0 && len(keys) <= 8 {
		b.Add(logDataKeyKeys, strings.Join(keys, "|"))
	}
	return b
}

func (b *KeyValueBuffer) String() string {
	return b.Buffer.String()
}

var logLevels = map[string]int{
	"error":   0,
	"warning": 0,
	"info":    0,
	"debug":   2,
	"verbose": 4,
}

// InitLogging maps a log level name onto glog flags. Logs go to stderr
// unless -log_dir was given on the command line.
func InitLogging(level string, appName string) error {
	level = strings.ToLower(level)
	if level == "" {
		level = "info"
	}
	v, ok := logLevels[level]
	if !ok {
		return fmt.Errorf("unknown log level %q", level)
	}
	threshold := "INFO"
	switch level {
	case "error":
		threshold = "ERROR"
	case "warning":
		threshold = "WARNING"
	}
	if f := flag.Lookup("log_dir"); f == nil || f.Value.String() == "" {
		flag.Set("logtostderr", "true")
	}
	flag.Set("stderrthreshold", threshold)
	flag.Set("v", strconv.Itoa(v))
	glog.V(1).Infof("%s (pid: %d) logging at %s", appName, os.Getpid(), level)
	return nil
}

func LogManagerStart(appName string) {
	glog.InfoDepth(1, fmt.Sprintf("%s (pid: %d) started", appName, os.Getpid()))
}

func LogManagerExit(appName string) {
	glog.InfoDepth(1, fmt.Sprintf("%s (pid: %d) stopped", appName, os.Getpid()))
}
