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
Package initmgr runs the registered initializers in weight order and
finalizes them in reverse.
*/
package initmgr

import (
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/golang/glog"
)

var (
	initializers initEntriesT
	mtx          sync.Mutex
)

type entryT struct {
	initializer  IInitializer
	weight       int
	args         []interface{}
	initOnce     *sync.Once
	finalizeOnce *sync.Once
	initialized  bool
}

type initEntriesT []entryT

type IInitializer interface {
	Name() string
	Initialize(args ...interface{}) error
	Finalize()
}

func (rs initEntriesT) Len() int {
	return len(rs)
}

func (rs initEntriesT) Less(i, j int) bool {
	return rs[i].weight < rs[j].weight
}

func (rs initEntriesT) Swap(i, j int) {
	rs[i], rs[j] = rs[j], rs[i]
}

// Init initializes everything registered so far. On the first failure the
// already initialized entries are finalized backwards and the error is
// returned.
func Init() (err error) {
	mtx.Lock()
	defer mtx.Unlock()

	sort.Stable(initializers)
	for i := range initializers {
		entry := &initializers[i]
		entry.initOnce.Do(func() {
			name := entry.initializer.Name()
			if err = entry.initializer.Initialize(entry.args...); err == nil {
				entry.initialized = true
				fmt.Fprintf(os.Stderr, "... [ok]   initmgr.initialize %s\n", name)
			} else {
				fmt.Fprintf(os.Stderr, "... [fail] initmgr.initialize %s\t (error: %s)\n", name, err.Error())
				glog.Errorf("initialize %s: %s", name, err)
			}
		})
		if err != nil {
			finalizeBackwardsFrom(i - 1)
			return
		}
	}
	return
}

// HandleSignals finalizes and exits on SIGTERM or SIGINT.
func HandleSignals() {
	signal.Ignore(syscall.SIGPIPE)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "... signal %d (%s) received\n", sig, sig)
		Finalize()
		glog.Flush()
		os.Stderr.Sync()
		os.Exit(0)
	}()
}

func finalizeBackwardsFrom(i int) {
	for ; i >= 0; i-- {
		entry := &initializers[i]
		if !entry.initialized {
			continue
		}
		entry.finalizeOnce.Do(func() {
			name := entry.initializer.Name()
			fmt.Fprintf(os.Stderr, "... initmgr.finalize %s\n", name)
			entry.initializer.Finalize()
		})
	}
}

func Finalize() {
	mtx.Lock()
	defer mtx.Unlock()
	finalizeBackwardsFrom(len(initializers) - 1)
}

func Register(rc IInitializer, args ...interface{}) {
	RegisterWithWeight(rc, len(initializers), args...)
}

func RegisterWithFuncs(initializeFunc func(args ...interface{}) error, finalizeFunc func(), args ...interface{}) {
	Register(NewInitializer(initializeFunc, finalizeFunc), args...)
}

func RegisterWithWeight(rc IInitializer, weight int, args ...interface{}) {
	mtx.Lock()
	defer mtx.Unlock()
	initializers = append(initializers, entryT{
		initializer:  rc,
		weight:       weight,
		args:         args,
		initOnce:     &sync.Once{},
		finalizeOnce: &sync.Once{},
	})
}

// Reset drops all registrations.
func Reset() {
	mtx.Lock()
	defer mtx.Unlock()
	initializers = nil
}

type Initializer struct {
	name           string
	InitializeFunc func(args ...interface{}) error
	FinalizeFunc   func()
}

func (i *Initializer) Name() string {
	return i.name
}

func (i *Initializer) Initialize(args ...interface{}) (err error) {
	if i.InitializeFunc != nil {
		if err = i.InitializeFunc(args...); err != nil {
			return
		}
	}
	return
}

func (i *Initializer) Finalize() {
	if i.FinalizeFunc != nil {
		i.FinalizeFunc()
	}
}

func NewInitializer(initializeFunc func(args ...interface{}) error, finalizeFunc func()) IInitializer {
	name := runtime.FuncForPC(reflect.ValueOf(initializeFunc).Pointer()).Name()
	i := strings.LastIndex(name, ".")
	if i == -1 {
		name = "unknown package"
	} else {
		name = name[0:i]
	}
	return &Initializer{name, initializeFunc, finalizeFunc}
}
