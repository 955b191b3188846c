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

package initmgr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitOrderAndFinalize(t *testing.T) {
	Reset()
	defer Reset()

	var trace []string
	record := func(name string, fail bool) IInitializer {
		return &Initializer{
			name: name,
			InitializeFunc: func(args ...interface{}) error {
				trace = append(trace, "init "+name)
				if fail {
					return errors.New("boom")
				}
				return nil
			},
			FinalizeFunc: func() { trace = append(trace, "fin "+name) },
		}
	}
	RegisterWithWeight(record("b", false), 2)
	RegisterWithWeight(record("a", false), 1)
	RegisterWithWeight(record("c", false), 3)

	require.NoError(t, Init())
	Finalize()
	Finalize()
	assert.Equal(t, []string{"init a", "init b", "init c", "fin c", "fin b", "fin a"}, trace)
}

func TestInitFailureUnwinds(t *testing.T) {
	Reset()
	defer Reset()

	var finalized []string
	RegisterWithFuncs(func(...interface{}) error { return nil }, func() { finalized = append(finalized, "first") })
	RegisterWithFuncs(func(...interface{}) error { return errors.New("boom") }, func() { finalized = append(finalized, "second") })
	RegisterWithFuncs(func(...interface{}) error { return nil }, func() { finalized = append(finalized, "third") })

	assert.Error(t, Init())
	assert.Equal(t, []string{"first"}, finalized)
}

func TestInitializerArgs(t *testing.T) {
	Reset()
	defer Reset()

	var got []interface{}
	RegisterWithFuncs(func(args ...interface{}) error {
		got = args
		return nil
	}, nil, "cluster", 3)
	require.NoError(t, Init())
	assert.Equal(t, []interface{}{"cluster", 3}, got)
	assert.Contains(t, initializers[0].initializer.Name(), "junosi/pkg/initmgr")
}
