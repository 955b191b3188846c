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

package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCmdT struct {
	Command
	optKey   string
	optCount uint64
	executed bool
}

func (c *testCmdT) Init(name string, desc string) {
	c.Command.Init(name, desc)
	c.StringOption(&c.optKey, "k|key", "", "key to read")
	c.Uint64Option(&c.optCount, "n", 1, "number of reads")
}

func (c *testCmdT) Exec() { c.executed = true }

func TestParseArgs(t *testing.T) {
	c := &testCmdT{}
	c.Init("tget", "test get")
	require.True(t, Register(c))
	assert.False(t, Register(c), "registered once")

	got, args := parseArgs([]string{"-c", "cfg.toml", "tget", "-k", "a", "-n", "3"})
	require.Equal(t, ICommand(c), got)
	assert.Equal(t, []string{"-c", "cfg.toml", "-k", "a", "-n", "3"}, args)

	require.NoError(t, c.Parse([]string{"-key", "a", "-n", "3"}))
	assert.Equal(t, "a", c.optKey)
	assert.Equal(t, uint64(3), c.optCount)

	got, _ = parseArgs([]string{"nothing"})
	assert.Nil(t, got)
}

func TestUsage(t *testing.T) {
	c := &testCmdT{}
	c.Init("tusage", "test usage")
	c.SetSynopsis("-k <key>")
	c.AddExample("tusage -k a", "read a")
	RegisterNewGroup("test group", c)

	var buf bytes.Buffer
	c.Write(&buf)
	out := buf.String()
	assert.Contains(t, out, "tusage - test usage")
	assert.Contains(t, out, "-k, -key string")
	assert.Contains(t, out, "(default 1)")
	assert.Contains(t, out, "read a")

	buf.Reset()
	WriteCommand(&buf)
	assert.Contains(t, buf.String(), "  test group\n    * tusage\n      test usage\n")
}
