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

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"

	"junosi/pkg/client"
	"junosi/pkg/cmd"
	"junosi/pkg/initmgr"
	"junosi/pkg/logging"
	"junosi/pkg/logging/otel"
	"junosi/pkg/util"
)

const (
	kClientAppName  = "cmcli"
	kPollInterval   = time.Millisecond
)

type (
	clientCommandT struct {
		cmd.Command
		client.Config

		optLogLevel string
		optCfgFile  string
		optClientIp string
		optTid      uint
		optTimeout  time.Duration
		optPolicy   string
		optSnapshot uint64
		optWorkers  util.StringListFlags
	}

	cmdGetT struct {
		clientCommandT
		keys []string
	}

	cmdGetVersionT struct {
		clientCommandT
		keys []string
	}

	cmdCommitT struct {
		clientCommandT
		keys   []string
		values [][]byte
	}
)

func (c *clientCommandT) Init(name string, desc string) {
	c.Command.Init(name, desc)
	c.Config.SetDefault()

	c.StringOption(&c.optCfgFile, "c|config", "", "specify toml configuration file name")
	c.StringOption(&c.optLogLevel, "log-level", "warning", "specify log level")
	c.StringOption(&c.optClientIp, "ip", "127.0.0.1", "specify the ip replies are sent to")
	c.UintOption(&c.optTid, "tid", 0, "specify the client thread id")
	c.DurationOption(&c.optTimeout, "t|timeout", 0, "specify request timeout, e.g. 500ms. 0 keeps the configured one")
	c.StringOption(&c.optPolicy, "policy", "", "specify worker selection policy. random|roundrobin|hash|first")
	c.ValueOption(&c.optWorkers, "w|worker", "specify a conflict manager worker as ip:tid. repeatable")
	c.Uint64Option(&c.optSnapshot, "s|snapshot", 0, "specify the snapshot timestamp. 0 means now in microseconds")
	c.SetSynopsis("[option] <key> ...")
}

func (c *clientCommandT) Parse(args []string) (err error) {
	if err = c.Command.Parse(args); err != nil {
		return
	}
	if len(c.optCfgFile) != 0 {
		var conf *client.Config
		if conf, err = client.LoadConfig(c.optCfgFile); err != nil {
			return fmt.Errorf("failed to load config file %s. %s", c.optCfgFile, err)
		}
		c.Config = *conf
	}
	if err = logging.InitLogging(c.optLogLevel, kClientAppName); err != nil {
		return
	}

	if c.ClientIp == "" {
		c.ClientIp = c.optClientIp
	}
	if c.optTid != 0 {
		c.ClientTid = uint32(c.optTid)
	}
	if c.optTimeout != 0 {
		c.RequestTimeout.Duration = c.optTimeout
	}
	if c.optPolicy != "" {
		c.SelectionPolicy = c.optPolicy
	}
	if len(c.optWorkers) != 0 {
		c.Workers = c.optWorkers
	}
	if c.optSnapshot == 0 {
		c.optSnapshot = uint64(time.Now().UnixMicro())
	}
	if c.Otel.Enabled {
		if c.Otel.Poolname == "" {
			c.Otel.Poolname = kClientAppName
		}
		initmgr.RegisterWithFuncs(otel.Initialize, otel.Finalize, &c.Otel)
		err = initmgr.Init()
	}
	return
}

func (c *clientCommandT) newClient() client.IClient {
	cli, err := client.New(c.Config)
	if err != nil {
		glog.Exitf("failed to create client. %s", err)
	}
	return cli
}

// waitKeys polls until rid completes. The client's timeout sweep bounds the
// wait.
func waitKeys(cli client.IClient, rid string) *client.GetResult {
	for {
		for _, r := range cli.ReceiveAsync() {
			if r.ResponseId == rid {
				return r
			}
		}
		time.Sleep(kPollInterval)
	}
}

func waitCommit(cli client.IClient, rid string) *client.CommitResult {
	for {
		for _, r := range cli.ReceiveCommitAsync() {
			if r.RequestId == rid {
				return r
			}
		}
		time.Sleep(kPollInterval)
	}
}

func (c *clientCommandT) isOk(err error) bool {
	if err == nil {
		fmt.Printf("* command '%s' successful\n", c.GetName())
		return true
	}
	fmt.Printf("* command '%s' failed: %s\n", c.GetName(), err)
	return false
}

func (c *clientCommandT) keyArgs() ([]string, error) {
	if c.NArg() < 1 {
		return nil, fmt.Errorf("missing key")
	}
	return c.Args(), nil
}

func (c *cmdGetT) Parse(args []string) (err error) {
	if err = c.clientCommandT.Parse(args); err == nil {
		c.keys, err = c.keyArgs()
	}
	return
}

func (c *cmdGetT) Exec() {
	c.Validate()
	cli := c.newClient()
	defer cli.Close()

	rid, err := cli.GetKeysAsync(context.Background(), c.keys, c.optSnapshot)
	if !c.isOk(err) {
		return
	}
	r := waitKeys(cli, rid)
	fmt.Printf("rid=%s snapshot=%d elapsed=%s\n", rid, c.optSnapshot, r.Elapsed)
	for _, key := range c.keys {
		v, ok, err := client.Value(r, key)
		switch {
		case err != nil:
			fmt.Printf("  %s: %s\n", key, err)
		case !ok:
			fmt.Printf("  %s: not found\n", key)
		default:
			fmt.Printf("  %s: ts=%d value=%q\n", key, v.Timestamp, v.Value.String())
		}
	}
	c.isOk(r.Err())
}

func (c *cmdGetVersionT) Parse(args []string) (err error) {
	if err = c.clientCommandT.Parse(args); err == nil {
		c.keys, err = c.keyArgs()
	}
	return
}

func (c *cmdGetVersionT) Exec() {
	c.Validate()
	cli := c.newClient()
	defer cli.Close()

	rid, err := cli.GetKeyVersionsAsync(context.Background(), c.keys, c.optSnapshot)
	if !c.isOk(err) {
		return
	}
	r := waitKeys(cli, rid)
	for _, key := range c.keys {
		ts, ok, err := client.Timestamp(r, key)
		switch {
		case err != nil:
			fmt.Printf("  %s: %s\n", key, err)
		case !ok:
			fmt.Printf("  %s: not found\n", key)
		default:
			fmt.Printf("  %s: ts=%d\n", key, ts)
		}
	}
	c.isOk(r.Err())
}

func (c *cmdCommitT) Init(name string, desc string) {
	c.clientCommandT.Init(name, desc)
	c.SetSynopsis("[option] <key> <value> [<key> <value>] ...")
}

func (c *cmdCommitT) Parse(args []string) (err error) {
	if err = c.clientCommandT.Parse(args); err != nil {
		return
	}
	n := c.NArg()
	if n == 0 || n%2 != 0 {
		return fmt.Errorf("expect key value pairs")
	}
	for i := 0; i < n; i += 2 {
		c.keys = append(c.keys, c.Arg(i))
		c.values = append(c.values, []byte(c.Arg(i+1)))
	}
	return
}

func (c *cmdCommitT) Exec() {
	c.Validate()
	cli := c.newClient()
	defer cli.Close()

	rid, err := cli.CommitAsync(context.Background(), c.keys, c.values, c.optSnapshot)
	if !c.isOk(err) {
		return
	}
	r := waitCommit(cli, rid)
	fmt.Fprintln(os.Stdout, r)
	c.isOk(r.Err())
}

func init() {
	get := &cmdGetT{}
	get.Init("get", "read keys at a snapshot")

	getver := &cmdGetVersionT{}
	getver.Init("getver", "read the version timestamps of keys at a snapshot")

	commit := &cmdCommitT{}
	commit.Init("commit", "commit key value pairs in one transaction")

	load := &cmdLoadT{}
	load.Init("load", "drive a mixed get/commit workload and report latency")

	cmd.RegisterNewGroup("conflict manager commands", get, getver, commit, load)
}
