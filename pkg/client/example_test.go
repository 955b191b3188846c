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

package client_test

import (
	"context"
	"fmt"

	"junosi/pkg/client"
	"junosi/pkg/io"
	"junosi/pkg/naming"
	"junosi/test/testutil/mock"
)

func Example() {
	transport := io.NewMemTransport(0)
	defer transport.Close()

	cmConf := mock.DefaultCMConfig
	worker, err := mock.NewWorker(naming.ConflictManagerThread{Ip: "127.0.0.1"}, transport, mock.NewRequestHandler(&cmConf, nil))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer worker.Close()

	var conf client.Config
	conf.SetDefault()
	conf.ClientIp = "127.0.0.1"
	conf.Workers = []string{"127.0.0.1:0"}

	cli, err := client.New(conf, client.WithTransport(transport))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer cli.Close()

	ctx := context.Background()
	if _, err = cli.CommitAsync(ctx, []string{"greeting"}, [][]byte{[]byte("hello")}, 0); err != nil {
		fmt.Println(err)
		return
	}
	worker.Poll()
	for _, r := range cli.ReceiveCommitAsync() {
		if _, err = cli.GetKeyAsync(ctx, "greeting", r.CommitTimestamp); err != nil {
			fmt.Println(err)
			return
		}
	}
	worker.Poll()
	for _, r := range cli.ReceiveAsync() {
		if v, ok, err := client.Value(r, "greeting"); ok {
			fmt.Println(v.Value)
		} else {
			fmt.Println(err)
		}
	}
	// Output: hello
}
