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

package client

import (
	"junosi/internal/cli"
)

// Errors returned by dispatch calls or reported by a completed result.
var (
	ErrNoKeys     error = cli.ErrNoKeys     // request without keys
	ErrBadParam   error = cli.ErrBadParam   // commit keys and payloads do not match
	ErrClosed     error = cli.ErrClosed     // client has been closed
	ErrNoWorker   error = cli.ErrNoWorker   // no conflict manager worker known
	ErrSendFailed error = cli.ErrSendFailed // transport refused the request

	ErrTimeout     error = cli.ErrTimeout     // not all replies arrived within the request timeout
	ErrRemoteAbort error = cli.ErrRemoteAbort // the coordinator aborted the commit

	// logged and counted, never returned to a caller
	ErrUnknownCorrelation error = cli.ErrUnknownCorrelation
	ErrMalformedMessage   error = cli.ErrMalformedMessage
	ErrDuplicateRequest   error = cli.ErrDuplicateRequest
)

// IsRetryable reports whether an operation that failed with err may be
// dispatched again. Nothing is retried automatically.
func IsRetryable(err error) bool {
	return cli.IsRetryable(err)
}
