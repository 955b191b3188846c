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
	"github.com/pkg/errors"
)

type IRetryable interface {
	Retryable() bool
}

type Error struct {
	What string
}

func (e *Error) Retryable() bool { return false }

type RetryableError struct {
	What string
}

func (e *RetryableError) Retryable() bool { return true }

func (e *Error) Error() string {
	return "error: " + e.What
}

func (e *RetryableError) Error() string {
	return "error: " + e.What
}

func NewErrorWithString(err string) *Error {
	return &Error{err}
}

var (
	ErrUnknownCorrelation = &Error{"unknown correlation id"}
	ErrDuplicateRequest   = &Error{"duplicate request id"}
	ErrMalformedMessage   = &Error{"malformed message"}
	ErrNoKeys             = &Error{"no keys"}
	ErrBadParam           = &Error{"bad parameter"}
	ErrClosed             = &Error{"client closed"}

	ErrTimeout     = &RetryableError{"request timeout"}
	ErrRemoteAbort = &RetryableError{"remote abort"}
	ErrNoWorker    = &RetryableError{"no worker available"}
	ErrSendFailed  = &RetryableError{"send failed"}
)

// IsRetryable reports whether the caller may re-dispatch after err.
func IsRetryable(err error) bool {
	var r IRetryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}
