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
Package proto implements the conflict manager wire protocol.

Message Header

Every message on a connection is a 12-byte header followed by the body

        |0|1|2|3|4|5|6|7|0|1|2|3|4|5|6|7|0|1|2|3|4|5|6|7|0|1|2|3|4|5|6|7|
   byte |              0|              1|              2|              3|
  ------+---------------+---------------+---------------+---------------+
      0 | magic                         | version       | message type  |
  ------+-------------------------------+---------------+---------------+
      4 | message size                                                  |
  ------+---------------------------------------------------------------+
      8 | opaque                                                        |
  ------+---------------------------------------------------------------+

  magic number:
    0x5349
  protocol version:
    1
  message type:
    1: KeyRequest
    2: KeyResponse
    3: CommitRequest
    4: CommitResponse

Message Body

The body is a protobuf encoded message. KeyRequest, KeyTuple and KeyResponse
use the field numbers of the key-value store's request schema, so a body can
be handed to any protobuf runtime that has the schema.

  message KeyTuple {
    string key = 1;
    LatticeType lattice_type = 2;
    KeyError error = 3;
    bytes payload = 4;
    string payload_encoding = 7;  // "" or "Snappy"
  }

  message KeyRequest {
    RequestType type = 1;
    repeated KeyTuple tuples = 2;
    string response_address = 3;
    string request_id = 4;
    uint64 snapshot = 5;
  }

  message KeyResponse {
    RequestType type = 1;
    repeated KeyTuple tuples = 2;
    string response_id = 3;
    ResponseError error = 4;
    uint64 snapshot = 5;
  }

  message CommitRequest {
    CommitType commit_type = 1;
    string request_id = 2;
    string coordinator_address = 3;
    string client_address = 4;
    bytes key_request = 5;        // serialized PUT KeyRequest
    uint64 snapshot = 6;
  }

  message CommitResponse {
    CommitType commit_type = 1;
    string response_id = 2;
    CommitError error = 3;
    repeated string keys = 4;
    uint64 commit_timestamp = 5;
  }

Unknown fields are skipped on decode.
*/
package proto
