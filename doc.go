// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package batchio marshals dynamically-typed rows into columnar batches
// and back. A write session encodes one row at a time, an ordered
// sequence of tagged values with one per top-level schema field, into a
// fixed-capacity batch, handing full batches to a columnar file engine.
// A read session walks the engine's batches and reconstructs rows as
// value trees.
//
// The schema is a recursive tree of scalar kinds and List, Struct, Map
// and Union containers (package schema); cells are represented by the
// closed tagged variant of package value; the batch layout lives in
// package colvec. Persistence is delegated to an engine implementing
// the contract in package engine; engine/localfile ships a
// self-contained file engine used by default.
//
//	s, _ := schema.Parse("struct<symbol:string,close:double,date:timestamp>")
//	w, _ := batchio.OpenWriter("quotes.cvb", s)
//	_ = w.WriteRow([]value.Value{
//		value.NewString("AAPL"),
//		value.NewDouble(172.3),
//		value.NewTimestamp(t1),
//	})
//	_ = w.Close()
//
// Sessions are single-threaded by contract: no internal locking is
// provided and concurrent use is undefined behavior. All failures wrap
// one of the package sentinel errors; engine I/O failures propagate
// immediately under ErrEngine and are never retried.
package batchio
