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

package batchio

import "errors"

// The unified error taxonomy for marshalling and session operations.
// Every error returned by this package wraps exactly one of these
// sentinels, so callers handle a single failure surface with errors.Is
// regardless of which engine sits underneath.
var (
	// ErrTypeMismatch reports a value whose kind is not accepted by the
	// schema kind of its column.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrArityMismatch reports a struct value whose element count does
	// not equal the schema's field count.
	ErrArityMismatch = errors.New("arity mismatch")
	// ErrUnsupportedType reports a schema kind the write path refuses,
	// such as date columns.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrMapKeyType reports map keys that are heterogeneous or do not
	// match the schema key kind.
	ErrMapKeyType = errors.New("map key type mismatch")
	// ErrMapValueType reports map values that are heterogeneous or do
	// not match the schema value kind.
	ErrMapValueType = errors.New("map value type mismatch")
	// ErrUnionVariant reports a union value whose kind matches none of
	// the schema's declared variants.
	ErrUnionVariant = errors.New("union variant not found")
	// ErrCorruptUnionTag reports a stored union tag outside the
	// schema's variant range.
	ErrCorruptUnionTag = errors.New("corrupt union tag")
	// ErrSchemaMismatch reports a row that does not align with the
	// session schema at the top level.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrEngine wraps failures surfaced by the file engine. Engine
	// errors are never retried or masked.
	ErrEngine = errors.New("engine error")
	// ErrClosed reports use of a session after Close.
	ErrClosed = errors.New("session closed")
)
