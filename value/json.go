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

package value

import (
	"time"

	"github.com/goccy/go-json"
)

// MarshalJSON renders a Value for diagnostics and logs. This is a
// one-way encoding: unmarshalling is not supported since the schema is
// needed to reconstruct kinds.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case Null:
		return json.Marshal(nil)
	case Bool:
		return json.Marshal(v.Bool())
	case Long:
		return json.Marshal(v.Long())
	case Double:
		return json.Marshal(v.Double())
	case String:
		return json.Marshal(v.Str())
	case Bytes:
		return json.Marshal(v.Bytes())
	case Decimal:
		return json.Marshal(v.dec.Text('f'))
	case Timestamp:
		return json.Marshal(v.ts.Format(time.RFC3339Nano))
	case List, Struct:
		return json.Marshal(v.elems)
	case Map:
		pairs := make([][2]Value, len(v.entries))
		for i, e := range v.entries {
			pairs[i] = [2]Value{e.Key, e.Value}
		}
		return json.Marshal(pairs)
	case Union:
		return json.Marshal(struct {
			Variant string `json:"variant"`
			Value   Value  `json:"value"`
		}{v.utag.String(), *v.uval})
	}
	return json.Marshal(nil)
}
