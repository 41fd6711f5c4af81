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

package schema_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batchio/batchio/schema"
)

func quoteSchema() *schema.Schema {
	return schema.NewStruct(
		schema.Field{Name: "symbol", Schema: schema.Primitive(schema.String)},
		schema.Field{Name: "close", Schema: schema.Primitive(schema.Double)},
		schema.Field{Name: "date", Schema: schema.Primitive(schema.Timestamp)},
	)
}

func TestSchemaString(t *testing.T) {
	tests := []struct {
		name string
		s    *schema.Schema
		want string
	}{
		{"scalar", schema.Primitive(schema.Long), "bigint"},
		{"struct", quoteSchema(), "struct<symbol:string,close:double,date:timestamp>"},
		{"list", schema.NewList(schema.Primitive(schema.Double)), "array<double>"},
		{"map", schema.NewMap(schema.Primitive(schema.String), schema.Primitive(schema.Long)), "map<string,bigint>"},
		{"union", schema.NewUnion(schema.Primitive(schema.Long), schema.Primitive(schema.String)), "uniontype<bigint,string>"},
		{
			"nested",
			schema.NewStruct(schema.Field{Name: "points", Schema: schema.NewList(schema.NewList(schema.Primitive(schema.Long)))}),
			"struct<points:array<array<bigint>>>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.s.String())
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		"bigint",
		"struct<symbol:string,close:double,date:timestamp>",
		"array<array<bigint>>",
		"map<string,decimal>",
		"uniontype<bigint,string,double>",
		"struct<a:boolean,b:int,c:binary,d:struct<e:timestamp>>",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			s, err := schema.Parse(input)
			require.NoError(t, err)
			assert.Equal(t, input, s.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{
		"",
		"bigfloat",
		"struct<a:bigint",
		"struct<:bigint>",
		"array<>",
		"bigint trailing",
		"map<bigint>",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := schema.Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("map key constraint", func(t *testing.T) {
		s := schema.NewMap(schema.Primitive(schema.Timestamp), schema.Primitive(schema.Long))
		assert.ErrorIs(t, s.Validate(), schema.ErrInvalidSchema)
	})
	t.Run("map value no nesting", func(t *testing.T) {
		s := schema.NewMap(schema.Primitive(schema.String), schema.NewList(schema.Primitive(schema.Long)))
		assert.ErrorIs(t, s.Validate(), schema.ErrInvalidSchema)
	})
	t.Run("duplicate field names", func(t *testing.T) {
		s := schema.NewStruct(
			schema.Field{Name: "a", Schema: schema.Primitive(schema.Long)},
			schema.Field{Name: "a", Schema: schema.Primitive(schema.Double)},
		)
		assert.ErrorIs(t, s.Validate(), schema.ErrInvalidSchema)
	})
	t.Run("struct names and fields disagree", func(t *testing.T) {
		// Only reachable through deserialized input; the constructors
		// keep names and children parallel.
		var s schema.Schema
		err := json.Unmarshal(
			[]byte(`{"kind":"struct","names":["a"],"children":[{"kind":"bigint"},{"kind":"double"}]}`), &s)
		assert.ErrorIs(t, err, schema.ErrInvalidSchema)
	})
	t.Run("valid nested", func(t *testing.T) {
		s, err := schema.Parse("struct<m:map<bigint,timestamp>,u:uniontype<bigint,string>>")
		require.NoError(t, err)
		assert.NoError(t, s.Validate())
	})
}

func TestJSONRoundTrip(t *testing.T) {
	orig := quoteSchema()
	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var decoded schema.Schema
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, schema.Equal(orig, &decoded))
	assert.Equal(t, orig.String(), decoded.String())
}

func TestEqual(t *testing.T) {
	assert.True(t, schema.Equal(quoteSchema(), quoteSchema()))

	renamed := schema.NewStruct(
		schema.Field{Name: "ticker", Schema: schema.Primitive(schema.String)},
		schema.Field{Name: "close", Schema: schema.Primitive(schema.Double)},
		schema.Field{Name: "date", Schema: schema.Primitive(schema.Timestamp)},
	)
	assert.False(t, schema.Equal(quoteSchema(), renamed))
}

func TestStorageFamilies(t *testing.T) {
	assert.Equal(t, schema.LongStorage, schema.Bool.Storage())
	assert.Equal(t, schema.LongStorage, schema.Int.Storage())
	assert.Equal(t, schema.LongStorage, schema.Long.Storage())
	assert.Equal(t, schema.BytesStorage, schema.String.Storage())
	assert.Equal(t, schema.BytesStorage, schema.Binary.Storage())
	assert.Equal(t, schema.TimestampStorage, schema.Date.Storage())
}
