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

package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse is wrapped by all Parse failures.
var ErrParse = errors.New("schema parse error")

var kindNames = map[string]Kind{
	"boolean":   Bool,
	"int":       Int,
	"bigint":    Long,
	"double":    Double,
	"string":    String,
	"binary":    Binary,
	"decimal":   Decimal,
	"timestamp": Timestamp,
	"date":      Date,
	"array":     List,
	"struct":    Struct,
	"map":       Map,
	"uniontype": Union,
}

// Parse parses the type notation produced by Schema.String, e.g.
// "struct<symbol:string,close:double>". The result is validated before
// it is returned.
func Parse(input string) (*Schema, error) {
	p := &parser{input: input}
	s, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("%w: trailing input at offset %d in %q", ErrParse, p.pos, input)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

// ident consumes a run of identifier characters: letters, digits and
// underscores.
func (p *parser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != c {
		return fmt.Errorf("%w: expected %q at offset %d in %q", ErrParse, string(c), p.pos, p.input)
	}
	p.pos++
	return nil
}

func (p *parser) peek(c byte) bool {
	p.skipSpace()
	return p.pos < len(p.input) && p.input[p.pos] == c
}

func (p *parser) parseType() (*Schema, error) {
	name := p.ident()
	kind, ok := kindNames[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown type name %q at offset %d", ErrParse, name, p.pos)
	}
	if !kind.IsContainer() {
		return &Schema{kind: kind}, nil
	}

	if err := p.expect('<'); err != nil {
		return nil, err
	}
	s := &Schema{kind: kind}
	for {
		if kind == Struct {
			fieldName := p.ident()
			if fieldName == "" {
				return nil, fmt.Errorf("%w: empty struct field name at offset %d", ErrParse, p.pos)
			}
			if err := p.expect(':'); err != nil {
				return nil, err
			}
			s.names = append(s.names, fieldName)
		}
		child, err := p.parseType()
		if err != nil {
			return nil, err
		}
		s.children = append(s.children, child)
		if p.peek(',') {
			p.pos++
			continue
		}
		break
	}
	if err := p.expect('>'); err != nil {
		return nil, err
	}
	return s, nil
}
