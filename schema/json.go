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
	"fmt"

	"github.com/goccy/go-json"
)

// jsonNode is the serialized form of one schema tree node. The file
// engine embeds this in file headers, so the encoding must stay stable
// across releases.
type jsonNode struct {
	Kind     string     `json:"kind"`
	Names    []string   `json:"names,omitempty"`
	Children []jsonNode `json:"children,omitempty"`
}

func (s *Schema) toNode() jsonNode {
	n := jsonNode{Kind: s.kind.String(), Names: s.names}
	for _, child := range s.children {
		n.Children = append(n.Children, child.toNode())
	}
	return n
}

func fromNode(n jsonNode) (*Schema, error) {
	kind, ok := kindNames[n.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrParse, n.Kind)
	}
	s := &Schema{kind: kind, names: n.Names}
	for _, child := range n.Children {
		cs, err := fromNode(child)
		if err != nil {
			return nil, err
		}
		s.children = append(s.children, cs)
	}
	return s, nil
}

func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.toNode())
}

func (s *Schema) UnmarshalJSON(data []byte) error {
	var n jsonNode
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	parsed, err := fromNode(n)
	if err != nil {
		return err
	}
	if err := parsed.Validate(); err != nil {
		return err
	}
	*s = *parsed
	return nil
}
