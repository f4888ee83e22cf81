// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utxoengine

import "fmt"

// Capabilities is the function-record the planner depends on in place of a
// coin-specific inheritance chain. A chain adapter supplies one instance;
// the planner never branches on coin identity itself.
type Capabilities struct {
	ValidateAddress func(address string) bool
	DeriveAddress   func(index uint32) (string, error)
	SerializePlan   Serializer
}

// Builder assembles a Plan's serialized forms after selection and change
// splitting have produced its numeric shape. Mutation is local to the
// builder; Build consumes it once and returns an immutable Plan, matching
// the spec's guidance against exposing partial plans.
type Builder struct {
	plan *Plan
	caps Capabilities
	used bool
}

// NewBuilder wraps a freshly-planned Plan for serialization. plan must not
// be reused after being passed in.
func NewBuilder(plan *Plan, caps Capabilities) *Builder {
	return &Builder{plan: plan, caps: caps}
}

// Build serializes the plan via the injected Capabilities.SerializePlan
// and returns the final immutable Plan. It may be called only once per
// Builder.
func (b *Builder) Build() (*Plan, error) {
	if b.used {
		return nil, fmt.Errorf("utxoengine: builder already consumed")
	}
	b.used = true

	if b.caps.SerializePlan == nil {
		return b.plan, nil
	}
	hexBytes, txid, err := b.caps.SerializePlan.Serialize(b.plan)
	if err != nil {
		return nil, fmt.Errorf("utxoengine: failed to serialize plan: %w", err)
	}
	b.plan.HexBytes = hexBytes
	b.plan.TxID = txid
	return b.plan, nil
}
