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

// Package payport resolves a "payport reference" — the heterogeneous
// number | string | record union callers may pass as a send destination —
// into a validated {address, extraId} pair. Resolution is pure aside from
// the injected deriver, which turns an account index into an address.
package payport

import (
	"context"
	"fmt"

	"github.com/coreledger/multipay/internal/paymenterrors"
)

// Reference is a tagged variant standing in for the number | string |
// record union the spec allows as a payport reference. Construct one with
// FromIndex, FromAddress, or FromRecord; never populate the fields
// directly.
type Reference struct {
	kind    kind
	index   uint32
	address string
	extraID string
}

type kind int

const (
	kindIndex kind = iota
	kindAddress
	kindRecord
)

// FromIndex builds a Reference naming an account index, to be turned into
// an address by the deriver at resolution time.
func FromIndex(index uint32) Reference {
	return Reference{kind: kindIndex, index: index}
}

// FromAddress builds a Reference carrying a raw address string.
func FromAddress(address string) Reference {
	return Reference{kind: kindAddress, address: address}
}

// FromRecord builds a Reference carrying an already-structured address
// plus an optional extraId (destination tag / memo).
func FromRecord(address, extraID string) Reference {
	return Reference{kind: kindRecord, address: address, extraID: extraID}
}

// Resolved is the validated destination a payment can be built against.
type Resolved struct {
	Address string
	ExtraID string
}

// Deriver turns an account index into an address, the one I/O-bearing
// step resolution may perform. A per-chain implementation backs this with
// an HD wallet or a remote key-management call.
type Deriver interface {
	DeriveAddress(ctx context.Context, index uint32) (string, error)
}

// Validator confirms an address string is well-formed for a chain. It
// performs no I/O; implementations are checksum/format checks only.
type Validator interface {
	ValidateAddress(address string) bool
}

// Resolve dispatches on the reference's kind: an index is handed to the
// deriver, a raw address or record's embedded address is checked against
// the validator. It fails with ErrInvalidAddress whenever validation
// fails or the deriver reports an error.
func Resolve(ctx context.Context, ref Reference, deriver Deriver, validator Validator) (Resolved, error) {
	switch ref.kind {
	case kindIndex:
		if deriver == nil {
			return Resolved{}, fmt.Errorf("%w: no deriver configured for index-based payport", paymenterrors.ErrInvalidAddress)
		}
		address, err := deriver.DeriveAddress(ctx, ref.index)
		if err != nil {
			return Resolved{}, fmt.Errorf("%w: failed to derive address for index %d: %s", paymenterrors.ErrInvalidAddress, ref.index, err)
		}
		if !validator.ValidateAddress(address) {
			return Resolved{}, fmt.Errorf("%w: derived address %q failed validation", paymenterrors.ErrInvalidAddress, address)
		}
		return Resolved{Address: address}, nil

	case kindAddress:
		if !validator.ValidateAddress(ref.address) {
			return Resolved{}, fmt.Errorf("%w: %q", paymenterrors.ErrInvalidAddress, ref.address)
		}
		return Resolved{Address: ref.address}, nil

	case kindRecord:
		if !validator.ValidateAddress(ref.address) {
			return Resolved{}, fmt.Errorf("%w: %q", paymenterrors.ErrInvalidAddress, ref.address)
		}
		return Resolved{Address: ref.address, ExtraID: ref.extraID}, nil

	default:
		return Resolved{}, fmt.Errorf("%w: unrecognized payport reference kind", paymenterrors.ErrInvalidAddress)
	}
}
