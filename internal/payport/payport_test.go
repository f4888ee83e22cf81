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

package payport

import (
	"context"
	"errors"
	"testing"

	"github.com/coreledger/multipay/internal/paymenterrors"
)

type stubDeriver struct {
	address string
	err     error
}

func (s stubDeriver) DeriveAddress(ctx context.Context, index uint32) (string, error) {
	return s.address, s.err
}

type stubValidator struct {
	valid map[string]bool
}

func (s stubValidator) ValidateAddress(address string) bool {
	return s.valid[address]
}

func TestResolveFromIndex(t *testing.T) {
	deriver := stubDeriver{address: "addr-from-index-3"}
	validator := stubValidator{valid: map[string]bool{"addr-from-index-3": true}}

	resolved, err := Resolve(context.Background(), FromIndex(3), deriver, validator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Address != "addr-from-index-3" {
		t.Fatalf("got address %q", resolved.Address)
	}
	if resolved.ExtraID != "" {
		t.Fatalf("expected no extraId, got %q", resolved.ExtraID)
	}
}

func TestResolveFromIndexDeriverError(t *testing.T) {
	deriver := stubDeriver{err: errors.New("key service unavailable")}
	validator := stubValidator{}

	_, err := Resolve(context.Background(), FromIndex(3), deriver, validator)
	if !errors.Is(err, paymenterrors.ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestResolveFromAddress(t *testing.T) {
	validator := stubValidator{valid: map[string]bool{"1A2b3C": true}}

	resolved, err := Resolve(context.Background(), FromAddress("1A2b3C"), nil, validator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Address != "1A2b3C" {
		t.Fatalf("got address %q", resolved.Address)
	}
}

func TestResolveFromAddressInvalid(t *testing.T) {
	validator := stubValidator{valid: map[string]bool{}}

	_, err := Resolve(context.Background(), FromAddress("not-an-address"), nil, validator)
	if !errors.Is(err, paymenterrors.ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestResolveFromRecord(t *testing.T) {
	validator := stubValidator{valid: map[string]bool{"rXRP...dest": true}}

	resolved, err := Resolve(context.Background(), FromRecord("rXRP...dest", "104"), nil, validator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Address != "rXRP...dest" || resolved.ExtraID != "104" {
		t.Fatalf("got %+v", resolved)
	}
}
