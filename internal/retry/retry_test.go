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

package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/coreledger/multipay/internal/paymenterrors"
)

func TestDoSucceedsImmediately(t *testing.T) {
	p := NewPolicy(nil, nil)
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDoPropagatesNonTransportError(t *testing.T) {
	p := NewPolicy(nil, nil)
	wantErr := errors.New("boom")
	err := p.Do(context.Background(), func(ctx context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped boom error, got %v", err)
	}
}

func TestDoRetriesOnTransportDisconnect(t *testing.T) {
	reconnects := 0
	p := NewPolicy(func(ctx context.Context) error {
		reconnects++
		return nil
	}, nil)

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return paymenterrors.ErrTransportDisconnected
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if reconnects != 2 {
		t.Fatalf("expected 2 reconnect attempts, got %d", reconnects)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	p := NewPolicy(func(ctx context.Context) error { return nil }, nil)
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return paymenterrors.ErrTransportDisconnected
	})
	if !errors.Is(err, paymenterrors.ErrTransportDisconnected) {
		t.Fatalf("expected transport disconnected error after exhausting attempts, got %v", err)
	}
	if calls != maxAttempts {
		t.Fatalf("expected %d calls, got %d", maxAttempts, calls)
	}
}
