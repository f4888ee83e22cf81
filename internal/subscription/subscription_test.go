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

package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/coreledger/multipay/internal/ledgerscan"
)

type stubPushFacade struct {
	handler func(ledgerscan.RawTx)
}

func (f *stubPushFacade) Subscribe(ctx context.Context, addresses []string, handler func(ledgerscan.RawTx)) error {
	f.handler = handler
	return nil
}

func (f *stubPushFacade) Unsubscribe(ctx context.Context, addresses []string) error {
	return nil
}

func TestSubscribeAndClassifyInboundEvent(t *testing.T) {
	facade := &stubPushFacade{}
	bridge := NewBridge(facade, nil, "testnet", "XRP")

	var seen []ledgerscan.BalanceActivity
	err := bridge.Subscribe(context.Background(), []string{"rAddr"}, 0, func(ctx context.Context, a ledgerscan.BalanceActivity) error {
		seen = append(seen, a)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	facade.handler(ledgerscan.RawTx{
		ID:             "tx1",
		LedgerVersion:  42,
		Destination:    ledgerscan.Party{Address: "rAddr"},
		BalanceChanges: map[string]map[string]string{"rAddr": {"XRP": "7"}},
	})

	if len(seen) != 1 || seen[0].Direction != "in" {
		t.Fatalf("expected single inbound activity, got %+v", seen)
	}
}

func TestSubscribeIgnoresUnregisteredAddress(t *testing.T) {
	facade := &stubPushFacade{}
	bridge := NewBridge(facade, nil, "testnet", "XRP")

	var seen []ledgerscan.BalanceActivity
	_ = bridge.Subscribe(context.Background(), []string{"rAddr"}, 0, func(ctx context.Context, a ledgerscan.BalanceActivity) error {
		seen = append(seen, a)
		return nil
	})

	facade.handler(ledgerscan.RawTx{
		ID:          "tx2",
		Destination: ledgerscan.Party{Address: "rOther"},
	})

	if len(seen) != 0 {
		t.Fatalf("expected no activity for unregistered address, got %+v", seen)
	}
}

func TestSubscriptionExpiresAfterTTL(t *testing.T) {
	facade := &stubPushFacade{}
	bridge := NewBridge(facade, nil, "testnet", "XRP")
	defer bridge.Stop()

	err := bridge.Subscribe(context.Background(), []string{"rAddr"}, time.Millisecond, func(ctx context.Context, a ledgerscan.BalanceActivity) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bridge.SubscriptionCount() != 1 {
		t.Fatalf("expected 1 tracked subscription, got %d", bridge.SubscriptionCount())
	}

	time.Sleep(2 * time.Millisecond)
	bridge.expireSubscriptions()

	if bridge.SubscriptionCount() != 0 {
		t.Fatalf("expected expired subscription to be pruned, got %d remaining", bridge.SubscriptionCount())
	}
}
