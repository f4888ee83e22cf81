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

package ledgerscan

import (
	"context"
	"testing"
)

type stubFacade struct {
	minLedger, maxLedger uint64
	pages                [][]RawTx
	callIdx              int
}

func (f *stubFacade) LedgerRange(ctx context.Context) (uint64, uint64, error) {
	return f.minLedger, f.maxLedger, nil
}

func (f *stubFacade) FetchPage(ctx context.Context, req PageRequest) (PageResponse, error) {
	if f.callIdx >= len(f.pages) {
		return PageResponse{}, nil
	}
	page := f.pages[f.callIdx]
	f.callIdx++
	return PageResponse{Transactions: page}, nil
}

func TestScanNarrowsWindow(t *testing.T) {
	facade := &stubFacade{
		minLedger: 1000,
		maxLedger: 2000,
		pages: [][]RawTx{
			{
				{
					ID:             "tx1",
					LedgerVersion:  1500,
					IndexInLedger:  1,
					Destination:    Party{Address: "rAddr"},
					BalanceChanges: map[string]map[string]string{"rAddr": {"XRP": "10"}},
				},
			},
		},
	}
	s := NewScanner(facade, nil, "testnet", "XRP")

	var seen []BalanceActivity
	from, to, err := s.Scan(context.Background(), "rAddr", 500, 2500, func(ctx context.Context, a BalanceActivity) error {
		seen = append(seen, a)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from != 1000 || to != 2000 {
		t.Fatalf("expected narrowed window [1000,2000], got [%d,%d]", from, to)
	}
	if len(seen) != 1 || seen[0].Direction != "in" {
		t.Fatalf("expected single inbound activity, got %+v", seen)
	}
	if seen[0].ActivitySequence != "000000001500.00000001.01" {
		t.Fatalf("unexpected activity sequence %q", seen[0].ActivitySequence)
	}
}

func TestScanSkipsUnrelatedAndAssetless(t *testing.T) {
	facade := &stubFacade{
		minLedger: 0,
		maxLedger: 10_000,
		pages: [][]RawTx{
			{
				{ID: "tx-unrelated", LedgerVersion: 100, Source: Party{Address: "other"}, Destination: Party{Address: "another"}},
				{ID: "tx-no-asset", LedgerVersion: 101, Destination: Party{Address: "rAddr"}, BalanceChanges: map[string]map[string]string{"rAddr": {"USD": "5"}}},
				{ID: "tx-match", LedgerVersion: 102, Destination: Party{Address: "rAddr"}, BalanceChanges: map[string]map[string]string{"rAddr": {"XRP": "5"}}},
			},
		},
	}
	s := NewScanner(facade, nil, "testnet", "XRP")

	var seen []BalanceActivity
	_, _, err := s.Scan(context.Background(), "rAddr", 0, 10_000, func(ctx context.Context, a BalanceActivity) error {
		seen = append(seen, a)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 1 || seen[0].ExternalID != "tx-match" {
		t.Fatalf("expected only tx-match, got %+v", seen)
	}
}

type stubCursorStore struct {
	ledgerVersion uint64
	lastTxID      string
}

func (c *stubCursorStore) GetScanCursor(assetSymbol, address string) (uint64, string, error) {
	return c.ledgerVersion, c.lastTxID, nil
}

func (c *stubCursorStore) UpdateScanCursor(assetSymbol, address string, ledgerVersion uint64, lastTxID string) error {
	c.ledgerVersion = ledgerVersion
	c.lastTxID = lastTxID
	return nil
}

func TestScanResumesFromPersistedCursor(t *testing.T) {
	facade := &stubFacade{
		minLedger: 0,
		maxLedger: 10_000,
		pages: [][]RawTx{
			{
				{ID: "tx-already-seen", LedgerVersion: 200, Destination: Party{Address: "rAddr"}, BalanceChanges: map[string]map[string]string{"rAddr": {"XRP": "1"}}},
				{ID: "tx-new", LedgerVersion: 201, Destination: Party{Address: "rAddr"}, BalanceChanges: map[string]map[string]string{"rAddr": {"XRP": "2"}}},
			},
		},
	}
	store := &stubCursorStore{ledgerVersion: 200, lastTxID: "tx-already-seen"}
	s := NewScanner(facade, nil, "testnet", "XRP").WithCursorStore(store)

	var seen []BalanceActivity
	from, _, err := s.Scan(context.Background(), "rAddr", 0, 10_000, func(ctx context.Context, a BalanceActivity) error {
		seen = append(seen, a)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from != 200 {
		t.Fatalf("expected scan to resume from persisted ledger 200, got %d", from)
	}
	if len(seen) != 1 || seen[0].ExternalID != "tx-new" {
		t.Fatalf("expected only the unseen transaction, got %+v", seen)
	}
	if store.ledgerVersion != 201 || store.lastTxID != "tx-new" {
		t.Fatalf("expected cursor to be persisted at tx-new, got %d/%s", store.ledgerVersion, store.lastTxID)
	}
}
