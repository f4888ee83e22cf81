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

// Package ledgerscan implements the account-ledger activity scanner:
// paginating a server's payment history for an address into a uniform,
// strictly ordered BalanceActivity stream.
package ledgerscan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PageSize is the tunable page size the spec calls out; fetched earliest
// first, excluding failed transactions.
const PageSize = 10

// syncStatusLogInterval is how often a scan still behind the server's
// reported ledger tip logs a catch-up diagnostic.
const syncStatusLogInterval = 30 * time.Second

// Party identifies one side of a payment transaction.
type Party struct {
	Address string
}

// TxCursor seeds the next page request from the previous page's last
// transaction.
type TxCursor struct {
	ID            string
	LedgerVersion uint64
	IndexInLedger uint32
}

// RawTx is a single payment transaction as reported by the server, before
// classification against an address of interest.
type RawTx struct {
	ID                 string
	LedgerVersion      uint64
	IndexInLedger      uint32
	Source             Party
	Destination        Party
	BalanceChanges     map[string]map[string]string // address -> asset symbol -> signed main-unit amount
	ConfirmationID     string
	ConfirmationNumber uint64
	TimestampUnix      int64
}

// PageRequest is the facade call's input shape.
type PageRequest struct {
	Address          string
	MinLedgerVersion uint64
	MaxLedgerVersion uint64
	StartTx          *TxCursor
	PageSize         int
}

// PageResponse is one page of the scan.
type PageResponse struct {
	Transactions []RawTx
}

// Facade is the capability a chain adapter supplies for paging an
// account's payment history.
type Facade interface {
	// LedgerRange returns the server's currently-retained ledger window.
	LedgerRange(ctx context.Context) (min uint64, max uint64, err error)
	FetchPage(ctx context.Context, req PageRequest) (PageResponse, error)
}

// CursorStore is the capability a scan consults to resume from where a
// previous scan of the same address left off, instead of rescanning the
// whole retained window on every restart. storage.Storage satisfies this
// interface already.
type CursorStore interface {
	GetScanCursor(assetSymbol, address string) (ledgerVersion uint64, lastTxID string, err error)
	UpdateScanCursor(assetSymbol, address string, ledgerVersion uint64, lastTxID string) error
}

// BalanceActivity is the uniform record emitted by both the scanner and
// the subscription bridge.
type BalanceActivity struct {
	Direction          string // "in" or "out"
	NetworkType        string
	AssetSymbol        string
	Address            string
	ExtraID            string
	AmountMainSigned   string
	ExternalID         string
	ActivitySequence   string
	ConfirmationID     string
	ConfirmationNumber uint64
	TimestampUnix      int64
}

// Sink receives classified activities in non-decreasing ActivitySequence
// order. It is invoked sequentially and awaited before the next
// emission; an error aborts the scan.
type Sink func(ctx context.Context, activity BalanceActivity) error

// Scanner runs ledger-window resolution and paginated history scans.
type Scanner struct {
	facade      Facade
	logger      *zap.SugaredLogger
	networkType string
	assetSymbol string
	cursorStore CursorStore
}

// NewScanner builds a Scanner bound to a chain facade.
func NewScanner(facade Facade, logger *zap.SugaredLogger, networkType, assetSymbol string) *Scanner {
	return &Scanner{facade: facade, logger: logger, networkType: networkType, assetSymbol: assetSymbol}
}

// WithCursorStore enables scan-cursor persistence: a restarted Scan
// resumes from the last position recorded for (assetSymbol, address)
// rather than rescanning the whole retained window.
func (s *Scanner) WithCursorStore(store CursorStore) *Scanner {
	s.cursorStore = store
	return s
}

// Scan resolves the effective [from, to] window against the server's
// retained range, pages through address's payment history, classifies
// each transaction, and feeds the sink in order. It returns the window
// actually scanned. If a CursorStore is configured, the scan resumes
// from the persisted position when it is ahead of from, and persists its
// progress as it goes; while it remains behind the server's reported
// ledger tip, it periodically logs a catch-up diagnostic.
func (s *Scanner) Scan(ctx context.Context, address string, from, to uint64, sink Sink) (effectiveFrom, effectiveTo uint64, err error) {
	minLedger, maxLedger, err := s.facade.LedgerRange(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("ledgerscan: failed to fetch retained ledger range: %w", err)
	}

	effectiveFrom, effectiveTo = from, to
	if effectiveFrom < minLedger {
		if s.logger != nil {
			s.logger.Warnf("narrowing scan window start from %d to retained minimum %d", effectiveFrom, minLedger)
		}
		effectiveFrom = minLedger
	}
	if effectiveTo > maxLedger {
		if s.logger != nil {
			s.logger.Warnf("narrowing scan window end from %d to retained maximum %d", effectiveTo, maxLedger)
		}
		effectiveTo = maxLedger
	}

	var cursor *TxCursor
	var lastSeenID string

	if s.cursorStore != nil {
		persistedLedger, persistedTxID, cursorErr := s.cursorStore.GetScanCursor(s.assetSymbol, address)
		if cursorErr != nil {
			if s.logger != nil {
				s.logger.Warnf("failed to load scan cursor for %s: %s", address, cursorErr)
			}
		} else if persistedLedger > effectiveFrom {
			effectiveFrom = persistedLedger
			lastSeenID = persistedTxID
		}
	}

	catchUp := s.startCatchUpLog(address, maxLedger)
	defer catchUp.stop()

	for {
		req := PageRequest{
			Address:  address,
			PageSize: PageSize,
		}
		if cursor == nil {
			req.MinLedgerVersion = effectiveFrom
			req.MaxLedgerVersion = effectiveTo
		} else {
			req.StartTx = cursor
		}

		page, err := s.facade.FetchPage(ctx, req)
		if err != nil {
			return effectiveFrom, effectiveTo, fmt.Errorf("ledgerscan: failed to fetch page: %w", err)
		}

		for _, tx := range page.Transactions {
			if tx.ID == lastSeenID {
				continue
			}
			if tx.LedgerVersion < effectiveFrom || tx.LedgerVersion > effectiveTo {
				continue
			}

			activity, ok := Classify(tx, address, s.networkType, s.assetSymbol)
			if !ok {
				if s.logger != nil {
					s.logger.Debugf("skipping transaction %s: not classifiable for address %s", tx.ID, address)
				}
				continue
			}

			if err := sink(ctx, activity); err != nil {
				return effectiveFrom, effectiveTo, fmt.Errorf("ledgerscan: sink aborted scan: %w", err)
			}
		}

		if len(page.Transactions) == 0 {
			break
		}
		last := page.Transactions[len(page.Transactions)-1]
		lastSeenID = last.ID
		cursor = &TxCursor{ID: last.ID, LedgerVersion: last.LedgerVersion, IndexInLedger: last.IndexInLedger}
		catchUp.update(last.LedgerVersion, last.ID)

		if s.cursorStore != nil {
			if err := s.cursorStore.UpdateScanCursor(s.assetSymbol, address, last.LedgerVersion, last.ID); err != nil && s.logger != nil {
				s.logger.Warnf("failed to persist scan cursor for %s: %s", address, err)
			}
		}

		if len(page.Transactions) < PageSize || last.LedgerVersion > effectiveTo {
			break
		}
	}

	return effectiveFrom, effectiveTo, nil
}

// Classify applies §4.6's direction/amount rules to a raw transaction,
// returning ok=false when the transaction doesn't concern address or
// carries no native-asset balance change for it. The subscription bridge
// reuses this to classify live push events with the same rules.
func Classify(tx RawTx, address, networkType, assetSymbol string) (BalanceActivity, bool) {
	var direction, tertiary string
	switch {
	case tx.Source.Address == address:
		direction, tertiary = "out", "00"
	case tx.Destination.Address == address:
		direction, tertiary = "in", "01"
	default:
		return BalanceActivity{}, false
	}

	changes, ok := tx.BalanceChanges[address]
	if !ok {
		return BalanceActivity{}, false
	}
	amount, ok := changes[assetSymbol]
	if !ok {
		return BalanceActivity{}, false
	}

	sequence := fmt.Sprintf("%012d.%08d.%s", tx.LedgerVersion, tx.IndexInLedger, tertiary)

	return BalanceActivity{
		Direction:          direction,
		NetworkType:        networkType,
		AssetSymbol:        assetSymbol,
		Address:            address,
		AmountMainSigned:   amount,
		ExternalID:         tx.ID,
		ActivitySequence:   sequence,
		ConfirmationID:     tx.ConfirmationID,
		ConfirmationNumber: tx.ConfirmationNumber,
		TimestampUnix:      tx.TimestampUnix,
	}, true
}

// catchUpLog tracks a single Scan call's progress and logs a periodic
// "still catching up" diagnostic, modeled on the indexer's
// scheduleSyncStatusLog/syncStatusLog pair but scoped per-scan (rather
// than per-Scanner) since one Scanner may run concurrent scans for
// different addresses.
type catchUpLog struct {
	mu         sync.Mutex
	timer      *time.Timer
	stopped    bool
	address    string
	lastLedger uint64
	lastTxID   string
}

func (s *Scanner) startCatchUpLog(address string, maxLedger uint64) *catchUpLog {
	c := &catchUpLog{address: address}
	c.schedule(s, maxLedger)
	return c
}

func (c *catchUpLog) schedule(s *Scanner, maxLedger uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.timer = time.AfterFunc(syncStatusLogInterval, func() { c.log(s, maxLedger) })
}

func (c *catchUpLog) log(s *Scanner, maxLedger uint64) {
	c.mu.Lock()
	stopped := c.stopped
	lastLedger := c.lastLedger
	lastTxID := c.lastTxID
	c.mu.Unlock()
	if stopped {
		return
	}
	if s.logger != nil {
		s.logger.Infof(
			"catch-up sync in progress for %s: at %d.%s (retained ledger tip is %d)",
			c.address, lastLedger, lastTxID, maxLedger,
		)
	}
	c.schedule(s, maxLedger)
}

func (c *catchUpLog) update(ledgerVersion uint64, txID string) {
	c.mu.Lock()
	c.lastLedger = ledgerVersion
	c.lastTxID = txID
	c.mu.Unlock()
}

func (c *catchUpLog) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
	}
}
