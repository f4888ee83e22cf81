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

package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/coreledger/multipay/internal/config"
	"github.com/coreledger/multipay/internal/logging"
)

// Storage is a Badger-backed local state store: the UTXO cache a chain
// adapter maintains between scans, and the ledger-scan cursor that lets a
// resumed scan pick up where the last one left off.
type Storage struct {
	db *badger.DB
}

var globalStorage = &Storage{}

// Load opens the Badger database at the configured directory.
func (s *Storage) Load() error {
	cfg := config.GetConfig()
	badgerOpts := badger.DefaultOptions(cfg.Storage.Directory).
		WithLogger(NewBadgerLogger()).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanCursorKey(assetSymbol, address string) string {
	return fmt.Sprintf("scan_cursor_%s_%s", assetSymbol, address)
}

// UpdateScanCursor persists the ledger position a ledger-scan has reached
// for a given address, so a later call resumes instead of rescanning from
// the window start.
func (s *Storage) UpdateScanCursor(assetSymbol, address string, ledgerVersion uint64, lastTxID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		val := fmt.Sprintf("%d,%s", ledgerVersion, lastTxID)
		return txn.Set([]byte(scanCursorKey(assetSymbol, address)), []byte(val))
	})
}

// GetScanCursor returns the last-persisted scan position for an address,
// or the zero value if none has been recorded yet.
func (s *Storage) GetScanCursor(assetSymbol, address string) (uint64, string, error) {
	var ledgerVersion uint64
	var lastTxID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(scanCursorKey(assetSymbol, address)))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			parts := strings.SplitN(string(v), ",", 2)
			parsed, err := strconv.ParseUint(parts[0], 10, 64)
			if err != nil {
				return err
			}
			ledgerVersion = parsed
			if len(parts) > 1 {
				lastTxID = parts[1]
			}
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return 0, "", nil
	}
	return ledgerVersion, lastTxID, err
}

func GetStorage() *Storage {
	return globalStorage
}

// BadgerLogger adapts the engine's zap-based logger to Badger's Logger
// interface, which spells the warning method "Warningf" rather than zap's
// "Warnf".
type BadgerLogger struct {
	logger *zap.SugaredLogger
}

func NewBadgerLogger() *BadgerLogger {
	return &BadgerLogger{logger: logging.GetLogger()}
}

func (b *BadgerLogger) Errorf(msg string, args ...any)   { b.logger.Errorf(msg, args...) }
func (b *BadgerLogger) Warningf(msg string, args ...any) { b.logger.Warnf(msg, args...) }
func (b *BadgerLogger) Infof(msg string, args ...any)    { b.logger.Infof(msg, args...) }
func (b *BadgerLogger) Debugf(msg string, args ...any)   { b.logger.Debugf(msg, args...) }
