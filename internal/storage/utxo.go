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

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
)

// StoredUtxo is the CBOR-encoded form of a cached spendable output,
// keyed by address so a chain adapter can serve GetUtxos without a
// round trip to the node on every selection.
type StoredUtxo struct {
	TxID         string
	OutputIndex  uint32
	ValueBase    int64
	ValueMain    string
	Height       int64
	LockTime     uint32
	ScriptOrAddr string
}

func utxoKey(utxo StoredUtxo) string {
	return fmt.Sprintf("utxo_%s_%s.%d", utxo.ScriptOrAddr, utxo.TxID, utxo.OutputIndex)
}

// AddUtxo persists a spendable output under its owning address.
func (s *Storage) AddUtxo(utxo StoredUtxo) error {
	encoded, err := cbor.Marshal(utxo)
	if err != nil {
		return fmt.Errorf("storage: failed to encode utxo: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(utxoKey(utxo)), encoded)
	})
}

// RemoveUtxo deletes a previously cached output by address/txid/index.
func (s *Storage) RemoveUtxo(address, txID string, outputIndex uint32) error {
	key := utxoKey(StoredUtxo{ScriptOrAddr: address, TxID: txID, OutputIndex: outputIndex})
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// GetUtxos returns every cached output owned by address.
func (s *Storage) GetUtxos(address string) ([]StoredUtxo, error) {
	var ret []StoredUtxo
	keyPrefix := []byte(fmt.Sprintf("utxo_%s_", address))
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				var utxo StoredUtxo
				if err := cbor.Unmarshal(v, &utxo); err != nil {
					return fmt.Errorf("storage: failed to decode utxo: %w", err)
				}
				ret = append(ret, utxo)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
