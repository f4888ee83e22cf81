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

// Package payments exposes the uniform payment contract (§6) that both
// the UTXO family and the account-ledger family implement: balance
// queries, transaction construction, broadcast, and transaction lookup,
// all denominated in main-unit decimal strings at the boundary.
package payments

import (
	"context"

	"github.com/coreledger/multipay/internal/feepolicy"
	"github.com/coreledger/multipay/internal/payport"
)

// Balance is the uniform balance shape returned for any payport.
type Balance struct {
	Confirmed          string
	Unconfirmed        string
	Spendable          string
	Sweepable          string
	RequiresActivation bool
}

// Tx is the uniform transaction-construction result, covering both a
// UTXO plan's inputs/outputs and an account-ledger tx's sequence number;
// whichever family didn't produce a field leaves it at its zero value.
type Tx struct {
	HexBytes       string
	TxID           string
	FeeMain        string
	TotalChange    string
	SequenceNumber *uint64
}

// TxInfo is the result of a transaction-info lookup.
type TxInfo struct {
	TxID               string
	Confirmed          bool
	ConfirmationID     string
	ConfirmationNumber uint64
}

// BroadcastResult mirrors broadcast.Result without importing that
// package's NodeFacade-specific types into the public contract.
type BroadcastResult struct {
	TxID      string
	Duplicate bool
}

// SignedTx is what an external signer hands back for broadcast: the
// signed wire bytes alongside the id computed for them at planning time,
// so the broadcast idempotency check has a known id to fall back on.
type SignedTx struct {
	TxID     string
	HexBytes string
}

// Payments is the contract both families implement uniformly.
type Payments interface {
	GetBalance(ctx context.Context, from payport.Reference) (Balance, error)
	CreateTransaction(ctx context.Context, from, to payport.Reference, amountMain string, opt feepolicy.Option) (Tx, error)
	CreateMultiOutputTransaction(ctx context.Context, from payport.Reference, outputs []PayportOutput, opt feepolicy.Option) (Tx, error)
	CreateSweepTransaction(ctx context.Context, from, to payport.Reference, opt feepolicy.Option) (Tx, error)
	BroadcastTransaction(ctx context.Context, signed SignedTx) (BroadcastResult, error)
	GetTransactionInfo(ctx context.Context, txid string) (TxInfo, error)

	// UsesUtxos reports whether this family spends discrete UTXOs.
	UsesUtxos() bool
	// UsesSequenceNumber reports whether this family orders transactions
	// by an account sequence number.
	UsesSequenceNumber() bool
	// RequiresBalanceMonitor reports whether the caller should run a
	// subscription bridge to observe balance changes, rather than relying
	// solely on polling.
	RequiresBalanceMonitor() bool
}

// PayportOutput is (payport_reference, amount_main), the spec's output
// intent shape for multi-output transactions.
type PayportOutput struct {
	Payport    payport.Reference
	AmountMain string
}
