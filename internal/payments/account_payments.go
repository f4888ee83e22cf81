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

package payments

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/coreledger/multipay/internal/broadcast"
	"github.com/coreledger/multipay/internal/config"
	"github.com/coreledger/multipay/internal/feepolicy"
	"github.com/coreledger/multipay/internal/ledgerscan"
	"github.com/coreledger/multipay/internal/payport"
	"github.com/coreledger/multipay/internal/subscription"
)

// ActivityObserver is the account-ledger-only capability for draining
// historical balance activity and watching for new activity as it
// arrives. It is a separate interface from Payments, rather than an
// addition to that uniform contract, since the UTXO family has no
// equivalent operation: a caller that needs it type-asserts a Payments
// value to ActivityObserver.
type ActivityObserver interface {
	// ScanActivity replays an address's balance activity between ledger
	// versions from and to, feeding sink in order; see ledgerscan.Scan.
	ScanActivity(ctx context.Context, address string, from, to uint64, sink ledgerscan.Sink) (effectiveFrom, effectiveTo uint64, err error)
	// WatchActivity subscribes address for live balance activity, feeding
	// sink for each classified event until ttl lapses (0 = no expiry) or
	// the caller unregisters it via UnwatchActivity.
	WatchActivity(ctx context.Context, address string, ttl time.Duration, sink ledgerscan.Sink) error
	// UnwatchActivity cancels a live subscription registered via
	// WatchActivity.
	UnwatchActivity(ctx context.Context, address string) error
}

// AccountNodeFacade is the injected capability for account-ledger chains
// (§6): connection lifecycle, generic RPC, server/ledger introspection,
// and history paging, composed with the ledgerscan and broadcast facades
// every account-family adapter also needs.
type AccountNodeFacade interface {
	IsConnected() bool
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	GetAccountInfo(ctx context.Context, address string) (balanceMain string, sequence uint64, reserveMain string, activated bool, err error)

	ledgerscan.Facade
	broadcast.NodeFacade
	subscription.PushFacade
}

// AccountTxPayload is the unsigned shape an AccountSerializer turns into
// wire bytes plus the hash an external signer will sign over.
type AccountTxPayload struct {
	FromAddress string
	ToAddress   string
	ExtraID     string
	AmountMain  string
	Sequence    uint64
	FeeRate     feepolicy.FeeRate
}

// AccountSerializer produces the two serialized forms an account-ledger
// Tx carries, mirroring utxoengine.Serializer's role for the UTXO family.
type AccountSerializer interface {
	Serialize(payload AccountTxPayload) (hexBytes string, txid string, err error)
}

// AccountPayments implements Payments for account/ledger-model chains
// such as Ripple: no UTXO selection, a monotonic account sequence number
// in place of input selection, the same broadcast machinery as the UTXO
// family, and a ledger scanner plus subscription bridge for activity.
type AccountPayments struct {
	facade      AccountNodeFacade
	scanner     *ledgerscan.Scanner
	bridge      *subscription.Bridge
	submitter   *broadcast.Submitter
	serializer  AccountSerializer
	deriver     payport.Deriver
	validator   payport.Validator
	feeOracle   feepolicy.LevelOracle
	cfg         config.Configuration
	assetSymbol string
}

// NewAccountPayments builds an AccountPayments instance. cursorStore is
// optional; pass nil to scan without cursor persistence.
func NewAccountPayments(
	facade AccountNodeFacade,
	cfg config.Configuration,
	assetSymbol string,
	networkType string,
	serializer AccountSerializer,
	deriver payport.Deriver,
	validator payport.Validator,
	feeOracle feepolicy.LevelOracle,
	cursorStore ledgerscan.CursorStore,
	logger *zap.SugaredLogger,
) *AccountPayments {
	scanner := ledgerscan.NewScanner(facade, logger, networkType, assetSymbol)
	if cursorStore != nil {
		scanner = scanner.WithCursorStore(cursorStore)
	}
	return &AccountPayments{
		facade:      facade,
		scanner:     scanner,
		bridge:      subscription.NewBridge(facade, logger, networkType, assetSymbol),
		submitter:   broadcast.NewSubmitter(facade, logger),
		serializer:  serializer,
		deriver:     deriver,
		validator:   validator,
		feeOracle:   feeOracle,
		cfg:         cfg,
		assetSymbol: assetSymbol,
	}
}

// ScanActivity implements ActivityObserver by delegating to the bound
// ledger scanner.
func (p *AccountPayments) ScanActivity(ctx context.Context, address string, from, to uint64, sink ledgerscan.Sink) (uint64, uint64, error) {
	return p.scanner.Scan(ctx, address, from, to, sink)
}

// WatchActivity implements ActivityObserver by delegating to the bound
// subscription bridge, which classifies each inbound event with the same
// rules ScanActivity uses before invoking sink.
func (p *AccountPayments) WatchActivity(ctx context.Context, address string, ttl time.Duration, sink ledgerscan.Sink) error {
	return p.bridge.Subscribe(ctx, []string{address}, ttl, sink)
}

// UnwatchActivity implements ActivityObserver.
func (p *AccountPayments) UnwatchActivity(ctx context.Context, address string) error {
	return p.bridge.Unregister(ctx, []string{address})
}

func (p *AccountPayments) resolve(ctx context.Context, ref payport.Reference) (payport.Resolved, error) {
	return payport.Resolve(ctx, ref, p.deriver, p.validator)
}

// GetBalance implements Payments.
func (p *AccountPayments) GetBalance(ctx context.Context, from payport.Reference) (Balance, error) {
	resolved, err := p.resolve(ctx, from)
	if err != nil {
		return Balance{}, err
	}
	balanceMain, _, reserveMain, activated, err := p.facade.GetAccountInfo(ctx, resolved.Address)
	if err != nil {
		return Balance{}, fmt.Errorf("payments: failed to fetch account info for %s: %w", resolved.Address, err)
	}
	return Balance{
		Confirmed:          balanceMain,
		Unconfirmed:        balanceMain,
		Spendable:          balanceMain,
		Sweepable:          balanceMain,
		RequiresActivation: !activated && reserveMain != "",
	}, nil
}

// CreateTransaction implements Payments.
func (p *AccountPayments) CreateTransaction(ctx context.Context, from, to payport.Reference, amountMain string, opt feepolicy.Option) (Tx, error) {
	fromResolved, err := p.resolve(ctx, from)
	if err != nil {
		return Tx{}, err
	}
	toResolved, err := p.resolve(ctx, to)
	if err != nil {
		return Tx{}, err
	}

	feeResolved, err := feepolicy.ResolveOption(ctx, opt, p.feeOracle)
	if err != nil {
		return Tx{}, err
	}

	_, sequence, _, _, err := p.facade.GetAccountInfo(ctx, fromResolved.Address)
	if err != nil {
		return Tx{}, fmt.Errorf("payments: failed to fetch sequence number for %s: %w", fromResolved.Address, err)
	}

	payload := AccountTxPayload{
		FromAddress: fromResolved.Address,
		ToAddress:   toResolved.Address,
		ExtraID:     toResolved.ExtraID,
		AmountMain:  amountMain,
		Sequence:    sequence,
		FeeRate:     feeResolved.TargetFeeRate,
	}
	hexBytes, txid, err := p.serializer.Serialize(payload)
	if err != nil {
		return Tx{}, fmt.Errorf("payments: failed to serialize transaction: %w", err)
	}

	return Tx{
		HexBytes:       hexBytes,
		TxID:           txid,
		FeeMain:        feeResolved.TargetFeeRate.Rate,
		SequenceNumber: &sequence,
	}, nil
}

// CreateMultiOutputTransaction implements Payments. Account-ledger
// transactions carry a single destination; multiple outputs are not
// representable in one transaction for this family.
func (p *AccountPayments) CreateMultiOutputTransaction(ctx context.Context, from payport.Reference, outputs []PayportOutput, opt feepolicy.Option) (Tx, error) {
	if len(outputs) != 1 {
		return Tx{}, fmt.Errorf("payments: account-ledger family supports exactly one output per transaction, got %d", len(outputs))
	}
	return p.CreateTransaction(ctx, from, outputs[0].Payport, outputs[0].AmountMain, opt)
}

// CreateSweepTransaction implements Payments: sends the account's full
// reported balance to `to`. Neither the account reserve nor the fee is
// deducted from the amount sent.
func (p *AccountPayments) CreateSweepTransaction(ctx context.Context, from, to payport.Reference, opt feepolicy.Option) (Tx, error) {
	fromResolved, err := p.resolve(ctx, from)
	if err != nil {
		return Tx{}, err
	}
	balanceMain, _, _, _, err := p.facade.GetAccountInfo(ctx, fromResolved.Address)
	if err != nil {
		return Tx{}, fmt.Errorf("payments: failed to fetch account info for %s: %w", fromResolved.Address, err)
	}
	return p.CreateTransaction(ctx, from, to, balanceMain, opt)
}

// BroadcastTransaction implements Payments.
func (p *AccountPayments) BroadcastTransaction(ctx context.Context, signed SignedTx) (BroadcastResult, error) {
	result, err := p.submitter.Broadcast(ctx, signed.TxID, signed.HexBytes)
	if err != nil {
		return BroadcastResult{}, err
	}
	return BroadcastResult{TxID: result.TxID, Duplicate: result.Duplicate}, nil
}

// GetTransactionInfo implements Payments.
func (p *AccountPayments) GetTransactionInfo(ctx context.Context, txid string) (TxInfo, error) {
	return TxInfo{TxID: txid}, fmt.Errorf("payments: transaction lookup not supported by this facade")
}

func (p *AccountPayments) UsesUtxos() bool             { return false }
func (p *AccountPayments) UsesSequenceNumber() bool     { return true }
func (p *AccountPayments) RequiresBalanceMonitor() bool { return true }
