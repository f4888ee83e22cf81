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
	"strconv"

	"go.uber.org/zap"

	"github.com/coreledger/multipay/internal/amount"
	"github.com/coreledger/multipay/internal/broadcast"
	"github.com/coreledger/multipay/internal/config"
	"github.com/coreledger/multipay/internal/feepolicy"
	"github.com/coreledger/multipay/internal/payport"
	"github.com/coreledger/multipay/internal/storage"
	"github.com/coreledger/multipay/internal/utxoengine"
)

// UtxoCache is the caching convenience a UTXOPayments may consult before
// querying the injected facade for an address's spendable outputs; it is
// never the source of truth, only a round-trip-avoidance layer refreshed
// on every facade fetch. storage.Storage satisfies this interface.
type UtxoCache interface {
	GetUtxos(address string) ([]storage.StoredUtxo, error)
	AddUtxo(utxo storage.StoredUtxo) error
}

// UTXONodeFacade is the injected capability for UTXO-family chains (§6):
// address balance/UTXO lookups and transaction submission.
type UTXONodeFacade interface {
	GetAddressDetails(ctx context.Context, address string) (balanceBase, unconfirmedBalanceBase string, err error)
	GetUtxosForAddress(ctx context.Context, address string) ([]utxoengine.UtxoInfo, error)
	GetTx(ctx context.Context, txid string) (TxInfo, error)
	broadcast.NodeFacade
}

// UTXOPayments implements Payments for Bitcoin-style chains, composing
// the selector/planner, the payport resolver, fee-policy resolution, and
// the broadcast idempotency shim.
type UTXOPayments struct {
	facade    UTXONodeFacade
	planner   *utxoengine.Planner
	submitter *broadcast.Submitter
	caps      utxoengine.Capabilities
	deriver   payport.Deriver
	validator payport.Validator
	feeOracle feepolicy.LevelOracle
	cfg       config.Configuration
	cache     UtxoCache
}

// NewUTXOPayments builds a UTXOPayments instance bound to a coin's
// Configuration and injected facade/capabilities. cache is optional; pass
// nil to fetch UTXOs from the facade on every call.
func NewUTXOPayments(
	facade UTXONodeFacade,
	cfg config.Configuration,
	caps utxoengine.Capabilities,
	deriver payport.Deriver,
	validator payport.Validator,
	feeOracle feepolicy.LevelOracle,
	cache UtxoCache,
	logger *zap.SugaredLogger,
) *UTXOPayments {
	return &UTXOPayments{
		facade:    facade,
		planner:   utxoengine.NewPlanner(cfg),
		submitter: broadcast.NewSubmitter(facade, logger),
		caps:      caps,
		deriver:   deriver,
		validator: validator,
		feeOracle: feeOracle,
		cfg:       cfg,
		cache:     cache,
	}
}

// fetchUtxos serves an address's spendable outputs from the cache when
// one is configured and populated, falling back to (and refreshing from)
// the facade otherwise.
func (p *UTXOPayments) fetchUtxos(ctx context.Context, address string) ([]utxoengine.UtxoInfo, error) {
	if p.cache != nil {
		if cached, err := p.cache.GetUtxos(address); err == nil && len(cached) > 0 {
			return storedUtxosToUtxoInfo(cached), nil
		}
	}

	utxos, err := p.facade.GetUtxosForAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("payments: failed to fetch utxos for %s: %w", address, err)
	}

	if p.cache != nil {
		for _, u := range utxos {
			if err := p.cache.AddUtxo(utxoInfoToStored(address, u)); err != nil {
				return nil, fmt.Errorf("payments: failed to cache utxo %s.%d: %w", u.TxID, u.OutputIndex, err)
			}
		}
	}
	return utxos, nil
}

func storedUtxosToUtxoInfo(stored []storage.StoredUtxo) []utxoengine.UtxoInfo {
	out := make([]utxoengine.UtxoInfo, len(stored))
	for i, u := range stored {
		out[i] = utxoengine.UtxoInfo{
			TxID:         u.TxID,
			OutputIndex:  u.OutputIndex,
			ValueBase:    u.ValueBase,
			ValueMain:    u.ValueMain,
			Height:       u.Height,
			LockTime:     u.LockTime,
			ScriptOrAddr: u.ScriptOrAddr,
		}
	}
	return out
}

func utxoInfoToStored(address string, u utxoengine.UtxoInfo) storage.StoredUtxo {
	return storage.StoredUtxo{
		TxID:         u.TxID,
		OutputIndex:  u.OutputIndex,
		ValueBase:    u.ValueBase,
		ValueMain:    u.ValueMain,
		Height:       u.Height,
		LockTime:     u.LockTime,
		ScriptOrAddr: address,
	}
}

func (p *UTXOPayments) resolve(ctx context.Context, ref payport.Reference) (payport.Resolved, error) {
	return payport.Resolve(ctx, ref, p.deriver, p.validator)
}

// GetBalance implements Payments.
func (p *UTXOPayments) GetBalance(ctx context.Context, from payport.Reference) (Balance, error) {
	resolved, err := p.resolve(ctx, from)
	if err != nil {
		return Balance{}, err
	}
	confirmedBase, unconfirmedBase, err := p.facade.GetAddressDetails(ctx, resolved.Address)
	if err != nil {
		return Balance{}, fmt.Errorf("payments: failed to fetch balance for %s: %w", resolved.Address, err)
	}
	confirmed, err := strconv.ParseInt(confirmedBase, 10, 64)
	if err != nil {
		return Balance{}, fmt.Errorf("payments: malformed confirmed balance %q for %s: %w", confirmedBase, resolved.Address, err)
	}
	unconfirmed, err := strconv.ParseInt(unconfirmedBase, 10, 64)
	if err != nil {
		return Balance{}, fmt.Errorf("payments: malformed unconfirmed balance %q for %s: %w", unconfirmedBase, resolved.Address, err)
	}
	confirmedMain := amount.ToMain(confirmed, p.cfg.Decimals)
	return Balance{
		Confirmed:   confirmedMain,
		Unconfirmed: amount.ToMain(unconfirmed, p.cfg.Decimals),
		Spendable:   confirmedMain,
		Sweepable:   confirmedMain,
	}, nil
}

// CreateTransaction implements Payments.
func (p *UTXOPayments) CreateTransaction(ctx context.Context, from, to payport.Reference, amountMain string, opt feepolicy.Option) (Tx, error) {
	return p.CreateMultiOutputTransaction(ctx, from, []PayportOutput{{Payport: to, AmountMain: amountMain}}, opt)
}

// CreateMultiOutputTransaction implements Payments.
func (p *UTXOPayments) CreateMultiOutputTransaction(ctx context.Context, from payport.Reference, outputs []PayportOutput, opt feepolicy.Option) (Tx, error) {
	fromResolved, err := p.resolve(ctx, from)
	if err != nil {
		return Tx{}, err
	}

	desired := make([]utxoengine.Output, len(outputs))
	for i, out := range outputs {
		resolved, err := p.resolve(ctx, out.Payport)
		if err != nil {
			return Tx{}, err
		}
		base, err := amount.ToBase(out.AmountMain, p.cfg.Decimals)
		if err != nil {
			return Tx{}, err
		}
		desired[i] = utxoengine.Output{Address: resolved.Address, ExtraID: resolved.ExtraID, Base: base}
	}

	feeRate, err := p.resolveFeeRate(ctx, opt)
	if err != nil {
		return Tx{}, err
	}

	utxos, err := p.fetchUtxos(ctx, fromResolved.Address)
	if err != nil {
		return Tx{}, err
	}

	req := utxoengine.Request{
		UnusedUtxos:    utxos,
		DesiredOutputs: desired,
		ChangeAddress:  fromResolved.Address,
		DesiredFeeRate: feeRate,
	}
	return p.buildPlan(req)
}

// CreateSweepTransaction implements Payments: every UTXO for `from` is
// spent, the entire balance (less fee) going to `to`.
func (p *UTXOPayments) CreateSweepTransaction(ctx context.Context, from, to payport.Reference, opt feepolicy.Option) (Tx, error) {
	fromResolved, err := p.resolve(ctx, from)
	if err != nil {
		return Tx{}, err
	}
	toResolved, err := p.resolve(ctx, to)
	if err != nil {
		return Tx{}, err
	}

	feeRate, err := p.resolveFeeRate(ctx, opt)
	if err != nil {
		return Tx{}, err
	}

	utxos, err := p.fetchUtxos(ctx, fromResolved.Address)
	if err != nil {
		return Tx{}, err
	}

	var total int64
	for _, u := range utxos {
		total += u.ValueBase
	}
	if err := amount.ValidatePositiveBase(total); err != nil {
		return Tx{}, err
	}

	req := utxoengine.Request{
		UnusedUtxos:         utxos,
		DesiredOutputs:      []utxoengine.Output{{Address: toResolved.Address, ExtraID: toResolved.ExtraID, Base: total}},
		ChangeAddress:       fromResolved.Address,
		DesiredFeeRate:      feeRate,
		UseAllUtxos:         true,
		UseUnconfirmedUtxos: true,
	}
	return p.buildPlan(req)
}

func (p *UTXOPayments) resolveFeeRate(ctx context.Context, opt feepolicy.Option) (feepolicy.FeeRate, error) {
	resolved, err := feepolicy.ResolveOption(ctx, opt, p.feeOracle)
	if err != nil {
		return feepolicy.FeeRate{}, err
	}
	return resolved.TargetFeeRate, nil
}

func (p *UTXOPayments) buildPlan(req utxoengine.Request) (Tx, error) {
	plan, err := p.planner.Plan(req)
	if err != nil {
		return Tx{}, err
	}
	built, err := utxoengine.NewBuilder(plan, p.caps).Build()
	if err != nil {
		return Tx{}, err
	}
	return Tx{
		HexBytes:    built.HexBytes,
		TxID:        built.TxID,
		FeeMain:     built.FeeMain(),
		TotalChange: built.TotalChangeMain(),
	}, nil
}

// BroadcastTransaction implements Payments.
func (p *UTXOPayments) BroadcastTransaction(ctx context.Context, signed SignedTx) (BroadcastResult, error) {
	result, err := p.submitter.Broadcast(ctx, signed.TxID, signed.HexBytes)
	if err != nil {
		return BroadcastResult{}, err
	}
	return BroadcastResult{TxID: result.TxID, Duplicate: result.Duplicate}, nil
}

// GetTransactionInfo implements Payments.
func (p *UTXOPayments) GetTransactionInfo(ctx context.Context, txid string) (TxInfo, error) {
	return p.facade.GetTx(ctx, txid)
}

func (p *UTXOPayments) UsesUtxos() bool              { return true }
func (p *UTXOPayments) UsesSequenceNumber() bool      { return false }
func (p *UTXOPayments) RequiresBalanceMonitor() bool  { return false }
