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

// Package utxoengine implements the UTXO selector and transaction planner:
// the central algorithm that turns a candidate UTXO set and a list of
// desired outputs into a fee-correct, deterministic spending plan.
package utxoengine

import (
	"github.com/coreledger/multipay/internal/amount"
	"github.com/coreledger/multipay/internal/config"
	"github.com/coreledger/multipay/internal/feepolicy"
)

// UtxoInfo is a spendable output as seen by the selector: an amount and
// enough chain metadata to decide confirmation status and build an input
// reference. ValueBase must be >= 0.
type UtxoInfo struct {
	TxID         string
	OutputIndex  uint32
	ValueBase    int64
	ValueMain    string
	Height       int64 // 0 means unconfirmed
	LockTime     uint32
	ScriptOrAddr string
}

// Confirmed reports whether the UTXO has a known block height.
func (u UtxoInfo) Confirmed() bool {
	return u.Height > 0
}

// Output is an external spend target already resolved to a chain address,
// with a strictly positive base-unit value.
type Output struct {
	Address string
	ExtraID string
	Base    int64
}

// Input mirrors the subset of a selected UTXO's fields the plan carries
// forward; insertion order is selection order.
type Input struct {
	TxID        string
	OutputIndex uint32
	Base        int64
}

// ChangeOutput is one emitted change output, in weight-ascending order.
type ChangeOutput struct {
	Address string
	Base    int64
}

// Serializer produces the two serialized forms a Plan carries: raw hex
// bytes and that payload's hash/txid. It is injected so the planner stays
// agnostic of the chain's wire format.
type Serializer interface {
	Serialize(plan *Plan) (hexBytes string, txid string, err error)
}

// Plan is the immutable result of selection and change-splitting: the
// PaymentTx of the spec's data model.
type Plan struct {
	Inputs        []Input
	ExternalOuts  []Output
	ChangeOuts    []ChangeOutput
	FeeBase       int64
	TotalChange   int64
	Decimals      int32
	HexBytes      string
	TxID          string
}

// FeeMain returns the plan's fee converted to a main-unit decimal string.
func (p *Plan) FeeMain() string {
	return amount.ToMain(p.FeeBase, p.Decimals)
}

// TotalChangeMain returns the plan's total change converted to a
// main-unit decimal string.
func (p *Plan) TotalChangeMain() string {
	return amount.ToMain(p.TotalChange, p.Decimals)
}

// Request bundles every input to the planner (spec §4.4).
type Request struct {
	UnusedUtxos         []UtxoInfo
	DesiredOutputs       []Output
	ChangeAddress        string
	DesiredFeeRate       feepolicy.FeeRate
	UseAllUtxos          bool
	UseUnconfirmedUtxos  bool
}

// sizeEstimator computes a transaction's vbyte-equivalent weight from its
// shape. The default implementation follows the spec's fixed formula; a
// coin profile may override it (segwit/multisig discounts) by supplying a
// different Planner.sizeFn.
type sizeEstimator func(inputCount, changeOutputCount, externalOutputCount int) int64

// defaultSizeEstimator implements size_vbytes = 10 + 148*inputCount +
// 34*(changeOutputCount + externalOutputCount).
func defaultSizeEstimator(inputCount, changeOutputCount, externalOutputCount int) int64 {
	return 10 + 148*int64(inputCount) + 34*int64(changeOutputCount+externalOutputCount)
}

// Planner runs selection and change-splitting against a fixed coin
// Configuration. Construct with NewPlanner.
type Planner struct {
	cfg    config.Configuration
	sizeFn sizeEstimator
}

// NewPlanner builds a Planner bound to a coin's Configuration, using the
// default fixed-formula size estimator.
func NewPlanner(cfg config.Configuration) *Planner {
	return &Planner{cfg: cfg, sizeFn: defaultSizeEstimator}
}

// WithSizeEstimator overrides the size estimator, for coins whose
// transaction format isn't the default 10+148n+34m shape (e.g. segwit
// discounts or multisig witness overhead).
func (p *Planner) WithSizeEstimator(fn func(inputCount, changeOutputCount, externalOutputCount int) int64) *Planner {
	p.sizeFn = fn
	return p
}
