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

package utxoengine

import (
	"fmt"
	"sort"

	"github.com/coreledger/multipay/internal/amount"
	"github.com/coreledger/multipay/internal/feepolicy"
	"github.com/coreledger/multipay/internal/logging"
	"github.com/coreledger/multipay/internal/paymenterrors"
)

// sortUtxos orders candidates confirmed-before-unconfirmed, then by
// descending value, tie-broken by (txid, vout) ascending for determinism.
func sortUtxos(utxos []UtxoInfo) {
	sort.SliceStable(utxos, func(i, j int) bool {
		a, b := utxos[i], utxos[j]
		if a.Confirmed() != b.Confirmed() {
			return a.Confirmed()
		}
		if a.ValueBase != b.ValueBase {
			return a.ValueBase > b.ValueBase
		}
		if a.TxID != b.TxID {
			return a.TxID < b.TxID
		}
		return a.OutputIndex < b.OutputIndex
	})
}

func filterCandidates(utxos []UtxoInfo, useUnconfirmed bool) []UtxoInfo {
	if useUnconfirmed {
		out := make([]UtxoInfo, len(utxos))
		copy(out, utxos)
		return out
	}
	out := make([]UtxoInfo, 0, len(utxos))
	for _, u := range utxos {
		if u.Confirmed() {
			out = append(out, u)
		}
	}
	return out
}

// selection is the intermediate result of §4.4's mode-selection step,
// before the sufficiency check and change splitting.
type selection struct {
	inputs            []UtxoInfo
	fee               int64
	targetChangeCount int
}

// Plan runs selection and change-splitting against req and returns the
// resulting transaction plan. The caller is responsible for handing the
// returned plan to a signer and then to the broadcast facade.
func (p *Planner) Plan(req Request) (*Plan, error) {
	if len(req.DesiredOutputs) == 0 {
		return nil, fmt.Errorf("%w: desiredOutputs must not be empty", paymenterrors.ErrInvalidAmount)
	}
	for _, out := range req.DesiredOutputs {
		if err := amount.ValidatePositiveBase(out.Base); err != nil {
			return nil, err
		}
	}

	candidates := filterCandidates(req.UnusedUtxos, req.UseUnconfirmedUtxos)

	var sumOutputs int64
	for _, out := range req.DesiredOutputs {
		sumOutputs += out.Base
	}
	externalCount := len(req.DesiredOutputs)

	var sel selection
	var err error
	if req.UseAllUtxos {
		sel, err = p.selectSweep(candidates, req.DesiredFeeRate, externalCount)
	} else {
		sel, err = p.selectTargeted(candidates, len(req.UnusedUtxos), sumOutputs, externalCount, req.DesiredFeeRate)
	}
	if err != nil {
		return nil, err
	}

	var inputTotal int64
	for _, u := range sel.inputs {
		inputTotal += u.ValueBase
	}

	externalOuts := make([]Output, len(req.DesiredOutputs))
	copy(externalOuts, req.DesiredOutputs)
	fee := sel.fee

	if sumOutputs+fee > inputTotal {
		if sumOutputs == inputTotal {
			externalOuts, fee, err = p.subtractFeeSweep(externalOuts, fee)
			if err != nil {
				return nil, err
			}
			sel.targetChangeCount = 0
			sumOutputs = 0
			for _, out := range externalOuts {
				sumOutputs += out.Base
			}
		} else {
			return nil, paymenterrors.NewInsufficientFunds(sumOutputs+fee, inputTotal)
		}
	}

	totalChange := inputTotal - sumOutputs - fee
	if totalChange < 0 {
		return nil, fmt.Errorf("%w: negative change (%d)", paymenterrors.ErrInvariantViolation, totalChange)
	}

	changeOuts, finalFee, err := p.splitChange(
		totalChange,
		fee,
		sel.targetChangeCount,
		req.ChangeAddress,
		len(sel.inputs),
		externalCount,
		req.DesiredFeeRate,
	)
	if err != nil {
		return nil, err
	}

	var changeSum int64
	for _, c := range changeOuts {
		changeSum += c.Base
	}

	inputs := make([]Input, len(sel.inputs))
	for i, u := range sel.inputs {
		inputs[i] = Input{TxID: u.TxID, OutputIndex: u.OutputIndex, Base: u.ValueBase}
	}

	if inputTotal != sumOutputs+changeSum+finalFee {
		return nil, fmt.Errorf(
			"%w: input total %d does not balance externals %d + change %d + fee %d",
			paymenterrors.ErrInvariantViolation, inputTotal, sumOutputs, changeSum, finalFee,
		)
	}

	return &Plan{
		Inputs:       inputs,
		ExternalOuts: externalOuts,
		ChangeOuts:   changeOuts,
		FeeBase:      finalFee,
		TotalChange:  changeSum,
		Decimals:     p.cfg.Decimals,
	}, nil
}

// selectSweep puts every candidate into the input set and computes a
// single no-change fee, per the spec's sweep mode.
func (p *Planner) selectSweep(candidates []UtxoInfo, rate feepolicy.FeeRate, externalCount int) (selection, error) {
	fee, err := p.estimateFee(rate, len(candidates), 0, externalCount)
	if err != nil {
		return selection{}, err
	}
	return selection{inputs: candidates, fee: fee, targetChangeCount: 0}, nil
}

// selectTargeted runs the ideal-single-input probe followed by incremental
// accumulation, per the spec's targeted mode.
func (p *Planner) selectTargeted(
	candidates []UtxoInfo,
	unusedCount int,
	sumOutputs int64,
	externalCount int,
	rate feepolicy.FeeRate,
) (selection, error) {
	feeSingle, err := p.estimateFee(rate, 1, 0, externalCount)
	if err != nil {
		return selection{}, err
	}
	idealMin := sumOutputs + feeSingle
	idealMax := idealMin + p.cfg.DustThreshold
	for _, u := range candidates {
		if u.ValueBase >= idealMin && u.ValueBase <= idealMax {
			return selection{inputs: []UtxoInfo{u}, fee: feeSingle, targetChangeCount: 0}, nil
		}
	}

	ordered := make([]UtxoInfo, len(candidates))
	copy(ordered, candidates)
	sortUtxos(ordered)

	var selected []UtxoInfo
	var selectedTotal int64
	var fee int64
	targetChangeCount := 0
	for _, u := range ordered {
		selected = append(selected, u)
		selectedTotal += u.ValueBase

		targetChangeCount = p.cfg.TargetUtxoPoolSize - (unusedCount - len(selected))
		if targetChangeCount < 1 {
			targetChangeCount = 1
		}

		fee, err = p.estimateFee(rate, len(selected), targetChangeCount, externalCount)
		if err != nil {
			return selection{}, err
		}

		if selectedTotal >= sumOutputs+fee {
			break
		}
	}

	return selection{inputs: selected, fee: fee, targetChangeCount: targetChangeCount}, nil
}

// subtractFeeSweep implements fee-subtraction sweep: the fee is spread
// evenly across every external output, ceiling-rounded per output so the
// sum still exactly covers the fee.
func (p *Planner) subtractFeeSweep(outs []Output, fee int64) ([]Output, int64, error) {
	externalCount := int64(len(outs))
	feeShare := (fee + externalCount - 1) / externalCount // ceil
	adjustedFee := feeShare * externalCount

	adjusted := make([]Output, len(outs))
	for i, out := range outs {
		newBase := out.Base - feeShare
		if newBase <= p.cfg.DustThreshold {
			logger := logging.GetLogger()
			logger.Errorf(
				"sweep-mode fee subtraction failed: address=%s computed share=%d would leave %d, at or below dust threshold %d",
				out.Address, feeShare, newBase, p.cfg.DustThreshold,
			)
			return nil, 0, fmt.Errorf(
				"%w: output to %s would be %d after fee subtraction, at or below dust threshold %d",
				paymenterrors.ErrDustOutput, out.Address, newBase, p.cfg.DustThreshold,
			)
		}
		adjusted[i] = Output{Address: out.Address, ExtraID: out.ExtraID, Base: newBase}
	}
	return adjusted, adjustedFee, nil
}
