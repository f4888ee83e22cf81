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

	"github.com/shopspring/decimal"

	"github.com/coreledger/multipay/internal/feepolicy"
)

// estimateFee derives a fee in base units from a FeeRate and a hypothetical
// transaction shape, then floors it against the coin's configured minimum
// fee and the network's minimum relay fee, finally rounding up to an
// integer base amount.
func (p *Planner) estimateFee(rate feepolicy.FeeRate, inputCount, changeOutputCount, externalOutputCount int) (int64, error) {
	rateDec, err := rate.Decimal()
	if err != nil {
		return 0, err
	}

	var feeDec decimal.Decimal
	switch rate.Type {
	case feepolicy.RateBasePerWeight:
		size := p.sizeFn(inputCount, changeOutputCount, externalOutputCount)
		feeDec = rateDec.Mul(decimal.NewFromInt(size))
	case feepolicy.RateMain:
		feeDec = rateDec.Shift(p.cfg.Decimals)
	case feepolicy.RateBase:
		feeDec = rateDec
	default:
		return 0, fmt.Errorf("utxoengine: unrecognized fee rate type %q", rate.Type)
	}

	if p.cfg.MinTxFee != nil {
		floorDec, err := p.cfg.MinTxFee.Decimal()
		if err != nil {
			return 0, err
		}
		var floorBase decimal.Decimal
		switch p.cfg.MinTxFee.Type {
		case feepolicy.RateMain:
			floorBase = floorDec.Shift(p.cfg.Decimals)
		default:
			floorBase = floorDec
		}
		if feeDec.LessThan(floorBase) {
			feeDec = floorBase
		}
	}

	minRelay := decimal.NewFromInt(p.cfg.NetworkMinRelayFee)
	if feeDec.LessThan(minRelay) {
		feeDec = minRelay
	}

	return feeDec.Ceil().IntPart(), nil
}
