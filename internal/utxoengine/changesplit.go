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
	"github.com/coreledger/multipay/internal/amount"
	"github.com/coreledger/multipay/internal/feepolicy"
)

// splitChange builds the weighted change schedule, drops dust shares,
// reconciles loose change, and returns the surviving change outputs along
// with the final fee (possibly lower than the fee passed in, if the
// actual change-output count turned out cheaper to pay for).
// targetChangeCount is the change-output count the selector targeted; 0
// means the caller is in a mode that never emits change (sweep,
// ideal-single-input, or fee-subtraction sweep), in which case totalChange
// — whatever is left over, which should be zero except for rounding — is
// either emitted as a single change output or absorbed into the fee.
func (p *Planner) splitChange(
	totalChange int64,
	fee int64,
	targetChangeCount int,
	changeAddress string,
	inputCount int,
	externalCount int,
	rate feepolicy.FeeRate,
) ([]ChangeOutput, int64, error) {
	if targetChangeCount <= 0 {
		if totalChange > p.cfg.DustThreshold {
			return []ChangeOutput{{Address: changeAddress, Base: totalChange}}, fee, nil
		}
		return nil, fee + totalChange, nil
	}

	minChangeSat, err := amount.ToBase(p.cfg.MinChange, p.cfg.Decimals)
	if err != nil {
		minChangeSat = 0
	}
	dustFloor := p.cfg.DustThreshold
	if minChangeSat > dustFloor {
		dustFloor = minChangeSat
	}

	weights := make([]int64, targetChangeCount)
	var weightSum int64
	for i := range weights {
		weights[i] = int64(1) << uint(i)
		weightSum += weights[i]
	}

	var survivors []ChangeOutput
	var allocated int64
	for _, w := range weights {
		share := (totalChange * w) / weightSum
		if share > dustFloor {
			survivors = append(survivors, ChangeOutput{Address: changeAddress, Base: share})
			allocated += share
		}
	}

	loose := totalChange - allocated

	survivorCount := len(survivors)
	recomputeCount := survivorCount
	if recomputeCount == 0 {
		recomputeCount = 1
	}
	recomputedFee, err := p.estimateFee(rate, inputCount, recomputeCount, externalCount)
	if err == nil && recomputedFee < fee {
		loose += fee - recomputedFee
		fee = recomputedFee
	}

	if survivorCount > 0 {
		count := int64(survivorCount)
		if loose >= count {
			perOutput := loose / count
			for i := range survivors {
				survivors[i].Base += perOutput
			}
			loose -= perOutput * count
		}
		fee += loose
		return survivors, fee, nil
	}

	if loose > dustFloor {
		return []ChangeOutput{{Address: changeAddress, Base: loose}}, fee, nil
	}
	fee += loose
	return nil, fee, nil
}
