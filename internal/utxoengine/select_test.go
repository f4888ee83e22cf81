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
	"errors"
	"testing"

	"github.com/coreledger/multipay/internal/config"
	"github.com/coreledger/multipay/internal/feepolicy"
	"github.com/coreledger/multipay/internal/paymenterrors"
)

func testConfig() config.Configuration {
	return config.Configuration{
		Decimals:           8,
		NetworkMinRelayFee: 1000,
		DustThreshold:      546,
		TargetUtxoPoolSize: 1,
		MinChange:          "0",
	}
}

func TestPlanIdealSingleInput(t *testing.T) {
	p := NewPlanner(testConfig())
	req := Request{
		UnusedUtxos: []UtxoInfo{
			{TxID: "a", OutputIndex: 0, ValueBase: 10_000, Height: 100},
			{TxID: "b", OutputIndex: 0, ValueBase: 50_000, Height: 100},
		},
		DesiredOutputs:      []Output{{Address: "A", Base: 8_000}},
		ChangeAddress:       "change",
		DesiredFeeRate:      feepolicy.NewBasePerWeight(10),
		UseUnconfirmedUtxos: true,
	}

	plan, err := p.Plan(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Inputs) != 1 || plan.Inputs[0].TxID != "a" {
		t.Fatalf("expected single input a, got %+v", plan.Inputs)
	}
	if len(plan.ChangeOuts) != 0 {
		t.Fatalf("expected no change outputs, got %+v", plan.ChangeOuts)
	}
	if plan.FeeBase != 2000 {
		t.Fatalf("expected fee 2000, got %d", plan.FeeBase)
	}
}

func TestPlanSweepTwoUtxos(t *testing.T) {
	p := NewPlanner(testConfig())
	req := Request{
		UnusedUtxos: []UtxoInfo{
			{TxID: "a", OutputIndex: 0, ValueBase: 30_000, Height: 100},
			{TxID: "b", OutputIndex: 0, ValueBase: 20_000, Height: 100},
		},
		DesiredOutputs:      []Output{{Address: "A", Base: 50_000}},
		ChangeAddress:       "change",
		DesiredFeeRate:      feepolicy.NewBasePerWeight(10),
		UseAllUtxos:         true,
		UseUnconfirmedUtxos: true,
	}

	plan, err := p.Plan(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Inputs) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(plan.Inputs))
	}
	if len(plan.ChangeOuts) != 0 {
		t.Fatalf("expected no change, got %+v", plan.ChangeOuts)
	}
	if plan.FeeBase != 3400 {
		t.Fatalf("expected fee 3400, got %d", plan.FeeBase)
	}
	if plan.ExternalOuts[0].Base != 46_600 {
		t.Fatalf("expected subtracted external 46600, got %d", plan.ExternalOuts[0].Base)
	}
}

func TestPlanMultiChangePoolFill(t *testing.T) {
	cfg := testConfig()
	cfg.TargetUtxoPoolSize = 4
	p := NewPlanner(cfg)
	req := Request{
		UnusedUtxos: []UtxoInfo{
			{TxID: "a", OutputIndex: 0, ValueBase: 1_000_000, Height: 100},
		},
		DesiredOutputs:      []Output{{Address: "A", Base: 100_000}},
		ChangeAddress:       "change",
		DesiredFeeRate:      feepolicy.NewBasePerWeight(10),
		UseUnconfirmedUtxos: true,
	}

	plan, err := p.Plan(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var changeSum int64
	for _, c := range plan.ChangeOuts {
		changeSum += c.Base
	}
	var inputSum int64
	for _, in := range plan.Inputs {
		inputSum += in.Base
	}
	if inputSum != plan.ExternalOuts[0].Base+changeSum+plan.FeeBase {
		t.Fatalf("plan does not balance: in=%d ext=%d change=%d fee=%d", inputSum, plan.ExternalOuts[0].Base, changeSum, plan.FeeBase)
	}
}

func TestPlanInsufficientFunds(t *testing.T) {
	p := NewPlanner(testConfig())
	req := Request{
		UnusedUtxos: []UtxoInfo{
			{TxID: "a", OutputIndex: 0, ValueBase: 5_000, Height: 100},
		},
		DesiredOutputs:      []Output{{Address: "A", Base: 10_000}},
		ChangeAddress:       "change",
		DesiredFeeRate:      feepolicy.NewBasePerWeight(10),
		UseUnconfirmedUtxos: true,
	}

	_, err := p.Plan(req)
	if !paymenterrors.IsInsufficientFunds(err) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}
}

func TestPlanEmptyOutputsRejected(t *testing.T) {
	p := NewPlanner(testConfig())
	req := Request{
		UnusedUtxos:         []UtxoInfo{{TxID: "a", OutputIndex: 0, ValueBase: 5_000, Height: 100}},
		ChangeAddress:       "change",
		DesiredFeeRate:      feepolicy.NewBasePerWeight(10),
		UseUnconfirmedUtxos: true,
	}

	_, err := p.Plan(req)
	if !errors.Is(err, paymenterrors.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

// TestPlanDustDropReconcilesIntoLooseChange exercises the boundary where
// the weighted change schedule's smallest share falls at or below the
// dust floor: the dropped share must still be conserved as loose change
// (absorbed into a surviving output or the fee), never vanish from the
// input/output balance.
func TestPlanDustDropReconcilesIntoLooseChange(t *testing.T) {
	cfg := testConfig()
	cfg.TargetUtxoPoolSize = 3
	cfg.DustThreshold = 2_000
	p := NewPlanner(cfg)
	req := Request{
		UnusedUtxos: []UtxoInfo{
			{TxID: "a", OutputIndex: 0, ValueBase: 100_000, Height: 100},
		},
		DesiredOutputs:      []Output{{Address: "A", Base: 90_000}},
		ChangeAddress:       "change",
		DesiredFeeRate:      feepolicy.NewBasePerWeight(10),
		UseUnconfirmedUtxos: true,
	}

	plan, err := p.Plan(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var changeSum int64
	for _, c := range plan.ChangeOuts {
		changeSum += c.Base
	}
	var inputSum int64
	for _, in := range plan.Inputs {
		inputSum += in.Base
	}
	if inputSum != plan.ExternalOuts[0].Base+changeSum+plan.FeeBase {
		t.Fatalf("plan does not balance: in=%d ext=%d change=%d fee=%d", inputSum, plan.ExternalOuts[0].Base, changeSum, plan.FeeBase)
	}
}

func TestPlanExcludesUnconfirmedWhenDisallowed(t *testing.T) {
	p := NewPlanner(testConfig())
	req := Request{
		UnusedUtxos: []UtxoInfo{
			{TxID: "a", OutputIndex: 0, ValueBase: 5_000, Height: 0},
		},
		DesiredOutputs:      []Output{{Address: "A", Base: 1_000}},
		ChangeAddress:       "change",
		DesiredFeeRate:      feepolicy.NewBasePerWeight(10),
		UseUnconfirmedUtxos: false,
	}

	_, err := p.Plan(req)
	if !paymenterrors.IsInsufficientFunds(err) {
		t.Fatalf("expected InsufficientFundsError since the only utxo is unconfirmed, got %v", err)
	}
}
