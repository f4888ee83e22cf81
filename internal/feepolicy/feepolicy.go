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

// Package feepolicy resolves the fee rate the engine should quote for a
// payment: a qualitative level (slow/normal/fast) consulted against a
// chain-specific oracle, or an explicit caller-supplied rate passed
// through unchanged, normalized into a single FeeRate the selector and
// the account-ledger builder both consume.
package feepolicy

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// RateType distinguishes how a FeeRate's Rate value should be interpreted.
type RateType string

const (
	// RateBasePerWeight means Rate is a base-unit amount per weight unit
	// (vbyte for Bitcoin-style chains, a generic "weight" for others).
	RateBasePerWeight RateType = "BASE_PER_WEIGHT"

	// RateBase means Rate is a single flat base-unit fee for the whole
	// transaction, independent of its size.
	RateBase RateType = "BASE"

	// RateMain means Rate is a flat fee denominated in main units and must
	// be converted to base units before use.
	RateMain RateType = "MAIN"
)

// FeeRate is the normalized fee quote passed into the UTXO planner or the
// account-ledger payment builder.
type FeeRate struct {
	Rate string   `json:"rate"`
	Type RateType `json:"type"`
}

// NewBasePerWeight builds a FeeRate from an integer base-units-per-weight
// value, the common case for a live fee-estimator result.
func NewBasePerWeight(baseUnitsPerWeight int64) FeeRate {
	return FeeRate{
		Rate: decimal.NewFromInt(baseUnitsPerWeight).String(),
		Type: RateBasePerWeight,
	}
}

// Decimal parses the FeeRate's Rate field, returning an error if it is not
// a well-formed decimal string.
func (f FeeRate) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(f.Rate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("feepolicy: malformed rate %q: %w", f.Rate, err)
	}
	return d, nil
}

// Level names one of the three qualitative fee speeds a caller may ask
// for in place of an explicit rate.
type Level string

const (
	LevelSlow   Level = "slow"
	LevelNormal Level = "normal"
	LevelFast   Level = "fast"
)

// Option is the input to fee-policy resolution (§4.3): either a
// qualitative Level, consulted against the coin's fee oracle, or an
// explicit FeeRate passed through unchanged.
type Option struct {
	Level *Level
	Rate  *FeeRate
}

// LevelOracle is the capability a chain adapter supplies for turning a
// qualitative fee level into a concrete rate.
type LevelOracle interface {
	EstimateFeeRateForLevel(ctx context.Context, level Level) (FeeRate, error)
}

// Resolved is the output of fee-policy resolution.
type Resolved struct {
	TargetFeeLevel *Level
	TargetFeeRate  FeeRate
}

// ResolveOption implements §4.3: when a level is supplied, the
// coin-specific fee oracle is consulted and its answer passed through
// unchanged; when an explicit rate is supplied, it is returned as-is.
func ResolveOption(ctx context.Context, opt Option, oracle LevelOracle) (Resolved, error) {
	if opt.Rate != nil {
		return Resolved{TargetFeeRate: *opt.Rate}, nil
	}
	if opt.Level == nil {
		return Resolved{}, fmt.Errorf("feepolicy: fee option carries neither a level nor a rate")
	}
	rate, err := oracle.EstimateFeeRateForLevel(ctx, *opt.Level)
	if err != nil {
		return Resolved{}, fmt.Errorf("feepolicy: failed to resolve fee level %q: %w", *opt.Level, err)
	}
	return Resolved{TargetFeeLevel: opt.Level, TargetFeeRate: rate}, nil
}
