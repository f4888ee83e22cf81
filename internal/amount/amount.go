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

// Package amount implements the engine's denomination arithmetic: the
// conversion boundary between arbitrary-precision main-unit decimal
// strings (how amounts arrive from and are reported to callers) and
// integer base units (how every internal computation is performed).
package amount

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/coreledger/multipay/internal/paymenterrors"
)

// ToBase converts a main-unit decimal string to integer base units for a
// coin with the given number of decimals. It is a contract violation for
// main to carry a fractional part finer than one base unit: ToBase does
// not silently floor a non-exact value away, it rejects it.
func ToBase(main string, decimals int32) (int64, error) {
	d, err := decimal.NewFromString(main)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed amount %q: %s", paymenterrors.ErrInvalidAmount, main, err)
	}
	scaled := d.Shift(decimals)
	floored := scaled.Floor()
	if !scaled.Equal(floored) {
		return 0, fmt.Errorf(
			"%w: %q has a fractional part finer than one base unit",
			paymenterrors.ErrInvalidAmount,
			main,
		)
	}
	if !floored.IsInteger() {
		return 0, fmt.Errorf("%w: %q does not fit in an integer base amount", paymenterrors.ErrInvalidAmount, main)
	}
	return floored.IntPart(), nil
}

// ToMain converts integer base units to a main-unit decimal string.
func ToMain(base int64, decimals int32) string {
	return decimal.New(base, 0).Shift(-decimals).String()
}

// ValidatePositiveBase fails with InvalidAmount unless base is strictly
// positive, the precondition the spec requires of every external output
// value before it reaches the selector.
func ValidatePositiveBase(base int64) error {
	if base <= 0 {
		return fmt.Errorf("%w: amount %d is not strictly positive", paymenterrors.ErrInvalidAmount, base)
	}
	return nil
}

// ValidateNonNegativeBase fails with InvalidAmount unless base is zero or
// positive, used for quantities (e.g. computed change) that are legally
// allowed to be zero but never negative.
func ValidateNonNegativeBase(base int64) error {
	if base < 0 {
		return fmt.Errorf("%w: amount %d is negative", paymenterrors.ErrInvalidAmount, base)
	}
	return nil
}
