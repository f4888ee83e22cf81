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

// Package paymenterrors defines the error taxonomy shared by every payment
// engine package. These are sentinel-wrapped error values, not a class
// hierarchy: callers use errors.Is/errors.As against the sentinels below.
package paymenterrors

import (
	"errors"
	"fmt"
)

// Sentinels usable with errors.Is.
var (
	// ErrInvalidAddress is returned when a payport or change address fails
	// chain validation.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidAmount is returned for negative amounts, zero where a
	// strictly positive value is required, or amounts with a fractional
	// part finer than one base unit.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrDustOutput is returned when a post-subtraction external output in
	// a fee-subtraction sweep would fall at or below the dust threshold.
	ErrDustOutput = errors.New("output below dust threshold")

	// ErrInvariantViolation marks a planner bug (e.g. negative change),
	// never a user error. Callers should treat it as fatal.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrTransportDisconnected is raised by an injected node facade when
	// the underlying transport drops. Retried by the retry package.
	ErrTransportDisconnected = errors.New("transport disconnected")

	// ErrActivityIndeterminate marks a balance activity record that could
	// not be classified; logged and skipped by the scanner, never fatal.
	ErrActivityIndeterminate = errors.New("activity indeterminate")
)

// InsufficientFundsError reports a non-sweep shortfall: required exceeds
// available by the planner's own accounting.
type InsufficientFundsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"insufficient funds: required %d, available %d",
		e.Required,
		e.Available,
	)
}

// NewInsufficientFunds builds an InsufficientFundsError.
func NewInsufficientFunds(required, available int64) error {
	return &InsufficientFundsError{Required: required, Available: available}
}

// IsInsufficientFunds reports whether err is (or wraps) an
// InsufficientFundsError.
func IsInsufficientFunds(err error) bool {
	var target *InsufficientFundsError
	return errors.As(err, &target)
}
