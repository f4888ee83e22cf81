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

// Package retry wraps idempotent read operations with reconnect-on-
// transport-disconnect behavior: exponential backoff starting at 200ms,
// capped at 5s, doubling each attempt, up to a small fixed bound.
package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/coreledger/multipay/internal/paymenterrors"
)

const (
	initialDelay = 200 * time.Millisecond
	maxDelay     = 5 * time.Second
	maxAttempts  = 5
)

// Reconnector re-establishes the underlying transport after a disconnect
// is observed. Implementations are chain-adapter specific (a new RPC
// client, a fresh websocket dial, etc).
type Reconnector func(ctx context.Context) error

// Policy bundles a Reconnector with the logger used to report retry
// attempts.
type Policy struct {
	reconnect Reconnector
	logger    *zap.SugaredLogger
}

// NewPolicy builds a Policy around the given reconnect function.
func NewPolicy(reconnect Reconnector, logger *zap.SugaredLogger) *Policy {
	return &Policy{reconnect: reconnect, logger: logger}
}

// Do invokes op. If op fails with ErrTransportDisconnected, Do attempts to
// reconnect with exponential backoff and retries op, calling op at most
// maxAttempts times in all. Any other error, or exhaustion of the attempt
// budget, propagates immediately.
func (p *Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	delay := initialDelay
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, paymenterrors.ErrTransportDisconnected) {
			return lastErr
		}
		if attempt == maxAttempts-1 {
			break
		}

		if p.logger != nil {
			p.logger.Infof("transport disconnected, retrying in %s (attempt %d/%d)", delay, attempt+1, maxAttempts)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		if p.reconnect != nil {
			if err := p.reconnect(ctx); err != nil {
				if p.logger != nil {
					p.logger.Errorf("reconnect attempt failed: %s", err)
				}
			}
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return lastErr
}
