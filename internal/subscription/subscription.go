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

// Package subscription bridges live push notifications into the same
// BalanceActivity classification the ledger scanner uses, so a caller
// draining history via ledgerscan and a caller watching for new activity
// observe a uniform record shape.
package subscription

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coreledger/multipay/internal/ledgerscan"
)

// expirationCheckInterval is how often the background loop sweeps for
// addresses whose subscription TTL has lapsed.
const expirationCheckInterval = 10 * time.Second

// PushFacade is the capability a chain adapter supplies for subscribing to
// live payment events on a set of addresses. Implementations forward
// inbound events to the handler registered via Subscribe.
type PushFacade interface {
	Subscribe(ctx context.Context, addresses []string, handler func(ledgerscan.RawTx)) error
	Unsubscribe(ctx context.Context, addresses []string) error
}

// subscriptionEntry tracks when an address was registered and how long its
// registration should live before the expiration loop prunes it.
type subscriptionEntry struct {
	ttl       time.Duration
	createdAt time.Time
}

// Bridge tracks the set of addresses a caller has subscribed to and
// classifies each inbound event before handing it to the caller's sink.
// Subscription is best-effort: facade rejection is logged, not returned
// as a hard error, since transport disconnects are the retry package's
// concern, not this one's. A subscribed address with a non-zero TTL is
// pruned by a background loop so a caller that forgets to unregister a
// one-shot watch doesn't leak memory forever.
type Bridge struct {
	mu          sync.Mutex
	facade      PushFacade
	logger      *zap.SugaredLogger
	networkType string
	assetSymbol string
	addresses   map[string]subscriptionEntry
	stopChan    chan struct{}
	stopped     bool
}

// NewBridge builds a subscription Bridge bound to a chain's push facade
// and starts its background expiration loop.
func NewBridge(facade PushFacade, logger *zap.SugaredLogger, networkType, assetSymbol string) *Bridge {
	b := &Bridge{
		facade:      facade,
		logger:      logger,
		networkType: networkType,
		assetSymbol: assetSymbol,
		addresses:   make(map[string]subscriptionEntry),
		stopChan:    make(chan struct{}),
	}
	go b.expirationLoop()
	return b
}

// Subscribe registers addresses for push notifications, invoking sink for
// every inbound event that classifies against one of them. ttl is the
// duration after which a registration expires and is pruned; pass 0 for
// a registration that never expires on its own. Rejection by the facade
// is logged and not returned as an error.
func (b *Bridge) Subscribe(ctx context.Context, addresses []string, ttl time.Duration, sink ledgerscan.Sink) error {
	now := time.Now()
	b.mu.Lock()
	for _, addr := range addresses {
		b.addresses[addr] = subscriptionEntry{ttl: ttl, createdAt: now}
	}
	b.mu.Unlock()

	err := b.facade.Subscribe(ctx, addresses, func(tx ledgerscan.RawTx) {
		b.handleEvent(ctx, tx, sink)
	})
	if err != nil {
		if b.logger != nil {
			b.logger.Warnf("subscription rejected for %d addresses: %s", len(addresses), err)
		}
	}
	return nil
}

// Unregister removes addresses from the tracked set and asks the facade
// to stop forwarding events for them.
func (b *Bridge) Unregister(ctx context.Context, addresses []string) error {
	b.mu.Lock()
	for _, addr := range addresses {
		delete(b.addresses, addr)
	}
	b.mu.Unlock()
	return b.facade.Unsubscribe(ctx, addresses)
}

// Stop halts the background expiration loop. Idempotent - safe to call
// multiple times.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.stopped = true
	close(b.stopChan)
}

// SubscriptionCount returns the number of addresses currently registered.
func (b *Bridge) SubscriptionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.addresses)
}

func (b *Bridge) handleEvent(ctx context.Context, tx ledgerscan.RawTx, sink ledgerscan.Sink) {
	for address := range b.classifiableAddresses(tx) {
		activity, ok := ledgerscan.Classify(tx, address, b.networkType, b.assetSymbol)
		if !ok {
			continue
		}
		if err := sink(ctx, activity); err != nil {
			if b.logger != nil {
				b.logger.Errorf("subscription sink returned error for tx %s: %s", tx.ID, err)
			}
		}
	}
}

func (b *Bridge) classifiableAddresses(tx ledgerscan.RawTx) map[string]bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	matches := make(map[string]bool)
	for addr := range b.addresses {
		if tx.Source.Address == addr || tx.Destination.Address == addr {
			matches[addr] = true
		}
	}
	return matches
}

// expireSubscriptions unregisters every address whose TTL has lapsed.
func (b *Bridge) expireSubscriptions() {
	b.mu.Lock()
	now := time.Now()
	var expired []string
	for addr, entry := range b.addresses {
		if entry.ttl > 0 && now.Sub(entry.createdAt) > entry.ttl {
			expired = append(expired, addr)
		}
	}
	for _, addr := range expired {
		delete(b.addresses, addr)
	}
	b.mu.Unlock()

	if len(expired) == 0 {
		return
	}
	if b.logger != nil {
		b.logger.Debugf("subscription expired for %d addresses", len(expired))
	}
	if err := b.facade.Unsubscribe(context.Background(), expired); err != nil && b.logger != nil {
		b.logger.Warnf("failed to unsubscribe %d expired addresses: %s", len(expired), err)
	}
}

// expirationLoop periodically checks for expired subscriptions.
func (b *Bridge) expirationLoop() {
	ticker := time.NewTicker(expirationCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.expireSubscriptions()
		case <-b.stopChan:
			return
		}
	}
}
