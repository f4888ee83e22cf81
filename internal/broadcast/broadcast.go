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

// Package broadcast submits signed transaction bytes through an injected
// node facade and absorbs the one idempotency case the spec calls out:
// a node reporting "already in mempool" is treated as a successful
// resubmission rather than an error.
package broadcast

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mempoolDuplicateSentinel is the prefix a node facade's error message
// carries when the transaction was already accepted into its mempool.
const mempoolDuplicateSentinel = "-27"

// NodeFacade is the capability a chain adapter supplies for submitting
// raw signed transaction bytes.
type NodeFacade interface {
	SendTx(ctx context.Context, hexBytes string) error
}

// Result is the outcome of a broadcast attempt.
type Result struct {
	TxID string
	// Duplicate is true when the facade reported the transaction was
	// already in its mempool; the broadcast is still considered
	// successful.
	Duplicate bool
}

// Submitter wraps a NodeFacade with idempotency handling and logging.
type Submitter struct {
	facade NodeFacade
	logger *zap.SugaredLogger
}

// NewSubmitter builds a Submitter around facade.
func NewSubmitter(facade NodeFacade, logger *zap.SugaredLogger) *Submitter {
	return &Submitter{facade: facade, logger: logger}
}

// Broadcast submits hexBytes, whose hash/txid is already known as txid
// (computed by the plan's serializer before signing). If the facade
// reports a mempool-duplicate error, that is folded into a successful
// Result carrying the originally known txid; any other error propagates.
func (s *Submitter) Broadcast(ctx context.Context, txid string, hexBytes string) (Result, error) {
	attemptID := uuid.NewString()
	if s.logger != nil {
		s.logger.Debugf("broadcast attempt %s submitting %s", attemptID, txid)
	}
	err := s.facade.SendTx(ctx, hexBytes)
	if err == nil {
		return Result{TxID: txid}, nil
	}
	if strings.HasPrefix(err.Error(), mempoolDuplicateSentinel) {
		if s.logger != nil {
			s.logger.Infof("broadcast attempt %s of %s already present in mempool, treating as success", attemptID, txid)
		}
		return Result{TxID: txid, Duplicate: true}, nil
	}
	return Result{}, fmt.Errorf("broadcast: attempt %s submit %s failed: %w", attemptID, txid, err)
}
