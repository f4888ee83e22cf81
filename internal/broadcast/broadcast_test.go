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

package broadcast

import (
	"context"
	"errors"
	"testing"
)

type stubFacade struct {
	err error
}

func (f stubFacade) SendTx(ctx context.Context, hexBytes string) error {
	return f.err
}

func TestBroadcastSuccess(t *testing.T) {
	s := NewSubmitter(stubFacade{}, nil)
	result, err := s.Broadcast(context.Background(), "txid-1", "deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TxID != "txid-1" || result.Duplicate {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestBroadcastMempoolDuplicate(t *testing.T) {
	s := NewSubmitter(stubFacade{err: errors.New("-27: transaction already in pool")}, nil)
	result, err := s.Broadcast(context.Background(), "txid-1", "deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Duplicate || result.TxID != "txid-1" {
		t.Fatalf("expected duplicate success with original txid, got %+v", result)
	}
}

func TestBroadcastOtherError(t *testing.T) {
	s := NewSubmitter(stubFacade{err: errors.New("connection refused")}, nil)
	_, err := s.Broadcast(context.Background(), "txid-1", "deadbeef")
	if err == nil {
		t.Fatalf("expected error to propagate")
	}
}
