// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dca

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// scriptedOutcome is one canned venue response, popped in order.
type scriptedOutcome struct {
	result *TradeResult
	err    error
}

// fakeVenue is a synchronous, in-memory Venue double. Outcomes are
// scripted per-owner (the Trade interface carries no schedule id, and
// tests give each schedule a distinct owner); once a schedule's script
// is exhausted, Trade fills the full budget 1:1 with no fee.
type fakeVenue struct {
	mu     sync.Mutex
	script map[AccountId][]scriptedOutcome
	calls  map[AccountId]int
}

func newFakeVenue() *fakeVenue {
	return &fakeVenue{
		script: make(map[AccountId][]scriptedOutcome),
		calls:  make(map[AccountId]int),
	}
}

func (v *fakeVenue) queue(owner AccountId, outcomes ...scriptedOutcome) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.script[owner] = append(v.script[owner], outcomes...)
}

func (v *fakeVenue) Trade(_ context.Context, owner AccountId, _ Direction, _, _ AssetId, _ Route, budget, _ *Balance) (*TradeResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls[owner]++

	if q := v.script[owner]; len(q) > 0 {
		next := q[0]
		v.script[owner] = q[1:]
		return next.result, next.err
	}
	return &TradeResult{
		InputConsumed:  new(Balance).Set(budget),
		OutputProduced: new(Balance).Set(budget),
		Fee:            new(Balance),
	}, nil
}

func (v *fakeVenue) callCount(owner AccountId) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls[owner]
}

// fixedBeacon returns a distinct deterministic seed per block number,
// standing in for the on-chain randomness beacon.
func fixedBeacon() RandomnessBeacon {
	return FuncBeacon(func(b BlockNumber) [32]byte {
		var seed [32]byte
		seed[0] = byte(b)
		seed[1] = byte(b >> 8)
		return seed
	})
}

func addr(n byte) AccountId {
	return common.BytesToAddress([]byte{n})
}

func bal(n uint64) *Balance { return new(Balance).SetUint64(n) }

// newTestScheduler wires a Scheduler against an empty in-memory ledger
// and the given venue; tests mint owner funds themselves (see fund).
func newTestScheduler(venue Venue, beacon RandomnessBeacon) (*Scheduler, *MemoryLedger) {
	ledger := NewMemoryLedger()
	return New(ledger, venue, beacon), ledger
}
