// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dca

import (
	"context"
	"sync"
)

// Reservation is the on-chain balance/reservation primitive the
// scheduler is contracted against (§6). Reserve/Unreserve/
// TransferFromReserved must be atomic; the scheduler never partially
// reserves or transfers. ReservedBalance is a read of the ground truth
// the executor needs to decide, per execution, whether a schedule's
// remaining reservation still covers one trade (§4.3 step b) — an
// implementation-necessary extension of the interface §6 names, since
// the scheduler must consult the primitive's own accounting rather
// than shadow it. Credit is a second implementation-necessary
// extension: a trade's output was never reserved from anyone, so
// settling it has no "reserved" leg to transfer out of — the venue
// simply deposits it into the owner's free balance, the same way the
// original pallet's router pays out swap proceeds via
// Currency::deposit rather than a transfer-from-reserved.
type Reservation interface {
	Reserve(ctx context.Context, owner AccountId, asset AssetId, amount *Balance) error
	Unreserve(ctx context.Context, owner AccountId, asset AssetId, amount *Balance) error
	TransferFromReserved(ctx context.Context, owner AccountId, asset AssetId, amount *Balance, to AccountId) error
	ReservedBalance(ctx context.Context, owner AccountId, asset AssetId) (*Balance, error)
	Credit(ctx context.Context, owner AccountId, asset AssetId, amount *Balance) error
}

// MemoryLedger is a minimal in-memory Reservation, used by the
// simulator and by tests in place of the host runtime's real balance
// pallet. It mirrors core/txpool.TxPool's reservations map: a single
// mutex guarding per-account bookkeeping, free balance moving to
// reserved balance and back.
type MemoryLedger struct {
	mu       sync.Mutex
	free     map[AccountId]map[AssetId]*Balance
	reserved map[AccountId]map[AssetId]*Balance
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		free:     make(map[AccountId]map[AssetId]*Balance),
		reserved: make(map[AccountId]map[AssetId]*Balance),
	}
}

// Mint credits owner's free balance, for simulator/test setup only.
func (l *MemoryLedger) Mint(owner AccountId, asset AssetId, amount *Balance) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensure(l.free, owner, asset)
	l.free[owner][asset] = SatAdd(l.free[owner][asset], amount)
}

// FreeBalance reports owner's unreserved balance of asset.
func (l *MemoryLedger) FreeBalance(owner AccountId, asset AssetId) *Balance {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensure(l.free, owner, asset)
	return new(Balance).Set(l.free[owner][asset])
}

// ReservedBalance reports owner's reserved balance of asset.
func (l *MemoryLedger) ReservedBalance(_ context.Context, owner AccountId, asset AssetId) (*Balance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensure(l.reserved, owner, asset)
	return new(Balance).Set(l.reserved[owner][asset]), nil
}

func (l *MemoryLedger) ensure(m map[AccountId]map[AssetId]*Balance, owner AccountId, asset AssetId) {
	acct, ok := m[owner]
	if !ok {
		acct = make(map[AssetId]*Balance)
		m[owner] = acct
	}
	if _, ok := acct[asset]; !ok {
		acct[asset] = new(Balance)
	}
}

func (l *MemoryLedger) Reserve(_ context.Context, owner AccountId, asset AssetId, amount *Balance) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensure(l.free, owner, asset)
	if l.free[owner][asset].Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.free[owner][asset] = SatSub(l.free[owner][asset], amount)
	l.ensure(l.reserved, owner, asset)
	l.reserved[owner][asset] = SatAdd(l.reserved[owner][asset], amount)
	return nil
}

func (l *MemoryLedger) Unreserve(_ context.Context, owner AccountId, asset AssetId, amount *Balance) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensure(l.reserved, owner, asset)
	moved := amount
	if l.reserved[owner][asset].Cmp(amount) < 0 {
		moved = new(Balance).Set(l.reserved[owner][asset])
	}
	l.reserved[owner][asset] = SatSub(l.reserved[owner][asset], moved)
	l.ensure(l.free, owner, asset)
	l.free[owner][asset] = SatAdd(l.free[owner][asset], moved)
	return nil
}

func (l *MemoryLedger) TransferFromReserved(_ context.Context, owner AccountId, asset AssetId, amount *Balance, to AccountId) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensure(l.reserved, owner, asset)
	if l.reserved[owner][asset].Cmp(amount) < 0 {
		return ErrAccountingCorrupt
	}
	l.reserved[owner][asset] = SatSub(l.reserved[owner][asset], amount)
	l.ensure(l.free, to, asset)
	l.free[to][asset] = SatAdd(l.free[to][asset], amount)
	return nil
}

// Credit deposits amount of asset directly into owner's free balance,
// with no corresponding reserved balance anywhere. This is how trade
// output is settled: it was never reserved from owner in the first
// place, so there is nothing to transfer it from.
func (l *MemoryLedger) Credit(_ context.Context, owner AccountId, asset AssetId, amount *Balance) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensure(l.free, owner, asset)
	l.free[owner][asset] = SatAdd(l.free[owner][asset], amount)
	return nil
}
