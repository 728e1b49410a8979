// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dca

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	assetIn  AssetId = 1
	assetOut AssetId = 2
)

func recoverableFailure() *TradeFailure { return Recoverable(ErrNoLiquidity) }

func sellOrder(amount uint64) Order {
	return Order{Kind: OrderSell, AssetIn: assetIn, AssetOut: assetOut, Amount: bal(amount), Limit: bal(0)}
}

func fund(ledger *MemoryLedger, owner AccountId) {
	ledger.Mint(owner, assetIn, bal(1_000_000))
	ledger.Mint(owner, NativeAssetID, bal(10_000_000))
}

func TestSchedule_HappyPathFixedRecurrence(t *testing.T) {
	venue := newFakeVenue()
	sched, ledger := newTestScheduler(venue, fixedBeacon())
	owner := addr(1)
	fund(ledger, owner)

	perTrade := uint64(100)
	req := ScheduleRequest{
		Owner:       owner,
		Period:      3,
		TotalAmount: bal(perTrade * 5),
		Recurrence:  Fixed(5),
		Order:       sellOrder(perTrade),
	}
	id, err := sched.Schedule(context.Background(), 1, req)
	require.NoError(t, err)

	b0, ok := sched.NextExecutionBlock(id)
	require.True(t, ok)
	require.EqualValues(t, 2, b0)

	for _, b := range []BlockNumber{2, 5, 8, 11, 14} {
		sched.OnBlockBegin(context.Background(), b)
	}

	_, ok = sched.Get(id)
	require.False(t, ok, "schedule should be deleted once its fixed recurrence is exhausted")
	require.Equal(t, 5, venue.callCount(owner))
	require.True(t, ledger.FreeBalance(owner, assetOut).Cmp(bal(perTrade*5)) == 0)
}

func TestSchedule_RetryThenSuspend(t *testing.T) {
	venue := newFakeVenue()
	sched, ledger := newTestScheduler(venue, fixedBeacon())
	owner := addr(2)
	fund(ledger, owner)

	venue.queue(owner,
		scriptedOutcome{err: recoverableFailure()},
		scriptedOutcome{err: recoverableFailure()},
		scriptedOutcome{err: recoverableFailure()},
	)

	req := ScheduleRequest{
		Owner:       owner,
		Period:      1,
		TotalAmount: bal(1000),
		Recurrence:  Perpetual(),
		Order:       sellOrder(100),
	}
	id, err := sched.Schedule(context.Background(), 1, req)
	require.NoError(t, err)

	sched.OnBlockBegin(context.Background(), 2)
	rc, ok := sched.RetryCount(id)
	require.True(t, ok)
	require.EqualValues(t, 1, rc)
	require.False(t, sched.IsSuspended(id))

	sched.OnBlockBegin(context.Background(), 3)
	rc, _ = sched.RetryCount(id)
	require.EqualValues(t, 2, rc)
	require.False(t, sched.IsSuspended(id))

	sched.OnBlockBegin(context.Background(), 4)
	rc, _ = sched.RetryCount(id)
	require.EqualValues(t, 3, rc)
	require.True(t, sched.IsSuspended(id))
}

func TestSchedule_RetryResetsOnSuccess(t *testing.T) {
	venue := newFakeVenue()
	sched, ledger := newTestScheduler(venue, fixedBeacon())
	owner := addr(3)
	fund(ledger, owner)

	venue.queue(owner, scriptedOutcome{err: recoverableFailure()})

	req := ScheduleRequest{
		Owner:       owner,
		Period:      1,
		TotalAmount: bal(1000),
		Recurrence:  Perpetual(),
		Order:       sellOrder(100),
	}
	id, err := sched.Schedule(context.Background(), 1, req)
	require.NoError(t, err)

	sched.OnBlockBegin(context.Background(), 2) // fails, retries=1, requeued at 3
	rc, _ := sched.RetryCount(id)
	require.EqualValues(t, 1, rc)

	sched.OnBlockBegin(context.Background(), 3) // succeeds (script exhausted)
	rc, ok := sched.RetryCount(id)
	require.True(t, ok)
	require.EqualValues(t, 0, rc, "a successful execution must reset the retry counter")
}

func TestSchedule_CapacitySpill(t *testing.T) {
	venue := newFakeVenue()
	sched, ledger := newTestScheduler(venue, fixedBeacon())

	var ids []ScheduleId
	for i := byte(1); i <= BlockCapacity+1; i++ {
		owner := addr(i)
		fund(ledger, owner)
		req := ScheduleRequest{
			Owner:       owner,
			Period:      10,
			TotalAmount: bal(1000),
			Recurrence:  Perpetual(),
			Order:       sellOrder(100),
		}
		id, err := sched.Schedule(context.Background(), 1, req)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	for i := 0; i < BlockCapacity; i++ {
		b, ok := sched.NextExecutionBlock(ids[i])
		require.True(t, ok)
		require.EqualValues(t, 2, b, "schedule %d should land in the first available block", ids[i])
	}
	spill, ok := sched.NextExecutionBlock(ids[BlockCapacity])
	require.True(t, ok)
	require.EqualValues(t, 3, spill, "the (capacity+1)th schedule must spill into the next block")
}

func TestSchedule_TerminateMidLifeRefunds(t *testing.T) {
	venue := newFakeVenue()
	sched, ledger := newTestScheduler(venue, fixedBeacon())
	owner := addr(4)
	fund(ledger, owner)

	perTrade := uint64(100)
	req := ScheduleRequest{
		Owner:       owner,
		Period:      1,
		TotalAmount: bal(perTrade * 10),
		Recurrence:  Fixed(10),
		Order:       sellOrder(perTrade),
	}
	id, err := sched.Schedule(context.Background(), 1, req)
	require.NoError(t, err)

	for _, b := range []BlockNumber{2, 3, 4} {
		sched.OnBlockBegin(context.Background(), b)
	}
	require.Equal(t, 3, venue.callCount(owner))

	freeBefore := ledger.FreeBalance(owner, assetIn)
	require.NoError(t, sched.Terminate(context.Background(), owner, id))

	_, ok := sched.Get(id)
	require.False(t, ok)

	freeAfter := ledger.FreeBalance(owner, assetIn)
	refunded := new(Balance).Sub(freeAfter, freeBefore)
	require.True(t, refunded.Cmp(bal(perTrade*7)) == 0, "remaining 7 trades worth of assetIn reservation must be refunded")
}

func TestSchedule_PerpetualExhaustion(t *testing.T) {
	venue := newFakeVenue()
	sched, ledger := newTestScheduler(venue, fixedBeacon())
	owner := addr(5)
	fund(ledger, owner)

	req := ScheduleRequest{
		Owner:       owner,
		Period:      1,
		TotalAmount: bal(250),
		Recurrence:  Perpetual(),
		Order:       sellOrder(100),
	}
	id, err := sched.Schedule(context.Background(), 1, req)
	require.NoError(t, err)

	sched.OnBlockBegin(context.Background(), 2) // reserved 250 -> 150
	_, ok := sched.Get(id)
	require.True(t, ok)

	sched.OnBlockBegin(context.Background(), 3) // reserved 150 -> 50, below one trade
	_, ok = sched.Get(id)
	require.False(t, ok, "schedule should complete once remaining reservation cannot cover another trade")
	require.Equal(t, 2, venue.callCount(owner))
}

func TestPauseResume(t *testing.T) {
	venue := newFakeVenue()
	sched, ledger := newTestScheduler(venue, fixedBeacon())
	owner := addr(6)
	fund(ledger, owner)

	venue.queue(owner, scriptedOutcome{err: recoverableFailure()})

	req := ScheduleRequest{
		Owner:       owner,
		Period:      1,
		TotalAmount: bal(1000),
		Recurrence:  Perpetual(),
		Order:       sellOrder(100),
	}
	id, err := sched.Schedule(context.Background(), 1, req)
	require.NoError(t, err)

	sched.OnBlockBegin(context.Background(), 2) // fail, retries=1
	rc, _ := sched.RetryCount(id)
	require.EqualValues(t, 1, rc)

	require.NoError(t, sched.Pause(owner, id))
	require.True(t, sched.IsSuspended(id))

	require.ErrorIs(t, sched.Pause(addr(7), id), ErrNotOwner)

	require.NoError(t, sched.Resume(owner, id, 5))
	require.False(t, sched.IsSuspended(id))
	rc, _ = sched.RetryCount(id)
	require.EqualValues(t, 0, rc, "resume must clear the retry counter")

	b, ok := sched.NextExecutionBlock(id)
	require.True(t, ok)
	require.EqualValues(t, 6, b)
}

func TestTerminateImmediateReturnsExactBalances(t *testing.T) {
	venue := newFakeVenue()
	sched, ledger := newTestScheduler(venue, fixedBeacon())
	owner := addr(8)
	fund(ledger, owner)

	freeInBefore := ledger.FreeBalance(owner, assetIn)
	freeNativeBefore := ledger.FreeBalance(owner, NativeAssetID)

	req := ScheduleRequest{
		Owner:       owner,
		Period:      5,
		TotalAmount: bal(500),
		Recurrence:  Fixed(5),
		Order:       sellOrder(100),
	}
	id, err := sched.Schedule(context.Background(), 1, req)
	require.NoError(t, err)

	require.NoError(t, sched.Terminate(context.Background(), owner, id))

	require.True(t, ledger.FreeBalance(owner, assetIn).Cmp(freeInBefore) == 0)
	require.True(t, ledger.FreeBalance(owner, NativeAssetID).Cmp(freeNativeBefore) == 0)
}

func TestPermute_DeterministicAndStable(t *testing.T) {
	ids := []ScheduleId{1, 2, 3, 4, 5, 6}
	seed := [32]byte{1, 2, 3}

	a := permute(ids, seed)
	b := permute(ids, seed)
	require.Equal(t, a, b, "permutation must be deterministic for a fixed seed")
	require.ElementsMatch(t, ids, a)

	other := permute(ids, [32]byte{9, 9, 9})
	require.ElementsMatch(t, ids, other)
}

func TestQueueNeverExceedsBlockCapacity(t *testing.T) {
	venue := newFakeVenue()
	sched, ledger := newTestScheduler(venue, fixedBeacon())

	for i := byte(1); i <= BlockCapacity*3; i++ {
		owner := addr(i)
		fund(ledger, owner)
		req := ScheduleRequest{
			Owner:       owner,
			Period:      10,
			TotalAmount: bal(1000),
			Recurrence:  Perpetual(),
			Order:       sellOrder(100),
		}
		_, err := sched.Schedule(context.Background(), 1, req)
		require.NoError(t, err)
	}

	sched.storage.mu.Lock()
	defer sched.storage.mu.Unlock()
	for b, q := range sched.storage.blockQueue {
		require.LessOrEqualf(t, len(q), BlockCapacity, "block %d exceeds capacity", b)
	}
}
