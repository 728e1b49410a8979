// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dca

import (
	"context"

	"github.com/ethereum/go-ethereum/common/prque"
	"github.com/luxfi/dca-scheduler/log"
)

// OnBlockBegin is the block hook (§6): the host runtime invokes it
// deterministically at the start of block b, before any user
// transaction for that block runs. It is synchronous,
// non-reentrant, and never aborts — execution errors are absorbed
// into events, retry counters, and state transitions (§7).
func (s *Scheduler) OnBlockBegin(ctx context.Context, b BlockNumber) {
	s.storage.mu.Lock()
	q := s.storage.dequeueAll(b)
	s.storage.mu.Unlock()

	if len(q) == 0 {
		return
	}

	seed := s.beacon.Random(b)
	ordered := permute(q, seed)

	// Drive execution off a prque-backed work queue: priority is the
	// negative permuted index, so PopItem always yields the next
	// schedule in permutation order. Mirrors core/txpool.TxPool's use
	// of prque as the ordering structure for a bounded per-tick sweep
	// (there: evicting spammers by stake; here: executing trades by
	// permutation rank), and gives the defensive per-block work cap a
	// natural place to stop popping.
	work := prque.New[int64, ScheduleId](nil)
	for i, id := range ordered {
		work.Push(id, -int64(i))
	}

	processed := 0
	for !work.Empty() {
		id := work.PopItem()
		if processed >= BlockCapacity {
			// Defensive: block_queue's own capacity bound means this
			// should never trigger, but a schedule that slips through
			// is re-queued rather than dropped, preserving its retry
			// counter.
			s.requeueOrSuspend(id, b+1)
			continue
		}
		s.executeOne(ctx, b, id)
		processed++
	}
}

// requeueOrSuspend assigns id to the earliest block at/after earliest
// with spare capacity. If the planner's bounded search window finds
// none, the schedule cannot be dropped silently — that would strand a
// live schedule in neither a block_queue nor suspended (§3 invariant)
// — so it is suspended instead; resume() will retry placement later.
func (s *Scheduler) requeueOrSuspend(id ScheduleId, earliest BlockNumber) {
	s.storage.mu.Lock()
	_, err := s.planner.assign(id, earliest)
	if err != nil {
		s.storage.suspended[id] = struct{}{}
	}
	s.storage.mu.Unlock()
	if err != nil {
		s.metrics.suspended.Inc(1)
		s.events.emitSuspended(Suspended{ID: id})
		log.Error("dca: re-queue found no spare block capacity, suspending", "id", id, "earliest", earliest)
	}
}

func (s *Scheduler) executeOne(ctx context.Context, b BlockNumber, id ScheduleId) {
	s.storage.mu.Lock()
	if s.storage.recentlyCompleted.Contains(id) {
		s.storage.mu.Unlock()
		return
	}
	if _, suspended := s.storage.suspended[id]; suspended {
		s.storage.mu.Unlock()
		return
	}
	sch, ok := s.storage.schedules[id]
	if !ok {
		s.storage.mu.Unlock()
		return
	}
	owner := sch.Owner
	order := sch.Order
	s.storage.mu.Unlock()

	perTrade := order.BudgetPerTrade()
	reservedNow, err := s.reservation.ReservedBalance(ctx, owner, order.AssetIn)
	if err != nil {
		s.terminate(ctx, id, TerminatedFatal)
		log.Error("dca: reservation lookup failed, terminating", "id", id, "err", err)
		return
	}
	if reservedNow.Cmp(perTrade) < 0 {
		s.completeSchedule(ctx, id, owner)
		return
	}

	result, tradeErr := s.venue.Trade(ctx, owner, order.Direction(), order.AssetIn, order.AssetOut, order.Route, perTrade, order.Limit)
	if tradeErr != nil {
		s.handleTradeFailure(ctx, b, id, owner, classify(tradeErr))
		return
	}
	s.handleTradeSuccess(ctx, b, id, owner, result)
}

func (s *Scheduler) handleTradeSuccess(ctx context.Context, b BlockNumber, id ScheduleId, owner AccountId, result *TradeResult) {
	s.storage.mu.Lock()
	sch, ok := s.storage.schedules[id]
	if !ok {
		s.storage.mu.Unlock()
		return
	}
	order := sch.Order
	s.storage.mu.Unlock()

	if err := s.reservation.TransferFromReserved(ctx, owner, order.AssetIn, result.InputConsumed, venueSettlementAccount); err != nil {
		log.Error("dca: failed to settle consumed input with venue", "id", id, "err", err)
	}
	if err := s.reservation.Credit(ctx, owner, order.AssetOut, result.OutputProduced); err != nil {
		log.Error("dca: failed to credit trade output", "id", id, "err", err)
	}

	s.storage.mu.Lock()
	s.storage.executions[id]++
	s.storage.retries[id] = 0 // any success resets the retry counter (§9 open question a)
	done := false
	if sch.Recurrence.Kind == RecurrenceFixed {
		s.storage.remaining[id]--
		if s.storage.remaining[id] == 0 {
			done = true
		}
	}
	s.storage.mu.Unlock()

	s.metrics.executed.Inc(1)
	s.events.emitTradeExecuted(TradeExecuted{ID: id, Input: result.InputConsumed, Output: result.OutputProduced, VenueFee: result.Fee})
	log.Debug("dca: trade executed", "id", id, "input", result.InputConsumed, "output", result.OutputProduced)

	if done {
		s.completeSchedule(ctx, id, owner)
		return
	}

	remainingReserved, err := s.reservation.ReservedBalance(ctx, owner, order.AssetIn)
	if err == nil && remainingReserved.Cmp(order.BudgetPerTrade()) < 0 {
		s.completeSchedule(ctx, id, owner)
		return
	}

	s.requeueOrSuspend(id, b+sch.Period)
}

func (s *Scheduler) handleTradeFailure(ctx context.Context, b BlockNumber, id ScheduleId, owner AccountId, failure *TradeFailure) {
	s.metrics.failed.Inc(1)
	s.events.emitTradeFailed(TradeFailed{ID: id, Reason: failure.Reason})
	log.Warn("dca: trade failed", "id", id, "reason", failure.Reason, "fatal", failure.Class == FailureFatal)

	if failure.Class == FailureFatal {
		s.terminate(ctx, id, TerminatedFatal)
		return
	}

	s.storage.mu.Lock()
	s.storage.retries[id]++
	retries := s.storage.retries[id]
	sch := s.storage.schedules[id]
	s.storage.mu.Unlock()
	if sch == nil {
		return
	}

	if retries >= MaxRetries {
		s.storage.mu.Lock()
		s.storage.suspended[id] = struct{}{}
		s.storage.mu.Unlock()
		s.metrics.suspended.Inc(1)
		s.events.emitSuspended(Suspended{ID: id})
		log.Info("dca: schedule suspended after repeated failures", "id", id, "retries", retries)
		return
	}

	s.requeueOrSuspend(id, b+sch.Period)
}

// completeSchedule refunds the remaining reservation and the bond and
// deletes all per-id state (§4.3 step d).
func (s *Scheduler) completeSchedule(ctx context.Context, id ScheduleId, owner AccountId) {
	s.storage.mu.Lock()
	sch, ok := s.storage.schedules[id]
	if !ok {
		s.storage.mu.Unlock()
		return
	}
	bond := s.storage.bonds[id]
	order := sch.Order
	s.storage.mu.Unlock()

	s.refundReservation(ctx, id, owner, order.AssetIn, bond, "completion")

	s.storage.mu.Lock()
	s.storage.deleteAll(id)
	s.storage.mu.Unlock()
	s.bondMemo.forget(id)

	s.metrics.completed.Inc(1)
	s.events.emitCompleted(Completed{ID: id, Who: owner})
	log.Debug("dca: schedule completed", "id", id, "owner", owner)
}
