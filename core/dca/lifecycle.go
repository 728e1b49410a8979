// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dca

import (
	"context"

	"github.com/luxfi/dca-scheduler/log"
)

// Pause removes id from its queued block so the executor skips it
// until Resume is called (§4.4). Idempotent on an already-suspended
// schedule.
func (s *Scheduler) Pause(owner AccountId, id ScheduleId) error {
	s.storage.mu.Lock()
	defer s.storage.mu.Unlock()

	actualOwner, ok := s.storage.owners[id]
	if !ok {
		return ErrNotFound
	}
	if actualOwner != owner {
		return ErrNotOwner
	}
	if _, already := s.storage.suspended[id]; already {
		return nil
	}
	s.storage.removeFromQueue(id)
	s.storage.suspended[id] = struct{}{}

	s.events.emitPaused(Paused{ID: id})
	log.Debug("dca: schedule paused", "id", id, "owner", owner)
	return nil
}

// Resume clears id's retry counter and re-enters it into the planner
// starting at now+1 (§4.4).
func (s *Scheduler) Resume(owner AccountId, id ScheduleId, now BlockNumber) error {
	s.storage.mu.Lock()

	actualOwner, ok := s.storage.owners[id]
	if !ok {
		s.storage.mu.Unlock()
		return ErrNotFound
	}
	if actualOwner != owner {
		s.storage.mu.Unlock()
		return ErrNotOwner
	}
	if _, suspended := s.storage.suspended[id]; !suspended {
		s.storage.mu.Unlock()
		return ErrNotSuspended
	}

	delete(s.storage.suspended, id)
	s.storage.retries[id] = 0
	_, err := s.planner.assign(id, now+1)
	if err != nil {
		// Could not place it: restore the suspended state rather than
		// leaving it live and unqueued.
		s.storage.suspended[id] = struct{}{}
		s.storage.mu.Unlock()
		return ErrQueueFull
	}
	s.storage.mu.Unlock()

	s.events.emitResumed(Resumed{ID: id})
	log.Debug("dca: schedule resumed", "id", id, "owner", owner)
	return nil
}

// Terminate cancels id unconditionally: refunds the remaining
// reservation and the bond, removes queue membership, and deletes all
// per-id state (§4.4).
func (s *Scheduler) Terminate(ctx context.Context, owner AccountId, id ScheduleId) error {
	s.storage.mu.Lock()
	actualOwner, ok := s.storage.owners[id]
	if !ok {
		s.storage.mu.Unlock()
		return ErrNotFound
	}
	if actualOwner != owner {
		s.storage.mu.Unlock()
		return ErrNotOwner
	}
	s.storage.mu.Unlock()

	s.terminate(ctx, id, TerminatedByUser)
	return nil
}

// refundReservation returns owner's remaining AssetIn reservation and
// the schedule's storage bond to free balance, shared by completeSchedule
// (executor.go) and terminate (§4.3 step d, §4.4). Reserve/TransferFromReserved
// pool by asset, not by purpose: when the order's AssetIn is the same
// asset the bond is denominated in (e.g. both NativeAssetID), the
// remaining-budget reservation and the bond reservation sit in the same
// ledger bucket, and the first Unreserve below already returns the
// whole bucket, bond included — a second Unreserve for the bond would
// only ever clamp to zero, so it's skipped rather than relied on.
func (s *Scheduler) refundReservation(ctx context.Context, id ScheduleId, owner AccountId, assetIn AssetId, bond Bond, action string) {
	remaining, err := s.reservation.ReservedBalance(ctx, owner, assetIn)
	if err != nil {
		log.Error("dca: failed to read remaining reservation on "+action, "id", id, "err", err)
	} else if remaining.Sign() > 0 {
		if err := s.reservation.Unreserve(ctx, owner, assetIn, remaining); err != nil {
			log.Error("dca: failed to refund remaining reservation on "+action, "id", id, "err", err)
		}
	}

	if assetIn == bond.Asset {
		return
	}

	refund := s.bondMemo.refundAmount(id, bond)
	if err := s.reservation.Unreserve(ctx, owner, bond.Asset, refund); err != nil {
		log.Error("dca: failed to refund bond on "+action, "id", id, "err", err)
	}
}

// terminate is the shared unconditional-cancel path used by the
// user-facing Terminate operation and by the executor's fatal-failure
// path (§4.3 step c, §4.4).
func (s *Scheduler) terminate(ctx context.Context, id ScheduleId, reason TerminatedReason) {
	s.storage.mu.Lock()
	sch, ok := s.storage.schedules[id]
	if !ok {
		s.storage.mu.Unlock()
		return
	}
	owner := sch.Owner
	order := sch.Order
	bond := s.storage.bonds[id]
	s.storage.mu.Unlock()

	s.refundReservation(ctx, id, owner, order.AssetIn, bond, "terminate")

	s.storage.mu.Lock()
	s.storage.deleteAll(id)
	s.storage.mu.Unlock()
	s.bondMemo.forget(id)

	s.metrics.terminated.Inc(1)
	s.events.emitTerminated(Terminated{ID: id, Reason: reason})
	log.Info("dca: schedule terminated", "id", id, "owner", owner, "reason", reason)
}
