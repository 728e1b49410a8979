// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dca

import (
	"context"

	"github.com/luxfi/dca-scheduler/log"
)

// ScheduleRequest is the caller-supplied description of a new
// recurring trade (§4.1). StartHint lets the caller nudge the initial
// assignment search forward of now+1 (e.g. to avoid a block the caller
// already knows is full); it is a hint, not a guarantee.
type ScheduleRequest struct {
	Owner      AccountId
	Period     BlockNumber
	TotalAmount *Balance
	Recurrence Recurrence
	Order      Order
	StartHint  BlockNumber
}

func validate(req ScheduleRequest) error {
	if req.Period < 1 {
		return ErrPeriodZero
	}
	if len(req.Order.Route) > MaxRoute {
		return ErrRouteTooLong
	}
	if req.TotalAmount == nil || req.TotalAmount.IsZero() {
		return ErrInvalidSchedule
	}
	perTrade := req.Order.BudgetPerTrade()
	if perTrade == nil || perTrade.IsZero() {
		return ErrInvalidSchedule
	}
	if req.TotalAmount.Cmp(perTrade) < 0 {
		return ErrInsufficientBalance
	}
	if req.Recurrence.Kind == RecurrenceFixed && req.Recurrence.FixedTotal == 0 {
		return ErrInvalidSchedule
	}
	return nil
}

// Schedule admits a new recurring trade (§4.1). Effects are
// all-or-nothing: on any error, no state changes, no bond is charged,
// and no funds are reserved.
func (s *Scheduler) Schedule(ctx context.Context, now BlockNumber, req ScheduleRequest) (ScheduleId, error) {
	if err := validate(req); err != nil {
		return 0, err
	}

	s.storage.mu.Lock()
	id := s.storage.allocID()
	s.storage.mu.Unlock()
	// releaseID hands id back on a failed admission, so a rejected
	// request leaves next_id where it found it.
	releaseID := func() {
		s.storage.mu.Lock()
		if s.storage.nextID == id+1 {
			s.storage.nextID = id
		}
		s.storage.mu.Unlock()
	}

	sch := Schedule{
		ID:          id,
		Owner:       req.Owner,
		Period:      req.Period,
		TotalAmount: req.TotalAmount,
		Recurrence:  req.Recurrence,
		Order:       req.Order,
	}

	bond, err := s.bondMemo.computeAndChargeBond(sch)
	if err != nil {
		s.bondMemo.forget(id)
		releaseID()
		return 0, err
	}
	if err := s.reservation.Reserve(ctx, req.Owner, NativeAssetID, bond.Amount); err != nil {
		s.bondMemo.forget(id)
		releaseID()
		return 0, ErrInsufficientBalance
	}
	if err := s.reservation.Reserve(ctx, req.Owner, req.Order.AssetIn, req.TotalAmount); err != nil {
		// Roll back the bond reservation: admission is all-or-nothing.
		_ = s.reservation.Unreserve(ctx, req.Owner, NativeAssetID, bond.Amount)
		s.bondMemo.forget(id)
		releaseID()
		return 0, ErrInsufficientBalance
	}

	earliest := now + 1
	if req.StartHint > earliest {
		earliest = req.StartHint
	}

	s.storage.mu.Lock()
	b0, err := s.planner.assign(id, earliest)
	if err != nil {
		s.storage.mu.Unlock()
		_ = s.reservation.Unreserve(ctx, req.Owner, req.Order.AssetIn, req.TotalAmount)
		_ = s.reservation.Unreserve(ctx, req.Owner, NativeAssetID, bond.Amount)
		s.bondMemo.forget(id)
		releaseID()
		return 0, ErrQueueFull
	}

	s.storage.schedules[id] = &sch
	s.storage.owners[id] = req.Owner
	s.storage.indexOwner(req.Owner, id)
	if req.Recurrence.Kind == RecurrenceFixed {
		s.storage.remaining[id] = req.Recurrence.FixedTotal
	}
	s.storage.bonds[id] = bond
	s.storage.mu.Unlock()

	s.metrics.scheduled.Inc(1)
	log.Debug("dca: schedule admitted", "id", id, "owner", req.Owner, "at_block", b0)
	s.events.emitScheduled(Scheduled{ID: id, Owner: req.Owner, AtBlock: b0})
	return id, nil
}
