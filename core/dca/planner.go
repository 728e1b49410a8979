// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dca

// Planner assigns schedules to future blocks, respecting per-block
// capacity (§4.2). The policy is deliberately simple: fairness within
// a block is restored at execution time via random permutation, and
// cross-block spillover is tolerated because period is a target
// cadence, not a deadline.
type Planner struct {
	storage *Storage
}

// NewPlanner returns a Planner writing through to storage.
func NewPlanner(storage *Storage) *Planner {
	return &Planner{storage: storage}
}

// assign scans blocks [earliest, earliest+SearchLimit], returning the
// first with spare capacity and appending id to its queue. Caller must
// hold storage.mu.
func (p *Planner) assign(id ScheduleId, earliest BlockNumber) (BlockNumber, error) {
	for i := BlockNumber(0); i <= SearchLimit; i++ {
		b := earliest + i
		if p.storage.queueLen(b) < BlockCapacity {
			p.storage.enqueue(b, id)
			return b, nil
		}
	}
	return 0, ErrQueueFull
}
