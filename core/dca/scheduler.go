// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dca

// Scheduler wires together storage, the planner, the external
// collaborators (§6), and the event surface (§4.5) into the four
// user-facing operations: schedule, pause, resume, terminate, plus the
// on_block_begin block hook.
type Scheduler struct {
	storage     *Storage
	planner     *Planner
	reservation Reservation
	venue       Venue
	beacon      RandomnessBeacon
	bondMemo    *bondSizeMemo
	events      Events
	metrics     *schedulerMetrics
}

// New returns a Scheduler ready to accept admissions once the host
// runtime starts invoking on_block_begin.
func New(reservation Reservation, venue Venue, beacon RandomnessBeacon) *Scheduler {
	storage := NewStorage()
	return &Scheduler{
		storage:     storage,
		planner:     NewPlanner(storage),
		reservation: reservation,
		venue:       venue,
		beacon:      beacon,
		bondMemo:    newBondSizeMemo(),
		metrics:     newSchedulerMetrics(),
	}
}

// Events exposes the subscription surface (§4.5).
func (s *Scheduler) Events() *Events { return &s.events }

// Close releases the scheduler's event subscriptions.
func (s *Scheduler) Close() { s.events.Close() }

// Get returns a live schedule's immutable record.
func (s *Scheduler) Get(id ScheduleId) (Schedule, bool) { return s.storage.Get(id) }

// SchedulesOf enumerates the ids owned by owner (SUPPLEMENTED FEATURES).
func (s *Scheduler) SchedulesOf(owner AccountId) []ScheduleId { return s.storage.SchedulesOf(owner) }

// NextExecutionBlock reports id's current queue assignment, if any
// (SUPPLEMENTED FEATURES).
func (s *Scheduler) NextExecutionBlock(id ScheduleId) (BlockNumber, bool) {
	return s.storage.NextExecutionBlock(id)
}

// RetryCount reports id's consecutive-failure counter (SUPPLEMENTED
// FEATURES).
func (s *Scheduler) RetryCount(id ScheduleId) (uint8, bool) { return s.storage.RetryCount(id) }

// Executions reports how many trades id has executed (SUPPLEMENTED
// FEATURES).
func (s *Scheduler) Executions(id ScheduleId) (uint32, bool) { return s.storage.Executions(id) }

// IsSuspended reports whether id is currently suspended, whether paused
// by its owner or suspended by the executor.
func (s *Scheduler) IsSuspended(id ScheduleId) bool { return s.storage.IsSuspended(id) }
