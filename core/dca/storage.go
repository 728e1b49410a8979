// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dca

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// BlockCapacity bounds how many schedules a single block_queue entry
// may hold (§3).
const BlockCapacity = 5

// SearchLimit bounds how many blocks the planner scans forward looking
// for spare capacity before giving up (§4.2).
const SearchLimit = 1024

// MaxRetries is the number of consecutive recoverable failures that
// suspends a schedule (§4.3).
const MaxRetries = 3

// recentCompletedCacheSize bounds the LRU used to make completion
// idempotent against a lifecycle op racing the executor's completion
// path within the same block.
const recentCompletedCacheSize = 4096

// Storage is the scheduler's persisted state layout (§6): schedule
// registry, owner index, per-block queue, and the sparse side-maps
// that track mutable per-schedule state. All mutations happen under
// mu, mirroring the single reservation-lock pattern core/txpool.TxPool
// uses to guard its reservations map.
type Storage struct {
	mu sync.Mutex

	nextID ScheduleId

	schedules map[ScheduleId]*Schedule
	owners    map[ScheduleId]AccountId
	ownerIdx  map[AccountId]map[ScheduleId]struct{}

	remaining  map[ScheduleId]uint32 // sparse; Fixed only
	suspended  map[ScheduleId]struct{}
	bonds      map[ScheduleId]Bond
	retries    map[ScheduleId]uint8
	executions map[ScheduleId]uint32

	blockQueue map[BlockNumber][]ScheduleId
	queuedAt   map[ScheduleId]BlockNumber // inverse index for O(1) removal

	// recentlyCompleted guards against double-processing a completion:
	// a schedule whose queue entry was already snapshotted by the
	// executor in block b, but which a concurrent terminate() deleted
	// before the executor reached it.
	recentlyCompleted *lru.Cache
}

// NewStorage returns an empty Storage with ScheduleId allocation
// starting at 1.
func NewStorage() *Storage {
	cache, err := lru.New(recentCompletedCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which never
		// happens with the constant above.
		panic(err)
	}
	return &Storage{
		nextID:             1,
		schedules:          make(map[ScheduleId]*Schedule),
		owners:             make(map[ScheduleId]AccountId),
		ownerIdx:           make(map[AccountId]map[ScheduleId]struct{}),
		remaining:          make(map[ScheduleId]uint32),
		suspended:          make(map[ScheduleId]struct{}),
		bonds:              make(map[ScheduleId]Bond),
		retries:            make(map[ScheduleId]uint8),
		executions:         make(map[ScheduleId]uint32),
		blockQueue:         make(map[BlockNumber][]ScheduleId),
		queuedAt:           make(map[ScheduleId]BlockNumber),
		recentlyCompleted:  cache,
	}
}

// allocID returns the next ScheduleId and advances the counter. Caller
// must hold mu.
func (s *Storage) allocID() ScheduleId {
	id := s.nextID
	s.nextID++
	return id
}

// queueLen returns len(block_queue[b]) without allocating the slice.
// Caller must hold mu.
func (s *Storage) queueLen(b BlockNumber) int {
	return len(s.blockQueue[b])
}

// enqueue appends id to block b's queue. Caller must hold mu and must
// have already verified spare capacity.
func (s *Storage) enqueue(b BlockNumber, id ScheduleId) {
	s.blockQueue[b] = append(s.blockQueue[b], id)
	s.queuedAt[id] = b
}

// dequeueAll removes and returns block b's entire queue, matching the
// executor's "snapshot, then delete the entry" step (§4.3 step 1).
// Caller must hold mu.
func (s *Storage) dequeueAll(b BlockNumber) []ScheduleId {
	q := s.blockQueue[b]
	delete(s.blockQueue, b)
	for _, id := range q {
		delete(s.queuedAt, id)
	}
	return q
}

// removeFromQueue removes id from whatever block it is currently
// queued at, if any. Caller must hold mu.
func (s *Storage) removeFromQueue(id ScheduleId) {
	b, ok := s.queuedAt[id]
	if !ok {
		return
	}
	q := s.blockQueue[b]
	for i, v := range q {
		if v == id {
			s.blockQueue[b] = append(q[:i], q[i+1:]...)
			break
		}
	}
	if len(s.blockQueue[b]) == 0 {
		delete(s.blockQueue, b)
	}
	delete(s.queuedAt, id)
}

// indexOwner records id under owner's reverse index. Caller must hold mu.
func (s *Storage) indexOwner(owner AccountId, id ScheduleId) {
	set, ok := s.ownerIdx[owner]
	if !ok {
		set = make(map[ScheduleId]struct{})
		s.ownerIdx[owner] = set
	}
	set[id] = struct{}{}
}

// unindexOwner removes id from owner's reverse index. Caller must hold mu.
func (s *Storage) unindexOwner(owner AccountId, id ScheduleId) {
	set, ok := s.ownerIdx[owner]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(s.ownerIdx, owner)
	}
}

// deleteAll removes every per-id entry, the terminal state transition
// shared by completion and termination (§4.4, §8 "no map contains any
// entry for id").
func (s *Storage) deleteAll(id ScheduleId) {
	if owner, ok := s.owners[id]; ok {
		s.unindexOwner(owner, id)
	}
	s.removeFromQueue(id)
	delete(s.schedules, id)
	delete(s.owners, id)
	delete(s.remaining, id)
	delete(s.suspended, id)
	delete(s.bonds, id)
	delete(s.retries, id)
	delete(s.executions, id)
	s.recentlyCompleted.Add(id, struct{}{})
}

// SchedulesOf returns the ids owned by owner, for read-only enumeration
// (SUPPLEMENTED FEATURES: owner schedules index).
func (s *Storage) SchedulesOf(owner AccountId) []ScheduleId {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.ownerIdx[owner]
	out := make([]ScheduleId, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// NextExecutionBlock reports which block a live, queued schedule is
// currently assigned to (SUPPLEMENTED FEATURES).
func (s *Storage) NextExecutionBlock(id ScheduleId) (BlockNumber, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.queuedAt[id]
	return b, ok
}

// RetryCount reports id's current consecutive-failure counter
// (SUPPLEMENTED FEATURES).
func (s *Storage) RetryCount(id ScheduleId) (uint8, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[id]; !ok {
		return 0, false
	}
	return s.retries[id], true
}

// Executions reports how many trades a schedule has executed
// (SUPPLEMENTED FEATURES).
func (s *Storage) Executions(id ScheduleId) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[id]; !ok {
		return 0, false
	}
	return s.executions[id], true
}

// IsSuspended reports whether id is in the suspended set, whether
// paused by its owner or suspended by the executor.
func (s *Storage) IsSuspended(id ScheduleId) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.suspended[id]
	return ok
}

// Get returns a copy of the schedule record, if it still exists.
func (s *Storage) Get(id ScheduleId) (Schedule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sch, ok := s.schedules[id]
	if !ok {
		return Schedule{}, false
	}
	return *sch, ok
}
