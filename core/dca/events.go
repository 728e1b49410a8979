// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dca

import "github.com/ethereum/go-ethereum/event"

// Scheduled is emitted once, at admission.
type Scheduled struct {
	ID      ScheduleId
	Owner   AccountId
	AtBlock BlockNumber
}

// TradeExecuted is emitted after a successful venue trade.
type TradeExecuted struct {
	ID       ScheduleId
	Input    *Balance
	Output   *Balance
	VenueFee *Balance
}

// TradeFailed is emitted on every venue failure, recoverable or fatal;
// a fatal one is followed by Terminated.
type TradeFailed struct {
	ID     ScheduleId
	Reason error
}

// Suspended is emitted when a schedule's retry counter reaches
// MaxRetries, or when a re-queue finds no block with spare capacity.
type Suspended struct{ ID ScheduleId }

// Resumed is emitted when a paused/suspended schedule re-enters the queue.
type Resumed struct{ ID ScheduleId }

// Paused is emitted by the user-initiated pause operation.
type Paused struct{ ID ScheduleId }

// Completed is emitted when a schedule finishes (recurrence exhausted
// or funds exhausted) and all of its state is deleted.
type Completed struct {
	ID  ScheduleId
	Who AccountId
}

// TerminatedReason distinguishes user-initiated termination from a
// fatal venue error.
type TerminatedReason uint8

const (
	TerminatedByUser TerminatedReason = iota
	TerminatedFatal
)

// Terminated is emitted by terminate() and by the fatal-failure path.
type Terminated struct {
	ID     ScheduleId
	Reason TerminatedReason
}

// Events is the scheduler's event surface (§4.5): one event.Feed per
// event type, fed by the executor and lifecycle operations in
// execution (permuted) order within a block. Mirrors the
// reorgFeed/SubscribeTransactions feed-per-concern pattern used by
// core/txpool.TxPool.
type Events struct {
	scheduledFeed     event.Feed
	tradeExecutedFeed event.Feed
	tradeFailedFeed   event.Feed
	suspendedFeed     event.Feed
	resumedFeed       event.Feed
	pausedFeed        event.Feed
	completedFeed     event.Feed
	terminatedFeed    event.Feed

	subs event.SubscriptionScope
}

func (e *Events) emitScheduled(ev Scheduled)         { e.scheduledFeed.Send(ev) }
func (e *Events) emitTradeExecuted(ev TradeExecuted) { e.tradeExecutedFeed.Send(ev) }
func (e *Events) emitTradeFailed(ev TradeFailed)     { e.tradeFailedFeed.Send(ev) }
func (e *Events) emitSuspended(ev Suspended)         { e.suspendedFeed.Send(ev) }
func (e *Events) emitResumed(ev Resumed)             { e.resumedFeed.Send(ev) }
func (e *Events) emitPaused(ev Paused)               { e.pausedFeed.Send(ev) }
func (e *Events) emitCompleted(ev Completed)         { e.completedFeed.Send(ev) }
func (e *Events) emitTerminated(ev Terminated)       { e.terminatedFeed.Send(ev) }

func (e *Events) SubscribeScheduled(ch chan<- Scheduled) event.Subscription {
	return e.subs.Track(e.scheduledFeed.Subscribe(ch))
}

func (e *Events) SubscribeTradeExecuted(ch chan<- TradeExecuted) event.Subscription {
	return e.subs.Track(e.tradeExecutedFeed.Subscribe(ch))
}

func (e *Events) SubscribeTradeFailed(ch chan<- TradeFailed) event.Subscription {
	return e.subs.Track(e.tradeFailedFeed.Subscribe(ch))
}

func (e *Events) SubscribeSuspended(ch chan<- Suspended) event.Subscription {
	return e.subs.Track(e.suspendedFeed.Subscribe(ch))
}

func (e *Events) SubscribeResumed(ch chan<- Resumed) event.Subscription {
	return e.subs.Track(e.resumedFeed.Subscribe(ch))
}

func (e *Events) SubscribePaused(ch chan<- Paused) event.Subscription {
	return e.subs.Track(e.pausedFeed.Subscribe(ch))
}

func (e *Events) SubscribeCompleted(ch chan<- Completed) event.Subscription {
	return e.subs.Track(e.completedFeed.Subscribe(ch))
}

func (e *Events) SubscribeTerminated(ch chan<- Terminated) event.Subscription {
	return e.subs.Track(e.terminatedFeed.Subscribe(ch))
}

// Close unsubscribes every listener, for clean shutdown.
func (e *Events) Close() { e.subs.Close() }
