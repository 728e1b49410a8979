// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dca

import "errors"

// Admission-time errors: abort before any state change (§7).
var (
	ErrInsufficientBalance = errors.New("dca: owner balance insufficient for total_amount")
	ErrInvalidSchedule     = errors.New("dca: schedule fails validation")
	ErrRouteTooLong        = errors.New("dca: route exceeds MaxRoute")
	ErrPeriodZero          = errors.New("dca: period must be >= 1")
	ErrQueueFull           = errors.New("dca: no block within the search window has spare capacity")
)

// Lifecycle-op precondition errors (§7).
var (
	ErrNotOwner        = errors.New("dca: caller does not own this schedule")
	ErrNotFound        = errors.New("dca: schedule does not exist")
	ErrNotSuspended    = errors.New("dca: schedule is not suspended")
	ErrAlreadySuspended = errors.New("dca: schedule is already suspended")
)

// Recoverable execution-time failures (§7); absorbed into events and
// retry counters, never surfaced to a caller.
var (
	ErrSlippageExceeded = errors.New("dca: venue quote exceeded the order's limit")
	ErrNoLiquidity      = errors.New("dca: venue route has no liquidity")
	ErrVenueTransient   = errors.New("dca: venue adapter returned a transient error")
)

// Fatal execution-time failures (§7); the schedule is terminated.
var (
	ErrBadRoute         = errors.New("dca: venue rejected the order's route")
	ErrAssetUnknown     = errors.New("dca: venue does not recognize an asset in the order")
	ErrAccountingCorrupt = errors.New("dca: owner balance accounting is corrupted")
)
