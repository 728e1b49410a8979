// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dca

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// venueSettlementAccount is where a schedule's consumed input actually
// goes: the router/omnipool account the original pallet settles trades
// against (original_source/pallets/dca/.../mod.rs), rather than the
// owner who no longer has any claim on it once the venue has consumed
// it. The scheduler itself never inspects this account's balance; it
// exists only as the "to" side of the input leg's TransferFromReserved.
var venueSettlementAccount = common.HexToAddress("0xfee0000000000000000000000000000000000e")

// Direction is the venue-facing trade shape: Buy(amount_out) or
// Sell(amount_in) (§6).
type Direction uint8

const (
	DirectionBuy Direction = iota
	DirectionSell
)

// TradeResult is what a successful venue trade produced.
type TradeResult struct {
	InputConsumed  *Balance
	OutputProduced *Balance
	Fee            *Balance
}

// FailureClass distinguishes a recoverable venue failure (retried per
// §4.3) from a fatal one (terminates the schedule).
type FailureClass uint8

const (
	FailureRecoverable FailureClass = iota
	FailureFatal
)

// TradeFailure wraps a venue error with its retry classification.
type TradeFailure struct {
	Class  FailureClass
	Reason error
}

func (f *TradeFailure) Error() string { return f.Reason.Error() }
func (f *TradeFailure) Unwrap() error { return f.Reason }

// Recoverable builds a TradeFailure that should be retried per §4.3.
func Recoverable(reason error) *TradeFailure {
	return &TradeFailure{Class: FailureRecoverable, Reason: reason}
}

// Fatal builds a TradeFailure that terminates the schedule immediately.
func Fatal(reason error) *TradeFailure {
	return &TradeFailure{Class: FailureFatal, Reason: reason}
}

// classify maps an arbitrary venue error onto a TradeFailure, treating
// any error the venue didn't explicitly classify as fatal: an
// unclassified failure mode is exactly the "accounting corrupted"
// situation §7 calls fatal.
func classify(err error) *TradeFailure {
	if err == nil {
		return nil
	}
	var tf *TradeFailure
	if errors.As(err, &tf) {
		return tf
	}
	return Fatal(err)
}

// Venue is the external swap mechanism the executor routes one trade
// to per schedule execution (§6). Implementations must not mutate
// scheduler storage and must return synchronously — the executor has
// no suspension point.
type Venue interface {
	Trade(ctx context.Context, owner AccountId, dir Direction, assetIn, assetOut AssetId, route Route, budget, limit *Balance) (*TradeResult, error)
}
