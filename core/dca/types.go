// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dca implements a deterministic, block-anchored dollar-cost-
// averaging scheduler: users register recurring trades that are admitted,
// queued onto future blocks within a bounded per-block capacity, and
// replayed at the head of each block in a consensus-stable but
// unpredictable-to-the-submitter order.
package dca

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// AccountId identifies the owner of a schedule and the counterparty of
// every reservation/transfer the scheduler issues.
type AccountId = common.Address

// ScheduleId is monotonically increasing and never reused; the first id
// handed out by a fresh Storage is 1.
type ScheduleId uint64

// BlockNumber is the external monotonic counter supplied by the host
// runtime. Block 0 is the genesis block; schedules are never assigned
// to it.
type BlockNumber uint64

// AssetId identifies a fungible asset known to the host runtime. The
// scheduler treats it as an opaque integer.
type AssetId uint32

// NativeAssetID is the asset the storage bond (§9) is denominated in.
const NativeAssetID AssetId = 0

// Balance is a saturating 256-bit unsigned integer, matching the
// magnitude host runtimes use for on-chain balances.
type Balance = uint256.Int

// maxBalance is the saturating ceiling, all 256 bits set.
func maxBalance() *Balance {
	return new(Balance).Not(new(Balance))
}

// SatAdd returns a + b, saturating at the maximum representable value.
func SatAdd(a, b *Balance) *Balance {
	out := new(Balance)
	if out.AddOverflow(a, b) {
		return maxBalance()
	}
	return out
}

// SatSub returns a - b, saturating at zero (never underflows below 0).
func SatSub(a, b *Balance) *Balance {
	out := new(Balance)
	if out.SubOverflow(a, b) {
		return new(Balance)
	}
	return out
}

// SatMulUint64 multiplies a by a small scalar, saturating at the maximum
// representable value.
func SatMulUint64(a *Balance, scalar uint64) *Balance {
	out := new(Balance)
	if out.MulOverflow(a, new(Balance).SetUint64(scalar)) {
		return maxBalance()
	}
	return out
}

// RecurrenceKind tags whether a schedule runs a fixed number of times
// or until its funds are exhausted.
type RecurrenceKind uint8

const (
	// RecurrenceFixed runs exactly FixedTotal times, funds permitting.
	RecurrenceFixed RecurrenceKind = iota
	// RecurrencePerpetual runs until reserved funds fall below one
	// trade's input amount.
	RecurrencePerpetual
)

// Recurrence is Fixed(n>0) or Perpetual.
type Recurrence struct {
	Kind       RecurrenceKind
	FixedTotal uint32 // only meaningful when Kind == RecurrenceFixed
}

// Fixed builds a Recurrence that executes exactly n times.
func Fixed(n uint32) Recurrence { return Recurrence{Kind: RecurrenceFixed, FixedTotal: n} }

// Perpetual builds a Recurrence with no fixed trade count.
func Perpetual() Recurrence { return Recurrence{Kind: RecurrencePerpetual} }

// OrderKind tags the two trade shapes a schedule can issue.
type OrderKind uint8

const (
	// OrderBuy requests a fixed output amount, at most Limit input.
	OrderBuy OrderKind = iota
	// OrderSell offers a fixed input amount, at least Limit output.
	OrderSell
)

// MaxRoute bounds the number of hops an order's route may take.
const MaxRoute = 5

// Route is a bounded venue path, e.g. [DAI, USDC, WETH].
type Route []AssetId

// Order is the tagged Buy/Sell variant every schedule carries. Buy and
// Sell share the capability set {per-trade budget, limit, route}; the
// venue adapter dispatches on Kind.
type Order struct {
	Kind     OrderKind
	AssetIn  AssetId
	AssetOut AssetId
	// Amount is amount_out for Buy, amount_in for Sell.
	Amount *Balance
	// Limit is max_input for Buy, min_output for Sell.
	Limit *Balance
	Route  Route
}

// BudgetPerTrade returns the amount of AssetIn a single execution must
// have reserved against it: the exact input for Sell, and the worst-case
// input bound (Limit) for Buy, whose real input is only known once the
// venue quotes it.
func (o Order) BudgetPerTrade() *Balance {
	if o.Kind == OrderSell {
		return o.Amount
	}
	return o.Limit
}

// Direction reports the venue-facing trade direction for this order.
func (o Order) Direction() Direction {
	if o.Kind == OrderBuy {
		return DirectionBuy
	}
	return DirectionSell
}

// Schedule is immutable once admitted; the only state that changes
// between creation and deletion lives in Storage's side maps
// (remaining, suspended, retries, executions, block queue membership).
type Schedule struct {
	ID          ScheduleId
	Owner       AccountId
	Period      BlockNumber // blocks between executions, >= 1
	TotalAmount *Balance    // budget reserved from owner at admission, > 0
	Recurrence  Recurrence
	Order       Order
}

// Bond is the storage deposit charged at admission and refunded at
// cleanup, computed once from the encoded size of the entries the
// schedule occupies (§9).
type Bond struct {
	Asset  AssetId
	Amount *Balance
}
