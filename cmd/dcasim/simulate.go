// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/luxfi/dca-scheduler/cmd/dcasim/config"
	"github.com/luxfi/dca-scheduler/core/dca"
	"github.com/luxfi/dca-scheduler/log"
)

const (
	simAssetIn  dca.AssetId = 1
	simAssetOut dca.AssetId = 2
)

// passthroughVenue fills every trade at a 1:1 rate with no fee, a
// stand-in for a real AMM/orderbook adapter. It never fails: the
// simulator exercises the happy-path execution loop, not failure
// handling (core/dca's tests cover failure/retry/suspend directly).
type passthroughVenue struct{}

func (passthroughVenue) Trade(_ context.Context, _ dca.AccountId, _ dca.Direction, _, _ dca.AssetId, _ dca.Route, budget, _ *dca.Balance) (*dca.TradeResult, error) {
	return &dca.TradeResult{
		InputConsumed:  new(dca.Balance).Set(budget),
		OutputProduced: new(dca.Balance).Set(budget),
		Fee:            new(dca.Balance),
	}, nil
}

// seedBeacon derives a per-block seed by hashing the simulation seed
// with the block number, standing in for a real on-chain VRF the same
// way core/dca's tests use FuncBeacon.
func seedBeacon(simSeed int64) dca.RandomnessBeacon {
	return dca.FuncBeacon(func(b dca.BlockNumber) [32]byte {
		var buf [16]byte
		binary.BigEndian.PutUint64(buf[:8], uint64(simSeed))
		binary.BigEndian.PutUint64(buf[8:], uint64(b))
		return crypto.Keccak256Hash(buf[:])
	})
}

// simOwner derives a synthetic owner address from an index.
func simOwner(i int) dca.AccountId {
	var addr common.Address
	binary.BigEndian.PutUint64(addr[12:], uint64(i+1))
	return addr
}

// runSimulation admits cfg.ScheduleCount schedules against an in-memory
// ledger and a passthrough venue, then drives cfg.BlockCount blocks
// through the executor, logging a summary of what each event surface
// reported.
func runSimulation(cfg config.Config) error {
	ctx := context.Background()
	ledger := dca.NewMemoryLedger()
	sched := dca.New(ledger, passthroughVenue{}, seedBeacon(cfg.Seed))
	defer sched.Close()

	var executed, failed, completed, suspended, terminated int
	execCh := make(chan dca.TradeExecuted, 256)
	failCh := make(chan dca.TradeFailed, 256)
	compCh := make(chan dca.Completed, 256)
	suspCh := make(chan dca.Suspended, 256)
	termCh := make(chan dca.Terminated, 256)
	subs := []interface{ Unsubscribe() }{
		sched.Events().SubscribeTradeExecuted(execCh),
		sched.Events().SubscribeTradeFailed(failCh),
		sched.Events().SubscribeCompleted(compCh),
		sched.Events().SubscribeSuspended(suspCh),
		sched.Events().SubscribeTerminated(termCh),
	}
	defer func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}()

	for i := 0; i < cfg.ScheduleCount; i++ {
		owner := simOwner(i)
		ledger.Mint(owner, simAssetIn, new(dca.Balance).SetUint64(1_000_000_000))
		ledger.Mint(owner, dca.NativeAssetID, new(dca.Balance).SetUint64(1_000_000_000))

		perTrade := new(dca.Balance).SetUint64(1_000)
		total := dca.SatMulUint64(perTrade, 1_000)
		req := dca.ScheduleRequest{
			Owner:       owner,
			Period:      dca.BlockNumber(cfg.Period),
			TotalAmount: total,
			Recurrence:  dca.Perpetual(),
			Order: dca.Order{
				Kind:     dca.OrderSell,
				AssetIn:  simAssetIn,
				AssetOut: simAssetOut,
				Amount:   perTrade,
				Limit:    new(dca.Balance),
			},
		}
		if _, err := sched.Schedule(ctx, 0, req); err != nil {
			log.Warn("dcasim: admission failed", "owner", owner, "err", err)
		}
	}

	for b := dca.BlockNumber(1); b <= dca.BlockNumber(cfg.BlockCount); b++ {
		sched.OnBlockBegin(ctx, b)
	drain:
		for {
			select {
			case <-execCh:
				executed++
			case <-failCh:
				failed++
			case <-compCh:
				completed++
			case <-suspCh:
				suspended++
			case <-termCh:
				terminated++
			default:
				break drain
			}
		}
	}

	log.Info("dcasim: simulation complete",
		"blocks", cfg.BlockCount,
		"schedules", cfg.ScheduleCount,
		"executed", executed,
		"failed", failed,
		"completed", completed,
		"suspended", suspended,
		"terminated", terminated,
	)
	return nil
}
