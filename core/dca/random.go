// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dca

import (
	"encoding/binary"
	"sort"

	"github.com/ethereum/go-ethereum/crypto"
)

// RandomnessBeacon supplies the per-block seed the executor permutes
// its queue by (§6). Implementations must be stable within a block and
// must never consult wall-clock time or process-local RNG: the
// permutation has to be reproducible from consensus state alone (§9).
type RandomnessBeacon interface {
	Random(b BlockNumber) [32]byte
}

// permutationKey derives the sort key hash(seed || schedule_id) used
// to order a block's queue (§4.3 step 2).
func permutationKey(seed [32]byte, id ScheduleId) [32]byte {
	var buf [40]byte
	copy(buf[:32], seed[:])
	binary.BigEndian.PutUint64(buf[32:], uint64(id))
	return crypto.Keccak256Hash(buf[:])
}

// permute orders ids by their permutation key, ascending, breaking
// ties by raw schedule_id ascending (§4.3 step 2). The result is
// unpredictable to a submitter at block b-1 but fully determined by
// consensus state at b.
func permute(ids []ScheduleId, seed [32]byte) []ScheduleId {
	type keyed struct {
		id  ScheduleId
		key [32]byte
	}
	entries := make([]keyed, len(ids))
	for i, id := range ids {
		entries[i] = keyed{id: id, key: permutationKey(seed, id)}
	}
	sort.Slice(entries, func(i, j int) bool {
		c := compareBytes32(entries[i].key, entries[j].key)
		if c != 0 {
			return c < 0
		}
		return entries[i].id < entries[j].id
	})
	out := make([]ScheduleId, len(entries))
	for i, e := range entries {
		out[i] = e.id
	}
	return out
}

func compareBytes32(a, b [32]byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// FuncBeacon adapts a plain function to RandomnessBeacon, for tests
// and the simulator harness that want a canned/deterministic seed
// schedule instead of a real on-chain VRF.
type FuncBeacon func(b BlockNumber) [32]byte

func (f FuncBeacon) Random(b BlockNumber) [32]byte { return f(b) }
