// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dca

import (
	"encoding/binary"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/luxfi/geth/rlp"
)

// bondPricePerByte is the native-asset price charged per encoded byte
// of the entries a live schedule occupies.
const bondPricePerByte = 1_000

// bondSizeCacheBytes sizes the memo cache below; a few hundred bytes
// per schedule id keeps this well under a megabyte for any reasonable
// live-schedule count.
const bondSizeCacheBytes = 1 << 20

// bondSizeMemo memoizes the RLP-encoded byte length computed for each
// schedule id at admission time, so refundAmount() re-reads the size it
// originally charged instead of re-deriving it from the (possibly
// since-evolved) encoding — the §9 design note on storage bond
// stability. Backed by fastcache, the same byte-oriented cache the
// teacher's go.mod carries for exactly this kind of small, high-churn
// keyed blob.
type bondSizeMemo struct {
	cache *fastcache.Cache
}

func newBondSizeMemo() *bondSizeMemo {
	return &bondSizeMemo{cache: fastcache.New(bondSizeCacheBytes)}
}

func idKey(id ScheduleId) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(id))
	return k[:]
}

func (m *bondSizeMemo) put(id ScheduleId, size uint64) {
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], size)
	m.cache.Set(idKey(id), v[:])
}

func (m *bondSizeMemo) get(id ScheduleId) (uint64, bool) {
	v := m.cache.Get(nil, idKey(id))
	if len(v) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(v), true
}

func (m *bondSizeMemo) forget(id ScheduleId) {
	m.cache.Del(idKey(id))
}

// bondEntries mirrors the five storage entries a live schedule
// occupies (§4.1 step 2): the schedule record itself, the owner entry,
// the remaining-recurrences counter, the bond entry, and one queue
// slot. RLP-encoding this struct once at admission gives a stable size
// to bill the bond against.
type bondEntries struct {
	Schedule  Schedule
	Owner     AccountId
	Remaining uint32
	BondAsset AssetId
	QueueSlot ScheduleId
}

// computeAndChargeBond RLP-encodes the entries schedule id will
// occupy, memoizes the encoded length, and returns the bond to charge.
// Called exactly once, at admission.
func (m *bondSizeMemo) computeAndChargeBond(sch Schedule) (Bond, error) {
	entries := bondEntries{
		Schedule:  sch,
		Owner:     sch.Owner,
		Remaining: sch.Recurrence.FixedTotal,
		BondAsset: NativeAssetID,
		QueueSlot: sch.ID,
	}
	encoded, err := rlp.EncodeToBytes(entries)
	if err != nil {
		return Bond{}, err
	}
	size := uint64(len(encoded))
	m.put(sch.ID, size)

	amount := SatMulUint64(new(Balance).SetUint64(1), size*bondPricePerByte)
	return Bond{Asset: NativeAssetID, Amount: amount}, nil
}

// refundAmount returns the bond amount originally charged for id,
// using the memoized size rather than re-deriving it.
func (m *bondSizeMemo) refundAmount(id ScheduleId, fallback Bond) *Balance {
	size, ok := m.get(id)
	if !ok {
		return fallback.Amount
	}
	return SatMulUint64(new(Balance).SetUint64(1), size*bondPricePerByte)
}
