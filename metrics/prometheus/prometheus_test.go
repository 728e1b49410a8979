// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prometheus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/geth/metrics"
)

// withMetrics enables the global metrics registry for the duration of
// a test and restores the previous setting on cleanup.
func withMetrics(t *testing.T) {
	t.Helper()
	prev := metrics.Enabled
	metrics.Enabled = true
	t.Cleanup(func() { metrics.Enabled = prev })
}

func TestGatherer_Gather(t *testing.T) {
	withMetrics(t)

	registry := metrics.NewRegistry()
	counter := metrics.NewCounter()
	counter.Inc(7)
	require.NoError(t, registry.Register("dca/scheduled", counter))

	gauge := metrics.NewGauge()
	gauge.Update(3)
	require.NoError(t, registry.Register("dca/suspended", gauge))

	families, err := NewGatherer(registry).Gather()
	require.NoError(t, err)
	require.Len(t, families, 2)

	byName := make(map[string]float64, len(families))
	for _, mf := range families {
		require.Len(t, mf.Metric, 1)
		switch mf.GetType().String() {
		case "COUNTER":
			byName[mf.GetName()] = mf.Metric[0].GetCounter().GetValue()
		case "GAUGE":
			byName[mf.GetName()] = mf.Metric[0].GetGauge().GetValue()
		}
	}
	require.Equal(t, float64(7), byName["dca_scheduled"])
	require.Equal(t, float64(3), byName["dca_suspended"])
}
