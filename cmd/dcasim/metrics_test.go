// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/geth/metrics"
)

func TestServeMetrics(t *testing.T) {
	prev := metrics.Enabled
	metrics.Enabled = true
	t.Cleanup(func() { metrics.Enabled = prev })

	counter := metrics.GetOrRegisterCounter("dcasim_test/served", nil)
	counter.Inc(42)

	addr, stop, err := serveMetrics("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(stop)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "dcasim_test_served")

	resp2, err := http.Get("http://" + addr + "/debug/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	body2, err := io.ReadAll(resp2.Body)
	require.NoError(t, err)
	require.Contains(t, string(body2), "dcasim_test_served")
}
