// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gatherer

import "github.com/luxfi/geth/metrics"

// Registry is the minimal surface Gatherer needs from a metrics
// registry, mirroring metrics/prometheus.Registry.
type Registry interface {
	Each(func(string, any))
	Get(string) any
}

var _ Registry = (*metrics.StandardRegistry)(nil)
