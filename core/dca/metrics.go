// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dca

import "github.com/luxfi/geth/metrics"

// metricsNamespace matches the teacher's "<subsystem>/<name>" metric
// naming convention (see core/txpool/txpool.go's reservationsGaugeName).
const metricsNamespace = "dca"

// schedulerMetrics counts admissions and execution outcomes so an
// operator can alert on a suspension/termination spike the same way
// they would on txpool eviction spikes.
type schedulerMetrics struct {
	scheduled  metrics.Counter
	executed   metrics.Counter
	failed     metrics.Counter
	suspended  metrics.Counter
	completed  metrics.Counter
	terminated metrics.Counter
}

func newSchedulerMetrics() *schedulerMetrics {
	return &schedulerMetrics{
		scheduled:  metrics.GetOrRegisterCounter(metricsNamespace+"/scheduled", nil),
		executed:   metrics.GetOrRegisterCounter(metricsNamespace+"/executed", nil),
		failed:     metrics.GetOrRegisterCounter(metricsNamespace+"/failed", nil),
		suspended:  metrics.GetOrRegisterCounter(metricsNamespace+"/suspended", nil),
		completed:  metrics.GetOrRegisterCounter(metricsNamespace+"/completed", nil),
		terminated: metrics.GetOrRegisterCounter(metricsNamespace+"/terminated", nil),
	}
}
