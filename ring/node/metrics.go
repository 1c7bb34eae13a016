package node

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"

	"github.com/syedmoizurrehman/DistributedKVStore/ring/common"
)

// Counters for the dispatch loop and the coordinator orchestrations.
var (
	metricMalformed       = metrics.GetOrCreateCounter("ring_messages_malformed_total")
	metricTimeouts        = metrics.GetOrCreateCounter("ring_exchange_timeouts_total")
	metricStabilizeRuns   = metrics.GetOrCreateCounter("ring_stabilize_runs_total")
	metricStabilizeFailed = metrics.GetOrCreateCounter("ring_stabilize_failures_total")
)

// metricReceived counts one inbound message by type.
func metricReceived(t common.MessageType) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`ring_messages_received_total{type=%q}`, t)).Inc()
}

// metricSent counts one outbound message by type.
func metricSent(t common.MessageType) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`ring_messages_sent_total{type=%q}`, t)).Inc()
}
