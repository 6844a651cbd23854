package totpflow

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricChallengeIssued counts successfully issued OTP challenges.
	MetricChallengeIssued MetricID = iota
	// MetricChallengeResent counts challenges reissued for the pending email.
	MetricChallengeResent
	// MetricChallengeFailure counts challenge-phase failures.
	MetricChallengeFailure
	// MetricChallengeSuperseded counts pending records invalidated because a
	// new challenge replaced them.
	MetricChallengeSuperseded
	// MetricRedeemSuccess counts completed redemptions.
	MetricRedeemSuccess
	// MetricRedeemFailure counts redemption-phase failures of any kind.
	MetricRedeemFailure
	// MetricCodeInvalid counts failed code comparisons.
	MetricCodeInvalid
	// MetricRecordInactive counts redemptions rejected on an inactive record.
	MetricRecordInactive
	// MetricTokenRejected counts pending tokens that failed verification
	// (tampered, malformed, or expired).
	MetricTokenRejected

	metricCount
)

var metricNames = map[MetricID]string{
	MetricChallengeIssued:     "challenge_issued",
	MetricChallengeResent:     "challenge_resent",
	MetricChallengeFailure:    "challenge_failure",
	MetricChallengeSuperseded: "challenge_superseded",
	MetricRedeemSuccess:       "redeem_success",
	MetricRedeemFailure:       "redeem_failure",
	MetricCodeInvalid:         "code_invalid",
	MetricRecordInactive:      "record_inactive",
	MetricTokenRejected:       "token_rejected",
}

// Name returns the stable string name of the metric.
func (id MetricID) Name() string {
	if name, ok := metricNames[id]; ok {
		return name
	}
	return "unknown"
}

// Metrics is a fixed set of atomic counters. All methods are safe for
// concurrent use; a nil or disabled Metrics is a no-op.
type Metrics struct {
	enabled  bool
	counters [metricCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics returns a counter set honoring cfg.Enabled.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricCount))}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
