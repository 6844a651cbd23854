package prometheus

import (
	"fmt"
	"net/http"
	"strings"

	totpflow "github.com/totpflow/totpflow"
)

type metricsSource interface {
	MetricsSnapshot() totpflow.MetricsSnapshot
	AuditDropped() uint64
}

// counterDefs fixes the exposition order and help text per counter. The
// metric names come from the engine's stable counter names.
var counterDefs = []struct {
	id   totpflow.MetricID
	help string
}{
	{totpflow.MetricChallengeIssued, "OTP challenges issued."},
	{totpflow.MetricChallengeResent, "Challenges reissued for the pending email."},
	{totpflow.MetricChallengeFailure, "Challenge-phase failures."},
	{totpflow.MetricChallengeSuperseded, "Pending records invalidated by a newer challenge."},
	{totpflow.MetricRedeemSuccess, "Completed redemptions."},
	{totpflow.MetricRedeemFailure, "Redemption-phase failures of any kind."},
	{totpflow.MetricCodeInvalid, "Failed code comparisons."},
	{totpflow.MetricRecordInactive, "Redemptions rejected on an inactive record."},
	{totpflow.MetricTokenRejected, "Pending tokens that failed verification."},
}

// Exporter renders engine metrics in Prometheus text exposition format.
type Exporter struct {
	source metricsSource
}

// NewExporter reads from the given [totpflow.Engine].
func NewExporter(engine *totpflow.Engine) *Exporter {
	return &Exporter{source: engine}
}

// NewExporterFromSource reads from a custom metrics source.
func NewExporterFromSource(source metricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler returns an http.Handler serving the rendered metrics.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(e.Render()))
	})
}

// Render writes all counters in exposition format. Output is empty when the
// engine has nothing to report, so a scrape of a metrics-disabled engine
// stays silent rather than emitting a wall of zeros.
func (e *Exporter) Render() string {
	if e == nil || e.source == nil {
		return ""
	}

	snapshot := e.source.MetricsSnapshot()
	dropped := e.source.AuditDropped()
	if len(snapshot.Counters) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range counterDefs {
		writeCounter(&b, "totpflow_"+def.id.Name()+"_total", def.help, snapshot.Counters[def.id])
	}
	writeCounter(&b, "totpflow_audit_dropped_total",
		"Dropped audit events due to dispatcher backpressure.", dropped)

	return b.String()
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s counter\n", name)
	fmt.Fprintf(b, "%s %d\n", name, value)
}
