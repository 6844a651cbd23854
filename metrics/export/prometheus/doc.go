// Package prometheus renders totpflow metrics in Prometheus text exposition
// format.
//
// [NewExporter] accepts a [totpflow.Engine] and exposes an [http.Handler]
// serving every engine counter plus the audit-drop counter. Counter names are
// prefixed totpflow_*_total.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the
//     Handler.
//   - Mutate engine state.
package prometheus
