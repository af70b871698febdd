// Package anomalyservice implements behavioral anomaly detection inside
// Castellan.
//
// Every inbound activity event is evaluated against a fixed rule catalog
// (after-hours access, weekend access, geographic anomaly, bulk download,
// rapid app switching, privilege escalation, failed-login spike) and the
// user's behavioral baseline. The baseline is recomputed fresh per call from
// the trailing 30 days of activity; there is no persisted baseline cache.
// A detection of a given type is suppressed while an open one for the same
// user is younger than 60 minutes.
//
// Boundary notes:
// - Keep this module self-contained under governance context.
// - Admin-app lookups go through the Directory port; cross-module glue
//   lives in bootstrap.
package anomalyservice
