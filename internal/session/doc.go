// Package session owns the single inference session behind every
// presentation surface. It is split into small files by concern:
//
//   - session.go: App type, Config, constructor, Snapshot and setters.
//   - types.go: RuntimeStatus and Snapshot, the read-only projections.
//   - lifecycle.go: Bootstrap, LoadModel and Mount (runtime then model).
//   - predict.go: the Predict trigger.
//   - events.go, eventpub_*.go: lifecycle events for surfaces and tests.
//   - metrics.go: Prometheus collectors.
//
// All state lives on App and changes only through its methods. Predict holds
// no lock while the model runs, so overlapping calls race and whichever
// resolves last owns the result. Failures are logged and never returned from
// Mount or Predict; surfaces observe them only as indicators that stay
// "not ready".
package session
