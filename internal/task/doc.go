// Package task contains the background machinery around task records: the
// readiness poller that reconciles queued provider tasks, and the queued
// cost recorder that appends ledger entries off the request path.
package task
