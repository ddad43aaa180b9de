// Package api contains the HTTP handlers for the dashboard backend: user
// authentication, provider credential management, per-module task and
// group operations, and the cost ledger read endpoints.
package api
