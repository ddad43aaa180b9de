// Package store defines the persistence interfaces used by the service
// layer, along with the sentinel errors store implementations return.
// Concrete implementations live in internal/platform/postgres.
package store
