// Package postgres contains the PostgreSQL implementations of the store
// interfaces. All implementations accept a store.DBTX so they work with
// either a database connection or a transaction, and they log through the
// context-carried logger when one is present.
package postgres
