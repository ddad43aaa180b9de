// Package service provides application-level services for submitting and
// reconciling provider tasks, aggregating them into groups, and reading
// the cost ledger.
package service
