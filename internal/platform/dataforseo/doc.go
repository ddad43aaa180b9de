// Package dataforseo implements the HTTP client for the DataForSEO v3 API.
//
// Endpoints come in two shapes. Live endpoints return full results in a
// single synchronous call. Queued endpoints require three calls: task_post
// returns an opaque task id immediately, tasks_ready lists completed ids,
// and task_get fetches full results for one id.
//
// Authentication is HTTP Basic, built from per-user login/password pairs
// resolved from the credential store. Responses are decoded into typed
// envelopes and validated at this boundary; malformed or non-success
// provider payloads are rejected here instead of being passed through
// untyped.
package dataforseo
