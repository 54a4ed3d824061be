// Package governance holds the request admission controls of the HTTP
// front end. Parsing itself is unthrottled; only the service boundary
// enforces per-client budgets.
package governance
