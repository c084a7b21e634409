// Package http implements the dashboard's HTTP handlers. Handlers stay
// thin: they parse and validate the request, call the dashboard service
// and render the result, leaving data loading and aggregation to the
// service layer.
//
// # Sessions
//
// Every dashboard route runs behind SessionCtx, which resolves the
// session cookie to the visitor's loaded table and display language. A
// missing or expired cookie starts a fresh session whose language is
// negotiated from Accept-Language.
//
// # Errors
//
// Failures are rendered as RFC 7807 problem details by the shared
// ErrorHandler. Load failures carry the localized "error loading file"
// message, and a request against an empty session answers 409 with the
// localized "no data" notice.
//
// # Downloads
//
// Charts and exports are rendered to memory by the service before any
// header is written, so a failure still produces a problem response
// instead of a truncated file.
package http
