// Package errors provides the dashboard API's error vocabulary and its
// RFC 7807 rendering.
//
// Handlers return plain errors. ErrorHandler classifies them: loader
// failures (input, schema, cell) become 400/422 problems carrying an
// error_code extension, a missing table becomes 409 NO_DATA_LOADED, and
// anything unknown becomes a 500 without leaking the error text. Every
// problem response carries the request trace_id.
package errors
