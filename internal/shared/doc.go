// Package shared holds helpers used by more than one package. The testutil
// subpackage captures slog output so tests can assert on what the
// dashboard logs.
package shared
