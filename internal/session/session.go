// Package session keeps per-visitor dashboard state: the loaded production
// table and the selected language.
package session

import (
	"errors"
	"time"

	"kpidash/internal/i18n"
	"kpidash/pkg/contracts/domain"
)

// ErrNotFound is returned for unknown or expired session ids
var ErrNotFound = errors.New("session not found")

// Session is one visitor's dashboard state. Records is replaced as a whole
// on every successful load and never mutated in place.
type Session struct {
	ID       string
	Language i18n.Lang
	Records  []domain.ProductionRecord
	Source   string
	LoadedAt time.Time
	LastSeen time.Time
}

// HasData reports whether a table has been loaded
func (s *Session) HasData() bool {
	return s.Records != nil
}

// WithTable returns a copy of s holding a newly loaded table
func (s Session) WithTable(records []domain.ProductionRecord, source string, at time.Time) *Session {
	s.Records = records
	s.Source = source
	s.LoadedAt = at
	return &s
}

// WithLanguage returns a copy of s with another language selected
func (s Session) WithLanguage(lang i18n.Lang) *Session {
	s.Language = lang
	return &s
}
