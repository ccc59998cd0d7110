// Package protocol holds a protocol's raw text together with its derived
// section view.
package protocol

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/brianndofor/trialrev/internal/section"
)

// FullProtocol is the pseudo-section title that resolves to the raw text.
const FullProtocol = "full_protocol"

// Store is write-once apart from UpdateSection, which has a single-writer
// contract. The raw text never changes after New.
type Store struct {
	raw      string
	sections *section.Sections
	logger   *slog.Logger
}

func New(raw string) *Store {
	return NewWithLogger(raw, nil)
}

func NewWithLogger(raw string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{raw: raw, sections: section.Extract(raw), logger: logger}
}

// GetAll returns the text passed to New, verbatim.
func (s *Store) GetAll() string {
	return s.raw
}

// GetSection returns the section body, the raw text for FullProtocol, or a
// not-found sentinel string. It never fails.
func (s *Store) GetSection(title string) string {
	if body, ok := s.sections.Get(title); ok {
		return body
	}
	if title == FullProtocol {
		return s.raw
	}
	return NotFound(title)
}

func (s *Store) Lookup(title string) (string, bool) {
	if body, ok := s.sections.Get(title); ok {
		return body, true
	}
	if title == FullProtocol {
		return s.raw, true
	}
	return "", false
}

// NotFound is the sentinel GetSection returns for unknown titles.
func NotFound(title string) string {
	return fmt.Sprintf("Section '%s' not found or not explicitly parsed.", title)
}

// UpdateSection replaces a section body in the structured view only. GetAll
// keeps returning the original text afterwards. Unknown titles are a logged
// no-op.
func (s *Store) UpdateSection(title, text string) bool {
	if !s.sections.Replace(title, text) {
		s.logger.Warn("section not found for update", "title", title)
		return false
	}
	s.logger.Debug("section updated in structured view", "title", title)
	return true
}

func (s *Store) Titles() []string {
	return s.sections.Titles()
}

func (s *Store) Sections() []section.Section {
	return s.sections.All()
}

func (s *Store) Find(keyword string) []section.Section {
	return s.sections.Find(keyword)
}

// Digest identifies the raw text; structured updates do not change it.
func (s *Store) Digest() string {
	sum := sha256.Sum256([]byte(s.raw))
	return hex.EncodeToString(sum[:])
}
