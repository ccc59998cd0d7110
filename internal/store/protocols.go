package store

import (
	"database/sql"
	"fmt"
	"time"
)

func (s *Store) GetProtocol(digest string) (Protocol, error) {
	row := s.db.QueryRow(`
		SELECT digest, source, title, raw_text, section_count, last_seen_at
		FROM protocols
		WHERE digest = ?
	`, digest)
	var p Protocol
	var seen string
	if err := row.Scan(&p.Digest, &p.Source, &p.Title, &p.RawText, &p.SectionCount, &seen); err != nil {
		if err == sql.ErrNoRows {
			return Protocol{}, err
		}
		return Protocol{}, fmt.Errorf("failed to read protocol: %w", err)
	}
	p.LastSeenAt = parseTime(seen)
	return p, nil
}

// ListProtocols returns protocols most recently seen first, without their
// text.
func (s *Store) ListProtocols() ([]Protocol, error) {
	rows, err := s.db.Query(`
		SELECT digest, source, title, section_count, last_seen_at
		FROM protocols
		ORDER BY last_seen_at DESC, digest
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list protocols: %w", err)
	}
	defer rows.Close()

	var out []Protocol
	for rows.Next() {
		var p Protocol
		var seen string
		if err := rows.Scan(&p.Digest, &p.Source, &p.Title, &p.SectionCount, &seen); err != nil {
			return nil, fmt.Errorf("failed to read protocol: %w", err)
		}
		p.LastSeenAt = parseTime(seen)
		out = append(out, p)
	}
	return out, rows.Err()
}

func parseTime(s string) sql.NullTime {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return sql.NullTime{Time: t, Valid: true}
		}
	}
	return sql.NullTime{}
}
