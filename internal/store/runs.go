package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// ReviewRun is the latest assessment of one protocol. Feedback and risks
// are stored as JSON documents.
type ReviewRun struct {
	ID             string
	ProtocolDigest string
	CreatedAt      time.Time
	Roles          []string
	FeedbackJSON   string
	RisksJSON      string
	RiskOK         bool
	Score          int
}

// UpsertRun replaces whatever run was stored for the protocol.
func (s *Store) UpsertRun(run ReviewRun) error {
	if run.ProtocolDigest == "" {
		return fmt.Errorf("protocol digest is required")
	}
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if run.FeedbackJSON == "" {
		return fmt.Errorf("feedback json is required")
	}
	if run.RisksJSON == "" {
		run.RisksJSON = "[]"
	}
	riskOK := 0
	if run.RiskOK {
		riskOK = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO review_runs (protocol_digest, run_id, created_at, roles, feedback_json, risks_json, risk_ok, score)
		VALUES (?, ?, datetime('now'), ?, ?, ?, ?, ?)
		ON CONFLICT(protocol_digest) DO UPDATE SET
			run_id = excluded.run_id,
			created_at = excluded.created_at,
			roles = excluded.roles,
			feedback_json = excluded.feedback_json,
			risks_json = excluded.risks_json,
			risk_ok = excluded.risk_ok,
			score = excluded.score
	`, run.ProtocolDigest, run.ID, strings.Join(run.Roles, ","), run.FeedbackJSON, run.RisksJSON, riskOK, run.Score)
	if err != nil {
		return fmt.Errorf("failed to upsert review run: %w", err)
	}
	return nil
}

// GetRun looks a run up by protocol digest first, then by run id.
func (s *Store) GetRun(key string) (ReviewRun, error) {
	row := s.db.QueryRow(`
		SELECT protocol_digest, run_id, created_at, roles, feedback_json, risks_json, risk_ok, score
		FROM review_runs
		WHERE protocol_digest = ?
	`, key)
	if run, err := scanRun(row); err == nil {
		return run, nil
	} else if err != sql.ErrNoRows {
		return ReviewRun{}, err
	}

	row = s.db.QueryRow(`
		SELECT protocol_digest, run_id, created_at, roles, feedback_json, risks_json, risk_ok, score
		FROM review_runs
		WHERE run_id = ?
		LIMIT 1
	`, key)
	return scanRun(row)
}

func (s *Store) DeleteRun(digest string) error {
	_, err := s.db.Exec(`DELETE FROM review_runs WHERE protocol_digest = ? OR run_id = ?`, digest, digest)
	if err != nil {
		return fmt.Errorf("failed to delete review run: %w", err)
	}
	return nil
}

func scanRun(row *sql.Row) (ReviewRun, error) {
	var run ReviewRun
	var createdAt, roles string
	var riskOK int
	if err := row.Scan(&run.ProtocolDigest, &run.ID, &createdAt, &roles, &run.FeedbackJSON, &run.RisksJSON, &riskOK, &run.Score); err != nil {
		if err == sql.ErrNoRows {
			return ReviewRun{}, err
		}
		return ReviewRun{}, fmt.Errorf("failed to read review run: %w", err)
	}
	if t := parseTime(createdAt); t.Valid {
		run.CreatedAt = t.Time
	}
	if roles != "" {
		run.Roles = strings.Split(roles, ",")
	}
	run.RiskOK = riskOK == 1
	return run, nil
}
