package store

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func TestProtocolUpsertAndList(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "trialrev.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	p := Protocol{Digest: "abc", Source: "protocol.md", Title: "Drug X", RawText: "1. Introduction\nx", SectionCount: 1}
	if err := st.UpsertProtocol(p); err != nil {
		t.Fatalf("upsert protocol: %v", err)
	}
	p.Title = "Drug X v2"
	if err := st.UpsertProtocol(p); err != nil {
		t.Fatalf("re-upsert protocol: %v", err)
	}
	got, err := st.GetProtocol("abc")
	if err != nil {
		t.Fatalf("get protocol: %v", err)
	}
	if got.Title != "Drug X v2" || got.RawText != p.RawText {
		t.Fatalf("unexpected protocol: %#v", got)
	}
	if !got.LastSeenAt.Valid {
		t.Fatalf("expected last_seen_at to be set")
	}
	list, err := st.ListProtocols()
	if err != nil {
		t.Fatalf("list protocols: %v", err)
	}
	if len(list) != 1 || list[0].RawText != "" {
		t.Fatalf("unexpected list: %#v", list)
	}
	if err := st.UpsertProtocol(Protocol{}); err == nil {
		t.Fatalf("expected error for missing digest")
	}
}

func TestReviewRunKeepsLatestOnly(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "trialrev.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	first := ReviewRun{ID: "run-1", ProtocolDigest: "abc", Roles: []string{"pi"}, FeedbackJSON: `{"pi":"a"}`, RisksJSON: `[]`, RiskOK: true, Score: 100}
	if err := st.UpsertRun(first); err != nil {
		t.Fatalf("upsert run: %v", err)
	}
	second := ReviewRun{ID: "run-2", ProtocolDigest: "abc", Roles: []string{"pi", "site_physician"}, FeedbackJSON: `{"pi":"b"}`, Score: 70}
	if err := st.UpsertRun(second); err != nil {
		t.Fatalf("upsert run: %v", err)
	}

	run, err := st.GetRun("abc")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.ID != "run-2" || run.Score != 70 || run.RiskOK {
		t.Fatalf("unexpected run: %#v", run)
	}
	if run.RisksJSON != "[]" {
		t.Fatalf("expected empty risks default, got %q", run.RisksJSON)
	}
	if len(run.Roles) != 2 || run.Roles[1] != "site_physician" {
		t.Fatalf("unexpected roles: %#v", run.Roles)
	}
	if run.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}

	byID, err := st.GetRun("run-2")
	if err != nil {
		t.Fatalf("get run by id: %v", err)
	}
	if byID.ProtocolDigest != "abc" {
		t.Fatalf("unexpected digest: %q", byID.ProtocolDigest)
	}
	if _, err := st.GetRun("run-1"); err != sql.ErrNoRows {
		t.Fatalf("expected replaced run to be gone, got %v", err)
	}

	if err := st.DeleteRun("abc"); err != nil {
		t.Fatalf("delete run: %v", err)
	}
	if _, err := st.GetRun("abc"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}
