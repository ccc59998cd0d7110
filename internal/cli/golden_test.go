package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func goldenPath(t *testing.T, name string) string {
	return filepath.Join(repoRoot(), "testdata", "golden", name)
}

func readGolden(t *testing.T, name string) string {
	path := goldenPath(t, name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read golden file: %v", err)
	}
	return string(data)
}

func TestSegmentGolden(t *testing.T) {
	withMockEnv(t)
	output := runRoot(t, "segment", sampleProtocol)
	expected := readGolden(t, "segment.txt")
	if output != expected {
		t.Fatalf("segment output mismatch\n--- expected\n%s\n--- got\n%s", expected, output)
	}
}

func TestReviewGolden(t *testing.T) {
	withMockEnv(t)
	output := runRoot(t, "review", sampleProtocol)
	expected := readGolden(t, "review.txt")
	if output != expected {
		t.Fatalf("review output mismatch\n--- expected\n%s\n--- got\n%s", expected, output)
	}
}
