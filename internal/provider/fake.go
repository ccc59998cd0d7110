package provider

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FakeCompleter answers from fixture files so the pipeline can run offline.
// Reviews read review_<role>.txt, falling back to review.txt; risk extraction
// reads risks.json; protocol generation reads generate.txt.
type FakeCompleter struct {
	Dir string
}

func NewFakeCompleter(dir string) *FakeCompleter {
	return &FakeCompleter{Dir: dir}
}

func (f *FakeCompleter) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	candidates := fixtureNames(req)
	for _, name := range candidates {
		data, err := os.ReadFile(filepath.Join(f.Dir, name))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to read provider fixture: %w", err)
		}
	}
	return "", fmt.Errorf("%w for %s in %s (tried %v)", ErrNoFixture, req.Operation, f.Dir, candidates)
}

func fixtureNames(req Request) []string {
	switch req.Operation {
	case OpReview:
		if req.Role != "" {
			return []string{"review_" + req.Role + ".txt", "review.txt"}
		}
		return []string{"review.txt"}
	case OpRisk:
		return []string{"risks.json"}
	case OpGenerate:
		return []string{"generate.txt"}
	default:
		return []string{string(req.Operation) + ".txt"}
	}
}

func (f *FakeCompleter) HealthCheck(ctx context.Context) error {
	_ = ctx
	info, err := os.Stat(f.Dir)
	if err != nil {
		return fmt.Errorf("provider fixture dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("provider fixture dir %s is not a directory", f.Dir)
	}
	return nil
}
