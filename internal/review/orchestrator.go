// Package review fans a protocol out to a set of independent reviewers and
// collects their feedback keyed by role.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brianndofor/trialrev/internal/protocol"
)

var ErrDuplicateRole = errors.New("duplicate reviewer role")

type Reviewer interface {
	Role() string
	Review(ctx context.Context, p *protocol.Store) (string, error)
}

// Feedback maps role to the reviewer's raw feedback text.
type Feedback map[string]string

// Roles returns the keys in sorted order.
func (f Feedback) Roles() []string {
	roles := make([]string, 0, len(f))
	for role := range f {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

type Result struct {
	Role     string
	Feedback string
	Err      error
}

type Results []Result

// Feedback keeps only the roles that succeeded.
func (rs Results) Feedback() Feedback {
	out := Feedback{}
	for _, r := range rs {
		if r.Err == nil {
			out[r.Role] = r.Feedback
		}
	}
	return out
}

func (rs Results) Failed() []Result {
	var failed []Result
	for _, r := range rs {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

type Orchestrator struct {
	concurrency int
	logger      *slog.Logger
}

// New returns an orchestrator running at most concurrency reviewers at a
// time. Zero or less means all reviewers at once.
func New(concurrency int, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{concurrency: concurrency, logger: logger}
}

func (o *Orchestrator) limit(n int) int {
	if o.concurrency <= 0 || o.concurrency > n {
		return n
	}
	return o.concurrency
}

func checkRoles(reviewers []Reviewer) error {
	seen := make(map[string]bool, len(reviewers))
	for _, r := range reviewers {
		if seen[r.Role()] {
			return fmt.Errorf("%w: %s", ErrDuplicateRole, r.Role())
		}
		seen[r.Role()] = true
	}
	return nil
}

// Run invokes every reviewer and returns one entry per role. The first
// failure cancels the remaining calls and is returned; partial feedback is
// discarded.
func (o *Orchestrator) Run(ctx context.Context, p *protocol.Store, reviewers []Reviewer) (Feedback, error) {
	if err := checkRoles(reviewers); err != nil {
		return nil, err
	}
	if len(reviewers) == 0 {
		return Feedback{}, nil
	}

	outputs := make([]string, len(reviewers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.limit(len(reviewers)))
	start := time.Now()
	for i, r := range reviewers {
		i, r := i, r
		g.Go(func() error {
			out, err := r.Review(gctx, p)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		o.logger.Error("review run failed", "reviewers", len(reviewers), "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	feedback := make(Feedback, len(reviewers))
	for i, r := range reviewers {
		feedback[r.Role()] = outputs[i]
	}
	o.logger.Info("review run finished", "reviewers", len(reviewers), "duration_ms", time.Since(start).Milliseconds())
	return feedback, nil
}

// RunIsolated invokes every reviewer and records each failure against its
// own role without stopping the others. Results follow reviewer order. If
// ctx is cancelled the whole run is discarded.
func (o *Orchestrator) RunIsolated(ctx context.Context, p *protocol.Store, reviewers []Reviewer) (Results, error) {
	if err := checkRoles(reviewers); err != nil {
		return nil, err
	}
	results := make(Results, len(reviewers))
	var g errgroup.Group
	g.SetLimit(o.limit(max(len(reviewers), 1)))
	for i, r := range reviewers {
		i, r := i, r
		g.Go(func() error {
			out, err := r.Review(ctx, p)
			results[i] = Result{Role: r.Role(), Feedback: out, Err: err}
			if err != nil {
				o.logger.Warn("reviewer failed", "role", r.Role(), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
