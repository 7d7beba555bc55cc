package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Compare returns the tests whose outcome changed between two runs,
// ordered by test path. Tests present in only one run are reported with
// OutcomeUnknown on the missing side.
func (s *Store) Compare(ctx context.Context, baseRunID, headRunID string) ([]Change, error) {
	base, err := s.resultsByTest(ctx, baseRunID)
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}
	head, err := s.resultsByTest(ctx, headRunID)
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}

	tests := make([]string, 0, len(base)+len(head))
	for t := range base {
		tests = append(tests, t)
	}
	for t := range head {
		if _, ok := base[t]; !ok {
			tests = append(tests, t)
		}
	}
	slices.SortFunc(tests, strings.Compare)

	changes := []Change{}
	for _, t := range tests {
		b, inBase := base[t]
		h, inHead := head[t]
		before, after := OutcomeUnknown, OutcomeUnknown
		if inBase {
			before = b.Outcome
		}
		if inHead {
			after = h.Outcome
		}
		if before == after && inBase == inHead {
			continue
		}
		changes = append(changes, Change{
			Test:        t,
			Before:      before,
			After:       after,
			TreeChanged: b.TreeHash != h.TreeHash,
		})
	}
	return changes, nil
}

func (s *Store) resultsByTest(ctx context.Context, runID string) (map[string]Result, error) {
	if _, err := s.ReadRun(ctx, runID); err != nil {
		return nil, err
	}
	results, err := s.ReadResults(ctx, runID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Result, len(results))
	for _, r := range results {
		out[r.Test] = r
	}
	return out, nil
}
