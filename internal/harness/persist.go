package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/boundc/internal/store"
)

// Settings describes the configuration a run used, for storage.
func (c *Config) Settings() map[string]string {
	s := map[string]string{
		"reference": c.Reference.Runtime,
		"run":       strings.Join(c.Candidate.Run, " "),
		"extension": c.Tests.Extension,
		"timeout":   c.Run.Timeout,
	}
	if len(c.Candidate.Compile) > 0 {
		s["compile"] = strings.Join(c.Candidate.Compile, " ")
	}
	return s
}

// Persist stores a report as a new run.
func Persist(ctx context.Context, st *store.Store, cfg *Config, rep *Report) error {
	seq, err := st.NextRunSeq(ctx)
	if err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	run := store.Run{ID: rep.RunID, Seq: seq, StartedAt: rep.StartedAt, Settings: cfg.Settings()}
	if err := st.WriteRun(ctx, run); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	records := make([]store.Result, len(rep.Results))
	for i, r := range rep.Results {
		records[i] = store.Result{
			RunID:    rep.RunID,
			Seq:      int64(i + 1),
			Test:     r.Test,
			Outcome:  r.Outcome.String(),
			Expected: r.Expected,
			Actual:   r.Actual,
			Detail:   r.Detail,
			TreeHash: r.TreeHash,
			Duration: r.Duration,
		}
	}
	if err := st.WriteResults(ctx, records); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}
