package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/recall/core"
)

// Partition splits candidates into contiguous batches of batchSize in
// input order. The final batch may be smaller.
func Partition(candidates []*core.CandidateItem, batchSize int) ([][]*core.CandidateItem, error) {
	if batchSize <= 0 {
		return nil, ErrInvalidBatchSize
	}

	var batches [][]*core.CandidateItem
	for start := 0; start < len(candidates); start += batchSize {
		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batches = append(batches, candidates[start:end])
	}
	return batches, nil
}

// EvaluationSet is the drained result of a scheduled evaluation round:
// every verdict from every (batch, persona) call that succeeded,
// grouped by item. It is complete by construction: the scheduler does
// not return until all submitted calls have finished or failed, so
// assignment never runs on partial information.
type EvaluationSet struct {
	// Verdicts per item across personas.
	Verdicts map[core.ID][]core.EvaluationVerdict

	// Calls submitted and calls failed, for run-level failure policy.
	Submitted int
	Failed    int
}

// AllFailed reports whether every submitted call failed.
func (s *EvaluationSet) AllFailed() bool {
	return s.Submitted > 0 && s.Failed == s.Submitted
}

// Scheduler fans (batch, persona) evaluation calls out to a bounded
// worker pool and aggregates results at a single point.
type Scheduler struct {
	evaluator      *Evaluator
	maxConcurrency int
	logger         *slog.Logger
}

// NewScheduler creates a scheduler over an evaluator.
func NewScheduler(evaluator *Evaluator, maxConcurrency int, logger *slog.Logger) (*Scheduler, error) {
	if maxConcurrency <= 0 {
		return nil, ErrInvalidConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		evaluator:      evaluator,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}, nil
}

// Run submits every (batch, persona) pair and blocks until all calls
// drain. Submission order is batch-major; completion order is
// arbitrary and aggregation does not depend on it. A failed call is
// logged and counted; its items get no verdicts for that persona and
// sibling calls keep running.
func (s *Scheduler) Run(ctx context.Context, batches [][]*core.CandidateItem, personas []core.PersonaProfile) (*EvaluationSet, error) {
	pool, err := ants.NewPool(s.maxConcurrency)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	set := &EvaluationSet{Verdicts: make(map[core.ID][]core.EvaluationVerdict)}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	completed := 0
	total := 0
	for batchIdx := range batches {
		for _, persona := range personas {
			if countEligible(batches[batchIdx], persona.Id) > 0 {
				total++
			}
		}
	}

	for batchIdx, batch := range batches {
		for _, persona := range personas {
			if countEligible(batch, persona.Id) == 0 {
				continue
			}

			batchIdx, batch, persona := batchIdx, batch, persona
			set.Submitted++
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				verdicts, err := s.evaluator.EvaluateBatch(ctx, batch, persona)

				mu.Lock()
				defer mu.Unlock()
				completed++
				if err != nil {
					set.Failed++
					s.logger.Error("batch evaluation failed",
						"batch", batchIdx, "persona", persona.Id,
						"progress", completed, "total", total, "err", err)
					return
				}
				for _, v := range verdicts {
					set.Verdicts[v.ItemId] = append(set.Verdicts[v.ItemId], v)
				}
				s.logger.Info("batch evaluated",
					"batch", batchIdx, "persona", persona.Id,
					"verdicts", len(verdicts), "progress", completed, "total", total)
			}); err != nil {
				wg.Done()
				mu.Lock()
				set.Failed++
				mu.Unlock()
				s.logger.Error("failed to submit batch", "batch", batchIdx, "persona", persona.Id, "err", err)
			}
		}
	}

	// Barrier: assignment needs every verdict for every item, so the
	// round must fully drain before anything downstream runs.
	wg.Wait()

	return set, nil
}

// countEligible counts batch items that passed the persona's gate.
func countEligible(batch []*core.CandidateItem, persona core.PersonaID) int {
	count := 0
	for _, item := range batch {
		if _, ok := item.Prefilter[persona]; ok {
			count++
		}
	}
	return count
}
