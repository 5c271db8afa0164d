package pipeline

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/core"
)

func TestPartition(t *testing.T) {
	items := make([]*core.CandidateItem, 13)
	for i := range items {
		items[i] = &core.CandidateItem{Id: core.ID(i + 1)}
	}

	batches, err := Partition(items, 12)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 12)
	assert.Len(t, batches[1], 1)

	// Input order is preserved across the split.
	assert.Equal(t, core.ID(1), batches[0][0].Id)
	assert.Equal(t, core.ID(13), batches[1][0].Id)
}

func TestPartitionEmpty(t *testing.T) {
	batches, err := Partition(nil, 12)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestPartitionInvalidBatchSize(t *testing.T) {
	_, err := Partition(nil, 0)
	assert.ErrorIs(t, err, ErrInvalidBatchSize)
}

var promptIDPattern = regexp.MustCompile(`ID: (\d+) \| TITLE:`)

// keepAllScorer answers every prompt with a KEEP verdict per item line.
func keepAllScorer(score int) func(ctx context.Context, prompt string) (string, error) {
	return func(ctx context.Context, prompt string) (string, error) {
		var lines []string
		for _, m := range promptIDPattern.FindAllStringSubmatch(prompt, -1) {
			lines = append(lines, fmt.Sprintf(
				"ID: %s | SCORE: %d | DECISION: KEEP | INSIGHT: Relevant.", m[1], score))
		}
		return strings.Join(lines, "\n"), nil
	}
}

func schedulerFixture(t *testing.T, scorer *mock.MockScorer, maxConcurrency int) *Scheduler {
	t.Helper()
	evaluator, err := NewEvaluator(scorer, time.Second, nil)
	require.NoError(t, err)
	scheduler, err := NewScheduler(evaluator, maxConcurrency, nil)
	require.NoError(t, err)
	return scheduler
}

func TestSchedulerAggregatesAcrossBatchesAndPersonas(t *testing.T) {
	scorer := mock.NewMockScorer()
	scorer.GenerateTextFunc = keepAllScorer(7)

	scheduler := schedulerFixture(t, scorer, 4)

	personas := []core.PersonaProfile{
		{Id: "ALPHA", Enabled: true},
		{Id: "BETA", Enabled: true},
	}
	batches := [][]*core.CandidateItem{
		{evalItem(1, "One", "ALPHA", "BETA"), evalItem(2, "Two", "ALPHA", "BETA")},
		{evalItem(3, "Three", "ALPHA", "BETA")},
	}

	set, err := scheduler.Run(context.Background(), batches, personas)
	require.NoError(t, err)

	assert.Equal(t, 4, set.Submitted) // 2 batches x 2 personas
	assert.Zero(t, set.Failed)
	require.Len(t, set.Verdicts, 3)
	for _, id := range []core.ID{1, 2, 3} {
		assert.Len(t, set.Verdicts[id], 2, "item %d should have one verdict per persona", id)
	}
}

func TestSchedulerSkipsEmptyPairs(t *testing.T) {
	scorer := mock.NewMockScorer()
	scorer.GenerateTextFunc = keepAllScorer(7)

	scheduler := schedulerFixture(t, scorer, 2)

	personas := []core.PersonaProfile{
		{Id: "ALPHA", Enabled: true},
		{Id: "BETA", Enabled: true},
	}
	// Nothing in the batch passed BETA's gate: no call for that pair.
	batches := [][]*core.CandidateItem{
		{evalItem(1, "One", "ALPHA"), evalItem(2, "Two", "ALPHA")},
	}

	set, err := scheduler.Run(context.Background(), batches, personas)
	require.NoError(t, err)

	assert.Equal(t, 1, set.Submitted)
	assert.Equal(t, 1, scorer.CallCount())
}

func TestSchedulerIsolatesFailedCalls(t *testing.T) {
	scorer := mock.NewMockScorer()
	keep := keepAllScorer(7)
	scorer.GenerateTextFunc = func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "Beta analyst") {
			return "", errors.New("upstream 500")
		}
		return keep(ctx, prompt)
	}

	scheduler := schedulerFixture(t, scorer, 4)

	personas := []core.PersonaProfile{
		{Id: "ALPHA", Brief: "Alpha analyst", Enabled: true},
		{Id: "BETA", Brief: "Beta analyst", Enabled: true},
	}
	batches := [][]*core.CandidateItem{
		{evalItem(1, "One", "ALPHA", "BETA")},
		{evalItem(2, "Two", "ALPHA", "BETA")},
	}

	set, err := scheduler.Run(context.Background(), batches, personas)
	require.NoError(t, err)

	// BETA's calls failed; ALPHA's verdicts are unaffected.
	assert.Equal(t, 4, set.Submitted)
	assert.Equal(t, 2, set.Failed)
	assert.False(t, set.AllFailed())
	for _, id := range []core.ID{1, 2} {
		require.Len(t, set.Verdicts[id], 1)
		assert.Equal(t, core.PersonaID("ALPHA"), set.Verdicts[id][0].Persona)
	}
}

func TestSchedulerAllFailed(t *testing.T) {
	scorer := mock.NewMockScorer()
	scorer.GenerateTextFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("service down")
	}

	scheduler := schedulerFixture(t, scorer, 2)

	personas := []core.PersonaProfile{{Id: "ALPHA", Enabled: true}}
	batches := [][]*core.CandidateItem{
		{evalItem(1, "One", "ALPHA")},
		{evalItem(2, "Two", "ALPHA")},
	}

	set, err := scheduler.Run(context.Background(), batches, personas)
	require.NoError(t, err)
	assert.True(t, set.AllFailed())
	assert.Empty(t, set.Verdicts)
}

func TestSchedulerBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32

	scorer := mock.NewMockScorer()
	keep := keepAllScorer(7)
	scorer.GenerateTextFunc = func(ctx context.Context, prompt string) (string, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		// Hold the slot long enough for the remaining calls to pile up.
		time.Sleep(5 * time.Millisecond)
		return keep(ctx, prompt)
	}

	scheduler := schedulerFixture(t, scorer, 2)

	personas := []core.PersonaProfile{
		{Id: "ALPHA", Enabled: true},
		{Id: "BETA", Enabled: true},
	}
	var batches [][]*core.CandidateItem
	for i := 1; i <= 4; i++ {
		batches = append(batches, []*core.CandidateItem{
			evalItem(core.ID(i), fmt.Sprintf("Story %d", i), "ALPHA", "BETA"),
		})
	}

	set, err := scheduler.Run(context.Background(), batches, personas)
	require.NoError(t, err)

	assert.Equal(t, 8, set.Submitted)
	assert.Zero(t, set.Failed)
	assert.LessOrEqual(t, peak.Load(), int32(2), "more scoring calls in flight than pool slots")
}

// The aggregate is the same regardless of which call finishes first.
func TestSchedulerCompletionOrderIndependence(t *testing.T) {
	run := func(delayFirst bool) map[core.ID][]core.EvaluationVerdict {
		scorer := mock.NewMockScorer()
		keep := keepAllScorer(6)
		scorer.GenerateTextFunc = func(ctx context.Context, prompt string) (string, error) {
			if delayFirst == strings.Contains(prompt, "TITLE: One") {
				time.Sleep(20 * time.Millisecond)
			}
			return keep(ctx, prompt)
		}

		scheduler := schedulerFixture(t, scorer, 4)
		personas := []core.PersonaProfile{
			{Id: "ALPHA", Enabled: true},
			{Id: "BETA", Enabled: true},
		}
		batches := [][]*core.CandidateItem{
			{evalItem(1, "One", "ALPHA", "BETA")},
			{evalItem(2, "Two", "ALPHA", "BETA")},
		}

		set, err := scheduler.Run(context.Background(), batches, personas)
		require.NoError(t, err)
		return set.Verdicts
	}

	first := run(true)
	second := run(false)

	require.Len(t, first, 2)
	for id, verdicts := range first {
		assert.ElementsMatch(t, verdicts, second[id])
	}
}
