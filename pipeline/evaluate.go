// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
)

// promptSnippetLimit caps the content excerpt per item in the prompt.
const promptSnippetLimit = 400

// Evaluator scores batches of candidates against personas via the
// scoring service. One call covers one (batch, persona) pair.
type Evaluator struct {
	scorer  ai.Scorer
	timeout time.Duration
	logger  *slog.Logger
}

// NewEvaluator creates an evaluator with a per-call timeout.
func NewEvaluator(scorer ai.Scorer, timeout time.Duration, logger *slog.Logger) (*Evaluator, error) {
	if scorer == nil {
		return nil, ErrAIProviderRequired
	}
	if timeout <= 0 {
		timeout = DefaultEvalTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		scorer:  scorer,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// EvaluateBatch scores the batch items that passed the persona's
// pre-evaluation gate. Returns no verdicts (and no error) when nothing
// in the batch passed. A scoring failure or timeout fails this one
// (batch, persona) call; the caller isolates it.
func (e *Evaluator) EvaluateBatch(ctx context.Context, batch []*core.CandidateItem, persona core.PersonaProfile) ([]core.EvaluationVerdict, error) {
	eligible := make([]*core.CandidateItem, 0, len(batch))
	for _, item := range batch {
		if _, ok := item.Prefilter[persona.Id]; ok {
			eligible = append(eligible, item)
		}
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	prompt := BuildBatchPrompt(eligible, persona)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	response, err := e.scorer.GenerateText(callCtx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: persona %s", ErrScoringTimeout, persona.Id)
		}
		return nil, fmt.Errorf("%w: persona %s: %s", ErrScoringService, persona.Id, err)
	}

	return e.parseResponse(response, eligible, persona), nil
}

// BuildBatchPrompt enumerates the eligible items, each tagged with its
// stable ID, under the persona's brief and the required output format.
func BuildBatchPrompt(items []*core.CandidateItem, persona core.PersonaProfile) string {
	var b strings.Builder

	b.WriteString(persona.Brief)
	b.WriteString("\nAnalyze the following list of content items.\n\nINPUT ITEMS:\n")

	for _, item := range items {
		snippet := strings.ReplaceAll(item.Content, "\n", " ")
		if len(snippet) > promptSnippetLimit {
			snippet = strings.ToValidUTF8(snippet[:promptSnippetLimit], "")
		}
		fmt.Fprintf(&b, "\nID: %d | TITLE: %s | SOURCE: %s | CONTENT: %s\n",
			item.Id, item.Title, item.Source, snippet)
	}

	b.WriteString("\nOUTPUT FORMAT:\n")
	b.WriteString("For EACH item, output a SINGLE LINE in this exact format:\n")
	b.WriteString("ID: <id> | SCORE: <0-10> | DECISION: <KEEP/DISCARD> | INSIGHT: <4 sentences explaining the core value and key takeaways. Be specific and clear to help a user decide if they should read the full article.>\n")
	b.WriteString("\nOutput ONLY these lines.\n")

	return b.String()
}

// parseResponse extracts verdicts from the scoring service output.
// Matching is by the stable ID in each line, never by position; a line
// that fails to parse yields no verdict for its item, which downstream
// treats as a drop.
func (e *Evaluator) parseResponse(response string, items []*core.CandidateItem, persona core.PersonaProfile) []core.EvaluationVerdict {
	byID := make(map[core.ID]*core.CandidateItem, len(items))
	for _, item := range items {
		byID[item.Id] = item
	}

	var verdicts []core.EvaluationVerdict
	seen := make(map[core.ID]bool)

	for _, line := range strings.Split(response, "\n") {
		verdict, ok := ParseVerdictLine(line, persona.Id)
		if !ok {
			continue
		}
		if _, known := byID[verdict.ItemId]; !known {
			e.logger.Debug("verdict for unknown item", "id", verdict.ItemId, "persona", persona.Id)
			continue
		}
		if seen[verdict.ItemId] {
			continue
		}
		seen[verdict.ItemId] = true
		verdicts = append(verdicts, verdict)
	}

	if len(verdicts) < len(items) {
		e.logger.Debug("items without verdicts", "persona", persona.Id,
			"missing", len(items)-len(verdicts))
	}

	return verdicts
}

// ParseVerdictLine parses one response line of the form
//
//	ID: <id> | SCORE: <0-10> | DECISION: <KEEP/DISCARD> | INSIGHT: <text>
//
// Absence of a parse is data, not an error: malformed lines return
// ok=false and the item simply gets no verdict.
func ParseVerdictLine(line string, persona core.PersonaID) (core.EvaluationVerdict, bool) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.Contains(line, "ID:") {
		return core.EvaluationVerdict{}, false
	}

	fields := make(map[string]string)
	for _, part := range strings.Split(line, "|") {
		key, value, found := strings.Cut(part, ":")
		if !found {
			continue
		}
		fields[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	id, err := strconv.ParseUint(fields["ID"], 10, 64)
	if err != nil {
		return core.EvaluationVerdict{}, false
	}

	score, err := strconv.Atoi(fields["SCORE"])
	if err != nil || score < 0 || score > 10 {
		return core.EvaluationVerdict{}, false
	}

	decisionField, ok := fields["DECISION"]
	if !ok {
		return core.EvaluationVerdict{}, false
	}
	decision := core.DecisionDrop
	if strings.Contains(strings.ToUpper(decisionField), "KEEP") {
		decision = core.DecisionKeep
	}

	return core.EvaluationVerdict{
		ItemId:   core.ID(id),
		Persona:  persona,
		Score:    score,
		Decision: decision,
		Insight:  fields["INSIGHT"],
	}, true
}
