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
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
)

// Compiler builds the final digest from winning assignments: per
// persona it ranks, truncates, and synthesizes a short summary, then
// closes with an executive summary across all sections.
type Compiler struct {
	cfg    *RunConfig
	scorer ai.Scorer
	logger *slog.Logger
}

// NewCompiler creates a digest compiler.
func NewCompiler(cfg *RunConfig, scorer ai.Scorer, logger *slog.Logger) (*Compiler, error) {
	if scorer == nil {
		return nil, ErrAIProviderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{cfg: cfg, scorer: scorer, logger: logger}, nil
}

// Compile assembles the digest. Candidates must be in ingestion order;
// that order is the tie-break for equal scores. Personas with no
// assigned items are omitted entirely.
func (c *Compiler) Compile(ctx context.Context, candidates []*core.CandidateItem, assignments map[core.ID]core.Assignment, set *EvaluationSet) *core.Digest {
	digest := &core.Digest{Date: time.Now().UTC()}

	for _, persona := range c.cfg.EnabledPersonas() {
		section := c.compileSection(ctx, persona, candidates, assignments, set)
		if section != nil {
			digest.Sections = append(digest.Sections, *section)
		}
	}

	if len(digest.Sections) > 0 {
		digest.ExecutiveSummary = c.executiveSummary(ctx, digest.Sections)
	}

	digest.Markdown = RenderMarkdown(digest)
	return digest
}

// compileSection builds one persona's section, or nil when the
// persona won nothing.
func (c *Compiler) compileSection(ctx context.Context, persona core.PersonaProfile, candidates []*core.CandidateItem, assignments map[core.ID]core.Assignment, set *EvaluationSet) *core.DigestSection {
	// Walk candidates in ingestion order so the stable sort below
	// breaks score ties by arrival.
	var entries []core.DigestEntry
	for _, item := range candidates {
		assignment, ok := assignments[item.Id]
		if !ok || assignment.Persona != persona.Id {
			continue
		}
		verdict, ok := findVerdict(set.Verdicts[item.Id], persona.Id)
		if !ok {
			continue
		}
		entries = append(entries, core.DigestEntry{Item: item, Verdict: verdict})
	}

	if len(entries) == 0 {
		return nil
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Verdict.Score > entries[j].Verdict.Score
	})
	if len(entries) > persona.TopK {
		entries = entries[:persona.TopK]
	}

	section := &core.DigestSection{
		Persona: persona.Id,
		Title:   persona.Title,
		Entries: entries,
	}

	summary, err := c.synthesize(ctx, sectionSynthesisPrompt(persona, entries))
	if err != nil {
		c.logger.Error("section synthesis failed", "persona", persona.Id, "err", err)
	} else {
		section.Summary = summary
	}

	return section
}

// executiveSummary synthesizes across all sections. An empty string on
// failure; the digest renders without it.
func (c *Compiler) executiveSummary(ctx context.Context, sections []core.DigestSection) string {
	var b strings.Builder
	b.WriteString("Summarize the following findings into a cohesive executive summary:\n")
	for _, section := range sections {
		for _, entry := range section.Entries {
			fmt.Fprintf(&b, "- %s: %s\n", entry.Item.Title, entry.Verdict.Insight)
		}
	}

	summary, err := c.synthesize(ctx, b.String())
	if err != nil {
		c.logger.Error("executive summary synthesis failed", "err", err)
		return ""
	}
	return summary
}

func (c *Compiler) synthesize(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.EvalTimeout)
	defer cancel()
	return c.scorer.GenerateText(callCtx, prompt)
}

func sectionSynthesisPrompt(persona core.PersonaProfile, entries []core.DigestEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a 2-3 sentence overview of today's %s findings:\n", persona.Title)
	for _, entry := range entries {
		fmt.Fprintf(&b, "- %s: %s\n", entry.Item.Title, entry.Verdict.Insight)
	}
	return b.String()
}

// findVerdict returns the persona's verdict among an item's verdicts.
func findVerdict(verdicts []core.EvaluationVerdict, persona core.PersonaID) (core.EvaluationVerdict, bool) {
	for _, v := range verdicts {
		if v.Persona == persona {
			return v, true
		}
	}
	return core.EvaluationVerdict{}, false
}

// RenderMarkdown formats a digest as a single markdown document. The
// output is delivered verbatim by downstream channels.
func RenderMarkdown(digest *core.Digest) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("# Recall: Daily Intelligence Digest - %s\n", digest.Date.Format(time.DateOnly)))

	if digest.ExecutiveSummary != "" {
		lines = append(lines, "## Executive Summary\n")
		for _, line := range strings.Split(digest.ExecutiveSummary, "\n") {
			lines = append(lines, "> "+line)
		}
		lines = append(lines, "\n---\n")
	}

	for _, section := range digest.Sections {
		lines = append(lines, fmt.Sprintf("## %s\n", section.Title))
		if section.Summary != "" {
			lines = append(lines, fmt.Sprintf("_%s_\n", section.Summary))
		}
		for _, entry := range section.Entries {
			lines = append(lines, fmt.Sprintf("### [%s](%s)", entry.Item.Title, entry.Item.URL))
			lines = append(lines, fmt.Sprintf("**Source:** %s", entry.Item.Source))
			lines = append(lines, fmt.Sprintf("**Insight:** %s", entry.Verdict.Insight))
			lines = append(lines, "")
		}
	}

	return strings.Join(lines, "\n")
}
