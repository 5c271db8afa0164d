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
	"strings"
	"time"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// Defaults for the run configuration.
const (
	// DefaultBatchSize is the number of candidates per evaluation batch.
	DefaultBatchSize = 12

	// DefaultMaxConcurrency caps in-flight scoring calls. It protects
	// the scoring service, not pipeline correctness.
	DefaultMaxConcurrency = 4

	// DefaultNearDupThreshold is the cosine similarity at which two
	// items count as the same story. Higher and stricter than any
	// relevance threshold.
	DefaultNearDupThreshold = 0.85

	// DefaultMinRelevance is the lenient ingestion-time gate.
	DefaultMinRelevance = 0.35

	// DefaultEvalThreshold is the per-persona pre-evaluation gate.
	DefaultEvalThreshold = 0.15

	// DefaultMinScore is the decision cutoff; verdicts must score
	// strictly above it to qualify for assignment.
	DefaultMinScore = 4

	// DefaultTopK caps each digest section.
	DefaultTopK = 5

	// DefaultEngagementBypass keeps items whose source score exceeds
	// this even when they miss the ingestion gate.
	DefaultEngagementBypass = 100

	// DefaultEvalTimeout bounds a single scoring call.
	DefaultEvalTimeout = 120 * time.Second

	// DefaultCandidateLimit bounds how many stored items the
	// generation phase considers.
	DefaultCandidateLimit = 1000

	// DefaultPerSourceCap bounds candidates taken from each source so
	// one noisy source cannot crowd out the others.
	DefaultPerSourceCap = 50
)

// Preference keys understood by the snapshot. Values are "true"/"false".
const (
	PrefSourceHNEnabled     = "SOURCE_HN_ENABLED"
	PrefSourceRedditEnabled = "SOURCE_REDDIT_ENABLED"
	PrefSourceRSSEnabled    = "SOURCE_RSS_ENABLED"

	personaPrefPrefix = "PERSONA_"
	personaPrefSuffix = "_ENABLED"
)

// RunConfig is the immutable configuration snapshot for one pipeline
// run. It is constructed once at run start and passed through every
// stage; no component re-reads live preferences mid-run.
type RunConfig struct {
	// Personas in configuration order. The order doubles as the
	// assignment tie-break priority.
	Personas []core.PersonaProfile

	// Sources enabled for this run.
	Sources map[core.Source]bool

	BatchSize        int
	MaxConcurrency   int
	NearDupThreshold float32
	EngagementBypass int
	EvalTimeout      time.Duration
	CandidateLimit   int
	PerSourceCap     int
}

// EnabledPersonas returns the active personas in priority order.
func (c *RunConfig) EnabledPersonas() []core.PersonaProfile {
	var enabled []core.PersonaProfile
	for _, p := range c.Personas {
		if p.Enabled {
			enabled = append(enabled, p)
		}
	}
	return enabled
}

// PersonaPriority returns the tie-break rank of a persona: lower wins.
// Unknown personas rank last.
func (c *RunConfig) PersonaPriority(id core.PersonaID) int {
	for i, p := range c.Personas {
		if p.Id == id {
			return i
		}
	}
	return len(c.Personas)
}

// Persona returns the profile for an id, if configured.
func (c *RunConfig) Persona(id core.PersonaID) (core.PersonaProfile, bool) {
	for _, p := range c.Personas {
		if p.Id == id {
			return p, true
		}
	}
	return core.PersonaProfile{}, false
}

// DefaultConfig returns the built-in run configuration: three personas
// and all sources enabled.
func DefaultConfig() RunConfig {
	return RunConfig{
		Personas: DefaultPersonas(),
		Sources: map[core.Source]bool{
			core.SourceHackerNews: true,
			core.SourceReddit:     true,
			core.SourceRSS:        true,
		},
		BatchSize:        DefaultBatchSize,
		MaxConcurrency:   DefaultMaxConcurrency,
		NearDupThreshold: DefaultNearDupThreshold,
		EngagementBypass: DefaultEngagementBypass,
		EvalTimeout:      DefaultEvalTimeout,
		CandidateLimit:   DefaultCandidateLimit,
		PerSourceCap:     DefaultPerSourceCap,
	}
}

// DefaultPersonas returns the built-in interest profiles. Anchor
// vectors are filled in at run start by embedding the anchor texts.
func DefaultPersonas() []core.PersonaProfile {
	return []core.PersonaProfile{
		{
			Id:    "GENAI_NEWS",
			Title: "GenAI Tech News",
			Brief: "You are an expert AI Editor.\n" +
				"Select items relevant to a Generative AI Engineer.\n" +
				"STRICTLY DISCARD generic non-technical news. IGNORE duplicates.",
			AnchorText: "Technical details about Large Language Models, AI agents, " +
				"RAG systems, transformer architectures, new model releases like " +
				"Llama, GPT, Claude, Gemini, fine-tuning, prompt engineering, " +
				"AI research breakthroughs.",
			MinRelevance:  DefaultMinRelevance,
			EvalThreshold: DefaultEvalThreshold,
			MinScore:      DefaultMinScore,
			TopK:          DefaultTopK,
			Enabled:       true,
		},
		{
			Id:    "PRODUCT_IDEAS",
			Title: "Product Opportunities",
			Brief: "You are a Product Scout.\n" +
				"Look for startup ideas, unaddressed problems, or market gaps.",
			AnchorText: "New software startup ideas, B2B SaaS opportunities, market " +
				"gaps, product launches, innovative apps, developer tools, problems " +
				"enabling new product development, tech entrepreneurship.",
			MinRelevance:  DefaultMinRelevance,
			EvalThreshold: DefaultEvalThreshold,
			MinScore:      DefaultMinScore,
			TopK:          DefaultTopK,
			Enabled:       true,
		},
		{
			Id:    "FINANCIAL_ANALYSIS",
			Title: "Financial Analysis",
			Brief: "You are a Financial Analyst.\n" +
				"Look for revenue, funding, IPOs, and market data.",
			AnchorText: "Financial reports of tech companies, revenue data, funding " +
				"rounds, IPOs, stock market analysis, AI company valuations, venture " +
				"capital investments, earnings reports.",
			MinRelevance:  DefaultMinRelevance,
			EvalThreshold: DefaultEvalThreshold,
			MinScore:      DefaultMinScore,
			TopK:          DefaultTopK,
			Enabled:       true,
		},
	}
}

// sourcePrefKey maps a source to its preference key.
func sourcePrefKey(source core.Source) string {
	switch source {
	case core.SourceHackerNews:
		return PrefSourceHNEnabled
	case core.SourceReddit:
		return PrefSourceRedditEnabled
	case core.SourceRSS:
		return PrefSourceRSSEnabled
	}
	return ""
}

// personaPrefKey maps a persona to its preference key, e.g.
// PERSONA_GENAI_NEWS_ENABLED.
func personaPrefKey(id core.PersonaID) string {
	return personaPrefPrefix + strings.ToUpper(string(id)) + personaPrefSuffix
}

// Snapshot builds a RunConfig from the base configuration and the
// persisted preferences. Persona profiles are validated on the way in;
// a misconfigured persona fails the snapshot rather than the run. The
// result is a value: preference writes after the snapshot never affect
// the run that took it.
func Snapshot(ctx context.Context, prefs storage.PreferenceRepository, base RunConfig) (RunConfig, error) {
	cfg := base
	cfg.Sources = make(map[core.Source]bool, len(base.Sources))
	cfg.Personas = make([]core.PersonaProfile, len(base.Personas))
	copy(cfg.Personas, base.Personas)

	for source, enabled := range base.Sources {
		value, err := prefs.GetPreference(ctx, sourcePrefKey(source), boolPref(enabled))
		if err != nil {
			return RunConfig{}, err
		}
		cfg.Sources[source] = strings.EqualFold(value, "true")
	}

	for i, persona := range cfg.Personas {
		if err := core.ValidatePersonaProfile(&cfg.Personas[i]); err != nil {
			return RunConfig{}, err
		}
		value, err := prefs.GetPreference(ctx, personaPrefKey(persona.Id), boolPref(persona.Enabled))
		if err != nil {
			return RunConfig{}, err
		}
		cfg.Personas[i].Enabled = strings.EqualFold(value, "true")
	}

	return cfg, nil
}

func boolPref(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
