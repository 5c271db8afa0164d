package pipeline

import (
	"github.com/poiesic/recall/core"
)

// Prefilter is the cheap embedding-similarity gate applied before any
// scoring call. It runs in two modes: a lenient ingestion-time gate
// deciding whether an item is worth persisting at all, and a stricter
// per-persona pre-evaluation gate deciding who pays for an LLM call.
type Prefilter struct {
	personas         []core.PersonaProfile
	engagementBypass int
}

// NewPrefilter creates a prefilter over the enabled personas of a run
// configuration.
func NewPrefilter(cfg *RunConfig) *Prefilter {
	return &Prefilter{
		personas:         cfg.EnabledPersonas(),
		engagementBypass: cfg.EngagementBypass,
	}
}

// BestSimilarity returns the highest anchor similarity across the
// enabled personas, or -1 with no personas.
func (f *Prefilter) BestSimilarity(vector []float32) float32 {
	best := float32(-1)
	for _, persona := range f.personas {
		if sim := core.CosineSimilarity(vector, persona.AnchorVector); sim > best {
			best = sim
		}
	}
	return best
}

// PassesIngestion reports whether an item clears the lenient
// ingestion gate: best anchor similarity at or above some persona's
// MinRelevance, or a source score high enough to bypass the gate
// entirely.
func (f *Prefilter) PassesIngestion(item *core.CandidateItem) bool {
	for _, persona := range f.personas {
		sim := core.CosineSimilarity(item.Vector, persona.AnchorVector)
		if sim >= persona.MinRelevance {
			return true
		}
	}

	// High-engagement items are kept regardless of semantic match.
	return item.SourceScore > f.engagementBypass
}

// GateForEvaluation fills the item's per-persona gate results: each
// enabled persona whose EvalThreshold the item's anchor similarity
// meets, with the similarity that cleared it. Personas below the gate
// never see the item in a prompt.
func (f *Prefilter) GateForEvaluation(item *core.CandidateItem) {
	passed := make(map[core.PersonaID]float32)
	for _, persona := range f.personas {
		sim := core.CosineSimilarity(item.Vector, persona.AnchorVector)
		if sim >= persona.EvalThreshold {
			passed[persona.Id] = sim
		}
	}
	item.Prefilter = passed
}
