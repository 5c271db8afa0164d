package pipeline

import (
	"github.com/poiesic/recall/core"
)

// Assigner allocates each item to at most one persona. Cross-persona
// exclusivity is a property of the algorithm itself: one winner is
// computed per item, so no later filter is needed to prevent an item
// appearing in two digest sections.
type Assigner struct {
	cfg *RunConfig
}

// NewAssigner creates an assigner over a run configuration.
func NewAssigner(cfg *RunConfig) *Assigner {
	return &Assigner{cfg: cfg}
}

// Assign picks the best-fit persona for one item from its verdicts
// across personas. Only KEEP verdicts scoring strictly above the
// persona's MinScore qualify; among those the highest score wins, with
// equal scores resolved by configuration order. With no qualifying
// verdict the item stays unassigned.
func (a *Assigner) Assign(itemID core.ID, verdicts []core.EvaluationVerdict) core.Assignment {
	assignment := core.Assignment{ItemId: itemID}

	bestRank := len(a.cfg.Personas) + 1
	found := false

	for _, v := range verdicts {
		if v.ItemId != itemID || v.Decision != core.DecisionKeep {
			continue
		}
		persona, ok := a.cfg.Persona(v.Persona)
		if !ok || !persona.Enabled {
			continue
		}
		if v.Score <= persona.MinScore {
			continue
		}

		rank := a.cfg.PersonaPriority(v.Persona)
		if !found || v.Score > assignment.Score ||
			(v.Score == assignment.Score && rank < bestRank) {
			assignment.Persona = v.Persona
			assignment.Score = v.Score
			bestRank = rank
			found = true
		}
	}

	return assignment
}

// AssignAll runs assignment for every item in a drained evaluation
// set and returns the winning assignments only.
func (a *Assigner) AssignAll(set *EvaluationSet) map[core.ID]core.Assignment {
	assignments := make(map[core.ID]core.Assignment)
	for itemID, verdicts := range set.Verdicts {
		assignment := a.Assign(itemID, verdicts)
		if assignment.Assigned() {
			assignments[itemID] = assignment
		}
	}
	return assignments
}
