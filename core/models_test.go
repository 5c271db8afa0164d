package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := IDFromContent("https://example.com/post")
		b := IDFromContent("https://example.com/post")
		if a != b {
			t.Errorf("same content produced different IDs: %d != %d", a, b)
		}
	})

	t.Run("distinct content", func(t *testing.T) {
		a := IDFromContent("https://example.com/post")
		b := IDFromContent("https://example.com/other")
		if a == b {
			t.Errorf("different content produced same ID: %d", a)
		}
	})

	t.Run("empty content", func(t *testing.T) {
		// Still a valid hash, just of the empty string
		a := IDFromContent("")
		b := IDFromContent("")
		if a != b {
			t.Errorf("empty content not deterministic")
		}
	})
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"lowercase passthrough", "hello", "hello"},
		{"mixed case", "Hello World", "helloworld"},
		{"punctuation stripped", "GPT-5: What's New?", "gpt5whatsnew"},
		{"whitespace collapsed", "  spaced   out  ", "spacedout"},
		{"digits kept", "Top 10 Tools", "top10tools"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.title); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestTitleHashOf(t *testing.T) {
	// Titles that normalize identically must hash identically
	a := TitleHashOf("GPT-5: What's New?")
	b := TitleHashOf("gpt 5 whats new")
	if a != b {
		t.Errorf("equivalent titles hashed differently: %d != %d", a, b)
	}

	c := TitleHashOf("completely different")
	if a == c {
		t.Errorf("distinct titles collided: %d", a)
	}
}

func TestSourceString(t *testing.T) {
	tests := []struct {
		source Source
		want   string
	}{
		{SourceHackerNews, "HackerNews"},
		{SourceReddit, "Reddit"},
		{SourceRSS, "RSS"},
		{Source(0), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.source.String(); got != tt.want {
			t.Errorf("Source(%d).String() = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestAssignmentAssigned(t *testing.T) {
	unassigned := Assignment{ItemId: 1}
	if unassigned.Assigned() {
		t.Error("zero persona should not count as assigned")
	}

	assigned := Assignment{ItemId: 1, Persona: "genai", Score: 8}
	if !assigned.Assigned() {
		t.Error("non-zero persona should count as assigned")
	}
}

func TestCandidateItemPassedFor(t *testing.T) {
	item := &CandidateItem{
		Prefilter: map[PersonaID]float32{"genai": 0.42},
	}

	if !item.PassedFor("genai") {
		t.Error("expected genai to have passed")
	}
	if item.PassedFor("product") {
		t.Error("expected product to not have passed")
	}

	empty := &CandidateItem{}
	if empty.PassedFor("genai") {
		t.Error("nil prefilter map should pass for no persona")
	}
}

func TestDecisionString(t *testing.T) {
	if DecisionKeep.String() != "KEEP" {
		t.Errorf("DecisionKeep.String() = %q", DecisionKeep.String())
	}
	if DecisionDrop.String() != "DROP" {
		t.Errorf("DecisionDrop.String() = %q", DecisionDrop.String())
	}
}
