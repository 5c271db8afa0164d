package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateRawItem(t *testing.T) {
	validTime := time.Now().Add(-1 * time.Hour)
	futureTime := time.Now().Add(1 * time.Hour)

	tests := []struct {
		name    string
		item    *RawItem
		wantErr error
	}{
		{
			name: "valid item",
			item: &RawItem{
				Source:    SourceHackerNews,
				Title:     "Show HN: A thing",
				URL:       "https://example.com",
				FetchedAt: validTime,
			},
			wantErr: nil,
		},
		{
			name: "valid item without content",
			item: &RawItem{
				Source:    SourceRSS,
				Title:     "Headline only",
				URL:       "https://example.com/a",
				FetchedAt: validTime,
			},
			wantErr: nil,
		},
		{
			name:    "nil item",
			item:    nil,
			wantErr: ErrInvalidItem,
		},
		{
			name: "empty title",
			item: &RawItem{
				Source:    SourceReddit,
				URL:       "https://example.com",
				FetchedAt: validTime,
			},
			wantErr: ErrEmptyTitle,
		},
		{
			name: "empty url",
			item: &RawItem{
				Source:    SourceReddit,
				Title:     "Title",
				FetchedAt: validTime,
			},
			wantErr: ErrEmptyURL,
		},
		{
			name: "unknown source",
			item: &RawItem{
				Source:    Source(99),
				Title:     "Title",
				URL:       "https://example.com",
				FetchedAt: validTime,
			},
			wantErr: ErrInvalidSource,
		},
		{
			name: "future timestamp",
			item: &RawItem{
				Source:    SourceHackerNews,
				Title:     "Title",
				URL:       "https://example.com",
				FetchedAt: futureTime,
			},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRawItem(tt.item)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePersonaProfile(t *testing.T) {
	valid := func() *PersonaProfile {
		return &PersonaProfile{
			Id:            "genai",
			Title:         "GenAI Tech News",
			AnchorText:    "large language models",
			MinRelevance:  0.35,
			EvalThreshold: 0.15,
			MinScore:      4,
			TopK:          5,
			Enabled:       true,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*PersonaProfile)
		wantErr error
	}{
		{"valid", func(p *PersonaProfile) {}, nil},
		{"empty id", func(p *PersonaProfile) { p.Id = "" }, ErrEmptyPersonaID},
		{"empty anchor", func(p *PersonaProfile) { p.AnchorText = "" }, ErrEmptyAnchorText},
		{"relevance above 1", func(p *PersonaProfile) { p.MinRelevance = 1.5 }, ErrInvalidThreshold},
		{"eval threshold below -1", func(p *PersonaProfile) { p.EvalThreshold = -1.5 }, ErrInvalidThreshold},
		{"min score above 10", func(p *PersonaProfile) { p.MinScore = 11 }, ErrInvalidScoreBound},
		{"negative min score", func(p *PersonaProfile) { p.MinScore = -1 }, ErrInvalidScoreBound},
		{"zero topK", func(p *PersonaProfile) { p.TopK = 0 }, ErrInvalidTopK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			persona := valid()
			tt.mutate(persona)
			err := ValidatePersonaProfile(persona)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("nil persona", func(t *testing.T) {
		if err := ValidatePersonaProfile(nil); !errors.Is(err, ErrInvalidPersona) {
			t.Errorf("got %v, want ErrInvalidPersona", err)
		}
	})
}
