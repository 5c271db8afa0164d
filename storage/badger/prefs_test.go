package badger

import (
	"context"
	"testing"
)

func TestPreferenceDefaults(t *testing.T) {
	_, prefRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { prefRepo.Close(); backend.Close() }()

	ctx := context.Background()

	value, err := prefRepo.GetPreference(ctx, "source_reddit", "on")
	if err != nil {
		t.Fatalf("GetPreference failed: %v", err)
	}
	if value != "on" {
		t.Fatalf("Expected default 'on', got '%s'", value)
	}
}

func TestPreferenceRoundTrip(t *testing.T) {
	_, prefRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { prefRepo.Close(); backend.Close() }()

	ctx := context.Background()

	if err := prefRepo.SetPreference(ctx, "source_reddit", "off"); err != nil {
		t.Fatalf("SetPreference failed: %v", err)
	}

	value, err := prefRepo.GetPreference(ctx, "source_reddit", "on")
	if err != nil {
		t.Fatalf("GetPreference failed: %v", err)
	}
	if value != "off" {
		t.Fatalf("Expected 'off', got '%s'", value)
	}

	// Overwrite
	if err := prefRepo.SetPreference(ctx, "source_reddit", "on"); err != nil {
		t.Fatalf("SetPreference failed: %v", err)
	}
	value, err = prefRepo.GetPreference(ctx, "source_reddit", "off")
	if err != nil {
		t.Fatalf("GetPreference failed: %v", err)
	}
	if value != "on" {
		t.Fatalf("Expected 'on', got '%s'", value)
	}
}

func TestAllPreferences(t *testing.T) {
	_, prefRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { prefRepo.Close(); backend.Close() }()

	ctx := context.Background()

	all, err := prefRepo.AllPreferences(ctx)
	if err != nil {
		t.Fatalf("AllPreferences failed: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("Expected empty map, got %d entries", len(all))
	}

	want := map[string]string{
		"source_hackernews":          "on",
		"source_rss":                 "off",
		"persona_financial_analysis": "off",
	}
	for k, v := range want {
		if err := prefRepo.SetPreference(ctx, k, v); err != nil {
			t.Fatalf("SetPreference failed: %v", err)
		}
	}

	all, err = prefRepo.AllPreferences(ctx)
	if err != nil {
		t.Fatalf("AllPreferences failed: %v", err)
	}
	if len(all) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(all))
	}
	for k, v := range want {
		if all[k] != v {
			t.Fatalf("Expected %s=%s, got '%s'", k, v, all[k])
		}
	}
}
