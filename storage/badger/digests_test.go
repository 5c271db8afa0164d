package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/recall/storage"
)

func TestDigestRoundTrip(t *testing.T) {
	_, _, digestRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { digestRepo.Close(); backend.Close() }()

	ctx := context.Background()
	date := time.Date(2026, 8, 28, 7, 30, 0, 0, time.UTC)

	if err := digestRepo.SaveDigest(ctx, date, "# Daily Digest\n\ncontent"); err != nil {
		t.Fatalf("SaveDigest failed: %v", err)
	}

	// Any time on the same day resolves to the same digest
	sameDay := time.Date(2026, 8, 28, 23, 59, 0, 0, time.UTC)
	markdown, err := digestRepo.GetDigest(ctx, sameDay)
	if err != nil {
		t.Fatalf("GetDigest failed: %v", err)
	}
	if markdown != "# Daily Digest\n\ncontent" {
		t.Fatalf("Unexpected digest content: %s", markdown)
	}

	// Saving again for the same date replaces the stored digest
	if err := digestRepo.SaveDigest(ctx, date, "# Revised Digest"); err != nil {
		t.Fatalf("SaveDigest failed: %v", err)
	}
	markdown, err = digestRepo.GetDigest(ctx, date)
	if err != nil {
		t.Fatalf("GetDigest failed: %v", err)
	}
	if markdown != "# Revised Digest" {
		t.Fatalf("Expected replaced digest, got: %s", markdown)
	}
}

func TestGetDigestNotFound(t *testing.T) {
	_, _, digestRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { digestRepo.Close(); backend.Close() }()

	_, err = digestRepo.GetDigest(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
