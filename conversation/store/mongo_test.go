package store

import (
	"context"
	"errors"
	"os"
	"testing"

	skerrors "github.com/fabwinter/Sydneykids/errors"
)

// TestMongoStore exercises the MongoDB backend end to end.
// Note: this test requires a running MongoDB server.
// Set the MONGO_URI environment variable to run it.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping MongoDB store tests")
	}

	s, err := NewMongoStore(&MongoConfig{
		URI:        uri,
		Database:   "sydneykids_test",
		Collection: "conversations",
	})
	if err != nil {
		t.Skipf("Failed to connect to MongoDB: %v", err)
	}
	ctx := context.Background()
	defer s.Close(ctx)

	record := testRecord("mongo-conv")
	defer s.Delete(ctx, record.ID)

	if err := s.Save(ctx, record); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := s.Load(ctx, record.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Messages) != len(record.Messages) {
		t.Errorf("Expected %d messages, got %d", len(record.Messages), len(loaded.Messages))
	}

	// Saving again replaces rather than duplicates.
	if err := s.Save(ctx, record); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count < 1 {
		t.Errorf("Count = %d, want at least 1", count)
	}

	if err := s.Delete(ctx, record.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Load(ctx, record.ID); !errors.Is(err, skerrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}
