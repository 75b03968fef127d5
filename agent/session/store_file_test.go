package session

import (
	"context"
	"testing"
	"time"

	customerx "github.com/paylane/collections-agent/agent/customer"
)

func TestFileStoreDistinguishesSavesWithinOneSecond(t *testing.T) {
	t.Parallel()

	store := NewFileStore(FileStoreConfig{Dir: t.TempDir()})
	frozen := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return frozen }

	customer := &customerx.Profile{
		ID:                       "CUST-050",
		Name:                     "Ingrid Sørensen",
		ConsentToStoreTranscript: true,
		TranscriptRetentionDays:  30,
	}
	convo := NewConversation(customer.ID)
	convo.AppendAgent("Hello Ingrid.", nil)
	transcript := BuildTranscript(customer, convo, frozen)

	first, err := store.Save(context.Background(), transcript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := store.Save(context.Background(), transcript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == second {
		t.Fatalf("saves at the same instant must not share a path: %s", first)
	}

	for _, ref := range []string{first, second} {
		loaded, err := store.Load(context.Background(), ref)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if loaded.CustomerID != "CUST-050" {
			t.Fatalf("customer identity lost in %s: %+v", ref, loaded)
		}
	}
}

func TestFileStoreRejectsNilTranscript(t *testing.T) {
	t.Parallel()

	store := NewFileStore(FileStoreConfig{Dir: t.TempDir()})
	if _, err := store.Save(context.Background(), nil); err == nil {
		t.Fatal("expected an error for a nil transcript")
	}
}
