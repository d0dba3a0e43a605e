package store

import (
	"context"
	"testing"
	"time"
)

func TestDuplicateLive(t *testing.T) {
	store := openTestStore(t)
	store.SetClock(func() time.Time {
		return time.Date(2025, 11, 3, 21, 30, 0, 0, time.Local)
	})
	ctx := context.Background()

	srcID := mustCreateLive(t, store, &Live{
		Name: "Arena Tour", Date: "2025-10-01", ArtistName: "Band", VenueName: "Arena",
		Tags: "tour,arena", Rating: 5, Memo: "front row", ImagePath: "/img/a.jpg",
	})
	entries := []SetlistEntry{
		{SongName: "Opening", Type: ItemHeader},
		{SongName: "One", Memo: "extended"},
		{SongName: "Two"},
		{SongName: "Three"},
	}
	if err := store.ReplaceSetlist(ctx, srcID, entries); err != nil {
		t.Fatalf("failed to save setlist: %v", err)
	}

	dup, err := store.DuplicateLive(ctx, srcID)
	if err != nil {
		t.Fatalf("failed to duplicate: %v", err)
	}
	if dup == nil {
		t.Fatal("expected duplicate, got nil")
	}
	if dup.ID == srcID {
		t.Fatal("expected a new id")
	}

	got, err := store.GetLive(ctx, dup.ID)
	if err != nil || got == nil {
		t.Fatalf("failed to read duplicate: %v", err)
	}
	want := Live{
		ID: dup.ID, Name: "Arena Tour", Date: "2025-11-03",
		ArtistName: "Band", VenueName: "Arena", Tags: "tour,arena",
	}
	if *got != want {
		t.Errorf("unexpected duplicate:\n got  %+v\n want %+v", *got, want)
	}

	items, err := store.Setlist(ctx, dup.ID)
	if err != nil {
		t.Fatalf("failed to read duplicate setlist: %v", err)
	}
	if len(items) != len(entries) {
		t.Fatalf("expected %d items, got %d", len(entries), len(items))
	}
	for i, item := range items {
		if item.TrackNumber != i+1 {
			t.Errorf("item %d: expected track %d, got %d", i, i+1, item.TrackNumber)
		}
		if item.SongName != entries[i].SongName {
			t.Errorf("item %d: expected %q, got %q", i, entries[i].SongName, item.SongName)
		}
	}
	if items[0].Type != ItemHeader || items[1].Memo != "extended" {
		t.Errorf("expected type and memo to be copied, got %+v %+v", items[0], items[1])
	}

	// Source untouched
	src, _ := store.GetLive(ctx, srcID)
	if src.Rating != 5 || src.Memo != "front row" {
		t.Errorf("source live was modified: %+v", src)
	}
}

func TestDuplicateLiveRenumbersSparseTracks(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	srcID := mustCreateLive(t, store, &Live{Name: "Show", Date: "2024-01-01"})

	for _, track := range []int{2, 5, 9} {
		if _, err := store.AppendSong(ctx, srcID, SetlistEntry{TrackNumber: track, SongName: "Song"}); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}

	dup, err := store.DuplicateLive(ctx, srcID)
	if err != nil || dup == nil {
		t.Fatalf("failed to duplicate: %v", err)
	}

	items, _ := store.Setlist(ctx, dup.ID)
	got := trackNumbers(items)
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("expected tracks [1 2 3], got %v", got)
	}
}

func TestDuplicateMissingLiveReturnsNil(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	dup, err := store.DuplicateLive(ctx, 77)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup != nil {
		t.Errorf("expected nil for missing source, got %+v", dup)
	}
	if count, _ := store.CountLives(ctx); count != 0 {
		t.Errorf("expected no lives created, got %d", count)
	}
}

func TestDuplicateLiveIsAtomic(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	srcID := mustCreateLive(t, store, &Live{Name: "Show", Date: "2024-01-01"})

	if err := store.ReplaceSetlist(ctx, srcID, []SetlistEntry{{SongName: "Fine"}, {SongName: "BOOM"}}); err != nil {
		t.Fatalf("failed to save setlist: %v", err)
	}
	failOnSong(t, store, "BOOM")

	dup, err := store.DuplicateLive(ctx, srcID)
	if err == nil {
		t.Fatalf("expected duplicate to fail, got %+v", dup)
	}

	count, _ := store.CountLives(ctx)
	if count != 1 {
		t.Errorf("expected failed duplicate to leave 1 live, got %d", count)
	}
}
