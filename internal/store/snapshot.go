package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/franz/livelog/internal/util"
	"github.com/google/uuid"
)

// Snapshot is a full dump of the journal for export and backup
type Snapshot struct {
	ID         string         `json:"id"`
	ExportedAt time.Time      `json:"exportedAt"`
	Lives      []*Live        `json:"lives"`
	Setlists   []*SetlistItem `json:"setlists"`
}

// DumpAll reads every live and every setlist item in one read transaction
func (s *Store) DumpAll(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		ID:         uuid.NewString(),
		ExportedAt: s.now().UTC(),
	}

	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		lives, err := queryLives(ctx, tx, "SELECT "+liveColumns+" FROM lives ORDER BY id")
		if err != nil {
			return fmt.Errorf("failed to read lives: %w", err)
		}
		snap.Lives = lives

		rows, err := tx.QueryContext(ctx,
			"SELECT "+setlistColumns+" FROM setlist_items ORDER BY liveId, trackNumber, id")
		if err != nil {
			return fmt.Errorf("failed to read setlists: %w", err)
		}
		defer rows.Close()

		snap.Setlists = make([]*SetlistItem, 0)
		for rows.Next() {
			item := &SetlistItem{}
			var itemType string
			if err := rows.Scan(&item.ID, &item.LiveID, &item.TrackNumber,
				&item.SongName, &item.Memo, &itemType); err != nil {
				return fmt.Errorf("failed to scan setlist item: %w", err)
			}
			item.Type = ItemType(itemType)
			snap.Setlists = append(snap.Setlists, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dump journal: %w", err)
	}
	return snap, nil
}

// RestoreResult reports what Restore wrote
type RestoreResult struct {
	Lives        int
	SetlistItems int
	Skipped      int // null setlist items and items whose live was not in the snapshot
}

// Restore appends a snapshot to the journal in one transaction.
// Lives get fresh ids; setlist items follow their live, keeping their
// track numbers. onProgress, if set, is called after each live.
func (s *Store) Restore(ctx context.Context, snap *Snapshot, onProgress func(done int)) (*RestoreResult, error) {
	if snap == nil {
		return &RestoreResult{}, nil
	}
	for i, l := range snap.Lives {
		if l == nil {
			return nil, fmt.Errorf("%w: live at index %d is null", util.ErrInvalidInput, i)
		}
		if err := validateLive(l); err != nil {
			return nil, fmt.Errorf("live %d: %w", l.ID, err)
		}
	}

	result := &RestoreResult{}
	byLive := make(map[int64][]*SetlistItem)
	for _, item := range snap.Setlists {
		if item == nil {
			result.Skipped++
			continue
		}
		byLive[item.LiveID] = append(byLive[item.LiveID], item)
	}

	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertSetlistSQL)
		if err != nil {
			return fmt.Errorf("failed to prepare setlist insert: %w", err)
		}
		defer stmt.Close()

		for i, l := range snap.Lives {
			newID, err := insertLive(ctx, tx, l)
			if err != nil {
				return fmt.Errorf("failed to insert live %d: %w", l.ID, err)
			}
			result.Lives++

			for _, item := range byLive[l.ID] {
				entry := SetlistEntry{SongName: item.SongName, Memo: item.Memo, Type: item.Type}
				if err := insertSetlistItem(ctx, stmt, newID, item.TrackNumber, entry); err != nil {
					return fmt.Errorf("failed to insert setlist item %d: %w", item.ID, err)
				}
				result.SetlistItems++
			}
			delete(byLive, l.ID)

			if onProgress != nil {
				onProgress(i + 1)
			}
		}

		for _, orphans := range byLive {
			result.Skipped += len(orphans)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to restore snapshot: %w", err)
	}
	return result, nil
}
