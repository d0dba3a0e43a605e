package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/franz/livelog/internal/util"
)

const setlistColumns = `id, liveId, trackNumber, songName, COALESCE(memo, ''), COALESCE(type, 'song')`

// normalizeType defaults an empty type to song and rejects anything unknown
func normalizeType(t ItemType) (ItemType, error) {
	switch t {
	case "":
		return ItemSong, nil
	case ItemSong, ItemHeader:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown setlist item type %q", util.ErrInvalidInput, t)
}

func querySetlist(ctx context.Context, q querier, liveID int64) ([]*SetlistItem, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+setlistColumns+" FROM setlist_items WHERE liveId = ? ORDER BY trackNumber ASC, id ASC",
		liveID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*SetlistItem, 0)
	for rows.Next() {
		item := &SetlistItem{}
		var itemType string
		if err := rows.Scan(&item.ID, &item.LiveID, &item.TrackNumber,
			&item.SongName, &item.Memo, &itemType); err != nil {
			return nil, fmt.Errorf("failed to scan setlist item: %w", err)
		}
		item.Type = ItemType(itemType)
		items = append(items, item)
	}
	return items, rows.Err()
}

// Setlist returns a live's setlist ordered by track number
func (s *Store) Setlist(ctx context.Context, liveID int64) ([]*SetlistItem, error) {
	items, err := querySetlist(ctx, s.db, liveID)
	if err != nil {
		util.ErrorLog("Failed to load setlist for live %d: %v", liveID, err)
		return []*SetlistItem{}, fmt.Errorf("failed to load setlist: %w", err)
	}
	return items, nil
}

// CountSetlistItems returns how many lines a live's setlist has
func (s *Store) CountSetlistItems(ctx context.Context, liveID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM setlist_items WHERE liveId = ?", liveID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count setlist items: %w", err)
	}
	return count, nil
}

func insertSetlistItem(ctx context.Context, stmt *sql.Stmt, liveID int64, track int, e SetlistEntry) error {
	itemType, err := normalizeType(e.Type)
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, liveID, track, e.SongName, nullable(e.Memo), string(itemType))
	return err
}

const insertSetlistSQL = `
	INSERT INTO setlist_items (liveId, trackNumber, songName, memo, type)
	VALUES (?, ?, ?, ?, ?)
`

// AppendSong inserts one item with the caller's track number; nothing is renumbered
func (s *Store) AppendSong(ctx context.Context, liveID int64, e SetlistEntry) (int64, error) {
	itemType, err := normalizeType(e.Type)
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, insertSetlistSQL,
		liveID, e.TrackNumber, e.SongName, nullable(e.Memo), string(itemType))
	if err != nil {
		return 0, fmt.Errorf("failed to append setlist item: %w", err)
	}
	return result.LastInsertId()
}

// ReplaceSetlist atomically swaps a live's whole setlist for entries.
// Track numbers are assigned 1..N from slice position.
func (s *Store) ReplaceSetlist(ctx context.Context, liveID int64, entries []SetlistEntry) error {
	for _, e := range entries {
		if _, err := normalizeType(e.Type); err != nil {
			return err
		}
	}

	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM setlist_items WHERE liveId = ?", liveID); err != nil {
			return fmt.Errorf("failed to clear setlist: %w", err)
		}
		return insertEntries(ctx, tx, liveID, entries)
	})
	if err != nil {
		return fmt.Errorf("failed to replace setlist for live %d: %w", liveID, err)
	}
	return nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, liveID int64, entries []SetlistEntry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, insertSetlistSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare setlist insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if err := insertSetlistItem(ctx, stmt, liveID, i+1, e); err != nil {
			return fmt.Errorf("failed to insert setlist item %d: %w", i+1, err)
		}
	}
	return nil
}

// EntriesFromItems converts stored items back into save input
func EntriesFromItems(items []*SetlistItem) []SetlistEntry {
	entries := make([]SetlistEntry, len(items))
	for i, item := range items {
		entries[i] = SetlistEntry{
			TrackNumber: item.TrackNumber,
			SongName:    item.SongName,
			Memo:        item.Memo,
			Type:        item.Type,
		}
	}
	return entries
}
