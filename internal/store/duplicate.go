package store

import (
	"context"
	"database/sql"
	"fmt"
)

// DateLayout is the stored liveDate format
const DateLayout = "2006-01-02"

// DuplicateLive copies a live and its setlist into a new live dated today.
// Rating, memo and image are cleared. The live insert and the setlist copy
// commit together or not at all. Returns nil when the source does not exist.
func (s *Store) DuplicateLive(ctx context.Context, originalID int64) (*Live, error) {
	var created *Live

	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		src, err := scanLive(tx.QueryRowContext(ctx,
			"SELECT "+liveColumns+" FROM lives WHERE id = ?", originalID))
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read source live: %w", err)
		}

		copyOf := &Live{
			Name:       src.Name,
			Date:       s.now().Format(DateLayout),
			VenueName:  src.VenueName,
			ArtistName: src.ArtistName,
			Tags:       src.Tags,
		}

		id, err := insertLive(ctx, tx, copyOf)
		if err != nil {
			return fmt.Errorf("failed to insert duplicate live: %w", err)
		}
		copyOf.ID = id

		items, err := querySetlist(ctx, tx, originalID)
		if err != nil {
			return fmt.Errorf("failed to read source setlist: %w", err)
		}
		if err := insertEntries(ctx, tx, id, EntriesFromItems(items)); err != nil {
			return err
		}

		created = copyOf
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to duplicate live %d: %w", originalID, err)
	}
	return created, nil
}
