package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/franz/livelog/internal/store"
	"github.com/franz/livelog/internal/util"
)

// listOptionsFromQuery maps ?q=&artist=&venue=&year=&min_rating=&tag=&sort=&order=
func listOptionsFromQuery(r *http.Request) (store.ListOptions, error) {
	q := r.URL.Query()
	minRating, err := queryInt(r, "min_rating", 0)
	if err != nil {
		return store.ListOptions{}, err
	}
	return store.ListOptions{
		Search:    q.Get("q"),
		Artist:    q.Get("artist"),
		Venue:     q.Get("venue"),
		Year:      q.Get("year"),
		MinRating: minRating,
		Tag:       q.Get("tag"),
		SortKey:   store.SortKey(q.Get("sort")),
		SortOrder: store.SortOrder(strings.ToUpper(q.Get("order"))),
	}, nil
}

func (a *App) handleListLives(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptionsFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lives, err := a.store.ListLives(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lives)
}

func (a *App) handleCreateLive(w http.ResponseWriter, r *http.Request) {
	var live store.Live
	if err := decodeBody(w, r, &live); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := a.store.CreateLive(r.Context(), &live)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = a.events.LogLiveCreate(id, live.Name)

	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// loadLive resolves {id} to a stored live, writing 400/404 itself on failure
func (a *App) loadLive(w http.ResponseWriter, r *http.Request) (*store.Live, bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	live, err := a.store.GetLive(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	if live == nil {
		writeError(w, r, fmt.Errorf("live %d: %w", id, util.ErrNotFound))
		return nil, false
	}
	return live, true
}

func (a *App) handleGetLive(w http.ResponseWriter, r *http.Request) {
	live, ok := a.loadLive(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, live)
}

func (a *App) handleUpdateLive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var live store.Live
	if err := decodeBody(w, r, &live); err != nil {
		writeError(w, r, err)
		return
	}
	live.ID = id

	if err := a.store.UpdateLive(r.Context(), &live); err != nil {
		writeError(w, r, err)
		return
	}
	_ = a.events.LogLiveUpdate(id, live.Name)

	updated, err := a.store.GetLive(r.Context(), id)
	if err != nil || updated == nil {
		writeJSON(w, http.StatusOK, live)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *App) handleDeleteLive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	var name string
	if live, _ := a.store.GetLive(ctx, id); live != nil {
		name = live.Name
	}
	items, _ := a.store.CountSetlistItems(ctx, id)

	if err := a.store.DeleteLive(ctx, id); err != nil {
		writeError(w, r, err)
		return
	}
	if name != "" {
		_ = a.events.LogLiveDelete(id, name, items)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleDuplicateLive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	dup, err := a.store.DuplicateLive(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if dup == nil {
		writeError(w, r, fmt.Errorf("live %d: %w", id, util.ErrNotFound))
		return
	}

	items, _ := a.store.CountSetlistItems(r.Context(), dup.ID)
	_ = a.events.LogDuplicate(id, dup.ID, dup.Name, items)

	writeJSON(w, http.StatusCreated, idResponse{ID: dup.ID})
}

func (a *App) handleGetSetlist(w http.ResponseWriter, r *http.Request) {
	live, ok := a.loadLive(w, r)
	if !ok {
		return
	}
	items, err := a.store.Setlist(r.Context(), live.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *App) handleReplaceSetlist(w http.ResponseWriter, r *http.Request) {
	live, ok := a.loadLive(w, r)
	if !ok {
		return
	}

	var entries []store.SetlistEntry
	if err := decodeBody(w, r, &entries); err != nil {
		writeError(w, r, err)
		return
	}

	if err := a.store.ReplaceSetlist(r.Context(), live.ID, entries); err != nil {
		writeError(w, r, err)
		return
	}
	_ = a.events.LogSetlistReplace(live.ID, len(entries))

	items, err := a.store.Setlist(r.Context(), live.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleAppendSong adds one line; a missing trackNumber goes after the last one
func (a *App) handleAppendSong(w http.ResponseWriter, r *http.Request) {
	live, ok := a.loadLive(w, r)
	if !ok {
		return
	}

	var entry store.SetlistEntry
	if err := decodeBody(w, r, &entry); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(entry.SongName) == "" {
		writeError(w, r, fmt.Errorf("%w: songName is required", util.ErrInvalidInput))
		return
	}

	if entry.TrackNumber <= 0 {
		count, err := a.store.CountSetlistItems(r.Context(), live.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		entry.TrackNumber = count + 1
	}

	id, err := a.store.AppendSong(r.Context(), live.ID, entry)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = a.events.LogSetlistAppend(live.ID, entry.TrackNumber, entry.SongName)

	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}
