package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/franz/livelog/internal/store"
	"github.com/franz/livelog/internal/util"
)

func (a *App) handleArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := a.store.DistinctArtists(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artists)
}

func (a *App) handleVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := a.store.DistinctVenues(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, venues)
}

func (a *App) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := a.store.DistinctTags(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (a *App) handleArtistSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := a.store.SongsByArtist(r.Context(), pathName(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

func (a *App) handleArtistSongStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.store.SongStatsForArtist(r.Context(), pathName(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *App) handleVenueLives(w http.ResponseWriter, r *http.Request) {
	lives, err := a.store.LivesByVenue(r.Context(), pathName(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lives)
}

func (a *App) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, yerr := strconv.Atoi(chi.URLParam(r, "year"))
	month, merr := strconv.Atoi(chi.URLParam(r, "month"))
	if yerr != nil || merr != nil || month < 1 || month > 12 {
		writeError(w, r, fmt.Errorf("%w: calendar expects /{year}/{1-12}", util.ErrInvalidInput))
		return
	}

	lives, err := a.store.LivesInMonth(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lives)
}

func (a *App) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.store.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleRankings serves artists, venues and songs; songs accept ?artist=
func (a *App) handleRankings(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	def := util.GetRankingLimit()
	if kind == "songs" {
		def = util.GetSongRankingLimit()
	}
	limit, err := queryInt(r, "limit", def)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var items []store.RankingItem
	ctx := r.Context()
	switch kind {
	case "artists":
		items, err = a.store.ArtistRankings(ctx, limit)
	case "venues":
		items, err = a.store.VenueRankings(ctx, limit)
	case "songs":
		if artist := r.URL.Query().Get("artist"); artist != "" {
			items, err = a.store.SongRankingsByArtist(ctx, artist, limit)
		} else {
			items, err = a.store.SongRankings(ctx, limit)
		}
	default:
		writeError(w, r, fmt.Errorf("ranking %q: %w", kind, util.ErrNotFound))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *App) handleYearlyActivity(w http.ResponseWriter, r *http.Request) {
	years, err := a.store.YearlyActivity(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, years)
}

// handleMonthlyActivity returns sparse months; ?fill=true returns all twelve
func (a *App) handleMonthlyActivity(w http.ResponseWriter, r *http.Request) {
	year := chi.URLParam(r, "year")
	if _, err := strconv.Atoi(year); err != nil || len(year) != 4 {
		writeError(w, r, fmt.Errorf("%w: year must be YYYY", util.ErrInvalidInput))
		return
	}

	months, err := a.store.MonthlyActivity(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if fill, _ := strconv.ParseBool(r.URL.Query().Get("fill")); fill {
		months = store.FillMonths(months)
	}
	writeJSON(w, http.StatusOK, months)
}

// ExportFilename is the default backup name offered to downloads
const ExportFilename = "setlist_backup.json"

func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := a.store.DumpAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = a.events.LogExport(r.URL.Path, snap.ID, len(snap.Lives), len(snap.Setlists))

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ExportFilename))
	writeJSON(w, http.StatusOK, snap)
}
