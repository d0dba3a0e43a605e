package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/franz/livelog/internal/report"
	"github.com/franz/livelog/internal/store"
)

// maxBodyBytes caps request bodies; a full setlist is a few KB
const maxBodyBytes = 1 << 20

// App holds server dependencies.
type App struct {
	store  *store.Store
	events *report.EventLogger
}

// NewApp creates an App over an open store. events may be nil.
func NewApp(s *store.Store, events *report.EventLogger) *App {
	return &App{
		store:  s,
		events: events,
	}
}

// Handler returns the HTTP handler (router with logging, recovery, CORS, routes).
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestLogging())
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/lives", func(r chi.Router) {
			r.Get("/", a.handleListLives)
			r.Post("/", a.handleCreateLive)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.handleGetLive)
				r.Put("/", a.handleUpdateLive)
				r.Delete("/", a.handleDeleteLive)
				r.Post("/duplicate", a.handleDuplicateLive)

				r.Get("/setlist", a.handleGetSetlist)
				r.Put("/setlist", a.handleReplaceSetlist)
				r.Post("/setlist", a.handleAppendSong)
			})
		})

		r.Get("/artists", a.handleArtists)
		r.Get("/artists/{name}/songs", a.handleArtistSongs)
		r.Get("/artists/{name}/song-stats", a.handleArtistSongStats)
		r.Get("/venues", a.handleVenues)
		r.Get("/venues/{name}/lives", a.handleVenueLives)
		r.Get("/tags", a.handleTags)

		r.Get("/calendar/{year}/{month}", a.handleCalendar)

		r.Get("/stats/summary", a.handleSummary)
		r.Get("/rankings/{kind}", a.handleRankings)
		r.Get("/activity/yearly", a.handleYearlyActivity)
		r.Get("/activity/monthly/{year}", a.handleMonthlyActivity)

		r.Get("/export", a.handleExport)
	})

	return r
}

// corsMiddleware sets CORS headers so a UI served from another port can call.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
