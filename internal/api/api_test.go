package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/livelog/internal/report"
	"github.com/franz/livelog/internal/store"
)

func setupTestApp(t *testing.T) (*App, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewApp(s, report.NullLogger()), s
}

func do(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v), "body: %s", rec.Body.String())
}

func createLive(t *testing.T, h http.Handler, l store.Live) int64 {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/lives", l)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp idResponse
	decode(t, rec, &resp)
	return resp.ID
}

func TestAPI_LiveCRUD(t *testing.T) {
	app, _ := setupTestApp(t)
	h := app.Handler()

	id := createLive(t, h, store.Live{Name: "X", Date: "2025-09-10", ArtistName: "B", Tags: "live, tour", Rating: 5})

	rec := do(t, h, http.MethodGet, "/api/lives/"+itoa(id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got store.Live
	decode(t, rec, &got)
	assert.Equal(t, "X", got.Name)
	assert.Equal(t, "live,tour", got.Tags)
	assert.Equal(t, 5, got.Rating)

	rec = do(t, h, http.MethodPut, "/api/lives/"+itoa(id), store.Live{Name: "Y", Date: "2025-09-11"})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &got)
	assert.Equal(t, "Y", got.Name)
	assert.Equal(t, "", got.ArtistName, "update overwrites every field")

	rec = do(t, h, http.MethodDelete, "/api/lives/"+itoa(id), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/lives/"+itoa(id), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_CreateLiveValidation(t *testing.T) {
	app, _ := setupTestApp(t)
	h := app.Handler()

	rec := do(t, h, http.MethodPost, "/api/lives", store.Live{Date: "2025-01-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/lives", store.Live{Name: "Show", Date: "not-a-date"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/lives", bytes.NewBufferString("{not json"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	decode(t, rec, &body)
	assert.NotEmpty(t, body.Error)
	assert.NotEmpty(t, body.RequestID)
}

func TestAPI_BadAndMissingIDs(t *testing.T) {
	app, _ := setupTestApp(t)
	h := app.Handler()

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/lives/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/lives/99", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/api/lives/99", store.Live{Name: "a", Date: "2024-01-01"}).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/lives/99/duplicate", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/lives/99/setlist", nil).Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/lives/99", nil).Code)
}

func TestAPI_ListLivesQuery(t *testing.T) {
	app, _ := setupTestApp(t)
	h := app.Handler()

	createLive(t, h, store.Live{Name: "Rock Night", Date: "2024-01-01", ArtistName: "A", Tags: "rock,pop", Rating: 4})
	createLive(t, h, store.Live{Name: "Pop Night", Date: "2024-02-01", ArtistName: "B", Tags: "rockpop", Rating: 2})
	createLive(t, h, store.Live{Name: "Older", Date: "2023-02-01", ArtistName: "A", Tags: "rock"})

	var lives []store.Live
	rec := do(t, h, http.MethodGet, "/api/lives?tag=rock&year=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &lives)
	require.Len(t, lives, 1)
	assert.Equal(t, "Rock Night", lives[0].Name)

	rec = do(t, h, http.MethodGet, "/api/lives?sort=rating&order=desc", nil)
	decode(t, rec, &lives)
	require.Len(t, lives, 3)
	assert.Equal(t, "Rock Night", lives[0].Name)
	assert.Equal(t, "Older", lives[2].Name)

	rec = do(t, h, http.MethodGet, "/api/lives?min_rating=high", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/lives?q=nothing-matches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestAPI_SetlistAndDuplicate(t *testing.T) {
	app, s := setupTestApp(t)
	h := app.Handler()

	id := createLive(t, h, store.Live{Name: "Tour", Date: "2024-05-05", ArtistName: "Band"})
	base := "/api/lives/" + itoa(id)

	rec := do(t, h, http.MethodPut, base+"/setlist", []store.SetlistEntry{
		{SongName: "Opening", Type: store.ItemHeader},
		{SongName: "One"},
		{SongName: "Two", Memo: "acoustic"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var items []store.SetlistItem
	decode(t, rec, &items)
	require.Len(t, items, 3)
	assert.Equal(t, 3, items[2].TrackNumber)

	rec = do(t, h, http.MethodPost, base+"/setlist", store.SetlistEntry{SongName: "Encore"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, base+"/setlist", nil)
	decode(t, rec, &items)
	require.Len(t, items, 4)
	assert.Equal(t, "Encore", items[3].SongName)
	assert.Equal(t, 4, items[3].TrackNumber)

	rec = do(t, h, http.MethodPut, base+"/setlist", []store.SetlistEntry{{SongName: "x", Type: "bogus"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var dup idResponse
	decode(t, rec, &dup)
	assert.NotEqual(t, id, dup.ID)

	copied, err := s.Setlist(context.Background(), dup.ID)
	require.NoError(t, err)
	assert.Len(t, copied, 4)
}

func TestAPI_ValuesAndStats(t *testing.T) {
	app, s := setupTestApp(t)
	h := app.Handler()
	ctx := context.Background()

	first := createLive(t, h, store.Live{Name: "1", Date: "2024-03-01", ArtistName: "Guns N' Roses", VenueName: "Tokyo Dome", Tags: "rock", Rating: 5})
	second := createLive(t, h, store.Live{Name: "2", Date: "2024-03-15", ArtistName: "Guns N' Roses", VenueName: "Budokan", Rating: 4})
	createLive(t, h, store.Live{Name: "3", Date: "2023-07-01", ArtistName: "Other", VenueName: "Budokan"})
	require.NoError(t, s.ReplaceSetlist(ctx, first, []store.SetlistEntry{{SongName: "Patience"}, {SongName: "Estranged"}}))
	require.NoError(t, s.ReplaceSetlist(ctx, second, []store.SetlistEntry{{SongName: "Patience"}}))

	var names []string
	decode(t, do(t, h, http.MethodGet, "/api/artists", nil), &names)
	assert.Equal(t, []string{"Guns N' Roses", "Other"}, names)

	decode(t, do(t, h, http.MethodGet, "/api/venues", nil), &names)
	assert.Equal(t, []string{"Budokan", "Tokyo Dome"}, names)

	decode(t, do(t, h, http.MethodGet, "/api/tags", nil), &names)
	assert.Equal(t, []string{"rock"}, names)

	decode(t, do(t, h, http.MethodGet, "/api/artists/Guns%20N%27%20Roses/songs", nil), &names)
	assert.Equal(t, []string{"Estranged", "Patience"}, names)

	var stats []store.SongStat
	decode(t, do(t, h, http.MethodGet, "/api/artists/Guns%20N%27%20Roses/song-stats", nil), &stats)
	assert.Equal(t, []store.SongStat{{Name: "Patience", Count: 2}, {Name: "Estranged", Count: 1}}, stats)

	var lives []store.Live
	decode(t, do(t, h, http.MethodGet, "/api/venues/Budokan/lives", nil), &lives)
	assert.Len(t, lives, 2)

	decode(t, do(t, h, http.MethodGet, "/api/calendar/2024/3", nil), &lives)
	require.Len(t, lives, 2)
	assert.Equal(t, "1", lives[0].Name)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/calendar/2024/13", nil).Code)

	var summary store.StatsSummary
	decode(t, do(t, h, http.MethodGet, "/api/stats/summary", nil), &summary)
	assert.Equal(t, store.StatsSummary{TotalLives: 3, AverageRating: 4.5}, summary)

	var ranking []store.RankingItem
	decode(t, do(t, h, http.MethodGet, "/api/rankings/venues?limit=1", nil), &ranking)
	assert.Equal(t, []store.RankingItem{{Name: "Budokan", Count: 2}}, ranking)

	decode(t, do(t, h, http.MethodGet, "/api/rankings/songs?artist=Other", nil), &ranking)
	assert.Empty(t, ranking)

	decode(t, do(t, h, http.MethodGet, "/api/rankings/artists", nil), &ranking)
	assert.Equal(t, "Guns N' Roses", ranking[0].Name)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/rankings/genres", nil).Code)

	var years []store.YearlyActivity
	decode(t, do(t, h, http.MethodGet, "/api/activity/yearly", nil), &years)
	assert.Equal(t, []store.YearlyActivity{{Year: "2024", Count: 2}, {Year: "2023", Count: 1}}, years)

	var months []store.MonthlyActivity
	decode(t, do(t, h, http.MethodGet, "/api/activity/monthly/2024", nil), &months)
	assert.Equal(t, []store.MonthlyActivity{{Month: "03", Count: 2}}, months)

	decode(t, do(t, h, http.MethodGet, "/api/activity/monthly/2024?fill=true", nil), &months)
	assert.Len(t, months, 12)
}

func TestAPI_Export(t *testing.T) {
	app, _ := setupTestApp(t)
	h := app.Handler()
	createLive(t, h, store.Live{Name: "Only", Date: "2024-01-01"})

	rec := do(t, h, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ExportFilename)

	var snap store.Snapshot
	decode(t, rec, &snap)
	assert.NotEmpty(t, snap.ID)
	assert.Len(t, snap.Lives, 1)
}

func TestAPI_RequestIDHeader(t *testing.T) {
	app, _ := setupTestApp(t)
	h := app.Handler()

	rec := do(t, h, http.MethodGet, "/api/stats/summary", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/stats/summary", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}

func TestAPI_CORSPreflight(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/lives", nil)
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
