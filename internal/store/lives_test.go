package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLives(t *testing.T, s *Store) map[string]int64 {
	t.Helper()

	lives := []*Live{
		{Name: "Spring Tour", Date: "2024-04-12", ArtistName: "Aurora", VenueName: "Budokan", Tags: "rock,pop", Rating: 5},
		{Name: "Summer Fest", Date: "2024-08-03", ArtistName: "bonobo", VenueName: "Fuji Rock", Tags: "festival, rock", Rating: 3},
		{Name: "Winter Hall", Date: "2023-12-24", ArtistName: "Aurora Borealis", VenueName: "Budokan Annex", Tags: "rockpop"},
		{Name: "Club Night", Date: "2023-02-10", ArtistName: "Caribou", VenueName: "Liquidroom", Tags: "ro", Rating: 4},
		{Name: "100% Live", Date: "2022-06-01", ArtistName: "Autechre", VenueName: "O-East", Rating: 2},
	}

	ids := make(map[string]int64, len(lives))
	for _, l := range lives {
		ids[l.Name] = mustCreateLive(t, s, l)
	}
	return ids
}

func names(lives []*Live) []string {
	out := make([]string, len(lives))
	for i, l := range lives {
		out[i] = l.Name
	}
	return out
}

func TestListLivesFilters(t *testing.T) {
	store := openTestStore(t)
	seedLives(t, store)

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{
			name: "no filter returns all newest first",
			opts: ListOptions{},
			want: []string{"Summer Fest", "Spring Tour", "Winter Hall", "Club Night", "100% Live"},
		},
		{
			name: "search matches live name",
			opts: ListOptions{Search: "fest"},
			want: []string{"Summer Fest"},
		},
		{
			name: "search matches venue",
			opts: ListOptions{Search: "liquid"},
			want: []string{"Club Night"},
		},
		{
			name: "search matches tags",
			opts: ListOptions{Search: "festival"},
			want: []string{"Summer Fest"},
		},
		{
			name: "search treats percent literally",
			opts: ListOptions{Search: "100%"},
			want: []string{"100% Live"},
		},
		{
			name: "search treats underscore literally",
			opts: ListOptions{Search: "_"},
			want: []string{},
		},
		{
			name: "artist matches substring",
			opts: ListOptions{Artist: "Aurora"},
			want: []string{"Spring Tour", "Winter Hall"},
		},
		{
			name: "venue matches substring",
			opts: ListOptions{Venue: "budokan"},
			want: []string{"Spring Tour", "Winter Hall"},
		},
		{
			name: "year scopes to calendar year",
			opts: ListOptions{Year: "2023"},
			want: []string{"Winter Hall", "Club Night"},
		},
		{
			name: "min rating excludes unrated",
			opts: ListOptions{MinRating: 4},
			want: []string{"Spring Tour", "Club Night"},
		},
		{
			name: "tag rock matches whole tokens only",
			opts: ListOptions{Tag: "rock"},
			want: []string{"Summer Fest", "Spring Tour"},
		},
		{
			name: "tag pop",
			opts: ListOptions{Tag: "pop"},
			want: []string{"Spring Tour"},
		},
		{
			name: "tag ro does not match rock",
			opts: ListOptions{Tag: "ro"},
			want: []string{"Club Night"},
		},
		{
			name: "tag rockpop",
			opts: ListOptions{Tag: "rockpop"},
			want: []string{"Winter Hall"},
		},
		{
			name: "filters compose with AND",
			opts: ListOptions{Artist: "Aurora", Year: "2024", Tag: "rock", MinRating: 5},
			want: []string{"Spring Tour"},
		},
		{
			name: "composition can exclude everything",
			opts: ListOptions{Artist: "Caribou", Year: "2024"},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lives, err := store.ListLives(context.Background(), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(lives))
		})
	}
}

func TestListLivesSorting(t *testing.T) {
	store := openTestStore(t)
	seedLives(t, store)
	ctx := context.Background()

	t.Run("artist ascending ignores case", func(t *testing.T) {
		lives, err := store.ListLives(ctx, ListOptions{SortKey: SortByArtist, SortOrder: SortAsc})
		require.NoError(t, err)
		artists := make([]string, len(lives))
		for i, l := range lives {
			artists[i] = l.ArtistName
		}
		assert.Equal(t, []string{"Aurora", "Aurora Borealis", "Autechre", "bonobo", "Caribou"}, artists)
	})

	t.Run("rating descending puts unrated last", func(t *testing.T) {
		lives, err := store.ListLives(ctx, ListOptions{SortKey: SortByRating, SortOrder: SortDesc})
		require.NoError(t, err)
		assert.Equal(t, []string{"Spring Tour", "Club Night", "Summer Fest", "100% Live", "Winter Hall"}, names(lives))
	})

	t.Run("date ascending", func(t *testing.T) {
		lives, err := store.ListLives(ctx, ListOptions{SortKey: SortByDate, SortOrder: "asc"})
		require.NoError(t, err)
		assert.Equal(t, "100% Live", lives[0].Name)
		assert.Equal(t, "Summer Fest", lives[len(lives)-1].Name)
	})

	t.Run("unknown key falls back to newest first", func(t *testing.T) {
		lives, err := store.ListLives(ctx, ListOptions{SortKey: "liveDate; DROP TABLE lives", SortOrder: SortAsc})
		require.NoError(t, err)
		assert.Equal(t, "Summer Fest", lives[0].Name)

		count, err := store.CountLives(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})
}

func TestEmptyStringsReadBackEmpty(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id := mustCreateLive(t, store, &Live{Name: "Bare", Date: "2024-01-01", VenueName: "  "})

	var venueIsNull bool
	err := store.db.QueryRow("SELECT venueName IS NULL FROM lives WHERE id = ?", id).Scan(&venueIsNull)
	require.NoError(t, err)
	assert.True(t, venueIsNull, "blank venue should be stored as NULL")

	live, err := store.GetLive(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "", live.VenueName)
	assert.Equal(t, "", live.ArtistName)
	assert.Equal(t, 0, live.Rating)
}

func TestTagsAreNormalizedOnWrite(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id := mustCreateLive(t, store, &Live{Name: "Show", Date: "2024-01-01", Tags: " rock , , pop "})

	live, err := store.GetLive(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "rock,pop", live.Tags)
}

func TestDistinctValues(t *testing.T) {
	store := openTestStore(t)
	seedLives(t, store)
	mustCreateLive(t, store, &Live{Name: "Encore", Date: "2024-09-09", ArtistName: "Caribou", VenueName: "Liquidroom", Tags: "pop,indie"})
	ctx := context.Background()

	artists, err := store.DistinctArtists(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Aurora", "Aurora Borealis", "Autechre", "bonobo", "Caribou"}, artists)

	venues, err := store.DistinctVenues(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Budokan", "Budokan Annex", "Fuji Rock", "Liquidroom", "O-East"}, venues)

	tags, err := store.DistinctTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"festival", "indie", "pop", "ro", "rock", "rockpop"}, tags)
}

func TestDistinctValuesOnEmptyJournal(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	artists, err := store.DistinctArtists(ctx)
	require.NoError(t, err)
	assert.NotNil(t, artists)
	assert.Empty(t, artists)

	tags, err := store.DistinctTags(ctx)
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}

func TestLivesByVenueIsExact(t *testing.T) {
	store := openTestStore(t)
	seedLives(t, store)

	lives, err := store.LivesByVenue(context.Background(), "Budokan")
	require.NoError(t, err)
	assert.Equal(t, []string{"Spring Tour"}, names(lives))
}

func TestLivesInMonth(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	mustCreateLive(t, store, &Live{Name: "Late", Date: "2024-03-30"})
	mustCreateLive(t, store, &Live{Name: "Early", Date: "2024-03-01"})
	mustCreateLive(t, store, &Live{Name: "Next Month", Date: "2024-04-01"})
	mustCreateLive(t, store, &Live{Name: "Last Year", Date: "2023-03-15"})

	lives, err := store.LivesInMonth(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Early", "Late"}, names(lives))

	lives, err = store.LivesInMonth(ctx, 2024, 5)
	require.NoError(t, err)
	assert.Empty(t, lives)
}

func TestSongsByArtist(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := mustCreateLive(t, store, &Live{Name: "One", Date: "2024-01-01", ArtistName: "Band"})
	second := mustCreateLive(t, store, &Live{Name: "Two", Date: "2024-02-01", ArtistName: "Band"})
	other := mustCreateLive(t, store, &Live{Name: "Three", Date: "2024-03-01", ArtistName: "Other"})

	require.NoError(t, store.ReplaceSetlist(ctx, first, []SetlistEntry{
		{SongName: "MAIN", Type: ItemHeader}, {SongName: "beta"}, {SongName: "Alpha"},
	}))
	require.NoError(t, store.ReplaceSetlist(ctx, second, []SetlistEntry{{SongName: "Alpha"}, {SongName: "Gamma"}}))
	require.NoError(t, store.ReplaceSetlist(ctx, other, []SetlistEntry{{SongName: "Delta"}}))

	songs, err := store.SongsByArtist(ctx, "Band")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "beta", "Gamma"}, songs)

	songs, err = store.SongsByArtist(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, songs)
}

func TestListLivesSearchFoldsNonASCIICase(t *testing.T) {
	store := openTestStore(t)
	mustCreateLive(t, store, &Live{Name: "Zeitgeist", Date: "2024-05-01", ArtistName: "Die Ärzte", VenueName: "Olympiastadion"})
	mustCreateLive(t, store, &Live{Name: "Takk", Date: "2024-06-01", ArtistName: "Sigur Rós", VenueName: "ÉCLAT Hall"})

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"search lower matches upper umlaut", ListOptions{Search: "ärzte"}, []string{"Zeitgeist"}},
		{"search upper matches lower accent", ListOptions{Search: "RÓS"}, []string{"Takk"}},
		{"artist substring", ListOptions{Artist: "DIE Ä"}, []string{"Zeitgeist"}},
		{"venue substring", ListOptions{Venue: "éclat"}, []string{"Takk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lives, err := store.ListLives(context.Background(), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(lives))
		})
	}
}
