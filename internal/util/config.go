package util

import "github.com/spf13/viper"

const (
	// DefaultRankingLimit is the number of rows shown in artist/venue rankings
	DefaultRankingLimit = 5
)

// GetRankingLimit returns the configured ranking display limit.
// Song rankings show twice this many rows.
func GetRankingLimit() int {
	limit := viper.GetInt("ranking_limit")
	if limit <= 0 {
		return DefaultRankingLimit
	}
	return limit
}

// GetSongRankingLimit returns the limit used for song rankings
func GetSongRankingLimit() int {
	return GetRankingLimit() * 2
}
