package store

import (
	"strings"

	"github.com/franz/livelog/internal/util"
	"golang.org/x/text/unicode/norm"
)

// SortKey names a column the live list can be ordered by
type SortKey string

const (
	SortByDate   SortKey = "liveDate"
	SortByArtist SortKey = "artistName"
	SortByRating SortKey = "rating"
	SortByVenue  SortKey = "venueName"
)

// SortOrder is ASC or DESC
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// ListOptions filters and orders ListLives. Zero values mean "no filter".
type ListOptions struct {
	Search    string    `json:"searchQuery,omitempty"` // name, artist, venue or tags contain it
	Artist    string    `json:"artist,omitempty"`      // exact or substring
	Venue     string    `json:"venue,omitempty"`       // substring
	Year      string    `json:"year,omitempty"`        // YYYY
	MinRating int       `json:"minRating,omitempty"`
	Tag       string    `json:"tag,omitempty"` // whole-token membership
	SortKey   SortKey   `json:"sortKey,omitempty"`
	SortOrder SortOrder `json:"sortOrder,omitempty"`
}

// sortColumns is the allow-list of ORDER BY expressions
var sortColumns = map[SortKey]string{
	SortByDate:   "liveDate",
	SortByArtist: "COALESCE(artistName, '') COLLATE " + CollationName,
	SortByRating: "COALESCE(rating, 0)",
	SortByVenue:  "COALESCE(venueName, '') COLLATE " + CollationName,
}

// tagHaystack wraps the stored tag string in delimiters, tolerating
// legacy rows written with a space after the comma.
const tagHaystack = "(',' || REPLACE(REPLACE(COALESCE(tags, ''), ', ', ','), ' ,', ',') || ',')"

// predicate is one parameterized WHERE condition
type predicate struct {
	expr string
	args []interface{}
}

// queryBuilder folds predicates and an ORDER BY into a SELECT
type queryBuilder struct {
	base       string
	predicates []predicate
	orderBy    string
}

func newQueryBuilder(base string) *queryBuilder {
	return &queryBuilder{base: base}
}

func (b *queryBuilder) where(expr string, args ...interface{}) *queryBuilder {
	b.predicates = append(b.predicates, predicate{expr: expr, args: args})
	return b
}

func (b *queryBuilder) order(expr string) *queryBuilder {
	b.orderBy = expr
	return b
}

func (b *queryBuilder) build() (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(b.base)

	var args []interface{}
	if len(b.predicates) > 0 {
		exprs := make([]string, len(b.predicates))
		for i, p := range b.predicates {
			exprs[i] = p.expr
			args = append(args, p.args...)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(exprs, " AND "))
	}

	if b.orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.orderBy)
	}

	return sb.String(), args
}

// likePattern escapes LIKE wildcards in s and wraps it in %...%
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func cleanInput(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// folded wraps a column in the case-folding SQL function
func folded(column string) string {
	return FoldFunction + "(" + column + ")"
}

// buildListQuery turns ListOptions into SQL and bound arguments
func buildListQuery(opts ListOptions) (string, []interface{}) {
	b := newQueryBuilder("SELECT " + liveColumns + " FROM lives")

	if q := cleanInput(opts.Search); q != "" {
		p := likePattern(FoldText(q))
		b.where(`(`+folded("liveName")+` LIKE ? ESCAPE '\' OR `+folded("artistName")+` LIKE ? ESCAPE '\' OR `+
			folded("venueName")+` LIKE ? ESCAPE '\' OR `+folded("tags")+` LIKE ? ESCAPE '\')`,
			p, p, p, p)
	}

	if artist := cleanInput(opts.Artist); artist != "" {
		b.where(`(artistName = ? OR `+folded("artistName")+` LIKE ? ESCAPE '\')`, artist, likePattern(FoldText(artist)))
	}

	if venue := cleanInput(opts.Venue); venue != "" {
		b.where(folded("venueName")+` LIKE ? ESCAPE '\'`, likePattern(FoldText(venue)))
	}

	if year := strings.TrimSpace(opts.Year); year != "" {
		b.where(`strftime('%Y', liveDate) = ?`, year)
	}

	if opts.MinRating > 0 {
		b.where(`COALESCE(rating, 0) >= ?`, clampRating(opts.MinRating))
	}

	if tag := cleanInput(opts.Tag); tag != "" {
		b.where(tagHaystack+` LIKE ? ESCAPE '\'`, likePattern(tagDelimiter+tag+tagDelimiter))
	}

	b.order(orderClause(opts.SortKey, opts.SortOrder))
	return b.build()
}

// orderClause resolves a sort key through the allow-list; anything unknown
// falls back to newest first.
func orderClause(key SortKey, order SortOrder) string {
	if key == "" {
		key = SortByDate
	}
	col, ok := sortColumns[key]
	if !ok {
		util.WarnLog("Unknown sort key %q, sorting by date", key)
		return sortColumns[SortByDate] + " DESC, id DESC"
	}

	dir := SortOrder(strings.ToUpper(string(order)))
	switch dir {
	case SortAsc, SortDesc:
	case "":
		dir = SortDesc
	default:
		util.WarnLog("Unknown sort order %q, using DESC", order)
		dir = SortDesc
	}

	clause := col + " " + string(dir)
	if key != SortByDate {
		clause += ", liveDate DESC"
	}
	return clause + ", id DESC"
}
