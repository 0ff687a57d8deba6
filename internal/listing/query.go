// Package listing owns the movie listing's query state: pagination, the
// two-level sort and the filters.  The state lives in the URL so listings
// are linkable, and a short-lived snapshot of it lets a returning visitor
// land on the page they left.
package listing

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// DefaultLimit is used whenever the requested page size is not allowed.
const DefaultLimit = 25

// AllowedLimits are the page sizes the listing offers.
var AllowedLimits = []int{10, 25, 50, 100}

// SortField is a column the listing can be ordered by.
type SortField string

const (
	SortRating SortField = "rating"
	SortTitle  SortField = "title"
)

// SortDir is an ordering direction.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// SortKey is one level of the sort.
type SortKey struct {
	Field SortField
	Dir   SortDir
}

// DefaultSort orders by rating (best first), then title.
var DefaultSort = [2]SortKey{{SortRating, Desc}, {SortTitle, Asc}}

// Filter narrows the listing.  Empty fields do not filter.
type Filter struct {
	Title    string
	Year     string
	Director string
	Star     string
	GenreID  string
	Initial  string
}

// IsZero reports whether no filter field is set.
func (f Filter) IsZero() bool { return f == Filter{} }

// Query is the complete listing state.  Limit is always one of
// AllowedLimits and Offset is a non-negative multiple of Limit.
type Query struct {
	Limit  int
	Offset int
	Sort   [2]SortKey
	Filter Filter
}

// Default is the state of a fresh, unfiltered listing.
func Default() Query {
	return Query{Limit: DefaultLimit, Sort: DefaultSort}
}

// URL parameter names.
const (
	paramLimit    = "limit"
	paramOffset   = "offset"
	paramOrder1   = "order1"
	paramDir1     = "dir1"
	paramOrder2   = "order2"
	paramDir2     = "dir2"
	paramTitle    = "title"
	paramYear     = "year"
	paramDirector = "director"
	paramStar     = "star"
	paramGenreID  = "genreId"
	paramInitial  = "initial"
)

var stateParams = []string{
	paramLimit, paramOffset, paramOrder1, paramDir1, paramOrder2, paramDir2,
	paramTitle, paramYear, paramDirector, paramStar, paramGenreID, paramInitial,
}

// HasState reports whether v carries any listing parameter at all.
func HasState(v url.Values) bool {
	for _, p := range stateParams {
		if _, ok := v[p]; ok {
			return true
		}
	}
	return false
}

// Parse reads a Query from URL parameters.  Absent parameters take their
// defaults; present ones are kept, except that an unknown limit falls back
// to DefaultLimit, unknown sort values fall back to the default for that
// level, and the offset is clamped to a non-negative multiple of the limit.
func Parse(v url.Values) Query {
	q := Query{
		Limit: CoerceLimit(atoi(v.Get(paramLimit), DefaultLimit)),
		Sort: [2]SortKey{
			{parseField(v.Get(paramOrder1), DefaultSort[0].Field), parseDir(v.Get(paramDir1), DefaultSort[0].Dir)},
			{parseField(v.Get(paramOrder2), DefaultSort[1].Field), parseDir(v.Get(paramDir2), DefaultSort[1].Dir)},
		},
		Filter: Filter{
			Title:    strings.TrimSpace(v.Get(paramTitle)),
			Year:     digits(v.Get(paramYear)),
			Director: strings.TrimSpace(v.Get(paramDirector)),
			Star:     strings.TrimSpace(v.Get(paramStar)),
			GenreID:  strings.TrimSpace(v.Get(paramGenreID)),
			Initial:  strings.TrimSpace(v.Get(paramInitial)),
		},
	}
	q.Offset = alignOffset(atoi(v.Get(paramOffset), 0), q.Limit)
	return q
}

// Values encodes q.  Pagination and sort parameters are always present;
// filter parameters only when set.  Parse(q.Values()) == q.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set(paramLimit, strconv.Itoa(q.Limit))
	v.Set(paramOffset, strconv.Itoa(q.Offset))
	v.Set(paramOrder1, string(q.Sort[0].Field))
	v.Set(paramDir1, string(q.Sort[0].Dir))
	v.Set(paramOrder2, string(q.Sort[1].Field))
	v.Set(paramDir2, string(q.Sort[1].Dir))
	setIf(v, paramTitle, q.Filter.Title)
	setIf(v, paramYear, q.Filter.Year)
	setIf(v, paramDirector, q.Filter.Director)
	setIf(v, paramStar, q.Filter.Star)
	setIf(v, paramGenreID, q.Filter.GenreID)
	setIf(v, paramInitial, q.Filter.Initial)
	return v
}

// Encode is the canonical query string of q.
func (q Query) Encode() string { return q.Values().Encode() }

// URL is the listing path for q.
func (q Query) URL() string { return "/movies?" + q.Encode() }

// Page is the 1-based page number.
func (q Query) Page() int { return q.Offset/q.Limit + 1 }

// WithLimit changes the page size and returns to the first page.
func (q Query) WithLimit(n int) Query {
	q.Limit = CoerceLimit(n)
	q.Offset = 0
	return q
}

// WithSort changes one sort level (0 or 1) and returns to the first page.
func (q Query) WithSort(level int, field SortField, dir SortDir) Query {
	if level < 0 || level > 1 {
		return q
	}
	q.Sort[level] = SortKey{
		Field: parseField(string(field), q.Sort[level].Field),
		Dir:   parseDir(string(dir), q.Sort[level].Dir),
	}
	q.Offset = 0
	return q
}

// WithFilter replaces the filter and returns to the first page.
func (q Query) WithFilter(f Filter) Query {
	f.Year = digits(f.Year)
	q.Filter = f
	q.Offset = 0
	return q
}

// Next advances one page.
func (q Query) Next() Query {
	q.Offset += q.Limit
	return q
}

// Prev goes back one page, never below the first.
func (q Query) Prev() Query {
	q.Offset = max(0, q.Offset-q.Limit)
	return q
}

// CoerceLimit maps n into AllowedLimits, falling back to DefaultLimit.
func CoerceLimit(n int) int {
	if slices.Contains(AllowedLimits, n) {
		return n
	}
	return DefaultLimit
}

func alignOffset(offset, limit int) int {
	if offset < 0 {
		return 0
	}
	return offset - offset%limit
}

func parseField(s string, def SortField) SortField {
	switch SortField(strings.ToLower(strings.TrimSpace(s))) {
	case SortRating:
		return SortRating
	case SortTitle:
		return SortTitle
	}
	return def
}

func parseDir(s string, def SortDir) SortDir {
	switch SortDir(strings.ToLower(strings.TrimSpace(s))) {
	case Asc:
		return Asc
	case Desc:
		return Desc
	}
	return def
}

func atoi(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func setIf(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}
