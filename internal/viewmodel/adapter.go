package viewmodel

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/iliyamo/movie-storefront/internal/model"
)

// Placeholder is shown when an optional metadata value is missing.
const Placeholder = "—"

// MovieCard maps a movie to a card.  Genres become genre chips linking to a
// genre-filtered listing and stars become star chips linking to the star
// page.  The rating block is set only when both the score and the vote
// count are present.
func MovieCard(m model.Movie, opts Options) Card {
	c := Card{
		ID:         m.ID,
		Size:       opts.size(),
		ClassName:  opts.ClassName,
		HeaderMain: m.Title,
		HeaderYear: m.Year,
		MetaLabel:  "Director:",
		MetaValue:  orPlaceholder(m.Director),
		Genres:     genreChips(m.Genres),
		Chips:      starChips(m.Stars),
	}
	if m.Rating != nil && m.VoteCount != nil {
		c.Rating = &Rating{Score: *m.Rating, Votes: *m.VoteCount}
	}
	return c
}

// StarCard maps a star to a card whose chips are the star's movies.
func StarCard(s model.Star, opts Options) Card {
	meta := Placeholder
	if s.BirthYear != nil {
		meta = strconv.Itoa(*s.BirthYear)
	}
	return Card{
		ID:         s.ID,
		Size:       opts.size(),
		ClassName:  opts.ClassName,
		HeaderMain: s.Name,
		MetaLabel:  "Birth year:",
		MetaValue:  meta,
		Genres:     []Chip{},
		Chips:      movieChips(s.Movies),
	}
}

// MovieCards maps a page of movies, preserving order.
func MovieCards(movies []model.Movie, opts Options) []Card {
	out := make([]Card, 0, len(movies))
	for _, m := range movies {
		out = append(out, MovieCard(m, opts))
	}
	return out
}

func genreChips(genres []model.GenreTag) []Chip {
	chips := newChipList(len(genres))
	for _, g := range genres {
		chips.add(Chip{
			Key:       "g-" + string(g.ID),
			Label:     g.Name,
			Type:      ChipGenre,
			To:        "/movies?genreId=" + url.QueryEscape(string(g.ID)),
			ClassName: "chip chip--genre",
		})
	}
	return chips.items
}

func starChips(stars []model.Star) []Chip {
	chips := newChipList(len(stars))
	for _, s := range stars {
		label := s.Name
		if s.TotalMovies != nil {
			label += " (" + strconv.Itoa(*s.TotalMovies) + ")"
		}
		chips.add(Chip{
			Key:       "s-" + s.ID,
			Label:     label,
			Type:      ChipStar,
			To:        "/stars/" + url.PathEscape(s.ID),
			ClassName: "chip chip--star",
		})
	}
	return chips.items
}

func movieChips(movies []model.Movie) []Chip {
	chips := newChipList(len(movies))
	for _, m := range movies {
		label := m.Title
		if m.Year != nil && *m.Year != 0 {
			label += " (" + strconv.Itoa(*m.Year) + ")"
		}
		chips.add(Chip{
			Key:       "m-" + m.ID,
			Label:     label,
			Type:      ChipMovie,
			To:        "/movies/" + url.PathEscape(m.ID),
			ClassName: "chip chip--movie",
		})
	}
	return chips.items
}

// chipList keeps keys unique; the first chip with a given key wins.
type chipList struct {
	items []Chip
	seen  map[string]struct{}
}

func newChipList(n int) *chipList {
	return &chipList{items: make([]Chip, 0, n), seen: make(map[string]struct{}, n)}
}

func (l *chipList) add(c Chip) {
	if _, dup := l.seen[c.Key]; dup {
		return
	}
	l.seen[c.Key] = struct{}{}
	l.items = append(l.items, c)
}

func orPlaceholder(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return Placeholder
	}
	return *s
}
