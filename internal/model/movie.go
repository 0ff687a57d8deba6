package model

// Movie is a catalog entry as returned by the remote API.  Optional fields
// are pointers so that "absent" and "zero" stay distinguishable; the view
// model adapter relies on that to decide whether a rating block exists.
//
// Fields:
//  ID        – server-assigned identifier (e.g. tt0388951).
//  Title     – display title.
//  Year      – release year, nil when unknown.
//  Director  – director name, nil when unknown.
//  Rating    – average score, nil when the movie has no rating row.
//  VoteCount – number of votes behind Rating.
//  Genres    – genre tags attached to the movie.
//  Stars     – associated stars, possibly with their total movie count.
type Movie struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Year      *int       `json:"year,omitempty"`
	Director  *string    `json:"director,omitempty"`
	Rating    *float64   `json:"rating,omitempty"`
	VoteCount *int       `json:"vote_count,omitempty"`
	Genres    []GenreTag `json:"genres,omitempty"`
	Stars     []Star     `json:"stars,omitempty"`
}

// Star is a person credited in one or more movies.
type Star struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	BirthYear   *int    `json:"birth_year,omitempty"`
	Movies      []Movie `json:"movies,omitempty"`
	TotalMovies *int    `json:"total_movies,omitempty"`
}

// GenreTag identifies a genre.  It is used both as a filter value and as a
// display chip.
type GenreTag struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}
