// Package viewmodel converts catalog entities into the display-normalized
// card shape shared by the listing and detail pages.  Everything here is
// pure: no I/O, no errors, no panics on missing data.
package viewmodel

// Size hints how much of a card the page intends to show.
type Size string

const (
	Small Size = "small"
	Large Size = "large"
)

// ChipType classifies a chip by the entity it links to.
type ChipType string

const (
	ChipGenre ChipType = "genre"
	ChipStar  ChipType = "star"
	ChipMovie ChipType = "movie"
)

// Chip is a small clickable cross-reference rendered inside a card.  Key is
// unique within the list that holds the chip.
type Chip struct {
	Key       string
	Label     string
	Type      ChipType
	To        string
	ClassName string
}

// Rating is present on a card only when both score and votes are known.
type Rating struct {
	Score float64
	Votes int
}

// Card is the view model consumed by the card template.
type Card struct {
	ID        string
	Size      Size
	ClassName string

	HeaderMain string
	HeaderYear *int

	MetaLabel string
	MetaValue string

	Genres []Chip
	Chips  []Chip
	Rating *Rating
}

// Options tunes the produced card.  The zero value yields a small card.
type Options struct {
	Size      Size
	ClassName string
}

func (o Options) size() Size {
	if o.Size == "" {
		return Small
	}
	return o.Size
}
