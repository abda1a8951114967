// Package pagination holds the keyset cursor rule shared by every single-item listing.
//
// A listing has a natural display order over ids. "next" always moves forward in
// display order and "prev" backward, so for a descending listing "next" means a
// strictly smaller id.
package pagination

import "fmt"

// Direction is the step requested by the caller
type Direction string

// Directions
const (
	First Direction = "first"
	Next  Direction = "next"
	Prev  Direction = "prev"
)

// ParseDirection validates a raw direction
func ParseDirection(raw string) (Direction, error) {
	switch d := Direction(raw); d {
	case First, Next, Prev:
		return d, nil
	default:
		return "", fmt.Errorf("unknown pagination direction %q", raw)
	}
}

// Order is the natural display order of a listing
type Order int

// Orders
const (
	Ascending Order = iota
	Descending
)

// Bound is the SQL shape of one step: compare id against the anchor with
// Comparator (empty for First) and sort by id in Sort, taking one row.
type Bound struct {
	Comparator string
	Sort       string
}

// BoundFor returns the bound for a step over a listing in the given order
func BoundFor(order Order, dir Direction) Bound {
	forward := dir != Prev
	ascending := order == Ascending
	if !forward {
		ascending = !ascending
	}

	b := Bound{Sort: "ASC", Comparator: ">"}
	if !ascending {
		b = Bound{Sort: "DESC", Comparator: "<"}
	}
	if dir == First {
		b.Comparator = ""
	}
	return b
}

// Page is an offset page for listings that are not id-keyed
type Page struct {
	Number int
	Size   int
	Total  int
}

// Offset returns the row offset of the page
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Pages returns the number of pages needed for Total rows
func (p Page) Pages() int {
	if p.Size <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.Size - 1) / p.Size
}

// HasPrev reports whether a page precedes this one
func (p Page) HasPrev() bool {
	return p.Number > 1
}

// HasNext reports whether a page follows this one
func (p Page) HasNext() bool {
	return p.Number < p.Pages()
}
