package skin

// ShelfAllocator implements shelf-based rectangle packing for one atlas page.
//
// Rectangles are placed left to right on horizontal shelves. A shelf is as
// tall as the tallest item placed on it; when no shelf has room a new one is
// opened below the last. Padding separates neighbours but is not required
// after the last item on a shelf or below the last shelf.
type ShelfAllocator struct {
	width   int
	height  int
	padding int
	shelves []shelf
}

type shelf struct {
	y      int // top of the shelf
	height int // tallest item so far
	x      int // next free x
}

// NewShelfAllocator creates an allocator for a width x height page.
func NewShelfAllocator(width, height, padding int) *ShelfAllocator {
	return &ShelfAllocator{
		width:   width,
		height:  height,
		padding: padding,
		shelves: make([]shelf, 0, 16),
	}
}

// Allocate finds space for a w x h rectangle. It returns the top-left corner
// and true, or -1, -1, false when the page has no room.
//
// Existing shelves are tried first, in order. The last shelf may grow
// taller if the page has room below it; otherwise a new shelf is opened.
func (a *ShelfAllocator) Allocate(w, h int) (x, y int, ok bool) {
	if w <= 0 || h <= 0 || w > a.width || h > a.height {
		return -1, -1, false
	}

	for i := range a.shelves {
		s := &a.shelves[i]
		if s.x+w > a.width {
			continue
		}
		if h > s.height {
			if i != len(a.shelves)-1 || s.y+h > a.height {
				continue
			}
			s.height = h
		}
		x, y = s.x, s.y
		s.x += w + a.padding
		return x, y, true
	}

	newY := 0
	if n := len(a.shelves); n > 0 {
		last := a.shelves[n-1]
		newY = last.y + last.height + a.padding
	}
	if newY+h > a.height {
		return -1, -1, false
	}
	a.shelves = append(a.shelves, shelf{y: newY, height: h, x: w + a.padding})
	return 0, newY, true
}
