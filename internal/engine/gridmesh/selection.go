package gridmesh

import "strings"

// Slot indices into a SelectionMask.
const (
	SlotBottomLeft  = int(BottomLeft)
	SlotBottomRight = int(BottomRight)
	SlotTopLeft     = int(TopLeft)
	SlotTopRight    = int(TopRight)
	SlotWhole       = 4
)

// SelectionMask chooses what to draw for one chunk in one frame:
// [bottomLeft, bottomRight, topLeft, topRight, whole]. When whole is set
// the quadrant slots are ignored.
type SelectionMask [5]bool

// WholeMask selects the entire chunk.
func WholeMask() SelectionMask {
	var m SelectionMask
	m[SlotWhole] = true
	return m
}

// MaskOf selects the given quadrants.
func MaskOf(qs ...Quadrant) SelectionMask {
	var m SelectionMask
	for _, q := range qs {
		if q.Valid() {
			m[q] = true
		}
	}
	return m
}

// Whole reports whether the whole chunk is selected.
func (m SelectionMask) Whole() bool {
	return m[SlotWhole]
}

// Has reports whether quadrant q is selected.
func (m SelectionMask) Has(q Quadrant) bool {
	return q.Valid() && m[q]
}

// Empty reports whether nothing is selected.
func (m SelectionMask) Empty() bool {
	for _, s := range m {
		if s {
			return false
		}
	}
	return true
}

func (m SelectionMask) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, s := range m {
		if i > 0 {
			b.WriteByte(' ')
		}
		if s {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	b.WriteByte(']')
	return b.String()
}

// DrawRange is one indexed draw over the chunk's index buffer.
type DrawRange struct {
	ByteOffset int
	Count      int
	// First and Quadrants describe the merged run; Quadrants is 4 for a
	// whole-chunk draw.
	First     Quadrant
	Quadrants int
}

// Plan turns a selection into the fewest draws that cover exactly the
// selected quadrants. Consecutive selected slots are merged because their
// blocks are contiguous in the index buffer; the merge follows buffer order
// (bottom-right and top-left merge even though they do not share an edge).
// Only slots 0..3 take part in runs.
func Plan(mask SelectionMask, layout Layout) []DrawRange {
	if mask.Whole() {
		return []DrawRange{{
			ByteOffset: 0,
			Count:      layout.ElementCount,
			First:      BottomLeft,
			Quadrants:  numQuadrants,
		}}
	}

	var draws []DrawRange
	for q := 0; q < numQuadrants; q++ {
		if !mask[q] {
			continue
		}
		end := q + 1
		for end < numQuadrants && mask[end] {
			end++
		}
		offset, count := layout.Span(Quadrant(q), end-q)
		draws = append(draws, DrawRange{
			ByteOffset: offset,
			Count:      count,
			First:      Quadrant(q),
			Quadrants:  end - q,
		})
		q = end - 1
	}
	return draws
}
