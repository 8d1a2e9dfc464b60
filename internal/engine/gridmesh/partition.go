package gridmesh

import "fmt"

// Layout records where each quadrant block lives in the index buffer.
type Layout struct {
	// QuadrantByteOffsets holds the byte offset of each block, indexed by Quadrant.
	QuadrantByteOffsets [numQuadrants]int
	// QuadrantElementCount is the index count of one block; all four are equal.
	QuadrantElementCount int
	// ElementCount is the index count of the whole buffer.
	ElementCount int
}

// Span returns the byte offset and element count of the block run starting
// at quadrant first and covering n consecutive blocks.
func (l Layout) Span(first Quadrant, n int) (byteOffset, count int) {
	return l.QuadrantByteOffsets[first], l.QuadrantElementCount * n
}

// ValidateDim checks that vertexDim describes a grid the partitioner can
// split into four equal quadrants: vertexDim-1 must be even and at least 2.
func ValidateDim(vertexDim int) error {
	if vertexDim < 1 {
		return fmt.Errorf("%w: vertexDim %d < 1", ErrInvalidArgument, vertexDim)
	}
	quadDim := vertexDim - 1
	if quadDim < 2 || quadDim%2 != 0 {
		return fmt.Errorf("%w: vertexDim %d gives %d quads per side, need an even count >= 2", ErrInvalidConfig, vertexDim, quadDim)
	}
	return nil
}

// BuildIndices returns the triangle list of the grid as four contiguous
// quadrant blocks in Quadrant order, together with their layout.
//
// Each cell with lower-left vertex s is split along the s+1 .. s+N diagonal:
//
//	s+N *-----* s+N+1
//	    |   / |
//	    | /   |
//	  s *-----* s+1
func BuildIndices(vertexDim int) ([]uint32, Layout, error) {
	if err := ValidateDim(vertexDim); err != nil {
		return nil, Layout{}, err
	}

	full := vertexDim - 1
	half := full / 2
	total := 6 * full * full

	regions := [numQuadrants]struct{ rows, cols [2]int }{
		BottomLeft:  {rows: [2]int{0, half}, cols: [2]int{0, half}},
		BottomRight: {rows: [2]int{0, half}, cols: [2]int{half, full}},
		TopLeft:     {rows: [2]int{half, full}, cols: [2]int{0, half}},
		TopRight:    {rows: [2]int{half, full}, cols: [2]int{half, full}},
	}

	indices := make([]uint32, 0, total)
	var layout Layout
	stride := full + 1

	for q, r := range regions {
		layout.QuadrantByteOffsets[q] = len(indices) * IndexSize
		for row := r.rows[0]; row < r.rows[1]; row++ {
			for col := r.cols[0]; col < r.cols[1]; col++ {
				start := uint32(stride*row + col)
				up := start + uint32(stride)
				indices = append(indices,
					start, up, start+1,
					up, up+1, start+1,
				)
			}
		}
	}

	layout.ElementCount = len(indices)
	layout.QuadrantElementCount = len(indices) / numQuadrants
	return indices, layout, nil
}
