package gridmesh

import "fmt"

// BuildPositions returns the object-space (x, z) pairs of a vertexDim×vertexDim
// grid in row-major order: vertex v is at (v mod vertexDim, v / vertexDim).
// Height is applied later from a displacement source, so Y is implicit.
func BuildPositions(vertexDim int) ([]float32, error) {
	if vertexDim < 1 {
		return nil, fmt.Errorf("%w: vertexDim %d < 1", ErrInvalidArgument, vertexDim)
	}

	n := vertexDim * vertexDim
	positions := make([]float32, 0, n*2)
	for z := 0; z < vertexDim; z++ {
		for x := 0; x < vertexDim; x++ {
			positions = append(positions, float32(x), float32(z))
		}
	}
	return positions, nil
}
