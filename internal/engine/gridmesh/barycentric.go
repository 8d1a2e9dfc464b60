package gridmesh

import "fmt"

// Role is the triangle-corner class of a vertex. Every triangle emitted by
// BuildIndices has exactly one vertex of each role, so a fragment shader
// can find triangle edges from the interpolated tag alone.
type Role int

const (
	RoleA Role = iota // tagged (0,1,0)
	RoleB             // tagged (1,0,0)
	RoleC             // tagged (0,0,1)
)

// Tag returns the barycentric triple for r.
func (r Role) Tag() [3]int16 {
	switch r {
	case RoleA:
		return [3]int16{0, 1, 0}
	case RoleB:
		return [3]int16{1, 0, 0}
	default:
		return [3]int16{0, 0, 1}
	}
}

// RoleOf returns the role of the vertex at column x, row z.
// It is the closed form of the row walk in BuildBarycentric.
func RoleOf(x, z int) Role {
	return Role((x + 2*z) % 3)
}

// BuildBarycentric returns three int16 components per vertex, row-major.
//
// The role advances by one per vertex along a row; each new row starts two
// roles further than the previous row did. With the diagonal used by
// BuildIndices that keeps all three roles on every triangle regardless of
// row parity.
func BuildBarycentric(vertexDim int) ([]int16, error) {
	if vertexDim < 1 {
		return nil, fmt.Errorf("%w: vertexDim %d < 1", ErrInvalidArgument, vertexDim)
	}

	tags := make([]int16, 0, vertexDim*vertexDim*3)
	rowStart := 0
	for z := 0; z < vertexDim; z++ {
		next := rowStart
		for x := 0; x < vertexDim; x++ {
			t := Role(next).Tag()
			tags = append(tags, t[0], t[1], t[2])
			next = (next + 1) % 3
		}
		rowStart = (rowStart + 2) % 3
	}
	return tags, nil
}
