// Package gridmesh builds the shared N×N vertex grid used by terrain chunks
// and draws any selection of its four quadrants.
//
// The index buffer is laid out as four contiguous quadrant blocks
// [bottomLeft|bottomRight|topLeft|topRight], so the whole grid or any run
// of consecutive quadrants is a single indexed draw without extra index
// buffers.
package gridmesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/cdlod-grid/internal/engine/gpu"
)

var (
	// ErrInvalidArgument is returned for arguments outside an operation's domain.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidConfig is returned for grid sizes that cannot be split into
	// four equal quadrants.
	ErrInvalidConfig = errors.New("invalid grid configuration")
	// ErrNotUploaded is returned when binding or drawing a chunk whose GPU
	// buffers are not valid.
	ErrNotUploaded = errors.New("grid buffers not uploaded")
	// ErrGPU wraps failures reported by the GPU device.
	ErrGPU = gpu.ErrGPU
)

// Attribute names looked up on the active program.
const (
	AttribGridPosition = "gridPosition"
	AttribBarycentric  = "barycentric"
)

// IndexSize is the byte size of one index element (uint32).
const IndexSize = 4

// Quadrant identifies one quarter of the grid. The order matches both the
// index buffer layout and the selection mask slots.
type Quadrant int

const (
	BottomLeft Quadrant = iota
	BottomRight
	TopLeft
	TopRight

	numQuadrants = 4
)

func (q Quadrant) String() string {
	switch q {
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	default:
		return fmt.Sprintf("Quadrant(%d)", int(q))
	}
}

// Valid reports whether q names one of the four quadrants.
func (q Quadrant) Valid() bool {
	return q >= BottomLeft && q <= TopRight
}

// AttribLocator resolves vertex attribute locations on a shader program.
// Unused names return gpu.InvalidLocation.
type AttribLocator interface {
	AttribLocation(name string) int32
}

// DrawCounter receives one call per submitted draw.
type DrawCounter interface {
	CountDrawCall()
}

// nopCounter is used when no statistics collaborator is supplied.
type nopCounter struct{}

func (nopCounter) CountDrawCall() {}
