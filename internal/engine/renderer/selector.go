package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/cdlod-grid/internal/engine/gridmesh"
)

// Node is a square terrain patch in the XZ plane.
type Node struct {
	Origin mgl32.Vec2 // bottom-left corner
	Size   float32
}

// DrawItem is one chunk draw produced by the selector.
type DrawItem struct {
	Node      Node
	VertexDim int
	Mask      gridmesh.SelectionMask
}

// quadrantOffsets places each quadrant inside its node, in units of half
// the node size. Bottom is -Z in grid space, so rows grow along +Z.
var quadrantOffsets = [4]mgl32.Vec2{
	gridmesh.BottomLeft:  {0, 0},
	gridmesh.BottomRight: {1, 0},
	gridmesh.TopLeft:     {0, 1},
	gridmesh.TopRight:    {1, 1},
}

// BuildNodes lays out perSide×perSide nodes of the given size centred on
// the origin.
func BuildNodes(perSide int, size float32) []Node {
	if perSide <= 0 || size <= 0 {
		return nil
	}
	nodes := make([]Node, 0, perSide*perSide)
	start := -float32(perSide) * size / 2
	for z := 0; z < perSide; z++ {
		for x := 0; x < perSide; x++ {
			nodes = append(nodes, Node{
				Origin: mgl32.Vec2{start + float32(x)*size, start + float32(z)*size},
				Size:   size,
			})
		}
	}
	return nodes
}

// Quadrant returns the child node covering quadrant q.
func (n Node) Quadrant(q gridmesh.Quadrant) Node {
	half := n.Size / 2
	return Node{
		Origin: n.Origin.Add(quadrantOffsets[q].Mul(half)),
		Size:   half,
	}
}

// Center returns the node centre in the XZ plane.
func (n Node) Center() mgl32.Vec2 {
	return n.Origin.Add(mgl32.Vec2{n.Size / 2, n.Size / 2})
}

// Selector is a two-level stand-in for a quadtree LOD selector. Quadrants
// whose centre is within Distance node sizes of the eye are handed to a
// finer chunk; the rest are drawn from the coarse chunk through one mask.
type Selector struct {
	Distance float32
	Coarse   int
	Fine     int
}

// NewSelector picks the coarsest and finest of dims.
func NewSelector(distance float32, dims []int) Selector {
	s := Selector{Distance: distance}
	for i, d := range dims {
		if i == 0 || d < s.Coarse {
			s.Coarse = d
		}
		if i == 0 || d > s.Fine {
			s.Fine = d
		}
	}
	return s
}

// Select appends the draws for nodes seen from eye to dst.
func (s Selector) Select(dst []DrawItem, nodes []Node, eye mgl32.Vec3) []DrawItem {
	eyeXZ := mgl32.Vec2{eye.X(), eye.Z()}
	for _, n := range nodes {
		var mask gridmesh.SelectionMask
		near := 0
		for q := gridmesh.BottomLeft; q <= gridmesh.TopRight; q++ {
			child := n.Quadrant(q)
			if child.Center().Sub(eyeXZ).Len() < s.Distance*n.Size {
				dst = append(dst, DrawItem{Node: child, VertexDim: s.Fine, Mask: gridmesh.WholeMask()})
				near++
				continue
			}
			mask[q] = true
		}
		switch near {
		case 0:
			dst = append(dst, DrawItem{Node: n, VertexDim: s.Coarse, Mask: gridmesh.WholeMask()})
		case 4:
		default:
			dst = append(dst, DrawItem{Node: n, VertexDim: s.Coarse, Mask: mask})
		}
	}
	return dst
}
