package gridmesh

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/cdlod-grid/internal/engine/gpu"
	"github.com/Faultbox/cdlod-grid/internal/logger"
)

// Geometry is the CPU side of a grid chunk. It is immutable once built and
// kept for the chunk's lifetime so buffers can be re-uploaded after a lost
// context without regenerating anything.
type Geometry struct {
	VertexDim   int
	Positions   []float32 // x,z per vertex
	Barycentric []int16   // 3 per vertex
	Indices     []uint32
	Layout      Layout
}

// BuildGeometry generates positions, barycentric tags and the partitioned
// index buffer for a vertexDim×vertexDim grid.
func BuildGeometry(vertexDim int) (*Geometry, error) {
	indices, layout, err := BuildIndices(vertexDim)
	if err != nil {
		return nil, err
	}
	positions, err := BuildPositions(vertexDim)
	if err != nil {
		return nil, err
	}
	bary, err := BuildBarycentric(vertexDim)
	if err != nil {
		return nil, err
	}
	return &Geometry{
		VertexDim:   vertexDim,
		Positions:   positions,
		Barycentric: bary,
		Indices:     indices,
		Layout:      layout,
	}, nil
}

// QuadDim returns the number of grid cells per side.
func (g *Geometry) QuadDim() int {
	return g.VertexDim - 1
}

// VertexCount returns the number of grid vertices.
func (g *Geometry) VertexCount() int {
	return g.VertexDim * g.VertexDim
}

// Chunk is a grid mesh with its GPU buffers. One chunk serves every terrain
// node of the same vertex dimension; nodes differ only in per-draw uniforms
// or instance data supplied by the caller.
//
// A chunk must only be used from the thread owning the GPU context.
type Chunk struct {
	geom    *Geometry
	dev     gpu.Device
	counter DrawCounter

	// GPU buffers: 0 - index, 1 - grid positions, 2 - barycentric tags.
	buffers  [3]gpu.Buffer
	uploaded bool
}

const (
	bufIndex = iota
	bufPosition
	bufBarycentric
)

// New builds the geometry for vertexDim and returns a chunk that will upload
// through dev and report each draw to counter. counter may be nil.
// Buffers are not created until UploadIfNeeded.
func New(vertexDim int, dev gpu.Device, counter DrawCounter) (*Chunk, error) {
	if dev == nil {
		return nil, fmt.Errorf("%w: nil device", ErrInvalidArgument)
	}
	geom, err := BuildGeometry(vertexDim)
	if err != nil {
		return nil, fmt.Errorf("grid %d: %w", vertexDim, err)
	}
	if counter == nil {
		counter = nopCounter{}
	}

	logger.Named("gridmesh").Debug("grid geometry built",
		zap.Int("vertexDim", vertexDim),
		zap.Int("vertices", geom.VertexCount()),
		zap.Int("indices", geom.Layout.ElementCount),
		zap.Ints("quadrantByteOffsets", geom.Layout.QuadrantByteOffsets[:]),
	)

	return &Chunk{geom: geom, dev: dev, counter: counter}, nil
}

// Geometry returns the chunk's CPU-side arrays. Callers must not modify them.
func (c *Chunk) Geometry() *Geometry {
	return c.geom
}

// VertexDim returns the grid size in vertices per side.
func (c *Chunk) VertexDim() int {
	return c.geom.VertexDim
}

// Layout returns the quadrant layout of the index buffer.
func (c *Chunk) Layout() Layout {
	return c.geom.Layout
}

// Uploaded reports whether the GPU buffers are valid.
func (c *Chunk) Uploaded() bool {
	return c.uploaded
}

// UploadIfNeeded creates the index, position and barycentric buffers when
// they are not valid. It does nothing when they already are. On failure
// buffers created in this attempt are released and the chunk stays
// invalid.
func (c *Chunk) UploadIfNeeded() error {
	if c.uploaded {
		return nil
	}

	uploads := [3]struct {
		target gpu.BufferTarget
		data   []byte
	}{
		bufIndex:       {gpu.ElementArrayBuffer, gpu.Bytes(c.geom.Indices)},
		bufPosition:    {gpu.ArrayBuffer, gpu.Bytes(c.geom.Positions)},
		bufBarycentric: {gpu.ArrayBuffer, gpu.Bytes(c.geom.Barycentric)},
	}

	var created [3]gpu.Buffer
	for i, u := range uploads {
		b, err := c.dev.CreateBuffer(u.target, u.data)
		if err != nil {
			for _, prev := range created[:i] {
				c.dev.DeleteBuffer(prev)
			}
			return fmt.Errorf("upload grid %d buffer %d: %w", c.geom.VertexDim, i, err)
		}
		created[i] = b
	}

	c.buffers = created
	c.uploaded = true

	logger.Named("gridmesh").Debug("grid buffers uploaded",
		zap.Int("vertexDim", c.geom.VertexDim),
		zap.Uint32("index", uint32(created[bufIndex])),
		zap.Uint32("position", uint32(created[bufPosition])),
		zap.Uint32("barycentric", uint32(created[bufBarycentric])),
	)
	return nil
}

// Invalidate marks the GPU buffers as lost. The handles are dropped without
// being deleted since they died with the context; CPU arrays are kept.
func (c *Chunk) Invalidate() {
	c.uploaded = false
	c.buffers = [3]gpu.Buffer{}
}

// Destroy deletes live GPU buffers. The chunk can be uploaded again.
func (c *Chunk) Destroy() {
	if c.uploaded {
		for _, b := range c.buffers {
			c.dev.DeleteBuffer(b)
		}
	}
	c.Invalidate()
}

// BindAttributes binds the grid position and barycentric streams to the
// program's attribute locations and binds the index buffer. The
// barycentric stream is skipped for depth-only passes. Attributes the
// program does not use are skipped.
func (c *Chunk) BindAttributes(program AttribLocator, shadowPass bool) error {
	if !c.uploaded {
		return fmt.Errorf("bind grid %d: %w", c.geom.VertexDim, ErrNotUploaded)
	}
	if program == nil {
		return fmt.Errorf("bind grid %d: %w: nil program", c.geom.VertexDim, ErrInvalidArgument)
	}

	if loc := program.AttribLocation(AttribGridPosition); loc != gpu.InvalidLocation {
		c.dev.BindBuffer(gpu.ArrayBuffer, c.buffers[bufPosition])
		c.dev.VertexAttrib(gpu.Attrib{Location: uint32(loc), Components: 2, Type: gpu.Float32})
	}

	if !shadowPass {
		if loc := program.AttribLocation(AttribBarycentric); loc != gpu.InvalidLocation {
			c.dev.BindBuffer(gpu.ArrayBuffer, c.buffers[bufBarycentric])
			c.dev.VertexAttrib(gpu.Attrib{Location: uint32(loc), Components: 3, Type: gpu.Int16})
		}
	}

	c.dev.BindBuffer(gpu.ArrayBuffer, 0)
	c.dev.BindBuffer(gpu.ElementArrayBuffer, c.buffers[bufIndex])
	return nil
}

// DrawSelection draws the quadrants chosen by mask, merging runs of
// consecutive selected quadrants into single draws, and returns how many
// draws were submitted. instances > 1 draws that many instances per call.
//
// Draws read the index buffer currently bound on the device. The chunk's
// own BindAttributes must be the last bind before drawing it; after binding
// another chunk the offsets would index that chunk's buffer.
func (c *Chunk) DrawSelection(mask SelectionMask, instances int) (int, error) {
	if err := c.checkDraw(instances); err != nil {
		return 0, err
	}

	issued := 0
	for _, r := range Plan(mask, c.geom.Layout) {
		if err := c.submit(r.ByteOffset, r.Count, instances); err != nil {
			return issued, fmt.Errorf("draw %s of grid %d: %w", mask, c.geom.VertexDim, err)
		}
		issued++
	}
	return issued, nil
}

// DrawWhole draws the entire grid in one call. See DrawSelection for the
// binding requirement.
func (c *Chunk) DrawWhole(instances int) error {
	_, err := c.DrawSelection(WholeMask(), instances)
	return err
}

// DrawQuadrant draws a single quadrant block. Every block has the same
// topology, so drawing BottomLeft instanced with per-instance offsets is a
// half-size grid.
func (c *Chunk) DrawQuadrant(q Quadrant, instances int) error {
	if !q.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, q)
	}
	_, err := c.DrawSelection(MaskOf(q), instances)
	return err
}

func (c *Chunk) checkDraw(instances int) error {
	if !c.uploaded {
		return fmt.Errorf("draw grid %d: %w", c.geom.VertexDim, ErrNotUploaded)
	}
	if instances < 1 {
		return fmt.Errorf("draw grid %d: %w: instance count %d < 1", c.geom.VertexDim, ErrInvalidArgument, instances)
	}
	return nil
}

func (c *Chunk) submit(byteOffset, count, instances int) error {
	if err := c.dev.DrawTriangles(int32(count), byteOffset, int32(instances)); err != nil {
		return err
	}
	c.counter.CountDrawCall()
	return nil
}
