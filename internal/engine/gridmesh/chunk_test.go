package gridmesh

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/Faultbox/cdlod-grid/internal/engine/gpu"
	"github.com/Faultbox/cdlod-grid/internal/engine/gpu/gputest"
)

var terrainAttribs = gputest.Locator{
	AttribGridPosition: 0,
	AttribBarycentric:  3,
}

func newUploaded(t *testing.T, dim int) (*Chunk, *gputest.Device, *gputest.Counter) {
	t.Helper()
	dev := gputest.New()
	counter := &gputest.Counter{}
	c, err := New(dim, dev, counter)
	if err != nil {
		t.Fatalf("New(%d): %v", dim, err)
	}
	if err := c.UploadIfNeeded(); err != nil {
		t.Fatalf("UploadIfNeeded: %v", err)
	}
	if err := c.BindAttributes(terrainAttribs, false); err != nil {
		t.Fatalf("BindAttributes: %v", err)
	}
	dev.Reset()
	return c, dev, counter
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		dim  int
		want error
	}{
		{dim: 0, want: ErrInvalidArgument},
		{dim: -5, want: ErrInvalidArgument},
		{dim: 2, want: ErrInvalidConfig},
		{dim: 6, want: ErrInvalidConfig},
	}
	for _, tt := range tests {
		c, err := New(tt.dim, gputest.New(), nil)
		if !errors.Is(err, tt.want) {
			t.Errorf("New(%d): got %v, want %v", tt.dim, err, tt.want)
		}
		if c != nil {
			t.Errorf("New(%d): expected no chunk on error", tt.dim)
		}
	}
}

func TestNewRequiresDevice(t *testing.T) {
	if _, err := New(5, nil, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for nil device, got %v", err)
	}
}

func TestChunkScenarioFiveByFive(t *testing.T) {
	c, err := New(5, gputest.New(), nil)
	if err != nil {
		t.Fatalf("New(5): %v", err)
	}
	g := c.Geometry()
	if g.QuadDim() != 4 {
		t.Errorf("quadDim: got %d, want 4", g.QuadDim())
	}
	if len(g.Indices) != 96 {
		t.Errorf("indices: got %d, want 96", len(g.Indices))
	}
	if c.Layout().QuadrantElementCount != 24 {
		t.Errorf("quadrant elements: got %d, want 24", c.Layout().QuadrantElementCount)
	}
	if len(g.Positions) != 50 {
		t.Errorf("positions: got %d, want 50", len(g.Positions))
	}
	if len(g.Barycentric) != 75 {
		t.Errorf("barycentric: got %d, want 75", len(g.Barycentric))
	}
	if c.Uploaded() {
		t.Error("new chunk should not be uploaded")
	}
}

func TestUploadIfNeeded(t *testing.T) {
	dev := gputest.New()
	c, err := New(9, dev, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.UploadIfNeeded(); err != nil {
		t.Fatalf("UploadIfNeeded: %v", err)
	}
	if !c.Uploaded() {
		t.Fatal("expected chunk to be uploaded")
	}
	if dev.Live() != 3 {
		t.Fatalf("expected 3 buffers, got %d", dev.Live())
	}

	g := c.Geometry()
	want := map[gpu.Buffer]struct {
		target gpu.BufferTarget
		data   []byte
	}{
		1: {gpu.ElementArrayBuffer, gpu.Bytes(g.Indices)},
		2: {gpu.ArrayBuffer, gpu.Bytes(g.Positions)},
		3: {gpu.ArrayBuffer, gpu.Bytes(g.Barycentric)},
	}
	for b, w := range want {
		if dev.Targets[b] != w.target {
			t.Errorf("buffer %d: target %s, want %s", b, dev.Targets[b], w.target)
		}
		if !bytes.Equal(dev.Buffers[b], w.data) {
			t.Errorf("buffer %d: uploaded bytes differ from CPU array", b)
		}
	}

	// Second call is a no-op.
	if err := c.UploadIfNeeded(); err != nil {
		t.Fatalf("second UploadIfNeeded: %v", err)
	}
	if dev.Live() != 3 {
		t.Errorf("expected no new buffers, got %d live", dev.Live())
	}
}

func TestInvalidateAndReupload(t *testing.T) {
	dev := gputest.New()
	c, err := New(17, dev, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.UploadIfNeeded(); err != nil {
		t.Fatalf("UploadIfNeeded: %v", err)
	}

	g := c.Geometry()
	indices := slices.Clone(g.Indices)
	positions := slices.Clone(g.Positions)
	bary := slices.Clone(g.Barycentric)
	before := [][]byte{dev.Buffers[1], dev.Buffers[2], dev.Buffers[3]}

	c.Invalidate()
	if c.Uploaded() {
		t.Fatal("expected chunk to be invalid after Invalidate")
	}
	if _, err := c.DrawSelection(WholeMask(), 1); !errors.Is(err, ErrNotUploaded) {
		t.Errorf("draw after invalidate: expected ErrNotUploaded, got %v", err)
	}

	if err := c.UploadIfNeeded(); err != nil {
		t.Fatalf("re-upload: %v", err)
	}
	if !c.Uploaded() {
		t.Fatal("expected chunk to be uploaded again")
	}

	after := [][]byte{dev.Buffers[4], dev.Buffers[5], dev.Buffers[6]}
	for i := range before {
		if !bytes.Equal(before[i], after[i]) {
			t.Errorf("buffer %d differs after re-upload", i)
		}
	}
	if !slices.Equal(indices, g.Indices) || !slices.Equal(positions, g.Positions) || !slices.Equal(bary, g.Barycentric) {
		t.Error("CPU arrays changed across invalidate/re-upload")
	}
	if c.Geometry() != g {
		t.Error("geometry was regenerated")
	}
}

func TestUploadFailureReleasesPartialBuffers(t *testing.T) {
	dev := gputest.New()
	dev.FailCreateAfter = 2
	c, err := New(5, dev, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = c.UploadIfNeeded()
	if !errors.Is(err, ErrGPU) {
		t.Fatalf("expected ErrGPU, got %v", err)
	}
	if c.Uploaded() {
		t.Error("chunk must stay invalid after a failed upload")
	}
	if dev.Live() != 0 {
		t.Errorf("expected partial buffers to be deleted, %d still live", dev.Live())
	}
	if len(dev.Deleted) != 2 {
		t.Errorf("expected 2 deletions, got %v", dev.Deleted)
	}

	dev.FailCreateAfter = -1
	if err := c.UploadIfNeeded(); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if !c.Uploaded() {
		t.Error("expected retry to succeed")
	}
}

func TestBindAttributes(t *testing.T) {
	dev := gputest.New()
	c, err := New(5, dev, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.BindAttributes(terrainAttribs, false); !errors.Is(err, ErrNotUploaded) {
		t.Fatalf("bind before upload: expected ErrNotUploaded, got %v", err)
	}
	if err := c.UploadIfNeeded(); err != nil {
		t.Fatalf("UploadIfNeeded: %v", err)
	}

	t.Run("color pass", func(t *testing.T) {
		dev.Reset()
		if err := c.BindAttributes(terrainAttribs, false); err != nil {
			t.Fatalf("BindAttributes: %v", err)
		}
		want := []gpu.Attrib{
			{Location: 0, Components: 2, Type: gpu.Float32},
			{Location: 3, Components: 3, Type: gpu.Int16},
		}
		if !slices.Equal(dev.Attribs, want) {
			t.Errorf("attribs: got %+v, want %+v", dev.Attribs, want)
		}
		if !slices.Equal(dev.AttribBuffers, []gpu.Buffer{2, 3}) {
			t.Errorf("attrib source buffers: got %v, want [2 3]", dev.AttribBuffers)
		}
		if dev.Bound[gpu.ElementArrayBuffer] != 1 {
			t.Errorf("index buffer not bound, got %d", dev.Bound[gpu.ElementArrayBuffer])
		}
	})

	t.Run("shadow pass skips barycentric", func(t *testing.T) {
		dev.Reset()
		if err := c.BindAttributes(terrainAttribs, true); err != nil {
			t.Fatalf("BindAttributes: %v", err)
		}
		if len(dev.Attribs) != 1 || dev.Attribs[0].Location != 0 {
			t.Errorf("expected only the position attrib, got %+v", dev.Attribs)
		}
	})

	t.Run("unused attribute skipped", func(t *testing.T) {
		dev.Reset()
		if err := c.BindAttributes(gputest.Locator{AttribBarycentric: 1}, false); err != nil {
			t.Fatalf("BindAttributes: %v", err)
		}
		if len(dev.Attribs) != 1 || dev.Attribs[0].Location != 1 {
			t.Errorf("expected only the barycentric attrib, got %+v", dev.Attribs)
		}
	})

	t.Run("nil program", func(t *testing.T) {
		if err := c.BindAttributes(nil, false); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestDrawBeforeUpload(t *testing.T) {
	dev := gputest.New()
	counter := &gputest.Counter{}
	c, err := New(5, dev, counter)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.DrawSelection(WholeMask(), 1); !errors.Is(err, ErrNotUploaded) {
		t.Errorf("expected ErrNotUploaded, got %v", err)
	}
	if len(dev.Draws) != 0 || counter.Calls != 0 {
		t.Error("nothing should be drawn before upload")
	}
}

func TestDrawSelection(t *testing.T) {
	tests := []struct {
		name  string
		mask  SelectionMask
		draws []gputest.Draw
	}{
		{
			name:  "whole",
			mask:  SelectionMask{false, false, false, false, true},
			draws: []gputest.Draw{{Count: 96, ByteOffset: 0, Instances: 1, Element: 1}},
		},
		{
			name:  "single quadrant",
			mask:  SelectionMask{true, false, false, false, false},
			draws: []gputest.Draw{{Count: 24, ByteOffset: 0, Instances: 1, Element: 1}},
		},
		{
			name:  "adjacent quadrants merge",
			mask:  SelectionMask{true, true, false, false, false},
			draws: []gputest.Draw{{Count: 48, ByteOffset: 0, Instances: 1, Element: 1}},
		},
		{
			name: "non-adjacent quadrants split",
			mask: SelectionMask{true, false, true, false, false},
			draws: []gputest.Draw{
				{Count: 24, ByteOffset: 0, Instances: 1, Element: 1},
				{Count: 24, ByteOffset: 192, Instances: 1, Element: 1},
			},
		},
		{
			name:  "whole wins over quadrants",
			mask:  SelectionMask{false, true, false, true, true},
			draws: []gputest.Draw{{Count: 96, ByteOffset: 0, Instances: 1, Element: 1}},
		},
		{
			name:  "empty",
			mask:  SelectionMask{},
			draws: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, dev, counter := newUploaded(t, 5)

			n, err := c.DrawSelection(tt.mask, 1)
			if err != nil {
				t.Fatalf("DrawSelection: %v", err)
			}
			if n != len(tt.draws) {
				t.Errorf("issued %d draws, want %d", n, len(tt.draws))
			}
			if counter.Calls != len(tt.draws) {
				t.Errorf("counter: got %d, want %d", counter.Calls, len(tt.draws))
			}
			if !slices.Equal(dev.Draws, tt.draws) {
				t.Errorf("draws: got %+v, want %+v", dev.Draws, tt.draws)
			}
		})
	}
}

func TestDrawSelectionInstanced(t *testing.T) {
	c, dev, counter := newUploaded(t, 9)

	n, err := c.DrawSelection(SelectionMask{false, true, true, true, false}, 4)
	if err != nil {
		t.Fatalf("DrawSelection: %v", err)
	}
	if n != 1 || counter.Calls != 1 {
		t.Fatalf("expected one merged draw, got %d (counter %d)", n, counter.Calls)
	}
	l := c.Layout()
	want := gputest.Draw{Count: int32(3 * l.QuadrantElementCount), ByteOffset: l.QuadrantByteOffsets[1], Instances: 4, Element: 1}
	if dev.Draws[0] != want {
		t.Errorf("got %+v, want %+v", dev.Draws[0], want)
	}
}

func TestDrawSelectionRejectsInstanceCount(t *testing.T) {
	c, dev, counter := newUploaded(t, 5)
	for _, n := range []int{0, -2} {
		if _, err := c.DrawSelection(WholeMask(), n); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("instances %d: expected ErrInvalidArgument, got %v", n, err)
		}
	}
	if len(dev.Draws) != 0 || counter.Calls != 0 {
		t.Error("rejected draws must not reach the device")
	}
}

func TestDrawSelectionGPUFailure(t *testing.T) {
	c, dev, counter := newUploaded(t, 5)
	dev.FailDraws = true

	n, err := c.DrawSelection(SelectionMask{true, false, true, false, false}, 1)
	if !errors.Is(err, ErrGPU) {
		t.Fatalf("expected ErrGPU, got %v", err)
	}
	if n != 0 || counter.Calls != 0 {
		t.Errorf("failed draws must not be counted: issued %d, counter %d", n, counter.Calls)
	}
}

func TestDrawWholeAndQuadrant(t *testing.T) {
	c, dev, counter := newUploaded(t, 5)

	if err := c.DrawWhole(2); err != nil {
		t.Fatalf("DrawWhole: %v", err)
	}
	if err := c.DrawQuadrant(TopLeft, 1); err != nil {
		t.Fatalf("DrawQuadrant: %v", err)
	}
	if err := c.DrawQuadrant(Quadrant(7), 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("invalid quadrant: expected ErrInvalidArgument, got %v", err)
	}

	want := []gputest.Draw{
		{Count: 96, ByteOffset: 0, Instances: 2, Element: 1},
		{Count: 24, ByteOffset: 192, Instances: 1, Element: 1},
	}
	if !slices.Equal(dev.Draws, want) {
		t.Errorf("draws: got %+v, want %+v", dev.Draws, want)
	}
	if counter.Calls != 2 {
		t.Errorf("counter: got %d, want 2", counter.Calls)
	}
}

func TestDestroy(t *testing.T) {
	dev := gputest.New()
	c, err := New(5, dev, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Destroy() // nothing uploaded yet
	if len(dev.Deleted) != 0 {
		t.Errorf("destroy before upload deleted %v", dev.Deleted)
	}

	if err := c.UploadIfNeeded(); err != nil {
		t.Fatalf("UploadIfNeeded: %v", err)
	}
	c.Destroy()
	if dev.Live() != 0 {
		t.Errorf("expected all buffers deleted, %d live", dev.Live())
	}
	if c.Uploaded() {
		t.Error("destroyed chunk should not be uploaded")
	}
}

func TestNilCounterDraws(t *testing.T) {
	dev := gputest.New()
	c, err := New(5, dev, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.UploadIfNeeded(); err != nil {
		t.Fatalf("UploadIfNeeded: %v", err)
	}
	if err := c.DrawWhole(1); err != nil {
		t.Fatalf("DrawWhole: %v", err)
	}
	if len(dev.Draws) != 1 {
		t.Errorf("expected one draw, got %d", len(dev.Draws))
	}
}

func TestDrawUsesLastBoundChunk(t *testing.T) {
	dev := gputest.New()
	small, err := New(5, dev, nil)
	if err != nil {
		t.Fatalf("New(5): %v", err)
	}
	large, err := New(9, dev, nil)
	if err != nil {
		t.Fatalf("New(9): %v", err)
	}
	for _, c := range []*Chunk{small, large} {
		if err := c.UploadIfNeeded(); err != nil {
			t.Fatalf("UploadIfNeeded: %v", err)
		}
	}
	// small owns buffers 1-3, large owns 4-6; index buffers come first.
	const smallIndex, largeIndex = gpu.Buffer(1), gpu.Buffer(4)

	if err := small.BindAttributes(terrainAttribs, false); err != nil {
		t.Fatalf("bind small: %v", err)
	}
	if err := large.BindAttributes(terrainAttribs, false); err != nil {
		t.Fatalf("bind large: %v", err)
	}
	if err := large.DrawWhole(1); err != nil {
		t.Fatalf("draw large: %v", err)
	}
	if err := small.BindAttributes(terrainAttribs, false); err != nil {
		t.Fatalf("rebind small: %v", err)
	}
	if err := small.DrawWhole(1); err != nil {
		t.Fatalf("draw small: %v", err)
	}

	want := []gputest.Draw{
		{Count: 384, ByteOffset: 0, Instances: 1, Element: largeIndex},
		{Count: 96, ByteOffset: 0, Instances: 1, Element: smallIndex},
	}
	if !slices.Equal(dev.Draws, want) {
		t.Errorf("draws: got %+v, want %+v", dev.Draws, want)
	}
}
