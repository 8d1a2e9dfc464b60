package gridmesh

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/cdlod-grid/internal/engine/gpu"
	"github.com/Faultbox/cdlod-grid/internal/logger"
)

// Cache hands out one shared Chunk per vertex dimension.
type Cache struct {
	dev     gpu.Device
	counter DrawCounter
	chunks  map[int]*Chunk
}

// NewCache returns an empty cache whose chunks use dev and counter.
func NewCache(dev gpu.Device, counter DrawCounter) *Cache {
	return &Cache{
		dev:     dev,
		counter: counter,
		chunks:  make(map[int]*Chunk),
	}
}

// Get returns the chunk for vertexDim, building it on first use. Buffers are
// not uploaded here.
func (c *Cache) Get(vertexDim int) (*Chunk, error) {
	if ch, ok := c.chunks[vertexDim]; ok {
		return ch, nil
	}
	ch, err := New(vertexDim, c.dev, c.counter)
	if err != nil {
		return nil, err
	}
	c.chunks[vertexDim] = ch
	return ch, nil
}

// Len returns the number of cached chunks.
func (c *Cache) Len() int {
	return len(c.chunks)
}

// Dims returns the cached vertex dimensions in ascending order.
func (c *Cache) Dims() []int {
	dims := make([]int, 0, len(c.chunks))
	for d := range c.chunks {
		dims = append(dims, d)
	}
	sort.Ints(dims)
	return dims
}

// UploadAll uploads every chunk that is not currently valid.
func (c *Cache) UploadAll() error {
	for _, d := range c.Dims() {
		if err := c.chunks[d].UploadIfNeeded(); err != nil {
			return fmt.Errorf("upload cache: %w", err)
		}
	}
	return nil
}

// InvalidateAll marks every chunk's buffers as lost, as after a context loss.
func (c *Cache) InvalidateAll() {
	for _, ch := range c.chunks {
		ch.Invalidate()
	}
	logger.Named("gridmesh").Info("grid buffers invalidated", zap.Int("chunks", len(c.chunks)))
}

// Destroy deletes all GPU buffers and empties the cache.
func (c *Cache) Destroy() {
	for _, ch := range c.chunks {
		ch.Destroy()
	}
	c.chunks = make(map[int]*Chunk)
}
