// Package gputest provides a recording gpu.Device for tests that run
// without a GPU context.
package gputest

import (
	"fmt"

	"github.com/Faultbox/cdlod-grid/internal/engine/gpu"
)

// Draw is one recorded DrawTriangles call.
type Draw struct {
	Count      int32
	ByteOffset int
	Instances  int32
	// Element is the element buffer bound at submission time.
	Element gpu.Buffer
}

// Device records every call made against it. Buffer contents are copied at
// creation so tests can compare uploads across re-creation.
type Device struct {
	next    gpu.Buffer
	Buffers map[gpu.Buffer][]byte
	Targets map[gpu.Buffer]gpu.BufferTarget
	Deleted []gpu.Buffer
	Bound   map[gpu.BufferTarget]gpu.Buffer
	Attribs []gpu.Attrib
	// AttribBuffers holds the array buffer bound when each attrib was set.
	AttribBuffers []gpu.Buffer
	Draws         []Draw

	// FailCreateAfter makes CreateBuffer fail once this many buffers have
	// been created. Negative disables it.
	FailCreateAfter int
	// FailDraws makes DrawTriangles fail.
	FailDraws bool

	created int
}

// New returns an empty recording device.
func New() *Device {
	return &Device{
		Buffers:         make(map[gpu.Buffer][]byte),
		Targets:         make(map[gpu.Buffer]gpu.BufferTarget),
		Bound:           make(map[gpu.BufferTarget]gpu.Buffer),
		FailCreateAfter: -1,
	}
}

// CreateBuffer implements gpu.Device.
func (d *Device) CreateBuffer(target gpu.BufferTarget, data []byte) (gpu.Buffer, error) {
	if d.FailCreateAfter >= 0 && d.created >= d.FailCreateAfter {
		return 0, fmt.Errorf("%w: simulated out of memory", gpu.ErrGPU)
	}
	d.created++
	d.next++
	b := d.next
	d.Buffers[b] = append([]byte(nil), data...)
	d.Targets[b] = target
	return b, nil
}

// DeleteBuffer implements gpu.Device.
func (d *Device) DeleteBuffer(b gpu.Buffer) {
	if b == 0 {
		return
	}
	delete(d.Buffers, b)
	delete(d.Targets, b)
	d.Deleted = append(d.Deleted, b)
}

// BindBuffer implements gpu.Device.
func (d *Device) BindBuffer(target gpu.BufferTarget, b gpu.Buffer) {
	d.Bound[target] = b
}

// VertexAttrib implements gpu.Device.
func (d *Device) VertexAttrib(a gpu.Attrib) {
	d.Attribs = append(d.Attribs, a)
	d.AttribBuffers = append(d.AttribBuffers, d.Bound[gpu.ArrayBuffer])
}

// DrawTriangles implements gpu.Device.
func (d *Device) DrawTriangles(count int32, byteOffset int, instances int32) error {
	if d.FailDraws {
		return fmt.Errorf("%w: simulated draw failure", gpu.ErrGPU)
	}
	d.Draws = append(d.Draws, Draw{
		Count:      count,
		ByteOffset: byteOffset,
		Instances:  instances,
		Element:    d.Bound[gpu.ElementArrayBuffer],
	})
	return nil
}

// Live returns the number of buffers created and not yet deleted.
func (d *Device) Live() int {
	return len(d.Buffers)
}

// Reset forgets recorded attribs and draws but keeps buffers.
func (d *Device) Reset() {
	d.Attribs = nil
	d.AttribBuffers = nil
	d.Draws = nil
}

// Locator is a fixed attribute table for tests.
type Locator map[string]int32

// AttribLocation returns the location of name or gpu.InvalidLocation.
func (l Locator) AttribLocation(name string) int32 {
	if loc, ok := l[name]; ok {
		return loc
	}
	return gpu.InvalidLocation
}

// Counter counts draw calls.
type Counter struct {
	Calls int
}

// CountDrawCall increments the counter.
func (c *Counter) CountDrawCall() {
	c.Calls++
}
