package gpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/cdlod-grid/internal/logger"
)

// getError is swapped in tests, which run without a context.
var getError = gl.GetError

// GL implements Device on top of an OpenGL 4.1 core context.
type GL struct {
	vao uint32
}

// NewGL loads OpenGL function pointers and prepares the vertex array object
// attribute bindings are recorded into.
// IMPORTANT: Must be called AFTER the OpenGL context is created and current!
func NewGL() (*GL, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Named("gpu").Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	d := &GL{}
	d.createVertexArray()
	return d, nil
}

// Reset re-creates context-owned objects after the context was lost and a
// new one made current. Handles from the old context are abandoned, not
// deleted.
func (d *GL) Reset() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to reinitialize OpenGL: %w", err)
	}
	d.vao = 0
	d.createVertexArray()
	logger.Named("gpu").Info("device reset", zap.Uint32("vao", d.vao))
	return nil
}

func (d *GL) createVertexArray() {
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
}

// CreateBuffer implements Device.
func (d *GL) CreateBuffer(target BufferTarget, data []byte) (Buffer, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty %s buffer", ErrGPU, target)
	}
	drainErrors()

	var id uint32
	gl.GenBuffers(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("%w: glGenBuffers returned no name", ErrGPU)
	}

	t := glTarget(target)
	gl.BindBuffer(t, id)
	gl.BufferData(t, len(data), gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(t, 0)

	if code := getError(); code != gl.NO_ERROR {
		gl.DeleteBuffers(1, &id)
		return 0, fmt.Errorf("%w: upload %d bytes to %s buffer: %s", ErrGPU, len(data), target, errorString(code))
	}
	return Buffer(id), nil
}

// DeleteBuffer implements Device.
func (d *GL) DeleteBuffer(b Buffer) {
	if b == 0 {
		return
	}
	id := uint32(b)
	gl.DeleteBuffers(1, &id)
}

// BindBuffer implements Device.
func (d *GL) BindBuffer(target BufferTarget, b Buffer) {
	gl.BindBuffer(glTarget(target), uint32(b))
}

// VertexAttrib implements Device.
func (d *GL) VertexAttrib(a Attrib) {
	gl.VertexAttribPointerWithOffset(a.Location, a.Components, glType(a.Type), a.Normalized, 0, 0)
	gl.EnableVertexAttribArray(a.Location)
}

// DrawTriangles implements Device.
func (d *GL) DrawTriangles(count int32, byteOffset int, instances int32) error {
	return checked(fmt.Sprintf("draw %d indices at byte %d (x%d)", count, byteOffset, instances), func() {
		if instances > 1 {
			gl.DrawElementsInstanced(gl.TRIANGLES, count, gl.UNSIGNED_INT, gl.PtrOffset(byteOffset), instances)
		} else {
			gl.DrawElementsWithOffset(gl.TRIANGLES, count, gl.UNSIGNED_INT, uintptr(byteOffset))
		}
	})
}

// checked runs issue and reports only the errors it raised. Flags left by
// earlier calls are cleared first.
func checked(op string, issue func()) error {
	drainErrors()
	issue()
	if code := getError(); code != gl.NO_ERROR {
		return fmt.Errorf("%w: %s: %s", ErrGPU, op, errorString(code))
	}
	return nil
}

// Destroy releases the vertex array object.
func (d *GL) Destroy() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}

func glTarget(t BufferTarget) uint32 {
	if t == ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func glType(t ComponentType) uint32 {
	if t == Int16 {
		return gl.SHORT
	}
	return gl.FLOAT
}

// drainErrors clears stale error flags so the next GetError reflects only
// the calls that follow.
func drainErrors() {
	for i := 0; i < 8 && getError() != gl.NO_ERROR; i++ {
	}
}

func errorString(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	default:
		return fmt.Sprintf("GL error 0x%04X", code)
	}
}
