// Package gpu defines the narrow GPU surface used by grid meshes and an
// OpenGL implementation of it.
package gpu

import (
	"errors"
	"unsafe"
)

// ErrGPU marks failures reported by the GPU API itself (buffer creation,
// draw submission). Callers match it with errors.Is.
var ErrGPU = errors.New("gpu error")

// InvalidLocation is the attribute location returned for names the active
// program does not use.
const InvalidLocation int32 = -1

// Buffer is a device buffer handle. Zero is never a valid buffer.
type Buffer uint32

// BufferTarget selects the binding point of a buffer.
type BufferTarget int

const (
	// ArrayBuffer holds per-vertex attribute data.
	ArrayBuffer BufferTarget = iota
	// ElementArrayBuffer holds triangle indices.
	ElementArrayBuffer
)

func (t BufferTarget) String() string {
	switch t {
	case ArrayBuffer:
		return "array"
	case ElementArrayBuffer:
		return "element_array"
	default:
		return "unknown"
	}
}

// ComponentType is the scalar type of a vertex attribute component.
type ComponentType int

const (
	Float32 ComponentType = iota
	Int16
)

// Attrib describes how a vertex attribute reads from a bound array buffer.
// Data is tightly packed and starts at byte 0.
type Attrib struct {
	Location   uint32
	Components int32
	Type       ComponentType
	Normalized bool
}

// Device is the subset of a GPU API the grid mesh needs. All calls must be
// made on the thread that owns the GPU context.
type Device interface {
	// CreateBuffer allocates a static buffer and copies data into it.
	CreateBuffer(target BufferTarget, data []byte) (Buffer, error)
	// DeleteBuffer releases a buffer. Deleting zero is a no-op.
	DeleteBuffer(b Buffer)
	// BindBuffer binds b (or unbinds when zero) to target.
	BindBuffer(target BufferTarget, b Buffer)
	// VertexAttrib points attribute a at the buffer currently bound to
	// ArrayBuffer and enables it.
	VertexAttrib(a Attrib)
	// DrawTriangles draws count uint32 indices starting at byteOffset in
	// the bound element buffer. instances > 1 issues an instanced draw.
	DrawTriangles(count int32, byteOffset int, instances int32) error
}

// Bytes reinterprets a slice of fixed-size values as raw bytes in native
// byte order, which is what buffer uploads expect. The result aliases s.
func Bytes[T uint32 | int16 | float32](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}
