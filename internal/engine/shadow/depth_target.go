// Package shadow provides the depth-only render target used for the
// terrain shadow pass.
package shadow

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/cdlod-grid/internal/engine/gpu"
)

// DefaultResolution is the default depth target resolution.
const DefaultResolution = 2048

// DepthTarget is a framebuffer with only a depth attachment. Geometry drawn
// into it needs positions only, so grid chunks skip their barycentric
// stream when bound for this target.
type DepthTarget struct {
	FBO          uint32
	DepthTexture uint32
	Resolution   int32
	prevViewport [4]int32
}

// NewDepthTarget creates a square depth target. Non-positive resolutions
// fall back to DefaultResolution.
func NewDepthTarget(resolution int32) (*DepthTarget, error) {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	dt := &DepthTarget{Resolution: resolution}

	gl.GenFramebuffers(1, &dt.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, dt.FBO)

	gl.GenTextures(1, &dt.DepthTexture)
	gl.BindTexture(gl.TEXTURE_2D, dt.DepthTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, resolution, resolution, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	border := []float32{1, 1, 1, 1}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)

	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, dt.DepthTexture, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		dt.Destroy()
		return nil, fmt.Errorf("%w: depth target incomplete (status 0x%04X)", gpu.ErrGPU, status)
	}
	return dt, nil
}

// Bind redirects rendering into the depth target and clears it.
func (dt *DepthTarget) Bind() {
	gl.GetIntegerv(gl.VIEWPORT, &dt.prevViewport[0])

	gl.BindFramebuffer(gl.FRAMEBUFFER, dt.FBO)
	gl.Viewport(0, 0, dt.Resolution, dt.Resolution)
	gl.Clear(gl.DEPTH_BUFFER_BIT)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	// Height fields have no back faces to cull, so acne is handled by a
	// slope-scaled depth offset instead.
	gl.Enable(gl.POLYGON_OFFSET_FILL)
	gl.PolygonOffset(2, 4)
}

// Unbind restores the default framebuffer and viewport.
func (dt *DepthTarget) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(dt.prevViewport[0], dt.prevViewport[1], dt.prevViewport[2], dt.prevViewport[3])
	gl.Disable(gl.POLYGON_OFFSET_FILL)
}

// BindTexture binds the depth texture to a texture unit for sampling.
func (dt *DepthTarget) BindTexture(unit uint32) {
	gl.ActiveTexture(unit)
	gl.BindTexture(gl.TEXTURE_2D, dt.DepthTexture)
}

// Destroy releases the framebuffer and texture.
func (dt *DepthTarget) Destroy() {
	if dt.FBO != 0 {
		gl.DeleteFramebuffers(1, &dt.FBO)
		dt.FBO = 0
	}
	if dt.DepthTexture != 0 {
		gl.DeleteTextures(1, &dt.DepthTexture)
		dt.DepthTexture = 0
	}
}
