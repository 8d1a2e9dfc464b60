// Package renderer draws the terrain node grid from shared grid chunks.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/cdlod-grid/internal/engine/gpu"
	"github.com/Faultbox/cdlod-grid/internal/engine/gridmesh"
	"github.com/Faultbox/cdlod-grid/internal/engine/lighting"
	"github.com/Faultbox/cdlod-grid/internal/engine/shader"
	"github.com/Faultbox/cdlod-grid/internal/engine/shadow"
	"github.com/Faultbox/cdlod-grid/internal/engine/stats"
	"github.com/Faultbox/cdlod-grid/internal/logger"
)

// Shaders holds the GLSL sources the renderer links.
type Shaders struct {
	GridVertex    string
	GridFragment  string
	DepthVertex   string
	DepthFragment string
}

// Config holds renderer configuration.
type Config struct {
	Width            int
	Height           int
	GridDims         []int
	Wireframe        bool
	Shadows          bool
	ShadowResolution int32
	Sun              lighting.Sun
	Shaders          Shaders
}

// Renderer owns the GL device, the chunk cache and the programs that draw
// it. It must only be used from the thread that owns the GL context.
type Renderer struct {
	config Config
	log    *zap.Logger

	dev    *gpu.GL
	frame  *stats.Frame
	chunks *gridmesh.Cache

	grid   *shader.Program
	depth  *shader.Program
	shadow *shadow.DepthTarget

	lightDir mgl32.Vec3
}

// New creates the renderer and uploads one chunk per configured grid
// dimension.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config, frame *stats.Frame) (*Renderer, error) {
	r := &Renderer{
		config:   cfg,
		log:      logger.Named("renderer"),
		frame:    frame,
		lightDir: cfg.Sun.Direction(),
	}

	var err error
	if r.dev, err = gpu.NewGL(); err != nil {
		return nil, err
	}
	r.chunks = gridmesh.NewCache(r.dev, frame)

	for _, dim := range cfg.GridDims {
		if _, err := r.chunks.Get(dim); err != nil {
			r.Close()
			return nil, fmt.Errorf("grid chunk %d: %w", dim, err)
		}
	}

	if err := r.createContextObjects(); err != nil {
		r.Close()
		return nil, err
	}

	r.log.Info("renderer ready",
		zap.Ints("grid_dims", r.chunks.Dims()),
		zap.Bool("shadows", cfg.Shadows),
		zap.Bool("wireframe", cfg.Wireframe),
	)
	return r, nil
}

// createContextObjects builds everything that lives in the GL context.
func (r *Renderer) createContextObjects() error {
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)
	gl.Viewport(0, 0, int32(r.config.Width), int32(r.config.Height))

	var err error
	if r.grid == nil {
		r.grid, err = shader.New("grid", r.config.Shaders.GridVertex, r.config.Shaders.GridFragment)
	} else {
		err = r.grid.Reload()
	}
	if err != nil {
		return fmt.Errorf("grid program: %w", err)
	}

	if r.config.Shadows {
		if r.depth == nil {
			r.depth, err = shader.New("depth", r.config.Shaders.DepthVertex, r.config.Shaders.DepthFragment)
		} else {
			err = r.depth.Reload()
		}
		if err != nil {
			return fmt.Errorf("depth program: %w", err)
		}
		if r.shadow, err = shadow.NewDepthTarget(r.config.ShadowResolution); err != nil {
			return err
		}
	}

	return r.chunks.UploadAll()
}

// ContextLost rebuilds GL state after the context was replaced. The chunks
// keep their CPU geometry and are re-uploaded from it.
func (r *Renderer) ContextLost() error {
	r.log.Warn("GL context lost, rebuilding")
	r.chunks.InvalidateAll()
	r.shadow = nil
	if err := r.dev.Reset(); err != nil {
		return err
	}
	return r.createContextObjects()
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	if r.chunks != nil {
		r.chunks.Destroy()
	}
	if r.shadow != nil {
		r.shadow.Destroy()
	}
	if r.depth != nil {
		r.depth.Destroy()
	}
	if r.grid != nil {
		r.grid.Destroy()
	}
	if r.dev != nil {
		r.dev.Destroy()
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// ToggleWireframe flips the barycentric edge overlay.
func (r *Renderer) ToggleWireframe() {
	r.config.Wireframe = !r.config.Wireframe
}

// Render draws one frame. viewProj is the camera matrix; extent is the
// half-width of the terrain, used to fit the shadow frustum.
func (r *Renderer) Render(draws []DrawItem, viewProj mgl32.Mat4, extent float32) error {
	r.frame.BeginFrame()

	lightVP := LightMatrix(r.lightDir, extent)

	if r.shadow != nil {
		r.shadow.Bind()
		r.depth.Use()
		setMat4(r.depth.Uniform("viewProj"), lightVP)
		err := r.drawAll(r.depth, draws, true)
		r.shadow.Unbind()
		if err != nil {
			return fmt.Errorf("shadow pass: %w", err)
		}
	}

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	r.grid.Use()
	setMat4(r.grid.Uniform("viewProj"), viewProj)
	setMat4(r.grid.Uniform("lightViewProj"), lightVP)
	gl.Uniform3f(r.grid.Uniform("lightDir"), r.lightDir.X(), r.lightDir.Y(), r.lightDir.Z())
	gl.Uniform1i(r.grid.Uniform("wireframe"), boolToInt(r.config.Wireframe))
	gl.Uniform1i(r.grid.Uniform("shadowsEnabled"), boolToInt(r.shadow != nil))
	if r.shadow != nil {
		r.shadow.BindTexture(gl.TEXTURE0)
		gl.Uniform1i(r.grid.Uniform("shadowMap"), 0)
	}

	if err := r.drawAll(r.grid, draws, false); err != nil {
		return fmt.Errorf("color pass: %w", err)
	}
	return nil
}

func (r *Renderer) drawAll(prog *shader.Program, draws []DrawItem, shadowPass bool) error {
	origin := prog.Uniform("nodeOrigin")
	scale := prog.Uniform("nodeScale")
	quadDim := prog.Uniform("quadDim")

	bound := -1
	for _, d := range draws {
		chunk, err := r.chunks.Get(d.VertexDim)
		if err != nil {
			return err
		}
		if bound != d.VertexDim {
			if err := chunk.BindAttributes(prog, shadowPass); err != nil {
				return err
			}
			gl.Uniform1f(quadDim, float32(chunk.Geometry().QuadDim()))
			bound = d.VertexDim
		}
		gl.Uniform2f(origin, d.Node.Origin.X(), d.Node.Origin.Y())
		gl.Uniform1f(scale, d.Node.Size)
		if _, err := chunk.DrawSelection(d.Mask, 1); err != nil {
			return err
		}
	}
	return nil
}

// ReadPixels reads the default framebuffer back as tightly packed RGBA rows,
// bottom row first.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels, w, h
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}

// LightMatrix returns an orthographic light view-projection that covers a
// square terrain of the given half-width centred on the origin.
func LightMatrix(dir mgl32.Vec3, extent float32) mgl32.Mat4 {
	if extent <= 0 {
		extent = 1
	}
	dir = dir.Normalize()
	eye := dir.Mul(-2 * extent)
	up := mgl32.Vec3{0, 1, 0}
	if abs(dir.Dot(up)) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}
	view := mgl32.LookAtV(eye, mgl32.Vec3{}, up)
	// Half the terrain diagonal is sqrt(2)*extent.
	r := extent * 1.5
	proj := mgl32.Ortho(-r, r, -r, r, 0.1, 4*extent)
	return proj.Mul4(view)
}

func setMat4(loc int32, m mgl32.Mat4) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
