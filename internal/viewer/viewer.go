// Package viewer runs the terrain grid viewer loop.
package viewer

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/cdlod-grid/internal/config"
	"github.com/Faultbox/cdlod-grid/internal/engine/camera"
	"github.com/Faultbox/cdlod-grid/internal/engine/debug"
	"github.com/Faultbox/cdlod-grid/internal/engine/input"
	"github.com/Faultbox/cdlod-grid/internal/engine/lighting"
	"github.com/Faultbox/cdlod-grid/internal/engine/renderer"
	"github.com/Faultbox/cdlod-grid/internal/engine/stats"
	"github.com/Faultbox/cdlod-grid/internal/engine/window"
	"github.com/Faultbox/cdlod-grid/internal/logger"
)

// Viewer is the main viewer instance.
type Viewer struct {
	cfg     *config.Config
	running bool
	log     *zap.Logger

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	frame    *stats.Frame
	shots    *debug.ScreenshotCapture
	wantShot bool

	nodes    []renderer.Node
	selector renderer.Selector
	draws    []renderer.DrawItem
	extent   float32
}

// New creates the window, the GL context and the renderer.
func New(cfg *config.Config, shaders renderer.Shaders) (*Viewer, error) {
	v := &Viewer{
		cfg:   cfg,
		log:   logger.Named("viewer"),
		input: input.New(),
		frame: stats.NewFrame(),
		shots: debug.NewScreenshotCapture(cfg.Graphics.ScreenshotDir, "gridview"),
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:      "CDLOD grid viewer",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer AFTER window, since the OpenGL context must exist.
	width, height := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{
		Width:            width,
		Height:           height,
		GridDims:         cfg.Terrain.GridDims,
		Wireframe:        cfg.Terrain.Wireframe,
		Shadows:          cfg.Terrain.Shadows,
		ShadowResolution: cfg.Graphics.ShadowResolution,
		Sun:              lighting.Sun{Longitude: cfg.Graphics.SunLongitude, Latitude: cfg.Graphics.SunLatitude},
		Shaders:          shaders,
	}, v.frame)
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	t := cfg.Terrain
	v.nodes = renderer.BuildNodes(t.NodesPerSide, t.NodeSize)
	v.selector = renderer.NewSelector(t.LODDistance, t.GridDims)
	v.extent = float32(t.NodesPerSide) * t.NodeSize / 2
	v.camera = camera.NewOrbitCamera(mgl32.Vec3{}, v.extent*1.2)

	v.log.Info("viewer initialized",
		zap.Int("nodes", len(v.nodes)),
		zap.Int("coarse_dim", v.selector.Coarse),
		zap.Int("fine_dim", v.selector.Fine),
	)
	return v, nil
}

// Run starts the main loop and returns when the window is closed.
func (v *Viewer) Run() error {
	v.running = true
	statsTimer := time.Now()

	v.log.Info("starting viewer loop")

	for v.running {
		if v.input.Update() {
			v.running = false
			break
		}

		if err := v.handleEvents(); err != nil {
			return err
		}

		if err := v.render(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		// Read back before the swap leaves the back buffer undefined.
		if v.wantShot {
			v.screenshot()
			v.wantShot = false
		}
		v.window.SwapBuffers()

		if time.Since(statsTimer) >= time.Second {
			frames, draws := v.frame.Totals()
			v.log.Debug("frame stats",
				zap.Int("draw_calls", v.frame.DrawCalls()),
				zap.Duration("frame_time", v.frame.FrameTime()),
				zap.Float64("avg_draws", v.frame.AverageDraws()),
				zap.Uint64("frames", frames),
				zap.Uint64("draws", draws),
			)
			statsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleEvents() error {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			v.renderer.Resize(v.window.DrawableSize())
		case input.EventMouseDrag:
			v.camera.HandleDrag(event.DX, event.DY)
		case input.EventMouseWheel:
			v.camera.HandleZoom(event.Wheel)
		case input.EventContextLost:
			if err := v.renderer.ContextLost(); err != nil {
				return fmt.Errorf("context recovery: %w", err)
			}
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				v.running = false
			case sdl.SCANCODE_W:
				v.renderer.ToggleWireframe()
			case sdl.SCANCODE_F12:
				v.wantShot = true
			case sdl.SCANCODE_F5:
				// Simulated context loss: a new context really drops
				// every buffer, so recovery is exercised end to end.
				if err := v.window.RecreateContext(); err != nil {
					return err
				}
				if err := v.renderer.ContextLost(); err != nil {
					return fmt.Errorf("context recovery: %w", err)
				}
			}
		}
	}
	return nil
}

// screenshot captures the frame just rendered. Failures are logged only.
func (v *Viewer) screenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	path, err := v.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

func (v *Viewer) render() error {
	v.draws = v.selector.Select(v.draws[:0], v.nodes, v.camera.Position())
	viewProj := v.camera.Projection(v.window.Aspect()).Mul4(v.camera.View())
	return v.renderer.Render(v.draws, viewProj, v.extent)
}

// Close releases the renderer and the window.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
