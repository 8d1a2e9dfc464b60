// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/cdlod-grid/internal/engine/gridmesh"
)

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Terrain  TerrainConfig  `yaml:"terrain"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width            int   `yaml:"width"`
	Height           int   `yaml:"height"`
	Fullscreen       bool  `yaml:"fullscreen"`
	VSync            bool  `yaml:"vsync"`
	ShadowResolution int32 `yaml:"shadow_resolution"`
	// Sun angles in degrees; see lighting.Sun.
	SunLongitude  float32 `yaml:"sun_longitude"`
	SunLatitude   float32 `yaml:"sun_latitude"`
	ScreenshotDir string  `yaml:"screenshot_dir"`
}

// TerrainConfig describes the grid chunks and the node layout drawn with them.
type TerrainConfig struct {
	// GridDims lists the vertex dimensions to build; each must have an even
	// number of quads per side.
	GridDims     []int   `yaml:"grid_dims"`
	NodesPerSide int     `yaml:"nodes_per_side"`
	NodeSize     float32 `yaml:"node_size"`
	// LODDistance is measured in node sizes. Quadrants closer than this to
	// the camera are drawn from the finest chunk.
	LODDistance float32 `yaml:"lod_distance"`
	Wireframe   bool    `yaml:"wireframe"`
	// Shadows enables the depth pre-pass, which binds positions only.
	Shadows bool `yaml:"shadows"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:            1280,
			Height:           720,
			Fullscreen:       false,
			VSync:            true,
			ShadowResolution: 2048,
			SunLongitude:     45,
			SunLatitude:      50,
			ScreenshotDir:    "screenshots",
		},
		Terrain: TerrainConfig{
			GridDims:     []int{17, 33},
			NodesPerSide: 8,
			NodeSize:     64,
			LODDistance:  1,
			Wireframe:    true,
			Shadows:      true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every setting the renderer cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("graphics: window size %dx%d must be positive", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Graphics.SunLatitude <= 0 || c.Graphics.SunLatitude > 90 {
		errs = append(errs, fmt.Errorf("graphics: sun_latitude %g outside (0, 90]", c.Graphics.SunLatitude))
	}
	if len(c.Terrain.GridDims) == 0 {
		errs = append(errs, errors.New("terrain: grid_dims is empty"))
	}
	for _, d := range c.Terrain.GridDims {
		if err := gridmesh.ValidateDim(d); err != nil {
			errs = append(errs, fmt.Errorf("terrain: grid_dims: %w", err))
		}
	}
	if c.Terrain.NodesPerSide < 1 {
		errs = append(errs, fmt.Errorf("terrain: nodes_per_side %d < 1", c.Terrain.NodesPerSide))
	}
	if c.Terrain.NodeSize <= 0 {
		errs = append(errs, fmt.Errorf("terrain: node_size %g must be positive", c.Terrain.NodeSize))
	}

	return errors.Join(errs...)
}
