package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to gridview.yaml")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagGrid       = flag.Int("grid", 0, "Draw a single grid of this vertex dimension")
	flagNoWire     = flag.Bool("no-wireframe", false, "Disable the barycentric wireframe overlay")
)

// ParseFlags parses the viewer's command line. Load reads the result.
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the -config path, or "" to search the default locations.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags layers command-line overrides on top of file settings. -grid
// replaces the whole grid_dims list; validation happens afterwards in Load.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagGrid != 0 {
		cfg.Terrain.GridDims = []int{*flagGrid}
	}
	if *flagNoWire {
		cfg.Terrain.Wireframe = false
	}
}
