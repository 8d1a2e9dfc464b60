// Package main is the entry point for the CDLOD grid viewer.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/cdlod-grid/cmd/gridview/shaders"
	"github.com/Faultbox/cdlod-grid/internal/config"
	"github.com/Faultbox/cdlod-grid/internal/engine/renderer"
	"github.com/Faultbox/cdlod-grid/internal/logger"
	"github.com/Faultbox/cdlod-grid/internal/viewer"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== CDLOD grid viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	v, err := viewer.New(cfg, renderer.Shaders{
		GridVertex:    shaders.GridVertexShader,
		GridFragment:  shaders.GridFragmentShader,
		DepthVertex:   shaders.DepthVertexShader,
		DepthFragment: shaders.DepthFragmentShader,
	})
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}
