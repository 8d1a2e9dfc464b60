// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// GridVertexShader places grid chunk vertices on the procedural height field.
//
//go:embed grid.vert
var GridVertexShader string

// GridFragmentShader shades terrain and draws the barycentric wireframe.
//
//go:embed grid.frag
var GridFragmentShader string

// DepthVertexShader is the shadow pass vertex shader. It reads positions only.
//
//go:embed depth.vert
var DepthVertexShader string

// DepthFragmentShader is the empty shadow pass fragment shader.
//
//go:embed depth.frag
var DepthFragmentShader string
