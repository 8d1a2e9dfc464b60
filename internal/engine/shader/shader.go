// Package shader compiles GLSL programs and caches their attribute and
// uniform locations.
package shader

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/cdlod-grid/internal/engine/gpu"
	"github.com/Faultbox/cdlod-grid/internal/logger"
)

// Program is a linked GLSL program. Sources are kept so the program can be
// rebuilt after the GL context is lost.
type Program struct {
	name        string
	vertexSrc   string
	fragmentSrc string
	id          uint32
	attribs     map[string]int32
	uniforms    map[string]int32
}

// New compiles and links a program. name is used in logs and errors only.
func New(name, vertexSrc, fragmentSrc string) (*Program, error) {
	p := &Program{name: name, vertexSrc: vertexSrc, fragmentSrc: fragmentSrc}
	if err := p.build(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Program) build() error {
	id, err := CompileProgram(p.vertexSrc, p.fragmentSrc)
	if err != nil {
		return fmt.Errorf("program %s: %w", p.name, err)
	}
	p.id = id
	p.attribs = make(map[string]int32)
	p.uniforms = make(map[string]int32)
	logger.Named("shader").Debug("program linked", zap.String("name", p.name), zap.Uint32("id", id))
	return nil
}

// Reload rebuilds the program in the current context. The old program
// handle is abandoned with its context.
func (p *Program) Reload() error {
	p.id = 0
	return p.build()
}

// ID returns the GL program name.
func (p *Program) ID() uint32 {
	return p.id
}

// Use makes the program current.
func (p *Program) Use() {
	gl.UseProgram(p.id)
}

// AttribLocation returns the location of a vertex attribute, or
// gpu.InvalidLocation when the linked program does not use it.
func (p *Program) AttribLocation(name string) int32 {
	if loc, ok := p.attribs[name]; ok {
		return loc
	}
	loc := gl.GetAttribLocation(p.id, gl.Str(name+"\x00"))
	if loc < 0 {
		loc = gpu.InvalidLocation
	}
	p.attribs[name] = loc
	return loc
}

// Uniform returns the location of a uniform, or -1 when it is inactive.
func (p *Program) Uniform(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := GetUniform(p.id, name)
	p.uniforms[name] = loc
	return loc
}

// Destroy deletes the program.
func (p *Program) Destroy() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}

// CompileProgram compiles vertex and fragment shaders and links them into a program.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", strings.TrimRight(log, "\x00"))
	}

	return program, nil
}

func compileShader(source string, shaderType uint32, stage string) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(sh, 1, csource, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(log))
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("%s shader: %s", stage, strings.TrimRight(log, "\x00"))
	}

	return sh, nil
}

// GetUniform returns the uniform location for the given name, -1 if inactive.
func GetUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
