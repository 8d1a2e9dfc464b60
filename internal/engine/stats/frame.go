// Package stats collects per-frame rendering statistics.
package stats

import (
	"time"
)

// Frame counts draw calls and measures frame time. It is owned by the
// render thread and is not safe for concurrent use.
type Frame struct {
	drawCalls  int
	frames     uint64
	totalDraws uint64

	start     time.Time
	frameTime time.Duration
	now       func() time.Time
}

// NewFrame returns statistics with the clock set to time.Now.
func NewFrame() *Frame {
	return &Frame{now: time.Now}
}

// BeginFrame closes the previous frame and resets the per-frame counter.
func (f *Frame) BeginFrame() {
	t := f.now()
	if !f.start.IsZero() {
		f.frameTime = t.Sub(f.start)
		f.frames++
	}
	f.start = t
	f.drawCalls = 0
}

// CountDrawCall records one submitted draw.
func (f *Frame) CountDrawCall() {
	f.drawCalls++
	f.totalDraws++
}

// DrawCalls returns the draws submitted since BeginFrame.
func (f *Frame) DrawCalls() int {
	return f.drawCalls
}

// FrameTime returns the duration of the last completed frame.
func (f *Frame) FrameTime() time.Duration {
	return f.frameTime
}

// Totals returns completed frames and draws over the whole run.
func (f *Frame) Totals() (frames, draws uint64) {
	return f.frames, f.totalDraws
}

// AverageDraws returns the mean draws per completed frame.
func (f *Frame) AverageDraws() float64 {
	if f.frames == 0 {
		return 0
	}
	return float64(f.totalDraws) / float64(f.frames)
}
