package stats

import (
	"testing"
	"time"
)

func fakeClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestFrameCountsDrawCalls(t *testing.T) {
	f := &Frame{now: fakeClock(16 * time.Millisecond)}

	f.BeginFrame()
	f.CountDrawCall()
	f.CountDrawCall()
	if f.DrawCalls() != 2 {
		t.Errorf("expected 2 draw calls, got %d", f.DrawCalls())
	}

	f.BeginFrame()
	if f.DrawCalls() != 0 {
		t.Errorf("expected counter reset, got %d", f.DrawCalls())
	}
	f.CountDrawCall()

	frames, draws := f.Totals()
	if frames != 1 || draws != 3 {
		t.Errorf("totals: got %d frames %d draws, want 1 and 3", frames, draws)
	}
	if f.FrameTime() != 16*time.Millisecond {
		t.Errorf("frame time: got %v", f.FrameTime())
	}
	if f.AverageDraws() != 3 {
		t.Errorf("average: got %f, want 3", f.AverageDraws())
	}
}

func TestFrameNoCompletedFrames(t *testing.T) {
	f := NewFrame()
	if f.AverageDraws() != 0 || f.FrameTime() != 0 {
		t.Error("expected zero stats before the first frame completes")
	}
	f.BeginFrame()
	if frames, _ := f.Totals(); frames != 0 {
		t.Errorf("first BeginFrame should not complete a frame, got %d", frames)
	}
}
