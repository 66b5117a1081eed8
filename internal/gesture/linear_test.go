package gesture

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// line returns n samples moving evenly from (x0, y0) to (x1, y1) over span.
func line(n int, x0, y0, x1, y1 float64, span time.Duration) []Sample {
	out := make([]Sample, n)
	for i := range out {
		f := float64(i) / float64(n-1)
		out[i] = Sample{
			X:  x0 + (x1-x0)*f,
			Y:  y0 + (y1-y0)*f,
			At: epoch.Add(span * time.Duration(i) / time.Duration(n-1)),
		}
	}
	return out
}

func feed(d *LinearDetector, samples []Sample, active bool) []int {
	var fired []int
	for i, s := range samples {
		if k := d.Step(s, active); k != KindNone {
			fired = append(fired, i+1)
		}
	}
	return fired
}

func waveConfig() LinearConfig {
	return LinearConfig{
		Window:         10,
		Distance:       0.25,
		MaxOffAxis:     0.12,
		MaxDuration:    600 * time.Millisecond,
		CooldownFrames: 20,
	}
}

func TestWave_ThresholdBoundary(t *testing.T) {
	cfg := waveConfig()

	t.Run("exact distance over exact max time fires", func(t *testing.T) {
		d := NewWaveDetector(cfg)
		fired := feed(d, line(cfg.Window, 0.25, 0.5, 0.5, 0.5, cfg.MaxDuration), true)
		if len(fired) != 1 || fired[0] != cfg.Window {
			t.Errorf("fired at %v, want [%d]", fired, cfg.Window)
		}
	})

	t.Run("same trajectory over twice the time does not fire", func(t *testing.T) {
		d := NewWaveDetector(cfg)
		fired := feed(d, line(cfg.Window, 0.25, 0.5, 0.5, 0.5, 2*cfg.MaxDuration), true)
		if len(fired) != 0 {
			t.Errorf("slow wave fired at %v", fired)
		}
	})

	t.Run("right to left also fires", func(t *testing.T) {
		d := NewWaveDetector(cfg)
		fired := feed(d, line(cfg.Window, 0.5, 0.5, 0.25, 0.5, cfg.MaxDuration), true)
		if len(fired) != 1 {
			t.Errorf("fired at %v, want one wave", fired)
		}
	})

	t.Run("short movement does not fire", func(t *testing.T) {
		d := NewWaveDetector(cfg)
		fired := feed(d, line(cfg.Window, 0.25, 0.5, 0.4, 0.5, cfg.MaxDuration/2), true)
		if len(fired) != 0 {
			t.Errorf("short wave fired at %v", fired)
		}
	})

	t.Run("diagonal movement does not fire", func(t *testing.T) {
		d := NewWaveDetector(cfg)
		fired := feed(d, line(cfg.Window, 0.25, 0.3, 0.5, 0.5, cfg.MaxDuration/2), true)
		if len(fired) != 0 {
			t.Errorf("diagonal fired at %v", fired)
		}
	})
}

func TestWave_NeedsFullWindow(t *testing.T) {
	cfg := waveConfig()
	d := NewWaveDetector(cfg)

	// A huge jump in fewer samples than the window never fires.
	fired := feed(d, line(cfg.Window-1, 0.0, 0.5, 1.0, 0.5, 100*time.Millisecond), true)
	if len(fired) != 0 {
		t.Errorf("partial window fired at %v", fired)
	}
}

func TestWave_InactiveDoesNotRecord(t *testing.T) {
	cfg := waveConfig()
	d := NewWaveDetector(cfg)

	fired := feed(d, line(cfg.Window, 0.25, 0.5, 0.5, 0.5, cfg.MaxDuration), false)
	if len(fired) != 0 {
		t.Errorf("inactive detector fired at %v", fired)
	}
	if d.History().Len() != 0 {
		t.Errorf("inactive detector recorded %d samples", d.History().Len())
	}
}

func TestWave_CooldownAndRearm(t *testing.T) {
	cfg := waveConfig()
	cfg.CooldownFrames = 5
	d := NewWaveDetector(cfg)

	first := line(cfg.Window, 0.25, 0.5, 0.5, 0.5, cfg.MaxDuration)
	if fired := feed(d, first, true); len(fired) != 1 {
		t.Fatalf("first wave fired at %v", fired)
	}
	if d.History().Len() != 0 {
		t.Errorf("history not cleared on fire, len %d", d.History().Len())
	}
	if d.Cooldown() != cfg.CooldownFrames {
		t.Errorf("cooldown = %d, want %d", d.Cooldown(), cfg.CooldownFrames)
	}

	// A second identical wave right away: the first 5 frames are cooling
	// and the window only fills at frame 10, so it fires exactly there.
	second := line(cfg.Window, 0.5, 0.5, 0.25, 0.5, cfg.MaxDuration)
	for i := range second {
		second[i].At = second[i].At.Add(time.Second)
	}
	fired := feed(d, second, true)
	if len(fired) != 1 || fired[0] != cfg.Window {
		t.Errorf("second wave fired at %v, want [%d]", fired, cfg.Window)
	}
}

func TestWave_CooldownSuppressesFullWindow(t *testing.T) {
	cfg := waveConfig()
	cfg.Window = 8
	cfg.CooldownFrames = 12
	d := NewWaveDetector(cfg)

	if fired := feed(d, line(cfg.Window, 0.25, 0.5, 0.5, 0.5, 300*time.Millisecond), true); len(fired) != 1 {
		t.Fatalf("first wave fired at %v", fired)
	}

	// Window refills after 8 frames while 12 cooldown frames remain.
	next := line(cfg.Window, 0.5, 0.5, 0.25, 0.5, 300*time.Millisecond)
	for i := range next {
		next[i].At = next[i].At.Add(time.Second)
	}
	if fired := feed(d, next, true); len(fired) != 0 {
		t.Errorf("wave fired during cooldown at %v", fired)
	}
}

func TestSwipeUp(t *testing.T) {
	cfg := LinearConfig{
		Window:         8,
		Distance:       0.25,
		MaxOffAxis:     0.15,
		MaxDuration:    400 * time.Millisecond,
		CooldownFrames: 20,
	}

	t.Run("upward movement fires", func(t *testing.T) {
		d := NewSwipeUpDetector(cfg)
		fired := feed(d, line(cfg.Window, 0.5, 0.75, 0.5, 0.5, cfg.MaxDuration), true)
		if len(fired) != 1 || fired[0] != cfg.Window {
			t.Errorf("fired at %v, want [%d]", fired, cfg.Window)
		}
	})

	t.Run("downward movement does not fire", func(t *testing.T) {
		d := NewSwipeUpDetector(cfg)
		fired := feed(d, line(cfg.Window, 0.5, 0.5, 0.5, 0.75, cfg.MaxDuration), true)
		if len(fired) != 0 {
			t.Errorf("downward swipe fired at %v", fired)
		}
	})

	t.Run("sideways drift does not fire", func(t *testing.T) {
		d := NewSwipeUpDetector(cfg)
		fired := feed(d, line(cfg.Window, 0.25, 0.75, 0.5, 0.5, cfg.MaxDuration), true)
		if len(fired) != 0 {
			t.Errorf("drifting swipe fired at %v", fired)
		}
	})

	t.Run("slow movement does not fire", func(t *testing.T) {
		d := NewSwipeUpDetector(cfg)
		fired := feed(d, line(cfg.Window, 0.5, 0.75, 0.5, 0.5, 2*cfg.MaxDuration), true)
		if len(fired) != 0 {
			t.Errorf("slow swipe fired at %v", fired)
		}
	})
}
