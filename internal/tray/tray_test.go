package tray

import (
	"testing"

	"github.com/ayusman/handshelf/internal/gesture"
)

// These tests drive the click handlers directly; the menu itself needs a
// desktop session.

func TestTray_Toggle(t *testing.T) {
	t.Run("without callback flips state", func(t *testing.T) {
		tr := New(gesture.ModeScan)
		tr.handleToggle()
		if !tr.Running() {
			t.Error("expected running after toggle")
		}
		tr.handleToggle()
		if tr.Running() {
			t.Error("expected stopped after second toggle")
		}
	})

	t.Run("callback decides the state", func(t *testing.T) {
		tr := New(gesture.ModeScan)
		var asked []bool
		tr.OnToggle(func(running bool) {
			asked = append(asked, running)
			// Starting failed; state stays stopped.
		})

		tr.handleToggle()
		if len(asked) != 1 || !asked[0] {
			t.Errorf("callback got %v, want [true]", asked)
		}
		if tr.Running() {
			t.Error("tray shows running although the callback never confirmed")
		}
	})
}

func TestTray_Mode(t *testing.T) {
	tr := New(gesture.ModeScan)
	var got []gesture.Mode
	tr.OnModeChange(func(m gesture.Mode) { got = append(got, m) })

	tr.handleMode(gesture.ModeBrowse)
	if tr.Mode() != gesture.ModeBrowse {
		t.Errorf("Mode() = %v, want browse", tr.Mode())
	}
	if len(got) != 1 || got[0] != gesture.ModeBrowse {
		t.Errorf("callback got %v", got)
	}

	tr.SetMode(gesture.ModeScan)
	if tr.Mode() != gesture.ModeScan {
		t.Errorf("Mode() = %v after SetMode, want scan", tr.Mode())
	}
	if len(got) != 1 {
		t.Error("SetMode must not run the mode callback")
	}
}

func TestTray_LastGesture(t *testing.T) {
	tr := New(gesture.ModeBrowse)
	if tr.LastGesture() != "" || lastTitle(tr.LastGesture()) != "Last: none" {
		t.Errorf("initial last gesture = %q", tr.LastGesture())
	}

	tr.SetLastGesture("grab")
	if tr.LastGesture() != "grab" || lastTitle(tr.LastGesture()) != "Last: grab" {
		t.Errorf("last gesture = %q", tr.LastGesture())
	}
}

func TestTray_OpenUI(t *testing.T) {
	tr := New(gesture.ModeScan)
	tr.handleOpenUI() // no callback, no panic

	opened := false
	tr.OnOpenUI(func() { opened = true })
	tr.handleOpenUI()
	if !opened {
		t.Error("open UI callback not run")
	}
}
