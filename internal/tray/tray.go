// Package tray provides the system tray menu for handshelf: tracking on/off,
// the Scan/Browse mode and the last recognized gesture.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/handshelf/internal/gesture"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(running bool)
	onMode   func(m gesture.Mode)
	onOpenUI func()
	onQuit   func()
	running  bool
	mode     gesture.Mode
	last     string
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuScan        *systray.MenuItem
	menuBrowse      *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

// New creates a Tray showing tracking stopped in the given mode.
func New(mode gesture.Mode) *Tray {
	return &Tray{mode: mode}
}

// OnToggle sets the callback run when tracking is switched on or off.
func (t *Tray) OnToggle(fn func(running bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnModeChange sets the callback run when a mode item is chosen.
func (t *Tray) OnModeChange(fn func(m gesture.Mode)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMode = fn
}

// OnOpenUI sets the callback for the "Open UI" item. Without one the item
// is hidden.
func (t *Tray) OnOpenUI(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpenUI = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("handshelf")
	systray.SetTooltip("handshelf hand-gesture cursor")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.running), "Start or stop hand tracking")
	systray.AddSeparator()
	t.menuScan = systray.AddMenuItemCheckbox("Scan mode", "Wave to trigger", t.mode == gesture.ModeScan)
	t.menuBrowse = systray.AddMenuItemCheckbox("Browse mode", "Grab, release and swipe up", t.mode == gesture.ModeBrowse)
	systray.AddSeparator()
	t.menuLastGesture = systray.AddMenuItem(lastTitle(t.last), "Last recognized gesture")
	t.menuLastGesture.Disable()
	systray.AddSeparator()
	menuOpen := systray.AddMenuItem("Open UI...", "Open the web UI in a browser")
	if t.onOpenUI == nil {
		menuOpen.Hide()
	}
	menuQuit := systray.AddMenuItem("Quit", "Quit handshelf")
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuScan.ClickedCh:
				t.handleMode(gesture.ModeScan)
			case <-t.menuBrowse.ClickedCh:
				t.handleMode(gesture.ModeBrowse)
			case <-menuOpen.ClickedCh:
				t.handleOpenUI()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func toggleTitle(running bool) string {
	if running {
		return "● Tracking"
	}
	return "○ Stopped"
}

func lastTitle(name string) string {
	if name == "" {
		return "Last: none"
	}
	return "Last: " + name
}

// handleToggle flips the tracking state and runs the toggle callback.
func (t *Tray) handleToggle() {
	t.mu.RLock()
	want := !t.running
	callback := t.onToggle
	t.mu.RUnlock()

	// The callback confirms the state through SetRunning.
	if callback != nil {
		callback(want)
		return
	}
	t.SetRunning(want)
}

func (t *Tray) handleMode(m gesture.Mode) {
	t.SetMode(m)

	t.mu.RLock()
	callback := t.onMode
	t.mu.RUnlock()

	if callback != nil {
		callback(m)
	}
}

func (t *Tray) handleOpenUI() {
	t.mu.RLock()
	callback := t.onOpenUI
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetRunning updates the tracking item.
func (t *Tray) SetRunning(running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = running
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(running))
	}
}

// SetMode checks the item for m and unchecks the other.
func (t *Tray) SetMode(m gesture.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.mode = m
	if t.menuScan == nil || t.menuBrowse == nil {
		return
	}
	if m == gesture.ModeBrowse {
		t.menuBrowse.Check()
		t.menuScan.Uncheck()
	} else {
		t.menuScan.Check()
		t.menuBrowse.Uncheck()
	}
}

// SetLastGesture updates the last gesture display in the menu.
func (t *Tray) SetLastGesture(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = name
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(lastTitle(name))
	}
}

// Running returns the displayed tracking state.
func (t *Tray) Running() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}

// Mode returns the checked mode.
func (t *Tray) Mode() gesture.Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

// LastGesture returns the displayed last gesture.
func (t *Tray) LastGesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}
