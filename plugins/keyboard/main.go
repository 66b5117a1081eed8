// Command keyboard is a handshelf action plugin that turns gestures into
// key presses. It drives System Events on macOS and xdotool on Linux.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/ayusman/handshelf/internal/plugin"
)

// KeyParams selects the key for the keystroke and shortcut actions.
type KeyParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"`
}

// GestureParams overrides the default key per gesture for the
// gesture-key action.
type GestureParams struct {
	Keys map[string]string `json:"keys"`
}

// defaultGestureKeys moves through a shelf with the arrow-and-page keys.
var defaultGestureKeys = map[string]string{
	"grab":      "return",
	"open_hand": "escape",
	"wave":      "right",
	"swipe_up":  "page_up",
}

// keyboard sends a key with modifiers.
type keyboard interface {
	press(key string, modifiers []string) error
}

func main() {
	kb, err := newKeyboard(runtime.GOOS)
	actions := map[string]plugin.ActionFunc{
		"keystroke":   keystroke(kb, err),
		"shortcut":    keystroke(kb, err),
		"gesture-key": gestureKey(kb, err),
	}
	if err := plugin.Serve(os.Stdin, os.Stdout, actions); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newKeyboard(goos string) (keyboard, error) {
	switch goos {
	case "darwin":
		return appleKeyboard{run: runCommand}, nil
	case "linux":
		return xdotoolKeyboard{run: runCommand}, nil
	default:
		return nil, fmt.Errorf("keyboard plugin does not support %s", goos)
	}
}

func keystroke(kb keyboard, kbErr error) plugin.ActionFunc {
	return func(req *plugin.Request) (any, error) {
		if kbErr != nil {
			return nil, kbErr
		}
		var p KeyParams
		if err := req.DecodeParams(&p); err != nil {
			return nil, err
		}
		if p.Key == "" {
			return nil, errors.New("key is required")
		}
		return nil, kb.press(p.Key, p.Modifiers)
	}
}

func gestureKey(kb keyboard, kbErr error) plugin.ActionFunc {
	return func(req *plugin.Request) (any, error) {
		if kbErr != nil {
			return nil, kbErr
		}
		var p GestureParams
		if err := req.DecodeParams(&p); err != nil {
			return nil, err
		}
		key, ok := p.Keys[req.Gesture]
		if !ok {
			key, ok = defaultGestureKeys[req.Gesture]
		}
		if !ok {
			return nil, fmt.Errorf("no key for gesture %q", req.Gesture)
		}
		if err := kb.press(key, nil); err != nil {
			return nil, err
		}
		return map[string]string{"key": key}, nil
	}
}

func runCommand(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
