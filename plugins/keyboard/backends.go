package main

import (
	"fmt"
	"strings"
)

type runFunc func(name string, args ...string) error

// appleKeyboard presses keys through System Events.
type appleKeyboard struct {
	run runFunc
}

// appleKeyCodes covers the named keys that keystroke cannot type.
var appleKeyCodes = map[string]int{
	"return":    36,
	"tab":       48,
	"space":     49,
	"delete":    51,
	"escape":    53,
	"home":      115,
	"page_up":   116,
	"end":       119,
	"page_down": 121,
	"left":      123,
	"right":     124,
	"down":      125,
	"up":        126,
}

var appleModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

func (k appleKeyboard) press(key string, modifiers []string) error {
	return k.run("osascript", "-e", appleScript(key, modifiers))
}

func appleScript(key string, modifiers []string) string {
	var press string
	if code, ok := appleKeyCodes[strings.ToLower(key)]; ok {
		press = fmt.Sprintf("key code %d", code)
	} else {
		press = fmt.Sprintf("keystroke %q", key)
	}

	var mods []string
	for _, m := range modifiers {
		if am, ok := appleModifiers[strings.ToLower(m)]; ok {
			mods = append(mods, am)
		}
	}
	if len(mods) > 0 {
		press += " using {" + strings.Join(mods, ", ") + "}"
	}
	return `tell application "System Events" to ` + press
}

// xdotoolKeyboard presses keys through xdotool.
type xdotoolKeyboard struct {
	run runFunc
}

var xdotoolKeys = map[string]string{
	"return":    "Return",
	"tab":       "Tab",
	"space":     "space",
	"delete":    "BackSpace",
	"escape":    "Escape",
	"home":      "Home",
	"page_up":   "Prior",
	"end":       "End",
	"page_down": "Next",
	"left":      "Left",
	"right":     "Right",
	"down":      "Down",
	"up":        "Up",
}

var xdotoolModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

func (k xdotoolKeyboard) press(key string, modifiers []string) error {
	return k.run("xdotool", "key", "--clearmodifiers", xdotoolChord(key, modifiers))
}

func xdotoolChord(key string, modifiers []string) string {
	name, ok := xdotoolKeys[strings.ToLower(key)]
	if !ok {
		name = key
	}
	parts := make([]string, 0, len(modifiers)+1)
	for _, m := range modifiers {
		if xm, ok := xdotoolModifiers[strings.ToLower(m)]; ok {
			parts = append(parts, xm)
		}
	}
	return strings.Join(append(parts, name), "+")
}
