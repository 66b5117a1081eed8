// Command system-control is a handshelf action plugin for volume,
// brightness and media playback. It uses AppleScript on macOS and pactl,
// brightnessctl and playerctl on Linux.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/ayusman/handshelf/internal/plugin"
)

// defaultStep is the volume or brightness change in percent.
const defaultStep = 10

// StepParams sets the change for the volume and brightness actions.
type StepParams struct {
	Step int `json:"step"`
}

type runFunc func(name string, args ...string) error

// command is one external program invocation.
type command struct {
	name string
	args []string
}

// platform maps an action to the command that performs it.
type platform func(action string, step int) (command, bool)

// actions lists what the plugin manifest advertises.
var actions = []string{
	"volume-up",
	"volume-down",
	"volume-mute",
	"brightness-up",
	"brightness-down",
	"media-play-pause",
	"media-next",
	"media-prev",
}

func main() {
	handlers := make(map[string]plugin.ActionFunc, len(actions))
	for _, name := range actions {
		handlers[name] = handle(platformFor(runtime.GOOS), runCommand)
	}
	if err := plugin.Serve(os.Stdin, os.Stdout, handlers); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func platformFor(goos string) platform {
	switch goos {
	case "darwin":
		return darwinCommand
	case "linux":
		return linuxCommand
	default:
		return nil
	}
}

func handle(p platform, run runFunc) plugin.ActionFunc {
	return func(req *plugin.Request) (any, error) {
		if p == nil {
			return nil, fmt.Errorf("system-control does not support %s", runtime.GOOS)
		}
		params := StepParams{Step: defaultStep}
		if err := req.DecodeParams(&params); err != nil {
			return nil, err
		}
		if params.Step <= 0 || params.Step > 100 {
			return nil, fmt.Errorf("step %d out of range 1-100", params.Step)
		}
		cmd, ok := p(req.Action, params.Step)
		if !ok {
			return nil, fmt.Errorf("action %s not available", req.Action)
		}
		return nil, run(cmd.name, cmd.args...)
	}
}

func osascript(script string) command {
	return command{name: "osascript", args: []string{"-e", script}}
}

// Media and brightness keys are sent as System Events key codes.
func darwinKey(code int) command {
	return osascript(fmt.Sprintf("tell application \"System Events\" to key code %d", code))
}

func darwinCommand(action string, step int) (command, bool) {
	switch action {
	case "volume-up":
		return osascript(fmt.Sprintf("set volume output volume ((output volume of (get volume settings)) + %d)", step)), true
	case "volume-down":
		return osascript(fmt.Sprintf("set volume output volume ((output volume of (get volume settings)) - %d)", step)), true
	case "volume-mute":
		return osascript("set volume output muted (not (output muted of (get volume settings)))"), true
	case "brightness-up":
		return darwinKey(144), true
	case "brightness-down":
		return darwinKey(145), true
	case "media-play-pause":
		return darwinKey(100), true
	case "media-next":
		return darwinKey(101), true
	case "media-prev":
		return darwinKey(98), true
	}
	return command{}, false
}

func linuxCommand(action string, step int) (command, bool) {
	pct := fmt.Sprintf("%d%%", step)
	switch action {
	case "volume-up":
		return command{"pactl", []string{"set-sink-volume", "@DEFAULT_SINK@", "+" + pct}}, true
	case "volume-down":
		return command{"pactl", []string{"set-sink-volume", "@DEFAULT_SINK@", "-" + pct}}, true
	case "volume-mute":
		return command{"pactl", []string{"set-sink-mute", "@DEFAULT_SINK@", "toggle"}}, true
	case "brightness-up":
		return command{"brightnessctl", []string{"set", "+" + pct}}, true
	case "brightness-down":
		return command{"brightnessctl", []string{"set", pct + "-"}}, true
	case "media-play-pause":
		return command{"playerctl", []string{"play-pause"}}, true
	case "media-next":
		return command{"playerctl", []string{"next"}}, true
	case "media-prev":
		return command{"playerctl", []string{"previous"}}, true
	}
	return command{}, false
}

func runCommand(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
