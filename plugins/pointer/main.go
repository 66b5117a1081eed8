// Command pointer is a handshelf action plugin that clicks and scrolls at
// the cursor position carried by the gesture.
package main

import (
	"fmt"
	"math"
	"os"

	"github.com/ayusman/handshelf/internal/plugin"
)

// ClickParams selects the mouse button.
type ClickParams struct {
	Button string `json:"button"`
	Double bool   `json:"double"`
}

// ScrollParams sets the scroll distance in wheel steps.
type ScrollParams struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// mouse is the subset of robotgo the plugin drives.
type mouse interface {
	move(x, y int)
	click(button string, double bool)
	scroll(dx, dy int)
}

func main() {
	m := robotMouse{}
	actions := map[string]plugin.ActionFunc{
		"move":   move(m),
		"click":  click(m),
		"scroll": scroll(m),
	}
	if err := plugin.Serve(os.Stdin, os.Stdout, actions); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func position(req *plugin.Request) (int, int, error) {
	if req.X < 0 || req.Y < 0 || math.IsNaN(req.X) || math.IsNaN(req.Y) {
		return 0, 0, fmt.Errorf("position (%g, %g) is off screen", req.X, req.Y)
	}
	return int(math.Round(req.X)), int(math.Round(req.Y)), nil
}

func move(m mouse) plugin.ActionFunc {
	return func(req *plugin.Request) (any, error) {
		x, y, err := position(req)
		if err != nil {
			return nil, err
		}
		m.move(x, y)
		return nil, nil
	}
}

func click(m mouse) plugin.ActionFunc {
	return func(req *plugin.Request) (any, error) {
		p := ClickParams{Button: "left"}
		if err := req.DecodeParams(&p); err != nil {
			return nil, err
		}
		switch p.Button {
		case "left", "right", "center":
		default:
			return nil, fmt.Errorf("unknown button %q", p.Button)
		}
		x, y, err := position(req)
		if err != nil {
			return nil, err
		}
		m.move(x, y)
		m.click(p.Button, p.Double)
		return map[string]int{"x": x, "y": y}, nil
	}
}

// scroll moves five wheel steps by default, up for swipe_up and down
// otherwise.
func scroll(m mouse) plugin.ActionFunc {
	return func(req *plugin.Request) (any, error) {
		var p ScrollParams
		if err := req.DecodeParams(&p); err != nil {
			return nil, err
		}
		if p.DX == 0 && p.DY == 0 {
			p.DY = -5
			if req.Gesture == "swipe_up" {
				p.DY = 5
			}
		}
		m.scroll(p.DX, p.DY)
		return nil, nil
	}
}
