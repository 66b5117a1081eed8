package main

import "github.com/go-vgo/robotgo"

type robotMouse struct{}

func (robotMouse) move(x, y int) {
	robotgo.Move(x, y)
}

func (robotMouse) click(button string, double bool) {
	robotgo.Click(button, double)
}

func (robotMouse) scroll(dx, dy int) {
	robotgo.Scroll(dx, dy)
}
