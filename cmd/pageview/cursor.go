package main

import (
	"image"

	draw9 "9fans.net/go/draw"
)

// lockarrow is a padlock, shown while the UI waits for a render.
var lockarrow = &draw9.Cursor{
	Point: image.Pt(-8, -8),
	White: [32]byte{
		0x00, 0x00, 0x07, 0x80, 0x07, 0x80, 0x07, 0x80,
		0x00, 0x00, 0x3F, 0xF0, 0x3F, 0xF0, 0x3F, 0xF0,
		0x3F, 0xF0, 0x3F, 0xF0, 0x3F, 0xF0, 0x3F, 0xF0,
		0x3F, 0xF0, 0x3F, 0xF0, 0x00, 0x00, 0x00, 0x00,
	},
	Black: [32]byte{
		0x0F, 0xC0, 0x08, 0x40, 0x08, 0x40, 0x08, 0x40,
		0x7F, 0xF8, 0x40, 0x08, 0x40, 0x08, 0x40, 0x08,
		0x40, 0x08, 0x40, 0x08, 0x40, 0x08, 0x40, 0x08,
		0x40, 0x08, 0x40, 0x08, 0x7F, 0xF8, 0x00, 0x00,
	},
}
