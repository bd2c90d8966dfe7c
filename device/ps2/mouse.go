package ps2

import "github.com/srunixre/srunix/device/video/console"

const (
	mouseLeftButton   = 1 << 0
	mouseRightButton  = 1 << 1
	mouseMiddleButton = 1 << 2
	mouseAlwaysOne    = 1 << 3
	mouseXSign        = 1 << 4
	mouseYSign        = 1 << 5
)

// MouseEvent describes the pointer state after a complete packet.
type MouseEvent struct {
	// Position in character cells.
	X, Y uint32

	Left, Right, Middle bool

	// Selection is the span dragged with the left button; only valid if
	// Selecting is true.
	Selection console.Span
	Selecting bool

	// Cleared holds the selection that ended with this packet; only valid
	// if HasCleared is true. The caller is expected to remove it from the
	// screen.
	Cleared    console.Span
	HasCleared bool
}

// MouseDecoder assembles 3-byte PS/2 mouse packets and tracks the pointer
// position and the drag selection. It performs no I/O.
type MouseDecoder struct {
	phase  int
	status uint8
	dx     uint8

	width, height int
	x, y          int

	selecting bool
	selection console.Span
}

// NewMouseDecoder returns a decoder whose pointer starts at the center of a
// width x height console.
func NewMouseDecoder(width, height uint32) *MouseDecoder {
	return &MouseDecoder{
		width:  int(width),
		height: int(height),
		x:      int(width / 2),
		y:      int(height / 2),
	}
}

// Position returns the pointer position.
func (d *MouseDecoder) Position() (x, y uint32) {
	return uint32(d.x), uint32(d.y)
}

// Feed processes one byte of the packet stream. It returns an event and true
// once the third byte of a packet has been consumed. A status byte without
// the always-one bit is discarded so the decoder can resynchronize.
func (d *MouseDecoder) Feed(b uint8) (MouseEvent, bool) {
	switch d.phase {
	case 0:
		if b&mouseAlwaysOne == 0 {
			return MouseEvent{}, false
		}
		d.status = b
		d.phase = 1
		return MouseEvent{}, false
	case 1:
		d.dx = b
		d.phase = 2
		return MouseEvent{}, false
	}

	d.phase = 0
	return d.apply(d.status, d.dx, b), true
}

func (d *MouseDecoder) apply(status, rawX, rawY uint8) MouseEvent {
	dx, dy := int(rawX), int(rawY)
	if status&mouseXSign != 0 {
		dx -= 0x100
	}
	if status&mouseYSign != 0 {
		dy -= 0x100
	}

	// Screen rows grow downwards and the raw motion is halved.
	dy = -dy
	d.x = clamp(d.x+dx/2, d.width)
	d.y = clamp(d.y+dy/2, d.height)

	ev := MouseEvent{
		X:      uint32(d.x),
		Y:      uint32(d.y),
		Left:   status&mouseLeftButton != 0,
		Right:  status&mouseRightButton != 0,
		Middle: status&mouseMiddleButton != 0,
	}

	switch {
	case ev.Left:
		if !d.selecting {
			d.selecting = true
			d.selection.X0, d.selection.Y0 = ev.X, ev.Y
		}
		d.selection.X1, d.selection.Y1 = ev.X, ev.Y
		ev.Selection, ev.Selecting = d.selection, true
	case d.selecting:
		ev.Cleared, ev.HasCleared = d.selection, true
		d.selecting = false
		d.selection = console.Span{}
	}

	return ev
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v >= limit {
		return limit - 1
	}
	return v
}
