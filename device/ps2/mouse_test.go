package ps2

import (
	"testing"

	"github.com/srunixre/srunix/device/video/console"
)

func feedPacket(d *MouseDecoder, status, dx, dy uint8) (MouseEvent, bool) {
	d.Feed(status)
	d.Feed(dx)
	return d.Feed(dy)
}

func TestMouseInitialPosition(t *testing.T) {
	d := NewMouseDecoder(80, 25)
	if x, y := d.Position(); x != 40 || y != 12 {
		t.Fatalf("expected initial position (40, 12); got (%d, %d)", x, y)
	}
}

func TestMouseMovement(t *testing.T) {
	specs := []struct {
		status, dx, dy uint8
		expX, expY     uint32
	}{
		// moves are halved
		{0x08, 10, 0, 45, 12},
		// positive Y moves up
		{0x08, 0, 4, 40, 10},
		// negative X via the sign bit: 0xF6 = -10
		{0x08 | mouseXSign, 0xF6, 0, 35, 12},
		// negative Y moves down: 0xFA = -6
		{0x08 | mouseYSign, 0, 0xFA, 40, 15},
		// odd deltas truncate towards zero
		{0x08 | mouseXSign, 0xFD, 3, 39, 11},
		// clamped to the console bounds
		{0x08, 200, 200, 79, 0},
		{0x08 | mouseXSign | mouseYSign, 0x01, 0x01, 0, 24},
	}

	for specIndex, spec := range specs {
		d := NewMouseDecoder(80, 25)
		ev, ok := feedPacket(d, spec.status, spec.dx, spec.dy)
		if !ok {
			t.Errorf("[spec %d] expected a complete packet to yield an event", specIndex)
			continue
		}

		if ev.X != spec.expX || ev.Y != spec.expY {
			t.Errorf("[spec %d] expected position (%d, %d); got (%d, %d)", specIndex, spec.expX, spec.expY, ev.X, ev.Y)
		}
	}
}

func TestMouseButtons(t *testing.T) {
	d := NewMouseDecoder(80, 25)
	ev, _ := feedPacket(d, 0x08|mouseRightButton|mouseMiddleButton, 0, 0)
	if ev.Left || !ev.Right || !ev.Middle {
		t.Fatalf("expected right and middle buttons; got %+v", ev)
	}
}

func TestMouseMissingMarkerBit(t *testing.T) {
	d := NewMouseDecoder(80, 25)

	// The status byte lacks bit 3 so the decoder stays in phase 0 and the
	// next two bytes are treated as candidate status bytes too.
	for _, b := range []uint8{0x00, 0x10, 0x20} {
		if _, ok := d.Feed(b); ok {
			t.Fatal("expected no event while resynchronizing")
		}
	}

	if x, y := d.Position(); x != 40 || y != 12 {
		t.Fatalf("expected position to remain (40, 12); got (%d, %d)", x, y)
	}

	// A valid packet right after resynchronization is decoded normally.
	ev, ok := feedPacket(d, 0x08, 4, 0)
	if !ok || ev.X != 42 {
		t.Fatalf("expected packet after resync to move the pointer to x=42; got %+v (%t)", ev, ok)
	}
}

func TestMousePhaseResets(t *testing.T) {
	d := NewMouseDecoder(80, 25)
	for i := 0; i < 3; i++ {
		if _, ok := feedPacket(d, 0x08, 2, 0); !ok {
			t.Fatalf("[packet %d] expected an event", i)
		}
	}

	if x, _ := d.Position(); x != 43 {
		t.Fatalf("expected three packets to move the pointer to x=43; got %d", x)
	}
}

func TestMouseSelection(t *testing.T) {
	d := NewMouseDecoder(80, 25)

	ev, _ := feedPacket(d, 0x08|mouseLeftButton, 0, 0)
	if !ev.Selecting || ev.Selection != (console.Span{X0: 40, Y0: 12, X1: 40, Y1: 12}) {
		t.Fatalf("expected selection to start at the pointer; got %+v", ev)
	}

	ev, _ = feedPacket(d, 0x08|mouseLeftButton, 10, 0)
	if exp := (console.Span{X0: 40, Y0: 12, X1: 45, Y1: 12}); !ev.Selecting || ev.Selection != exp {
		t.Fatalf("expected selection %+v; got %+v", exp, ev.Selection)
	}

	ev, _ = feedPacket(d, 0x08|mouseLeftButton|mouseYSign, 0, 0xFC)
	if exp := (console.Span{X0: 40, Y0: 12, X1: 45, Y1: 14}); ev.Selection != exp {
		t.Fatalf("expected selection %+v; got %+v", exp, ev.Selection)
	}

	ev, _ = feedPacket(d, 0x08, 0, 0)
	if ev.Selecting {
		t.Fatal("expected selection to end on release")
	}
	if exp := (console.Span{X0: 40, Y0: 12, X1: 45, Y1: 14}); !ev.HasCleared || ev.Cleared != exp {
		t.Fatalf("expected release to report cleared selection %+v; got %+v", exp, ev)
	}

	ev, _ = feedPacket(d, 0x08, 0, 0)
	if ev.HasCleared || ev.Selecting {
		t.Fatalf("expected no selection activity without a button press; got %+v", ev)
	}

	ev, _ = feedPacket(d, 0x08|mouseLeftButton, 0, 0)
	if exp := (console.Span{X0: 45, Y0: 14, X1: 45, Y1: 14}); ev.Selection != exp {
		t.Fatalf("expected a new selection to start at the pointer %+v; got %+v", exp, ev.Selection)
	}
}
