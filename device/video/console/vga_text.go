package console

import (
	"io"
	"unsafe"

	"github.com/srunixre/srunix/kernel"
	"github.com/srunixre/srunix/kernel/kfmt"
)

const (
	crtcIndexPort = 0x3D4

	crtcCursorLocationHigh = 0x0E
	crtcCursorLocationLow  = 0x0F

	// pointerCell is drawn at the mouse position: a solid block in white.
	pointerCell = Cell(0xDB | uint16(White)<<8)
)

var _ io.Writer = (*VgaTextConsole)(nil)

// VgaTextConsole implements a text console over the VGA mode 0x3 frame
// buffer. Each character is represented using two bytes: one for the
// character code and one that encodes the foreground and background colors
// (4 bits each).
//
// The console tracks a cursor and the active color and re-programs the
// hardware cursor after every mutation.
type VgaTextConsole struct {
	width  uint32
	height uint32

	fbPhysAddr uintptr
	fb         []Cell

	curX, curY uint32
	attr       Attr

	pointerShown bool
	pointerPos   uint32
	pointerSaved Cell
}

// NewVgaTextConsole creates an new vga text console with its
// framebuffer located at fbPhysAddr.
func NewVgaTextConsole(columns, rows uint32, fbPhysAddr uintptr) *VgaTextConsole {
	return &VgaTextConsole{
		width:      columns,
		height:     rows,
		fbPhysAddr: fbPhysAddr,
		attr:       DefaultAttr,
	}
}

// Dimensions returns the console width and height in characters.
func (cons *VgaTextConsole) Dimensions() (uint32, uint32) {
	return cons.width, cons.height
}

// Cursor returns the current cursor position.
func (cons *VgaTextConsole) Cursor() (uint32, uint32) {
	return cons.curX, cons.curY
}

// SetCursor moves the cursor to (x, y).
func (cons *VgaTextConsole) SetCursor(x, y uint32) {
	if x >= cons.width {
		x = cons.width - 1
	}
	if y >= cons.height {
		y = cons.height - 1
	}

	cons.curX, cons.curY = x, y
	cons.updateHWCursor()
}

// Color returns the active attribute.
func (cons *VgaTextConsole) Color() Attr {
	return cons.attr
}

// SetColor sets the attribute used for subsequent writes.
func (cons *VgaTextConsole) SetColor(attr Attr) {
	cons.attr = attr
}

// Write implements io.Writer.
func (cons *VgaTextConsole) Write(p []byte) (int, error) {
	defer cons.dropPointer(cons.liftPointer())

	for _, ch := range p {
		cons.putChar(ch)
	}
	cons.updateHWCursor()

	return len(p), nil
}

// WriteByte implements io.ByteWriter.
func (cons *VgaTextConsole) WriteByte(ch byte) error {
	defer cons.dropPointer(cons.liftPointer())

	cons.putChar(ch)
	cons.updateHWCursor()
	return nil
}

func (cons *VgaTextConsole) putChar(ch byte) {
	blank := MakeCell(' ', cons.attr)

	switch ch {
	case '\n':
		cons.curX = 0
		if cons.curY++; cons.curY == cons.height {
			cons.scroll()
		}
	case '\b':
		switch {
		case cons.curX > 0:
			cons.curX--
		case cons.curY > 0:
			cons.curY--
			cons.curX = cons.width - 1
		default:
			return
		}
		cons.fb[cons.curY*cons.width+cons.curX] = blank
	default:
		cons.fb[cons.curY*cons.width+cons.curX] = MakeCell(ch, cons.attr)
		if cons.curX++; cons.curX == cons.width {
			cons.curX = 0
			if cons.curY++; cons.curY == cons.height {
				cons.scroll()
			}
		}
	}
}

// Clear blanks the console and homes the cursor.
func (cons *VgaTextConsole) Clear() {
	defer cons.dropPointer(cons.liftPointer())

	blank := MakeCell(' ', cons.attr)
	for i := range cons.fb {
		cons.fb[i] = blank
	}

	cons.curX, cons.curY = 0, 0
	cons.updateHWCursor()
}

// Scroll moves the console contents up by one row.
func (cons *VgaTextConsole) Scroll() {
	defer cons.dropPointer(cons.liftPointer())

	cons.scroll()
	cons.updateHWCursor()
}

func (cons *VgaTextConsole) scroll() {
	lastRow := (cons.height - 1) * cons.width
	copy(cons.fb[:lastRow], cons.fb[cons.width:])

	blank := MakeCell(' ', cons.attr)
	for i := lastRow; i < lastRow+cons.width; i++ {
		cons.fb[i] = blank
	}

	cons.curX, cons.curY = 0, cons.height-1
}

// Snapshot copies the cell grid, without the mouse pointer, into dst.
func (cons *VgaTextConsole) Snapshot(dst []Cell) {
	defer cons.dropPointer(cons.liftPointer())

	copy(dst, cons.fb)
}

// Restore copies src onto the cell grid.
func (cons *VgaTextConsole) Restore(src []Cell) {
	defer cons.dropPointer(cons.liftPointer())

	copy(cons.fb, src)
	cons.updateHWCursor()
}

// Highlight applies attr to the cells covered by s.
func (cons *VgaTextConsole) Highlight(s Span, attr Attr) {
	cons.recolor(s, attr)
}

// Unhighlight applies the active color to the cells covered by s.
func (cons *VgaTextConsole) Unhighlight(s Span) {
	cons.recolor(s, cons.attr)
}

func (cons *VgaTextConsole) recolor(s Span, attr Attr) {
	defer cons.dropPointer(cons.liftPointer())

	s = s.Normalize()
	if s.Y1 >= cons.height {
		s.Y1 = cons.height - 1
	}

	for y := s.Y0; y <= s.Y1; y++ {
		startX, endX := uint32(0), cons.width-1
		if y == s.Y0 {
			startX = s.X0
		}
		if y == s.Y1 && s.X1 < endX {
			endX = s.X1
		}

		for x := startX; x <= endX; x++ {
			offset := y*cons.width + x
			cons.fb[offset] = MakeCell(cons.fb[offset].Char(), attr)
		}
	}
}

// ShowPointer draws the mouse pointer at (x, y). The pointer is an overlay:
// every other console operation sees the cell underneath it.
func (cons *VgaTextConsole) ShowPointer(x, y uint32) {
	if x >= cons.width || y >= cons.height {
		return
	}

	cons.HidePointer()
	cons.pointerPos = y*cons.width + x
	cons.dropPointer(true)
}

// HidePointer restores the cell under the mouse pointer.
func (cons *VgaTextConsole) HidePointer() {
	cons.liftPointer()
}

// liftPointer puts back the cell under the pointer and reports whether the
// pointer was visible.
func (cons *VgaTextConsole) liftPointer() bool {
	if !cons.pointerShown {
		return false
	}

	cons.fb[cons.pointerPos] = cons.pointerSaved
	cons.pointerShown = false
	return true
}

// dropPointer draws the pointer at pointerPos if lifted is set, saving the
// cell it covers.
func (cons *VgaTextConsole) dropPointer(lifted bool) {
	if !lifted {
		return
	}

	cons.pointerSaved = cons.fb[cons.pointerPos]
	cons.fb[cons.pointerPos] = pointerCell
	cons.pointerShown = true
}

// updateHWCursor programs the CRT controller cursor location registers. Each
// register is selected and loaded with a single word write to the index port.
func (cons *VgaTextConsole) updateHWCursor() {
	pos := uint16(cons.curY*cons.width + cons.curX)
	portWriteWordFn(crtcIndexPort, crtcCursorLocationLow|pos<<8)
	portWriteWordFn(crtcIndexPort, crtcCursorLocationHigh|pos&0xff00)
}

// DriverName returns the name of this driver.
func (cons *VgaTextConsole) DriverName() string {
	return "vga_text_console"
}

// DriverVersion returns the version of this driver.
func (cons *VgaTextConsole) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit initializes this driver. Memory is identity mapped so the frame
// buffer is accessed directly at its physical address.
func (cons *VgaTextConsole) DriverInit(w io.Writer) *kernel.Error {
	cons.fb = unsafe.Slice((*Cell)(unsafe.Pointer(cons.fbPhysAddr)), int(cons.width*cons.height))
	cons.Clear()

	kfmt.Fprintf(w, "%dx%d text mode, frame buffer at 0x%x\n", cons.width, cons.height, cons.fbPhysAddr)
	return nil
}
