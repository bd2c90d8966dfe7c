package console

// Attr is a packed text attribute: background color in the upper nibble and
// foreground color in the lower nibble.
type Attr uint8

// The 16 EGA colors supported by the text console.
const (
	Black uint8 = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGray
	DarkGray
	LightBlue
	LightGreen
	LightCyan
	LightRed
	LightMagenta
	Yellow
	White
)

// DefaultAttr is white text on a black background.
const DefaultAttr = Attr(Black<<4 | White)

// MakeAttr packs a foreground and background color into an Attr.
func MakeAttr(fg, bg uint8) Attr {
	return Attr((bg&0xf)<<4 | fg&0xf)
}

// Fg returns the foreground color.
func (a Attr) Fg() uint8 { return uint8(a) & 0xf }

// Bg returns the background color.
func (a Attr) Bg() uint8 { return uint8(a) >> 4 }

// Cell is a single text-mode frame buffer entry: the character code in bits
// 0-7 and the attribute in bits 8-15.
type Cell uint16

// MakeCell packs a character and an attribute into a Cell.
func MakeCell(ch byte, attr Attr) Cell {
	return Cell(uint16(attr)<<8 | uint16(ch))
}

// Char returns the character stored in the cell.
func (c Cell) Char() byte { return byte(c) }

// Attr returns the attribute stored in the cell.
func (c Cell) Attr() Attr { return Attr(c >> 8) }

// Span describes a row-major run of cells between two screen positions. The
// end points may be given in any order; Normalize orders them.
type Span struct {
	X0, Y0 uint32
	X1, Y1 uint32
}

// Normalize returns a copy of s with its start before its end in row-major
// order.
func (s Span) Normalize() Span {
	if s.Y0 > s.Y1 || (s.Y0 == s.Y1 && s.X0 > s.X1) {
		s.X0, s.Y0, s.X1, s.Y1 = s.X1, s.Y1, s.X0, s.Y0
	}
	return s
}

// The Device interface is implemented by objects that can function as system
// consoles. All coordinates are 0-based with the origin at the top-left cell.
type Device interface {
	// Dimensions returns the width and height of the console in characters.
	Dimensions() (width, height uint32)

	// Cursor returns the current cursor position.
	Cursor() (x, y uint32)

	// SetCursor moves the cursor, clipping the position to the console
	// bounds, and updates the hardware cursor.
	SetCursor(x, y uint32)

	// Color returns the attribute applied to subsequently written cells.
	Color() Attr

	// SetColor sets the attribute applied to subsequently written cells.
	// Cells already on screen keep their colors.
	SetColor(Attr)

	// Write writes p at the cursor interpreting line feeds and
	// backspaces. It implements io.Writer so the console can be used as
	// the kfmt output sink.
	Write(p []byte) (int, error)

	// WriteByte writes a single character at the cursor.
	WriteByte(ch byte) error

	// Clear blanks the console using the current color and moves the
	// cursor to the top-left corner.
	Clear()

	// Scroll moves every row up by one, blanks the last row and moves the
	// cursor to the start of the last row.
	Scroll()

	// Snapshot copies the whole cell grid into dst which must hold at
	// least width*height cells.
	Snapshot(dst []Cell)

	// Restore copies src back onto the cell grid.
	Restore(src []Cell)

	// Highlight sets the attribute of every cell covered by the span.
	Highlight(s Span, attr Attr)

	// Unhighlight resets the attribute of every cell covered by the span
	// to the current color.
	Unhighlight(s Span)

	// ShowPointer draws the mouse pointer at the specified cell, restoring
	// the cell under any previously drawn pointer first.
	ShowPointer(x, y uint32)

	// HidePointer restores the cell under the mouse pointer.
	HidePointer()
}
