// Package tty multiplexes a set of virtual terminal sessions over a single
// text console.
package tty

import "github.com/srunixre/srunix/device/video/console"

const (
	// MaxSessions is the number of sessions that can be reached through
	// the F1-F9 hot keys.
	MaxSessions = 9

	// LineBufferSize is the capacity of each session's line editor,
	// including room for the terminating line feed.
	LineBufferSize = 256
)

// Reserved key codes that the line editor ignores. They are produced by the
// keyboard decoder for the arrow keys and F10.
const (
	keyUp    = 0x11
	keyDown  = 0x12
	keyLeft  = 0x13
	keyRight = 0x14
	keyF10   = 0xFA
)

// LoginHandler is invoked when a session that has not been authenticated yet
// becomes active. The handler runs synchronously inside Switch and is expected
// to call Mux.SetAuthenticated once the user has logged in.
type LoginHandler func(session int)

// Session holds the state of a virtual terminal while it is not live on the
// console.
type Session struct {
	cursorX, cursorY uint32
	attr             console.Attr
	cells            []console.Cell

	line    [LineBufferSize]byte
	lineLen int

	cwd           uint32
	authenticated bool
}

// Cursor returns the saved cursor position.
func (s *Session) Cursor() (x, y uint32) { return s.cursorX, s.cursorY }

// Color returns the saved color attribute.
func (s *Session) Color() console.Attr { return s.attr }

// Cells returns the saved cell grid. For the live session the contents are
// only refreshed when the session is switched out.
func (s *Session) Cells() []console.Cell { return s.cells }
