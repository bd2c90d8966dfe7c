package tty

import (
	"io"

	"github.com/srunixre/srunix/device/video/console"
	"github.com/srunixre/srunix/kernel"
	"github.com/srunixre/srunix/kernel/kfmt"
)

var (
	errInvalidSession = &kernel.Error{Module: "tty", Message: "session index out of range", Kind: kernel.InvalidArgument}
	errNoConsole      = &kernel.Error{Module: "tty", Message: "no console attached", Kind: kernel.InvalidArgument}
)

// Mux multiplexes a fixed set of sessions over a single console. Exactly one
// session is live at any time; the console mirrors its contents while the
// other sessions hold frozen snapshots.
type Mux struct {
	cons console.Device

	sessions [MaxSessions]Session
	count    int
	active   int

	loginFn LoginHandler
}

// NewMux creates a multiplexer with count sessions whose current directory is
// set to rootDir. The count is clamped to [1, MaxSessions].
func NewMux(count int, rootDir uint32) *Mux {
	if count < 1 {
		count = 1
	} else if count > MaxSessions {
		count = MaxSessions
	}

	m := &Mux{count: count}
	for i := 0; i < count; i++ {
		m.sessions[i].cwd = rootDir
		m.sessions[i].attr = console.DefaultAttr
	}

	return m
}

// AttachTo connects the multiplexer to a console. Session 0 becomes live and
// inherits the current console contents; every other session starts with a
// blank screen.
func (m *Mux) AttachTo(cons console.Device) {
	if cons == nil {
		return
	}

	m.cons = cons
	m.active = 0

	w, h := cons.Dimensions()
	blank := console.MakeCell(' ', console.DefaultAttr)
	for i := 0; i < m.count; i++ {
		s := &m.sessions[i]
		s.cells = make([]console.Cell, w*h)
		for j := range s.cells {
			s.cells[j] = blank
		}
		s.cursorX, s.cursorY = 0, 0
	}

	m.sessions[0].attr = cons.Color()
}

// Console returns the attached console.
func (m *Mux) Console() console.Device {
	return m.cons
}

// SetLoginHandler registers the function invoked when an unauthenticated
// session is switched in.
func (m *Mux) SetLoginHandler(fn LoginHandler) {
	m.loginFn = fn
}

// Sessions returns the number of sessions.
func (m *Mux) Sessions() int {
	return m.count
}

// Active returns the index of the live session.
func (m *Mux) Active() int {
	return m.active
}

// Session returns the session at index or nil if index is out of range.
func (m *Mux) Session(index int) *Session {
	if index < 0 || index >= m.count {
		return nil
	}
	return &m.sessions[index]
}

// Switch makes target the live session. The live console state is saved into
// the outgoing session and the target's saved state is copied back onto the
// console. If the target has not been authenticated yet the login handler
// runs before Switch returns.
func (m *Mux) Switch(target int) *kernel.Error {
	if target < 0 || target >= m.count {
		return errInvalidSession
	}

	if m.cons == nil {
		return errNoConsole
	}

	m.save(&m.sessions[m.active])
	m.active = target
	m.restore(&m.sessions[target])

	if !m.sessions[target].authenticated && m.loginFn != nil {
		m.loginFn(target)
	}

	return nil
}

func (m *Mux) save(s *Session) {
	m.cons.HidePointer()
	s.cursorX, s.cursorY = m.cons.Cursor()
	s.attr = m.cons.Color()
	m.cons.Snapshot(s.cells)
}

func (m *Mux) restore(s *Session) {
	m.cons.Restore(s.cells)
	m.cons.SetColor(s.attr)
	// SetCursor re-programs the hardware cursor.
	m.cons.SetCursor(s.cursorX, s.cursorY)
}

// Authenticated returns true if the session at index has logged in.
func (m *Mux) Authenticated(index int) bool {
	if s := m.Session(index); s != nil {
		return s.authenticated
	}
	return false
}

// SetAuthenticated updates the login state of the session at index.
func (m *Mux) SetAuthenticated(index int, authenticated bool) *kernel.Error {
	s := m.Session(index)
	if s == nil {
		return errInvalidSession
	}

	s.authenticated = authenticated
	return nil
}

// Cwd returns the current directory inode of the live session.
func (m *Mux) Cwd() uint32 {
	return m.sessions[m.active].cwd
}

// SetCwd updates the current directory inode of the live session.
func (m *Mux) SetCwd(id uint32) {
	m.sessions[m.active].cwd = id
}

// Write implements io.Writer by writing p to the live session.
func (m *Mux) Write(p []byte) (int, error) {
	if m.cons == nil {
		return 0, io.ErrClosedPipe
	}
	return m.cons.Write(p)
}

// EditLine feeds a decoded character to the live session's line editor.
// Printable characters are appended and echoed, backspace erases the last
// character and a line feed completes the line. When the line is complete,
// EditLine returns its contents (without the line feed) and true; the
// returned slice is only valid until the next call.
func (m *Mux) EditLine(ch byte) ([]byte, bool) {
	s := &m.sessions[m.active]

	switch {
	case ch == '\n':
		m.echo(ch)
		line := s.line[:s.lineLen]
		s.lineLen = 0
		return line, true
	case ch == '\b':
		if s.lineLen > 0 {
			s.lineLen--
			m.echo(ch)
		}
	case ch == keyUp, ch == keyDown, ch == keyLeft, ch == keyRight, ch == keyF10:
	case ch < 0x20 || ch == 0x7f:
	default:
		if s.lineLen < LineBufferSize-1 {
			s.line[s.lineLen] = ch
			s.lineLen++
			m.echo(ch)
		}
	}

	return nil, false
}

// ResetLine discards any partially edited input in the live session.
func (m *Mux) ResetLine() {
	m.sessions[m.active].lineLen = 0
}

func (m *Mux) echo(ch byte) {
	if m.cons != nil {
		m.cons.WriteByte(ch)
	}
}

// DriverName returns the name of this driver.
func (m *Mux) DriverName() string {
	return "tty_mux"
}

// DriverVersion returns the version of this driver.
func (m *Mux) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit initializes this driver.
func (m *Mux) DriverInit(w io.Writer) *kernel.Error {
	kfmt.Fprintf(w, "%d sessions, %d byte line buffers\n", m.count, LineBufferSize)
	return nil
}
