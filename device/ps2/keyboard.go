package ps2

// EventKind identifies the payload of a decoded input Event.
type EventKind uint8

const (
	// EventChar carries a character (or control code) in Event.Char.
	EventChar EventKind = iota + 1

	// EventArrow carries one of the reserved arrow key codes in Event.Char.
	EventArrow

	// EventSwitch requests that the terminal session in Event.Session
	// becomes live.
	EventSwitch

	// EventMouse carries a decoded mouse packet in Event.Mouse.
	EventMouse
)

// Reserved codes emitted for keys without a printable representation.
const (
	KeyUp    byte = 0x11
	KeyDown  byte = 0x12
	KeyLeft  byte = 0x13
	KeyRight byte = 0x14
	KeyEsc   byte = 0x1B
	KeyF10   byte = 0xFA
)

// Scancodes (set 1) with special handling.
const (
	scanEsc       = 0x01
	scanBackspace = 0x0E
	scanEnter     = 0x1C
	scanCtrl      = 0x1D
	scanLShift    = 0x2A
	scanRShift    = 0x36
	scanAlt       = 0x38
	scanSpace     = 0x39
	scanCapsLock  = 0x3A
	scanF1        = 0x3B
	scanF9        = 0x43
	scanF10       = 0x44
	scanUp        = 0x48
	scanLeft      = 0x4B
	scanRight     = 0x4D
	scanDown      = 0x50

	scanExtended   = 0xE0
	scanReleaseBit = 0x80
)

// Event is a decoded input event.
type Event struct {
	Kind    EventKind
	Char    byte
	Session int
	Mouse   MouseEvent
}

// Modifiers describes the persistent keyboard modifier state.
type Modifiers struct {
	Shift, Ctrl, Alt, CapsLock bool
}

// KeyboardDecoder translates scancode set 1 bytes into events. It keeps the
// modifier state between calls and performs no I/O.
type KeyboardDecoder struct {
	mods     Modifiers
	extended bool
}

// Modifiers returns the current modifier state.
func (d *KeyboardDecoder) Modifiers() Modifiers {
	return d.mods
}

// Feed processes a single scancode. It returns the decoded event and true,
// or false if the code only updated the decoder state or maps to nothing.
func (d *KeyboardDecoder) Feed(code uint8) (Event, bool) {
	if code == scanExtended {
		d.extended = true
		return Event{}, false
	}

	if d.extended {
		d.extended = false
		return d.feedExtended(code)
	}

	if code&scanReleaseBit != 0 {
		switch code &^ scanReleaseBit {
		case scanLShift, scanRShift:
			d.mods.Shift = false
		case scanCtrl:
			d.mods.Ctrl = false
		case scanAlt:
			d.mods.Alt = false
		}
		return Event{}, false
	}

	switch code {
	case scanLShift, scanRShift:
		d.mods.Shift = true
		return Event{}, false
	case scanCtrl:
		d.mods.Ctrl = true
		return Event{}, false
	case scanAlt:
		d.mods.Alt = true
		return Event{}, false
	case scanCapsLock:
		d.mods.CapsLock = !d.mods.CapsLock
		return Event{}, false
	case scanEnter:
		return charEvent('\n'), true
	case scanBackspace:
		return charEvent('\b'), true
	case scanEsc:
		return charEvent(KeyEsc), true
	case scanSpace:
		return charEvent(' '), true
	case scanF10:
		return charEvent(KeyF10), true
	}

	if code >= scanF1 && code <= scanF9 {
		return Event{Kind: EventSwitch, Session: int(code - scanF1)}, true
	}

	if d.mods.Ctrl {
		if ch := translate(code, false); ch >= 'a' && ch <= 'z' {
			return charEvent(ch - 'a' + 1), true
		}
		return Event{}, false
	}

	if d.mods.Alt {
		return Event{}, false
	}

	if ch := translate(code, d.mods.Shift != d.mods.CapsLock); ch != 0 {
		return charEvent(ch), true
	}

	return Event{}, false
}

// feedExtended handles the code following an extended prefix. Only the arrow
// key presses produce events.
func (d *KeyboardDecoder) feedExtended(code uint8) (Event, bool) {
	var key byte
	switch code {
	case scanUp:
		key = KeyUp
	case scanDown:
		key = KeyDown
	case scanLeft:
		key = KeyLeft
	case scanRight:
		key = KeyRight
	default:
		return Event{}, false
	}

	return Event{Kind: EventArrow, Char: key}, true
}

func charEvent(ch byte) Event {
	return Event{Kind: EventChar, Char: ch}
}
