package ps2

import "testing"

func feedAll(d *KeyboardDecoder, codes ...uint8) []Event {
	var events []Event
	for _, code := range codes {
		if ev, ok := d.Feed(code); ok {
			events = append(events, ev)
		}
	}
	return events
}

func TestKeyboardLetterModifiers(t *testing.T) {
	specs := []struct {
		descr   string
		codes   []uint8
		expChar byte
	}{
		{"plain", []uint8{0x1E}, 'a'},
		{"shift", []uint8{scanLShift, 0x1E}, 'A'},
		{"right shift", []uint8{scanRShift, 0x1E}, 'A'},
		{"ctrl", []uint8{scanCtrl, 0x1E}, 1},
		{"ctrl z", []uint8{scanCtrl, 0x2C}, 26},
		{"caps lock", []uint8{scanCapsLock, 0x1E}, 'A'},
		{"caps lock and shift", []uint8{scanCapsLock, scanLShift, 0x1E}, 'a'},
		{"shift released", []uint8{scanLShift, scanLShift | scanReleaseBit, 0x1E}, 'a'},
		{"caps toggled twice", []uint8{scanCapsLock, scanCapsLock, 0x1E}, 'a'},
		{"shifted digit", []uint8{scanLShift, 0x02}, '!'},
		{"shifted quote", []uint8{scanLShift, 0x28}, '"'},
		{"backslash", []uint8{0x2B}, '\\'},
		{"shifted backslash", []uint8{scanLShift, 0x2B}, '|'},
		{"enter", []uint8{scanEnter}, '\n'},
		{"backspace", []uint8{scanBackspace}, '\b'},
		{"escape", []uint8{scanEsc}, KeyEsc},
		{"space", []uint8{scanSpace}, ' '},
		{"f10", []uint8{scanF10}, KeyF10},
		{"ctrl enter", []uint8{scanCtrl, scanEnter}, '\n'},
	}

	for specIndex, spec := range specs {
		var d KeyboardDecoder
		events := feedAll(&d, spec.codes...)
		if len(events) != 1 {
			t.Errorf("[spec %d: %s] expected 1 event; got %d", specIndex, spec.descr, len(events))
			continue
		}

		if ev := events[0]; ev.Kind != EventChar || ev.Char != spec.expChar {
			t.Errorf("[spec %d: %s] expected char event 0x%x; got kind %d char 0x%x", specIndex, spec.descr, spec.expChar, ev.Kind, ev.Char)
		}
	}
}

func TestKeyboardDroppedCodes(t *testing.T) {
	specs := []struct {
		descr string
		codes []uint8
	}{
		{"modifier presses", []uint8{scanLShift, scanCtrl, scanAlt, scanCapsLock}},
		{"key release", []uint8{0x1E | scanReleaseBit}},
		{"alt held", []uint8{scanAlt, 0x1E}},
		{"ctrl with digit", []uint8{scanCtrl, 0x02}},
		{"unmapped tab", []uint8{0x0F}},
		{"unmapped high code", []uint8{0x70}},
		{"extended non-arrow", []uint8{scanExtended, 0x1C}},
		{"extended release", []uint8{scanExtended, scanUp | scanReleaseBit}},
	}

	for specIndex, spec := range specs {
		var d KeyboardDecoder
		if events := feedAll(&d, spec.codes...); len(events) != 0 {
			t.Errorf("[spec %d: %s] expected no events; got %v", specIndex, spec.descr, events)
		}
	}
}

func TestKeyboardModifierState(t *testing.T) {
	var d KeyboardDecoder
	feedAll(&d, scanLShift, scanCtrl, scanAlt, scanCapsLock)

	if exp, got := (Modifiers{Shift: true, Ctrl: true, Alt: true, CapsLock: true}), d.Modifiers(); got != exp {
		t.Fatalf("expected modifiers %+v; got %+v", exp, got)
	}

	feedAll(&d, scanRShift|scanReleaseBit, scanCtrl|scanReleaseBit, scanAlt|scanReleaseBit, scanCapsLock|scanReleaseBit)
	if exp, got := (Modifiers{CapsLock: true}), d.Modifiers(); got != exp {
		t.Fatalf("expected modifiers %+v; got %+v", exp, got)
	}
}

func TestKeyboardArrows(t *testing.T) {
	specs := []struct {
		code   uint8
		expKey byte
	}{
		{scanUp, KeyUp},
		{scanDown, KeyDown},
		{scanLeft, KeyLeft},
		{scanRight, KeyRight},
	}

	var d KeyboardDecoder
	for specIndex, spec := range specs {
		events := feedAll(&d, scanExtended, spec.code, scanExtended, spec.code|scanReleaseBit)
		if len(events) != 1 || events[0].Kind != EventArrow || events[0].Char != spec.expKey {
			t.Errorf("[spec %d] expected a single arrow event 0x%x; got %v", specIndex, spec.expKey, events)
		}
	}

	// Without the prefix the arrow codes hit the (empty) keypad entries.
	if events := feedAll(&d, scanUp); len(events) != 0 {
		t.Fatalf("expected unprefixed arrow code to be dropped; got %v", events)
	}
}

func TestKeyboardSessionSwitch(t *testing.T) {
	var d KeyboardDecoder
	for code := uint8(scanF1); code <= scanF9; code++ {
		ev, ok := d.Feed(code)
		if !ok || ev.Kind != EventSwitch {
			t.Errorf("[code 0x%x] expected a session switch event", code)
			continue
		}

		if exp := int(code - scanF1); ev.Session != exp {
			t.Errorf("[code 0x%x] expected session %d; got %d", code, exp, ev.Session)
		}
	}
}

func TestKeymapTables(t *testing.T) {
	if got := len(keymapLower); got != 58 {
		t.Fatalf("expected lower table to cover 58 codes; got %d", got)
	}

	if got := len(keymapUpper); got != 58 {
		t.Fatalf("expected upper table to cover 58 codes; got %d", got)
	}

	specs := []struct {
		code     uint8
		expLower byte
		expUpper byte
	}{
		{0x01, 0x1B, 0x1B},
		{0x0B, '0', ')'},
		{0x0C, '-', '_'},
		{0x10, 'q', 'Q'},
		{0x1A, '[', '{'},
		{0x1C, '\r', '\r'},
		{0x27, ';', ':'},
		{0x29, '`', '~'},
		{0x35, '/', '?'},
		{0x39, ' ', ' '},
		{0x7F, 0, 0},
		{0xFF, 0, 0},
	}

	for specIndex, spec := range specs {
		if got := translate(spec.code, false); got != spec.expLower {
			t.Errorf("[spec %d] expected lower mapping of 0x%x to be %q; got %q", specIndex, spec.code, spec.expLower, got)
		}
		if got := translate(spec.code, true); got != spec.expUpper {
			t.Errorf("[spec %d] expected upper mapping of 0x%x to be %q; got %q", specIndex, spec.code, spec.expUpper, got)
		}
	}
}
