package ps2

// Input is the single blocking event source of the system. It busy-polls the
// controller and routes each byte to the keyboard or mouse decoder.
type Input struct {
	keyboard     KeyboardDecoder
	mouse        *MouseDecoder
	mouseEnabled bool

	idleFn func()
}

// SetIdleHook registers a function invoked every time the controller is
// polled and found empty. The kernel uses it to sample the timer.
func (in *Input) SetIdleHook(fn func()) {
	in.idleFn = fn
}

// Modifiers returns the keyboard modifier state.
func (in *Input) Modifiers() Modifiers {
	return in.keyboard.Modifiers()
}

// MousePosition returns the current pointer position.
func (in *Input) MousePosition() (x, y uint32) {
	return in.mouse.Position()
}

// ReadEvent blocks until a keyboard or mouse event has been decoded. There is
// no timeout; the only way out is a decoded event.
func (in *Input) ReadEvent() Event {
	for {
		status := portReadByteFn(commandPort)
		if status&statusOutputFull == 0 {
			if in.idleFn != nil {
				in.idleFn()
			}
			continue
		}

		data := portReadByteFn(dataPort)
		if status&statusAuxData != 0 {
			if !in.mouseEnabled {
				continue
			}
			if ev, ok := in.mouse.Feed(data); ok {
				return Event{Kind: EventMouse, Mouse: ev}
			}
			continue
		}

		if ev, ok := in.keyboard.Feed(data); ok {
			return ev
		}
	}
}
