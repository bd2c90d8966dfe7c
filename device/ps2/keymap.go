package ps2

// Scancode set 1 translation tables for a US layout. Codes beyond the end of
// each table map to zero.
const (
	keymapLower = "\x00\x1B" + "1234567890-=" + "\x08" +
		"\x00" + "qwertyuiop[]" + "\x0D" + "\x00" + "asdfghjkl;'`" + "\x00" +
		"\\zxcvbnm,./" + "\x00\x00\x00" + " "

	keymapUpper = "\x00\x1B" + "!@#$%^&*()_+" + "\x08" +
		"\x00" + "QWERTYUIOP{}" + "\x0D" + "\x00" + "ASDFGHJKL:\"~" + "\x00" +
		"|ZXCVBNM<>?" + "\x00\x00\x00" + " "

	// keymapSize is the number of scancodes covered by the tables; codes
	// with bit 7 set are key releases.
	keymapSize = 128
)

// translate maps a scancode through the selected table.
func translate(code uint8, upper bool) byte {
	table := keymapLower
	if upper {
		table = keymapUpper
	}

	if code >= keymapSize || int(code) >= len(table) {
		return 0
	}
	return table[code]
}
