package kfmt

import (
	"io"
	"unsafe"
)

// maxBufSize bounds the width of a formatted number.
const maxBufSize = 32

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	digits = "0123456789abcdef"

	// numFmtBuf holds a formatted number; digits are filled in from the
	// end towards the start.
	numFmtBuf [maxBufSize + 1]byte

	// singleByte is a shared one-byte buffer for emitting characters
	// without converting strings to byte slices.
	singleByte = []byte(" ")

	// earlyPrintBuffer is a ring buffer that stores Printf output before the
	// console is attached.
	earlyPrintBuffer ringBuffer

	// outputSink is a io.Writer where Printf will send its output. If set
	// to nil, then the output will be redirected to the earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the default target for calls to Printf to w and copies
// any data accumulated in the earlyPrintBuffer to it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyPrintBuffer)
	}
}

// GetOutputSink returns the writer that receives Printf output. Before a
// sink is attached, this is the early print ring buffer.
func GetOutputSink() io.Writer {
	if outputSink == nil {
		return &earlyPrintBuffer
	}
	return outputSink
}

// Printf writes formatted output to the active output sink. It never
// allocates so it is safe to call before the Go allocator is available.
//
// The supported verbs are:
//
//	%s  string or []byte
//	%d  integer, base 10, padded with spaces
//	%o  integer, base 8, padded with zeroes
//	%x  integer, base 16 (lower-case), padded with zeroes
//	%t  bool
//	%c  byte or rune; runes above 0xff print as '?'
//	%%  a literal percent sign
//
// A decimal width may precede the verb. Strings and numbers shorter than the
// width are left-padded; the width is ignored for %t and %c. Widths larger
// than maxBufSize-1 are clamped for numbers.
//
// Arguments are matched by their concrete type only. In particular Stringer
// and error values are not supported since checking for them needs itables
// which the kernel cannot rely on this early.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves exactly like Printf but it writes the formatted output to
// the specified io.Writer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var argIndex int

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			writeByte(w, format[i])
			continue
		}

		var (
			width     int
			completed bool
		)

		// Characters that are neither digits nor verbs are skipped.
		for i++; i < len(format) && !completed; i++ {
			ch := format[i]
			switch ch {
			case '%':
				writeByte(w, '%')
				completed = true
			case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
				width = width*10 + int(ch-'0')
			case 's', 'd', 'o', 'x', 't', 'c':
				completed = true
				if argIndex >= len(args) {
					doWrite(w, errMissingArg)
					break
				}
				formatArg(w, ch, args[argIndex], width)
				argIndex++
			}
		}
		// the outer loop increments i again
		i--

		if !completed {
			doWrite(w, errNoVerb)
		}
	}

	for ; argIndex < len(args); argIndex++ {
		doWrite(w, errExtraArg)
	}
}

func formatArg(w io.Writer, verb byte, arg interface{}, width int) {
	switch verb {
	case 's':
		formatString(w, arg, width)
	case 'd':
		formatInt(w, arg, 10, width)
	case 'o':
		formatInt(w, arg, 8, width)
	case 'x':
		formatInt(w, arg, 16, width)
	case 't':
		formatBool(w, arg)
	case 'c':
		formatChar(w, arg)
	}
}

func formatBool(w io.Writer, v interface{}) {
	b, ok := v.(bool)
	switch {
	case !ok:
		doWrite(w, errWrongArgType)
	case b:
		doWrite(w, trueValue)
	default:
		doWrite(w, falseValue)
	}
}

// formatChar emits a single character. Only 8-bit values can be rendered by
// the console so wider runes are replaced with '?'.
func formatChar(w io.Writer, v interface{}) {
	switch ch := v.(type) {
	case uint8:
		writeByte(w, ch)
	case rune:
		if ch < 0 || ch > 0xff {
			ch = '?'
		}
		writeByte(w, byte(ch))
	default:
		doWrite(w, errWrongArgType)
	}
}

func formatString(w io.Writer, v interface{}, width int) {
	switch s := v.(type) {
	case string:
		writeRepeat(w, ' ', width-len(s))
		// s[i:j] cannot be passed to doWrite without a conversion that
		// allocates.
		for i := 0; i < len(s); i++ {
			writeByte(w, s[i])
		}
	case []byte:
		writeRepeat(w, ' ', width-len(s))
		doWrite(w, s)
	default:
		doWrite(w, errWrongArgType)
	}
}

// toMagnitude splits an integer value into its absolute value and sign.
func toMagnitude(v interface{}) (mag uint64, negative, ok bool) {
	var signed int64

	switch n := v.(type) {
	case uint8:
		return uint64(n), false, true
	case uint16:
		return uint64(n), false, true
	case uint32:
		return uint64(n), false, true
	case uint64:
		return n, false, true
	case uintptr:
		return uint64(n), false, true
	case uint:
		return uint64(n), false, true
	case int8:
		signed = int64(n)
	case int16:
		signed = int64(n)
	case int32:
		signed = int64(n)
	case int64:
		signed = n
	case int:
		signed = int64(n)
	default:
		return 0, false, false
	}

	if signed < 0 {
		return uint64(-signed), true, true
	}
	return uint64(signed), false, true
}

// formatInt emits an integer in the given base. Base 10 is padded with
// spaces and the sign is placed right before the first digit; other bases
// are padded with zeroes and the sign precedes the padding.
func formatInt(w io.Writer, v interface{}, base uint64, width int) {
	mag, negative, ok := toMagnitude(v)
	if !ok {
		doWrite(w, errWrongArgType)
		return
	}

	if width >= maxBufSize {
		width = maxBufSize - 1
	}

	padCh := byte('0')
	if base == 10 {
		padCh = ' '
	}

	pos := len(numFmtBuf)
	for {
		pos--
		numFmtBuf[pos] = digits[mag%base]
		if mag /= base; mag == 0 {
			break
		}
	}

	for len(numFmtBuf)-pos < width {
		pos--
		numFmtBuf[pos] = padCh
	}

	if negative {
		if numFmtBuf[pos] == ' ' {
			signPos := pos
			for numFmtBuf[signPos+1] == ' ' {
				signPos++
			}
			numFmtBuf[signPos] = '-'
		} else {
			pos--
			numFmtBuf[pos] = '-'
		}
	}

	doWrite(w, numFmtBuf[pos:])
}

func writeByte(w io.Writer, ch byte) {
	singleByte[0] = ch
	doWrite(w, singleByte)
}

func writeRepeat(w io.Writer, ch byte, count int) {
	for ; count > 0; count-- {
		writeByte(w, ch)
	}
}

// doWrite forwards p to w (or the early print buffer if w is nil). The slice
// header is laundered through noEscape: since w is an arbitrary io.Writer the
// compiler would otherwise conclude that p escapes and move every formatting
// buffer to the heap, which is not available during early boot.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w == nil {
		earlyPrintBuffer.Write(p)
		return
	}
	w.Write(p)
}

// noEscape hides a pointer from escape analysis (see runtime/stubs.go).
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
