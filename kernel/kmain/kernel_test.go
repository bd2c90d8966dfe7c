package kmain

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srunixre/srunix/device/ps2"
	"github.com/srunixre/srunix/device/rtc"
	"github.com/srunixre/srunix/device/tty"
	"github.com/srunixre/srunix/device/video/console"
	"github.com/srunixre/srunix/kernel"
	"github.com/srunixre/srunix/kernel/fs"
)

func newTestKernel(t *testing.T, sessions int) (*Kernel, *mockConsole) {
	t.Helper()

	cons := newMockConsole(80, 25)
	mux := tty.NewMux(sessions, fs.RootInode)
	mux.AttachTo(cons)

	var ticks uint64
	k, err := New(mux, nil, func() uint64 { ticks++; return ticks })
	require.Nil(t, err)
	return k, cons
}

func typeText(k *Kernel, text string) {
	for i := 0; i < len(text); i++ {
		k.HandleEvent(ps2.Event{Kind: ps2.EventChar, Char: text[i]})
	}
}

func login(t *testing.T, k *Kernel) {
	t.Helper()
	typeText(k, "root\n1\n")
	require.True(t, k.Mux().Authenticated(k.Mux().Active()))
}

func TestNew(t *testing.T) {
	k, _ := newTestKernel(t, 2)

	_, err := k.FS().Lookup(fs.RootInode, "bin")
	require.Nil(t, err)

	procs := k.Procs().List(nil)
	require.Len(t, procs, 1)
	assert.Equal(t, "init", procs[0].Name())
}

func TestLogin(t *testing.T) {
	k, cons := newTestKernel(t, 2)
	k.SetWallClock(func() rtc.Time {
		return rtc.Time{Year: 2024, Month: 12, Day: 31, Hour: 23, Minute: 59, Second: 58}
	})

	require.Nil(t, k.Start())
	assert.Equal(t, 1, cons.clears)
	assert.Contains(t, cons.out.String(), "Srunix R.E. tty1\n")
	assert.Contains(t, cons.out.String(), "login: ")

	cons.out.Reset()
	typeText(k, "roo\bot\n")
	assert.Equal(t, "roo\bot\nPassword: ", cons.out.String())
	assert.False(t, k.Mux().Authenticated(0))

	cons.out.Reset()
	typeText(k, "1\n")
	assert.True(t, k.Mux().Authenticated(0))
	assert.Equal(t, "*\nWelcome to Srunix R.E.\n2024-12-31 23:59:58\nroot@srunix:/# ", cons.out.String())
	assert.Equal(t, console.DefaultAttr, cons.attr)

	shell := k.ShellPID(0)
	p, err := k.Procs().Lookup(shell)
	require.Nil(t, err)
	assert.Equal(t, "ush", p.Name())
	assert.Zero(t, k.ShellPID(1))
	assert.Zero(t, k.ShellPID(-1))
}

func TestLoginIncorrect(t *testing.T) {
	k, cons := newTestKernel(t, 1)
	spk := &mockBeeper{}
	k.SetBeeper(spk)
	require.Nil(t, k.Start())

	cons.out.Reset()
	typeText(k, "root\nwrong\n")
	assert.False(t, k.Mux().Authenticated(0))
	assert.Equal(t, "root\nPassword: *****\nlogin incorrect\n\nlogin: ", cons.out.String())
	assert.Equal(t, []uint32{loginFailTone}, spk.tones)
	assert.True(t, spk.on)

	// The next event silences the speaker and starts a fresh attempt.
	login(t, k)
	assert.False(t, spk.on)
}

func TestLineHandler(t *testing.T) {
	k, cons := newTestKernel(t, 1)

	var (
		gotSession = -1
		gotLine    string
	)
	k.SetLineHandler(func(k *Kernel, session int, line []byte) {
		gotSession, gotLine = session, string(line)
		home, err := k.FS().Lookup(fs.RootInode, "home")
		require.Nil(t, err)
		k.Mux().SetCwd(home)
	})

	require.Nil(t, k.Start())
	login(t, k)

	cons.out.Reset()
	typeText(k, "cd home\n")
	assert.Equal(t, 0, gotSession)
	assert.Equal(t, "cd home", gotLine)
	assert.Equal(t, "cd home\nroot@srunix:/home# ", cons.out.String())
}

func TestSwitchSessions(t *testing.T) {
	k, cons := newTestKernel(t, 3)
	require.Nil(t, k.Start())
	login(t, k)

	cons.out.Reset()
	k.HandleEvent(ps2.Event{Kind: ps2.EventSwitch, Session: 1})
	assert.Equal(t, 1, k.Mux().Active())
	assert.Contains(t, cons.out.String(), "Srunix R.E. tty2\n")

	// session 0 is already authenticated so no login screen is shown
	cons.out.Reset()
	k.HandleEvent(ps2.Event{Kind: ps2.EventSwitch, Session: 0})
	assert.Equal(t, 0, k.Mux().Active())
	assert.Empty(t, cons.out.String())

	// out of range sessions are ignored
	k.HandleEvent(ps2.Event{Kind: ps2.EventSwitch, Session: 5})
	assert.Equal(t, 0, k.Mux().Active())
}

func TestRenderMouse(t *testing.T) {
	k, cons := newTestKernel(t, 1)

	sel := console.Span{X0: 1, Y0: 1, X1: 4, Y1: 2}
	k.HandleEvent(ps2.Event{Kind: ps2.EventMouse, Mouse: ps2.MouseEvent{X: 4, Y: 2, Left: true, Selection: sel, Selecting: true}})
	assert.Equal(t, []console.Span{sel}, cons.highlighted)
	assert.Equal(t, [2]uint32{4, 2}, cons.pointer)

	cons.drawOps = nil
	k.HandleEvent(ps2.Event{Kind: ps2.EventMouse, Mouse: ps2.MouseEvent{X: 5, Y: 3, Cleared: sel, HasCleared: true}})
	assert.Equal(t, []console.Span{sel}, cons.unhighlighted)
	assert.Equal(t, [2]uint32{5, 3}, cons.pointer)

	// the pointer comes off before the selection is cleared on release
	assert.Equal(t, []string{"hide", "unhighlight", "show"}, cons.drawOps)
}

type mockBeeper struct {
	tones []uint32
	on    bool
}

func (b *mockBeeper) Beep(freq uint32) *kernel.Error {
	b.tones = append(b.tones, freq)
	b.on = true
	return nil
}

func (b *mockBeeper) Silence() { b.on = false }

type mockConsole struct {
	out           bytes.Buffer
	width, height uint32
	x, y          uint32
	attr          console.Attr
	cells         []console.Cell
	clears        int

	highlighted   []console.Span
	unhighlighted []console.Span
	pointer       [2]uint32
	drawOps       []string
}

func newMockConsole(width, height uint32) *mockConsole {
	return &mockConsole{
		width:  width,
		height: height,
		attr:   console.DefaultAttr,
		cells:  make([]console.Cell, width*height),
	}
}

func (cons *mockConsole) Dimensions() (uint32, uint32) { return cons.width, cons.height }
func (cons *mockConsole) Cursor() (uint32, uint32)     { return cons.x, cons.y }
func (cons *mockConsole) SetCursor(x, y uint32)        { cons.x, cons.y = x, y }
func (cons *mockConsole) Color() console.Attr          { return cons.attr }
func (cons *mockConsole) SetColor(a console.Attr)      { cons.attr = a }
func (cons *mockConsole) Write(p []byte) (int, error)  { return cons.out.Write(p) }
func (cons *mockConsole) WriteByte(ch byte) error      { return cons.out.WriteByte(ch) }
func (cons *mockConsole) Clear()                       { cons.clears++ }
func (cons *mockConsole) Scroll()                      {}
func (cons *mockConsole) Snapshot(dst []console.Cell)  { copy(dst, cons.cells) }
func (cons *mockConsole) Restore(src []console.Cell)   { copy(cons.cells, src) }
func (cons *mockConsole) HidePointer()                 { cons.drawOps = append(cons.drawOps, "hide") }

func (cons *mockConsole) Highlight(s console.Span, _ console.Attr) {
	cons.highlighted = append(cons.highlighted, s)
	cons.drawOps = append(cons.drawOps, "highlight")
}

func (cons *mockConsole) Unhighlight(s console.Span) {
	cons.unhighlighted = append(cons.unhighlighted, s)
	cons.drawOps = append(cons.drawOps, "unhighlight")
}

func (cons *mockConsole) ShowPointer(x, y uint32) {
	cons.pointer = [2]uint32{x, y}
	cons.drawOps = append(cons.drawOps, "show")
}

var _ io.Writer = (*mockConsole)(nil)
