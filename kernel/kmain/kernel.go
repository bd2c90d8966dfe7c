package kmain

import (
	"github.com/srunixre/srunix/device/ps2"
	"github.com/srunixre/srunix/device/rtc"
	"github.com/srunixre/srunix/device/tty"
	"github.com/srunixre/srunix/device/video/console"
	"github.com/srunixre/srunix/kernel"
	"github.com/srunixre/srunix/kernel/fs"
	"github.com/srunixre/srunix/kernel/fs/inode"
	"github.com/srunixre/srunix/kernel/kfmt"
	"github.com/srunixre/srunix/kernel/proc"
)

const (
	hostname = "srunix"

	// Illustrative credentials accepted by the login screen.
	loginUser     = "root"
	loginPassword = "1"

	maxCredentialLen = 31

	// loginFailTone is the frequency of the beep played after a failed login.
	loginFailTone = 1000
)

// EventSource yields decoded input events. ReadEvent blocks until an event is
// available.
type EventSource interface {
	ReadEvent() ps2.Event
}

// Beeper drives an audible tone.
type Beeper interface {
	Beep(freq uint32) *kernel.Error
	Silence()
}

// LineHandler receives every line completed in an authenticated session.
// The line is only valid for the duration of the call.
type LineHandler func(k *Kernel, session int, line []byte)

type loginPhase uint8

const (
	phaseUser loginPhase = iota
	phasePassword
	phaseShell
)

// loginState tracks the login screen of a single session.
type loginState struct {
	phase loginPhase

	user    [maxCredentialLen]byte
	userLen int

	password    [maxCredentialLen]byte
	passwordLen int

	shellPID uint32
}

func (s *loginState) reset() {
	*s = loginState{}
}

// Kernel ties the terminal multiplexer, the file store and the process
// registry to the input event loop.
type Kernel struct {
	fs    *fs.FS
	procs *proc.Table
	mux   *tty.Mux
	input EventSource

	lineFn  LineHandler
	beeper  Beeper
	beeping bool
	nowFn   func() rtc.Time

	logins  [tty.MaxSessions]loginState
	pathBuf [256]byte
}

// New creates a kernel whose file store is populated with the standard
// layout and whose process table contains init. Inode timestamps are taken
// from clock.
func New(mux *tty.Mux, input EventSource, clock inode.Clock) (*Kernel, *kernel.Error) {
	k := &Kernel{
		fs:    fs.New(clock),
		procs: proc.NewTable(),
		mux:   mux,
		input: input,
	}

	if err := Bootstrap(k.fs); err != nil {
		return nil, err
	}

	if _, err := k.procs.Spawn("init", proc.Context{}); err != nil {
		return nil, err
	}

	mux.SetLoginHandler(k.showLogin)
	return k, nil
}

// FS returns the file store.
func (k *Kernel) FS() *fs.FS { return k.fs }

// Procs returns the process registry.
func (k *Kernel) Procs() *proc.Table { return k.procs }

// Mux returns the terminal multiplexer.
func (k *Kernel) Mux() *tty.Mux { return k.mux }

// SetLineHandler registers the handler for completed command lines.
func (k *Kernel) SetLineHandler(fn LineHandler) {
	k.lineFn = fn
}

// SetBeeper registers the device used for audible alerts.
func (k *Kernel) SetBeeper(b Beeper) {
	k.beeper = b
}

// SetWallClock registers the source of the date shown after a login.
func (k *Kernel) SetWallClock(fn func() rtc.Time) {
	k.nowFn = fn
}

// Start makes session 0 live which presents its login screen.
func (k *Kernel) Start() *kernel.Error {
	return k.mux.Switch(0)
}

// Run processes input events forever.
func (k *Kernel) Run() {
	for {
		k.HandleEvent(k.input.ReadEvent())
	}
}

// HandleEvent dispatches a single input event.
func (k *Kernel) HandleEvent(ev ps2.Event) {
	if k.beeping {
		k.beeper.Silence()
		k.beeping = false
	}

	switch ev.Kind {
	case ps2.EventSwitch:
		if err := k.mux.Switch(ev.Session); err != nil {
			kfmt.Log(kfmt.LevelWarn, "kmain", "cannot switch to tty%d: %s", ev.Session+1, err.Message)
		}
	case ps2.EventChar:
		session := k.mux.Active()
		if !k.mux.Authenticated(session) {
			k.feedLogin(session, ev.Char)
			return
		}

		line, done := k.mux.EditLine(ev.Char)
		if !done {
			return
		}

		if k.lineFn != nil {
			k.lineFn(k, session, line)
		}
		k.prompt()
	case ps2.EventMouse:
		k.renderMouse(ev.Mouse)
	}
}

// showLogin renders the login screen of session. It is invoked by the
// multiplexer whenever an unauthenticated session becomes live.
func (k *Kernel) showLogin(session int) {
	k.logins[session].reset()

	if cons := k.mux.Console(); cons != nil {
		cons.SetColor(console.MakeAttr(console.LightGray, console.Black))
		cons.Clear()
	}

	kfmt.Fprintf(k.mux, "\n\nSrunix R.E. tty%d\n", session+1)
	kfmt.Fprintf(k.mux, "OpenSource Operation System.\nPlease login: %s, password %s\n\n", loginUser, loginPassword)
	kfmt.Fprintf(k.mux, "login: ")
}

// feedLogin advances the login screen of session by one character.
func (k *Kernel) feedLogin(session int, ch byte) {
	state := &k.logins[session]

	switch state.phase {
	case phaseUser:
		if ch != '\n' {
			editCredential(k.mux, state.user[:], &state.userLen, ch, ch)
			return
		}

		kfmt.Fprintf(k.mux, "\nPassword: ")
		state.phase = phasePassword
	case phasePassword:
		if ch != '\n' {
			editCredential(k.mux, state.password[:], &state.passwordLen, ch, '*')
			return
		}

		user := string(state.user[:state.userLen])
		if user != loginUser || string(state.password[:state.passwordLen]) != loginPassword {
			if k.beeper != nil && k.beeper.Beep(loginFailTone) == nil {
				k.beeping = true
			}
			state.reset()
			kfmt.Fprintf(k.mux, "\nlogin incorrect\n\nlogin: ")
			return
		}

		k.completeLogin(session, state)
	}
}

func (k *Kernel) completeLogin(session int, state *loginState) {
	state.phase = phaseShell
	state.passwordLen = 0

	_ = k.mux.SetAuthenticated(session, true)
	k.mux.ResetLine()
	k.mux.SetCwd(fs.RootInode)

	if cons := k.mux.Console(); cons != nil {
		cons.SetColor(console.DefaultAttr)
	}

	kfmt.Fprintf(k.mux, "\nWelcome to Srunix R.E.\n")
	if k.nowFn != nil {
		now := k.nowFn()
		kfmt.Fprintf(k.mux, "%4d-%2d-%2d %2d:%2d:%2d\n", now.Year, now.Month, now.Day, now.Hour, now.Minute, now.Second)
	}

	pid, err := k.procs.Spawn("ush", proc.Context{})
	if err != nil {
		kfmt.Log(kfmt.LevelWarn, "kmain", "tty%d: cannot start shell: %s", session+1, err.Message)
	}
	state.shellPID = pid

	k.prompt()
}

// editCredential applies ch to a credential buffer, echoing echo for every
// accepted character.
func editCredential(mux *tty.Mux, buf []byte, n *int, ch, echo byte) {
	switch {
	case ch == '\b':
		if *n > 0 {
			*n--
			kfmt.Fprintf(mux, "\b")
		}
	case ch < 0x20 || ch >= 0x7f:
	case *n < len(buf):
		buf[*n] = ch
		*n++
		kfmt.Fprintf(mux, "%c", echo)
	}
}

// prompt prints the shell prompt of the live session.
func (k *Kernel) prompt() {
	state := &k.logins[k.mux.Active()]

	path, err := k.fs.AppendPath(k.pathBuf[:0], k.mux.Cwd())
	if err != nil {
		path = append(k.pathBuf[:0], '/')
	}

	kfmt.Fprintf(k.mux, "%s@%s:%s# ", state.user[:state.userLen], hostname, path)
}

// ShellPID returns the pid of the shell started when session logged in or
// 0 if the session is not logged in.
func (k *Kernel) ShellPID(session int) uint32 {
	if session < 0 || session >= len(k.logins) {
		return 0
	}
	return k.logins[session].shellPID
}

// renderMouse draws the pointer and the drag selection.
func (k *Kernel) renderMouse(ev ps2.MouseEvent) {
	cons := k.mux.Console()
	if cons == nil {
		return
	}

	cons.HidePointer()
	if ev.HasCleared {
		cons.Unhighlight(ev.Cleared)
	}
	if ev.Selecting {
		cons.Highlight(ev.Selection, console.MakeAttr(console.White, console.Black))
	}
	cons.ShowPointer(ev.X, ev.Y)
}
