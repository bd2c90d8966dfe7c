// Package proc implements the process registry and signal delivery.
package proc

import "github.com/srunixre/srunix/kernel"

const (
	// MaxProcesses is the capacity of the process table.
	MaxProcesses = 16

	// MaxNameLen is the maximum length of a process name in bytes.
	MaxNameLen = 31

	// DefaultPriority is the priority assigned to spawned processes.
	DefaultPriority = 10
)

// State describes the scheduling state of a process.
type State uint8

// The supported process states.
const (
	StateRunning State = iota
	StateStopped
	StateZombie
)

// String implements fmt.Stringer for State.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUN"
	case StateStopped:
		return "STOP"
	case StateZombie:
		return "ZOMB"
	default:
		return "?"
	}
}

// Signal identifies a signal that can be delivered to a process.
type Signal uint8

// The supported signals.
const (
	SIGINT  Signal = 2
	SIGKILL Signal = 9
	SIGCONT Signal = 18
	SIGSTOP Signal = 19
)

var signalNames = [...]struct {
	sig  Signal
	name string
}{
	{SIGINT, "INT"},
	{SIGKILL, "KILL"},
	{SIGCONT, "CONT"},
	{SIGSTOP, "STOP"},
}

// String implements fmt.Stringer for Signal.
func (s Signal) String() string {
	for _, entry := range signalNames {
		if entry.sig == s {
			return "SIG" + entry.name
		}
	}
	return "SIG?"
}

// ParseSignal converts a signal number ("9") or name ("KILL", "SIGKILL")
// into a Signal.
func ParseSignal(s string) (Signal, bool) {
	if len(s) > 3 && s[:3] == "SIG" {
		s = s[3:]
	}

	for _, entry := range signalNames {
		if entry.name == s {
			return entry.sig, true
		}
	}

	if len(s) == 0 || len(s) > 3 {
		return 0, false
	}

	var num int
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		num = num*10 + int(s[i]-'0')
	}

	for _, entry := range signalNames {
		if int(entry.sig) == num {
			return entry.sig, true
		}
	}

	return 0, false
}

var (
	errTableFull  = &kernel.Error{Module: "proc", Message: "process table full", Kind: kernel.AllocationExhausted}
	errNoProcess  = &kernel.Error{Module: "proc", Message: "no such process", Kind: kernel.NotFound}
	errBadSignal  = &kernel.Error{Module: "proc", Message: "unsupported signal", Kind: kernel.InvalidArgument}
	errBadProcess = &kernel.Error{Module: "proc", Message: "invalid process name", Kind: kernel.InvalidArgument}
)

// Context is the saved execution context of a process.
type Context struct {
	StackPtr   uintptr
	EntryPoint uintptr
}

// Process is a row in the process table.
type Process struct {
	PID  uint32
	PPID uint32
	PGID uint32

	name    [MaxNameLen]byte
	nameLen uint8

	Priority uint32
	State    State
	Context  Context
	ExitCode uint32
}

// Name returns the process name.
func (p Process) Name() string {
	return string(p.name[:p.nameLen])
}

// Table is the process registry. Rows are kept in creation order and
// removed rows are compacted away.
type Table struct {
	procs [MaxProcesses]Process
	count int

	lastPID uint32
	current uint32
}

// NewTable returns an empty process table.
func NewTable() *Table {
	return &Table{}
}

// Spawn creates a new process group leader with no parent and returns its
// pid. The first spawned process becomes the current process.
func (t *Table) Spawn(name string, ctx Context) (uint32, *kernel.Error) {
	if len(name) == 0 || len(name) > MaxNameLen {
		return 0, errBadProcess
	}

	if t.count == MaxProcesses {
		return 0, errTableFull
	}

	pid := t.nextPID()
	p := &t.procs[t.count]
	*p = Process{
		PID:      pid,
		PGID:     pid,
		Priority: DefaultPriority,
		State:    StateRunning,
		Context:  ctx,
	}
	p.nameLen = uint8(copy(p.name[:], name))
	t.count++

	if t.current == 0 {
		t.current = pid
	}

	return pid, nil
}

// Fork duplicates the record of caller into a new row and returns the pid of
// the child. Pids are never reused.
func (t *Table) Fork(caller uint32) (uint32, *kernel.Error) {
	parent := t.indexOf(caller)
	if parent < 0 {
		return 0, errNoProcess
	}

	if t.count == MaxProcesses {
		return 0, errTableFull
	}

	child := &t.procs[t.count]
	*child = t.procs[parent]
	child.PID = t.nextPID()
	child.PPID = caller
	t.count++

	return child.PID, nil
}

// Exit marks caller as a zombie with the given exit code. The row is kept.
func (t *Table) Exit(caller, code uint32) *kernel.Error {
	index := t.indexOf(caller)
	if index < 0 {
		return errNoProcess
	}

	t.procs[index].State = StateZombie
	t.procs[index].ExitCode = code
	return nil
}

// Signal delivers sig to the process with the given pid. SIGINT and SIGKILL
// remove the row outright.
func (t *Table) Signal(pid uint32, sig Signal) *kernel.Error {
	switch sig {
	case SIGINT, SIGKILL, SIGSTOP, SIGCONT:
	default:
		return errBadSignal
	}

	index := t.indexOf(pid)
	if index < 0 {
		return errNoProcess
	}

	switch sig {
	case SIGINT, SIGKILL:
		copy(t.procs[index:t.count], t.procs[index+1:t.count])
		t.count--
		t.procs[t.count] = Process{}
		if t.current == pid {
			t.current = 0
		}
	case SIGSTOP:
		t.procs[index].State = StateStopped
	case SIGCONT:
		t.procs[index].State = StateRunning
	}

	return nil
}

// Lookup returns a copy of the process with the given pid.
func (t *Table) Lookup(pid uint32) (Process, *kernel.Error) {
	index := t.indexOf(pid)
	if index < 0 {
		return Process{}, errNoProcess
	}
	return t.procs[index], nil
}

// List appends all processes to dst and returns the extended slice.
func (t *Table) List(dst []Process) []Process {
	return append(dst, t.procs[:t.count]...)
}

// Jobs appends all process group leaders to dst and returns the extended
// slice.
func (t *Table) Jobs(dst []Process) []Process {
	for i := 0; i < t.count; i++ {
		if t.procs[i].PGID == t.procs[i].PID {
			dst = append(dst, t.procs[i])
		}
	}
	return dst
}

// Count returns the number of rows in the table.
func (t *Table) Count() int {
	return t.count
}

// Current returns the pid of the current process or 0 if there is none.
func (t *Table) Current() uint32 {
	return t.current
}

// SetCurrent selects the current process.
func (t *Table) SetCurrent(pid uint32) *kernel.Error {
	if t.indexOf(pid) < 0 {
		return errNoProcess
	}
	t.current = pid
	return nil
}

func (t *Table) nextPID() uint32 {
	t.lastPID++
	return t.lastPID
}

func (t *Table) indexOf(pid uint32) int {
	if pid == 0 {
		return -1
	}

	for i := 0; i < t.count; i++ {
		if t.procs[i].PID == pid {
			return i
		}
	}
	return -1
}
