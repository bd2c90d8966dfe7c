package kfmt

// Level defines the severity of a kernel log message.
type Level uint8

// The supported log levels in increasing order of severity.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

	// minLevel is the lowest level that Log will emit.
	minLevel = LevelInfo

	// tickFn and tickHz provide the timestamp prepended to log lines.
	tickFn func() uint64
	tickHz uint64
)

// SetLogLevel sets the minimum level for messages emitted by Log.
func SetLogLevel(level Level) {
	if level > LevelError {
		level = LevelError
	}
	minLevel = level
}

// ParseLevel maps a level name as it appears in the boot command line
// ("debug", "info", "warn", "error") to a Level.
func ParseLevel(name string) (Level, bool) {
	switch name {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return LevelInfo, false
}

// SetTickSource registers the function that reports elapsed timer ticks and
// the tick rate used for converting ticks into seconds. Until a tick source is
// registered, log lines are stamped with 0.
func SetTickSource(fn func() uint64, hz uint32) {
	tickFn = fn
	tickHz = uint64(hz)
}

// Log writes a message to the output sink using the format:
//
//	[<uptime seconds>] [<LEVEL>] <module>: <message>
//
// Messages with a level below the one configured via SetLogLevel are dropped.
func Log(level Level, module string, format string, args ...interface{}) {
	if level < minLevel {
		return
	}
	if level > LevelError {
		level = LevelError
	}

	var secs uint64
	if tickFn != nil && tickHz != 0 {
		secs = tickFn() / tickHz
	}

	Printf("[%d] [%s] %s: ", secs, levelNames[level], module)
	Printf(format, args...)
	if len(format) == 0 || format[len(format)-1] != '\n' {
		Printf("\n")
	}
}
