package kmain

import (
	"strconv"

	"github.com/srunixre/srunix/device/timer"
	"github.com/srunixre/srunix/device/tty"
	"github.com/srunixre/srunix/kernel/kfmt"
	"github.com/srunixre/srunix/multiboot"
)

// Config holds the boot-time settings of the kernel.
type Config struct {
	// TickHz is the timer interrupt rate.
	TickHz uint32

	// Mouse enables PS/2 mouse capture.
	Mouse bool

	// LogLevel is the minimum level of emitted log messages.
	LogLevel kfmt.Level

	// Sessions is the number of terminal sessions.
	Sessions int
}

// visitCmdLineFn is mocked by tests.
var visitCmdLineFn = multiboot.VisitCmdLine

// DefaultConfig returns the settings used when the boot command line does
// not override them.
func DefaultConfig() Config {
	return Config{
		TickHz:   timer.DefaultHz,
		LogLevel: kfmt.LevelInfo,
		Sessions: tty.MaxSessions,
	}
}

// ParseConfig builds a Config from the defaults and the boot command line.
// The recognized options are:
//
//	hz=<n>                        timer tick rate
//	mouse=on|off                  PS/2 mouse capture
//	loglevel=debug|info|warn|error
//	ttys=<n>                      number of terminal sessions (1-9)
//
// Invalid values are logged and ignored.
func ParseConfig() Config {
	cfg := DefaultConfig()
	visitCmdLineFn(func(key, value string) bool {
		if !cfg.set(key, value) {
			kfmt.Log(kfmt.LevelWarn, "kmain", "ignoring invalid boot option %s=%s", key, value)
		}
		return true
	})
	return cfg
}

// set applies a single option. It returns false if a recognized option has
// an invalid value; unknown options are left to other subsystems.
func (cfg *Config) set(key, value string) bool {
	switch key {
	case "hz":
		hz, err := strconv.ParseUint(value, 10, 32)
		if err != nil || hz == 0 || hz > timer.InputFrequency {
			return false
		}
		cfg.TickHz = uint32(hz)
	case "mouse":
		switch value {
		case "on", "mouse":
			cfg.Mouse = true
		case "off":
			cfg.Mouse = false
		default:
			return false
		}
	case "loglevel":
		level, ok := kfmt.ParseLevel(value)
		if !ok {
			return false
		}
		cfg.LogLevel = level
	case "ttys":
		count, err := strconv.Atoi(value)
		if err != nil || count < 1 || count > tty.MaxSessions {
			return false
		}
		cfg.Sessions = count
	}

	return true
}

// apply pushes the settings to the subsystems that consume them before
// hardware detection runs.
func (cfg *Config) apply(rootDir uint32) {
	kfmt.SetLogLevel(cfg.LogLevel)
	timer.SetProbeHz(cfg.TickHz)
	tty.SetProbeDefaults(cfg.Sessions, rootDir)
}
