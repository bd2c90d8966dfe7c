package kfmt

import (
	"github.com/srunixre/srunix/kernel"
	"github.com/srunixre/srunix/kernel/cpu"
)

var (
	// haltFn stops the machine once the panic banner is out.
	haltFn = cpu.Halt

	// panicScreenFn runs before the banner; kmain uses it to clear the
	// console and switch to the alert palette.
	panicScreenFn func()

	// errPanic carries causes that are not already kernel errors. Its
	// message is overwritten on each use.
	errPanic = &kernel.Error{Module: "rt", Message: "unknown cause", Kind: kernel.Fatal}
)

// SetPanicScreen installs the hook that prepares the screen for a panic.
// A nil fn disables it.
func SetPanicScreen(fn func()) {
	panicScreenFn = fn
}

// Panic prints a diagnostic for cause and halts the CPU. The cause may be a
// *kernel.Error, a Go error, a string or nil. Panic does not return on real
// hardware.
func Panic(cause interface{}) {
	err := panicCause(cause)

	if panicScreenFn != nil {
		panicScreenFn()
	}

	Printf("\n\n*** KERNEL PANIC ***\n")
	if err != nil {
		Printf("%s: %s (%s)\n", err.Module, err.Message, err.Kind.String())
	}
	Printf("\nKernel panic - not syncing: Fatal exception\n")

	haltFn()
}

func panicCause(cause interface{}) *kernel.Error {
	switch c := cause.(type) {
	case *kernel.Error:
		return c
	case error:
		errPanic.Message = c.Error()
	case string:
		errPanic.Message = c
	default:
		return nil
	}
	return errPanic
}
