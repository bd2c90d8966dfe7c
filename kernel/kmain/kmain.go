package kmain

import (
	"github.com/srunixre/srunix/device/video/console"
	"github.com/srunixre/srunix/kernel"
	"github.com/srunixre/srunix/kernel/cpu"
	"github.com/srunixre/srunix/kernel/fs"
	"github.com/srunixre/srunix/kernel/fs/inode"
	"github.com/srunixre/srunix/kernel/hal"
	"github.com/srunixre/srunix/kernel/kfmt"
	"github.com/srunixre/srunix/multiboot"
)

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned", Kind: kernel.Fatal}
	errNoConsole     = &kernel.Error{Module: "kmain", Message: "no terminal console detected", Kind: kernel.Fatal}
	errNoInput       = &kernel.Error{Module: "kmain", Message: "no PS/2 controller detected", Kind: kernel.Fatal}

	// lineHandler is the command interpreter installed into the kernel.
	lineHandler LineHandler
)

// SetLineHandler registers the command interpreter that receives every line
// entered in a logged-in session. It must be called before Kmain.
func SetLineHandler(fn LineHandler) {
	lineHandler = fn
}

// Kmain is the only Go symbol that is visible (exported) from the rt0 initialization
// code. This function is invoked by the rt0 assembly code after setting up the GDT
// and setting up a a minimal g0 struct that allows Go code using the 4K stack
// allocated by the assembly code.
//
// The rt0 code passes the address of the multiboot info payload provided by the
// bootloader as well as the physical addresses for the kernel start/end.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(multibootInfoPtr, kernelStart, kernelEnd uintptr) {
	cpu.DisableInterrupts()
	multiboot.SetInfoPtr(multibootInfoPtr)

	cfg := ParseConfig()
	cfg.apply(fs.RootInode)

	hal.DetectHardware()
	vendor := cpu.Vendor()
	kfmt.Log(kfmt.LevelInfo, "kmain", "%s cpu, kernel image at 0x%x - 0x%x", vendor[:], kernelStart, kernelEnd)

	mux, ctrl := hal.ActiveMux(), hal.Input()
	if mux == nil || mux.Console() == nil {
		kfmt.Panic(errNoConsole)
		return
	}
	if ctrl == nil {
		kfmt.Panic(errNoInput)
		return
	}

	cons := mux.Console()
	kfmt.SetPanicScreen(func() {
		cons.SetColor(console.MakeAttr(console.White, console.Red))
		cons.Clear()
	})

	if cfg.Mouse {
		if err := ctrl.EnableMouse(); err != nil {
			kfmt.Log(kfmt.LevelWarn, "kmain", "mouse disabled: %s", err.Message)
		}
	}

	var clock inode.Clock
	if pit := hal.Timer(); pit != nil {
		ctrl.Input().SetIdleHook(pit.Poll)
		clock = pit.Ticks
	}

	k, err := New(mux, ctrl.Input(), clock)
	if err != nil {
		kfmt.Panic(err)
		return
	}

	k.SetLineHandler(lineHandler)
	if spk := hal.Speaker(); spk != nil {
		k.SetBeeper(spk)
	}
	if rtcClock := hal.Clock(); rtcClock != nil {
		k.SetWallClock(rtcClock.Now)
	}

	usage := k.FS().Usage()
	kfmt.Log(kfmt.LevelInfo, "kmain", "file store ready: %d/%d inodes, %d/%d blocks free",
		usage.FreeInodes, usage.TotalInodes, usage.FreeBlocks, usage.TotalBlocks)

	if err = k.Start(); err != nil {
		kfmt.Panic(err)
		return
	}

	k.Run()

	// Use kfmt.Panic instead of panic to prevent the compiler from
	// treating kfmt.Panic as dead-code and eliminating it.
	kfmt.Panic(errKmainReturned)
}
