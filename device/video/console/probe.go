package console

import (
	"github.com/srunixre/srunix/device"
	"github.com/srunixre/srunix/kernel/cpu"
	"github.com/srunixre/srunix/multiboot"
)

const (
	// The geometry and location of the VGA text buffer when the bootloader
	// does not report a framebuffer.
	defaultColumns    = 80
	defaultRows       = 25
	defaultFbPhysAddr = 0xB8000
)

var (
	portWriteWordFn      = cpu.PortWriteWord
	getFramebufferInfoFn = multiboot.GetFramebufferInfo
)

// probeForVgaTextConsole checks for the presence of a vga text console.
func probeForVgaTextConsole() device.Driver {
	fbInfo := getFramebufferInfoFn()
	if fbInfo == nil {
		return NewVgaTextConsole(defaultColumns, defaultRows, defaultFbPhysAddr)
	}

	if fbInfo.Type != multiboot.FramebufferTypeEGA {
		return nil
	}

	return NewVgaTextConsole(fbInfo.Width, fbInfo.Height, uintptr(fbInfo.PhysAddr))
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderEarly,
		Probe: probeForVgaTextConsole,
	})
}
