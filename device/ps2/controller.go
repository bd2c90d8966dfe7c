// Package ps2 drives the 8042 PS/2 controller and decodes the keyboard and
// mouse byte streams it delivers.
package ps2

import (
	"io"

	"github.com/srunixre/srunix/device"
	"github.com/srunixre/srunix/kernel"
	"github.com/srunixre/srunix/kernel/cpu"
	"github.com/srunixre/srunix/kernel/kfmt"
)

const (
	dataPort    = 0x60
	commandPort = 0x64 // reads return the status register

	statusOutputFull = 1 << 0
	statusInputFull  = 1 << 1
	statusAuxData    = 1 << 5

	cmdReadConfig  = 0x20
	cmdWriteConfig = 0x60
	cmdEnableAux   = 0xA8
	cmdWriteAux    = 0xD4

	configAuxIRQ = 1 << 1

	mouseSetDefaults   = 0xF6
	mouseEnableReports = 0xF4
	mouseAck           = 0xFA

	// maxWaitPolls bounds the status register polling performed while
	// talking to the controller.
	maxWaitPolls = 100000

	// maxFlushReads bounds the number of stale bytes discarded at init.
	maxFlushReads = 32

	// The pointer bounds used until the console size is known.
	defaultWidth  = 80
	defaultHeight = 25
)

var (
	portReadByteFn  = cpu.PortReadByte
	portWriteByteFn = cpu.PortWriteByte

	errMouseNoAck   = &kernel.Error{Module: "ps2", Message: "mouse did not acknowledge command", Kind: kernel.NotFound}
	errNoController = &kernel.Error{Module: "ps2", Message: "controller not present", Kind: kernel.NotFound}
)

// Controller is the driver for the 8042 PS/2 controller. It owns the input
// decoders fed from the controller output buffer.
type Controller struct {
	input Input
}

// NewController creates a controller driver for a console with the given
// dimensions; the dimensions bound the mouse position.
func NewController(width, height uint32) *Controller {
	c := &Controller{}
	c.input.mouse = NewMouseDecoder(width, height)
	return c
}

// SetScreenSize re-centers the mouse pointer within a width x height console.
func (c *Controller) SetScreenSize(width, height uint32) {
	c.input.mouse = NewMouseDecoder(width, height)
}

// Input returns the event source fed by this controller.
func (c *Controller) Input() *Input {
	return &c.input
}

// waitWrite spins until the controller input buffer is empty and a byte can
// be written. It returns false if the wait times out.
func (c *Controller) waitWrite() bool {
	for polls := 0; polls < maxWaitPolls; polls++ {
		if portReadByteFn(commandPort)&statusInputFull == 0 {
			return true
		}
	}
	return false
}

// waitRead spins until the controller output buffer holds a byte. It returns
// false if the wait times out.
func (c *Controller) waitRead() bool {
	for polls := 0; polls < maxWaitPolls; polls++ {
		if portReadByteFn(commandPort)&statusOutputFull != 0 {
			return true
		}
	}
	return false
}

func (c *Controller) writeCommand(cmd uint8) {
	c.waitWrite()
	portWriteByteFn(commandPort, cmd)
}

func (c *Controller) writeData(val uint8) {
	c.waitWrite()
	portWriteByteFn(dataPort, val)
}

func (c *Controller) readData() uint8 {
	c.waitRead()
	return portReadByteFn(dataPort)
}

// writeMouse forwards a command byte to the auxiliary device and returns its
// acknowledgement.
func (c *Controller) writeMouse(cmd uint8) uint8 {
	c.writeCommand(cmdWriteAux)
	c.writeData(cmd)
	return c.readData()
}

// EnableMouse enables the auxiliary device, turns on its interrupt bit in the
// controller configuration byte and switches the mouse to streaming mode.
// Once the mouse acknowledges, its packets are delivered by Input.ReadEvent.
func (c *Controller) EnableMouse() *kernel.Error {
	c.writeCommand(cmdEnableAux)

	c.writeCommand(cmdReadConfig)
	config := c.readData() | configAuxIRQ
	c.writeCommand(cmdWriteConfig)
	c.writeData(config)

	for _, cmd := range [...]uint8{mouseSetDefaults, mouseEnableReports} {
		if ack := c.writeMouse(cmd); ack != mouseAck {
			return errMouseNoAck
		}
	}

	c.input.mouseEnabled = true
	return nil
}

// MouseEnabled returns true if mouse packets are being decoded.
func (c *Controller) MouseEnabled() bool {
	return c.input.mouseEnabled
}

// DriverName returns the name of this driver.
func (c *Controller) DriverName() string {
	return "ps2"
}

// DriverVersion returns the version of this driver.
func (c *Controller) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit discards any bytes left in the controller output buffer by the
// firmware so the decoders start at a packet boundary.
func (c *Controller) DriverInit(w io.Writer) *kernel.Error {
	if portReadByteFn(commandPort) == 0xFF {
		return errNoController
	}

	var flushed int
	for ; flushed < maxFlushReads && portReadByteFn(commandPort)&statusOutputFull != 0; flushed++ {
		portReadByteFn(dataPort)
	}

	kfmt.Fprintf(w, "discarded %d stale bytes\n", flushed)
	return nil
}

func probeForController() device.Driver {
	return NewController(defaultWidth, defaultHeight)
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderInput,
		Probe: probeForController,
	})
}
