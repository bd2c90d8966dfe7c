// Package timer drives channel 0 of the 8253/8254 programmable interval
// timer. Interrupts are never enabled so elapsed ticks are counted by polling
// the channel counter.
package timer

import (
	"io"

	"github.com/srunixre/srunix/device"
	"github.com/srunixre/srunix/kernel"
	"github.com/srunixre/srunix/kernel/cpu"
	"github.com/srunixre/srunix/kernel/kfmt"
)

const (
	// InputFrequency is the PIT oscillator frequency in Hz.
	InputFrequency = 1193182

	// DefaultHz is the tick rate used when none is configured.
	DefaultHz = 100

	commandPort  = 0x43
	channel0Port = 0x40

	// channel 0, lobyte/hibyte access, mode 2 (rate generator), binary.
	// The counter reloads exactly once per period.
	modeRateGenerator = 0x34

	// channel 0 counter latch command
	latchChannel0 = 0x00
)

var (
	portReadByteFn  = cpu.PortReadByte
	portWriteByteFn = cpu.PortWriteByte

	probeHz uint32 = DefaultHz
)

// PIT tracks the ticks of PIT channel 0.
type PIT struct {
	hz      uint32
	divisor uint16

	ticks     uint64
	lastCount uint16
	sampled   bool
}

// NewPIT returns a timer that ticks hz times per second. A zero rate selects
// DefaultHz.
func NewPIT(hz uint32) *PIT {
	if hz == 0 {
		hz = DefaultHz
	}

	divisor := InputFrequency / hz
	switch {
	case divisor == 0:
		divisor = 1
	case divisor > 0xffff:
		divisor = 0xffff
	}

	return &PIT{hz: hz, divisor: uint16(divisor)}
}

// Hz returns the configured tick rate.
func (p *PIT) Hz() uint32 {
	return p.hz
}

// Divisor returns the reload value programmed into channel 0.
func (p *PIT) Divisor() uint16 {
	return p.divisor
}

// Program writes the mode byte followed by the reload value to channel 0.
func (p *PIT) Program() {
	portWriteByteFn(commandPort, modeRateGenerator)
	portWriteByteFn(channel0Port, uint8(p.divisor))
	portWriteByteFn(channel0Port, uint8(p.divisor>>8))
	p.sampled = false
}

// Poll samples the channel 0 counter. The counter runs down from the reload
// value, so a sample greater than the previous one means the counter wrapped
// and a tick elapsed. Poll must be called more often than once per tick for
// the count to be exact.
func (p *PIT) Poll() {
	portWriteByteFn(commandPort, latchChannel0)
	count := uint16(portReadByteFn(channel0Port))
	count |= uint16(portReadByteFn(channel0Port)) << 8

	if p.sampled && count > p.lastCount {
		p.ticks++
	}
	p.lastCount, p.sampled = count, true
}

// Ticks returns the number of ticks observed since the timer was programmed.
func (p *PIT) Ticks() uint64 {
	return p.ticks
}

// Uptime returns the number of whole seconds observed since the timer was
// programmed.
func (p *PIT) Uptime() uint64 {
	return p.ticks / uint64(p.hz)
}

// DriverName returns the name of this driver.
func (p *PIT) DriverName() string {
	return "pit"
}

// DriverVersion returns the version of this driver.
func (p *PIT) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit programs channel 0.
func (p *PIT) DriverInit(w io.Writer) *kernel.Error {
	p.Program()
	kfmt.Fprintf(w, "channel 0 at %d Hz (divisor %d)\n", p.hz, p.divisor)
	return nil
}

// SetProbeHz configures the tick rate of the timer created by the hal probe.
func SetProbeHz(hz uint32) {
	probeHz = hz
}

func probeForPIT() device.Driver {
	return NewPIT(probeHz)
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderPlatform,
		Probe: probeForPIT,
	})
}
