// Package speaker drives the PC speaker through PIT channel 2.
package speaker

import (
	"io"

	"github.com/srunixre/srunix/device"
	"github.com/srunixre/srunix/kernel"
	"github.com/srunixre/srunix/kernel/cpu"
)

const (
	// The speaker divisor uses the rounded oscillator frequency.
	inputFrequency = 1193180

	pitCommandPort  = 0x43
	channel2Port    = 0x42
	gatePort        = 0x61
	modeChannel2    = 0xB6
	gateSpeakerBits = 0x03
)

var (
	portReadByteFn  = cpu.PortReadByte
	portWriteByteFn = cpu.PortWriteByte

	errInvalidFrequency = &kernel.Error{Module: "speaker", Message: "frequency out of range", Kind: kernel.InvalidArgument}
)

// Speaker is the PC speaker driver.
type Speaker struct{}

// Beep starts a tone at freq Hz. The tone lasts until Silence is called.
func (s *Speaker) Beep(freq uint32) *kernel.Error {
	if freq == 0 || freq > inputFrequency {
		return errInvalidFrequency
	}

	divisor := inputFrequency / freq
	portWriteByteFn(pitCommandPort, modeChannel2)
	portWriteByteFn(channel2Port, uint8(divisor))
	portWriteByteFn(channel2Port, uint8(divisor>>8))

	if gate := portReadByteFn(gatePort); gate&gateSpeakerBits != gateSpeakerBits {
		portWriteByteFn(gatePort, gate|gateSpeakerBits)
	}

	return nil
}

// Silence disconnects the speaker from the timer.
func (s *Speaker) Silence() {
	portWriteByteFn(gatePort, portReadByteFn(gatePort)&^gateSpeakerBits)
}

// DriverName returns the name of this driver.
func (s *Speaker) DriverName() string {
	return "pc_speaker"
}

// DriverVersion returns the version of this driver.
func (s *Speaker) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit makes sure the speaker starts silent.
func (s *Speaker) DriverInit(_ io.Writer) *kernel.Error {
	s.Silence()
	return nil
}

func probeForSpeaker() device.Driver {
	return &Speaker{}
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderPlatform,
		Probe: probeForSpeaker,
	})
}
