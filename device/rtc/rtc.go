// Package rtc reads the wall clock from the CMOS real-time clock.
package rtc

import (
	"io"

	"github.com/srunixre/srunix/device"
	"github.com/srunixre/srunix/kernel"
	"github.com/srunixre/srunix/kernel/cpu"
	"github.com/srunixre/srunix/kernel/kfmt"
)

const (
	indexPort = 0x70
	dataPort  = 0x71

	regSeconds = 0x00
	regMinutes = 0x02
	regHours   = 0x04
	regDay     = 0x07
	regMonth   = 0x08
	regYear    = 0x09

	// The RTC only stores the last two digits of the year.
	century = 2000
)

var (
	portReadByteFn  = cpu.PortReadByte
	portWriteByteFn = cpu.PortWriteByte
)

// Time is a wall clock reading.
type Time struct {
	Year                 uint16
	Month, Day           uint8
	Hour, Minute, Second uint8
}

// Clock is the driver for the CMOS real-time clock.
type Clock struct{}

// bcdToBinary decodes a two-digit binary-coded decimal value.
func bcdToBinary(v uint8) uint8 {
	return (v & 0x0f) + (v>>4)*10
}

func readRegister(reg uint8) uint8 {
	portWriteByteFn(indexPort, reg)
	return bcdToBinary(portReadByteFn(dataPort))
}

// Now returns the current date and time.
func (c *Clock) Now() Time {
	return Time{
		Second: readRegister(regSeconds),
		Minute: readRegister(regMinutes),
		Hour:   readRegister(regHours),
		Day:    readRegister(regDay),
		Month:  readRegister(regMonth),
		Year:   century + uint16(readRegister(regYear)),
	}
}

// DriverName returns the name of this driver.
func (c *Clock) DriverName() string {
	return "rtc"
}

// DriverVersion returns the version of this driver.
func (c *Clock) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit logs the current time.
func (c *Clock) DriverInit(w io.Writer) *kernel.Error {
	now := c.Now()
	kfmt.Fprintf(w, "%4d-%2d-%2d %2d:%2d:%2d\n", now.Year, now.Month, now.Day, now.Hour, now.Minute, now.Second)
	return nil
}

func probeForClock() device.Driver {
	return &Clock{}
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderPlatform,
		Probe: probeForClock,
	})
}
