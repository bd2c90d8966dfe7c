// Package hal detects the available hardware, initializes the matching
// drivers and keeps track of the devices the kernel interacts with.
package hal

import (
	"bytes"
	"sort"

	"github.com/srunixre/srunix/device"
	"github.com/srunixre/srunix/device/ps2"
	"github.com/srunixre/srunix/device/rtc"
	"github.com/srunixre/srunix/device/speaker"
	"github.com/srunixre/srunix/device/timer"
	"github.com/srunixre/srunix/device/tty"
	"github.com/srunixre/srunix/device/video/console"
	"github.com/srunixre/srunix/kernel/kfmt"
)

// managedDevices contains the devices discovered by the HAL.
type managedDevices struct {
	activeConsole console.Device
	activeMux     *tty.Mux
	input         *ps2.Controller
	timer         *timer.PIT
	clock         *rtc.Clock
	speaker       *speaker.Speaker

	// activeDrivers tracks all initialized device drivers.
	activeDrivers []device.Driver
}

var (
	devices managedDevices
	strBuf  bytes.Buffer

	// driverListFn is mocked by tests.
	driverListFn = device.DriverList
)

// ActiveConsole returns the console that receives kernel output.
func ActiveConsole() console.Device { return devices.activeConsole }

// ActiveMux returns the terminal multiplexer attached to the active console.
func ActiveMux() *tty.Mux { return devices.activeMux }

// Input returns the PS/2 controller.
func Input() *ps2.Controller { return devices.input }

// Timer returns the programmable interval timer.
func Timer() *timer.PIT { return devices.timer }

// Clock returns the real-time clock.
func Clock() *rtc.Clock { return devices.clock }

// Speaker returns the PC speaker.
func Speaker() *speaker.Speaker { return devices.speaker }

// ActiveDrivers returns the drivers that were successfully initialized.
func ActiveDrivers() []device.Driver { return devices.activeDrivers }

// DetectHardware probes for hardware devices and initializes the appropriate
// drivers.
func DetectHardware() {
	// Get driver list and sort by detection priority
	drivers := driverListFn()
	sort.Stable(drivers)

	probe(drivers)
}

// probe executes the probe function for each driver and invokes
// onDriverInit for each successfully initialized driver.
func probe(driverInfoList device.DriverInfoList) {
	var w kfmt.PrefixWriter

	for _, info := range driverInfoList {
		drv := info.Probe()
		if drv == nil {
			continue
		}

		strBuf.Reset()
		major, minor, patch := drv.DriverVersion()
		kfmt.Fprintf(&strBuf, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)

		// The sink changes once a console has been attached.
		w.Sink = kfmt.GetOutputSink()
		w.Reset(strBuf.Bytes())

		if err := drv.DriverInit(&w); err != nil {
			kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
			continue
		}

		kfmt.Fprintf(&w, "initialized\n")
		onDriverInit(drv)
		devices.activeDrivers = append(devices.activeDrivers, drv)
	}
}

// onDriverInit is invoked by probe() whenever a piece of hardware is detected
// and successfully initialized.
func onDriverInit(drv device.Driver) {
	switch drvImpl := drv.(type) {
	case console.Device:
		onConsoleInit(drvImpl)
	case *tty.Mux:
		if devices.activeMux != nil {
			return
		}

		devices.activeMux = drvImpl
		if devices.activeConsole != nil {
			linkMuxToConsole()
		}
	case *ps2.Controller:
		devices.input = drvImpl
		if devices.activeConsole != nil {
			drvImpl.SetScreenSize(devices.activeConsole.Dimensions())
		}
	case *timer.PIT:
		devices.timer = drvImpl
		kfmt.SetTickSource(drvImpl.Ticks, drvImpl.Hz())
	case *rtc.Clock:
		devices.clock = drvImpl
	case *speaker.Speaker:
		devices.speaker = drvImpl
	}
}

// onConsoleInit is invoked whenever a console is initialized. The first
// console becomes the active console and the kfmt output sink.
func onConsoleInit(cons console.Device) {
	if devices.activeConsole != nil {
		return
	}

	devices.activeConsole = cons
	kfmt.SetOutputSink(cons)

	if devices.input != nil {
		devices.input.SetScreenSize(cons.Dimensions())
	}

	if devices.activeMux != nil {
		linkMuxToConsole()
	}
}

// linkMuxToConsole connects the active multiplexer to the active console and
// routes kernel output through it.
func linkMuxToConsole() {
	devices.activeMux.AttachTo(devices.activeConsole)
	kfmt.SetOutputSink(devices.activeMux)
}
