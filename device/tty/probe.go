package tty

import "github.com/srunixre/srunix/device"

var (
	probeSessions = MaxSessions
	probeRootDir  uint32
)

// SetProbeDefaults configures the session count and the initial current
// directory of the multiplexer created by the hal probe.
func SetProbeDefaults(sessions int, rootDir uint32) {
	probeSessions, probeRootDir = sessions, rootDir
}

func probeForMux() device.Driver {
	return NewMux(probeSessions, probeRootDir)
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderLast,
		Probe: probeForMux,
	})
}
