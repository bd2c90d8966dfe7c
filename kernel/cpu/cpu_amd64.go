// Package cpu exposes the privileged x86-64 instructions used by the kernel.
// The functions without a body are implemented in assembly.
package cpu

// cpuidFn is mocked by tests.
var cpuidFn = ID

// DisableInterrupts clears the interrupt flag. The kernel polls every device
// so interrupts stay masked for its whole lifetime.
func DisableInterrupts()

// Halt masks interrupts and stops the CPU for good.
func Halt()

// ID executes CPUID for the given leaf and returns EAX, EBX, ECX and EDX.
func ID(leaf uint32) (uint32, uint32, uint32, uint32)

// Vendor returns the vendor string reported by CPUID leaf 0, e.g.
// "GenuineIntel".
func Vendor() [12]byte {
	var vendor [12]byte

	_, ebx, ecx, edx := cpuidFn(0)
	for i, reg := range [...]uint32{ebx, edx, ecx} {
		vendor[i*4] = byte(reg)
		vendor[i*4+1] = byte(reg >> 8)
		vendor[i*4+2] = byte(reg >> 16)
		vendor[i*4+3] = byte(reg >> 24)
	}
	return vendor
}

// PortWriteByte writes val to an I/O port.
func PortWriteByte(port uint16, val uint8)

// PortWriteWord writes val to an I/O port. Devices with paired index/data
// ports latch the low byte at port and the high byte at port+1.
func PortWriteWord(port uint16, val uint16)

// PortReadByte reads a byte from an I/O port.
func PortReadByte(port uint16) uint8
