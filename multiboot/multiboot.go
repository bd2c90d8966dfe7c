// Package multiboot extracts the boot command line and the text framebuffer
// geometry from the multiboot2 information block handed over by the
// bootloader.
package multiboot

import "unsafe"

// infoData is the physical address of the multiboot2 information block.
var infoData uintptr

// tagType identifies a multiboot2 information tag. Only the tags the kernel
// reads are named; the walker skips the rest by size.
type tagType uint32

const (
	tagEnd             tagType = 0
	tagBootCmdLine     tagType = 1
	tagBootLoaderName  tagType = 2
	tagModules         tagType = 3
	tagMemoryMap       tagType = 6
	tagFramebufferInfo tagType = 8
)

// tagHeader prefixes every tag. size covers the header and the payload but
// not the padding up to the next 8-byte boundary.
type tagHeader struct {
	tagType tagType
	size    uint32
}

const (
	// fixedPartLen is the total_size/reserved pair at the start of the block.
	fixedPartLen = 8

	tagHeaderLen = uint32(unsafe.Sizeof(tagHeader{}))
)

// FramebufferType reports how the bootloader initialized the display.
type FramebufferType uint8

const (
	FramebufferTypeIndexed FramebufferType = iota
	FramebufferTypeRGB

	// FramebufferTypeEGA is VGA text mode; Width and Height count cells.
	FramebufferTypeEGA
)

// FramebufferInfo mirrors the layout of the framebuffer tag payload.
type FramebufferInfo struct {
	PhysAddr      uint64
	Pitch         uint32
	Width, Height uint32
	Bpp           uint8
	Type          FramebufferType

	reserved uint16
}

// SetInfoPtr records the address of the multiboot2 information block. It
// must be called before any other function in this package.
func SetInfoPtr(ptr uintptr) {
	infoData = ptr
}

// GetFramebufferInfo returns the framebuffer set up by the bootloader or nil
// when the information block carries no framebuffer tag.
func GetFramebufferInfo() *FramebufferInfo {
	payload, size := lookupTag(tagFramebufferInfo)
	if size == 0 {
		return nil
	}
	return (*FramebufferInfo)(unsafe.Pointer(payload))
}

// CmdLineVisitor is invoked by VisitCmdLine for each token of the boot command
// line. Bare tokens (e.g. "nomouse") are reported with value equal to key. The
// visitor must return true to continue or false to abort the scan.
type CmdLineVisitor func(key, value string) bool

// VisitCmdLine invokes visitor for each whitespace-separated key=value token
// of the boot command line. The strings passed to the visitor point directly
// into the multiboot info block so no memory is allocated.
func VisitCmdLine(visitor CmdLineVisitor) {
	cmdLine := bootCmdLine()

	for start, end := 0, 0; start < len(cmdLine); start = end + 1 {
		for ; start < len(cmdLine) && isSpace(cmdLine[start]); start++ {
		}
		for end = start; end < len(cmdLine) && !isSpace(cmdLine[end]); end++ {
		}
		if start == end {
			continue
		}

		token := cmdLine[start:end]
		key, value := token, token
		for sep := 0; sep < len(token); sep++ {
			if token[sep] == '=' {
				key, value = token[:sep], token[sep+1:]
				break
			}
		}

		if !visitor(key, value) {
			return
		}
	}
}

// CmdLineValue returns the value associated with key on the boot command line.
func CmdLineValue(key string) (value string, found bool) {
	VisitCmdLine(func(k, v string) bool {
		if k == key {
			value, found = v, true
			return false
		}
		return true
	})

	return value, found
}

// bootCmdLine returns the raw command line without the NULL terminator.
func bootCmdLine() string {
	curPtr, size := lookupTag(tagBootCmdLine)
	if size <= 1 {
		return ""
	}

	cmdLine := unsafe.String((*byte)(unsafe.Pointer(curPtr)), int(size-1))
	for i := 0; i < len(cmdLine); i++ {
		if cmdLine[i] == 0 {
			return cmdLine[:i]
		}
	}
	return cmdLine
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n'
}

// lookupTag walks the tag list and returns the address and length of the
// payload of the first tag of type want, or (0, 0) when there is none.
func lookupTag(want tagType) (uintptr, uint32) {
	if infoData == 0 {
		return 0, 0
	}

	for ptr := infoData + fixedPartLen; ; {
		hdr := (*tagHeader)(unsafe.Pointer(ptr))
		switch hdr.tagType {
		case tagEnd:
			return 0, 0
		case want:
			return ptr + uintptr(tagHeaderLen), hdr.size - tagHeaderLen
		}

		ptr += uintptr((hdr.size + 7) &^ 7)
	}
}
