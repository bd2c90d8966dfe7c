// Package inode implements a fixed table of inodes whose file contents live
// in direct block references into a block.Store.
package inode

import (
	"github.com/srunixre/srunix/kernel"
	"github.com/srunixre/srunix/kernel/fs/block"
)

const (
	// Count is the number of inodes in the table. Inode ids are 1-based.
	Count = 128

	// DirectBlocks is the number of block references held by an inode.
	DirectBlocks = 12

	// MaxFileSize is the largest file size that can be stored.
	MaxFileSize = DirectBlocks * block.Size
)

// Mode is the type tag of an inode. The zero value marks a free slot.
type Mode uint16

// The supported inode modes.
const (
	ModeFree    Mode = 0
	ModeDir     Mode = 0x4000
	ModeRegular Mode = 0x8000
	ModeSymlink Mode = 0xA000
)

// String implements fmt.Stringer for Mode.
func (m Mode) String() string {
	switch m {
	case ModeDir:
		return "dir"
	case ModeRegular:
		return "file"
	case ModeSymlink:
		return "link"
	case ModeFree:
		return "free"
	default:
		return "unknown"
	}
}

var (
	errExhausted = &kernel.Error{Module: "inode", Message: "no free inodes", Kind: kernel.AllocationExhausted}
	errNotFound  = &kernel.Error{Module: "inode", Message: "no such inode", Kind: kernel.NotFound}
	errBadMode   = &kernel.Error{Module: "inode", Message: "invalid inode mode", Kind: kernel.InvalidArgument}
	errTooLarge  = &kernel.Error{Module: "inode", Message: "file exceeds direct block capacity", Kind: kernel.CapacityExceeded}
	errNoBlocks  = &kernel.Error{Module: "inode", Message: "out of blocks", Kind: kernel.AllocationExhausted}
)

// Inode is the metadata record of a stored object.
type Inode struct {
	Mode Mode
	UID  uint16
	GID  uint16

	// Size is the file size in bytes.
	Size uint32

	// Access, modification and change times in clock ticks.
	Atime uint64
	Mtime uint64
	Ctime uint64

	// BlockCount is the number of valid entries in Blocks.
	BlockCount uint32
	Blocks     [DirectBlocks]uint32
}

// Clock returns the current time in ticks.
type Clock func() uint64

// Table is a fixed arena of inodes backed by a block store.
type Table struct {
	blocks *block.Store
	clock  Clock

	inodes    [Count]Inode
	freeCount uint32
}

// NewTable returns an empty inode table whose contents are stored in blocks.
// A nil clock leaves all timestamps at zero.
func NewTable(blocks *block.Store, clock Clock) *Table {
	if clock == nil {
		clock = func() uint64 { return 0 }
	}

	return &Table{
		blocks:    blocks,
		clock:     clock,
		freeCount: Count,
	}
}

// Alloc reserves the first free inode, initializes it with mode and returns
// its id.
func (t *Table) Alloc(mode Mode) (uint32, *kernel.Error) {
	if mode == ModeFree {
		return 0, errBadMode
	}

	for slot := range t.inodes {
		if t.inodes[slot].Mode != ModeFree {
			continue
		}

		now := t.clock()
		t.inodes[slot] = Inode{Mode: mode, Atime: now, Mtime: now, Ctime: now}
		t.freeCount--
		return uint32(slot) + 1, nil
	}

	return 0, errExhausted
}

// Free zeroes the inode with the given id. The blocks owned by the inode are
// not released; callers must invoke Release first.
func (t *Table) Free(id uint32) *kernel.Error {
	ino, err := t.lookup(id)
	if err != nil {
		return err
	}

	*ino = Inode{}
	t.freeCount++
	return nil
}

// Release returns all blocks owned by the inode to the block store and
// truncates it to zero length.
func (t *Table) Release(id uint32) *kernel.Error {
	ino, err := t.lookup(id)
	if err != nil {
		return err
	}

	t.releaseBlocks(ino)
	ino.Size = 0
	return nil
}

// Write replaces the contents of an inode with data. Writes larger than
// MaxFileSize fail without side effects. If the block store runs out of space
// the inode and its previous contents are left untouched.
func (t *Table) Write(id uint32, data []byte) *kernel.Error {
	ino, err := t.lookup(id)
	if err != nil {
		return err
	}

	if len(data) > MaxFileSize {
		return errTooLarge
	}

	var (
		needed    = uint32((len(data) + block.Size - 1) / block.Size)
		oldCount  = ino.BlockCount
		oldBlocks = ino.Blocks
		newBlocks [DirectBlocks]uint32
	)

	t.releaseBlocks(ino)

	for i := uint32(0); i < needed; i++ {
		index, err := t.blocks.Alloc()
		if err != nil {
			for j := uint32(0); j < i; j++ {
				t.blocks.Free(newBlocks[j])
			}
			for j := uint32(0); j < oldCount; j++ {
				_ = t.blocks.Claim(oldBlocks[j])
			}
			ino.BlockCount = oldCount
			ino.Blocks = oldBlocks
			return errNoBlocks
		}
		newBlocks[i] = index
	}

	for i := uint32(0); i < needed; i++ {
		dst := t.blocks.Data(newBlocks[i])
		n := copy(dst, data[i*block.Size:])
		for ; n < len(dst); n++ {
			dst[n] = 0
		}
	}

	ino.Blocks = newBlocks
	ino.BlockCount = needed
	ino.Size = uint32(len(data))
	ino.Mtime = t.clock()
	return nil
}

// Read copies up to len(buf) bytes of the inode contents into buf and returns
// the number of bytes copied.
func (t *Table) Read(id uint32, buf []byte) (int, *kernel.Error) {
	ino, err := t.lookup(id)
	if err != nil {
		return 0, err
	}

	remaining := int(ino.Size)
	if len(buf) < remaining {
		remaining = len(buf)
	}

	var n int
	for i := uint32(0); i < ino.BlockCount && n < remaining; i++ {
		n += copy(buf[n:remaining], t.blocks.Data(ino.Blocks[i]))
	}

	ino.Atime = t.clock()
	return n, nil
}

// Get returns a copy of the inode with the given id.
func (t *Table) Get(id uint32) (Inode, *kernel.Error) {
	ino, err := t.lookup(id)
	if err != nil {
		return Inode{}, err
	}
	return *ino, nil
}

// FreeCount returns the number of free inodes.
func (t *Table) FreeCount() uint32 {
	return t.freeCount
}

func (t *Table) lookup(id uint32) (*Inode, *kernel.Error) {
	if id == 0 || id > Count || t.inodes[id-1].Mode == ModeFree {
		return nil, errNotFound
	}
	return &t.inodes[id-1], nil
}

func (t *Table) releaseBlocks(ino *Inode) {
	for i := uint32(0); i < ino.BlockCount; i++ {
		t.blocks.Free(ino.Blocks[i])
	}
	ino.BlockCount = 0
	ino.Blocks = [DirectBlocks]uint32{}
}
