// Package fs implements the in-memory file store: a flat directory entry list
// binding names to inodes under a parent inode.
package fs

import (
	"github.com/srunixre/srunix/kernel"
	"github.com/srunixre/srunix/kernel/fs/block"
	"github.com/srunixre/srunix/kernel/fs/inode"
)

const (
	// RootInode is the id of the root directory. It has no entry of its own.
	RootInode uint32 = 1

	// MaxEntries is the capacity of the directory entry list.
	MaxEntries = 128

	// MaxNameLen is the maximum length of an entry name in bytes.
	MaxNameLen = 31

	forbiddenChars = "&;|*?'\"`[]()$<>{}^#\\/%!"
)

// EntryType is the kind of object a directory entry refers to.
type EntryType uint8

// The supported entry types.
const (
	TypeFile EntryType = iota + 1
	TypeDir
	TypeSymlink
)

// Mode returns the inode mode for the entry type.
func (t EntryType) Mode() inode.Mode {
	switch t {
	case TypeFile:
		return inode.ModeRegular
	case TypeDir:
		return inode.ModeDir
	case TypeSymlink:
		return inode.ModeSymlink
	default:
		return inode.ModeFree
	}
}

var (
	// ErrNotDir is returned when a path component or parent is not a
	// directory.
	ErrNotDir = &kernel.Error{Module: "fs", Message: "not a directory", Kind: kernel.InvalidArgument}

	// ErrIsDir is returned when file contents are requested for a directory.
	ErrIsDir = &kernel.Error{Module: "fs", Message: "is a directory", Kind: kernel.InvalidArgument}
)

var (
	errInvalidName = &kernel.Error{Module: "fs", Message: "invalid file name", Kind: kernel.InvalidName}
	errBadType     = &kernel.Error{Module: "fs", Message: "invalid entry type", Kind: kernel.InvalidArgument}
	errNoParent    = &kernel.Error{Module: "fs", Message: "parent directory not found", Kind: kernel.NotFound}
	errDuplicate   = &kernel.Error{Module: "fs", Message: "file already exists", Kind: kernel.DuplicateName}
	errTableFull   = &kernel.Error{Module: "fs", Message: "too many files", Kind: kernel.CapacityExceeded}
	errNotFound    = &kernel.Error{Module: "fs", Message: "no such file or directory", Kind: kernel.NotFound}
	errDeleteRoot  = &kernel.Error{Module: "fs", Message: "cannot delete the root directory", Kind: kernel.InvalidArgument}
)

// Entry binds a name to an inode under a parent directory inode.
type Entry struct {
	name    [MaxNameLen]byte
	nameLen uint8

	Inode  uint32
	Parent uint32
	Type   EntryType
}

// Name returns the entry name.
func (e Entry) Name() string {
	return string(e.name[:e.nameLen])
}

func (e *Entry) hasName(name string) bool {
	return int(e.nameLen) == len(name) && string(e.name[:e.nameLen]) == name
}

// Usage summarizes the occupancy of the store.
type Usage struct {
	TotalBlocks uint32
	FreeBlocks  uint32
	TotalInodes uint32
	FreeInodes  uint32
	Entries     uint32
	MaxEntries  uint32
}

// FS is the file store.
type FS struct {
	blocks *block.Store
	inodes *inode.Table

	entries    [MaxEntries]Entry
	entryCount int
}

// New returns an empty file store containing only the root directory. Inode
// timestamps are taken from clock.
func New(clock inode.Clock) *FS {
	fs := &FS{blocks: block.NewStore()}
	fs.inodes = inode.NewTable(fs.blocks, clock)

	// The first allocation in an empty table always yields RootInode.
	if _, err := fs.inodes.Alloc(inode.ModeDir); err != nil {
		panic(err)
	}

	return fs
}

// ValidName returns true if name can be used for a directory entry.
func ValidName(name string) bool {
	if len(name) == 0 || len(name) > MaxNameLen {
		return false
	}

	for i := 0; i < len(name); i++ {
		for j := 0; j < len(forbiddenChars); j++ {
			if name[i] == forbiddenChars[j] {
				return false
			}
		}
	}

	return name != "." && name != ".."
}

// Create adds a new entry called name under parent and returns the id of
// the inode allocated for it.
func (fs *FS) Create(name string, parent uint32, typ EntryType) (uint32, *kernel.Error) {
	if !ValidName(name) {
		return 0, errInvalidName
	}

	mode := typ.Mode()
	if mode == inode.ModeFree {
		return 0, errBadType
	}

	if err := fs.checkDir(parent); err != nil {
		return 0, err
	}

	if fs.find(parent, name) >= 0 {
		return 0, errDuplicate
	}

	if fs.entryCount == MaxEntries {
		return 0, errTableFull
	}

	id, err := fs.inodes.Alloc(mode)
	if err != nil {
		return 0, err
	}

	entry := &fs.entries[fs.entryCount]
	*entry = Entry{Inode: id, Parent: parent, Type: typ}
	entry.nameLen = uint8(copy(entry.name[:], name))
	fs.entryCount++

	return id, nil
}

// Delete removes the entry for id, releases its blocks and frees its inode.
// Directories are emptied recursively first.
func (fs *FS) Delete(id uint32) *kernel.Error {
	if id == RootInode {
		return errDeleteRoot
	}

	index := fs.indexOf(id)
	if index < 0 {
		return errNotFound
	}

	if fs.entries[index].Type == TypeDir {
		for child := fs.firstChild(id); child >= 0; child = fs.firstChild(id) {
			if err := fs.Delete(fs.entries[child].Inode); err != nil {
				return err
			}
		}

		// children are removed by compaction so the entry may have moved
		index = fs.indexOf(id)
	}

	_ = fs.inodes.Release(id)

	copy(fs.entries[index:fs.entryCount], fs.entries[index+1:fs.entryCount])
	fs.entryCount--
	fs.entries[fs.entryCount] = Entry{}

	return fs.inodes.Free(id)
}

// Lookup returns the inode of the entry called name under parent.
func (fs *FS) Lookup(parent uint32, name string) (uint32, *kernel.Error) {
	index := fs.find(parent, name)
	if index < 0 {
		return 0, errNotFound
	}
	return fs.entries[index].Inode, nil
}

// Entry returns a copy of the entry for id.
func (fs *FS) Entry(id uint32) (Entry, *kernel.Error) {
	index := fs.indexOf(id)
	if index < 0 {
		return Entry{}, errNotFound
	}
	return fs.entries[index], nil
}

// List appends the entries under parent to dst in creation order and returns
// the extended slice.
func (fs *FS) List(parent uint32, dst []Entry) ([]Entry, *kernel.Error) {
	if err := fs.checkDir(parent); err != nil {
		return dst, err
	}

	for i := 0; i < fs.entryCount; i++ {
		if fs.entries[i].Parent == parent {
			dst = append(dst, fs.entries[i])
		}
	}
	return dst, nil
}

// Stat returns a copy of the inode with the given id.
func (fs *FS) Stat(id uint32) (inode.Inode, *kernel.Error) {
	ino, err := fs.inodes.Get(id)
	if err != nil {
		return ino, errNotFound
	}
	return ino, nil
}

// IsDir returns true if id refers to the root or a directory entry.
func (fs *FS) IsDir(id uint32) bool {
	return fs.checkDir(id) == nil
}

// Parent returns the parent directory of id. The root is its own parent.
func (fs *FS) Parent(id uint32) (uint32, *kernel.Error) {
	if id == RootInode {
		return RootInode, nil
	}

	index := fs.indexOf(id)
	if index < 0 {
		return 0, errNotFound
	}
	return fs.entries[index].Parent, nil
}

// ChangeDir resolves a single path component relative to cwd. An empty name
// selects the root and ".." selects the parent of cwd.
func (fs *FS) ChangeDir(cwd uint32, name string) (uint32, *kernel.Error) {
	switch name {
	case "", "/":
		return RootInode, nil
	case ".":
		return cwd, fs.checkDir(cwd)
	case "..":
		return fs.Parent(cwd)
	}

	index := fs.find(cwd, name)
	if index < 0 {
		return cwd, errNotFound
	}

	if fs.entries[index].Type != TypeDir {
		return cwd, ErrNotDir
	}

	return fs.entries[index].Inode, nil
}

// Path returns the absolute path of id.
func (fs *FS) Path(id uint32) (string, *kernel.Error) {
	buf, err := fs.AppendPath(make([]byte, 0, 64), id)
	return string(buf), err
}

// AppendPath appends the absolute path of id to dst by following parent
// links up to the root.
func (fs *FS) AppendPath(dst []byte, id uint32) ([]byte, *kernel.Error) {
	if id == RootInode {
		return append(dst, '/'), nil
	}

	var (
		chain [MaxEntries]int
		depth int
	)

	for cur := id; cur != RootInode; depth++ {
		index := fs.indexOf(cur)
		if index < 0 || depth == len(chain) {
			return dst, errNotFound
		}
		chain[depth] = index
		cur = fs.entries[index].Parent
	}

	for depth > 0 {
		depth--
		entry := &fs.entries[chain[depth]]
		dst = append(dst, '/')
		dst = append(dst, entry.name[:entry.nameLen]...)
	}

	return dst, nil
}

// ReadFile copies the contents of a file into buf and returns the number of
// bytes copied.
func (fs *FS) ReadFile(id uint32, buf []byte) (int, *kernel.Error) {
	if err := fs.checkFile(id); err != nil {
		return 0, err
	}
	return fs.inodes.Read(id, buf)
}

// WriteFile replaces the contents of a file with data.
func (fs *FS) WriteFile(id uint32, data []byte) *kernel.Error {
	if err := fs.checkFile(id); err != nil {
		return err
	}
	return fs.inodes.Write(id, data)
}

// Usage returns the current occupancy counters.
func (fs *FS) Usage() Usage {
	return Usage{
		TotalBlocks: block.Count,
		FreeBlocks:  fs.blocks.FreeCount(),
		TotalInodes: inode.Count,
		FreeInodes:  fs.inodes.FreeCount(),
		Entries:     uint32(fs.entryCount),
		MaxEntries:  MaxEntries,
	}
}

func (fs *FS) checkDir(id uint32) *kernel.Error {
	if id == RootInode {
		return nil
	}

	index := fs.indexOf(id)
	if index < 0 {
		return errNoParent
	}
	if fs.entries[index].Type != TypeDir {
		return ErrNotDir
	}
	return nil
}

func (fs *FS) checkFile(id uint32) *kernel.Error {
	if id == RootInode {
		return ErrIsDir
	}

	index := fs.indexOf(id)
	if index < 0 {
		return errNotFound
	}
	if fs.entries[index].Type == TypeDir {
		return ErrIsDir
	}
	return nil
}

func (fs *FS) indexOf(id uint32) int {
	for i := 0; i < fs.entryCount; i++ {
		if fs.entries[i].Inode == id {
			return i
		}
	}
	return -1
}

func (fs *FS) find(parent uint32, name string) int {
	for i := 0; i < fs.entryCount; i++ {
		if fs.entries[i].Parent == parent && fs.entries[i].hasName(name) {
			return i
		}
	}
	return -1
}

func (fs *FS) firstChild(parent uint32) int {
	for i := 0; i < fs.entryCount; i++ {
		if fs.entries[i].Parent == parent {
			return i
		}
	}
	return -1
}
