package main

import (
	"context"
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/srunixre/srunix/kernel"
	kfs "github.com/srunixre/srunix/kernel/fs"
	"github.com/srunixre/srunix/kernel/fs/block"
	"github.com/srunixre/srunix/kernel/fs/inode"
)

func newFS(clock func() uint64) *kfs.FS {
	return kfs.New(clock)
}

// store serializes every FUSE request through a single mutex. The file store
// itself does no locking.
type store struct {
	mu sync.Mutex
	fs *kfs.FS
}

func (s *store) root() *node {
	return &node{store: s, id: kfs.RootInode}
}

// node is the FUSE view of a single inode.
type node struct {
	fs.Inode

	store *store
	id    uint32
}

var (
	_ = (fs.NodeLookuper)((*node)(nil))
	_ = (fs.NodeReaddirer)((*node)(nil))
	_ = (fs.NodeGetattrer)((*node)(nil))
	_ = (fs.NodeSetattrer)((*node)(nil))
	_ = (fs.NodeOpener)((*node)(nil))
	_ = (fs.NodeReader)((*node)(nil))
	_ = (fs.NodeWriter)((*node)(nil))
	_ = (fs.NodeCreater)((*node)(nil))
	_ = (fs.NodeMkdirer)((*node)(nil))
	_ = (fs.NodeSymlinker)((*node)(nil))
	_ = (fs.NodeReadlinker)((*node)(nil))
	_ = (fs.NodeUnlinker)((*node)(nil))
	_ = (fs.NodeRmdirer)((*node)(nil))
	_ = (fs.NodeStatfser)((*node)(nil))
)

// toErrno maps a kernel error to the closest errno value.
func toErrno(err *kernel.Error) syscall.Errno {
	if err == nil {
		return fs.OK
	}

	switch err.Kind {
	case kernel.NotFound:
		return syscall.ENOENT
	case kernel.InvalidName:
		return syscall.EINVAL
	case kernel.DuplicateName:
		return syscall.EEXIST
	case kernel.CapacityExceeded:
		return syscall.EFBIG
	case kernel.AllocationExhausted:
		return syscall.ENOSPC
	case kernel.InvalidArgument:
		switch err {
		case kfs.ErrNotDir:
			return syscall.ENOTDIR
		case kfs.ErrIsDir:
			return syscall.EISDIR
		}
		return syscall.EINVAL
	default:
		return syscall.EIO
	}
}

// modeBits returns the file type and permission bits for an inode mode.
func modeBits(mode inode.Mode) uint32 {
	switch mode {
	case inode.ModeDir:
		return fuse.S_IFDIR | 0755
	case inode.ModeSymlink:
		return fuse.S_IFLNK | 0777
	default:
		return fuse.S_IFREG | 0644
	}
}

// fillAttr copies the inode metadata into out.
func fillAttr(id uint32, ino inode.Inode, out *fuse.Attr) {
	out.Ino = uint64(id)
	out.Mode = modeBits(ino.Mode)
	out.Size = uint64(ino.Size)
	out.Blocks = uint64(ino.BlockCount) * (block.Size / 512)
	out.Blksize = block.Size
	out.Nlink = 1
	out.Owner = fuse.Owner{Uid: uint32(ino.UID), Gid: uint32(ino.GID)}
	out.Atime = ino.Atime
	out.Mtime = ino.Mtime
	out.Ctime = ino.Ctime
}

// splice overlays data on top of cur at off, zero filling any gap, and
// returns the resulting contents.
func splice(cur, data []byte, off int64) []byte {
	end := int(off) + len(data)
	if end < len(cur) {
		end = len(cur)
	}

	out := make([]byte, end)
	copy(out, cur)
	copy(out[off:], data)
	return out
}

// readAll returns the whole contents of a file. Callers must hold s.mu.
func (s *store) readAll(id uint32) ([]byte, *kernel.Error) {
	buf := make([]byte, inode.MaxFileSize)
	n, err := s.fs.ReadFile(id, buf)
	return buf[:n], err
}

// newChild wraps a freshly created or looked up inode into a FUSE inode.
// Callers must hold s.mu.
func (n *node) newChild(ctx context.Context, id uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	ino, err := n.store.fs.Stat(id)
	if err != nil {
		return nil, toErrno(err)
	}

	fillAttr(id, ino, &out.Attr)
	child := &node{store: n.store, id: id}
	return n.NewInode(ctx, child, fs.StableAttr{Mode: modeBits(ino.Mode) &^ 07777, Ino: uint64(id)}), fs.OK
}

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()

	id, err := n.store.fs.Lookup(n.id, name)
	if err != nil {
		return nil, toErrno(err)
	}
	return n.newChild(ctx, id, out)
}

func (n *node) Readdir(_ context.Context) (fs.DirStream, syscall.Errno) {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()

	entries, err := n.store.fs.List(n.id, nil)
	if err != nil {
		return nil, toErrno(err)
	}

	list := make([]fuse.DirEntry, 0, len(entries))
	for _, entry := range entries {
		list = append(list, fuse.DirEntry{
			Name: entry.Name(),
			Ino:  uint64(entry.Inode),
			Mode: modeBits(entry.Type.Mode()),
		})
	}
	return fs.NewListDirStream(list), fs.OK
}

func (n *node) Getattr(_ context.Context, _ fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()

	ino, err := n.store.fs.Stat(n.id)
	if err != nil {
		return toErrno(err)
	}
	fillAttr(n.id, ino, &out.Attr)
	return fs.OK
}

// Setattr supports truncation; other attribute changes are accepted and
// ignored.
func (n *node) Setattr(_ context.Context, _ fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()

	if size, ok := in.GetSize(); ok {
		cur, err := n.store.readAll(n.id)
		if err != nil {
			return toErrno(err)
		}
		if size > inode.MaxFileSize {
			return syscall.EFBIG
		}

		data := make([]byte, size)
		copy(data, cur)
		if err = n.store.fs.WriteFile(n.id, data); err != nil {
			return toErrno(err)
		}
	}

	ino, err := n.store.fs.Stat(n.id)
	if err != nil {
		return toErrno(err)
	}
	fillAttr(n.id, ino, &out.Attr)
	return fs.OK
}

func (n *node) Open(_ context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()

	if flags&syscall.O_TRUNC != 0 {
		if err := n.store.fs.WriteFile(n.id, nil); err != nil {
			return nil, 0, toErrno(err)
		}
	}
	return nil, fuse.FOPEN_DIRECT_IO, fs.OK
}

func (n *node) Read(_ context.Context, _ fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()

	data, err := n.store.readAll(n.id)
	if err != nil {
		return nil, toErrno(err)
	}

	if off >= int64(len(data)) {
		return fuse.ReadResultData(nil), fs.OK
	}

	end := off + int64(len(dest))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return fuse.ReadResultData(data[off:end]), fs.OK
}

func (n *node) Write(_ context.Context, _ fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()

	if off+int64(len(data)) > inode.MaxFileSize {
		return 0, syscall.EFBIG
	}

	cur, err := n.store.readAll(n.id)
	if err != nil {
		return 0, toErrno(err)
	}

	if err = n.store.fs.WriteFile(n.id, splice(cur, data, off)); err != nil {
		return 0, toErrno(err)
	}
	return uint32(len(data)), fs.OK
}

func (n *node) create(ctx context.Context, name string, typ kfs.EntryType, out *fuse.EntryOut) (*fs.Inode, uint32, syscall.Errno) {
	id, err := n.store.fs.Create(name, n.id, typ)
	if err != nil {
		return nil, 0, toErrno(err)
	}

	child, errno := n.newChild(ctx, id, out)
	return child, id, errno
}

func (n *node) Create(ctx context.Context, name string, _ uint32, _ uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()

	child, _, errno := n.create(ctx, name, kfs.TypeFile, out)
	return child, nil, fuse.FOPEN_DIRECT_IO, errno
}

func (n *node) Mkdir(ctx context.Context, name string, _ uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()

	child, _, errno := n.create(ctx, name, kfs.TypeDir, out)
	return child, errno
}

func (n *node) Symlink(ctx context.Context, target, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()

	child, id, errno := n.create(ctx, name, kfs.TypeSymlink, out)
	if errno != fs.OK {
		return nil, errno
	}

	if err := n.store.fs.WriteFile(id, []byte(target)); err != nil {
		_ = n.store.fs.Delete(id)
		return nil, toErrno(err)
	}
	out.Attr.Size = uint64(len(target))
	return child, fs.OK
}

func (n *node) Readlink(_ context.Context) ([]byte, syscall.Errno) {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()

	data, err := n.store.readAll(n.id)
	return data, toErrno(err)
}

func (n *node) remove(name string, wantDir bool) syscall.Errno {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()

	id, err := n.store.fs.Lookup(n.id, name)
	if err != nil {
		return toErrno(err)
	}

	isDir := n.store.fs.IsDir(id)
	switch {
	case wantDir && !isDir:
		return syscall.ENOTDIR
	case !wantDir && isDir:
		return syscall.EISDIR
	case isDir:
		children, err := n.store.fs.List(id, nil)
		if err != nil {
			return toErrno(err)
		}
		if len(children) != 0 {
			return syscall.ENOTEMPTY
		}
	}

	return toErrno(n.store.fs.Delete(id))
}

func (n *node) Unlink(_ context.Context, name string) syscall.Errno {
	return n.remove(name, false)
}

func (n *node) Rmdir(_ context.Context, name string) syscall.Errno {
	return n.remove(name, true)
}

func (n *node) Statfs(_ context.Context, out *fuse.StatfsOut) syscall.Errno {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()

	usage := n.store.fs.Usage()
	out.Bsize = block.Size
	out.Frsize = block.Size
	out.Blocks = uint64(usage.TotalBlocks)
	out.Bfree = uint64(usage.FreeBlocks)
	out.Bavail = uint64(usage.FreeBlocks)
	out.Files = uint64(usage.TotalInodes)
	out.Ffree = uint64(usage.FreeInodes)
	out.NameLen = kfs.MaxNameLen
	return fs.OK
}
