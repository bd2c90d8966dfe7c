package kmain

import (
	"github.com/srunixre/srunix/kernel"
	"github.com/srunixre/srunix/kernel/fs"
)

var (
	// rootDirs are created directly under the root directory.
	rootDirs = [...]string{"root", "bin", "etc", "home", "dev", "tmp", "sys"}

	// devNodes are placeholder device nodes created under /dev.
	devNodes = [...]string{"sda", "sda1", "sdb1", "sdb", "vga", "vga1", "vga2", "null", "random"}

	// binStubs are program stubs created under /bin.
	binStubs = [...]string{"ush", "ls", "cat", "echo", "fetch"}

	fetchBanner = []byte("srunix R.E.\n" +
		"kernel: srunix\n" +
		"shell:  ush\n" +
		"       ███████\n" +
		"       ███████\n")
)

// Bootstrap populates an empty file store with the standard directory layout.
func Bootstrap(store *fs.FS) *kernel.Error {
	for _, name := range rootDirs {
		if _, err := store.Create(name, fs.RootInode, fs.TypeDir); err != nil {
			return err
		}
	}

	if _, err := store.Create("fetch", fs.RootInode, fs.TypeFile); err != nil {
		return err
	}

	devDir, err := store.Lookup(fs.RootInode, "dev")
	if err != nil {
		return err
	}
	for _, name := range devNodes {
		if _, err = store.Create(name, devDir, fs.TypeFile); err != nil {
			return err
		}
	}

	binDir, err := store.Lookup(fs.RootInode, "bin")
	if err != nil {
		return err
	}
	for _, name := range binStubs {
		if _, err = store.Create(name, binDir, fs.TypeFile); err != nil {
			return err
		}
	}

	fetch, err := store.Lookup(binDir, "fetch")
	if err != nil {
		return err
	}
	return store.WriteFile(fetch, fetchBanner)
}
