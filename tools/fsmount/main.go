package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/srunixre/srunix/kernel/kmain"
)

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[fsmount] error: %s\n", err.Error())
	os.Exit(1)
}

func main() {
	mountpoint := flag.String("mountpoint", "", "the directory where the file store is mounted")
	debug := flag.Bool("debug", false, "log every FUSE request")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "fsmount: serve a srunix file store over FUSE\n\n")
		fmt.Fprint(os.Stderr, "Usage: fsmount -mountpoint DIR [options]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *mountpoint == "" {
		flag.Usage()
		os.Exit(2)
	}

	start := time.Now()
	fileStore, err := newStore(func() uint64 { return uint64(time.Since(start) / time.Second) })
	if err != nil {
		exit(err)
	}

	server, mountErr := fs.Mount(*mountpoint, fileStore.root(), &fs.Options{
		MountOptions: fuse.MountOptions{
			Name:   "srunix",
			FsName: "srunix",
			Debug:  *debug,
		},
	})
	if mountErr != nil {
		exit(mountErr)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		if err := server.Unmount(); err != nil {
			fmt.Fprintf(os.Stderr, "[fsmount] unmount: %s\n", err.Error())
		}
	}()

	fmt.Fprintf(os.Stderr, "[fsmount] serving store at %s\n", *mountpoint)
	server.Wait()
}

// newStore returns a store populated with the standard layout.
func newStore(clock func() uint64) (*store, error) {
	s := &store{}
	s.fs = newFS(clock)
	if err := kmain.Bootstrap(s.fs); err != nil {
		return nil, err
	}
	return s, nil
}
