package main

import (
	"github.com/srunixre/srunix/kernel/kfmt"
	"github.com/srunixre/srunix/kernel/kmain"
)

// multibootInfoPtr is passed to Kmain through a global so the compiler cannot
// inline the call and drop Kmain from the generated object file. The rt0 code
// invokes Kmain directly with the real arguments.
var multibootInfoPtr uintptr

// notFound is the fallback line handler used until a command interpreter is
// linked in.
func notFound(k *kmain.Kernel, _ int, line []byte) {
	if len(line) == 0 {
		return
	}
	kfmt.Fprintf(k.Mux(), "ush: %s: command not found\n", line)
}

func main() {
	kmain.SetLineHandler(notFound)
	kmain.Kmain(multibootInfoPtr, 0, 0)
}
