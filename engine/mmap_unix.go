//go:build unix

package engine

import (
	"unsafe"

	"golang.org/x/sys/unix"

	layouthost "github.com/wippyai/layout-host"
)

func mapRegion(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

func unmapRegion(mem []byte) error {
	return unix.Munmap(mem)
}

func regionAddr(mem []byte) layouthost.Pointer {
	return layouthost.Pointer(uintptr(unsafe.Pointer(unsafe.SliceData(mem))))
}
