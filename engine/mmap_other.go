//go:build !unix

package engine

import (
	"unsafe"

	layouthost "github.com/wippyai/layout-host"
)

// Without mmap, regions are plain heap allocations kept alive by the engine's
// region map.

func mapRegion(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func unmapRegion(_ []byte) error {
	return nil
}

func regionAddr(mem []byte) layouthost.Pointer {
	return layouthost.Pointer(uintptr(unsafe.Pointer(unsafe.SliceData(mem))))
}
