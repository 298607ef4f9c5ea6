package layouthost

import "fmt"

// Pointer is the address of an engine-allocated resource.
// The zero Pointer is the null pointer.
type Pointer uintptr

func (p Pointer) String() string {
	return fmt.Sprintf("%#x", uintptr(p))
}

// ResourceKind identifies one class of engine-allocated resource
type ResourceKind uint8

const (
	KindPage ResourceKind = iota
	KindBreakRecord
)

// ResourceKinds lists every kind in teardown order. Break records may reference
// page state, so they are destroyed first.
var ResourceKinds = [...]ResourceKind{KindBreakRecord, KindPage}

func (k ResourceKind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindBreakRecord:
		return "break-record"
	default:
		return fmt.Sprintf("resource-kind(%d)", uint8(k))
	}
}
