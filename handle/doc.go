// Package handle maps managed objects to small integer handles that are safe to
// pass across the managed/native boundary, and dereferences them back.
//
// # Handle Table
//
// The Table is a slot array with an embedded free list:
//
//	table := handle.New(handle.DefaultCapacity)
//
//	// Register an object, get a handle
//	h, err := table.Register(para)
//
//	// Dereference the handle when the engine calls back
//	v, err := table.Resolve(h)
//
//	// Probe without failing, e.g. during cleanup races
//	if table.IsLive(h) { ... }
//
//	// Release before the object becomes unreachable
//	err = table.Release(h)
//
// Slot 0 is reserved: it never holds an object and its link field is the head
// of the free list. Released slots are pushed onto the head, so the most
// recently released slot is reused first. When the free list is empty the
// array doubles; existing slots are never moved, so issued handles stay valid.
// Capacity never shrinks.
//
// # Generations
//
// Every slot carries a generation that advances on release and is encoded in
// the high bits of the handle. A stale handle kept after release therefore
// fails with an invalid-handle error instead of resolving to whatever object
// reused the slot. Generations are 8 bits wide; a slot that has used all 256
// is retired and never handed out again.
//
// # Observers
//
// Register observers to track handle lifecycle events:
//
//	table.Subscribe(observer)
//
// Observers are called after the table lock is released.
package handle
