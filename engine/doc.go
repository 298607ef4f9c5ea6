// Package engine provides the native layout engine surface the host drives.
//
// The layout algorithms are opaque; the host only needs to create and destroy
// the two classes of engine-allocated resources and to root the engine's
// internal cursor while a call is in flight.
//
// # Engines
//
//	WasmEngine  - the engine runs as a wazero-hosted guest module; pointers are
//	              guest addresses
//	MmapEngine  - pages and break records are anonymous memory mappings owned
//	              outside the Go heap; pointers are mapping addresses
//	MockEngine  - generated gomock double for tests
//
// Both concrete engines implement guard.Rooter and reject calls made outside a
// rooted section, so a missing enter/leave bracket surfaces immediately.
//
// # Guest ABI
//
// A WasmEngine module exports four functions:
//
//	create_page          () -> i32         page address, 0 on failure
//	destroy_page         (i32) -> i32      0 on success, engine status otherwise
//	create_break_record  () -> i32         break record address, 0 on failure
//	destroy_break_record (i32) -> i32      0 on success, engine status otherwise
//
// ReferenceModule returns a minimal guest implementing this ABI.
//
// # Thread Safety
//
// Engines serialize their own calls, but the host contract is a single logical
// owner per context: calls arrive from that context's owner goroutine.
package engine
