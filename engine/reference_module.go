package engine

// referenceModule is a minimal guest implementing the engine ABI. Pages are
// handed out at successive 4KB addresses and break records at successive
// 16-byte addresses, each from its own mutable global counter. The destroy
// exports return 1 for a null address and 0 otherwise.
//
//	(module
//	  (global $pages (mut i32) (i32.const 0))
//	  (global $breaks (mut i32) (i32.const 0))
//	  (func (export "create_page") (result i32)
//	    (global.set $pages (i32.add (global.get $pages) (i32.const 1)))
//	    (i32.mul (global.get $pages) (i32.const 4096)))
//	  (func (export "destroy_page") (param i32) (result i32)
//	    (i32.eqz (local.get 0)))
//	  (func (export "create_break_record") (result i32)
//	    (global.set $breaks (i32.add (global.get $breaks) (i32.const 1)))
//	    (i32.mul (global.get $breaks) (i32.const 16)))
//	  (func (export "destroy_break_record") (param i32) (result i32)
//	    (i32.eqz (local.get 0))))
var referenceModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,

	// type section: () -> i32, (i32) -> i32
	0x01, 0x0a, 0x02,
	0x60, 0x00, 0x01, 0x7f,
	0x60, 0x01, 0x7f, 0x01, 0x7f,

	// function section
	0x03, 0x05, 0x04, 0x00, 0x01, 0x00, 0x01,

	// global section: two mutable i32 counters
	0x06, 0x0b, 0x02,
	0x7f, 0x01, 0x41, 0x00, 0x0b,
	0x7f, 0x01, 0x41, 0x00, 0x0b,

	// export section
	0x07, 0x4b, 0x04,
	0x0b, 'c', 'r', 'e', 'a', 't', 'e', '_', 'p', 'a', 'g', 'e', 0x00, 0x00,
	0x0c, 'd', 'e', 's', 't', 'r', 'o', 'y', '_', 'p', 'a', 'g', 'e', 0x00, 0x01,
	0x13, 'c', 'r', 'e', 'a', 't', 'e', '_', 'b', 'r', 'e', 'a', 'k', '_', 'r', 'e', 'c', 'o', 'r', 'd', 0x00, 0x02,
	0x14, 'd', 'e', 's', 't', 'r', 'o', 'y', '_', 'b', 'r', 'e', 'a', 'k', '_', 'r', 'e', 'c', 'o', 'r', 'd', 0x00, 0x03,

	// code section
	0x0a, 0x2c, 0x04,
	0x0f, 0x00, 0x23, 0x00, 0x41, 0x01, 0x6a, 0x24, 0x00, 0x23, 0x00, 0x41, 0x80, 0x20, 0x6c, 0x0b,
	0x05, 0x00, 0x20, 0x00, 0x45, 0x0b,
	0x0e, 0x00, 0x23, 0x01, 0x41, 0x01, 0x6a, 0x24, 0x01, 0x23, 0x01, 0x41, 0x10, 0x6c, 0x0b,
	0x05, 0x00, 0x20, 0x00, 0x45, 0x0b,
}

// ReferenceModule returns a copy of the built-in guest engine binary.
func ReferenceModule() []byte {
	out := make([]byte, len(referenceModule))
	copy(out, referenceModule)
	return out
}
