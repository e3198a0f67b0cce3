// Package boundary exposes the storage core to host runtimes that
// cannot share Go types: construction takes a scheme plus flattened
// key/value configuration pairs, every operation addresses an operator
// through an opaque handle, and outcomes come back as integer status
// codes with a retrievable last-error message.
//
// The package is marshaling-neutral: it defines the contract any
// binding (C ABI, JNI, scripting bridge) upholds, without committing to
// one runtime's calling convention. Lifecycle codes (StatusInvalidHandle)
// stay distinct from storage outcomes so a caller bug is never mistaken
// for a missing object.
package boundary
