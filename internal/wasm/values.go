// Package wasm holds the in-memory Wasm module AST consumed by the lowerer.
//
// This mirrors the shape of a validated Wasm module as a parser would hand
// it to the front end: ordered sections, a declaration-order field list, and
// typed instruction streams. Producing this AST from `.wasm`/`.wat` bytes is
// a separate concern and not this package's job.
package wasm

// ValueType is a Wasm value type as it appears in signatures, locals,
// globals and block types.
type ValueType byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
	ValueTypeV128 ValueType = 0x7b
	// ValueTypeFuncref is only valid as a table element type.
	ValueTypeFuncref ValueType = 0x70
)

// ValueTypeName returns the Wat-style name of a ValueType, for diagnostics.
func ValueTypeName(vt ValueType) string {
	switch vt {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeV128:
		return "v128"
	case ValueTypeFuncref:
		return "funcref"
	default:
		return "unknown"
	}
}

// Index is an index into one of the Wasm module's index spaces
// (function, global, memory, table, type).
type Index = uint32
