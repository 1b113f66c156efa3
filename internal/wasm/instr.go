package wasm

// Opcode identifies a single Wasm instruction inside a Func.Body. Unlike the
// binary encoding, structured control instructions (block/loop/if/else/end)
// are explicit members of this list rather than a 1-byte prefix, since the
// body is a flat list of instructions containing structured control blocks
// rather than a byte stream.
type Opcode uint16

const (
	OpUnreachable Opcode = iota
	OpNop
	OpBlock
	OpLoop
	OpIf
	OpElse
	OpEnd
	OpBr
	OpBrIf
	OpBrTable
	OpReturn
	OpCall
	OpCallIndirect
	OpDrop
	OpSelect

	OpLocalGet
	OpLocalSet
	OpLocalTee
	OpGlobalGet
	OpGlobalSet

	OpI32Load
	OpI64Load
	OpF32Load
	OpF64Load
	OpI32Load8S
	OpI32Load8U
	OpI32Load16S
	OpI32Load16U
	OpI64Load8S
	OpI64Load8U
	OpI64Load16S
	OpI64Load16U
	OpI64Load32S
	OpI64Load32U
	OpI32Store
	OpI64Store
	OpF32Store
	OpF64Store
	OpI32Store8
	OpI32Store16
	OpI64Store8
	OpI64Store16
	OpI64Store32
	OpMemorySize
	OpMemoryGrow

	OpI32Const
	OpI64Const
	OpF32Const
	OpF64Const

	OpI32Eqz
	OpI32Eq
	OpI32Ne
	OpI32LtS
	OpI32LtU
	OpI32GtS
	OpI32GtU
	OpI32LeS
	OpI32LeU
	OpI32GeS
	OpI32GeU
	OpI64Eqz
	OpI64Eq
	OpI64Ne
	OpI64LtS
	OpI64LtU
	OpI64GtS
	OpI64GtU
	OpI64LeS
	OpI64LeU
	OpI64GeS
	OpI64GeU
	OpF32Eq
	OpF32Ne
	OpF32Lt
	OpF32Gt
	OpF32Le
	OpF32Ge
	OpF64Eq
	OpF64Ne
	OpF64Lt
	OpF64Gt
	OpF64Le
	OpF64Ge

	OpI32Clz
	OpI32Ctz
	OpI32Popcnt
	OpI32Add
	OpI32Sub
	OpI32Mul
	OpI32DivS
	OpI32DivU
	OpI32RemS
	OpI32RemU
	OpI32And
	OpI32Or
	OpI32Xor
	OpI32Shl
	OpI32ShrS
	OpI32ShrU
	OpI32Rotl
	OpI32Rotr
	OpI64Clz
	OpI64Ctz
	OpI64Popcnt
	OpI64Add
	OpI64Sub
	OpI64Mul
	OpI64DivS
	OpI64DivU
	OpI64RemS
	OpI64RemU
	OpI64And
	OpI64Or
	OpI64Xor
	OpI64Shl
	OpI64ShrS
	OpI64ShrU
	OpI64Rotl
	OpI64Rotr

	OpF32Abs
	OpF32Neg
	OpF32Ceil
	OpF32Floor
	OpF32Trunc
	OpF32Nearest
	OpF32Sqrt
	OpF32Add
	OpF32Sub
	OpF32Mul
	OpF32Div
	OpF32Min
	OpF32Max
	OpF32Copysign
	OpF64Abs
	OpF64Neg
	OpF64Ceil
	OpF64Floor
	OpF64Trunc
	OpF64Nearest
	OpF64Sqrt
	OpF64Add
	OpF64Sub
	OpF64Mul
	OpF64Div
	OpF64Min
	OpF64Max
	OpF64Copysign

	OpI32WrapI64
	OpI32TruncF32S
	OpI32TruncF32U
	OpI32TruncF64S
	OpI32TruncF64U
	OpI64ExtendI32S
	OpI64ExtendI32U
	OpI64TruncF32S
	OpI64TruncF32U
	OpI64TruncF64S
	OpI64TruncF64U
	OpF32ConvertI32S
	OpF32ConvertI32U
	OpF32ConvertI64S
	OpF32ConvertI64U
	OpF32DemoteF64
	OpF64ConvertI32S
	OpF64ConvertI32U
	OpF64ConvertI64S
	OpF64ConvertI64U
	OpF64PromoteF32
	OpI32ReinterpretF32
	OpI64ReinterpretF64
	OpF32ReinterpretI32
	OpF64ReinterpretI64
	OpI32Extend8S
	OpI32Extend16S
	OpI64Extend8S
	OpI64Extend16S
	OpI64Extend32S
)

// Instr is a single instruction inside a Func.Body. Depending on Op, a
// subset of the fields below is meaningful; all others are zero. This
// flattened-union shape mirrors internal/ir.Instruction in the destination
// package, and is the input side of the same idea.
type Instr struct {
	Op Opcode

	// ConstBits holds i32.const/i64.const's value, or the raw IEEE-754 bit
	// pattern of f32.const/f64.const, reinterpreted bit-exact rather than
	// value-converted.
	ConstBits uint64

	// Index is the operand index for local/global/func-index-taking
	// instructions (local.get/set/tee, global.get/set, call, br, br_if).
	Index Index

	// Index2 is call_indirect's table index (Index holds its type index).
	Index2 Index

	// MemOffset/MemAlign are load/store's static offset and alignment hint;
	// MemoryIndex is always 0: memory accesses target a single flat memory.
	MemOffset uint32
	MemAlign  uint32

	// Block is block/loop/if's signature. A nil Block is the compact form
	// (no params, at most one result) not yet expanded; NormalizeBlockType
	// expands it from the parser's single-result type, after which Block is
	// always non-nil.
	Block *FunctionType

	// Labels holds br_table's labels, with the default label as the last
	// element.
	Labels []Index
}

// NormalizeBlockType fills in it.Block from a compact single-result
// encoding so that body lowering only ever has to deal with *FunctionType.
func NormalizeBlockType(it *Instr, singleResult ValueType, hasSingleResult bool) {
	if it.Block != nil {
		return
	}
	if hasSingleResult {
		it.Block = &FunctionType{Results: []ValueType{singleResult}}
	} else {
		it.Block = &FunctionType{}
	}
}
