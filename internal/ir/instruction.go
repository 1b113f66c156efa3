package ir

// Opcode identifies the operation an Instruction performs. Unlike the Wasm
// opcode set, this is generic over type: e.g. there is one OpcodeIadd for
// both i32.add and i64.add, distinguished by the Type of its operands.
type Opcode uint32

const (
	OpcodeInvalid Opcode = iota

	// Constants.
	OpcodeIconst
	OpcodeFconst

	// Integer arithmetic.
	OpcodeIadd
	OpcodeIaddImm // add of a compile-time-known immediate, folded rather than loaded as a constant.
	OpcodeIsub
	OpcodeImul
	OpcodeSdiv
	OpcodeUdiv
	OpcodeSrem
	OpcodeUrem
	OpcodeBand
	OpcodeBor
	OpcodeBxor
	OpcodeIshl
	OpcodeSshr
	OpcodeUshr
	OpcodeRotl
	OpcodeRotr
	OpcodeClz
	OpcodeCtz
	OpcodePopcnt

	// Float arithmetic.
	OpcodeFadd
	OpcodeFsub
	OpcodeFmul
	OpcodeFdiv
	OpcodeFmin
	OpcodeFmax
	OpcodeFabs
	OpcodeFneg
	OpcodeFcopysign
	OpcodeSqrt
	OpcodeCeil
	OpcodeFloor
	OpcodeTrunc
	OpcodeNearest

	// Comparisons. Icmp/Fcmp carry a condition code in u1.
	OpcodeIcmp
	OpcodeFcmp

	// Conversions.
	OpcodeIreduce      // narrow an integer (i64 -> i32 wrap).
	OpcodeSextend      // sign-extend an integer to a wider type.
	OpcodeUextend      // zero-extend an integer to a wider type.
	OpcodeFdemote      // f64 -> f32.
	OpcodeFpromote     // f32 -> f64.
	OpcodeFcvtToSint   // float -> signed integer.
	OpcodeFcvtToUint   // float -> unsigned integer.
	OpcodeFcvtFromSint // signed integer -> float.
	OpcodeFcvtFromUint // unsigned integer -> float.
	OpcodeBitcast      // reinterpret bits between same-width int/float.
	OpcodeIntToPtr     // reinterpret an integer address as TypePtr, for GenIntToPtr mode.

	// Memory.
	OpcodeLoad
	OpcodeStore
	OpcodeMemorySize
	OpcodeMemoryGrow

	// Control flow.
	OpcodeJump
	OpcodeBrz
	OpcodeBrnz
	OpcodeBrTable
	OpcodeReturn
	OpcodeCall
	OpcodeCallIndirect
	OpcodeSelect
	OpcodeUnreachable

	// Globals and table slots.
	OpcodeGlobalLoad
	OpcodeGlobalStore
	OpcodeTableLoad
	OpcodeTableStore
)

// IntCC is an integer comparison condition.
type IntCC byte

const (
	IntEq IntCC = iota
	IntNe
	IntSLt
	IntULt
	IntSGt
	IntUGt
	IntSLe
	IntULe
	IntSGe
	IntUGe
)

// FloatCC is a floating-point comparison condition.
type FloatCC byte

const (
	FloatEq FloatCC = iota
	FloatNe
	FloatLt
	FloatGt
	FloatLe
	FloatGe
)

// Instruction is a single SSA instruction, flattened into one struct rather
// than a per-opcode type hierarchy: which of v/v2/vs/u1/typ/sig/blk is
// meaningful depends on opcode. Instructions form an intrusive doubly
// linked list within their owning BasicBlock via prev/next.
//
// Construction always goes through Builder.AllocateInstruction followed by
// exactly one AsXxx call and a Builder.InsertInstruction; the AsXxx methods
// return the receiver so the two chain, matching the teacher corpus's
// builder-pattern instruction construction.
type Instruction struct {
	opcode Opcode

	v, v2 Value
	vs    []Value // call/call_indirect/return's argument list, branch arguments.

	u1 uint64 // constant bits, comparison condition, memory offset, global/table/function index.

	typ Type

	sig *Signature  // call/call_indirect's callee signature.
	blk *BasicBlock // jump/brz/brnz's target.

	memWidth  byte // load's narrow width in bits (8/16/32), 0 meaning "full width of typ".
	memSigned bool // load's narrow-width sign-extension, meaningless when memWidth is 0.

	brTableTargets []*BasicBlock // br_table's targets, default label last.
	brTableArgs    [][]Value     // per-target branch arguments, parallel to brTableTargets.

	rValue  Value
	rValues []Value

	prev, next *Instruction
}

func (i *Instruction) reset() {
	*i = Instruction{}
	i.rValue = ValueInvalid
}

func (i *Instruction) Opcode() Opcode      { return i.opcode }
func (i *Instruction) Next() *Instruction  { return i.next }
func (i *Instruction) Prev() *Instruction  { return i.prev }

// Returns reports the instruction's result value(s), if any.
func (i *Instruction) Returns() (Value, []Value) { return i.rValue, i.rValues }

// Return1 returns the instruction's single result value.
func (i *Instruction) Return1() Value { return i.rValue }

// AsIconst turns i into an integer (or reinterpreted-float) constant of
// type t holding the raw bit pattern bits.
func (i *Instruction) AsIconst(t Type, bits uint64) *Instruction {
	i.opcode, i.typ, i.u1 = OpcodeIconst, t, bits
	return i
}

func (i *Instruction) ConstData() (Type, uint64) { return i.typ, i.u1 }

// AsBinary turns i into a two-operand arithmetic/bitwise instruction.
func (i *Instruction) AsBinary(op Opcode, x, y Value) *Instruction {
	i.opcode, i.v, i.v2 = op, x, y
	return i
}

func (i *Instruction) BinaryData() (Value, Value) { return i.v, i.v2 }

// AsIaddImm turns i into an add of x and the compile-time-known immediate
// imm, result typed like x. Used by GenIntToPtr mode to fold a load/store's
// static offset into its dynamic address before the int-to-ptr cast, since
// the resulting pointer form carries no separate offset of its own.
func (i *Instruction) AsIaddImm(x Value, imm uint64) *Instruction {
	i.opcode, i.v, i.u1, i.typ = OpcodeIaddImm, x, imm, x.Type()
	return i
}

func (i *Instruction) IaddImmData() (Value, uint64) { return i.v, i.u1 }

// AsIntToPtr turns i into a reinterpretation of integer address x as
// TypePtr, GenIntToPtr mode's replacement for element-pointer arithmetic.
func (i *Instruction) AsIntToPtr(x Value) *Instruction {
	i.opcode, i.v, i.typ = OpcodeIntToPtr, x, TypePtr
	return i
}

func (i *Instruction) IntToPtrData() Value { return i.v }

// AsUnary turns i into a single-operand instruction (clz/ctz/popcnt,
// fabs/fneg/sqrt/ceil/floor/trunc/nearest).
func (i *Instruction) AsUnary(op Opcode, x Value) *Instruction {
	i.opcode, i.v = op, x
	return i
}

func (i *Instruction) UnaryData() Value { return i.v }

func (i *Instruction) AsIcmp(cond IntCC, x, y Value) *Instruction {
	i.opcode, i.v, i.v2, i.u1 = OpcodeIcmp, x, y, uint64(cond)
	return i
}

func (i *Instruction) AsFcmp(cond FloatCC, x, y Value) *Instruction {
	i.opcode, i.v, i.v2, i.u1 = OpcodeFcmp, x, y, uint64(cond)
	return i
}

func (i *Instruction) CmpData() (Value, Value, uint64) { return i.v, i.v2, i.u1 }

// AsConvert turns i into a conversion of x to type to, using op to select
// which conversion family (sign-extend vs zero-extend vs truncate, etc).
func (i *Instruction) AsConvert(op Opcode, x Value, to Type) *Instruction {
	i.opcode, i.v, i.typ = op, x, to
	return i
}

// AsConvertNarrow is AsConvert for Sextend/Uextend where x's meaningful
// width is narrower than its own Type (Wasm's extend8_s/extend16_s/
// extend32_s, which sign-extend in place rather than widen to a bigger
// type): srcWidthBits records how many low bits of x are taken as the value
// to extend from.
func (i *Instruction) AsConvertNarrow(op Opcode, x Value, to Type, srcWidthBits byte) *Instruction {
	i.opcode, i.v, i.typ, i.u1 = op, x, to, uint64(srcWidthBits)
	return i
}

// ConvertWidth returns the narrow source width set by AsConvertNarrow, or 0
// for a conversion built with the plain AsConvert.
func (i *Instruction) ConvertWidth() byte { return byte(i.u1) }

// AsLoad turns i into a full-width load of type t from ptr+offset.
func (i *Instruction) AsLoad(ptr Value, offset uint32, t Type) *Instruction {
	i.opcode, i.v, i.u1, i.typ = OpcodeLoad, ptr, uint64(offset), t
	return i
}

// AsLoadNarrow turns i into a load that reads only widthBits from ptr+offset
// and sign- or zero-extends the result to t, for Wasm's loadN_s/loadN_u forms.
func (i *Instruction) AsLoadNarrow(ptr Value, offset uint32, t Type, widthBits byte, signed bool) *Instruction {
	i.opcode, i.v, i.u1, i.typ = OpcodeLoad, ptr, uint64(offset), t
	i.memWidth, i.memSigned = widthBits, signed
	return i
}

// AsStore turns i into a full-width store of val to ptr+offset.
func (i *Instruction) AsStore(ptr, val Value, offset uint32) *Instruction {
	i.opcode, i.v, i.v2, i.u1 = OpcodeStore, ptr, val, uint64(offset)
	return i
}

// AsStoreNarrow turns i into a store that truncates val to its low
// widthBits before writing, for Wasm's storeN forms.
func (i *Instruction) AsStoreNarrow(ptr, val Value, offset uint32, widthBits byte) *Instruction {
	i.opcode, i.v, i.v2, i.u1 = OpcodeStore, ptr, val, uint64(offset)
	i.memWidth = widthBits
	return i
}

func (i *Instruction) MemData() (ptr Value, offset uint32) { return i.v, uint32(i.u1) }
func (i *Instruction) StoreData() (ptr, val Value, offset uint32) {
	return i.v, i.v2, uint32(i.u1)
}

// LoadWidth reports a load's narrow width in bits and its signedness; width
// is 0 for a full-width load/store, where signed is meaningless.
func (i *Instruction) LoadWidth() (width byte, signed bool) { return i.memWidth, i.memSigned }

func (i *Instruction) AsMemorySize() *Instruction {
	i.opcode = OpcodeMemorySize
	return i
}

func (i *Instruction) AsMemoryGrow(delta Value) *Instruction {
	i.opcode, i.v = OpcodeMemoryGrow, delta
	return i
}

func (i *Instruction) AsGlobalLoad(globalIndex uint32, t Type) *Instruction {
	i.opcode, i.u1, i.typ = OpcodeGlobalLoad, uint64(globalIndex), t
	return i
}

func (i *Instruction) AsGlobalStore(globalIndex uint32, val Value) *Instruction {
	i.opcode, i.u1, i.v = OpcodeGlobalStore, uint64(globalIndex), val
	return i
}

func (i *Instruction) GlobalIndex() uint32 { return uint32(i.u1) }

func (i *Instruction) AsTableLoad(tableIndex uint32, idx Value) *Instruction {
	i.opcode, i.u1, i.v, i.typ = OpcodeTableLoad, uint64(tableIndex), idx, TypePtr
	return i
}

func (i *Instruction) AsTableStore(tableIndex uint32, idx, val Value) *Instruction {
	i.opcode, i.u1, i.v, i.v2 = OpcodeTableStore, uint64(tableIndex), idx, val
	return i
}

func (i *Instruction) TableIndex() uint32 { return uint32(i.u1) }

// AsJump turns i into an unconditional branch to target, carrying args as
// the target block's parameter values.
func (i *Instruction) AsJump(target *BasicBlock, args []Value) *Instruction {
	i.opcode, i.blk, i.vs = OpcodeJump, target, args
	return i
}

// AsBrz turns i into a branch to target taken when cond is zero.
func (i *Instruction) AsBrz(cond Value, target *BasicBlock, args []Value) *Instruction {
	i.opcode, i.v, i.blk, i.vs = OpcodeBrz, cond, target, args
	return i
}

// AsBrnz turns i into a branch to target taken when cond is non-zero.
func (i *Instruction) AsBrnz(cond Value, target *BasicBlock, args []Value) *Instruction {
	i.opcode, i.v, i.blk, i.vs = OpcodeBrnz, cond, target, args
	return i
}

func (i *Instruction) BranchTarget() *BasicBlock { return i.blk }
func (i *Instruction) BranchArgs() []Value       { return i.vs }
func (i *Instruction) addBranchArg(v Value)      { i.vs = append(i.vs, v) }

// AsBrTable turns i into a multi-way branch on index, with the last entry
// of targets as the default.
func (i *Instruction) AsBrTable(index Value, targets []*BasicBlock) *Instruction {
	i.opcode, i.v = OpcodeBrTable, index
	i.brTableTargets = targets
	i.brTableArgs = make([][]Value, len(targets))
	return i
}

func (i *Instruction) BrTableTargets() []*BasicBlock { return i.brTableTargets }
func (i *Instruction) BrTableArgs() [][]Value        { return i.brTableArgs }

func (i *Instruction) AsReturn(vs []Value) *Instruction {
	i.opcode, i.vs = OpcodeReturn, vs
	return i
}

func (i *Instruction) AsCall(sig *Signature, funcIndex uint32, args []Value) *Instruction {
	i.opcode, i.sig, i.u1, i.vs = OpcodeCall, sig, uint64(funcIndex), args
	return i
}

func (i *Instruction) AsCallIndirect(sig *Signature, tableIndex uint32, callee Value, args []Value) *Instruction {
	i.opcode, i.sig, i.u1, i.v, i.vs = OpcodeCallIndirect, sig, uint64(tableIndex), callee, args
	return i
}

func (i *Instruction) CallData() (sig *Signature, args []Value) { return i.sig, i.vs }
func (i *Instruction) CalleeIndex() uint32                       { return uint32(i.u1) }
func (i *Instruction) IndirectCallee() Value                     { return i.v }

func (i *Instruction) AsSelect(cond, x, y Value) *Instruction {
	i.opcode, i.v, i.v2, i.vs = OpcodeSelect, cond, x, []Value{x, y}
	return i
}

func (i *Instruction) SelectData() (cond, x, y Value) { return i.v, i.vs[0], i.vs[1] }

func (i *Instruction) AsUnreachable() *Instruction {
	i.opcode = OpcodeUnreachable
	return i
}

// SetResults is used by the caller of a multi-result instruction (call,
// call_indirect) once the Builder has allocated its result values.
func (i *Instruction) SetResults(vs []Value) { i.rValues = vs }
