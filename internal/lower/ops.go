package lower

import (
	"github.com/NotDec/NotDec-wasm2llvm/internal/ir"
	"github.com/NotDec/NotDec-wasm2llvm/internal/wasm"
)

var constTypeTable = map[wasm.Opcode]ir.Type{
	wasm.OpI32Const: ir.TypeI32,
	wasm.OpI64Const: ir.TypeI64,
	wasm.OpF32Const: ir.TypeF32,
	wasm.OpF64Const: ir.TypeF64,
}

func constType(op wasm.Opcode) (ir.Type, bool) {
	t, ok := constTypeTable[op]
	return t, ok
}

var binaryOpTable = map[wasm.Opcode]ir.Opcode{
	wasm.OpI32Add: ir.OpcodeIadd, wasm.OpI64Add: ir.OpcodeIadd,
	wasm.OpI32Sub: ir.OpcodeIsub, wasm.OpI64Sub: ir.OpcodeIsub,
	wasm.OpI32Mul: ir.OpcodeImul, wasm.OpI64Mul: ir.OpcodeImul,
	wasm.OpI32DivS: ir.OpcodeSdiv, wasm.OpI64DivS: ir.OpcodeSdiv,
	wasm.OpI32DivU: ir.OpcodeUdiv, wasm.OpI64DivU: ir.OpcodeUdiv,
	wasm.OpI32RemS: ir.OpcodeSrem, wasm.OpI64RemS: ir.OpcodeSrem,
	wasm.OpI32RemU: ir.OpcodeUrem, wasm.OpI64RemU: ir.OpcodeUrem,
	wasm.OpI32And: ir.OpcodeBand, wasm.OpI64And: ir.OpcodeBand,
	wasm.OpI32Or: ir.OpcodeBor, wasm.OpI64Or: ir.OpcodeBor,
	wasm.OpI32Xor: ir.OpcodeBxor, wasm.OpI64Xor: ir.OpcodeBxor,
	wasm.OpI32Shl: ir.OpcodeIshl, wasm.OpI64Shl: ir.OpcodeIshl,
	wasm.OpI32ShrS: ir.OpcodeSshr, wasm.OpI64ShrS: ir.OpcodeSshr,
	wasm.OpI32ShrU: ir.OpcodeUshr, wasm.OpI64ShrU: ir.OpcodeUshr,
	wasm.OpI32Rotl: ir.OpcodeRotl, wasm.OpI64Rotl: ir.OpcodeRotl,
	wasm.OpI32Rotr: ir.OpcodeRotr, wasm.OpI64Rotr: ir.OpcodeRotr,

	wasm.OpF32Add: ir.OpcodeFadd, wasm.OpF64Add: ir.OpcodeFadd,
	wasm.OpF32Sub: ir.OpcodeFsub, wasm.OpF64Sub: ir.OpcodeFsub,
	wasm.OpF32Mul: ir.OpcodeFmul, wasm.OpF64Mul: ir.OpcodeFmul,
	wasm.OpF32Div: ir.OpcodeFdiv, wasm.OpF64Div: ir.OpcodeFdiv,
	wasm.OpF32Min: ir.OpcodeFmin, wasm.OpF64Min: ir.OpcodeFmin,
	wasm.OpF32Max: ir.OpcodeFmax, wasm.OpF64Max: ir.OpcodeFmax,
	wasm.OpF32Copysign: ir.OpcodeFcopysign, wasm.OpF64Copysign: ir.OpcodeFcopysign,
}

func binaryOp(op wasm.Opcode) (ir.Opcode, bool) {
	o, ok := binaryOpTable[op]
	return o, ok
}

var unaryOpTable = map[wasm.Opcode]ir.Opcode{
	wasm.OpI32Clz: ir.OpcodeClz, wasm.OpI64Clz: ir.OpcodeClz,
	wasm.OpI32Ctz: ir.OpcodeCtz, wasm.OpI64Ctz: ir.OpcodeCtz,
	wasm.OpI32Popcnt: ir.OpcodePopcnt, wasm.OpI64Popcnt: ir.OpcodePopcnt,
	wasm.OpF32Abs: ir.OpcodeFabs, wasm.OpF64Abs: ir.OpcodeFabs,
	wasm.OpF32Neg: ir.OpcodeFneg, wasm.OpF64Neg: ir.OpcodeFneg,
	wasm.OpF32Sqrt: ir.OpcodeSqrt, wasm.OpF64Sqrt: ir.OpcodeSqrt,
	wasm.OpF32Ceil: ir.OpcodeCeil, wasm.OpF64Ceil: ir.OpcodeCeil,
	wasm.OpF32Floor: ir.OpcodeFloor, wasm.OpF64Floor: ir.OpcodeFloor,
	wasm.OpF32Trunc: ir.OpcodeTrunc, wasm.OpF64Trunc: ir.OpcodeTrunc,
	wasm.OpF32Nearest: ir.OpcodeNearest, wasm.OpF64Nearest: ir.OpcodeNearest,
}

func unaryOp(op wasm.Opcode) (ir.Opcode, bool) {
	o, ok := unaryOpTable[op]
	return o, ok
}

var eqzOps = map[wasm.Opcode]bool{wasm.OpI32Eqz: true, wasm.OpI64Eqz: true}

var intCmpTable = map[wasm.Opcode]ir.IntCC{
	wasm.OpI32Eq: ir.IntEq, wasm.OpI64Eq: ir.IntEq,
	wasm.OpI32Ne: ir.IntNe, wasm.OpI64Ne: ir.IntNe,
	wasm.OpI32LtS: ir.IntSLt, wasm.OpI64LtS: ir.IntSLt,
	wasm.OpI32LtU: ir.IntULt, wasm.OpI64LtU: ir.IntULt,
	wasm.OpI32GtS: ir.IntSGt, wasm.OpI64GtS: ir.IntSGt,
	wasm.OpI32GtU: ir.IntUGt, wasm.OpI64GtU: ir.IntUGt,
	wasm.OpI32LeS: ir.IntSLe, wasm.OpI64LeS: ir.IntSLe,
	wasm.OpI32LeU: ir.IntULe, wasm.OpI64LeU: ir.IntULe,
	wasm.OpI32GeS: ir.IntSGe, wasm.OpI64GeS: ir.IntSGe,
	wasm.OpI32GeU: ir.IntUGe, wasm.OpI64GeU: ir.IntUGe,
}

func intCmp(op wasm.Opcode) (ir.IntCC, bool) {
	cc, ok := intCmpTable[op]
	return cc, ok
}

var floatCmpTable = map[wasm.Opcode]ir.FloatCC{
	wasm.OpF32Eq: ir.FloatEq, wasm.OpF64Eq: ir.FloatEq,
	wasm.OpF32Ne: ir.FloatNe, wasm.OpF64Ne: ir.FloatNe,
	wasm.OpF32Lt: ir.FloatLt, wasm.OpF64Lt: ir.FloatLt,
	wasm.OpF32Gt: ir.FloatGt, wasm.OpF64Gt: ir.FloatGt,
	wasm.OpF32Le: ir.FloatLe, wasm.OpF64Le: ir.FloatLe,
	wasm.OpF32Ge: ir.FloatGe, wasm.OpF64Ge: ir.FloatGe,
}

func floatCmp(op wasm.Opcode) (ir.FloatCC, bool) {
	cc, ok := floatCmpTable[op]
	return cc, ok
}

type convertSpec struct {
	op    ir.Opcode
	to    ir.Type
	width byte // non-zero only for the in-place sign-extend forms.
}

var convertTable = map[wasm.Opcode]convertSpec{
	wasm.OpI32WrapI64:     {ir.OpcodeIreduce, ir.TypeI32, 0},
	wasm.OpI64ExtendI32S:  {ir.OpcodeSextend, ir.TypeI64, 0},
	wasm.OpI64ExtendI32U:  {ir.OpcodeUextend, ir.TypeI64, 0},
	wasm.OpI32TruncF32S:   {ir.OpcodeFcvtToSint, ir.TypeI32, 0},
	wasm.OpI32TruncF32U:   {ir.OpcodeFcvtToUint, ir.TypeI32, 0},
	wasm.OpI32TruncF64S:   {ir.OpcodeFcvtToSint, ir.TypeI32, 0},
	wasm.OpI32TruncF64U:   {ir.OpcodeFcvtToUint, ir.TypeI32, 0},
	wasm.OpI64TruncF32S:   {ir.OpcodeFcvtToSint, ir.TypeI64, 0},
	wasm.OpI64TruncF32U:   {ir.OpcodeFcvtToUint, ir.TypeI64, 0},
	wasm.OpI64TruncF64S:   {ir.OpcodeFcvtToSint, ir.TypeI64, 0},
	wasm.OpI64TruncF64U:   {ir.OpcodeFcvtToUint, ir.TypeI64, 0},
	wasm.OpF32ConvertI32S: {ir.OpcodeFcvtFromSint, ir.TypeF32, 0},
	wasm.OpF32ConvertI32U: {ir.OpcodeFcvtFromUint, ir.TypeF32, 0},
	wasm.OpF32ConvertI64S: {ir.OpcodeFcvtFromSint, ir.TypeF32, 0},
	wasm.OpF32ConvertI64U: {ir.OpcodeFcvtFromUint, ir.TypeF32, 0},
	wasm.OpF32DemoteF64:   {ir.OpcodeFdemote, ir.TypeF32, 0},
	wasm.OpF64ConvertI32S: {ir.OpcodeFcvtFromSint, ir.TypeF64, 0},
	wasm.OpF64ConvertI32U: {ir.OpcodeFcvtFromUint, ir.TypeF64, 0},
	wasm.OpF64ConvertI64S: {ir.OpcodeFcvtFromSint, ir.TypeF64, 0},
	wasm.OpF64ConvertI64U: {ir.OpcodeFcvtFromUint, ir.TypeF64, 0},
	wasm.OpF64PromoteF32:  {ir.OpcodeFpromote, ir.TypeF64, 0},
	wasm.OpI32ReinterpretF32: {ir.OpcodeBitcast, ir.TypeI32, 0},
	wasm.OpI64ReinterpretF64: {ir.OpcodeBitcast, ir.TypeI64, 0},
	wasm.OpF32ReinterpretI32: {ir.OpcodeBitcast, ir.TypeF32, 0},
	wasm.OpF64ReinterpretI64: {ir.OpcodeBitcast, ir.TypeF64, 0},
	wasm.OpI32Extend8S:  {ir.OpcodeSextend, ir.TypeI32, 8},
	wasm.OpI32Extend16S: {ir.OpcodeSextend, ir.TypeI32, 16},
	wasm.OpI64Extend8S:  {ir.OpcodeSextend, ir.TypeI64, 8},
	wasm.OpI64Extend16S: {ir.OpcodeSextend, ir.TypeI64, 16},
	wasm.OpI64Extend32S: {ir.OpcodeSextend, ir.TypeI64, 32},
}

func convertOp(op wasm.Opcode) (ir.Opcode, ir.Type, byte, bool) {
	s, ok := convertTable[op]
	return s.op, s.to, s.width, ok
}

func (f *funcLowerer) doConst(it wasm.Instr, t ir.Type) error {
	if f.unreachable {
		return nil
	}
	instr := f.b.AllocateInstruction()
	instr.AsIconst(t, it.ConstBits)
	f.b.InsertInstruction(instr)
	f.stack.push(instr.Return1())
	return nil
}

func (f *funcLowerer) doBinary(op ir.Opcode) error {
	if f.unreachable {
		return nil
	}
	y := f.stack.pop()
	x := f.stack.pop()
	instr := f.b.AllocateInstruction()
	instr.AsBinary(op, x, y)
	f.b.InsertInstruction(instr)
	f.stack.push(instr.Return1())
	return nil
}

func (f *funcLowerer) doUnary(op ir.Opcode) error {
	if f.unreachable {
		return nil
	}
	x := f.stack.pop()
	instr := f.b.AllocateInstruction()
	instr.AsUnary(op, x)
	f.b.InsertInstruction(instr)
	f.stack.push(instr.Return1())
	return nil
}

// doIcmpOrEqz handles both ordinary integer comparisons and eqz, which Wasm
// defines as comparing its single operand against zero.
func (f *funcLowerer) doIcmpOrEqz(it wasm.Instr) error {
	if f.unreachable {
		return nil
	}
	if eqzOps[it.Op] {
		x := f.stack.pop()
		zero := f.b.AllocateInstruction()
		zero.AsIconst(x.Type(), 0)
		f.b.InsertInstruction(zero)
		instr := f.b.AllocateInstruction()
		instr.AsIcmp(ir.IntEq, x, zero.Return1())
		f.b.InsertInstruction(instr)
		f.stack.push(instr.Return1())
		return nil
	}
	cc, _ := intCmp(it.Op)
	return f.doIcmp(cc)
}

func (f *funcLowerer) doIcmp(cc ir.IntCC) error {
	if f.unreachable {
		return nil
	}
	y := f.stack.pop()
	x := f.stack.pop()
	instr := f.b.AllocateInstruction()
	instr.AsIcmp(cc, x, y)
	f.b.InsertInstruction(instr)
	f.stack.push(instr.Return1())
	return nil
}

func (f *funcLowerer) doFcmp(cc ir.FloatCC) error {
	if f.unreachable {
		return nil
	}
	y := f.stack.pop()
	x := f.stack.pop()
	instr := f.b.AllocateInstruction()
	instr.AsFcmp(cc, x, y)
	f.b.InsertInstruction(instr)
	f.stack.push(instr.Return1())
	return nil
}

func (f *funcLowerer) doConvert(op ir.Opcode, to ir.Type, width byte) error {
	if f.unreachable {
		return nil
	}
	x := f.stack.pop()
	instr := f.b.AllocateInstruction()
	if width != 0 {
		instr.AsConvertNarrow(op, x, to, width)
	} else {
		instr.AsConvert(op, x, to)
	}
	f.b.InsertInstruction(instr)
	f.stack.push(instr.Return1())
	return nil
}
