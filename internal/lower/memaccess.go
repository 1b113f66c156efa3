package lower

import (
	"github.com/NotDec/NotDec-wasm2llvm/internal/ir"
	"github.com/NotDec/NotDec-wasm2llvm/internal/wasm"
)

type loadSpec struct {
	t      ir.Type
	signed bool
	width  byte // bits actually read from memory; equal to t.Bits() for a full-width load.
}

var loadTable = map[wasm.Opcode]loadSpec{
	wasm.OpI32Load: {ir.TypeI32, false, 32},
	wasm.OpI64Load: {ir.TypeI64, false, 64},
	wasm.OpF32Load: {ir.TypeF32, false, 32},
	wasm.OpF64Load: {ir.TypeF64, false, 64},

	wasm.OpI32Load8S:  {ir.TypeI32, true, 8},
	wasm.OpI32Load8U:  {ir.TypeI32, false, 8},
	wasm.OpI32Load16S: {ir.TypeI32, true, 16},
	wasm.OpI32Load16U: {ir.TypeI32, false, 16},

	wasm.OpI64Load8S:  {ir.TypeI64, true, 8},
	wasm.OpI64Load8U:  {ir.TypeI64, false, 8},
	wasm.OpI64Load16S: {ir.TypeI64, true, 16},
	wasm.OpI64Load16U: {ir.TypeI64, false, 16},
	wasm.OpI64Load32S: {ir.TypeI64, true, 32},
	wasm.OpI64Load32U: {ir.TypeI64, false, 32},
}

func loadInfo(op wasm.Opcode) (t ir.Type, signed bool, width byte, ok bool) {
	s, ok := loadTable[op]
	return s.t, s.signed, s.width, ok
}

var storeTable = map[wasm.Opcode]byte{
	wasm.OpI32Store: 32,
	wasm.OpI64Store: 64,
	wasm.OpF32Store: 32,
	wasm.OpF64Store: 64,

	wasm.OpI32Store8:  8,
	wasm.OpI32Store16: 16,
	wasm.OpI64Store8:  8,
	wasm.OpI64Store16: 16,
	wasm.OpI64Store32: 32,
}

func storeInfo(op wasm.Opcode) (width byte, ok bool) {
	w, ok := storeTable[op]
	return w, ok
}

// resolveAddr folds offset into addr and produces the Value a load/store
// should use as its pointer operand plus the static offset it should still
// carry. In the default element-pointer mode that's just (addr, offset)
// unchanged. Under GenIntToPtr, offset is folded into addr via an integer
// add, the sum is cast to TypePtr via an int-to-ptr instruction, and the
// resulting load/store carries no further offset of its own.
func (f *funcLowerer) resolveAddr(addr ir.Value, offset uint32) (ptr ir.Value, remainingOffset uint32) {
	if !f.c.cfg.GenIntToPtr {
		return addr, offset
	}
	eff := addr
	if offset != 0 {
		add := f.b.AllocateInstruction()
		add.AsIaddImm(addr, uint64(offset))
		f.b.InsertInstruction(add)
		eff = add.Return1()
	}
	cast := f.b.AllocateInstruction()
	cast.AsIntToPtr(eff)
	f.b.InsertInstruction(cast)
	return cast.Return1(), 0
}

func (f *funcLowerer) doLoad(it wasm.Instr, t ir.Type, signed bool, width byte) error {
	if f.unreachable {
		return nil
	}
	addr := f.stack.pop()
	ptr, offset := f.resolveAddr(addr, it.MemOffset)
	instr := f.b.AllocateInstruction()
	if width == t.Bits() {
		instr.AsLoad(ptr, offset, t)
	} else {
		instr.AsLoadNarrow(ptr, offset, t, width, signed)
	}
	f.b.InsertInstruction(instr)
	f.stack.push(instr.Return1())
	return nil
}

func (f *funcLowerer) doStore(it wasm.Instr, width byte) error {
	if f.unreachable {
		return nil
	}
	val := f.stack.pop()
	addr := f.stack.pop()
	ptr, offset := f.resolveAddr(addr, it.MemOffset)
	instr := f.b.AllocateInstruction()
	if width == val.Type().Bits() {
		instr.AsStore(ptr, val, offset)
	} else {
		instr.AsStoreNarrow(ptr, val, offset, width)
	}
	f.b.InsertInstruction(instr)
	return nil
}
