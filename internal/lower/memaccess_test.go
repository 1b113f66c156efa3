package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotDec/NotDec-wasm2llvm/internal/ir"
	"github.com/NotDec/NotDec-wasm2llvm/internal/wasm"
)

// Under GenIntToPtr, a load's address is folded with its static offset via
// an integer add and cast to TypePtr, rather than carried as a separate
// element-pointer offset.
func TestGenIntToPtrFoldsOffsetIntoIntToPtrCast(t *testing.T) {
	i32 := wasm.ValueTypeI32
	sig := wasm.FunctionType{Params: []wasm.ValueType{i32}, Results: []wasm.ValueType{i32}}
	src := &wasm.Module{
		TypeSection:     []wasm.FunctionType{sig},
		FunctionSection: []wasm.Index{0},
		MemorySection:   []wasm.Memory{{Type: wasm.MemoryType{Initial: 1}}},
		Funcs: []wasm.Func{
			{
				Type: sig,
				Body: []wasm.Instr{
					{Op: wasm.OpLocalGet, Index: 0},
					{Op: wasm.OpI32Load, MemOffset: 4},
					{Op: wasm.OpReturn},
					{Op: wasm.OpEnd},
				},
			},
		},
	}
	cfg := DefaultConfig()
	cfg.GenIntToPtr = true
	out := runLower(t, src, cfg)
	require.Len(t, out.Funcs, 1)

	var foundAdd, foundCast, foundLoad bool
	var loadOffset uint32
	for _, blk := range out.Funcs[0].Blocks {
		for instr := blk.Root(); instr != nil; instr = instr.Next() {
			switch instr.Opcode() {
			case ir.OpcodeIaddImm:
				_, imm := instr.IaddImmData()
				assert.Equal(t, uint64(4), imm)
				foundAdd = true
			case ir.OpcodeIntToPtr:
				foundCast = true
			case ir.OpcodeLoad:
				_, loadOffset = instr.MemData()
				foundLoad = true
			}
		}
	}
	assert.True(t, foundAdd, "expected an iadd_imm folding the static offset into the address")
	assert.True(t, foundCast, "expected an int_to_ptr cast")
	assert.True(t, foundLoad)
	assert.Zero(t, loadOffset, "offset should be folded into the address, not carried on the load")
}

// In the default (non-GenIntToPtr) mode, the static offset stays on the
// load/store instruction and no int-to-ptr cast is emitted.
func TestDefaultModeCarriesOffsetOnLoad(t *testing.T) {
	i32 := wasm.ValueTypeI32
	sig := wasm.FunctionType{Params: []wasm.ValueType{i32}, Results: []wasm.ValueType{i32}}
	src := &wasm.Module{
		TypeSection:     []wasm.FunctionType{sig},
		FunctionSection: []wasm.Index{0},
		MemorySection:   []wasm.Memory{{Type: wasm.MemoryType{Initial: 1}}},
		Funcs: []wasm.Func{
			{
				Type: sig,
				Body: []wasm.Instr{
					{Op: wasm.OpLocalGet, Index: 0},
					{Op: wasm.OpI32Load, MemOffset: 4},
					{Op: wasm.OpReturn},
					{Op: wasm.OpEnd},
				},
			},
		},
	}
	out := runLower(t, src, DefaultConfig())
	require.Len(t, out.Funcs, 1)

	var loadOffset uint32
	var foundCast bool
	for _, blk := range out.Funcs[0].Blocks {
		for instr := blk.Root(); instr != nil; instr = instr.Next() {
			if instr.Opcode() == ir.OpcodeIntToPtr {
				foundCast = true
			}
			if instr.Opcode() == ir.OpcodeLoad {
				_, loadOffset = instr.MemData()
			}
		}
	}
	assert.False(t, foundCast)
	assert.Equal(t, uint32(4), loadOffset)
}
