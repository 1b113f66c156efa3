package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotDec/NotDec-wasm2llvm/internal/wasm"
)

// A function that branches on its single i32 param, returning 1 down the
// then-arm and 2 down the else-arm via an if/else with a result, exercises
// enterIf/enterElse/enterEnd's merge-block wiring end to end.
func TestLowerIfElseMergesResult(t *testing.T) {
	i32 := wasm.ValueTypeI32
	sig := wasm.FunctionType{Params: []wasm.ValueType{i32}, Results: []wasm.ValueType{i32}}
	src := &wasm.Module{
		TypeSection:     []wasm.FunctionType{sig},
		FunctionSection: []wasm.Index{0},
		Funcs: []wasm.Func{
			{
				Type: sig,
				Body: []wasm.Instr{
					{Op: wasm.OpLocalGet, Index: 0},
					{Op: wasm.OpIf, Block: &wasm.FunctionType{Results: []wasm.ValueType{i32}}},
					{Op: wasm.OpI32Const, ConstBits: 1},
					{Op: wasm.OpElse},
					{Op: wasm.OpI32Const, ConstBits: 2},
					{Op: wasm.OpEnd}, // closes if/else
					{Op: wasm.OpReturn},
					{Op: wasm.OpEnd}, // closes function
				},
			},
		},
	}
	out := runLower(t, src, DefaultConfig())
	require.Len(t, out.Funcs, 1)
	fn := out.Funcs[0]
	// then/else/merge plus the entry block.
	assert.GreaterOrEqual(t, len(fn.Blocks), 4)
}

// A loop that immediately breaks out via br to its enclosing block exercises
// enterLoop/doBr/enterBlock's forward-branch wiring.
func TestLowerLoopWithBreak(t *testing.T) {
	src := &wasm.Module{
		TypeSection:     []wasm.FunctionType{{}},
		FunctionSection: []wasm.Index{0},
		Funcs: []wasm.Func{
			{
				Type: wasm.FunctionType{},
				Body: []wasm.Instr{
					{Op: wasm.OpBlock, Block: &wasm.FunctionType{}},
					{Op: wasm.OpLoop, Block: &wasm.FunctionType{}},
					{Op: wasm.OpBr, Index: 1}, // branch out to the enclosing block
					{Op: wasm.OpEnd},          // closes loop
					{Op: wasm.OpEnd},          // closes block
					{Op: wasm.OpEnd},          // closes function
				},
			},
		},
	}
	out := runLower(t, src, DefaultConfig())
	require.Len(t, out.Funcs, 1)
	assert.NotEmpty(t, out.Funcs[0].Blocks)
}

// Dead code after an unconditional br is skipped entirely rather than
// lowered into unreachable blocks.
func TestLowerUnreachableAfterBranchIsSkipped(t *testing.T) {
	src := &wasm.Module{
		TypeSection:     []wasm.FunctionType{{}},
		FunctionSection: []wasm.Index{0},
		Funcs: []wasm.Func{
			{
				Type: wasm.FunctionType{},
				Body: []wasm.Instr{
					{Op: wasm.OpBlock, Block: &wasm.FunctionType{}},
					{Op: wasm.OpBr, Index: 0},
					{Op: wasm.OpUnreachable}, // dead: should not panic or emit
					{Op: wasm.OpEnd},
					{Op: wasm.OpEnd},
				},
			},
		},
	}
	assert.NotPanics(t, func() {
		runLower(t, src, DefaultConfig())
	})
}
