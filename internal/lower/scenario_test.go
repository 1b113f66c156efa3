package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotDec/NotDec-wasm2llvm/internal/ir"
	"github.com/NotDec/NotDec-wasm2llvm/internal/wasm"
)

func runLower(t *testing.T, src *wasm.Module, cfg Config) *ir.Module {
	t.Helper()
	ctx, err := NewContext(src, cfg)
	require.NoError(t, err)
	out, err := ctx.Run()
	require.NoError(t, err)
	return out
}

// S1 — empty module: one IR module, data layout and triple set, zero
// functions, zero globals.
func TestScenarioEmptyModule(t *testing.T) {
	out := runLower(t, &wasm.Module{}, DefaultConfig())
	assert.Equal(t, dataLayout, out.DataLayout)
	assert.Equal(t, targetTriple, out.TargetTriple)
	assert.Empty(t, out.Funcs)
	assert.Empty(t, out.Globals)
}

// S2 — one function, (func (param i32) (result i32) local.get 0): one IR
// function func_0 with signature (i32)->i32 that returns its argument.
func TestScenarioSingleFunctionReturnsItsArgument(t *testing.T) {
	src := &wasm.Module{
		TypeSection: []wasm.FunctionType{
			{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
		},
		FunctionSection: []wasm.Index{0},
		Funcs: []wasm.Func{
			{
				Type: wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
				Body: []wasm.Instr{
					{Op: wasm.OpLocalGet, Index: 0},
					{Op: wasm.OpReturn},
					{Op: wasm.OpEnd},
				},
			},
		},
	}
	out := runLower(t, src, DefaultConfig())
	require.Len(t, out.Funcs, 1)
	fn := out.Funcs[0]
	assert.Equal(t, "func_0", fn.Name)
	require.Len(t, fn.Sig.Params, 1)
	require.Len(t, fn.Sig.Results, 1)
	assert.Equal(t, ir.TypeI32, fn.Sig.Params[0])
	assert.Equal(t, ir.TypeI32, fn.Sig.Results[0])
}

// S3 — memory + data: (memory 1) (data (i32.const 16) "\01\02\03").
func TestScenarioMemoryWithDataSegment(t *testing.T) {
	src := &wasm.Module{
		MemorySection: []wasm.Memory{{Type: wasm.MemoryType{Initial: 1}}},
		DataSection: []wasm.DataSegment{
			{
				MemoryIndex: 0,
				Offset:      wasm.ConstExpr{Op: wasm.ConstExprConst, Type: wasm.ValueTypeI32, ConstBits: 16, Len: 1},
				Data:        []byte{0x01, 0x02, 0x03},
			},
		},
	}
	out := runLower(t, src, DefaultConfig())
	require.Len(t, out.Memories, 1)
	mem := out.Memories[0]
	assert.Equal(t, "__notdec_mem0", mem.Name)
	require.Len(t, mem.Data, 65536)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, mem.Data[16:19])
	for _, b := range mem.Data[:16] {
		assert.Zero(t, b)
	}
}

// S4 — table + elem: (table 4 funcref) (elem (i32.const 1) $a $b) (func $a)
// (func $b).
func TestScenarioTableWithElementSegment(t *testing.T) {
	fnType := wasm.FunctionType{}
	src := &wasm.Module{
		TypeSection:     []wasm.FunctionType{fnType},
		FunctionSection: []wasm.Index{0, 0},
		Funcs: []wasm.Func{
			{Name: "a", Type: fnType, Body: []wasm.Instr{{Op: wasm.OpEnd}}},
			{Name: "b", Type: fnType, Body: []wasm.Instr{{Op: wasm.OpEnd}}},
		},
		TableSection: []wasm.Table{
			{Type: wasm.TableType{ElemType: wasm.ValueTypeFuncref, Initial: 4}},
		},
		ElementSection: []wasm.ElementSegment{
			{
				ElemType:    wasm.ValueTypeFuncref,
				TableIndex:  0,
				Offset:      wasm.ConstExpr{Op: wasm.ConstExprConst, Type: wasm.ValueTypeI32, ConstBits: 1, Len: 1},
				FuncIndexes: []wasm.Index{0, 1},
			},
		},
	}
	out := runLower(t, src, DefaultConfig())
	require.Len(t, out.Tables, 1)
	tbl := out.Tables[0]
	assert.Equal(t, "table_0", tbl.Name)
	assert.Equal(t, []int64{-1, 0, 1, -1}, tbl.Elements)
}

// S5 — export rename: function named foo exported as bar.
func TestScenarioExportRename(t *testing.T) {
	build := func(forceExportName bool) *ir.Module {
		fnType := wasm.FunctionType{}
		src := &wasm.Module{
			TypeSection:     []wasm.FunctionType{fnType},
			FunctionSection: []wasm.Index{0},
			Funcs: []wasm.Func{
				{Name: "foo", Type: fnType, Body: []wasm.Instr{{Op: wasm.OpEnd}}},
			},
			ExportSection: []wasm.Export{
				{Name: "bar", Kind: wasm.ExportKindFunc, Index: 0},
			},
		}
		cfg := DefaultConfig()
		cfg.ForceExportName = forceExportName
		return runLower(t, src, cfg)
	}

	withoutForce := build(false)
	require.Len(t, withoutForce.Funcs, 1)
	assert.Equal(t, "foo", withoutForce.Funcs[0].Name)
	assert.Equal(t, ir.LinkageExport, withoutForce.Funcs[0].Linkage)

	withForce := build(true)
	require.Len(t, withForce.Funcs, 1)
	assert.Equal(t, "bar", withForce.Funcs[0].Name)
	assert.Equal(t, ir.LinkageExport, withForce.Funcs[0].Linkage)
}

// S6 — FixNames main: __original_main present alongside a pre-existing
// main; the pre-existing main's name is cleared, __original_main becomes
// main with external linkage.
func TestScenarioFixNamesEntryPointPromotion(t *testing.T) {
	fnType := wasm.FunctionType{}
	src := &wasm.Module{
		TypeSection:     []wasm.FunctionType{fnType},
		FunctionSection: []wasm.Index{0, 0},
		Funcs: []wasm.Func{
			{Name: "main", Type: fnType, Body: []wasm.Instr{{Op: wasm.OpEnd}}},
			{Name: "__original_main", Type: fnType, Body: []wasm.Instr{{Op: wasm.OpEnd}}},
		},
	}
	cfg := DefaultConfig()
	cfg.FixNames = true
	out := runLower(t, src, cfg)
	require.Len(t, out.Funcs, 2)

	var oldMain, newMain *ir.Function
	for _, fn := range out.Funcs {
		switch fn.Index {
		case 0:
			oldMain = fn
		case 1:
			newMain = fn
		}
	}
	require.NotNil(t, oldMain)
	require.NotNil(t, newMain)
	// oldMain's name was cleared by the eviction and, reaching the end of
	// lowering still unnamed, picks up the default func_<i> name.
	assert.Equal(t, "func_0", oldMain.Name)
	assert.Equal(t, "main", newMain.Name)
	assert.Equal(t, ir.LinkageExport, newMain.Linkage)
}

func TestReentrantContextRejected(t *testing.T) {
	ctx, err := NewContext(&wasm.Module{}, DefaultConfig())
	require.NoError(t, err)
	_, err = ctx.Run()
	require.NoError(t, err)
	_, err = ctx.Run()
	assert.ErrorIs(t, err, ErrReentrant)
}

func TestNilModuleRejected(t *testing.T) {
	_, err := NewContext(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNilModule)
}
