package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotDec/NotDec-wasm2llvm/internal/diag"
	"github.com/NotDec/NotDec-wasm2llvm/internal/lower"
	"github.com/NotDec/NotDec-wasm2llvm/internal/wasm"
)

func TestLowerWasmEndToEnd(t *testing.T) {
	sig := wasm.FunctionType{
		Params:  []wasm.ValueType{wasm.ValueTypeI32},
		Results: []wasm.ValueType{wasm.ValueTypeI32},
	}
	mod := &wasm.Module{
		TypeSection:     []wasm.FunctionType{sig},
		FunctionSection: []wasm.Index{0},
		Funcs: []wasm.Func{
			{
				Name: "double",
				Type: sig,
				Body: []wasm.Instr{
					{Op: wasm.OpLocalGet, Index: 0},
					{Op: wasm.OpLocalGet, Index: 0},
					{Op: wasm.OpI32Add},
					{Op: wasm.OpReturn},
					{Op: wasm.OpEnd},
				},
			},
		},
		ExportSection: []wasm.Export{
			{Name: "double", Kind: wasm.ExportKindFunc, Index: 0},
		},
	}

	out, err := LowerWasm(mod, NewOptions())
	require.NoError(t, err)
	require.Len(t, out.Funcs, 1)
	assert.Equal(t, "double", out.Funcs[0].Name)

	// LowerWat shares the same pipeline, so the same AST lowers identically.
	outWat, err := LowerWat(mod, NewOptions())
	require.NoError(t, err)
	assert.Equal(t, out.Funcs[0].Name, outWat.Funcs[0].Name)
}

func TestLowerWasmNilModuleRejected(t *testing.T) {
	_, err := LowerWasm(nil, NewOptions())
	assert.ErrorIs(t, err, lower.ErrNilModule)
}

func TestOptionsApplyInOrder(t *testing.T) {
	opts := NewOptions(WithGenIntToPtr(), WithFixNames(), WithForceExportName())
	assert.True(t, opts.cfg.GenIntToPtr)
	assert.True(t, opts.cfg.FixNames)
	assert.True(t, opts.cfg.ForceExportName)
	assert.False(t, opts.cfg.SplitMem)

	// A later option overrides an earlier conflicting one.
	later := NewOptions(WithLogLevel(diag.LogLevelDebug), WithLogLevel(diag.LogLevelWarning))
	assert.Equal(t, diag.LogLevelWarning, later.cfg.LogLevel)
}
