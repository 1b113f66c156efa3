package api

import (
	"github.com/NotDec/NotDec-wasm2llvm/internal/ir"
	"github.com/NotDec/NotDec-wasm2llvm/internal/lower"
	"github.com/NotDec/NotDec-wasm2llvm/internal/wasm"
)

// LowerWasm lowers mod — an in-memory AST already produced by a binary-format
// parser — into an equivalent ir.Module. Binary decoding is the caller's
// concern: a nil mod (a parser's ReadFailed/ValidateFailed result) is
// rejected with lower.ErrNilModule.
func LowerWasm(mod *wasm.Module, opts Options) (*ir.Module, error) {
	return run(mod, opts)
}

// LowerWat lowers mod — an in-memory AST already produced by a text-format
// (.wat) parser — into an equivalent ir.Module. Text decoding is the
// caller's concern: a nil mod is rejected with lower.ErrNilModule. The AST
// shape is identical regardless of which surface syntax produced it, so
// this and LowerWasm share their entire implementation.
func LowerWat(mod *wasm.Module, opts Options) (*ir.Module, error) {
	return run(mod, opts)
}

func run(mod *wasm.Module, opts Options) (*ir.Module, error) {
	ctx, err := lower.NewContext(mod, opts.cfg)
	if err != nil {
		return nil, err
	}
	return ctx.Run()
}
