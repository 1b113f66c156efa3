package lower

import (
	"github.com/pkg/errors"

	"github.com/NotDec/NotDec-wasm2llvm/internal/diag"
	"github.com/NotDec/NotDec-wasm2llvm/internal/ir"
	"github.com/NotDec/NotDec-wasm2llvm/internal/wasm"
)

// Config mirrors the library's public functional-option surface one layer
// down: every behavior api.Options exposes is read from here by the
// lowering core, so api only has to translate option calls into field
// assignments.
type Config struct {
	// GenIntToPtr lowers each load/store address as an integer: its static
	// offset is added to the dynamic address and the sum is cast to a
	// pointer (int_to_ptr), so the load/store itself carries no offset.
	// Tables are not affected.
	GenIntToPtr bool

	// FixNames renames functions the way a native toolchain would expect:
	// strips a leading '$' from names (unless NoRemoveDollar), and evicts
	// whatever previously held the name "main" in favor of a recognized
	// entry-point function.
	FixNames bool

	// NoRemoveDollar disables the '$'-stripping half of FixNames while
	// keeping its other renames; meaningless unless FixNames is set.
	NoRemoveDollar bool

	// ForceExportName makes an export's name win over whatever name its
	// target already carries, evicting the prior holder of that name;
	// without it, an export only supplies a name for an otherwise-unnamed
	// function.
	ForceExportName bool

	// SplitMem, when set, emits each data segment as its own named global
	// (see ir.MemorySegment) instead of copying it into its memory's flat
	// buffer.
	SplitMem bool

	// NoMemInitializer skips materializing Memory.Data from data segments
	// (the caller will populate linear memory some other way at load time).
	NoMemInitializer bool

	// LogLevel gates diagnostic output; see internal/diag.
	LogLevel diag.LogLevel
}

// DefaultConfig returns the default Config: every behavior flag off,
// LogLevel at notice (the zero Config would leave it at emergency).
func DefaultConfig() Config {
	return Config{LogLevel: diag.LogLevelNotice}
}

// Context is a single lowering run over one *wasm.Module. It is single-use:
// calling Run twice on the same Context returns ErrReentrant.
type Context struct {
	cfg  Config
	sink *diag.Sink
	done bool

	src *wasm.Module
	out *ir.Module

	// sigByIndex caches the ir.Signature for each wasm type-section index,
	// built once up front so call/call_indirect lowering and function
	// declaration share identical *ir.Signature pointers.
	sigByIndex []*ir.Signature

	// funcSigs holds each function's *ir.Signature, indexed by function
	// index across the whole index space (imports first, then
	// locally-declared functions), populated before any function body is
	// lowered so a forward call resolves just as well as a backward one.
	funcSigs []*ir.Signature

	// globalInit holds each global's fully-resolved constant bit pattern,
	// indexed by global index across the whole index space (imports first,
	// then locally-declared globals), filled in by resolveGlobals.
	globalInit []uint64
	// globalResolving is an all-false resolving set passed to
	// evalConstExpr for data and element segment offsets, which are
	// evaluated after resolveGlobals has finished.
	globalResolving []bool
}

// NewContext creates a Context for a single lowering run.
func NewContext(src *wasm.Module, cfg Config) (*Context, error) {
	if src == nil {
		return nil, errors.WithStack(ErrNilModule)
	}
	return &Context{cfg: cfg, sink: diag.NewSink(cfg.LogLevel), src: src}, nil
}

// Run lowers the configured module and returns the resulting IR module.
func (c *Context) Run() (*ir.Module, error) {
	if c.done {
		return nil, errors.WithStack(ErrReentrant)
	}
	c.done = true
	return lowerModule(c)
}
