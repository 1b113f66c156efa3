package lower

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/NotDec/NotDec-wasm2llvm/internal/ir"
	"github.com/NotDec/NotDec-wasm2llvm/internal/wasm"
)

// funcMeta is the per-function bookkeeping module-level lowering threads
// through its phases: the declared *ir.Function (prototype first, body
// filled in later) plus the wasm.Func backing a non-imported function, if
// any.
type funcMeta struct {
	fn     *ir.Function
	blocks []*ir.BasicBlock
	src    *wasm.Func // nil for an imported function.
}

// globalType returns the IR type of the global at idx across the whole
// index space (imports first, then locally-declared globals).
func (c *Context) globalType(idx uint32) ir.Type {
	return c.out.Globals[idx].Type
}

// funcSignature returns the signature of the function at idx across the
// whole index space (imports first, then locally-declared functions).
func (c *Context) funcSignature(idx uint32) (*ir.Signature, error) {
	if int(idx) >= len(c.funcSigs) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "call target function index %d", idx)
	}
	return c.funcSigs[idx], nil
}

// signatureByType returns the signature registered for a type-section
// index, for call_indirect's declared (as opposed to actually-installed)
// callee signature.
func (c *Context) signatureByType(typeIdx uint32) (*ir.Signature, error) {
	if int(typeIdx) >= len(c.sigByIndex) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "call_indirect type index %d", typeIdx)
	}
	return c.sigByIndex[typeIdx], nil
}

// lowerModule runs the full pipeline over c.src, in phase order:
//
//  1. signatures from the type section
//  2. transitive resolution of every global initializer
//  3. imported functions/globals (memories and tables are declared inside
//     their own components, which also handle their imports)
//  4. locally-declared globals
//  5. memories (declare + apply data segments)
//  6. non-imported function prototypes, with FixNames renaming applied
//     before any call site is lowered so every call resolves to its final
//     name
//  7. tables (declare + apply element segments, which only need function
//     indexes to exist, not their bodies)
//  8. function bodies
//  9. exports: linkage promotion and export-name resolution
//  10. default naming for any function left anonymous
// dataLayout and targetTriple are fixed: this lowerer only ever targets
// wasm32's own data model, which a downstream consumer's textual/bitcode
// serializer reads directly off Module.
const (
	dataLayout   = "e-m:e-p:32:32-i64:64-n32:64-S128"
	targetTriple = "wasm32-unknown-wasi"
)

func lowerModule(c *Context) (*ir.Module, error) {
	out := &ir.Module{Name: c.src.Name, DataLayout: dataLayout, TargetTriple: targetTriple}
	c.out = out

	sigs, err := buildSignatures(c.src.TypeSection)
	if err != nil {
		return nil, err
	}
	c.sigByIndex = sigs
	out.Signatures = sigs

	globalInit, err := resolveGlobals(c.src)
	if err != nil {
		return nil, err
	}
	c.globalInit = globalInit
	c.globalResolving = make([]bool, len(globalInit))

	metas := make([]funcMeta, 0, int(c.src.ImportFunctionCount)+len(c.src.Funcs))

	if err := c.declareImports(out, &metas); err != nil {
		return nil, err
	}
	if err := c.declareGlobals(out, globalInit); err != nil {
		return nil, err
	}

	mems, err := c.lowerMemories()
	if err != nil {
		return nil, err
	}
	out.Memories = mems

	reg := newNameRegistry()
	for i, meta := range metas {
		if meta.fn.Name != "" {
			reg.assign(meta.fn.Name, i)
		}
	}
	if err := c.declareFunctionPrototypes(&metas, reg); err != nil {
		return nil, err
	}

	tables, err := c.lowerTables()
	if err != nil {
		return nil, err
	}
	out.Tables = tables

	for i := range metas {
		meta := &metas[i]
		if meta.src == nil {
			continue
		}
		fn, blocks, err := c.lowerFunc(meta.src, uint32(i), meta.fn.Sig)
		if err != nil {
			return nil, err
		}
		fn.Name = meta.fn.Name
		fn.Linkage = meta.fn.Linkage
		meta.fn = fn
		meta.blocks = blocks
	}

	if err := c.applyExports(&metas, reg); err != nil {
		return nil, err
	}

	for i := range metas {
		meta := &metas[i]
		if meta.fn.Name == "" {
			meta.fn.Name = fmt.Sprintf("func_%d", i)
		}
		meta.fn.Blocks = meta.blocks
		out.Funcs = append(out.Funcs, meta.fn)
	}
	return out, nil
}

// declareImports declares every imported function and global, in the
// module's import-section order, and seeds metas with one entry per
// imported function (locally-declared functions are appended afterwards by
// declareFunctionPrototypes).
func (c *Context) declareImports(out *ir.Module, metas *[]funcMeta) error {
	for _, imp := range c.src.ImportSection {
		switch imp.Kind {
		case wasm.ExternKindFunc:
			if int(imp.FuncTypeIndex) >= len(c.sigByIndex) {
				return errors.Wrapf(ErrIndexOutOfRange, "import %q.%q type index %d", imp.Module, imp.Field, imp.FuncTypeIndex)
			}
			fn := &ir.Function{
				Index:        uint32(len(*metas)),
				Name:         importName(imp.Module, imp.Field),
				Sig:          c.sigByIndex[imp.FuncTypeIndex],
				Linkage:      ir.LinkageImport,
				ImportModule: imp.Module,
				ImportField:  imp.Field,
			}
			*metas = append(*metas, funcMeta{fn: fn})
			c.funcSigs = append(c.funcSigs, fn.Sig)
		case wasm.ExternKindGlobal:
			t, err := irType(imp.Global.ValType)
			if err != nil {
				return errors.Wrapf(err, "import %q.%q", imp.Module, imp.Field)
			}
			out.Globals = append(out.Globals, &ir.Global{
				Index:        uint32(len(out.Globals)),
				Name:         importName(imp.Module, imp.Field),
				Type:         t,
				Mutable:      imp.Global.Mutable,
				Linkage:      ir.LinkageImport,
				ImportModule: imp.Module,
				ImportField:  imp.Field,
			})
		case wasm.ExternKindMemory, wasm.ExternKindTable:
			// Declared by lowerMemories/lowerTables, which walk
			// ImportSection themselves to keep memory- and table-specific
			// bookkeeping (Data/Elements) local to their own components.
		default:
			return errors.Wrapf(ErrUnsupportedImportKind, "import %q.%q kind %d", imp.Module, imp.Field, imp.Kind)
		}
	}
	return nil
}

// declareGlobals appends the module's locally-declared globals, each
// carrying its already-resolved constant initializer.
func (c *Context) declareGlobals(out *ir.Module, globalInit []uint64) error {
	base := len(out.Globals)
	for i, g := range c.src.GlobalSection {
		t, err := irType(g.Type.ValType)
		if err != nil {
			return errors.Wrapf(err, "global %q", g.Name)
		}
		name := g.Name
		if name == "" {
			name = fmt.Sprintf("__notdec_global_%d", base+i)
		}
		out.Globals = append(out.Globals, &ir.Global{
			Index:    uint32(base + i),
			Name:     name,
			Type:     t,
			Mutable:  g.Type.Mutable,
			InitBits: globalInit[base+i],
		})
	}
	return nil
}

// declareFunctionPrototypes appends one funcMeta per non-imported
// function, with FixNames's renames already applied and registered in reg
// so that a later export (phase 9) can still evict "main" per
// ForceExportName even though the FixNames rename already happened.
func (c *Context) declareFunctionPrototypes(metas *[]funcMeta, reg *nameRegistry) error {
	importCount := len(*metas)
	for i, fn := range c.src.Funcs {
		if int(c.src.FunctionSection[i]) >= len(c.sigByIndex) {
			return errors.Wrapf(ErrIndexOutOfRange, "function %q type index %d", fn.Name, c.src.FunctionSection[i])
		}
		sig := c.sigByIndex[c.src.FunctionSection[i]]
		funcIdx := importCount + i

		name, evictMain := canonicalFuncName(fn.Name, c.cfg)
		if evictMain {
			if prevIdx, ok := reg.holders["main"]; ok {
				(*metas)[prevIdx].fn.Name = ""
			}
		}
		if evicted, didEvict := reg.assign(name, funcIdx); didEvict {
			(*metas)[evicted].fn.Name = ""
			c.sink.Warnf("function rename %q evicts previous holder of that name", name)
		}

		irFn := &ir.Function{Index: uint32(funcIdx), Name: name, Sig: sig}
		if name == "main" {
			irFn.Linkage = ir.LinkageExport
			irFn.ExportAs = "main"
		}
		*metas = append(*metas, funcMeta{fn: irFn, src: &c.src.Funcs[i]})
		c.funcSigs = append(c.funcSigs, sig)
	}
	return nil
}

// applyExports promotes linkage and resolves final names for every
// function/global/memory/table export. A non-imported global, memory or
// table is promoted to export linkage, and any of them takes the export
// name only when it has no name of its own; ForceExportName applies to
// functions alone.
func (c *Context) applyExports(metas *[]funcMeta, reg *nameRegistry) error {
	for _, exp := range c.src.ExportSection {
		switch exp.Kind {
		case wasm.ExportKindFunc:
			if int(exp.Index) >= len(*metas) {
				return errors.Wrapf(ErrIndexOutOfRange, "export %q func index %d", exp.Name, exp.Index)
			}
			meta := &(*metas)[exp.Index]
			meta.fn.Linkage = ir.LinkageExport
			newName, evicted, didEvict := exportName(meta.fn.Name, exp.Name, c.cfg.ForceExportName, reg, int(exp.Index))
			if didEvict {
				(*metas)[evicted].fn.Name = ""
			}
			meta.fn.Name = newName
			meta.fn.ExportAs = exp.Name
		case wasm.ExportKindGlobal:
			if int(exp.Index) >= len(c.out.Globals) {
				return errors.Wrapf(ErrIndexOutOfRange, "export %q global index %d", exp.Name, exp.Index)
			}
			g := c.out.Globals[exp.Index]
			if g.Linkage != ir.LinkageImport {
				g.Linkage = ir.LinkageExport
			}
			if g.Name == "" {
				g.Name = exp.Name
			}
		case wasm.ExportKindMemory:
			if int(exp.Index) >= len(c.out.Memories) {
				return errors.Wrapf(ErrIndexOutOfRange, "export %q memory index %d", exp.Name, exp.Index)
			}
			m := c.out.Memories[exp.Index]
			if m.Linkage != ir.LinkageImport {
				m.Linkage = ir.LinkageExport
			}
			if m.Name == "" {
				m.Name = exp.Name
			}
		case wasm.ExportKindTable:
			if int(exp.Index) >= len(c.out.Tables) {
				return errors.Wrapf(ErrIndexOutOfRange, "export %q table index %d", exp.Name, exp.Index)
			}
			t := c.out.Tables[exp.Index]
			if t.Linkage != ir.LinkageImport {
				t.Linkage = ir.LinkageExport
			}
			if t.Name == "" {
				t.Name = exp.Name
			}
		case wasm.ExportKindTag:
			// Recorded but never acted upon: tag exports have no
			// corresponding IR entity since exception handling is out of
			// scope.
		default:
			return errors.Wrapf(ErrUnsupportedExternalKind, "export %q kind %d", exp.Name, exp.Kind)
		}
	}
	return nil
}
