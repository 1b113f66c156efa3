package ir

import "fmt"

// SignatureID names a Signature within a Module's signature table, for
// Instruction.sig to reference without embedding a pointer that would
// complicate equality/dedup.
type SignatureID uint32

// Signature is a function's parameter and result types.
type Signature struct {
	ID      SignatureID
	Params  []Type
	Results []Type
}

func (s *Signature) String() string {
	return fmt.Sprintf("sig%d(%v)->%v", s.ID, s.Params, s.Results)
}

// Linkage describes how a Function or Global is visible outside this
// Module.
type Linkage byte

const (
	// LinkageLocal is visible only within the module (an unexported,
	// non-imported declaration).
	LinkageLocal Linkage = iota
	// LinkageImport is satisfied by the embedding environment; the
	// Function has no body / the Global has no IR-level initializer.
	LinkageImport
	// LinkageExport is visible to the embedding environment under Name.
	LinkageExport
)

// Function is a lowered function: its signature, its entry/exit blocks and
// body (built via a Builder), and its external linkage.
type Function struct {
	Name      string
	Index     uint32
	Sig       *Signature
	Linkage   Linkage
	ExportAs  string // meaningful when Linkage == LinkageExport.
	ImportModule string // meaningful when Linkage == LinkageImport.
	ImportField  string

	// Entry is the function's first block; it has no predecessors and its
	// params correspond 1:1 with Sig.Params. Body is built through Builder;
	// once lowering finishes, Builder.Blocks() is the function's full body
	// and is copied here for storage independent of the Builder that built it.
	Entry  *BasicBlock
	Blocks []*BasicBlock
}

// Global is a module-level global variable: its type, mutability, linkage,
// and (for a locally-defined global) its resolved constant initial value.
type Global struct {
	Name    string
	Index   uint32
	Type    Type
	Mutable bool
	Linkage Linkage

	ImportModule string
	ImportField  string

	// InitBits is meaningful when Linkage != LinkageImport: the resolved
	// constant bit pattern the global starts with, after transitively
	// resolving any global.get chain in its original initializer.
	InitBits uint64
}

// Memory is a single linear memory modeled as a flat byte array global,
// sized Max*PageSize bytes when HasMax (PageSize == 65536), or
// Initial*PageSize otherwise — the promoted page count a growable memory
// is allotted up front rather than grown in place.
type Memory struct {
	Name    string
	Index   uint32
	Initial uint32
	Max     uint32
	HasMax  bool
	Linkage Linkage

	ImportModule string
	ImportField  string

	// Data is the flattened content of every active data segment targeting
	// this memory, pre-applied at their declared offsets against a
	// zero-filled buffer sized per the promoted page count described above.
	Data []byte

	// Section names the section of this memory's flat buffer: ".bss" for
	// every locally-declared memory, in every mode, and empty for an
	// imported one. Under SplitMem each segment's own section is recorded
	// on its MemorySegment (see Segments).
	Section string

	// Segments holds one entry per data segment when SplitMem is set,
	// instead of Data; each becomes its own internal-linkage byte-array
	// global. Unused (nil) otherwise.
	Segments []MemorySegment
}

// MemorySegment is one data segment promoted to its own global under
// SplitMem, named "<memname>_0x<offset>" in section ".addr_0x<offset>", or
// promoted further to a read-only constant in section ".rodata" when the
// segment's own declared name is ".rodata".
type MemorySegment struct {
	Name     string
	Section  string
	Offset   uint32
	Data     []byte
	ReadOnly bool
}

// Table is a single table modeled as a flat array of opaque function
// pointers (funcref is the only supported element type).
type Table struct {
	Name    string
	Index   uint32
	Initial uint32
	Max     uint32
	HasMax  bool
	Linkage Linkage

	ImportModule string
	ImportField  string

	// Elements holds one entry per table slot: the index (in Module.Funcs)
	// of the function installed there, or -1 for a null/unfilled slot.
	// Built dense (every slot materialized) then punched in by declared
	// element segments in order, so a later segment overwrites an earlier
	// one's overlap.
	Elements []int64
}

// Module is the complete lowered program: its functions, globals, memories
// and tables, plus the signature table all Function.Sig/Instruction.sig
// values reference.
type Module struct {
	Name string

	// DataLayout and TargetTriple are carried through verbatim to whatever
	// textual/bitcode serializer consumes this Module downstream; this
	// package only sets and stores them.
	DataLayout   string
	TargetTriple string

	Signatures []*Signature
	Funcs      []*Function
	Globals    []*Global
	Memories   []*Memory
	Tables     []*Table
}

// Format renders the whole module for debug dumps / golden-file tests.
func (m *Module) Format() string {
	var out string
	for _, f := range m.Funcs {
		out += fmt.Sprintf("func %s %s:\n", f.Name, f.Sig)
		b := &Builder{blocks: f.Blocks}
		out += b.Format()
	}
	return out
}
