package wasm

// FunctionType is a Wasm function signature. The spec's Non-goals exclude
// multi-value, so downstream lowering rejects len(Results) > 1, but the AST
// itself does not enforce that — validation is the parser's job.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// ExternKind discriminates the four importable/exportable entity kinds.
// Tag (exception handling) is intentionally absent: exception handling is
// out of scope.
type ExternKind byte

const (
	ExternKindFunc ExternKind = iota
	ExternKindTable
	ExternKindMemory
	ExternKindGlobal
)

// Import is one entry of the module's import section.
type Import struct {
	Module, Field string
	Kind          ExternKind

	// Exactly one of the following is meaningful, selected by Kind.
	FuncTypeIndex Index
	Table         TableType
	Memory        MemoryType
	Global        GlobalType
}

// GlobalType is the declared type of a global variable.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// Global is a non-imported global declaration.
type Global struct {
	Name string
	Type GlobalType
	Init ConstExpr
}

// MemoryType is a linear memory's page limits.
type MemoryType struct {
	Initial uint32
	Max     uint32
	HasMax  bool
}

// Memory is a non-imported memory declaration.
type Memory struct {
	Name string
	Type MemoryType
}

// TableType is a table's element type and size limits.
type TableType struct {
	ElemType ValueType // must be ValueTypeFuncref; anything else is fatal at lowering time.
	Initial  uint32
	Max      uint32
	HasMax   bool
}

// Table is a non-imported table declaration.
type Table struct {
	Name string
	Type TableType
}

// DataSegment copies Data into MemoryIndex at Offset. Passive segments are
// out of scope; every segment here is active.
type DataSegment struct {
	Name        string
	MemoryIndex Index
	Offset      ConstExpr
	Data        []byte
}

// ElementSegment installs function references into a table at Offset.
// Passive segments and elem-expr (non ref.func) segments are out of scope.
type ElementSegment struct {
	ElemType       ValueType // must be ValueTypeFuncref.
	TableIndex     Index
	ExplicitIndex  bool // true if the segment named its target table explicitly.
	Passive        bool
	UseElemExprs   bool
	Offset         ConstExpr
	FuncIndexes    []Index
}

// ExportKind reuses ExternKind plus Tag for the export's recorded kind;
// Tag exports are accepted (index recorded) but never acted upon.
type ExportKind byte

const (
	ExportKindFunc ExportKind = ExportKind(ExternKindFunc) + iota
	ExportKindTable
	ExportKindMemory
	ExportKindGlobal
	ExportKindTag
)

// Export is one entry of the module's export section.
type Export struct {
	Name  string
	Kind  ExportKind
	Index Index
}

// Func is a non-imported function: its declared signature, local variable
// types (beyond its parameters) and its body as a flat instruction list.
type Func struct {
	Name       string
	Type       FunctionType
	Locals     []ValueType
	Body       []Instr
}

// ModuleFieldKind discriminates entries of Module.Fields, which preserves
// the module's textual/binary declaration order across all declaration
// kinds.
type ModuleFieldKind byte

const (
	ModuleFieldFunc ModuleFieldKind = iota
	ModuleFieldMemory
	ModuleFieldTable
	ModuleFieldGlobal
	ModuleFieldDataSegment
	ModuleFieldElemSegment
)

// ModuleField is one entry of Module.Fields: its Kind selects which of the
// module's section slices Index refers into.
type ModuleField struct {
	Kind  ModuleFieldKind
	Index int
}

// Module is the parsed, validated Wasm module AST handed to the lowerer.
// It is immutable for the lowerer's entire run.
type Module struct {
	// Name is the optional Wasm module name (the "name" custom section's
	// module-name subsection, or a (module $foo) identifier in .wat).
	Name string

	TypeSection    []FunctionType
	ImportSection  []Import
	FunctionSection []Index // non-imported function's type index, by declaration order.
	TableSection   []Table
	MemorySection  []Memory
	GlobalSection  []Global
	ExportSection  []Export
	ElementSection []ElementSegment
	DataSection    []DataSegment
	Funcs          []Func // non-imported function bodies, parallel to FunctionSection.

	// Fields preserves the declaration order across all module-field kinds;
	// see ModuleField.
	Fields []ModuleField

	// ImportFunctionCount/ImportMemoryCount/ImportGlobalCount/ImportTableCount
	// cache the per-kind counts of ImportSection for convenience; a real
	// parser would maintain these incrementally.
	ImportFunctionCount Index
	ImportMemoryCount   Index
	ImportGlobalCount   Index
	ImportTableCount    Index
}

// ConstExprOp is the (deliberately tiny) sublanguage of constant
// expressions used by global initializers, element offsets and data
// offsets.
type ConstExprOp byte

const (
	ConstExprConst ConstExprOp = iota
	ConstExprGlobalGet
)

// ConstExpr is a single-instruction constant expression. Wasm allows a
// longer expression list in the grammar; this lowerer requires exactly
// one instruction, anything else is ErrMalformedInitExpr.
type ConstExpr struct {
	Op ConstExprOp

	// Meaningful when Op == ConstExprConst.
	Type      ValueType
	ConstBits uint64 // raw bit pattern: integer value, or IEEE-754 payload for floats.

	// Meaningful when Op == ConstExprGlobalGet.
	GlobalIndex Index

	// Len is the number of instructions this expression actually held
	// before truncation to the head; 0 or >1 both trigger
	// ErrMalformedInitExpr at evaluation time. A well-formed expression
	// from a validated module always has Len == 1.
	Len int
}
