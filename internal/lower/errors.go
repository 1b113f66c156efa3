package lower

import "errors"

// Sentinel errors returned (always wrapped via github.com/pkg/errors to
// carry the offending name/index/phase) by every component in this
// package. Callers distinguish kinds with errors.Is/errors.As rather than
// string-matching.
var (
	// ErrNilModule is returned when the input *wasm.Module is nil — the
	// parser's own ReadFailed/ValidateFailed condition, surfaced here
	// rather than a parser error type this package doesn't own.
	ErrNilModule = errors.New("lower: nil module")

	// ErrUnsupportedType is returned for a ValueType this lowerer has no
	// ir.Type mapping for (e.g. a reference type outside funcref).
	ErrUnsupportedType = errors.New("lower: unsupported value type")

	// ErrMalformedInitExpr is returned when a constant expression does not
	// hold exactly one instruction.
	ErrMalformedInitExpr = errors.New("lower: malformed constant expression")

	// ErrUnsupportedInitExpr is returned for a constant expression whose
	// op this lowerer does not evaluate, or a global.get initializer chain
	// that cycles back on itself.
	ErrUnsupportedInitExpr = errors.New("lower: unsupported constant expression")

	// ErrIndexOutOfRange is returned when a referenced function/global/
	// memory/table/type index exceeds its index space.
	ErrIndexOutOfRange = errors.New("lower: index out of range")

	// ErrUnsupportedImportKind is returned for an ExternKind this lowerer
	// does not know how to declare an import for.
	ErrUnsupportedImportKind = errors.New("lower: unsupported import kind")

	// ErrUnsupportedExternalKind is returned for an ExportKind this
	// lowerer does not know how to promote linkage for.
	ErrUnsupportedExternalKind = errors.New("lower: unsupported external kind")

	// ErrUnsupportedTableType is returned for a table whose element type
	// is not funcref.
	ErrUnsupportedTableType = errors.New("lower: unsupported table element type")

	// ErrUnsupportedElemFlags is returned for a passive element segment or
	// one using elem-exprs rather than a plain function index list.
	ErrUnsupportedElemFlags = errors.New("lower: unsupported element segment")

	// ErrMultiValueUnsupported is returned for a function type or block
	// type declaring more than one result.
	ErrMultiValueUnsupported = errors.New("lower: multi-value results unsupported")

	// ErrReentrant is returned when Run is called on a Context that has
	// already been run; a Context is single-use.
	ErrReentrant = errors.New("lower: context already used")
)
