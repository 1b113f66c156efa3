package lower

import (
	"github.com/pkg/errors"

	"github.com/NotDec/NotDec-wasm2llvm/internal/ir"
	"github.com/NotDec/NotDec-wasm2llvm/internal/wasm"
)

// irType maps a Wasm value type to its IR counterpart. ValueTypeFuncref
// only ever appears as a table element type in this lowerer's input, never
// as a local/global/signature type, so it maps to the opaque pointer type
// used for table slots and linear-memory addresses alike.
func irType(vt wasm.ValueType) (ir.Type, error) {
	switch vt {
	case wasm.ValueTypeI32:
		return ir.TypeI32, nil
	case wasm.ValueTypeI64:
		return ir.TypeI64, nil
	case wasm.ValueTypeF32:
		return ir.TypeF32, nil
	case wasm.ValueTypeF64:
		return ir.TypeF64, nil
	case wasm.ValueTypeV128:
		return ir.TypeV128, nil
	case wasm.ValueTypeFuncref:
		return ir.TypePtr, nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedType, "value type 0x%x", byte(vt))
	}
}

// irTypes maps a slice of Wasm value types into a new slice, rejecting the
// first unsupported entry.
func irTypes(vts []wasm.ValueType) ([]ir.Type, error) {
	out := make([]ir.Type, len(vts))
	for i, vt := range vts {
		t, err := irType(vt)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// buildSignature lowers a Wasm function type to an ir.Signature, rejecting
// more than one result (multi-value is out of scope).
func buildSignature(id ir.SignatureID, ft wasm.FunctionType) (*ir.Signature, error) {
	if len(ft.Results) > 1 {
		return nil, errors.Wrapf(ErrMultiValueUnsupported, "type with %d results", len(ft.Results))
	}
	params, err := irTypes(ft.Params)
	if err != nil {
		return nil, errors.Wrap(err, "param type")
	}
	results, err := irTypes(ft.Results)
	if err != nil {
		return nil, errors.Wrap(err, "result type")
	}
	return &ir.Signature{ID: id, Params: params, Results: results}, nil
}

// buildSignatures lowers every entry of the module's type section, in
// order, so Instruction call sites and Function declarations can share the
// resulting *ir.Signature pointers by index.
func buildSignatures(types []wasm.FunctionType) ([]*ir.Signature, error) {
	out := make([]*ir.Signature, len(types))
	for i, ft := range types {
		sig, err := buildSignature(ir.SignatureID(i), ft)
		if err != nil {
			return nil, errors.Wrapf(err, "type index %d", i)
		}
		out[i] = sig
	}
	return out, nil
}
