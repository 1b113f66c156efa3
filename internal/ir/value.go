package ir

import (
	"fmt"
	"math"
)

// Variable is a stable identifier for a source-level storage location (a
// Wasm local, or a synthetic slot the lowerer introduces) across the
// multiple ir.Value definitions control flow gives it over its lifetime.
type Variable uint32

func (v Variable) String() string { return fmt.Sprintf("var%d", v) }

// Value is an SSA value tagged with its Type in the high 32 bits; ValueID
// is the untyped identity in the low 32 bits.
type Value uint64

// ValueID is the untyped identity of a Value.
type ValueID uint32

const (
	valueIDInvalid ValueID = math.MaxUint32
	// ValueInvalid marks "no value here" (e.g. a void instruction's result
	// slot). It is not Value's zero value, which is a valid ID 0.
	ValueInvalid Value = Value(valueIDInvalid)
)

func (v Value) Valid() bool  { return v.ID() != valueIDInvalid }
func (v Value) Type() Type   { return Type(v >> 32) }
func (v Value) ID() ValueID  { return ValueID(v) }
func (v Value) setType(t Type) Value {
	return v | Value(t)<<32
}

func (v Value) String() string { return fmt.Sprintf("v%d:%s", v.ID(), v.Type()) }
