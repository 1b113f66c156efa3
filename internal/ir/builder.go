package ir

import (
	"fmt"
	"strings"
)

// Builder constructs a Function's SSA body one instruction at a time. It
// implements the Braun et al. renaming algorithm: variable reads resolve to
// their latest definition via findValue, consulting block parameters (this
// package's stand-in for PHI nodes) only once a block has more than one
// predecessor, and Seal finalizes any renaming left pending by a block that
// was read from before all of its predecessors were known.
type Builder struct {
	sig      *Signature
	blocks   []*BasicBlock
	current  *BasicBlock
	retBlk   *BasicBlock

	variables   []Type
	nextValueID ValueID

	annotations map[ValueID]string
}

// NewBuilder returns a Builder ready for Init.
func NewBuilder() *Builder {
	return &Builder{retBlk: newBasicBlock(returnBlockID), annotations: make(map[ValueID]string)}
}

const returnBlockID BasicBlockID = 0xffffffff

// Init resets the Builder to start lowering a new Function with signature s.
func (b *Builder) Init(s *Signature) {
	b.sig = s
	b.blocks = b.blocks[:0]
	b.variables = b.variables[:0]
	b.nextValueID = 0
	b.retBlk = newBasicBlock(returnBlockID)
	b.annotations = make(map[ValueID]string)
}

func (b *Builder) Signature() *Signature { return b.sig }

// ReturnBlock is the sentinel block that a branch to a function's outermost
// label targets. It never gets its own instructions, is not part of
// Blocks(), and is not referenced by Return instructions.
func (b *Builder) ReturnBlock() *BasicBlock { return b.retBlk }

// AllocateBasicBlock creates a new, initially unsealed BasicBlock.
func (b *Builder) AllocateBasicBlock() *BasicBlock {
	id := BasicBlockID(len(b.blocks))
	blk := newBasicBlock(id)
	b.blocks = append(b.blocks, blk)
	return blk
}

func (b *Builder) SetCurrentBlock(blk *BasicBlock) { b.current = blk }
func (b *Builder) CurrentBlock() *BasicBlock       { return b.current }

// DeclareVariable introduces a new Variable of type t, e.g. one per Wasm
// local (including parameters).
func (b *Builder) DeclareVariable(t Type) Variable {
	v := Variable(len(b.variables))
	b.variables = append(b.variables, t)
	return v
}

// DefineVariable records that variable now holds value within block. The
// actual value is inserted by the caller; this only updates the renaming
// table consulted by findValue.
func (b *Builder) DefineVariable(variable Variable, value Value, block *BasicBlock) {
	if b.variables[variable].invalid() {
		panic("BUG: " + variable.String() + " used before DeclareVariable")
	}
	block.lastDefinitions[variable] = value
}

// DefineVariableInCurrentBB is DefineVariable(variable, value, CurrentBlock()).
func (b *Builder) DefineVariableInCurrentBB(variable Variable, value Value) {
	b.DefineVariable(variable, value, b.current)
}

func (b *Builder) allocateValue(t Type) Value {
	v := Value(b.nextValueID).setType(t)
	b.nextValueID++
	return v
}

// AllocateValue allocates a fresh unused Value of type t, for a caller
// (e.g. a call instruction with multiple results) that manages its own
// result values instead of relying on InsertInstruction's single-result path.
func (b *Builder) AllocateValue(t Type) Value { return b.allocateValue(t) }

// VariableType returns the Type a Variable was declared with.
func (b *Builder) VariableType(v Variable) Type { return b.variables[v] }

// AnnotateValue attaches a debug name to a value, used only by Format.
func (b *Builder) AnnotateValue(v Value, name string) { b.annotations[v.ID()] = name }

// AllocateInstruction returns a fresh, unattached Instruction for a caller
// to populate via its AsXxx method and then pass to InsertInstruction.
func (b *Builder) AllocateInstruction() *Instruction {
	instr := &Instruction{}
	instr.reset()
	return instr
}

// InsertInstruction appends instr to the current block and allocates its
// result value(s), if instr's opcode produces one.
func (b *Builder) InsertInstruction(instr *Instruction) {
	b.current.insertInstruction(instr)
	t := instructionResultType(instr)
	if t.invalid() {
		return
	}
	instr.rValue = b.allocateValue(t)
}

// instructionResultType reports the Type an instruction's primary result
// takes, or the invalid Type for instructions with no result (store, jump,
// branch, return, ...). A call or call_indirect with exactly one result gets
// it here; one with no result gets none, and one with several would need
// SetResults at the call site instead.
func instructionResultType(instr *Instruction) Type {
	switch instr.opcode {
	case OpcodeIconst, OpcodeFconst:
		return instr.typ
	case OpcodeIadd, OpcodeIaddImm, OpcodeIsub, OpcodeImul, OpcodeSdiv, OpcodeUdiv, OpcodeSrem, OpcodeUrem,
		OpcodeBand, OpcodeBor, OpcodeBxor, OpcodeIshl, OpcodeSshr, OpcodeUshr, OpcodeRotl, OpcodeRotr,
		OpcodeFadd, OpcodeFsub, OpcodeFmul, OpcodeFdiv, OpcodeFmin, OpcodeFmax, OpcodeFcopysign:
		return instr.v.Type()
	case OpcodeClz, OpcodeCtz, OpcodePopcnt, OpcodeFabs, OpcodeFneg, OpcodeSqrt,
		OpcodeCeil, OpcodeFloor, OpcodeTrunc, OpcodeNearest:
		return instr.v.Type()
	case OpcodeIcmp, OpcodeFcmp:
		return TypeI32
	case OpcodeIreduce, OpcodeSextend, OpcodeUextend, OpcodeFdemote, OpcodeFpromote,
		OpcodeFcvtToSint, OpcodeFcvtToUint, OpcodeFcvtFromSint, OpcodeFcvtFromUint, OpcodeBitcast,
		OpcodeIntToPtr:
		return instr.typ
	case OpcodeLoad:
		return instr.typ
	case OpcodeGlobalLoad:
		return instr.typ
	case OpcodeTableLoad:
		return TypePtr
	case OpcodeMemorySize, OpcodeMemoryGrow:
		return TypeI32
	case OpcodeSelect:
		return instr.v2.Type()
	case OpcodeCall, OpcodeCallIndirect:
		if len(instr.sig.Results) == 1 {
			return instr.sig.Results[0]
		}
		return typeInvalid
	default:
		return typeInvalid
	}
}

// FindValue resolves the current definition of variable as seen from the
// current block.
func (b *Builder) FindValue(variable Variable) Value {
	t := b.variables[variable]
	return b.findValue(t, variable, b.current)
}

// findValue is the Braun et al. algorithm (section 2): a block's local
// definition wins if present; otherwise, for an unsealed block we stash a
// placeholder to be resolved by a later Seal, for a sealed block with one
// predecessor we recurse into it, and for a sealed block with multiple
// predecessors we add a block parameter and wire each predecessor's branch
// to supply it as an argument (our stand-in for PHI).
func (b *Builder) findValue(t Type, variable Variable, blk *BasicBlock) Value {
	if v, ok := blk.lastDefinitions[variable]; ok {
		return v
	}
	if !blk.sealed {
		v := b.allocateValue(t)
		blk.lastDefinitions[variable] = v
		blk.unknownValues[variable] = v
		return v
	}
	if pred := blk.singlePred; pred != nil {
		return b.findValue(t, variable, pred)
	}

	param := blk.AddParam(b, t)
	b.DefineVariable(variable, param, blk)
	for i := range blk.preds {
		pred := &blk.preds[i]
		v := b.findValue(t, variable, pred.blk)
		pred.branch.addBranchArg(v)
	}
	return param
}

// Seal declares that every predecessor of blk is now known. Once sealed, a
// block may no longer gain predecessors. Any findValue call made against
// blk before this point left a pending placeholder in blk.unknownValues;
// each of those now becomes a real block parameter wired to every
// predecessor, exactly as if blk had been sealed from the start.
func (b *Builder) Seal(blk *BasicBlock) {
	if len(blk.preds) == 1 {
		blk.singlePred = blk.preds[0].blk
	}
	blk.sealed = true

	for variable, placeholder := range blk.unknownValues {
		t := b.variables[variable]
		blk.addParamOn(t, placeholder)
		for i := range blk.preds {
			pred := &blk.preds[i]
			v := b.findValue(t, variable, pred.blk)
			pred.branch.addBranchArg(v)
		}
	}
}

// Blocks returns every block allocated so far, in allocation order.
func (b *Builder) Blocks() []*BasicBlock { return b.blocks }

// Format renders the function body for debugging/golden-file tests.
func (b *Builder) Format() string {
	var sb strings.Builder
	for _, blk := range b.blocks {
		sb.WriteString(blk.FormatHeader(b))
		sb.WriteByte('\n')
		for instr := blk.Root(); instr != nil; instr = instr.Next() {
			sb.WriteString("\t")
			sb.WriteString(formatInstruction(instr))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func formatInstruction(instr *Instruction) string {
	if instr.rValue.Valid() {
		return fmt.Sprintf("%s = %s", instr.rValue, opcodeName(instr.opcode))
	}
	return opcodeName(instr.opcode)
}
