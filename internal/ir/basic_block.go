package ir

import (
	"fmt"
	"strings"
)

// BasicBlockID uniquely identifies a BasicBlock within its Function.
type BasicBlockID uint32

// BasicBlock is a straight-line instruction sequence ending in a
// terminator (Jump/BrTable/Return/Unreachable), which may be preceded by a
// conditional Brz/Brnz branching elsewhere. It carries its own block parameters in lieu of traditional
// PHI instructions: the i-th parameter stands for whatever value a
// Variable held along each predecessor edge (the "block argument" variant
// of SSA).
type BasicBlock struct {
	id                      BasicBlockID
	params                  []blockParam
	rootInstr, currentInstr *Instruction

	preds   []predecessor
	sealed  bool

	// singlePred caches preds[0] once sealed with exactly one predecessor,
	// letting Builder.findValue skip the block-parameter machinery entirely.
	singlePred *BasicBlock

	lastDefinitions map[Variable]Value
	// unknownValues holds Variable placeholders created by Builder.findValue
	// while this block was still unsealed; Seal resolves each of these into
	// a real block parameter wired to every predecessor.
	unknownValues map[Variable]Value
}

type blockParam struct {
	value Value
	typ   Type
}

type predecessor struct {
	blk    *BasicBlock
	branch *Instruction
}

func newBasicBlock(id BasicBlockID) *BasicBlock {
	return &BasicBlock{
		id:              id,
		lastDefinitions: make(map[Variable]Value),
		unknownValues:   make(map[Variable]Value),
	}
}

func (b *BasicBlock) ID() BasicBlockID { return b.id }

func (b *BasicBlock) Name() string { return fmt.Sprintf("blk%d", b.id) }

// Params returns the number of block parameters.
func (b *BasicBlock) Params() int { return len(b.params) }

// Param returns the Value bound to the i-th block parameter.
func (b *BasicBlock) Param(i int) Value { return b.params[i].value }

// AddParam adds a new parameter of type typ to b, allocating its Value
// through builder.
func (b *BasicBlock) AddParam(builder *Builder, typ Type) Value {
	v := builder.allocateValue(typ)
	b.params = append(b.params, blockParam{value: v, typ: typ})
	return v
}

func (b *BasicBlock) addParamOn(typ Type, v Value) {
	b.params = append(b.params, blockParam{value: v, typ: typ})
}

// Root returns the first instruction of the block, or nil if empty.
func (b *BasicBlock) Root() *Instruction { return b.rootInstr }

// Tail returns the last instruction inserted into the block.
func (b *BasicBlock) Tail() *Instruction { return b.currentInstr }

// Sealed reports whether all predecessors of this block are known.
func (b *BasicBlock) Sealed() bool { return b.sealed }

// Preds returns the number of known predecessors.
func (b *BasicBlock) Preds() int { return len(b.preds) }

// Pred returns the i-th predecessor block.
func (b *BasicBlock) Pred(i int) *BasicBlock { return b.preds[i].blk }

func (b *BasicBlock) insertInstruction(instr *Instruction) {
	if b.currentInstr != nil {
		b.currentInstr.next = instr
		instr.prev = b.currentInstr
	} else {
		b.rootInstr = instr
	}
	b.currentInstr = instr

	switch instr.opcode {
	case OpcodeJump, OpcodeBrz, OpcodeBrnz:
		instr.blk.addPred(b, instr)
	case OpcodeBrTable:
		for _, t := range instr.brTableTargets {
			t.addPred(b, instr)
		}
	}
}

func (b *BasicBlock) addPred(pred *BasicBlock, branch *Instruction) {
	if b.sealed {
		panic("BUG: adding predecessor to a sealed block " + b.Name())
	}
	b.preds = append(b.preds, predecessor{blk: pred, branch: branch})
}

// FormatHeader renders the block's parameter list and predecessor set, for
// debug dumps.
func (b *BasicBlock) FormatHeader(fb *Builder) string {
	ps := make([]string, len(b.params))
	for i, p := range b.params {
		ps[i] = p.value.String()
		_ = p.typ
	}
	if len(b.preds) == 0 {
		return fmt.Sprintf("blk%d: (%s)", b.id, strings.Join(ps, ", "))
	}
	preds := make([]string, len(b.preds))
	for i, p := range b.preds {
		preds[i] = p.blk.Name()
	}
	return fmt.Sprintf("blk%d: (%s) <- (%s)", b.id, strings.Join(ps, ", "), strings.Join(preds, ", "))
}
