package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A diamond — entry branches to then/else, both jump to a shared merge —
// exercises findValue's sealed-multiple-predecessor path: reading a
// variable in the merge block must introduce exactly one block parameter,
// fed by each arm's definition.
func TestBuilderDiamondMergeIntroducesOneParam(t *testing.T) {
	b := NewBuilder()
	b.Init(&Signature{Params: []Type{TypeI32}})

	entry := b.AllocateBasicBlock()
	thenBlk := b.AllocateBasicBlock()
	elseBlk := b.AllocateBasicBlock()
	merge := b.AllocateBasicBlock()

	x := b.DeclareVariable(TypeI32)

	b.SetCurrentBlock(entry)
	cond := b.allocateValue(TypeI32)
	brnz := b.AllocateInstruction().AsBrnz(cond, thenBlk, nil)
	b.InsertInstruction(brnz)
	jumpElse := b.AllocateInstruction().AsJump(elseBlk, nil)
	b.InsertInstruction(jumpElse)
	b.Seal(thenBlk)
	b.Seal(elseBlk)

	b.SetCurrentBlock(thenBlk)
	one := b.AllocateInstruction().AsIconst(TypeI32, 1)
	b.InsertInstruction(one)
	b.DefineVariableInCurrentBB(x, one.Return1())
	b.InsertInstruction(b.AllocateInstruction().AsJump(merge, nil))

	b.SetCurrentBlock(elseBlk)
	two := b.AllocateInstruction().AsIconst(TypeI32, 2)
	b.InsertInstruction(two)
	b.DefineVariableInCurrentBB(x, two.Return1())
	b.InsertInstruction(b.AllocateInstruction().AsJump(merge, nil))

	b.Seal(merge)
	b.SetCurrentBlock(merge)
	got := b.FindValue(x)

	require.Equal(t, 1, merge.Params())
	assert.Equal(t, merge.Param(0), got)
	require.Equal(t, 2, merge.Preds())

	for i := 0; i < merge.Preds(); i++ {
		pred := merge.Pred(i)
		var branch *Instruction
		for instr := pred.Root(); instr != nil; instr = instr.Next() {
			if instr.Opcode() == OpcodeJump {
				branch = instr
			}
		}
		require.NotNil(t, branch)
		require.Len(t, branch.BranchArgs(), 1)
		if pred == thenBlk {
			assert.Equal(t, one.Return1(), branch.BranchArgs()[0])
		} else {
			assert.Equal(t, two.Return1(), branch.BranchArgs()[0])
		}
	}
}

// A loop header read from before its backedge is known exercises the
// unsealed path: the read leaves a placeholder that Seal later resolves
// into a real parameter fed by both the preheader and the backedge.
func TestBuilderLoopHeaderSealResolvesPlaceholder(t *testing.T) {
	b := NewBuilder()
	b.Init(&Signature{})

	preheader := b.AllocateBasicBlock()
	header := b.AllocateBasicBlock()

	x := b.DeclareVariable(TypeI32)

	b.SetCurrentBlock(preheader)
	init := b.AllocateInstruction().AsIconst(TypeI32, 0)
	b.InsertInstruction(init)
	b.DefineVariableInCurrentBB(x, init.Return1())
	b.InsertInstruction(b.AllocateInstruction().AsJump(header, nil))
	b.Seal(preheader)

	// header has one known predecessor so far (preheader); it stays
	// unsealed until the backedge from the loop body is wired in.
	b.SetCurrentBlock(header)
	readBeforeSeal := b.FindValue(x)
	assert.False(t, header.Sealed())

	next := b.AllocateInstruction().AsIconst(TypeI32, 1)
	b.InsertInstruction(next)
	b.DefineVariableInCurrentBB(x, next.Return1())
	b.InsertInstruction(b.AllocateInstruction().AsJump(header, nil)) // backedge

	b.Seal(header)

	require.Equal(t, 1, header.Params())
	assert.Equal(t, header.Param(0), readBeforeSeal)
	require.Equal(t, 2, header.Preds())

	for i := 0; i < header.Preds(); i++ {
		pred := header.Pred(i)
		var branch *Instruction
		for instr := pred.Root(); instr != nil; instr = instr.Next() {
			if instr.Opcode() == OpcodeJump {
				branch = instr
			}
		}
		require.NotNil(t, branch)
		require.Len(t, branch.BranchArgs(), 1)
		if pred == preheader {
			assert.Equal(t, init.Return1(), branch.BranchArgs()[0])
		} else {
			assert.Equal(t, next.Return1(), branch.BranchArgs()[0])
		}
	}
}

// A block with exactly one sealed predecessor never gets a block parameter
// at all: findValue recurses straight into the predecessor via singlePred.
func TestBuilderSinglePredSkipsBlockParam(t *testing.T) {
	b := NewBuilder()
	b.Init(&Signature{})

	a := b.AllocateBasicBlock()
	c := b.AllocateBasicBlock()

	x := b.DeclareVariable(TypeI32)

	b.SetCurrentBlock(a)
	val := b.AllocateInstruction().AsIconst(TypeI32, 42)
	b.InsertInstruction(val)
	b.DefineVariableInCurrentBB(x, val.Return1())
	b.InsertInstruction(b.AllocateInstruction().AsJump(c, nil))
	b.Seal(a)
	b.Seal(c)

	b.SetCurrentBlock(c)
	got := b.FindValue(x)

	assert.Equal(t, 0, c.Params())
	assert.Equal(t, val.Return1(), got)
}
