package lower

import (
	"github.com/NotDec/NotDec-wasm2llvm/internal/ir"
	"github.com/NotDec/NotDec-wasm2llvm/internal/wasm"
)

// enterBlock pushes a plain block frame. A block has no label of its own
// for re-entry: branching to it jumps forward, past its end, to
// followingBlock, which is created up front with one parameter per the
// block's result type so every jump that reaches it (the fallthrough plus
// any br) can merge cleanly.
func (f *funcLowerer) enterBlock(it wasm.Instr) error {
	bt := it.Block
	if f.unreachable {
		f.pushFrame(controlFrame{kind: controlFrameBlock, blockType: bt, deadFromEntry: true})
		return nil
	}
	n := len(bt.Params)
	following := f.b.AllocateBasicBlock()
	for _, rt := range bt.Results {
		t, err := irType(rt)
		if err != nil {
			return err
		}
		following.AddParam(f.b, t)
	}
	f.pushFrame(controlFrame{
		kind:                         controlFrameBlock,
		blockType:                    bt,
		followingBlock:               following,
		originalStackLenWithoutParam: f.stack.len() - n,
	})
	return nil
}

// enterLoop pushes a loop frame. Unlike a block, a loop's own label targets
// its header (branching to a loop label re-enters at the top, carrying the
// loop's Params), so the header is created and entered immediately, and
// stays unsealed until end (more predecessors can still arrive from a br
// inside the loop body).
func (f *funcLowerer) enterLoop(it wasm.Instr) error {
	bt := it.Block
	if f.unreachable {
		f.pushFrame(controlFrame{kind: controlFrameLoop, blockType: bt, deadFromEntry: true})
		return nil
	}
	n := len(bt.Params)
	args := f.stack.peekN(n)
	header := f.b.AllocateBasicBlock()
	for _, pt := range bt.Params {
		t, err := irType(pt)
		if err != nil {
			return err
		}
		header.AddParam(f.b, t)
	}
	following := f.b.AllocateBasicBlock()
	for _, rt := range bt.Results {
		t, err := irType(rt)
		if err != nil {
			return err
		}
		following.AddParam(f.b, t)
	}
	f.insertJump(args, header)

	f.stack.truncate(f.stack.len() - n)
	for i := range bt.Params {
		f.stack.push(header.Param(i))
	}
	f.b.SetCurrentBlock(header)

	f.pushFrame(controlFrame{
		kind:                         controlFrameLoop,
		blockType:                    bt,
		blk:                          header,
		followingBlock:               following,
		originalStackLenWithoutParam: f.stack.len() - n,
	})
	return nil
}

// enterIf pushes an if frame and lowers the branch itself: a single Brnz
// whose taken edge enters thenBlk and whose (always present) not-taken edge
// jumps to elseBlk, so both paths are real, sealed, single-predecessor
// blocks. elseBlk is synthesized even when the source has no explicit else:
// if enterElse never runs before the matching end, its body stays empty and
// end wires it straight to followingBlock, which Wasm's validation rules
// guarantee is type-safe (a param-less-else if requires Params == Results).
func (f *funcLowerer) enterIf(it wasm.Instr) error {
	bt := it.Block
	if f.unreachable {
		f.pushFrame(controlFrame{kind: controlFrameIfWithoutElse, blockType: bt, deadFromEntry: true})
		return nil
	}
	n := len(bt.Params)
	cond := f.stack.pop()
	args := f.stack.peekN(n)

	thenBlk := f.b.AllocateBasicBlock()
	elseBlk := f.b.AllocateBasicBlock()
	following := f.b.AllocateBasicBlock()
	for _, rt := range bt.Results {
		t, err := irType(rt)
		if err != nil {
			return err
		}
		following.AddParam(f.b, t)
	}

	// thenBlk/elseBlk are allocated with no params of their own: the if's
	// Params stay live on the operand stack (peekN doesn't pop them) and
	// flow into both bodies as the same SSA values directly, so neither
	// branch below carries args.
	brnz := f.b.AllocateInstruction()
	brnz.AsBrnz(cond, thenBlk, nil)
	f.b.InsertInstruction(brnz)
	f.insertJump(nil, elseBlk)

	f.b.Seal(thenBlk)
	f.b.Seal(elseBlk)
	f.b.SetCurrentBlock(thenBlk)

	f.pushFrame(controlFrame{
		kind:                         controlFrameIfWithoutElse,
		blockType:                    bt,
		blk:                          elseBlk,
		followingBlock:               following,
		originalStackLenWithoutParam: f.stack.len() - n,
		clonedArgs:                   args,
	})
	return nil
}

// enterElse closes off the then-branch (if reachable, jumping its top
// Results values into followingBlock) and switches lowering to elseBlk,
// restoring the stack to the if's own entry Params — the else branch starts
// from the same operand-stack shape the if itself did, not whatever the
// then-branch left behind.
func (f *funcLowerer) enterElse() error {
	cf := f.frameAt(0)
	if cf.deadFromEntry {
		return nil
	}
	f.terminateFallthrough(cf.followingBlock, len(cf.blockType.Results))

	cf.kind = controlFrameIfWithElse
	f.b.SetCurrentBlock(cf.blk)
	f.stack.truncate(cf.originalStackLenWithoutParam)
	for _, v := range cf.clonedArgs {
		f.stack.push(v)
	}
	f.unreachable = false
	return nil
}

// enterEnd closes the innermost frame, whatever its kind.
func (f *funcLowerer) enterEnd() error {
	cf := f.popFrame()
	switch cf.kind {
	case controlFrameFunction:
		if !f.unreachable {
			results := f.stack.peekN(len(f.sig.Results))
			instr := f.b.AllocateInstruction()
			instr.AsReturn(results)
			f.b.InsertInstruction(instr)
		}
		return nil

	case controlFrameLoop:
		if cf.deadFromEntry {
			return nil
		}
		f.b.Seal(cf.blk)
		f.terminateFallthrough(cf.followingBlock, len(cf.blockType.Results))
		if cf.followingBlock.Preds() == 0 {
			// Every path out of the loop body returned/trapped/looped
			// forever: nothing after this point is reachable either.
			f.unreachable = true
			return nil
		}
		f.enterMergeBlock(cf.followingBlock, len(cf.blockType.Results), cf.originalStackLenWithoutParam)
		return nil

	case controlFrameIfWithoutElse:
		if cf.deadFromEntry {
			return nil
		}
		// Close the then-branch, then synthesize the implicit empty else:
		// its clonedArgs (equal in count and type to Results, since no-else
		// requires Params == Results) forward straight to followingBlock.
		f.terminateFallthrough(cf.followingBlock, len(cf.blockType.Results))
		f.b.SetCurrentBlock(cf.blk)
		f.insertJump(cf.clonedArgs, cf.followingBlock)
		f.enterMergeBlock(cf.followingBlock, len(cf.blockType.Results), cf.originalStackLenWithoutParam)
		return nil

	default: // controlFrameBlock, controlFrameIfWithElse
		if cf.deadFromEntry {
			return nil
		}
		f.terminateFallthrough(cf.followingBlock, len(cf.blockType.Results))
		if cf.followingBlock.Preds() == 0 {
			f.unreachable = true
			return nil
		}
		f.enterMergeBlock(cf.followingBlock, len(cf.blockType.Results), cf.originalStackLenWithoutParam)
		return nil
	}
}

// doBr lowers an unconditional branch to the label-th enclosing frame.
func (f *funcLowerer) doBr(label uint32) error {
	if f.unreachable {
		return nil
	}
	target, n := f.branchTarget(label)
	f.insertJump(f.stack.peekN(n), target)
	f.unreachable = true
	return nil
}

// doBrIf lowers a conditional branch: a Brnz to the target, with a fresh
// continuation block for the not-taken path. The continuation has no
// parameters of its own — it has exactly one predecessor, so every
// operand-stack value already on the stack remains valid there directly,
// with no merge required.
func (f *funcLowerer) doBrIf(label uint32) error {
	if f.unreachable {
		return nil
	}
	cond := f.stack.pop()
	target, n := f.branchTarget(label)
	args := f.stack.peekN(n)

	cont := f.b.AllocateBasicBlock()
	instr := f.b.AllocateInstruction()
	instr.AsBrnz(cond, target, args)
	f.b.InsertInstruction(instr)
	f.insertJump(nil, cont)

	f.b.Seal(cont)
	f.b.SetCurrentBlock(cont)
	return nil
}

// doBrTable lowers a multi-way branch: every label (including the trailing
// default) becomes one brTableTargets entry with its own branch-argument
// list, matching that label's own frame arity.
func (f *funcLowerer) doBrTable(labels []wasm.Index) error {
	if f.unreachable {
		return nil
	}
	index := f.stack.pop()

	targets := make([]*ir.BasicBlock, len(labels))
	for i, lbl := range labels {
		target, _ := f.branchTarget(lbl)
		targets[i] = target
	}

	instr := f.b.AllocateInstruction()
	instr.AsBrTable(index, targets)
	f.b.InsertInstruction(instr)

	argSlots := instr.BrTableArgs()
	for i, lbl := range labels {
		_, n := f.branchTarget(lbl)
		argSlots[i] = f.stack.peekN(n)
	}

	f.unreachable = true
	return nil
}
