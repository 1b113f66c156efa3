package lower

import (
	"github.com/pkg/errors"

	"github.com/NotDec/NotDec-wasm2llvm/internal/ir"
	"github.com/NotDec/NotDec-wasm2llvm/internal/wasm"
)

// controlFrameKind discriminates the five shapes of structured control a
// Wasm function body can nest: the implicit outermost function frame, a
// loop (branches to its header re-enter at the top), a block (branches to
// it jump past its end), and the two shapes an if can take depending on
// whether an else was seen.
type controlFrameKind byte

const (
	controlFrameFunction controlFrameKind = iota + 1
	controlFrameLoop
	controlFrameBlock
	controlFrameIfWithElse
	controlFrameIfWithoutElse
)

// controlFrame is one entry of the control-frame stack a function body
// lowerer maintains while walking its flat instruction list: it tracks
// where a branch targeting this frame's label lands, how many operand-stack
// slots were present on entry (so lowering can truncate back to that depth
// at frame exit or when else/unreachable resets it), and (for if) the
// cloned argument values needed to synthesize an empty else branch.
type controlFrame struct {
	kind                         controlFrameKind
	originalStackLenWithoutParam int
	blk                          *ir.BasicBlock // loop header, or if's else block.
	followingBlock               *ir.BasicBlock
	blockType                    *wasm.FunctionType
	clonedArgs                   []ir.Value

	// deadFromEntry marks a frame pushed while already unreachable: its blk/
	// followingBlock are never created, and everything until its matching
	// end/else is skipped.
	deadFromEntry bool
}

func (f *controlFrame) isLoop() bool { return f.kind == controlFrameLoop }

// operandStack is the implicit typed value stack instructions push to and
// pop from, tracked explicitly since the IR itself has no notion of a
// stack machine.
type operandStack struct {
	values []ir.Value
}

func (s *operandStack) push(v ir.Value)   { s.values = append(s.values, v) }
func (s *operandStack) pop() ir.Value {
	n := len(s.values) - 1
	v := s.values[n]
	s.values = s.values[:n]
	return v
}
func (s *operandStack) peekN(n int) []ir.Value {
	if n == 0 {
		return nil
	}
	view := s.values[len(s.values)-n:]
	out := make([]ir.Value, n)
	copy(out, view)
	return out
}
func (s *operandStack) truncate(n int) { s.values = s.values[:n] }
func (s *operandStack) len() int       { return len(s.values) }

// funcLowerer holds the per-function state for lowering one wasm.Func body
// into an ir.Function via Context's shared module-level tables.
type funcLowerer struct {
	c       *Context
	b       *ir.Builder
	fn      *wasm.Func
	sig     *ir.Signature
	funcIdx uint32

	locals []ir.Variable // one per Wasm local index, params first.

	stack       operandStack
	frames      []controlFrame
	unreachable bool
}

func (f *funcLowerer) pushFrame(cf controlFrame)  { f.frames = append(f.frames, cf) }
func (f *funcLowerer) popFrame() controlFrame {
	n := len(f.frames) - 1
	cf := f.frames[n]
	f.frames = f.frames[:n]
	return cf
}
func (f *funcLowerer) frameAt(depthFromTop int) *controlFrame {
	return &f.frames[len(f.frames)-1-depthFromTop]
}

// branchTarget resolves a branch label (relative nesting depth) to its
// target block and the number of values that must accompany the branch.
func (f *funcLowerer) branchTarget(label uint32) (*ir.BasicBlock, int) {
	cf := f.frameAt(int(label))
	if cf.isLoop() {
		return cf.blk, len(cf.blockType.Params)
	}
	return cf.followingBlock, len(cf.blockType.Results)
}

// insertJump emits an unconditional jump carrying args to target, wiring
// it as a predecessor of target (BasicBlock.insertInstruction handles
// predecessor bookkeeping on any branching opcode).
func (f *funcLowerer) insertJump(args []ir.Value, target *ir.BasicBlock) {
	instr := f.b.AllocateInstruction()
	instr.AsJump(target, args)
	f.b.InsertInstruction(instr)
}

// terminateFallthrough closes the current block into target by jumping
// with its top n operand-stack values, unless the current block is already
// unreachable (a return/br/unreachable already closed it).
func (f *funcLowerer) terminateFallthrough(target *ir.BasicBlock, n int) {
	if f.unreachable {
		return
	}
	f.insertJump(f.stack.peekN(n), target)
}

// enterMergeBlock makes blk (a block with one parameter per live value at
// this merge point) the current block: it seals blk now that every branch
// that could reach it has already been lowered, discards whatever stack
// state is left over from whichever path fell through, and replaces it with
// blk's own parameters.
func (f *funcLowerer) enterMergeBlock(blk *ir.BasicBlock, resultCount, originalLen int) {
	f.b.Seal(blk)
	f.b.SetCurrentBlock(blk)
	f.stack.truncate(originalLen)
	for i := 0; i < resultCount; i++ {
		f.stack.push(blk.Param(i))
	}
	f.unreachable = false
}

// lowerFunc lowers fn's body into a complete ir.Function.
func (c *Context) lowerFunc(fn *wasm.Func, funcIdx uint32, sig *ir.Signature) (*ir.Function, []*ir.BasicBlock, error) {
	b := ir.NewBuilder()
	b.Init(sig)

	f := &funcLowerer{c: c, b: b, fn: fn, sig: sig, funcIdx: funcIdx}

	entry := b.AllocateBasicBlock()
	b.SetCurrentBlock(entry)

	// Declare a Variable for every parameter and local; parameters are
	// immediately defined from the entry block's own params.
	f.locals = make([]ir.Variable, 0, len(sig.Params)+len(fn.Locals))
	for _, pt := range sig.Params {
		v := b.DeclareVariable(pt)
		f.locals = append(f.locals, v)
	}
	for _, lt := range fn.Locals {
		t, err := irType(lt)
		if err != nil {
			return nil, nil, errors.Wrap(err, "local type")
		}
		v := b.DeclareVariable(t)
		f.locals = append(f.locals, v)
	}
	for i, pt := range sig.Params {
		argVal := entry.AddParam(b, pt)
		b.DefineVariable(f.locals[i], argVal, entry)
	}
	for i := len(sig.Params); i < len(f.locals); i++ {
		t := b.VariableType(f.locals[i])
		zero := f.emitZero(t)
		b.DefineVariable(f.locals[i], zero, entry)
	}

	b.Seal(entry)

	f.pushFrame(controlFrame{
		kind:           controlFrameFunction,
		followingBlock: b.ReturnBlock(),
		blockType:      &wasm.FunctionType{Results: resultsOf(sig)},
	})

	for _, instr := range fn.Body {
		if err := f.lowerInstr(instr); err != nil {
			return nil, nil, errors.Wrapf(err, "function %q", fn.Name)
		}
	}

	return &ir.Function{Name: fn.Name, Index: funcIdx, Sig: sig, Entry: entry}, b.Blocks(), nil
}

func resultsOf(sig *ir.Signature) []wasm.ValueType {
	// The function-frame's blockType is only consulted for len(Results),
	// never for the actual types, so a placeholder slice of the right
	// length is sufficient.
	return make([]wasm.ValueType, len(sig.Results))
}

// emitZero emits the type's zero value as a constant instruction: 0 for
// integers, +0.0 (all-zero bits) for floats.
func (f *funcLowerer) emitZero(t ir.Type) ir.Value {
	instr := f.b.AllocateInstruction()
	switch t {
	case ir.TypeI32, ir.TypeI64, ir.TypeF32, ir.TypeF64:
		instr.AsIconst(t, 0)
	default:
		instr.AsIconst(ir.TypeI64, 0)
	}
	f.b.InsertInstruction(instr)
	return instr.Return1()
}

// lowerInstr dispatches a single flattened Wasm instruction.
func (f *funcLowerer) lowerInstr(it wasm.Instr) error {
	b := f.b
	if it.Block != nil && len(it.Block.Results) > 1 {
		return errors.Wrapf(ErrMultiValueUnsupported, "block type with %d results", len(it.Block.Results))
	}
	switch it.Op {

	case wasm.OpBlock:
		return f.enterBlock(it)
	case wasm.OpLoop:
		return f.enterLoop(it)
	case wasm.OpIf:
		return f.enterIf(it)
	case wasm.OpElse:
		return f.enterElse()
	case wasm.OpEnd:
		return f.enterEnd()
	case wasm.OpBr:
		return f.doBr(it.Index)
	case wasm.OpBrIf:
		return f.doBrIf(it.Index)
	case wasm.OpBrTable:
		return f.doBrTable(it.Labels)
	case wasm.OpReturn:
		if f.unreachable {
			return nil
		}
		results := f.stack.peekN(len(f.sig.Results))
		instr := b.AllocateInstruction()
		instr.AsReturn(results)
		b.InsertInstruction(instr)
		f.unreachable = true
		return nil
	case wasm.OpUnreachable:
		if f.unreachable {
			return nil
		}
		instr := b.AllocateInstruction()
		instr.AsUnreachable()
		b.InsertInstruction(instr)
		f.unreachable = true
		return nil
	case wasm.OpNop:
		return nil
	case wasm.OpDrop:
		if f.unreachable {
			return nil
		}
		f.stack.pop()
		return nil
	case wasm.OpSelect:
		if f.unreachable {
			return nil
		}
		cond := f.stack.pop()
		y := f.stack.pop()
		x := f.stack.pop()
		instr := b.AllocateInstruction()
		instr.AsSelect(cond, x, y)
		b.InsertInstruction(instr)
		f.stack.push(instr.Return1())
		return nil

	case wasm.OpLocalGet:
		if f.unreachable {
			return nil
		}
		f.stack.push(b.FindValue(f.locals[it.Index]))
		return nil
	case wasm.OpLocalSet:
		if f.unreachable {
			return nil
		}
		v := f.stack.pop()
		b.DefineVariableInCurrentBB(f.locals[it.Index], v)
		return nil
	case wasm.OpLocalTee:
		if f.unreachable {
			return nil
		}
		v := f.stack.peekN(1)[0]
		b.DefineVariableInCurrentBB(f.locals[it.Index], v)
		return nil
	case wasm.OpGlobalGet:
		if f.unreachable {
			return nil
		}
		t := f.c.globalType(it.Index)
		instr := b.AllocateInstruction()
		instr.AsGlobalLoad(it.Index, t)
		b.InsertInstruction(instr)
		f.stack.push(instr.Return1())
		return nil
	case wasm.OpGlobalSet:
		if f.unreachable {
			return nil
		}
		v := f.stack.pop()
		instr := b.AllocateInstruction()
		instr.AsGlobalStore(it.Index, v)
		b.InsertInstruction(instr)
		return nil

	case wasm.OpCall:
		return f.doCall(it.Index)
	case wasm.OpCallIndirect:
		return f.doCallIndirect(it.Index, it.Index2)

	case wasm.OpMemorySize:
		if f.unreachable {
			return nil
		}
		instr := b.AllocateInstruction()
		instr.AsMemorySize()
		b.InsertInstruction(instr)
		f.stack.push(instr.Return1())
		return nil
	case wasm.OpMemoryGrow:
		if f.unreachable {
			return nil
		}
		delta := f.stack.pop()
		instr := b.AllocateInstruction()
		instr.AsMemoryGrow(delta)
		b.InsertInstruction(instr)
		f.stack.push(instr.Return1())
		return nil
	}

	if loadType, signed, width, ok := loadInfo(it.Op); ok {
		return f.doLoad(it, loadType, signed, width)
	}
	if storeWidth, ok := storeInfo(it.Op); ok {
		return f.doStore(it, storeWidth)
	}
	if t, ok := constType(it.Op); ok {
		return f.doConst(it, t)
	}
	if op, ok := binaryOp(it.Op); ok {
		return f.doBinary(op)
	}
	if op, ok := unaryOp(it.Op); ok {
		return f.doUnary(op)
	}
	if _, ok := intCmp(it.Op); ok || eqzOps[it.Op] {
		return f.doIcmpOrEqz(it)
	}
	if cc, ok := floatCmp(it.Op); ok {
		return f.doFcmp(cc)
	}
	if op, to, width, ok := convertOp(it.Op); ok {
		return f.doConvert(op, to, width)
	}

	return errors.Errorf("unsupported opcode %d", it.Op)
}
