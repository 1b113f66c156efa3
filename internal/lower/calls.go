package lower

import (
	"github.com/NotDec/NotDec-wasm2llvm/internal/ir"
)

// doCall lowers a direct call: funcIdx names the callee across the whole
// function index space, its signature (already declared, whether the
// callee's body comes before or after this one in the module) tells us how
// many arguments to pop and whether a result value comes back.
func (f *funcLowerer) doCall(funcIdx uint32) error {
	if f.unreachable {
		return nil
	}
	sig, err := f.c.funcSignature(funcIdx)
	if err != nil {
		return err
	}
	args := f.stack.peekN(len(sig.Params))
	f.stack.truncate(f.stack.len() - len(sig.Params))

	instr := f.b.AllocateInstruction()
	instr.AsCall(sig, funcIdx, args)
	f.b.InsertInstruction(instr)
	f.pushCallResult(instr, sig)
	return nil
}

// doCallIndirect lowers an indirect call: typeIdx is the statically
// declared signature the call expects (validated against whatever function
// is actually installed in the table slot at a real runtime, which this
// lowerer has no need to emulate), tableIdx is the table the callee index
// is drawn from.
func (f *funcLowerer) doCallIndirect(typeIdx, tableIdx uint32) error {
	if f.unreachable {
		return nil
	}
	sig, err := f.c.signatureByType(typeIdx)
	if err != nil {
		return err
	}
	callee := f.stack.pop()
	args := f.stack.peekN(len(sig.Params))
	f.stack.truncate(f.stack.len() - len(sig.Params))

	instr := f.b.AllocateInstruction()
	instr.AsCallIndirect(sig, tableIdx, callee, args)
	f.b.InsertInstruction(instr)
	f.pushCallResult(instr, sig)
	return nil
}

// pushCallResult pushes a call's single result value, if its signature has
// one. InsertInstruction already resolved instr.Return1() via
// instructionResultType's Call/CallIndirect case, so there is nothing left
// to allocate here; a multi-result call would need SetResults instead, but
// multi-value is out of scope.
func (f *funcLowerer) pushCallResult(instr *ir.Instruction, sig *ir.Signature) {
	if len(sig.Results) == 0 {
		return
	}
	f.stack.push(instr.Return1())
}
