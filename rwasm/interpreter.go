package rwasm

import "github.com/fluentlabs-xyz/fluentbase-core/evmtypes"

// HostCallFunc bridges a Call/ReturnCall instruction to the embedder's
// syscall dispatcher. It receives the frame and the function index being
// called; it is responsible for reading the call's inputs from frame
// memory/stack, doing whatever work the host call requires, and leaving
// the frame in one of three states: still Running (a synchronous host call
// that pushed its result onto the stack), PendingInterruption (a
// CALL/CREATE-family syscall that needs a child frame), or Halted (a trap
// or explicit halt). It must never itself invoke Run recursively — per
// spec.md §9's design note, "no host call ever re-enters the interpreter
// recursively" is the one invariant every HostCallFunc implementation must
// uphold.
type HostCallFunc func(frame *CallFrame, funcIndex uint32) error

// Store is the interpreter's configuration: resource limits, the fuel cost
// table, and the host-call bridge. It holds no per-call mutable state —
// that all lives in CallFrame — so one Store can safely run many frames
// in sequence (never concurrently; see spec.md §5).
type Store struct {
	Limits   Limits
	Costs    FuelCosts
	HostCall HostCallFunc
}

func NewStore(limits Limits, costs FuelCosts, hostCall HostCallFunc) *Store {
	return &Store{Limits: limits, Costs: costs, HostCall: hostCall}
}

// NewFrame constructs a frame ready to run module's entry function under
// this store's limits.
func (st *Store) NewFrame(caller, target, owner evmtypes.Address, isStatic bool, fuel *FuelMeter, module *Module) *CallFrame {
	return NewCallFrame(caller, target, owner, isStatic, fuel, module, st.Limits)
}

// Run executes frame's instruction stream until it stops being Running:
// either it halts (trap or explicit return past the root), or a host call
// writes PendingInterruption/PendingResult. Run never re-enters itself;
// the one and only recursive construct in this package is the plain Go
// call stack used for the giant-switch step function below, which is
// bounded by Go's own stack, not by N_MAX_RECURSION_DEPTH — cross-frame
// recursion (CallInternal et al.) is handled by CallFrame.Calls, a
// flat data structure, precisely so that guest-controlled recursion depth
// is bounded independently of host stack depth.
func (st *Store) Run(frame *CallFrame) error {
	for frame.Status == StatusRunning {
		if err := st.step(frame); err != nil {
			if trap, ok := err.(TrapCode); ok {
				frame.Status = StatusHalted
				frame.ExitCode = ExitErr
				frame.ReturnData = nil
				_ = trap
				return nil
			}
			return err
		}
	}
	return nil
}

// step decodes and executes exactly one instruction, advancing frame.IP by
// the instruction's own width (almost always 1; BrAdjust/BrAdjustIfNez/
// Return/ReturnIfNez already carry their DropKeep inline rather than as a
// following word — see instruction.go — so every instruction here advances
// IP by exactly 1 unless it branches).
func (st *Store) step(frame *CallFrame) error {
	code := frame.Module.Code
	if frame.IP < 0 || frame.IP >= len(code) {
		frame.Status = StatusHalted
		frame.ExitCode = ExitOk
		return nil
	}
	ins := code[frame.IP]
	switch ins.Op {
	case OpUnreachable:
		return TrapUnreachableCodeReached

	case OpConsumeFuel:
		if frame.Fuel != nil && !frame.Fuel.RecordCost(ins.Imm) {
			frame.Status = StatusHalted
			frame.ExitCode = ExitOutOfFuel
			return nil
		}
		frame.IP++
		return nil

	case OpDrop:
		frame.Stack.Pop()
		frame.IP++
		return nil

	case OpSelect:
		// Pops cond (top), then val2, then val1, and keeps val1 when
		// cond != 0, val2 otherwise.
		vals := frame.Stack.PopN(3)
		cond, val1, val2 := vals[2], vals[0], vals[1]
		if cond.Bool() {
			return framePush(frame, val1)
		}
		return framePush(frame, val2)

	case OpLocalGet:
		return framePush(frame, frame.Stack.At(frame.LocalBase+int(ins.Index())))

	case OpLocalSet:
		v := frame.Stack.Pop()
		frame.Stack.SetAt(frame.LocalBase+int(ins.Index()), v)
		return stepNext(frame)

	case OpLocalTee:
		v := frame.Stack.Top()
		frame.Stack.SetAt(frame.LocalBase+int(ins.Index()), v)
		return stepNext(frame)

	case OpGlobalGet:
		if err := framePush(frame, frame.Globals[ins.Index()]); err != nil {
			return err
		}
		return nil

	case OpGlobalSet:
		frame.Globals[ins.Index()] = frame.Stack.Pop()
		frame.IP++
		return nil

	case OpI32Const, OpI64Const, OpF32Const, OpF64Const:
		if err := framePush(frame, ins.Const()); err != nil {
			return err
		}
		return nil

	case OpBr:
		frame.IP += int(ins.BranchOffset())
		return nil

	case OpBrIfEqz:
		cond := frame.Stack.Pop()
		if !cond.Bool() {
			frame.IP += int(ins.BranchOffset())
		} else {
			frame.IP++
		}
		return nil

	case OpBrIfNez:
		cond := frame.Stack.Pop()
		if cond.Bool() {
			frame.IP += int(ins.BranchOffset())
		} else {
			frame.IP++
		}
		return nil

	case OpBrAdjust:
		ins.DropKeep.Apply(frame.Stack)
		frame.IP += int(ins.BranchOffset())
		return nil

	case OpBrAdjustIfNez:
		cond := frame.Stack.Pop()
		if cond.Bool() {
			ins.DropKeep.Apply(frame.Stack)
			frame.IP += int(ins.BranchOffset())
		} else {
			frame.IP++
		}
		return nil

	case OpBrTable:
		idx := frame.Stack.Pop().U32()
		table := frame.Module.BranchTables[ins.Index()]
		frame.IP += int(table.Target(idx))
		return nil

	case OpReturn, OpReturnIfNez:
		if ins.Op == OpReturnIfNez {
			cond := frame.Stack.Pop()
			if !cond.Bool() {
				frame.IP++
				return nil
			}
		}
		ins.DropKeep.Apply(frame.Stack)
		return st.doReturn(frame)

	case OpCallInternal, OpReturnCallInternal:
		return st.callInternal(frame, ins, ins.Op == OpReturnCallInternal)

	case OpCall, OpReturnCall:
		if st.HostCall == nil {
			return TrapUnreachableCodeReached
		}
		if err := st.HostCall(frame, ins.Index()); err != nil {
			return err
		}
		if frame.Status != StatusRunning {
			return nil
		}
		frame.IP++
		return nil

	case OpCallIndirect, OpReturnCallIndirect:
		return st.callIndirect(frame, ins, ins.Op == OpReturnCallIndirect)

	case OpSignatureCheck:
		sig := frame.Module.Funcs[ins.Index()].Signature
		if sig != frame.LastSig {
			return TrapBadSignature
		}
		frame.IP++
		return nil

	case OpRefFunc:
		if err := framePush(frame, Value(ins.Index())); err != nil {
			return err
		}
		return nil
	}

	if arith, handled := st.stepArith(frame, ins); handled {
		return arith
	}
	if mem, handled := st.stepMemory(frame, ins); handled {
		return mem
	}
	return TrapUnreachableCodeReached
}

func stepNext(frame *CallFrame) error {
	frame.IP++
	return nil
}

func framePush(frame *CallFrame, v Value) error {
	if err := frame.Stack.Push(v); err != nil {
		return err
	}
	frame.IP++
	return nil
}

// doReturn pops the call stack and restores ip/localBase; on an empty call
// stack it halts the frame with exit code Ok, per spec.md §4.1 ("on an
// empty stack it yields exit code 0").
func (st *Store) doReturn(frame *CallFrame) error {
	returnIP, localBase, ok := frame.Calls.Pop()
	if !ok {
		frame.Status = StatusHalted
		frame.ExitCode = ExitOk
		frame.ReturnData = entryResults(frame)
		return nil
	}
	frame.IP = returnIP
	frame.LocalBase = localBase
	return nil
}

// entryResults serializes the entry function's result values (still on the
// stack at the moment the outermost call returns) into the byte buffer the
// embedder sees as this frame's return data — a guest has no dedicated
// "return bytes to caller" syscall, so the root function's own Wasm result
// values are what crosses the host boundary, one little-endian 8-byte word
// per declared result.
func entryResults(frame *CallFrame) []byte {
	n := frame.Module.Funcs[frame.Module.EntryFunc].Signature.Results
	if n == 0 {
		return nil
	}
	out := make([]byte, 0, n*8)
	for i := n - 1; i >= 0; i-- {
		var buf [8]byte
		putLE64(buf[:], uint64(frame.Stack.PeekAt(i)))
		out = append(out, buf[:]...)
	}
	return out
}

func (st *Store) callInternal(frame *CallFrame, ins Instruction, tail bool) error {
	callee := frame.Module.Funcs[ins.Index()]
	newBase := frame.Stack.Len() - callee.Signature.Params
	if !tail {
		if err := frame.Calls.Push(frame.IP+1, frame.LocalBase); err != nil {
			return err
		}
	}
	for i := 0; i < callee.NumLocals; i++ {
		if err := frame.Stack.Push(Value(0)); err != nil {
			return err
		}
	}
	frame.LocalBase = newBase
	frame.IP = callee.CodeOffset
	return nil
}

func (st *Store) callIndirect(frame *CallFrame, ins Instruction, tail bool) error {
	tableIdx := 0
	elemIdx := frame.Stack.Pop().U32()
	ref, err := frame.Tables[tableIdx].Get(elemIdx)
	if err != nil {
		return err
	}
	if ref == NullFuncRef {
		return TrapIndirectCallToNull
	}
	frame.LastSig = frame.Module.Funcs[ref].Signature
	return st.callInternal(frame, Instruction{Op: OpCallInternal, Imm: uint64(ref)}, tail)
}
