package rwasm

import "github.com/fluentlabs-xyz/fluentbase-core/evmtypes"

// FrameStatus is the frame-level state machine from spec.md §4.3.2. The
// interpreter loop steps only while Running and itself writes Halted (trap,
// out of fuel, return past the entry function, ip outside the code);
// PendingInterruption, PendingResult and Halted are also written by the
// syscall dispatcher (package syscall), and all three are consumed by the
// outer driver (package fluentbase).
type FrameStatus int

const (
	StatusRunning FrameStatus = iota
	StatusPendingInterruption
	StatusPendingResult
	StatusHalted
)

// PendingInterruption describes a suspended CALL/CREATE-family syscall:
// the child frame the driver must construct and run before the parent can
// resume. It is written by the syscall dispatcher and consumed exactly
// once by the driver, per spec.md §4.3.2.
type PendingInterruption struct {
	Kind        CallKind
	Target      evmtypes.Address
	Caller      evmtypes.Address
	Value       evmtypes.Value
	Input       []byte
	IsStatic    bool
	GasLimit    evmtypes.Gas
	OutputRange MemoryRange // not set by the dispatcher; the driver copies the child's return data to the output offset recorded at the host call
}

// CallKind distinguishes the four CALL-family syscalls plus CREATE/CREATE2,
// matching spec.md §4.3.1's operation table rows exactly.
type CallKind int

const (
	CallKindCall CallKind = iota
	CallKindStaticCall
	CallKindCallCode
	CallKindDelegateCall
	CallKindCreate
	CallKindCreate2
)

// MemoryRange is an [Offset, Offset+Length) region in a frame's linear
// memory, used both for syscall input ranges and for the output region a
// PendingResult gets copied into.
type MemoryRange struct {
	Offset uint64
	Length uint64
}

// PendingResult describes a syscall that completed synchronously and
// wrote a result the driver must copy back into guest memory before
// resuming the interpreter loop.
type PendingResult struct {
	Data        []byte
	OutputRange MemoryRange
}

// CallFrame is one invocation record: caller/target/owner addresses, the
// is-static flag (and its propagation to descendants, per spec.md §3's
// invariant "storage writes are forbidden whenever the current frame or
// any ancestor has is-static set"), the fuel meter, the value-stack base,
// and the optional interruption/result slot the dispatcher fills.
type CallFrame struct {
	Caller      evmtypes.Address
	Target      evmtypes.Address
	Owner       evmtypes.Address
	IsStatic    bool
	Fuel        *FuelMeter
	Stack       *Stack
	Calls       *CallStack
	Memory      *Memory
	Module      *Module
	Globals     []Value
	Tables      []*Table
	IP          int
	LocalBase   int
	Status      FrameStatus
	Interrupt   *PendingInterruption
	Result      *PendingResult
	ExitCode    ExitCode
	ReturnData  []byte
	LastSig     FuncType
}

// NewCallFrame constructs a frame ready to begin executing module's entry
// function. Globals and tables are deep-copied per instantiation, matching
// the "instance" concept in spec.md §3: the Module is the shared immutable
// code; globals/tables/memory are per-instance mutable state.
func NewCallFrame(caller, target, owner evmtypes.Address, isStatic bool, fuel *FuelMeter, module *Module, limits Limits) *CallFrame {
	tables := make([]*Table, 1)
	tables[0] = NewTable(module.TableSize, module.TableMax)
	globals := append([]Value(nil), module.Globals...)
	// data.drop/elem.drop mutate segments, so each frame gets its own copies.
	inst := *module
	inst.DataSegments = make([]*DataSegment, len(module.DataSegments))
	for i, seg := range module.DataSegments {
		c := *seg
		inst.DataSegments[i] = &c
	}
	inst.ElemSegments = make([]*ElementSegment, len(module.ElemSegments))
	for i, seg := range module.ElemSegments {
		c := *seg
		inst.ElemSegments[i] = &c
	}
	f := &CallFrame{
		Caller:   caller,
		Target:   target,
		Owner:    owner,
		IsStatic: isStatic,
		Fuel:     fuel,
		Stack:    NewStack(),
		Calls:    NewCallStack(limits.MaxRecursionDepth),
		Memory:   NewMemory(module.MemoryPages, module.MemoryMax),
		Module:   &inst,
		Globals:  globals,
		Tables:   tables,
		IP:       module.Funcs[module.EntryFunc].CodeOffset,
	}
	return f
}

// Release returns pooled resources (the value stack) back to their pools.
// Must be called exactly once, after the frame is fully retired.
func (f *CallFrame) Release() {
	if f.Stack != nil {
		ReturnStack(f.Stack)
		f.Stack = nil
	}
}
