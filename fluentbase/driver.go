// Package fluentbase is the outer driver: the one piece of this module
// that deliberately does NOT mirror the teacher's recursive RunContext.Call
// shape. Spec.md §9 requires that a CALL/CREATE-family syscall suspend the
// current frame and hand control back to an explicit frame stack here,
// rather than have the syscall dispatcher call back into Store.Run — this
// package owns that frame stack and the resume-on-child-completion loop.
package fluentbase

import (
	"github.com/fluentlabs-xyz/fluentbase-core/evmtypes"
	"github.com/fluentlabs-xyz/fluentbase-core/journal"
	"github.com/fluentlabs-xyz/fluentbase-core/rwasm"
	"github.com/fluentlabs-xyz/fluentbase-core/syscall"
)

// Params is one top-level or nested invocation's request, the same shape
// spec.md §4.3.1's CALL-family rows decode out of their syscall input —
// mirrored here as the driver's own public entry-point parameters.
type Params struct {
	Caller   evmtypes.Address
	Target   evmtypes.Address
	Value    evmtypes.Value
	Input    []byte
	IsStatic bool
	GasLimit evmtypes.Gas
}

// Result is what Driver.Run returns: the frame's exit taxonomy, its output
// bytes, and the gas left over (for the embedder's gas-refund bookkeeping).
type Result struct {
	ExitCode rwasm.ExitCode
	Output   []byte
	GasLeft  evmtypes.Gas
}

type frameEntry struct {
	frame        *rwasm.CallFrame
	callID       uint32
	checkpoint   journal.CheckpointID
	outputOffset uint64
	kind         rwasm.CallKind // the interruption kind that spawned this frame; meaningless for the root frame
}

// Driver owns the explicit frame stack, the module resolver, and the
// rwasm.Store/syscall.Dispatcher pairing that together implement spec.md
// §4.3.2's suspend/resume state machine without ever letting a host call
// re-enter Store.Run.
type Driver struct {
	Journal   journal.Journal
	Resolver  ModuleResolver
	Schedule  syscall.Schedule
	Limits    rwasm.Limits
	FuelCosts rwasm.FuelCosts
	Inspector syscall.Inspector

	store      *rwasm.Store
	dispatcher *syscall.Dispatcher
	byFrame    map[*rwasm.CallFrame]*frameEntry
	nextCallID uint32
}

func NewDriver(j journal.Journal, resolver ModuleResolver, schedule syscall.Schedule, limits rwasm.Limits, costs rwasm.FuelCosts, inspector syscall.Inspector) *Driver {
	d := &Driver{
		Journal:   j,
		Resolver:  resolver,
		Schedule:  schedule,
		Limits:    limits,
		FuelCosts: costs,
		Inspector: inspector,
		byFrame:   make(map[*rwasm.CallFrame]*frameEntry),
	}
	d.dispatcher = syscall.NewDispatcher(j, schedule, d, inspector)
	d.store = rwasm.NewStore(limits, costs, d.hostCall)
	return d
}

// MemoryRead implements syscall.MemoryReader by routing a call_id back to
// the frame that owns it — the same lookup the dispatcher itself uses to
// resolve where a syscall's variable-length tail actually lives.
func (d *Driver) MemoryRead(callID uint32, offset uint64, buf []byte) error {
	for _, entry := range d.byFrame {
		if entry.callID == callID {
			return entry.frame.Memory.ReadAt(offset, buf)
		}
	}
	return syscall.MemoryOutOfBounds
}

// Run drives params through to completion: it resolves and instantiates
// the root module, then loops the explicit frame stack until the root
// frame halts, spawning and retiring child frames for every
// PendingInterruption along the way.
func (d *Driver) Run(code journal.CodeRepresentation, params Params) (Result, error) {
	module, err := d.Resolver.Resolve(code)
	if err != nil {
		return Result{}, err
	}
	root, err := d.spawnFrame(params.Caller, params.Target, params.Target, params.IsStatic, params.GasLimit, module, rwasm.CallKindCall)
	if err != nil {
		return Result{}, err
	}
	if params.Value != (evmtypes.Value{}) {
		if err := d.Journal.Transfer(params.Caller, params.Target, params.Value); err != nil {
			d.Journal.RevertToCheckpoint(root.checkpoint)
			d.retire(root)
			return Result{ExitCode: rwasm.ExitErr}, nil
		}
	}
	d.seedInput(root.frame, params.Input)

	stack := []*frameEntry{root}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if err := d.store.Run(top.frame); err != nil {
			return Result{}, err
		}
		switch top.frame.Status {
		case rwasm.StatusHalted:
			if top.frame.ExitCode.IsOk() {
				d.Journal.CommitCheckpoint(top.checkpoint)
			} else {
				d.Journal.RevertToCheckpoint(top.checkpoint)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				result := Result{
					ExitCode: top.frame.ExitCode,
					Output:   top.frame.ReturnData,
					GasLeft:  evmtypes.Gas(top.frame.Fuel.Remaining()),
				}
				d.retire(top)
				return result, nil
			}
			parent := stack[len(stack)-1]
			d.resumeAfterChild(parent, top)
			d.retire(top)

		case rwasm.StatusPendingInterruption:
			child, err := d.spawnChild(top)
			if err != nil {
				top.frame.Status = rwasm.StatusHalted
				top.frame.ExitCode = rwasm.ExitErr
				continue
			}
			stack = append(stack, child)

		case rwasm.StatusPendingResult:
			// Synchronous syscalls are fully resolved inside hostCall before
			// it returns — Run never stops on PendingResult, only
			// PendingInterruption or Halted. Reaching this case would be a
			// hostCall bug, not a guest-triggerable condition.
			return Result{}, evmtypes.ConstError("fluentbase: unexpected pending result at driver boundary")
		}
	}
	return Result{}, nil
}

func (d *Driver) spawnFrame(caller, target, owner evmtypes.Address, isStatic bool, gasLimit evmtypes.Gas, module *rwasm.Module, kind rwasm.CallKind) (*frameEntry, error) {
	fuel := rwasm.NewFuelMeter(uint64(gasLimit), d.FuelCosts)
	frame := d.store.NewFrame(caller, target, owner, isStatic, fuel, module)
	entry := &frameEntry{frame: frame, callID: d.nextCallID, checkpoint: d.Journal.Checkpoint(), kind: kind}
	d.nextCallID++
	d.byFrame[frame] = entry
	return entry, nil
}

// seedInput copies the call's input bytes into the fresh frame's linear
// memory at offset 0 — the conventional location a guest's entry function
// reads its arguments from, matching how CREATE's init code and a CALL's
// calldata both arrive as a flat byte buffer rather than typed Wasm
// parameters (spec.md §6.1).
func (d *Driver) seedInput(frame *rwasm.CallFrame, input []byte) {
	if len(input) == 0 {
		return
	}
	if frame.Memory.Size() < len(input) {
		frame.Memory.Grow(uint32((len(input)-frame.Memory.Size()+rwasm.PageSize-1)/rwasm.PageSize), nil)
	}
	_ = frame.Memory.Write(0, input)
}

func (d *Driver) retire(entry *frameEntry) {
	delete(d.byFrame, entry.frame)
	entry.frame.Release()
}

// spawnChild constructs and begins a frame for parent's PendingInterruption,
// performing the journal-level effects (value transfer, CREATE collision
// already having been ruled out by the dispatcher) that the dispatcher
// deliberately left to the frame's owner.
func (d *Driver) spawnChild(parent *frameEntry) (*frameEntry, error) {
	interrupt := parent.frame.Interrupt
	parent.frame.Interrupt = nil

	var code journal.CodeRepresentation
	switch interrupt.Kind {
	case rwasm.CallKindCreate, rwasm.CallKindCreate2:
		code = journal.RwasmModule{Bytes: interrupt.Input}
	default:
		load, err := d.Journal.LoadAccountInfoSkipColdLoad(interrupt.Target, true, false)
		if err != nil {
			return nil, err
		}
		code = load.Value.Code
	}

	var module *rwasm.Module
	var err error
	if interrupt.Kind == rwasm.CallKindCreate || interrupt.Kind == rwasm.CallKindCreate2 {
		if registry, ok := d.Resolver.(interface {
			ResolveInitCode([]byte) (*rwasm.Module, error)
		}); ok {
			module, err = registry.ResolveInitCode(interrupt.Input)
		} else {
			module, err = d.Resolver.Resolve(code)
		}
	} else {
		module, err = d.Resolver.Resolve(code)
	}
	if err != nil {
		return nil, err
	}

	child, err := d.spawnFrame(interrupt.Caller, interrupt.Target, interrupt.Target, interrupt.IsStatic, interrupt.GasLimit, module, interrupt.Kind)
	if err != nil {
		return nil, err
	}
	if interrupt.Value != (evmtypes.Value{}) {
		if err := d.Journal.Transfer(interrupt.Caller, interrupt.Target, interrupt.Value); err != nil {
			// The main loop reverts child.checkpoint when it sees the halt.
			child.frame.Status = rwasm.StatusHalted
			child.frame.ExitCode = rwasm.ExitErr
			return child, nil
		}
	}
	d.seedInput(child.frame, interrupt.Input)
	return child, nil
}

// resumeAfterChild writes the retiring child's result into parent's memory
// at the output offset hostCall recorded before suspending, pushes the
// result length back onto parent's operand stack, advances parent past the
// instruction that triggered the call, and marks it Running again — the
// manual tail-completion that a synchronous host call would otherwise have
// done itself, performed here because only the driver observes when a
// suspended child actually finishes.
func (d *Driver) resumeAfterChild(parent, child *frameEntry) {
	var out []byte
	switch child.kind {
	case rwasm.CallKindCreate, rwasm.CallKindCreate2:
		if child.frame.ExitCode.IsOk() {
			d.Journal.SetCode(child.frame.Target, journal.RwasmModule{Bytes: child.frame.ReturnData})
			out = append([]byte{}, child.frame.Target[:]...)
		} else {
			out = make([]byte, 20)
		}
	default:
		out = child.frame.ReturnData
	}

	writeLen := uint64(len(out))
	avail := uint64(parent.frame.Memory.Size())
	if parent.outputOffset > avail {
		writeLen = 0
	} else if parent.outputOffset+writeLen > avail {
		writeLen = avail - parent.outputOffset
	}
	if writeLen > 0 {
		_ = parent.frame.Memory.Write(parent.outputOffset, out[:writeLen])
	}
	_ = parent.frame.Stack.Push(rwasm.ValueFromU64(uint64(len(out))))
	parent.frame.IP++
	parent.frame.Status = rwasm.StatusRunning
}
