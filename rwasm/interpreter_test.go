package rwasm

import (
	"testing"

	"github.com/fluentlabs-xyz/fluentbase-core/evmtypes"
)

func runFunc(t *testing.T, module *Module) *CallFrame {
	t.Helper()
	store := NewStore(DefaultLimits(), DefaultFuelCosts(), nil)
	frame := store.NewFrame(evmtypes.Address{}, evmtypes.Address{}, evmtypes.Address{}, false, NewUnmeteredFuel(), module)
	if err := store.Run(frame); err != nil {
		t.Fatalf("Run returned an error (should only ever return nil): %v", err)
	}
	return frame
}

func TestInterpreterAddAndReturn(t *testing.T) {
	b := NewBuilder()
	b.SetMemory(1, 1)
	b.AddFunc(FuncType{Params: 0, Results: 1}, 0, Code{
		{Op: OpI64Const, Imm: 2},
		{Op: OpI64Const, Imm: 40},
		{Op: OpI64Add},
		{Op: OpReturn, DropKeep: DropKeep{Drop: 0, Keep: 1}},
	})
	module, err := b.Finish(0)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	frame := runFunc(t, module)
	if frame.Status != StatusHalted || !frame.ExitCode.IsOk() {
		t.Fatalf("status=%v exitCode=%q, want Halted/Ok", frame.Status, frame.ExitCode)
	}
	if got := entryResults(frame); len(got) != 8 {
		t.Fatalf("entryResults length = %d, want 8", len(got))
	}
}

func TestInterpreterBrIfEqzSkipsWhenTrue(t *testing.T) {
	// push 1 (true), br_if_eqz branches only when the condition is false,
	// so this should fall through to the "not skipped" const.
	b := NewBuilder()
	b.AddFunc(FuncType{Params: 0, Results: 1}, 0, Code{
		{Op: OpI64Const, Imm: 1},
		{Op: OpBrIfEqz, Imm: 2}, // would skip the next instruction if taken
		{Op: OpI64Const, Imm: 111},
		{Op: OpReturn, DropKeep: DropKeep{Drop: 0, Keep: 1}},
	})
	module, err := b.Finish(0)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	frame := runFunc(t, module)
	if !frame.ExitCode.IsOk() {
		t.Fatalf("exitCode = %q, want ok", frame.ExitCode)
	}
	if got := frame.Stack.Top().U64(); got != 111 {
		t.Errorf("top of stack = %d, want 111 (branch should not have been taken)", got)
	}
}

func TestInterpreterBrTableClampsOutOfRange(t *testing.T) {
	b := NewBuilder()
	tbl := b.AddBranchTable([]int32{10, 20, 30})
	b.AddFunc(FuncType{Params: 0, Results: 0}, 0, Code{
		{Op: OpI32Const, Imm: 99}, // far out of range index
		{Op: OpBrTable, Imm: uint64(tbl)},
	})
	module, err := b.Finish(0)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	// Table has no real function body at offset+30, so we only assert the
	// clamp picked the last target rather than panicking or trapping.
	store := NewStore(DefaultLimits(), DefaultFuelCosts(), nil)
	frame := store.NewFrame(evmtypes.Address{}, evmtypes.Address{}, evmtypes.Address{}, false, NewUnmeteredFuel(), module)
	if err := store.step(frame); err != nil {
		t.Fatalf("step: %v", err)
	}
	if err := store.step(frame); err != nil {
		t.Fatalf("step (br_table): %v", err)
	}
	// frame.IP was 1 (after the const step) when br_table ran; it should
	// have added Targets[2]=30, the last entry, since index 99 is out of
	// range and Target clamps rather than traps.
	if frame.IP != 31 {
		t.Errorf("IP after out-of-range br_table = %d, want 31 (clamped to last target)", frame.IP)
	}
}

func TestInterpreterCallInternal(t *testing.T) {
	b := NewBuilder()
	// callee: double its single argument.
	calleeCode := Code{
		{Op: OpLocalGet, Imm: 0},
		{Op: OpLocalGet, Imm: 0},
		{Op: OpI64Add},
		{Op: OpReturn, DropKeep: DropKeep{Drop: 1, Keep: 1}},
	}
	callee := b.AddFunc(FuncType{Params: 1, Results: 1}, 0, calleeCode)
	b.AddFunc(FuncType{Params: 0, Results: 1}, 0, Code{
		{Op: OpI64Const, Imm: 21},
		{Op: OpCallInternal, Imm: uint64(callee)},
		{Op: OpReturn, DropKeep: DropKeep{Drop: 0, Keep: 1}},
	})
	module, err := b.Finish(1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	frame := runFunc(t, module)
	if !frame.ExitCode.IsOk() {
		t.Fatalf("exitCode = %q, want ok", frame.ExitCode)
	}
	if got := frame.Stack.Top().U64(); got != 42 {
		t.Errorf("result = %d, want 42", got)
	}
}

func TestInterpreterConsumeFuelHaltsOutOfFuel(t *testing.T) {
	b := NewBuilder()
	b.AddFunc(FuncType{Params: 0, Results: 0}, 0, Code{
		{Op: OpConsumeFuel, Imm: 100},
	})
	module, err := b.Finish(0)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	store := NewStore(DefaultLimits(), DefaultFuelCosts(), nil)
	frame := store.NewFrame(evmtypes.Address{}, evmtypes.Address{}, evmtypes.Address{}, false, NewFuelMeter(10, DefaultFuelCosts()), module)
	if err := store.Run(frame); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if frame.Status != StatusHalted || frame.ExitCode != ExitOutOfFuel {
		t.Fatalf("status=%v exitCode=%q, want Halted/ExitOutOfFuel", frame.Status, frame.ExitCode)
	}
}

func TestInterpreterUnreachableTraps(t *testing.T) {
	b := NewBuilder()
	b.AddFunc(FuncType{Params: 0, Results: 0}, 0, Code{
		{Op: OpUnreachable},
	})
	module, err := b.Finish(0)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	frame := runFunc(t, module)
	if frame.Status != StatusHalted || frame.ExitCode != ExitErr {
		t.Fatalf("status=%v exitCode=%q, want Halted/ExitErr", frame.Status, frame.ExitCode)
	}
}

func TestInterpreterHostCallSynchronousResult(t *testing.T) {
	b := NewBuilder()
	b.SetMemory(1, 1)
	b.AddFunc(FuncType{Params: 0, Results: 1}, 0, Code{
		{Op: OpI64Const, Imm: 0}, // offset
		{Op: OpI64Const, Imm: 0}, // length
		{Op: OpI64Const, Imm: 0}, // outputOffset
		{Op: OpCall, Imm: 7},
		{Op: OpReturn, DropKeep: DropKeep{Drop: 0, Keep: 1}},
	})
	module, err := b.Finish(0)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	hostCall := func(frame *CallFrame, funcIndex uint32) error {
		frame.Stack.PopN(3) // discard offset/length/outputOffset
		if err := frame.Stack.Push(ValueFromU64(uint64(funcIndex))); err != nil {
			return err
		}
		return nil
	}
	store := NewStore(DefaultLimits(), DefaultFuelCosts(), hostCall)
	frame := store.NewFrame(evmtypes.Address{}, evmtypes.Address{}, evmtypes.Address{}, false, NewUnmeteredFuel(), module)
	if err := store.Run(frame); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !frame.ExitCode.IsOk() {
		t.Fatalf("exitCode = %q, want ok", frame.ExitCode)
	}
	if got := frame.Stack.Top().U64(); got != 7 {
		t.Errorf("result = %d, want 7", got)
	}
}

func TestInterpreterHostCallSuspendsOnPendingInterruption(t *testing.T) {
	b := NewBuilder()
	b.AddFunc(FuncType{Params: 0, Results: 0}, 0, Code{
		{Op: OpI64Const, Imm: 0},
		{Op: OpI64Const, Imm: 0},
		{Op: OpI64Const, Imm: 0},
		{Op: OpCall, Imm: 1},
	})
	module, err := b.Finish(0)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	hostCall := func(frame *CallFrame, funcIndex uint32) error {
		frame.Stack.PopN(3)
		frame.Status = StatusPendingInterruption
		frame.Interrupt = &PendingInterruption{Kind: CallKindCall}
		return nil
	}
	store := NewStore(DefaultLimits(), DefaultFuelCosts(), hostCall)
	frame := store.NewFrame(evmtypes.Address{}, evmtypes.Address{}, evmtypes.Address{}, false, NewUnmeteredFuel(), module)
	if err := store.Run(frame); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if frame.Status != StatusPendingInterruption {
		t.Fatalf("status = %v, want StatusPendingInterruption (Run must stop without advancing past the call)", frame.Status)
	}
	if frame.IP != 3 {
		t.Errorf("IP = %d, want 3 (unchanged: the driver advances it once the child retires)", frame.IP)
	}
}
