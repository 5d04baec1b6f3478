package fluentbase

import (
	"github.com/fluentlabs-xyz/fluentbase-core/evmtypes"
	"github.com/fluentlabs-xyz/fluentbase-core/rwasm"
	"github.com/fluentlabs-xyz/fluentbase-core/syscall"
)

// hostCall is the rwasm.HostCallFunc the driver wires into its Store. A
// guest's call instruction pushes three operands before calling an
// imported function, in order (offset, length, outputOffset); funcIndex
// itself selects which SyscallID to dispatch, mirroring how the source's
// ABI collapses "which syscall" into the call target rather than an
// explicit leading argument.
func (d *Driver) hostCall(frame *rwasm.CallFrame, funcIndex uint32) error {
	entry, ok := d.byFrame[frame]
	if !ok {
		return rwasm.TrapUnreachableCodeReached
	}
	outputOffset := frame.Stack.Pop().U64()
	length := frame.Stack.Pop().U64()
	offset := frame.Stack.Pop().U64()

	params := syscall.SyscallParams{
		CallID:    entry.callID,
		ID:        syscall.SyscallID(funcIndex),
		Input:     syscall.MemoryRange{Offset: offset, Length: length},
		State:     syscall.StateMain,
		FuelLimit: evmtypes.Fuel(frame.Fuel.Remaining()),
	}
	if err := d.dispatcher.Dispatch(frame, entry.callID, params); err != nil {
		return err
	}

	switch frame.Status {
	case rwasm.StatusPendingResult:
		res := frame.Result
		frame.Result = nil
		if err := frame.Memory.Write(outputOffset, res.Data); err != nil {
			frame.Status = rwasm.StatusHalted
			frame.ExitCode = rwasm.ExitMemoryOutOfBounds
			return nil
		}
		if err := frame.Stack.Push(rwasm.ValueFromU64(uint64(len(res.Data)))); err != nil {
			return err
		}
		frame.Status = rwasm.StatusRunning

	case rwasm.StatusPendingInterruption:
		// The driver's outer loop reads entry.outputOffset once the child
		// this interruption spawns eventually retires.
		entry.outputOffset = outputOffset

	case rwasm.StatusHalted:
		// Dispatch already set ExitCode (malformed params, static-call
		// violation, out of fuel, ...); nothing left to do here.
	}
	return nil
}
