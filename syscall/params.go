package syscall

import "github.com/fluentlabs-xyz/fluentbase-core/evmtypes"

// SyscallID selects the dispatcher operation, standing in for the source's
// `code_hash` (there, a hash of the syscall's exported name; here, a
// small dense enum — the dispatch-by-identity behavior is what matters,
// not the specific identifier encoding, which is an ABI-layer concern
// explicitly out of scope per spec.md §1).
type SyscallID uint32

const (
	SyscallStorageRead SyscallID = iota
	SyscallStorageWrite
	SyscallTransientRead
	SyscallTransientWrite
	SyscallCall
	SyscallStaticCall
	SyscallCallCode
	SyscallDelegateCall
	SyscallCreate
	SyscallCreate2
	SyscallEmitLog
	SyscallDestroyAccount
	SyscallBalance
	SyscallSelfBalance
	SyscallCodeSize
	SyscallCodeHash
	SyscallCodeCopy
	SyscallMetadataSize
	SyscallMetadataRead
	SyscallMetadataCopy
	SyscallMetadataCreate
	SyscallMetadataWrite
	SyscallBlockHash
)

// ExecState mirrors the source's STATE_MAIN guard: every dispatcher arm
// must validate that the call arrived in the expected execution state
// before doing anything else (spec.md §4.3 step 1).
type ExecState int

const StateMain ExecState = 0

// SyscallParams is the triple the interpreter's host-call bridge hands to
// the dispatcher for every syscall (spec.md §6.1).
type SyscallParams struct {
	CallID   uint32
	ID       SyscallID
	Input    MemoryRange
	State    ExecState
	FuelLimit evmtypes.Fuel
}

// MemoryRange is a [Offset, Length) region of a frame's linear memory, the
// same shape used by rwasm.PendingInterruption.OutputRange — duplicated
// here rather than imported to keep package syscall from creating a
// circular concern with package rwasm's own internal bookkeeping type;
// the two are structurally identical and converted at the boundary.
type MemoryRange struct {
	Offset uint64
	Length uint64
}

// MemoryOutOfBounds is the dispatcher-level *recoverable* equivalent of
// rwasm.TrapMemoryOutOfBounds: spec.md §4.3 step 2 is explicit that an
// out-of-bounds read during syscall-parameter extraction must be
// returned, not halted as a trap, because it is a guest programming
// error distinguishable from a protocol error.
var MemoryOutOfBounds = evmtypes.ConstError("syscall: memory access out of bounds")

// MalformedBuiltinParams is returned when the input length does not match
// what the operation expects (spec.md §4.3 step 1).
var MalformedBuiltinParams = evmtypes.ConstError("syscall: malformed builtin params")

// MemoryReader resolves a call_id to the correct frame's linear memory for
// syscall-input extraction, per spec.md §6.3. Implementations must not
// retain buf or any derived reference past the call — the next child
// frame may replace the underlying pages (spec.md §5).
type MemoryReader interface {
	MemoryRead(callID uint32, offset uint64, buf []byte) error
}

// lazyTailReader captures a variable-length tail's [offset, length) but
// defers the actual memory copy until Materialize is called, which the
// dispatcher invokes only after all gas for the operation has been
// charged (spec.md §4.3 step 3) — this prevents a malicious guest from
// forcing an expensive allocation before paying for it.
type lazyTailReader struct {
	reader MemoryReader
	callID uint32
	offset uint64
	length uint64
}

func newLazyTailReader(reader MemoryReader, callID uint32, offset, length uint64) *lazyTailReader {
	return &lazyTailReader{reader: reader, callID: callID, offset: offset, length: length}
}

func (l *lazyTailReader) Len() uint64 { return l.length }

func (l *lazyTailReader) Materialize() ([]byte, error) {
	if l.length == 0 {
		return nil, nil
	}
	buf := make([]byte, l.length)
	if err := l.reader.MemoryRead(l.callID, l.offset, buf); err != nil {
		return nil, MemoryOutOfBounds
	}
	return buf, nil
}

func readFixed(reader MemoryReader, callID uint32, offset uint64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := reader.MemoryRead(callID, offset, buf); err != nil {
		return nil, MemoryOutOfBounds
	}
	return buf, nil
}

func le64(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func leWord(b []byte) evmtypes.Word {
	var w evmtypes.Word
	// Syscall inputs are little-endian (spec.md §6.1); Word/Value are
	// stored big-endian-first byte arrays matching EVM's own big-endian
	// 256-bit word convention, so a slot/value argument is byte-reversed
	// on the way in.
	for i := 0; i < 32 && i < len(b); i++ {
		w[31-i] = b[i]
	}
	return w
}

func addressFromBytes(b []byte) evmtypes.Address {
	var a evmtypes.Address
	copy(a[:], b)
	return a
}
