package syscall

import (
	"github.com/holiman/uint256"

	"github.com/fluentlabs-xyz/fluentbase-core/evmtypes"
	"github.com/fluentlabs-xyz/fluentbase-core/journal"
	"github.com/fluentlabs-xyz/fluentbase-core/rwasm"
)

// FuelDenomRate is the fixed divisor spec.md §6.1 names for converting
// gas (EVM-denominated) to fuel (the rwasm interpreter's own unit). Unlike
// Schedule, this is a true constant — spec.md only asks that the *cost
// schedule* be configurable, not the gas/fuel unit conversion itself.
const FuelDenomRate evmtypes.Fuel = 1

// Dispatcher is the syscall boundary: it decodes a SyscallParams into a
// typed request, charges gas against the frame's fuel meter, mutates the
// journal, and leaves the frame PendingResult (synchronous result),
// PendingInterruption (child frame needed) or Halted (trap/error). Gas
// formulas follow standard EVM accounting per opcode family.
type Dispatcher struct {
	Journal   journal.Journal
	Schedule  Schedule
	Reader    MemoryReader
	Inspector Inspector
}

func NewDispatcher(j journal.Journal, schedule Schedule, reader MemoryReader, inspector Inspector) *Dispatcher {
	return &Dispatcher{Journal: j, Schedule: schedule, Reader: reader, Inspector: inspector}
}

// Dispatch is the host-call bridge's entry point into the dispatcher —
// exactly one rwasm.HostCallFunc wired in by the embedder.
func (d *Dispatcher) Dispatch(frame *rwasm.CallFrame, callID uint32, params SyscallParams) error {
	if params.State != StateMain {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	switch params.ID {
	case SyscallStorageRead:
		return d.storageRead(frame, callID, params)
	case SyscallStorageWrite:
		return d.storageWrite(frame, callID, params)
	case SyscallTransientRead:
		return d.transientRead(frame, callID, params)
	case SyscallTransientWrite:
		return d.transientWrite(frame, callID, params)
	case SyscallCall, SyscallStaticCall, SyscallCallCode, SyscallDelegateCall:
		return d.dispatchCall(frame, callID, params)
	case SyscallCreate, SyscallCreate2:
		return d.dispatchCreate(frame, callID, params)
	case SyscallEmitLog:
		return d.emitLog(frame, callID, params)
	case SyscallDestroyAccount:
		return d.destroyAccount(frame, callID, params)
	case SyscallBalance, SyscallSelfBalance:
		return d.balance(frame, callID, params)
	case SyscallCodeSize, SyscallCodeHash:
		return d.codeSizeOrHash(frame, callID, params)
	case SyscallCodeCopy:
		return d.codeCopy(frame, callID, params)
	case SyscallMetadataSize, SyscallMetadataRead, SyscallMetadataCopy:
		return d.metadataRead(frame, callID, params)
	case SyscallMetadataCreate:
		return d.metadataCreate(frame, callID, params)
	case SyscallMetadataWrite:
		return d.metadataWrite(frame, callID, params)
	case SyscallBlockHash:
		return d.blockHash(frame, callID, params)
	}
	return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
}

func (d *Dispatcher) halt(frame *rwasm.CallFrame, code rwasm.ExitCode) error {
	frame.Status = rwasm.StatusHalted
	frame.ExitCode = code
	return nil
}

func (d *Dispatcher) result(frame *rwasm.CallFrame, data []byte, outputRange MemoryRange) error {
	frame.Status = rwasm.StatusPendingResult
	frame.Result = &rwasm.PendingResult{Data: data, OutputRange: rwasm.MemoryRange{Offset: outputRange.Offset, Length: outputRange.Length}}
	return nil
}

func (d *Dispatcher) charge(frame *rwasm.CallFrame, gas evmtypes.Gas) bool {
	if frame.Fuel == nil {
		return true
	}
	return frame.Fuel.RecordCost(uint64(gas) * uint64(FuelDenomRate))
}

// --- STORAGE_READ / STORAGE_WRITE ---

func (d *Dispatcher) storageRead(frame *rwasm.CallFrame, callID uint32, params SyscallParams) error {
	if params.Input.Length < 32 {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	raw, err := readFixed(d.Reader, callID, params.Input.Offset, 32)
	if err != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	slot := leWord(raw)

	skipCold := frame.Fuel != nil && evmtypes.Fuel(frame.Fuel.Remaining()) < evmtypes.Fuel(d.Schedule.ColdAccountAccessCost)*FuelDenomRate
	load, jerr := d.Journal.SLoadSkipColdLoad(frame.Target, slot, skipCold)
	if jerr == journal.ColdLoadSkipped {
		return d.halt(frame, rwasm.ExitOutOfFuel)
	}
	if jerr != nil {
		return jerr
	}
	cost := d.Schedule.WarmStorageReadCost
	if load.IsCold {
		cost = d.Schedule.ColdSloadCost
	}
	if !d.charge(frame, cost) {
		return d.halt(frame, rwasm.ExitOutOfFuel)
	}
	notify(d.Inspector, OpcodeSLOAD, []uint256.Int{*uint256.NewInt(0).SetBytes(slot[:])}, nil)
	return d.result(frame, wordBytes(load.Value), MemoryRange{})
}

func (d *Dispatcher) storageWrite(frame *rwasm.CallFrame, callID uint32, params SyscallParams) error {
	if frame.IsStatic {
		return d.halt(frame, rwasm.ExitStateChangeDuringStaticCall)
	}
	if params.Input.Length < 64 {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	raw, err := readFixed(d.Reader, callID, params.Input.Offset, 64)
	if err != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	slot := leWord(raw[:32])
	value := leWord(raw[32:64])

	skipCold := frame.Fuel != nil && evmtypes.Fuel(frame.Fuel.Remaining()) < evmtypes.Fuel(d.Schedule.ColdAccountAccessCost)*FuelDenomRate
	res, jerr := d.Journal.SStoreSkipColdLoad(frame.Target, slot, value, skipCold)
	if jerr == journal.ColdLoadSkipped {
		return d.halt(frame, rwasm.ExitOutOfFuel)
	}
	if jerr != nil {
		return jerr
	}
	cost, _ := d.Schedule.SStoreCost(res.Value.OriginalValue, res.Value.CurrentValue, res.Value.NewValue)
	if res.IsCold {
		cost += d.Schedule.ColdSloadCost
	}
	if !d.charge(frame, cost) {
		return d.halt(frame, rwasm.ExitOutOfFuel)
	}
	notify(d.Inspector, OpcodeSSTORE, []uint256.Int{*uint256.NewInt(0).SetBytes(slot[:]), *uint256.NewInt(0).SetBytes(value[:])}, nil)
	return d.result(frame, nil, MemoryRange{})
}

// --- TRANSIENT_READ / TRANSIENT_WRITE ---
// Transient storage is visible across frames within a transaction but
// never persisted past it (spec.md §8's round-trip law) — MemoryJournal
// simply never flushes j.transient anywhere.

func (d *Dispatcher) transientRead(frame *rwasm.CallFrame, callID uint32, params SyscallParams) error {
	if params.Input.Length < 32 {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	raw, err := readFixed(d.Reader, callID, params.Input.Offset, 32)
	if err != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	slot := leWord(raw)
	if !d.charge(frame, d.Schedule.WarmStorageReadCost) {
		return d.halt(frame, rwasm.ExitOutOfFuel)
	}
	value := d.Journal.TLoad(frame.Target, slot)
	notify(d.Inspector, OpcodeTLOAD, []uint256.Int{*uint256.NewInt(0).SetBytes(slot[:])}, nil)
	return d.result(frame, wordBytes(value), MemoryRange{})
}

func (d *Dispatcher) transientWrite(frame *rwasm.CallFrame, callID uint32, params SyscallParams) error {
	if frame.IsStatic {
		return d.halt(frame, rwasm.ExitStateChangeDuringStaticCall)
	}
	if params.Input.Length < 64 {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	raw, err := readFixed(d.Reader, callID, params.Input.Offset, 64)
	if err != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	slot := leWord(raw[:32])
	value := leWord(raw[32:64])
	if !d.charge(frame, d.Schedule.WarmStorageReadCost) {
		return d.halt(frame, rwasm.ExitOutOfFuel)
	}
	d.Journal.TStore(frame.Target, slot, value)
	notify(d.Inspector, OpcodeTSTORE, []uint256.Int{*uint256.NewInt(0).SetBytes(slot[:]), *uint256.NewInt(0).SetBytes(value[:])}, nil)
	return d.result(frame, nil, MemoryRange{})
}

// --- CALL family ---

func (d *Dispatcher) dispatchCall(frame *rwasm.CallFrame, callID uint32, params SyscallParams) error {
	kind, minLen := callShape(params.ID)
	if params.Input.Length < uint64(minLen) {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	prefix, err := readFixed(d.Reader, callID, params.Input.Offset, minLen)
	if err != nil {
		return d.result(frame, nil, MemoryRange{})
	}

	var target evmtypes.Address
	var value evmtypes.Value
	dataOffset := params.Input.Offset
	switch params.ID {
	case SyscallCall, SyscallCallCode:
		target = addressFromBytes(prefix[:20])
		value = evmtypes.Value(leWord(prefix[20:52]))
		dataOffset += 52
	case SyscallStaticCall, SyscallDelegateCall:
		target = addressFromBytes(prefix[:20])
		dataOffset += 20
	}
	transfersValue := value != (evmtypes.Value{})
	if params.ID == SyscallStaticCall && transfersValue {
		return d.halt(frame, rwasm.ExitStateChangeDuringStaticCall)
	}
	if frame.IsStatic && transfersValue {
		return d.halt(frame, rwasm.ExitStateChangeDuringStaticCall)
	}

	info, jerr := d.Journal.LoadAccountInfoSkipColdLoad(target, false, false)
	if jerr != nil {
		return jerr
	}
	callCost := d.Schedule.CallGas(evmtypes.Gas(frame.Fuel.Remaining()/uint64(FuelDenomRate)), evmtypes.Gas(params.FuelLimit), transfersValue)
	accessCost := d.Schedule.AccountAccessCost(info.IsCold)
	if transfersValue {
		accessCost += d.Schedule.CallValueCost
		if info.Value.IsEmpty || isSystemPrecompile(target) {
			accessCost += d.Schedule.CallNewAccount
		}
	}
	if !d.charge(frame, accessCost) {
		return d.halt(frame, rwasm.ExitOutOfFuel)
	}

	tail := newLazyTailReader(d.Reader, callID, dataOffset, params.Input.Length-uint64(minLen))
	input, terr := tail.Materialize()
	if terr != nil {
		return d.result(frame, nil, MemoryRange{})
	}

	opcode := map[SyscallID]EVMOpcode{
		SyscallCall: OpcodeCALL, SyscallStaticCall: OpcodeSTATICCALL,
		SyscallCallCode: OpcodeCALLCODE, SyscallDelegateCall: OpcodeDELEGATECALL,
	}[params.ID]
	notify(d.Inspector, opcode, nil, nil)

	caller := frame.Target
	isStatic := frame.IsStatic || params.ID == SyscallStaticCall
	callTarget := target
	if params.ID == SyscallCallCode || params.ID == SyscallDelegateCall {
		callTarget = frame.Target
	}
	if params.ID == SyscallDelegateCall {
		caller = frame.Caller
	}

	frame.Status = rwasm.StatusPendingInterruption
	frame.Interrupt = &rwasm.PendingInterruption{
		Kind:     kind,
		Target:   callTarget,
		Caller:   caller,
		Value:    value,
		Input:    input,
		IsStatic: isStatic,
		GasLimit: evmtypes.Gas(callCost),
	}
	return nil
}

func callShape(id SyscallID) (kind rwasm.CallKind, minPrefixLen int) {
	switch id {
	case SyscallCall:
		return rwasm.CallKindCall, 52
	case SyscallStaticCall:
		return rwasm.CallKindStaticCall, 20
	case SyscallCallCode:
		return rwasm.CallKindCallCode, 52
	case SyscallDelegateCall:
		return rwasm.CallKindDelegateCall, 20
	}
	return rwasm.CallKindCall, 0
}

// --- CREATE / CREATE2 ---

func (d *Dispatcher) dispatchCreate(frame *rwasm.CallFrame, callID uint32, params SyscallParams) error {
	if frame.IsStatic {
		return d.halt(frame, rwasm.ExitStateChangeDuringStaticCall)
	}
	prefixLen := 32
	isCreate2 := params.ID == SyscallCreate2
	if isCreate2 {
		prefixLen = 64
	}
	if params.Input.Length < uint64(prefixLen) {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	prefix, err := readFixed(d.Reader, callID, params.Input.Offset, prefixLen)
	if err != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	value := evmtypes.Value(leWord(prefix[:32]))
	var salt evmtypes.Word
	if isCreate2 {
		salt = leWord(prefix[32:64])
	}

	initcodeLen := params.Input.Length - uint64(prefixLen)
	if !d.charge(frame, d.Schedule.CreateCost(initcodeLen)) {
		return d.halt(frame, rwasm.ExitOutOfFuel)
	}

	tail := newLazyTailReader(d.Reader, callID, params.Input.Offset+uint64(prefixLen), initcodeLen)
	initcode, terr := tail.Materialize()
	if terr != nil {
		return d.result(frame, nil, MemoryRange{})
	}

	targetAddr := deriveCreateAddress(frame.Target, salt, initcode, isCreate2)
	// CREATE collision check ignores balance (spec.md §4.3.1): only a
	// non-zero code hash or nonce counts as a collision, preserving
	// Ethereum CREATE2 semantics even when the target already holds
	// balance from a prior transfer.
	existing, jerr := d.Journal.LoadAccountInfoSkipColdLoad(targetAddr, true, false)
	if jerr != nil {
		return jerr
	}
	if existing.Value.Nonce != 0 || hasCode(existing.Value.Code) {
		return d.halt(frame, rwasm.ExitCreateContractCollision)
	}

	opcode := OpcodeCREATE
	if isCreate2 {
		opcode = OpcodeCREATE2
	}
	notify(d.Inspector, opcode, nil, nil)

	kind := rwasm.CallKindCreate
	if isCreate2 {
		kind = rwasm.CallKindCreate2
	}
	frame.Status = rwasm.StatusPendingInterruption
	frame.Interrupt = &rwasm.PendingInterruption{
		Kind:     kind,
		Target:   targetAddr,
		Caller:   frame.Target,
		Value:    value,
		Input:    initcode,
		IsStatic: false,
	}
	return nil
}

func hasCode(repr journal.CodeRepresentation) bool {
	switch c := repr.(type) {
	case journal.RawEVM:
		return len(c.Bytes) > 0
	case journal.RwasmModule:
		return len(c.Bytes) > 0
	case journal.OwnableAccount:
		return len(c.Metadata) > 0
	}
	return false
}

func deriveCreateAddress(sender evmtypes.Address, salt evmtypes.Word, initcode []byte, isCreate2 bool) evmtypes.Address {
	h := rwasm.Keccak256(initcode)
	var buf []byte
	if isCreate2 {
		buf = append(buf, 0xff)
		buf = append(buf, sender[:]...)
		buf = append(buf, salt[:]...)
		buf = append(buf, h[:]...)
	} else {
		buf = append(buf, sender[:]...)
	}
	full := rwasm.Keccak256(buf)
	var addr evmtypes.Address
	copy(addr[:], full[12:])
	return addr
}

// --- EMIT_LOG ---

func (d *Dispatcher) emitLog(frame *rwasm.CallFrame, callID uint32, params SyscallParams) error {
	if frame.IsStatic {
		return d.halt(frame, rwasm.ExitStateChangeDuringStaticCall)
	}
	if params.Input.Length < 1 {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	nBuf, err := readFixed(d.Reader, callID, params.Input.Offset, 1)
	if err != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	n := int(nBuf[0])
	topicsLen := uint64(n) * 32
	if params.Input.Length < 1+topicsLen {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	topicBytes, terr := readFixed(d.Reader, callID, params.Input.Offset+1, int(topicsLen))
	if terr != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	dataLen := params.Input.Length - 1 - topicsLen
	if !d.charge(frame, d.Schedule.LogCost(n, dataLen)) {
		return d.halt(frame, rwasm.ExitOutOfFuel)
	}
	tail := newLazyTailReader(d.Reader, callID, params.Input.Offset+1+topicsLen, dataLen)
	data, derr := tail.Materialize()
	if derr != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	topics := make([]evmtypes.Hash, n)
	for i := 0; i < n; i++ {
		copy(topics[i][:], topicBytes[i*32:(i+1)*32])
	}
	d.Journal.Log(journal.Log{Address: frame.Target, Topics: topics, Data: data})
	notify(d.Inspector, OpcodeLOG0, nil, nil)
	return d.result(frame, nil, MemoryRange{})
}

// --- DESTROY_ACCOUNT ---

func (d *Dispatcher) destroyAccount(frame *rwasm.CallFrame, callID uint32, params SyscallParams) error {
	if frame.IsStatic {
		return d.halt(frame, rwasm.ExitStateChangeDuringStaticCall)
	}
	if params.Input.Length < 20 {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	raw, err := readFixed(d.Reader, callID, params.Input.Offset, 20)
	if err != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	beneficiary := addressFromBytes(raw)

	skipCold := frame.Fuel != nil && evmtypes.Fuel(frame.Fuel.Remaining()) < evmtypes.Fuel(d.Schedule.ColdAccountAccessCost)*FuelDenomRate
	res, jerr := d.Journal.SelfDestruct(frame.Target, beneficiary, skipCold)
	if jerr == journal.ColdLoadSkipped {
		return d.halt(frame, rwasm.ExitOutOfFuel)
	}
	if jerr != nil {
		return jerr
	}
	targetExists := res.Value.TargetExisted
	if isSystemPrecompile(beneficiary) {
		// A system precompile beneficiary is charged as an existing
		// account, so the new-account premium is never charged
		// (spec.md §8 scenario 4).
		targetExists = true
	}
	cost := d.Schedule.SelfDestructCost(targetExists, res.IsCold)
	if !d.charge(frame, cost) {
		return d.halt(frame, rwasm.ExitOutOfFuel)
	}
	notify(d.Inspector, OpcodeSELFDESTRUCT, nil, nil)
	return d.result(frame, nil, MemoryRange{})
}

// isSystemPrecompile reports whether addr is reserved for a runtime
// precompile (the low 9 single-byte addresses mirror the EVM's own
// reserved precompile range, extended to cover the rwasm-runtime entries
// this module introduces).
func isSystemPrecompile(addr evmtypes.Address) bool {
	for i := 0; i < 19; i++ {
		if addr[i] != 0 {
			return false
		}
	}
	return addr[19] != 0 && addr[19] < 0x10
}

// --- BALANCE / SELF_BALANCE ---

func (d *Dispatcher) balance(frame *rwasm.CallFrame, callID uint32, params SyscallParams) error {
	target := frame.Target
	isSelf := params.ID == SyscallSelfBalance
	if !isSelf {
		if params.Input.Length < 20 {
			return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
		}
		raw, err := readFixed(d.Reader, callID, params.Input.Offset, 20)
		if err != nil {
			return d.result(frame, nil, MemoryRange{})
		}
		target = addressFromBytes(raw)
	}
	info, jerr := d.Journal.LoadAccountInfoSkipColdLoad(target, false, false)
	if jerr != nil {
		return jerr
	}
	cost := d.Schedule.LowGas
	if !isSelf {
		cost = d.Schedule.AccountAccessCost(info.IsCold)
	}
	if !d.charge(frame, cost) {
		return d.halt(frame, rwasm.ExitOutOfFuel)
	}
	op := OpcodeBALANCE
	if isSelf {
		op = OpcodeSELFBALANCE
	}
	notify(d.Inspector, op, nil, nil)
	return d.result(frame, valueBytes(info.Value.Balance), MemoryRange{})
}

// --- CODE_SIZE / CODE_HASH / CODE_COPY ---

func (d *Dispatcher) codeSizeOrHash(frame *rwasm.CallFrame, callID uint32, params SyscallParams) error {
	if params.Input.Length < 20 {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	raw, err := readFixed(d.Reader, callID, params.Input.Offset, 20)
	if err != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	target := addressFromBytes(raw)
	info, jerr := d.Journal.LoadAccountInfoSkipColdLoad(target, true, false)
	if jerr != nil {
		return jerr
	}
	if !d.charge(frame, d.Schedule.AccountAccessCost(info.IsCold)) {
		return d.halt(frame, rwasm.ExitOutOfFuel)
	}
	view := resolveCodeView(target, info.Value.Code)
	if params.ID == SyscallCodeSize {
		notify(d.Inspector, OpcodeEXTCODESIZE, nil, nil)
		return d.result(frame, leUint64Bytes32(view.Size()), MemoryRange{})
	}
	notify(d.Inspector, OpcodeEXTCODEHASH, nil, nil)
	h := view.Hash()
	if isSystemPrecompile(target) {
		h = evmtypes.Hash{}
	}
	return d.result(frame, h[:], MemoryRange{})
}

func (d *Dispatcher) codeCopy(frame *rwasm.CallFrame, callID uint32, params SyscallParams) error {
	if params.Input.Length < 36 {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	raw, err := readFixed(d.Reader, callID, params.Input.Offset, 36)
	if err != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	target := addressFromBytes(raw[:20])
	offset := le64(raw[20:28])
	length := le64(raw[28:36])

	info, jerr := d.Journal.LoadAccountInfoSkipColdLoad(target, true, false)
	if jerr != nil {
		return jerr
	}
	// Gas charged on requested length, even if the account has less code
	// (spec.md §4.3.1): the cost formula below uses `length`, never the
	// view's actual Size().
	if !d.charge(frame, d.Schedule.CodeCopyCost(length, info.IsCold)) {
		return d.halt(frame, rwasm.ExitOutOfFuel)
	}
	view := resolveCodeView(target, info.Value.Code)
	out := make([]byte, length)
	view.CopyTo(out, offset, length)
	notify(d.Inspector, OpcodeEXTCODECOPY, nil, nil)
	return d.result(frame, out, MemoryRange{})
}

// resolveCodeView applies the code side of the "precompile collapse" rule
// (a system precompile gets an empty code view, so its code size is zero,
// even if a placeholder bytecode happens to be stored) before delegating to
// journal.ViewOf's ownable-account EVM-wrapper resolution. codeSizeOrHash
// reports a precompile's code hash as zero, and dispatchCall treats a
// precompile as empty for call gas.
func resolveCodeView(target evmtypes.Address, repr journal.CodeRepresentation) journal.CodeView {
	if isSystemPrecompile(target) {
		return journal.ViewOf(journal.RawEVM{})
	}
	return journal.ViewOf(repr)
}

// --- METADATA_{SIZE,READ,COPY} ---

func (d *Dispatcher) metadataRead(frame *rwasm.CallFrame, callID uint32, params SyscallParams) error {
	if params.Input.Length < 20 {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	needed := 20
	if params.ID != SyscallMetadataSize {
		needed = 28
	}
	if params.Input.Length < uint64(needed) {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	raw, err := readFixed(d.Reader, callID, params.Input.Offset, needed)
	if err != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	target := addressFromBytes(raw[:20])
	info, jerr := d.Journal.LoadAccountInfoSkipColdLoad(target, true, false)
	if jerr != nil {
		return jerr
	}
	owner, ok := info.Value.Code.(journal.OwnableAccount)
	if !ok {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	metadataLen := uint64(len(owner.Metadata))

	if params.ID == SyscallMetadataSize {
		return d.result(frame, leUint64Bytes32(metadataLen), MemoryRange{})
	}

	offset := uint64(le32(raw[20:24]))
	length := uint64(le32(raw[24:28]))
	var copyLen uint64
	if offset >= metadataLen {
		copyLen = 0
	} else {
		// Corrected clamp formula (spec.md §9): min(length, metadata_len -
		// offset). The source's min(length, length - offset) is a bug —
		// subtracting offset from the *requested* length instead of the
		// metadata's own length — and is not replicated here.
		remaining := metadataLen - offset
		copyLen = length
		if remaining < copyLen {
			copyLen = remaining
		}
	}
	out := make([]byte, copyLen)
	if copyLen > 0 {
		copy(out, owner.Metadata[offset:offset+copyLen])
	}
	return d.result(frame, out, MemoryRange{})
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func (d *Dispatcher) metadataCreate(frame *rwasm.CallFrame, callID uint32, params SyscallParams) error {
	if frame.IsStatic {
		return d.halt(frame, rwasm.ExitStateChangeDuringStaticCall)
	}
	if params.Input.Length < 32 {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	raw, err := readFixed(d.Reader, callID, params.Input.Offset, 32)
	if err != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	salt := leWord(raw)
	tail := newLazyTailReader(d.Reader, callID, params.Input.Offset+32, params.Input.Length-32)
	metadata, terr := tail.Materialize()
	if terr != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	addr := deriveCreateAddress(frame.Target, salt, metadata, true)
	d.Journal.SetCode(addr, journal.OwnableAccount{Owner: frame.Target, Metadata: metadata})
	return d.result(frame, addr[:], MemoryRange{})
}

func (d *Dispatcher) metadataWrite(frame *rwasm.CallFrame, callID uint32, params SyscallParams) error {
	if frame.IsStatic {
		return d.halt(frame, rwasm.ExitStateChangeDuringStaticCall)
	}
	if params.Input.Length < 28 {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	raw, err := readFixed(d.Reader, callID, params.Input.Offset, 28)
	if err != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	target := addressFromBytes(raw[:20])
	offset := uint64(le32(raw[20:24]))

	info, jerr := d.Journal.LoadAccountInfoSkipColdLoad(target, true, false)
	if jerr != nil {
		return jerr
	}
	owner, ok := info.Value.Code.(journal.OwnableAccount)
	if !ok || owner.Owner != frame.Target {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	tail := newLazyTailReader(d.Reader, callID, params.Input.Offset+28, params.Input.Length-28)
	patch, terr := tail.Materialize()
	if terr != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	newMeta := append([]byte(nil), owner.Metadata...)
	if need := offset + uint64(len(patch)); need > uint64(len(newMeta)) {
		grown := make([]byte, need)
		copy(grown, newMeta)
		newMeta = grown
	}
	copy(newMeta[offset:], patch)
	d.Journal.SetCode(target, journal.OwnableAccount{Owner: owner.Owner, Metadata: newMeta})
	return d.result(frame, nil, MemoryRange{})
}

// --- BLOCK_HASH ---

func (d *Dispatcher) blockHash(frame *rwasm.CallFrame, callID uint32, params SyscallParams) error {
	if params.Input.Length < 8 {
		return d.halt(frame, rwasm.ExitMalformedBuiltinParams)
	}
	raw, err := readFixed(d.Reader, callID, params.Input.Offset, 8)
	if err != nil {
		return d.result(frame, nil, MemoryRange{})
	}
	number := le64(raw)
	if !d.charge(frame, d.Schedule.BlockHashGas) {
		return d.halt(frame, rwasm.ExitOutOfFuel)
	}
	current := d.Journal.CurrentBlockNumber()
	var hash evmtypes.Hash
	// Only the most recent 256 blocks are queryable (EVM parity); outside
	// that window the result is the zero hash with no DB call at all
	// (spec.md §8 scenario 6).
	if number < current && current-number <= 256 {
		if h, ok := d.Journal.BlockHash(number); ok {
			hash = h
		}
	}
	notify(d.Inspector, OpcodeBLOCKHASH, nil, nil)
	return d.result(frame, hash[:], MemoryRange{})
}

// --- encoding helpers ---

func wordBytes(w evmtypes.Word) []byte {
	out := make([]byte, 32)
	copy(out, w[:])
	return out
}

func valueBytes(v evmtypes.Value) []byte {
	out := make([]byte, 32)
	copy(out, v[:])
	return out
}

// leUint64Bytes32 encodes n as a 32-byte little-endian U256, matching
// spec.md §6.1's "code-size output is a 32-byte little-endian U256".
func leUint64Bytes32(n uint64) []byte {
	out := make([]byte, 32)
	for i := 0; i < 8; i++ {
		out[i] = byte(n >> (8 * i))
	}
	return out
}
