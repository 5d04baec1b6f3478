package journal

import "github.com/fluentlabs-xyz/fluentbase-core/evmtypes"

// Account is the consumed shape of one journal entry: address, balance,
// nonce, the code variant it carries, its storage map, and the two flags
// (cold, empty) the syscall dispatcher's gas formulas key off.
type Account struct {
	Address evmtypes.Address
	Balance evmtypes.Value
	Nonce   uint64
	Code    CodeRepresentation
	Storage map[evmtypes.Word]evmtypes.Word
	IsCold  bool
	IsEmpty bool
}

// AccountInfo is the subset of Account the *_info_skip_cold_load family
// returns — callers that only need balance/nonce/code (not the full
// storage map) use this to avoid paying for a storage-map copy they don't
// need.
type AccountInfo struct {
	Balance evmtypes.Value
	Nonce   uint64
	Code    CodeRepresentation
	IsEmpty bool
}

// AccountLoad is what load_account_delegated returns: the resolved target
// of a DELEGATE_CALL/CALL_CODE after following any ownable-account
// indirection.
type AccountLoad struct {
	Target evmtypes.Address
	Info   AccountInfo
}

// SStoreResult is what a storage write reports back: the storage-status
// classification (for the refund schedule) plus the original/current/new
// values the caller already had in hand, so the dispatcher's gas formula
// doesn't need a second read.
type SStoreResult struct {
	Status               StorageStatus
	OriginalValue         evmtypes.Word
	CurrentValue          evmtypes.Word
	NewValue              evmtypes.Word
}

// SelfDestructResult reports whether the target already existed (for the
// "new account" gas premium) and whether it had already self-destructed
// earlier in the same transaction (EIP-6780 cancels the balance-clearing
// effect, but not the gas accounting, on a second self-destruct).
type SelfDestructResult struct {
	TargetExisted      bool
	AlreadySelfDestructed bool
	PrevBalance        evmtypes.Value
}

// Log is one EMIT_LOG record: the emitting address, its topics, and the
// opaque data payload.
type Log struct {
	Address evmtypes.Address
	Topics  []evmtypes.Hash
	Data    []byte
}

// CheckpointID identifies a nested journal checkpoint for
// RevertToCheckpoint, matching spec.md §5's "the journal must support
// nested checkpoints" ordering guarantee.
type CheckpointID int

// Journal is the contract the syscall dispatcher and the fluentbase
// driver consume (spec.md §6.2). The *SkipColdLoad methods take a skipCold
// flag (LoadAccount, LoadAccountDelegated, SLoad and SStore do not); when
// it is set and the item actually is cold, the
// method returns ColdLoadSkipped without any side effect — the dispatcher
// uses this to probe warm/cold state without paying for a cold load it
// cannot afford (spec.md §9's "skip-cold probing" design note).
type Journal interface {
	LoadAccount(address evmtypes.Address) (StateLoad[Account], error)
	LoadAccountInfoSkipColdLoad(address evmtypes.Address, withCode, skipCold bool) (StateLoad[AccountInfo], error)
	LoadAccountDelegated(address evmtypes.Address) (StateLoad[AccountLoad], error)

	SLoad(address evmtypes.Address, slot evmtypes.Word) (StateLoad[evmtypes.Word], error)
	SLoadSkipColdLoad(address evmtypes.Address, slot evmtypes.Word, skipCold bool) (StateLoad[evmtypes.Word], error)
	SStore(address evmtypes.Address, slot, value evmtypes.Word) (StateLoad[SStoreResult], error)
	SStoreSkipColdLoad(address evmtypes.Address, slot, value evmtypes.Word, skipCold bool) (StateLoad[SStoreResult], error)

	TLoad(address evmtypes.Address, slot evmtypes.Word) evmtypes.Word
	TStore(address evmtypes.Address, slot, value evmtypes.Word)

	Log(entry Log)
	SetCode(address evmtypes.Address, code CodeRepresentation)
	Transfer(from, to evmtypes.Address, value evmtypes.Value) error

	SelfDestruct(from, beneficiary evmtypes.Address, skipCold bool) (StateLoad[SelfDestructResult], error)
	TouchAccount(address evmtypes.Address)

	Checkpoint() CheckpointID
	RevertToCheckpoint(id CheckpointID)
	CommitCheckpoint(id CheckpointID)

	BlockHash(number uint64) (evmtypes.Hash, bool)
	CurrentBlockNumber() uint64
}
