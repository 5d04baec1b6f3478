package journal

import "github.com/fluentlabs-xyz/fluentbase-core/evmtypes"

// MemoryJournal is a minimal, non-persistent Journal implementation: a map
// of accounts plus an undo log of checkpoints. It exists for tests and for
// cmd/rwasmrun's smoke-test driver — a production embedder would back
// Journal with a trie-backed store instead, which is explicitly out of
// scope here (spec.md §1, "persistent on-disk storage layout" is a
// non-goal).
type MemoryJournal struct {
	accounts    map[evmtypes.Address]*Account
	transient   map[evmtypes.Address]map[evmtypes.Word]evmtypes.Word
	warmAccount map[evmtypes.Address]bool
	warmSlot    map[evmtypes.Address]map[evmtypes.Word]bool
	destructed  map[evmtypes.Address]bool
	logs        []Log
	blockHashes map[uint64]evmtypes.Hash
	blockNumber uint64

	undo      []undoEntry
	checkpoints []int
	nextCheckpoint CheckpointID
}

type undoEntry struct {
	kind    undoKind
	address evmtypes.Address
	slot    evmtypes.Word
	account *Account // snapshot to restore on revert, nil if account did not exist
	existed bool
	logIdx  int
}

type undoKind int

// undoKind deliberately has no warm-promotion variant: EIP-2929 cold/warm
// status is not rolled back on a reverted checkpoint in real EVM semantics
// either — an address or slot touched by a call that later reverts stays
// warm for the rest of the transaction.
const (
	undoStorage undoKind = iota
	undoAccountCreate
	undoBalance
	undoLog
	undoDestruct
)

func NewMemoryJournal(blockNumber uint64) *MemoryJournal {
	return &MemoryJournal{
		accounts:    make(map[evmtypes.Address]*Account),
		transient:   make(map[evmtypes.Address]map[evmtypes.Word]evmtypes.Word),
		warmAccount: make(map[evmtypes.Address]bool),
		warmSlot:    make(map[evmtypes.Address]map[evmtypes.Word]bool),
		destructed:  make(map[evmtypes.Address]bool),
		blockHashes: make(map[uint64]evmtypes.Hash),
		blockNumber: blockNumber,
	}
}

// SeedAccount installs an account directly, bypassing cold/warm and undo
// bookkeeping — for test setup only.
func (j *MemoryJournal) SeedAccount(a Account) {
	cp := a
	if cp.Storage == nil {
		cp.Storage = make(map[evmtypes.Word]evmtypes.Word)
	}
	j.accounts[a.Address] = &cp
}

func (j *MemoryJournal) SeedBlockHash(number uint64, hash evmtypes.Hash) {
	j.blockHashes[number] = hash
}

func (j *MemoryJournal) getOrCreate(address evmtypes.Address) (*Account, bool) {
	a, ok := j.accounts[address]
	if !ok {
		a = &Account{Address: address, Storage: make(map[evmtypes.Word]evmtypes.Word), IsEmpty: true}
	}
	return a, ok
}

func (j *MemoryJournal) promoteWarm(address evmtypes.Address) bool {
	wasCold := !j.warmAccount[address]
	j.warmAccount[address] = true
	return wasCold
}

func (j *MemoryJournal) promoteWarmSlot(address evmtypes.Address, slot evmtypes.Word) bool {
	slots, ok := j.warmSlot[address]
	if !ok {
		slots = make(map[evmtypes.Word]bool)
		j.warmSlot[address] = slots
	}
	wasCold := !slots[slot]
	slots[slot] = true
	return wasCold
}

func (j *MemoryJournal) LoadAccount(address evmtypes.Address) (StateLoad[Account], error) {
	a, existed := j.getOrCreate(address)
	cold := j.promoteWarm(address)
	if !existed {
		j.accounts[address] = a
	}
	return StateLoad[Account]{Value: *a, IsCold: cold}, nil
}

func (j *MemoryJournal) LoadAccountInfoSkipColdLoad(address evmtypes.Address, withCode, skipCold bool) (StateLoad[AccountInfo], error) {
	cold := !j.warmAccount[address]
	if cold && skipCold {
		return StateLoad[AccountInfo]{}, ColdLoadSkipped
	}
	a, _ := j.getOrCreate(address)
	j.promoteWarm(address)
	info := AccountInfo{Balance: a.Balance, Nonce: a.Nonce, IsEmpty: a.IsEmpty}
	if withCode {
		info.Code = a.Code
	}
	return StateLoad[AccountInfo]{Value: info, IsCold: cold}, nil
}

func (j *MemoryJournal) LoadAccountDelegated(address evmtypes.Address) (StateLoad[AccountLoad], error) {
	load, err := j.LoadAccountInfoSkipColdLoad(address, true, false)
	if err != nil {
		return StateLoad[AccountLoad]{}, err
	}
	target := address
	if owner, ok := load.Value.Code.(OwnableAccount); ok && owner.Owner != PrecompileEVMRuntime {
		target = owner.Owner
	}
	return StateLoad[AccountLoad]{Value: AccountLoad{Target: target, Info: load.Value}, IsCold: load.IsCold}, nil
}

func (j *MemoryJournal) SLoad(address evmtypes.Address, slot evmtypes.Word) (StateLoad[evmtypes.Word], error) {
	return j.SLoadSkipColdLoad(address, slot, false)
}

func (j *MemoryJournal) SLoadSkipColdLoad(address evmtypes.Address, slot evmtypes.Word, skipCold bool) (StateLoad[evmtypes.Word], error) {
	cold := !j.warmSlot[address][slot]
	if cold && skipCold {
		return StateLoad[evmtypes.Word]{}, ColdLoadSkipped
	}
	j.promoteWarmSlot(address, slot)
	a, _ := j.getOrCreate(address)
	return StateLoad[evmtypes.Word]{Value: a.Storage[slot], IsCold: cold}, nil
}

func (j *MemoryJournal) SStore(address evmtypes.Address, slot, value evmtypes.Word) (StateLoad[SStoreResult], error) {
	return j.SStoreSkipColdLoad(address, slot, value, false)
}

func (j *MemoryJournal) SStoreSkipColdLoad(address evmtypes.Address, slot, value evmtypes.Word, skipCold bool) (StateLoad[SStoreResult], error) {
	cold := !j.warmSlot[address][slot]
	if cold && skipCold {
		return StateLoad[SStoreResult]{}, ColdLoadSkipped
	}
	j.promoteWarmSlot(address, slot)
	a, existed := j.getOrCreate(address)
	if !existed {
		j.accounts[address] = a
	}
	current := a.Storage[slot]
	// MemoryJournal tracks no separate pre-transaction snapshot, so the
	// reported original value is always the current one.
	original := current
	j.undo = append(j.undo, undoEntry{kind: undoStorage, address: address, slot: slot, account: cloneAccount(a)})
	a.Storage[slot] = value
	status := GetStorageStatus(original, current, value)
	return StateLoad[SStoreResult]{
		Value:  SStoreResult{Status: status, OriginalValue: original, CurrentValue: current, NewValue: value},
		IsCold: cold,
	}, nil
}

func (j *MemoryJournal) TLoad(address evmtypes.Address, slot evmtypes.Word) evmtypes.Word {
	return j.transient[address][slot]
}

func (j *MemoryJournal) TStore(address evmtypes.Address, slot, value evmtypes.Word) {
	slots, ok := j.transient[address]
	if !ok {
		slots = make(map[evmtypes.Word]evmtypes.Word)
		j.transient[address] = slots
	}
	slots[slot] = value
}

func (j *MemoryJournal) Log(entry Log) {
	j.undo = append(j.undo, undoEntry{kind: undoLog, logIdx: len(j.logs)})
	j.logs = append(j.logs, entry)
}

func (j *MemoryJournal) Logs() []Log { return j.logs }

func (j *MemoryJournal) SetCode(address evmtypes.Address, code CodeRepresentation) {
	a, existed := j.getOrCreate(address)
	if !existed {
		j.accounts[address] = a
	}
	j.undo = append(j.undo, undoEntry{kind: undoAccountCreate, address: address, account: cloneAccount(a)})
	a.Code = code
	a.IsEmpty = false
}

func (j *MemoryJournal) SelfDestruct(from, beneficiary evmtypes.Address, skipCold bool) (StateLoad[SelfDestructResult], error) {
	cold := !j.warmAccount[beneficiary]
	if cold && skipCold {
		return StateLoad[SelfDestructResult]{}, ColdLoadSkipped
	}
	j.promoteWarm(beneficiary)
	fromAcc, fromExisted := j.getOrCreate(from)
	if !fromExisted {
		j.accounts[from] = fromAcc
	}
	already := j.destructed[from]
	target, targetExisted := j.accounts[beneficiary]
	var beneficiarySnapshot *Account
	if targetExisted {
		beneficiarySnapshot = cloneAccount(target)
	} else {
		target, _ = j.getOrCreate(beneficiary)
		j.accounts[beneficiary] = target
	}
	prevBalance := fromAcc.Balance
	if !already {
		fromSnapshot := cloneAccount(fromAcc)
		target.Balance = addValue(target.Balance, fromAcc.Balance)
		fromAcc.Balance = evmtypes.Value{}
		j.undo = append(j.undo, undoEntry{kind: undoBalance, address: from, account: fromSnapshot})
		j.undo = append(j.undo, undoEntry{kind: undoBalance, address: beneficiary, account: beneficiarySnapshot})
		j.undo = append(j.undo, undoEntry{kind: undoDestruct, address: from})
	}
	j.destructed[from] = true
	return StateLoad[SelfDestructResult]{
		Value:  SelfDestructResult{TargetExisted: targetExisted, AlreadySelfDestructed: already, PrevBalance: prevBalance},
		IsCold: cold,
	}, nil
}

// Transfer moves value from from's balance to to's, recording undo entries
// so a reverted checkpoint restores both balances exactly. Grounded on the
// same balance-mutation shape as SelfDestruct's credit, generalized to two
// arbitrary accounts (CALL-with-value and CREATE's endowment both need
// this, spec.md §4.3.1's CALL/CREATE rows).
func (j *MemoryJournal) Transfer(from, to evmtypes.Address, value evmtypes.Value) error {
	if value == (evmtypes.Value{}) {
		return nil
	}
	fromAcc, fromExisted := j.getOrCreate(from)
	if !fromExisted {
		j.accounts[from] = fromAcc
	}
	newFromBalance := subValue(fromAcc.Balance, value)
	if newFromBalance == nil {
		return InsufficientBalance
	}
	toAcc, toExisted := j.getOrCreate(to)
	if !toExisted {
		j.accounts[to] = toAcc
	}
	j.undo = append(j.undo, undoEntry{kind: undoBalance, address: from, account: cloneAccount(fromAcc)})
	j.undo = append(j.undo, undoEntry{kind: undoBalance, address: to, account: cloneAccount(toAcc)})
	fromAcc.Balance = *newFromBalance
	toAcc.Balance = addValue(toAcc.Balance, value)
	toAcc.IsEmpty = false
	return nil
}

func (j *MemoryJournal) TouchAccount(address evmtypes.Address) {
	a, existed := j.getOrCreate(address)
	if !existed {
		j.accounts[address] = a
	}
}

func (j *MemoryJournal) Checkpoint() CheckpointID {
	id := j.nextCheckpoint
	j.nextCheckpoint++
	j.checkpoints = append(j.checkpoints, len(j.undo))
	return id
}

func (j *MemoryJournal) RevertToCheckpoint(id CheckpointID) {
	if len(j.checkpoints) == 0 {
		return
	}
	mark := j.checkpoints[len(j.checkpoints)-1]
	j.checkpoints = j.checkpoints[:len(j.checkpoints)-1]
	for i := len(j.undo) - 1; i >= mark; i-- {
		j.applyUndo(j.undo[i])
	}
	j.undo = j.undo[:mark]
}

func (j *MemoryJournal) CommitCheckpoint(id CheckpointID) {
	if len(j.checkpoints) == 0 {
		return
	}
	j.checkpoints = j.checkpoints[:len(j.checkpoints)-1]
}

func (j *MemoryJournal) applyUndo(e undoEntry) {
	switch e.kind {
	case undoStorage, undoAccountCreate, undoBalance:
		if e.account == nil {
			delete(j.accounts, e.address)
		} else {
			j.accounts[e.address] = e.account
		}
	case undoDestruct:
		delete(j.destructed, e.address)
	case undoLog:
		j.logs = j.logs[:e.logIdx]
	}
}

func (j *MemoryJournal) BlockHash(number uint64) (evmtypes.Hash, bool) {
	h, ok := j.blockHashes[number]
	return h, ok
}

func (j *MemoryJournal) CurrentBlockNumber() uint64 { return j.blockNumber }

func cloneAccount(a *Account) *Account {
	cp := *a
	cp.Storage = make(map[evmtypes.Word]evmtypes.Word, len(a.Storage))
	for k, v := range a.Storage {
		cp.Storage[k] = v
	}
	return &cp
}

func addValue(a, b evmtypes.Value) evmtypes.Value {
	var out evmtypes.Value
	carry := 0
	for i := 31; i >= 0; i-- {
		sum := int(a[i]) + int(b[i]) + carry
		out[i] = byte(sum)
		carry = sum >> 8
	}
	return out
}

// subValue returns a-b, or nil if b > a (the caller treats nil as
// insufficient balance rather than wrapping around).
func subValue(a, b evmtypes.Value) *evmtypes.Value {
	var out evmtypes.Value
	borrow := 0
	for i := 31; i >= 0; i-- {
		diff := int(a[i]) - int(b[i]) - borrow
		if diff < 0 {
			diff += 256
			borrow = 1
		} else {
			borrow = 0
		}
		out[i] = byte(diff)
	}
	if borrow != 0 {
		return nil
	}
	return &out
}
