// Package journal defines the contract the syscall dispatcher and the
// fluentbase driver consume: a checkpointed, transaction-scoped view of
// account and storage state. Besides the contract it ships one concrete
// store, the in-memory MemoryJournal; any other backing store (e.g. a
// trie-backed one) is the embedder's job.
package journal

import (
	"golang.org/x/crypto/sha3"

	"github.com/fluentlabs-xyz/fluentbase-core/evmtypes"
)

// ColdLoadSkipped is returned by the *_skip_cold_load family of Journal
// methods when the caller asked to skip a cold load (because it cannot
// afford the cold-access gas premium) and the item actually is cold. It is
// distinct from a real backing-store error: the syscall dispatcher maps it
// to ExitOutOfFuel without promoting the account to warm, per spec.md
// §4.3.1's "cold load skip" edge case — a real DBError instead bubbles
// past every frame unmodified (spec.md §7).
var ColdLoadSkipped = evmtypes.ConstError("journal: cold load skipped")

// InsufficientBalance is returned by Transfer when from's balance is less
// than the requested amount — a value-transferring CALL or an endowed
// CREATE must fail the syscall, not underflow the sender's balance.
var InsufficientBalance = evmtypes.ConstError("journal: insufficient balance")

// StateLoad wraps any journal read with the warm/cold flag that load
// produced, so callers (almost always the syscall dispatcher's gas
// formulas) can charge the right price without a second round trip.
type StateLoad[T any] struct {
	Value  T
	IsCold bool
}

// StorageStatus classifies an SSTORE's effect for refund-schedule
// purposes (EIP-2200/3529), covering the nine original/current/new
// value-transition states that schedule distinguishes.
type StorageStatus int

const (
	StorageAssigned StorageStatus = iota
	StorageAdded
	StorageDeleted
	StorageModified
	StorageDeletedAdded
	StorageModifiedDeleted
	StorageDeletedRestored
	StorageAddedDeleted
	StorageModifiedRestored
)

// GetStorageStatus classifies a storage write by comparing the slot's
// original (pre-transaction), current, and new values — a three-way
// comparison that works for any slot regardless of which runtime
// (EVM-equivalent or SVM-style) issued the write.
func GetStorageStatus(original, current, newValue evmtypes.Word) StorageStatus {
	if current == newValue {
		return StorageAssigned
	}
	zero := evmtypes.Word{}
	switch {
	case original == current:
		if original == zero {
			return StorageAdded
		}
		if newValue == zero {
			return StorageDeleted
		}
		return StorageModified
	case original != current:
		if original != zero {
			if current == zero {
				if newValue == original {
					return StorageDeletedRestored
				}
				return StorageDeletedAdded
			}
			if newValue == zero {
				return StorageModifiedDeleted
			}
			if newValue == original {
				return StorageModifiedRestored
			}
			return StorageModified
		}
		if newValue == zero {
			return StorageAddedDeleted
		}
		if newValue == original {
			return StorageDeletedRestored
		}
		return StorageAdded
	}
	return StorageAssigned
}

// CodeRepresentation is the sum type behind Account.Code: either a raw EVM
// byte string, a compiled rwasm module, or an ownable-account variant that
// pairs an owner address with an opaque metadata blob. Keeping this as an
// explicit sum type (rather than overloading Code []byte with a leading
// discriminant tag, as the source did inline) is the separation of
// concerns spec.md §9 asks reimplementers to make.
type CodeRepresentation interface {
	isCodeRepresentation()
}

type RawEVM struct{ Bytes []byte }

func (RawEVM) isCodeRepresentation() {}

type RwasmModule struct{ Bytes []byte }

func (RwasmModule) isCodeRepresentation() {}

// OwnableAccount is both the storage format for non-EVM programs (an
// rwasm module's compiled image travels in Metadata) and the wire format
// for cross-runtime code introspection (an EVM guest inspecting an rwasm
// account's "code" sees this wrapped representation). PrecompileEVMRuntime
// is the distinguished Owner value that marks "this metadata blob is
// actually an EVM-compatible image" — see CodeView below.
type OwnableAccount struct {
	Owner    evmtypes.Address
	Metadata []byte
}

func (OwnableAccount) isCodeRepresentation() {}

// PrecompileEVMRuntime is the well-known owner address that marks an
// OwnableAccount's metadata as an EVM-compatible code image rather than an
// opaque rwasm payload.
var PrecompileEVMRuntime = evmtypes.Address{0: 0xff, 19: 0x01}

// CodeView is the uniform introspection surface CODE_SIZE/HASH/COPY use,
// regardless of which CodeRepresentation backs an account.
type CodeView interface {
	Size() uint64
	Hash() evmtypes.Hash
	CopyTo(dst []byte, offset, length uint64)
}

// ViewOf resolves a CodeRepresentation to its CodeView, delegating to the
// Ethereum-compatible parser when an OwnableAccount's owner marks it as an
// EVM wrapper (spec.md §4.3.1's "ownable-account EVM wrapper" rule) and
// treating every other representation as its own raw bytes.
func ViewOf(repr CodeRepresentation) CodeView {
	switch c := repr.(type) {
	case RawEVM:
		return rawBytesView(c.Bytes)
	case RwasmModule:
		return rawBytesView(c.Bytes)
	case OwnableAccount:
		// When Owner == PrecompileEVMRuntime the metadata blob is itself an
		// Ethereum-compatible image; the ABI-level parser that extracts it
		// is out of core scope (spec.md §9), so both wrapped and unwrapped
		// ownable accounts expose their raw metadata bytes here.
		return rawBytesView(c.Metadata)
	}
	return rawBytesView(nil)
}

type rawBytesView []byte

func (r rawBytesView) Size() uint64 { return uint64(len(r)) }

func (r rawBytesView) Hash() evmtypes.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(r)
	var out evmtypes.Hash
	h.Sum(out[:0])
	return out
}

func (r rawBytesView) CopyTo(dst []byte, offset, length uint64) {
	for i := uint64(0); i < length; i++ {
		srcIdx := offset + i
		if srcIdx < uint64(len(r)) {
			dst[i] = r[srcIdx]
		} else {
			dst[i] = 0
		}
	}
}
