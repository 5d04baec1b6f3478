package syscall

import "github.com/fluentlabs-xyz/fluentbase-core/evmtypes"

// Schedule is the complete EVM-compatible gas cost table, keyed to a
// Revision. It is a constructor parameter of Dispatcher, never a package
// constant — spec.md §9 is explicit that the fuel/gas cost schedule must
// stay a parameter of the store (here, the dispatcher), and this module
// applies the same discipline uniformly rather than only to the narrow
// fuel_for_bytes/fuel_for_elements case the design note calls out.
type Schedule struct {
	Revision Revision

	ColdSloadCost          evmtypes.Gas
	ColdAccountAccessCost  evmtypes.Gas
	WarmStorageReadCost    evmtypes.Gas
	SloadGas               evmtypes.Gas
	SstoreSetGas           evmtypes.Gas
	SstoreResetGas         evmtypes.Gas
	SstoreClearsRefund     evmtypes.Gas

	CallStipend     evmtypes.Gas
	CallValueCost   evmtypes.Gas
	CallNewAccount  evmtypes.Gas

	CreateGas         evmtypes.Gas
	CreateDataWordGas evmtypes.Gas

	LogGas      evmtypes.Gas
	LogTopicGas evmtypes.Gas
	LogDataGas  evmtypes.Gas

	SelfDestructGas        evmtypes.Gas
	SelfDestructNewAccount evmtypes.Gas

	ExtCodeCopyWordCost evmtypes.Gas
	BlockHashGas        evmtypes.Gas
	LowGas              evmtypes.Gas
}

// DefaultSchedule returns the standard EVM gas table for rev, with the
// constants each hard-fork revision defines.
func DefaultSchedule(rev Revision) Schedule {
	s := Schedule{
		Revision:               rev,
		ColdSloadCost:          2100,
		ColdAccountAccessCost:  2600,
		WarmStorageReadCost:    100,
		SloadGas:               100,
		SstoreSetGas:           20000,
		SstoreResetGas:         2900,
		SstoreClearsRefund:     4800,
		CallStipend:            2300,
		CallValueCost:          9000,
		CallNewAccount:         25000,
		CreateGas:              32000,
		CreateDataWordGas:      2,
		LogGas:                 375,
		LogTopicGas:            375,
		LogDataGas:             8,
		SelfDestructGas:        5000,
		SelfDestructNewAccount: 25000,
		ExtCodeCopyWordCost:    3,
		BlockHashGas:           20,
		LowGas:                 5,
	}
	if rev < RevisionBerlin {
		// Pre-Berlin (EIP-2929) revisions had no cold/warm split: every
		// access costs the flat pre-Berlin price, and SLOAD/SSTORE use
		// their Istanbul-era (EIP-2200) numbers instead.
		s.ColdSloadCost = 800
		s.ColdAccountAccessCost = 700
		s.WarmStorageReadCost = 800
		s.SloadGas = 800
		s.SstoreResetGas = 5000
		s.SelfDestructNewAccount = 25000
		s.ExtCodeCopyWordCost = 3
	}
	return s
}

// CallGas applies the EIP-150 63/64 rule: of the gas available at the
// call site, at most all-but-one-64th may be forwarded to the callee; a
// value transfer additionally adds the stipend so the callee is never
// left stranded with zero gas purely because of the cap.
func (s Schedule) CallGas(available evmtypes.Gas, requested evmtypes.Gas, transfersValue bool) evmtypes.Gas {
	cap := available - available/64
	gas := requested
	if gas > cap || requested == 0 {
		gas = cap
	}
	if transfersValue {
		gas += s.CallStipend
	}
	return gas
}

// SStoreCost implements the EIP-2200/EIP-2929 schedule with refunds. It
// returns the gas to charge and the refund to record (refunds are
// returned, not applied — the caller/journal owns the running refund
// counter for the transaction).
func (s Schedule) SStoreCost(original, current, newValue evmtypes.Word) (cost evmtypes.Gas, refund evmtypes.Gas) {
	zero := evmtypes.Word{}
	if current == newValue {
		return s.WarmStorageReadCost, 0
	}
	if original == current {
		if original == zero {
			return s.SstoreSetGas, 0
		}
		if newValue == zero {
			return s.SstoreResetGas, s.SstoreClearsRefund
		}
		return s.SstoreResetGas, 0
	}
	// original != current: the slot was already touched earlier in this
	// transaction; charge the warm price and adjust the refund for the
	// three-way original/current/new relationship (EIP-2200 dirty-slot
	// cases).
	var r evmtypes.Gas
	if original != zero {
		if current == zero {
			r -= s.SstoreClearsRefund
		}
		if newValue == zero {
			r += s.SstoreClearsRefund
		}
	}
	if original == newValue {
		if original == zero {
			r += s.SstoreSetGas - s.WarmStorageReadCost
		} else {
			r += s.SstoreResetGas - s.WarmStorageReadCost
		}
	}
	return s.WarmStorageReadCost, r
}

// SelfDestructCost charges the flat schedule plus a new-account premium
// when the beneficiary does not yet exist, matching spec.md §8 scenario 4
// ("self-destruct to precompile" must NOT pay this premium — callers
// short-circuit targetExists to true for precompiles before calling this).
func (s Schedule) SelfDestructCost(targetExists bool, cold bool) evmtypes.Gas {
	cost := s.SelfDestructGas
	if !targetExists {
		cost += s.SelfDestructNewAccount
	}
	if cold {
		cost += s.ColdAccountAccessCost
	}
	return cost
}

// LogCost implements the 375 + 375*topics + 8*bytes schedule from spec.md
// §4.3.1's operation table, verbatim.
func (s Schedule) LogCost(topics int, dataLen uint64) evmtypes.Gas {
	return s.LogGas + evmtypes.Gas(topics)*s.LogTopicGas + evmtypes.Gas(dataLen)*s.LogDataGas
}

// CreateCost is the fixed CREATE/CREATE2 cost plus the per-word initcode
// charge (EIP-3860).
func (s Schedule) CreateCost(initcodeLen uint64) evmtypes.Gas {
	words := (initcodeLen + 31) / 32
	return s.CreateGas + evmtypes.Gas(words)*s.CreateDataWordGas
}

// CodeCopyCost charges EXTCODECOPY's per-word cost for the *requested*
// length, not the account's actual code length — spec.md §4.3.1's
// "gas charged on requested length" edge case, preserved exactly.
func (s Schedule) CodeCopyCost(requestedLen uint64, cold bool) evmtypes.Gas {
	words := (requestedLen + 31) / 32
	cost := evmtypes.Gas(words) * s.ExtCodeCopyWordCost
	if cold {
		cost += s.ColdAccountAccessCost
	} else {
		cost += s.WarmStorageReadCost
	}
	return cost
}

// AccountAccessCost returns the BALANCE/CODE_SIZE/CODE_HASH-style cold or
// warm access price.
func (s Schedule) AccountAccessCost(cold bool) evmtypes.Gas {
	if cold {
		return s.ColdAccountAccessCost
	}
	return s.WarmStorageReadCost
}
