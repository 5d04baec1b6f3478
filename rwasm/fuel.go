package rwasm

// FuelCosts configures the per-byte and per-element multipliers used by
// fuel_for_bytes/fuel_for_elements. It is a constructor parameter of Store,
// never a package constant — spec.md §9 is explicit that reimplementers
// must treat the schedule as configuration, not a fixed table, because the
// source exposes it as a store-creation parameter even though it never
// documents the contract formally.
type FuelCosts struct {
	Base        uint64
	PerByte     uint64
	PerElement  uint64
	PerLocalMem uint64
}

// DefaultFuelCosts mirrors the conservative defaults a freshly constructed
// store uses if the embedder supplies none; callers needing EVM-gas parity
// should derive their own schedule instead of relying on this table for
// anything but local tests.
func DefaultFuelCosts() FuelCosts {
	return FuelCosts{Base: 1, PerByte: 1, PerElement: 1, PerLocalMem: 1}
}

// FuelMeter is the store's single fuel counter. record_cost is the only
// deduction primitive that can fail; it never mutates on failure, matching
// spec.md §4.2 exactly ("attempts to subtract; returns false on underflow
// without mutating").
type FuelMeter struct {
	remaining uint64
	costs     FuelCosts
	enabled   bool
}

func NewFuelMeter(limit uint64, costs FuelCosts) *FuelMeter {
	return &FuelMeter{remaining: limit, costs: costs, enabled: true}
}

// NewUnmeteredFuel returns a meter that never underflows, for embedders
// that do not want fuel accounting.
func NewUnmeteredFuel() *FuelMeter {
	return &FuelMeter{enabled: false}
}

func (m *FuelMeter) Remaining() uint64 { return m.remaining }

// RecordCost attempts to subtract n from the remaining balance. It returns
// false without mutating state on underflow — the caller is responsible
// for turning that into a halt-with-OutOfFuel at the instruction boundary,
// never for continuing silently.
func (m *FuelMeter) RecordCost(n uint64) bool {
	if !m.enabled {
		return true
	}
	if n > m.remaining {
		return false
	}
	m.remaining -= n
	return true
}

func (m *FuelMeter) FuelForBytes(n uint64) uint64 {
	return m.costs.Base + n*m.costs.PerByte
}

func (m *FuelMeter) FuelForElements(n uint64) uint64 {
	return m.costs.Base + n*m.costs.PerElement
}
