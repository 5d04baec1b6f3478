package rwasm

import "testing"

func TestFuelMeterRecordCostNeverMutatesOnUnderflow(t *testing.T) {
	m := NewFuelMeter(10, DefaultFuelCosts())

	if ok := m.RecordCost(6); !ok {
		t.Fatal("RecordCost(6) on a 10-fuel meter should succeed")
	}
	if got := m.Remaining(); got != 4 {
		t.Fatalf("Remaining() after spending 6 of 10 = %d, want 4", got)
	}

	if ok := m.RecordCost(5); ok {
		t.Fatal("RecordCost(5) with only 4 remaining should fail")
	}
	if got := m.Remaining(); got != 4 {
		t.Fatalf("Remaining() after a failed RecordCost must be unchanged, got %d, want 4", got)
	}
}

func TestFuelMeterExactBoundary(t *testing.T) {
	m := NewFuelMeter(5, DefaultFuelCosts())
	if ok := m.RecordCost(5); !ok {
		t.Fatal("RecordCost exactly equal to remaining should succeed")
	}
	if got := m.Remaining(); got != 0 {
		t.Fatalf("Remaining() = %d, want 0", got)
	}
	if ok := m.RecordCost(1); ok {
		t.Fatal("RecordCost(1) against an empty meter should fail")
	}
}

func TestUnmeteredFuelNeverUnderflows(t *testing.T) {
	m := NewUnmeteredFuel()
	if ok := m.RecordCost(1 << 40); !ok {
		t.Fatal("an unmetered FuelMeter should never report underflow")
	}
	if got := m.Remaining(); got != 0 {
		t.Errorf("Remaining() on an unmetered meter = %d, want 0", got)
	}
}

func TestFuelForBytesAndElements(t *testing.T) {
	costs := FuelCosts{Base: 2, PerByte: 3, PerElement: 5, PerLocalMem: 1}
	m := NewFuelMeter(1000, costs)

	if got := m.FuelForBytes(4); got != 2+4*3 {
		t.Errorf("FuelForBytes(4) = %d, want %d", got, 2+4*3)
	}
	if got := m.FuelForElements(4); got != 2+4*5 {
		t.Errorf("FuelForElements(4) = %d, want %d", got, 2+4*5)
	}
}
