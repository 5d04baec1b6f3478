package rwasm

import "testing"

func TestValueConversionsRoundTrip(t *testing.T) {
	if got := ValueFromI32(-1).I32(); got != -1 {
		t.Errorf("I32 round trip: got %d, want -1", got)
	}
	if got := ValueFromU32(0xffffffff).U32(); got != 0xffffffff {
		t.Errorf("U32 round trip: got %d, want 0xffffffff", got)
	}
	if got := ValueFromI64(-42).I64(); got != -42 {
		t.Errorf("I64 round trip: got %d, want -42", got)
	}
	if got := ValueFromF32(3.5).F32(); got != 3.5 {
		t.Errorf("F32 round trip: got %v, want 3.5", got)
	}
	if got := ValueFromF64(-2.25).F64(); got != -2.25 {
		t.Errorf("F64 round trip: got %v, want -2.25", got)
	}
	if !ValueFromBool(true).Bool() {
		t.Error("ValueFromBool(true).Bool() should be true")
	}
	if ValueFromBool(false).Bool() {
		t.Error("ValueFromBool(false).Bool() should be false")
	}
	if Value(7).Bool() != true {
		t.Error("any nonzero Value should be true")
	}
}

func TestSizeInWords(t *testing.T) {
	tests := []struct {
		size uint64
		want uint64
	}{
		{0, 0},
		{1, 1},
		{32, 1},
		{33, 2},
		{64, 2},
		{65, 3},
	}
	for _, tt := range tests {
		if got := SizeInWords(tt.size); got != tt.want {
			t.Errorf("SizeInWords(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}
