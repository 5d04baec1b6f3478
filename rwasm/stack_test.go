package rwasm

import "testing"

func TestStackPushPop(t *testing.T) {
	s := NewStack()
	defer ReturnStack(s)

	if s.Len() != 0 {
		t.Fatalf("fresh stack length = %d, want 0", s.Len())
	}
	if err := s.Push(ValueFromU64(1)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := s.Push(ValueFromU64(2)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if got := s.Top(); got.U64() != 2 {
		t.Errorf("Top() = %d, want 2", got.U64())
	}
	if got := s.Pop(); got.U64() != 2 {
		t.Errorf("Pop() = %d, want 2", got.U64())
	}
	if got := s.Pop(); got.U64() != 1 {
		t.Errorf("Pop() = %d, want 1", got.U64())
	}
	if s.Len() != 0 {
		t.Fatalf("stack length after draining = %d, want 0", s.Len())
	}
}

func TestStackOverflow(t *testing.T) {
	s := NewStack()
	defer ReturnStack(s)

	for i := 0; i < StackSize; i++ {
		if err := s.Push(ValueFromU64(uint64(i))); err != nil {
			t.Fatalf("unexpected overflow at depth %d: %v", i, err)
		}
	}
	if err := s.Push(ValueFromU64(0)); err != TrapStackOverflow {
		t.Errorf("Push past capacity = %v, want TrapStackOverflow", err)
	}
}

func TestStackPopNOrder(t *testing.T) {
	s := NewStack()
	defer ReturnStack(s)

	s.Push(ValueFromU64(10))
	s.Push(ValueFromU64(20))
	s.Push(ValueFromU64(30))

	vals := s.PopN(3)
	if vals[0].U64() != 10 || vals[1].U64() != 20 || vals[2].U64() != 30 {
		t.Errorf("PopN(3) = %v, want [10 20 30] in stack order", vals)
	}
}

func TestStackPeekAtAndSetTop(t *testing.T) {
	s := NewStack()
	defer ReturnStack(s)

	s.Push(ValueFromU64(1))
	s.Push(ValueFromU64(2))
	s.Push(ValueFromU64(3))

	if got := s.PeekAt(0); got.U64() != 3 {
		t.Errorf("PeekAt(0) = %d, want 3", got.U64())
	}
	if got := s.PeekAt(2); got.U64() != 1 {
		t.Errorf("PeekAt(2) = %d, want 1", got.U64())
	}
	s.SetTop(ValueFromU64(99))
	if got := s.Top(); got.U64() != 99 {
		t.Errorf("after SetTop, Top() = %d, want 99", got.U64())
	}
}

func TestDropKeepApply(t *testing.T) {
	tests := []struct {
		name string
		dk   DropKeep
		in   []uint64
		want []uint64
	}{
		{"no-op", DropKeep{Drop: 0, Keep: 0}, []uint64{1, 2, 3}, []uint64{1, 2, 3}},
		{"drop below single keep", DropKeep{Drop: 2, Keep: 1}, []uint64{1, 2, 3}, []uint64{3}},
		{"drop all but keep two", DropKeep{Drop: 1, Keep: 2}, []uint64{1, 2, 3}, []uint64{2, 3}},
		{"keep zero drops everything named", DropKeep{Drop: 3, Keep: 0}, []uint64{1, 2, 3}, []uint64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStack()
			defer ReturnStack(s)
			for _, v := range tt.in {
				s.Push(ValueFromU64(v))
			}
			tt.dk.Apply(s)
			if s.Len() != len(tt.want) {
				t.Fatalf("length after Apply = %d, want %d", s.Len(), len(tt.want))
			}
			for i, want := range tt.want {
				if got := s.At(i); got.U64() != want {
					t.Errorf("At(%d) = %d, want %d", i, got.U64(), want)
				}
			}
		})
	}
}

func TestCallStackDepthCap(t *testing.T) {
	cs := NewCallStack(2)
	if err := cs.Push(1, 0); err != nil {
		t.Fatalf("Push 1: %v", err)
	}
	if err := cs.Push(2, 0); err != nil {
		t.Fatalf("Push 2: %v", err)
	}
	if err := cs.Push(3, 0); err != TrapStackOverflow {
		t.Errorf("Push past maxDepth = %v, want TrapStackOverflow", err)
	}
	if cs.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", cs.Depth())
	}
}

func TestCallStackPopEmpty(t *testing.T) {
	cs := NewCallStack(4)
	if _, _, ok := cs.Pop(); ok {
		t.Error("Pop on empty call stack should report ok=false")
	}
}
