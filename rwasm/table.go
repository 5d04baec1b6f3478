package rwasm

// FuncRef is a nullable reference to a compiled function, the element type
// of a Table. A null entry is represented by NullFuncRef.
type FuncRef int32

const NullFuncRef FuncRef = -1

// Table is a growable array of FuncRef, used by call_indirect.
type Table struct {
	elems   []FuncRef
	maxSize uint32
}

func NewTable(initialSize, maxSize uint32) *Table {
	t := &Table{elems: make([]FuncRef, initialSize), maxSize: maxSize}
	for i := range t.elems {
		t.elems[i] = NullFuncRef
	}
	return t
}

func (t *Table) Size() uint32 { return uint32(len(t.elems)) }

func (t *Table) Get(idx uint32) (FuncRef, error) {
	if idx >= uint32(len(t.elems)) {
		return NullFuncRef, TrapTableOutOfBounds
	}
	return t.elems[idx], nil
}

func (t *Table) Set(idx uint32, ref FuncRef) error {
	if idx >= uint32(len(t.elems)) {
		return TrapTableOutOfBounds
	}
	t.elems[idx] = ref
	return nil
}

func (t *Table) Grow(delta uint32, fill FuncRef) (oldSize uint32, ok bool) {
	old := t.Size()
	newSize := old + delta
	if newSize < old || (t.maxSize != 0 && newSize > t.maxSize) {
		return old, false
	}
	grown := make([]FuncRef, newSize)
	copy(grown, t.elems)
	for i := old; i < newSize; i++ {
		grown[i] = fill
	}
	t.elems = grown
	return old, true
}

func (t *Table) Fill(offset, length uint32, ref FuncRef) error {
	if uint64(offset)+uint64(length) > uint64(len(t.elems)) {
		return TrapTableOutOfBounds
	}
	for i := offset; i < offset+length; i++ {
		t.elems[i] = ref
	}
	return nil
}

func (t *Table) Copy(dst, src, length uint32) error {
	if uint64(dst)+uint64(length) > uint64(len(t.elems)) || uint64(src)+uint64(length) > uint64(len(t.elems)) {
		return TrapTableOutOfBounds
	}
	copy(t.elems[dst:dst+length], t.elems[src:src+length])
	return nil
}

// ElementSegment is a table initializer. Dropped is sticky: once set,
// Init against this segment with length > 0 traps and with length == 0 is
// a silent no-op, matching spec.md §3's "drop-on-first-use" lifecycle for
// both data and element segments.
type ElementSegment struct {
	elems   []FuncRef
	Dropped bool
}

func NewElementSegment(elems []FuncRef) *ElementSegment {
	return &ElementSegment{elems: elems}
}

func (e *ElementSegment) Drop() { e.Dropped = true; e.elems = nil }

func (t *Table) Init(offset uint32, seg *ElementSegment, segOffset, length uint32) error {
	if length == 0 {
		return nil
	}
	if seg.Dropped {
		return TrapTableOutOfBounds
	}
	if uint64(segOffset)+uint64(length) > uint64(len(seg.elems)) {
		return TrapTableOutOfBounds
	}
	return t.Fill2(offset, seg.elems[segOffset:segOffset+length])
}

func (t *Table) Fill2(offset uint32, elems []FuncRef) error {
	if uint64(offset)+uint64(len(elems)) > uint64(len(t.elems)) {
		return TrapTableOutOfBounds
	}
	copy(t.elems[offset:offset+uint32(len(elems))], elems)
	return nil
}

// DataSegment is a memory initializer with the same drop-on-first-use
// lifecycle as ElementSegment.
type DataSegment struct {
	Bytes   []byte
	Dropped bool
}

func NewDataSegment(b []byte) *DataSegment { return &DataSegment{Bytes: b} }

func (d *DataSegment) Drop() { d.Dropped = true; d.Bytes = nil }

// View returns the segment's bytes, or an empty slice if dropped — per
// spec.md's memory.init invariant, referencing a dropped segment behaves
// as if the segment were empty, not as an error, unless the requested
// length is non-zero (which the memory.Init bounds check then traps on).
func (d *DataSegment) View() []byte {
	if d.Dropped {
		return nil
	}
	return d.Bytes
}
