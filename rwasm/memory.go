package rwasm

// PageSize is the WebAssembly linear-memory page granularity: 64 KiB.
const PageSize = 64 * 1024

// Memory is the page-granular, growable linear memory byte buffer. Growth
// cost is quadratic in page count, using the standard EVM memory-expansion
// formula (words*words)/512 + 3*words, denominated in fuel instead of gas
// and in pages instead of words.
type Memory struct {
	data     []byte
	maxPages uint32
}

// NewMemory allocates an empty memory capped at maxPages (0 means no
// configured cap beyond the 32-bit page-count ceiling).
func NewMemory(initialPages, maxPages uint32) *Memory {
	m := &Memory{maxPages: maxPages}
	m.data = make([]byte, int(initialPages)*PageSize)
	return m
}

func (m *Memory) Pages() uint32 { return uint32(len(m.data) / PageSize) }
func (m *Memory) Size() int     { return len(m.data) }

// expansionCost returns the fuel cost of growing from `from` to `to` pages,
// net of the already-paid cost of `from` pages (i.e. it is the marginal
// cost), using the same quadratic formula as the teacher.
func expansionCost(fromPages, toPages uint32) uint64 {
	cost := func(pages uint64) uint64 {
		return (pages*pages)/512 + 3*pages
	}
	return cost(uint64(toPages)) - cost(uint64(fromPages))
}

// Grow attempts to add deltaPages pages, charging meter the quadratic
// expansion cost first. Per spec.md §4.1 shape 4, growth past the
// configured limit returns ok=false (the memory.grow step then pushes
// math.MaxUint32, a sentinel, not a trap). A meter that cannot pay also
// makes Grow return ok=false without growing, because record_cost itself
// never traps; the memory.grow step therefore charges the expansion cost
// itself before calling Grow and halts the frame with OutOfFuel when the
// charge fails.
func (m *Memory) Grow(deltaPages uint32, meter *FuelMeter) (oldPages uint32, ok bool) {
	old := m.Pages()
	if deltaPages == 0 {
		return old, true
	}
	newPages := old + deltaPages
	if newPages < old {
		return old, false
	}
	if m.maxPages != 0 && newPages > m.maxPages {
		return old, false
	}
	cost := expansionCost(old, newPages)
	if meter != nil && !meter.RecordCost(cost) {
		return old, false
	}
	grown := make([]byte, int(newPages)*PageSize)
	copy(grown, m.data)
	m.data = grown
	return old, true
}

func (m *Memory) checkBounds(offset, length uint64) error {
	if length == 0 {
		return nil
	}
	end := offset + length
	if end < offset || end > uint64(len(m.data)) {
		return TrapMemoryOutOfBounds
	}
	return nil
}

// Read copies length bytes starting at offset into a fresh slice. Traps on
// out-of-bounds access, matching the interpreter-level memory instructions
// (the syscall dispatcher instead uses MemoryReader, which reports
// MemoryOutOfBounds as a recoverable error rather than a trap — see
// package syscall).
func (m *Memory) Read(offset, length uint64) ([]byte, error) {
	if err := m.checkBounds(offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, m.data[offset:offset+length])
	return out, nil
}

// ReadAt reads into a caller-supplied buffer without allocating, used by
// MemoryReader implementations.
func (m *Memory) ReadAt(offset uint64, buf []byte) error {
	if err := m.checkBounds(offset, uint64(len(buf))); err != nil {
		return err
	}
	copy(buf, m.data[offset:offset+uint64(len(buf))])
	return nil
}

func (m *Memory) Write(offset uint64, data []byte) error {
	if err := m.checkBounds(offset, uint64(len(data))); err != nil {
		return err
	}
	copy(m.data[offset:offset+uint64(len(data))], data)
	return nil
}

func (m *Memory) Fill(offset, length uint64, b byte) error {
	if err := m.checkBounds(offset, length); err != nil {
		return err
	}
	region := m.data[offset : offset+length]
	for i := range region {
		region[i] = b
	}
	return nil
}

func (m *Memory) Copy(dst, src, length uint64) error {
	if err := m.checkBounds(dst, length); err != nil {
		return err
	}
	if err := m.checkBounds(src, length); err != nil {
		return err
	}
	copy(m.data[dst:dst+length], m.data[src:src+length])
	return nil
}

// Init copies length bytes from a data segment (already resolved to a byte
// slice by the caller — an empty slice if the segment was dropped) at
// segOffset into memory at offset. Per spec.md §4.3's data-segment
// invariant, a zero-length init against a dropped segment must succeed as
// a no-op; a non-zero length against a dropped (now-empty) segment traps,
// because Init checks segOffset+length against the segment slice's own
// length before writing.
func (m *Memory) Init(offset uint64, data []byte, segOffset, length uint64) error {
	if length == 0 {
		return nil
	}
	if segOffset+length > uint64(len(data)) || segOffset+length < segOffset {
		return TrapMemoryOutOfBounds
	}
	return m.Write(offset, data[segOffset:segOffset+length])
}

func (m *Memory) LoadI32(offset uint64) (int32, error) {
	var buf [4]byte
	if err := m.ReadAt(offset, buf[:]); err != nil {
		return 0, err
	}
	return int32(le32(buf[:])), nil
}

func (m *Memory) LoadI64(offset uint64) (int64, error) {
	var buf [8]byte
	if err := m.ReadAt(offset, buf[:]); err != nil {
		return 0, err
	}
	return int64(le64(buf[:])), nil
}

func (m *Memory) StoreI32(offset uint64, v int32) error {
	var buf [4]byte
	putLE32(buf[:], uint32(v))
	return m.Write(offset, buf[:])
}

func (m *Memory) StoreI64(offset uint64, v int64) error {
	var buf [8]byte
	putLE64(buf[:], uint64(v))
	return m.Write(offset, buf[:])
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func le64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putLE64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
