package rwasm

import "github.com/fluentlabs-xyz/fluentbase-core/evmtypes"

// FuncType is a function signature: argument and result arities only
// (rwasm, like the teacher's lfvm, does not need full value-type checking
// at call time because CallIndirect's SignatureCheck pseudo-op is the only
// place a mismatch can occur, and it only needs to know whether the shapes
// agree).
type FuncType struct {
	Params  int
	Results int
}

// CompiledFunc is one function segment: an offset into the owning Module's
// Code plus its signature and local-variable count.
type CompiledFunc struct {
	Signature  FuncType
	CodeOffset int
	NumLocals  int
}

// BranchTable holds the jump targets for one BrTable instruction. Index is
// clamped to the last entry on out-of-range, never trapped — spec.md §4.1
// and §8 both call this out explicitly as a saturating, not trapping,
// boundary behavior.
type BranchTable struct {
	Targets []int32
}

func (b BranchTable) Target(index uint32) int32 {
	if int(index) >= len(b.Targets) {
		return b.Targets[len(b.Targets)-1]
	}
	return b.Targets[index]
}

// Module is the immutable compiled program image the interpreter runs:
// code section, function-segment table, memory/table sections, and
// element/data segments. Function indices are resolved at compile time
// (Builder.Finish); there is no runtime linking, per spec.md §6.4.
type Module struct {
	Code          Code
	Funcs         []CompiledFunc
	BranchTables  []BranchTable
	MemoryPages   uint32
	MemoryMax     uint32
	TableSize     uint32
	TableMax      uint32
	DataSegments  []*DataSegment
	ElemSegments  []*ElementSegment
	Globals       []Value
	EntryFunc     int
	Hash          evmtypes.Hash
}

// Builder assembles a Module programmatically. A compiled rwasm module
// normally arrives from an upstream Rust compiler (out of scope here, per
// spec.md §1); Builder exists so tests and cmd/rwasmrun can construct
// worked examples in-process. Finish checks the entry function index,
// call_internal/return_call_internal targets, global.get/global.set
// indices and br_table's table index; branch offsets and other table
// indices are not checked.
type Builder struct {
	code         Code
	funcs        []CompiledFunc
	branchTables []BranchTable
	globals      []Value
	dataSegments []*DataSegment
	elemSegments []*ElementSegment
	memoryPages  uint32
	memoryMax    uint32
	tableSize    uint32
	tableMax     uint32
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) SetMemory(initialPages, maxPages uint32) *Builder {
	b.memoryPages, b.memoryMax = initialPages, maxPages
	return b
}

func (b *Builder) SetTable(size, max uint32) *Builder {
	b.tableSize, b.tableMax = size, max
	return b
}

func (b *Builder) AddGlobal(v Value) uint32 {
	b.globals = append(b.globals, v)
	return uint32(len(b.globals) - 1)
}

func (b *Builder) AddDataSegment(data []byte) uint32 {
	b.dataSegments = append(b.dataSegments, NewDataSegment(data))
	return uint32(len(b.dataSegments) - 1)
}

func (b *Builder) AddElemSegment(elems []FuncRef) uint32 {
	b.elemSegments = append(b.elemSegments, NewElementSegment(elems))
	return uint32(len(b.elemSegments) - 1)
}

func (b *Builder) AddBranchTable(targets []int32) uint32 {
	b.branchTables = append(b.branchTables, BranchTable{Targets: targets})
	return uint32(len(b.branchTables) - 1)
}

// AddFunc appends code for one function and returns its function index.
// Callers are responsible for making sure every branch/call instruction in
// code targets an offset that will end up in-bounds once all functions are
// concatenated; AddFunc records the function's own base offset for that
// purpose.
func (b *Builder) AddFunc(sig FuncType, numLocals int, code Code) uint32 {
	offset := len(b.code)
	b.code = append(b.code, code...)
	b.funcs = append(b.funcs, CompiledFunc{Signature: sig, CodeOffset: offset, NumLocals: numLocals})
	return uint32(len(b.funcs) - 1)
}

// Finish validates every structural reference and returns the compiled
// Module. Validation is deliberately shallow (bounds checks only, no
// type-checking of stack effects) — rwasm's own frontend is responsible
// for producing well-typed code; this Builder only needs to catch the
// mistakes a hand-assembled test fixture could plausibly make.
func (b *Builder) Finish(entryFunc int) (*Module, error) {
	if entryFunc < 0 || entryFunc >= len(b.funcs) {
		return nil, evmtypes.ConstError("rwasm: entry function index out of bounds")
	}
	for _, ins := range b.code {
		switch ins.Op {
		case OpCallInternal, OpReturnCallInternal:
			if ins.Index() >= uint32(len(b.funcs)) {
				return nil, evmtypes.ConstError("rwasm: call_internal target out of bounds")
			}
		case OpGlobalGet, OpGlobalSet:
			if ins.Index() >= uint32(len(b.globals)) {
				return nil, evmtypes.ConstError("rwasm: global index out of bounds")
			}
		case OpBrTable:
			if ins.Index() >= uint32(len(b.branchTables)) {
				return nil, evmtypes.ConstError("rwasm: br_table index out of bounds")
			}
		}
	}
	m := &Module{
		Code:         b.code,
		Funcs:        b.funcs,
		BranchTables: b.branchTables,
		MemoryPages:  b.memoryPages,
		MemoryMax:    b.memoryMax,
		TableSize:    b.tableSize,
		TableMax:     b.tableMax,
		DataSegments: b.dataSegments,
		ElemSegments: b.elemSegments,
		Globals:      append([]Value(nil), b.globals...),
		EntryFunc:    entryFunc,
	}
	return m, nil
}
