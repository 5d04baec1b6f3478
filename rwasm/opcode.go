package rwasm

// OpCode enumerates every instruction variant the interpreter dispatches.
// The set is WebAssembly-derived (rwasm is a canonical reduction of Wasm),
// not EVM-derived — there is deliberately no overlap with an EVM opcode
// table here; that boundary is mediated entirely through the syscall
// dispatcher in package syscall.
type OpCode uint16

const (
	OpUnreachable OpCode = iota
	OpConsumeFuel

	// Locals / globals.
	OpLocalGet
	OpLocalSet
	OpLocalTee
	OpGlobalGet
	OpGlobalSet

	// Structured / unstructured branches.
	OpBr
	OpBrIfEqz
	OpBrIfNez
	OpBrAdjust
	OpBrAdjustIfNez
	OpBrTable

	// Call / return family.
	OpReturn
	OpReturnIfNez
	OpReturnCallInternal
	OpReturnCall
	OpReturnCallIndirect
	OpCallInternal
	OpCall
	OpCallIndirect
	OpSignatureCheck

	OpDrop
	OpSelect

	// Memory loads.
	OpI32Load
	OpI64Load
	OpF32Load
	OpF64Load
	OpI32Load8S
	OpI32Load8U
	OpI32Load16S
	OpI32Load16U
	OpI64Load8S
	OpI64Load8U
	OpI64Load16S
	OpI64Load16U
	OpI64Load32S
	OpI64Load32U

	// Memory stores.
	OpI32Store
	OpI64Store
	OpF32Store
	OpF64Store
	OpI32Store8
	OpI32Store16
	OpI64Store8
	OpI64Store16
	OpI64Store32

	// Memory bulk ops.
	OpMemorySize
	OpMemoryGrow
	OpMemoryFill
	OpMemoryCopy
	OpMemoryInit
	OpDataDrop

	// Table ops.
	OpTableSize
	OpTableGrow
	OpTableFill
	OpTableGet
	OpTableSet
	OpTableCopy
	OpTableInit
	OpElemDrop
	OpRefFunc

	// Constants — all four map onto one untyped 64-bit immediate, matching
	// rwasm's single Value representation.
	OpI32Const
	OpI64Const
	OpF32Const
	OpF64Const

	// i32 comparisons.
	OpI32Eqz
	OpI32Eq
	OpI32Ne
	OpI32LtS
	OpI32LtU
	OpI32GtS
	OpI32GtU
	OpI32LeS
	OpI32LeU
	OpI32GeS
	OpI32GeU

	// i64 comparisons.
	OpI64Eqz
	OpI64Eq
	OpI64Ne
	OpI64LtS
	OpI64LtU
	OpI64GtS
	OpI64GtU
	OpI64LeS
	OpI64LeU
	OpI64GeS
	OpI64GeU

	// f32 comparisons.
	OpF32Eq
	OpF32Ne
	OpF32Lt
	OpF32Gt
	OpF32Le
	OpF32Ge

	// f64 comparisons.
	OpF64Eq
	OpF64Ne
	OpF64Lt
	OpF64Gt
	OpF64Le
	OpF64Ge

	// i32 arithmetic.
	OpI32Clz
	OpI32Ctz
	OpI32Popcnt
	OpI32Add
	OpI32Sub
	OpI32Mul
	OpI32DivS
	OpI32DivU
	OpI32RemS
	OpI32RemU
	OpI32And
	OpI32Or
	OpI32Xor
	OpI32Shl
	OpI32ShrS
	OpI32ShrU
	OpI32Rotl
	OpI32Rotr

	// i64 arithmetic.
	OpI64Clz
	OpI64Ctz
	OpI64Popcnt
	OpI64Add
	OpI64Sub
	OpI64Mul
	OpI64DivS
	OpI64DivU
	OpI64RemS
	OpI64RemU
	OpI64And
	OpI64Or
	OpI64Xor
	OpI64Shl
	OpI64ShrS
	OpI64ShrU
	OpI64Rotl
	OpI64Rotr

	// f32 arithmetic.
	OpF32Abs
	OpF32Neg
	OpF32Ceil
	OpF32Floor
	OpF32Trunc
	OpF32Nearest
	OpF32Sqrt
	OpF32Add
	OpF32Sub
	OpF32Mul
	OpF32Div
	OpF32Min
	OpF32Max
	OpF32Copysign

	// f64 arithmetic.
	OpF64Abs
	OpF64Neg
	OpF64Ceil
	OpF64Floor
	OpF64Trunc
	OpF64Nearest
	OpF64Sqrt
	OpF64Add
	OpF64Sub
	OpF64Mul
	OpF64Div
	OpF64Min
	OpF64Max
	OpF64Copysign

	// Conversions.
	OpI32WrapI64
	OpI32TruncF32S
	OpI32TruncF32U
	OpI32TruncF64S
	OpI32TruncF64U
	OpI64ExtendI32S
	OpI64ExtendI32U
	OpI64TruncF32S
	OpI64TruncF32U
	OpI64TruncF64S
	OpI64TruncF64U
	OpF32ConvertI32S
	OpF32ConvertI32U
	OpF32ConvertI64S
	OpF32ConvertI64U
	OpF32DemoteF64
	OpF64ConvertI32S
	OpF64ConvertI32U
	OpF64ConvertI64S
	OpF64ConvertI64U
	OpF64PromoteF32
	OpI32ReinterpretF32
	OpI64ReinterpretF64
	OpF32ReinterpretI32
	OpF64ReinterpretI64

	// Sign-extension operators.
	OpI32Extend8S
	OpI32Extend16S
	OpI64Extend8S
	OpI64Extend16S
	OpI64Extend32S

	// Saturating truncation — never traps, unlike the plain Trunc family.
	OpI32TruncSatF32S
	OpI32TruncSatF32U
	OpI32TruncSatF64S
	OpI32TruncSatF64U
	OpI64TruncSatF32S
	OpI64TruncSatF32U
	OpI64TruncSatF64S
	OpI64TruncSatF64U

	opCodeCount
)

var opNames = [opCodeCount]string{
	OpUnreachable: "unreachable", OpConsumeFuel: "consume_fuel",
	OpLocalGet: "local.get", OpLocalSet: "local.set", OpLocalTee: "local.tee",
	OpGlobalGet: "global.get", OpGlobalSet: "global.set",
	OpBr: "br", OpBrIfEqz: "br_if_eqz", OpBrIfNez: "br_if_nez",
	OpBrAdjust: "br_adjust", OpBrAdjustIfNez: "br_adjust_if_nez", OpBrTable: "br_table",
	OpReturn: "return", OpReturnIfNez: "return_if_nez",
	OpReturnCallInternal: "return_call_internal", OpReturnCall: "return_call",
	OpReturnCallIndirect: "return_call_indirect", OpCallInternal: "call_internal",
	OpCall: "call", OpCallIndirect: "call_indirect", OpSignatureCheck: "signature_check",
	OpDrop: "drop", OpSelect: "select",
	OpI32Load: "i32.load", OpI64Load: "i64.load", OpF32Load: "f32.load", OpF64Load: "f64.load",
	OpI32Load8S: "i32.load8_s", OpI32Load8U: "i32.load8_u",
	OpI32Load16S: "i32.load16_s", OpI32Load16U: "i32.load16_u",
	OpI64Load8S: "i64.load8_s", OpI64Load8U: "i64.load8_u",
	OpI64Load16S: "i64.load16_s", OpI64Load16U: "i64.load16_u",
	OpI64Load32S: "i64.load32_s", OpI64Load32U: "i64.load32_u",
	OpI32Store: "i32.store", OpI64Store: "i64.store", OpF32Store: "f32.store", OpF64Store: "f64.store",
	OpI32Store8: "i32.store8", OpI32Store16: "i32.store16",
	OpI64Store8: "i64.store8", OpI64Store16: "i64.store16", OpI64Store32: "i64.store32",
	OpMemorySize: "memory.size", OpMemoryGrow: "memory.grow", OpMemoryFill: "memory.fill",
	OpMemoryCopy: "memory.copy", OpMemoryInit: "memory.init", OpDataDrop: "data.drop",
	OpTableSize: "table.size", OpTableGrow: "table.grow", OpTableFill: "table.fill",
	OpTableGet: "table.get", OpTableSet: "table.set", OpTableCopy: "table.copy",
	OpTableInit: "table.init", OpElemDrop: "elem.drop", OpRefFunc: "ref.func",
	OpI32Const: "i32.const", OpI64Const: "i64.const", OpF32Const: "f32.const", OpF64Const: "f64.const",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "op(" + itoa(int(op)) + ")"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
