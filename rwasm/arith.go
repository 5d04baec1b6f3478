package rwasm

import "math"
import "math/bits"

// stepArith handles every instruction in spec.md §4.1 shape (1): stack
// arithmetic, comparison, and conversion. It returns handled=false for any
// opcode outside this shape so step's giant switch can fall through to
// stepMemory and finally the default trap.
func (st *Store) stepArith(frame *CallFrame, ins Instruction) (err error, handled bool) {
	s := frame.Stack
	switch ins.Op {

	// --- i32 comparisons ---
	case OpI32Eqz:
		return framePush(frame, ValueFromBool(s.Pop().I32() == 0)), true
	case OpI32Eq:
		b, a := s.Pop().I32(), s.Pop().I32()
		return framePush(frame, ValueFromBool(a == b)), true
	case OpI32Ne:
		b, a := s.Pop().I32(), s.Pop().I32()
		return framePush(frame, ValueFromBool(a != b)), true
	case OpI32LtS:
		b, a := s.Pop().I32(), s.Pop().I32()
		return framePush(frame, ValueFromBool(a < b)), true
	case OpI32LtU:
		b, a := s.Pop().U32(), s.Pop().U32()
		return framePush(frame, ValueFromBool(a < b)), true
	case OpI32GtS:
		b, a := s.Pop().I32(), s.Pop().I32()
		return framePush(frame, ValueFromBool(a > b)), true
	case OpI32GtU:
		b, a := s.Pop().U32(), s.Pop().U32()
		return framePush(frame, ValueFromBool(a > b)), true
	case OpI32LeS:
		b, a := s.Pop().I32(), s.Pop().I32()
		return framePush(frame, ValueFromBool(a <= b)), true
	case OpI32LeU:
		b, a := s.Pop().U32(), s.Pop().U32()
		return framePush(frame, ValueFromBool(a <= b)), true
	case OpI32GeS:
		b, a := s.Pop().I32(), s.Pop().I32()
		return framePush(frame, ValueFromBool(a >= b)), true
	case OpI32GeU:
		b, a := s.Pop().U32(), s.Pop().U32()
		return framePush(frame, ValueFromBool(a >= b)), true

	// --- i64 comparisons ---
	case OpI64Eqz:
		return framePush(frame, ValueFromBool(s.Pop().I64() == 0)), true
	case OpI64Eq:
		b, a := s.Pop().I64(), s.Pop().I64()
		return framePush(frame, ValueFromBool(a == b)), true
	case OpI64Ne:
		b, a := s.Pop().I64(), s.Pop().I64()
		return framePush(frame, ValueFromBool(a != b)), true
	case OpI64LtS:
		b, a := s.Pop().I64(), s.Pop().I64()
		return framePush(frame, ValueFromBool(a < b)), true
	case OpI64LtU:
		b, a := s.Pop().U64(), s.Pop().U64()
		return framePush(frame, ValueFromBool(a < b)), true
	case OpI64GtS:
		b, a := s.Pop().I64(), s.Pop().I64()
		return framePush(frame, ValueFromBool(a > b)), true
	case OpI64GtU:
		b, a := s.Pop().U64(), s.Pop().U64()
		return framePush(frame, ValueFromBool(a > b)), true
	case OpI64LeS:
		b, a := s.Pop().I64(), s.Pop().I64()
		return framePush(frame, ValueFromBool(a <= b)), true
	case OpI64LeU:
		b, a := s.Pop().U64(), s.Pop().U64()
		return framePush(frame, ValueFromBool(a <= b)), true
	case OpI64GeS:
		b, a := s.Pop().I64(), s.Pop().I64()
		return framePush(frame, ValueFromBool(a >= b)), true
	case OpI64GeU:
		b, a := s.Pop().U64(), s.Pop().U64()
		return framePush(frame, ValueFromBool(a >= b)), true

	// --- f32/f64 comparisons. Eq, Lt, Gt, Le and Ge return false when
	// either operand is NaN, and Ne returns true, matching WebAssembly's
	// IEEE-754 semantics (Go's own operators behave the same way). ---
	case OpF32Eq:
		b, a := s.Pop().F32(), s.Pop().F32()
		return framePush(frame, ValueFromBool(a == b)), true
	case OpF32Ne:
		b, a := s.Pop().F32(), s.Pop().F32()
		return framePush(frame, ValueFromBool(a != b)), true
	case OpF32Lt:
		b, a := s.Pop().F32(), s.Pop().F32()
		return framePush(frame, ValueFromBool(a < b)), true
	case OpF32Gt:
		b, a := s.Pop().F32(), s.Pop().F32()
		return framePush(frame, ValueFromBool(a > b)), true
	case OpF32Le:
		b, a := s.Pop().F32(), s.Pop().F32()
		return framePush(frame, ValueFromBool(a <= b)), true
	case OpF32Ge:
		b, a := s.Pop().F32(), s.Pop().F32()
		return framePush(frame, ValueFromBool(a >= b)), true
	case OpF64Eq:
		b, a := s.Pop().F64(), s.Pop().F64()
		return framePush(frame, ValueFromBool(a == b)), true
	case OpF64Ne:
		b, a := s.Pop().F64(), s.Pop().F64()
		return framePush(frame, ValueFromBool(a != b)), true
	case OpF64Lt:
		b, a := s.Pop().F64(), s.Pop().F64()
		return framePush(frame, ValueFromBool(a < b)), true
	case OpF64Gt:
		b, a := s.Pop().F64(), s.Pop().F64()
		return framePush(frame, ValueFromBool(a > b)), true
	case OpF64Le:
		b, a := s.Pop().F64(), s.Pop().F64()
		return framePush(frame, ValueFromBool(a <= b)), true
	case OpF64Ge:
		b, a := s.Pop().F64(), s.Pop().F64()
		return framePush(frame, ValueFromBool(a >= b)), true

	// --- i32 arithmetic ---
	case OpI32Clz:
		return framePush(frame, ValueFromI32(int32(bits.LeadingZeros32(s.Pop().U32())))), true
	case OpI32Ctz:
		return framePush(frame, ValueFromI32(int32(bits.TrailingZeros32(s.Pop().U32())))), true
	case OpI32Popcnt:
		return framePush(frame, ValueFromI32(int32(bits.OnesCount32(s.Pop().U32())))), true
	case OpI32Add:
		b, a := s.Pop().U32(), s.Pop().U32()
		return framePush(frame, ValueFromU32(a+b)), true
	case OpI32Sub:
		b, a := s.Pop().U32(), s.Pop().U32()
		return framePush(frame, ValueFromU32(a-b)), true
	case OpI32Mul:
		b, a := s.Pop().U32(), s.Pop().U32()
		return framePush(frame, ValueFromU32(a*b)), true
	case OpI32DivS:
		b, a := s.Pop().I32(), s.Pop().I32()
		if b == 0 {
			return TrapDivisionByZero, true
		}
		if a == math.MinInt32 && b == -1 {
			return TrapIntegerOverflow, true
		}
		return framePush(frame, ValueFromI32(a/b)), true
	case OpI32DivU:
		b, a := s.Pop().U32(), s.Pop().U32()
		if b == 0 {
			return TrapDivisionByZero, true
		}
		return framePush(frame, ValueFromU32(a/b)), true
	case OpI32RemS:
		b, a := s.Pop().I32(), s.Pop().I32()
		if b == 0 {
			return TrapDivisionByZero, true
		}
		if a == math.MinInt32 && b == -1 {
			return framePush(frame, ValueFromI32(0)), true
		}
		return framePush(frame, ValueFromI32(a%b)), true
	case OpI32RemU:
		b, a := s.Pop().U32(), s.Pop().U32()
		if b == 0 {
			return TrapDivisionByZero, true
		}
		return framePush(frame, ValueFromU32(a%b)), true
	case OpI32And:
		b, a := s.Pop().U32(), s.Pop().U32()
		return framePush(frame, ValueFromU32(a&b)), true
	case OpI32Or:
		b, a := s.Pop().U32(), s.Pop().U32()
		return framePush(frame, ValueFromU32(a|b)), true
	case OpI32Xor:
		b, a := s.Pop().U32(), s.Pop().U32()
		return framePush(frame, ValueFromU32(a^b)), true
	case OpI32Shl:
		b, a := s.Pop().U32(), s.Pop().U32()
		return framePush(frame, ValueFromU32(a<<(b&31))), true
	case OpI32ShrS:
		b, a := s.Pop().U32(), s.Pop().I32()
		return framePush(frame, ValueFromI32(a>>(b&31))), true
	case OpI32ShrU:
		b, a := s.Pop().U32(), s.Pop().U32()
		return framePush(frame, ValueFromU32(a>>(b&31))), true
	case OpI32Rotl:
		b, a := s.Pop().U32(), s.Pop().U32()
		return framePush(frame, ValueFromU32(bits.RotateLeft32(a, int(b&31)))), true
	case OpI32Rotr:
		b, a := s.Pop().U32(), s.Pop().U32()
		return framePush(frame, ValueFromU32(bits.RotateLeft32(a, -int(b&31)))), true

	// --- i64 arithmetic ---
	case OpI64Clz:
		return framePush(frame, ValueFromI64(int64(bits.LeadingZeros64(s.Pop().U64())))), true
	case OpI64Ctz:
		return framePush(frame, ValueFromI64(int64(bits.TrailingZeros64(s.Pop().U64())))), true
	case OpI64Popcnt:
		return framePush(frame, ValueFromI64(int64(bits.OnesCount64(s.Pop().U64())))), true
	case OpI64Add:
		b, a := s.Pop().U64(), s.Pop().U64()
		return framePush(frame, ValueFromU64(a+b)), true
	case OpI64Sub:
		b, a := s.Pop().U64(), s.Pop().U64()
		return framePush(frame, ValueFromU64(a-b)), true
	case OpI64Mul:
		b, a := s.Pop().U64(), s.Pop().U64()
		return framePush(frame, ValueFromU64(a*b)), true
	case OpI64DivS:
		b, a := s.Pop().I64(), s.Pop().I64()
		if b == 0 {
			return TrapDivisionByZero, true
		}
		if a == math.MinInt64 && b == -1 {
			return TrapIntegerOverflow, true
		}
		return framePush(frame, ValueFromI64(a/b)), true
	case OpI64DivU:
		b, a := s.Pop().U64(), s.Pop().U64()
		if b == 0 {
			return TrapDivisionByZero, true
		}
		return framePush(frame, ValueFromU64(a/b)), true
	case OpI64RemS:
		b, a := s.Pop().I64(), s.Pop().I64()
		if b == 0 {
			return TrapDivisionByZero, true
		}
		if a == math.MinInt64 && b == -1 {
			return framePush(frame, ValueFromI64(0)), true
		}
		return framePush(frame, ValueFromI64(a%b)), true
	case OpI64RemU:
		b, a := s.Pop().U64(), s.Pop().U64()
		if b == 0 {
			return TrapDivisionByZero, true
		}
		return framePush(frame, ValueFromU64(a%b)), true
	case OpI64And:
		b, a := s.Pop().U64(), s.Pop().U64()
		return framePush(frame, ValueFromU64(a&b)), true
	case OpI64Or:
		b, a := s.Pop().U64(), s.Pop().U64()
		return framePush(frame, ValueFromU64(a|b)), true
	case OpI64Xor:
		b, a := s.Pop().U64(), s.Pop().U64()
		return framePush(frame, ValueFromU64(a^b)), true
	case OpI64Shl:
		b, a := s.Pop().U64(), s.Pop().U64()
		return framePush(frame, ValueFromU64(a<<(b&63))), true
	case OpI64ShrS:
		b, a := s.Pop().U64(), s.Pop().I64()
		return framePush(frame, ValueFromI64(a>>(b&63))), true
	case OpI64ShrU:
		b, a := s.Pop().U64(), s.Pop().U64()
		return framePush(frame, ValueFromU64(a>>(b&63))), true
	case OpI64Rotl:
		b, a := s.Pop().U64(), s.Pop().U64()
		return framePush(frame, ValueFromU64(bits.RotateLeft64(a, int(b&63)))), true
	case OpI64Rotr:
		b, a := s.Pop().U64(), s.Pop().U64()
		return framePush(frame, ValueFromU64(bits.RotateLeft64(a, -int(b&63)))), true

	// --- f32 arithmetic ---
	case OpF32Abs:
		return framePush(frame, ValueFromF32(float32(math.Abs(float64(s.Pop().F32()))))), true
	case OpF32Neg:
		return framePush(frame, ValueFromF32(-s.Pop().F32())), true
	case OpF32Ceil:
		return framePush(frame, ValueFromF32(float32(math.Ceil(float64(s.Pop().F32()))))), true
	case OpF32Floor:
		return framePush(frame, ValueFromF32(float32(math.Floor(float64(s.Pop().F32()))))), true
	case OpF32Trunc:
		return framePush(frame, ValueFromF32(float32(math.Trunc(float64(s.Pop().F32()))))), true
	case OpF32Nearest:
		return framePush(frame, ValueFromF32(float32(math.RoundToEven(float64(s.Pop().F32()))))), true
	case OpF32Sqrt:
		return framePush(frame, ValueFromF32(float32(math.Sqrt(float64(s.Pop().F32()))))), true
	case OpF32Add:
		b, a := s.Pop().F32(), s.Pop().F32()
		return framePush(frame, ValueFromF32(a+b)), true
	case OpF32Sub:
		b, a := s.Pop().F32(), s.Pop().F32()
		return framePush(frame, ValueFromF32(a-b)), true
	case OpF32Mul:
		b, a := s.Pop().F32(), s.Pop().F32()
		return framePush(frame, ValueFromF32(a*b)), true
	case OpF32Div:
		b, a := s.Pop().F32(), s.Pop().F32()
		return framePush(frame, ValueFromF32(a/b)), true
	case OpF32Min:
		b, a := s.Pop().F32(), s.Pop().F32()
		return framePush(frame, ValueFromF32(float32(math.Min(float64(a), float64(b))))), true
	case OpF32Max:
		b, a := s.Pop().F32(), s.Pop().F32()
		return framePush(frame, ValueFromF32(float32(math.Max(float64(a), float64(b))))), true
	case OpF32Copysign:
		b, a := s.Pop().F32(), s.Pop().F32()
		return framePush(frame, ValueFromF32(float32(math.Copysign(float64(a), float64(b))))), true

	// --- f64 arithmetic ---
	case OpF64Abs:
		return framePush(frame, ValueFromF64(math.Abs(s.Pop().F64()))), true
	case OpF64Neg:
		return framePush(frame, ValueFromF64(-s.Pop().F64())), true
	case OpF64Ceil:
		return framePush(frame, ValueFromF64(math.Ceil(s.Pop().F64()))), true
	case OpF64Floor:
		return framePush(frame, ValueFromF64(math.Floor(s.Pop().F64()))), true
	case OpF64Trunc:
		return framePush(frame, ValueFromF64(math.Trunc(s.Pop().F64()))), true
	case OpF64Nearest:
		return framePush(frame, ValueFromF64(math.RoundToEven(s.Pop().F64()))), true
	case OpF64Sqrt:
		return framePush(frame, ValueFromF64(math.Sqrt(s.Pop().F64()))), true
	case OpF64Add:
		b, a := s.Pop().F64(), s.Pop().F64()
		return framePush(frame, ValueFromF64(a+b)), true
	case OpF64Sub:
		b, a := s.Pop().F64(), s.Pop().F64()
		return framePush(frame, ValueFromF64(a-b)), true
	case OpF64Mul:
		b, a := s.Pop().F64(), s.Pop().F64()
		return framePush(frame, ValueFromF64(a*b)), true
	case OpF64Div:
		b, a := s.Pop().F64(), s.Pop().F64()
		return framePush(frame, ValueFromF64(a/b)), true
	case OpF64Min:
		b, a := s.Pop().F64(), s.Pop().F64()
		return framePush(frame, ValueFromF64(math.Min(a, b))), true
	case OpF64Max:
		b, a := s.Pop().F64(), s.Pop().F64()
		return framePush(frame, ValueFromF64(math.Max(a, b))), true
	case OpF64Copysign:
		b, a := s.Pop().F64(), s.Pop().F64()
		return framePush(frame, ValueFromF64(math.Copysign(a, b))), true

	// --- conversions ---
	case OpI32WrapI64:
		return framePush(frame, ValueFromI32(int32(s.Pop().I64()))), true
	case OpI64ExtendI32S:
		return framePush(frame, ValueFromI64(int64(s.Pop().I32()))), true
	case OpI64ExtendI32U:
		return framePush(frame, ValueFromI64(int64(s.Pop().U32()))), true
	case OpI32Extend8S:
		return framePush(frame, ValueFromI32(int32(int8(s.Pop().I32())))), true
	case OpI32Extend16S:
		return framePush(frame, ValueFromI32(int32(int16(s.Pop().I32())))), true
	case OpI64Extend8S:
		return framePush(frame, ValueFromI64(int64(int8(s.Pop().I64())))), true
	case OpI64Extend16S:
		return framePush(frame, ValueFromI64(int64(int16(s.Pop().I64())))), true
	case OpI64Extend32S:
		return framePush(frame, ValueFromI64(int64(int32(s.Pop().I64())))), true

	case OpI32TruncF32S:
		return truncTo(frame, float64(s.Pop().F32()), -2147483648, 2147483648, func(f float64) Value { return ValueFromI32(int32(f)) })
	case OpI32TruncF32U:
		return truncTo(frame, float64(s.Pop().F32()), 0, 4294967296, func(f float64) Value { return ValueFromU32(uint32(f)) })
	case OpI32TruncF64S:
		return truncTo(frame, s.Pop().F64(), -2147483648, 2147483648, func(f float64) Value { return ValueFromI32(int32(f)) })
	case OpI32TruncF64U:
		return truncTo(frame, s.Pop().F64(), 0, 4294967296, func(f float64) Value { return ValueFromU32(uint32(f)) })
	case OpI64TruncF32S:
		return truncTo(frame, float64(s.Pop().F32()), -9223372036854775808, 9223372036854775808, func(f float64) Value { return ValueFromI64(int64(f)) })
	case OpI64TruncF32U:
		return truncTo(frame, float64(s.Pop().F32()), 0, 18446744073709551616, func(f float64) Value { return ValueFromU64(uint64(f)) })
	case OpI64TruncF64S:
		return truncTo(frame, s.Pop().F64(), -9223372036854775808, 9223372036854775808, func(f float64) Value { return ValueFromI64(int64(f)) })
	case OpI64TruncF64U:
		return truncTo(frame, s.Pop().F64(), 0, 18446744073709551616, func(f float64) Value { return ValueFromU64(uint64(f)) })

	case OpI32TruncSatF32S:
		return framePush(frame, ValueFromI32(satI32(float64(s.Pop().F32())))), true
	case OpI32TruncSatF32U:
		return framePush(frame, ValueFromU32(satU32(float64(s.Pop().F32())))), true
	case OpI32TruncSatF64S:
		return framePush(frame, ValueFromI32(satI32(s.Pop().F64()))), true
	case OpI32TruncSatF64U:
		return framePush(frame, ValueFromU32(satU32(s.Pop().F64()))), true
	case OpI64TruncSatF32S:
		return framePush(frame, ValueFromI64(satI64(float64(s.Pop().F32())))), true
	case OpI64TruncSatF32U:
		return framePush(frame, ValueFromU64(satU64(float64(s.Pop().F32())))), true
	case OpI64TruncSatF64S:
		return framePush(frame, ValueFromI64(satI64(s.Pop().F64()))), true
	case OpI64TruncSatF64U:
		return framePush(frame, ValueFromU64(satU64(s.Pop().F64()))), true

	case OpF32ConvertI32S:
		return framePush(frame, ValueFromF32(float32(s.Pop().I32()))), true
	case OpF32ConvertI32U:
		return framePush(frame, ValueFromF32(float32(s.Pop().U32()))), true
	case OpF32ConvertI64S:
		return framePush(frame, ValueFromF32(float32(s.Pop().I64()))), true
	case OpF32ConvertI64U:
		return framePush(frame, ValueFromF32(float32(s.Pop().U64()))), true
	case OpF32DemoteF64:
		return framePush(frame, ValueFromF32(float32(s.Pop().F64()))), true
	case OpF64ConvertI32S:
		return framePush(frame, ValueFromF64(float64(s.Pop().I32()))), true
	case OpF64ConvertI32U:
		return framePush(frame, ValueFromF64(float64(s.Pop().U32()))), true
	case OpF64ConvertI64S:
		return framePush(frame, ValueFromF64(float64(s.Pop().I64()))), true
	case OpF64ConvertI64U:
		return framePush(frame, ValueFromF64(float64(s.Pop().U64()))), true
	case OpF64PromoteF32:
		return framePush(frame, ValueFromF64(float64(s.Pop().F32()))), true

	case OpI32ReinterpretF32, OpI64ReinterpretF64, OpF32ReinterpretI32, OpF64ReinterpretI64:
		// Value is already the shared untyped bit pattern, so reinterpret
		// ops are a no-op at this representation — the type-level
		// distinction only exists in the instruction name.
		return framePush(frame, s.Pop()), true
	}
	return nil, false
}

// truncTo implements the non-saturating *.trunc_f* family: NaN and
// out-of-range values trap with InvalidConversionToInt, matching
// WebAssembly's strict (non-saturating) truncation operators. The range
// test applies to the truncated value: lo is inclusive, hi exclusive.
func truncTo(frame *CallFrame, f float64, lo, hi float64, toValue func(float64) Value) (error, bool) {
	t := math.Trunc(f)
	if math.IsNaN(f) || t < lo || t >= hi {
		return TrapInvalidConversionToInt, true
	}
	return framePush(frame, toValue(t)), true
}

func satI32(f float64) int32 {
	if math.IsNaN(f) {
		return 0
	}
	if f <= -2147483648 {
		return math.MinInt32
	}
	if f >= 2147483647 {
		return math.MaxInt32
	}
	return int32(math.Trunc(f))
}

func satU32(f float64) uint32 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f >= 4294967295 {
		return math.MaxUint32
	}
	return uint32(math.Trunc(f))
}

func satI64(f float64) int64 {
	if math.IsNaN(f) {
		return 0
	}
	if f <= -9223372036854775808 {
		return math.MinInt64
	}
	if f >= 9223372036854775807 {
		return math.MaxInt64
	}
	return int64(math.Trunc(f))
}

func satU64(f float64) uint64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f >= 18446744073709551615 {
		return math.MaxUint64
	}
	return uint64(math.Trunc(f))
}
