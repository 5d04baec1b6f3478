package rwasm

// stepMemory handles spec.md §4.1 shapes (4) memory/table bulk ops and the
// load/store instructions that shape (1) doesn't cover (they pop an
// address, not two operands, and may trap on out-of-bounds rather than
// only on division).
func (st *Store) stepMemory(frame *CallFrame, ins Instruction) (error, bool) {
	s := frame.Stack
	mem := frame.Memory
	switch ins.Op {

	case OpI32Load:
		return loadInto(frame, mem, func(off uint64) (Value, error) {
			v, err := mem.LoadI32(off)
			return ValueFromI32(v), err
		})
	case OpI64Load:
		return loadInto(frame, mem, func(off uint64) (Value, error) {
			v, err := mem.LoadI64(off)
			return ValueFromI64(v), err
		})
	case OpF32Load:
		return loadInto(frame, mem, func(off uint64) (Value, error) {
			v, err := mem.LoadI32(off)
			return Value(uint32(v)), err
		})
	case OpF64Load:
		return loadInto(frame, mem, func(off uint64) (Value, error) {
			v, err := mem.LoadI64(off)
			return Value(uint64(v)), err
		})
	case OpI32Load8S:
		return loadWidth(frame, mem, 1, func(b []byte) Value { return ValueFromI32(int32(int8(b[0]))) })
	case OpI32Load8U:
		return loadWidth(frame, mem, 1, func(b []byte) Value { return ValueFromU32(uint32(b[0])) })
	case OpI32Load16S:
		return loadWidth(frame, mem, 2, func(b []byte) Value { return ValueFromI32(int32(int16(leBytes(b)))) })
	case OpI32Load16U:
		return loadWidth(frame, mem, 2, func(b []byte) Value { return ValueFromU32(uint32(leBytes(b))) })
	case OpI64Load8S:
		return loadWidth(frame, mem, 1, func(b []byte) Value { return ValueFromI64(int64(int8(b[0]))) })
	case OpI64Load8U:
		return loadWidth(frame, mem, 1, func(b []byte) Value { return ValueFromU64(uint64(b[0])) })
	case OpI64Load16S:
		return loadWidth(frame, mem, 2, func(b []byte) Value { return ValueFromI64(int64(int16(leBytes(b)))) })
	case OpI64Load16U:
		return loadWidth(frame, mem, 2, func(b []byte) Value { return ValueFromU64(leBytes(b)) })
	case OpI64Load32S:
		return loadWidth(frame, mem, 4, func(b []byte) Value { return ValueFromI64(int64(int32(leBytes(b)))) })
	case OpI64Load32U:
		return loadWidth(frame, mem, 4, func(b []byte) Value { return ValueFromU64(leBytes(b)) })

	case OpI32Store:
		return storeFrom(frame, mem, func(off uint64, v Value) error { return mem.StoreI32(off, v.I32()) })
	case OpI64Store:
		return storeFrom(frame, mem, func(off uint64, v Value) error { return mem.StoreI64(off, v.I64()) })
	case OpF32Store:
		return storeFrom(frame, mem, func(off uint64, v Value) error { return mem.StoreI32(off, int32(uint32(v))) })
	case OpF64Store:
		return storeFrom(frame, mem, func(off uint64, v Value) error { return mem.StoreI64(off, int64(uint64(v))) })
	case OpI32Store8:
		return storeWidth(frame, mem, func(v Value) []byte { return []byte{byte(v.U32())} })
	case OpI32Store16:
		return storeWidth(frame, mem, func(v Value) []byte {
			u := v.U32()
			return []byte{byte(u), byte(u >> 8)}
		})
	case OpI64Store8:
		return storeWidth(frame, mem, func(v Value) []byte { return []byte{byte(v.U64())} })
	case OpI64Store16:
		return storeWidth(frame, mem, func(v Value) []byte {
			u := v.U64()
			return []byte{byte(u), byte(u >> 8)}
		})
	case OpI64Store32:
		return storeWidth(frame, mem, func(v Value) []byte {
			u := v.U64()
			return []byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24)}
		})

	case OpMemorySize:
		return framePush(frame, ValueFromU32(mem.Pages())), true

	case OpMemoryGrow:
		delta := s.Pop().U32()
		if cur := mem.Pages(); delta != 0 && cur+delta >= cur && (mem.maxPages == 0 || cur+delta <= mem.maxPages) {
			if frame.Fuel != nil && !frame.Fuel.RecordCost(expansionCost(cur, cur+delta)) {
				return haltOutOfFuel(frame), true
			}
		}
		old, ok := mem.Grow(delta, nil)
		if !ok {
			return framePush(frame, ValueFromU32(0xFFFFFFFF)), true
		}
		return framePush(frame, ValueFromU32(old)), true

	case OpMemoryFill:
		length := s.Pop().U32()
		val := byte(s.Pop().U32())
		offset := s.Pop().U32()
		if frame.Fuel != nil && !frame.Fuel.RecordCost(frame.Fuel.FuelForBytes(uint64(length))) {
			return haltOutOfFuel(frame), true
		}
		if err := mem.Fill(uint64(offset), uint64(length), val); err != nil {
			return err, true
		}
		return stepNext(frame), true

	case OpMemoryCopy:
		length := s.Pop().U32()
		src := s.Pop().U32()
		dst := s.Pop().U32()
		if frame.Fuel != nil && !frame.Fuel.RecordCost(frame.Fuel.FuelForBytes(uint64(length))) {
			return haltOutOfFuel(frame), true
		}
		if err := mem.Copy(uint64(dst), uint64(src), uint64(length)); err != nil {
			return err, true
		}
		return stepNext(frame), true

	case OpMemoryInit:
		length := s.Pop().U32()
		segOffset := s.Pop().U32()
		offset := s.Pop().U32()
		seg := frame.Module.DataSegments[ins.Index()]
		if frame.Fuel != nil && !frame.Fuel.RecordCost(frame.Fuel.FuelForBytes(uint64(length))) {
			return haltOutOfFuel(frame), true
		}
		if err := mem.Init(uint64(offset), seg.View(), uint64(segOffset), uint64(length)); err != nil {
			return err, true
		}
		return stepNext(frame), true

	case OpDataDrop:
		frame.Module.DataSegments[ins.Index()].Drop()
		return stepNext(frame), true

	case OpTableSize:
		return framePush(frame, ValueFromU32(frame.Tables[0].Size())), true

	case OpTableGrow:
		delta := s.Pop().U32()
		fill := FuncRef(s.Pop().I32())
		if frame.Fuel != nil && !frame.Fuel.RecordCost(frame.Fuel.FuelForElements(uint64(delta))) {
			return haltOutOfFuel(frame), true
		}
		old, ok := frame.Tables[0].Grow(delta, fill)
		if !ok {
			return framePush(frame, ValueFromU32(0xFFFFFFFF)), true
		}
		return framePush(frame, ValueFromU32(old)), true

	case OpTableFill:
		length := s.Pop().U32()
		fill := FuncRef(s.Pop().I32())
		offset := s.Pop().U32()
		if frame.Fuel != nil && !frame.Fuel.RecordCost(frame.Fuel.FuelForElements(uint64(length))) {
			return haltOutOfFuel(frame), true
		}
		if err := frame.Tables[0].Fill(offset, length, fill); err != nil {
			return err, true
		}
		return stepNext(frame), true

	case OpTableGet:
		idx := s.Pop().U32()
		ref, err := frame.Tables[0].Get(idx)
		if err != nil {
			return err, true
		}
		return framePush(frame, Value(uint32(int32(ref)))), true

	case OpTableSet:
		ref := FuncRef(s.Pop().I32())
		idx := s.Pop().U32()
		if err := frame.Tables[0].Set(idx, ref); err != nil {
			return err, true
		}
		return stepNext(frame), true

	case OpTableCopy:
		length := s.Pop().U32()
		src := s.Pop().U32()
		dst := s.Pop().U32()
		if frame.Fuel != nil && !frame.Fuel.RecordCost(frame.Fuel.FuelForElements(uint64(length))) {
			return haltOutOfFuel(frame), true
		}
		if err := frame.Tables[0].Copy(dst, src, length); err != nil {
			return err, true
		}
		return stepNext(frame), true

	case OpTableInit:
		length := s.Pop().U32()
		segOffset := s.Pop().U32()
		offset := s.Pop().U32()
		seg := frame.Module.ElemSegments[ins.Index()]
		if frame.Fuel != nil && !frame.Fuel.RecordCost(frame.Fuel.FuelForElements(uint64(length))) {
			return haltOutOfFuel(frame), true
		}
		if err := frame.Tables[0].Init(offset, seg, segOffset, length); err != nil {
			return err, true
		}
		return stepNext(frame), true

	case OpElemDrop:
		frame.Module.ElemSegments[ins.Index()].Drop()
		return stepNext(frame), true
	}
	return nil, false
}

func haltOutOfFuel(frame *CallFrame) error {
	frame.Status = StatusHalted
	frame.ExitCode = ExitOutOfFuel
	return nil
}

func loadInto(frame *CallFrame, mem *Memory, f func(uint64) (Value, error)) (error, bool) {
	off := uint64(frame.Stack.Pop().U32())
	v, err := f(off)
	if err != nil {
		return err, true
	}
	return framePush(frame, v), true
}

// leBytes decodes up to 8 bytes as a little-endian unsigned integer,
// matching the syscall ABI's own little-endian convention for multi-byte
// integers (spec.md §6.1) so both layers agree on byte order.
func leBytes(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func loadWidth(frame *CallFrame, mem *Memory, width int, decode func([]byte) Value) (error, bool) {
	off := uint64(frame.Stack.Pop().U32())
	buf := make([]byte, width)
	if err := mem.ReadAt(off, buf); err != nil {
		return err, true
	}
	return framePush(frame, decode(buf)), true
}

func storeFrom(frame *CallFrame, mem *Memory, f func(uint64, Value) error) (error, bool) {
	v := frame.Stack.Pop()
	off := uint64(frame.Stack.Pop().U32())
	if err := f(off, v); err != nil {
		return err, true
	}
	return stepNext(frame), true
}

func storeWidth(frame *CallFrame, mem *Memory, encode func(Value) []byte) (error, bool) {
	v := frame.Stack.Pop()
	off := uint64(frame.Stack.Pop().U32())
	if err := mem.Write(off, encode(v)); err != nil {
		return err, true
	}
	return stepNext(frame), true
}
