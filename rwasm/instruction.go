package rwasm

// DropKeep says "remove Drop values below the top Keep", applied whenever a
// branch leaves a block or a function returns, so that the value stack
// shrinks without losing the values the target expects to find on top.
type DropKeep struct {
	Drop uint32
	Keep uint32
}

// Apply shrinks s by DropKeep's rule: the Keep topmost values slide down by
// Drop slots, and the stack pointer retreats by Drop. It is a fatal logic
// error (not a trap — this is the interpreter's own bookkeeping) to apply a
// DropKeep whose Drop+Keep exceeds the current stack depth; callers are
// expected to have validated this at module build time.
func (dk DropKeep) Apply(s *Stack) {
	if dk.Drop == 0 {
		return
	}
	if dk.Keep == 0 {
		s.sp -= int(dk.Drop)
		return
	}
	src := s.sp - int(dk.Keep)
	dst := src - int(dk.Drop)
	copy(s.values[dst:dst+int(dk.Keep)], s.values[src:src+int(dk.Keep)])
	s.sp -= int(dk.Drop)
}

// Instruction is one decoded rwasm opcode plus its inline immediate. A
// single uint64 immediate covers every shape this instruction set needs:
// branch offsets (sign-extended), local/global/function/table/segment
// indices, and the raw bit pattern of any of the four Const variants.
// BrAdjust/BrAdjustIfNez/Return/ReturnIfNez additionally carry a DropKeep;
// BrTable carries an index into the owning Module's branch-table section
// instead of an offset.
type Instruction struct {
	Op       OpCode
	Imm      uint64
	DropKeep DropKeep
}

func (i Instruction) BranchOffset() int32 { return int32(uint32(i.Imm)) }
func (i Instruction) Index() uint32       { return uint32(i.Imm) }
func (i Instruction) Const() Value        { return Value(i.Imm) }

// Code is the instruction stream of one compiled function: an immutable
// slice the interpreter's ip walks over. Builder.Finish validates call
// targets and global indices but not branch offsets; an ip that a branch
// moves outside Code makes the interpreter halt the frame with ExitOk.
type Code []Instruction
