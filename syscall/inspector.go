package syscall

import "github.com/holiman/uint256"

// Inspector is notified of each simulated EVM-opcode-equivalent syscall,
// after gas accounting but before any child-frame handoff (spec.md §4.3
// step 6 / §6.5 expansion). It is optional — a nil Inspector is simply
// never called — and borrowed by &mut-equivalent (a plain pointer) for
// the duration of a single syscall only, per spec.md §9's "cyclic
// references are flattened" design note: the Inspector never outlives
// the dispatch call that invokes it.
type Inspector interface {
	OnStep(opcode EVMOpcode, inputs, outputs []uint256.Int)
}

// EVMOpcode is the EVM-equivalent opcode a syscall simulates, used purely
// for inspector/tracer bookkeeping — it has no bearing on dispatch, which
// switches on SyscallID.
type EVMOpcode byte

const (
	OpcodeSLOAD         EVMOpcode = 0x54
	OpcodeSSTORE        EVMOpcode = 0x55
	OpcodeTLOAD         EVMOpcode = 0x5c
	OpcodeTSTORE        EVMOpcode = 0x5d
	OpcodeCALL          EVMOpcode = 0xf1
	OpcodeCALLCODE      EVMOpcode = 0xf2
	OpcodeDELEGATECALL  EVMOpcode = 0xf4
	OpcodeSTATICCALL    EVMOpcode = 0xfa
	OpcodeCREATE        EVMOpcode = 0xf0
	OpcodeCREATE2       EVMOpcode = 0xf5
	OpcodeLOG0          EVMOpcode = 0xa0
	OpcodeSELFDESTRUCT  EVMOpcode = 0xff
	OpcodeBALANCE       EVMOpcode = 0x31
	OpcodeSELFBALANCE   EVMOpcode = 0x47
	OpcodeEXTCODESIZE   EVMOpcode = 0x3b
	OpcodeEXTCODEHASH   EVMOpcode = 0x3f
	OpcodeEXTCODECOPY   EVMOpcode = 0x3c
	OpcodeBLOCKHASH     EVMOpcode = 0x40
)

func notify(insp Inspector, op EVMOpcode, inputs, outputs []uint256.Int) {
	if insp == nil {
		return
	}
	insp.OnStep(op, inputs, outputs)
}
