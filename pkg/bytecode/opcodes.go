package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Register loads (0x00-0x0F)
	// ========================================================================

	OpLoadNil   Opcode = 0x01 // stack[dst] = nil: OpLoadNil <dst:u8>
	OpLoadBool  Opcode = 0x02 // stack[dst] = bool: OpLoadBool <dst:u8> <val:u8>
	OpLoadInt   Opcode = 0x03 // stack[dst] = immediate int: OpLoadInt <dst:u8> <imm:i16>
	OpLoadConst Opcode = 0x04 // stack[dst] = constants[k]: OpLoadConst <dst:u8> <k:u8>
	OpMove      Opcode = 0x05 // stack[dst] = stack[src]: OpMove <dst:u8> <src:u8>

	// ========================================================================
	// Globals (0x10-0x1F)
	// ========================================================================

	OpGetGlobal       Opcode = 0x10 // stack[dst] = globals[constants[k]]: OpGetGlobal <dst:u8> <k:u8>
	OpSetGlobalConst  Opcode = 0x11 // globals[constants[kname]] = constants[kval]
	OpSetGlobal       Opcode = 0x12 // globals[constants[kname]] = stack[src]
	OpSetGlobalGlobal Opcode = 0x13 // globals[constants[kname]] = globals[constants[ksrc]]

	// ========================================================================
	// Calls (0x20-0x2F)
	// ========================================================================

	OpCall Opcode = 0x20 // call stack[base] with argc args at base+1: OpCall <base:u8> <argc:u8>
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name       string // Human-readable name
	OperandLen int    // Number of operand bytes following the opcode
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpLoadNil:   {"LOAD_NIL", 1},
	OpLoadBool:  {"LOAD_BOOL", 2},
	OpLoadInt:   {"LOAD_INT", 3},
	OpLoadConst: {"LOAD_CONST", 2},
	OpMove:      {"MOVE", 2},

	OpGetGlobal:       {"GET_GLOBAL", 2},
	OpSetGlobalConst:  {"SET_GLOBAL_CONST", 2},
	OpSetGlobal:       {"SET_GLOBAL", 2},
	OpSetGlobalGlobal: {"SET_GLOBAL_GLOBAL", 2},

	OpCall: {"CALL", 2},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the total length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsLoad returns true if this opcode writes a register from a literal,
// constant or register source.
func (op Opcode) IsLoad() bool {
	return op >= OpLoadNil && op <= OpMove
}

// IsGlobal returns true if this opcode reads or writes the global table.
func (op Opcode) IsGlobal() bool {
	return op >= OpGetGlobal && op <= OpSetGlobalGlobal
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
