package bytecode

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Disassemble returns a human-readable bytecode listing for the chunk.
func (c *Chunk) Disassemble() string {
	return c.DisassembleWithName("")
}

// DisassembleWithName returns a human-readable bytecode listing with a
// name header.
func (c *Chunk) DisassembleWithName(name string) string {
	var sb strings.Builder

	// Header
	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; Lunet Bytecode v%d\n", c.Version))
	if c.LocalCount > 0 {
		sb.WriteString(fmt.Sprintf("; Locals: %d slots\n", c.LocalCount))
	}
	sb.WriteString("\n")

	// Constants
	if len(c.Constants) > 0 {
		sb.WriteString("; Constants:\n")
		for i, v := range c.Constants {
			display := v.String()
			if v.IsString() {
				display = fmt.Sprintf("%q", display)
			}
			if len(display) > 40 {
				display = display[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf(";   [%3d] %s\n", i, display))
		}
		sb.WriteString("\n")
	}

	// Code
	sb.WriteString("; Code:\n")
	ip := 0
	for ip < len(c.Code) {
		op := Opcode(c.Code[ip])
		text := disasmInstruction(c, ip)
		sb.WriteString(fmt.Sprintf("  %04x  %s\n", ip, text))
		ip += op.InstructionLen()
	}

	return sb.String()
}

// disasmInstruction renders a single instruction at the given offset,
// including decoded operands and a constant-value comment where one
// applies.
func disasmInstruction(c *Chunk, ip int) string {
	op := Opcode(c.Code[ip])
	info := GetOpcodeInfo(op)

	if ip+1+info.OperandLen > len(c.Code) {
		return fmt.Sprintf("%-18s <truncated>", info.Name)
	}
	operands := c.Code[ip+1 : ip+1+info.OperandLen]

	switch op {
	case OpLoadNil:
		return fmt.Sprintf("%-18s r%d", info.Name, operands[0])
	case OpLoadBool:
		return fmt.Sprintf("%-18s r%d %t", info.Name, operands[0], operands[1] != 0)
	case OpLoadInt:
		imm := int16(binary.BigEndian.Uint16(operands[1:]))
		return fmt.Sprintf("%-18s r%d %d", info.Name, operands[0], imm)
	case OpLoadConst:
		return fmt.Sprintf("%-18s r%d k%d%s", info.Name, operands[0], operands[1], constComment(c, operands[1]))
	case OpMove:
		return fmt.Sprintf("%-18s r%d r%d", info.Name, operands[0], operands[1])
	case OpGetGlobal:
		return fmt.Sprintf("%-18s r%d k%d%s", info.Name, operands[0], operands[1], constComment(c, operands[1]))
	case OpSetGlobalConst, OpSetGlobalGlobal:
		return fmt.Sprintf("%-18s k%d k%d%s", info.Name, operands[0], operands[1], constComment(c, operands[0]))
	case OpSetGlobal:
		return fmt.Sprintf("%-18s k%d r%d%s", info.Name, operands[0], operands[1], constComment(c, operands[0]))
	case OpCall:
		return fmt.Sprintf("%-18s r%d argc=%d", info.Name, operands[0], operands[1])
	default:
		parts := make([]string, len(operands))
		for i, b := range operands {
			parts[i] = fmt.Sprintf("%d", b)
		}
		return fmt.Sprintf("%-18s %s", info.Name, strings.Join(parts, " "))
	}
}

func constComment(c *Chunk, k byte) string {
	if int(k) >= len(c.Constants) {
		return ""
	}
	v := c.Constants[k]
	if v.IsString() {
		return fmt.Sprintf("  ; %q", v.String())
	}
	return fmt.Sprintf("  ; %s", v.String())
}
