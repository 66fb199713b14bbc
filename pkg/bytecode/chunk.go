package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/lunet-lang/lunet/pkg/value"
)

// BytecodeVersion is the current bytecode format version.
// Increment when making incompatible changes to the format.
const BytecodeVersion uint16 = 1

// Magic bytes for bytecode files: "LNBC" (LuNet ByteCode)
var BytecodeMagic = []byte{'L', 'N', 'B', 'C'}

// MaxConstants bounds the constant pool: instructions address constants
// with one byte.
const MaxConstants = 256

// Constant tags used by the serialized form. Only kinds the compiler
// can intern appear here; tables and builtins never reach the pool.
const (
	constTagNil    byte = 0
	constTagFalse  byte = 1
	constTagTrue   byte = 2
	constTagInt    byte = 3
	constTagFloat  byte = 4
	constTagString byte = 5
)

// Chunk represents a compiled Lunet program: the deduplicated constant
// pool and the flat instruction sequence. A chunk is immutable once
// compilation finishes.
type Chunk struct {
	// Header
	Version uint16 // Bytecode format version

	// Code section
	Code []byte // Bytecode instructions

	// Constant pool, insertion order = first-use order, no duplicates
	Constants []value.Value

	// LocalCount is the number of local variable slots the program
	// declares.
	LocalCount uint8
}

// NewChunk creates a new empty chunk with the current version.
func NewChunk() *Chunk {
	return &Chunk{
		Version:   BytecodeVersion,
		Code:      make([]byte, 0, 64),
		Constants: make([]value.Value, 0, 8),
	}
}

// AddConstant adds a constant to the pool and returns its index.
// If a structurally equal constant already exists, returns the existing
// index. Returns -1 when the pool is full.
func (c *Chunk) AddConstant(v value.Value) int {
	for i, existing := range c.Constants {
		if existing.Equal(v) {
			return i
		}
	}
	if len(c.Constants) >= MaxConstants {
		return -1
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// GetConstant returns the constant at the given index.
// Panics if the index is out of bounds.
func (c *Chunk) GetConstant(index int) value.Value {
	return c.Constants[index]
}

// Emit appends a single-byte opcode to the code section and returns its
// offset.
func (c *Chunk) Emit(op Opcode) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	return offset
}

// EmitWithOperand appends an opcode with operand bytes.
func (c *Chunk) EmitWithOperand(op Opcode, operands ...byte) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	c.Code = append(c.Code, operands...)
	return offset
}

// EmitInt16 appends an opcode with a register operand and a big-endian
// int16 immediate.
func (c *Chunk) EmitInt16(op Opcode, reg byte, imm int16) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op), reg, byte(uint16(imm)>>8), byte(uint16(imm)))
	return offset
}

// CurrentOffset returns the current offset in the code section.
func (c *Chunk) CurrentOffset() int {
	return len(c.Code)
}

// CodeLen returns the length of the code section.
func (c *Chunk) CodeLen() int {
	return len(c.Code)
}

// ConstantCount returns the number of constants in the pool.
func (c *Chunk) ConstantCount() int {
	return len(c.Constants)
}

// Serialize encodes the chunk to bytes for storage.
// Format:
//
//	[magic:4] [version:2]
//	[code_len:4] [code:...]
//	[const_count:2] [constants: tag + payload each]
//	[local_count:1]
func (c *Chunk) Serialize() ([]byte, error) {
	estimatedSize := 8 + len(c.Code) + len(c.Constants)*16
	buf := make([]byte, 0, estimatedSize)

	// Magic number: "LNBC"
	buf = append(buf, BytecodeMagic...)

	// Version
	buf = binary.BigEndian.AppendUint16(buf, c.Version)

	// Code section
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Code)))
	buf = append(buf, c.Code...)

	// Constants
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(c.Constants)))
	for i, v := range c.Constants {
		switch v.Kind() {
		case value.KindNil:
			buf = append(buf, constTagNil)
		case value.KindBoolean:
			if v.AsBoolean() {
				buf = append(buf, constTagTrue)
			} else {
				buf = append(buf, constTagFalse)
			}
		case value.KindInteger:
			buf = append(buf, constTagInt)
			buf = binary.BigEndian.AppendUint64(buf, uint64(v.AsInteger()))
		case value.KindFloat:
			buf = append(buf, constTagFloat)
			buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(v.AsFloat()))
		case value.KindShortString, value.KindMidString, value.KindLongString:
			s, _ := v.Text()
			buf = append(buf, constTagString)
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
			buf = append(buf, s...)
		default:
			return nil, fmt.Errorf("constant %d is not serializable: %s", i, v.Kind())
		}
	}

	// Locals
	buf = append(buf, c.LocalCount)

	return buf, nil
}

// Deserialize decodes a chunk from bytes.
func Deserialize(data []byte) (*Chunk, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("bytecode too short: need at least 6 bytes, got %d", len(data))
	}

	// Check magic
	if string(data[0:4]) != string(BytecodeMagic) {
		return nil, fmt.Errorf("invalid bytecode magic: expected %q, got %q", BytecodeMagic, data[0:4])
	}

	c := &Chunk{
		Version: binary.BigEndian.Uint16(data[4:6]),
	}

	pos := 6

	// Version check
	if c.Version > BytecodeVersion {
		return nil, fmt.Errorf("bytecode version %d is newer than supported version %d", c.Version, BytecodeVersion)
	}

	// Code section
	if pos+4 > len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading code length at pos %d", pos)
	}
	codeLen := binary.BigEndian.Uint32(data[pos:])
	pos += 4

	if pos+int(codeLen) > len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading code section: need %d bytes at pos %d", codeLen, pos)
	}
	c.Code = make([]byte, codeLen)
	copy(c.Code, data[pos:pos+int(codeLen)])
	pos += int(codeLen)

	// Constants
	if pos+2 > len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading constant count")
	}
	constCount := binary.BigEndian.Uint16(data[pos:])
	pos += 2

	c.Constants = make([]value.Value, 0, constCount)
	for i := 0; i < int(constCount); i++ {
		if pos >= len(data) {
			return nil, fmt.Errorf("unexpected end of bytecode reading constant %d tag", i)
		}
		tag := data[pos]
		pos++

		switch tag {
		case constTagNil:
			c.Constants = append(c.Constants, value.Nil())
		case constTagFalse:
			c.Constants = append(c.Constants, value.Boolean(false))
		case constTagTrue:
			c.Constants = append(c.Constants, value.Boolean(true))
		case constTagInt:
			if pos+8 > len(data) {
				return nil, fmt.Errorf("unexpected end of bytecode reading constant %d", i)
			}
			c.Constants = append(c.Constants, value.Integer(int64(binary.BigEndian.Uint64(data[pos:]))))
			pos += 8
		case constTagFloat:
			if pos+8 > len(data) {
				return nil, fmt.Errorf("unexpected end of bytecode reading constant %d", i)
			}
			c.Constants = append(c.Constants, value.Float(math.Float64frombits(binary.BigEndian.Uint64(data[pos:]))))
			pos += 8
		case constTagString:
			if pos+4 > len(data) {
				return nil, fmt.Errorf("unexpected end of bytecode reading constant %d length", i)
			}
			strLen := binary.BigEndian.Uint32(data[pos:])
			pos += 4
			if pos+int(strLen) > len(data) {
				return nil, fmt.Errorf("unexpected end of bytecode reading constant %d", i)
			}
			c.Constants = append(c.Constants, value.NewString(string(data[pos:pos+int(strLen)])))
			pos += int(strLen)
		default:
			return nil, fmt.Errorf("unknown constant tag 0x%02X for constant %d", tag, i)
		}
	}

	// Locals
	if pos >= len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading local count")
	}
	c.LocalCount = data[pos]

	return c, nil
}
