package bytecode

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/lunet-lang/lunet/pkg/value"
)

var vmLog = commonlog.GetLogger("lunet.vm")

// ExeState is the virtual machine's mutable runtime: the global name
// table, the register stack and the current call's base register.
// Create one per top-level execution; independent states share nothing,
// so tests can run programs side by side without cross-contamination.
type ExeState struct {
	globals map[string]value.Value
	stack   []value.Value
	base    int // base register of the current call

	// Out receives the output of the print built-in. Defaults to
	// standard output.
	Out io.Writer

	// Trace logs every executed instruction at debug level.
	Trace bool
}

// NewExeState creates a fresh VM state with the built-in functions
// registered as globals.
func NewExeState() *ExeState {
	globals := make(map[string]value.Value)
	for id, name := range builtinNames {
		globals[name] = value.Builtin(id)
	}
	return &ExeState{
		globals: globals,
		stack:   make([]value.Value, 0, 16),
		Out:     os.Stdout,
	}
}

// Global returns the current value of a global, or nil if absent.
func (s *ExeState) Global(name string) value.Value {
	if v, ok := s.globals[name]; ok {
		return v
	}
	return value.Nil()
}

// SetGlobal overwrites a global. Used by embedders and tests; compiled
// programs go through the SetGlobal* instructions.
func (s *ExeState) SetGlobal(name string, v value.Value) {
	s.globals[name] = v
}

// Execute runs a chunk's instruction sequence top to bottom. Execution
// is strictly sequential: the first error aborts it.
func (s *ExeState) Execute(chunk *Chunk) error {
	ip := 0
	code := chunk.Code

	for ip < len(code) {
		op := Opcode(code[ip])

		info, known := opcodeInfoTable[op]
		if !known {
			return runtimeErrorf("unknown opcode 0x%02X at offset %d", byte(op), ip)
		}
		if ip+1+info.OperandLen > len(code) {
			return runtimeErrorf("truncated %s instruction at offset %d", info.Name, ip)
		}

		if s.Trace {
			vmLog.Debugf("[%04x] %s", ip, disasmInstruction(chunk, ip))
		}

		operands := code[ip+1 : ip+1+info.OperandLen]
		ip += 1 + info.OperandLen

		switch op {
		case OpLoadNil:
			s.setStack(operands[0], value.Nil())

		case OpLoadBool:
			s.setStack(operands[0], value.Boolean(operands[1] != 0))

		case OpLoadInt:
			imm := int16(binary.BigEndian.Uint16(operands[1:]))
			s.setStack(operands[0], value.Integer(int64(imm)))

		case OpLoadConst:
			v, err := s.constAt(chunk, operands[1])
			if err != nil {
				return err
			}
			s.setStack(operands[0], v)

		case OpMove:
			v, err := s.stackAt(operands[1])
			if err != nil {
				return err
			}
			s.setStack(operands[0], v)

		case OpGetGlobal:
			name, err := s.globalName(chunk, operands[1])
			if err != nil {
				return err
			}
			s.setStack(operands[0], s.Global(name))

		case OpSetGlobalConst:
			name, err := s.globalName(chunk, operands[0])
			if err != nil {
				return err
			}
			v, err := s.constAt(chunk, operands[1])
			if err != nil {
				return err
			}
			s.globals[name] = v

		case OpSetGlobal:
			name, err := s.globalName(chunk, operands[0])
			if err != nil {
				return err
			}
			v, err := s.stackAt(operands[1])
			if err != nil {
				return err
			}
			s.globals[name] = v

		case OpSetGlobalGlobal:
			name, err := s.globalName(chunk, operands[0])
			if err != nil {
				return err
			}
			srcName, err := s.globalName(chunk, operands[1])
			if err != nil {
				return err
			}
			// Copies the source global's current value; never a live
			// alias.
			s.globals[name] = s.Global(srcName)

		case OpCall:
			if err := s.call(operands[0], operands[1]); err != nil {
				return err
			}
		}
	}

	return nil
}

// call invokes the value in the base register. Arguments start at
// base+1 by convention. Only built-in functions are callable in this
// subset.
func (s *ExeState) call(base byte, argc byte) error {
	fn, err := s.stackAt(base)
	if err != nil {
		return err
	}

	if fn.Kind() != value.KindBuiltin {
		return runtimeErrorf("attempt to call a %s value (register %d)", fn.Kind(), base)
	}

	impl, ok := builtinTable[fn.BuiltinID()]
	if !ok {
		return runtimeErrorf("unknown built-in function (tag %d)", fn.BuiltinID())
	}

	s.base = int(base)
	_ = argc // always 1 in this subset; builtins read their own arity
	impl(s)
	return nil
}

// Arg returns the i-th call argument, counting from zero at base+1.
// Missing arguments read as nil.
func (s *ExeState) Arg(i int) value.Value {
	idx := s.base + 1 + i
	if idx >= len(s.stack) {
		return value.Nil()
	}
	return s.stack[idx]
}

// setStack writes a register, growing the stack with nils whenever the
// destination lies beyond the current length. Writes never fail.
func (s *ExeState) setStack(dst byte, v value.Value) {
	d := int(dst)
	for len(s.stack) <= d {
		s.stack = append(s.stack, value.Nil())
	}
	s.stack[d] = v
}

// stackAt reads a register with a defensive bounds check. The compiler
// never emits a read of an unwritten register; hitting this error means
// a compiler bug, not bad user input.
func (s *ExeState) stackAt(i byte) (value.Value, error) {
	if int(i) >= len(s.stack) {
		return value.Nil(), runtimeErrorf("register %d out of bounds (stack size %d)", i, len(s.stack))
	}
	return s.stack[i], nil
}

func (s *ExeState) constAt(chunk *Chunk, k byte) (value.Value, error) {
	if int(k) >= len(chunk.Constants) {
		return value.Nil(), runtimeErrorf("constant %d out of bounds (pool size %d)", k, len(chunk.Constants))
	}
	return chunk.Constants[k], nil
}

// globalName fetches a constant and requires it to be a string. The
// compiler only emits string-keyed global instructions; this re-checks
// at run time.
func (s *ExeState) globalName(chunk *Chunk, k byte) (string, error) {
	v, err := s.constAt(chunk, k)
	if err != nil {
		return "", err
	}
	name, ok := v.Text()
	if !ok {
		return "", runtimeErrorf("invalid global key: %s", v)
	}
	return name, nil
}
