package bytecode

import (
	"github.com/tliron/commonlog"

	"github.com/lunet-lang/lunet/compiler"
	"github.com/lunet-lang/lunet/pkg/value"
)

var compileLog = commonlog.GetLogger("lunet.compiler")

// MaxRegisters bounds the register file: instructions address registers
// with one byte.
const MaxRegisters = 256

// Compiler translates a token stream into a Chunk in a single forward
// pass with one token of lookahead. There is no AST and no
// backtracking.
type Compiler struct {
	chunk  *Chunk
	lex    *compiler.Lexer
	locals []string // declaration order; position = register index
}

// Compile compiles Lunet source into an executable chunk.
func Compile(source string) (*Chunk, error) {
	c := &Compiler{
		chunk: NewChunk(),
		lex:   compiler.NewLexer(source),
	}
	if err := c.run(); err != nil {
		return nil, err
	}
	compileLog.Debugf("compiled chunk: %d bytes of code, %d constants, %d locals",
		c.chunk.CodeLen(), c.chunk.ConstantCount(), len(c.locals))
	return c.chunk, nil
}

// run is the statement loop. Statement forms are tried in order:
// assignment, call statement, local declaration; end of stream
// terminates compilation.
func (c *Compiler) run() error {
	for {
		tok := c.lex.Next()
		switch tok.Type {
		case compiler.TokenName:
			if c.lex.Peek().Type == compiler.TokenAssign {
				if err := c.assignment(tok.Literal); err != nil {
					return err
				}
			} else {
				if err := c.callStatement(tok.Literal); err != nil {
					return err
				}
			}

		case compiler.TokenLocal:
			if err := c.localDecl(); err != nil {
				return err
			}

		case compiler.TokenEOF:
			return nil

		case compiler.TokenError:
			return tok.Err()

		default:
			return compileErrorf(tok, "unexpected token %s", tok)
		}
	}
}

// localDecl compiles `local Name = exp`. The initializer is compiled
// into the next unused register before the name is appended to the
// local list, so the new local is not visible to its own initializer.
func (c *Compiler) localDecl() error {
	nameTok := c.lex.Next()
	if nameTok.Type != compiler.TokenName {
		if err := nameTok.Err(); err != nil {
			return err
		}
		return compileErrorf(nameTok, "expected variable name after `local`, got %s", nameTok)
	}

	eq := c.lex.Next()
	if eq.Type != compiler.TokenAssign {
		if err := eq.Err(); err != nil {
			return err
		}
		return compileErrorf(eq, "expected `=`, got %s", eq)
	}

	if len(c.locals) >= MaxRegisters {
		return compileErrorf(nameTok, "too many local variables")
	}

	if err := c.loadExp(len(c.locals)); err != nil {
		return err
	}

	c.locals = append(c.locals, nameTok.Literal)
	c.chunk.LocalCount = uint8(len(c.locals))
	return nil
}

// callStatement compiles `Name(exp)` or `Name "literal"`. The callee is
// loaded into the first free register and the single argument into the
// next one; the call covers that two-register window with an argument
// count of 1.
func (c *Compiler) callStatement(name string) error {
	base := len(c.locals)
	if base+1 >= MaxRegisters {
		return compileErrorf(c.lex.Peek(), "out of registers")
	}

	if err := c.loadVar(base, name); err != nil {
		return err
	}

	tok := c.lex.Next()
	switch tok.Type {
	case compiler.TokenParL:
		if err := c.loadExp(base + 1); err != nil {
			return err
		}
		if close := c.lex.Next(); close.Type != compiler.TokenParR {
			if err := close.Err(); err != nil {
				return err
			}
			return compileErrorf(close, "expected `)`, got %s", close)
		}

	case compiler.TokenString:
		if err := c.loadConst(base+1, value.NewString(tok.Literal)); err != nil {
			return err
		}

	case compiler.TokenError:
		return tok.Err()

	default:
		return compileErrorf(tok, "expected `(` or string argument, got %s", tok)
	}

	c.chunk.EmitWithOperand(OpCall, byte(base), 1)
	return nil
}

// assignment compiles `Name = exp`. A known local takes the expression
// directly into its register. Anything else is a global store: the
// global's name is interned first, then the right-hand token selects a
// constant-to-global, register-to-global or global-to-global store.
func (c *Compiler) assignment(name string) error {
	c.lex.Next() // consume `=`

	if i, ok := c.localIndex(name); ok {
		return c.loadExp(i)
	}

	dst, err := c.addConst(value.NewString(name))
	if err != nil {
		return err
	}

	tok := c.lex.Next()
	switch tok.Type {
	case compiler.TokenNil:
		return c.setGlobalConst(dst, value.Nil())
	case compiler.TokenTrue:
		return c.setGlobalConst(dst, value.Boolean(true))
	case compiler.TokenFalse:
		return c.setGlobalConst(dst, value.Boolean(false))
	case compiler.TokenInteger:
		return c.setGlobalConst(dst, value.Integer(tok.Int))
	case compiler.TokenFloat:
		return c.setGlobalConst(dst, value.Float(tok.Float))
	case compiler.TokenString:
		return c.setGlobalConst(dst, value.NewString(tok.Literal))

	case compiler.TokenName:
		if i, ok := c.localIndex(tok.Literal); ok {
			c.chunk.EmitWithOperand(OpSetGlobal, dst, byte(i))
			return nil
		}
		// The source global is looked up by name at run time, not
		// resolved here: the copy takes its value at assignment time.
		src, err := c.addConst(value.NewString(tok.Literal))
		if err != nil {
			return err
		}
		c.chunk.EmitWithOperand(OpSetGlobalGlobal, dst, src)
		return nil

	case compiler.TokenError:
		return tok.Err()

	default:
		return compileErrorf(tok, "unexpected token %s in assignment", tok)
	}
}

func (c *Compiler) setGlobalConst(dst byte, v value.Value) error {
	k, err := c.addConst(v)
	if err != nil {
		return err
	}
	c.chunk.EmitWithOperand(OpSetGlobalConst, dst, k)
	return nil
}

// loadExp compiles a single expression into the given register. The
// supported forms are exactly the literal kinds and bare names.
func (c *Compiler) loadExp(dst int) error {
	tok := c.lex.Next()
	switch tok.Type {
	case compiler.TokenNil:
		c.chunk.EmitWithOperand(OpLoadNil, byte(dst))
	case compiler.TokenTrue:
		c.chunk.EmitWithOperand(OpLoadBool, byte(dst), 1)
	case compiler.TokenFalse:
		c.chunk.EmitWithOperand(OpLoadBool, byte(dst), 0)
	case compiler.TokenInteger:
		// Small integers become an immediate; everything else goes
		// through the constant pool.
		if imm := int16(tok.Int); int64(imm) == tok.Int {
			c.chunk.EmitInt16(OpLoadInt, byte(dst), imm)
		} else {
			return c.loadConst(dst, value.Integer(tok.Int))
		}
	case compiler.TokenFloat:
		return c.loadConst(dst, value.Float(tok.Float))
	case compiler.TokenString:
		return c.loadConst(dst, value.NewString(tok.Literal))
	case compiler.TokenName:
		return c.loadVar(dst, tok.Literal)
	case compiler.TokenError:
		return tok.Err()
	default:
		return compileErrorf(tok, "unexpected token %s in expression", tok)
	}
	return nil
}

// loadVar loads a name into a register: a register move for locals, a
// global lookup for everything else.
func (c *Compiler) loadVar(dst int, name string) error {
	if i, ok := c.localIndex(name); ok {
		c.chunk.EmitWithOperand(OpMove, byte(dst), byte(i))
		return nil
	}
	k, err := c.addConst(value.NewString(name))
	if err != nil {
		return err
	}
	c.chunk.EmitWithOperand(OpGetGlobal, byte(dst), k)
	return nil
}

func (c *Compiler) loadConst(dst int, v value.Value) error {
	k, err := c.addConst(v)
	if err != nil {
		return err
	}
	c.chunk.EmitWithOperand(OpLoadConst, byte(dst), k)
	return nil
}

func (c *Compiler) addConst(v value.Value) (byte, error) {
	i := c.chunk.AddConstant(v)
	if i < 0 {
		return 0, &CompileError{Msg: "too many constants"}
	}
	return byte(i), nil
}

// localIndex resolves a name against the local list, most recent
// declaration first, so later declarations shadow earlier ones.
func (c *Compiler) localIndex(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i] == name {
			return i, true
		}
	}
	return 0, false
}
