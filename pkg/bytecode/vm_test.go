package bytecode

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/lunet-lang/lunet/pkg/value"
)

// runSource compiles and executes a program, returning everything the
// print built-in wrote.
func runSource(t *testing.T, source string) (string, *ExeState) {
	t.Helper()
	chunk, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	var out bytes.Buffer
	s := NewExeState()
	s.Out = &out
	if err := s.Execute(chunk); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	return out.String(), s
}

func TestExecuteHelloWorld(t *testing.T) {
	out, _ := runSource(t, `print "hello, world!"`)
	if out != "hello, world!\n" {
		t.Errorf("output = %q, want %q", out, "hello, world!\n")
	}
}

func TestExecuteLocalArgument(t *testing.T) {
	out, _ := runSource(t, "local a = 10\nprint(a)")
	if out != "10\n" {
		t.Errorf("output = %q, want %q", out, "10\n")
	}
}

func TestExecutePrintForms(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"nil", `print(nil)`, "nil\n"},
		{"true", `print(true)`, "true\n"},
		{"false", `print(false)`, "false\n"},
		{"integer", `print(456)`, "456\n"},
		{"negative immediate comes from a local", "local n = 0\nprint(n)", "0\n"},
		{"float keeps a decimal point", `print(10.0)`, "10.0\n"},
		{"float with fraction", `print(2.5)`, "2.5\n"},
		{"string", `print("abc")`, "abc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := runSource(t, tt.source)
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestExecuteGlobals(t *testing.T) {
	out, s := runSource(t, "x = 1\nprint(x)\nx = \"later\"\nprint(x)")
	if out != "1\nlater\n" {
		t.Errorf("output = %q, want %q", out, "1\nlater\n")
	}
	if got := s.Global("x"); !got.Equal(value.NewString("later")) {
		t.Errorf("Global(\"x\") = %s, want \"later\"", got)
	}
}

func TestExecuteUndefinedGlobalIsNil(t *testing.T) {
	out, _ := runSource(t, `print(missing)`)
	if out != "nil\n" {
		t.Errorf("output = %q, want %q", out, "nil\n")
	}
}

func TestExecuteGlobalFromLocal(t *testing.T) {
	out, _ := runSource(t, "local a = 7\ng = a\nprint(g)")
	if out != "7\n" {
		t.Errorf("output = %q, want %q", out, "7\n")
	}
}

func TestExecuteGlobalCopyTakesValueAtAssignment(t *testing.T) {
	// y = x copies x's value at that moment; changing x afterwards must
	// not affect y.
	out, _ := runSource(t, "x = 1\ny = x\nx = 2\nprint(y)")
	if out != "1\n" {
		t.Errorf("output = %q, want %q", out, "1\n")
	}
}

func TestExecuteGlobalAliasToBuiltin(t *testing.T) {
	out, _ := runSource(t, "say = print\nsay \"hi\"")
	if out != "hi\n" {
		t.Errorf("output = %q, want %q", out, "hi\n")
	}
}

func TestExecuteCallNonFunction(t *testing.T) {
	chunk, err := Compile("x = 1\nx(2)")
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	s := NewExeState()
	s.Out = &bytes.Buffer{}
	execErr := s.Execute(chunk)
	if execErr == nil {
		t.Fatal("Execute() succeeded calling an integer")
	}
	var rerr *RuntimeError
	if !errors.As(execErr, &rerr) {
		t.Fatalf("error type %T, want *RuntimeError", execErr)
	}
	if !strings.Contains(execErr.Error(), "integer") {
		t.Errorf("error %q does not name the called kind", execErr)
	}
}

func TestExecuteCallUndefinedGlobal(t *testing.T) {
	chunk, err := Compile("whoops(1)")
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	s := NewExeState()
	s.Out = &bytes.Buffer{}
	execErr := s.Execute(chunk)
	if execErr == nil {
		t.Fatal("Execute() succeeded calling an undefined global")
	}
	if !strings.Contains(execErr.Error(), "nil") {
		t.Errorf("error %q does not name the nil callee", execErr)
	}
}

func TestExecuteUnknownOpcode(t *testing.T) {
	chunk := NewChunk()
	chunk.Code = []byte{0xEE}
	s := NewExeState()
	err := s.Execute(chunk)
	if err == nil {
		t.Fatal("Execute() accepted an unknown opcode")
	}
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		t.Errorf("error type %T, want *RuntimeError", err)
	}
}

func TestExecuteTruncatedInstruction(t *testing.T) {
	chunk := NewChunk()
	chunk.Code = []byte{byte(OpLoadInt), 0, 0} // needs 3 operand bytes
	s := NewExeState()
	if err := s.Execute(chunk); err == nil {
		t.Fatal("Execute() accepted a truncated instruction")
	}
}

func TestExecuteConstantOutOfBounds(t *testing.T) {
	chunk := NewChunk()
	chunk.EmitWithOperand(OpLoadConst, 0, 9)
	s := NewExeState()
	if err := s.Execute(chunk); err == nil {
		t.Fatal("Execute() accepted an out-of-bounds constant index")
	}
}

func TestExecuteInvalidGlobalKey(t *testing.T) {
	// A hand-built chunk with a non-string global key; the compiler never
	// emits this.
	chunk := NewChunk()
	chunk.AddConstant(value.Integer(42))
	chunk.EmitWithOperand(OpGetGlobal, 0, 0)
	s := NewExeState()
	err := s.Execute(chunk)
	if err == nil {
		t.Fatal("Execute() accepted an integer global key")
	}
	if !strings.Contains(err.Error(), "global key") {
		t.Errorf("error %q does not mention the global key", err)
	}
}

func TestExecuteMoveFromUnwrittenRegister(t *testing.T) {
	chunk := NewChunk()
	chunk.EmitWithOperand(OpMove, 0, 5)
	s := NewExeState()
	if err := s.Execute(chunk); err == nil {
		t.Fatal("Execute() accepted a read of an unwritten register")
	}
}

func TestExecuteStackGrowsOnDemand(t *testing.T) {
	chunk := NewChunk()
	chunk.EmitInt16(OpLoadInt, 200, 9) // far beyond the initial capacity
	chunk.EmitWithOperand(OpMove, 0, 200)
	s := NewExeState()
	if err := s.Execute(chunk); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	got, err := s.stackAt(0)
	if err != nil {
		t.Fatalf("stackAt(0) error: %v", err)
	}
	if !got.Equal(value.Integer(9)) {
		t.Errorf("r0 = %s, want 9", got)
	}
}

func TestExecuteEmptyChunk(t *testing.T) {
	s := NewExeState()
	if err := s.Execute(NewChunk()); err != nil {
		t.Errorf("Execute() error on empty chunk: %v", err)
	}
}

func TestExeStateIsolation(t *testing.T) {
	chunk, err := Compile(`x = 5`)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	a := NewExeState()
	b := NewExeState()
	if err := a.Execute(chunk); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !a.Global("x").Equal(value.Integer(5)) {
		t.Error("x not set in executing state")
	}
	if !b.Global("x").IsNil() {
		t.Error("x leaked into an unrelated state")
	}
}

func TestSetGlobalFromEmbedder(t *testing.T) {
	chunk, err := Compile(`print(answer)`)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	var out bytes.Buffer
	s := NewExeState()
	s.Out = &out
	s.SetGlobal("answer", value.Integer(42))
	if err := s.Execute(chunk); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if out.String() != "42\n" {
		t.Errorf("output = %q, want %q", out.String(), "42\n")
	}
}
