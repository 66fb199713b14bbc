package compiler

import (
	"testing"
)

// ---------------------------------------------------------------------------
// FuzzLexer: ensure the lexer never panics on arbitrary input.
// ---------------------------------------------------------------------------

func FuzzLexer(f *testing.F) {
	// Seed corpus: valid Lunet code snippets covering diverse token types
	seeds := []string{
		// Basic punctuation
		`( ) [ ] { } . , ; : =`,
		// Integers
		`42`, `0`, `16`, `99999999999999999999999`,
		// Floats
		`3.14`, `0.5`, `123.`, `1.5`,
		// Strings
		`"hello"`, `"hello world"`, `""`, `"back\slash"`,
		// Identifiers and reserved words
		`foo`, `FooBar`, `foo123`, `_private`, `nil`, `true`, `false`,
		`and`, `or`, `not`, `if`, `then`, `else`, `elseif`, `end`,
		`while`, `do`, `for`, `in`, `repeat`, `until`, `function`,
		`local`, `return`, `break`, `goto`,
		// Operators, including the greedy multi-char ones
		`+ - * / // % ^ #`, `== ~= <= >= < >`, `.. ...`, `& | ~ << >>`,
		`///`, `....`, `~`, `~=`,
		// Comments
		"-- this is a comment", "foo -- trailing\nbar",
		// Complete statements
		`x = 42`,
		`local a = "hi"`,
		`print(a)`,
		`print "hello, world!"`,
		// Edge cases
		`"unterminated`, `@`, `$`, `!`,
		// Unicode
		`"こんにちは"`, `"café"`,
		// Empty
		``,
		// Whitespace only
		`   `, "\t\n\r",
		// Operator soup
		`+-*/~<>=%|&#^,`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("lexer panicked on input %q: %v", data, r)
			}
		}()

		l := NewLexer(data)
		for i := 0; i < len(data)+100; i++ {
			tok := l.Next()
			if tok.Type == TokenEOF || tok.Type == TokenError {
				break
			}
		}
	})
}
