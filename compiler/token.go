package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for Lunet lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Keywords
	TokenAnd
	TokenBreak
	TokenDo
	TokenElse
	TokenElseif
	TokenEnd
	TokenFalse
	TokenFor
	TokenFunction
	TokenGoto
	TokenIf
	TokenIn
	TokenLocal
	TokenNil
	TokenNot
	TokenOr
	TokenRepeat
	TokenReturn
	TokenThen
	TokenTrue
	TokenUntil
	TokenWhile

	// Operators
	TokenAdd       // +
	TokenSub       // -
	TokenMul       // *
	TokenDiv       // /
	TokenMod       // %
	TokenPow       // ^
	TokenLen       // #
	TokenBitAnd    // &
	TokenBitXor    // ~
	TokenBitOr     // |
	TokenShiftL    // <<
	TokenShiftR    // >>
	TokenIdiv      // //
	TokenEqual     // ==
	TokenNotEq     // ~=
	TokenLesEq     // <=
	TokenGreEq     // >=
	TokenLess      // <
	TokenGreater   // >
	TokenAssign    // =
	TokenParL      // (
	TokenParR      // )
	TokenCurlyL    // {
	TokenCurlyR    // }
	TokenSqurL     // [
	TokenSqurR     // ]
	TokenDoubColon // ::
	TokenSemiColon // ;
	TokenColon     // :
	TokenComma     // ,
	TokenDot       // .
	TokenConcat    // ..
	TokenDots      // ...

	// Literals
	TokenInteger // 42
	TokenFloat   // 3.14
	TokenString  // "hello"

	// Names of variables or table keys
	TokenName
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "EOF",
	TokenError:     "ERROR",
	TokenAnd:       "and",
	TokenBreak:     "break",
	TokenDo:        "do",
	TokenElse:      "else",
	TokenElseif:    "elseif",
	TokenEnd:       "end",
	TokenFalse:     "false",
	TokenFor:       "for",
	TokenFunction:  "function",
	TokenGoto:      "goto",
	TokenIf:        "if",
	TokenIn:        "in",
	TokenLocal:     "local",
	TokenNil:       "nil",
	TokenNot:       "not",
	TokenOr:        "or",
	TokenRepeat:    "repeat",
	TokenReturn:    "return",
	TokenThen:      "then",
	TokenTrue:      "true",
	TokenUntil:     "until",
	TokenWhile:     "while",
	TokenAdd:       "+",
	TokenSub:       "-",
	TokenMul:       "*",
	TokenDiv:       "/",
	TokenMod:       "%",
	TokenPow:       "^",
	TokenLen:       "#",
	TokenBitAnd:    "&",
	TokenBitXor:    "~",
	TokenBitOr:     "|",
	TokenShiftL:    "<<",
	TokenShiftR:    ">>",
	TokenIdiv:      "//",
	TokenEqual:     "==",
	TokenNotEq:     "~=",
	TokenLesEq:     "<=",
	TokenGreEq:     ">=",
	TokenLess:      "<",
	TokenGreater:   ">",
	TokenAssign:    "=",
	TokenParL:      "(",
	TokenParR:      ")",
	TokenCurlyL:    "{",
	TokenCurlyR:    "}",
	TokenSqurL:     "[",
	TokenSqurR:     "]",
	TokenDoubColon: "::",
	TokenSemiColon: ";",
	TokenColon:     ":",
	TokenComma:     ",",
	TokenDot:       ".",
	TokenConcat:    "..",
	TokenDots:      "...",
	TokenInteger:   "INTEGER",
	TokenFloat:     "FLOAT",
	TokenString:    "STRING",
	TokenName:      "NAME",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Position identifies a location in the source buffer.
type Position struct {
	Offset int // byte offset, 0-based
	Line   int // line number, 1-based
	Column int // column number, 1-based
}

// Token represents a lexical token.
//
// Literal holds the text for TokenString, TokenName and TokenError. Int
// and Float hold the parsed value for numeric literals. Tokens are
// comparable, which the compiler relies on for lookahead decisions.
type Token struct {
	Type    TokenType
	Literal string
	Int     int64
	Float   float64
	Pos     Position
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	case TokenInteger:
		return fmt.Sprintf("INTEGER(%d)", t.Int)
	case TokenFloat:
		return fmt.Sprintf("FLOAT(%v)", t.Float)
	case TokenString:
		return fmt.Sprintf("STRING(%q)", t.Literal)
	case TokenName:
		return fmt.Sprintf("NAME(%s)", t.Literal)
	}
	return fmt.Sprintf("%q", t.Type.String())
}

// Reserved words mapped to their token types. The lexer scans a maximal
// identifier before consulting this table, so a reserved word is only
// recognized when it matches the whole identifier ("elseif" never lexes
// as "else" followed by "if").
var reservedWords = map[string]TokenType{
	"and":      TokenAnd,
	"break":    TokenBreak,
	"do":       TokenDo,
	"else":     TokenElse,
	"elseif":   TokenElseif,
	"end":      TokenEnd,
	"false":    TokenFalse,
	"for":      TokenFor,
	"function": TokenFunction,
	"goto":     TokenGoto,
	"if":       TokenIf,
	"in":       TokenIn,
	"local":    TokenLocal,
	"nil":      TokenNil,
	"not":      TokenNot,
	"or":       TokenOr,
	"repeat":   TokenRepeat,
	"return":   TokenReturn,
	"then":     TokenThen,
	"true":     TokenTrue,
	"until":    TokenUntil,
	"while":    TokenWhile,
}

// LexError reports input that matches no token grammar.
type LexError struct {
	Pos Position
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Err converts a TokenError token into a *LexError. Returns nil for any
// other token type.
func (t Token) Err() error {
	if t.Type != TokenError {
		return nil
	}
	return &LexError{Pos: t.Pos, Msg: t.Literal}
}
