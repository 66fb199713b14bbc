package compiler

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for Lunet syntax
// ---------------------------------------------------------------------------

// Lexer tokenizes Lunet source code. It is stateless beyond the current
// position and one token of lookahead.
type Lexer struct {
	input     string
	pos       int  // current position in input
	readPos   int  // reading position (after current char)
	ch        rune // current character
	line      int  // current line (1-based)
	lineStart int  // offset of current line start

	ahead    Token // cached lookahead token
	hasAhead bool
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

// Next consumes and returns the next token, advancing position. After
// the terminal EOF token has been returned, Next keeps returning EOF.
func (l *Lexer) Next() Token {
	if l.hasAhead {
		l.hasAhead = false
		return l.ahead
	}
	return l.scan()
}

// Peek returns the next token without consuming it. The token is cached
// for the subsequent Next.
func (l *Lexer) Peek() Token {
	if !l.hasAhead {
		l.ahead = l.scan()
		l.hasAhead = true
	}
	return l.ahead
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = l.readPos
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size

	// Tokens never start on a newline, so bumping the line as soon as
	// one becomes the current character keeps position() accurate.
	if r == '\n' {
		l.line++
		l.lineStart = l.readPos
	}
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.pos - l.lineStart + 1,
	}
}

// scan produces the next token from the input. Multi-character
// operators are matched greedily before their single-character
// prefixes.
func (l *Lexer) scan() Token {
	l.skipWhitespaceAndComments()

	pos := l.position()

	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Pos: pos}

	case l.ch == '(':
		l.readChar()
		return Token{Type: TokenParL, Pos: pos}

	case l.ch == ')':
		l.readChar()
		return Token{Type: TokenParR, Pos: pos}

	case l.ch == '{':
		l.readChar()
		return Token{Type: TokenCurlyL, Pos: pos}

	case l.ch == '}':
		l.readChar()
		return Token{Type: TokenCurlyR, Pos: pos}

	case l.ch == '[':
		l.readChar()
		return Token{Type: TokenSqurL, Pos: pos}

	case l.ch == ']':
		l.readChar()
		return Token{Type: TokenSqurR, Pos: pos}

	case l.ch == ';':
		l.readChar()
		return Token{Type: TokenSemiColon, Pos: pos}

	case l.ch == ',':
		l.readChar()
		return Token{Type: TokenComma, Pos: pos}

	case l.ch == '+':
		l.readChar()
		return Token{Type: TokenAdd, Pos: pos}

	case l.ch == '-':
		l.readChar()
		return Token{Type: TokenSub, Pos: pos}

	case l.ch == '*':
		l.readChar()
		return Token{Type: TokenMul, Pos: pos}

	case l.ch == '%':
		l.readChar()
		return Token{Type: TokenMod, Pos: pos}

	case l.ch == '^':
		l.readChar()
		return Token{Type: TokenPow, Pos: pos}

	case l.ch == '#':
		l.readChar()
		return Token{Type: TokenLen, Pos: pos}

	case l.ch == '&':
		l.readChar()
		return Token{Type: TokenBitAnd, Pos: pos}

	case l.ch == '|':
		l.readChar()
		return Token{Type: TokenBitOr, Pos: pos}

	case l.ch == '/':
		l.readChar()
		if l.ch == '/' {
			l.readChar()
			return Token{Type: TokenIdiv, Pos: pos}
		}
		return Token{Type: TokenDiv, Pos: pos}

	case l.ch == '~':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return Token{Type: TokenNotEq, Pos: pos}
		}
		return Token{Type: TokenBitXor, Pos: pos}

	case l.ch == '=':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return Token{Type: TokenEqual, Pos: pos}
		}
		return Token{Type: TokenAssign, Pos: pos}

	case l.ch == '<':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return Token{Type: TokenLesEq, Pos: pos}
		}
		if l.ch == '<' {
			l.readChar()
			return Token{Type: TokenShiftL, Pos: pos}
		}
		return Token{Type: TokenLess, Pos: pos}

	case l.ch == '>':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return Token{Type: TokenGreEq, Pos: pos}
		}
		if l.ch == '>' {
			l.readChar()
			return Token{Type: TokenShiftR, Pos: pos}
		}
		return Token{Type: TokenGreater, Pos: pos}

	case l.ch == ':':
		l.readChar()
		if l.ch == ':' {
			l.readChar()
			return Token{Type: TokenDoubColon, Pos: pos}
		}
		return Token{Type: TokenColon, Pos: pos}

	case l.ch == '.':
		return l.readDots(pos)

	case l.ch == '"':
		return l.readString(pos)

	case isDigit(l.ch):
		return l.readNumber(pos)

	case isLetter(l.ch) || l.ch == '_':
		return l.readNameOrKeyword(pos)

	default:
		ch := l.ch
		l.readChar()
		return Token{Type: TokenError, Literal: fmt.Sprintf("unexpected character: %c", ch), Pos: pos}
	}
}

// skipWhitespaceAndComments skips whitespace and `--` line comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}

		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}

		break
	}
}

// readDots reads `.`, `..` or `...`, longest match first.
func (l *Lexer) readDots(pos Position) Token {
	l.readChar() // consume first .
	if l.ch != '.' {
		return Token{Type: TokenDot, Pos: pos}
	}
	l.readChar() // consume second .
	if l.ch != '.' {
		return Token{Type: TokenConcat, Pos: pos}
	}
	l.readChar() // consume third .
	return Token{Type: TokenDots, Pos: pos}
}

// readString reads a string literal delimited by double quotes. There
// is no escape processing; both delimiters are consumed and excluded
// from the token's content.
func (l *Lexer) readString(pos Position) Token {
	l.readChar() // consume opening "

	start := l.pos
	for l.ch != '"' && l.ch != 0 {
		l.readChar()
	}

	if l.ch == 0 {
		return Token{Type: TokenError, Literal: "unterminated string", Pos: pos}
	}

	literal := l.input[start:l.pos]
	l.readChar() // consume closing "

	return Token{Type: TokenString, Literal: literal, Pos: pos}
}

// readNumber reads an integer or float literal. The literal is a float
// only if a `.` is directly followed by at least one digit; a bare
// trailing dot is left for the next token.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // consume .
		for isDigit(l.ch) {
			l.readChar()
		}
		text := l.input[start:l.pos]
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Token{Type: TokenError, Literal: fmt.Sprintf("malformed float literal: %s", text), Pos: pos}
		}
		return Token{Type: TokenFloat, Float: f, Pos: pos}
	}

	text := l.input[start:l.pos]
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Token{Type: TokenError, Literal: fmt.Sprintf("integer literal out of range: %s", text), Pos: pos}
	}
	return Token{Type: TokenInteger, Int: i, Pos: pos}
}

// readNameOrKeyword reads an identifier, yielding the corresponding
// keyword token when the whole identifier is a reserved word.
func (l *Lexer) readNameOrKeyword(pos Position) Token {
	start := l.pos

	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}

	literal := l.input[start:l.pos]

	if tokType, ok := reservedWords[literal]; ok {
		return Token{Type: tokType, Literal: literal, Pos: pos}
	}

	return Token{Type: TokenName, Literal: literal, Pos: pos}
}

// Helper functions

func isLetter(r rune) bool {
	return unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Tokenize returns all tokens from the input, stopping after the first
// EOF or error token.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}
	return tokens
}
