// Package parser reads logical types from their SQL summary strings, e.g.
// "ROW<`id` BIGINT NOT NULL, `tags` ARRAY<STRING>>".
package parser

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenError
	TokenIdent       // bare word, keywords included
	TokenQuotedIdent // `name`
	TokenNumber
	TokenString // 'text'

	TokenLt     // <
	TokenGt     // >
	TokenLParen // (
	TokenRParen // )
	TokenComma  // ,
	TokenDot    // .
)

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

func (t Token) String() string {
	return fmt.Sprintf("Token{%s, %q, %d}", t.Type, t.Literal, t.Pos)
}

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "ERROR"
	case TokenIdent:
		return "IDENT"
	case TokenQuotedIdent:
		return "QUOTED_IDENT"
	case TokenNumber:
		return "NUMBER"
	case TokenString:
		return "STRING"
	case TokenLt:
		return "<"
	case TokenGt:
		return ">"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenComma:
		return ","
	case TokenDot:
		return "."
	default:
		return "UNKNOWN"
	}
}

// keywords are the bare words that start a type. Anything else in type
// position is read as a structured type identifier.
var keywords = map[string]bool{
	"NULL": true, "BOOLEAN": true, "BOOL": true,
	"TINYINT": true, "SMALLINT": true, "INT": true, "INTEGER": true, "BIGINT": true,
	"FLOAT": true, "REAL": true, "DOUBLE": true,
	"DECIMAL": true, "DEC": true, "NUMERIC": true,
	"CHAR": true, "CHARACTER": true, "VARCHAR": true, "STRING": true,
	"BINARY": true, "VARBINARY": true, "BYTES": true,
	"DATE": true, "TIME": true, "TIMESTAMP": true, "TIMESTAMP_LTZ": true,
	"INTERVAL": true,
	"ARRAY": true, "MULTISET": true, "MAP": true, "ROW": true, "STRUCTURED": true,
	"RAW": true,
}

// Lexer tokenizes a type string.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current character
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	startPos := l.pos
	var tok Token

	switch l.ch {
	case '<':
		tok = Token{Type: TokenLt, Literal: "<", Pos: startPos}
	case '>':
		tok = Token{Type: TokenGt, Literal: ">", Pos: startPos}
	case '(':
		tok = Token{Type: TokenLParen, Literal: "(", Pos: startPos}
	case ')':
		tok = Token{Type: TokenRParen, Literal: ")", Pos: startPos}
	case ',':
		tok = Token{Type: TokenComma, Literal: ",", Pos: startPos}
	case '.':
		tok = Token{Type: TokenDot, Literal: ".", Pos: startPos}
	case '\'':
		return l.readQuoted('\'', TokenString, "unterminated string")
	case '`':
		return l.readQuoted('`', TokenQuotedIdent, "unterminated identifier")
	case 0:
		return Token{Type: TokenEOF, Literal: "", Pos: startPos}
	default:
		if isLetter(l.ch) || l.ch == '_' {
			return l.readIdentifier()
		} else if isDigit(l.ch) {
			return l.readNumber()
		}
		tok = Token{Type: TokenError, Literal: string(l.ch), Pos: startPos}
	}

	l.readChar()
	return tok
}

func (l *Lexer) readIdentifier() Token {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '$' {
		l.readChar()
	}
	return Token{Type: TokenIdent, Literal: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) readNumber() Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	return Token{Type: TokenNumber, Literal: l.input[start:l.pos], Pos: start}
}

// readQuoted reads text enclosed in quote characters. A doubled quote
// stands for one literal quote.
func (l *Lexer) readQuoted(quote byte, typ TokenType, unterminated string) Token {
	startPos := l.pos
	l.readChar() // opening quote

	var sb strings.Builder
	for {
		if l.ch == 0 {
			return Token{Type: TokenError, Literal: unterminated, Pos: startPos}
		}
		if l.ch == quote {
			if l.peekChar() != quote {
				break
			}
			l.readChar()
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
	l.readChar() // closing quote
	return Token{Type: typ, Literal: sb.String(), Pos: startPos}
}

// Tokenize returns all tokens from the input.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}
	return tokens
}

func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch))
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
