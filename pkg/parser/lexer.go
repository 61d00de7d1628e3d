package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// Lexer tokenizes T-SQL input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)

	// Errors collected while scanning (unterminated literals, stray bytes)
	errors []*ParseError
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// atEOF reports whether the whole input has been consumed.
func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// invalidUTF8 reports whether the current byte does not start a valid
// UTF-8 sequence.
func (l *Lexer) invalidUTF8() bool {
	if l.ch < utf8.RuneSelf || l.atEOF() {
		return false
	}
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	return r == utf8.RuneError && size == 1
}

func (l *Lexer) addError(pos token.Position, msg string) {
	l.errors = append(l.errors, newParseError(pos, msg))
}

// Errors returns the lexical errors found so far.
func (l *Lexer) Errors() []*ParseError {
	return l.errors
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()
	if l.atEOF() {
		return token.Token{Type: token.EOF, Pos: pos}
	}

	var tok token.Token
	tok.Pos = pos

	switch l.ch {
	case '+':
		tok = l.withAssign(token.PLUS, token.PLUSEQ, pos)
	case '-':
		tok = l.withAssign(token.MINUS, token.MINUSEQ, pos)
	case '*':
		tok = l.withAssign(token.STAR, token.STAREQ, pos)
	case '/':
		tok = l.withAssign(token.SLASH, token.SLASHEQ, pos)
	case '%':
		tok = l.newToken(token.MOD, "%", pos)
	case '&':
		tok = l.newToken(token.AMP, "&", pos)
	case '|':
		tok = l.newToken(token.PIPE, "|", pos)
	case '^':
		tok = l.newToken(token.CARET, "^", pos)
	case '~':
		tok = l.newToken(token.TILDE, "~", pos)
	case '=':
		tok = l.newToken(token.EQ, "=", pos)
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = l.newToken(token.LE, "<=", pos)
		case '>':
			l.readChar()
			tok = l.newToken(token.NE, "<>", pos)
		default:
			tok = l.newToken(token.LT, "<", pos)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.newToken(token.GE, ">=", pos)
		} else {
			tok = l.newToken(token.GT, ">", pos)
		}
	case '!':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = l.newToken(token.NE, "!=", pos)
		case '<':
			l.readChar()
			tok = l.newToken(token.GE, "!<", pos)
		case '>':
			l.readChar()
			tok = l.newToken(token.LE, "!>", pos)
		default:
			l.addError(pos, fmt.Sprintf(ErrIllegalCharacter, l.ch))
			tok = l.newToken(token.ILLEGAL, string(l.ch), pos)
		}
	case ':':
		if l.peekChar() == ':' {
			l.readChar()
			tok = l.newToken(token.COLONCOLON, "::", pos)
		} else {
			l.addError(pos, fmt.Sprintf(ErrIllegalCharacter, l.ch))
			tok = l.newToken(token.ILLEGAL, ":", pos)
		}
	case '.':
		if isDigit(l.peekChar()) {
			return token.Token{Type: token.NUMBER, Literal: l.readNumber(), Pos: pos}
		}
		tok = l.newToken(token.DOT, ".", pos)
	case ',':
		tok = l.newToken(token.COMMA, ",", pos)
	case ';':
		tok = l.newToken(token.SEMICOLON, ";", pos)
	case '(':
		tok = l.newToken(token.LPAREN, "(", pos)
	case ')':
		tok = l.newToken(token.RPAREN, ")", pos)
	case '\'':
		return token.Token{Type: token.STRING, Literal: l.readString(pos), Pos: pos}
	case '"':
		return token.Token{Type: token.IDENT, Literal: l.readDelimited('"', pos), Pos: pos, Quoted: true}
	case '[':
		return token.Token{Type: token.IDENT, Literal: l.readDelimited(']', pos), Pos: pos, Quoted: true}
	case '@':
		return token.Token{Type: token.VARIABLE, Literal: l.readWord(), Pos: pos}
	case '#':
		// Temp tables (#t, ##t) are ordinary identifiers.
		return token.Token{Type: token.IDENT, Literal: l.readWord(), Pos: pos}
	default:
		switch {
		case l.invalidUTF8():
			l.addError(pos, fmt.Sprintf(ErrInvalidUTF8, l.ch))
			tok = l.newToken(token.ILLEGAL, string(l.ch), pos)
		case (l.ch == 'N' || l.ch == 'n') && l.peekChar() == '\'':
			l.readChar() // skip N prefix
			return token.Token{Type: token.STRING, Literal: l.readString(pos), Pos: pos}
		case isIdentStart(l.ch):
			tok.Literal = l.readWord()
			tok.Type = token.LookupIdent(strings.ToLower(tok.Literal))
			return tok
		case isDigit(l.ch):
			return token.Token{Type: token.NUMBER, Literal: l.readNumber(), Pos: pos}
		default:
			l.addError(pos, fmt.Sprintf(ErrIllegalCharacter, l.ch))
			tok = l.newToken(token.ILLEGAL, string(l.ch), pos)
		}
	}

	l.readChar()
	return tok
}

// withAssign returns a compound assignment token when the operator is
// followed by '=' (+=, -=, *=, /=).
func (l *Lexer) withAssign(op, assign token.TokenType, pos token.Position) token.Token {
	if l.peekChar() == '=' {
		lit := string(l.ch) + "="
		l.readChar()
		return l.newToken(assign, lit, pos)
	}
	return l.newToken(op, string(l.ch), pos)
}

// newToken creates a new token.
func (l *Lexer) newToken(tokenType token.TokenType, literal string, pos token.Position) token.Token {
	return token.Token{Type: tokenType, Literal: literal, Pos: pos}
}

// skipWhitespaceAndComments skips whitespace, line comments and
// (possibly nested) block comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' || l.ch == '\v' {
			l.readChar()
		}

		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && !l.atEOF() {
				l.readChar()
			}
			continue
		}

		if l.ch == '/' && l.peekChar() == '*' {
			l.skipBlockComment()
			continue
		}

		break
	}
}

// skipBlockComment skips a block comment. T-SQL block comments nest.
func (l *Lexer) skipBlockComment() {
	start := l.currentPos()
	depth := 0
	for !l.atEOF() {
		switch {
		case l.ch == '/' && l.peekChar() == '*':
			depth++
			l.readChar()
			l.readChar()
		case l.ch == '*' && l.peekChar() == '/':
			depth--
			l.readChar()
			l.readChar()
			if depth == 0 {
				return
			}
		default:
			l.readChar()
		}
	}
	l.addError(start, ErrUnterminatedComment)
}

// readString reads a single-quoted string literal.
// Handles doubled single quotes as escape: 'it''s' -> it's
func (l *Lexer) readString(start token.Position) string {
	l.readChar() // skip opening quote

	var result strings.Builder
	for !l.atEOF() {
		if l.ch == '\'' {
			if l.peekChar() == '\'' {
				result.WriteByte('\'')
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			return result.String()
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
	l.addError(start, ErrUnterminatedString)
	return result.String()
}

// readDelimited reads a [bracketed] or "quoted" identifier. A doubled
// closing delimiter escapes itself: [a]]b] -> a]b
func (l *Lexer) readDelimited(closeCh byte, start token.Position) string {
	l.readChar() // skip opening delimiter

	var result strings.Builder
	for !l.atEOF() {
		if l.ch == closeCh {
			if l.peekChar() == closeCh {
				result.WriteByte(closeCh)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing delimiter
			return result.String()
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
	l.addError(start, ErrUnterminatedIdent)
	return result.String()
}

// readWord reads an identifier-like word, including a leading @, @@, # or ##.
func (l *Lexer) readWord() string {
	start := l.pos
	for l.ch == '@' || l.ch == '#' {
		l.readChar()
	}
	for isIdentPart(l.ch) {
		if l.ch < utf8.RuneSelf {
			l.readChar()
			continue
		}
		if l.invalidUTF8() {
			break
		}
		_, size := utf8.DecodeRuneInString(l.input[l.pos:])
		for range size {
			l.readChar()
		}
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal (integer, decimal, scientific, hex).
func (l *Lexer) readNumber() string {
	start := l.pos

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
		return l.input[start:l.pos]
	}

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peekChar()) || l.peekChar() == '+' || l.peekChar() == '-') {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	return l.input[start:l.pos]
}

// isIdentStart returns true if ch can start an identifier. Bytes of
// multi-byte UTF-8 sequences are accepted so unicode names lex as words.
func isIdentStart(ch byte) bool {
	return ch == '_' || ch >= utf8.RuneSelf || unicode.IsLetter(rune(ch))
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '$' || ch == '@' || ch == '#'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// Tokenize returns all tokens from the input.
func Tokenize(input string) []token.Token {
	l := NewLexer(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens
}
