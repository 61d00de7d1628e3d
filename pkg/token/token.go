// Package token defines the lexical tokens of the T-SQL scripts analyzed by
// leaplineage.
//
// Only words that shape statement structure are keywords. Everything else,
// including many words T-SQL treats as non-reserved (APPLY, OFFSET, FETCH,
// PERCENT, OUTPUT), lexes as IDENT and is matched contextually by the parser.
package token

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
//
//nolint:revive // token.TokenType reads clearly at call sites
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT    // identifier, [bracketed] or "quoted" identifier, #temp
	VARIABLE // @name, @@name
	NUMBER   // 123, 45.67, 1e10, 0x1F
	STRING   // 'hello', N'hello'

	// Operators
	PLUS      // +
	MINUS     // -
	STAR      // *
	SLASH     // /
	MOD       // %
	AMP       // &
	PIPE      // |
	CARET     // ^
	TILDE     // ~
	EQ        // =
	NE        // != or <>
	LT        // <
	GT        // >
	LE        // <=
	GE        // >=
	PLUSEQ    // +=
	MINUSEQ   // -=
	STAREQ    // *=
	SLASHEQ   // /=
	DOT       // .
	COMMA     // ,
	SEMICOLON // ;
	COLONCOLON
	LPAREN // (
	RPAREN // )

	// Keywords (alphabetical)
	ALL
	ALTER
	AND
	ANY
	AS
	ASC
	BEGIN
	BETWEEN
	BY
	CASE
	CAST
	CONVERT
	CREATE
	CROSS
	DECLARE
	DEFAULT
	DELETE
	DESC
	DISTINCT
	ELSE
	END
	EXCEPT
	EXEC
	EXECUTE
	EXISTS
	FOR
	FROM
	FULL
	FUNCTION
	GO
	GROUP
	HAVING
	IF
	IN
	INNER
	INSERT
	INTERSECT
	INTO
	IS
	JOIN
	LEFT
	LIKE
	NOT
	NULL
	ON
	OR
	ORDER
	OUTER
	OVER
	PARTITION
	PROC
	PROCEDURE
	RETURN
	RIGHT
	SELECT
	SET
	TABLE
	THEN
	TOP
	TRIGGER
	UNION
	UPDATE
	VALUES
	VIEW
	WHEN
	WHERE
	WHILE
	WITH
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:    "IDENT",
	VARIABLE: "VARIABLE",
	NUMBER:   "NUMBER",
	STRING:   "STRING",

	PLUS:       "+",
	MINUS:      "-",
	STAR:       "*",
	SLASH:      "/",
	MOD:        "%",
	AMP:        "&",
	PIPE:       "|",
	CARET:      "^",
	TILDE:      "~",
	EQ:         "=",
	NE:         "<>",
	LT:         "<",
	GT:         ">",
	LE:         "<=",
	GE:         ">=",
	PLUSEQ:     "+=",
	MINUSEQ:    "-=",
	STAREQ:     "*=",
	SLASHEQ:    "/=",
	DOT:        ".",
	COMMA:      ",",
	SEMICOLON:  ";",
	COLONCOLON: "::",
	LPAREN:     "(",
	RPAREN:     ")",
}

// keywords maps lowercase keyword strings to their token types.
var keywords = map[string]TokenType{
	"all":       ALL,
	"alter":     ALTER,
	"and":       AND,
	"any":       ANY,
	"as":        AS,
	"asc":       ASC,
	"begin":     BEGIN,
	"between":   BETWEEN,
	"by":        BY,
	"case":      CASE,
	"cast":      CAST,
	"convert":   CONVERT,
	"create":    CREATE,
	"cross":     CROSS,
	"declare":   DECLARE,
	"default":   DEFAULT,
	"delete":    DELETE,
	"desc":      DESC,
	"distinct":  DISTINCT,
	"else":      ELSE,
	"end":       END,
	"except":    EXCEPT,
	"exec":      EXEC,
	"execute":   EXECUTE,
	"exists":    EXISTS,
	"for":       FOR,
	"from":      FROM,
	"full":      FULL,
	"function":  FUNCTION,
	"go":        GO,
	"group":     GROUP,
	"having":    HAVING,
	"if":        IF,
	"in":        IN,
	"inner":     INNER,
	"insert":    INSERT,
	"intersect": INTERSECT,
	"into":      INTO,
	"is":        IS,
	"join":      JOIN,
	"left":      LEFT,
	"like":      LIKE,
	"not":       NOT,
	"null":      NULL,
	"on":        ON,
	"or":        OR,
	"order":     ORDER,
	"outer":     OUTER,
	"over":      OVER,
	"partition": PARTITION,
	"proc":      PROC,
	"procedure": PROCEDURE,
	"return":    RETURN,
	"right":     RIGHT,
	"select":    SELECT,
	"set":       SET,
	"table":     TABLE,
	"then":      THEN,
	"top":       TOP,
	"trigger":   TRIGGER,
	"union":     UNION,
	"update":    UPDATE,
	"values":    VALUES,
	"view":      VIEW,
	"when":      WHEN,
	"where":     WHERE,
	"while":     WHILE,
	"with":      WITH,
}

func init() {
	for word, tok := range keywords {
		tokenNames[tok] = strings.ToUpper(word)
	}
}

// LookupIdent returns the keyword token type for a lowercase identifier,
// or IDENT if the word is not a keyword.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token type is a keyword.
func IsKeyword(t TokenType) bool {
	return t >= ALL && t <= WITH
}

// IsOperator returns true if the token type is an operator or punctuation.
func IsOperator(t TokenType) bool {
	return t >= PLUS && t <= RPAREN
}

// Position represents a location in the source text.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
	Quoted  bool // [bracketed] or "quoted" identifier
}

// Is reports whether the token is an identifier spelling the given word,
// ignoring case. Word must be upper case.
func (t Token) Is(word string) bool {
	if t.Type != IDENT || t.Quoted {
		return false
	}
	return strings.EqualFold(t.Literal, word)
}
