// Package parser provides a best-effort T-SQL script parser for lineage
// analysis.
//
// # Usage
//
//	script, errs := parser.Parse(sqlText)
//	for _, e := range errs {
//	    fmt.Println(e) // parse errors are recoverable
//	}
//	for _, stmt := range script.Statements {
//	    // ...
//	}
//
// Parse never fails outright: when a statement cannot be parsed the error
// is recorded, the parser skips to the next statement boundary and
// continues. A non-nil Script is always returned.
//
// # Grammar Overview
//
//	script        → (statement [";"] | GO)*
//	statement     → select_stmt | insert | update | delete | execute
//	              | create_view | create_proc | block | if | while
//	              | declare | set | return | other
//	select_stmt   → [WITH cte_list] query_expr [ORDER BY order_list]
//	query_expr    → query_term ((UNION [ALL] | EXCEPT) query_term)*
//	query_term    → query_primary (INTERSECT query_primary)*
//	query_primary → query_spec | "(" query_expr ")"
//
// See each file for detailed grammar rules for that section.
package parser

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// maxNestingDepth bounds recursion on pathologically nested input.
const maxNestingDepth = 200

// Parser parses T-SQL into an AST.
type Parser struct {
	lexer  *Lexer
	token  token.Token // current token
	peek   token.Token // lookahead token
	peek2  token.Token // second lookahead token
	prev   token.Token // last consumed token
	errors []*ParseError
	depth  int
}

// NewParser creates a new parser for the given script.
func NewParser(sql string) *Parser {
	p := &Parser{
		lexer: NewLexer(sql),
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a complete script. The returned errors are sorted by position.
func Parse(sql string) (*Script, []*ParseError) {
	p := NewParser(sql)
	script := p.ParseScript()
	return script, p.Errors()
}

// ParseScript parses statements until EOF.
func (p *Parser) ParseScript() *Script {
	script := &Script{}
	for !p.check(token.EOF) {
		if stmt := p.parseStatementProgress(); stmt != nil {
			script.Statements = append(script.Statements, stmt)
		}
	}
	return script
}

// Errors returns parser and lexer errors ordered by position.
func (p *Parser) Errors() []*ParseError {
	all := make([]*ParseError, 0, len(p.errors)+len(p.lexer.Errors()))
	all = append(all, p.lexer.Errors()...)
	all = append(all, p.errors...)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Line != all[j].Line {
			return all[i].Line < all[j].Line
		}
		return all[i].Column < all[j].Column
	})
	return all
}

// parseStatementProgress parses one statement and guarantees that at
// least one token is consumed, so a broken statement cannot stall the loop.
func (p *Parser) parseStatementProgress() Statement {
	start := p.token.Pos.Offset
	stmt := p.parseStatement()
	if p.token.Pos.Offset == start && !p.check(token.EOF) {
		p.nextToken()
	}
	return stmt
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.prev = p.token
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// checkPeek2 returns true if the peek2 token is of the given type.
func (p *Parser) checkPeek2(t token.TokenType) bool {
	return p.peek2.Type == t
}

// checkWord returns true if the current token is the soft keyword word.
func (p *Parser) checkWord(word string) bool {
	return p.token.Is(word)
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// matchWord consumes the current token if it is the soft keyword word.
func (p *Parser) matchWord(word string) bool {
	if p.checkWord(word) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(p.token), t))
	return false
}

// addError adds a parse error at the current token.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, newParseError(p.token.Pos, msg))
}

// describe renders a token for error messages.
func (p *Parser) describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.VARIABLE, token.NUMBER:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	case token.STRING:
		return "string literal"
	default:
		return tok.Type.String()
	}
}

// enter increments the nesting depth; it reports false (with an error)
// when the input nests deeper than maxNestingDepth.
func (p *Parser) enter() bool {
	p.depth++
	if p.depth > maxNestingDepth {
		p.addError(fmt.Sprintf(ErrMaxNestingExceeded, maxNestingDepth))
		return false
	}
	return true
}

func (p *Parser) leave() {
	p.depth--
}

// isIdent returns true for identifiers usable as names (plain or quoted).
func (p *Parser) isIdent(tok token.Token) bool {
	return tok.Type == token.IDENT
}

// ---------- Boundary Helpers ----------

// isStatementStart returns true if tok begins a new statement.
func (p *Parser) isStatementStart(tok, next, next2 token.Token) bool {
	switch tok.Type {
	case token.SELECT, token.INSERT, token.UPDATE, token.DELETE,
		token.EXEC, token.EXECUTE, token.CREATE, token.ALTER,
		token.BEGIN, token.IF, token.WHILE, token.DECLARE,
		token.SET, token.RETURN:
		return true
	case token.WITH:
		// A CTE list: WITH name AS ( or WITH name (cols)
		return next.Type == token.IDENT && (next2.Type == token.AS || next2.Type == token.LPAREN)
	case token.IDENT:
		return !tok.Quoted && isStatementWord(tok.Literal)
	}
	return false
}

// atStatementBoundary reports whether the current token ends the current
// statement.
func (p *Parser) atStatementBoundary() bool {
	switch p.token.Type {
	case token.EOF, token.SEMICOLON, token.GO, token.END, token.ELSE:
		return true
	}
	return p.isStatementStart(p.token, p.peek, p.peek2)
}

// skipToBoundary skips tokens until a statement boundary at parenthesis
// depth zero.
func (p *Parser) skipToBoundary() {
	depth := 0
	for !p.check(token.EOF) {
		switch p.token.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			if depth == 0 {
				return
			}
			depth--
		default:
			if depth == 0 && p.atStatementBoundary() && !p.isDropGuard() {
				return
			}
		}
		p.nextToken()
	}
}

// isDropGuard reports an IF that belongs to DROP ... IF EXISTS rather than
// starting a new IF statement.
func (p *Parser) isDropGuard() bool {
	if !p.check(token.IF) {
		return false
	}
	switch p.prev.Type {
	case token.TABLE, token.VIEW, token.PROC, token.PROCEDURE, token.FUNCTION, token.TRIGGER:
		return true
	case token.IDENT:
		return p.prev.Is("INDEX") || p.prev.Is("SCHEMA") || p.prev.Is("TYPE") || p.prev.Is("SEQUENCE")
	}
	return false
}

// skipToTerminator skips tokens until ';', GO or EOF.
func (p *Parser) skipToTerminator() {
	for !p.check(token.EOF) && !p.check(token.SEMICOLON) && !p.check(token.GO) {
		p.nextToken()
	}
}

// skipToBatchEnd skips tokens until GO or EOF.
func (p *Parser) skipToBatchEnd() {
	for !p.check(token.EOF) && !p.check(token.GO) {
		p.nextToken()
	}
}

// skipParens skips a balanced parenthesized group starting at "(".
func (p *Parser) skipParens() {
	if !p.check(token.LPAREN) {
		return
	}
	depth := 0
	for !p.check(token.EOF) {
		switch p.token.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				p.nextToken()
				return
			}
		}
		p.nextToken()
	}
}
