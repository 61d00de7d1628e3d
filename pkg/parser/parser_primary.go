package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// Primary expression parsing: literals, column refs, function calls.
//
// Grammar:
//
//	primary       → literal | VARIABLE | column_ref | func_call | paren_expr
//	              | case_expr | cast_expr | exists_expr
//	literal       → NUMBER | STRING | NULL | DEFAULT
//	column_ref    → [[schema "."] table "."] (column | "*")
//	func_call     → object_name "(" [DISTINCT | ALL] [expr_list | "*"] ")"
//	                [WITHIN GROUP "(" ORDER BY order_list ")"] [OVER window_spec]

// datePartFunctions take a date part keyword as their first argument.
var datePartFunctions = map[string]bool{
	"DATEADD":      true,
	"DATEDIFF":     true,
	"DATEDIFF_BIG": true,
	"DATENAME":     true,
	"DATEPART":     true,
	"DATETRUNC":    true,
	"DATE_BUCKET":  true,
}

// niladicFunctions are called without parentheses.
var niladicFunctions = map[string]bool{
	"CURRENT_TIMESTAMP": true,
	"CURRENT_USER":      true,
	"SESSION_USER":      true,
	"SYSTEM_USER":       true,
	"USER":              true,
}

// parsePrimary parses primary expressions.
func (p *Parser) parsePrimary() Expr {
	switch p.token.Type {
	case token.NUMBER:
		lit := &Literal{Kind: LiteralNumber, Value: p.token.Literal}
		p.nextToken()
		return lit

	case token.STRING:
		lit := &Literal{Kind: LiteralString, Value: p.token.Literal}
		p.nextToken()
		return lit

	case token.NULL:
		p.nextToken()
		return &Literal{Kind: LiteralNull, Value: "NULL"}

	case token.DEFAULT:
		p.nextToken()
		return &Literal{Kind: LiteralKeyword, Value: "DEFAULT"}

	case token.VARIABLE:
		v := &VariableReference{Name: p.token.Literal}
		p.nextToken()
		return v

	case token.CASE:
		return p.parseCaseExpr()

	case token.CAST:
		p.nextToken()
		return p.parseCastExpr(false)

	case token.CONVERT:
		p.nextToken()
		return p.parseConvertExpr(false)

	case token.EXISTS:
		return p.parseExistsExpr(false)

	case token.ALL, token.ANY:
		// x > ALL (subquery)
		p.nextToken()
		return p.parseParenExpr()

	case token.LEFT, token.RIGHT:
		// LEFT(s, n) and RIGHT(s, n) are functions outside of joins
		if p.checkPeek(token.LPAREN) {
			name := &ObjectName{Parts: []string{p.token.Literal}}
			p.nextToken()
			return p.parseFuncCall(name)
		}

	case token.IDENT:
		return p.parseIdentifierExpr()

	case token.LPAREN:
		return p.parseParenExpr()
	}

	p.addError(fmt.Sprintf(ErrUnexpectedExpr, p.describe(p.token)))
	return nil
}

// parseIdentifierExpr parses an identifier which could be a column ref or
// function call.
func (p *Parser) parseIdentifierExpr() Expr {
	first := p.token
	parts := []string{first.Literal}
	p.nextToken()

	if !first.Quoted && !p.check(token.DOT) && !p.check(token.LPAREN) {
		if niladicFunctions[strings.ToUpper(first.Literal)] {
			return &FunctionCall{Name: &ObjectName{Parts: parts}}
		}
	}

	for p.check(token.DOT) {
		p.nextToken()
		switch {
		case p.isIdent(p.token):
			parts = append(parts, p.token.Literal)
			p.nextToken()
		case p.check(token.STAR):
			// t.* is only valid as a select element
			p.nextToken()
			return &ColumnReference{Parts: append(parts, "*")}
		case p.check(token.DOT):
			// db..table
			parts = append(parts, "")
		default:
			p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(p.token), "identifier"))
			return &ColumnReference{Parts: parts}
		}
	}

	if p.check(token.LPAREN) {
		return p.parseFuncCall(&ObjectName{Parts: parts})
	}

	return &ColumnReference{Parts: parts}
}

// parseFuncCall parses a function call, with the current token at "(".
func (p *Parser) parseFuncCall(name *ObjectName) Expr {
	upper := ""
	if len(name.Parts) == 1 {
		upper = strings.ToUpper(name.Parts[0])
	}
	switch upper {
	case "TRY_CAST":
		return p.parseCastExpr(true)
	case "TRY_CONVERT":
		return p.parseConvertExpr(true)
	case "SOME":
		// x = SOME (subquery)
		return p.parseParenExpr()
	}

	if !p.enter() {
		p.leave()
		p.skipParens()
		return nil
	}
	defer p.leave()

	p.expect(token.LPAREN)
	fn := &FunctionCall{Name: name}

	switch {
	case p.check(token.STAR):
		fn.Star = true
		p.nextToken()
	case p.check(token.RPAREN):
		// no arguments
	default:
		if p.match(token.DISTINCT) {
			fn.Distinct = true
		} else {
			p.match(token.ALL)
		}

		if datePartFunctions[upper] && p.check(token.IDENT) && !p.token.Quoted && p.checkPeek(token.COMMA) {
			fn.Args = append(fn.Args, &Literal{Kind: LiteralKeyword, Value: strings.ToUpper(p.token.Literal)})
			p.nextToken()
			p.nextToken()
		}
		fn.Args = append(fn.Args, p.parseExpressionList()...)
	}

	p.expect(token.RPAREN)

	if p.checkWord(SoftKeywordWithin) && p.checkPeek(token.GROUP) {
		p.nextToken()
		p.nextToken()
		p.expect(token.LPAREN)
		if p.expect(token.ORDER) {
			p.expect(token.BY)
			fn.WithinGroup = p.parseOrderByList()
		}
		p.expect(token.RPAREN)
	}

	if p.match(token.OVER) {
		fn.Over = p.parseWindowSpec()
	}

	return fn
}
