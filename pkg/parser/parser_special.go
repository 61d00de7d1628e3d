package parser

import (
	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// Special expression parsing: CASE, CAST, CONVERT, EXISTS, parenthesized
// expressions, subqueries.
//
// Grammar:
//
//	case_expr     → CASE [expr] (WHEN expr THEN expr)+ [ELSE expr] END
//	cast_expr     → [TRY_]CAST "(" expr AS type_name ")"
//	convert_expr  → [TRY_]CONVERT "(" type_name "," expr ["," style] ")"
//	exists_expr   → [NOT] EXISTS "(" select_stmt ")"
//	paren_expr    → "(" expression ")" | "(" select_stmt ")"  -- subquery if SELECT/WITH

// parseCaseExpr parses a CASE expression.
func (p *Parser) parseCaseExpr() Expr {
	p.expect(token.CASE)
	caseExpr := &CaseExpression{}

	// Simple CASE: CASE expr WHEN ...
	if !p.check(token.WHEN) {
		caseExpr.Operand = p.parseExpression()
	}

	for p.match(token.WHEN) {
		when := &WhenClause{}
		when.Condition = p.parseExpression()
		p.expect(token.THEN)
		when.Result = p.parseExpression()
		caseExpr.Whens = append(caseExpr.Whens, when)
	}

	if p.match(token.ELSE) {
		caseExpr.Else = p.parseExpression()
	}

	p.expect(token.END)
	return caseExpr
}

// parseCastExpr parses the parenthesized part of CAST / TRY_CAST.
func (p *Parser) parseCastExpr(try bool) Expr {
	p.expect(token.LPAREN)

	cast := &CastExpression{Try: try}
	cast.Expr = p.parseExpression()

	p.expect(token.AS)
	cast.DataType = p.parseDataType()

	p.expect(token.RPAREN)
	return cast
}

// parseConvertExpr parses the parenthesized part of CONVERT / TRY_CONVERT.
func (p *Parser) parseConvertExpr(try bool) Expr {
	p.expect(token.LPAREN)

	cast := &CastExpression{Convert: true, Try: try}
	cast.DataType = p.parseDataType()
	p.expect(token.COMMA)
	cast.Expr = p.parseExpression()

	if p.match(token.COMMA) {
		cast.Style = p.parseExpression()
	}

	p.expect(token.RPAREN)
	return cast
}

// parseParenExpr parses a parenthesized expression or a scalar subquery.
func (p *Parser) parseParenExpr() Expr {
	if !p.enter() {
		p.leave()
		p.skipParens()
		return nil
	}
	defer p.leave()

	p.expect(token.LPAREN)

	if p.check(token.SELECT) || p.check(token.WITH) {
		subquery := &ScalarSubquery{Query: p.parseSelectStatement()}
		p.expect(token.RPAREN)
		return subquery
	}

	expr := p.parseExpression()
	p.expect(token.RPAREN)
	return &ParenExpression{Expr: expr}
}

// parseExistsExpr parses an EXISTS expression.
func (p *Parser) parseExistsExpr(not bool) Expr {
	p.nextToken() // consume EXISTS

	p.expect(token.LPAREN)
	exists := &ExistsExpression{Not: not, Query: p.parseSelectStatement()}
	p.expect(token.RPAREN)

	return exists
}
