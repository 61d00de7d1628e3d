package parser

import (
	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// Expression precedence parsing using a Pratt parser.
//
// Precedence levels:
//
//	precedenceNone       = 0
//	precedenceOr         = 1
//	precedenceAnd        = 2
//	precedenceNot        = 3
//	precedenceComparison = 4  (=, <>, <, >, <=, >=, IS, IN, BETWEEN, LIKE)
//	precedenceAddition   = 5  (+, -, &, |, ^)
//	precedenceMultiply   = 6  (*, /, %)
//	precedenceUnary      = 7  (-, +, ~)
const (
	precedenceNone = iota
	precedenceOr
	precedenceAnd
	precedenceNot
	precedenceComparison
	precedenceAddition
	precedenceMultiply
	precedenceUnary
)

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() Expr {
	return p.parseExpressionWithPrecedence(precedenceNone + 1)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) Expr {
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	for {
		prec := infixPrecedence(p.token.Type)
		if prec < minPrecedence {
			break
		}

		left = p.parseInfixExpr(left, prec)
		if left == nil {
			break
		}
	}

	left = p.skipCollate(left)
	return left
}

// parsePrefixExpr parses unary operators and primary expressions.
func (p *Parser) parsePrefixExpr() Expr {
	switch p.token.Type {
	case token.NOT:
		if p.checkPeek(token.EXISTS) {
			p.nextToken()
			return p.parseExistsExpr(true)
		}
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precedenceNot)
		return &UnaryExpression{Op: token.NOT, Expr: expr}

	case token.MINUS, token.PLUS, token.TILDE:
		op := p.token.Type
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precedenceUnary)
		return &UnaryExpression{Op: op, Expr: expr}

	default:
		return p.parsePrimary()
	}
}

// infixPrecedence returns the precedence of t as an infix operator, or
// precedenceNone when t is not one.
func infixPrecedence(t token.TokenType) int {
	switch t {
	case token.OR:
		return precedenceOr
	case token.AND:
		return precedenceAnd
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE:
		return precedenceComparison
	case token.IS, token.IN, token.BETWEEN, token.LIKE:
		return precedenceComparison
	case token.NOT:
		// NOT IN, NOT LIKE, NOT BETWEEN
		return precedenceComparison
	case token.PLUS, token.MINUS, token.AMP, token.PIPE, token.CARET:
		return precedenceAddition
	case token.STAR, token.SLASH, token.MOD:
		return precedenceMultiply
	default:
		return precedenceNone
	}
}

// parseInfixExpr parses an infix expression given the left operand.
func (p *Parser) parseInfixExpr(left Expr, prec int) Expr {
	switch p.token.Type {
	case token.NOT:
		return p.parseNotInfixExpr(left)

	case token.IS:
		return p.parseIsExpr(left)

	case token.IN:
		p.nextToken()
		return p.parseInExpr(left, false)

	case token.BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, false)

	case token.LIKE:
		p.nextToken()
		return p.parseLikeExpr(left, false)
	}

	op := p.token
	p.nextToken()

	// Right operand binds tighter (left-associative)
	right := p.parseExpressionWithPrecedence(prec + 1)

	return &BinaryExpression{Left: left, Op: op.Type, Right: right}
}

// parseNotInfixExpr handles NOT as an infix modifier (NOT IN, NOT BETWEEN, NOT LIKE).
func (p *Parser) parseNotInfixExpr(left Expr) Expr {
	p.nextToken() // consume NOT

	switch p.token.Type {
	case token.IN:
		p.nextToken()
		return p.parseInExpr(left, true)

	case token.BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, true)

	case token.LIKE:
		p.nextToken()
		return p.parseLikeExpr(left, true)

	default:
		p.addError("expected IN, BETWEEN, or LIKE after NOT")
		return left
	}
}

// parseIsExpr parses IS [NOT] NULL.
func (p *Parser) parseIsExpr(left Expr) Expr {
	p.nextToken() // consume IS

	isNot := p.match(token.NOT)
	if !p.match(token.NULL) {
		p.addError("expected NULL after IS")
		return left
	}
	return &IsNullExpression{Expr: left, Not: isNot}
}

// parseInExpr parses the parenthesized part of an IN expression.
func (p *Parser) parseInExpr(left Expr, not bool) Expr {
	p.expect(token.LPAREN)
	in := &InExpression{Expr: left, Not: not}

	if p.check(token.SELECT) || p.check(token.WITH) {
		in.Query = p.parseSelectStatement()
	} else {
		in.Values = p.parseExpressionList()
	}

	p.expect(token.RPAREN)
	return in
}

// parseBetweenExpr parses a BETWEEN expression.
func (p *Parser) parseBetweenExpr(left Expr, not bool) Expr {
	between := &BetweenExpression{Expr: left, Not: not}
	// Bounds parse at addition precedence so AND is not captured
	between.Low = p.parseExpressionWithPrecedence(precedenceAddition)
	p.expect(token.AND)
	between.High = p.parseExpressionWithPrecedence(precedenceAddition)
	return between
}

// parseLikeExpr parses a LIKE expression with an optional ESCAPE.
func (p *Parser) parseLikeExpr(left Expr, not bool) Expr {
	like := &LikeExpression{Expr: left, Not: not}
	like.Pattern = p.parseExpressionWithPrecedence(precedenceAddition)
	if p.matchWord(SoftKeywordEscape) {
		like.Escape = p.parseExpressionWithPrecedence(precedenceAddition)
	}
	return like
}

// skipCollate drops a trailing COLLATE collation_name.
func (p *Parser) skipCollate(expr Expr) Expr {
	for p.checkWord(SoftKeywordCollate) && p.peek.Type == token.IDENT {
		p.nextToken()
		p.nextToken()
	}
	return expr
}

// parseExpressionList parses expr ("," expr)*.
func (p *Parser) parseExpressionList() []Expr {
	var exprs []Expr
	for {
		if expr := p.parseExpression(); expr != nil {
			exprs = append(exprs, expr)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	return exprs
}
