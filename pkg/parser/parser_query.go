package parser

import (
	"fmt"

	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// Query parsing: SELECT statements, CTEs, set operations, select lists.
//
// Grammar:
//
//	select_stmt   → [WITH cte ("," cte)*] query_expr [ORDER BY order_list [offset_fetch]]
//	                [FOR (XML | JSON | BROWSE) ...] [OPTION "(" ... ")"]
//	cte           → identifier ["(" ident_list ")"] AS "(" select_stmt ")"
//	query_expr    → query_term ((UNION [ALL] | EXCEPT) query_term)*
//	query_term    → query_primary (INTERSECT query_primary)*
//	query_primary → query_spec | "(" query_expr [ORDER BY order_list] ")"
//	query_spec    → SELECT [ALL | DISTINCT] [TOP top_spec] select_list
//	                [INTO object] [FROM from_list] [WHERE expr]
//	                [GROUP BY [ALL] expr_list] [HAVING expr]
//	select_item   → "*" | qualifier "." "*" | @var assign_op expr
//	              | alias "=" expr | expr [[AS] alias]

// parseSelectStatement parses a SELECT with an optional WITH clause.
func (p *Parser) parseSelectStatement() *SelectStatement {
	if !p.enter() {
		p.leave()
		p.skipToBoundary()
		return &SelectStatement{}
	}
	defer p.leave()

	var with *WithClause
	if p.check(token.WITH) {
		with = p.parseWithClause()
	}
	stmt := p.parseSelectStatementBody()
	stmt.With = with
	return stmt
}

// parseSelectStatementBody parses a query expression and its trailing
// ORDER BY / FOR / OPTION clauses.
func (p *Parser) parseSelectStatementBody() *SelectStatement {
	stmt := &SelectStatement{}
	stmt.Query = p.parseQueryExpression()

	if p.check(token.ORDER) && p.checkPeek(token.BY) {
		p.nextToken()
		p.nextToken()
		stmt.OrderBy = p.parseOrderByList()
		p.skipOffsetFetch()
	}

	p.skipForClause()
	p.skipOptionClause()
	return stmt
}

// parseWithClause parses WITH cte [, cte ...].
func (p *Parser) parseWithClause() *WithClause {
	p.expect(token.WITH)
	with := &WithClause{}

	for {
		if !p.isIdent(p.token) {
			p.addError(ErrExpectedObjectName)
			break
		}
		cte := &CommonTableExpression{Name: p.token.Literal}
		p.nextToken()

		if p.check(token.LPAREN) {
			cte.Columns = p.parseIdentList()
		}

		p.expect(token.AS)
		p.expect(token.LPAREN)
		cte.Query = p.parseSelectStatement()
		p.expect(token.RPAREN)

		with.CTEs = append(with.CTEs, cte)
		if !p.match(token.COMMA) {
			break
		}
	}

	return with
}

// parseQueryExpression parses UNION / EXCEPT chains, left-associative.
func (p *Parser) parseQueryExpression() QueryExpression {
	left := p.parseQueryTerm()
	if left == nil {
		return nil
	}

	for {
		var op SetOp
		switch p.token.Type {
		case token.UNION:
			op = SetOpUnion
		case token.EXCEPT:
			op = SetOpExcept
		default:
			return left
		}
		p.nextToken()

		bin := &BinaryQueryExpression{Op: op, Left: left}
		bin.All = p.match(token.ALL)
		bin.Right = p.parseQueryTerm()
		if bin.Right == nil {
			return left
		}
		left = bin
	}
}

// parseQueryTerm parses INTERSECT chains, which bind tighter than UNION.
func (p *Parser) parseQueryTerm() QueryExpression {
	left := p.parseQueryPrimary()
	if left == nil {
		return nil
	}

	for p.check(token.INTERSECT) {
		p.nextToken()
		bin := &BinaryQueryExpression{Op: SetOpIntersect, Left: left}
		bin.All = p.match(token.ALL)
		bin.Right = p.parseQueryPrimary()
		if bin.Right == nil {
			return left
		}
		left = bin
	}
	return left
}

// parseQueryPrimary parses a query specification or a parenthesized query.
func (p *Parser) parseQueryPrimary() QueryExpression {
	switch p.token.Type {
	case token.SELECT:
		return p.parseQuerySpecification()

	case token.LPAREN:
		if !p.enter() {
			p.leave()
			p.skipParens()
			return nil
		}
		defer p.leave()

		p.nextToken()
		inner := p.parseQueryExpression()
		if p.check(token.ORDER) && p.checkPeek(token.BY) {
			// (SELECT TOP 1 ... ORDER BY x) UNION ...
			p.nextToken()
			p.nextToken()
			p.parseOrderByList()
			p.skipOffsetFetch()
		}
		p.expect(token.RPAREN)
		if inner == nil {
			return nil
		}
		return &QueryParenthesisExpression{Query: inner}

	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(p.token), "SELECT"))
		return nil
	}
}

// parseQuerySpecification parses a single SELECT block.
func (p *Parser) parseQuerySpecification() *QuerySpecification {
	p.expect(token.SELECT)
	spec := &QuerySpecification{}

	if p.match(token.DISTINCT) {
		spec.Distinct = true
	} else {
		p.match(token.ALL)
	}

	if p.match(token.TOP) {
		spec.Top = p.parseTopClause()
	}

	spec.Elements = p.parseSelectElements()

	if p.match(token.INTO) {
		spec.Into = p.parseTargetName()
	}

	if p.match(token.FROM) {
		spec.From = p.parseFromList()
	}

	if p.match(token.WHERE) {
		spec.Where = p.parseExpression()
	}

	if p.check(token.GROUP) && p.checkPeek(token.BY) {
		p.nextToken()
		p.nextToken()
		p.match(token.ALL)
		spec.GroupBy = p.parseExpressionList()
		// WITH ROLLUP / WITH CUBE
		if p.check(token.WITH) && (p.peek.Is("ROLLUP") || p.peek.Is("CUBE")) {
			p.nextToken()
			p.nextToken()
		}
	}

	if p.match(token.HAVING) {
		spec.Having = p.parseExpression()
	}

	return spec
}

// parseTopClause parses the part after TOP: (expr) | n, PERCENT, WITH TIES.
func (p *Parser) parseTopClause() *TopClause {
	top := &TopClause{}
	if p.match(token.LPAREN) {
		top.Count = p.parseExpression()
		p.expect(token.RPAREN)
	} else {
		top.Count = p.parsePrimary()
	}

	top.Percent = p.matchWord(SoftKeywordPercent)

	if p.check(token.WITH) && p.peek.Is(SoftKeywordTies) {
		p.nextToken()
		p.nextToken()
		top.WithTies = true
	}
	return top
}

// parseSelectElements parses the comma-separated select list.
func (p *Parser) parseSelectElements() []SelectElement {
	var elements []SelectElement
	for {
		if elem := p.parseSelectElement(); elem != nil {
			elements = append(elements, elem)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	return elements
}

// parseSelectElement parses one select list item.
func (p *Parser) parseSelectElement() SelectElement {
	switch {
	case p.check(token.STAR):
		p.nextToken()
		return &SelectStarExpression{}

	case p.check(token.VARIABLE) && isAssignOp(p.peek.Type):
		set := &SelectSetVariable{Variable: p.token.Literal, Op: p.peek.Type}
		p.nextToken()
		p.nextToken()
		set.Expr = p.parseExpression()
		return set

	case (p.check(token.IDENT) || p.check(token.STRING)) && p.checkPeek(token.EQ):
		// alias = expr
		alias := p.token.Literal
		p.nextToken()
		p.nextToken()
		return &SelectScalarExpression{Alias: alias, Expr: p.parseExpression()}
	}

	expr := p.parseExpression()
	if expr == nil {
		return nil
	}

	if col, ok := expr.(*ColumnReference); ok && col.Column() == "*" {
		return &SelectStarExpression{Qualifier: col.Parts[:len(col.Parts)-1]}
	}

	return &SelectScalarExpression{Expr: expr, Alias: p.parseSelectAlias()}
}

// parseSelectAlias parses an optional [AS] alias after a select item.
// String literals are accepted as aliases.
func (p *Parser) parseSelectAlias() string {
	if p.check(token.STRING) {
		alias := p.token.Literal
		p.nextToken()
		return alias
	}
	return p.parseAlias()
}

// parseOrderByList parses expr [ASC | DESC] ("," ...)*.
func (p *Parser) parseOrderByList() []*OrderByItem {
	var items []*OrderByItem
	for {
		expr := p.parseExpression()
		if expr == nil {
			break
		}
		item := &OrderByItem{Expr: expr}
		if p.match(token.DESC) {
			item.Desc = true
		} else {
			p.match(token.ASC)
		}
		items = append(items, item)

		if !p.match(token.COMMA) {
			break
		}
	}
	return items
}

// skipOffsetFetch skips OFFSET n ROWS [FETCH NEXT n ROWS ONLY].
func (p *Parser) skipOffsetFetch() {
	if !p.matchWord(SoftKeywordOffset) {
		return
	}
	p.parseExpression()
	if p.checkWord("ROWS") || p.checkWord("ROW") {
		p.nextToken()
	}
	if p.matchWord(SoftKeywordFetch) {
		if p.checkWord("NEXT") || p.checkWord("FIRST") {
			p.nextToken()
		}
		p.parseExpression()
		if p.checkWord("ROWS") || p.checkWord("ROW") {
			p.nextToken()
		}
		p.matchWord("ONLY")
	}
}

// skipForClause skips FOR XML ..., FOR JSON ... and FOR BROWSE.
func (p *Parser) skipForClause() {
	if !p.check(token.FOR) {
		return
	}
	if !p.peek.Is("XML") && !p.peek.Is("JSON") && !p.peek.Is("BROWSE") {
		return
	}
	p.nextToken()
	for {
		switch {
		case p.check(token.IDENT) && !p.atStatementBoundary():
			p.nextToken()
		case p.check(token.LPAREN):
			p.skipParens()
		case p.check(token.COMMA):
			p.nextToken()
		default:
			return
		}
	}
}
