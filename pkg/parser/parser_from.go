package parser

import (
	"fmt"

	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// FROM clause parsing: table references, derived tables, APPLY, JOINs.
//
// Grammar:
//
//	from_list     → joined_table ("," joined_table)*
//	joined_table  → table_primary (join)*
//	table_primary → object_name [alias] [hints]
//	              | object_name "(" [expr_list] ")" [alias ["(" ident_list ")"]]
//	              | VARIABLE [alias]
//	              | "(" select_stmt ")" [AS] alias ["(" ident_list ")"]
//	              | "(" VALUES rows ")" [AS] alias ["(" ident_list ")"]
//	              | "(" joined_table ")"
//	join          → join_type [hint] JOIN table_primary ON expr
//	              | CROSS JOIN table_primary | (CROSS | OUTER) APPLY table_primary
//	join_type     → [INNER] | LEFT [OUTER] | RIGHT [OUTER] | FULL [OUTER]

// joinHints are physical join hints between the join type and JOIN.
var joinHints = map[string]bool{
	"HASH":   true,
	"LOOP":   true,
	"MERGE":  true,
	"REMOTE": true,
}

// parseFromList parses a comma-separated FROM list. Each item keeps its
// joins nested in a JoinTableReference.
func (p *Parser) parseFromList() []TableReference {
	var refs []TableReference
	for {
		if ref := p.parseJoinedTable(); ref != nil {
			refs = append(refs, ref)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	return refs
}

// parseJoinedTable parses a table primary followed by any number of joins.
func (p *Parser) parseJoinedTable() TableReference {
	left := p.parseTablePrimary()
	if left == nil {
		return nil
	}

	for {
		joinType, ok := p.parseJoinType()
		if !ok {
			return left
		}

		join := &JoinTableReference{Type: joinType, Left: left}
		join.Right = p.parseTablePrimary()
		if join.Right == nil {
			return left
		}

		switch joinType {
		case JoinCross, JoinCrossApply, JoinOuterApply:
		default:
			if p.expect(token.ON) {
				join.Condition = p.parseExpression()
			}
		}
		left = join
	}
}

// parseJoinType consumes the tokens introducing a join and reports the
// join type. It returns false when no join follows.
func (p *Parser) parseJoinType() (JoinType, bool) {
	var joinType JoinType

	switch p.token.Type {
	case token.JOIN:
		p.nextToken()
		return JoinInner, true
	case token.INNER:
		joinType = JoinInner
		p.nextToken()
	case token.LEFT, token.RIGHT, token.FULL:
		if p.checkPeek(token.LPAREN) {
			// LEFT(...) in an expression context is a function, not a join
			return "", false
		}
		joinType = JoinType(p.token.Type.String())
		p.nextToken()
		p.match(token.OUTER)
	case token.CROSS:
		p.nextToken()
		if p.matchWord(SoftKeywordApply) {
			return JoinCrossApply, true
		}
		p.expect(token.JOIN)
		return JoinCross, true
	case token.OUTER:
		if !p.peek.Is(SoftKeywordApply) {
			return "", false
		}
		p.nextToken()
		p.nextToken()
		return JoinOuterApply, true
	default:
		return "", false
	}

	if p.check(token.IDENT) && !p.token.Quoted && joinHints[upperLiteral(p.token)] {
		p.nextToken()
	}
	if !p.expect(token.JOIN) {
		return "", false
	}
	return joinType, true
}

// parseTablePrimary parses a single table reference.
func (p *Parser) parseTablePrimary() TableReference {
	var ref TableReference

	switch {
	case p.check(token.LPAREN):
		ref = p.parseParenTable()
	case p.check(token.VARIABLE):
		v := &VariableTableReference{Variable: p.token.Literal}
		p.nextToken()
		v.Alias = p.parseAlias()
		ref = v
	case p.isIdent(p.token):
		name := p.parseObjectName()
		if p.check(token.LPAREN) {
			ref = p.parseTableFunction(name)
		} else {
			t := &NamedTableReference{Name: name}
			p.skipTemporalClause()
			t.Alias = p.parseAlias()
			p.skipTableHints()
			p.skipLegacyHints()
			ref = t
		}
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(p.token), "table reference"))
		return nil
	}

	return p.parseTableExtensions(ref)
}

// parseParenTable parses a parenthesized FROM item: a derived table, a
// VALUES constructor or a parenthesized join.
func (p *Parser) parseParenTable() TableReference {
	if !p.enter() {
		p.leave()
		p.skipParens()
		return nil
	}
	defer p.leave()

	switch {
	case p.checkPeek(token.SELECT), p.checkPeek(token.WITH),
		p.checkPeek(token.LPAREN) && p.checkPeek2(token.SELECT):
		p.nextToken()
		derived := &QueryDerivedTable{Query: p.parseSelectStatement()}
		p.expect(token.RPAREN)
		derived.Alias = p.parseAlias()
		if derived.Alias == "" {
			p.addError(ErrMissingDerivedAlias)
		}
		derived.Columns = p.parseColumnAliases()
		return derived

	case p.checkPeek(token.VALUES):
		p.nextToken()
		p.nextToken()
		inline := &InlineDerivedTable{Rows: p.parseValuesRows()}
		p.expect(token.RPAREN)
		inline.Alias = p.parseAlias()
		if inline.Alias == "" {
			p.addError(ErrMissingDerivedAlias)
		}
		inline.Columns = p.parseColumnAliases()
		return inline

	default:
		p.nextToken()
		ref := p.parseJoinedTable()
		p.expect(token.RPAREN)
		return ref
	}
}

// parseTableFunction parses name(args) [alias [(cols)]].
func (p *Parser) parseTableFunction(name *ObjectName) TableReference {
	fn := &TableFunctionReference{Name: name}
	p.expect(token.LPAREN)
	if !p.check(token.RPAREN) {
		fn.Args = p.parseExpressionList()
	}
	p.expect(token.RPAREN)

	// OPENJSON(...) WITH (col type '$.path', ...)
	if p.check(token.WITH) && p.checkPeek(token.LPAREN) {
		p.nextToken()
		p.skipParens()
	}

	fn.Alias = p.parseAlias()
	fn.Columns = p.parseColumnAliases()
	return fn
}

// parseAlias parses [AS] alias. It returns "" when no alias follows.
func (p *Parser) parseAlias() string {
	if p.match(token.AS) {
		if p.isIdent(p.token) || p.check(token.STRING) {
			alias := p.token.Literal
			p.nextToken()
			return alias
		}
		p.addError(ErrExpectedAlias)
		return ""
	}

	if p.check(token.IDENT) && (p.token.Quoted || !isAliasStopWord(p.token.Literal)) {
		alias := p.token.Literal
		p.nextToken()
		return alias
	}
	return ""
}

// parseColumnAliases parses an optional "(" ident_list ")" after an alias.
func (p *Parser) parseColumnAliases() []string {
	if p.check(token.LPAREN) && p.checkPeek(token.IDENT) {
		return p.parseIdentList()
	}
	return nil
}

// skipLegacyHints skips the deprecated hint form without WITH: t (NOLOCK).
func (p *Parser) skipLegacyHints() {
	if p.check(token.LPAREN) && p.checkPeek(token.IDENT) && p.peek.Is("NOLOCK") {
		p.skipParens()
	}
}

// skipTemporalClause skips FOR SYSTEM_TIME ... on temporal tables.
func (p *Parser) skipTemporalClause() {
	if !p.check(token.FOR) || !p.peek.Is("SYSTEM_TIME") {
		return
	}
	p.nextToken()
	p.nextToken()
	switch {
	case p.match(token.AS):
		p.nextToken() // OF
		p.parsePrimary()
	case p.match(token.ALL):
	default:
		// FROM x TO y | BETWEEN x AND y | CONTAINED IN (x, y)
		p.nextToken()
		p.parseExpressionWithPrecedence(precedenceAddition)
		p.nextToken()
		p.parseExpressionWithPrecedence(precedenceAddition)
	}
}

// parseTableExtensions skips PIVOT / UNPIVOT and TABLESAMPLE after a
// table reference. The pivot alias replaces the alias of the source.
func (p *Parser) parseTableExtensions(ref TableReference) TableReference {
	for {
		switch {
		case p.checkWord("PIVOT"), p.checkWord("UNPIVOT"):
			p.nextToken()
			p.skipParens()
			if alias := p.parseAlias(); alias != "" {
				setTableAlias(ref, alias)
			}
		case p.checkWord("TABLESAMPLE"):
			p.nextToken()
			p.matchWord("SYSTEM")
			p.skipParens()
			if p.checkWord("REPEATABLE") {
				p.nextToken()
				p.skipParens()
			}
		default:
			return ref
		}
	}
}

func setTableAlias(ref TableReference, alias string) {
	switch t := ref.(type) {
	case *NamedTableReference:
		t.Alias = alias
	case *VariableTableReference:
		t.Alias = alias
	case *QueryDerivedTable:
		t.Alias = alias
	case *InlineDerivedTable:
		t.Alias = alias
	case *TableFunctionReference:
		t.Alias = alias
	}
}
