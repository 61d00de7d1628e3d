package parser

import (
	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// Window specification parsing: OVER clauses, PARTITION BY, ORDER BY.
//
// Grammar:
//
//	window_spec   → identifier | "(" [PARTITION BY expr_list] [ORDER BY order_list] [frame_spec] ")"
//	frame_spec    → (ROWS | RANGE) ...   -- skipped, frames carry no lineage

// parseWindowSpec parses a window specification.
func (p *Parser) parseWindowSpec() *OverClause {
	over := &OverClause{}

	// Named window reference
	if p.check(token.IDENT) {
		p.nextToken()
		return over
	}

	p.expect(token.LPAREN)

	if p.match(token.PARTITION) {
		p.expect(token.BY)
		over.PartitionBy = p.parseExpressionList()
	}

	if p.match(token.ORDER) {
		p.expect(token.BY)
		over.OrderBy = p.parseOrderByList()
	}

	if p.checkWord("ROWS") || p.checkWord("RANGE") {
		p.skipFrameSpec()
	}

	p.expect(token.RPAREN)
	return over
}

// skipFrameSpec skips a frame clause up to the closing ")" of the OVER.
func (p *Parser) skipFrameSpec() {
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
		}
		p.nextToken()
	}
}
