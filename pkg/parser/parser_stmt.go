package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// Statement parsing: dispatch, DML, procedural statements.
//
// Grammar:
//
//	insert        → INSERT [TOP "(" expr ")"] [INTO] object [hints] ["(" ident_list ")"]
//	                [OUTPUT ...] (select_stmt | execute | VALUES rows | DEFAULT VALUES)
//	update        → UPDATE [TOP "(" expr ")"] object [hints] SET set_list [OUTPUT ...]
//	                [FROM from_list] [WHERE expr]
//	delete        → DELETE [TOP "(" expr ")"] [FROM] object [OUTPUT ...] [FROM from_list] [WHERE expr]
//	execute       → EXEC[UTE] [@rc "="] object [arg ("," arg)*] | EXEC "(" expr ")"
//	block         → BEGIN statement* END | BEGIN TRY statement* END TRY BEGIN CATCH statement* END CATCH
//	if            → IF expr statement [ELSE statement]
//	declare       → DECLARE @var [AS] type ["=" expr] ("," ...)*
//	set           → SET @var ("=" | "+=" | ...) expr | SET option_list (ON | OFF)

// parseStatement parses a single statement. It returns nil for empty
// statements (";", GO) and for input that could not be parsed at all.
func (p *Parser) parseStatement() Statement {
	if !p.enter() {
		p.leave()
		p.skipToBatchEnd()
		return nil
	}
	defer p.leave()

	switch p.token.Type {
	case token.SEMICOLON:
		p.nextToken()
		return nil
	case token.GO:
		p.nextToken()
		p.match(token.NUMBER) // GO 5
		return nil
	case token.WITH:
		return p.parseWithStatement()
	case token.SELECT, token.LPAREN:
		return p.parseSelectStatement()
	case token.INSERT:
		return p.parseInsert(nil)
	case token.UPDATE:
		return p.parseUpdate(nil)
	case token.DELETE:
		return p.parseDelete(nil)
	case token.EXEC, token.EXECUTE:
		return p.parseExecute()
	case token.CREATE, token.ALTER:
		return p.parseCreate()
	case token.BEGIN:
		return p.parseBegin()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.DECLARE:
		return p.parseDeclare()
	case token.SET:
		return p.parseSet()
	case token.RETURN:
		return p.parseReturn()
	}

	if p.check(token.IDENT) && !p.token.Quoted && isStatementWord(p.token.Literal) {
		return p.parseOtherStatement()
	}

	p.addError(fmt.Sprintf(ErrExpectedStatement, p.describe(p.token)))
	p.nextToken()
	p.skipToBoundary()
	return nil
}

// parseStatementsUntil parses statements until stop returns true or EOF.
func (p *Parser) parseStatementsUntil(stop func() bool) []Statement {
	var stmts []Statement
	for !p.check(token.EOF) && !stop() {
		if stmt := p.parseStatementProgress(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// parseWithStatement parses a WITH clause and the statement it prefixes.
func (p *Parser) parseWithStatement() Statement {
	with := p.parseWithClause()

	switch p.token.Type {
	case token.SELECT, token.LPAREN:
		stmt := p.parseSelectStatementBody()
		stmt.With = with
		return stmt
	case token.INSERT:
		return p.parseInsert(with)
	case token.UPDATE:
		return p.parseUpdate(with)
	case token.DELETE:
		return p.parseDelete(with)
	default:
		if p.checkWord(SoftKeywordMerge) {
			return p.parseOtherStatement()
		}
		p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(p.token), "SELECT, INSERT, UPDATE or DELETE"))
		p.skipToBoundary()
		return &SelectStatement{With: with}
	}
}

// parseOtherStatement records a statement the analyzer does not model and
// skips its text.
func (p *Parser) parseOtherStatement() Statement {
	stmt := &OtherStatement{Keyword: strings.ToUpper(p.token.Literal), Pos: p.token.Pos}
	isMerge := p.checkWord(SoftKeywordMerge)
	p.nextToken()

	if isMerge {
		// MERGE requires a terminator and contains UPDATE/INSERT clauses.
		p.skipToTerminator()
		return stmt
	}
	p.skipToBoundary()
	return stmt
}

// skipTop skips an optional TOP (n) [PERCENT] on a DML statement.
func (p *Parser) skipTop() {
	if p.match(token.TOP) {
		if p.check(token.LPAREN) {
			p.skipParens()
		} else {
			p.nextToken()
		}
		p.matchWord(SoftKeywordPercent)
	}
}

// skipTableHints skips WITH (NOLOCK, ...) after a table name.
func (p *Parser) skipTableHints() {
	if p.check(token.WITH) && p.checkPeek(token.LPAREN) {
		p.nextToken()
		p.skipParens()
	}
}

// skipOutputClause skips OUTPUT inserted.x [, ...] [INTO target [(cols)]].
func (p *Parser) skipOutputClause() {
	if !p.matchWord(SoftKeywordOutput) {
		return
	}
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
		case token.SELECT, token.VALUES, token.EXEC, token.EXECUTE, token.DEFAULT,
			token.FROM, token.WHERE, token.WITH, token.SEMICOLON, token.GO:
			if depth == 0 {
				return
			}
		}
		p.nextToken()
	}
}

// ---------- INSERT ----------

// parseInsert parses an INSERT statement.
func (p *Parser) parseInsert(with *WithClause) *InsertStatement {
	p.expect(token.INSERT)
	stmt := &InsertStatement{With: with}

	p.skipTop()
	p.match(token.INTO)

	stmt.Target = p.parseTargetName()
	p.skipTableHints()

	if p.check(token.LPAREN) && !p.checkPeek(token.SELECT) && !p.checkPeek(token.WITH) {
		stmt.Columns = p.parseIdentList()
	}

	p.skipOutputClause()

	switch p.token.Type {
	case token.SELECT, token.WITH, token.LPAREN:
		stmt.Source = p.parseSelectStatement()
	case token.EXEC, token.EXECUTE:
		stmt.Source = p.parseExecute()
	case token.VALUES:
		p.nextToken()
		stmt.Source = &ValuesSource{Rows: p.parseValuesRows()}
	case token.DEFAULT:
		p.nextToken()
		p.expect(token.VALUES)
		stmt.Source = &DefaultValuesSource{}
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(p.token), "SELECT, VALUES or EXEC"))
		p.skipToBoundary()
	}

	return stmt
}

// parseTargetName parses a DML target: an object name or a table variable.
// It returns nil when no name is present.
func (p *Parser) parseTargetName() *ObjectName {
	if p.check(token.VARIABLE) {
		name := &ObjectName{Parts: []string{p.token.Literal}}
		p.nextToken()
		return name
	}
	if name := p.parseObjectName(); !name.IsEmpty() {
		return name
	}
	return nil
}

// parseValuesRows parses (expr, ...), (expr, ...).
func (p *Parser) parseValuesRows() [][]Expr {
	var rows [][]Expr
	for p.check(token.LPAREN) {
		p.nextToken()
		var row []Expr
		if !p.check(token.RPAREN) {
			row = p.parseExpressionList()
		}
		p.expect(token.RPAREN)
		rows = append(rows, row)
		if !p.match(token.COMMA) {
			break
		}
	}
	return rows
}

// ---------- UPDATE / DELETE ----------

// parseUpdate parses an UPDATE statement.
func (p *Parser) parseUpdate(with *WithClause) *UpdateStatement {
	p.expect(token.UPDATE)
	stmt := &UpdateStatement{With: with}

	p.skipTop()
	stmt.Target = p.parseTargetName()
	p.skipTableHints()

	if p.expect(token.SET) {
		for {
			if set := p.parseSetClause(); set != nil {
				stmt.Sets = append(stmt.Sets, set)
			}
			if !p.match(token.COMMA) {
				break
			}
		}
	}

	p.skipOutputClause()

	if p.match(token.FROM) {
		stmt.From = p.parseFromList()
	}
	if p.match(token.WHERE) {
		stmt.Where = p.parseWhereExpr()
	}
	p.skipOptionClause()

	return stmt
}

// parseSetClause parses col = expr, t.col = expr, @v = expr, @v = col = expr.
func (p *Parser) parseSetClause() *SetClause {
	set := &SetClause{}

	switch {
	case p.check(token.VARIABLE):
		set.Variable = p.token.Literal
		p.nextToken()
	case p.isIdent(p.token):
		set.Column = &ColumnReference{Parts: p.parseDottedParts()}
	default:
		p.addError(ErrExpectedSetAssign)
		p.skipToBoundary()
		return nil
	}

	if !isAssignOp(p.token.Type) {
		p.addError(ErrExpectedSetAssign)
		return nil
	}
	set.Op = p.token.Type
	p.nextToken()

	// @v = col = expr assigns both the variable and the column.
	if set.Variable != "" && p.isIdent(p.token) && p.checkPeek(token.EQ) {
		set.Column = &ColumnReference{Parts: []string{p.token.Literal}}
		p.nextToken()
		p.nextToken()
	}

	set.Value = p.parseExpression()
	return set
}

func isAssignOp(t token.TokenType) bool {
	switch t {
	case token.EQ, token.PLUSEQ, token.MINUSEQ, token.STAREQ, token.SLASHEQ:
		return true
	}
	return false
}

// parseDelete parses a DELETE statement.
func (p *Parser) parseDelete(with *WithClause) *DeleteStatement {
	p.expect(token.DELETE)
	stmt := &DeleteStatement{With: with}

	p.skipTop()
	p.match(token.FROM)
	stmt.Target = p.parseTargetName()
	p.skipTableHints()
	p.skipOutputClause()

	if p.match(token.FROM) {
		stmt.From = p.parseFromList()
	}
	if p.match(token.WHERE) {
		stmt.Where = p.parseWhereExpr()
	}
	p.skipOptionClause()

	return stmt
}

// parseWhereExpr parses a WHERE condition, accepting WHERE CURRENT OF cursor.
func (p *Parser) parseWhereExpr() Expr {
	if p.checkWord("CURRENT") && p.peek.Is("OF") {
		p.nextToken()
		p.nextToken()
		p.nextToken() // cursor name
		return nil
	}
	return p.parseExpression()
}

// ---------- EXECUTE ----------

// parseExecute parses an EXEC[UTE] statement.
func (p *Parser) parseExecute() *ExecuteStatement {
	p.nextToken() // consume EXEC / EXECUTE
	stmt := &ExecuteStatement{}

	// EXEC ('SELECT ...') / EXEC (@sql)
	if p.check(token.LPAREN) {
		p.nextToken()
		stmt.Dynamic = p.parseExpression()
		p.expect(token.RPAREN)
		p.skipExecuteTail()
		return stmt
	}

	// EXEC @rc = proc
	if p.check(token.VARIABLE) && p.checkPeek(token.EQ) {
		stmt.ReturnVariable = p.token.Literal
		p.nextToken()
		p.nextToken()
	}

	if p.check(token.VARIABLE) {
		// EXEC @procName: the callee is only known at run time.
		stmt.Dynamic = &VariableReference{Name: p.token.Literal}
		p.nextToken()
	} else if name := p.parseObjectName(); !name.IsEmpty() {
		stmt.Procedure = name
	}

	if p.startsExecuteArgument() {
		for {
			stmt.Args = append(stmt.Args, p.parseExecuteArgument())
			if !p.match(token.COMMA) {
				break
			}
		}
	}

	p.skipExecuteTail()
	return stmt
}

// startsExecuteArgument reports whether the current token can begin a
// procedure argument rather than the next statement.
func (p *Parser) startsExecuteArgument() bool {
	switch p.token.Type {
	case token.VARIABLE, token.NUMBER, token.STRING, token.NULL, token.DEFAULT,
		token.MINUS, token.PLUS:
		return true
	case token.IDENT:
		return p.token.Quoted || !isAliasStopWord(p.token.Literal)
	}
	return false
}

// parseExecuteArgument parses [@param =] value [OUTPUT].
func (p *Parser) parseExecuteArgument() *ExecuteArgument {
	arg := &ExecuteArgument{}
	if p.check(token.VARIABLE) && p.checkPeek(token.EQ) {
		arg.Name = p.token.Literal
		p.nextToken()
		p.nextToken()
	}
	if p.check(token.DEFAULT) {
		arg.Value = &Literal{Kind: LiteralKeyword, Value: "DEFAULT"}
		p.nextToken()
	} else {
		arg.Value = p.parseExpression()
	}
	if p.matchWord(SoftKeywordOutput) || p.matchWord(SoftKeywordOut) {
		arg.Output = true
	}
	return arg
}

// skipExecuteTail skips WITH RECOMPILE / WITH RESULT SETS (...) and AT server.
func (p *Parser) skipExecuteTail() {
	for p.check(token.WITH) && p.peek.Type == token.IDENT {
		p.nextToken()
		for p.isIdent(p.token) {
			p.nextToken()
		}
		p.skipParens()
		p.match(token.COMMA)
	}
	if p.checkWord("AT") {
		p.nextToken()
		p.nextToken()
	}
}

// ---------- CREATE / ALTER ----------

// parseCreate parses CREATE [OR ALTER] and ALTER statements.
func (p *Parser) parseCreate() Statement {
	startPos := p.token.Pos
	alter := p.check(token.ALTER)
	p.nextToken()

	if !alter && p.check(token.OR) && p.checkPeek(token.ALTER) {
		p.nextToken()
		p.nextToken()
		alter = true
	}

	verb := "CREATE"
	if alter {
		verb = "ALTER"
	}

	switch p.token.Type {
	case token.VIEW:
		return p.parseCreateView(alter)
	case token.PROC, token.PROCEDURE:
		return p.parseCreateProcedure(alter)
	case token.FUNCTION, token.TRIGGER:
		// Bodies run to the end of the batch.
		stmt := &OtherStatement{Keyword: verb + " " + p.token.Type.String(), Pos: startPos}
		p.skipToBatchEnd()
		return stmt
	default:
		word := strings.ToUpper(p.token.Literal)
		if p.check(token.TABLE) {
			word = "TABLE"
		}
		stmt := &OtherStatement{Keyword: strings.TrimSpace(verb + " " + word), Pos: startPos}
		p.nextToken()
		p.skipToBoundary()
		return stmt
	}
}

// parseCreateView parses VIEW name [(cols)] [WITH attrs] AS select [WITH CHECK OPTION].
func (p *Parser) parseCreateView(alter bool) *CreateViewStatement {
	p.expect(token.VIEW)
	stmt := &CreateViewStatement{Alter: alter}
	stmt.Name = p.parseObjectName()

	if p.check(token.LPAREN) {
		stmt.Columns = p.parseIdentList()
	}

	// WITH SCHEMABINDING, VIEW_METADATA, ENCRYPTION
	if p.match(token.WITH) {
		for p.isIdent(p.token) || p.check(token.COMMA) {
			p.nextToken()
		}
	}

	p.expect(token.AS)
	stmt.Query = p.parseSelectStatement()

	// WITH CHECK OPTION
	if p.check(token.WITH) && p.peek.Is("CHECK") {
		p.nextToken()
		p.nextToken()
		p.matchWord(SoftKeywordOption)
	}

	return stmt
}

// parseCreateProcedure parses PROC[EDURE] name [params] [WITH opts] AS body.
// The body extends to the end of the batch.
func (p *Parser) parseCreateProcedure(alter bool) *CreateProcedureStatement {
	p.nextToken() // consume PROC / PROCEDURE
	stmt := &CreateProcedureStatement{Alter: alter}
	stmt.Name = p.parseObjectName()

	// ;number versioning
	if p.check(token.SEMICOLON) && p.checkPeek(token.NUMBER) {
		p.nextToken()
		p.nextToken()
	}

	parens := p.match(token.LPAREN)
	for p.check(token.VARIABLE) {
		stmt.Params = append(stmt.Params, p.parseProcedureParameter())
		if !p.match(token.COMMA) {
			break
		}
	}
	if parens {
		p.expect(token.RPAREN)
	}

	// WITH RECOMPILE, EXECUTE AS OWNER, ...
	if p.match(token.WITH) {
		for !p.check(token.AS) && !p.check(token.EOF) && !p.check(token.GO) {
			if p.check(token.EXECUTE) || p.check(token.EXEC) {
				p.nextToken()
				p.match(token.AS)
			}
			p.nextToken()
		}
	}
	if p.match(token.FOR) {
		p.nextToken() // REPLICATION
	}

	if !p.match(token.AS) {
		p.addError(ErrExpectedProcBodyWord)
	}

	stmt.Body = p.parseStatementsUntil(func() bool { return p.check(token.GO) })
	return stmt
}

// parseProcedureParameter parses @name [AS] type [VARYING] [= default] [OUT[PUT]] [READONLY].
func (p *Parser) parseProcedureParameter() *ProcedureParameter {
	param := &ProcedureParameter{Name: p.token.Literal}
	p.nextToken()
	p.match(token.AS)
	param.DataType = p.parseDataType()
	p.matchWord(SoftKeywordVarying)
	if p.match(token.EQ) {
		param.Default = p.parseExpression()
	}
	for {
		switch {
		case p.matchWord(SoftKeywordOutput), p.matchWord(SoftKeywordOut):
			param.Output = true
		case p.matchWord(SoftKeywordReadonly):
		default:
			return param
		}
	}
}

// ---------- Control Flow ----------

// parseBegin parses BEGIN ... END, BEGIN TRY/CATCH and BEGIN TRAN.
func (p *Parser) parseBegin() Statement {
	startPos := p.token.Pos
	p.expect(token.BEGIN)

	switch {
	case p.checkWord(SoftKeywordTran), p.checkWord(SoftKeywordTxn), p.checkWord("DISTRIBUTED"):
		stmt := &OtherStatement{Keyword: "BEGIN TRANSACTION", Pos: startPos}
		p.skipToBoundary()
		return stmt
	case p.checkWord(SoftKeywordTry):
		return p.parseTryCatch()
	}

	block := &BeginEndBlock{}
	block.Statements = p.parseStatementsUntil(func() bool { return p.check(token.END) })
	p.expect(token.END)
	return block
}

// parseTryCatch parses TRY statements END TRY BEGIN CATCH statements END CATCH.
// Both halves become one block.
func (p *Parser) parseTryCatch() Statement {
	p.nextToken() // TRY
	block := &BeginEndBlock{}
	block.Statements = p.parseStatementsUntil(func() bool { return p.check(token.END) })
	p.expect(token.END)
	p.matchWord(SoftKeywordTry)

	if p.check(token.BEGIN) && p.peek.Is(SoftKeywordCatch) {
		p.nextToken()
		p.nextToken()
		catch := p.parseStatementsUntil(func() bool { return p.check(token.END) })
		block.Statements = append(block.Statements, catch...)
		p.expect(token.END)
		p.matchWord(SoftKeywordCatch)
	}
	return block
}

// parseIf parses IF condition statement [ELSE statement].
func (p *Parser) parseIf() *IfStatement {
	p.expect(token.IF)
	stmt := &IfStatement{Condition: p.parseExpression()}
	for p.match(token.SEMICOLON) {
	}
	stmt.Then = p.parseStatement()
	for p.check(token.SEMICOLON) && p.checkPeek(token.ELSE) {
		p.nextToken()
	}
	if p.match(token.ELSE) {
		stmt.Else = p.parseStatement()
	}
	return stmt
}

// parseWhile parses WHILE condition statement.
func (p *Parser) parseWhile() *WhileStatement {
	p.expect(token.WHILE)
	stmt := &WhileStatement{Condition: p.parseExpression()}
	stmt.Body = p.parseStatement()
	return stmt
}

// parseDeclare parses DECLARE @a type [= value], ... and DECLARE @t TABLE (...).
func (p *Parser) parseDeclare() Statement {
	startPos := p.token.Pos
	p.expect(token.DECLARE)

	if !p.check(token.VARIABLE) {
		// DECLARE cursor_name CURSOR FOR select
		stmt := &OtherStatement{Keyword: "DECLARE CURSOR", Pos: startPos}
		for !p.check(token.FOR) && !p.check(token.EOF) && !p.atStatementBoundary() {
			p.nextToken()
		}
		p.match(token.FOR)
		return stmt
	}

	stmt := &DeclareStatement{}
	for p.check(token.VARIABLE) {
		decl := &VariableDeclaration{Name: p.token.Literal}
		p.nextToken()
		p.match(token.AS)

		if p.check(token.TABLE) {
			p.nextToken()
			decl.DataType = &DataType{Name: "TABLE"}
			p.skipParens()
		} else if p.checkWord("CURSOR") {
			p.nextToken()
			decl.DataType = &DataType{Name: "CURSOR"}
		} else {
			decl.DataType = p.parseDataType()
		}

		if p.match(token.EQ) {
			decl.Value = p.parseExpression()
		}
		stmt.Variables = append(stmt.Variables, decl)

		if !p.match(token.COMMA) {
			break
		}
	}
	return stmt
}

// parseSet parses SET @var op expr and SET option statements.
func (p *Parser) parseSet() Statement {
	p.expect(token.SET)

	if p.check(token.VARIABLE) {
		stmt := &SetVariableStatement{Variable: p.token.Literal}
		p.nextToken()
		if !isAssignOp(p.token.Type) {
			p.addError(ErrExpectedSetAssign)
			p.skipToBoundary()
			return stmt
		}
		stmt.Op = p.token.Type
		p.nextToken()
		stmt.Value = p.parseExpression()
		return stmt
	}

	stmt := &SetOptionStatement{}
	for !p.check(token.EOF) {
		switch {
		case p.check(token.ON):
			stmt.Value = "ON"
			p.nextToken()
			return stmt
		case p.checkWord(SoftKeywordOff):
			stmt.Value = "OFF"
			p.nextToken()
			return stmt
		case p.check(token.COMMA):
			p.nextToken()
		case p.isIdent(p.token) && !p.atStatementBoundary():
			stmt.Options = append(stmt.Options, strings.ToUpper(p.token.Literal))
			p.nextToken()
		default:
			// SET TRANSACTION ISOLATION LEVEL ..., SET DATEFORMAT ymd, ...
			p.skipToBoundary()
			return stmt
		}
	}
	return stmt
}

// parseReturn parses RETURN [expr].
func (p *Parser) parseReturn() *ReturnStatement {
	p.expect(token.RETURN)
	stmt := &ReturnStatement{}
	if !p.atStatementBoundary() {
		stmt.Value = p.parseExpression()
	}
	return stmt
}

// ---------- Shared ----------

// parseObjectName parses a dotted object name. Empty parts (db..table)
// are kept as empty strings.
func (p *Parser) parseObjectName() *ObjectName {
	if !p.isIdent(p.token) {
		p.addError(ErrExpectedObjectName)
		return &ObjectName{}
	}
	return &ObjectName{Parts: p.parseDottedParts()}
}

// parseDottedParts parses ident ("." ident)*; the current token must be an identifier.
func (p *Parser) parseDottedParts() []string {
	parts := []string{p.token.Literal}
	p.nextToken()
	for p.check(token.DOT) {
		p.nextToken()
		switch {
		case p.isIdent(p.token):
			parts = append(parts, p.token.Literal)
			p.nextToken()
		case p.check(token.DOT):
			parts = append(parts, "")
		default:
			return parts
		}
	}
	return parts
}

// parseIdentList parses "(" ident ("," ident)* ")".
func (p *Parser) parseIdentList() []string {
	p.expect(token.LPAREN)
	var idents []string
	for p.isIdent(p.token) {
		idents = append(idents, p.token.Literal)
		p.nextToken()
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return idents
}

// parseDataType parses a type name with optional (n[, m]) or (MAX).
func (p *Parser) parseDataType() *DataType {
	dt := &DataType{}
	if !p.isIdent(p.token) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(p.token), "data type"))
		return dt
	}
	dt.Name = strings.Join(p.parseDottedParts(), ".")

	if p.match(token.LPAREN) {
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			if !p.check(token.COMMA) {
				dt.Params = append(dt.Params, p.token.Literal)
			}
			p.nextToken()
		}
		p.expect(token.RPAREN)
	}
	return dt
}

// skipOptionClause skips OPTION (query hints).
func (p *Parser) skipOptionClause() {
	if p.checkWord(SoftKeywordOption) && p.checkPeek(token.LPAREN) {
		p.nextToken()
		p.skipParens()
	}
}
