package parser_test

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/leaplineage/pkg/parser"
	"github.com/leapstack-labs/leaplineage/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseOne parses sql and returns its only statement.
func parseOne(t *testing.T, sql string) parser.Statement {
	t.Helper()
	script, errs := parser.Parse(sql)
	require.Empty(t, errs)
	require.Len(t, script.Statements, 1)
	return script.Statements[0]
}

func querySpec(t *testing.T, stmt parser.Statement) *parser.QuerySpecification {
	t.Helper()
	sel, ok := stmt.(*parser.SelectStatement)
	require.True(t, ok, "expected *SelectStatement, got %T", stmt)
	spec, ok := sel.Query.(*parser.QuerySpecification)
	require.True(t, ok, "expected *QuerySpecification, got %T", sel.Query)
	return spec
}

// ---------- SELECT ----------

func TestParse_SelectElements(t *testing.T) {
	spec := querySpec(t, parseOne(t, "SELECT a, b AS c, d e, f = g, 'lit' AS [Label] FROM dbo.T t WHERE x = 1"))

	require.Len(t, spec.Elements, 5)

	tests := []struct {
		alias  string
		column string
	}{
		{alias: "", column: "a"},
		{alias: "c", column: "b"},
		{alias: "e", column: "d"},
		{alias: "f", column: "g"},
	}
	for i, tt := range tests {
		elem, ok := spec.Elements[i].(*parser.SelectScalarExpression)
		require.True(t, ok)
		assert.Equal(t, tt.alias, elem.Alias)
		col, ok := elem.Expr.(*parser.ColumnReference)
		require.True(t, ok)
		assert.Equal(t, tt.column, col.Column())
	}

	last := spec.Elements[4].(*parser.SelectScalarExpression)
	assert.Equal(t, "Label", last.Alias)
	assert.IsType(t, &parser.Literal{}, last.Expr)

	require.Len(t, spec.From, 1)
	table, ok := spec.From[0].(*parser.NamedTableReference)
	require.True(t, ok)
	assert.Equal(t, []string{"dbo", "T"}, table.Name.Parts)
	assert.Equal(t, "t", table.Alias)
	assert.Equal(t, "t", table.ExposedName())

	where, ok := spec.Where.(*parser.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, token.EQ, where.Op)
}

func TestParse_SelectStar(t *testing.T) {
	spec := querySpec(t, parseOne(t, "SELECT *, t.*, dbo.t.* FROM dbo.t"))
	require.Len(t, spec.Elements, 3)

	var qualifiers [][]string
	for _, elem := range spec.Elements {
		star, ok := elem.(*parser.SelectStarExpression)
		require.True(t, ok)
		qualifiers = append(qualifiers, star.Qualifier)
	}
	assert.Equal(t, [][]string{nil, {"t"}, {"dbo", "t"}}, qualifiers)
}

func TestParse_SelectInto(t *testing.T) {
	spec := querySpec(t, parseOne(t, "SELECT TOP (10) PERCENT a INTO #staging FROM t"))
	require.NotNil(t, spec.Top)
	assert.True(t, spec.Top.Percent)
	require.NotNil(t, spec.Into)
	assert.Equal(t, "#staging", spec.Into.Name())
}

func TestParse_SelectSetVariable(t *testing.T) {
	spec := querySpec(t, parseOne(t, "SELECT @total += amount FROM orders"))
	require.Len(t, spec.Elements, 1)
	set, ok := spec.Elements[0].(*parser.SelectSetVariable)
	require.True(t, ok)
	assert.Equal(t, "@total", set.Variable)
	assert.Equal(t, token.PLUSEQ, set.Op)
}

func TestParse_CTE(t *testing.T) {
	stmt := parseOne(t, "WITH c (x) AS (SELECT a FROM t), d AS (SELECT x FROM c) SELECT x FROM d")
	sel, ok := stmt.(*parser.SelectStatement)
	require.True(t, ok)
	require.NotNil(t, sel.With)
	require.Len(t, sel.With.CTEs, 2)

	assert.Equal(t, "c", sel.With.CTEs[0].Name)
	assert.Equal(t, []string{"x"}, sel.With.CTEs[0].Columns)
	assert.Equal(t, "d", sel.With.CTEs[1].Name)
	assert.Nil(t, sel.With.CTEs[1].Columns)
	assert.NotNil(t, sel.With.CTEs[1].Query)
}

func TestParse_SetOperations(t *testing.T) {
	stmt := parseOne(t, "SELECT a FROM t UNION ALL SELECT b FROM u INTERSECT SELECT c FROM v ORDER BY 1")
	sel := stmt.(*parser.SelectStatement)

	union, ok := sel.Query.(*parser.BinaryQueryExpression)
	require.True(t, ok)
	assert.Equal(t, parser.SetOpUnion, union.Op)
	assert.True(t, union.All)
	assert.IsType(t, &parser.QuerySpecification{}, union.Left)

	intersect, ok := union.Right.(*parser.BinaryQueryExpression)
	require.True(t, ok)
	assert.Equal(t, parser.SetOpIntersect, intersect.Op)
	assert.False(t, intersect.All)

	assert.Len(t, sel.OrderBy, 1)
}

func TestParse_ParenthesizedQuery(t *testing.T) {
	stmt := parseOne(t, "(SELECT a FROM t) EXCEPT (SELECT a FROM u)")
	sel := stmt.(*parser.SelectStatement)

	except, ok := sel.Query.(*parser.BinaryQueryExpression)
	require.True(t, ok)
	assert.Equal(t, parser.SetOpExcept, except.Op)
	assert.IsType(t, &parser.QueryParenthesisExpression{}, except.Left)
	assert.IsType(t, &parser.QueryParenthesisExpression{}, except.Right)
}

func TestParse_OffsetFetchAndForXML(t *testing.T) {
	script, errs := parser.Parse(`
SELECT a FROM t ORDER BY a OFFSET 10 ROWS FETCH NEXT 5 ROWS ONLY;
SELECT STUFF((SELECT ',' + name FROM u FOR XML PATH('')), 1, 1, '') AS names`)
	require.Empty(t, errs)
	assert.Len(t, script.Statements, 2)
}

// ---------- Expressions ----------

func TestParse_Expressions(t *testing.T) {
	spec := querySpec(t, parseOne(t, `SELECT
		CAST(a AS DECIMAL(18, 2)) AS c,
		CONVERT(VARCHAR(10), b, 120) AS d,
		DATEADD(day, 1, e) AS f,
		COUNT(*) AS n,
		ROW_NUMBER() OVER (PARTITION BY g ORDER BY h DESC) AS rn,
		CASE WHEN i > 0 THEN 'pos' ELSE 'neg' END AS sign,
		TRY_CAST(j AS INT) AS k,
		LEFT(s, 3) AS prefix
	FROM t`))
	require.Len(t, spec.Elements, 8)

	exprOf := func(i int) parser.Expr {
		return spec.Elements[i].(*parser.SelectScalarExpression).Expr
	}

	cast := exprOf(0).(*parser.CastExpression)
	assert.Equal(t, "DECIMAL", cast.DataType.Name)
	assert.Equal(t, []string{"18", "2"}, cast.DataType.Params)
	assert.False(t, cast.Convert)

	convert := exprOf(1).(*parser.CastExpression)
	assert.True(t, convert.Convert)
	assert.NotNil(t, convert.Style)
	assert.Equal(t, "b", convert.Expr.(*parser.ColumnReference).Column())

	dateadd := exprOf(2).(*parser.FunctionCall)
	require.Len(t, dateadd.Args, 3)
	assert.Equal(t, &parser.Literal{Kind: parser.LiteralKeyword, Value: "DAY"}, dateadd.Args[0])

	count := exprOf(3).(*parser.FunctionCall)
	assert.True(t, count.Star)

	rowNumber := exprOf(4).(*parser.FunctionCall)
	require.NotNil(t, rowNumber.Over)
	assert.Len(t, rowNumber.Over.PartitionBy, 1)
	require.Len(t, rowNumber.Over.OrderBy, 1)
	assert.True(t, rowNumber.Over.OrderBy[0].Desc)

	caseExpr := exprOf(5).(*parser.CaseExpression)
	assert.Len(t, caseExpr.Whens, 1)
	assert.NotNil(t, caseExpr.Else)

	tryCast := exprOf(6).(*parser.CastExpression)
	assert.True(t, tryCast.Try)

	left := exprOf(7).(*parser.FunctionCall)
	assert.Equal(t, "LEFT", left.Name.Name())
	assert.Len(t, left.Args, 2)
}

func TestParse_Predicates(t *testing.T) {
	spec := querySpec(t, parseOne(t, `SELECT a FROM t
		WHERE a NOT IN (1, 2) AND b BETWEEN 1 AND 10 AND c LIKE 'x%' AND d IS NOT NULL
		AND EXISTS (SELECT 1 FROM u WHERE u.id = t.id) AND e IN (SELECT id FROM v)`))

	var kinds []string
	parser.Inspect(spec.Where, func(n parser.Node) bool {
		switch v := n.(type) {
		case *parser.InExpression:
			if v.Query != nil {
				kinds = append(kinds, "in-subquery")
			} else if v.Not {
				kinds = append(kinds, "not-in")
			}
		case *parser.BetweenExpression:
			kinds = append(kinds, "between")
		case *parser.LikeExpression:
			kinds = append(kinds, "like")
		case *parser.IsNullExpression:
			if v.Not {
				kinds = append(kinds, "is-not-null")
			}
		case *parser.ExistsExpression:
			kinds = append(kinds, "exists")
			return false
		}
		return true
	})
	assert.Equal(t, []string{"not-in", "between", "like", "is-not-null", "exists", "in-subquery"}, kinds)
}

func TestParse_Precedence(t *testing.T) {
	spec := querySpec(t, parseOne(t, "SELECT a + b * c AS x"))
	expr := spec.Elements[0].(*parser.SelectScalarExpression).Expr

	sum, ok := expr.(*parser.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, token.PLUS, sum.Op)
	product, ok := sum.Right.(*parser.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, token.STAR, product.Op)
}

// ---------- DML ----------

func TestParse_Insert(t *testing.T) {
	tests := []struct {
		name       string
		sql        string
		target     string
		columns    []string
		sourceType any
	}{
		{
			name:       "insert select",
			sql:        "INSERT INTO dbo.Target (x, y) SELECT a, b FROM s",
			target:     "dbo.Target",
			columns:    []string{"x", "y"},
			sourceType: &parser.SelectStatement{},
		},
		{
			name:       "insert values",
			sql:        "INSERT t VALUES (1, 'a'), (2, 'b')",
			target:     "t",
			sourceType: &parser.ValuesSource{},
		},
		{
			name:       "insert exec",
			sql:        "INSERT INTO #t EXEC dbo.GetRows @p = 1",
			target:     "#t",
			sourceType: &parser.ExecuteStatement{},
		},
		{
			name:       "insert default values",
			sql:        "INSERT INTO t DEFAULT VALUES",
			target:     "t",
			sourceType: &parser.DefaultValuesSource{},
		},
		{
			name:       "insert with hints and output",
			sql:        "INSERT INTO t WITH (TABLOCK) (a) OUTPUT inserted.a INTO @log SELECT a FROM s",
			target:     "t",
			columns:    []string{"a"},
			sourceType: &parser.SelectStatement{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins, ok := parseOne(t, tt.sql).(*parser.InsertStatement)
			require.True(t, ok)
			assert.Equal(t, tt.target, ins.Target.String())
			assert.Equal(t, tt.columns, ins.Columns)
			assert.IsType(t, tt.sourceType, ins.Source)
		})
	}
}

func TestParse_InsertValuesRows(t *testing.T) {
	ins := parseOne(t, "INSERT t VALUES (1, 'a'), (2, 'b')").(*parser.InsertStatement)
	values := ins.Source.(*parser.ValuesSource)
	require.Len(t, values.Rows, 2)
	assert.Len(t, values.Rows[0], 2)
}

func TestParse_Update(t *testing.T) {
	upd, ok := parseOne(t, "UPDATE t SET a = s.b, @v = 1, c += 2 FROM dbo.T t JOIN s ON s.id = t.id WHERE t.x > 0").(*parser.UpdateStatement)
	require.True(t, ok)

	assert.Equal(t, "t", upd.Target.String())
	require.Len(t, upd.Sets, 3)
	assert.Equal(t, "a", upd.Sets[0].Column.Column())
	assert.Equal(t, "@v", upd.Sets[1].Variable)
	assert.Nil(t, upd.Sets[1].Column)
	assert.Equal(t, token.PLUSEQ, upd.Sets[2].Op)

	require.Len(t, upd.From, 1)
	join, ok := upd.From[0].(*parser.JoinTableReference)
	require.True(t, ok)
	assert.Equal(t, parser.JoinInner, join.Type)
	assert.NotNil(t, join.Condition)
	assert.NotNil(t, upd.Where)
}

func TestParse_Delete(t *testing.T) {
	del, ok := parseOne(t, "DELETE FROM t WHERE id IN (SELECT id FROM gone)").(*parser.DeleteStatement)
	require.True(t, ok)
	assert.Equal(t, "t", del.Target.String())
	assert.NotNil(t, del.Where)
}

func TestParse_WithPrefixedDML(t *testing.T) {
	ins, ok := parseOne(t, "WITH src AS (SELECT a FROM s) INSERT INTO t (a) SELECT a FROM src").(*parser.InsertStatement)
	require.True(t, ok)
	require.NotNil(t, ins.With)
	assert.Equal(t, "src", ins.With.CTEs[0].Name)
}

// ---------- EXEC ----------

func TestParse_Execute(t *testing.T) {
	exec, ok := parseOne(t, "EXEC @rc = dbo.LoadOrders @from = '2024-01-01', @count = @n OUTPUT, DEFAULT").(*parser.ExecuteStatement)
	require.True(t, ok)

	assert.Equal(t, "@rc", exec.ReturnVariable)
	assert.Equal(t, "dbo.LoadOrders", exec.Procedure.String())
	require.Len(t, exec.Args, 3)
	assert.Equal(t, "@from", exec.Args[0].Name)
	assert.True(t, exec.Args[1].Output)
	assert.Equal(t, "", exec.Args[2].Name)
}

func TestParse_ExecuteDynamic(t *testing.T) {
	exec, ok := parseOne(t, "EXEC ('SELECT 1')").(*parser.ExecuteStatement)
	require.True(t, ok)
	assert.Nil(t, exec.Procedure)
	assert.NotNil(t, exec.Dynamic)
}

func TestParse_ExecuteWithoutArgumentsStopsAtNextStatement(t *testing.T) {
	script, errs := parser.Parse("EXEC dbo.Refresh\nSELECT 1")
	require.Empty(t, errs)
	require.Len(t, script.Statements, 2)
	assert.Empty(t, script.Statements[0].(*parser.ExecuteStatement).Args)
}

// ---------- DDL ----------

func TestParse_CreateView(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		alter bool
	}{
		{name: "create", sql: "CREATE VIEW dbo.V AS SELECT a FROM t"},
		{name: "create or alter", sql: "CREATE OR ALTER VIEW dbo.V AS SELECT a FROM t", alter: true},
		{name: "alter", sql: "ALTER VIEW dbo.V WITH SCHEMABINDING AS SELECT a FROM t", alter: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, ok := parseOne(t, tt.sql).(*parser.CreateViewStatement)
			require.True(t, ok)
			assert.Equal(t, "dbo.V", view.Name.String())
			assert.Equal(t, tt.alter, view.Alter)
			require.NotNil(t, view.Query)
		})
	}
}

func TestParse_CreateProcedure(t *testing.T) {
	proc, ok := parseOne(t, `CREATE PROCEDURE dbo.P @x INT, @y VARCHAR(10) = NULL OUTPUT
AS
BEGIN
	SET NOCOUNT ON;
	SELECT a FROM t WHERE b = @x
END`).(*parser.CreateProcedureStatement)
	require.True(t, ok)

	assert.Equal(t, "dbo.P", proc.Name.String())
	require.Len(t, proc.Params, 2)
	assert.Equal(t, "@x", proc.Params[0].Name)
	assert.Equal(t, "INT", proc.Params[0].DataType.Name)
	assert.True(t, proc.Params[1].Output)
	assert.NotNil(t, proc.Params[1].Default)

	require.Len(t, proc.Body, 1)
	block, ok := proc.Body[0].(*parser.BeginEndBlock)
	require.True(t, ok)
	require.Len(t, block.Statements, 2)
	assert.IsType(t, &parser.SetOptionStatement{}, block.Statements[0])
	assert.IsType(t, &parser.SelectStatement{}, block.Statements[1])
}

func TestParse_ProcedureBodyEndsAtGo(t *testing.T) {
	script, errs := parser.Parse("CREATE PROC p AS SELECT 1 AS one\nSELECT 2 AS two\nGO\nSELECT 3 AS three")
	require.Empty(t, errs)
	require.Len(t, script.Statements, 2)

	proc := script.Statements[0].(*parser.CreateProcedureStatement)
	assert.Len(t, proc.Body, 2)
	assert.IsType(t, &parser.SelectStatement{}, script.Statements[1])
}

func TestParse_Batches(t *testing.T) {
	script, errs := parser.Parse("CREATE VIEW v AS SELECT 1 AS one\nGO\nSELECT one FROM v\nGO 2")
	require.Empty(t, errs)
	require.Len(t, script.Statements, 2)
	assert.IsType(t, &parser.CreateViewStatement{}, script.Statements[0])
}

// ---------- Procedural ----------

func TestParse_DeclareAndSet(t *testing.T) {
	script, errs := parser.Parse("DECLARE @a INT = 5, @t TABLE (id INT); SET @a += 1; SET NOCOUNT ON;")
	require.Empty(t, errs)
	require.Len(t, script.Statements, 3)

	decl := script.Statements[0].(*parser.DeclareStatement)
	require.Len(t, decl.Variables, 2)
	assert.Equal(t, "@a", decl.Variables[0].Name)
	assert.NotNil(t, decl.Variables[0].Value)
	assert.Equal(t, "TABLE", decl.Variables[1].DataType.Name)

	set := script.Statements[1].(*parser.SetVariableStatement)
	assert.Equal(t, token.PLUSEQ, set.Op)

	opt := script.Statements[2].(*parser.SetOptionStatement)
	assert.Equal(t, []string{"NOCOUNT"}, opt.Options)
	assert.Equal(t, "ON", opt.Value)
}

func TestParse_IfElse(t *testing.T) {
	stmt, ok := parseOne(t, "IF @x > 0 SELECT a FROM t ELSE SELECT b FROM u").(*parser.IfStatement)
	require.True(t, ok)
	assert.NotNil(t, stmt.Condition)
	assert.IsType(t, &parser.SelectStatement{}, stmt.Then)
	assert.IsType(t, &parser.SelectStatement{}, stmt.Else)
}

func TestParse_While(t *testing.T) {
	stmt, ok := parseOne(t, "WHILE @i < 10 BEGIN SET @i = @i + 1 END").(*parser.WhileStatement)
	require.True(t, ok)
	assert.IsType(t, &parser.BeginEndBlock{}, stmt.Body)
}

func TestParse_TryCatch(t *testing.T) {
	block, ok := parseOne(t, "BEGIN TRY SELECT 1 END TRY BEGIN CATCH SELECT 2 END CATCH").(*parser.BeginEndBlock)
	require.True(t, ok)
	assert.Len(t, block.Statements, 2)
}

func TestParse_Return(t *testing.T) {
	script, errs := parser.Parse("RETURN\nSELECT 1")
	require.Empty(t, errs)
	require.Len(t, script.Statements, 2)
	assert.Nil(t, script.Statements[0].(*parser.ReturnStatement).Value)
}

// ---------- Unsupported statements ----------

func TestParse_OtherStatements(t *testing.T) {
	script, errs := parser.Parse(`TRUNCATE TABLE dbo.x;
DROP TABLE IF EXISTS dbo.y
BEGIN TRAN
MERGE INTO t USING s ON t.id = s.id WHEN MATCHED THEN UPDATE SET a = s.a;
CREATE TABLE dbo.z (id INT)
SELECT 1 AS one`)
	require.Empty(t, errs)

	var names []string
	for _, stmt := range script.Statements {
		if other, ok := stmt.(*parser.OtherStatement); ok {
			names = append(names, other.VariantName())
		} else {
			names = append(names, "select")
		}
	}
	assert.Equal(t, []string{
		"OtherStatement:TRUNCATE",
		"OtherStatement:DROP",
		"OtherStatement:BEGIN TRANSACTION",
		"OtherStatement:MERGE",
		"OtherStatement:CREATE TABLE",
		"select",
	}, names)
}

// ---------- Errors ----------

func TestParse_ErrorRecovery(t *testing.T) {
	script, errs := parser.Parse("SELEC x; SELECT a FROM t")
	require.NotNil(t, script)
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Line)
	assert.Equal(t, 1, errs[0].Column)
	assert.Contains(t, errs[0].Message, "SELEC")

	require.Len(t, script.Statements, 1)
	assert.IsType(t, &parser.SelectStatement{}, script.Statements[0])
}

func TestParse_ErrorsKeepPartialTree(t *testing.T) {
	script, errs := parser.Parse("SELECT FROM")
	require.NotNil(t, script)
	assert.NotEmpty(t, errs)
	assert.Len(t, script.Statements, 1)
}

func TestParse_EmptyInput(t *testing.T) {
	script, errs := parser.Parse("  -- nothing here\n")
	require.NotNil(t, script)
	assert.Empty(t, errs)
	assert.Empty(t, script.Statements)
}

func TestParse_NestingLimit(t *testing.T) {
	sql := "SELECT " + strings.Repeat("(", 300) + "1" + strings.Repeat(")", 300)
	script, errs := parser.Parse(sql)
	require.NotNil(t, script)

	found := false
	for _, e := range errs {
		if strings.Contains(e.Message, "nesting exceeds") {
			found = true
		}
	}
	assert.True(t, found, "expected a nesting error, got %v", errs)
}

// ---------- Walk ----------

func TestColumnReferences(t *testing.T) {
	stmt := parseOne(t, "SELECT a, (SELECT b FROM u) AS sub FROM t WHERE c = 1")

	names := func(refs []*parser.ColumnReference) []string {
		var out []string
		for _, r := range refs {
			out = append(out, r.String())
		}
		return out
	}

	assert.Equal(t, []string{"a", "b", "c"}, names(parser.ColumnReferences(stmt, false)))
	assert.Equal(t, []string{"a", "c"}, names(parser.ColumnReferences(stmt, true)))
}
