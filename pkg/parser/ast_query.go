package parser

import "github.com/leapstack-labs/leaplineage/pkg/token"

// ---------- Query Expressions ----------

// QuerySpecification is a single SELECT ... FROM ... block.
type QuerySpecification struct {
	Distinct bool
	Top      *TopClause
	Elements []SelectElement
	Into     *ObjectName // SELECT ... INTO target
	From     []TableReference
	Where    Expr
	GroupBy  []Expr
	Having   Expr
}

// TopClause represents TOP (n) [PERCENT] [WITH TIES].
type TopClause struct {
	Count    Expr
	Percent  bool
	WithTies bool
}

// SetOp is the operator of a binary query expression.
type SetOp string

// Set operators.
const (
	SetOpUnion     SetOp = "UNION"
	SetOpIntersect SetOp = "INTERSECT"
	SetOpExcept    SetOp = "EXCEPT"
)

// BinaryQueryExpression is a set operation between two query expressions.
type BinaryQueryExpression struct {
	Op    SetOp
	All   bool
	Left  QueryExpression
	Right QueryExpression
}

// QueryParenthesisExpression is a parenthesized query expression.
type QueryParenthesisExpression struct {
	Query QueryExpression
}

// OrderByItem is one ORDER BY entry.
type OrderByItem struct {
	Expr Expr
	Desc bool
}

func (*QuerySpecification) node()         {}
func (*TopClause) node()                  {}
func (*BinaryQueryExpression) node()      {}
func (*QueryParenthesisExpression) node() {}
func (*OrderByItem) node()                {}

func (*QuerySpecification) queryNode()         {}
func (*BinaryQueryExpression) queryNode()      {}
func (*QueryParenthesisExpression) queryNode() {}

// ---------- Table References ----------

// JoinType identifies the kind of join.
type JoinType string

// Join types. Comma joins are recorded as JoinCross.
const (
	JoinInner      JoinType = "INNER"
	JoinLeft       JoinType = "LEFT"
	JoinRight      JoinType = "RIGHT"
	JoinFull       JoinType = "FULL"
	JoinCross      JoinType = "CROSS"
	JoinCrossApply JoinType = "CROSS APPLY"
	JoinOuterApply JoinType = "OUTER APPLY"
)

// NamedTableReference is a table, view, or CTE referenced by name.
type NamedTableReference struct {
	Name  *ObjectName
	Alias string
}

// ExposedName is the name the reference is known by inside the query.
func (t *NamedTableReference) ExposedName() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name.Name()
}

// VariableTableReference is a table variable in FROM: @rows [AS] alias.
type VariableTableReference struct {
	Variable string
	Alias    string
}

// JoinTableReference joins two table references. APPLY operators are
// joins without a condition.
type JoinTableReference struct {
	Type      JoinType
	Left      TableReference
	Right     TableReference
	Condition Expr
}

// QueryDerivedTable is a subquery in FROM: (SELECT ...) [AS] alias [(cols)].
type QueryDerivedTable struct {
	Query   *SelectStatement
	Alias   string
	Columns []string
}

// InlineDerivedTable is a VALUES table constructor in FROM.
type InlineDerivedTable struct {
	Rows    [][]Expr
	Alias   string
	Columns []string
}

// TableFunctionReference is a table-valued function call in FROM.
type TableFunctionReference struct {
	Name    *ObjectName
	Args    []Expr
	Alias   string
	Columns []string
}

func (*NamedTableReference) node()    {}
func (*VariableTableReference) node() {}
func (*JoinTableReference) node()     {}
func (*QueryDerivedTable) node()      {}
func (*InlineDerivedTable) node()     {}
func (*TableFunctionReference) node() {}

func (*NamedTableReference) tableRefNode()    {}
func (*VariableTableReference) tableRefNode() {}
func (*JoinTableReference) tableRefNode()     {}
func (*QueryDerivedTable) tableRefNode()      {}
func (*InlineDerivedTable) tableRefNode()     {}
func (*TableFunctionReference) tableRefNode() {}

// ---------- Select Elements ----------

// SelectScalarExpression is expr [[AS] alias], or alias = expr.
type SelectScalarExpression struct {
	Expr  Expr
	Alias string
}

// SelectStarExpression is * or qualifier.*.
type SelectStarExpression struct {
	Qualifier []string // nil for a bare *
}

// SelectSetVariable is SELECT @var = expr.
type SelectSetVariable struct {
	Variable string
	Op       token.TokenType
	Expr     Expr
}

func (*SelectScalarExpression) node() {}
func (*SelectStarExpression) node()   {}
func (*SelectSetVariable) node()      {}

func (*SelectScalarExpression) selectElementNode() {}
func (*SelectStarExpression) selectElementNode()   {}
func (*SelectSetVariable) selectElementNode()      {}
