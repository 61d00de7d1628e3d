package parser

import (
	"strings"

	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// ColumnReference is a possibly qualified column: [schema.][table.]column.
type ColumnReference struct {
	Parts []string
}

// Column returns the column name.
func (c *ColumnReference) Column() string {
	if len(c.Parts) == 0 {
		return ""
	}
	return c.Parts[len(c.Parts)-1]
}

// Qualifier returns the table or alias qualifying the column, or "".
func (c *ColumnReference) Qualifier() string {
	if len(c.Parts) < 2 {
		return ""
	}
	return c.Parts[len(c.Parts)-2]
}

// String returns the dotted form of the reference.
func (c *ColumnReference) String() string {
	return strings.Join(c.Parts, ".")
}

// LiteralKind identifies the kind of a literal.
type LiteralKind int

// Literal kinds.
const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralNull
	LiteralKeyword // date part names such as DAY in DATEADD(DAY, ...)
)

// Literal is a constant value.
type Literal struct {
	Kind  LiteralKind
	Value string
}

// VariableReference is @name or @@name.
type VariableReference struct {
	Name string
}

// BinaryExpression is left op right.
type BinaryExpression struct {
	Left  Expr
	Op    token.TokenType
	Right Expr
}

// UnaryExpression is op expr (NOT, -, +, ~).
type UnaryExpression struct {
	Op   token.TokenType
	Expr Expr
}

// FunctionCall is name(args) [WITHIN GROUP (...)] [OVER (...)].
type FunctionCall struct {
	Name        *ObjectName
	Distinct    bool
	Star        bool // COUNT(*)
	Args        []Expr
	WithinGroup []*OrderByItem
	Over        *OverClause
}

// OverClause is a window specification.
type OverClause struct {
	PartitionBy []Expr
	OrderBy     []*OrderByItem
}

// CaseExpression is CASE [operand] WHEN ... THEN ... [ELSE ...] END.
type CaseExpression struct {
	Operand Expr
	Whens   []*WhenClause
	Else    Expr
}

// WhenClause is a WHEN/THEN pair.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// DataType is a type name with optional parameters: DECIMAL(18, 2).
type DataType struct {
	Name   string
	Params []string
}

// CastExpression covers CAST, TRY_CAST, CONVERT and TRY_CONVERT.
type CastExpression struct {
	Expr     Expr
	DataType *DataType
	Style    Expr // CONVERT style argument
	Convert  bool
	Try      bool
}

// ParenExpression is (expr).
type ParenExpression struct {
	Expr Expr
}

// ScalarSubquery is a subquery used as a value.
type ScalarSubquery struct {
	Query *SelectStatement
}

// ExistsExpression is [NOT] EXISTS (subquery).
type ExistsExpression struct {
	Query *SelectStatement
	Not   bool
}

// InExpression is expr [NOT] IN (values | subquery).
type InExpression struct {
	Expr   Expr
	Not    bool
	Values []Expr
	Query  *SelectStatement
}

// BetweenExpression is expr [NOT] BETWEEN low AND high.
type BetweenExpression struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

// LikeExpression is expr [NOT] LIKE pattern [ESCAPE char].
type LikeExpression struct {
	Expr    Expr
	Not     bool
	Pattern Expr
	Escape  Expr
}

// IsNullExpression is expr IS [NOT] NULL.
type IsNullExpression struct {
	Expr Expr
	Not  bool
}

func (*ColumnReference) node()   {}
func (*Literal) node()           {}
func (*VariableReference) node() {}
func (*BinaryExpression) node()  {}
func (*UnaryExpression) node()   {}
func (*FunctionCall) node()      {}
func (*OverClause) node()        {}
func (*CaseExpression) node()    {}
func (*WhenClause) node()        {}
func (*DataType) node()          {}
func (*CastExpression) node()    {}
func (*ParenExpression) node()   {}
func (*ScalarSubquery) node()    {}
func (*ExistsExpression) node()  {}
func (*InExpression) node()      {}
func (*BetweenExpression) node() {}
func (*LikeExpression) node()    {}
func (*IsNullExpression) node()  {}

func (*ColumnReference) exprNode()   {}
func (*Literal) exprNode()           {}
func (*VariableReference) exprNode() {}
func (*BinaryExpression) exprNode()  {}
func (*UnaryExpression) exprNode()   {}
func (*FunctionCall) exprNode()      {}
func (*CaseExpression) exprNode()    {}
func (*CastExpression) exprNode()    {}
func (*ParenExpression) exprNode()   {}
func (*ScalarSubquery) exprNode()    {}
func (*ExistsExpression) exprNode()  {}
func (*InExpression) exprNode()      {}
func (*BetweenExpression) exprNode() {}
func (*LikeExpression) exprNode()    {}
func (*IsNullExpression) exprNode()  {}
