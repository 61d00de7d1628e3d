package parser

import (
	"strings"

	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// Node is implemented by every AST node.
type Node interface {
	node()
}

// Statement represents a T-SQL statement.
type Statement interface {
	Node
	stmtNode()
}

// QueryExpression is the body of a SELECT: a single query specification,
// a set operation, or a parenthesized query.
type QueryExpression interface {
	Node
	queryNode()
}

// TableReference represents an item in a FROM clause.
type TableReference interface {
	Node
	tableRefNode()
}

// SelectElement represents an item in a SELECT list.
type SelectElement interface {
	Node
	selectElementNode()
}

// Expr represents a scalar expression.
type Expr interface {
	Node
	exprNode()
}

// InsertSource is the row source of an INSERT statement.
type InsertSource interface {
	Node
	insertSourceNode()
}

// Script is the root of a parsed T-SQL script.
type Script struct {
	Statements []Statement
}

func (*Script) node() {}

// ObjectName is a possibly qualified object name: [server.][database.][schema.]name.
type ObjectName struct {
	Parts []string
}

func (*ObjectName) node() {}

// Name returns the unqualified object name.
func (n *ObjectName) Name() string {
	if n == nil || len(n.Parts) == 0 {
		return ""
	}
	return n.Parts[len(n.Parts)-1]
}

// IsEmpty reports whether the name has no parts, as after a parse error.
func (n *ObjectName) IsEmpty() bool {
	return n == nil || len(n.Parts) == 0
}

// Schema returns the schema part, or "" when the name is unqualified.
func (n *ObjectName) Schema() string {
	if n == nil || len(n.Parts) < 2 {
		return ""
	}
	return n.Parts[len(n.Parts)-2]
}

// String returns the dotted form of the name.
func (n *ObjectName) String() string {
	if n == nil {
		return ""
	}
	return strings.Join(n.Parts, ".")
}

// ---------- Statements ----------

// SelectStatement is a complete SELECT with optional WITH and ORDER BY.
// It is also the shape of every subquery in the tree.
type SelectStatement struct {
	With    *WithClause
	Query   QueryExpression
	OrderBy []*OrderByItem
}

// WithClause holds common table expressions in textual order.
type WithClause struct {
	CTEs []*CommonTableExpression
}

// CommonTableExpression is one member of a WITH clause.
type CommonTableExpression struct {
	Name    string
	Columns []string // optional explicit column list
	Query   *SelectStatement
}

// InsertStatement represents INSERT [INTO] target [(cols)] source.
type InsertStatement struct {
	With    *WithClause
	Target  *ObjectName
	Columns []string
	Source  InsertSource
}

// ValuesSource is INSERT ... VALUES (...), (...).
type ValuesSource struct {
	Rows [][]Expr
}

// DefaultValuesSource is INSERT ... DEFAULT VALUES.
type DefaultValuesSource struct{}

// UpdateStatement represents UPDATE target SET ... [FROM ...] [WHERE ...].
type UpdateStatement struct {
	With   *WithClause
	Target *ObjectName // table name or an alias declared in From
	Sets   []*SetClause
	From   []TableReference
	Where  Expr
}

// SetClause is one assignment in an UPDATE SET list.
type SetClause struct {
	Column   *ColumnReference // nil when assigning a variable
	Variable string
	Op       token.TokenType // EQ or a compound assignment
	Value    Expr
}

// DeleteStatement represents DELETE [FROM] target [FROM ...] [WHERE ...].
type DeleteStatement struct {
	With   *WithClause
	Target *ObjectName
	From   []TableReference
	Where  Expr
}

// ExecuteStatement represents EXEC[UTE] [@rc =] procedure args, or
// EXEC (dynamic sql) when Procedure is nil.
type ExecuteStatement struct {
	ReturnVariable string
	Procedure      *ObjectName
	Args           []*ExecuteArgument
	Dynamic        Expr
}

// ExecuteArgument is one argument of a procedure call.
type ExecuteArgument struct {
	Name   string // @param for named arguments
	Value  Expr
	Output bool
}

// CreateViewStatement represents CREATE [OR ALTER] | ALTER VIEW.
type CreateViewStatement struct {
	Name    *ObjectName
	Columns []string
	Query   *SelectStatement
	Alter   bool
}

// CreateProcedureStatement represents CREATE [OR ALTER] | ALTER PROCEDURE.
type CreateProcedureStatement struct {
	Name   *ObjectName
	Params []*ProcedureParameter
	Body   []Statement
	Alter  bool
}

// ProcedureParameter is a declared procedure parameter.
type ProcedureParameter struct {
	Name     string
	DataType *DataType
	Default  Expr
	Output   bool
}

// BeginEndBlock represents BEGIN ... END.
type BeginEndBlock struct {
	Statements []Statement
}

// IfStatement represents IF cond stmt [ELSE stmt].
type IfStatement struct {
	Condition Expr
	Then      Statement
	Else      Statement
}

// WhileStatement represents WHILE cond stmt.
type WhileStatement struct {
	Condition Expr
	Body      Statement
}

// DeclareStatement represents DECLARE @a type [= value], ...
type DeclareStatement struct {
	Variables []*VariableDeclaration
}

// VariableDeclaration is one variable of a DECLARE.
type VariableDeclaration struct {
	Name     string
	DataType *DataType
	Value    Expr
}

// SetVariableStatement represents SET @var = expr.
type SetVariableStatement struct {
	Variable string
	Op       token.TokenType
	Value    Expr
}

// SetOptionStatement represents session options such as SET NOCOUNT ON.
type SetOptionStatement struct {
	Options []string
	Value   string
}

// ReturnStatement represents RETURN [expr].
type ReturnStatement struct {
	Value Expr
}

// OtherStatement is a statement the parser recognizes only by its leading
// keywords (MERGE, TRUNCATE, DROP, CREATE TABLE, PRINT, ...). Its text is
// skipped up to the next statement boundary.
type OtherStatement struct {
	Keyword string
	Pos     token.Position
}

// VariantName distinguishes unsupported statements by keyword in diagnostics.
func (s *OtherStatement) VariantName() string {
	return "OtherStatement:" + s.Keyword
}

func (*SelectStatement) node()          {}
func (*WithClause) node()               {}
func (*CommonTableExpression) node()    {}
func (*InsertStatement) node()          {}
func (*ValuesSource) node()             {}
func (*DefaultValuesSource) node()      {}
func (*UpdateStatement) node()          {}
func (*SetClause) node()                {}
func (*DeleteStatement) node()          {}
func (*ExecuteStatement) node()         {}
func (*ExecuteArgument) node()          {}
func (*CreateViewStatement) node()      {}
func (*CreateProcedureStatement) node() {}
func (*ProcedureParameter) node()       {}
func (*BeginEndBlock) node()            {}
func (*IfStatement) node()              {}
func (*WhileStatement) node()           {}
func (*DeclareStatement) node()         {}
func (*VariableDeclaration) node()      {}
func (*SetVariableStatement) node()     {}
func (*SetOptionStatement) node()       {}
func (*ReturnStatement) node()          {}
func (*OtherStatement) node()           {}

func (*SelectStatement) stmtNode()          {}
func (*InsertStatement) stmtNode()          {}
func (*UpdateStatement) stmtNode()          {}
func (*DeleteStatement) stmtNode()          {}
func (*ExecuteStatement) stmtNode()         {}
func (*CreateViewStatement) stmtNode()      {}
func (*CreateProcedureStatement) stmtNode() {}
func (*BeginEndBlock) stmtNode()            {}
func (*IfStatement) stmtNode()              {}
func (*WhileStatement) stmtNode()           {}
func (*DeclareStatement) stmtNode()         {}
func (*SetVariableStatement) stmtNode()     {}
func (*SetOptionStatement) stmtNode()       {}
func (*ReturnStatement) stmtNode()          {}
func (*OtherStatement) stmtNode()           {}

func (*SelectStatement) insertSourceNode()     {}
func (*ExecuteStatement) insertSourceNode()    {}
func (*ValuesSource) insertSourceNode()        {}
func (*DefaultValuesSource) insertSourceNode() {}
