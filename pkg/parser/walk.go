package parser

// Inspect traverses the tree rooted at node in depth-first order. It calls
// fn(node) and, when fn returns true, visits the children of node.
// Nil nodes are skipped.
func Inspect(node Node, fn func(Node) bool) {
	if isNilNode(node) || !fn(node) {
		return
	}
	for _, child := range children(node) {
		Inspect(child, fn)
	}
}

// children returns the direct child nodes of n in source order.
//
//nolint:gocyclo // a type switch over every node kind
func children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if !isNilNode(c) {
				out = append(out, c)
			}
		}
	}
	addExprs := func(exprs []Expr) {
		for _, e := range exprs {
			add(e)
		}
	}
	addOrder := func(items []*OrderByItem) {
		for _, it := range items {
			add(it)
		}
	}
	addStmts := func(stmts []Statement) {
		for _, s := range stmts {
			add(s)
		}
	}
	addTables := func(refs []TableReference) {
		for _, r := range refs {
			add(r)
		}
	}

	switch n := n.(type) {
	case *Script:
		addStmts(n.Statements)

	// Statements
	case *SelectStatement:
		add(n.With, n.Query)
		addOrder(n.OrderBy)
	case *WithClause:
		for _, cte := range n.CTEs {
			add(cte)
		}
	case *CommonTableExpression:
		add(n.Query)
	case *InsertStatement:
		add(n.With, n.Target, n.Source)
	case *ValuesSource:
		for _, row := range n.Rows {
			addExprs(row)
		}
	case *UpdateStatement:
		add(n.With, n.Target)
		for _, s := range n.Sets {
			add(s)
		}
		addTables(n.From)
		add(n.Where)
	case *SetClause:
		add(n.Column, n.Value)
	case *DeleteStatement:
		add(n.With, n.Target)
		addTables(n.From)
		add(n.Where)
	case *ExecuteStatement:
		add(n.Procedure)
		for _, a := range n.Args {
			add(a)
		}
		add(n.Dynamic)
	case *ExecuteArgument:
		add(n.Value)
	case *CreateViewStatement:
		add(n.Name, n.Query)
	case *CreateProcedureStatement:
		add(n.Name)
		for _, param := range n.Params {
			add(param)
		}
		addStmts(n.Body)
	case *ProcedureParameter:
		add(n.DataType, n.Default)
	case *BeginEndBlock:
		addStmts(n.Statements)
	case *IfStatement:
		add(n.Condition, n.Then, n.Else)
	case *WhileStatement:
		add(n.Condition, n.Body)
	case *DeclareStatement:
		for _, v := range n.Variables {
			add(v)
		}
	case *VariableDeclaration:
		add(n.DataType, n.Value)
	case *SetVariableStatement:
		add(n.Value)
	case *ReturnStatement:
		add(n.Value)

	// Queries
	case *QuerySpecification:
		add(n.Top)
		for _, e := range n.Elements {
			add(e)
		}
		add(n.Into)
		addTables(n.From)
		add(n.Where)
		addExprs(n.GroupBy)
		add(n.Having)
	case *TopClause:
		add(n.Count)
	case *BinaryQueryExpression:
		add(n.Left, n.Right)
	case *QueryParenthesisExpression:
		add(n.Query)
	case *OrderByItem:
		add(n.Expr)

	// Tables
	case *NamedTableReference:
		add(n.Name)
	case *JoinTableReference:
		add(n.Left, n.Right, n.Condition)
	case *QueryDerivedTable:
		add(n.Query)
	case *InlineDerivedTable:
		for _, row := range n.Rows {
			addExprs(row)
		}
	case *TableFunctionReference:
		add(n.Name)
		addExprs(n.Args)

	// Select elements
	case *SelectScalarExpression:
		add(n.Expr)
	case *SelectSetVariable:
		add(n.Expr)

	// Expressions
	case *BinaryExpression:
		add(n.Left, n.Right)
	case *UnaryExpression:
		add(n.Expr)
	case *FunctionCall:
		addExprs(n.Args)
		addOrder(n.WithinGroup)
		add(n.Over)
	case *OverClause:
		addExprs(n.PartitionBy)
		addOrder(n.OrderBy)
	case *CaseExpression:
		add(n.Operand)
		for _, w := range n.Whens {
			add(w)
		}
		add(n.Else)
	case *WhenClause:
		add(n.Condition, n.Result)
	case *CastExpression:
		add(n.Expr, n.DataType, n.Style)
	case *ParenExpression:
		add(n.Expr)
	case *ScalarSubquery:
		add(n.Query)
	case *ExistsExpression:
		add(n.Query)
	case *InExpression:
		add(n.Expr)
		addExprs(n.Values)
		add(n.Query)
	case *BetweenExpression:
		add(n.Expr, n.Low, n.High)
	case *LikeExpression:
		add(n.Expr, n.Pattern, n.Escape)
	case *IsNullExpression:
		add(n.Expr)
	}

	return out
}

// isNilNode reports whether n is nil or a typed nil pointer.
func isNilNode(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *SelectStatement:
		return v == nil
	case *WithClause:
		return v == nil
	case *ObjectName:
		return v == nil
	case *ColumnReference:
		return v == nil
	case *TopClause:
		return v == nil
	case *OverClause:
		return v == nil
	case *DataType:
		return v == nil
	}
	return false
}

// ColumnReferences returns every column reference under node, excluding
// those inside nested subqueries when shallow is true.
func ColumnReferences(node Node, shallow bool) []*ColumnReference {
	var refs []*ColumnReference
	Inspect(node, func(n Node) bool {
		switch v := n.(type) {
		case *ColumnReference:
			refs = append(refs, v)
		case *SelectStatement:
			return !shallow || v == node
		}
		return true
	})
	return refs
}
