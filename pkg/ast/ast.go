// Package ast defines the query tree the analyzer operates on.
//
// Every node carries a stable numeric identity (set once at parse time by an
// IDGen) so later passes can mutate nodes in place — replacing a projection
// list, rewriting a WHERE clause, expanding a star — without reconstructing
// the tree around them.
package ast

// Node is implemented by every tree element. ID is stable for the lifetime
// of one analyzer call and is never reused within that call.
type Node interface {
	NodeID() int
}

// Statement is a top-level query form: Select, SetOp, or With.
type Statement interface {
	Node
	statementNode()
}

// Source is anything that can appear where a query reads rows from: a bare
// table, a derived subquery, or a join of two sources.
type Source interface {
	Node
	sourceNode()
}

// Expr is any scalar or boolean expression.
type Expr interface {
	Node
	exprNode()
}

// OtherStatement marks a parsed statement of a kind the core never analyzes
// in depth (INSERT, UPDATE, DELETE, DROP, ALTER, TRUNCATE, CREATE, ...). Its
// Kind is enough for the anti-pattern detector to reject it by name.
type OtherStatement struct {
	ID   int
	Kind string
}

func (s *OtherStatement) NodeID() int    { return s.ID }
func (s *OtherStatement) statementNode() {}

// Select is a single SELECT ... FROM ... WHERE ... query.
type Select struct {
	ID          int
	Distinct    bool
	Projections []*Projection
	From        Source // nil for a FROM-less SELECT
	Where       Expr
	GroupBy     []Expr
	Having      Expr
	OrderBy     []*OrderItem
	Limit       Expr
	Offset      Expr
}

func (s *Select) NodeID() int    { return s.ID }
func (s *Select) statementNode() {}

// Projection is one item of a SELECT list: either a star (optionally
// qualified by a table/alias), or an expression with an optional alias.
type Projection struct {
	ID        int
	Star      bool
	StarTable string // set when Star and qualified, e.g. "t" in "t.*"
	Expr      Expr
	Alias     string
}

func (p *Projection) NodeID() int { return p.ID }

// OrderItem is one ORDER BY entry.
type OrderItem struct {
	ID   int
	Expr Expr
	Desc bool
}

func (o *OrderItem) NodeID() int { return o.ID }

// SetOpKind enumerates the supported set operators.
type SetOpKind string

const (
	SetOpUnion     SetOpKind = "UNION"
	SetOpIntersect SetOpKind = "INTERSECT"
	SetOpExcept    SetOpKind = "EXCEPT"
)

// SetOp combines two queries with UNION/INTERSECT/EXCEPT [ALL].
type SetOp struct {
	ID    int
	Op    SetOpKind
	All   bool
	Left  Statement
	Right Statement
}

func (s *SetOp) NodeID() int    { return s.ID }
func (s *SetOp) statementNode() {}

// CTE is one named binding inside a WITH clause.
type CTE struct {
	ID    int
	Name  string
	Query Statement
}

func (c *CTE) NodeID() int { return c.ID }

// With is a WITH clause binding one or more CTEs around a body statement.
// Recursive WITH is out of the supported surface.
type With struct {
	ID   int
	CTEs []*CTE
	Body Statement
}

func (w *With) NodeID() int    { return w.ID }
func (w *With) statementNode() {}

// TableRef is a bare table reference, optionally aliased.
type TableRef struct {
	ID    int
	Name  string
	Alias string
}

func (t *TableRef) NodeID() int  { return t.ID }
func (t *TableRef) sourceNode()  {}
func (t *TableRef) RefName() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// SubquerySource is a derived table: a subquery used as a FROM source.
type SubquerySource struct {
	ID    int
	Query Statement
	Alias string
}

func (s *SubquerySource) NodeID() int { return s.ID }
func (s *SubquerySource) sourceNode() {}

// JoinKind enumerates the supported join types.
type JoinKind string

const (
	JoinInner JoinKind = "JOIN"
	JoinLeft  JoinKind = "LEFT JOIN"
	JoinRight JoinKind = "RIGHT JOIN"
	JoinFull  JoinKind = "FULL JOIN"
	JoinCross JoinKind = "CROSS JOIN"
)

// Join combines two sources with an ON predicate or a USING column list.
type Join struct {
	ID    int
	Kind  JoinKind
	Left  Source
	Right Source
	On    Expr
	Using []string
}

func (j *Join) NodeID() int { return j.ID }
func (j *Join) sourceNode() {}

// ColumnRef references a column, optionally qualified by a table or alias.
type ColumnRef struct {
	ID    int
	Table string
	Name  string
}

func (c *ColumnRef) NodeID() int { return c.ID }
func (c *ColumnRef) exprNode()   {}

// LiteralKind enumerates the literal value kinds the checker distinguishes.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBool
	LiteralNull
)

// Literal is a constant value: a string, number, boolean, or NULL.
type Literal struct {
	ID    int
	Kind  LiteralKind
	Value any
	Raw   string // original source text, preserved for serialization
}

func (l *Literal) NodeID() int { return l.ID }
func (l *Literal) exprNode()   {}

// FuncCall is a function invocation, e.g. COUNT(*) or UPPER(name).
type FuncCall struct {
	ID   int
	Name string
	Args []Expr
	Star bool // COUNT(*) form
}

func (f *FuncCall) NodeID() int { return f.ID }
func (f *FuncCall) exprNode()   {}

// BinaryExpr is a two-operand operator: arithmetic, comparison, AND/OR.
type BinaryExpr struct {
	ID    int
	Op    string
	Left  Expr
	Right Expr
}

func (b *BinaryExpr) NodeID() int { return b.ID }
func (b *BinaryExpr) exprNode()   {}

// UnaryExpr is a single-operand prefix operator: NOT, unary -, unary +.
type UnaryExpr struct {
	ID      int
	Op      string
	Operand Expr
}

func (u *UnaryExpr) NodeID() int { return u.ID }
func (u *UnaryExpr) exprNode()   {}

// Paren is an explicitly parenthesized expression, kept so the serializer
// can decide whether the parentheses are still needed under precedence.
type Paren struct {
	ID    int
	Inner Expr
}

func (p *Paren) NodeID() int { return p.ID }
func (p *Paren) exprNode()   {}

// Between is `Target [NOT] BETWEEN Low AND High`.
type Between struct {
	ID     int
	Target Expr
	Low    Expr
	High   Expr
	Not    bool
}

func (b *Between) NodeID() int { return b.ID }
func (b *Between) exprNode()   {}

// InExpr is `Target [NOT] IN (List...)`.
type InExpr struct {
	ID     int
	Target Expr
	List   []Expr
	Not    bool
}

func (i *InExpr) NodeID() int { return i.ID }
func (i *InExpr) exprNode()   {}

// IsNullExpr is `Target IS [NOT] NULL`.
type IsNullExpr struct {
	ID     int
	Target Expr
	Not    bool
}

func (i *IsNullExpr) NodeID() int { return i.ID }
func (i *IsNullExpr) exprNode()   {}

// WhenClause is one WHEN/THEN arm of a CASE expression.
type WhenClause struct {
	ID   int
	When Expr
	Then Expr
}

func (w *WhenClause) NodeID() int { return w.ID }

// CaseExpr is a CASE expression, with or without a leading operand.
type CaseExpr struct {
	ID      int
	Operand Expr // nil for the searched form (CASE WHEN ... )
	Whens   []*WhenClause
	Else    Expr
}

func (c *CaseExpr) NodeID() int { return c.ID }
func (c *CaseExpr) exprNode()   {}

// SubqueryExpr wraps a statement used in scalar/EXISTS/IN expression
// position, e.g. `WHERE id IN (SELECT ...)`.
type SubqueryExpr struct {
	ID     int
	Query  Statement
	Exists bool
	Not    bool // NOT EXISTS
}

func (s *SubqueryExpr) NodeID() int { return s.ID }
func (s *SubqueryExpr) exprNode()   {}
