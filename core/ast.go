package core

// Position locates a declaration node in its YAML source. Nodes built by a
// host in Go carry the zero Position.
type Position struct {
	Line   int
	Column int
}

type Node interface {
	Pos() Position
}

type Statement interface {
	Node
	stmtNode()
}

type Expression interface {
	Node
	exprNode()
}

// VarStmt declares a local. A nil Init binds the type's default value.
type VarStmt struct {
	Name     string
	Type     string
	Init     Expression
	position Position
}

func (s *VarStmt) stmtNode()     {}
func (s *VarStmt) Pos() Position { return s.position }

// AssignStmt stores into a local (*LocalExpr) or a field (*FieldExpr).
type AssignStmt struct {
	Target   Expression
	Value    Expression
	position Position
}

func (s *AssignStmt) stmtNode()     {}
func (s *AssignStmt) Pos() Position { return s.position }

type IfStmt struct {
	Condition  Expression
	Consequent []Statement
	Alternate  []Statement
	position   Position
}

func (s *IfStmt) stmtNode()     {}
func (s *IfStmt) Pos() Position { return s.position }

type WhileStmt struct {
	Condition Expression
	Body      []Statement
	position  Position
}

func (s *WhileStmt) stmtNode()     {}
func (s *WhileStmt) Pos() Position { return s.position }

// ReturnStmt with a nil Value returns from a void method.
type ReturnStmt struct {
	Value    Expression
	position Position
}

func (s *ReturnStmt) stmtNode()     {}
func (s *ReturnStmt) Pos() Position { return s.position }

// PrintStmt is the output primitive: one emitted line per execution.
type PrintStmt struct {
	Value    Expression
	position Position
}

func (s *PrintStmt) stmtNode()     {}
func (s *PrintStmt) Pos() Position { return s.position }

type ExprStmt struct {
	Expr     Expression
	position Position
}

func (s *ExprStmt) stmtNode()     {}
func (s *ExprStmt) Pos() Position { return s.position }

type IntegerLiteral struct {
	Value    int32
	position Position
}

func (e *IntegerLiteral) exprNode()     {}
func (e *IntegerLiteral) Pos() Position { return e.position }

type StringLiteral struct {
	Value    string
	position Position
}

func (e *StringLiteral) exprNode()     {}
func (e *StringLiteral) Pos() Position { return e.position }

type BoolLiteral struct {
	Value    bool
	position Position
}

func (e *BoolLiteral) exprNode()     {}
func (e *BoolLiteral) Pos() Position { return e.position }

type NullLiteral struct {
	position Position
}

func (e *NullLiteral) exprNode()     {}
func (e *NullLiteral) Pos() Position { return e.position }

type ThisExpr struct {
	position Position
}

func (e *ThisExpr) exprNode()     {}
func (e *ThisExpr) Pos() Position { return e.position }

type LocalExpr struct {
	Name     string
	position Position
}

func (e *LocalExpr) exprNode()     {}
func (e *LocalExpr) Pos() Position { return e.position }

// FieldExpr reads Name from Object, or from the receiver when Object is nil.
type FieldExpr struct {
	Object   Expression
	Name     string
	position Position
}

func (e *FieldExpr) exprNode()     {}
func (e *FieldExpr) Pos() Position { return e.position }

// CallExpr invokes Method on Receiver. A nil Receiver is an implicit call
// that may bind to either an instance method on the current receiver or a
// static method of the enclosing class.
type CallExpr struct {
	Receiver Expression
	Method   string
	Args     []Expression
	position Position
}

func (e *CallExpr) exprNode()     {}
func (e *CallExpr) Pos() Position { return e.position }

type StaticCallExpr struct {
	Type     string
	Method   string
	Args     []Expression
	position Position
}

func (e *StaticCallExpr) exprNode()     {}
func (e *StaticCallExpr) Pos() Position { return e.position }

type NewExpr struct {
	Type     string
	Args     []Expression
	position Position
}

func (e *NewExpr) exprNode()     {}
func (e *NewExpr) Pos() Position { return e.position }

type BinaryExpr struct {
	Operator string
	Left     Expression
	Right    Expression
	position Position
}

func (e *BinaryExpr) exprNode()     {}
func (e *BinaryExpr) Pos() Position { return e.position }

// UnaryExpr applies "!" or "-".
type UnaryExpr struct {
	Operator string
	Operand  Expression
	position Position
}

func (e *UnaryExpr) exprNode()     {}
func (e *UnaryExpr) Pos() Position { return e.position }
