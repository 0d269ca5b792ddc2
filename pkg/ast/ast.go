package ast

// NodeType discriminates AST node kinds.
type NodeType string

const (
	NodeProgram          NodeType = "Program"
	NodeStmtList         NodeType = "StmtList"
	NodeClassDef         NodeType = "ClassDef"
	NodeFuncDef          NodeType = "FuncDef"
	NodeArg              NodeType = "Arg"
	NodeExpStatement     NodeType = "ExpStatement"
	NodeIfStatement      NodeType = "IfStatement"
	NodeWhileStatement   NodeType = "WhileStatement"
	NodeReturnStatement  NodeType = "ReturnStatement"
	NodeBlockStatement   NodeType = "BlockStatement"
	NodeDeclExpression   NodeType = "DeclExpression"
	NodeBinaryExpression NodeType = "BinaryExpression"
	NodeNameExpression   NodeType = "NameExpression"
	NodeCallExpression   NodeType = "CallExpression"
	NodeMemberExpression NodeType = "MemberExpression"
	NodeIndexExpression  NodeType = "IndexExpression"
	NodeNewExpression    NodeType = "NewExpression"
	NodeArrayLiteral     NodeType = "ArrayLiteral"
	NodeIntLiteral       NodeType = "IntLiteral"
	NodeFloatLiteral     NodeType = "FloatLiteral"
	NodeStringLiteral    NodeType = "StringLiteral"
	NodeDurLiteral       NodeType = "DurLiteral"
)

// Node is implemented by every AST node. Pos is the source position the
// parser recorded for the node; the checker keys diagnostics and
// dependency records to it.
type Node interface {
	NodeType() NodeType
	Pos() int
	isNode()
}

type nodeImpl struct {
	Type  NodeType `json:"type"`
	Where int      `json:"pos"`
}

func newNodeImpl(kind NodeType, pos int) nodeImpl {
	return nodeImpl{Type: kind, Where: pos}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (n nodeImpl) Pos() int           { return n.Where }
func (nodeImpl) isNode()              {}

// Marker interfaces.

type Expression interface {
	Node
	expressionNode()
}

type Statement interface {
	Node
	statementNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

type statementMarker struct{}

func (statementMarker) statementNode() {}

// Operator enumerates binary operators the checker understands. OperatorChuck
// is `=>`: assignment into a declaration or variable, or unit-generator
// connection when both sides are ugens.
type Operator string

const (
	OperatorChuck   Operator = "=>"
	OperatorUnchuck Operator = "=<"
	OperatorPlus    Operator = "+"
	OperatorMinus   Operator = "-"
	OperatorTimes   Operator = "*"
	OperatorDivide  Operator = "/"
	OperatorPercent Operator = "%"
	OperatorEq      Operator = "=="
	OperatorNeq     Operator = "!="
	OperatorLt      Operator = "<"
	OperatorGt      Operator = ">"
	OperatorLe      Operator = "<="
	OperatorGe      Operator = ">="
	OperatorAnd     Operator = "&&"
	OperatorOr      Operator = "||"
)

// Expressions

type IntLiteral struct {
	nodeImpl
	expressionMarker

	Value int64 `json:"value"`
}

func NewIntLiteral(value int64, pos int) *IntLiteral {
	return &IntLiteral{nodeImpl: newNodeImpl(NodeIntLiteral, pos), Value: value}
}

type FloatLiteral struct {
	nodeImpl
	expressionMarker

	Value float64 `json:"value"`
}

func NewFloatLiteral(value float64, pos int) *FloatLiteral {
	return &FloatLiteral{nodeImpl: newNodeImpl(NodeFloatLiteral, pos), Value: value}
}

type StringLiteral struct {
	nodeImpl
	expressionMarker

	Value string `json:"value"`
}

func NewStringLiteral(value string, pos int) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral, pos), Value: value}
}

// DurLiteral is a duration literal such as `500::ms`: a scalar count of the
// named unit.
type DurLiteral struct {
	nodeImpl
	expressionMarker

	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

func NewDurLiteral(value float64, unit string, pos int) *DurLiteral {
	return &DurLiteral{nodeImpl: newNodeImpl(NodeDurLiteral, pos), Value: value, Unit: unit}
}

type ArrayLiteral struct {
	nodeImpl
	expressionMarker

	Elements []Expression `json:"elements"`
}

func NewArrayLiteral(elements []Expression, pos int) *ArrayLiteral {
	return &ArrayLiteral{nodeImpl: newNodeImpl(NodeArrayLiteral, pos), Elements: elements}
}

type NameExpression struct {
	nodeImpl
	expressionMarker

	Name string `json:"name"`
}

func NewNameExpression(name string, pos int) *NameExpression {
	return &NameExpression{nodeImpl: newNodeImpl(NodeNameExpression, pos), Name: name}
}

// DeclExpression declares a variable, e.g. `int x` or `float samples[][]`.
// ArrayDepth counts the `[]` pairs; zero means not an array.
type DeclExpression struct {
	nodeImpl
	expressionMarker

	TypeName   string `json:"typeName"`
	Name       string `json:"name"`
	ArrayDepth int    `json:"arrayDepth,omitempty"`
	IsStatic   bool   `json:"isStatic,omitempty"`
	IsConst    bool   `json:"isConst,omitempty"`
}

func NewDeclExpression(typeName, name string, arrayDepth int, pos int) *DeclExpression {
	return &DeclExpression{nodeImpl: newNodeImpl(NodeDeclExpression, pos), TypeName: typeName, Name: name, ArrayDepth: arrayDepth}
}

type BinaryExpression struct {
	nodeImpl
	expressionMarker

	Operator Operator   `json:"operator"`
	Left     Expression `json:"left"`
	Right    Expression `json:"right"`
}

func NewBinaryExpression(op Operator, left, right Expression, pos int) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNodeImpl(NodeBinaryExpression, pos), Operator: op, Left: left, Right: right}
}

type CallExpression struct {
	nodeImpl
	expressionMarker

	Callee    Expression   `json:"callee"`
	Arguments []Expression `json:"arguments"`
}

func NewCallExpression(callee Expression, arguments []Expression, pos int) *CallExpression {
	return &CallExpression{nodeImpl: newNodeImpl(NodeCallExpression, pos), Callee: callee, Arguments: arguments}
}

type MemberExpression struct {
	nodeImpl
	expressionMarker

	Base   Expression `json:"base"`
	Member string     `json:"member"`
}

func NewMemberExpression(base Expression, member string, pos int) *MemberExpression {
	return &MemberExpression{nodeImpl: newNodeImpl(NodeMemberExpression, pos), Base: base, Member: member}
}

type IndexExpression struct {
	nodeImpl
	expressionMarker

	Base  Expression `json:"base"`
	Index Expression `json:"index"`
}

func NewIndexExpression(base, index Expression, pos int) *IndexExpression {
	return &IndexExpression{nodeImpl: newNodeImpl(NodeIndexExpression, pos), Base: base, Index: index}
}

type NewExpression struct {
	nodeImpl
	expressionMarker

	TypeName string `json:"typeName"`
}

func NewNewExpression(typeName string, pos int) *NewExpression {
	return &NewExpression{nodeImpl: newNodeImpl(NodeNewExpression, pos), TypeName: typeName}
}

// Statements

type ExpStatement struct {
	nodeImpl
	statementMarker

	Exp Expression `json:"exp"`
}

func NewExpStatement(exp Expression, pos int) *ExpStatement {
	return &ExpStatement{nodeImpl: newNodeImpl(NodeExpStatement, pos), Exp: exp}
}

type IfStatement struct {
	nodeImpl
	statementMarker

	Cond Expression `json:"cond"`
	Then Statement  `json:"then"`
	Else Statement  `json:"else,omitempty"`
}

func NewIfStatement(cond Expression, then, els Statement, pos int) *IfStatement {
	return &IfStatement{nodeImpl: newNodeImpl(NodeIfStatement, pos), Cond: cond, Then: then, Else: els}
}

type WhileStatement struct {
	nodeImpl
	statementMarker

	Cond Expression `json:"cond"`
	Body Statement  `json:"body"`
}

func NewWhileStatement(cond Expression, body Statement, pos int) *WhileStatement {
	return &WhileStatement{nodeImpl: newNodeImpl(NodeWhileStatement, pos), Cond: cond, Body: body}
}

type ReturnStatement struct {
	nodeImpl
	statementMarker

	Value Expression `json:"value,omitempty"`
}

func NewReturnStatement(value Expression, pos int) *ReturnStatement {
	return &ReturnStatement{nodeImpl: newNodeImpl(NodeReturnStatement, pos), Value: value}
}

type BlockStatement struct {
	nodeImpl
	statementMarker

	Body []Statement `json:"body"`
}

func NewBlockStatement(body []Statement, pos int) *BlockStatement {
	return &BlockStatement{nodeImpl: newNodeImpl(NodeBlockStatement, pos), Body: body}
}
