package ast

// Definitions and program structure.

// Section is one top-level unit of a program: a statement list, a class
// definition, or a function definition, in source order.
type Section interface {
	Node
	sectionNode()
}

type sectionMarker struct{}

func (sectionMarker) sectionNode() {}

// Program is the parse tree for one compilation unit.
type Program struct {
	nodeImpl

	Sections []Section `json:"sections"`
}

func NewProgram(sections []Section, pos int) *Program {
	return &Program{nodeImpl: newNodeImpl(NodeProgram, pos), Sections: sections}
}

// StmtList is a run of top-level statements between definitions.
type StmtList struct {
	nodeImpl
	sectionMarker

	Stmts []Statement `json:"stmts"`
}

func NewStmtList(stmts []Statement, pos int) *StmtList {
	return &StmtList{nodeImpl: newNodeImpl(NodeStmtList, pos), Stmts: stmts}
}

// Arg is one formal parameter of a function definition.
type Arg struct {
	nodeImpl

	TypeName   string `json:"typeName"`
	Name       string `json:"name"`
	ArrayDepth int    `json:"arrayDepth,omitempty"`
}

func NewArg(typeName, name string, arrayDepth int, pos int) *Arg {
	return &Arg{nodeImpl: newNodeImpl(NodeArg, pos), TypeName: typeName, Name: name, ArrayDepth: arrayDepth}
}

// FuncDef defines a function, at the top level or inside a class body.
type FuncDef struct {
	nodeImpl
	sectionMarker
	statementMarker

	Name     string          `json:"name"`
	RetType  string          `json:"retType"`
	Args     []*Arg          `json:"args"`
	Body     *BlockStatement `json:"body,omitempty"`
	IsStatic bool            `json:"isStatic,omitempty"`
}

func NewFuncDef(name, retType string, args []*Arg, body *BlockStatement, pos int) *FuncDef {
	return &FuncDef{nodeImpl: newNodeImpl(NodeFuncDef, pos), Name: name, RetType: retType, Args: args, Body: body}
}

// ClassDef defines a class. Body holds member declaration statements and
// method FuncDefs in source order. Parent is empty when the class extends
// the root object type implicitly.
type ClassDef struct {
	nodeImpl
	sectionMarker

	Name     string      `json:"name"`
	Parent   string      `json:"parent,omitempty"`
	IsPublic bool        `json:"isPublic,omitempty"`
	Body     []Statement `json:"body"`
}

func NewClassDef(name, parent string, body []Statement, pos int) *ClassDef {
	return &ClassDef{nodeImpl: newNodeImpl(NodeClassDef, pos), Name: name, Parent: parent, Body: body}
}
