package ast

import "strings"

// Node is implemented by every element of the netlist tree.
type Node interface {
	Loc() *FileLine
}

// Stmt is a node that can appear in a statement list.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is a value-producing node.
type Expr interface {
	Node
	exprNode()
}

// Netlist is the root of an elaborated design.
type Netlist struct {
	Fl      *FileLine
	Modules []*Module
}

func (n *Netlist) Loc() *FileLine { return n.Fl }

// Module is one elaborated module (or class) instance shape. Top marks the
// synthesized top-level shell, which opts out of line and branch coverage.
type Module struct {
	Fl    *FileLine
	Name  string
	Top   bool
	Class bool
	Stmts []Stmt
}

func (n *Module) Loc() *FileLine { return n.Fl }

// AddStmt appends a module item.
func (n *Module) AddStmt(s Stmt) { n.Stmts = append(n.Stmts, s) }

// PrettyName returns the user-facing module name, with inlining separators
// restored to dots. Parameterized specializations keep their suffix so each
// is reported separately.
func (n *Module) PrettyName() string {
	return strings.ReplaceAll(n.Name, "__DOT__", ".")
}

// ProcKind distinguishes procedural block flavors.
type ProcKind int

// Procedural block flavors.
const (
	ProcAlways ProcKind = iota
	ProcInitial
	ProcFinal
)

func (k ProcKind) String() string {
	switch k {
	case ProcAlways:
		return "always"
	case ProcInitial:
		return "initial"
	case ProcFinal:
		return "final"
	}
	return "proc?"
}

// Procedure is an always/initial/final block.
type Procedure struct {
	Fl    *FileLine
	Kind  ProcKind
	Stmts []Stmt
}

func (n *Procedure) Loc() *FileLine { return n.Fl }
func (n *Procedure) stmtNode()      {}

// While is a procedural loop.
type While struct {
	Fl    *FileLine
	Cond  Expr
	Stmts []Stmt
}

func (n *While) Loc() *FileLine { return n.Fl }
func (n *While) stmtNode()      {}

// TaskFunc is a task or function definition. Foreign marks DPI imports,
// whose bodies live outside the design.
type TaskFunc struct {
	Fl      *FileLine
	Name    string
	IsFunc  bool
	Foreign bool
	Stmts   []Stmt
}

func (n *TaskFunc) Loc() *FileLine { return n.Fl }
func (n *TaskFunc) stmtNode()      {}

// If is a two-armed conditional; either arm may be empty.
type If struct {
	Fl   *FileLine
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (n *If) Loc() *FileLine { return n.Fl }
func (n *If) stmtNode()      {}

// Case is a case statement over Expr.
type Case struct {
	Fl    *FileLine
	Expr  Expr
	Items []*CaseItem
}

func (n *Case) Loc() *FileLine { return n.Fl }
func (n *Case) stmtNode()      {}

// CaseItem is one labeled alternative of a case statement. An empty Conds
// slice is the default item.
type CaseItem struct {
	Fl    *FileLine
	Conds []Expr
	Stmts []Stmt
}

func (n *CaseItem) Loc() *FileLine { return n.Fl }

// Begin is a sub-block; named begins contribute to the dotted hierarchy of
// user coverage points.
type Begin struct {
	Fl    *FileLine
	Name  string
	Stmts []Stmt
}

func (n *Begin) Loc() *FileLine { return n.Fl }
func (n *Begin) stmtNode()      {}

// Cover is a user-written cover statement. Incs holds instrumentation
// increments attached by coverage passes.
type Cover struct {
	Fl    *FileLine
	Name  string
	Cond  Expr
	Stmts []Stmt
	Incs  []Stmt
}

func (n *Cover) Loc() *FileLine { return n.Fl }
func (n *Cover) stmtNode()      {}

// Stop is a $stop-like simulation terminator.
type Stop struct {
	Fl *FileLine
}

func (n *Stop) Loc() *FileLine { return n.Fl }
func (n *Stop) stmtNode()      {}

// PragmaKind enumerates source pragmas carried into the netlist.
type PragmaKind int

// Pragma kinds.
const (
	PragmaCoverageOff PragmaKind = iota
	PragmaPublic
	PragmaNoInline
)

// Pragma is a metacomment statement.
type Pragma struct {
	Fl   *FileLine
	Kind PragmaKind
}

func (n *Pragma) Loc() *FileLine { return n.Fl }
func (n *Pragma) stmtNode()      {}

// VarKind classifies variable declarations.
type VarKind int

// Variable kinds.
const (
	VarWire VarKind = iota
	VarReg
	VarInteger
	VarPortIn
	VarPortOut
	VarPortInout
	VarParam
	VarGenvar
	VarModuleTemp
	VarBlockTemp
	VarEvent
)

func (k VarKind) String() string {
	switch k {
	case VarWire:
		return "wire"
	case VarReg:
		return "reg"
	case VarInteger:
		return "integer"
	case VarPortIn:
		return "input"
	case VarPortOut:
		return "output"
	case VarPortInout:
		return "inout"
	case VarParam:
		return "param"
	case VarGenvar:
		return "genvar"
	case VarModuleTemp:
		return "modtemp"
	case VarBlockTemp:
		return "blocktemp"
	case VarEvent:
		return "event"
	}
	return "var?"
}

// Var is a variable or net declaration. Names of declarations inlined
// from a child module carry "__DOT__" separators; PrettyName restores the
// dots. Trace marks variables the waveform tracer should pick up.
type Var struct {
	Fl    *FileLine
	Name  string
	Kind  VarKind
	DType DType
	Trace bool
}

func (n *Var) Loc() *FileLine { return n.Fl }
func (n *Var) stmtNode()      {}

// PrettyName returns the user-facing signal name.
func (n *Var) PrettyName() string {
	return strings.ReplaceAll(n.Name, "__DOT__", ".")
}

// Width returns the packed bit width of the declared type.
func (n *Var) Width() int {
	if n.DType == nil {
		return 1
	}
	return SkipRef(n.DType).Width()
}

// IsToggleCoverable reports whether this kind of declaration carries a
// runtime value whose bit transitions are observable.
func (n *Var) IsToggleCoverable() bool {
	switch n.Kind {
	case VarWire, VarReg, VarInteger, VarPortIn, VarPortOut, VarPortInout:
		return true
	default:
		return false
	}
}

// Assign is a procedural or continuous assignment.
type Assign struct {
	Fl  *FileLine
	LHS Expr
	RHS Expr
}

func (n *Assign) Loc() *FileLine { return n.Fl }
func (n *Assign) stmtNode()      {}

// CoverDecl is the static descriptor of one coverage point: where samples
// land in the report (Page), what the point covers (Comment, LinesCov,
// Offset) and the named hierarchy for user points.
type CoverDecl struct {
	Fl       *FileLine
	Page     string
	Comment  string
	LinesCov string
	Offset   int
	Hier     string
}

func (n *CoverDecl) Loc() *FileLine { return n.Fl }
func (n *CoverDecl) stmtNode()      {}

// CoverInc bumps its declaration's counter when executed.
type CoverInc struct {
	Fl   *FileLine
	Decl *CoverDecl
}

func (n *CoverInc) Loc() *FileLine { return n.Fl }
func (n *CoverInc) stmtNode()      {}

// CoverToggle fires Inc whenever Value and Change differ; a later pass
// assembles the comparison and the shadow update.
type CoverToggle struct {
	Fl     *FileLine
	Inc    *CoverInc
	Value  Expr
	Change Expr
}

func (n *CoverToggle) Loc() *FileLine { return n.Fl }
func (n *CoverToggle) stmtNode()      {}

// Access distinguishes reads from writes at a variable reference.
type Access int

// Access directions.
const (
	Read Access = iota
	Write
)

// VarRef is a reference to a declared variable.
type VarRef struct {
	Fl     *FileLine
	Target *Var
	Access Access
}

func (n *VarRef) Loc() *FileLine { return n.Fl }
func (n *VarRef) exprNode()      {}

// Sel is a constant bit or part select: Width bits starting at Lsb.
type Sel struct {
	Fl    *FileLine
	From  Expr
	Lsb   int
	Width int
}

func (n *Sel) Loc() *FileLine { return n.Fl }
func (n *Sel) exprNode()      {}

// ArraySel selects one element of an unpacked array by constant index.
type ArraySel struct {
	Fl    *FileLine
	From  Expr
	Index int
}

func (n *ArraySel) Loc() *FileLine { return n.Fl }
func (n *ArraySel) exprNode()      {}

// StructSel selects a named member of an unpacked struct. DType carries the
// member's resolved type when known.
type StructSel struct {
	Fl     *FileLine
	From   Expr
	Member string
	DType  DType
}

func (n *StructSel) Loc() *FileLine { return n.Fl }
func (n *StructSel) exprNode()      {}

// Add is integer addition.
type Add struct {
	Fl *FileLine
	L  Expr
	R  Expr
}

func (n *Add) Loc() *FileLine { return n.Fl }
func (n *Add) exprNode()      {}

// Const is a sized constant.
type Const struct {
	Fl    *FileLine
	Width int
	Value uint64
}

func (n *Const) Loc() *FileLine { return n.Fl }
func (n *Const) exprNode()      {}
