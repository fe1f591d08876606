// Package coverage implements the instrumentation pass that rewrites an
// elaborated netlist with line, branch, toggle and user coverage points.
//
// The pass is a single depth-first walk. At each if, case item and
// procedure it decides whether the enclosing block still wants coverage,
// tracks which source lines the block touches, and attaches descriptor
// and increment nodes: descriptors always land on the module, increments
// land where the sample must fire.
package coverage

import (
	"fmt"

	"github.com/tinwren/hdlcov/internal/ast"
	"github.com/tinwren/hdlcov/internal/log"
)

// DefaultMaxWidth caps width x unpacked-elements for toggle eligibility.
const DefaultMaxWidth = 256

// Options selects which coverage families are instrumented.
type Options struct {
	Line   bool
	Toggle bool
	User   bool
	// Underscore also covers signals whose names begin with an
	// underscore, which are skipped by default.
	Underscore bool
	// MaxWidth is the largest width x element-count a signal may have
	// and still receive toggle points. Zero means DefaultMaxWidth.
	MaxWidth int
	// TraceCoverage additionally synthesizes a traced counter variable
	// per line/branch/user increment.
	TraceCoverage bool
}

// checkState is saved on entry and restored on exit of every coverage
// scope. Arms of one if get separate handles for the same node, so the
// handle cannot live on the node itself.
type checkState struct {
	on       bool     // block wants coverage; cleared by off-pragmas
	stopped  bool     // terminator seen; suppresses tracking from there on
	inModOff bool     // module itself opts out (synthesized top shell)
	handle   int      // index into tracked line sets
	node     ast.Node // node establishing this scope's home file
}

type instrumenter struct {
	opts Options
	log  log.Logger

	state       checkState
	nextHandle  int
	modp        *ast.Module
	inToggleOff bool   // inside function/task/procedure or sub-block
	beginHier   string // dotted named-begin hierarchy for user points

	varNames    map[string]int           // inserted variable name uniquification
	handleLines map[int]map[int]struct{} // line numbers seen per handle
	ifMarked    map[*ast.If]bool         // if continues an elsif chain

	// Module items created during the walk, spliced in afterwards so
	// the walk never iterates its own insertions.
	added []ast.Stmt
}

func (in *instrumenter) addModStmt(s ast.Stmt) {
	in.added = append(in.added, s)
}

// Instrument attaches coverage instrumentation to every module of the
// netlist, mutating it in place.
func Instrument(root *ast.Netlist, opts Options, logger log.Logger) {
	if opts.MaxWidth == 0 {
		opts.MaxWidth = DefaultMaxWidth
	}
	if logger == nil {
		logger = log.Default()
	}
	in := &instrumenter{opts: opts, log: logger}
	for _, mod := range root.Modules {
		in.visitModule(mod)
	}
}

// createHandle starts tracking lines for the given scope node.
func (in *instrumenter) createHandle(n ast.Node) {
	in.nextHandle++
	in.state.handle = in.nextHandle
	in.state.node = n
}

func (in *instrumenter) lineCoverageOn(s *checkState, n ast.Node) bool {
	return in.opts.Line && s.on && !s.stopped && !s.inModOff && n.Loc().CoverageOn
}

func (in *instrumenter) visitModule(mod *ast.Module) {
	// No blocks cross modules: tracked lines, inserted names and handle
	// numbering all start over.
	in.nextHandle = 0
	in.varNames = make(map[string]int)
	in.handleLines = make(map[int]map[int]struct{})
	in.ifMarked = make(map[*ast.If]bool)
	in.modp = mod
	in.added = nil
	in.beginHier = ""
	in.inToggleOff = false

	// The top module is a shell wrapped around the design; covering it
	// would double-count everything inside.
	in.state = checkState{on: true, inModOff: mod.Top}
	in.createHandle(mod)
	in.visitStmts(&mod.Stmts)
	mod.Stmts = append(mod.Stmts, in.added...)
}

// visitStmts walks one statement list, dropping coverage-off pragmas as
// it rebuilds the list. Nodes the walk itself appends to the module are
// not revisited.
func (in *instrumenter) visitStmts(stmts *[]ast.Stmt) {
	src := *stmts
	out := make([]ast.Stmt, 0, len(src))
	for _, s := range src {
		if p, ok := s.(*ast.Pragma); ok && p.Kind == ast.PragmaCoverageOff {
			// Skip all following nodes in this block, and this
			// if/case branch.
			in.state.on = false
			continue
		}
		in.visitStmt(s)
		out = append(out, s)
	}
	*stmts = out
}

func (in *instrumenter) visitStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Procedure:
		in.iterateProcedure(s)
	case *ast.While:
		in.iterateProcedure(s)
	case *ast.TaskFunc:
		// Foreign bodies live outside the design; nothing to cover.
		if !s.Foreign {
			in.iterateProcedure(s)
		}
	case *ast.If:
		in.visitIf(s)
	case *ast.Case:
		in.visitExpr(s.Expr)
		for _, item := range s.Items {
			in.visitCaseItem(item)
		}
		in.lineTrack(s)
	case *ast.Cover:
		in.visitCover(s)
	case *ast.Begin:
		in.visitBegin(s)
	case *ast.Stop:
		// The terminator itself still counts as reachable; only what
		// follows it is suppressed.
		in.lineTrack(s)
		in.state.stopped = true
	case *ast.Var:
		in.visitVar(s)
	case *ast.Assign:
		in.visitExpr(s.LHS)
		in.visitExpr(s.RHS)
		in.lineTrack(s)
	default:
		in.lineTrack(s)
	}
}

// iterateProcedure covers the body of an always/initial/final block, a
// loop or a task/function as one line-coverage block.
func (in *instrumenter) iterateProcedure(n ast.Node) {
	savedState, savedToggle := in.state, in.inToggleOff
	defer func() { in.state, in.inToggleOff = savedState, savedToggle }()

	var body *[]ast.Stmt
	var cond ast.Expr
	switch n := n.(type) {
	case *ast.Procedure:
		body = &n.Stmts
	case *ast.TaskFunc:
		body = &n.Stmts
	case *ast.While:
		body, cond = &n.Stmts, n.Cond
	default:
		panic(fmt.Sprintf("coverage: unexpected procedure node %T", n))
	}

	in.inToggleOff = true
	in.createHandle(n)
	entryOn := in.lineCoverageOn(&in.state, n)
	in.lineTrack(n)
	in.visitExpr(cond)
	in.visitStmts(body)
	// A terminator inside the body keeps the block descriptor (the
	// lines up to it were reachable); an off-pragma discards it.
	if entryOn && in.state.on {
		incs := in.newCoverInc(n.Loc(), "", "v_line", "block",
			in.linesCov(in.state), 0, in.traceNameForLine(n, "block"))
		*body = append(*body, incs...)
	}
}

func (in *instrumenter) visitIf(n *ast.If) {
	// An else arm holding exactly one nested if continues an elsif
	// chain; mark the nested if before descending so it knows.
	elsif := len(n.Then) > 0 && len(n.Else) == 1 && isIf(n.Else[0])
	if elsif {
		in.ifMarked[n.Else[0].(*ast.If)] = true
	}
	firstElsif := !in.ifMarked[n] && elsif
	contElsif := in.ifMarked[n] && elsif
	finalElsif := in.ifMarked[n] && !elsif && len(n.Else) > 0

	// The condition always executes, so it belongs to neither arm.
	lastState := in.state

	in.createHandle(n)
	in.visitStmts(&n.Then)
	ifState := in.state

	in.state = lastState
	in.createHandle(n)
	in.visitStmts(&n.Else)
	elseState := in.state

	in.state = lastState

	switch {
	case !firstElsif && !contElsif && !finalElsif &&
		in.lineCoverageOn(&ifState, n) && in.lineCoverageOn(&elseState, n):
		// Both legs live: branch coverage. The else leg reports
		// column offset 1 so both points share the if's line without
		// colliding.
		thenIncs := in.newCoverInc(n.Fl, "", "v_branch", "if",
			in.linesCov(ifState), 0, in.traceNameForLine(n, "if"))
		n.Then = append(thenIncs, n.Then...)
		elseIncs := in.newCoverInc(n.Fl, "", "v_branch", "else",
			in.linesCov(elseState), 1, in.traceNameForLine(n, "else"))
		n.Else = append(elseIncs, n.Else...)
	case firstElsif || contElsif:
		if in.lineCoverageOn(&ifState, n) {
			incs := in.newCoverInc(n.Fl, "", "v_line", "elsif",
				in.linesCov(ifState), 0, in.traceNameForLine(n, "elsif"))
			n.Then = append(n.Then, incs...)
		}
		// The nested if emits into the else arm itself.
	default:
		// Not two-legged; cover each live arm as its own block.
		if in.lineCoverageOn(&ifState, n) {
			comment := "if"
			if finalElsif {
				comment = "elsif"
			}
			incs := in.newCoverInc(n.Fl, "", "v_line", comment,
				in.linesCov(ifState), 0, in.traceNameForLine(n, comment))
			n.Then = append(n.Then, incs...)
		}
		if in.lineCoverageOn(&elseState, n) {
			incs := in.newCoverInc(n.Fl, "", "v_line", "else",
				in.linesCov(elseState), 1, in.traceNameForLine(n, "else"))
			n.Else = append(n.Else, incs...)
		}
	}
}

func isIf(s ast.Stmt) bool {
	_, ok := s.(*ast.If)
	return ok
}

func (in *instrumenter) visitCaseItem(item *ast.CaseItem) {
	// No synthetic default coverage when the user wrote none; the
	// missing-default lint already reports that.
	savedState := in.state
	defer func() { in.state = savedState }()

	in.createHandle(item)
	in.visitStmts(&item.Stmts)
	if in.lineCoverageOn(&in.state, item) { // the body didn't disable it
		in.lineTrack(item)
		incs := in.newCoverInc(item.Fl, "", "v_line", "case",
			in.linesCov(in.state), 0, in.traceNameForLine(item, "case"))
		item.Stmts = append(item.Stmts, incs...)
	}
}

func (in *instrumenter) visitCover(n *ast.Cover) {
	savedState := in.state
	defer func() { in.state = savedState }()

	// User cover points fire even after a terminator or inside an
	// off-pragma region.
	in.state.on = true
	in.state.stopped = false
	in.createHandle(n)
	in.visitExpr(n.Cond)
	in.visitStmts(&n.Stmts)
	if len(n.Incs) == 0 && in.opts.User {
		in.lineTrack(n)
		incs := in.newCoverInc(n.Fl, in.beginHier, "v_user", "cover",
			in.linesCov(in.state), 0, in.beginHier+"_vlCoverageUserTrace")
		n.Incs = append(n.Incs, incs...)
	}
}

func (in *instrumenter) visitBegin(n *ast.Begin) {
	// Named begins record the hierarchy so user points inside generate
	// blocks get separate consideration per iteration. Line coverage
	// ignores the name: inside a begin it is still the same block, so
	// the state is not reset.
	savedHier, savedToggle := in.beginHier, in.inToggleOff
	defer func() { in.beginHier, in.inToggleOff = savedHier, savedToggle }()

	in.inToggleOff = true
	if n.Name != "" {
		if in.beginHier != "" {
			in.beginHier += "."
		}
		in.beginHier += n.Name
	}
	in.visitStmts(&n.Stmts)
	in.lineTrack(n)
}

func (in *instrumenter) visitExpr(e ast.Expr) {
	if e == nil {
		return
	}
	switch e := e.(type) {
	case *ast.Sel:
		in.visitExpr(e.From)
	case *ast.ArraySel:
		in.visitExpr(e.From)
	case *ast.StructSel:
		in.visitExpr(e.From)
	case *ast.Add:
		in.visitExpr(e.L)
		in.visitExpr(e.R)
	}
	in.lineTrack(e)
}
