package coverage

import (
	"strconv"

	"github.com/tinwren/hdlcov/internal/ast"
)

// newCoverIncNode builds one descriptor plus its increment. The
// descriptor becomes a child of the current module; the increment is
// returned for the caller to place.
func (in *instrumenter) newCoverIncNode(fl *ast.FileLine, hier, pagePrefix, comment, linescov string, offset int) *ast.CoverInc {
	// Points are paged under the module using them, not under the file
	// they came from, so include-file code lands where it is used.
	// Parameterized specializations keep their name suffix, which lets
	// each one be counted separately.
	page := pagePrefix + "/" + in.modp.PrettyName()

	decl := &ast.CoverDecl{
		Fl:       fl,
		Page:     page,
		Comment:  comment,
		LinesCov: linescov,
		Offset:   offset,
		Hier:     hier,
	}
	in.addModStmt(decl)
	in.log.Debug("new coverage point", "page", page, "comment", comment, "lines", linescov)

	return &ast.CoverInc{Fl: fl, Decl: decl}
}

// newCoverInc builds a descriptor and increment, and when trace-coverage
// applies, a traced 32-bit counter whose update travels right behind the
// increment.
func (in *instrumenter) newCoverInc(fl *ast.FileLine, hier, pagePrefix, comment, linescov string, offset int, traceVarName string) []ast.Stmt {
	inc := in.newCoverIncNode(fl, hier, pagePrefix, comment, linescov, offset)
	stmts := []ast.Stmt{inc}

	// Classes have no module handle to trace against.
	if traceVarName != "" && in.opts.TraceCoverage && !in.modp.Class {
		flNowarn := inc.Fl.Copy()
		flNowarn.WarnOff(ast.WarnUnusedSignal)
		varp := &ast.Var{
			Fl:    flNowarn,
			Name:  traceVarName,
			Kind:  ast.VarModuleTemp,
			DType: ast.UInt32(flNowarn),
			Trace: true,
		}
		in.addModStmt(varp)
		stmts = append(stmts, &ast.Assign{
			Fl:  inc.Fl,
			LHS: &ast.VarRef{Fl: inc.Fl, Target: varp, Access: ast.Write},
			RHS: &ast.Add{
				Fl: inc.Fl,
				L:  &ast.VarRef{Fl: inc.Fl, Target: varp, Access: ast.Read},
				R:  &ast.Const{Fl: inc.Fl, Width: 32, Value: 1},
			},
		})
	}
	return stmts
}

// traceNameForLine derives a per-file, per-line, per-kind counter name,
// suffixed on repeats within the module.
func (in *instrumenter) traceNameForLine(n ast.Node, typ string) string {
	name := "vlCoverageLineTrace_" + n.Loc().BasenameNoExt() +
		"__" + strconv.Itoa(n.Loc().FirstLine) + "_" + typ
	suffix := in.varNames[name]
	in.varNames[name]++
	if suffix != 0 {
		name += "_" + strconv.Itoa(suffix)
	}
	return name
}
