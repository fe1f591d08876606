package coverage

import (
	"github.com/tinwren/hdlcov/internal/ast"
	m "github.com/tinwren/hdlcov/internal/model"
)

// Collect flattens every coverage descriptor in the netlist into its
// report-facing form, in module and then declaration order.
func Collect(root *ast.Netlist) []m.Point {
	var points []m.Point
	for _, mod := range root.Modules {
		for _, s := range mod.Stmts {
			decl, ok := s.(*ast.CoverDecl)
			if !ok {
				continue
			}
			points = append(points, m.Point{
				Module:   mod.PrettyName(),
				Filename: decl.Fl.Filename,
				Lineno:   decl.Fl.FirstLine,
				Page:     decl.Page,
				Comment:  decl.Comment,
				LinesCov: decl.LinesCov,
				Offset:   decl.Offset,
				Hier:     decl.Hier,
			})
		}
	}
	return points
}
