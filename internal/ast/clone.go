package ast

import "fmt"

// CloneExpr deep-copies an expression tree. Locations are shared, not
// copied: clones report at the same source position as the original.
// Variable references keep pointing at the same declaration.
func CloneExpr(e Expr) Expr {
	switch e := e.(type) {
	case *VarRef:
		return &VarRef{Fl: e.Fl, Target: e.Target, Access: e.Access}
	case *Sel:
		return &Sel{Fl: e.Fl, From: CloneExpr(e.From), Lsb: e.Lsb, Width: e.Width}
	case *ArraySel:
		return &ArraySel{Fl: e.Fl, From: CloneExpr(e.From), Index: e.Index}
	case *StructSel:
		return &StructSel{Fl: e.Fl, From: CloneExpr(e.From), Member: e.Member, DType: e.DType}
	case *Add:
		return &Add{Fl: e.Fl, L: CloneExpr(e.L), R: CloneExpr(e.R)}
	case *Const:
		return &Const{Fl: e.Fl, Width: e.Width, Value: e.Value}
	case nil:
		return nil
	}
	panic(fmt.Sprintf("ast: clone of unhandled expression %T", e))
}
