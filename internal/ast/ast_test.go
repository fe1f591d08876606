package ast

import "testing"

func TestFileLineCopyIsIndependent(t *testing.T) {
	orig := NewFileLine("top.v", 10, 12)
	orig.WarnOff(WarnUnusedSignal)

	cp := orig.Copy()
	cp.CoverageOn = false

	if !orig.CoverageOn {
		t.Error("expected copy not to affect original coverage flag")
	}
	if !cp.WarnIsOff(WarnUnusedSignal) {
		t.Error("expected copy to inherit disabled warnings")
	}

	cp2 := orig.Copy()
	cp2.warnsOff = nil
	if !orig.WarnIsOff(WarnUnusedSignal) {
		t.Error("expected warning map to be deep copied")
	}
}

func TestBasenameNoExt(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		expected string
	}{
		{
			name:     "plain file",
			filename: "alu.v",
			expected: "alu",
		},
		{
			name:     "nested path",
			filename: "rtl/core/decode.sv",
			expected: "decode",
		},
		{
			name:     "no extension",
			filename: "Makefile",
			expected: "Makefile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fl := At(tt.filename, 1)
			if got := fl.BasenameNoExt(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestPrettyNames(t *testing.T) {
	mod := &Module{Fl: At("top.v", 1), Name: "top__DOT__sub"}
	if got := mod.PrettyName(); got != "top.sub" {
		t.Errorf("expected top.sub, got %q", got)
	}

	v := &Var{Fl: At("top.v", 2), Name: "u1__DOT__sig", Kind: VarReg}
	if got := v.PrettyName(); got != "u1.sig" {
		t.Errorf("expected u1.sig, got %q", got)
	}
}

func TestVarToggleCoverable(t *testing.T) {
	tests := []struct {
		name     string
		kind     VarKind
		expected bool
	}{
		{name: "wire", kind: VarWire, expected: true},
		{name: "reg", kind: VarReg, expected: true},
		{name: "integer", kind: VarInteger, expected: true},
		{name: "input port", kind: VarPortIn, expected: true},
		{name: "output port", kind: VarPortOut, expected: true},
		{name: "inout port", kind: VarPortInout, expected: true},
		{name: "parameter", kind: VarParam, expected: false},
		{name: "genvar", kind: VarGenvar, expected: false},
		{name: "module temp", kind: VarModuleTemp, expected: false},
		{name: "block temp", kind: VarBlockTemp, expected: false},
		{name: "event", kind: VarEvent, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Var{Fl: At("m.v", 1), Name: "x", Kind: tt.kind, DType: &BasicDType{}}
			if got := v.IsToggleCoverable(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCloneExpr(t *testing.T) {
	fl := At("m.v", 5)
	target := &Var{Fl: fl, Name: "sig", Kind: VarReg, DType: &BasicDType{Fl: fl, Ranged: true, Hi: 3, Lo: 0}}

	orig := &Sel{
		Fl:    fl,
		From:  &VarRef{Fl: fl, Target: target, Access: Read},
		Lsb:   2,
		Width: 1,
	}

	clone := CloneExpr(orig).(*Sel)
	if clone == orig {
		t.Fatal("expected a new node, got the original")
	}
	if clone.From == orig.From {
		t.Error("expected nested expression to be cloned")
	}
	if clone.From.(*VarRef).Target != target {
		t.Error("expected clone to reference the same declaration")
	}
	if clone.Fl != fl {
		t.Error("expected clone to share the original location")
	}

	clone.Lsb = 0
	if orig.Lsb != 2 {
		t.Error("expected writes to the clone not to affect the original")
	}
}

func TestCloneExprStructSel(t *testing.T) {
	fl := At("m.v", 9)
	member := &BasicDType{Fl: fl, Ranged: true, Hi: 1, Lo: 0}
	target := &Var{Fl: fl, Name: "s", Kind: VarReg}

	orig := &StructSel{
		Fl:     fl,
		From:   &VarRef{Fl: fl, Target: target, Access: Read},
		Member: "a",
		DType:  member,
	}

	clone := CloneExpr(orig).(*StructSel)
	if clone.Member != "a" || clone.DType != DType(member) {
		t.Errorf("expected member selection preserved, got %q %T", clone.Member, clone.DType)
	}
	if clone.From == orig.From {
		t.Error("expected base expression to be cloned")
	}
}
