package ast

import "testing"

func TestBasicDTypeWidth(t *testing.T) {
	tests := []struct {
		name     string
		dtype    *BasicDType
		expected int
	}{
		{
			name:     "scalar",
			dtype:    &BasicDType{},
			expected: 1,
		},
		{
			name:     "four bit vector",
			dtype:    &BasicDType{Ranged: true, Hi: 3, Lo: 0},
			expected: 4,
		},
		{
			name:     "non zero lsb",
			dtype:    &BasicDType{Ranged: true, Hi: 7, Lo: 4},
			expected: 4,
		},
		{
			name:     "uint32 helper",
			dtype:    UInt32(At("m.v", 1)),
			expected: 32,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dtype.Width(); got != tt.expected {
				t.Errorf("expected width %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestStructDTypeLayout(t *testing.T) {
	fl := At("m.v", 1)
	// struct packed { logic [1:0] a; logic [2:0] b; }
	st := NewStructDType(fl, true,
		&Member{Fl: fl, Name: "a", DType: &BasicDType{Fl: fl, Ranged: true, Hi: 1, Lo: 0}},
		&Member{Fl: fl, Name: "b", DType: &BasicDType{Fl: fl, Ranged: true, Hi: 2, Lo: 0}},
	)

	if got := st.Width(); got != 5 {
		t.Errorf("expected width 5, got %d", got)
	}
	// Last declared member sits at bit zero.
	if got := st.Members[1].LSB; got != 0 {
		t.Errorf("expected b at lsb 0, got %d", got)
	}
	if got := st.Members[0].LSB; got != 3 {
		t.Errorf("expected a at lsb 3, got %d", got)
	}
}

func TestUnionWidthIsWidestMember(t *testing.T) {
	fl := At("m.v", 1)
	un := &UnionDType{
		Fl:     fl,
		Packed: true,
		Members: []*Member{
			{Fl: fl, Name: "narrow", DType: &BasicDType{Fl: fl, Ranged: true, Hi: 1, Lo: 0}},
			{Fl: fl, Name: "wide", DType: &BasicDType{Fl: fl, Ranged: true, Hi: 7, Lo: 0}},
		},
	}

	if got := un.Width(); got != 8 {
		t.Errorf("expected width 8, got %d", got)
	}
}

func TestSkipRef(t *testing.T) {
	fl := At("m.v", 1)
	base := &BasicDType{Fl: fl, Ranged: true, Hi: 3, Lo: 0}
	ref := &RefDType{Fl: fl, Name: "word_t", To: &RefDType{Fl: fl, Name: "inner_t", To: base}}

	if got := SkipRef(ref); got != DType(base) {
		t.Errorf("expected ref chain to resolve to base type, got %T", got)
	}
	if got := SkipRef(base); got != DType(base) {
		t.Errorf("expected non-ref type unchanged, got %T", got)
	}
}

func TestUnpackedElements(t *testing.T) {
	fl := At("m.v", 1)
	bit := &BasicDType{Fl: fl}

	tests := []struct {
		name     string
		dtype    DType
		expected int
	}{
		{
			name:     "scalar",
			dtype:    bit,
			expected: 1,
		},
		{
			name:     "one dimension",
			dtype:    &UnpackArrayDType{Fl: fl, Elem: bit, Lo: 0, Hi: 3},
			expected: 4,
		},
		{
			name: "nested dimensions",
			dtype: &UnpackArrayDType{
				Fl:   fl,
				Elem: &UnpackArrayDType{Fl: fl, Elem: bit, Lo: 0, Hi: 1},
				Lo:   2,
				Hi:   4,
			},
			expected: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnpackedElements(tt.dtype); got != tt.expected {
				t.Errorf("expected %d elements, got %d", tt.expected, got)
			}
		})
	}
}

func TestPackArrayWidth(t *testing.T) {
	fl := At("m.v", 1)
	pa := &PackArrayDType{
		Fl:   fl,
		Elem: &BasicDType{Fl: fl, Ranged: true, Hi: 7, Lo: 0},
		Lo:   0,
		Hi:   2,
	}

	if got := pa.Width(); got != 24 {
		t.Errorf("expected width 24, got %d", got)
	}
	if got := pa.Elements(); got != 3 {
		t.Errorf("expected 3 elements, got %d", got)
	}
}
