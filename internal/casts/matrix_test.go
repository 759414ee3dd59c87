package casts

import (
	"testing"

	"github.com/arkilian/typecast/pkg/types"
)

func TestMatrix(t *testing.T) {
	list := []types.LogicalType{
		types.NewSmallIntType(),
		types.NewBigIntType(),
		types.NewStringType(),
	}
	m := Matrix(list)
	if len(m) != 3 || len(m[0]) != 3 {
		t.Fatalf("matrix shape = %dx%d, want 3x3", len(m), len(m[0]))
	}
	for i := range list {
		if !m[i][i].Implicit {
			t.Errorf("diagonal entry %d must be implicit", i)
		}
	}
	if !m[0][1].Implicit || m[1][0].Implicit || !m[1][0].Explicit {
		t.Errorf("SMALLINT/BIGINT entries wrong: %+v %+v", m[0][1], m[1][0])
	}
	if m[0][2].Implicit || !m[0][2].Explicit {
		t.Errorf("SMALLINT -> STRING = %+v, want explicit only", m[0][2])
	}
}

func TestMatrixWith(t *testing.T) {
	calls := 0
	counting := func(s, t types.LogicalType) Decision {
		calls++
		return Resolve(s, t)
	}
	MatrixWith(counting, []types.LogicalType{types.NewIntType(), types.NewDoubleType()})
	if calls != 4 {
		t.Errorf("resolver called %d times, want 4", calls)
	}
}

func TestCommonAssignable(t *testing.T) {
	tests := []struct {
		name  string
		input []types.LogicalType
		want  types.LogicalType
		ok    bool
	}{
		{"widest integer", []types.LogicalType{types.NewIntType(), types.NewBigIntType(), types.NewTinyIntType()}, types.NewBigIntType(), true},
		{"nullable wins", []types.LogicalType{types.NotNull(types.NewIntType()), types.NewIntType()}, types.NewIntType(), true},
		{"null literal", []types.LogicalType{types.NewNullType(), types.NewDoubleType()}, types.NewDoubleType(), true},
		{"no common type", []types.LogicalType{types.NewIntType(), types.NewStringType()}, nil, false},
		{"empty", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CommonAssignable(tt.input...)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !types.Equal(got, tt.want) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
