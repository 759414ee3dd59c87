package casts

import "github.com/arkilian/typecast/pkg/types"

// Matrix evaluates every ordered pair of the given types. Row i holds the
// decisions with types[i] as the source.
func Matrix(list []types.LogicalType) [][]Decision {
	return MatrixWith(Resolve, list)
}

// MatrixWith is Matrix using the given resolver.
func MatrixWith(resolve ResolveFunc, list []types.LogicalType) [][]Decision {
	out := make([][]Decision, len(list))
	for i, source := range list {
		out[i] = make([]Decision, len(list))
		for j, target := range list {
			out[i][j] = resolve(source, target)
		}
	}
	return out
}

// CommonAssignable returns the first of the given types that every other
// input implicitly casts to, as required for the columns of a UNION or
// INTERSECT. It only picks among the inputs and never widens beyond them.
func CommonAssignable(list ...types.LogicalType) (types.LogicalType, bool) {
	for _, candidate := range list {
		ok := true
		for _, other := range list {
			if !SupportsImplicitCast(other, candidate) {
				ok = false
				break
			}
		}
		if ok {
			return candidate, true
		}
	}
	return nil, false
}
