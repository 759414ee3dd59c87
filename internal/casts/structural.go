package casts

import "github.com/arkilian/typecast/pkg/types"

// supportsStructuralCasting compares two composite types by shape. The roots
// must match, except that ROW and STRUCTURED types are interchangeable.
// Children are compared by position only; field names, descriptions and
// structured identifiers are never looked at.
func supportsStructuralCasting(source, target types.LogicalType, allowExplicit bool) bool {
	if !compatibleConstructedRoots(source.Root(), target.Root()) {
		return false
	}
	return compareChildren(source.Children(), target.Children(), func(s, t types.LogicalType) bool {
		ok, _ := supportsCasting(s, t, allowExplicit)
		return ok
	})
}

func compatibleConstructedRoots(source, target types.TypeRoot) bool {
	if source == target {
		return true
	}
	return isRowLike(source) && isRowLike(target)
}

func isRowLike(r types.TypeRoot) bool {
	return r == types.RootRow || r == types.RootStructured
}

// compareChildren reports whether the lists have equal length and every
// positional pair satisfies pred. It stops at the first failure.
func compareChildren(source, target []types.LogicalType, pred func(s, t types.LogicalType) bool) bool {
	if len(source) != len(target) {
		return false
	}
	for i := range source {
		if !pred(source[i], target[i]) {
			return false
		}
	}
	return true
}
