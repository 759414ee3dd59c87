// Package casts decides whether a value of one logical type can be converted
// to another, either implicitly (silently, during assignment or expression
// evaluation) or explicitly (through a user-written CAST).
//
// Implicit casts are safe widenings that never lose information. Every
// implicit cast is also a valid explicit cast. The decision is a pure
// function of the two types: it never errors and holds no state.
package casts

import (
	"github.com/arkilian/typecast/pkg/types"
)

// Rule names the step of the decision procedure that produced a verdict.
type Rule string

const (
	RuleNullLiteral     Rule = "null-literal"
	RuleNullability     Rule = "nullability"
	RuleIdentity        Rule = "identity"
	RuleIntervalNumeric Rule = "interval-numeric"
	RuleStructural      Rule = "structural"
	RuleCompositeScalar Rule = "composite-scalar"
	RuleRawToBinary     Rule = "raw-to-binary"
	RuleRaw             Rule = "raw"
	RuleRootTable       Rule = "root-table"
	RuleUncovered       Rule = "uncovered"
)

// Decision holds both verdicts for one ordered pair of types. Rule is the
// step that decided the explicit verdict and ImplicitRule the step that
// decided the implicit one.
type Decision struct {
	Implicit     bool
	Explicit     bool
	Rule         Rule
	ImplicitRule Rule
}

// ResolveFunc computes a Decision. Resolve satisfies it; caches wrap it.
type ResolveFunc func(source, target types.LogicalType) Decision

// SupportsImplicitCast reports whether source can be cast to target without
// an explicit CAST. Nested nullability, field names and structured type
// identifiers are handled as described in Resolve.
func SupportsImplicitCast(source, target types.LogicalType) bool {
	ok, _ := supportsCasting(source, target, false)
	return ok
}

// SupportsExplicitCast reports whether source can be cast to target with an
// explicit CAST. It is true whenever SupportsImplicitCast is.
func SupportsExplicitCast(source, target types.LogicalType) bool {
	ok, _ := supportsCasting(source, target, true)
	return ok
}

// Resolve evaluates both cast kinds for the pair.
func Resolve(source, target types.LogicalType) Decision {
	implicit, implicitRule := supportsCasting(source, target, false)
	explicit, rule := supportsCasting(source, target, true)
	return Decision{
		Implicit:     implicit,
		Explicit:     explicit,
		Rule:         rule,
		ImplicitRule: implicitRule,
	}
}

// supportsCasting is the decision procedure shared by both kinds. The first
// step that applies decides the verdict.
func supportsCasting(source, target types.LogicalType, allowExplicit bool) (bool, Rule) {
	if source == nil || target == nil {
		return false, RuleUncovered
	}
	sourceRoot, targetRoot := source.Root(), target.Root()

	// the untyped NULL literal fits anywhere
	if sourceRoot == types.RootNull {
		return true, RuleNullLiteral
	}

	if source.IsNullable() && !target.IsNullable() && !allowExplicit {
		return false, RuleNullability
	}

	if types.EqualIgnoringNullability(source, target) {
		return true, RuleIdentity
	}

	if isIntervalNumericPair(sourceRoot, targetRoot) {
		interval := source
		if targetRoot.In(types.GroupInterval) {
			interval = target
		}
		return types.IsSingleFieldInterval(interval), RuleIntervalNumeric
	}

	sourceComposite := types.Classify(source).IsComposite()
	targetComposite := types.Classify(target).IsComposite()
	switch {
	case sourceComposite && targetComposite:
		return supportsStructuralCasting(source, target, allowExplicit), RuleStructural
	case sourceComposite || targetComposite:
		return false, RuleCompositeScalar
	}

	if sourceRoot == types.RootRaw {
		if allowExplicit && targetRoot.In(types.GroupBinaryString) {
			return true, RuleRawToBinary
		}
		return false, RuleRaw
	}
	if targetRoot == types.RootRaw {
		return false, RuleRaw
	}

	if lookupRule(sourceRoot, targetRoot, allowExplicit) {
		return true, RuleRootTable
	}
	return false, RuleUncovered
}

func isIntervalNumericPair(source, target types.TypeRoot) bool {
	return (source.In(types.GroupInterval) && target.In(types.GroupExactNumeric)) ||
		(source.In(types.GroupExactNumeric) && target.In(types.GroupInterval))
}
