package casts

import (
	"fmt"

	"github.com/arkilian/typecast/pkg/types"
)

// rootSet is a bitset of type roots.
type rootSet uint64

func (s rootSet) has(r types.TypeRoot) bool { return s&(1<<uint(r)) != 0 }

// castingRule lists the sources a target root accepts. Sources are named
// either by root or by group; explicit sources always include the implicit
// ones.
type castingRule struct {
	implicitRoots  rootSet
	implicitGroups types.Group
	explicitRoots  rootSet
	explicitGroups types.Group
}

func (r *castingRule) allowsImplicit(source types.TypeRoot) bool {
	return r.implicitRoots.has(source) || source.In(r.implicitGroups)
}

func (r *castingRule) allowsExplicit(source types.TypeRoot) bool {
	return r.allowsImplicit(source) || r.explicitRoots.has(source) || source.In(r.explicitGroups)
}

// castingRules is indexed by target root. A nil entry means no source may be
// cast to that root through the tables. Read-only after init.
var castingRules [len(allRoots)]*castingRule

var allRoots = [...]types.TypeRoot{
	types.RootChar, types.RootVarChar, types.RootBoolean, types.RootBinary,
	types.RootVarBinary, types.RootDecimal, types.RootTinyInt, types.RootSmallInt,
	types.RootInteger, types.RootBigInt, types.RootFloat, types.RootDouble,
	types.RootDate, types.RootTime, types.RootTimestamp, types.RootTimestampLTZ,
	types.RootIntervalYearMonth, types.RootIntervalDayTime, types.RootArray,
	types.RootMultiset, types.RootMap, types.RootRow, types.RootStructured,
	types.RootRaw, types.RootNull,
}

type ruleBuilder struct {
	target types.TypeRoot
	rule   castingRule
}

func castTo(target types.TypeRoot) *ruleBuilder {
	return &ruleBuilder{target: target}
}

func (b *ruleBuilder) implicitFrom(roots ...types.TypeRoot) *ruleBuilder {
	for _, r := range roots {
		b.rule.implicitRoots |= 1 << uint(r)
	}
	return b
}

func (b *ruleBuilder) implicitFromGroup(groups ...types.Group) *ruleBuilder {
	for _, g := range groups {
		b.rule.implicitGroups |= g
	}
	return b
}

func (b *ruleBuilder) explicitFrom(roots ...types.TypeRoot) *ruleBuilder {
	for _, r := range roots {
		b.rule.explicitRoots |= 1 << uint(r)
	}
	return b
}

func (b *ruleBuilder) explicitFromGroup(groups ...types.Group) *ruleBuilder {
	for _, g := range groups {
		b.rule.explicitGroups |= g
	}
	return b
}

func (b *ruleBuilder) build() {
	if castingRules[b.target] != nil {
		panic(fmt.Sprintf("casts: duplicate casting rule for %s", b.target))
	}
	rule := b.rule
	castingRules[b.target] = &rule
}

func init() {
	for i, r := range allRoots {
		if int(r) != i {
			panic(fmt.Sprintf("casts: root table out of order at %s", r))
		}
	}

	// numeric targets share their explicit sources
	numeric := func(target types.TypeRoot) *ruleBuilder {
		return castTo(target).
			explicitFromGroup(types.GroupNumeric, types.GroupCharacterString).
			explicitFrom(types.RootBoolean, types.RootTimestamp, types.RootTimestampLTZ)
	}

	castTo(types.RootChar).
		implicitFrom(types.RootChar).
		explicitFromGroup(types.GroupPredefined).
		build()

	castTo(types.RootVarChar).
		implicitFromGroup(types.GroupCharacterString).
		explicitFromGroup(types.GroupPredefined).
		build()

	castTo(types.RootBoolean).
		implicitFrom(types.RootBoolean).
		explicitFromGroup(types.GroupCharacterString, types.GroupIntegerNumeric).
		build()

	castTo(types.RootBinary).
		implicitFrom(types.RootBinary).
		explicitFromGroup(types.GroupCharacterString).
		explicitFrom(types.RootVarBinary, types.RootRaw).
		build()

	castTo(types.RootVarBinary).
		implicitFromGroup(types.GroupBinaryString).
		explicitFromGroup(types.GroupCharacterString).
		explicitFrom(types.RootRaw).
		build()

	numeric(types.RootDecimal).
		implicitFromGroup(types.GroupExactNumeric).
		build()

	numeric(types.RootTinyInt).
		implicitFrom(types.RootTinyInt).
		build()

	numeric(types.RootSmallInt).
		implicitFrom(types.RootTinyInt, types.RootSmallInt).
		build()

	numeric(types.RootInteger).
		implicitFrom(types.RootTinyInt, types.RootSmallInt, types.RootInteger).
		build()

	numeric(types.RootBigInt).
		implicitFrom(types.RootTinyInt, types.RootSmallInt, types.RootInteger, types.RootBigInt).
		build()

	numeric(types.RootFloat).
		implicitFrom(types.RootTinyInt, types.RootSmallInt, types.RootInteger, types.RootBigInt,
			types.RootFloat, types.RootDecimal).
		build()

	numeric(types.RootDouble).
		implicitFromGroup(types.GroupNumeric).
		build()

	castTo(types.RootDate).
		implicitFrom(types.RootDate, types.RootTimestamp).
		explicitFromGroup(types.GroupTimestamp, types.GroupCharacterString).
		build()

	castTo(types.RootTime).
		implicitFrom(types.RootTime).
		explicitFromGroup(types.GroupTime, types.GroupTimestamp, types.GroupCharacterString).
		build()

	castTo(types.RootTimestamp).
		implicitFrom(types.RootTimestamp, types.RootTimestampLTZ).
		explicitFromGroup(types.GroupDatetime, types.GroupCharacterString, types.GroupNumeric).
		build()

	castTo(types.RootTimestampLTZ).
		implicitFrom(types.RootTimestampLTZ, types.RootTimestamp).
		explicitFromGroup(types.GroupDatetime, types.GroupCharacterString, types.GroupNumeric).
		build()

	// interval <-> exact numeric is decided before the tables are consulted
	castTo(types.RootIntervalYearMonth).
		implicitFrom(types.RootIntervalYearMonth).
		explicitFromGroup(types.GroupCharacterString).
		build()

	castTo(types.RootIntervalDayTime).
		implicitFrom(types.RootIntervalDayTime).
		explicitFromGroup(types.GroupCharacterString).
		build()
}

// lookupRule reports whether the target root's table lists the source root.
func lookupRule(source, target types.TypeRoot, allowExplicit bool) bool {
	if int(target) < 0 || int(target) >= len(castingRules) {
		return false
	}
	rule := castingRules[target]
	if rule == nil {
		return false
	}
	if allowExplicit {
		return rule.allowsExplicit(source)
	}
	return rule.allowsImplicit(source)
}
