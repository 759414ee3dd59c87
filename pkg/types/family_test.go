package types

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		typ  LogicalType
		want Family
	}{
		{NewNullType(), FamilyNull},
		{NewBooleanType(), FamilyBoolean},
		{NewTinyIntType(), FamilyExactNumeric},
		{Must(NewDecimalType(10, 2)), FamilyExactNumeric},
		{NewDoubleType(), FamilyApproxNumeric},
		{Must(NewCharType(3)), FamilyCharacterString},
		{NewBytesType(), FamilyBinaryString},
		{NewDateType(), FamilyDatetime},
		{Must(NewLocalZonedTimestampType(3)), FamilyDatetime},
		{Must(NewYearMonthIntervalType(ResolutionYear)), FamilyInterval},
		{Must(NewMapType(NewIntType(), NewIntType())), FamilyCollection},
		{Must(NewRowType()), FamilyStructured},
		{Must(NewStructuredType(nil)), FamilyStructured},
		{Must(NewRawType("c", "s")), FamilyRaw},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			if got := Classify(tt.typ); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGroups(t *testing.T) {
	if !RootInteger.In(GroupIntegerNumeric) || !RootInteger.In(GroupExactNumeric) {
		t.Error("INTEGER must be integer and exact numeric")
	}
	if RootDecimal.In(GroupIntegerNumeric) {
		t.Error("DECIMAL is not integer numeric")
	}
	if !RootTimestampLTZ.In(GroupTimestamp) {
		t.Error("TIMESTAMP_LTZ belongs to the timestamp group")
	}
	if RootRow.In(GroupPredefined) {
		t.Error("ROW is constructed, not predefined")
	}
	for _, r := range AllRoots() {
		if r.Groups() == 0 {
			t.Errorf("root %s has no groups", r)
		}
	}
}

func TestIsSingleFieldInterval(t *testing.T) {
	tests := []struct {
		typ  LogicalType
		want bool
	}{
		{Must(NewYearMonthIntervalType(ResolutionYear)), true},
		{Must(NewYearMonthIntervalType(ResolutionMonth)), true},
		{Must(NewYearMonthIntervalType(ResolutionYearToMonth)), false},
		{Must(NewDayTimeIntervalType(ResolutionSecond)), true},
		{Must(NewDayTimeIntervalType(ResolutionDayToHour)), false},
		{NewIntType(), false},
	}

	for _, tt := range tests {
		if got := IsSingleFieldInterval(tt.typ); got != tt.want {
			t.Errorf("IsSingleFieldInterval(%s) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

// TestProperty_TypeModel checks structural invariants over random type trees.
func TestProperty_TypeModel(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every type equals itself", prop.ForAll(
		func(seed int64) bool {
			typ := Random(rand.New(rand.NewSource(seed)), 3)
			return Equal(typ, typ)
		},
		gen.Int64(),
	))

	properties.Property("Copy only changes the outer flag", prop.ForAll(
		func(seed int64) bool {
			typ := Random(rand.New(rand.NewSource(seed)), 3)
			nn := typ.Copy(false)
			if typ.Root() != RootNull && nn.IsNullable() {
				return false
			}
			return EqualIgnoringNullability(typ, nn) && Equal(nn.Copy(typ.IsNullable()), typ)
		},
		gen.Int64(),
	))

	properties.Property("same seed builds the same tree", prop.ForAll(
		func(seed int64) bool {
			a := Random(rand.New(rand.NewSource(seed)), 3)
			b := Random(rand.New(rand.NewSource(seed)), 3)
			return Equal(a, b) && a.String() == b.String()
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
