package types

import (
	"fmt"
	"math/rand"
)

// Random builds a valid random type tree no deeper than maxDepth. Generators
// and fuzzers use it to sweep the type space; the same seed always yields
// the same tree.
func Random(r *rand.Rand, maxDepth int) LogicalType {
	var t LogicalType
	if maxDepth <= 0 || r.Intn(3) > 0 {
		t = randomScalar(r)
	} else {
		t = randomComposite(r, maxDepth-1)
	}
	if t.Root() != RootNull && r.Intn(4) == 0 {
		t = t.Copy(false)
	}
	return t
}

func randomScalar(r *rand.Rand) LogicalType {
	switch r.Intn(20) {
	case 0:
		return NewNullType()
	case 1:
		return NewBooleanType()
	case 2:
		return NewTinyIntType()
	case 3:
		return NewSmallIntType()
	case 4:
		return NewIntType()
	case 5:
		return NewBigIntType()
	case 6:
		return NewFloatType()
	case 7:
		return NewDoubleType()
	case 8:
		p := 1 + r.Intn(MaxDecimalPrecision)
		return Must(NewDecimalType(p, r.Intn(p+1)))
	case 9:
		return Must(NewCharType(1 + r.Intn(10)))
	case 10:
		if r.Intn(2) == 0 {
			return NewStringType()
		}
		return Must(NewVarCharType(1 + r.Intn(100)))
	case 11:
		return Must(NewBinaryType(1 + r.Intn(10)))
	case 12:
		if r.Intn(2) == 0 {
			return NewBytesType()
		}
		return Must(NewVarBinaryType(1 + r.Intn(100)))
	case 13:
		return NewDateType()
	case 14:
		return Must(NewTimeType(r.Intn(MaxFractionalPrecision + 1)))
	case 15:
		return Must(NewTimestampType(r.Intn(MaxFractionalPrecision + 1)))
	case 16:
		return Must(NewLocalZonedTimestampType(r.Intn(MaxFractionalPrecision + 1)))
	case 17:
		res := []IntervalResolution{ResolutionYear, ResolutionYearToMonth, ResolutionMonth}
		return Must(NewYearMonthIntervalTypeWithPrecision(res[r.Intn(len(res))], MinYearPrecision+r.Intn(MaxYearPrecision)))
	case 18:
		res := IntervalResolution(int(ResolutionDay) + r.Intn(int(ResolutionSecond-ResolutionDay)+1))
		return Must(NewDayTimeIntervalTypeWithPrecision(res, MinDayPrecision+r.Intn(MaxDayPrecision), r.Intn(MaxFractionalPrecision+1)))
	default:
		classes := []string{"java.lang.Integer", "java.time.Duration", "com.example.Payload"}
		return Must(NewRawType(classes[r.Intn(len(classes))], "Serializer"))
	}
}

func randomComposite(r *rand.Rand, depth int) LogicalType {
	switch r.Intn(5) {
	case 0:
		return Must(NewArrayType(Random(r, depth)))
	case 1:
		return Must(NewMultisetType(Random(r, depth)))
	case 2:
		return Must(NewMapType(Random(r, depth), Random(r, depth)))
	case 3:
		n := r.Intn(4)
		fields := make([]RowField, n)
		for i := range fields {
			fields[i] = RowField{Name: fmt.Sprintf("f%d", i), Type: Random(r, depth)}
		}
		return Must(NewRowType(fields...))
	default:
		n := r.Intn(4)
		attrs := make([]StructuredAttribute, n)
		for i := range attrs {
			attrs[i] = StructuredAttribute{Name: fmt.Sprintf("a%d", i), Type: Random(r, depth)}
		}
		return Must(NewStructuredType(nil, attrs...))
	}
}
