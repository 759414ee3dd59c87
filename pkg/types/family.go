package types

// Group is a bitset of overlapping root groups. A root usually belongs to
// several groups at once (INTEGER is numeric, exact numeric and integer
// numeric); cast rule tables are written against groups.
type Group uint32

const (
	GroupPredefined Group = 1 << iota
	GroupConstructed
	GroupUserDefined
	GroupCharacterString
	GroupBinaryString
	GroupNumeric
	GroupIntegerNumeric
	GroupExactNumeric
	GroupApproximateNumeric
	GroupDatetime
	GroupTime
	GroupTimestamp
	GroupInterval
	GroupCollection
	GroupExtension
)

// Family is the single comparison family of a type. Unlike Group, every
// type has exactly one family.
type Family int

const (
	FamilyNull Family = iota
	FamilyBoolean
	FamilyExactNumeric
	FamilyApproxNumeric
	FamilyCharacterString
	FamilyBinaryString
	FamilyDatetime
	FamilyInterval
	FamilyCollection
	FamilyStructured
	FamilyRaw
)

func (f Family) String() string {
	switch f {
	case FamilyNull:
		return "NULL"
	case FamilyBoolean:
		return "BOOLEAN"
	case FamilyExactNumeric:
		return "EXACT_NUMERIC"
	case FamilyApproxNumeric:
		return "APPROX_NUMERIC"
	case FamilyCharacterString:
		return "CHARACTER_STRING"
	case FamilyBinaryString:
		return "BINARY_STRING"
	case FamilyDatetime:
		return "DATETIME"
	case FamilyInterval:
		return "INTERVAL"
	case FamilyCollection:
		return "COLLECTION"
	case FamilyStructured:
		return "STRUCTURED"
	case FamilyRaw:
		return "RAW"
	default:
		return "UNKNOWN"
	}
}

// IsComposite reports whether values of the family are built from child types.
func (f Family) IsComposite() bool {
	return f == FamilyCollection || f == FamilyStructured
}

// FamilyOf returns the family of a root.
func FamilyOf(r TypeRoot) Family {
	switch r {
	case RootNull:
		return FamilyNull
	case RootBoolean:
		return FamilyBoolean
	case RootTinyInt, RootSmallInt, RootInteger, RootBigInt, RootDecimal:
		return FamilyExactNumeric
	case RootFloat, RootDouble:
		return FamilyApproxNumeric
	case RootChar, RootVarChar:
		return FamilyCharacterString
	case RootBinary, RootVarBinary:
		return FamilyBinaryString
	case RootDate, RootTime, RootTimestamp, RootTimestampLTZ:
		return FamilyDatetime
	case RootIntervalYearMonth, RootIntervalDayTime:
		return FamilyInterval
	case RootArray, RootMultiset, RootMap:
		return FamilyCollection
	case RootRow, RootStructured:
		return FamilyStructured
	default:
		return FamilyRaw
	}
}

// Classify returns the family of a type.
func Classify(t LogicalType) Family {
	return FamilyOf(t.Root())
}

// IsSingleFieldInterval reports whether t is an interval with exactly one
// time unit, i.e. one that can be read as a plain integer count.
func IsSingleFieldInterval(t LogicalType) bool {
	switch v := t.(type) {
	case *YearMonthIntervalType:
		return v.resolution == ResolutionYear || v.resolution == ResolutionMonth
	case *DayTimeIntervalType:
		switch v.resolution {
		case ResolutionDay, ResolutionHour, ResolutionMinute, ResolutionSecond:
			return true
		}
	}
	return false
}
