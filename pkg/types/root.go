package types

// TypeRoot identifies a logical type variant independent of its parameters
// and nullability.
type TypeRoot int

const (
	RootChar TypeRoot = iota
	RootVarChar
	RootBoolean
	RootBinary
	RootVarBinary
	RootDecimal
	RootTinyInt
	RootSmallInt
	RootInteger
	RootBigInt
	RootFloat
	RootDouble
	RootDate
	RootTime
	RootTimestamp
	RootTimestampLTZ
	RootIntervalYearMonth
	RootIntervalDayTime
	RootArray
	RootMultiset
	RootMap
	RootRow
	RootStructured
	RootRaw
	RootNull

	numRoots
)

// AllRoots returns every type root in declaration order.
func AllRoots() []TypeRoot {
	roots := make([]TypeRoot, 0, numRoots)
	for r := TypeRoot(0); r < numRoots; r++ {
		roots = append(roots, r)
	}
	return roots
}

// String returns the SQL name of the root.
func (r TypeRoot) String() string {
	switch r {
	case RootChar:
		return "CHAR"
	case RootVarChar:
		return "VARCHAR"
	case RootBoolean:
		return "BOOLEAN"
	case RootBinary:
		return "BINARY"
	case RootVarBinary:
		return "VARBINARY"
	case RootDecimal:
		return "DECIMAL"
	case RootTinyInt:
		return "TINYINT"
	case RootSmallInt:
		return "SMALLINT"
	case RootInteger:
		return "INTEGER"
	case RootBigInt:
		return "BIGINT"
	case RootFloat:
		return "FLOAT"
	case RootDouble:
		return "DOUBLE"
	case RootDate:
		return "DATE"
	case RootTime:
		return "TIME_WITHOUT_TIME_ZONE"
	case RootTimestamp:
		return "TIMESTAMP_WITHOUT_TIME_ZONE"
	case RootTimestampLTZ:
		return "TIMESTAMP_WITH_LOCAL_TIME_ZONE"
	case RootIntervalYearMonth:
		return "INTERVAL_YEAR_MONTH"
	case RootIntervalDayTime:
		return "INTERVAL_DAY_TIME"
	case RootArray:
		return "ARRAY"
	case RootMultiset:
		return "MULTISET"
	case RootMap:
		return "MAP"
	case RootRow:
		return "ROW"
	case RootStructured:
		return "STRUCTURED_TYPE"
	case RootRaw:
		return "RAW"
	case RootNull:
		return "NULL"
	default:
		return "UNKNOWN"
	}
}

// Groups returns the overlapping root groups the root belongs to.
func (r TypeRoot) Groups() Group {
	switch r {
	case RootChar, RootVarChar:
		return GroupPredefined | GroupCharacterString
	case RootBoolean:
		return GroupPredefined
	case RootBinary, RootVarBinary:
		return GroupPredefined | GroupBinaryString
	case RootDecimal:
		return GroupPredefined | GroupNumeric | GroupExactNumeric
	case RootTinyInt, RootSmallInt, RootInteger, RootBigInt:
		return GroupPredefined | GroupNumeric | GroupIntegerNumeric | GroupExactNumeric
	case RootFloat, RootDouble:
		return GroupPredefined | GroupNumeric | GroupApproximateNumeric
	case RootDate:
		return GroupPredefined | GroupDatetime
	case RootTime:
		return GroupPredefined | GroupDatetime | GroupTime
	case RootTimestamp:
		return GroupPredefined | GroupDatetime | GroupTimestamp
	case RootTimestampLTZ:
		return GroupPredefined | GroupDatetime | GroupTimestamp | GroupExtension
	case RootIntervalYearMonth, RootIntervalDayTime:
		return GroupPredefined | GroupInterval
	case RootArray, RootMultiset:
		return GroupConstructed | GroupCollection
	case RootMap:
		return GroupConstructed | GroupExtension
	case RootRow:
		return GroupConstructed
	case RootStructured:
		return GroupUserDefined
	case RootRaw, RootNull:
		return GroupExtension
	default:
		return 0
	}
}

// In reports whether the root belongs to any of the given groups.
func (r TypeRoot) In(g Group) bool {
	return r.Groups()&g != 0
}
