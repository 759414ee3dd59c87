// Package types defines the logical type model shared by the cast engine,
// the type parser and the catalog.
//
// Every type is an immutable value carrying its own nullability flag.
// Constructors return nullable types; use Copy(false) or NotNull for the
// NOT NULL variant.
package types

import "strings"

// LogicalType is the closed set of logical type variants.
type LogicalType interface {
	// Root returns the variant tag.
	Root() TypeRoot

	// IsNullable reports whether the type admits NULL.
	IsNullable() bool

	// Copy returns the same type with the given nullability.
	Copy(nullable bool) LogicalType

	// Children returns the nested types in positional order.
	Children() []LogicalType

	// String returns the summary string, e.g. "ARRAY<INT NOT NULL>".
	String() string

	logicalType()
}

// base carries the nullability flag shared by every variant.
type base struct {
	nullable bool
}

func (b base) IsNullable() bool { return b.nullable }

func (b base) Children() []LogicalType { return nil }

func (base) logicalType() {}

// withNullability appends the NOT NULL suffix for non-nullable types.
func (b base) withNullability(s string) string {
	if b.nullable {
		return s
	}
	return s + " NOT NULL"
}

// NotNull returns t without NULL in its value domain.
func NotNull(t LogicalType) LogicalType {
	return t.Copy(false)
}

// Nullable returns t with NULL in its value domain.
func Nullable(t LogicalType) LogicalType {
	return t.Copy(true)
}

// Must panics if err is non-nil. It is meant for type and identifier
// literals whose parameters are known to be valid.
func Must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}
	return t
}

// Equal reports full structural equality, including nullability at every
// level, field names, descriptions and structured identifiers.
func Equal(a, b LogicalType) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Root() != b.Root() || a.IsNullable() != b.IsNullable() {
		return false
	}

	switch x := a.(type) {
	case *NullType, *BooleanType, *IntegerType, *FloatType, *DoubleType, *DateType:
		return true
	case *DecimalType:
		y := b.(*DecimalType)
		return x.precision == y.precision && x.scale == y.scale
	case *CharType:
		return x.length == b.(*CharType).length
	case *VarCharType:
		return x.length == b.(*VarCharType).length
	case *BinaryType:
		return x.length == b.(*BinaryType).length
	case *VarBinaryType:
		return x.length == b.(*VarBinaryType).length
	case *TimeType:
		return x.precision == b.(*TimeType).precision
	case *TimestampType:
		return x.precision == b.(*TimestampType).precision
	case *LocalZonedTimestampType:
		return x.precision == b.(*LocalZonedTimestampType).precision
	case *YearMonthIntervalType:
		y := b.(*YearMonthIntervalType)
		return x.resolution == y.resolution && x.yearPrecision == y.yearPrecision
	case *DayTimeIntervalType:
		y := b.(*DayTimeIntervalType)
		return x.resolution == y.resolution &&
			x.dayPrecision == y.dayPrecision &&
			x.fractionalPrecision == y.fractionalPrecision
	case *ArrayType:
		return Equal(x.element, b.(*ArrayType).element)
	case *MultisetType:
		return Equal(x.element, b.(*MultisetType).element)
	case *MapType:
		y := b.(*MapType)
		return Equal(x.key, y.key) && Equal(x.value, y.value)
	case *RowType:
		y := b.(*RowType)
		if len(x.fields) != len(y.fields) {
			return false
		}
		for i := range x.fields {
			if x.fields[i].Name != y.fields[i].Name ||
				x.fields[i].Description != y.fields[i].Description ||
				!Equal(x.fields[i].Type, y.fields[i].Type) {
				return false
			}
		}
		return true
	case *StructuredType:
		y := b.(*StructuredType)
		if !x.identifier.equal(y.identifier) || x.description != y.description {
			return false
		}
		if len(x.attributes) != len(y.attributes) {
			return false
		}
		for i := range x.attributes {
			if x.attributes[i].Name != y.attributes[i].Name ||
				x.attributes[i].Description != y.attributes[i].Description ||
				!Equal(x.attributes[i].Type, y.attributes[i].Type) {
				return false
			}
		}
		return true
	case *RawType:
		y := b.(*RawType)
		return x.className == y.className && x.serializer == y.serializer
	}
	return false
}

// EqualIgnoringNullability compares a and b with the outermost nullability
// flag cleared. Nested nullability still participates.
func EqualIgnoringNullability(a, b LogicalType) bool {
	return Equal(a.Copy(true), b.Copy(true))
}

// quoteIdentifier renders a field name in backticks.
func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// quoteString renders a description as a single-quoted SQL literal.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
