package types

import (
	"fmt"
	"math"
)

const (
	// MaxLength is the largest CHAR/VARCHAR/BINARY/VARBINARY length.
	MaxLength = math.MaxInt32

	MinDecimalPrecision     = 1
	MaxDecimalPrecision     = 38
	DefaultDecimalPrecision = 10
	DefaultDecimalScale     = 0
)

// NullType is the type of the untyped NULL literal. It is always nullable.
type NullType struct{ base }

func NewNullType() *NullType { return &NullType{base{nullable: true}} }

func (t *NullType) Root() TypeRoot { return RootNull }

// Copy ignores the flag: NULL can never be NOT NULL.
func (t *NullType) Copy(bool) LogicalType { return NewNullType() }

func (t *NullType) String() string { return "NULL" }

// BooleanType is a three-valued logic type.
type BooleanType struct{ base }

func NewBooleanType() *BooleanType { return &BooleanType{base{nullable: true}} }

func (t *BooleanType) Root() TypeRoot { return RootBoolean }

func (t *BooleanType) Copy(nullable bool) LogicalType {
	return &BooleanType{base{nullable: nullable}}
}

func (t *BooleanType) String() string { return t.withNullability("BOOLEAN") }

// IntegerType covers TINYINT, SMALLINT, INT and BIGINT.
type IntegerType struct {
	base
	root TypeRoot
}

func NewTinyIntType() *IntegerType  { return &IntegerType{base{nullable: true}, RootTinyInt} }
func NewSmallIntType() *IntegerType { return &IntegerType{base{nullable: true}, RootSmallInt} }
func NewIntType() *IntegerType      { return &IntegerType{base{nullable: true}, RootInteger} }
func NewBigIntType() *IntegerType   { return &IntegerType{base{nullable: true}, RootBigInt} }

func (t *IntegerType) Root() TypeRoot { return t.root }

func (t *IntegerType) Copy(nullable bool) LogicalType {
	return &IntegerType{base{nullable: nullable}, t.root}
}

// Width returns the two's complement bit width.
func (t *IntegerType) Width() int {
	switch t.root {
	case RootTinyInt:
		return 8
	case RootSmallInt:
		return 16
	case RootInteger:
		return 32
	default:
		return 64
	}
}

func (t *IntegerType) String() string {
	name := t.root.String()
	if t.root == RootInteger {
		name = "INT"
	}
	return t.withNullability(name)
}

// FloatType is a 4-byte single precision floating point number.
type FloatType struct{ base }

func NewFloatType() *FloatType { return &FloatType{base{nullable: true}} }

func (t *FloatType) Root() TypeRoot { return RootFloat }

func (t *FloatType) Copy(nullable bool) LogicalType { return &FloatType{base{nullable: nullable}} }

func (t *FloatType) String() string { return t.withNullability("FLOAT") }

// DoubleType is an 8-byte double precision floating point number.
type DoubleType struct{ base }

func NewDoubleType() *DoubleType { return &DoubleType{base{nullable: true}} }

func (t *DoubleType) Root() TypeRoot { return RootDouble }

func (t *DoubleType) Copy(nullable bool) LogicalType { return &DoubleType{base{nullable: nullable}} }

func (t *DoubleType) String() string { return t.withNullability("DOUBLE") }

// DecimalType is a fixed precision and scale decimal number.
type DecimalType struct {
	base
	precision int
	scale     int
}

// NewDecimalType validates precision (1..38) and scale (0..precision).
func NewDecimalType(precision, scale int) (*DecimalType, error) {
	if precision < MinDecimalPrecision || precision > MaxDecimalPrecision {
		return nil, fmt.Errorf("%w: decimal precision must be between %d and %d, got %d",
			ErrInvalidPrecision, MinDecimalPrecision, MaxDecimalPrecision, precision)
	}
	if scale < 0 || scale > precision {
		return nil, fmt.Errorf("%w: decimal scale must be between 0 and %d, got %d",
			ErrInvalidScale, precision, scale)
	}
	return &DecimalType{base{nullable: true}, precision, scale}, nil
}

func (t *DecimalType) Root() TypeRoot { return RootDecimal }

func (t *DecimalType) Precision() int { return t.precision }

func (t *DecimalType) Scale() int { return t.scale }

func (t *DecimalType) Copy(nullable bool) LogicalType {
	return &DecimalType{base{nullable: nullable}, t.precision, t.scale}
}

func (t *DecimalType) String() string {
	return t.withNullability(fmt.Sprintf("DECIMAL(%d, %d)", t.precision, t.scale))
}

func checkLength(kind string, length int) error {
	if length < 1 || length > MaxLength {
		return fmt.Errorf("%w: %s length must be between 1 and %d, got %d", ErrInvalidLength, kind, MaxLength, length)
	}
	return nil
}

// CharType is a fixed-length character string.
type CharType struct {
	base
	length int
}

func NewCharType(length int) (*CharType, error) {
	if err := checkLength("CHAR", length); err != nil {
		return nil, err
	}
	return &CharType{base{nullable: true}, length}, nil
}

func (t *CharType) Root() TypeRoot { return RootChar }

func (t *CharType) Length() int { return t.length }

func (t *CharType) Copy(nullable bool) LogicalType {
	return &CharType{base{nullable: nullable}, t.length}
}

func (t *CharType) String() string {
	return t.withNullability(fmt.Sprintf("CHAR(%d)", t.length))
}

// VarCharType is a variable-length character string.
type VarCharType struct {
	base
	length int
}

func NewVarCharType(length int) (*VarCharType, error) {
	if err := checkLength("VARCHAR", length); err != nil {
		return nil, err
	}
	return &VarCharType{base{nullable: true}, length}, nil
}

// NewStringType returns VARCHAR(MaxLength).
func NewStringType() *VarCharType { return &VarCharType{base{nullable: true}, MaxLength} }

func (t *VarCharType) Root() TypeRoot { return RootVarChar }

func (t *VarCharType) Length() int { return t.length }

func (t *VarCharType) Copy(nullable bool) LogicalType {
	return &VarCharType{base{nullable: nullable}, t.length}
}

func (t *VarCharType) String() string {
	if t.length == MaxLength {
		return t.withNullability("STRING")
	}
	return t.withNullability(fmt.Sprintf("VARCHAR(%d)", t.length))
}

// BinaryType is a fixed-length byte string.
type BinaryType struct {
	base
	length int
}

func NewBinaryType(length int) (*BinaryType, error) {
	if err := checkLength("BINARY", length); err != nil {
		return nil, err
	}
	return &BinaryType{base{nullable: true}, length}, nil
}

func (t *BinaryType) Root() TypeRoot { return RootBinary }

func (t *BinaryType) Length() int { return t.length }

func (t *BinaryType) Copy(nullable bool) LogicalType {
	return &BinaryType{base{nullable: nullable}, t.length}
}

func (t *BinaryType) String() string {
	return t.withNullability(fmt.Sprintf("BINARY(%d)", t.length))
}

// VarBinaryType is a variable-length byte string.
type VarBinaryType struct {
	base
	length int
}

func NewVarBinaryType(length int) (*VarBinaryType, error) {
	if err := checkLength("VARBINARY", length); err != nil {
		return nil, err
	}
	return &VarBinaryType{base{nullable: true}, length}, nil
}

// NewBytesType returns VARBINARY(MaxLength).
func NewBytesType() *VarBinaryType { return &VarBinaryType{base{nullable: true}, MaxLength} }

func (t *VarBinaryType) Root() TypeRoot { return RootVarBinary }

func (t *VarBinaryType) Length() int { return t.length }

func (t *VarBinaryType) Copy(nullable bool) LogicalType {
	return &VarBinaryType{base{nullable: nullable}, t.length}
}

func (t *VarBinaryType) String() string {
	if t.length == MaxLength {
		return t.withNullability("BYTES")
	}
	return t.withNullability(fmt.Sprintf("VARBINARY(%d)", t.length))
}
