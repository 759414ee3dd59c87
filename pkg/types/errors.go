package types

import "errors"

// Construction errors. Types that fail validation are never handed to the
// cast engine.
var (
	// ErrInvalidPrecision is returned when a precision is outside its range
	ErrInvalidPrecision = errors.New("invalid precision")

	// ErrInvalidScale is returned when a decimal scale is negative or exceeds the precision
	ErrInvalidScale = errors.New("invalid scale")

	// ErrInvalidLength is returned when a string or binary length is outside its range
	ErrInvalidLength = errors.New("invalid length")

	// ErrInvalidResolution is returned for an unknown interval resolution
	ErrInvalidResolution = errors.New("invalid interval resolution")

	// ErrNilType is returned when a nested type is missing
	ErrNilType = errors.New("nested type must not be nil")

	// ErrInvalidFieldName is returned for empty field or attribute names
	ErrInvalidFieldName = errors.New("invalid field name")

	// ErrDuplicateFieldName is returned when a row or structured type repeats a name
	ErrDuplicateFieldName = errors.New("duplicate field name")

	// ErrInvalidIdentifier is returned when an object identifier has empty parts
	ErrInvalidIdentifier = errors.New("invalid object identifier")

	// ErrInvalidRawType is returned when a raw type lacks its class or serializer identity
	ErrInvalidRawType = errors.New("invalid raw type")
)
