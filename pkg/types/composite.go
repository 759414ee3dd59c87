package types

import (
	"fmt"
	"strings"
)

// ArrayType is an ordered collection of elements of the same type.
type ArrayType struct {
	base
	element LogicalType
}

func NewArrayType(element LogicalType) (*ArrayType, error) {
	if element == nil {
		return nil, fmt.Errorf("%w: ARRAY element", ErrNilType)
	}
	return &ArrayType{base{nullable: true}, element}, nil
}

func (t *ArrayType) Root() TypeRoot { return RootArray }

func (t *ArrayType) Element() LogicalType { return t.element }

func (t *ArrayType) Children() []LogicalType { return []LogicalType{t.element} }

func (t *ArrayType) Copy(nullable bool) LogicalType {
	return &ArrayType{base{nullable: nullable}, t.element}
}

func (t *ArrayType) String() string {
	return t.withNullability("ARRAY<" + t.element.String() + ">")
}

// MultisetType is an unordered collection that allows duplicates.
type MultisetType struct {
	base
	element LogicalType
}

func NewMultisetType(element LogicalType) (*MultisetType, error) {
	if element == nil {
		return nil, fmt.Errorf("%w: MULTISET element", ErrNilType)
	}
	return &MultisetType{base{nullable: true}, element}, nil
}

func (t *MultisetType) Root() TypeRoot { return RootMultiset }

func (t *MultisetType) Element() LogicalType { return t.element }

func (t *MultisetType) Children() []LogicalType { return []LogicalType{t.element} }

func (t *MultisetType) Copy(nullable bool) LogicalType {
	return &MultisetType{base{nullable: nullable}, t.element}
}

func (t *MultisetType) String() string {
	return t.withNullability("MULTISET<" + t.element.String() + ">")
}

// MapType is an associative array from keys to values.
type MapType struct {
	base
	key   LogicalType
	value LogicalType
}

func NewMapType(key, value LogicalType) (*MapType, error) {
	if key == nil || value == nil {
		return nil, fmt.Errorf("%w: MAP key and value", ErrNilType)
	}
	return &MapType{base{nullable: true}, key, value}, nil
}

func (t *MapType) Root() TypeRoot { return RootMap }

func (t *MapType) Key() LogicalType { return t.key }

func (t *MapType) Value() LogicalType { return t.value }

func (t *MapType) Children() []LogicalType { return []LogicalType{t.key, t.value} }

func (t *MapType) Copy(nullable bool) LogicalType {
	return &MapType{base{nullable: nullable}, t.key, t.value}
}

func (t *MapType) String() string {
	return t.withNullability("MAP<" + t.key.String() + ", " + t.value.String() + ">")
}

// RowField is one positional slot of a row. Name and description are
// informational; only position and type matter for casting.
type RowField struct {
	Name        string
	Type        LogicalType
	Description string
}

func (f RowField) String() string {
	s := quoteIdentifier(f.Name) + " " + f.Type.String()
	if f.Description != "" {
		s += " " + quoteString(f.Description)
	}
	return s
}

// RowType is a sequence of named, typed fields.
type RowType struct {
	base
	fields []RowField
}

// NewRowType validates that field names are non-empty and unique.
func NewRowType(fields ...RowField) (*RowType, error) {
	seen := make(map[string]bool, len(fields))
	cp := make([]RowField, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: row field %d has no name", ErrInvalidFieldName, i)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFieldName, f.Name)
		}
		if f.Type == nil {
			return nil, fmt.Errorf("%w: row field %q", ErrNilType, f.Name)
		}
		seen[f.Name] = true
		cp[i] = f
	}
	return &RowType{base{nullable: true}, cp}, nil
}

func (t *RowType) Root() TypeRoot { return RootRow }

// Fields returns a copy of the row's fields.
func (t *RowType) Fields() []RowField {
	cp := make([]RowField, len(t.fields))
	copy(cp, t.fields)
	return cp
}

func (t *RowType) FieldCount() int { return len(t.fields) }

func (t *RowType) FieldNames() []string {
	names := make([]string, len(t.fields))
	for i, f := range t.fields {
		names[i] = f.Name
	}
	return names
}

func (t *RowType) Children() []LogicalType {
	children := make([]LogicalType, len(t.fields))
	for i, f := range t.fields {
		children[i] = f.Type
	}
	return children
}

func (t *RowType) Copy(nullable bool) LogicalType {
	return &RowType{base{nullable: nullable}, t.fields}
}

func (t *RowType) String() string {
	parts := make([]string, len(t.fields))
	for i, f := range t.fields {
		parts[i] = f.String()
	}
	return t.withNullability("ROW<" + strings.Join(parts, ", ") + ">")
}

// ObjectIdentifier names a catalog object as catalog.database.object.
type ObjectIdentifier struct {
	Catalog  string
	Database string
	Object   string
}

// NewObjectIdentifier validates that no part is empty.
func NewObjectIdentifier(catalog, database, object string) (*ObjectIdentifier, error) {
	if catalog == "" || database == "" || object == "" {
		return nil, fmt.Errorf("%w: %q.%q.%q", ErrInvalidIdentifier, catalog, database, object)
	}
	return &ObjectIdentifier{Catalog: catalog, Database: database, Object: object}, nil
}

// ParseObjectIdentifier splits "catalog.database.object".
func ParseObjectIdentifier(s string) (*ObjectIdentifier, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: %q must have three parts", ErrInvalidIdentifier, s)
	}
	return NewObjectIdentifier(parts[0], parts[1], parts[2])
}

// String returns the unquoted dotted form.
func (id *ObjectIdentifier) String() string {
	return id.Catalog + "." + id.Database + "." + id.Object
}

// Quoted returns the backtick-quoted dotted form.
func (id *ObjectIdentifier) Quoted() string {
	return quoteIdentifier(id.Catalog) + "." + quoteIdentifier(id.Database) + "." + quoteIdentifier(id.Object)
}

func (id *ObjectIdentifier) equal(other *ObjectIdentifier) bool {
	if id == nil || other == nil {
		return id == nil && other == nil
	}
	return *id == *other
}

// StructuredAttribute is one attribute of a structured type.
type StructuredAttribute struct {
	Name        string
	Type        LogicalType
	Description string
}

// StructuredType is a user-defined type with ordered attributes. Registered
// types carry an identifier; inline types are anonymous. The identifier is
// catalog metadata and never affects castability.
type StructuredType struct {
	base
	identifier  *ObjectIdentifier
	attributes  []StructuredAttribute
	description string
}

// NewStructuredType builds a structured type; identifier may be nil for an
// anonymous type.
func NewStructuredType(identifier *ObjectIdentifier, attributes ...StructuredAttribute) (*StructuredType, error) {
	seen := make(map[string]bool, len(attributes))
	cp := make([]StructuredAttribute, len(attributes))
	for i, a := range attributes {
		if a.Name == "" {
			return nil, fmt.Errorf("%w: attribute %d has no name", ErrInvalidFieldName, i)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFieldName, a.Name)
		}
		if a.Type == nil {
			return nil, fmt.Errorf("%w: attribute %q", ErrNilType, a.Name)
		}
		seen[a.Name] = true
		cp[i] = a
	}
	var id *ObjectIdentifier
	if identifier != nil {
		idCopy := *identifier
		id = &idCopy
	}
	return &StructuredType{base: base{nullable: true}, identifier: id, attributes: cp}, nil
}

// WithDescription returns a copy carrying the given description.
func (t *StructuredType) WithDescription(description string) *StructuredType {
	cp := *t
	cp.description = description
	return &cp
}

func (t *StructuredType) Root() TypeRoot { return RootStructured }

// Identifier returns the catalog identifier, or nil for anonymous types.
func (t *StructuredType) Identifier() *ObjectIdentifier {
	if t.identifier == nil {
		return nil
	}
	id := *t.identifier
	return &id
}

func (t *StructuredType) Description() string { return t.description }

// Attributes returns a copy of the attributes.
func (t *StructuredType) Attributes() []StructuredAttribute {
	cp := make([]StructuredAttribute, len(t.attributes))
	copy(cp, t.attributes)
	return cp
}

func (t *StructuredType) Children() []LogicalType {
	children := make([]LogicalType, len(t.attributes))
	for i, a := range t.attributes {
		children[i] = a.Type
	}
	return children
}

func (t *StructuredType) Copy(nullable bool) LogicalType {
	cp := *t
	cp.nullable = nullable
	return &cp
}

// String renders registered types by identifier and anonymous types inline.
func (t *StructuredType) String() string {
	if t.identifier != nil {
		return t.withNullability(t.identifier.Quoted())
	}
	parts := make([]string, len(t.attributes))
	for i, a := range t.attributes {
		parts[i] = RowField{Name: a.Name, Type: a.Type, Description: a.Description}.String()
	}
	return t.withNullability("STRUCTURED<" + strings.Join(parts, ", ") + ">")
}

// RawType is an opaque type known only by the class it holds and the
// serializer that encodes it.
type RawType struct {
	base
	className  string
	serializer string
}

func NewRawType(className, serializer string) (*RawType, error) {
	if className == "" || serializer == "" {
		return nil, fmt.Errorf("%w: class %q, serializer %q", ErrInvalidRawType, className, serializer)
	}
	return &RawType{base{nullable: true}, className, serializer}, nil
}

func (t *RawType) Root() TypeRoot { return RootRaw }

func (t *RawType) ClassName() string { return t.className }

func (t *RawType) Serializer() string { return t.serializer }

func (t *RawType) Copy(nullable bool) LogicalType {
	return &RawType{base{nullable: nullable}, t.className, t.serializer}
}

func (t *RawType) String() string {
	return t.withNullability(fmt.Sprintf("RAW(%s, %s)", quoteString(t.className), quoteString(t.serializer)))
}
