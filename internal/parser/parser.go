package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arkilian/typecast/pkg/types"
)

// ParseError represents a parsing error with location information.
type ParseError struct {
	Message  string
	Position int
	Token    Token
	Cause    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s (got %q)", e.Position, e.Message, e.Token.Literal)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ResolverFunc looks up a registered structured type by identifier.
type ResolverFunc func(id types.ObjectIdentifier) (*types.StructuredType, error)

// Parser parses type strings into logical types.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	resolve   ResolverFunc
}

// NewParser creates a new Parser for the given input. resolve may be nil,
// in which case named structured types are rejected.
func NewParser(input string, resolve ResolverFunc) *Parser {
	p := &Parser{
		lexer:   NewLexer(input),
		resolve: resolve,
	}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a complete type string without a structured type resolver.
func Parse(input string) (types.LogicalType, error) {
	return NewParser(input, nil).ParseType()
}

// ParseWithResolver parses a complete type string, resolving named
// structured types through resolve.
func ParseWithResolver(input string, resolve ResolverFunc) (types.LogicalType, error) {
	return NewParser(input, resolve).ParseType()
}

// ParseType parses one type and requires the input to end after it.
func (p *Parser) ParseType() (types.LogicalType, error) {
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.nextToken()
	if !p.curTokenIs(TokenEOF) {
		return nil, p.errorf(p.curToken, "unexpected input after type")
	}
	return t, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) peekKeyword(word string) bool {
	return p.peekToken.Type == TokenIdent && strings.EqualFold(p.peekToken.Literal, word)
}

func (p *Parser) expectPeek(t TokenType) error {
	if p.peekTokenIs(t) {
		p.nextToken()
		return nil
	}
	return p.errorf(p.peekToken, "expected %s", t)
}

func (p *Parser) expectPeekKeyword(word string) error {
	if p.peekKeyword(word) {
		p.nextToken()
		return nil
	}
	return p.errorf(p.peekToken, "expected %s", word)
}

func (p *Parser) errorf(tok Token, format string, args ...any) *ParseError {
	if tok.Type == TokenError {
		format = "invalid token"
		args = nil
	}
	return &ParseError{
		Message:  fmt.Sprintf(format, args...),
		Position: tok.Pos,
		Token:    tok,
	}
}

// wrap turns a constructor error into a ParseError at tok.
func (p *Parser) wrap(tok Token, err error) *ParseError {
	return &ParseError{Message: err.Error(), Position: tok.Pos, Token: tok, Cause: err}
}

// parseType parses a type starting at curToken, including the optional
// nullability suffix. On return curToken is the last token of the type.
func (p *Parser) parseType() (types.LogicalType, error) {
	start := p.curToken
	t, err := p.parseBaseType()
	if err != nil {
		return nil, err
	}

	switch {
	case p.peekKeyword("NOT"):
		p.nextToken()
		if err := p.expectPeekKeyword("NULL"); err != nil {
			return nil, err
		}
		if t.Root() == types.RootNull {
			return nil, p.errorf(start, "NULL type cannot be NOT NULL")
		}
		t = t.Copy(false)
	case p.peekKeyword("NULL"):
		p.nextToken()
	}
	return t, nil
}

func (p *Parser) parseBaseType() (types.LogicalType, error) {
	tok := p.curToken
	switch tok.Type {
	case TokenQuotedIdent:
		return p.parseNamedStructured()
	case TokenIdent:
	default:
		return nil, p.errorf(tok, "expected type")
	}

	word := strings.ToUpper(tok.Literal)
	if !keywords[word] {
		return p.parseNamedStructured()
	}

	switch word {
	case "NULL":
		return types.NewNullType(), nil
	case "BOOLEAN", "BOOL":
		return types.NewBooleanType(), nil
	case "TINYINT":
		return types.NewTinyIntType(), nil
	case "SMALLINT":
		return types.NewSmallIntType(), nil
	case "INT", "INTEGER":
		return types.NewIntType(), nil
	case "BIGINT":
		return types.NewBigIntType(), nil
	case "FLOAT", "REAL":
		return types.NewFloatType(), nil
	case "DOUBLE":
		if p.peekKeyword("PRECISION") {
			p.nextToken()
		}
		return types.NewDoubleType(), nil
	case "DECIMAL", "DEC", "NUMERIC":
		return p.parseDecimal()
	case "CHAR", "CHARACTER":
		if p.peekKeyword("VARYING") {
			p.nextToken()
			return p.parseLength(tok, func(n int) (types.LogicalType, error) { return types.NewVarCharType(n) })
		}
		return p.parseLength(tok, func(n int) (types.LogicalType, error) { return types.NewCharType(n) })
	case "VARCHAR":
		return p.parseLength(tok, func(n int) (types.LogicalType, error) { return types.NewVarCharType(n) })
	case "STRING":
		return types.NewStringType(), nil
	case "BINARY":
		return p.parseLength(tok, func(n int) (types.LogicalType, error) { return types.NewBinaryType(n) })
	case "VARBINARY":
		return p.parseLength(tok, func(n int) (types.LogicalType, error) { return types.NewVarBinaryType(n) })
	case "BYTES":
		return types.NewBytesType(), nil
	case "DATE":
		return types.NewDateType(), nil
	case "TIME":
		return p.parseTime()
	case "TIMESTAMP":
		return p.parseTimestamp()
	case "TIMESTAMP_LTZ":
		precision, err := p.parseOptionalPrecision(types.DefaultTimestampPrecision)
		if err != nil {
			return nil, err
		}
		return p.build(tok, func() (types.LogicalType, error) { return types.NewLocalZonedTimestampType(precision) })
	case "INTERVAL":
		return p.parseInterval()
	case "ARRAY", "MULTISET":
		return p.parseCollection(word)
	case "MAP":
		return p.parseMap()
	case "ROW":
		return p.parseRow()
	case "STRUCTURED":
		return p.parseAnonymousStructured()
	case "RAW":
		return p.parseRaw()
	}
	return nil, p.errorf(tok, "unsupported type")
}

// build calls a constructor and converts its error into a ParseError.
func (p *Parser) build(tok Token, construct func() (types.LogicalType, error)) (types.LogicalType, error) {
	t, err := construct()
	if err != nil {
		return nil, p.wrap(tok, err)
	}
	return t, nil
}

func (p *Parser) parseNumber() (int, error) {
	if err := p.expectPeek(TokenNumber); err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(p.curToken.Literal)
	if err != nil {
		return 0, p.errorf(p.curToken, "invalid number")
	}
	return n, nil
}

// parseOptionalPrecision reads "(n)" if present.
func (p *Parser) parseOptionalPrecision(def int) (int, error) {
	if !p.peekTokenIs(TokenLParen) {
		return def, nil
	}
	p.nextToken()
	n, err := p.parseNumber()
	if err != nil {
		return 0, err
	}
	if err := p.expectPeek(TokenRParen); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *Parser) parseLength(tok Token, construct func(int) (types.LogicalType, error)) (types.LogicalType, error) {
	n, err := p.parseOptionalPrecision(1)
	if err != nil {
		return nil, err
	}
	return p.build(tok, func() (types.LogicalType, error) { return construct(n) })
}

func (p *Parser) parseDecimal() (types.LogicalType, error) {
	tok := p.curToken
	precision, scale := types.DefaultDecimalPrecision, types.DefaultDecimalScale
	if p.peekTokenIs(TokenLParen) {
		p.nextToken()
		var err error
		if precision, err = p.parseNumber(); err != nil {
			return nil, err
		}
		scale = 0
		if p.peekTokenIs(TokenComma) {
			p.nextToken()
			if scale, err = p.parseNumber(); err != nil {
				return nil, err
			}
		}
		if err := p.expectPeek(TokenRParen); err != nil {
			return nil, err
		}
	}
	return p.build(tok, func() (types.LogicalType, error) { return types.NewDecimalType(precision, scale) })
}

func (p *Parser) parseTime() (types.LogicalType, error) {
	tok := p.curToken
	precision, err := p.parseOptionalPrecision(types.DefaultTimePrecision)
	if err != nil {
		return nil, err
	}
	if p.peekKeyword("WITHOUT") {
		p.nextToken()
		if err := p.expectTimeZone(); err != nil {
			return nil, err
		}
	}
	return p.build(tok, func() (types.LogicalType, error) { return types.NewTimeType(precision) })
}

func (p *Parser) parseTimestamp() (types.LogicalType, error) {
	tok := p.curToken
	precision, err := p.parseOptionalPrecision(types.DefaultTimestampPrecision)
	if err != nil {
		return nil, err
	}
	switch {
	case p.peekKeyword("WITHOUT"):
		p.nextToken()
		if err := p.expectTimeZone(); err != nil {
			return nil, err
		}
	case p.peekKeyword("WITH"):
		p.nextToken()
		if err := p.expectPeekKeyword("LOCAL"); err != nil {
			return nil, err
		}
		if err := p.expectTimeZone(); err != nil {
			return nil, err
		}
		return p.build(tok, func() (types.LogicalType, error) { return types.NewLocalZonedTimestampType(precision) })
	}
	return p.build(tok, func() (types.LogicalType, error) { return types.NewTimestampType(precision) })
}

func (p *Parser) expectTimeZone() error {
	if err := p.expectPeekKeyword("TIME"); err != nil {
		return err
	}
	return p.expectPeekKeyword("ZONE")
}

func (p *Parser) parseInterval() (types.LogicalType, error) {
	tok := p.curToken
	if !p.peekTokenIs(TokenIdent) {
		return nil, p.errorf(p.peekToken, "expected interval unit")
	}
	p.nextToken()
	unit := strings.ToUpper(p.curToken.Literal)

	switch unit {
	case "YEAR":
		precision, err := p.parseOptionalPrecision(types.DefaultYearPrecision)
		if err != nil {
			return nil, err
		}
		resolution := types.ResolutionYear
		if p.peekKeyword("TO") {
			p.nextToken()
			if err := p.expectPeekKeyword("MONTH"); err != nil {
				return nil, err
			}
			resolution = types.ResolutionYearToMonth
		}
		return p.build(tok, func() (types.LogicalType, error) {
			return types.NewYearMonthIntervalTypeWithPrecision(resolution, precision)
		})
	case "MONTH":
		return p.build(tok, func() (types.LogicalType, error) {
			return types.NewYearMonthIntervalType(types.ResolutionMonth)
		})
	}

	dayPrecision := types.DefaultDayPrecision
	fractional := types.DefaultIntervalFractionalPrec
	var err error
	switch unit {
	case "DAY":
		if dayPrecision, err = p.parseOptionalPrecision(types.DefaultDayPrecision); err != nil {
			return nil, err
		}
	case "SECOND":
		if fractional, err = p.parseOptionalPrecision(types.DefaultIntervalFractionalPrec); err != nil {
			return nil, err
		}
	case "HOUR", "MINUTE":
	default:
		return nil, p.errorf(p.curToken, "unknown interval unit")
	}

	end := unit
	if unit != "SECOND" && p.peekKeyword("TO") {
		p.nextToken()
		if !p.peekTokenIs(TokenIdent) {
			return nil, p.errorf(p.peekToken, "expected interval unit")
		}
		p.nextToken()
		end = strings.ToUpper(p.curToken.Literal)
		if end == unit {
			return nil, p.errorf(p.curToken, "invalid interval range %s TO %s", unit, end)
		}
		if end == "SECOND" {
			if fractional, err = p.parseOptionalPrecision(types.DefaultIntervalFractionalPrec); err != nil {
				return nil, err
			}
		}
	}

	resolution, ok := dayTimeResolutions[[2]string{unit, end}]
	if !ok {
		return nil, p.errorf(p.curToken, "invalid interval range %s TO %s", unit, end)
	}
	return p.build(tok, func() (types.LogicalType, error) {
		return types.NewDayTimeIntervalTypeWithPrecision(resolution, dayPrecision, fractional)
	})
}

var dayTimeResolutions = map[[2]string]types.IntervalResolution{
	{"DAY", "DAY"}:       types.ResolutionDay,
	{"DAY", "HOUR"}:      types.ResolutionDayToHour,
	{"DAY", "MINUTE"}:    types.ResolutionDayToMinute,
	{"DAY", "SECOND"}:    types.ResolutionDayToSecond,
	{"HOUR", "HOUR"}:     types.ResolutionHour,
	{"HOUR", "MINUTE"}:   types.ResolutionHourToMinute,
	{"HOUR", "SECOND"}:   types.ResolutionHourToSecond,
	{"MINUTE", "MINUTE"}: types.ResolutionMinute,
	{"MINUTE", "SECOND"}: types.ResolutionMinuteToSecond,
	{"SECOND", "SECOND"}: types.ResolutionSecond,
}

func (p *Parser) parseElement() (types.LogicalType, error) {
	p.nextToken()
	return p.parseType()
}

func (p *Parser) parseCollection(kind string) (types.LogicalType, error) {
	tok := p.curToken
	if err := p.expectPeek(TokenLt); err != nil {
		return nil, err
	}
	element, err := p.parseElement()
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(TokenGt); err != nil {
		return nil, err
	}
	if kind == "MULTISET" {
		return p.build(tok, func() (types.LogicalType, error) { return types.NewMultisetType(element) })
	}
	return p.build(tok, func() (types.LogicalType, error) { return types.NewArrayType(element) })
}

func (p *Parser) parseMap() (types.LogicalType, error) {
	tok := p.curToken
	if err := p.expectPeek(TokenLt); err != nil {
		return nil, err
	}
	key, err := p.parseElement()
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(TokenComma); err != nil {
		return nil, err
	}
	value, err := p.parseElement()
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(TokenGt); err != nil {
		return nil, err
	}
	return p.build(tok, func() (types.LogicalType, error) { return types.NewMapType(key, value) })
}

type field struct {
	name        string
	typ         types.LogicalType
	description string
}

// parseFields reads "name type ['description'], ..." between the given
// delimiters. curToken is the keyword before the opening delimiter.
func (p *Parser) parseFields(allowParens bool) ([]field, error) {
	closing := TokenGt
	switch {
	case p.peekTokenIs(TokenLt):
	case allowParens && p.peekTokenIs(TokenLParen):
		closing = TokenRParen
	default:
		return nil, p.errorf(p.peekToken, "expected <")
	}
	p.nextToken()

	var fields []field
	if p.peekTokenIs(closing) {
		p.nextToken()
		return fields, nil
	}
	for {
		p.nextToken()
		if !p.curTokenIs(TokenIdent) && !p.curTokenIs(TokenQuotedIdent) {
			return nil, p.errorf(p.curToken, "expected field name")
		}
		f := field{name: p.curToken.Literal}
		typ, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		f.typ = typ
		if p.peekTokenIs(TokenString) {
			p.nextToken()
			f.description = p.curToken.Literal
		}
		fields = append(fields, f)

		if p.peekTokenIs(TokenComma) {
			p.nextToken()
			continue
		}
		if err := p.expectPeek(closing); err != nil {
			return nil, err
		}
		return fields, nil
	}
}

func (p *Parser) parseRow() (types.LogicalType, error) {
	tok := p.curToken
	fields, err := p.parseFields(true)
	if err != nil {
		return nil, err
	}
	rowFields := make([]types.RowField, len(fields))
	for i, f := range fields {
		rowFields[i] = types.RowField{Name: f.name, Type: f.typ, Description: f.description}
	}
	return p.build(tok, func() (types.LogicalType, error) { return types.NewRowType(rowFields...) })
}

func (p *Parser) parseAnonymousStructured() (types.LogicalType, error) {
	tok := p.curToken
	fields, err := p.parseFields(false)
	if err != nil {
		return nil, err
	}
	attrs := make([]types.StructuredAttribute, len(fields))
	for i, f := range fields {
		attrs[i] = types.StructuredAttribute{Name: f.name, Type: f.typ, Description: f.description}
	}
	return p.build(tok, func() (types.LogicalType, error) { return types.NewStructuredType(nil, attrs...) })
}

func (p *Parser) parseRaw() (types.LogicalType, error) {
	tok := p.curToken
	if err := p.expectPeek(TokenLParen); err != nil {
		return nil, err
	}
	if err := p.expectPeek(TokenString); err != nil {
		return nil, err
	}
	className := p.curToken.Literal
	if err := p.expectPeek(TokenComma); err != nil {
		return nil, err
	}
	if err := p.expectPeek(TokenString); err != nil {
		return nil, err
	}
	serializer := p.curToken.Literal
	if err := p.expectPeek(TokenRParen); err != nil {
		return nil, err
	}
	return p.build(tok, func() (types.LogicalType, error) { return types.NewRawType(className, serializer) })
}

// parseNamedStructured reads catalog.database.object and asks the resolver
// for the registered type.
func (p *Parser) parseNamedStructured() (types.LogicalType, error) {
	tok := p.curToken
	parts := []string{tok.Literal}
	for len(parts) < 3 {
		if err := p.expectPeek(TokenDot); err != nil {
			if len(parts) == 1 {
				return nil, p.errorf(tok, "unknown type")
			}
			return nil, err
		}
		p.nextToken()
		if !p.curTokenIs(TokenIdent) && !p.curTokenIs(TokenQuotedIdent) {
			return nil, p.errorf(p.curToken, "expected identifier")
		}
		parts = append(parts, p.curToken.Literal)
	}

	id, err := types.NewObjectIdentifier(parts[0], parts[1], parts[2])
	if err != nil {
		return nil, p.wrap(tok, err)
	}
	if p.resolve == nil {
		return nil, p.errorf(tok, "structured type %s cannot be resolved without a catalog", id)
	}
	st, err := p.resolve(*id)
	if err != nil {
		return nil, p.wrap(tok, err)
	}
	if st == nil {
		return nil, p.errorf(tok, "structured type %s not found", id)
	}
	return st, nil
}
