package parser

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/arkilian/typecast/pkg/types"
)

func TestLexer(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{
			"ARRAY<INT NOT NULL>",
			[]TokenType{TokenIdent, TokenLt, TokenIdent, TokenIdent, TokenIdent, TokenGt, TokenEOF},
		},
		{
			"ROW<`my field` DECIMAL(10, 2) 'it''s'>",
			[]TokenType{TokenIdent, TokenLt, TokenQuotedIdent, TokenIdent, TokenLParen, TokenNumber, TokenComma, TokenNumber, TokenRParen, TokenString, TokenGt, TokenEOF},
		},
		{
			"cat.db.User",
			[]TokenType{TokenIdent, TokenDot, TokenIdent, TokenDot, TokenIdent, TokenEOF},
		},
		{
			"RAW('unterminated",
			[]TokenType{TokenIdent, TokenLParen, TokenError},
		},
	}

	for _, tt := range tests {
		lexer := NewLexer(tt.input)
		tokens := lexer.Tokenize()

		if len(tokens) != len(tt.expected) {
			t.Errorf("input %q: expected %d tokens, got %d", tt.input, len(tt.expected), len(tokens))
			continue
		}

		for i, tok := range tokens {
			if tok.Type != tt.expected[i] {
				t.Errorf("input %q: token %d: expected %s, got %s", tt.input, i, tt.expected[i], tok.Type)
			}
		}
	}
}

func TestLexerUnescapesQuotes(t *testing.T) {
	tokens := NewLexer("'it''s' `a``b`").Tokenize()
	if tokens[0].Literal != "it's" {
		t.Errorf("string literal = %q, want %q", tokens[0].Literal, "it's")
	}
	if tokens[1].Literal != "a`b" {
		t.Errorf("identifier = %q, want %q", tokens[1].Literal, "a`b")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  types.LogicalType
	}{
		{"INT", types.NewIntType()},
		{"integer not null", types.NotNull(types.NewIntType())},
		{"BIGINT NULL", types.NewBigIntType()},
		{"DOUBLE PRECISION", types.NewDoubleType()},
		{"REAL", types.NewFloatType()},
		{"DECIMAL", types.Must(types.NewDecimalType(10, 0))},
		{"NUMERIC(5)", types.Must(types.NewDecimalType(5, 0))},
		{"DEC(5, 2)", types.Must(types.NewDecimalType(5, 2))},
		{"CHAR", types.Must(types.NewCharType(1))},
		{"CHARACTER VARYING(20)", types.Must(types.NewVarCharType(20))},
		{"VARCHAR(2147483647)", types.NewStringType()},
		{"BYTES", types.NewBytesType()},
		{"TIME", types.Must(types.NewTimeType(0))},
		{"TIME(3) WITHOUT TIME ZONE", types.Must(types.NewTimeType(3))},
		{"TIMESTAMP", types.Must(types.NewTimestampType(6))},
		{"TIMESTAMP(3) WITH LOCAL TIME ZONE", types.Must(types.NewLocalZonedTimestampType(3))},
		{"TIMESTAMP_LTZ(9)", types.Must(types.NewLocalZonedTimestampType(9))},
		{"INTERVAL YEAR(4) TO MONTH", types.Must(types.NewYearMonthIntervalTypeWithPrecision(types.ResolutionYearToMonth, 4))},
		{"INTERVAL MONTH", types.Must(types.NewYearMonthIntervalType(types.ResolutionMonth))},
		{"INTERVAL DAY(3) TO SECOND(2)", types.Must(types.NewDayTimeIntervalTypeWithPrecision(types.ResolutionDayToSecond, 3, 2))},
		{"INTERVAL HOUR TO MINUTE", types.Must(types.NewDayTimeIntervalType(types.ResolutionHourToMinute))},
		{"INTERVAL SECOND(3)", types.Must(types.NewDayTimeIntervalTypeWithPrecision(types.ResolutionSecond, 2, 3))},
		{"ARRAY<INT NOT NULL> NOT NULL", types.NotNull(types.Must(types.NewArrayType(types.NotNull(types.NewIntType()))))},
		{"MAP<STRING, ARRAY<DOUBLE>>", types.Must(types.NewMapType(types.NewStringType(), types.Must(types.NewArrayType(types.NewDoubleType()))))},
		{"ROW(a INT, `b c` STRING 'desc')", types.Must(types.NewRowType(
			types.RowField{Name: "a", Type: types.NewIntType()},
			types.RowField{Name: "b c", Type: types.NewStringType(), Description: "desc"},
		))},
		{"ROW<>", types.Must(types.NewRowType())},
		{"STRUCTURED<x BOOLEAN>", types.Must(types.NewStructuredType(nil,
			types.StructuredAttribute{Name: "x", Type: types.NewBooleanType()},
		))},
		{"RAW('java.lang.Integer', 'IntSerializer')", types.Must(types.NewRawType("java.lang.Integer", "IntSerializer"))},
		{"NULL", types.NewNullType()},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !types.Equal(got, tt.want) {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		cause error
	}{
		{"", nil},
		{"FOO", nil},
		{"INT INT", nil},
		{"ARRAY<INT", nil},
		{"MAP<INT>", nil},
		{"DECIMAL(40, 2)", types.ErrInvalidPrecision},
		{"DECIMAL(5, 6)", types.ErrInvalidScale},
		{"VARCHAR(0)", types.ErrInvalidLength},
		{"TIMESTAMP(12)", types.ErrInvalidPrecision},
		{"INTERVAL HOUR TO DAY", nil},
		{"INTERVAL DAY TO DAY", nil},
		{"ROW<a INT, a BIGINT>", types.ErrDuplicateFieldName},
		{"NULL NOT NULL", nil},
		{"cat.db.User", nil},
		{"RAW('', 's')", types.ErrInvalidRawType},
		{"INT @", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.input)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Errorf("expected cause %v, got %v", tt.cause, err)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("ARRAY<INT, BIGINT>")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Position != 9 {
		t.Errorf("Position = %d, want 9", perr.Position)
	}
}

func TestParseNamedStructured(t *testing.T) {
	user := types.Must(types.NewStructuredType(
		types.Must(types.NewObjectIdentifier("cat", "db", "User")),
		types.StructuredAttribute{Name: "id", Type: types.NewBigIntType()},
	))
	errMissing := errors.New("missing")
	resolve := func(id types.ObjectIdentifier) (*types.StructuredType, error) {
		if id.String() == "cat.db.User" {
			return user, nil
		}
		return nil, errMissing
	}

	for _, input := range []string{"cat.db.User", "`cat`.`db`.`User`", "ARRAY<cat.db.User NOT NULL>"} {
		t.Run(input, func(t *testing.T) {
			got, err := ParseWithResolver(input, resolve)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Root() == types.RootArray {
				got = got.Children()[0].Copy(true)
			}
			if !types.Equal(got, user) {
				t.Errorf("got %s, want %s", got, user)
			}
		})
	}

	if _, err := ParseWithResolver("cat.db.Other", resolve); !errors.Is(err, errMissing) {
		t.Errorf("expected resolver error, got %v", err)
	}
}

// TestProperty_RoundTrip checks that every generated type parses back from
// its summary string.
func TestProperty_RoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("Parse(t.String()) equals t", prop.ForAll(
		func(seed int64) bool {
			typ := types.Random(rand.New(rand.NewSource(seed)), 3)
			parsed, err := Parse(typ.String())
			if err != nil {
				t.Logf("%s: %v", typ, err)
				return false
			}
			return types.Equal(parsed, typ)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
