package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/arkilian/typecast/internal/casts"
	tcerrors "github.com/arkilian/typecast/internal/errors"
	"github.com/arkilian/typecast/pkg/types"
)

func newTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()
	catalog, err := NewCatalog(filepath.Join(t.TempDir(), "catalog.db"), 4)
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	t.Cleanup(func() { catalog.Close() })
	return catalog
}

func userType(t *testing.T) *types.StructuredType {
	t.Helper()
	return types.Must(types.NewStructuredType(
		types.Must(types.NewObjectIdentifier("cat", "db", "User")),
		types.StructuredAttribute{Name: "id", Type: types.NotNull(types.NewBigIntType())},
		types.StructuredAttribute{Name: "name", Type: types.NewStringType(), Description: "display name"},
	)).WithDescription("a user")
}

func TestCatalog_RegisterAndGetStructuredType(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()
	user := userType(t)

	if err := catalog.RegisterStructuredType(ctx, user); err != nil {
		t.Fatalf("RegisterStructuredType: %v", err)
	}

	got, err := catalog.GetStructuredType(ctx, *user.Identifier())
	if err != nil {
		t.Fatalf("GetStructuredType: %v", err)
	}
	if !types.Equal(got, user) {
		t.Errorf("got %s, want %s", got, user)
	}
	if got.Description() != "a user" {
		t.Errorf("description = %q", got.Description())
	}

	err = catalog.RegisterStructuredType(ctx, user)
	if tcerrors.GetCode(err) != tcerrors.CodeTypeExists {
		t.Errorf("duplicate registration: got %v, want TYPE_EXISTS", err)
	}

	_, err = catalog.GetStructuredType(ctx, *types.Must(types.NewObjectIdentifier("cat", "db", "Nope")))
	if tcerrors.GetCode(err) != tcerrors.CodeTypeNotFound {
		t.Errorf("missing type: got %v, want TYPE_NOT_FOUND", err)
	}

	anon := types.Must(types.NewStructuredType(nil, types.StructuredAttribute{Name: "x", Type: types.NewIntType()}))
	if err := catalog.RegisterStructuredType(ctx, anon); tcerrors.GetCode(err) != tcerrors.CodeInvalidName {
		t.Errorf("anonymous registration: got %v, want INVALID_NAME", err)
	}
}

func TestCatalog_NestedStructuredTypes(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()
	user := userType(t)

	order := types.Must(types.NewStructuredType(
		types.Must(types.NewObjectIdentifier("cat", "db", "Order")),
		types.StructuredAttribute{Name: "buyer", Type: types.NotNull(user)},
		types.StructuredAttribute{Name: "lines", Type: types.Must(types.NewArrayType(types.NewIntType()))},
	))

	if err := catalog.RegisterStructuredType(ctx, order); tcerrors.GetCode(err) != tcerrors.CodeTypeNotFound {
		t.Fatalf("unregistered nested type: got %v, want TYPE_NOT_FOUND", err)
	}
	if err := catalog.RegisterStructuredType(ctx, user); err != nil {
		t.Fatal(err)
	}
	if err := catalog.RegisterStructuredType(ctx, order); err != nil {
		t.Fatalf("RegisterStructuredType(order): %v", err)
	}

	got, err := catalog.ParseType(ctx, "ARRAY<cat.db.`Order` NOT NULL>")
	if err != nil {
		t.Fatalf("ParseType: %v", err)
	}
	want := types.Must(types.NewArrayType(types.NotNull(order)))
	if !types.Equal(got, want) {
		t.Errorf("got %s, want %s", got, want)
	}

	records, err := catalog.ListStructuredTypes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].Type.Identifier().Object != "User" || records[1].Type.Identifier().Object != "Order" {
		t.Errorf("unexpected listing order: %+v", records)
	}

	forged := types.Must(types.NewStructuredType(
		types.Must(types.NewObjectIdentifier("cat", "db", "Forged")),
		types.StructuredAttribute{Name: "u", Type: types.Must(types.NewStructuredType(
			types.Must(types.NewObjectIdentifier("cat", "db", "User")),
			types.StructuredAttribute{Name: "other", Type: types.NewIntType()},
		))},
	))
	if err := catalog.RegisterStructuredType(ctx, forged); tcerrors.GetCode(err) != tcerrors.CodeInvalidRequest {
		t.Errorf("mismatched nested definition: got %v, want INVALID_REQUEST", err)
	}
}

func TestCatalog_ParseTypeErrors(t *testing.T) {
	catalog := newTestCatalog(t)
	_, err := catalog.ParseType(context.Background(), "cat.db.Missing")
	if tcerrors.GetCategory(err) != tcerrors.ErrCategoryParse {
		t.Fatalf("got %v, want a PARSE error", err)
	}
	notFound := tcerrors.NewCatalogError(tcerrors.CodeTypeNotFound, "", nil)
	if !errors.Is(err, notFound) {
		t.Errorf("parse error should wrap TYPE_NOT_FOUND, got %v", err)
	}
}

func TestCatalog_ConcurrentReads(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()
	user := userType(t)
	if err := catalog.RegisterStructuredType(ctx, user); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := catalog.ParseType(ctx, "MAP<STRING, cat.db.User>"); err != nil {
					failures.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	if n := failures.Load(); n > 0 {
		t.Errorf("%d concurrent parses failed", n)
	}
}

func TestCatalog_SetResolveFunc(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	var calls atomic.Int32
	catalog.SetResolveFunc(func(source, target types.LogicalType) casts.Decision {
		calls.Add(1)
		return casts.Resolve(source, target)
	})

	cols := []Column{{Name: "a", Type: types.NewIntType()}}
	if _, err := catalog.RegisterSchema(ctx, "t", cols, EvolutionImplicit); err != nil {
		t.Fatal(err)
	}
	source := types.Must(types.NewRowType(types.RowField{Name: "x", Type: types.NewSmallIntType()}))
	if _, err := catalog.CheckAssignment(ctx, "t", source); err != nil {
		t.Fatal(err)
	}
	if calls.Load() == 0 {
		t.Error("custom resolver was not used")
	}
}
