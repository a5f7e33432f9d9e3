package testing

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/mocker/lib/store"
	"github.com/ValentinKolb/mocker/lib/value"
)

// StoreFactory is a function that creates a new IStore backed by the file at path
type StoreFactory func(path string) (store.IStore, error)

// RunStoreTests runs a comprehensive test suite for an IStore implementation.
// ext is the file extension the store files are created with.
func RunStoreTests(t *testing.T, name string, ext string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		newStore := func(t *testing.T) store.IStore {
			s, err := factory(filepath.Join(t.TempDir(), "records."+ext))
			if err != nil {
				t.Fatalf("Failed to create store: %v", err)
			}
			return s
		}

		t.Run("Create&Find", func(t *testing.T) {
			testCreateFind(t, newStore(t))
		})

		t.Run("Conflict", func(t *testing.T) {
			testConflict(t, newStore(t))
		})

		t.Run("MissingIdentifier", func(t *testing.T) {
			testMissingIdentifier(t, newStore(t))
		})

		t.Run("IdentifierCase", func(t *testing.T) {
			testIdentifierCase(t, newStore(t))
		})

		t.Run("Remove", func(t *testing.T) {
			testRemove(t, newStore(t))
		})

		t.Run("MissingFile", func(t *testing.T) {
			testMissingFile(t, newStore(t))
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, newStore(t), factory)
		})

		t.Run("CorruptFile", func(t *testing.T) {
			testCorruptFile(t, newStore(t))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func record(id any, name string) value.Map {
	return value.MustMap(map[string]any{"id": id, "name": name})
}

func requireCode(t *testing.T, err error, code store.RetCode) {
	t.Helper()
	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("Expected *store.Error with code %s, got %v", code, err)
	}
	if storeErr.Code != code {
		t.Fatalf("Expected code %s, got %s (%v)", code, storeErr.Code, err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testCreateFind(t *testing.T, s store.IStore) {
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	id, err := s.Create(record(42, "Joe"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if value.Render(id) != "42" {
		t.Errorf("Expected identifier 42, got %s", value.Render(id))
	}

	rec, found := s.Find(value.String("42"))
	if !found {
		t.Fatalf("Expected record 42 to be found by its textual identifier")
	}
	if !value.Equal(rec["name"], value.String("Joe")) {
		t.Errorf("Expected name Joe, got %v", rec["name"])
	}

	if _, found := s.Find(value.String("43")); found {
		t.Errorf("Expected record 43 not to exist")
	}
}

func testConflict(t *testing.T, s store.IStore) {
	if _, err := s.Create(record(42, "Joe")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := s.Create(record("42", "Jane"))
	requireCode(t, err, store.RetCConflict)

	if len(s.Records()) != 1 {
		t.Errorf("Expected 1 record after conflict, got %d", len(s.Records()))
	}
}

func testMissingIdentifier(t *testing.T, s store.IStore) {
	for i := 0; i < 2; i++ {
		id, err := s.Create(value.MustMap(map[string]any{"name": "anonymous"}))
		if err != nil {
			t.Fatalf("Create without identifier failed: %v", err)
		}
		if _, ok := id.(value.Null); !ok {
			t.Errorf("Expected Null identifier, got %v", id)
		}
	}
	if len(s.Records()) != 2 {
		t.Errorf("Expected 2 records without identifier, got %d", len(s.Records()))
	}
}

func testIdentifierCase(t *testing.T, s store.IStore) {
	rec := value.MustMap(map[string]any{"ID": 7, "name": "upper"})
	id, err := s.Create(rec)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if value.Render(id) != "7" {
		t.Errorf("Expected identifier 7 from field ID, got %v", id)
	}
	if !s.Contains(value.NewUnsigned(7)) {
		t.Errorf("Expected record 7 to be found")
	}
}

func testRemove(t *testing.T, s store.IStore) {
	for i, name := range []string{"a", "b", "c"} {
		if _, err := s.Create(record(i, name)); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if !s.Remove(value.String("1")) {
		t.Fatalf("Expected record 1 to be removed")
	}
	if s.Remove(value.String("1")) {
		t.Errorf("Expected second removal of record 1 to fail")
	}

	records := s.Records()
	if len(records) != 2 || value.Render(records[0]["name"]) != "a" || value.Render(records[1]["name"]) != "c" {
		t.Errorf("Expected records a and c in order, got %v", records)
	}
}

func testMissingFile(t *testing.T, s store.IStore) {
	if _, err := os.Stat(s.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Expected %s not to exist", s.Path())
	}
	if err := s.Load(); err != nil {
		t.Fatalf("Load of missing file failed: %v", err)
	}
	if len(s.Records()) != 0 {
		t.Errorf("Expected empty collection, got %d records", len(s.Records()))
	}
}

func testSaveLoad(t *testing.T, s store.IStore, factory StoreFactory) {
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for i, name := range []string{"Joe", "Jane", "Jim"} {
		if _, err := s.Create(record(i+1, name)); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reopened, err := factory(s.Path())
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load of saved file failed: %v", err)
	}

	got, want := reopened.Records(), s.Records()
	if len(got) != len(want) {
		t.Fatalf("Expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		// formats differ in integer kinds, compare renderings
		if value.Render(got[i]) != value.Render(want[i]) {
			t.Errorf("Record %d: expected %s, got %s", i, value.Render(want[i]), value.Render(got[i]))
		}
	}

	// Load replaces, it does not append
	if err := reopened.Load(); err != nil {
		t.Fatalf("Second load failed: %v", err)
	}
	if len(reopened.Records()) != len(want) {
		t.Errorf("Expected %d records after reload, got %d", len(want), len(reopened.Records()))
	}
}

func testCorruptFile(t *testing.T, s store.IStore) {
	if err := os.WriteFile(s.Path(), []byte("{{{"), 0o644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}
	requireCode(t, s.Load(), store.RetCCodecError)
}
