// Package testing provides a standardised test suite for implementations of
// the store.IStore interface.
//
// Example usage:
//
//	factory := func(path string) (store.IStore, error) {
//		return fstore.NewFileStore(path, "id", nil)
//	}
//	storetesting.RunStoreTests(t, "FileStore(json)", "json", factory)
package testing
