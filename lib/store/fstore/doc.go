// Package fstore implements store.IStore on top of a single file holding the
// whole collection. The format (JSON, TOML, YAML or msgpack) is detected by
// the file extension unless one is given explicitly.
//
// Persistence is a plain overwrite of the file on every Save: the file is
// truncated and rewritten, there is no journal and no atomic rename. This keeps
// the file human editable while the server is running. A file that does not
// exist yet loads as an empty collection and is created by the first Save.
//
// Thread Safety:
//
//	A store is not safe for concurrent use. Request handlers hold the
//	lockmgr lock for Path() during Load, the mutation and Save.
//
// Usage Example:
//
//	users, err := fstore.NewFileStore("data/users.json", "id", nil)
//	if err != nil {
//	    // Handle error
//	}
//	if err := users.Load(); err != nil {
//	    // Handle error
//	}
//	id, err := users.Create(value.MustMap(map[string]any{"id": 42, "name": "Joe"}))
//	if err == nil {
//	    err = users.Save()
//	}
package fstore
