// Package store provides the record collections served by store routes.
// A collection is an ordered list of records (value.Map) persisted as a whole
// in one file, each record optionally carrying an identifier field.
//
// The package focuses on:
//   - A unified interface (IStore) for loading, querying, mutating and saving
//     a collection
//   - Loose identifier matching, so the identifier "42" taken from a query
//     string finds the record whose identifier is the number 42
//
// Key Components:
//
//   - IStore Interface: The core abstraction. A store holds no data until
//     Load is called and is not a cache: request handlers load it at the start
//     of every request and save it before returning.
//
//   - Error System: A structured error reporting mechanism using typed error
//     codes (RetCode) and descriptive messages, so request handlers can map
//     a conflict or a codec failure to the matching response status.
//
// Implementations:
//
//	- File Store (fstore): Reads and writes the collection with one of the
//	  formats of package format, detected by the file extension.
//	  Available in the "github.com/ValentinKolb/mocker/lib/store/fstore" package.
package store
