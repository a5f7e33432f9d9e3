// Package value defines the dynamic data type stored in collections and
// exchanged as CRUD payloads.
//
// Value is a closed sum type. The only implementations are the types of this
// package:
//
//   - Null, Bool, Float (64-bit), String
//   - Integer (128-bit signed) and Unsigned (128-bit unsigned), both backed by
//     math/big and range checked on construction
//   - Map (string keys) and Array
//
// Two notions of equality exist and are deliberately kept apart:
//
//   - Equal compares structurally (same kind, same content, recursively).
//   - LooseEqual compares the textual renderings of two values. It is used only
//     to match store identifiers, so that the query parameter "42" (a String)
//     finds a record whose identifier field holds the number 42.
//
// Conversion from and to payload formats (JSON, TOML, YAML, MessagePack) lives
// in the format package; FromGo converts plain Go values, which is mostly
// useful for building records in code and tests.
package value
