// Package format converts between the value model of package value and the
// textual and binary formats mocker speaks. The same implementations serve
// request and response bodies as well as the files behind store routes.
//
// Key Components:
//
//   - IFormat: Core interface every format implements. It encodes and decodes
//     single values (message bodies) and record lists (store files).
//
//   - jsonFormatImpl: JSON via encoding/json. Integral numbers are classified
//     into Unsigned or Integer and keep up to 128 bits of precision.
//
//   - tomlFormatImpl: TOML via go-toml. TOML has no null and no integers beyond
//     64 bits, both are reported as *UnsupportedError on encoding. Store files
//     keep their records under a top-level "records" array of tables.
//
//   - yamlFormatImpl: YAML via yaml.v3 node trees. Numbers follow the JSON
//     classification, emitted mappings are sorted by key.
//
//   - msgpackFormatImpl: Msgpack via vmihailenco/msgpack. Binary, therefore
//     only usable for store files.
//
// Malformed input is reported as *DecodeError carrying the position of the
// problem if the underlying engine knows it. DecodeError.Annotate renders the
// offending document with a pointer below the failing line.
//
// Thread Safety:
//
//	All formats are stateless and safe for concurrent use.
package format
