// Package inventory implements the server record store.
//
// Owns:
//   - The Server record and its canonical (lower-cased) serial number key
//   - Load/add/search/delete against a single JSON file
//   - CSV and SQLite exports, and schema checks of the store file
//
// Does not own:
//   - Prompting, rendering, or any other terminal interaction
//   - Configuration lookup (callers pass the store path)
//
// Invariants:
//   - No two records share a serial number once lower-cased
//   - Every mutation is a full read, modify and atomic rewrite of the file
//   - A missing, empty or undecodable store file loads as an empty store
package inventory
