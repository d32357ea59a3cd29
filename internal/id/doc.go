// Package id provides identifier generation for mock entities.
//
// Entities requested by id keep the caller's id verbatim; this package is
// only used when a record is created without one:
//
//   - UUID: random UUID v4, the default for Store.Create
//   - Short: 16-character hex id for log correlation
package id
