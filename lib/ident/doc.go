// Package ident defines the textual object id used by every persisted object.
//
// An id is the string "2" followed by the lowercase hexadecimal form of a
// non-negative 64 bit number handed out by the allocator (see package alloc).
// The leading digit selects the generation scheme:
//
//   - "1": legacy time based scheme. Reserved, never generated.
//   - "2": sequence based scheme (seed * 1024 + increment).
//
// The encoding is externally visible (urls, logs, foreign keys of already
// persisted data) and must not change. Ids only contain characters that are
// safe inside a path segment.
package ident
