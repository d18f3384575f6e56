// Package directory owns the organizational directory schema: organizations,
// their departments and people, user accounts, and the full-text index that
// projects departments and people into searchable documents.
//
// # Index maintenance
//
// Every department or person mutation goes through Store, which updates the
// directory_documents projection in the same transaction as the base row.
// FTS triggers created by Migrate keep the directory_fts virtual table in
// lockstep with directory_documents, so the search subsystem only ever reads
// the index.
//
// # User directory
//
// UserDirectory implements the global, cross-organization account lookup. It
// is deliberately separate from the FTS path: it uses parameterized substring
// matching and is restricted to accounts flagged discoverable.
package directory
