// Package testutils provides shared fixtures for tests across the codebase.
//
// Helper functions follow these naming conventions:
//   - Create*: build valid domain entities in memory without persisting them
//   - MustInsert*: persist entities through a store, failing the test on error
//   - Test*Config: configuration values suitable for fast tests
//
// Store-backed helpers take the store interfaces, so the same fixture code
// serves the in-memory, PostgreSQL (inside testdb.WithTx) and MongoDB
// backends.
package testutils
