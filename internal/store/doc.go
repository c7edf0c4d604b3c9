// Package store defines the persistence contracts for tasks and users.
// Implementations live under internal/platform (postgres, mongodb, memory);
// callers depend only on the interfaces and sentinel errors declared here.
package store
