// Package service contains the task and user use cases. Every operation
// receives the authenticated domain.Principal and applies the ownership rule
// (owner or admin) before touching a record; stores are reached only through
// the interfaces in internal/store.
package service
