// Package api handles incoming HTTP requests, request validation and
// response formatting. Handlers translate HTTP concerns into calls on the
// account, task and user services and map their errors to status codes in
// one place (errors.go).
package api
