// Package events carries account lifecycle events from the services that
// raise them to the handlers that react, without either side importing the
// other.
//
// The primary components are:
// - Event: a typed envelope with a JSON payload
// - Handler: receives every emitted event and acts on the types it knows
// - Emitter: publishes events to the registered handlers
package events
