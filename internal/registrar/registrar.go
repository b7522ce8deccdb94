// Package registrar wraps the hosted indexing provider's webhook API.
// Registration is an idempotent append: adding an address that is already
// monitored leaves the provider-side webhook unchanged.
package registrar

import "context"

// Registrar registers addresses for monitoring with the hosted provider.
type Registrar interface {
	AppendAddresses(ctx context.Context, addresses []string, eventTypes []string) error
}
