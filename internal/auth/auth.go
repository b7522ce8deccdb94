// Package auth wraps the hosted wallet-auth provider. Token verification
// and profile lookup are delegated to the provider on every call; no
// verification result is cached locally.
package auth

import "context"

// Verifier resolves a bearer token to the subject's primary wallet
// address.
type Verifier interface {
	ResolveWallet(ctx context.Context, authToken string) (string, error)
}
