// Package tenant opens short-lived connections to user-supplied Postgres
// databases. Connections never outlive the request or envelope that
// needed them; acquisition is scoped and release happens on every exit
// path.
package tenant

import "context"

// Connector validates tenant connection strings and writes ingested
// transaction rows into tenant databases.
type Connector interface {
	Validate(ctx context.Context, connString string) error
	InsertTransaction(ctx context.Context, connString, description, address string) error
}
