package credstore

import "context"

// Store persists the credential pair and identity snapshot outside process
// memory. Implementations must treat a missing or undecodable value as absent
// (zero value, nil error) and must never return a half-present credential.
//
// Store instances are intended to be configured during initialization and then
// treated as immutable unless documented otherwise.
type Store interface {
	LoadCredential(ctx context.Context) (Credential, error)
	SaveCredential(ctx context.Context, cred Credential) error
	ClearCredential(ctx context.Context) error

	LoadIdentity(ctx context.Context) (Identity, error)
	SaveIdentity(ctx context.Context, identity Identity) error
	ClearIdentity(ctx context.Context) error
}
