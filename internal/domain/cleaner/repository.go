package cleaner

import "context"

// Repository resolves cleaner contact records.
type Repository interface {
	// GetContactsByIDs returns contacts keyed by cleaner ID. IDs that do not
	// resolve to an active cleaner are absent from the map.
	GetContactsByIDs(ctx context.Context, ids []string) (map[string]Contact, error)
}
