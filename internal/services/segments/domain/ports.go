package domain

import "context"

// RegistryPort resolves natural segment tuples to ids
type RegistryPort interface {
	Lookup(ctx context.Context, key Key) (int64, error)
}
