// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/secure-vault/internal/model"
)

// RegistryStore loads and saves the account registry as a whole.
//
// Implementations must make Save atomic (a failed save leaves the previously
// persisted registry intact) and must serialize Update against every other
// writer, including writers in other processes. Storage failures satisfy
// errors.Is(err, errs.ErrPersistence).
type RegistryStore interface {
	// Load returns a snapshot of the registry. A missing store is an empty registry.
	Load(ctx context.Context) (*model.Registry, error)
	// Save replaces the persisted registry.
	Save(ctx context.Context, reg *model.Registry) error
	// Update loads the registry, applies fn and saves the result, all under one
	// exclusive lock. Nothing is saved if fn returns an error; that error is
	// returned unchanged.
	Update(ctx context.Context, fn func(reg *model.Registry) error) error
}
