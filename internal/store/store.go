// Package store persists the icon catalog and the derived sprite.
//
// The pipeline requires only atomic whole-value replace: every save
// overwrites the previous catalog or sprite entirely, and a clear removes
// everything. Serializing concurrent writers is the store's job, not the
// pipeline's.
package store

import (
	"context"

	"github.com/spritekiln/spritekiln/core/catalog"
)

// Store persists the catalog, the derived sprite markup, and the
// fingerprint of the last ingested upload.
type Store interface {
	// Catalog returns the persisted catalog, or an empty catalog when
	// nothing has been ingested yet.
	Catalog(ctx context.Context) (catalog.Catalog, error)
	// SaveCatalog replaces the persisted catalog wholesale.
	SaveCatalog(ctx context.Context, c catalog.Catalog) error
	// Sprite returns the persisted sprite markup, or "" when none exists.
	Sprite(ctx context.Context) (string, error)
	// SaveSprite replaces the persisted sprite markup.
	SaveSprite(ctx context.Context, sprite string) error
	// Fingerprint returns the content hash of the last ingested upload.
	Fingerprint(ctx context.Context) (string, error)
	// SaveFingerprint records the content hash of an ingested upload.
	SaveFingerprint(ctx context.Context, fp string) error
	// Clear removes the catalog, sprite, and fingerprint.
	Clear(ctx context.Context) error
	// Close releases any resources held by the store.
	Close() error
}
