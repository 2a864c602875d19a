// Package ingest orchestrates the upload pipeline: validate raw bytes,
// parse them into an icon catalog, sanitize or synthesize the sprite, and
// hand the results to the store.
//
// The pipeline is fully synchronous and invoked once per upload. A failed
// upload writes nothing: every stage is a pure transform of its input and
// the store is only touched after all parsing succeeds.
package ingest

import (
	"context"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/spritekiln/spritekiln/core/catalog"
	"github.com/spritekiln/spritekiln/core/sanitize"
	"github.com/spritekiln/spritekiln/core/selection"
	"github.com/spritekiln/spritekiln/core/sprite"
	"github.com/spritekiln/spritekiln/internal/logging"
	"github.com/spritekiln/spritekiln/internal/store"
	"github.com/spritekiln/spritekiln/internal/validation"
)

// Result summarizes a completed ingest.
type Result struct {
	// UploadID identifies this ingest in logs and API responses.
	UploadID string `json:"upload_id"`
	// Fingerprint is the BLAKE3 hash of the upload bytes.
	Fingerprint string `json:"fingerprint"`
	// Icons is the number of catalog entries the upload produced.
	Icons int `json:"icons"`
	// SpriteBuilt reports whether a sprite was synthesized or stored.
	SpriteBuilt bool `json:"sprite_built"`
	// Deduplicated reports that the upload was byte-identical to the last
	// ingest and nothing was written.
	Deduplicated bool `json:"deduplicated"`
}

// Ingestor runs the upload pipeline against a store.
type Ingestor struct {
	store store.Store
}

// New creates an Ingestor backed by the given store.
func New(s store.Store) *Ingestor {
	return &Ingestor{store: s}
}

// Store exposes the backing store for read-side callers.
func (ing *Ingestor) Store() store.Store {
	return ing.store
}

// IngestJSON runs the pipeline for a selection.json upload. The catalog is
// replaced wholesale; a sprite is synthesized from the manifest's path
// data only when no sprite exists yet.
func (ing *Ingestor) IngestJSON(ctx context.Context, asset catalog.UploadedAsset) (*Result, error) {
	res := &Result{UploadID: uuid.NewString()}

	logging.IngestEvent(ctx, "validate", "json", "filename", asset.Filename, "size", asset.Size)
	if err := validation.Validate(asset, validation.KindJSON); err != nil {
		return nil, err
	}

	res.Fingerprint = fingerprint(asset.Data)
	same, err := ing.sameAsLastUpload(ctx, res.Fingerprint)
	if err != nil {
		return nil, err
	}
	if same {
		logging.IngestEvent(ctx, "dedupe", "json", "fingerprint", res.Fingerprint)
		res.Deduplicated = true
		return res, nil
	}

	logging.IngestEvent(ctx, "parse", "json", "filename", asset.Filename)
	icons, err := selection.Parse(asset.Data)
	if err != nil {
		return nil, err
	}
	specs, err := selection.ExtractPaths(asset.Data)
	if err != nil {
		return nil, err
	}
	res.Icons = len(icons)

	existing, err := ing.store.Sprite(ctx)
	if err != nil {
		return nil, err
	}

	var built string
	if existing == "" && len(specs) > 0 {
		logging.IngestEvent(ctx, "synthesize", "json", "icons", len(icons))
		doc, err := sprite.Build(specs, icons.Names())
		if err != nil {
			return nil, err
		}
		built = doc.String()
		res.SpriteBuilt = true
	}

	if err := ing.store.SaveCatalog(ctx, icons); err != nil {
		return nil, err
	}
	if built != "" {
		if err := ing.store.SaveSprite(ctx, built); err != nil {
			return nil, err
		}
	}
	if err := ing.store.SaveFingerprint(ctx, res.Fingerprint); err != nil {
		return nil, err
	}

	logging.IngestEvent(ctx, "complete", "json", "upload_id", res.UploadID, "icons", res.Icons)
	return res, nil
}

// IngestSVG runs the pipeline for a sprite upload. The sprite is
// sanitized before anything is parsed from it or stored. A sprite upload
// never overwrites a non-empty existing catalog; it fills the catalog
// only when none exists.
func (ing *Ingestor) IngestSVG(ctx context.Context, asset catalog.UploadedAsset) (*Result, error) {
	res := &Result{UploadID: uuid.NewString()}

	logging.IngestEvent(ctx, "validate", "svg", "filename", asset.Filename, "size", asset.Size)
	if err := validation.Validate(asset, validation.KindSVG); err != nil {
		return nil, err
	}

	res.Fingerprint = fingerprint(asset.Data)
	same, err := ing.sameAsLastUpload(ctx, res.Fingerprint)
	if err != nil {
		return nil, err
	}
	if same {
		logging.IngestEvent(ctx, "dedupe", "svg", "fingerprint", res.Fingerprint)
		res.Deduplicated = true
		return res, nil
	}

	logging.IngestEvent(ctx, "sanitize", "svg", "filename", asset.Filename)
	sanitized, err := sanitize.Sanitize(asset.Data)
	if err != nil {
		logging.SecurityEvent("svg_rejected", "sanitizer",
			"filename", asset.Filename, "reason", err.Error())
		return nil, err
	}

	icons, err := sprite.Parse([]byte(sanitized))
	if err != nil {
		return nil, err
	}
	res.Icons = len(icons)

	if err := ing.store.SaveSprite(ctx, sanitized); err != nil {
		return nil, err
	}
	res.SpriteBuilt = true

	existing, err := ing.store.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if existing.IsEmpty() {
		if err := ing.store.SaveCatalog(ctx, icons); err != nil {
			return nil, err
		}
	} else {
		// Sprite uploads never clobber a catalog built from a manifest.
		res.Icons = len(existing)
	}

	if err := ing.store.SaveFingerprint(ctx, res.Fingerprint); err != nil {
		return nil, err
	}

	logging.IngestEvent(ctx, "complete", "svg", "upload_id", res.UploadID, "icons", res.Icons)
	return res, nil
}

// Clear removes the persisted catalog, sprite, and fingerprint.
func (ing *Ingestor) Clear(ctx context.Context) error {
	logging.IngestEvent(ctx, "clear", "all")
	return ing.store.Clear(ctx)
}

func (ing *Ingestor) sameAsLastUpload(ctx context.Context, fp string) (bool, error) {
	last, err := ing.store.Fingerprint(ctx)
	if err != nil {
		return false, err
	}
	return last != "" && last == fp, nil
}

// fingerprint computes the BLAKE3 hash of upload bytes.
func fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
