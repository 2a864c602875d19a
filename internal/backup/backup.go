// Package backup exports and imports the icon store as an xz-compressed
// JSON snapshot. A snapshot captures the catalog, the derived sprite, and
// the last upload fingerprint so a restore is indistinguishable from the
// original ingest.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/ulikunitz/xz"

	"github.com/spritekiln/spritekiln/core/catalog"
	kilnerrors "github.com/spritekiln/spritekiln/core/errors"
	"github.com/spritekiln/spritekiln/internal/store"
)

// FormatVersion is bumped when the snapshot layout changes.
const FormatVersion = 1

// xzMagic is the 6-byte stream header every xz file starts with.
var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// Snapshot is the JSON payload inside a backup file.
type Snapshot struct {
	Version     int             `json:"version"`
	Catalog     catalog.Catalog `json:"catalog"`
	Sprite      string          `json:"sprite,omitempty"`
	Fingerprint string          `json:"fingerprint,omitempty"`
}

// Export writes an xz-compressed snapshot of the store to w.
func Export(ctx context.Context, s store.Store, w io.Writer) error {
	cat, err := s.Catalog(ctx)
	if err != nil {
		return err
	}
	spr, err := s.Sprite(ctx)
	if err != nil {
		return err
	}
	fp, err := s.Fingerprint(ctx)
	if err != nil {
		return err
	}

	snap := Snapshot{Version: FormatVersion, Catalog: cat, Sprite: spr, Fingerprint: fp}
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return kilnerrors.NewIO("marshal", "snapshot", err)
	}

	xw, err := xz.NewWriter(w)
	if err != nil {
		return kilnerrors.NewIO("compress", "snapshot", err)
	}
	if _, err := xw.Write(payload); err != nil {
		return kilnerrors.NewIO("write", "snapshot", err)
	}
	if err := xw.Close(); err != nil {
		return kilnerrors.NewIO("close", "snapshot", err)
	}
	return nil
}

// ExportFile writes a snapshot to path, creating or truncating it.
func ExportFile(ctx context.Context, s store.Store, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return kilnerrors.NewIO("create", path, err)
	}
	defer f.Close()

	if err := Export(ctx, s, f); err != nil {
		return err
	}
	return f.Close()
}

// Import reads an xz-compressed snapshot from r and replaces the store
// contents with it.
func Import(ctx context.Context, s store.Store, r io.Reader) error {
	snap, err := Read(r)
	if err != nil {
		return err
	}

	if err := s.SaveCatalog(ctx, snap.Catalog); err != nil {
		return err
	}
	if snap.Sprite != "" {
		if err := s.SaveSprite(ctx, snap.Sprite); err != nil {
			return err
		}
	}
	if snap.Fingerprint != "" {
		if err := s.SaveFingerprint(ctx, snap.Fingerprint); err != nil {
			return err
		}
	}
	return nil
}

// ImportFile reads a snapshot from path into the store.
func ImportFile(ctx context.Context, s store.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return kilnerrors.NewIO("open", path, err)
	}
	defer f.Close()

	return Import(ctx, s, f)
}

// Read decodes a snapshot without touching any store.
func Read(r io.Reader) (*Snapshot, error) {
	head := make([]byte, len(xzMagic))
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, &kilnerrors.FormatError{Format: "backup", Message: "truncated file", Err: err}
	}
	if !bytes.Equal(head, xzMagic) {
		return nil, kilnerrors.NewFormat("backup", "not an xz stream")
	}

	xr, err := xz.NewReader(io.MultiReader(bytes.NewReader(head), r))
	if err != nil {
		return nil, &kilnerrors.FormatError{Format: "backup", Message: "invalid xz stream", Err: err}
	}
	payload, err := io.ReadAll(xr)
	if err != nil {
		return nil, &kilnerrors.FormatError{Format: "backup", Message: "corrupt xz stream", Err: err}
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, &kilnerrors.FormatError{Format: "backup", Message: "invalid snapshot payload", Err: err}
	}
	if snap.Version != FormatVersion {
		return nil, kilnerrors.NewFormat("backup", "unsupported snapshot version")
	}
	return &snap, nil
}
