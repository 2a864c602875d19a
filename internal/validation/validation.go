// Package validation gatekeeps raw upload bytes before any parser sees
// them. It enforces size and emptiness limits, checks the declared file
// extension against the expected upload kind, and sniffs the MIME type
// from content bytes rather than trusting declared headers, bounding
// worst-case parse cost (CWE-400).
package validation

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spritekiln/spritekiln/core/catalog"
	kilnerrors "github.com/spritekiln/spritekiln/core/errors"
)

// MaxUploadSize is the maximum allowed upload size (5 MiB). It is the
// pipeline's only admission-control mechanism.
const MaxUploadSize = 5 << 20

// MaxFilenameLength is the maximum allowed filename length.
const MaxFilenameLength = 255

// Validation errors, checked in this order.
var (
	ErrFileTooLarge      = errors.New("file too large")
	ErrEmptyFile         = errors.New("empty file")
	ErrExtensionMismatch = errors.New("extension mismatch")
	ErrMimeMismatch      = errors.New("mime type mismatch")
	ErrInvalidFilename   = errors.New("invalid filename")
)

// Kind is the expected upload kind.
type Kind string

const (
	// KindJSON expects an IcoMoon selection.json manifest.
	KindJSON Kind = "json"
	// KindSVG expects an SVG sprite document.
	KindSVG Kind = "svg"
)

// extensions maps a kind to its accepted filename extensions.
var extensions = map[Kind][]string{
	KindJSON: {".json"},
	KindSVG:  {".svg"},
}

// mimeWhitelist maps a kind to the content-sniffed MIME types it accepts.
// SVG uploads also accept text/xml: a doctype or processing instruction
// ahead of the <svg> root sniffs as generic XML, and the sanitizer decides
// whether such documents are allowed.
var mimeWhitelist = map[Kind][]string{
	KindJSON: {"application/json"},
	KindSVG:  {"image/svg+xml", "text/xml"},
}

// Validate checks an uploaded asset against the expected kind.
// Rules run in a fixed order: size, emptiness, extension, sniffed MIME.
// It returns a *kilnerrors.ValidationError wrapping one of the sentinel
// errors above, or nil.
func Validate(asset catalog.UploadedAsset, kind Kind) error {
	if asset.Size > MaxUploadSize || int64(len(asset.Data)) > MaxUploadSize {
		return &kilnerrors.ValidationError{
			Field:   "size",
			Message: "upload exceeds 5 MiB limit",
			Err:     ErrFileTooLarge,
		}
	}

	if len(bytes.TrimSpace(asset.Data)) == 0 {
		return &kilnerrors.ValidationError{
			Field:   "content",
			Message: "upload is empty",
			Err:     ErrEmptyFile,
		}
	}

	if !extensionMatches(asset.Filename, kind) {
		return &kilnerrors.ValidationError{
			Field:   "extension",
			Value:   filepath.Ext(asset.Filename),
			Message: "extension does not match expected kind " + string(kind),
			Err:     ErrExtensionMismatch,
		}
	}

	sniffed := SniffMime(asset.Data)
	if !mimeAllowed(sniffed, kind) {
		return &kilnerrors.ValidationError{
			Field:   "mime",
			Value:   sniffed,
			Message: "content does not look like " + string(kind),
			Err:     ErrMimeMismatch,
		}
	}

	return nil
}

func extensionMatches(filename string, kind Kind) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range extensions[kind] {
		if ext == allowed {
			return true
		}
	}
	return false
}

func mimeAllowed(mime string, kind Kind) bool {
	for _, allowed := range mimeWhitelist[kind] {
		if mime == allowed {
			return true
		}
	}
	return false
}

// SniffMime detects the MIME type from content bytes. Declared headers are
// never consulted. Returns "application/octet-stream" for content that is
// neither JSON nor SVG text.
func SniffMime(data []byte) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	// Strip a UTF-8 BOM before structural checks.
	head = bytes.TrimPrefix(head, []byte{0xef, 0xbb, 0xbf})

	if !isLikelyText(head) {
		return "application/octet-stream"
	}

	trimmed := bytes.TrimLeftFunc(head, unicode.IsSpace)
	switch {
	case len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '['):
		return "application/json"
	case bytes.HasPrefix(trimmed, []byte("<svg")),
		bytes.HasPrefix(trimmed, []byte("<?xml")) && bytes.Contains(data, []byte("<svg")):
		return "image/svg+xml"
	case bytes.HasPrefix(trimmed, []byte("<")):
		return "text/xml"
	default:
		return "text/plain"
	}
}

// isLikelyText checks if the buffer contains likely text content.
// Returns true if the buffer appears to be text (UTF-8, ASCII).
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}

	// Null bytes are a strong indicator of binary content.
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable := 0
	control := 0
	for _, b := range buf {
		if b >= 0x20 && b <= 0x7e || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else if b < 0x20 && b != '\t' && b != '\n' && b != '\r' {
			control++
		}
		// UTF-8 continuation and start bytes are neutral
	}

	if printable > 0 && float64(printable)/float64(printable+control) > 0.95 {
		return true
	}
	return false
}

// ValidateFilename checks that a declared filename is safe to log and echo
// back: no path separators, control characters, or null bytes.
func ValidateFilename(filename string) error {
	if filename == "" || filename == "." || filename == ".." {
		return ErrInvalidFilename
	}
	if len(filename) > MaxFilenameLength {
		return ErrInvalidFilename
	}
	if strings.ContainsAny(filename, "/\\") {
		return ErrInvalidFilename
	}
	if strings.Contains(filename, "\x00") {
		return ErrInvalidFilename
	}
	for _, r := range filename {
		if unicode.IsControl(r) {
			return ErrInvalidFilename
		}
	}
	return nil
}
