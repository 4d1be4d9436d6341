// Package blob stores and retrieves binary payloads (image edits and source
// PDFs) by content-addressed reference.
package blob

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrNotFound is returned by Fetch for an unknown reference.
var ErrNotFound = errors.New("blob not found")

// Store is the blob contract consumed by the renderer and the export
// serializer.
type Store interface {
	// Upload stores data and returns its reference. Uploading identical
	// bytes twice yields the same reference.
	Upload(ctx context.Context, data []byte, mimeType string) (string, error)
	// Fetch returns the bytes for a reference, or ErrNotFound.
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jpegMagic = []byte{0xff, 0xd8, 0xff}
	pdfMagic  = []byte("%PDF-")
)

// DetectMIME sniffs a payload's type from its signature. Unknown payloads
// report application/octet-stream.
func DetectMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return "image/png"
	case bytes.HasPrefix(data, jpegMagic):
		return "image/jpeg"
	case bytes.HasPrefix(data, pdfMagic):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// refFor derives the content-addressed reference for a payload.
func refFor(data []byte, mimeType string) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]) + extFor(mimeType)
}

func extFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}
