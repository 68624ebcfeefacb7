// Package storage defines where uploaded movement attachments and profile
// photos live.
package storage

import "context"

// Store persists uploaded files under generated names.
type Store interface {
	// Save validates data and stores it, returning the generated filename.
	// The content type is sniffed from data; declared types are ignored.
	Save(ctx context.Context, data []byte, originalName string) (string, error)
	// Open returns the content of a stored file and its sniffed MIME type.
	Open(ctx context.Context, name string) ([]byte, string, error)
	// Delete removes a stored file. Missing files are not an error.
	Delete(ctx context.Context, name string) error
}
