// Package storage keeps uploaded source documents until their
// extraction jobs have consumed them.
package storage

import (
	"io"
)

// FileInfo describes a stored document.
type FileInfo struct {
	ID       string // unique identifier assigned at save time
	Name     string // original filename as uploaded
	Size     int64  // bytes
	MimeType string
	Path     string // backend-specific location
}

// Storage persists uploaded documents. Implementations exist for the
// local filesystem and MinIO.
type Storage interface {
	// Save stores the content and returns its assigned metadata.
	Save(reader io.Reader, filename string) (FileInfo, error)

	// Get opens a stored document by id.
	Get(id string) (io.ReadCloser, error)

	// Delete removes a stored document.
	Delete(id string) error

	// List enumerates all stored documents.
	List() ([]FileInfo, error)

	// Exists reports whether a document with the id is stored.
	Exists(id string) (bool, error)
}
