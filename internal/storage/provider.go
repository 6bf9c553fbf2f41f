// Package storage defines the workspace file-system abstraction.
package storage

import "github.com/shihwesley/chronicler-sub000/internal/models"

// Provider is the interface for workspace file operations.
type Provider interface {
	// List returns metadata for every document file under dir (relative to the workspace root).
	List(dir string) ([]models.DocumentMetadata, error)
	// Read returns the raw bytes of the file at location (relative to the workspace root).
	Read(location string) ([]byte, error)
	// Write atomically writes content to location (relative to the workspace root).
	Write(location string, content []byte) error
	// Delete removes the file at location (relative to the workspace root).
	Delete(location string) error
}
