// Package storage defines the file-system abstraction used for the input
// graph and the output directory.
package storage

import "github.com/starford/logpress/internal/models"

// Provider is the interface for file operations relative to a root.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.FileMetadata, error)
	// Files returns metadata for every regular file under dir.
	Files(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Root is the absolute root directory.
	Root() string
}
