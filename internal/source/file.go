// Package source provides catalog.Source implementations: a static JSON
// file directory and an HTTP endpoint (the spreadsheet-backed API analog).
// Both fetch the food, merchandise, and address feeds and decode them
// leniently; a missing feed yields an empty list, not an error.
package source

import (
	"context"
	"os"
	"path/filepath"

	"github.com/stelliesdp/storefront/internal/domain/catalog"
)

// Feed file names inside a data directory.
const (
	foodFile      = "food.json"
	merchFile     = "merch.json"
	addressesFile = "addresses.json"
)

var _ catalog.Source = (*FileSource)(nil)

// FileSource loads the catalog from JSON files in a local directory,
// matching the original static storefront layout (./data/*.json).
type FileSource struct {
	dir string
}

// NewFileSource creates a FileSource rooted at dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Fetch implements catalog.Source.
func (s *FileSource) Fetch(_ context.Context) (*catalog.Catalog, error) {
	food := catalog.DecodeProducts(readFeed(filepath.Join(s.dir, foodFile)))
	merch := catalog.DecodeProducts(readFeed(filepath.Join(s.dir, merchFile)))
	addresses := catalog.DecodeAddresses(readFeed(filepath.Join(s.dir, addressesFile)))

	return catalog.New(food, merch, addresses), nil
}

// readFeed returns the file contents, or nil when the file is missing or
// unreadable. The decoders treat nil as an empty feed.
func readFeed(path string) []byte {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return raw
}
