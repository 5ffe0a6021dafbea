package pipeline

import (
	"context"
	"fmt"
	"os"
)

// BundleStore transports serialized bundles across the engine boundary.
// The engine calls it only at the edges of a run, never mid-pipeline.
type BundleStore interface {
	// Fetch produces the serialized bundle for a reference.
	Fetch(ctx context.Context, ref string) ([]byte, error)
	// Store persists a serialized bundle and returns its new reference.
	Store(ctx context.Context, data []byte) (string, error)
}

// FileStore is a BundleStore over the local filesystem: references are
// paths, and Store always writes to OutPath.
type FileStore struct {
	// OutPath is where Store writes the rewritten bundle.
	OutPath string
}

// Fetch reads the file at ref.
func (s *FileStore) Fetch(_ context.Context, ref string) ([]byte, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("fetching bundle %s: %w", ref, err)
	}

	return data, nil
}

// Store writes data to OutPath and returns it as the new reference.
func (s *FileStore) Store(_ context.Context, data []byte) (string, error) {
	if s.OutPath == "" {
		return "", fmt.Errorf("file store has no output path")
	}

	if err := os.WriteFile(s.OutPath, data, 0o644); err != nil {
		return "", fmt.Errorf("storing bundle %s: %w", s.OutPath, err)
	}

	return s.OutPath, nil
}
