package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ArtifactStore holds model artifact bytes behind an opaque location token.
// The registry owns the store; nothing in the store refers back to the
// registry.
type ArtifactStore interface {
	Store(artifact []byte) (location string, err error)
	Load(location string) ([]byte, error)
}

// FilesystemStore keeps artifacts as content-addressed files under a root
// directory. Writes go through a temp file and rename so a crashed write
// never leaves a partial artifact at its final path.
type FilesystemStore struct {
	root string
}

func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}
	return &FilesystemStore{root: root}, nil
}

func (s *FilesystemStore) Store(artifact []byte) (string, error) {
	name := Fingerprint(artifact) + ".bin"
	finalPath := filepath.Join(s.root, name)

	if _, err := os.Stat(finalPath); err == nil {
		// Content-addressed: identical bytes already stored
		return name, nil
	}

	tmp, err := os.CreateTemp(s.root, "artifact-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp artifact: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(artifact); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close artifact: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to finalize artifact: %w", err)
	}

	return name, nil
}

func (s *FilesystemStore) Load(location string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.Base(location)))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", location, err)
	}
	return data, nil
}

// MemoryArtifactStore is the in-process ArtifactStore used by tests.
type MemoryArtifactStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryArtifactStore() *MemoryArtifactStore {
	return &MemoryArtifactStore{blobs: make(map[string][]byte)}
}

func (s *MemoryArtifactStore) Store(artifact []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	location := Fingerprint(artifact)
	copied := make([]byte, len(artifact))
	copy(copied, artifact)
	s.blobs[location] = copied
	return location, nil
}

func (s *MemoryArtifactStore) Load(location string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[location]
	if !ok {
		return nil, fmt.Errorf("artifact %s not found", location)
	}
	copied := make([]byte, len(blob))
	copy(copied, blob)
	return copied, nil
}
